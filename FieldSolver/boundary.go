package FieldSolver

import (
	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/types"
)

// FieldBoundary applies the physical boundaries of a level and refreshes
// ghost points
type FieldBoundary struct {
	Geom *grid.Geometry
}

func NewFieldBoundary(geom *grid.Geometry) *FieldBoundary {
	return &FieldBoundary{Geom: geom}
}

// ApplyEfieldBoundary zeroes tangential E on PEC faces
func (fb *FieldBoundary) ApplyEfieldBoundary(E grid.VectorField) {
	for d := 0; d < fb.Geom.SpaceDim(); d++ {
		if fb.Geom.Periodic[d] {
			continue
		}
		for c := 0; c < 3; c++ {
			// tangential components are those not resolved along d
			if AxisDim(fb.Geom.Dim, c) == d || E[c] == nil {
				continue
			}
			f := E[c]
			for side := 0; side < 2; side++ {
				if fb.Geom.BC[d][side] != types.BC_PEC || f.IxType[d] != 1 {
					continue
				}
				face := f.Valid.Lo[d]
				if side == 1 {
					face = f.Valid.Hi[d]
				}
				bx := f.Valid
				bx.Lo[d], bx.Hi[d] = face, face
				setBox(f, bx, 0)
			}
		}
	}
}

// ApplyElectronPressureBoundary gives Pe zero normal gradient on every non
// periodic face
func (fb *FieldBoundary) ApplyElectronPressureBoundary(Pe *grid.Field) {
	for d := 0; d < fb.Geom.SpaceDim(); d++ {
		if fb.Geom.Periodic[d] || Pe.NGrow[d] == 0 {
			continue
		}
		bx := Pe.Grown
		for k := bx.Lo[2]; k <= bx.Hi[2]; k++ {
			for j := bx.Lo[1]; j <= bx.Hi[1]; j++ {
				for i := bx.Lo[0]; i <= bx.Hi[0]; i++ {
					p := [3]int{i, j, k}
					q := p
					switch {
					case p[d] < Pe.Valid.Lo[d]:
						q[d] = Pe.Valid.Lo[d]
					case p[d] > Pe.Valid.Hi[d]:
						q[d] = Pe.Valid.Hi[d]
					default:
						continue
					}
					Pe.Set(i, j, k, Pe.At(q[0], q[1], q[2]))
				}
			}
		}
	}
}

func (fb *FieldBoundary) FillBoundary(fields ...*grid.Field) {
	grid.FillBoundary(fb.Geom, fields...)
}

func setBox(f *grid.Field, bx grid.Box, val float64) {
	for k := bx.Lo[2]; k <= bx.Hi[2]; k++ {
		for j := bx.Lo[1]; j <= bx.Hi[1]; j++ {
			for i := bx.Lo[0]; i <= bx.Hi[0]; i++ {
				f.Set(i, j, k, val)
			}
		}
	}
}
