package grid

import (
	"fmt"

	"github.com/notargets/hybridpic/types"
)

// Geometry describes the uniform problem domain of one level
type Geometry struct {
	Dim      types.Dimensionality
	NCell    IntVect
	Domain   Box // cell centered index range of the domain
	ProbLo   [3]float64
	ProbHi   [3]float64
	CellSize [3]float64
	Periodic [3]bool
	BC       [3][2]types.FieldBC // lo and hi face of each dimension
}

// NewGeometry builds a level geometry. Entries of nCell, probLo, probHi and
// periodic beyond the dimensionality are ignored
func NewGeometry(dim types.Dimensionality, nCell IntVect, probLo, probHi [3]float64,
	periodic [3]bool) (g *Geometry, err error) {
	g = &Geometry{
		Dim: dim,
	}
	sd := dim.SpaceDim()
	for d := 0; d < 3; d++ {
		if d >= sd {
			g.NCell[d] = 1
			g.CellSize[d] = 1
			continue
		}
		if nCell[d] < 1 {
			err = fmt.Errorf("geometry: n_cell[%d] = %d must be positive", d, nCell[d])
			return
		}
		if probHi[d] <= probLo[d] {
			err = fmt.Errorf("geometry: prob_hi[%d] = %g must exceed prob_lo[%d] = %g",
				d, probHi[d], d, probLo[d])
			return
		}
		g.NCell[d] = nCell[d]
		g.ProbLo[d], g.ProbHi[d] = probLo[d], probHi[d]
		g.CellSize[d] = (probHi[d] - probLo[d]) / float64(nCell[d])
		g.Periodic[d] = periodic[d]
		if !periodic[d] {
			g.BC[d] = [2]types.FieldBC{types.BC_PEC, types.BC_PEC}
		}
	}
	g.Domain = Box{Hi: IntVect{g.NCell[0] - 1, g.NCell[1] - 1, g.NCell[2] - 1}}
	return
}

func (g *Geometry) SpaceDim() int { return g.Dim.SpaceDim() }

// Coord maps an index along logical dimension d to a physical coordinate,
// offsetting cell centered points by half a cell
func (g *Geometry) Coord(d, idx, flag int) float64 {
	if d >= g.SpaceDim() {
		return 0
	}
	return float64(idx)*g.CellSize[d] + g.ProbLo[d] + float64(1-flag)*0.5*g.CellSize[d]
}

// Position maps a grid index to physical (x, y, z). 1D uses index 0 for z, 2D
// uses (0, 1) for (x, z)
func (g *Geometry) Position(i, j, k int, ixType IntVect) (x, y, z float64) {
	switch g.Dim {
	case types.Dim1DZ:
		z = g.Coord(0, i, ixType[0])
	case types.DimXZ, types.DimRZ:
		x = g.Coord(0, i, ixType[0])
		z = g.Coord(1, j, ixType[1])
	default:
		x = g.Coord(0, i, ixType[0])
		y = g.Coord(1, j, ixType[1])
		z = g.Coord(2, k, ixType[2])
	}
	return
}

// ValidBox is the index range of a field with index type ixType that lies
// inside the domain
func (g *Geometry) ValidBox(ixType IntVect) (bx Box) {
	bx = g.Domain
	for d := 0; d < g.SpaceDim(); d++ {
		bx.Hi[d] += ixType[d]
	}
	return
}
