package FieldSolver

import (
	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/types"
)

type tap struct {
	off int
	w   float64
}

// pointOp evaluates a weighted sum of a field's neighbours around a point. The
// taps of each logical dimension are fixed when the op is built
type pointOp struct {
	f *grid.Field
	t [3][]tap
}

var (
	same      = []tap{{0, 1}}
	nodeToCel = []tap{{0, 0.5}, {1, 0.5}}
	celToNode = []tap{{-1, 0.5}, {0, 0.5}}
)

func interpTaps(src, dst int) []tap {
	switch {
	case src == dst:
		return same
	case src == 1:
		return nodeToCel
	default:
		return celToNode
	}
}

func derivTaps(src, dst int, dx float64) []tap {
	inv := 1. / dx
	switch {
	case src == dst:
		return []tap{{-1, -0.5 * inv}, {1, 0.5 * inv}}
	case src == 1: // node to cell, forward
		return []tap{{0, -inv}, {1, inv}}
	default: // cell to node, backward
		return []tap{{-1, -inv}, {0, inv}}
	}
}

// Interpolator returns an op giving f at points of index type dst. Each
// dimension where the staggering differs averages the two nearest points
func Interpolator(f *grid.Field, dst grid.IntVect) (op pointOp) {
	op.f = f
	for d := 0; d < 3; d++ {
		op.t[d] = interpTaps(f.IxType[d], dst[d])
	}
	return
}

// Derivative returns an op giving df/dx_d at points of index type dst, with
// the other dimensions interpolated
func Derivative(f *grid.Field, dst grid.IntVect, d int, dx float64) (op pointOp) {
	op = Interpolator(f, dst)
	op.t[d] = derivTaps(f.IxType[d], dst[d], dx)
	return
}

func (op pointOp) At(i, j, k int) (v float64) {
	if op.f == nil {
		return 0
	}
	for _, a := range op.t[0] {
		for _, b := range op.t[1] {
			for _, c := range op.t[2] {
				v += a.w * b.w * c.w * op.f.At(i+a.off, j+b.off, k+c.off)
			}
		}
	}
	return
}

// AxisDim maps a Cartesian axis (0 = x, 1 = y, 2 = z) to the logical
// dimension that resolves it, or -1 when the axis is not resolved
func AxisDim(dim types.Dimensionality, axis int) int {
	switch dim {
	case types.Dim1DZ:
		if axis == 2 {
			return 0
		}
	case types.DimXZ, types.DimRZ:
		switch axis {
		case 0:
			return 0
		case 2:
			return 1
		}
	default:
		return axis
	}
	return -1
}

// curlOp holds the two derivative terms of one curl component:
// curl_c = d(F_b)/d(x_a) - d(F_a)/d(x_b) with (c, a, b) cyclic
type curlOp struct {
	plus, minus pointOp
}

func (co curlOp) At(i, j, k int) float64 {
	return co.plus.At(i, j, k) - co.minus.At(i, j, k)
}

func newCurlOp(geom *grid.Geometry, F grid.VectorField, c int, dst grid.IntVect) (co curlOp) {
	var (
		a = (c + 1) % 3
		b = (c + 2) % 3
	)
	if d := AxisDim(geom.Dim, a); d >= 0 {
		co.plus = Derivative(F[b], dst, d, geom.CellSize[d])
	}
	if d := AxisDim(geom.Dim, b); d >= 0 {
		co.minus = Derivative(F[a], dst, d, geom.CellSize[d])
	}
	return
}

// Covered reports whether an embedded boundary covers point (i, j, k) of edge
func Covered(edge *grid.Field, i, j, k int) bool {
	return edge != nil && edge.Contains(i, j, k) && edge.At(i, j, k) <= 0
}

// YeeStaggering returns the index types of E (shared by J) and of B on a Yee
// mesh of the given dimensionality. Unresolved dimensions are nodal
func YeeStaggering(dim types.Dimensionality) (e, b [3]grid.IntVect) {
	switch dim {
	case types.Dim1DZ:
		e = [3]grid.IntVect{{1, 1, 1}, {1, 1, 1}, {0, 1, 1}}
		b = [3]grid.IntVect{{0, 1, 1}, {0, 1, 1}, {1, 1, 1}}
	case types.DimXZ, types.DimRZ:
		e = [3]grid.IntVect{{0, 1, 1}, {1, 1, 1}, {1, 0, 1}}
		b = [3]grid.IntVect{{1, 0, 1}, {0, 0, 1}, {0, 1, 1}}
	default:
		e = [3]grid.IntVect{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}}
		b = [3]grid.IntVect{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	return
}
