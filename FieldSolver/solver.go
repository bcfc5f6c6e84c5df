package FieldSolver

import (
	"errors"
	"fmt"
	"sync"

	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/types"
	"github.com/notargets/hybridpic/utils"
)

var (
	ErrCylindrical   = errors.New("FieldSolver: cylindrical (RZ) stencils are not implemented")
	ErrFieldMismatch = errors.New("FieldSolver: field staggering mismatch")
)

// FiniteDifferenceSolver applies Yee stencils on one level
type FiniteDifferenceSolver struct {
	Geom   *grid.Geometry
	Decomp *grid.Decomposition

	mu         sync.Mutex
	laplacians map[lapKey]*Laplacian
}

func NewFiniteDifferenceSolver(geom *grid.Geometry, decomp *grid.Decomposition) (fds *FiniteDifferenceSolver, err error) {
	if geom.Dim == types.DimRZ {
		err = ErrCylindrical
		return
	}
	fds = &FiniteDifferenceSolver{
		Geom:       geom,
		Decomp:     decomp,
		laplacians: make(map[lapKey]*Laplacian),
	}
	return
}

// CalculateCurrentAmpere sets J = curl(B)/mu0 on the valid points of J.
// Points whose edge length is not positive are set to zero
func (fds *FiniteDifferenceSolver) CalculateCurrentAmpere(J, B, edgeLengths grid.VectorField) (err error) {
	if !J.Allocated() || !B.Allocated() {
		return fmt.Errorf("%w: Ampere needs J and B", ErrFieldMismatch)
	}
	for c := 0; c < 3; c++ {
		var (
			dst  = J[c]
			co   = newCurlOp(fds.Geom, B, c, dst.IxType)
			edge = edgeLengths[c]
		)
		fds.Decomp.ForField(dst, false, func(i, j, k int) {
			if Covered(edge, i, j, k) {
				dst.Set(i, j, k, 0)
				return
			}
			dst.Set(i, j, k, co.At(i, j, k)/utils.MU0)
		})
	}
	return
}

// EvolveB advances Faraday's law, B = B - dt*curl(E), on the valid points of B
func (fds *FiniteDifferenceSolver) EvolveB(B, E grid.VectorField, dt float64) (err error) {
	if !E.Allocated() || !B.Allocated() {
		return fmt.Errorf("%w: Faraday needs E and B", ErrFieldMismatch)
	}
	for c := 0; c < 3; c++ {
		var (
			dst = B[c]
			co  = newCurlOp(fds.Geom, E, c, dst.IxType)
		)
		fds.Decomp.ForField(dst, false, func(i, j, k int) {
			dst.Set(i, j, k, dst.At(i, j, k)-dt*co.At(i, j, k))
		})
	}
	return
}
