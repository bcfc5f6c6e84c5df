package FieldSolver

import (
	"fmt"
	"math"

	"github.com/notargets/hybridpic/grid"
)

// OhmSources are the fields read by the Ohm's law solve
type OhmSources struct {
	J           grid.VectorField // total current from Ampere's law
	Ji          grid.VectorField // ion current
	Jext        grid.VectorField // external current, may be unallocated
	B           grid.VectorField
	Bext        grid.VectorField // external magnetic field, may be unallocated
	Rho         *grid.Field      // ion charge density
	Pe          *grid.Field      // electron pressure, same staggering as Rho
	EdgeLengths grid.VectorField
}

// OhmParams carry the closure coefficients of the Ohm's law solve
type OhmParams struct {
	Eta                func(rho, j float64) float64 // nil for an ideal plasma
	EtaDependsOnJ      bool
	EtaH               float64 // hyper-resistivity
	RhoFloor           float64 // charge density floor
	IncludeResistivity bool
}

/*
HybridSolveE computes E at every valid E point from the hybrid Ohm's law

	E = [ (J - Ji - Jext) x (B + Bext) - grad(Pe) ] / rho
	    + eta(rho, |J|) (J - Jext) - eta_h lap(J)

All sources are interpolated to the E point. The resistive and hyper-resistive
terms are only added when IncludeResistivity is set. Points covered by an
embedded boundary are left untouched.
*/
func (fds *FiniteDifferenceSolver) HybridSolveE(E grid.VectorField, src OhmSources, p OhmParams) (err error) {
	if !E.Allocated() || !src.J.Allocated() || !src.Ji.Allocated() || !src.B.Allocated() ||
		src.Rho == nil || src.Pe == nil {
		return fmt.Errorf("%w: Ohm's law needs E, J, Ji, B, rho and Pe", ErrFieldMismatch)
	}
	for c := 0; c < 3; c++ {
		if E[c].IxType != src.J[c].IxType {
			return fmt.Errorf("%w: E%d %v, J%d %v", ErrFieldMismatch, c, E[c].IxType, c, src.J[c].IxType)
		}
	}
	for c := 0; c < 3; c++ {
		fds.solveComponent(E, c, src, p)
	}
	return
}

func (fds *FiniteDifferenceSolver) solveComponent(E grid.VectorField, c int, src OhmSources, p OhmParams) {
	var (
		dst               = E[c]
		t                 = dst.IxType
		jOp, jiOp, jextOp [3]pointOp
		bOp, bextOp       [3]pointOp
		rhoOp             = Interpolator(src.Rho, t)
		gradPe            pointOp
		edge              = src.EdgeLengths[c]
		a, b              = (c + 1) % 3, (c + 2) % 3
		useEta            = p.IncludeResistivity && p.Eta != nil
		useHyper          = p.IncludeResistivity && p.EtaH != 0
		lap               *Laplacian
		jData             = src.J[c].Data
		needJmag          = useEta && p.EtaDependsOnJ
	)
	for m := 0; m < 3; m++ {
		jOp[m] = Interpolator(src.J[m], t)
		jiOp[m] = Interpolator(src.Ji[m], t)
		bOp[m] = Interpolator(src.B[m], t)
		if src.Jext[m] != nil {
			jextOp[m] = Interpolator(src.Jext[m], t)
		}
		if src.Bext[m] != nil {
			bextOp[m] = Interpolator(src.Bext[m], t)
		}
	}
	if d := AxisDim(fds.Geom.Dim, c); d >= 0 {
		gradPe = Derivative(src.Pe, t, d, fds.Geom.CellSize[d])
	}
	if useHyper {
		lap = fds.laplacian(src.J[c])
	}
	fds.Decomp.ForField(dst, false, func(i, j, k int) {
		if Covered(edge, i, j, k) {
			return
		}
		var (
			je, bt [3]float64
		)
		for _, m := range [2]int{a, b} {
			je[m] = jOp[m].At(i, j, k) - jiOp[m].At(i, j, k) - jextOp[m].At(i, j, k)
			bt[m] = bOp[m].At(i, j, k) + bextOp[m].At(i, j, k)
		}
		rho := math.Max(rhoOp.At(i, j, k), p.RhoFloor)
		// (je x bt)_c = je_a bt_b - je_b bt_a
		e := (je[a]*bt[b] - je[b]*bt[a] - gradPe.At(i, j, k)) / rho
		if useEta {
			var jmag float64
			if needJmag {
				for m := 0; m < 3; m++ {
					jm := jOp[m].At(i, j, k)
					jmag += jm * jm
				}
				jmag = math.Sqrt(jmag)
			}
			e += p.Eta(rho, jmag) * (src.J[c].At(i, j, k) - jextOp[c].At(i, j, k))
		}
		if useHyper {
			e -= p.EtaH * lap.Row(src.J[c].Index(i, j, k), jData)
		}
		dst.Set(i, j, k, e)
	})
}
