package HybridPIC

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/types"
)

// FieldPush is one evaluation of the B field time derivative: Ampere's law,
// Ohm's law with resistivity, then Faraday's law over dt
func (m *HybridPICModel) FieldPush(lev int, lf *LevelFields, J grid.VectorField, rho *grid.Field,
	dt float64) (err error) {
	if err = m.CalculateCurrentAmpere(lev, lf); err != nil {
		return
	}
	if err = m.HybridPICSolveE(lev, lf, J, rho, true); err != nil {
		return
	}
	lf.Boundary.FillBoundary(lf.E[:]...)
	if err = lf.Solver.EvolveB(lf.B, lf.E, dt); err != nil {
		return
	}
	lf.Boundary.FillBoundary(lf.B[:]...)
	return
}

/*
BfieldEvolveRK advances B over dt with the classical fourth order Runge-Kutta
scheme. Each FieldPush leaves B = B_start + h*k, so the stage increments are
recovered as differences from B_old:

	push(dt/2)               K0 = B - B_old            = dt/2 k1
	push(dt/2), B -= K0      K1 = B - B_old            = dt/2 k2
	push(dt),   B -= K1      B  = B_old + dt k3
	push(dt/2), B -= B_old   B  = dt k3 + dt/2 k4
	B = B_old + (K0 + 2 K1 + B)/3 = B_old + dt/6 (k1 + 2 k2 + 2 k3 + k4)
*/
func (m *HybridPICModel) BfieldEvolveRK(lev int, lf *LevelFields, J grid.VectorField, rho *grid.Field,
	dt float64) (err error) {
	if lev > 0 {
		return ErrLevelUnsupported
	}
	var (
		B    = lf.B
		bOld = B.Clone("B_old")
		K0   = B.Clone("K0")
		K1   = B.Clone("K1")
	)
	if err = m.FieldPush(lev, lf, J, rho, 0.5*dt); err != nil {
		return
	}
	for c := 0; c < 3; c++ {
		K0[c].LinComb(1, B[c], -1, bOld[c])
	}
	if err = m.FieldPush(lev, lf, J, rho, 0.5*dt); err != nil {
		return
	}
	for c := 0; c < 3; c++ {
		B[c].Subtract(K0[c])
		K1[c].LinComb(1, B[c], -1, bOld[c])
	}
	if err = m.FieldPush(lev, lf, J, rho, dt); err != nil {
		return
	}
	for c := 0; c < 3; c++ {
		B[c].Subtract(K1[c])
	}
	if err = m.FieldPush(lev, lf, J, rho, 0.5*dt); err != nil {
		return
	}
	for c := 0; c < 3; c++ {
		B[c].Subtract(bOld[c])
		K0[c].Add(B[c])
		K0[c].LinComb(1, K0[c], 2, K1[c])
		B[c].LinComb(1, bOld[c], 1./3., K0[c])
	}
	return
}

// SetIonHistory stores the level's current ion charge density and current as
// the start of step values used by the next EvolveFields
func (m *HybridPICModel) SetIonHistory(lev int, lf *LevelFields) (err error) {
	var ld *LevelData
	if ld, err = m.level(lev); err != nil {
		return
	}
	ld.RhoTemp.CopyFrom(lf.Rho)
	ld.CurrentTemp.CopyFrom(lf.J)
	return
}

/*
EvolveFields advances E and B over one coarse step dt of the ion solver.

On entry RhoTemp holds rho^n and CurrentTemp holds J^(n-1/2), while the level
fields hold rho^(n+1) and J^(n+1/2). B is advanced to t + dt/2 with rho^n and
J^n = (J^(n-1/2) + J^(n+1/2))/2, then to t + dt with rho^(n+1/2) and
J^(n+1/2), each half in Substeps/2 RK4 calls. E is finally solved without
resistivity from rho^(n+1) and the extrapolated J^(n+1). On exit the ion
history holds rho^(n+1) and J^(n+1/2).
*/
func (m *HybridPICModel) EvolveFields(lev int, lf *LevelFields, t, dt float64) (err error) {
	var ld *LevelData
	if ld, err = m.level(lev); err != nil {
		return
	}
	var (
		nFirst  = m.Substeps / 2
		nSecond = m.Substeps - nFirst
		jOld    = ld.CurrentTemp.Clone("J_old")
	)
	for c := 0; c < 3; c++ {
		ld.CurrentTemp[c].LinComb(0.5, jOld[c], 0.5, lf.J[c])
	}
	if err = m.CalculateExternalCurrent(lev, lf, t); err != nil {
		return
	}
	if err = m.CalculateElectronPressure(lev, types.DtFirstHalf, lf); err != nil {
		return
	}
	for n := 0; n < nFirst; n++ {
		if err = m.BfieldEvolveRK(lev, lf, ld.CurrentTemp, ld.RhoTemp, 0.5*dt/float64(nFirst)); err != nil {
			return fmt.Errorf("first half sub-step %d: %w", n, err)
		}
	}

	ld.RhoTemp.LinComb(0.5, ld.RhoTemp, 0.5, lf.Rho)
	if err = m.CalculateExternalCurrent(lev, lf, t+0.5*dt); err != nil {
		return
	}
	if err = m.CalculateElectronPressure(lev, types.DtSecondHalf, lf); err != nil {
		return
	}
	for n := 0; n < nSecond; n++ {
		if err = m.BfieldEvolveRK(lev, lf, lf.J, ld.RhoTemp, 0.5*dt/float64(nSecond)); err != nil {
			return fmt.Errorf("second half sub-step %d: %w", n, err)
		}
	}

	for c := 0; c < 3; c++ {
		ld.CurrentTemp[c].LinComb(-0.5, jOld[c], 1.5, lf.J[c])
	}
	if err = m.CalculateExternalCurrent(lev, lf, t+dt); err != nil {
		return
	}
	if err = m.CalculateElectronPressure(lev, types.DtFull, lf); err != nil {
		return
	}
	if err = m.CalculateCurrentAmpere(lev, lf); err != nil {
		return
	}
	if err = m.HybridPICSolveE(lev, lf, ld.CurrentTemp, lf.Rho, false); err != nil {
		return
	}
	lf.Boundary.FillBoundary(lf.E[:]...)

	m.log.WithFields(logrus.Fields{"lev": lev, "t": t + dt, "B": normOf(lf.B), "E": normOf(lf.E)}).
		Debug("hybrid-PIC fields advanced")
	return m.SetIonHistory(lev, lf)
}

func normOf(vf grid.VectorField) (n float64) {
	for c := 0; c < 3; c++ {
		v := vf[c].Norm()
		n += v * v
	}
	return math.Sqrt(n)
}
