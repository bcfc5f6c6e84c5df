package HybridPIC

import (
	"github.com/notargets/hybridpic/FieldSolver"
	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/utils"
)

// CalculateCurrentAmpere sets CurrentAmpere = curl(B)/mu0 on level lev and
// refreshes its ghosts
func (m *HybridPICModel) CalculateCurrentAmpere(lev int, lf *LevelFields) (err error) {
	var ld *LevelData
	if ld, err = m.level(lev); err != nil {
		return
	}
	if err = lf.Solver.CalculateCurrentAmpere(ld.CurrentAmpere, lf.B, lf.EdgeLengths); err != nil {
		return
	}
	lf.Boundary.FillBoundary(ld.CurrentAmpere[:]...)
	return
}

// OhmParams are the closure coefficients handed to the E-solve stencil
func (m *HybridPICModel) OhmParams(includeResistivity bool) FieldSolver.OhmParams {
	return FieldSolver.OhmParams{
		Eta:                m.eta,
		EtaDependsOnJ:      m.etaDepends == EtaRhoJ,
		EtaH:               m.PlasmaHyperResistivity,
		RhoFloor:           utils.QE * m.NFloor,
		IncludeResistivity: includeResistivity,
	}
}

// HybridPICSolveE solves Ohm's law for E on level lev from the ion current J
// and charge density rho, then applies the E boundary. The Ampere current,
// external fields and electron pressure are those currently held by the
// model
func (m *HybridPICModel) HybridPICSolveE(lev int, lf *LevelFields, J grid.VectorField, rho *grid.Field,
	includeResistivity bool) (err error) {
	if lev > 0 {
		return ErrLevelUnsupported
	}
	var ld *LevelData
	if ld, err = m.level(lev); err != nil {
		return
	}
	if m.eta == nil {
		return ErrNotInitialized
	}
	src := FieldSolver.OhmSources{
		J:           ld.CurrentAmpere,
		Ji:          J,
		Jext:        ld.CurrentExternal,
		B:           lf.B,
		Bext:        ld.BfieldExternal,
		Rho:         rho,
		Pe:          ld.ElectronPressure,
		EdgeLengths: lf.EdgeLengths,
	}
	if err = lf.Solver.HybridSolveE(lf.E, src, m.OhmParams(includeResistivity)); err != nil {
		return
	}
	lf.Boundary.ApplyEfieldBoundary(lf.E)
	return
}
