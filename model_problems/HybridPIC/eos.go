package HybridPIC

import (
	"fmt"

	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/types"
	"github.com/notargets/hybridpic/utils"
)

// ElectronPressure evaluates the polytropic closure
//
//	Pe = n0 Te (n/n0)^gamma, n = rho/q_e
//
// which is Te n for gamma = 1
func (m *HybridPICModel) ElectronPressure(rho float64) float64 {
	n := rho / utils.QE
	if m.Gamma == 1 {
		return m.ElecTemp * n
	}
	return m.N0Ref * m.ElecTemp * utils.FracPower(n/m.N0Ref, m.Gamma)
}

// FillElectronPressure sets the electron pressure of level lev from rho,
// ghosts included
func (m *HybridPICModel) FillElectronPressure(lev int, rho *grid.Field) (err error) {
	var ld *LevelData
	if ld, err = m.level(lev); err != nil {
		return
	}
	Pe := ld.ElectronPressure
	if !Pe.SameShape(rho) {
		return fmt.Errorf("electron pressure %v %v does not match %s %v %v",
			Pe.IxType, Pe.Grown, rho.Name, rho.IxType, rho.Grown)
	}
	ld.Decomp.ForField(Pe, true, func(i, j, k int) {
		Pe.Set(i, j, k, m.ElectronPressure(rho.At(i, j, k)))
	})
	return
}

// CalculateElectronPressure refreshes the electron pressure of level lev. A
// full step uses the level's charge density, the half steps use RhoTemp
func (m *HybridPICModel) CalculateElectronPressure(lev int, dt types.DtType, lf *LevelFields) (err error) {
	var ld *LevelData
	if ld, err = m.level(lev); err != nil {
		return
	}
	rho := ld.RhoTemp
	if dt == types.DtFull {
		rho = lf.Rho
	}
	if err = m.FillElectronPressure(lev, rho); err != nil {
		return
	}
	lf.Boundary.ApplyElectronPressureBoundary(ld.ElectronPressure)
	lf.Boundary.FillBoundary(ld.ElectronPressure)
	return
}
