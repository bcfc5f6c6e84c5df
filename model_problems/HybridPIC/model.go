package HybridPIC

import (
	"errors"
	"fmt"

	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"

	"github.com/notargets/hybridpic/FieldSolver"
	"github.com/notargets/hybridpic/InputParameters"
	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/parser"
	"github.com/notargets/hybridpic/types"
	"github.com/notargets/hybridpic/utils"
)

var (
	ErrMissingElecTemp   = errors.New("hybrid_pic_model.elec_temp must be specified when using the hybrid solver")
	ErrMissingN0Ref      = errors.New("hybrid_pic_model.n0_ref should be specified if hybrid_pic_model.gamma != 1")
	ErrUnknownInitStyle  = errors.New("unknown hybrid_pic_model.B_external_init_style")
	ErrMissingFieldsPath = errors.New("hybrid_pic_model.read_fields_from_path must be specified when B_external_init_style = read_from_file")
	ErrInvalidSubsteps   = errors.New("hybrid_pic_model.substeps must be at least 2")
	ErrLensParameters    = errors.New("repeated_plasma_lens starts, lengths and strengths_B must have the same length")
	ErrNotYeeGrid        = errors.New("Ohm's-law E-solve only works with staggered (Yee) grids")
	ErrLevelUnsupported  = errors.New("HybridPICSolveE: Only one level implemented for hybrid-PIC solver.")
	ErrLevelNotAllocated = errors.New("hybrid-PIC level is not allocated")
	ErrNotInitialized    = errors.New("hybrid-PIC model used before InitData")
)

// Stencil is the finite difference operator set used on a level
type Stencil interface {
	CalculateCurrentAmpere(J, B, edgeLengths grid.VectorField) error
	HybridSolveE(E grid.VectorField, src FieldSolver.OhmSources, p FieldSolver.OhmParams) error
	EvolveB(B, E grid.VectorField, dt float64) error
}

// Boundary applies physical boundaries and refreshes ghost points on a level
type Boundary interface {
	ApplyEfieldBoundary(E grid.VectorField)
	ApplyElectronPressureBoundary(Pe *grid.Field)
	FillBoundary(fields ...*grid.Field)
}

// LevelFields are the fields of a level owned by the caller. E and B are
// updated in place; the ion current J and charge density Rho are only read
type LevelFields struct {
	E, B        grid.VectorField
	J           grid.VectorField
	Rho         *grid.Field
	EdgeLengths grid.VectorField // optional embedded boundary edge lengths
	Solver      Stencil
	Boundary    Boundary
}

// LevelData are the fields the model owns on one level
type LevelData struct {
	Geom             *grid.Geometry
	Decomp           *grid.Decomposition
	ElectronPressure *grid.Field
	RhoTemp          *grid.Field      // ion charge density at the sub-step time
	CurrentTemp      grid.VectorField // ion current at the sub-step time
	CurrentAmpere    grid.VectorField // curl(B)/mu0
	CurrentExternal  grid.VectorField
	BfieldExternal   grid.VectorField
	jExternalCached  bool
}

type ResistivityDependence uint8

const (
	EtaNone ResistivityDependence = iota
	EtaRhoOnly
	EtaRhoJ
)

func (rd ResistivityDependence) String() string {
	return [...]string{"none", "rho", "rho,J"}[rd]
}

// HybridPICModel holds the electron fluid closure of a hybrid kinetic ion
// model along with the fields it needs on every level
type HybridPICModel struct {
	Substeps               int
	Gamma                  float64
	N0Ref                  float64
	ElecTemp               float64 // J
	NFloor                 float64
	PlasmaHyperResistivity float64
	BExternalInitStyle     types.BInitStyle
	ReadFieldsFromPath     string

	// Staggering of the run, with unused dimensions set to 1
	JIndexType, BIndexType, EIndexType [3]grid.IntVect
	RhoIndexType                       grid.IntVect

	etaExpr    string
	jExpr      [3]string
	bExpr      [3]string
	constants  map[string]float64
	lens       InputParameters.RepeatedLens
	log        logrus.FieldLogger
	eta        func(rho, j float64) float64
	etaDepends ResistivityDependence
	jSource    externalSource
	bSource    externalSource
	jTimeDep   bool
	levels     []*LevelData
}

type Option func(m *HybridPICModel)

func WithLogger(log logrus.FieldLogger) Option {
	return func(m *HybridPICModel) { m.log = log }
}

// electronVolt is the energy of one eV
var electronVolt = unit.New(utils.QE, unit.Joule)

// NewHybridPICModel validates the parameters and converts them to internal
// units. No field is allocated
func NewHybridPICModel(ip *InputParameters.HybridPICParameters, opts ...Option) (m *HybridPICModel, err error) {
	m = &HybridPICModel{
		Substeps:               ip.Substeps,
		Gamma:                  ip.Gamma,
		N0Ref:                  ip.N0Ref,
		NFloor:                 ip.NFloor,
		PlasmaHyperResistivity: ip.PlasmaHyperResistivity,
		ReadFieldsFromPath:     ip.ReadFieldsFromPath,
		etaExpr:                ip.PlasmaResistivity,
		jExpr:                  ip.JExternalGridFunction,
		bExpr:                  ip.BExternalGridFunction,
		constants:              ip.Constants,
		lens:                   ip.Lens,
		log:                    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.Substeps < 2 {
		return nil, fmt.Errorf("%w, have %d", ErrInvalidSubsteps, m.Substeps)
	}
	if !ip.ElecTempGiven {
		return nil, ErrMissingElecTemp
	}
	if m.Gamma != 1 && !ip.N0RefGiven {
		return nil, ErrMissingN0Ref
	}
	if m.BExternalInitStyle, err = types.NewBInitStyle(ip.BExternalInitStyle); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInitStyle, ip.BExternalInitStyle)
	}
	switch m.BExternalInitStyle {
	case types.BInit_File:
		if len(m.ReadFieldsFromPath) == 0 {
			return nil, ErrMissingFieldsPath
		}
	case types.BInit_RepeatedLens:
		nl := len(m.lens.Starts)
		if nl == 0 || len(m.lens.Lengths) != nl || len(m.lens.StrengthsB) != nl {
			return nil, ErrLensParameters
		}
	}
	m.ElecTemp = unit.Mul(unit.New(ip.ElecTemp, unit.Dimensions{}), electronVolt).Value()
	m.log.WithFields(logrus.Fields{
		"substeps": m.Substeps,
		"gamma":    m.Gamma,
		"Te[eV]":   ip.ElecTemp,
		"style":    m.BExternalInitStyle,
	}).Info("hybrid-PIC model configured")
	return
}

// AllocateLevel (re)creates the fields owned on level lev, zero initialized
func (m *HybridPICModel) AllocateLevel(lev int, geom *grid.Geometry, decomp *grid.Decomposition,
	ncomps int, ngJ, ngRho grid.IntVect, jx, jy, jz, rho grid.IntVect) (err error) {
	if ncomps != 1 {
		return fmt.Errorf("hybrid-PIC fields hold a single component (m = 0 azimuthal mode), have %d", ncomps)
	}
	for len(m.levels) <= lev {
		m.levels = append(m.levels, nil)
	}
	var (
		jTypes = [3]grid.IntVect{jx, jy, jz}
		ext    = [3]grid.IntVect{grid.Nodal, grid.Nodal, grid.Nodal}
	)
	m.levels[lev] = &LevelData{
		Geom:             geom,
		Decomp:           decomp,
		ElectronPressure: grid.NewField("electron_pressure_fp", geom, rho, ngRho),
		RhoTemp:          grid.NewField("rho_fp_temp", geom, rho, ngRho),
		CurrentTemp:      grid.NewVectorField("current_fp_temp_", geom, jTypes, ngJ),
		CurrentAmpere:    grid.NewVectorField("current_fp_ampere_", geom, jTypes, ngJ),
		CurrentExternal:  grid.NewVectorField("current_fp_external_", geom, ext, grid.IntVect{}),
		BfieldExternal:   grid.NewVectorField("bfield_fp_external_", geom, ext, grid.IntVect{}),
	}
	m.log.WithFields(logrus.Fields{"lev": lev, "dim": geom.Dim, "n_cell": geom.NCell}).
		Debug("allocated hybrid-PIC level")
	return
}

// ClearLevel releases the fields owned on level lev
func (m *HybridPICModel) ClearLevel(lev int) {
	if lev < len(m.levels) {
		m.levels[lev] = nil
	}
}

// Level returns the fields owned on level lev, or nil
func (m *HybridPICModel) Level(lev int) *LevelData {
	if lev < 0 || lev >= len(m.levels) {
		return nil
	}
	return m.levels[lev]
}

func (m *HybridPICModel) level(lev int) (ld *LevelData, err error) {
	if ld = m.Level(lev); ld == nil {
		err = fmt.Errorf("%w: %d", ErrLevelNotAllocated, lev)
	}
	return
}

// ResistivityDependence reports which arguments eta(rho, J) uses
func (m *HybridPICModel) ResistivityDependence() ResistivityDependence { return m.etaDepends }

// InitData compiles the model's expressions, validates the staggering of the
// fields on every level and initializes the external fields. It is called
// once all levels are allocated
func (m *HybridPICModel) InitData(fields []*LevelFields, t float64) (err error) {
	var p *parser.Parser
	if p, err = parser.MakeParser(m.etaExpr, m.constants, "rho", "J"); err != nil {
		return fmt.Errorf("plasma_resistivity(rho,J): %w", err)
	}
	switch {
	case p.HasSymbol("J"):
		m.etaDepends = EtaRhoJ
	case p.HasSymbol("rho"):
		m.etaDepends = EtaRhoOnly
	default:
		m.etaDepends = EtaNone
	}
	etaFn := p.Compile()
	m.eta = func(rho, j float64) float64 { return etaFn(rho, j) }

	if m.jSource, m.jTimeDep, err = newAnalyticSource(m.jExpr, m.constants, "x", "y", "z", "t"); err != nil {
		return fmt.Errorf("J external: %w", err)
	}
	if m.bSource, err = m.newBSource(); err != nil {
		return
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: 0", ErrLevelNotAllocated)
	}
	for lev, lf := range fields {
		var ld *LevelData
		if ld, err = m.level(lev); err != nil {
			return
		}
		if err = m.validateStaggering(ld.Geom.Dim, lf); err != nil {
			return
		}
		ld.jExternalCached = false
		if err = m.CalculateExternalCurrent(lev, lf, t); err != nil {
			return
		}
		if err = m.bSource.Fill(ld, ld.BfieldExternal, lf.EdgeLengths, t); err != nil {
			return
		}
	}
	m.log.WithFields(logrus.Fields{
		"eta":        m.etaDepends,
		"J_external": m.jSource.Name(),
		"B_external": m.bSource.Name(),
		"J_time_dep": m.jTimeDep,
		"levels":     len(fields),
	}).Info("hybrid-PIC model initialized")
	return
}

func (m *HybridPICModel) validateStaggering(dim types.Dimensionality, lf *LevelFields) (err error) {
	if !lf.E.Allocated() || !lf.B.Allocated() || !lf.J.Allocated() || lf.Rho == nil {
		return fmt.Errorf("%w: E, B, J and rho must be allocated", ErrNotYeeGrid)
	}
	var (
		sd         = dim.SpaceDim()
		eYee, bYee = FieldSolver.YeeStaggering(dim)
		eT, bT, jT = lf.E.IxTypes(), lf.B.IxTypes(), lf.J.IxTypes()
	)
	for c := 0; c < 3; c++ {
		if !eT[c].EqualTo(eYee[c], sd) || !bT[c].EqualTo(bYee[c], sd) || !jT[c].EqualTo(eT[c], sd) {
			return fmt.Errorf("%w: component %d has E %v, B %v, J %v", ErrNotYeeGrid,
				c, eT[c], bT[c], jT[c])
		}
		m.EIndexType[c] = eT[c].Truncate(sd, 1)
		m.BIndexType[c] = bT[c].Truncate(sd, 1)
		m.JIndexType[c] = jT[c].Truncate(sd, 1)
	}
	m.RhoIndexType = lf.Rho.IxType.Truncate(sd, 1)
	return
}
