package HybridPIC

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/hybridpic/FieldSolver"
	"github.com/notargets/hybridpic/InputParameters"
	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/readfiles"
	"github.com/notargets/hybridpic/types"
	"github.com/notargets/hybridpic/utils"
)

var ng = grid.IntVect{1, 1, 1}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func params() *InputParameters.HybridPICParameters {
	ip := InputParameters.NewHybridPICParameters()
	ip.Substeps = 4
	ip.ElecTemp, ip.ElecTempGiven = 10, true
	return ip
}

func newModel(t *testing.T, ip *InputParameters.HybridPICParameters) *HybridPICModel {
	m, err := NewHybridPICModel(ip, WithLogger(quietLogger()))
	require.NoError(t, err)
	return m
}

// newLevel allocates level 0 of m on a 4 cell per dimension domain [0,2] with
// Yee staggered fields and the finite difference stencil
func newLevel(t *testing.T, m *HybridPICModel, dim types.Dimensionality, periodic bool) (lf *LevelFields) {
	geom, err := grid.NewGeometry(dim, grid.IntVect{4, 4, 4}, [3]float64{0, 0, 0},
		[3]float64{2, 2, 2}, [3]bool{periodic, periodic, periodic})
	require.NoError(t, err)
	decomp := grid.NewDecomposition(2)
	fds, err := FieldSolver.NewFiniteDifferenceSolver(geom, decomp)
	require.NoError(t, err)
	eT, bT := FieldSolver.YeeStaggering(dim)
	lf = &LevelFields{
		E:        grid.NewVectorField("Efield_fp_", geom, eT, ng),
		B:        grid.NewVectorField("Bfield_fp_", geom, bT, ng),
		J:        grid.NewVectorField("current_fp_", geom, eT, ng),
		Rho:      grid.NewField("rho_fp", geom, grid.Nodal, ng),
		Solver:   fds,
		Boundary: FieldSolver.NewFieldBoundary(geom),
	}
	require.NoError(t, m.AllocateLevel(0, geom, decomp, 1, ng, ng, eT[0], eT[1], eT[2], grid.Nodal))
	return
}

func assertUniform(t *testing.T, f *grid.Field, val, tol float64) {
	bx := f.Valid
	for k := bx.Lo[2]; k <= bx.Hi[2]; k++ {
		for j := bx.Lo[1]; j <= bx.Hi[1]; j++ {
			for i := bx.Lo[0]; i <= bx.Hi[0]; i++ {
				if !assert.InDeltaf(t, val, f.At(i, j, k), tol, "%s at (%d,%d,%d)", f.Name, i, j, k) {
					return
				}
			}
		}
	}
}

func TestNewHybridPICModel(t *testing.T) {
	{ // Temperature is converted from eV to J
		m := newModel(t, params())
		assert.InDelta(t, 10*utils.QE, m.ElecTemp, 1.e-30)
		assert.Equal(t, types.BInit_Default, m.BExternalInitStyle)
	}
	{ // Configuration errors are reported before any allocation
		ip := params()
		ip.ElecTempGiven = false
		_, err := NewHybridPICModel(ip)
		assert.ErrorIs(t, err, ErrMissingElecTemp)

		ip = params()
		ip.Gamma = 2
		_, err = NewHybridPICModel(ip)
		assert.ErrorIs(t, err, ErrMissingN0Ref)
		assert.EqualError(t, ErrMissingN0Ref,
			"hybrid_pic_model.n0_ref should be specified if hybrid_pic_model.gamma != 1")

		ip = params()
		ip.Substeps = 1
		_, err = NewHybridPICModel(ip)
		assert.ErrorIs(t, err, ErrInvalidSubsteps)

		ip = params()
		ip.BExternalInitStyle = "from_the_moon"
		_, err = NewHybridPICModel(ip)
		assert.ErrorIs(t, err, ErrUnknownInitStyle)

		ip = params()
		ip.BExternalInitStyle = "read_from_file"
		_, err = NewHybridPICModel(ip)
		assert.ErrorIs(t, err, ErrMissingFieldsPath)

		ip = params()
		ip.BExternalInitStyle = "repeated_plasma_lens"
		ip.Lens = InputParameters.RepeatedLens{Starts: []float64{0, 1}, Lengths: []float64{0.5}, StrengthsB: []float64{1, 2}}
		_, err = NewHybridPICModel(ip)
		assert.ErrorIs(t, err, ErrLensParameters)
	}
	{ // Configuration is logged once
		log, hook := test.NewNullLogger()
		_, err := NewHybridPICModel(params(), WithLogger(log))
		require.NoError(t, err)
		require.Len(t, hook.Entries, 1)
		assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
		assert.Equal(t, 4, hook.LastEntry().Data["substeps"])
	}
}

func TestElectronPressure(t *testing.T) {
	{ // Isothermal closure is linear in rho
		m := newModel(t, params())
		n := 1.e18
		assert.InDelta(t, n*m.ElecTemp, m.ElectronPressure(utils.QE*n), 1.e-12)
		assert.InDelta(t, 3*m.ElectronPressure(utils.QE*n), m.ElectronPressure(3*utils.QE*n), 1.e-12)
		assert.Equal(t, 0., m.ElectronPressure(0))
	}
	{ // Polytropic closure is anchored at n0
		ip := params()
		ip.Gamma, ip.N0Ref, ip.N0RefGiven = 5./3., 1.e20, true
		m := newModel(t, ip)
		p0 := ip.N0Ref * m.ElecTemp
		assert.InDelta(t, p0, m.ElectronPressure(utils.QE*ip.N0Ref), 1.e-12*p0)
		assert.InDelta(t, p0*math.Pow(2, 5./3.), m.ElectronPressure(2*utils.QE*ip.N0Ref), 1.e-12*p0)
	}
	{ // Full steps use rho, half steps the stored history
		ip := params()
		ip.N0Ref, ip.N0RefGiven = 1.e19, true
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		lf.Rho.SetVal(utils.QE * ip.N0Ref)
		require.NoError(t, m.CalculateElectronPressure(0, types.DtFull, lf))
		Pe := m.Level(0).ElectronPressure
		assertUniform(t, Pe, ip.N0Ref*m.ElecTemp, 1.e-9)
		assert.InDelta(t, ip.N0Ref*m.ElecTemp, Pe.At(-1, -1, -1), 1.e-9)

		require.NoError(t, m.CalculateElectronPressure(0, types.DtFirstHalf, lf))
		assertUniform(t, Pe, 0, 0)
	}
	{ // Unallocated level
		m := newModel(t, params())
		assert.ErrorIs(t, m.FillElectronPressure(2, nil), ErrLevelNotAllocated)
	}
}

func TestInitData(t *testing.T) {
	{ // Resistivity dependence is classified from the expression
		for expr, dep := range map[string]ResistivityDependence{
			"1.e-3":          EtaNone,
			"1.e-3*rho":      EtaRhoOnly,
			"1.e-3*(rho+J)":  EtaRhoJ,
			"heaviside(J-1)": EtaRhoJ,
			"eta0*rho/q_e":   EtaRhoOnly,
		} {
			ip := params()
			ip.PlasmaResistivity = expr
			ip.Constants["eta0"] = 2
			m := newModel(t, ip)
			lf := newLevel(t, m, types.Dim3D, false)
			require.NoError(t, m.InitData([]*LevelFields{lf}, 0), expr)
			assert.Equal(t, dep, m.ResistivityDependence(), expr)
		}
	}
	{ // Index types are stored with unused dimensions set to 1
		m := newModel(t, params())
		lf := newLevel(t, m, types.DimXZ, false)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		assert.Equal(t, grid.IntVect{0, 1, 1}, m.EIndexType[0])
		assert.Equal(t, grid.IntVect{1, 0, 1}, m.BIndexType[0])
		assert.Equal(t, m.EIndexType, m.JIndexType)
		assert.Equal(t, grid.Nodal, m.RhoIndexType)
	}
	{ // Non Yee fields are rejected
		m := newModel(t, params())
		lf := newLevel(t, m, types.Dim3D, false)
		lf.E = grid.NewVectorField("E", m.Level(0).Geom, [3]grid.IntVect{grid.Nodal, grid.Nodal, grid.Nodal}, ng)
		assert.ErrorIs(t, m.InitData([]*LevelFields{lf}, 0), ErrNotYeeGrid)
	}
	{ // Bad expressions are reported
		ip := params()
		ip.JExternalGridFunction[0] = "x +"
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		assert.Error(t, m.InitData([]*LevelFields{lf}, 0))
	}
	{ // Analytic external B is evaluated at the nodes
		ip := params()
		ip.BExternalGridFunction = [3]string{"x", "2*y", "3*z+1"}
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		Bext := m.Level(0).BfieldExternal
		assert.Equal(t, grid.Nodal, Bext[0].IxType)
		assert.InDelta(t, 0.5, Bext[0].At(1, 2, 3), 1.e-14)
		assert.InDelta(t, 2., Bext[1].At(1, 2, 3), 1.e-14)
		assert.InDelta(t, 5.5, Bext[2].At(1, 2, 3), 1.e-14)
	}
}

func TestExternalCurrent(t *testing.T) {
	{ // A time independent current is evaluated once
		ip := params()
		ip.JExternalGridFunction = [3]string{"x", "", "y*z"}
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		assert.False(t, m.ExternalCurrentTimeDependent())
		Jext := m.Level(0).CurrentExternal
		before := Jext.Clone("before")
		require.NoError(t, m.CalculateExternalCurrent(0, lf, 7))
		for c := 0; c < 3; c++ {
			assert.Equal(t, before[c].Data, Jext[c].Data)
		}
		assert.InDelta(t, 0.75, Jext[2].At(1, 3, 1), 1.e-14)
	}
	{ // A current using t is evaluated at every call
		ip := params()
		ip.JExternalGridFunction = [3]string{"x*t", "", ""}
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 1))
		assert.True(t, m.ExternalCurrentTimeDependent())
		Jx := m.Level(0).CurrentExternal[0]
		assert.InDelta(t, 1.5, Jx.At(3, 0, 0), 1.e-14)
		require.NoError(t, m.CalculateExternalCurrent(0, lf, 2))
		assert.InDelta(t, 3., Jx.At(3, 0, 0), 1.e-14)
	}
	{ // Used before InitData
		m := newModel(t, params())
		lf := newLevel(t, m, types.Dim3D, false)
		assert.ErrorIs(t, m.CalculateExternalCurrent(0, lf, 0), ErrNotInitialized)
		assert.ErrorIs(t, m.HybridPICSolveE(0, lf, lf.J, lf.Rho, true), ErrNotInitialized)
	}
}

func TestRepeatedLens(t *testing.T) {
	{ // Cell averaged gradient
		ls := &lensSource{lens: InputParameters.RepeatedLens{
			Starts: []float64{1}, Lengths: []float64{2}, StrengthsB: []float64{3},
		}}
		assert.InDelta(t, 3., ls.Gradient(2, 1), 1.e-14)
		assert.InDelta(t, 1.5, ls.Gradient(1, 1), 1.e-14)
		assert.InDelta(t, 0., ls.Gradient(10, 1), 1.e-14)
		ls.lens.Period = 10
		assert.InDelta(t, 3., ls.Gradient(12, 1), 1.e-14)
		assert.InDelta(t, 1.5, ls.Gradient(-9, 1), 1.e-14)
	}
	{ // Focusing field across the domain
		ip := params()
		ip.BExternalInitStyle = "repeated_plasma_lens"
		ip.Lens = InputParameters.RepeatedLens{Starts: []float64{0}, Lengths: []float64{4}, StrengthsB: []float64{2}}
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		Bext := m.Level(0).BfieldExternal
		// node (2,1,2) is at (1, 0.5, 1)
		assert.InDelta(t, 2*0.5, Bext[0].At(2, 1, 2), 1.e-14)
		assert.InDelta(t, -2*1., Bext[1].At(2, 1, 2), 1.e-14)
		assert.Equal(t, 0., Bext[2].At(2, 1, 2))
	}
}

func writeXZSnapshot(t *testing.T) (path string) {
	path = filepath.Join(t.TempDir(), "bfield.nc")
	var (
		n    = 5
		snap = &readfiles.FieldSnapshot{
			Name:       "B",
			Geometry:   readfiles.GeomCartesian,
			AxisLabels: []string{"x", "z"},
			DataOrder:  "C",
			Offset:     []float64{0, 0},
			Spacing:    []float64{0.5, 0.5},
			Extent:     []int{n, n},
			Components: map[string][]float64{},
		}
	)
	for c, comp := range []string{"x", "y", "z"} {
		data := make([]float64, n*n)
		for i := 0; i < n; i++ {
			for k := 0; k < n; k++ {
				x, z := 0.5*float64(i), 0.5*float64(k)
				data[i*n+k] = float64(c+1) * (1 + x - 2*z)
			}
		}
		snap.Components[comp] = data
	}
	require.NoError(t, readfiles.WriteSnapshot(path, snap))
	return
}

func TestReadFromFile(t *testing.T) {
	path := writeXZSnapshot(t)
	{ // Snapshot matching the run
		ip := params()
		ip.BExternalInitStyle, ip.ReadFieldsFromPath = "read_from_file", path
		m := newModel(t, ip)
		lf := newLevel(t, m, types.DimXZ, false)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		Bext := m.Level(0).BfieldExternal
		geom := m.Level(0).Geom
		for c := 0; c < 3; c++ {
			f := Bext[c]
			bx := f.Valid
			for k := bx.Lo[2]; k <= bx.Hi[2]; k++ {
				for j := bx.Lo[1]; j <= bx.Hi[1]; j++ {
					for i := bx.Lo[0]; i <= bx.Hi[0]; i++ {
						x, _, z := geom.Position(i, j, k, f.IxType)
						assert.InDelta(t, float64(c+1)*(1+x-2*z), f.At(i, j, k), 1.e-12)
					}
				}
			}
		}
	}
	{ // A 2D snapshot cannot feed a 3D run
		ip := params()
		ip.BExternalInitStyle, ip.ReadFieldsFromPath = "read_from_file", path
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		assert.ErrorIs(t, m.InitData([]*LevelFields{lf}, 0), readfiles.ErrAxisLabelMismatch)
	}
	{ // Missing file
		ip := params()
		ip.BExternalInitStyle = "read_from_file"
		ip.ReadFieldsFromPath = filepath.Join(t.TempDir(), "none.nc")
		m := newModel(t, ip)
		lf := newLevel(t, m, types.DimXZ, false)
		assert.Error(t, m.InitData([]*LevelFields{lf}, 0))
	}
}

// coverPoint returns unit edge lengths with the x edge at (i, j, k) covered
func coverPoint(geom *grid.Geometry, i, j, k int) (edge grid.VectorField) {
	edge = grid.NewVectorField("edge_lengths_", geom,
		[3]grid.IntVect{grid.Nodal, grid.Nodal, grid.Nodal}, ng)
	edge.SetVal(1)
	edge[0].Set(i, j, k, 0)
	return
}

func TestExternalFieldsEmbeddedBoundary(t *testing.T) {
	{ // Analytic J and B skip the covered point of their component only
		ip := params()
		ip.JExternalGridFunction = [3]string{"1", "1", "1"}
		ip.BExternalGridFunction = [3]string{"1", "2", "3"}
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		lf.EdgeLengths = coverPoint(m.Level(0).Geom, 1, 1, 1)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		var (
			Jext = m.Level(0).CurrentExternal
			Bext = m.Level(0).BfieldExternal
		)
		assert.Equal(t, 0., Jext[0].At(1, 1, 1))
		assert.Equal(t, 1., Jext[0].At(2, 2, 2))
		assert.Equal(t, 1., Jext[1].At(1, 1, 1))
		assert.Equal(t, 0., Bext[0].At(1, 1, 1))
		assert.Equal(t, 1., Bext[0].At(2, 2, 2))
		assert.Equal(t, 2., Bext[1].At(1, 1, 1))
		assert.Equal(t, 3., Bext[2].At(1, 1, 1))
	}
	{ // Lens field
		ip := params()
		ip.BExternalInitStyle = "repeated_plasma_lens"
		ip.Lens = InputParameters.RepeatedLens{Starts: []float64{0}, Lengths: []float64{4}, StrengthsB: []float64{2}}
		m := newModel(t, ip)
		lf := newLevel(t, m, types.Dim3D, false)
		lf.EdgeLengths = coverPoint(m.Level(0).Geom, 1, 1, 1)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		Bext := m.Level(0).BfieldExternal
		assert.Equal(t, 0., Bext[0].At(1, 1, 1))
		assert.InDelta(t, 2*0.5, Bext[0].At(1, 1, 2), 1.e-14)
		assert.InDelta(t, -2*0.5, Bext[1].At(1, 1, 1), 1.e-14)
	}
	{ // File data leaves every component of a covered point alone
		ip := params()
		ip.BExternalInitStyle, ip.ReadFieldsFromPath = "read_from_file", writeXZSnapshot(t)
		m := newModel(t, ip)
		lf := newLevel(t, m, types.DimXZ, false)
		lf.EdgeLengths = coverPoint(m.Level(0).Geom, 1, 1, 0)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		Bext := m.Level(0).BfieldExternal
		for c := 0; c < 3; c++ {
			assert.Equal(t, 0., Bext[c].At(1, 1, 0))
			// node (2,1) is at x = 1, z = 0.5
			assert.InDelta(t, float64(c+1), Bext[c].At(2, 1, 0), 1.e-12)
		}
	}
}

// linearStencil replaces the field solver by dB/dt = A B applied to
// spatially uniform fields
type linearStencil struct {
	A      *mat.Dense
	pushes int
}

func (ls *linearStencil) CalculateCurrentAmpere(J, B, edgeLengths grid.VectorField) error { return nil }

func (ls *linearStencil) HybridSolveE(E grid.VectorField, src FieldSolver.OhmSources, p FieldSolver.OhmParams) error {
	return nil
}

func (ls *linearStencil) EvolveB(B, E grid.VectorField, dt float64) error {
	var (
		b    = mat.NewVecDense(3, []float64{B[0].Data[0], B[1].Data[0], B[2].Data[0]})
		rate mat.VecDense
	)
	rate.MulVec(ls.A, b)
	for c := 0; c < 3; c++ {
		B[c].SetVal(b.AtVec(c) + dt*rate.AtVec(c))
	}
	ls.pushes++
	return nil
}

type nopBoundary struct{}

func (nopBoundary) ApplyEfieldBoundary(E grid.VectorField)       {}
func (nopBoundary) ApplyElectronPressureBoundary(Pe *grid.Field) {}
func (nopBoundary) FillBoundary(fields ...*grid.Field)           {}

func TestBfieldEvolveRK(t *testing.T) {
	var (
		h  = 0.05
		A  = mat.NewDense(3, 3, []float64{0, 2, 0, -2, 0, 0, 0, 0, -1})
		b0 = []float64{1, 0.5, 2}
	)
	m := newModel(t, params())
	lf := newLevel(t, m, types.Dim3D, true)
	require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
	ls := &linearStencil{A: A}
	lf.Solver, lf.Boundary = ls, nopBoundary{}
	for c := 0; c < 3; c++ {
		lf.B[c].SetVal(b0[c])
	}
	require.NoError(t, m.BfieldEvolveRK(0, lf, lf.J, lf.Rho, h))
	assert.Equal(t, 4, ls.pushes)

	{ // One step is the fourth order Taylor polynomial of exp(hA)
		var (
			hA, term, P mat.Dense
			want        mat.VecDense
		)
		hA.Scale(h, A)
		P.Add(mat.NewDiagDense(3, []float64{1, 1, 1}), &hA)
		term.CloneFrom(&hA)
		for n := 2; n <= 4; n++ {
			var next mat.Dense
			next.Mul(&term, &hA)
			term.Scale(1/float64(n), &next)
			P.Add(&P, &term)
		}
		want.MulVec(&P, mat.NewVecDense(3, b0))
		for c := 0; c < 3; c++ {
			assertUniform(t, lf.B[c], want.AtVec(c), 1.e-13)
		}
	}
	{ // and agrees with the exact solution to fifth order
		var (
			hA, E mat.Dense
			exact mat.VecDense
		)
		hA.Scale(h, A)
		E.Exp(&hA)
		exact.MulVec(&E, mat.NewVecDense(3, b0))
		for c := 0; c < 3; c++ {
			assert.InDelta(t, exact.AtVec(c), lf.B[c].At(1, 1, 1), 1.e-6)
		}
	}
	{ // Higher levels are not supported
		assert.ErrorIs(t, m.BfieldEvolveRK(1, lf, lf.J, lf.Rho, h), ErrLevelUnsupported)
		assert.ErrorIs(t, m.HybridPICSolveE(1, lf, lf.J, lf.Rho, true), ErrLevelUnsupported)
	}
}

func TestEvolveFields(t *testing.T) {
	var (
		n0 = 1.e18
		B0 = 1.e-3
		Jx = 2.
	)
	setup := func() (m *HybridPICModel, lf *LevelFields) {
		m = newModel(t, params())
		lf = newLevel(t, m, types.Dim3D, true)
		require.NoError(t, m.InitData([]*LevelFields{lf}, 0))
		lf.B[2].SetVal(B0)
		lf.Rho.SetVal(utils.QE * n0)
		lf.J[0].SetVal(Jx)
		return
	}
	{ // A uniform plasma keeps B and gets the motional E
		m, lf := setup()
		require.NoError(t, m.SetIonHistory(0, lf))
		require.NoError(t, m.EvolveFields(0, lf, 0, 1.e-9))
		assertUniform(t, lf.B[0], 0, 1.e-15)
		assertUniform(t, lf.B[1], 0, 1.e-15)
		assertUniform(t, lf.B[2], B0, 1.e-15)
		Ey := B0 * Jx / (utils.QE * n0)
		assertUniform(t, lf.E[0], 0, 1.e-12*Ey)
		assertUniform(t, lf.E[1], Ey, 1.e-12*Ey)
		assertUniform(t, lf.E[2], 0, 1.e-12*Ey)

		ld := m.Level(0)
		assert.Equal(t, lf.Rho.Data, ld.RhoTemp.Data)
		assert.Equal(t, lf.J[0].Data, ld.CurrentTemp[0].Data)
	}
	{ // The final E uses the current extrapolated from the history
		m, lf := setup()
		require.NoError(t, m.EvolveFields(0, lf, 0, 1.e-9))
		Ey := 1.5 * B0 * Jx / (utils.QE * n0)
		assertUniform(t, lf.E[1], Ey, 1.e-12*Ey)
	}
	{ // Repeated runs are identical
		m1, lf1 := setup()
		m2, lf2 := setup()
		lf1.B[0].Set(2, 2, 2, 1.e-5)
		lf2.B[0].Set(2, 2, 2, 1.e-5)
		require.NoError(t, m1.SetIonHistory(0, lf1))
		require.NoError(t, m2.SetIonHistory(0, lf2))
		for step := 0; step < 2; step++ {
			require.NoError(t, m1.EvolveFields(0, lf1, float64(step)*1.e-9, 1.e-9))
			require.NoError(t, m2.EvolveFields(0, lf2, float64(step)*1.e-9, 1.e-9))
		}
		for c := 0; c < 3; c++ {
			assert.Equal(t, lf1.B[c].Data, lf2.B[c].Data)
			assert.Equal(t, lf1.E[c].Data, lf2.E[c].Data)
		}
	}
	{ // Unallocated level
		m, lf := setup()
		assert.ErrorIs(t, m.EvolveFields(3, lf, 0, 1.e-9), ErrLevelNotAllocated)
	}
}
