package HybridPIC

import (
	"fmt"
	"math"

	"github.com/notargets/hybridpic/FieldSolver"
	"github.com/notargets/hybridpic/InputParameters"
	"github.com/notargets/hybridpic/grid"
	"github.com/notargets/hybridpic/parser"
	"github.com/notargets/hybridpic/readfiles"
	"github.com/notargets/hybridpic/types"
)

// externalSource fills an external vector field on a level. Points covered
// by an embedded boundary are left untouched
type externalSource interface {
	Name() string
	Fill(ld *LevelData, dst, edgeLengths grid.VectorField, t float64) error
}

type noSource struct{}

func (noSource) Name() string { return "none" }

func (noSource) Fill(ld *LevelData, dst, edgeLengths grid.VectorField, t float64) error {
	dst.SetVal(0)
	return nil
}

type analyticSource struct {
	fns      [3]func(args ...float64) float64
	withTime bool
}

// newAnalyticSource compiles one expression per component in vars, which
// are (x, y, z) or (x, y, z, t). Empty expressions give noSource
func newAnalyticSource(exprs [3]string, constants map[string]float64, vars ...string) (
	src externalSource, timeDep bool, err error) {
	if len(exprs[0])+len(exprs[1])+len(exprs[2]) == 0 {
		return noSource{}, false, nil
	}
	as := &analyticSource{withTime: len(vars) == 4}
	for c := 0; c < 3; c++ {
		var p *parser.Parser
		if p, err = parser.MakeParser(exprs[c], constants, vars...); err != nil {
			return
		}
		if p.HasSymbol("t") {
			timeDep = true
		}
		as.fns[c] = p.Compile()
	}
	return as, timeDep, nil
}

func (as *analyticSource) Name() string { return "analytic" }

func (as *analyticSource) Fill(ld *LevelData, dst, edgeLengths grid.VectorField, t float64) error {
	for c := 0; c < 3; c++ {
		var (
			f    = dst[c]
			fn   = as.fns[c]
			edge = edgeLengths[c]
		)
		ld.Decomp.ForField(f, true, func(i, j, k int) {
			if FieldSolver.Covered(edge, i, j, k) {
				return
			}
			x, y, z := ld.Geom.Position(i, j, k, f.IxType)
			if as.withTime {
				f.Set(i, j, k, fn(x, y, z, t))
				return
			}
			f.Set(i, j, k, fn(x, y, z))
		})
	}
	return nil
}

// lensSource is a train of focusing lenses along z. Each lens gives
// B = g (y, -x, 0) weighted by the fraction of the cell it covers
type lensSource struct {
	lens InputParameters.RepeatedLens
}

func (ls *lensSource) Name() string { return "repeated_plasma_lens" }

// Gradient is the cell averaged lens gradient over [z-dz/2, z+dz/2]
func (ls *lensSource) Gradient(z, dz float64) (g float64) {
	var (
		zl, zr = z - 0.5*dz, z + 0.5*dz
		period = ls.lens.Period
	)
	for n, start := range ls.lens.Starts {
		var (
			length = ls.lens.Lengths[n]
			inside float64
		)
		if period > 0 {
			rLo := int(math.Floor((zl - start - length) / period))
			rHi := int(math.Ceil((zr - start) / period))
			for r := rLo; r <= rHi; r++ {
				s := start + float64(r)*period
				inside += overlap(zl, zr, s, s+length)
			}
		} else {
			inside = overlap(zl, zr, start, start+length)
		}
		g += ls.lens.StrengthsB[n] * inside / dz
	}
	return
}

func overlap(a0, a1, b0, b1 float64) float64 {
	return math.Max(0, math.Min(a1, b1)-math.Max(a0, b0))
}

func (ls *lensSource) Fill(ld *LevelData, dst, edgeLengths grid.VectorField, t float64) error {
	d := FieldSolver.AxisDim(ld.Geom.Dim, 2)
	dz := ld.Geom.CellSize[d]
	dst[2].SetVal(0)
	for c := 0; c < 2; c++ {
		var (
			f    = dst[c]
			edge = edgeLengths[c]
			sign = 1 - 2*float64(c)
		)
		ld.Decomp.ForField(f, true, func(i, j, k int) {
			if FieldSolver.Covered(edge, i, j, k) {
				return
			}
			x, y, z := ld.Geom.Position(i, j, k, f.IxType)
			// Bx = g y, By = -g x
			r := y
			if c == 1 {
				r = x
			}
			f.Set(i, j, k, sign*ls.Gradient(z, dz)*r)
		})
	}
	return nil
}

// fileSource interpolates a field snapshot read once from disk
type fileSource struct {
	path string
	snap *readfiles.FieldSnapshot
}

func (fs *fileSource) Name() string { return "read_from_file" }

func (fs *fileSource) Fill(ld *LevelData, dst, edgeLengths grid.VectorField, t float64) (err error) {
	if err = fs.snap.Validate(ld.Geom.Dim); err != nil {
		return fmt.Errorf("%s: %w", fs.path, err)
	}
	for c := 0; c < 3; c++ {
		var (
			f     = dst[c]
			label = fs.snap.ComponentLabel(c)
		)
		if _, ok := fs.snap.Components[label]; !ok {
			return fmt.Errorf("%s: %w: %s_%s", fs.path, readfiles.ErrMissingComponent,
				fs.snap.Name, label)
		}
		ld.Decomp.ForField(f, true, func(i, j, k int) {
			for _, edge := range edgeLengths {
				if FieldSolver.Covered(edge, i, j, k) {
					return
				}
			}
			x, y, z := ld.Geom.Position(i, j, k, f.IxType)
			x0, x1, x2 := x, z, 0.
			if ld.Geom.Dim == types.Dim3D {
				x0, x1, x2 = x, y, z
			}
			// the component is known to exist so Interpolate cannot fail
			val, _ := fs.snap.Interpolate(label, x0, x1, x2)
			f.Set(i, j, k, val)
		})
	}
	return
}

func (m *HybridPICModel) newBSource() (src externalSource, err error) {
	switch m.BExternalInitStyle {
	case types.BInit_Default, types.BInit_Parser:
		if src, _, err = newAnalyticSource(m.bExpr, m.constants, "x", "y", "z"); err != nil {
			err = fmt.Errorf("B external: %w", err)
		}
	case types.BInit_RepeatedLens:
		src = &lensSource{lens: m.lens}
	case types.BInit_File:
		var snap *readfiles.FieldSnapshot
		if snap, err = readfiles.ReadSnapshot(m.ReadFieldsFromPath, "B"); err != nil {
			return
		}
		src = &fileSource{path: m.ReadFieldsFromPath, snap: snap}
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownInitStyle, m.BExternalInitStyle)
	}
	return
}

// CalculateExternalCurrent evaluates the external current of level lev at
// time t. A current without time dependence is evaluated once and reused
func (m *HybridPICModel) CalculateExternalCurrent(lev int, lf *LevelFields, t float64) (err error) {
	var ld *LevelData
	if ld, err = m.level(lev); err != nil {
		return
	}
	if m.jSource == nil {
		return ErrNotInitialized
	}
	if ld.jExternalCached && !m.jTimeDep {
		return
	}
	var edge grid.VectorField
	if lf != nil {
		edge = lf.EdgeLengths
	}
	if err = m.jSource.Fill(ld, ld.CurrentExternal, edge, t); err != nil {
		return
	}
	ld.jExternalCached = true
	return
}

// ExternalCurrentTimeDependent reports whether the external current uses t
func (m *HybridPICModel) ExternalCurrentTimeDependent() bool { return m.jTimeDep }
