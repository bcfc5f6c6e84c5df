package readfiles

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"

	"github.com/notargets/hybridpic/types"
)

var (
	ErrOneDimensional      = errors.New("readfiles: reading fields from file is not supported in 1D")
	ErrUnsupportedGeometry = errors.New("readfiles: unsupported file geometry")
	ErrAxisLabelMismatch   = errors.New("readfiles: axis labels do not match the run dimensionality")
	ErrDataOrder           = errors.New("readfiles: reading from files with non-C dataOrder is not implemented")
	ErrNoIterations        = errors.New("readfiles: file holds no iterations")
	ErrMissingComponent    = errors.New("readfiles: field component not found")
)

const (
	GeomCartesian = "cartesian"
	GeomThetaMode = "thetaMode"
)

/*
FieldSnapshot is one mesh record (for example "B") of one iteration of a
structured field file.

Cartesian data is C ordered over the axis labels, so a 3D component is
[x][y][z] and an XZ component is [x][z]. thetaMode data is [mode][r][z] and
only mode 0 is used.
*/
type FieldSnapshot struct {
	Name       string
	Iteration  int
	Geometry   string
	AxisLabels []string
	DataOrder  string
	Offset     []float64 // gridGlobalOffset, one per axis
	Spacing    []float64 // gridSpacing, one per axis
	Extent     []int     // per stored array dimension
	Components map[string][]float64
}

func varName(iteration int, record, comp string) string {
	return fmt.Sprintf("it%d_%s_%s", iteration, record, comp)
}

// dimNames are the file dimension names of every component array
func (fs *FieldSnapshot) dimNames() []string {
	if fs.Geometry == GeomThetaMode {
		return []string{"mode", fs.AxisLabels[0], fs.AxisLabels[1]}
	}
	return fs.AxisLabels
}

// ComponentLabel maps a Cartesian component index to the component name used
// by this snapshot's geometry
func (fs *FieldSnapshot) ComponentLabel(comp int) string {
	if fs.Geometry == GeomThetaMode {
		return [...]string{"r", "t", "z"}[comp]
	}
	return [...]string{"x", "y", "z"}[comp]
}

// WriteSnapshot writes fs to a new NetCDF file at path
func WriteSnapshot(path string, fs *FieldSnapshot) (err error) {
	var (
		w     *os.File
		f     *cdf.File
		dims  = fs.dimNames()
		names []string
	)
	if len(fs.Extent) != len(dims) {
		return fmt.Errorf("readfiles: %d extents for dimensions %v", len(fs.Extent), dims)
	}
	h := cdf.NewHeader(dims, fs.Extent)
	h.AddAttribute("", "comment", "external field snapshot")
	h.AddAttribute("", "iterations", []int32{int32(fs.Iteration)})
	for name := range fs.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := varName(fs.Iteration, fs.Name, name)
		h.AddVariable(v, dims, []float64{0})
		h.AddAttribute(v, "geometry", fs.Geometry)
		h.AddAttribute(v, "axisLabels", strings.Join(fs.AxisLabels, ","))
		h.AddAttribute(v, "dataOrder", fs.DataOrder)
		h.AddAttribute(v, "gridGlobalOffset", fs.Offset)
		h.AddAttribute(v, "gridSpacing", fs.Spacing)
	}
	h.Define()

	if w, err = os.Create(path); err != nil {
		return
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	if f, err = cdf.Create(w, h); err != nil {
		return
	}
	for _, name := range names {
		v := varName(fs.Iteration, fs.Name, name)
		end := f.Header.Lengths(v)
		start := make([]int, len(end))
		if _, err = f.Writer(v, start, end).Write(fs.Components[name]); err != nil {
			return fmt.Errorf("readfiles: writing variable %s: %w", v, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// ReadSnapshot loads every component of record from the first iteration
// stored in the file at path
func ReadSnapshot(path, record string) (fs *FieldSnapshot, err error) {
	var (
		r *os.File
		f *cdf.File
	)
	if r, err = os.Open(path); err != nil {
		return
	}
	defer r.Close()
	if f, err = cdf.Open(r); err != nil {
		return nil, fmt.Errorf("readfiles: opening %s: %w", path, err)
	}
	its, ok := f.Header.GetAttribute("", "iterations").([]int32)
	if !ok || len(its) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoIterations, path)
	}
	fs = &FieldSnapshot{
		Name:       record,
		Iteration:  int(its[0]),
		Components: make(map[string][]float64),
	}
	prefix := fmt.Sprintf("it%d_%s_", fs.Iteration, record)
	for _, v := range f.Header.Variables() {
		if !strings.HasPrefix(v, prefix) {
			continue
		}
		if len(fs.Components) == 0 {
			if err = fs.readAttributes(f.Header, v); err != nil {
				return nil, err
			}
			fs.Extent = f.Header.Lengths(v)
		}
		n := 1
		for _, l := range fs.Extent {
			n *= l
		}
		data := make([]float64, n)
		if _, err = f.Reader(v, nil, nil).Read(data); err != nil {
			return nil, fmt.Errorf("readfiles: reading %s: %w", v, err)
		}
		fs.Components[strings.TrimPrefix(v, prefix)] = data
	}
	if len(fs.Components) == 0 {
		return nil, fmt.Errorf("%w: record %q in iteration %d of %s", ErrMissingComponent,
			record, fs.Iteration, path)
	}
	return
}

func (fs *FieldSnapshot) readAttributes(h *cdf.Header, v string) (err error) {
	var ok bool
	if fs.Geometry, ok = h.GetAttribute(v, "geometry").(string); !ok {
		return fmt.Errorf("readfiles: %s has no geometry attribute", v)
	}
	labels, _ := h.GetAttribute(v, "axisLabels").(string)
	fs.AxisLabels = strings.Split(labels, ",")
	fs.DataOrder, _ = h.GetAttribute(v, "dataOrder").(string)
	fs.Offset, _ = h.GetAttribute(v, "gridGlobalOffset").([]float64)
	fs.Spacing, _ = h.GetAttribute(v, "gridSpacing").([]float64)
	if len(fs.Offset) != len(fs.AxisLabels) || len(fs.Spacing) != len(fs.AxisLabels) {
		return fmt.Errorf("readfiles: %s has %d axis labels, %d offsets and %d spacings",
			v, len(fs.AxisLabels), len(fs.Offset), len(fs.Spacing))
	}
	return
}

// Validate checks the snapshot can be interpolated onto a run of the given
// dimensionality
func (fs *FieldSnapshot) Validate(dim types.Dimensionality) (err error) {
	var (
		wantGeom   string
		wantLabels []string
	)
	if fs.DataOrder != "C" {
		return fmt.Errorf("%w (dataOrder %q)", ErrDataOrder, fs.DataOrder)
	}
	switch dim {
	case types.Dim1DZ:
		return ErrOneDimensional
	case types.Dim3D:
		wantGeom, wantLabels = GeomCartesian, []string{"x", "y", "z"}
	case types.DimXZ:
		wantGeom, wantLabels = GeomCartesian, []string{"x", "z"}
	case types.DimRZ:
		wantGeom, wantLabels = GeomThetaMode, []string{"r", "z"}
	}
	if fs.Geometry != wantGeom {
		return fmt.Errorf("%w: %s can only read from files with %s geometry, file has %q",
			ErrUnsupportedGeometry, dim, wantGeom, fs.Geometry)
	}
	if len(fs.AxisLabels) != len(wantLabels) {
		return fmt.Errorf("%w: %s expects axisLabels %v, file has %v", ErrAxisLabelMismatch,
			dim, wantLabels, fs.AxisLabels)
	}
	for i := range wantLabels {
		if fs.AxisLabels[i] != wantLabels[i] {
			return fmt.Errorf("%w: %s expects axisLabels %v, file has %v", ErrAxisLabelMismatch,
				dim, wantLabels, fs.AxisLabels)
		}
	}
	expected := len(wantLabels)
	if fs.Geometry == GeomThetaMode {
		expected++
	}
	if len(fs.Extent) != expected {
		return fmt.Errorf("readfiles: %d array dimensions, expected %d", len(fs.Extent), expected)
	}
	return
}

// Interpolate returns component comp at a physical point. Cartesian 3D data
// is interpolated trilinearly; XZ and thetaMode data bilinearly with
// x0 = x (or r) and x1 = z. Negative radii are mirrored. Points beyond the
// file grid take the value at the nearest file boundary
func (fs *FieldSnapshot) Interpolate(comp string, x0, x1, x2 float64) (val float64, err error) {
	data, ok := fs.Components[comp]
	if !ok {
		err = fmt.Errorf("%w: %s_%s", ErrMissingComponent, fs.Name, comp)
		return
	}
	switch {
	case fs.Geometry == GeomThetaMode:
		nr, nz := fs.Extent[1], fs.Extent[2]
		r0, r1, wr := locate(math.Abs(x0), fs.Offset[0], fs.Spacing[0], nr)
		z0, z1, wz := locate(x1, fs.Offset[1], fs.Spacing[1], nz)
		at := func(a, b int) float64 { return data[a*nz+b] } // mode 0
		val = Bilinear(at(r0, z0), at(r0, z1), at(r1, z0), at(r1, z1), wr, wz)
	case len(fs.Extent) == 2:
		nx, nz := fs.Extent[0], fs.Extent[1]
		ix, jx, wx := locate(x0, fs.Offset[0], fs.Spacing[0], nx)
		z0, z1, wz := locate(x1, fs.Offset[1], fs.Spacing[1], nz)
		at := func(a, b int) float64 { return data[a*nz+b] }
		val = Bilinear(at(ix, z0), at(ix, z1), at(jx, z0), at(jx, z1), wx, wz)
	default:
		nx, ny, nz := fs.Extent[0], fs.Extent[1], fs.Extent[2]
		var (
			ix, jx, wx = locate(x0, fs.Offset[0], fs.Spacing[0], nx)
			iy, jy, wy = locate(x1, fs.Offset[1], fs.Spacing[1], ny)
			iz, jz, wz = locate(x2, fs.Offset[2], fs.Spacing[2], nz)
			xs, ys, zs = [2]int{ix, jx}, [2]int{iy, jy}, [2]int{iz, jz}
			f          [2][2][2]float64
		)
		at := func(a, b, c int) float64 { return data[(a*ny+b)*nz+c] }
		for a := 0; a < 2; a++ {
			for b := 0; b < 2; b++ {
				for c := 0; c < 2; c++ {
					f[a][b][c] = at(xs[a], ys[b], zs[c])
				}
			}
		}
		val = Trilinear(f, wx, wy, wz)
	}
	return
}

// locate finds the file points i0 <= i1 bracketing x and the fractional
// position between them, clamped to the file grid. An axis holding a single
// plane has i0 == i1
func locate(x, offset, d float64, n int) (i0, i1 int, w float64) {
	if n < 2 {
		return 0, 0, 0
	}
	s := (x - offset) / d
	i0 = int(math.Floor(s))
	switch {
	case i0 < 0:
		return 0, 1, 0
	case i0 > n-2:
		return n - 2, n - 1, 1
	}
	return i0, i0 + 1, s - float64(i0)
}

// Bilinear interpolates between f00 at (0,0), f01 at (0,1), f10 at (1,0) and
// f11 at (1,1) with fractional coordinates (w0, w1)
func Bilinear(f00, f01, f10, f11, w0, w1 float64) float64 {
	return (1-w0)*((1-w1)*f00+w1*f01) + w0*((1-w1)*f10+w1*f11)
}

// Trilinear interpolates the cube corners f[a][b][c] at fractional
// coordinates (w0, w1, w2)
func Trilinear(f [2][2][2]float64, w0, w1, w2 float64) float64 {
	return (1-w0)*Bilinear(f[0][0][0], f[0][0][1], f[0][1][0], f[0][1][1], w1, w2) +
		w0*Bilinear(f[1][0][0], f[1][0][1], f[1][1][0], f[1][1][1], w1, w2)
}
