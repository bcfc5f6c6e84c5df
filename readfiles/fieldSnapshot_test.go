package readfiles

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/hybridpic/types"
)

func linear3D(x, y, z float64) float64 { return 1 + 2*x - 3*y + 0.5*z }

func makeCartesian3D() *FieldSnapshot {
	var (
		nx, ny, nz = 5, 4, 6
		off        = []float64{-1, 0, 2}
		d          = []float64{0.5, 1, 0.25}
	)
	fs := &FieldSnapshot{
		Name:       "B",
		Iteration:  7,
		Geometry:   GeomCartesian,
		AxisLabels: []string{"x", "y", "z"},
		DataOrder:  "C",
		Offset:     off,
		Spacing:    d,
		Extent:     []int{nx, ny, nz},
		Components: map[string][]float64{},
	}
	for n, comp := range []string{"x", "y", "z"} {
		data := make([]float64, nx*ny*nz)
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				for k := 0; k < nz; k++ {
					x, y, z := off[0]+float64(i)*d[0], off[1]+float64(j)*d[1], off[2]+float64(k)*d[2]
					data[(i*ny+j)*nz+k] = float64(n+1) * linear3D(x, y, z)
				}
			}
		}
		fs.Components[comp] = data
	}
	return fs
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bfield.nc")
	fs := makeCartesian3D()
	require.NoError(t, WriteSnapshot(path, fs))

	rd, err := ReadSnapshot(path, "B")
	require.NoError(t, err)
	assert.Equal(t, 7, rd.Iteration)
	assert.Equal(t, GeomCartesian, rd.Geometry)
	assert.Equal(t, []string{"x", "y", "z"}, rd.AxisLabels)
	assert.Equal(t, "C", rd.DataOrder)
	assert.Equal(t, fs.Offset, rd.Offset)
	assert.Equal(t, fs.Spacing, rd.Spacing)
	assert.Equal(t, fs.Extent, rd.Extent)
	for _, comp := range []string{"x", "y", "z"} {
		assert.Equal(t, fs.Components[comp], rd.Components[comp])
	}
	require.NoError(t, rd.Validate(types.Dim3D))

	{ // Trilinear interpolation reproduces a linear field inside the file grid
		for _, p := range [][3]float64{{-0.8, 0.3, 2.1}, {0.6, 2.9, 3.0}, {0.99, 1.5, 3.2}} {
			v, err := rd.Interpolate("y", p[0], p[1], p[2])
			require.NoError(t, err)
			assert.InDelta(t, 2*linear3D(p[0], p[1], p[2]), v, 1.e-12)
		}
	}
	{ // Points outside clamp to the boundary value
		v, err := rd.Interpolate("x", -10, 0, 2)
		require.NoError(t, err)
		assert.InDelta(t, linear3D(-1, 0, 2), v, 1.e-12)
		v, err = rd.Interpolate("x", 10, 0, 2)
		require.NoError(t, err)
		assert.InDelta(t, linear3D(1, 0, 2), v, 1.e-12)
	}
	_, err = rd.Interpolate("q", 0, 0, 0)
	assert.True(t, errors.Is(err, ErrMissingComponent))

	_, err = ReadSnapshot(path, "E")
	assert.True(t, errors.Is(err, ErrMissingComponent))
	_, err = ReadSnapshot(filepath.Join(t.TempDir(), "missing.nc"), "B")
	assert.Error(t, err)
}

func TestSnapshotValidate(t *testing.T) {
	fs := makeCartesian3D()
	{ // A 2-label cartesian dataset in a 3-axis run
		two := *fs
		two.AxisLabels = []string{"x", "z"}
		two.Extent = []int{5, 6}
		err := two.Validate(types.Dim3D)
		assert.True(t, errors.Is(err, ErrAxisLabelMismatch))
	}
	{
		swapped := *fs
		swapped.AxisLabels = []string{"z", "y", "x"}
		assert.True(t, errors.Is(swapped.Validate(types.Dim3D), ErrAxisLabelMismatch))
	}
	assert.True(t, errors.Is(fs.Validate(types.Dim1DZ), ErrOneDimensional))
	assert.True(t, errors.Is(fs.Validate(types.DimRZ), ErrUnsupportedGeometry))
	{
		fortran := *fs
		fortran.DataOrder = "F"
		assert.True(t, errors.Is(fortran.Validate(types.Dim3D), ErrDataOrder))
	}
}

func TestSnapshot2D(t *testing.T) {
	{ // thetaMode: [mode][r][z], mirrored in r
		nr, nz := 4, 5
		data := make([]float64, nr*nz)
		for i := 0; i < nr; i++ {
			for k := 0; k < nz; k++ {
				data[i*nz+k] = 3*float64(i)*0.5 + float64(k)*0.25
			}
		}
		fs := &FieldSnapshot{
			Name:       "B",
			Geometry:   GeomThetaMode,
			AxisLabels: []string{"r", "z"},
			DataOrder:  "C",
			Offset:     []float64{0, 0},
			Spacing:    []float64{0.5, 0.25},
			Extent:     []int{1, nr, nz},
			Components: map[string][]float64{"r": data, "t": data, "z": data},
		}
		path := filepath.Join(t.TempDir(), "rz.nc")
		require.NoError(t, WriteSnapshot(path, fs))
		rd, err := ReadSnapshot(path, "B")
		require.NoError(t, err)
		require.NoError(t, rd.Validate(types.DimRZ))
		assert.Equal(t, "t", rd.ComponentLabel(1))
		v, err := rd.Interpolate("z", 0.7, 0.6, 0)
		require.NoError(t, err)
		assert.InDelta(t, 3*0.7+0.6, v, 1.e-12)
		vm, err := rd.Interpolate("z", -0.7, 0.6, 0)
		require.NoError(t, err)
		assert.Equal(t, v, vm)
	}
	{ // XZ cartesian: [x][z]
		nx, nz := 3, 3
		data := make([]float64, nx*nz)
		for i := 0; i < nx; i++ {
			for k := 0; k < nz; k++ {
				data[i*nz+k] = float64(i) - 2*float64(k)
			}
		}
		fs := &FieldSnapshot{
			Geometry:   GeomCartesian,
			AxisLabels: []string{"x", "z"},
			DataOrder:  "C",
			Offset:     []float64{0, 0},
			Spacing:    []float64{1, 1},
			Extent:     []int{nx, nz},
			Components: map[string][]float64{"y": data},
		}
		require.NoError(t, fs.Validate(types.DimXZ))
		v, err := fs.Interpolate("y", 1.25, 0.5, 0)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, v, 1.e-12)
	}
	assert.Equal(t, 2.5, Bilinear(1, 2, 3, 4, 0.5, 0.5))
}

func TestSnapshotSinglePlane(t *testing.T) {
	{ // One z plane in a 3D file: bilinear in x and y, constant in z
		data := make([]float64, 3*3)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				data[i*3+j] = float64(i) + 10*float64(j)
			}
		}
		fs := &FieldSnapshot{
			Geometry:   GeomCartesian,
			AxisLabels: []string{"x", "y", "z"},
			DataOrder:  "C",
			Offset:     []float64{0, 0, 0},
			Spacing:    []float64{1, 1, 1},
			Extent:     []int{3, 3, 1},
			Components: map[string][]float64{"x": data},
		}
		require.NoError(t, fs.Validate(types.Dim3D))
		for _, z := range []float64{0, -2, 5} {
			v, err := fs.Interpolate("x", 1.5, 1.5, z)
			require.NoError(t, err)
			assert.InDelta(t, 16.5, v, 1.e-12)
		}
	}
	{ // One z plane in an XZ file
		fs := &FieldSnapshot{
			Geometry:   GeomCartesian,
			AxisLabels: []string{"x", "z"},
			DataOrder:  "C",
			Offset:     []float64{0, 0},
			Spacing:    []float64{0.5, 0.5},
			Extent:     []int{3, 1},
			Components: map[string][]float64{"z": {1, 2, 3}},
		}
		v, err := fs.Interpolate("z", 0.75, 3, 0)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, v, 1.e-12)
	}
}
