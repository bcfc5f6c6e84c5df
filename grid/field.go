package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Field is one scalar component on a level, stored with ghost points. Data is
// laid out with i fastest
type Field struct {
	Name   string
	IxType IntVect
	NGrow  IntVect
	Valid  Box // points inside the domain
	Grown  Box // Valid plus ghosts
	Data   []float64
	nx, ny int
}

// VectorField holds the x, y and z components of a staggered vector
type VectorField [3]*Field

// NewField allocates a zeroed field. Dimensions beyond the geometry's space
// dimension always hold a single point and no ghosts
func NewField(name string, geom *Geometry, ixType, nGrow IntVect) (f *Field) {
	sd := geom.SpaceDim()
	ixType = ixType.Truncate(sd, 1)
	nGrow = nGrow.Truncate(sd, 0)
	valid := geom.ValidBox(ixType)
	f = &Field{
		Name:   name,
		IxType: ixType,
		NGrow:  nGrow,
		Valid:  valid,
		Grown:  valid.Grow(nGrow),
	}
	f.nx, f.ny = f.Grown.Size(0), f.Grown.Size(1)
	f.Data = make([]float64, f.Grown.NumPts())
	return
}

func NewVectorField(name string, geom *Geometry, ixTypes [3]IntVect, nGrow IntVect) (vf VectorField) {
	for n, c := range []string{"x", "y", "z"} {
		vf[n] = NewField(name+c, geom, ixTypes[n], nGrow)
	}
	return
}

func (f *Field) Index(i, j, k int) int {
	return (i - f.Grown.Lo[0]) + f.nx*((j-f.Grown.Lo[1])+f.ny*(k-f.Grown.Lo[2]))
}

func (f *Field) At(i, j, k int) float64 { return f.Data[f.Index(i, j, k)] }

func (f *Field) Set(i, j, k int, val float64) { f.Data[f.Index(i, j, k)] = val }

func (f *Field) Contains(i, j, k int) bool { return f.Grown.Contains(i, j, k) }

func (f *Field) SetVal(val float64) {
	for i := range f.Data {
		f.Data[i] = val
	}
}

// SameShape reports whether two fields can be combined pointwise
func (f *Field) SameShape(o *Field) bool {
	return f.Grown == o.Grown && f.IxType == o.IxType
}

func (f *Field) mustMatch(o *Field) {
	if !f.SameShape(o) {
		panic(fmt.Errorf("field %s %v %v does not match %s %v %v",
			f.Name, f.IxType, f.Grown, o.Name, o.IxType, o.Grown))
	}
}

// Clone allocates a copy with the same layout and data
func (f *Field) Clone(name string) (c *Field) {
	c = &Field{}
	*c = *f
	c.Name = name
	c.Data = make([]float64, len(f.Data))
	copy(c.Data, f.Data)
	return
}

func (f *Field) CopyFrom(src *Field) {
	f.mustMatch(src)
	copy(f.Data, src.Data)
}

// Subtract sets f = f - s, ghosts included
func (f *Field) Subtract(s *Field) {
	f.mustMatch(s)
	floats.Sub(f.Data, s.Data)
}

// Add sets f = f + s, ghosts included
func (f *Field) Add(s *Field) {
	f.mustMatch(s)
	floats.Add(f.Data, s.Data)
}

// LinComb sets f = a*x + b*y, ghosts included
func (f *Field) LinComb(a float64, x *Field, b float64, y *Field) {
	f.mustMatch(x)
	f.mustMatch(y)
	if f == y {
		floats.Scale(b, f.Data)
		floats.AddScaled(f.Data, a, x.Data)
		return
	}
	floats.ScaleTo(f.Data, a, x.Data)
	floats.AddScaled(f.Data, b, y.Data)
}

// Norm is the 2-norm over the valid region
func (f *Field) Norm() float64 {
	var sum float64
	for k := f.Valid.Lo[2]; k <= f.Valid.Hi[2]; k++ {
		for j := f.Valid.Lo[1]; j <= f.Valid.Hi[1]; j++ {
			row := f.Data[f.Index(f.Valid.Lo[0], j, k) : f.Index(f.Valid.Hi[0], j, k)+1]
			sum += floats.Dot(row, row)
		}
	}
	return math.Sqrt(sum)
}

func (vf VectorField) Clone(name string) (c VectorField) {
	for n := 0; n < 3; n++ {
		c[n] = vf[n].Clone(fmt.Sprintf("%s[%d]", name, n))
	}
	return
}

func (vf VectorField) CopyFrom(src VectorField) {
	for n := 0; n < 3; n++ {
		vf[n].CopyFrom(src[n])
	}
}

func (vf VectorField) SetVal(val float64) {
	for n := 0; n < 3; n++ {
		vf[n].SetVal(val)
	}
}

func (vf VectorField) IxTypes() (t [3]IntVect) {
	for n := 0; n < 3; n++ {
		t[n] = vf[n].IxType
	}
	return
}

// Allocated reports whether all three components exist
func (vf VectorField) Allocated() bool {
	return vf[0] != nil && vf[1] != nil && vf[2] != nil
}
