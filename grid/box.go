package grid

import "fmt"

// IntVect holds one integer per logical dimension. As an index type, 1 is
// node centered and 0 is cell centered
type IntVect [3]int

var (
	Nodal    = IntVect{1, 1, 1}
	CellType = IntVect{0, 0, 0}
)

func (iv IntVect) String() string {
	return fmt.Sprintf("(%d,%d,%d)", iv[0], iv[1], iv[2])
}

// Truncate returns iv with every dimension at or above spaceDim set to val
func (iv IntVect) Truncate(spaceDim, val int) (r IntVect) {
	r = iv
	for d := spaceDim; d < 3; d++ {
		r[d] = val
	}
	return
}

// EqualTo compares only the first spaceDim entries
func (iv IntVect) EqualTo(other IntVect, spaceDim int) bool {
	for d := 0; d < spaceDim; d++ {
		if iv[d] != other[d] {
			return false
		}
	}
	return true
}

// Box is an inclusive index range [Lo, Hi]
type Box struct {
	Lo, Hi IntVect
}

func NewBox(lo, hi IntVect) Box { return Box{Lo: lo, Hi: hi} }

func (bx Box) Size(d int) int { return bx.Hi[d] - bx.Lo[d] + 1 }

func (bx Box) NumPts() int {
	if bx.IsEmpty() {
		return 0
	}
	return bx.Size(0) * bx.Size(1) * bx.Size(2)
}

func (bx Box) IsEmpty() bool {
	for d := 0; d < 3; d++ {
		if bx.Hi[d] < bx.Lo[d] {
			return true
		}
	}
	return false
}

func (bx Box) Contains(i, j, k int) bool {
	return i >= bx.Lo[0] && i <= bx.Hi[0] &&
		j >= bx.Lo[1] && j <= bx.Hi[1] &&
		k >= bx.Lo[2] && k <= bx.Hi[2]
}

// Grow expands the box by ng on both sides of every dimension
func (bx Box) Grow(ng IntVect) (r Box) {
	for d := 0; d < 3; d++ {
		r.Lo[d] = bx.Lo[d] - ng[d]
		r.Hi[d] = bx.Hi[d] + ng[d]
	}
	return
}

func (bx Box) String() string {
	return fmt.Sprintf("[%v..%v]", bx.Lo, bx.Hi)
}
