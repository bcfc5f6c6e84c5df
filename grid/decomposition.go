package grid

import (
	"github.com/notargets/hybridpic/utils"
)

// Decomposition dispatches elementwise kernels over the points of a box. Rows
// of constant (j, k) are split across ParallelDegree goroutines
type Decomposition struct {
	ProcLimit int // zero means one worker per CPU
}

func NewDecomposition(procLimit int) *Decomposition {
	return &Decomposition{ProcLimit: procLimit}
}

// ParallelFor calls fn for every point of bx and returns when all points are
// done. fn must only write the destination point it is handed
func (dc *Decomposition) ParallelFor(bx Box, fn func(i, j, k int)) {
	if bx.IsEmpty() {
		return
	}
	var (
		ny    = bx.Size(1)
		nRows = ny * bx.Size(2)
		limit int
	)
	if dc != nil {
		limit = dc.ProcLimit
	}
	pm := utils.NewPartitionMap(utils.ParallelDegree(limit, nRows), nRows)
	pm.Run(func(np, rMin, rMax int) {
		for r := rMin; r < rMax; r++ {
			j := bx.Lo[1] + r%ny
			k := bx.Lo[2] + r/ny
			for i := bx.Lo[0]; i <= bx.Hi[0]; i++ {
				fn(i, j, k)
			}
		}
	})
}

// ForField runs fn over the valid points of f, or over valid and ghost points
// when withGhosts is set
func (dc *Decomposition) ForField(f *Field, withGhosts bool, fn func(i, j, k int)) {
	if withGhosts {
		dc.ParallelFor(f.Grown, fn)
		return
	}
	dc.ParallelFor(f.Valid, fn)
}
