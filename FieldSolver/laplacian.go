package FieldSolver

import (
	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"

	"github.com/notargets/hybridpic/grid"
)

type lapKey struct {
	ixType grid.IntVect
	grown  grid.Box
}

/*
Laplacian is the second order finite difference Laplacian of a field layout,
stored as a sparse matrix over the flat data index of the field (ghosts
included). Rows exist for valid points whose neighbours all lie inside the
ghosted box; other rows are empty.
*/
type Laplacian struct {
	M   *sparse.CSR
	raw *blas.SparseMatrix
}

func NewLaplacian(geom *grid.Geometry, f *grid.Field) (l *Laplacian) {
	var (
		n   = len(f.Data)
		dok = sparse.NewDOK(n, n)
		sd  = geom.SpaceDim()
	)
	for k := f.Valid.Lo[2]; k <= f.Valid.Hi[2]; k++ {
		for j := f.Valid.Lo[1]; j <= f.Valid.Hi[1]; j++ {
			for i := f.Valid.Lo[0]; i <= f.Valid.Hi[0]; i++ {
				p := [3]int{i, j, k}
				row := f.Index(i, j, k)
				inside := true
				for d := 0; d < sd; d++ {
					lo, hi := p, p
					lo[d]--
					hi[d]++
					if !f.Contains(lo[0], lo[1], lo[2]) || !f.Contains(hi[0], hi[1], hi[2]) {
						inside = false
					}
				}
				if !inside {
					continue
				}
				var diag float64
				for d := 0; d < sd; d++ {
					inv := 1. / (geom.CellSize[d] * geom.CellSize[d])
					lo, hi := p, p
					lo[d]--
					hi[d]++
					dok.Set(row, f.Index(lo[0], lo[1], lo[2]), inv)
					dok.Set(row, f.Index(hi[0], hi[1], hi[2]), inv)
					diag -= 2 * inv
				}
				dok.Set(row, row, diag)
			}
		}
	}
	l = &Laplacian{M: dok.ToCSR()}
	l.raw = l.M.RawMatrix()
	return
}

// Row evaluates one row of the operator against x
func (l *Laplacian) Row(row int, x []float64) (v float64) {
	for p := l.raw.Indptr[row]; p < l.raw.Indptr[row+1]; p++ {
		v += l.raw.Data[p] * x[l.raw.Ind[p]]
	}
	return
}

// Apply sets dst = L*x
func (l *Laplacian) Apply(dst, x []float64) {
	for row := range dst {
		dst[row] = l.Row(row, x)
	}
}

func (fds *FiniteDifferenceSolver) laplacian(f *grid.Field) (l *Laplacian) {
	key := lapKey{f.IxType, f.Grown}
	fds.mu.Lock()
	defer fds.mu.Unlock()
	var ok bool
	if l, ok = fds.laplacians[key]; !ok {
		l = NewLaplacian(fds.Geom, f)
		fds.laplacians[key] = l
	}
	return
}
