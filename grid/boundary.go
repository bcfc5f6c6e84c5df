package grid

// FillBoundary refreshes ghost points. Periodic dimensions wrap around the
// domain; other dimensions copy the nearest valid point. Dimensions are
// processed in order so edge and corner ghosts end up consistent
func FillBoundary(geom *Geometry, fields ...*Field) {
	for _, f := range fields {
		if f == nil {
			continue
		}
		for d := 0; d < geom.SpaceDim(); d++ {
			if geom.Periodic[d] && f.IxType[d] == 1 {
				syncPeriodicNodes(f, d)
			}
			if f.NGrow[d] == 0 {
				continue
			}
			fillDim(geom, f, d)
		}
	}
}

// syncPeriodicNodes makes the upper nodal plane along d, the periodic image of
// the lower one, an exact copy of it
func syncPeriodicNodes(f *Field, d int) {
	var (
		lo, hi = f.Valid.Lo[d], f.Valid.Hi[d]
		bx     = f.Grown
	)
	bx.Lo[d], bx.Hi[d] = hi, hi
	for k := bx.Lo[2]; k <= bx.Hi[2]; k++ {
		for j := bx.Lo[1]; j <= bx.Hi[1]; j++ {
			for i := bx.Lo[0]; i <= bx.Hi[0]; i++ {
				q := [3]int{i, j, k}
				q[d] = lo
				f.Set(i, j, k, f.At(q[0], q[1], q[2]))
			}
		}
	}
}

func fillDim(geom *Geometry, f *Field, d int) {
	var (
		vlo, vhi = f.Valid.Lo[d], f.Valid.Hi[d]
		period   = geom.NCell[d]
		src      func(idx int) int
	)
	if geom.Periodic[d] {
		src = func(idx int) int {
			for idx < vlo {
				idx += period
			}
			for idx > vhi {
				idx -= period
			}
			return idx
		}
	} else {
		src = func(idx int) int {
			if idx < vlo {
				return vlo
			}
			return vhi
		}
	}
	bx := f.Grown
	for k := bx.Lo[2]; k <= bx.Hi[2]; k++ {
		for j := bx.Lo[1]; j <= bx.Hi[1]; j++ {
			for i := bx.Lo[0]; i <= bx.Hi[0]; i++ {
				p := [3]int{i, j, k}
				if p[d] >= vlo && p[d] <= vhi {
					continue
				}
				q := p
				q[d] = src(p[d])
				f.Set(i, j, k, f.At(q[0], q[1], q[2]))
			}
		}
	}
}
