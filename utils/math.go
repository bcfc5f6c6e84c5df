package utils

import (
	"math"
)

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

func POW(x float64, pp int) (y float64) {
	var (
		p       = pp
		flipped bool
	)
	if pp > 8 || pp < -8 {
		goto MATHPOW
	}

	if p < 0 {
		p = -pp
		flipped = true
	}
	switch p {
	case 0:
		y = 1
	case 1:
		y = x
	case 2:
		y = x * x
	case 3:
		y = x * x * x
	case 4:
		y = x * x
		y = y * y
	case 5:
		y = x * x
		y = y * y * x
	case 6:
		y = x * x
		y = y * y * y
	case 7:
		y = x * x
		y = y * y * y * x
	case 8:
		y = x * x
		y = y * y * y * y
	}
	if flipped {
		y = 1. / y
	}
	return

MATHPOW:
	y = math.Pow(x, float64(p))
	return
}

// IntegerPower reports whether p is a small integer exponent that POW can
// evaluate without math.Pow
func IntegerPower(p float64) (ip int, ok bool) {
	if p != math.Trunc(p) || math.Abs(p) > 8 {
		return
	}
	return int(p), true
}

// FracPower is x^p, using POW when p is a small integer
func FracPower(x, p float64) float64 {
	if ip, ok := IntegerPower(p); ok {
		return POW(x, ip)
	}
	return math.Pow(x, p)
}
