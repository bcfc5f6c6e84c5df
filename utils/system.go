package utils

import (
	"fmt"
	"math"
	"runtime"
)

// GetMemUsage reports heap and system memory of the process in MiB
func GetMemUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}
	return fmt.Sprintf("Alloc = %v MiB TotalAlloc = %v MiB Sys = %v MiB NumGC = %v",
		bToMb(m.Alloc), bToMb(m.TotalAlloc), bToMb(m.Sys), m.NumGC)
}

// NotFinite reports whether any value is NaN or infinite
func NotFinite(data ...[]float64) bool {
	for _, s := range data {
		for _, f := range s {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return true
			}
		}
	}
	return false
}
