// Package mathx provides small numeric helpers not found in package math
package mathx

// Round rounds a float to the nearest "unit" (0.1 for tenth, 0.01 for hundredth, and so on).
func Round(x, unit float64) float64 {
	return float64(int64(x/unit+0.5)) * unit
}

// ClampInt limits x to [lo, hi]
func ClampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// MaxInt returns the larger of a and b
func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
