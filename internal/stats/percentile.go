package stats

import (
	"math"
)

// RankQuartiles returns the empirical first and third quartiles of values:
// the order statistics at 1-indexed ranks ceil(n/4) and n-ceil(n/4).
// No interpolation is done, so both results are members of values.
func RankQuartiles(values []float64) (q1, q3 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}

	sorted := sortedCopy(values)
	k := int(math.Ceil(float64(n) / 4))

	lower := k - 1
	upper := n - k - 1
	if upper < 0 {
		upper = 0
	}
	return sorted[lower], sorted[upper]
}

// CappedIQR returns q3-q1 limited to limit
func CappedIQR(q1, q3, limit float64) float64 {
	return math.Min(q3-q1, limit)
}

// OutsideFences reports whether v lies on or beyond q1-iqr or q3+iqr
func OutsideFences(v, q1, q3, iqr float64) bool {
	return v <= q1-iqr || v >= q3+iqr
}
