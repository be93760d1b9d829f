package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Zero(t, Median(nil))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input is not reordered")
}

func TestMinMax(t *testing.T) {
	values := []float64{4, -2, 9, 0}
	assert.Equal(t, -2.0, Min(values))
	assert.Equal(t, 9.0, Max(values))
	assert.Zero(t, Min(nil))
	assert.Zero(t, Max(nil))
}

func TestRankQuartiles(t *testing.T) {
	for _, tc := range []struct {
		name   string
		values []float64
		q1, q3 float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{7}, 7, 7},
		{"four", []float64{4, 3, 2, 1}, 1, 3},
		{"five", []float64{1, 2, 3, 4, 5}, 2, 3},
		{"eight", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 2, 6},
		{"twenty", seq(1, 20), 5, 15},
	} {
		t.Run(tc.name, func(t *testing.T) {
			q1, q3 := RankQuartiles(tc.values)
			assert.Equal(t, tc.q1, q1)
			assert.Equal(t, tc.q3, q3)
		})
	}
}

func TestCappedIQR(t *testing.T) {
	assert.Equal(t, 20.0, CappedIQR(100, 120, 30))
	assert.Equal(t, 30.0, CappedIQR(100, 200, 30))
}

func TestOutsideFences(t *testing.T) {
	assert.True(t, OutsideFences(80, 100, 120, 20), "on the lower fence")
	assert.True(t, OutsideFences(140, 100, 120, 20), "on the upper fence")
	assert.False(t, OutsideFences(81, 100, 120, 20))
	assert.False(t, OutsideFences(139, 100, 120, 20))
}

func seq(from, to int) []float64 {
	var out []float64
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}
