package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWelfordMatchesDirectComputation(t *testing.T) {
	samples := []float64{0.2, 0.8, 0.5, 0.1, 0.9, 0.4}

	var w Welford
	for _, s := range samples {
		w.Add(s)
	}

	mean := Mean(samples)
	variance := 0.0
	for _, s := range samples {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(samples))

	assert.Equal(t, int64(len(samples)), w.Count)
	assert.InDelta(t, mean, w.Mean(), 1e-12)
	assert.InDelta(t, variance, w.Variance(), 1e-12)
	assert.Equal(t, 0.1, w.Min)
	assert.Equal(t, 0.9, w.Max)
}

func TestWelfordZeroValue(t *testing.T) {
	var w Welford
	assert.Equal(t, 0.0, w.Mean())
	assert.Equal(t, 0.0, w.Variance())
	assert.Equal(t, 0.0, w.StdDev())

	w.Add(0.7)
	assert.Equal(t, 0.7, w.Mean())
	assert.Equal(t, 0.0, w.Variance(), "single sample has no variance")
}

func TestWelfordMerge(t *testing.T) {
	all := []float64{0.3, 0.6, 0.9, 0.1, 0.5, 0.2, 0.8}

	var whole Welford
	for _, s := range all {
		whole.Add(s)
	}

	var left, right Welford
	for _, s := range all[:3] {
		left.Add(s)
	}
	for _, s := range all[3:] {
		right.Add(s)
	}
	left.Merge(right)

	assert.Equal(t, whole.Count, left.Count)
	assert.InDelta(t, whole.Mean(), left.Mean(), 1e-12)
	assert.InDelta(t, whole.Variance(), left.Variance(), 1e-12)
	assert.Equal(t, whole.Min, left.Min)
	assert.Equal(t, whole.Max, left.Max)

	t.Run("merge into empty", func(t *testing.T) {
		var empty Welford
		empty.Merge(whole)
		assert.Equal(t, whole, empty)
	})

	t.Run("merge empty is a no-op", func(t *testing.T) {
		before := whole
		whole.Merge(Welford{})
		assert.Equal(t, before, whole)
	})
}

func TestCorrelation(t *testing.T) {
	t.Run("perfect positive", func(t *testing.T) {
		x := []float64{1, 2, 3, 4}
		y := []float64{2, 4, 6, 8}
		assert.InDelta(t, 1.0, Correlation(x, y), 1e-12)
	})

	t.Run("perfect negative", func(t *testing.T) {
		x := []float64{1, 2, 3, 4}
		y := []float64{8, 6, 4, 2}
		assert.InDelta(t, -1.0, Correlation(x, y), 1e-12)
	})

	t.Run("constant series yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Correlation([]float64{1, 1, 1}, []float64{2, 5, 9}))
	})

	t.Run("mismatched lengths yield zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Correlation([]float64{1, 2}, []float64{1}))
	})

	t.Run("empty yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Correlation(nil, nil))
	})
}

func TestSliceHelpers(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Min(nil))
	assert.Equal(t, 0.0, Max(nil))

	vals := []float64{0.4, 0.1, 0.7}
	assert.InDelta(t, 0.4, Mean(vals), 1e-12)
	assert.Equal(t, 0.1, Min(vals))
	assert.Equal(t, 0.7, Max(vals))
}
