// Package stats provides the streaming statistics used by the calibration
// tier.
//
// The cloud engine folds one sample per device per day into a Welford
// accumulator per (node, scope) instead of keeping raw sample lists, so
// memory stays bounded no matter how many devices report. Accumulators are
// serializable and mergeable, which is what lets the calibration service
// snapshot its tables and resume after a restart.
package stats

import "math"

// Welford is an online mean/variance accumulator with min/max tracking.
//
// The zero value is ready to use. All fields are exported so snapshots
// serialize cleanly; mutate them only through Add and Merge.
//
// Example:
//
//	var w stats.Welford
//	w.Add(0.2)
//	w.Add(0.8)
//	w.Mean()  // 0.5
//	w.Count   // 2
type Welford struct {
	Count int64   `json:"count"`
	M     float64 `json:"mean"`
	M2    float64 `json:"m2"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Add folds one sample into the accumulator.
func (w *Welford) Add(x float64) {
	if w.Count == 0 {
		w.Min = x
		w.Max = x
	} else {
		if x < w.Min {
			w.Min = x
		}
		if x > w.Max {
			w.Max = x
		}
	}
	w.Count++
	delta := x - w.M
	w.M += delta / float64(w.Count)
	w.M2 += delta * (x - w.M)
}

// Merge folds another accumulator into this one (Chan et al. parallel form).
func (w *Welford) Merge(o Welford) {
	if o.Count == 0 {
		return
	}
	if w.Count == 0 {
		*w = o
		return
	}
	if o.Min < w.Min {
		w.Min = o.Min
	}
	if o.Max > w.Max {
		w.Max = o.Max
	}
	n := float64(w.Count + o.Count)
	delta := o.M - w.M
	w.M += delta * float64(o.Count) / n
	w.M2 += o.M2 + delta*delta*float64(w.Count)*float64(o.Count)/n
	w.Count += o.Count
}

// Mean returns the running mean, or 0 with no samples.
func (w *Welford) Mean() float64 {
	if w.Count == 0 {
		return 0
	}
	return w.M
}

// Variance returns the population variance, or 0 with fewer than 2 samples.
func (w *Welford) Variance() float64 {
	if w.Count < 2 {
		return 0
	}
	return w.M2 / float64(w.Count)
}

// StdDev returns the population standard deviation.
func (w *Welford) StdDev() float64 {
	return math.Sqrt(w.Variance())
}

// Mean calculates the arithmetic mean of a slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Min returns the minimum value, or 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value, or 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Correlation calculates the Pearson correlation coefficient of two
// equal-length series. Returns 0 for mismatched, empty, or constant input.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	numerator := 0.0
	denomX := 0.0
	denomY := 0.0

	for i := 0; i < len(x); i++ {
		diffX := x[i] - meanX
		diffY := y[i] - meanY
		numerator += diffX * diffY
		denomX += diffX * diffX
		denomY += diffY * diffY
	}

	if denomX == 0 || denomY == 0 {
		return 0
	}

	return numerator / math.Sqrt(denomX*denomY)
}
