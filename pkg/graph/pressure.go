package graph

// MapPressure converts a raw indicator value to normalized pressure using
// the node's direction and threshold bands.
//
// The mapping is piecewise linear across two segments per direction:
// values at or beyond the Ignorable band edge round to 0, the Pressuring
// band edge maps to 0.3 exactly, and values at or beyond the Irreversible
// band edge round to 1. The result is monotone in the unhealthy direction
// and always clamped to [0,1].
//
// Example:
//
//	// lower_better with bands (10, 20, 40)
//	graph.MapPressure(graph.LowerBetter, graph.Thresholds{Ignorable: 10, Pressuring: 20, Irreversible: 40}, 20)
//	// => 0.3
func MapPressure(dir Direction, t Thresholds, value float64) float64 {
	switch dir {
	case LowerBetter:
		return mapAscending(value, t.Ignorable, t.Pressuring, t.Irreversible)
	case HigherBetter:
		// Bands are ordered ignorable > pressuring > irreversible.
		// Negating both value and bands reuses the ascending mapping.
		return mapAscending(-value, -t.Ignorable, -t.Pressuring, -t.Irreversible)
	case TargetRange:
		dev := value - t.Target
		if dev < 0 {
			dev = -dev
		}
		return mapAscending(dev, t.Ignorable, t.Pressuring, t.Irreversible)
	case Contextual:
		return Clamp01(value)
	default:
		return Clamp01(value)
	}
}

// mapAscending interpolates v across ascending band edges lo < mid < hi,
// mapping [lo..mid] onto [0..0.3] and [mid..hi] onto [0.3..1].
func mapAscending(v, lo, mid, hi float64) float64 {
	switch {
	case v <= lo:
		return 0
	case v >= hi:
		return 1
	case v <= mid:
		if mid == lo {
			return pressuringBoundary
		}
		return pressuringBoundary * (v - lo) / (mid - lo)
	default:
		if hi == mid {
			return 1
		}
		return pressuringBoundary + (1-pressuringBoundary)*(v-mid)/(hi-mid)
	}
}
