package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPressureLowerBetter(t *testing.T) {
	th := Thresholds{Ignorable: 10, Pressuring: 20, Irreversible: 40}

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"below ignorable rounds to zero", 5, 0},
		{"at ignorable edge", 10, 0},
		{"pressuring edge maps to 0.3 exactly", 20, 0.3},
		{"midway in first segment", 15, 0.15},
		{"midway in second segment", 30, 0.65},
		{"at irreversible edge", 40, 1},
		{"beyond irreversible clamps to one", 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MapPressure(LowerBetter, th, tt.value), 1e-12)
		})
	}
}

func TestMapPressureHigherBetter(t *testing.T) {
	th := Thresholds{Ignorable: 10000, Pressuring: 5000, Irreversible: 1000}

	assert.Equal(t, 0.0, MapPressure(HigherBetter, th, 15000))
	assert.Equal(t, 0.0, MapPressure(HigherBetter, th, 10000))
	assert.InDelta(t, 0.3, MapPressure(HigherBetter, th, 5000), 1e-12)
	assert.InDelta(t, 0.65, MapPressure(HigherBetter, th, 3000), 1e-12)
	assert.Equal(t, 1.0, MapPressure(HigherBetter, th, 1000))
	assert.Equal(t, 1.0, MapPressure(HigherBetter, th, 0))
}

func TestMapPressureTargetRange(t *testing.T) {
	// Bands are absolute deviations from the target.
	th := Thresholds{Ignorable: 0.5, Pressuring: 1.5, Irreversible: 3, Target: 8}

	assert.Equal(t, 0.0, MapPressure(TargetRange, th, 8))
	assert.Equal(t, 0.0, MapPressure(TargetRange, th, 8.4))
	assert.InDelta(t, 0.15, MapPressure(TargetRange, th, 7), 1e-12)
	assert.InDelta(t, 0.3, MapPressure(TargetRange, th, 6.5), 1e-12)
	assert.InDelta(t, 0.3, MapPressure(TargetRange, th, 9.5), 1e-12)
	assert.Equal(t, 1.0, MapPressure(TargetRange, th, 5))
	assert.Equal(t, 1.0, MapPressure(TargetRange, th, 12))
}

func TestMapPressureContextual(t *testing.T) {
	// Contextual values pass through, clamped.
	assert.Equal(t, 0.42, MapPressure(Contextual, Thresholds{}, 0.42))
	assert.Equal(t, 0.0, MapPressure(Contextual, Thresholds{}, -3))
	assert.Equal(t, 1.0, MapPressure(Contextual, Thresholds{}, 17))
}

func TestClassifyPressure(t *testing.T) {
	assert.Equal(t, StateIgnorable, ClassifyPressure(0))
	assert.Equal(t, StateIgnorable, ClassifyPressure(0.299))
	assert.Equal(t, StatePressuring, ClassifyPressure(0.3))
	assert.Equal(t, StatePressuring, ClassifyPressure(0.699))
	assert.Equal(t, StateIrreversible, ClassifyPressure(0.7))
	assert.Equal(t, StateIrreversible, ClassifyPressure(1))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.1))
	assert.Equal(t, 0.5, Clamp01(0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.0, Clamp01(nan()))
}

func nan() float64 {
	z := 0.0
	return z / z
}
