package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrationWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultCalibrationWeights.Validate())
	assert.NoError(t, CalibrationWeights{Alpha: 1, Beta: 0, Gamma: 0}.Validate())

	assert.Error(t, CalibrationWeights{Alpha: 0.5, Beta: 0.5, Gamma: 0.5}.Validate())
	assert.Error(t, CalibrationWeights{Alpha: -0.2, Beta: 0.7, Gamma: 0.5}.Validate())
}

func TestBlendIdentity(t *testing.T) {
	// With valid weights and g == c == p, the blend must return the input
	// unchanged.
	w := CalibrationWeights{Alpha: 0.2, Beta: 0.3, Gamma: 0.5}
	for _, x := range []float64{0, 0.01, 0.5, 0.75, 1} {
		assert.InDelta(t, x, w.Blend(x, x, x), 1e-12)
	}
}

func TestBlendIsLinear(t *testing.T) {
	w := CalibrationWeights{Alpha: 0.2, Beta: 0.3, Gamma: 0.5}
	assert.InDelta(t, 0.2*1.0+0.3*0.5+0.5*0.2, w.Blend(1.0, 0.5, 0.2), 1e-12)
}

func TestDateKey(t *testing.T) {
	pkt := &UpstreamPacket{
		Timestamp: time.Date(2026, 8, 23, 22, 15, 0, 0, time.FixedZone("CEST", 2*3600)),
	}
	// 22:15 CEST is 20:15 UTC, still the 23rd.
	assert.Equal(t, "2026-08-23", pkt.DateKey())

	pkt.Timestamp = time.Date(2026, 8, 24, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "2026-08-23", pkt.DateKey(), "dedup key follows UTC, not local date")
}

func TestUpstreamPacketJSONFieldNames(t *testing.T) {
	pkt := &UpstreamPacket{
		DeviceID:  HashDeviceID("device-1"),
		Timestamp: time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC),
		Cohort:    CohortSolo,
		NodeStats: []NodeStats{{
			NodeID: "n01", AvgPressure: 0.4, MinPressure: 0.1, MaxPressure: 0.8,
			PhaseShifts: 2, State: "pressuring", DaysIdle: 3,
		}},
		EdgeCorrelations:   []EdgeCorrelation{{EdgeID: "e01", ObservedStrength: 0.6, Samples: 24}},
		CircuitActivations: map[string]int{"financial": 5},
		SystemStability:    0.7,
	}

	data, err := json.Marshal(pkt)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, field := range []string{
		"device_id", "timestamp", "cohort", "node_stats",
		"edge_correlations", "circuit_activations", "system_stability",
	} {
		assert.Contains(t, raw, field)
	}

	var round UpstreamPacket
	require.NoError(t, json.Unmarshal(data, &round))
	assert.Equal(t, pkt.NodeStats, round.NodeStats)
	assert.Equal(t, pkt.CircuitActivations, round.CircuitActivations)
}

func TestDownstreamPacketJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(&DownstreamPacket{Version: 3})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, field := range []string{
		"version", "timestamp", "global_constants", "cohort_constants",
		"external_entropy", "early_warning",
	} {
		assert.Contains(t, raw, field)
	}
}
