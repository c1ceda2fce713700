package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPacket() *UpstreamPacket {
	return &UpstreamPacket{
		DeviceID:  HashDeviceID("device-1"),
		Timestamp: time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC),
		Cohort:    CohortSolo,
		NodeStats: []NodeStats{{
			NodeID: "n01", AvgPressure: 0.4, MinPressure: 0.1, MaxPressure: 0.8,
			PhaseShifts: 2, State: "pressuring", DaysIdle: 3,
		}},
		EdgeCorrelations:   []EdgeCorrelation{{EdgeID: "e01", ObservedStrength: -0.2, Samples: 24}},
		CircuitActivations: map[string]int{"financial": 5},
		SystemStability:    0.7,
	}
}

func TestHashDeviceID(t *testing.T) {
	h := HashDeviceID("device-1")
	assert.Regexp(t, "^[0-9a-f]{64}$", h)
	assert.Equal(t, h, HashDeviceID("device-1"), "hashing is deterministic")
	assert.NotEqual(t, h, HashDeviceID("device-2"))
}

func TestValidateUpstreamPrivacy(t *testing.T) {
	assert.True(t, ValidateUpstreamPrivacy(validPacket()))
	assert.False(t, ValidateUpstreamPrivacy(nil))

	tests := []struct {
		name   string
		mutate func(p *UpstreamPacket)
	}{
		{"raw device id", func(p *UpstreamPacket) { p.DeviceID = "device-1" }},
		{"time of day leaks", func(p *UpstreamPacket) {
			p.Timestamp = time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)
		}},
		{"email in cohort", func(p *UpstreamPacket) { p.Cohort = "alice@example.com" }},
		{"phone-shaped node id", func(p *UpstreamPacket) { p.NodeStats[0].NodeID = "+1 415 555 0100" }},
		{"raw magnitude in avg pressure", func(p *UpstreamPacket) { p.NodeStats[0].AvgPressure = 4200 }},
		{"negative min pressure", func(p *UpstreamPacket) { p.NodeStats[0].MinPressure = -0.1 }},
		{"days idle beyond bound", func(p *UpstreamPacket) { p.NodeStats[0].DaysIdle = 1000 }},
		{"phase shifts beyond bound", func(p *UpstreamPacket) { p.NodeStats[0].PhaseShifts = 100 }},
		{"correlation outside range", func(p *UpstreamPacket) { p.EdgeCorrelations[0].ObservedStrength = 2 }},
		{"negative circuit counter", func(p *UpstreamPacket) { p.CircuitActivations["financial"] = -1 }},
		{"stability outside range", func(p *UpstreamPacket) { p.SystemStability = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPacket()
			tt.mutate(p)
			assert.False(t, ValidateUpstreamPrivacy(p))
		})
	}
}

func TestSanitizeUpstream(t *testing.T) {
	p := validPacket()
	p.DeviceID = "device-1"
	p.Timestamp = time.Date(2026, 8, 23, 14, 30, 12, 999, time.UTC)
	p.Cohort = "alice@example.com"
	p.NodeStats[0].AvgPressure = 4200
	p.NodeStats[0].DaysIdle = 1000
	p.NodeStats = append(p.NodeStats, NodeStats{NodeID: "bob@example.com", AvgPressure: 0.5})
	p.EdgeCorrelations[0].ObservedStrength = 2
	p.CircuitActivations["financial"] = -1
	p.SystemStability = 1.5

	out := SanitizeUpstream(p)
	require.NotNil(t, out)
	assert.True(t, ValidateUpstreamPrivacy(out), "sanitized packet must validate")

	assert.Equal(t, HashDeviceID("device-1"), out.DeviceID)
	assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), out.Timestamp)
	assert.Equal(t, CohortUnknown, out.Cohort)
	assert.Equal(t, 1.0, out.NodeStats[0].AvgPressure)
	assert.Equal(t, 365.0, out.NodeStats[0].DaysIdle)
	assert.Len(t, out.NodeStats, 1, "PII-shaped node ids are stripped, not repaired")
	assert.Equal(t, 1.0, out.EdgeCorrelations[0].ObservedStrength)
	assert.Equal(t, 0, out.CircuitActivations["financial"])
	assert.Equal(t, 1.0, out.SystemStability)

	// The input packet is untouched.
	assert.Equal(t, "device-1", p.DeviceID)
	assert.Equal(t, 4200.0, p.NodeStats[0].AvgPressure)
}

func TestSanitizeAlreadyCleanPacketIsStable(t *testing.T) {
	p := validPacket()
	out := SanitizeUpstream(p)
	assert.Equal(t, p.DeviceID, out.DeviceID)
	assert.Equal(t, p.NodeStats, out.NodeStats)
	assert.Equal(t, p.CircuitActivations, out.CircuitActivations)
}
