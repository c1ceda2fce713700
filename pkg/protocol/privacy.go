package protocol

import (
	"encoding/hex"
	"regexp"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/orneryd/skuld/pkg/graph"
)

// Privacy bounds. Aggregates outside these ranges indicate a raw magnitude
// (currency amounts, timestamps, counters) leaking into a field that must
// only ever hold normalized statistics.
const (
	maxDaysIdle    = 365
	maxPhaseShifts = 48 // two per hour over a 24h window is already absurd
)

var (
	hashedDeviceIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
	emailPattern          = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	phonePattern          = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
)

// HashDeviceID derives the opaque wire identifier for a device. The hash is
// one-way; the raw identifier never appears in any packet.
//
// Example:
//
//	protocol.HashDeviceID("3f2c9d1e-...") // 64-char lowercase hex
func HashDeviceID(raw string) string {
	sum := blake2b.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ValidateUpstreamPrivacy reports whether an upstream packet honors the
// privacy contract: an opaque hashed device id, a date-granular timestamp,
// and only normalized aggregate statistics. It returns false if any
// forbidden field pattern is detected.
//
// The orchestrator must call this before every send; a packet that fails
// must be sanitized, and refused if sanitization cannot fix it.
func ValidateUpstreamPrivacy(p *UpstreamPacket) bool {
	if p == nil {
		return false
	}
	if !hashedDeviceIDPattern.MatchString(p.DeviceID) {
		return false
	}
	if looksLikePII(string(p.Cohort)) {
		return false
	}

	// Date granularity only: no time-of-day may leave the device.
	ts := p.Timestamp.UTC()
	if ts.Hour() != 0 || ts.Minute() != 0 || ts.Second() != 0 || ts.Nanosecond() != 0 {
		return false
	}

	for _, ns := range p.NodeStats {
		if looksLikePII(string(ns.NodeID)) {
			return false
		}
		if !in01(ns.AvgPressure) || !in01(ns.MinPressure) || !in01(ns.MaxPressure) {
			return false
		}
		if ns.DaysIdle < 0 || ns.DaysIdle > maxDaysIdle {
			return false
		}
		if ns.PhaseShifts < 0 || ns.PhaseShifts > maxPhaseShifts {
			return false
		}
	}

	for _, ec := range p.EdgeCorrelations {
		if ec.ObservedStrength < -1 || ec.ObservedStrength > 1 {
			return false
		}
		if ec.Samples < 0 {
			return false
		}
	}

	for circuit, count := range p.CircuitActivations {
		if looksLikePII(circuit) || count < 0 {
			return false
		}
	}

	return in01(p.SystemStability)
}

// SanitizeUpstream returns a sanitized copy of the packet: the device id is
// hashed if it is not already hash-shaped, the timestamp is truncated to its
// UTC date, and every aggregate is clamped into its allowed range. Fields
// that cannot be repaired (a PII-shaped cohort tag) are reset to neutral
// values.
//
// The input packet is not modified.
func SanitizeUpstream(p *UpstreamPacket) *UpstreamPacket {
	if p == nil {
		return nil
	}
	out := *p

	if !hashedDeviceIDPattern.MatchString(out.DeviceID) {
		out.DeviceID = HashDeviceID(out.DeviceID)
	}
	if looksLikePII(string(out.Cohort)) {
		out.Cohort = CohortUnknown
	}

	ts := out.Timestamp.UTC()
	out.Timestamp = ts.Truncate(24 * time.Hour)

	out.NodeStats = make([]NodeStats, 0, len(p.NodeStats))
	for _, ns := range p.NodeStats {
		if looksLikePII(string(ns.NodeID)) {
			continue // stripped: an id carrying PII cannot be repaired
		}
		ns.AvgPressure = graph.Clamp01(ns.AvgPressure)
		ns.MinPressure = graph.Clamp01(ns.MinPressure)
		ns.MaxPressure = graph.Clamp01(ns.MaxPressure)
		ns.DaysIdle = graph.Clamp(ns.DaysIdle, 0, maxDaysIdle)
		if ns.PhaseShifts < 0 {
			ns.PhaseShifts = 0
		}
		if ns.PhaseShifts > maxPhaseShifts {
			ns.PhaseShifts = maxPhaseShifts
		}
		out.NodeStats = append(out.NodeStats, ns)
	}

	out.EdgeCorrelations = make([]EdgeCorrelation, 0, len(p.EdgeCorrelations))
	for _, ec := range p.EdgeCorrelations {
		ec.ObservedStrength = graph.Clamp(ec.ObservedStrength, -1, 1)
		if ec.Samples < 0 {
			ec.Samples = 0
		}
		out.EdgeCorrelations = append(out.EdgeCorrelations, ec)
	}

	out.CircuitActivations = make(map[string]int, len(p.CircuitActivations))
	for circuit, count := range p.CircuitActivations {
		if looksLikePII(circuit) {
			continue
		}
		if count < 0 {
			count = 0
		}
		out.CircuitActivations[circuit] = count
	}

	out.SystemStability = graph.Clamp01(out.SystemStability)
	return &out
}

func in01(v float64) bool {
	return v >= 0 && v <= 1
}

func looksLikePII(s string) bool {
	return emailPattern.MatchString(s) || phonePattern.MatchString(s)
}
