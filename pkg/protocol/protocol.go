// Package protocol defines the data-transfer types exchanged between local
// physics engines and the cloud calibration engine, plus the privacy
// validation pass every upstream packet must clear before leaving a device.
//
// Upstream packets carry anonymized 24h aggregates only: no raw indicator
// values, no per-action timestamps, no identity. Downstream packets carry
// recalibrated physics constants and early-warning rules. Both serialize to
// JSON with stable field names so an HTTP boundary (out of scope here) can
// expose them directly.
//
// Example Usage:
//
//	if !protocol.ValidateUpstreamPrivacy(pkt) {
//		pkt = protocol.SanitizeUpstream(pkt)
//		if !protocol.ValidateUpstreamPrivacy(pkt) {
//			return protocol.ErrPrivacyViolation
//		}
//	}
//	send(pkt)
package protocol

import (
	"errors"
	"math"
	"time"

	"github.com/orneryd/skuld/pkg/graph"
)

// ErrPrivacyViolation is returned when an upstream packet still fails
// privacy validation after sanitization. Such a packet must never be sent.
var ErrPrivacyViolation = errors.New("upstream packet violates privacy contract")

// Cohort is a coarse user-segment tag used to scope calibration. Cohorts are
// deliberately broad; a cohort small enough to identify a user would defeat
// anonymization.
type Cohort string

// Known cohorts.
const (
	CohortUnknown    Cohort = "unknown"
	CohortEarlyStage Cohort = "entrepreneur_early_stage"
	CohortGrowth     Cohort = "entrepreneur_growth"
	CohortSolo       Cohort = "solo_operator"
	CohortStudio     Cohort = "studio"
)

// NodeStats is one node's anonymized 24-sample aggregate inside an upstream
// packet. Pressures are normalized [0,1]; the raw indicator value never
// appears here.
type NodeStats struct {
	NodeID      graph.NodeID `json:"node_id"`
	AvgPressure float64      `json:"avg_pressure"`
	MinPressure float64      `json:"min_pressure"`
	MaxPressure float64      `json:"max_pressure"`
	PhaseShifts int          `json:"phase_shifts"`
	State       string       `json:"state"`
	DaysIdle    float64      `json:"days_idle"`
}

// EdgeCorrelation reports the observed co-movement of an edge's source and
// target pressures over the rolling history window.
type EdgeCorrelation struct {
	EdgeID           graph.EdgeID `json:"edge_id"`
	ObservedStrength float64      `json:"observed_strength"`
	Samples          int          `json:"samples"`
}

// UpstreamPacket is one device's anonymized snapshot sent to the cloud tier.
//
// DeviceID is a one-way hash; Timestamp is date-granular (UTC midnight) so
// no time-of-day information leaves the device.
type UpstreamPacket struct {
	DeviceID           string            `json:"device_id"`
	Timestamp          time.Time         `json:"timestamp"`
	Cohort             Cohort            `json:"cohort"`
	NodeStats          []NodeStats       `json:"node_stats"`
	EdgeCorrelations   []EdgeCorrelation `json:"edge_correlations"`
	CircuitActivations map[string]int    `json:"circuit_activations"`
	SystemStability    float64           `json:"system_stability"`
}

// DateKey returns the packet's UTC date in YYYY-MM-DD form. The cloud engine
// deduplicates on (device_id, DateKey): one packet per device per day counts.
func (p *UpstreamPacket) DateKey() string {
	return p.Timestamp.UTC().Format("2006-01-02")
}

// NodeConstants are the per-node physics constants the cloud tier derives.
// Mass is intentionally absent: inertia stays personal to the device.
type NodeConstants struct {
	Conductivity float64 `json:"conductivity"`
	Entropy      float64 `json:"entropy"`
}

// ConstantSet groups calibrated constants keyed by node and edge id.
type ConstantSet struct {
	Physics map[graph.NodeID]NodeConstants `json:"physics"`
	Edges   map[graph.EdgeID]float64       `json:"edges"`
}

// EarlyWarningPattern is one calibration rule: when Trigger holds against a
// device's node values, the named edge's weight is multiplied by BoostFactor
// for that apply pass. Triggers use the restricted language in pkg/rules.
type EarlyWarningPattern struct {
	Trigger     string       `json:"trigger"`
	BoostEdgeID graph.EdgeID `json:"boost_edge_id"`
	BoostFactor float64      `json:"boost_factor"`
	Description string       `json:"description"`
}

// EarlyWarning wraps the pattern list for the downstream JSON shape.
type EarlyWarning struct {
	Patterns []EarlyWarningPattern `json:"patterns"`
}

// DownstreamPacket carries calibrated constants from the cloud tier to one
// cohort's devices. Packets are derived, never hand-authored, and are
// regenerated fresh on every request.
type DownstreamPacket struct {
	Version         uint64                     `json:"version"`
	Timestamp       time.Time                  `json:"timestamp"`
	GlobalConstants ConstantSet                `json:"global_constants"`
	CohortConstants ConstantSet                `json:"cohort_constants"`
	ExternalEntropy map[graph.NodeID]float64   `json:"external_entropy"`
	EarlyWarning    EarlyWarning               `json:"early_warning"`
}

// CalibrationWeights blend global, cohort, and personal constants. The three
// weights must sum to 1.
type CalibrationWeights struct {
	Alpha float64 `json:"alpha"` // global share
	Beta  float64 `json:"beta"`  // cohort share
	Gamma float64 `json:"gamma"` // personal share
}

// DefaultCalibrationWeights favors personal observation over fleet averages.
var DefaultCalibrationWeights = CalibrationWeights{Alpha: 0.2, Beta: 0.3, Gamma: 0.5}

// Validate checks that the weights sum to 1 within floating tolerance and
// that none is negative.
func (w CalibrationWeights) Validate() error {
	if w.Alpha < 0 || w.Beta < 0 || w.Gamma < 0 {
		return errors.New("calibration weights must be non-negative")
	}
	if math.Abs(w.Alpha+w.Beta+w.Gamma-1) > 1e-9 {
		return errors.New("calibration weights must sum to 1")
	}
	return nil
}

// Blend returns the weighted average of a global, cohort, and personal
// constant. With valid weights and g == c == p, Blend returns that value
// unchanged (the blend is weight-preserving).
//
// Example:
//
//	w := protocol.CalibrationWeights{Alpha: 0.2, Beta: 0.3, Gamma: 0.5}
//	w.Blend(0.6, 0.6, 0.6) // 0.6
func (w CalibrationWeights) Blend(global, cohort, personal float64) float64 {
	return w.Alpha*global + w.Beta*cohort + w.Gamma*personal
}
