// Package graph defines the indicator graph that Skuld simulates.
//
// A graph is a fixed catalog of Nodes (measured indicators such as
// "cash on hand" or "hours slept") connected by typed, weighted Edges.
// Each node carries live simulation state: a normalized pressure in [0,1]
// derived from its raw value, the physics constants that govern how that
// pressure moves (conductivity, mass, entropy), and a classification state
// with boundaries at pressure 0.3 and 0.7.
//
// The catalog content (which indicators exist, their thresholds, their
// wiring) is loaded from a static YAML input via LoadCatalog. Skuld never
// defines indicators itself; it simulates whatever catalog it is handed.
//
// Design Principles:
//   - Strongly-typed IDs (NodeID, EdgeID) for API clarity
//   - Catalog is immutable after load; live state is cloned per device
//   - All pressure values are clamped to [0,1] at every boundary
//
// Example Usage:
//
//	catalog, err := graph.LoadCatalog("catalog.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	nodes, edges := catalog.Instantiate()
//	fmt.Printf("simulating %d indicators, %d relations\n", len(nodes), len(edges))
package graph

import (
	"errors"
	"math"
)

// Common errors
var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrEdgeNotFound   = errors.New("edge not found")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// NodeID is a strongly-typed unique identifier for indicator nodes.
type NodeID string

// EdgeID is a strongly-typed unique identifier for indicator relations.
type EdgeID string

// Direction describes how a node's raw value relates to pressure.
type Direction string

const (
	// HigherBetter means larger raw values are healthier (e.g. cash on hand).
	HigherBetter Direction = "higher_better"
	// LowerBetter means smaller raw values are healthier (e.g. overdue invoices).
	LowerBetter Direction = "lower_better"
	// TargetRange means values should stay near a target (e.g. hours slept).
	TargetRange Direction = "target_range"
	// Contextual means the raw value is already a normalized 0-1 stress level
	// computed outside the engine and is passed through unchanged.
	Contextual Direction = "contextual"
)

// EdgeType governs which diffusion formula an edge uses during a compute
// cycle. See the physics package for the formulas themselves.
type EdgeType string

const (
	// Dependency propagates pressure downstream when the source is more
	// stressed than the target.
	Dependency EdgeType = "dependency"
	// Buffer lets a low-pressure source partially absorb target pressure.
	Buffer EdgeType = "buffer"
	// Substitution relieves the target while the source stays healthy.
	Substitution EdgeType = "substitution"
	// Amplify models mutually reinforcing stress between two loaded nodes.
	Amplify EdgeType = "amplify"
)

// NodeState classifies a node by its current pressure.
//
// The classification is a pure function of pressure with fixed boundaries:
//
//	pressure <  0.3 => StateIgnorable
//	pressure <  0.7 => StatePressuring
//	pressure >= 0.7 => StateIrreversible
type NodeState int

const (
	// StateIgnorable is background noise; nothing is surfaced for it.
	StateIgnorable NodeState = iota
	// StatePressuring needs attention soon.
	StatePressuring
	// StateIrreversible marks damage that compounds if left alone.
	StateIrreversible
)

// String returns the human-readable name of the state.
func (s NodeState) String() string {
	switch s {
	case StateIgnorable:
		return "ignorable"
	case StatePressuring:
		return "pressuring"
	case StateIrreversible:
		return "irreversible"
	default:
		return "unknown"
	}
}

// State classification boundaries.
const (
	pressuringBoundary   = 0.3
	irreversibleBoundary = 0.7
)

// ClassifyPressure maps a pressure value to its NodeState.
//
// Example:
//
//	graph.ClassifyPressure(0.29) // StateIgnorable
//	graph.ClassifyPressure(0.3)  // StatePressuring
//	graph.ClassifyPressure(0.7)  // StateIrreversible
func ClassifyPressure(pressure float64) NodeState {
	switch {
	case pressure >= irreversibleBoundary:
		return StateIrreversible
	case pressure >= pressuringBoundary:
		return StatePressuring
	default:
		return StateIgnorable
	}
}

// Thresholds define the piecewise-linear mapping from a raw indicator value
// to normalized pressure. The three bands mean different raw values per
// Direction:
//
//   - LowerBetter: Ignorable < Pressuring < Irreversible (value climbing is bad)
//   - HigherBetter: Ignorable > Pressuring > Irreversible (value falling is bad)
//   - TargetRange: bands are absolute deviations from Target
//   - Contextual: thresholds unused, value passes through
type Thresholds struct {
	// Ignorable is the band edge at/beyond which pressure rounds to 0.
	Ignorable float64 `yaml:"ignorable" json:"ignorable"`
	// Pressuring is the band edge mapping to pressure 0.3 exactly.
	Pressuring float64 `yaml:"pressuring" json:"pressuring"`
	// Irreversible is the band edge at/beyond which pressure rounds to 1.
	Irreversible float64 `yaml:"irreversible" json:"irreversible"`
	// Target is the ideal raw value. Only used by TargetRange nodes,
	// where the other thresholds are deviations from it.
	Target float64 `yaml:"target,omitempty" json:"target,omitempty"`
}

// Physics holds the per-node constants the cloud tier recalibrates.
type Physics struct {
	// Conductivity controls how fast pressure propagates to neighbors.
	Conductivity float64 `yaml:"conductivity" json:"conductivity"`
	// Mass is inertia; a node's pressure delta is divided by it each cycle.
	Mass float64 `yaml:"mass" json:"mass"`
	// Entropy is the passive decay rate applied while a node sits untouched.
	Entropy float64 `yaml:"entropy" json:"entropy"`
}

// Node is one measured indicator plus its live simulation state.
//
// Catalog fields are set once at load time. Live fields are mutated every
// compute cycle and are owned exclusively by one local engine; nodes are
// never shared across devices.
type Node struct {
	// Catalog fields (immutable after load)
	ID         NodeID     `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	Direction  Direction  `yaml:"direction" json:"direction"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	// Message is the alert template formatted with the current raw value.
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
	// Circuit names the fixed cluster this node belongs to for
	// circuit-activation counting. Empty means no cluster.
	Circuit string `yaml:"circuit,omitempty" json:"circuit,omitempty"`

	// Live simulation state
	Physics Physics `yaml:"physics" json:"physics"`
	// Value is the current raw measurement; nil until first ingestion.
	Value             *float64  `yaml:"-" json:"value,omitempty"`
	Pressure          float64   `yaml:"-" json:"pressure"`
	State             NodeState `yaml:"-" json:"state"`
	DaysSinceAction   float64   `yaml:"-" json:"days_since_action"`
	PhaseTransitioned bool      `yaml:"-" json:"phase_transitioned"`
}

// Edge is a directed relation between two nodes. Weight is the principal
// value recalibrated by the cloud tier and always stays within [0,1].
type Edge struct {
	ID     EdgeID   `yaml:"id" json:"id"`
	Source NodeID   `yaml:"source" json:"source"`
	Target NodeID   `yaml:"target" json:"target"`
	Type   EdgeType `yaml:"type" json:"type"`
	Weight float64  `yaml:"weight" json:"weight"`
}

// Clamp01 clamps v to the [0,1] interval. NaN clamps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp clamps v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
