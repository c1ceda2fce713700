// Package physics implements the local pressure-diffusion engine that runs
// on each device.
//
// An Engine owns one device's live copy of the indicator graph and advances
// it one discrete step per ComputeCycle call, in fixed order: raw values map
// to pressure, untouched nodes decay by entropy, pressure diffuses along
// typed edges, inertia damps each node's delta, states reclassify, circuit
// counters update, and a rolling history window is appended for later
// upstream aggregation.
//
// The engine is single-owner and not safe for concurrent use; the caller
// (normally the orchestrator tick loop) serializes calls per device. Nothing
// here touches the network or the wall clock directly; time enters through
// an injectable Clock so cycles are deterministic under test.
//
// Example Usage:
//
//	engine := physics.NewEngine(catalog, "device-1", protocol.CohortEarlyStage, nil)
//	engine.UpdateValue("n01", 4200, 3)
//	engine.ComputeCycle()
//	if msg, ok := engine.GenerateOutput(); ok {
//		fmt.Println(msg)
//	}
package physics

import (
	"time"

	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/logging"
	"github.com/orneryd/skuld/pkg/protocol"
)

// Simulation constants. The 0.3 boundary is the same "healthy" line the
// state classification uses; 0.4 is the circuit activation threshold.
const (
	healthySourceBoundary = 0.3
	substitutionRelief    = 0.3
	bufferAbsorption      = 0.5
	circuitThreshold      = 0.4
)

// Clock supplies the current time for history bookkeeping and upstream
// timestamps. Production uses SystemClock; tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T. Useful for deterministic tests.
type FixedClock struct{ T time.Time }

// Now returns the fixed time.
func (c FixedClock) Now() time.Time { return c.T }

// Config holds engine tuning parameters.
type Config struct {
	// HistoryWindow is the rolling sample count kept per node for upstream
	// aggregation. Default: 24.
	HistoryWindow int

	// Weights blend global/cohort/personal constants when a downstream
	// packet is applied. Must sum to 1. Default: protocol.DefaultCalibrationWeights.
	Weights protocol.CalibrationWeights

	// Clock supplies time. Default: SystemClock.
	Clock Clock

	// Logger receives engine diagnostics. Default: logging.NoOp.
	Logger logging.Logger
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() *Config {
	return &Config{
		HistoryWindow: 24,
		Weights:       protocol.DefaultCalibrationWeights,
		Clock:         SystemClock{},
		Logger:        logging.NoOp{},
	}
}

// Sample is one history entry per node per compute cycle.
type Sample struct {
	Tick     uint64
	Pressure float64
	State    graph.NodeState
}

// Engine is one device's local physics engine.
//
// The engine exclusively owns its Node and Edge instances; they are never
// shared with other devices or with the cloud tier. Not safe for concurrent
// use: ComputeCycle must never run concurrently with itself on the same
// instance.
type Engine struct {
	deviceID string
	cohort   protocol.Cohort
	config   *Config

	nodes map[graph.NodeID]*graph.Node
	edges map[graph.EdgeID]*graph.Edge

	// circuitNodes maps a circuit name to its member nodes; circuits counts
	// activations (cycles where the circuit's mean pressure crossed the
	// activation threshold).
	circuitNodes map[string][]graph.NodeID
	circuits     map[string]int

	// history holds the rolling per-node sample window used to build
	// upstream packets. Raw values never enter it.
	history map[graph.NodeID][]Sample

	// overrides are learned personal constants, keyed "<id>.<constant>"
	// (e.g. "n01.conductivity"). Never reset for the life of the device.
	overrides map[string]float64

	tick uint64
}

// NewEngine instantiates a live engine from a catalog. If config is nil,
// DefaultConfig is used.
func NewEngine(catalog *graph.Catalog, deviceID string, cohort protocol.Cohort, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.HistoryWindow <= 0 {
		config.HistoryWindow = 24
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	if config.Logger == nil {
		config.Logger = logging.NoOp{}
	}
	if config.Weights.Validate() != nil {
		config.Weights = protocol.DefaultCalibrationWeights
	}

	nodes, edges := catalog.Instantiate()

	circuitNodes := make(map[string][]graph.NodeID)
	for id, n := range nodes {
		if n.Circuit != "" {
			circuitNodes[n.Circuit] = append(circuitNodes[n.Circuit], id)
		}
	}

	return &Engine{
		deviceID:     deviceID,
		cohort:       cohort,
		config:       config,
		nodes:        nodes,
		edges:        edges,
		circuitNodes: circuitNodes,
		circuits:     make(map[string]int),
		history:      make(map[graph.NodeID][]Sample),
		overrides:    make(map[string]float64),
	}
}

// DeviceID returns the raw device identifier. Only its one-way hash ever
// leaves the device.
func (e *Engine) DeviceID() string { return e.deviceID }

// Cohort returns the device's calibration cohort.
func (e *Engine) Cohort() protocol.Cohort { return e.cohort }

// Tick returns the number of compute cycles run so far.
func (e *Engine) Tick() uint64 { return e.tick }

// Node returns the live node for id. The returned node is owned by the
// engine; callers must not retain it across cycles.
func (e *Engine) Node(id graph.NodeID) (*graph.Node, bool) {
	n, ok := e.nodes[id]
	return n, ok
}

// Edge returns the live edge for id.
func (e *Engine) Edge(id graph.EdgeID) (*graph.Edge, bool) {
	eg, ok := e.edges[id]
	return eg, ok
}

// CircuitActivations returns a copy of the circuit activation counters.
func (e *Engine) CircuitActivations() map[string]int {
	out := make(map[string]int, len(e.circuits))
	for k, v := range e.circuits {
		out[k] = v
	}
	return out
}

// UpdateValue ingests one raw measurement. Unknown node ids are a silent
// no-op: partial or stale catalogs across app versions must degrade
// gracefully, not crash.
func (e *Engine) UpdateValue(id graph.NodeID, value, daysSinceAction float64) {
	n, ok := e.nodes[id]
	if !ok {
		e.config.Logger.Debug("ignoring value for unknown node", "node_id", id)
		return
	}
	v := value
	n.Value = &v
	if daysSinceAction < 0 {
		daysSinceAction = 0
	}
	n.DaysSinceAction = daysSinceAction
}

// UpdateAllValues ingests a batch of fresh measurements. Each entry resets
// the node's days-since-action to zero; unknown ids are skipped.
func (e *Engine) UpdateAllValues(values map[graph.NodeID]float64) {
	for id, v := range values {
		e.UpdateValue(id, v, 0)
	}
}

// LearnPersonalOverride folds an observed constant into the device's
// personal calibration via exponential moving average:
//
//	current = (1-rate)*current + rate*observed
//
// The first observation seeds the average. Overrides persist for the life
// of the device and are never reset. Keys take the form "<id>.<constant>",
// e.g. "n01.conductivity" or "e03.weight".
func (e *Engine) LearnPersonalOverride(key string, observed, rate float64) {
	rate = graph.Clamp01(rate)
	current, ok := e.overrides[key]
	if !ok {
		current = observed
	}
	e.overrides[key] = (1-rate)*current + rate*observed
}

// personalConstant returns the learned override for key, or fallback when
// nothing has been learned yet.
func (e *Engine) personalConstant(key string, fallback float64) float64 {
	if v, ok := e.overrides[key]; ok {
		return v
	}
	return fallback
}
