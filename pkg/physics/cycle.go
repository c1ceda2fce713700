package physics

import (
	"math"

	"github.com/orneryd/skuld/pkg/graph"
)

// ComputeCycle advances the simulation one discrete step.
//
// The step order is fixed and load-bearing:
//
//  1. Raw values map to pressure (piecewise linear, direction-aware).
//  2. Idle nodes decay: pressure += entropy * daysSinceAction.
//  3. Pressure diffuses along edges. All flows are computed against a
//     snapshot of pre-diffusion pressures, then applied together.
//  4. Each node's accumulated delta is divided by its mass (inertia).
//  5. Pressures clamp to [0,1]; states reclassify; the phase-transitioned
//     flag latches the first time a node reaches Irreversible.
//  6. Circuit counters increment where a cluster's mean pressure exceeds
//     the activation threshold.
//  7. A history sample is appended per node (window of HistoryWindow, the
//     oldest dropped).
//
// ComputeCycle is a pure state transition: no I/O, no wall clock, not
// reentrant.
func (e *Engine) ComputeCycle() {
	e.tick++

	// 1. Value -> pressure. Nodes without a value keep their pressure.
	for _, n := range e.nodes {
		if n.Value != nil {
			n.Pressure = graph.MapPressure(n.Direction, n.Thresholds, *n.Value)
		}
	}

	// 2. Entropy decay for idle nodes.
	for _, n := range e.nodes {
		if n.Physics.Entropy > 0 && n.DaysSinceAction > 0 {
			n.Pressure = graph.Clamp01(n.Pressure + n.Physics.Entropy*n.DaysSinceAction)
		}
	}

	// 3. Diffusion over a pressure snapshot.
	deltas := e.diffuse()

	// 4+5. Inertia, apply, clamp, reclassify.
	for id, delta := range deltas {
		n := e.nodes[id]
		mass := n.Physics.Mass
		if mass <= 0 {
			mass = 1
		}
		n.Pressure = graph.Clamp01(n.Pressure + delta/mass)
	}
	for _, n := range e.nodes {
		n.State = graph.ClassifyPressure(n.Pressure)
		if n.State == graph.StateIrreversible {
			n.PhaseTransitioned = true // sticky, never cleared
		}
	}

	// 6. Circuit activation counters.
	for circuit, members := range e.circuitNodes {
		sum := 0.0
		for _, id := range members {
			sum += e.nodes[id].Pressure
		}
		if sum/float64(len(members)) > circuitThreshold {
			e.circuits[circuit]++
		}
	}

	// 7. Rolling history.
	for id, n := range e.nodes {
		h := append(e.history[id], Sample{Tick: e.tick, Pressure: n.Pressure, State: n.State})
		if len(h) > e.config.HistoryWindow {
			h = h[len(h)-e.config.HistoryWindow:]
		}
		e.history[id] = h
	}
}

// diffuse computes per-node pressure deltas from every edge, reading only
// the pre-diffusion snapshot so edge evaluation order cannot matter.
func (e *Engine) diffuse() map[graph.NodeID]float64 {
	deltas := make(map[graph.NodeID]float64)

	for _, edge := range e.edges {
		src, ok := e.nodes[edge.Source]
		if !ok {
			continue
		}
		tgt, ok := e.nodes[edge.Target]
		if !ok {
			continue
		}

		ps := src.Pressure
		pt := tgt.Pressure
		k := src.Physics.Conductivity
		w := edge.Weight

		switch edge.Type {
		case graph.Dependency:
			// Pressure flows downstream only, never backward.
			if flow := k * w * (ps - pt); flow > 0 {
				deltas[edge.Target] += flow
			}
		case graph.Buffer:
			// A low-pressure source absorbs part of the target's load.
			deltas[edge.Target] -= k * w * math.Min(pt, 1-ps) * bufferAbsorption
		case graph.Substitution:
			// Relief only while the source stays healthy.
			if ps < healthySourceBoundary {
				deltas[edge.Target] -= k * w * pt * substitutionRelief
			}
		case graph.Amplify:
			// Mutually reinforcing stress once both sides are loaded.
			if ps > healthySourceBoundary && pt > healthySourceBoundary {
				gain := k * w * ps * pt
				deltas[edge.Target] += gain
				deltas[edge.Source] += gain * 0.5
			}
		}
	}

	return deltas
}
