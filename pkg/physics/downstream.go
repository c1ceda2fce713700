package physics

import (
	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/protocol"
	"github.com/orneryd/skuld/pkg/rules"
)

// ApplyDownstream recalibrates the engine from a downstream packet.
//
// For every node and edge the engine knows, the effective constant is the
// weighted blend of the packet's global value, its cohort value, and the
// device's personal value:
//
//	effective = alpha*global + beta*cohort + gamma*personal
//
// where the personal value is a learned override if one exists, otherwise
// the constant's current value. A side missing from the packet contributes
// the personal value instead, so a sparse packet drifts nothing. Unknown
// node/edge ids in the packet are ignored, not errors.
//
// External-entropy deltas are applied additively, then each early-warning
// pattern's trigger is evaluated against the device's current raw values; a
// true trigger multiplies the named edge's weight by the pattern's boost
// factor. Boosts are cumulative across patterns within this one call.
// Malformed triggers evaluate as "not triggered".
func (e *Engine) ApplyDownstream(pkt *protocol.DownstreamPacket) {
	if pkt == nil {
		return
	}
	w := e.config.Weights

	for id, n := range e.nodes {
		key := string(id)

		pc := e.personalConstant(key+".conductivity", n.Physics.Conductivity)
		pe := e.personalConstant(key+".entropy", n.Physics.Entropy)

		gc, ge := pc, pe
		if g, ok := pkt.GlobalConstants.Physics[id]; ok {
			gc, ge = g.Conductivity, g.Entropy
		}
		cc, ce := pc, pe
		if c, ok := pkt.CohortConstants.Physics[id]; ok {
			cc, ce = c.Conductivity, c.Entropy
		}

		n.Physics.Conductivity = w.Blend(gc, cc, pc)
		n.Physics.Entropy = w.Blend(ge, ce, pe)
	}

	for id, edge := range e.edges {
		pw := e.personalConstant(string(id)+".weight", edge.Weight)
		gw, cw := pw, pw
		if g, ok := pkt.GlobalConstants.Edges[id]; ok {
			gw = g
		}
		if c, ok := pkt.CohortConstants.Edges[id]; ok {
			cw = c
		}
		edge.Weight = graph.Clamp01(w.Blend(gw, cw, pw))
	}

	// External entropy is additive; entropy never goes negative.
	for id, delta := range pkt.ExternalEntropy {
		n, ok := e.nodes[id]
		if !ok {
			continue
		}
		n.Physics.Entropy += delta
		if n.Physics.Entropy < 0 {
			n.Physics.Entropy = 0
		}
	}

	// Early-warning boosts against current raw values.
	values := make(map[string]float64, len(e.nodes))
	for id, n := range e.nodes {
		if n.Value != nil {
			values[string(id)] = *n.Value
		}
	}
	for _, pattern := range pkt.EarlyWarning.Patterns {
		if !rules.Evaluate(pattern.Trigger, values) {
			continue
		}
		edge, ok := e.edges[pattern.BoostEdgeID]
		if !ok {
			continue
		}
		edge.Weight = graph.Clamp01(edge.Weight * pattern.BoostFactor)
		e.config.Logger.Debug("early warning boost applied",
			"edge_id", pattern.BoostEdgeID,
			"factor", pattern.BoostFactor,
			"description", pattern.Description)
	}
}
