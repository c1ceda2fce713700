package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/protocol"
)

func downstreamTestEngine(t *testing.T) *Engine {
	t.Helper()
	catalog := &graph.Catalog{
		Nodes: []graph.Node{
			contextualNode("n01", 0.5, 1, 0.02),
			contextualNode("n02", 0.5, 1, 0.02),
		},
		Edges: []graph.Edge{
			{ID: "e01", Source: "n01", Target: "n02", Type: graph.Dependency, Weight: 0.6},
		},
	}
	require.NoError(t, catalog.Validate())
	return NewEngine(catalog, "device-1", protocol.CohortSolo, nil)
}

func TestApplyDownstreamIdentityBlend(t *testing.T) {
	engine := downstreamTestEngine(t)

	// Global and cohort echo the device's own constants; the blend must be
	// a fixed point.
	pkt := &protocol.DownstreamPacket{
		GlobalConstants: protocol.ConstantSet{
			Physics: map[graph.NodeID]protocol.NodeConstants{
				"n01": {Conductivity: 0.5, Entropy: 0.02},
			},
			Edges: map[graph.EdgeID]float64{"e01": 0.6},
		},
		CohortConstants: protocol.ConstantSet{
			Physics: map[graph.NodeID]protocol.NodeConstants{
				"n01": {Conductivity: 0.5, Entropy: 0.02},
			},
			Edges: map[graph.EdgeID]float64{"e01": 0.6},
		},
	}
	engine.ApplyDownstream(pkt)

	n, _ := engine.Node("n01")
	assert.InDelta(t, 0.5, n.Physics.Conductivity, 1e-12)
	assert.InDelta(t, 0.02, n.Physics.Entropy, 1e-12)
	e, _ := engine.Edge("e01")
	assert.InDelta(t, 0.6, e.Weight, 1e-12)
}

func TestApplyDownstreamBlendsThreeWays(t *testing.T) {
	engine := downstreamTestEngine(t)

	pkt := &protocol.DownstreamPacket{
		GlobalConstants: protocol.ConstantSet{
			Physics: map[graph.NodeID]protocol.NodeConstants{
				"n01": {Conductivity: 1.0, Entropy: 0.1},
			},
			Edges: map[graph.EdgeID]float64{"e01": 1.0},
		},
		CohortConstants: protocol.ConstantSet{
			Physics: map[graph.NodeID]protocol.NodeConstants{
				"n01": {Conductivity: 0.0, Entropy: 0.0},
			},
			Edges: map[graph.EdgeID]float64{"e01": 0.0},
		},
	}
	engine.ApplyDownstream(pkt)

	n, _ := engine.Node("n01")
	// 0.2*1.0 + 0.3*0.0 + 0.5*0.5 (personal = current constant)
	assert.InDelta(t, 0.45, n.Physics.Conductivity, 1e-12)
	// 0.2*0.1 + 0.3*0.0 + 0.5*0.02
	assert.InDelta(t, 0.03, n.Physics.Entropy, 1e-12)

	e, _ := engine.Edge("e01")
	// 0.2*1.0 + 0.3*0.0 + 0.5*0.6
	assert.InDelta(t, 0.5, e.Weight, 1e-12)
}

func TestApplyDownstreamSparsePacketDriftsNothing(t *testing.T) {
	engine := downstreamTestEngine(t)

	engine.ApplyDownstream(&protocol.DownstreamPacket{})

	n, _ := engine.Node("n01")
	assert.InDelta(t, 0.5, n.Physics.Conductivity, 1e-12)
	assert.InDelta(t, 0.02, n.Physics.Entropy, 1e-12)
	e, _ := engine.Edge("e01")
	assert.InDelta(t, 0.6, e.Weight, 1e-12)
}

func TestApplyDownstreamPrefersLearnedOverrides(t *testing.T) {
	engine := downstreamTestEngine(t)
	engine.LearnPersonalOverride("n01.conductivity", 0.9, 1)

	engine.ApplyDownstream(&protocol.DownstreamPacket{})

	n, _ := engine.Node("n01")
	// Global and cohort both fall back to the personal 0.9.
	assert.InDelta(t, 0.9, n.Physics.Conductivity, 1e-12)
}

func TestApplyDownstreamExternalEntropy(t *testing.T) {
	engine := downstreamTestEngine(t)

	engine.ApplyDownstream(&protocol.DownstreamPacket{
		ExternalEntropy: map[graph.NodeID]float64{
			"n01": 0.005,
			"n99": 0.5, // unknown ids are skipped
		},
	})

	n, _ := engine.Node("n01")
	assert.InDelta(t, 0.025, n.Physics.Entropy, 1e-12)

	t.Run("entropy never goes negative", func(t *testing.T) {
		engine.ApplyDownstream(&protocol.DownstreamPacket{
			ExternalEntropy: map[graph.NodeID]float64{"n01": -5},
		})
		assert.Equal(t, 0.0, n.Physics.Entropy)
	})
}

func TestApplyDownstreamEarlyWarningBoost(t *testing.T) {
	engine := downstreamTestEngine(t)
	engine.UpdateValue("n01", 0.9, 0)

	pkt := &protocol.DownstreamPacket{
		EarlyWarning: protocol.EarlyWarning{Patterns: []protocol.EarlyWarningPattern{
			{Trigger: "n01 > 0.5", BoostEdgeID: "e01", BoostFactor: 1.5},
			{Trigger: "n01 > 5.0", BoostEdgeID: "e01", BoostFactor: 2.0}, // not triggered
			{Trigger: "n01 >>> oops", BoostEdgeID: "e01", BoostFactor: 3.0}, // malformed, inert
		}},
	}
	engine.ApplyDownstream(pkt)

	e, _ := engine.Edge("e01")
	assert.InDelta(t, 0.9, e.Weight, 1e-12) // 0.6 * 1.5

	t.Run("boosted weight clamps at one", func(t *testing.T) {
		engine.ApplyDownstream(pkt)
		assert.Equal(t, 1.0, e.Weight) // 0.9 * 1.5 clamped
	})
}
