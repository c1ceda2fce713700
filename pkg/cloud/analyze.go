package cloud

import (
	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/protocol"
	"github.com/orneryd/skuld/pkg/storage"
)

// Calibration mapping from fleet statistics to physics constants. The
// anchors keep calibrated values inside the same band the catalog defaults
// live in, so a fleet outlier can shift a constant but never break it.
const (
	baseConductivity  = 0.5
	conductivityScale = 0.5

	baseEntropy  = 0.01
	entropyScale = 0.05

	minEdgeWeight = 0.3
	maxEdgeWeight = 1.0
)

// AnalyzeGlobalPatterns derives a constant set from the all-devices table.
//
// Per node:
//
//	conductivity = 0.5 + avgPressure * 0.5
//	entropy      = 0.01 + stdevPressure * 0.05
//
// Per edge:
//
//	weight = clamp(avgObservedStrength, 0.3, 1.0)
//
// Nodes under constant fleet-wide pressure conduct more (the fleet says the
// dependency is real), and nodes with volatile pressure decay faster toward
// needing attention.
func (e *Engine) AnalyzeGlobalPatterns() protocol.ConstantSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return analyze(e.global)
}

// AnalyzeCohortPatterns derives a constant set from one cohort's table. A
// cohort with no reports yields an empty set; devices then fall back to
// personal constants for the cohort share of the blend.
func (e *Engine) AnalyzeCohortPatterns(cohort protocol.Cohort) protocol.ConstantSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	table, ok := e.cohorts[cohort]
	if !ok {
		return emptyConstantSet()
	}
	return analyze(table)
}

func analyze(table *storage.AggregateTable) protocol.ConstantSet {
	set := protocol.ConstantSet{
		Physics: make(map[graph.NodeID]protocol.NodeConstants, len(table.Nodes)),
		Edges:   make(map[graph.EdgeID]float64, len(table.Edges)),
	}
	for id, agg := range table.Nodes {
		if agg.Pressure.Count == 0 {
			continue
		}
		set.Physics[id] = protocol.NodeConstants{
			Conductivity: baseConductivity + agg.Pressure.Mean()*conductivityScale,
			Entropy:      baseEntropy + agg.Pressure.StdDev()*entropyScale,
		}
	}
	for id, agg := range table.Edges {
		if agg.Strength.Count == 0 {
			continue
		}
		set.Edges[id] = graph.Clamp(agg.Strength.Mean(), minEdgeWeight, maxEdgeWeight)
	}
	return set
}
