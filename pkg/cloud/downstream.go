package cloud

import (
	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/protocol"
)

// GenerateDownstreamPacket assembles a calibration packet for one cohort by
// re-running every analysis over the current tables. Generation is
// idempotent and mutates nothing: calling it twice with no intervening
// ReceiveUpstream or UpdateExternalFactors yields identical constants.
// Version tracks the external-factor state, so devices can skip re-applying
// a packet they have already seen.
func (e *Engine) GenerateDownstreamPacket(cohort protocol.Cohort) *protocol.DownstreamPacket {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pkt := &protocol.DownstreamPacket{
		Version:         e.factorsVersion,
		Timestamp:       e.now().UTC(),
		GlobalConstants: analyze(e.global),
		ExternalEntropy: e.externalEntropyLocked(),
		EarlyWarning:    protocol.EarlyWarning{Patterns: e.ExtractEarlyWarnings()},
	}

	if table, ok := e.cohorts[cohort]; ok {
		pkt.CohortConstants = analyze(table)
	} else {
		pkt.CohortConstants = emptyConstantSet()
	}

	return pkt
}

func emptyConstantSet() protocol.ConstantSet {
	return protocol.ConstantSet{
		Physics: map[graph.NodeID]protocol.NodeConstants{},
		Edges:   map[graph.EdgeID]float64{},
	}
}
