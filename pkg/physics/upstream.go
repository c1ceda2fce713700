package physics

import (
	"sort"
	"time"

	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/protocol"
	"github.com/orneryd/skuld/pkg/stats"
)

// GenerateUpstream builds the device's anonymized snapshot strictly from the
// rolling history window, never from raw per-tick values. The packet is
// computed on demand, not stored.
//
// The device id is hashed before it enters the packet and the timestamp is
// truncated to its UTC date; both are hard privacy requirements, not
// formatting choices.
func (e *Engine) GenerateUpstream() *protocol.UpstreamPacket {
	now := e.config.Clock.Now().UTC()

	pkt := &protocol.UpstreamPacket{
		DeviceID:           protocol.HashDeviceID(e.deviceID),
		Timestamp:          now.Truncate(24 * time.Hour),
		Cohort:             e.cohort,
		CircuitActivations: e.CircuitActivations(),
	}

	// Per-node aggregates over the history window.
	ids := make([]graph.NodeID, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var pressureSum float64
	for _, id := range ids {
		samples := e.history[id]
		if len(samples) == 0 {
			continue
		}
		pressures := make([]float64, len(samples))
		shifts := 0
		for i, s := range samples {
			pressures[i] = s.Pressure
			if i > 0 && s.State != samples[i-1].State {
				shifts++
			}
		}

		n := e.nodes[id]
		avg := stats.Mean(pressures)
		pressureSum += avg
		pkt.NodeStats = append(pkt.NodeStats, protocol.NodeStats{
			NodeID:      id,
			AvgPressure: avg,
			MinPressure: stats.Min(pressures),
			MaxPressure: stats.Max(pressures),
			PhaseShifts: shifts,
			State:       n.State.String(),
			DaysIdle:    n.DaysSinceAction,
		})
	}

	// Per-edge observed correlation of source/target pressure histories.
	edgeIDs := make([]graph.EdgeID, 0, len(e.edges))
	for id := range e.edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Slice(edgeIDs, func(i, j int) bool { return edgeIDs[i] < edgeIDs[j] })

	for _, id := range edgeIDs {
		edge := e.edges[id]
		src := e.history[edge.Source]
		tgt := e.history[edge.Target]
		n := len(src)
		if len(tgt) < n {
			n = len(tgt)
		}
		if n < 2 {
			continue
		}
		xs := make([]float64, n)
		ys := make([]float64, n)
		for i := 0; i < n; i++ {
			xs[i] = src[len(src)-n+i].Pressure
			ys[i] = tgt[len(tgt)-n+i].Pressure
		}
		pkt.EdgeCorrelations = append(pkt.EdgeCorrelations, protocol.EdgeCorrelation{
			EdgeID:           id,
			ObservedStrength: stats.Correlation(xs, ys),
			Samples:          n,
		})
	}

	if len(pkt.NodeStats) > 0 {
		pkt.SystemStability = graph.Clamp01(1 - pressureSum/float64(len(pkt.NodeStats)))
	} else {
		pkt.SystemStability = 1
	}

	return pkt
}
