// Package cloud implements the calibration engine that aggregates anonymized
// upstream packets from many devices and derives recalibrated physics
// constants for each cohort.
//
// The engine is a single long-lived service instance, constructed once and
// injected wherever it is needed (never a package global, so tests can run
// independent instances). It accepts concurrent ReceiveUpstream calls: the
// aggregation tables, dedup set, and external-factor state are guarded by a
// single RWMutex, with downstream generation reading under the shared lock
// so it never blocks ingestion for long.
//
// Aggregation is streaming: one Welford accumulator per (node, scope) and
// per (edge, scope), so memory stays bounded regardless of fleet size. With
// a Store configured, the engine persists its tables after every accepted
// packet and restores them at construction, making recalibration idempotent
// across restarts.
//
// Example Usage:
//
//	engine := cloud.NewEngine(cloud.Options{Store: store, Logger: logger})
//	if engine.ReceiveUpstream(pkt) {
//		logger.Info("packet folded", "cohort", pkt.Cohort)
//	}
//	down := engine.GenerateDownstreamPacket(protocol.CohortEarlyStage)
package cloud

import (
	"sync"
	"time"

	"github.com/orneryd/skuld/pkg/logging"
	"github.com/orneryd/skuld/pkg/protocol"
	"github.com/orneryd/skuld/pkg/storage"
)

// Options configures a calibration engine.
type Options struct {
	// Store persists aggregation state across restarts. Optional; without
	// it the engine is purely in-memory.
	Store storage.Store

	// Logger receives engine diagnostics. Default: logging.NoOp.
	Logger logging.Logger

	// Now supplies timestamps for downstream packets and snapshots.
	// Default: time.Now.
	Now func() time.Time
}

// Engine is the cloud calibration engine.
//
// It owns only aggregation tables built from already-anonymized upstream
// summaries; it never sees a device's raw per-tick state.
type Engine struct {
	mu sync.RWMutex

	global  *storage.AggregateTable
	cohorts map[protocol.Cohort]*storage.AggregateTable

	// seen holds (device hash | date) dedup keys for this process; the
	// store is consulted on miss so restarts do not re-count packets.
	seen map[string]struct{}

	// factors is the engine-wide macro-economic state, versioned so
	// downstream readers always see a consistent snapshot.
	factors        map[string]float64
	factorsVersion uint64

	store  storage.Store
	logger logging.Logger
	now    func() time.Time
}

// NewEngine constructs a calibration engine, restoring persisted aggregation
// state from the store if one is configured and a snapshot exists.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		global:  storage.NewAggregateTable(),
		cohorts: make(map[protocol.Cohort]*storage.AggregateTable),
		seen:    make(map[string]struct{}),
		factors: make(map[string]float64),
		store:   opts.Store,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if e.logger == nil {
		e.logger = logging.NoOp{}
	}
	if e.now == nil {
		e.now = time.Now
	}

	if e.store != nil {
		snap, err := e.store.LoadSnapshot()
		switch {
		case err == nil:
			e.restore(snap)
			e.logger.Info("restored aggregation snapshot",
				"saved_at", snap.SavedAt, "cohorts", len(snap.Cohorts))
		case err == storage.ErrNotFound:
			// Fresh deployment; nothing to restore.
		default:
			e.logger.Warn("could not restore aggregation snapshot", "error", err)
		}
	}

	return e
}

func (e *Engine) restore(snap *storage.Snapshot) {
	if snap.Global != nil {
		e.global = snap.Global
	}
	if snap.Cohorts != nil {
		e.cohorts = snap.Cohorts
	}
	if snap.ExternalFactors != nil {
		e.factors = snap.ExternalFactors
	}
	e.factorsVersion = snap.FactorsVersion
}

// ReceiveUpstream folds one device's packet into the global and cohort
// aggregation tables. It returns false, without error, when the packet is a
// duplicate: only one packet per device per day is counted. Persistence
// failures are logged and do not reject the packet (best-effort periodic
// sync, not transactional correctness).
func (e *Engine) ReceiveUpstream(pkt *protocol.UpstreamPacket) bool {
	if pkt == nil {
		return false
	}
	key := pkt.DeviceID + "|" + pkt.DateKey()

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, dup := e.seen[key]; dup {
		return false
	}
	if e.store != nil {
		if dup, err := e.store.Seen(key); err != nil {
			e.logger.Warn("dedup lookup failed", "error", err)
		} else if dup {
			e.seen[key] = struct{}{}
			return false
		}
	}
	e.seen[key] = struct{}{}

	fold(e.global, pkt)
	cohort := pkt.Cohort
	if cohort == "" {
		cohort = protocol.CohortUnknown
	}
	table, ok := e.cohorts[cohort]
	if !ok {
		table = storage.NewAggregateTable()
		e.cohorts[cohort] = table
	}
	fold(table, pkt)

	if e.store != nil {
		if err := e.store.MarkSeen(key); err != nil {
			e.logger.Warn("dedup persist failed", "error", err)
		}
		if err := e.store.SaveSnapshot(e.snapshotLocked()); err != nil {
			e.logger.Warn("snapshot persist failed", "error", err)
		}
	}

	return true
}

// fold adds one packet's aggregates into a table.
func fold(table *storage.AggregateTable, pkt *protocol.UpstreamPacket) {
	for _, ns := range pkt.NodeStats {
		agg, ok := table.Nodes[ns.NodeID]
		if !ok {
			agg = &storage.NodeAggregate{}
			table.Nodes[ns.NodeID] = agg
		}
		agg.Pressure.Add(ns.AvgPressure)
	}
	for _, ec := range pkt.EdgeCorrelations {
		agg, ok := table.Edges[ec.EdgeID]
		if !ok {
			agg = &storage.EdgeAggregate{}
			table.Edges[ec.EdgeID] = agg
		}
		agg.Strength.Add(ec.ObservedStrength)
	}
}

// UpdateExternalFactors merges new macro-economic values into the engine's
// versioned factor state. Readers (downstream generation) always see either
// the old or the new snapshot, never a mix.
func (e *Engine) UpdateExternalFactors(values map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range values {
		e.factors[k] = v
	}
	e.factorsVersion++
}

// ExternalFactors returns a copy of the current factor state and its version.
func (e *Engine) ExternalFactors() (map[string]float64, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]float64, len(e.factors))
	for k, v := range e.factors {
		out[k] = v
	}
	return out, e.factorsVersion
}

// Persist writes the current aggregation snapshot to the store, if any.
func (e *Engine) Persist() error {
	if e.store == nil {
		return nil
	}
	e.mu.RLock()
	snap := e.snapshotLocked()
	e.mu.RUnlock()
	return e.store.SaveSnapshot(snap)
}

// snapshotLocked builds a detached deep copy of the engine's persistable
// state; callers must hold at least a read lock. The copy shares nothing
// with the live tables, so the store is free to marshal it after the lock
// is released while ingestion keeps mutating the originals.
func (e *Engine) snapshotLocked() *storage.Snapshot {
	factors := make(map[string]float64, len(e.factors))
	for k, v := range e.factors {
		factors[k] = v
	}
	cohorts := make(map[protocol.Cohort]*storage.AggregateTable, len(e.cohorts))
	for cohort, table := range e.cohorts {
		cohorts[cohort] = copyTable(table)
	}
	return &storage.Snapshot{
		SavedAt:         e.now().UTC(),
		FactorsVersion:  e.factorsVersion,
		ExternalFactors: factors,
		Global:          copyTable(e.global),
		Cohorts:         cohorts,
	}
}

// copyTable clones a table entry by entry. The accumulators are small value
// types, so the clone is a handful of struct copies per node and edge.
func copyTable(t *storage.AggregateTable) *storage.AggregateTable {
	out := storage.NewAggregateTable()
	for id, agg := range t.Nodes {
		c := *agg
		out.Nodes[id] = &c
	}
	for id, agg := range t.Edges {
		c := *agg
		out.Edges[id] = &c
	}
	return out
}
