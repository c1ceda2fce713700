// Package storage provides persistence for the cloud calibration engine's
// aggregation state.
//
// The calibration engine keeps its tables in memory; a Store lets it survive
// restarts by persisting two things: a Snapshot of the streaming aggregation
// tables, and the dedup keys that guarantee one counted packet per device
// per day. Two implementations are provided:
//
//   - MemoryStore: in-memory, for tests and single-run tooling
//   - BadgerStore: persistent disk-based storage on BadgerDB
//
// Both are thread-safe.
//
// Example Usage:
//
//	store, err := storage.NewBadgerStore(storage.BadgerOptions{DataDir: "./data"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	engine := cloud.NewEngine(cloud.Options{Store: store})
package storage

import (
	"errors"
	"time"

	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/protocol"
	"github.com/orneryd/skuld/pkg/stats"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrStorageClosed = errors.New("storage closed")
)

// NodeAggregate is the streaming summary of one node's reported pressure
// across devices. No raw samples are retained; the accumulator's Count is
// also the number of reports folded in, one per device per day.
type NodeAggregate struct {
	Pressure stats.Welford `json:"pressure"`
}

// EdgeAggregate accumulates observed edge correlation strengths.
type EdgeAggregate struct {
	Strength stats.Welford `json:"strength"`
}

// AggregateTable holds one scope's (global or one cohort's) running
// aggregation.
type AggregateTable struct {
	Nodes map[graph.NodeID]*NodeAggregate `json:"nodes"`
	Edges map[graph.EdgeID]*EdgeAggregate `json:"edges"`
}

// NewAggregateTable returns an empty table ready for folding.
func NewAggregateTable() *AggregateTable {
	return &AggregateTable{
		Nodes: make(map[graph.NodeID]*NodeAggregate),
		Edges: make(map[graph.EdgeID]*EdgeAggregate),
	}
}

// Snapshot is the calibration engine's full persistable state.
type Snapshot struct {
	SavedAt         time.Time                           `json:"saved_at"`
	FactorsVersion  uint64                              `json:"factors_version"`
	ExternalFactors map[string]float64                  `json:"external_factors"`
	Global          *AggregateTable                     `json:"global"`
	Cohorts         map[protocol.Cohort]*AggregateTable `json:"cohorts"`
}

// Store persists calibration aggregation state.
type Store interface {
	// SaveSnapshot overwrites the persisted aggregation snapshot.
	SaveSnapshot(s *Snapshot) error
	// LoadSnapshot returns the persisted snapshot, or ErrNotFound.
	LoadSnapshot() (*Snapshot, error)
	// MarkSeen records a dedup key (device hash + date).
	MarkSeen(key string) error
	// Seen reports whether a dedup key was recorded.
	Seen(key string) (bool, error)
	// Close releases resources.
	Close() error
}
