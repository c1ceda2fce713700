package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/orneryd/skuld/pkg/physics"
)

// SyncResult reports one device's outcome inside a batch operation.
type SyncResult struct {
	DeviceID string
	Err      error
}

// OK reports whether the device synced cleanly.
func (r SyncResult) OK() bool { return r.Err == nil }

// BatchSyncAll runs SyncLocalToCloud for every registered device, bounded by
// the configured parallelism. A batch of N devices always yields N results:
// each device's failure is isolated and reported, never aborting the rest.
// Context cancellation marks the not-yet-started devices with ctx.Err().
func (o *Orchestrator) BatchSyncAll(ctx context.Context) []SyncResult {
	return o.forEachEngine(ctx, func(engine *physics.Engine) error {
		_, err := o.SyncLocalToCloud(engine, true)
		return err
	})
}

// BroadcastDownstream applies a fresh cohort-scoped downstream packet to
// every registered device, with the same N-in N-out semantics as
// BatchSyncAll.
func (o *Orchestrator) BroadcastDownstream(ctx context.Context) []SyncResult {
	return o.forEachEngine(ctx, func(engine *physics.Engine) error {
		o.SyncCloudToLocal(engine)
		return nil
	})
}

// forEachEngine applies fn to every registered engine with bounded
// parallelism. Devices share no mutable state with each other, so fan-out is
// safe as long as each engine appears at most once per batch (guaranteed by
// the registry map).
func (o *Orchestrator) forEachEngine(ctx context.Context, fn func(*physics.Engine) error) []SyncResult {
	o.mu.RLock()
	engines := make([]*physics.Engine, 0, len(o.engines))
	for _, engine := range o.engines {
		engines = append(engines, engine)
	}
	o.mu.RUnlock()
	sort.Slice(engines, func(i, j int) bool {
		return engines[i].DeviceID() < engines[j].DeviceID()
	})

	results := make([]SyncResult, len(engines))
	sem := make(chan struct{}, o.parallelism)
	var wg sync.WaitGroup

	for i, engine := range engines {
		results[i].DeviceID = engine.DeviceID()

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		go func(i int, engine *physics.Engine) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()
			results[i].Err = fn(engine)
		}(i, engine)
	}
	wg.Wait()

	return results
}
