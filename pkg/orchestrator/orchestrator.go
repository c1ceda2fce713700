// Package orchestrator coordinates a fleet of local physics engines against
// one cloud calibration engine.
//
// The orchestrator owns the device registry and the sync discipline: every
// upstream packet passes privacy validation (and, if needed, sanitization)
// before it reaches the cloud engine, and a packet that cannot be sanitized
// is refused rather than sent. Per-device compute stays single-owner; the
// orchestrator serializes calls into each local engine and only the batch
// operations fan out across devices.
//
// Example Usage:
//
//	orch, err := orchestrator.New(orchestrator.Options{
//		Cloud:   cloudEngine,
//		Catalog: catalog,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	engine, _ := orch.CreateLocalEngine("", protocol.CohortSolo)
//	msg, ok, err := orch.FullCycle(engine, map[graph.NodeID]float64{"n01": 1200})
package orchestrator

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/orneryd/skuld/pkg/cloud"
	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/logging"
	"github.com/orneryd/skuld/pkg/physics"
	"github.com/orneryd/skuld/pkg/protocol"
)

// Common errors
var (
	ErrEngineExists    = errors.New("local engine already registered")
	ErrEngineNotFound  = errors.New("local engine not found")
	ErrCloudRequired   = errors.New("cloud engine is required")
	ErrCatalogRequired = errors.New("catalog is required")
)

// Options configures an Orchestrator.
type Options struct {
	// Cloud is the calibration engine every device syncs against. Required.
	Cloud *cloud.Engine

	// Catalog instantiates each new local engine's graph. Required.
	Catalog *graph.Catalog

	// EngineConfig is applied to every created local engine.
	// Default: physics.DefaultConfig().
	EngineConfig *physics.Config

	// Logger receives orchestration diagnostics. Default: logging.NoOp.
	Logger logging.Logger

	// Parallelism bounds concurrent devices in batch operations.
	// Default: 4.
	Parallelism int
}

// Orchestrator registers local engines and runs bidirectional sync between
// them and the cloud engine.
type Orchestrator struct {
	mu      sync.RWMutex
	engines map[string]*physics.Engine

	cloud       *cloud.Engine
	catalog     *graph.Catalog
	config      *physics.Config
	logger      logging.Logger
	parallelism int
}

// New constructs an orchestrator around an existing cloud engine.
func New(opts Options) (*Orchestrator, error) {
	if opts.Cloud == nil {
		return nil, ErrCloudRequired
	}
	if opts.Catalog == nil {
		return nil, ErrCatalogRequired
	}
	o := &Orchestrator{
		engines:     make(map[string]*physics.Engine),
		cloud:       opts.Cloud,
		catalog:     opts.Catalog,
		config:      opts.EngineConfig,
		logger:      opts.Logger,
		parallelism: opts.Parallelism,
	}
	if o.config == nil {
		o.config = physics.DefaultConfig()
	}
	if o.logger == nil {
		o.logger = logging.NoOp{}
	}
	if o.parallelism <= 0 {
		o.parallelism = 4
	}
	return o, nil
}

// CreateLocalEngine registers a new device. An empty deviceID gets a
// generated UUID. Registering an id twice is an error; the existing engine
// is left untouched.
func (o *Orchestrator) CreateLocalEngine(deviceID string, cohort protocol.Cohort) (*physics.Engine, error) {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.engines[deviceID]; exists {
		return nil, ErrEngineExists
	}
	engine := physics.NewEngine(o.catalog, deviceID, cohort, o.config)
	o.engines[deviceID] = engine
	o.logger.Info("local engine registered", "device_id", deviceID, "cohort", cohort)
	return engine, nil
}

// RemoveLocalEngine unregisters a device.
func (o *Orchestrator) RemoveLocalEngine(deviceID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.engines[deviceID]; !exists {
		return ErrEngineNotFound
	}
	delete(o.engines, deviceID)
	o.logger.Info("local engine removed", "device_id", deviceID)
	return nil
}

// Engine returns a registered engine by device id.
func (o *Orchestrator) Engine(deviceID string) (*physics.Engine, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	engine, ok := o.engines[deviceID]
	return engine, ok
}

// Devices returns the registered device ids, sorted.
func (o *Orchestrator) Devices() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, 0, len(o.engines))
	for id := range o.engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SyncLocalToCloud generates the device's upstream packet and forwards it to
// the cloud engine, returning the packet actually sent.
//
// With validate set, the packet must clear privacy validation first; a
// failing packet is sanitized and re-validated, and if it still fails the
// send is refused with ErrPrivacyViolation. A duplicate (already counted
// today) is not an error.
func (o *Orchestrator) SyncLocalToCloud(engine *physics.Engine, validate bool) (*protocol.UpstreamPacket, error) {
	pkt := engine.GenerateUpstream()

	if validate && !protocol.ValidateUpstreamPrivacy(pkt) {
		pkt = protocol.SanitizeUpstream(pkt)
		if !protocol.ValidateUpstreamPrivacy(pkt) {
			o.logger.Error("upstream refused after sanitization",
				"device_id", engine.DeviceID())
			return nil, protocol.ErrPrivacyViolation
		}
		o.logger.Warn("upstream sanitized before send", "device_id", engine.DeviceID())
	}

	if !o.cloud.ReceiveUpstream(pkt) {
		o.logger.Debug("upstream deduplicated by cloud", "device_id", engine.DeviceID())
	}
	return pkt, nil
}

// SyncCloudToLocal pulls a fresh cohort-scoped downstream packet from the
// cloud engine and applies it to the device.
func (o *Orchestrator) SyncCloudToLocal(engine *physics.Engine) *protocol.DownstreamPacket {
	pkt := o.cloud.GenerateDownstreamPacket(engine.Cohort())
	engine.ApplyDownstream(pkt)
	return pkt
}

// FullSync runs upstream then downstream for one device. Because the
// upstream is folded first, the downstream generated in the same cycle may
// already include this device's own report; nothing depends on that
// feedback, calibration only has to converge eventually.
func (o *Orchestrator) FullSync(engine *physics.Engine) error {
	if _, err := o.SyncLocalToCloud(engine, true); err != nil {
		return err
	}
	o.SyncCloudToLocal(engine)
	return nil
}

// FullCycle is the externally-triggered entry point for one device tick:
// ingest optional new indicator values, run one compute cycle, sync both
// directions, and return the device's single alert output.
func (o *Orchestrator) FullCycle(engine *physics.Engine, data map[graph.NodeID]float64) (string, bool, error) {
	if len(data) > 0 {
		engine.UpdateAllValues(data)
	}
	engine.ComputeCycle()
	if err := o.FullSync(engine); err != nil {
		return "", false, err
	}
	msg, ok := engine.GenerateOutput()
	return msg, ok, nil
}
