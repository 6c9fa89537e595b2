package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/latspos/repairflow/internal/lifecycle"
	"github.com/latspos/repairflow/internal/models"
	"github.com/latspos/repairflow/internal/repository"
	"go.uber.org/zap"
)

// PartsPoller watches the spare-parts tables for changes and feeds them to
// the engine's auto-progression check. It is the polling implementation of
// the parts change feed; a push subscription could replace it without
// touching the engine.
type PartsPoller struct {
	devices *repository.DeviceRepository
	parts   *repository.PartRepository
	engine  *lifecycle.Engine
	logger  *zap.Logger

	pollInterval time.Duration
	batchSize    int

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc

	// snapshots holds the last seen parts list per device so a tick only
	// re-evaluates devices whose parts actually moved
	snapshots map[string][]models.RepairPart
}

// NewPartsPoller creates a new parts poller
func NewPartsPoller(
	devices *repository.DeviceRepository,
	parts *repository.PartRepository,
	engine *lifecycle.Engine,
	pollInterval time.Duration,
	batchSize int,
	logger *zap.Logger,
) *PartsPoller {
	return &PartsPoller{
		devices:      devices,
		parts:        parts,
		engine:       engine,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		snapshots:    make(map[string][]models.RepairPart),
	}
}

// watchedStatuses are the states from which a parts change can move a
// device forward on its own
var watchedStatuses = []models.DeviceStatus{
	models.StatusDiagnosisStarted,
	models.StatusAwaitingParts,
	models.StatusPartsArrived,
}

// Start starts the polling worker
func (p *PartsPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("parts poller is already running")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.isRunning = true

	p.logger.Info("PartsPoller started",
		zap.Duration("poll_interval", p.pollInterval),
		zap.Int("batch_size", p.batchSize))

	go p.pollLoop()

	return nil
}

// Stop stops the polling worker
func (p *PartsPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return
	}

	p.isRunning = false
	if p.cancel != nil {
		p.cancel()
	}

	p.logger.Info("PartsPoller stopped")
}

// Name returns the worker name for identification
func (p *PartsPoller) Name() string {
	return "PartsPoller"
}

// pollLoop runs the main polling loop
func (p *PartsPoller) pollLoop() {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	// Poll immediately on start
	p.pollPartsChanges()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Poll loop context cancelled")
			return

		case <-ticker.C:
			p.pollPartsChanges()
		}
	}
}

// pollPartsChanges diffs the parts snapshot of every watched device against
// the previous tick and hands changed devices to the engine
func (p *PartsPoller) pollPartsChanges() {
	ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
	defer cancel()

	devices, err := p.devices.ListByStatuses(ctx, watchedStatuses, p.batchSize)
	if err != nil {
		p.logger.Error("Failed to list devices for polling", zap.Error(err))
		return
	}

	if len(devices) == 0 {
		p.pruneSnapshots(nil)
		return
	}

	checkedCount := 0
	changedCount := 0
	seen := make(map[string]bool, len(devices))

	for _, device := range devices {
		seen[device.ID] = true

		parts, err := p.parts.ListByDevice(ctx, device.ID)
		if err != nil {
			p.logger.Warn("Failed to list parts for device",
				zap.String("device_id", device.ID),
				zap.Error(err))
			continue
		}
		checkedCount++

		previous, known := p.snapshot(device.ID)
		p.storeSnapshot(device.ID, parts)

		// First sighting still gets one evaluation; the device may already
		// have been ready when the poller came up.
		if known && !lifecycle.PartsStatusChanged(previous, parts) {
			continue
		}

		changedCount++
		if err := p.engine.OnPartsChanged(ctx, device.ID, models.TriggerPoll); err != nil {
			p.logger.Error("Failed to handle parts change",
				zap.String("device_id", device.ID),
				zap.Error(err))
			continue
		}

		// The engine advances one status at a time. When a progression was
		// due, forget the snapshot so the next tick re-evaluates the device
		// and a chain like awaiting-parts through parts-arrived into
		// in-repair completes without a new parts change.
		if lifecycle.ShouldAutoProgress(parts, device.Status).ShouldProgress {
			p.forgetSnapshot(device.ID)
		}
	}

	p.pruneSnapshots(seen)

	if changedCount > 0 {
		p.logger.Info("Parts polling completed",
			zap.Int("checked", checkedCount),
			zap.Int("changed", changedCount))
	}
}

func (p *PartsPoller) snapshot(deviceID string) ([]models.RepairPart, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	parts, ok := p.snapshots[deviceID]
	return parts, ok
}

func (p *PartsPoller) forgetSnapshot(deviceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.snapshots, deviceID)
}

func (p *PartsPoller) storeSnapshot(deviceID string, parts []models.RepairPart) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[deviceID] = parts
}

// pruneSnapshots drops cached snapshots for devices that left the watched
// statuses so the cache cannot grow unbounded
func (p *PartsPoller) pruneSnapshots(seen map[string]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.snapshots {
		if !seen[id] {
			delete(p.snapshots, id)
		}
	}
}
