package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/me/schedsim/internal/store"
	"github.com/me/schedsim/pkg/model"
)

// Manager tracks the active Driver for each live run. Terminal runs are
// served from the store; only non-terminal runs have a driver here.
type Manager struct {
	mu      sync.Mutex
	drivers map[string]*Driver

	st     store.Store
	config Config
	logger *slog.Logger
}

// NewManager creates an empty Manager.
func NewManager(st store.Store, cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		drivers: make(map[string]*Driver),
		st:      st,
		config:  cfg,
		logger:  logger.With("component", "driver-manager"),
	}
}

// StartRun creates a driver for the run and launches its tick loop in a
// background goroutine. The driver is deregistered when the loop exits.
func (m *Manager) StartRun(ctx context.Context, run *model.Run, specs []model.ProcessSpec) (*Driver, error) {
	cfg := m.config
	if run.IntervalMS > 0 {
		cfg.Interval = time.Duration(run.IntervalMS) * time.Millisecond
	}

	d, err := New(run, specs, m.st, cfg, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.drivers[run.ID] = d
	m.mu.Unlock()

	go func() {
		if err := d.Start(ctx); err != nil && err != context.Canceled {
			m.logger.Error("run loop exited", "run_id", run.ID, "error", err)
		}
		m.remove(run.ID)
	}()

	m.logger.Info("run registered", "run_id", run.ID, "policy", run.Policy)
	return d, nil
}

// Get returns the driver for a live run, or false if the run has no active
// driver (unknown id or already terminal).
func (m *Manager) Get(runID string) (*Driver, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[runID]
	return d, ok
}

// Shutdown stops every live driver and waits for their loops to drain.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	drivers := make([]*Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		drivers = append(drivers, d)
	}
	m.mu.Unlock()

	for _, d := range drivers {
		d.Stop()
	}
}

func (m *Manager) remove(runID string) {
	m.mu.Lock()
	delete(m.drivers, runID)
	m.mu.Unlock()
}
