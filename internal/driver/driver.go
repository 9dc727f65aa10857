// Package driver owns the live simulation: it holds exactly one current
// snapshot per run, advances it through the engine on a fixed-interval
// ticker, and persists the run record. Ticks are strictly serialized: the
// loop goroutine is the only writer, and every advance replaces the snapshot
// wholesale, so readers never observe a half-applied tick.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/schedsim/internal/engine"
	"github.com/me/schedsim/internal/store"
	"github.com/me/schedsim/pkg/model"
)

// Config holds driver configuration.
type Config struct {
	// Interval is the wall-clock pacing between ticks. The engine itself is
	// time-unit-agnostic; this only throttles the loop.
	Interval time.Duration

	// MaxTicks aborts a run that has not finished after this many ticks.
	// Zero means no bound.
	MaxTicks int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: 1 * time.Second}
}

// Driver advances one run tick by tick.
type Driver struct {
	mu     sync.Mutex
	snap   *model.Snapshot
	run    *model.Run
	ticks  int
	paused bool

	st      store.Store
	config  Config
	logger  *slog.Logger
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	stop    sync.Once
}

// New validates the process specs, builds the initial snapshot, and returns a
// Driver for the given run. The run must be PENDING.
func New(run *model.Run, specs []model.ProcessSpec, st store.Store, cfg Config, logger *slog.Logger) (*Driver, error) {
	if !run.Policy.Valid() {
		return nil, model.NewValidationError("invalid policy",
			model.FieldError{Field: "policy", Message: fmt.Sprintf("unknown policy %q", run.Policy)})
	}

	snap, err := engine.Reset(specs, engine.WithQuantum(run.Quantum))
	if err != nil {
		return nil, err
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}

	return &Driver{
		snap:   snap,
		run:    run,
		st:     st,
		config: cfg,
		logger: logger.With("component", "driver", "run_id", run.ID),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Start begins the tick loop. It blocks until the run finishes, ctx is
// cancelled, or Stop is called.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()

	if err := d.transition(ctx, model.RunStateRunning); err != nil {
		close(d.doneCh)
		return err
	}
	d.logger.Info("run started", "policy", d.run.Policy, "interval", d.config.Interval)

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()
	defer close(d.doneCh)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("run stopping (context cancelled)")
			return ctx.Err()
		case <-d.stopCh:
			d.logger.Info("run stopping (stop called)")
			return nil
		case <-ticker.C:
			done, err := d.Step(ctx)
			if err != nil {
				d.logger.Error("tick error", "error", err)
				continue
			}
			if done {
				return nil
			}
		}
	}
}

// Stop halts the tick loop and waits for it to drain. Safe to call more than
// once; it never interrupts a tick in progress.
func (d *Driver) Stop() {
	d.stop.Do(func() { close(d.stopCh) })
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if started {
		<-d.doneCh
	}
}

// Step advances the simulation by one tick, unless the run is paused or
// already terminal. It reports done=true once every process has completed.
// Tests and headless runs call Step directly instead of Start.
func (d *Driver) Step(ctx context.Context) (done bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.paused || d.run.State.IsTerminal() {
		return d.run.State.IsTerminal(), nil
	}
	if engine.IsFinished(d.snap) {
		return true, nil
	}

	d.snap = engine.Tick(d.snap, d.run.Policy)
	d.ticks++
	d.run.Clock = d.snap.Clock

	if engine.IsFinished(d.snap) {
		return true, d.finalizeLocked(ctx, model.RunStateCompleted)
	}
	if d.config.MaxTicks > 0 && d.ticks >= d.config.MaxTicks {
		d.logger.Warn("tick budget exhausted", "ticks", d.ticks)
		return true, d.finalizeLocked(ctx, model.RunStateCancelled)
	}

	if err := d.st.UpdateRun(ctx, d.runRecordLocked()); err != nil {
		return false, fmt.Errorf("persist run: %w", err)
	}
	return false, nil
}

// Pause stops the driver from advancing ticks. The snapshot is untouched.
func (d *Driver) Pause(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.transitionLocked(ctx, model.RunStatePaused); err != nil {
		return err
	}
	d.paused = true
	d.logger.Info("run paused", "clock", d.snap.Clock)
	return nil
}

// Resume restarts tick advancement after a Pause or a Reset.
func (d *Driver) Resume(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.transitionLocked(ctx, model.RunStateRunning); err != nil {
		return err
	}
	d.paused = false
	d.logger.Info("run resumed", "clock", d.snap.Clock)
	return nil
}

// Reset rebuilds the process set from its original specs, zeroes the clock,
// and pauses tick advancement until Resume. All completion stamps are
// discarded. Callable at any point, including mid-run.
func (d *Driver) Reset(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap, err := engine.Reset(d.snap.Specs(), engine.WithQuantum(d.run.Quantum))
	if err != nil {
		return err
	}
	if err := d.transitionLocked(ctx, model.RunStatePending); err != nil {
		return err
	}
	d.snap = snap
	d.ticks = 0
	d.paused = true
	d.run.Clock = 0
	d.run.Metrics = nil
	d.logger.Info("run reset")
	return d.st.UpdateRun(ctx, d.runRecordLocked())
}

// Cancel terminates the run, persisting the state reached so far.
func (d *Driver) Cancel(ctx context.Context) error {
	d.mu.Lock()
	if d.run.State.IsTerminal() {
		d.mu.Unlock()
		return nil
	}
	err := d.finalizeLocked(ctx, model.RunStateCancelled)
	d.mu.Unlock()

	d.Stop()
	return err
}

// Snapshot returns the current snapshot. Snapshots are replaced wholesale on
// every tick and never mutated in place, so the returned value is safe to
// read without further locking.
func (d *Driver) Snapshot() *model.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

// RunRecord returns a copy of the run record with the live clock, process
// states, and freshly computed metrics attached.
func (d *Driver) RunRecord() *model.Run {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runRecordLocked()
}

// Finished reports whether every process has completed.
func (d *Driver) Finished() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return engine.IsFinished(d.snap)
}

// runRecordLocked builds the persisted view of the run. Callers hold d.mu.
func (d *Driver) runRecordLocked() *model.Run {
	r := *d.run
	r.Clock = d.snap.Clock
	r.Processes = d.snap.Clone().Processes
	m := engine.Metrics(d.snap)
	r.Metrics = &m
	return &r
}

// finalizeLocked moves the run to a terminal state and persists the final
// results. Callers hold d.mu.
func (d *Driver) finalizeLocked(ctx context.Context, state model.RunState) error {
	if err := d.transitionLocked(ctx, state); err != nil {
		return err
	}
	m := engine.Metrics(d.snap)
	d.logger.Info("run finished",
		"state", state,
		"clock", d.snap.Clock,
		"avg_turnaround", m.AvgTurnaround,
		"avg_waiting", m.AvgWaiting,
	)
	return nil
}

func (d *Driver) transition(ctx context.Context, next model.RunState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transitionLocked(ctx, next)
}

func (d *Driver) transitionLocked(ctx context.Context, next model.RunState) error {
	if !d.run.State.CanTransitionTo(next) {
		return &model.InvalidTransitionError{
			Entity: "run",
			ID:     d.run.ID,
			From:   string(d.run.State),
			To:     string(next),
		}
	}
	now := time.Now().UTC()
	d.run.State = next
	switch next {
	case model.RunStateRunning:
		if d.run.StartedAt == nil {
			d.run.StartedAt = &now
		}
	case model.RunStateCompleted, model.RunStateCancelled:
		d.run.CompletedAt = &now
	case model.RunStatePending:
		d.run.StartedAt = nil
		d.run.CompletedAt = nil
	}
	return d.st.UpdateRun(ctx, d.runRecordLocked())
}
