package driver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/me/schedsim/internal/store"
	"github.com/me/schedsim/pkg/model"
)

func testSetup(t *testing.T) (store.Store, *slog.Logger) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, logger
}

func testRun(policy model.Policy) *model.Run {
	return &model.Run{
		ID:           "run_test",
		ScenarioID:   "scn_test",
		ScenarioName: "test",
		Policy:       policy,
		State:        model.RunStatePending,
		Quantum:      2,
		IntervalMS:   10,
		CreatedAt:    time.Now().UTC(),
	}
}

func testSpecs() []model.ProcessSpec {
	return []model.ProcessSpec{
		{ID: "p1", Name: "P1", ArrivalTime: 0, BurstTime: 3, Priority: 1},
		{ID: "p2", Name: "P2", ArrivalTime: 1, BurstTime: 2, Priority: 2},
	}
}

// newTestDriver creates a driver with its run already persisted, as the
// server does before starting a run.
func newTestDriver(t *testing.T, policy model.Policy) (*Driver, store.Store) {
	t.Helper()
	st, logger := testSetup(t)
	run := testRun(policy)
	if err := st.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	d, err := New(run, testSpecs(), st, Config{Interval: time.Millisecond}, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, st
}

func TestNew_RejectsInvalidInput(t *testing.T) {
	st, logger := testSetup(t)

	run := testRun("LOTTERY")
	if _, err := New(run, testSpecs(), st, DefaultConfig(), logger); err == nil {
		t.Error("New with bad policy = nil error, want validation error")
	}

	run = testRun(model.PolicyFCFS)
	bad := []model.ProcessSpec{{ID: "p1", BurstTime: 0}}
	_, err := New(run, bad, st, DefaultConfig(), logger)
	if err == nil {
		t.Fatal("New with bad specs = nil error, want validation error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrValidation {
		t.Errorf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestStep_RunsToCompletion(t *testing.T) {
	d, st := newTestDriver(t, model.PolicyFCFS)
	ctx := context.Background()

	// Step requires the run to be RUNNING; drive the transition directly.
	if err := d.transition(ctx, model.RunStateRunning); err != nil {
		t.Fatalf("transition: %v", err)
	}

	var done bool
	var err error
	for i := 0; i < 20 && !done; i++ {
		done, err = d.Step(ctx)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if !done {
		t.Fatal("run did not complete within 20 steps")
	}

	rec, err := st.GetRun(ctx, "run_test")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec.State != model.RunStateCompleted {
		t.Errorf("persisted state = %q, want COMPLETED", rec.State)
	}
	if rec.Clock != 5 {
		t.Errorf("persisted clock = %d, want 5 (total burst)", rec.Clock)
	}
	if rec.Metrics == nil || rec.Metrics.Completed != 2 {
		t.Errorf("persisted metrics = %+v, want 2 completed", rec.Metrics)
	}
	if rec.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}
	for _, p := range rec.Processes {
		if p.State != model.ProcStateCompleted || p.CompletionTime == nil {
			t.Errorf("%s: persisted process not completed: %+v", p.ID, p)
		}
	}
}

func TestStart_TicksOnInterval(t *testing.T) {
	d, st := newTestDriver(t, model.PolicySJF)

	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(context.Background()) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not finish the run in time")
	}

	rec, _ := st.GetRun(context.Background(), "run_test")
	if rec.State != model.RunStateCompleted {
		t.Errorf("state = %q, want COMPLETED", rec.State)
	}
}

func TestPauseBlocksSteps(t *testing.T) {
	d, _ := newTestDriver(t, model.PolicyFCFS)
	ctx := context.Background()

	if err := d.transition(ctx, model.RunStateRunning); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := d.Step(ctx); err != nil {
		t.Fatalf("Step: %v", err)
	}
	clock := d.Snapshot().Clock

	if err := d.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := d.Step(ctx); err != nil {
			t.Fatalf("Step while paused: %v", err)
		}
	}
	if got := d.Snapshot().Clock; got != clock {
		t.Errorf("clock advanced to %d while paused, want %d", got, clock)
	}

	if err := d.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if _, err := d.Step(ctx); err != nil {
		t.Fatalf("Step after resume: %v", err)
	}
	if got := d.Snapshot().Clock; got != clock+1 {
		t.Errorf("clock = %d after resume, want %d", got, clock+1)
	}
}

func TestReset_MidRun(t *testing.T) {
	d, st := newTestDriver(t, model.PolicyFCFS)
	ctx := context.Background()

	if err := d.transition(ctx, model.RunStateRunning); err != nil {
		t.Fatalf("transition: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := d.Step(ctx); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	if err := d.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	snap := d.Snapshot()
	if snap.Clock != 0 {
		t.Errorf("clock = %d after reset, want 0", snap.Clock)
	}
	for _, p := range snap.Processes {
		if p.RemainingTime != p.BurstTime || p.State != model.ProcStateWaiting {
			t.Errorf("%s not restored: remaining=%d state=%s", p.ID, p.RemainingTime, p.State)
		}
	}

	// Reset pauses the run; ticks must not advance until Resume.
	if _, err := d.Step(ctx); err != nil {
		t.Fatalf("Step after reset: %v", err)
	}
	if d.Snapshot().Clock != 0 {
		t.Error("tick advanced after reset without resume")
	}

	rec, _ := st.GetRun(ctx, "run_test")
	if rec.State != model.RunStatePending {
		t.Errorf("persisted state = %q after reset, want PENDING", rec.State)
	}
}

func TestCancel_PersistsPartialResults(t *testing.T) {
	d, st := newTestDriver(t, model.PolicyFCFS)
	ctx := context.Background()

	if err := d.transition(ctx, model.RunStateRunning); err != nil {
		t.Fatalf("transition: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := d.Step(ctx); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	if err := d.Cancel(ctx); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	rec, _ := st.GetRun(ctx, "run_test")
	if rec.State != model.RunStateCancelled {
		t.Errorf("state = %q, want CANCELLED", rec.State)
	}
	if rec.Clock != 3 {
		t.Errorf("clock = %d, want 3", rec.Clock)
	}

	// Cancelling twice is a no-op.
	if err := d.Cancel(ctx); err != nil {
		t.Errorf("second Cancel: %v", err)
	}
}

func TestInvalidTransitions(t *testing.T) {
	d, _ := newTestDriver(t, model.PolicyFCFS)
	ctx := context.Background()

	// Pause before the run ever started.
	err := d.Pause(ctx)
	var transErr *model.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Errorf("Pause on PENDING run error = %v, want InvalidTransitionError", err)
	}
}

func TestManager_StartAndGet(t *testing.T) {
	st, logger := testSetup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(st, Config{Interval: time.Millisecond}, logger)

	run := testRun(model.PolicyRoundRobin)
	if err := st.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	d, err := m.StartRun(ctx, run, testSpecs())
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if got, ok := m.Get(run.ID); !ok || got != d {
		t.Error("Get did not return the registered driver")
	}

	// Wait for the run to finish and the driver to deregister.
	deadline := time.After(5 * time.Second)
	for {
		if _, ok := m.Get(run.ID); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("driver was not deregistered after completion")
		case <-time.After(5 * time.Millisecond):
		}
	}

	rec, _ := st.GetRun(ctx, run.ID)
	if rec.State != model.RunStateCompleted {
		t.Errorf("state = %q, want COMPLETED", rec.State)
	}
}
