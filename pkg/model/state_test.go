package model

import "testing"

func TestProcState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    ProcState
		terminal bool
	}{
		{ProcStateWaiting, false},
		{ProcStateRunning, false},
		{ProcStateCompleted, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("ProcState(%q).IsTerminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestProcState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  ProcState
		to    ProcState
		valid bool
	}{
		// Valid transitions
		{ProcStateWaiting, ProcStateRunning, true},
		{ProcStateWaiting, ProcStateCompleted, true},
		{ProcStateRunning, ProcStateWaiting, true},
		{ProcStateRunning, ProcStateCompleted, true},

		// COMPLETED is absorbing
		{ProcStateCompleted, ProcStateWaiting, false},
		{ProcStateCompleted, ProcStateRunning, false},
		{ProcStateCompleted, ProcStateCompleted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("ProcState(%q).CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestRunState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    RunState
		terminal bool
	}{
		{RunStatePending, false},
		{RunStateRunning, false},
		{RunStatePaused, false},
		{RunStateCompleted, true},
		{RunStateCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("RunState(%q).IsTerminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestRunState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  RunState
		to    RunState
		valid bool
	}{
		{RunStatePending, RunStateRunning, true},
		{RunStatePending, RunStateCancelled, true},
		{RunStateRunning, RunStatePaused, true},
		{RunStateRunning, RunStateCompleted, true},
		{RunStateRunning, RunStateCancelled, true},
		{RunStateRunning, RunStatePending, true}, // reset mid-run
		{RunStatePaused, RunStateRunning, true},
		{RunStatePaused, RunStatePending, true}, // reset while paused

		{RunStatePending, RunStateCompleted, false},
		{RunStatePending, RunStatePaused, false},
		{RunStateCompleted, RunStateRunning, false},
		{RunStateCancelled, RunStatePending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("RunState(%q).CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}
