package model

// ProcState represents the lifecycle state of a simulated process.
type ProcState string

const (
	ProcStateWaiting   ProcState = "WAITING"
	ProcStateRunning   ProcState = "RUNNING"
	ProcStateCompleted ProcState = "COMPLETED"
)

// String returns the string representation of the process state.
func (s ProcState) String() string {
	return string(s)
}

// IsTerminal returns true if the process is in a final state.
func (s ProcState) IsTerminal() bool {
	return s == ProcStateCompleted
}

// ValidProcTransitions defines the allowed state transitions for processes.
// RUNNING -> WAITING happens when a process loses the CPU to another before
// completing; it is a label change only, remaining time never moves backward.
// A WAITING process may complete directly when its final time unit is granted
// on the same tick it is dispatched.
var ValidProcTransitions = map[ProcState][]ProcState{
	ProcStateWaiting: {ProcStateRunning, ProcStateCompleted},
	ProcStateRunning: {ProcStateWaiting, ProcStateCompleted},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcState) CanTransitionTo(next ProcState) bool {
	for _, allowed := range ValidProcTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RunState represents the lifecycle state of a simulation Run.
type RunState string

const (
	RunStatePending   RunState = "PENDING"
	RunStateRunning   RunState = "RUNNING"
	RunStatePaused    RunState = "PAUSED"
	RunStateCompleted RunState = "COMPLETED"
	RunStateCancelled RunState = "CANCELLED"
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	return string(s)
}

// IsTerminal returns true if the run is in a final state.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateCompleted, RunStateCancelled:
		return true
	}
	return false
}

// ValidRunTransitions defines the allowed state transitions for Runs.
// A reset moves a run back to PENDING from any non-terminal state.
var ValidRunTransitions = map[RunState][]RunState{
	RunStatePending: {RunStateRunning, RunStateCancelled},
	RunStateRunning: {RunStatePaused, RunStateCompleted, RunStateCancelled, RunStatePending},
	RunStatePaused:  {RunStateRunning, RunStateCancelled, RunStatePending},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s RunState) CanTransitionTo(next RunState) bool {
	for _, allowed := range ValidRunTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
