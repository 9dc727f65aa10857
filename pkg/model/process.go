package model

import "fmt"

// ProcessSpec is the static definition of a schedulable process. Specs are the
// input to a simulation reset; they are never mutated by the engine.
type ProcessSpec struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ArrivalTime int    `json:"arrival_time"`
	BurstTime   int    `json:"burst_time"`
	Priority    int    `json:"priority"` // lower value = higher priority
}

// ValidateSpecs checks a process set for construction-time errors: empty or
// duplicate ids, negative arrival times, non-positive burst times. It returns
// one FieldError per violation so the caller can report the full set at once.
func ValidateSpecs(specs []ProcessSpec) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(specs))

	for i, spec := range specs {
		path := fmt.Sprintf("processes[%d]", i)
		if spec.ID == "" {
			errs = append(errs, FieldError{Field: "id", Path: path, Message: "id is required"})
		} else if seen[spec.ID] {
			errs = append(errs, FieldError{Field: "id", Path: path, Message: "duplicate id " + spec.ID})
		}
		seen[spec.ID] = true

		if spec.ArrivalTime < 0 {
			errs = append(errs, FieldError{Field: "arrival_time", Path: path, Message: "arrival_time must be >= 0"})
		}
		if spec.BurstTime <= 0 {
			errs = append(errs, FieldError{Field: "burst_time", Path: path, Message: "burst_time must be > 0"})
		}
	}
	return errs
}

// Process is a ProcessSpec plus the dynamic state mutated tick-by-tick during
// a simulation. Completion, turnaround and waiting time are stamped exactly
// once, at the tick where RemainingTime first reaches zero, and never
// recomputed afterward.
type Process struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ArrivalTime int    `json:"arrival_time"`
	BurstTime   int    `json:"burst_time"`
	Priority    int    `json:"priority"`

	RemainingTime  int       `json:"remaining_time"`
	State          ProcState `json:"state"`
	CompletionTime *int      `json:"completion_time,omitempty"`
	TurnaroundTime *int      `json:"turnaround_time,omitempty"`
	WaitingTime    *int      `json:"waiting_time,omitempty"`
}

// NewProcess creates a Process in its initial state from a spec.
func NewProcess(spec ProcessSpec) *Process {
	return &Process{
		ID:            spec.ID,
		Name:          spec.Name,
		ArrivalTime:   spec.ArrivalTime,
		BurstTime:     spec.BurstTime,
		Priority:      spec.Priority,
		RemainingTime: spec.BurstTime,
		State:         ProcStateWaiting,
	}
}

// Spec returns the static attributes of the process.
func (p *Process) Spec() ProcessSpec {
	return ProcessSpec{
		ID:          p.ID,
		Name:        p.Name,
		ArrivalTime: p.ArrivalTime,
		BurstTime:   p.BurstTime,
		Priority:    p.Priority,
	}
}

// Completed reports whether the process has finished all of its work.
func (p *Process) Completed() bool {
	return p.RemainingTime == 0
}

// Eligible reports whether the process is a scheduling candidate at time t:
// it has arrived (ArrivalTime <= t) and still has work left.
func (p *Process) Eligible(t int) bool {
	return p.ArrivalTime <= t && p.RemainingTime > 0
}

// Clone returns a deep copy of the process.
func (p *Process) Clone() *Process {
	c := *p
	c.CompletionTime = cloneIntPtr(p.CompletionTime)
	c.TurnaroundTime = cloneIntPtr(p.TurnaroundTime)
	c.WaitingTime = cloneIntPtr(p.WaitingTime)
	return &c
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
