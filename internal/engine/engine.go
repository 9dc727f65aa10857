// Package engine implements the scheduling decision core: a pure step
// function over simulation snapshots. The driver owns the single live
// snapshot; the engine never mutates its input, it clones and returns the
// successor state, so no locking is needed as long as ticks are serialized.
package engine

import (
	"github.com/me/schedsim/pkg/model"
)

// DefaultQuantum is the round-robin time slice, in ticks, used when a reset
// does not specify one.
const DefaultQuantum = 2

type options struct {
	quantum int
}

// Option configures Reset.
type Option func(*options)

// WithQuantum sets the round-robin time slice in ticks. Values below 1 fall
// back to DefaultQuantum.
func WithQuantum(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.quantum = n
		}
	}
}

// Reset validates the process specs and builds the initial snapshot: clock at
// zero, every process WAITING with its full burst remaining. An invalid spec
// set fails here with one FieldError per violation and never enters
// simulation.
func Reset(specs []model.ProcessSpec, opts ...Option) (*model.Snapshot, error) {
	if errs := model.ValidateSpecs(specs); len(errs) > 0 {
		return nil, model.NewValidationError("invalid process set", errs...)
	}

	o := options{quantum: DefaultQuantum}
	for _, opt := range opts {
		opt(&o)
	}

	snap := &model.Snapshot{
		Processes: make([]*model.Process, len(specs)),
		Quantum:   o.quantum,
	}
	for i, spec := range specs {
		snap.Processes[i] = model.NewProcess(spec)
	}
	return snap, nil
}

// Tick advances simulated time by exactly one unit and returns the successor
// snapshot. The selected process (if any) has one time unit granted; every
// other process keeps its remaining time and at most its label changes
// (RUNNING relabels to WAITING when it loses the CPU). If no process is
// eligible the CPU idles: the clock still advances and all labels stay put.
//
// Tick is deterministic and has no side effects on snap.
func Tick(snap *model.Snapshot, policy model.Policy) *model.Snapshot {
	next := snap.Clone()
	t := next.Clock

	sel := selectProcess(next, policy, t)

	if sel != nil {
		sel.RemainingTime--
		if sel.RemainingTime < 0 {
			sel.RemainingTime = 0
		}
		if sel.RemainingTime == 0 {
			completion := t + 1
			turnaround := completion - sel.ArrivalTime
			waiting := turnaround - sel.BurstTime
			sel.State = model.ProcStateCompleted
			sel.CompletionTime = &completion
			sel.TurnaroundTime = &turnaround
			sel.WaitingTime = &waiting
		} else {
			sel.State = model.ProcStateRunning
		}
		next.RunningID = sel.ID
	} else {
		next.RunningID = ""
	}

	// Everything else that held the CPU label lost it this tick.
	for _, p := range next.Processes {
		if sel != nil && p.ID == sel.ID {
			continue
		}
		if p.State == model.ProcStateRunning {
			p.State = model.ProcStateWaiting
		}
	}

	if policy == model.PolicyRoundRobin {
		settleReadyQueue(next, sel)
	}

	next.Clock = t + 1
	return next
}

// IsFinished reports whether every process has exhausted its burst time.
// Once true, further ticks are no-ops that only advance the clock; the driver
// stops invoking them.
func IsFinished(snap *model.Snapshot) bool {
	return snap.Finished()
}
