package engine

import (
	"github.com/me/schedsim/pkg/model"
)

// Metrics computes summary statistics over the processes that have completed.
// It is recomputed freshly from the snapshot on every call rather than
// maintained incrementally, so it cannot drift from the process set.
// Averages are 0 when nothing has completed.
func Metrics(snap *model.Snapshot) model.Metrics {
	m := model.Metrics{Total: len(snap.Processes)}

	var turnaround, waiting int
	for _, p := range snap.Processes {
		if p.State != model.ProcStateCompleted {
			continue
		}
		m.Completed++
		if p.TurnaroundTime != nil {
			turnaround += *p.TurnaroundTime
		}
		if p.WaitingTime != nil {
			waiting += *p.WaitingTime
		}
	}

	if m.Completed > 0 {
		m.AvgTurnaround = float64(turnaround) / float64(m.Completed)
		m.AvgWaiting = float64(waiting) / float64(m.Completed)
	}
	return m
}
