package engine

import (
	"github.com/me/schedsim/pkg/model"
)

// selectProcess picks the process that occupies the CPU for the upcoming
// tick, or nil when no process is eligible. A process is a candidate iff it
// has arrived (ArrivalTime <= t) and has work remaining. Every policy breaks
// ties by original list order, which keeps selection deterministic.
//
// FCFS, SJF and PRIORITY are pure over the candidate set. ROUND_ROBIN
// additionally maintains the FIFO ready queue carried in the snapshot.
func selectProcess(snap *model.Snapshot, policy model.Policy, t int) *model.Process {
	switch policy {
	case model.PolicyFCFS:
		return selectByScore(snap.Processes, t, func(p *model.Process) int { return p.ArrivalTime })
	case model.PolicySJF:
		return selectByScore(snap.Processes, t, func(p *model.Process) int { return p.RemainingTime })
	case model.PolicyPriority:
		return selectByScore(snap.Processes, t, func(p *model.Process) int { return p.Priority })
	case model.PolicyRoundRobin:
		return selectRoundRobin(snap, t)
	}
	return nil
}

// selectByScore returns the candidate with the smallest score. The strict
// less-than comparison keeps the first-seen process on ties, i.e. ties break
// by original list order.
func selectByScore(procs []*model.Process, t int, score func(*model.Process) int) *model.Process {
	var best *model.Process
	for _, p := range procs {
		if !p.Eligible(t) {
			continue
		}
		if best == nil || score(p) < score(best) {
			best = p
		}
	}
	return best
}

// selectRoundRobin enqueues newly arrived candidates at the tail in original
// list order, then dispatches the queue head. A freshly dispatched process
// gets a full quantum; one that already held the CPU keeps its remaining
// slice.
func selectRoundRobin(snap *model.Snapshot, t int) *model.Process {
	enqueueArrivals(snap, t)

	for len(snap.ReadyQueue) > 0 {
		p := snap.ProcessByID(snap.ReadyQueue[0])
		if p == nil || p.RemainingTime == 0 {
			// Stale entry; drop it.
			snap.ReadyQueue = snap.ReadyQueue[1:]
			continue
		}
		if snap.RunningID != p.ID || snap.QuantumLeft <= 0 {
			snap.QuantumLeft = snap.Quantum
		}
		return p
	}
	return nil
}

// enqueueArrivals appends candidates that are not yet queued, preserving
// original list order among simultaneous arrivals.
func enqueueArrivals(snap *model.Snapshot, t int) {
	queued := make(map[string]bool, len(snap.ReadyQueue))
	for _, id := range snap.ReadyQueue {
		queued[id] = true
	}
	for _, p := range snap.Processes {
		if p.Eligible(t) && !queued[p.ID] {
			snap.ReadyQueue = append(snap.ReadyQueue, p.ID)
		}
	}
}

// settleReadyQueue runs after the selected process has been granted its time
// unit: a completed head is dequeued, an expired head rotates to the tail,
// otherwise the head keeps the CPU with its remaining slice.
func settleReadyQueue(snap *model.Snapshot, sel *model.Process) {
	if sel == nil || len(snap.ReadyQueue) == 0 {
		return
	}
	if sel.RemainingTime == 0 {
		snap.ReadyQueue = snap.ReadyQueue[1:]
		snap.QuantumLeft = 0
		return
	}
	snap.QuantumLeft--
	if snap.QuantumLeft <= 0 {
		snap.ReadyQueue = append(snap.ReadyQueue[1:], sel.ID)
	}
}
