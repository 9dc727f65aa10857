package model

import "time"

// Run is one execution of a scenario under a specific policy. The live
// snapshot is owned by the driver while the run is active; the persisted Run
// carries the last observed clock and, once the run reaches a terminal state,
// the final per-process results and metrics.
type Run struct {
	ID           string     `json:"id"`
	ScenarioID   string     `json:"scenario_id"`
	ScenarioName string     `json:"scenario_name"`
	Policy       Policy     `json:"policy"`
	State        RunState   `json:"state"`
	Quantum      int        `json:"quantum,omitempty"`
	IntervalMS   int        `json:"interval_ms"`
	Clock        int        `json:"clock"`
	Processes    []*Process `json:"processes,omitempty"`
	Metrics      *Metrics   `json:"metrics,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Metrics summarizes the processes of a snapshot that have completed.
// Averages are defined as 0 when nothing has completed yet.
type Metrics struct {
	AvgTurnaround float64 `json:"avg_turnaround"`
	AvgWaiting    float64 `json:"avg_waiting"`
	Completed     int     `json:"completed"`
	Total         int     `json:"total"`
}

// CompletionRatio returns completed/total, or 0 for an empty process set.
func (m Metrics) CompletionRatio() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Completed) / float64(m.Total)
}
