package model

// Snapshot is the complete state of a simulation at one instant: the process
// set, the simulated clock, and the id of the process that occupied the CPU
// on the tick that produced it. The engine never mutates a snapshot in place;
// each tick clones the previous snapshot and returns the successor, so exactly
// one live snapshot exists at a time and readers never observe partial state.
type Snapshot struct {
	Processes []*Process `json:"processes"`
	Clock     int        `json:"clock"`
	RunningID string     `json:"running_id,omitempty"`

	// Round-robin bookkeeping. ReadyQueue holds process ids in dispatch
	// order; QuantumLeft is the number of ticks the head may still run
	// before being rotated to the tail. Unused by the other policies.
	Quantum     int      `json:"quantum,omitempty"`
	QuantumLeft int      `json:"quantum_left,omitempty"`
	ReadyQueue  []string `json:"ready_queue,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Processes:   make([]*Process, len(s.Processes)),
		Clock:       s.Clock,
		RunningID:   s.RunningID,
		Quantum:     s.Quantum,
		QuantumLeft: s.QuantumLeft,
	}
	for i, p := range s.Processes {
		c.Processes[i] = p.Clone()
	}
	if s.ReadyQueue != nil {
		c.ReadyQueue = append([]string(nil), s.ReadyQueue...)
	}
	return c
}

// ProcessByID returns the process with the given id, or nil if absent.
func (s *Snapshot) ProcessByID(id string) *Process {
	for _, p := range s.Processes {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Finished reports whether every process has exhausted its burst time.
func (s *Snapshot) Finished() bool {
	for _, p := range s.Processes {
		if p.RemainingTime > 0 {
			return false
		}
	}
	return true
}

// Specs returns the static process definitions, in original list order.
// Reset uses these to rebuild the initial state.
func (s *Snapshot) Specs() []ProcessSpec {
	specs := make([]ProcessSpec, len(s.Processes))
	for i, p := range s.Processes {
		specs[i] = p.Spec()
	}
	return specs
}
