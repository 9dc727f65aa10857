package model

import "testing"

func TestValidateSpecs(t *testing.T) {
	valid := []ProcessSpec{
		{ID: "p1", Name: "P1", ArrivalTime: 0, BurstTime: 8, Priority: 3},
		{ID: "p2", Name: "P2", ArrivalTime: 1, BurstTime: 4, Priority: 1},
	}
	if errs := ValidateSpecs(valid); len(errs) != 0 {
		t.Fatalf("ValidateSpecs(valid) = %v, want no errors", errs)
	}

	tests := []struct {
		name    string
		specs   []ProcessSpec
		wantLen int
	}{
		{
			name:    "missing id",
			specs:   []ProcessSpec{{Name: "P1", BurstTime: 1}},
			wantLen: 1,
		},
		{
			name: "duplicate id",
			specs: []ProcessSpec{
				{ID: "p1", BurstTime: 1},
				{ID: "p1", BurstTime: 2},
			},
			wantLen: 1,
		},
		{
			name:    "negative arrival",
			specs:   []ProcessSpec{{ID: "p1", ArrivalTime: -1, BurstTime: 1}},
			wantLen: 1,
		},
		{
			name:    "zero burst",
			specs:   []ProcessSpec{{ID: "p1", BurstTime: 0}},
			wantLen: 1,
		},
		{
			name:    "negative burst",
			specs:   []ProcessSpec{{ID: "p1", BurstTime: -3}},
			wantLen: 1,
		},
		{
			name:    "multiple violations reported together",
			specs:   []ProcessSpec{{ID: "", ArrivalTime: -2, BurstTime: 0}},
			wantLen: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateSpecs(tt.specs)
			if len(errs) != tt.wantLen {
				t.Errorf("ValidateSpecs() = %d errors (%v), want %d", len(errs), errs, tt.wantLen)
			}
		})
	}
}

func TestNewProcess(t *testing.T) {
	p := NewProcess(ProcessSpec{ID: "p1", Name: "P1", ArrivalTime: 2, BurstTime: 5, Priority: 1})
	if p.RemainingTime != 5 {
		t.Errorf("RemainingTime = %d, want 5", p.RemainingTime)
	}
	if p.State != ProcStateWaiting {
		t.Errorf("State = %q, want %q", p.State, ProcStateWaiting)
	}
	if p.CompletionTime != nil || p.TurnaroundTime != nil || p.WaitingTime != nil {
		t.Error("derived times should be unset at creation")
	}
}

func TestProcess_Eligible(t *testing.T) {
	p := NewProcess(ProcessSpec{ID: "p1", ArrivalTime: 3, BurstTime: 2})

	if p.Eligible(2) {
		t.Error("Eligible(2) = true before arrival, want false")
	}
	// A process arriving exactly at the current time is eligible that tick.
	if !p.Eligible(3) {
		t.Error("Eligible(3) = false at arrival time, want true")
	}
	p.RemainingTime = 0
	if p.Eligible(5) {
		t.Error("Eligible(5) = true with no remaining time, want false")
	}
}

func TestSnapshot_Clone(t *testing.T) {
	done := 4
	s := &Snapshot{
		Processes: []*Process{
			{ID: "p1", BurstTime: 4, RemainingTime: 0, State: ProcStateCompleted, CompletionTime: &done},
			{ID: "p2", BurstTime: 3, RemainingTime: 2, State: ProcStateRunning},
		},
		Clock:      4,
		RunningID:  "p2",
		ReadyQueue: []string{"p2"},
	}

	c := s.Clone()
	c.Processes[1].RemainingTime = 1
	c.Processes[1].State = ProcStateWaiting
	*c.Processes[0].CompletionTime = 99
	c.ReadyQueue[0] = "px"
	c.Clock = 5

	if s.Processes[1].RemainingTime != 2 || s.Processes[1].State != ProcStateRunning {
		t.Error("Clone() shares process structs with the original")
	}
	if *s.Processes[0].CompletionTime != 4 {
		t.Error("Clone() shares derived-time pointers with the original")
	}
	if s.ReadyQueue[0] != "p2" {
		t.Error("Clone() shares the ready queue with the original")
	}
	if s.Clock != 4 {
		t.Error("Clone() shares scalar fields with the original")
	}
}

func TestSnapshot_Finished(t *testing.T) {
	s := &Snapshot{Processes: []*Process{
		{ID: "p1", RemainingTime: 0},
		{ID: "p2", RemainingTime: 1},
	}}
	if s.Finished() {
		t.Error("Finished() = true with work remaining, want false")
	}
	s.Processes[1].RemainingTime = 0
	if !s.Finished() {
		t.Error("Finished() = false with no work remaining, want true")
	}
}
