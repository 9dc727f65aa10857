package model

import "time"

// Scenario is a named, reusable process set. Runs reference a scenario and
// simulate its processes under a chosen policy; the scenario itself is never
// mutated by a run.
type Scenario struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Processes     []ProcessSpec `json:"processes"`
	DefaultPolicy Policy        `json:"default_policy,omitempty"`
	Quantum       int           `json:"quantum,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
