// Package scenario loads and validates scenario files: named process sets
// that can be simulated locally or registered with the server.
package scenario

import (
	"fmt"
	"os"

	"github.com/me/schedsim/pkg/model"
	"gopkg.in/yaml.v3"
)

// File is the on-disk scenario format.
//
//	name: classic-four
//	policy: FCFS        # optional default policy
//	quantum: 2          # optional round-robin time slice
//	processes:
//	  - id: p1
//	    name: P1
//	    arrival: 0
//	    burst: 8
//	    priority: 3
type File struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Policy      string  `yaml:"policy,omitempty"`
	Quantum     int     `yaml:"quantum,omitempty"`
	Processes   []Entry `yaml:"processes"`
}

// Entry is one process definition in a scenario file. ID is optional; missing
// ids are assigned positionally (p1, p2, ...).
type Entry struct {
	ID       string `yaml:"id,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Arrival  int    `yaml:"arrival"`
	Burst    int    `yaml:"burst"`
	Priority int    `yaml:"priority,omitempty"`
}

// Load reads and parses a scenario file, then validates it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario YAML and validates the process set.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the scenario for construction-time errors: an empty process
// list, an unknown default policy, and every per-process violation reported
// by model.ValidateSpecs.
func (f *File) Validate() error {
	var details []model.FieldError

	if len(f.Processes) == 0 {
		details = append(details, model.FieldError{Field: "processes", Message: "at least one process is required"})
	}
	if f.Policy != "" {
		if _, err := model.ParsePolicy(f.Policy); err != nil {
			details = append(details, model.FieldError{Field: "policy", Message: err.Error()})
		}
	}
	if f.Quantum < 0 {
		details = append(details, model.FieldError{Field: "quantum", Message: "quantum must be >= 0"})
	}
	details = append(details, model.ValidateSpecs(f.Specs())...)

	if len(details) > 0 {
		return model.NewValidationError("invalid scenario", details...)
	}
	return nil
}

// Specs converts the entries to process specs, assigning positional ids and
// names where missing.
func (f *File) Specs() []model.ProcessSpec {
	specs := make([]model.ProcessSpec, len(f.Processes))
	for i, e := range f.Processes {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("p%d", i+1)
		}
		name := e.Name
		if name == "" {
			name = id
		}
		specs[i] = model.ProcessSpec{
			ID:          id,
			Name:        name,
			ArrivalTime: e.Arrival,
			BurstTime:   e.Burst,
			Priority:    e.Priority,
		}
	}
	return specs
}

// DefaultPolicy returns the file's policy, or FCFS when unset. Validate has
// already rejected unknown values.
func (f *File) DefaultPolicy() model.Policy {
	if f.Policy == "" {
		return model.PolicyFCFS
	}
	p, err := model.ParsePolicy(f.Policy)
	if err != nil {
		return model.PolicyFCFS
	}
	return p
}

// Default returns the built-in demo scenario: four processes with staggered
// arrivals and mixed priorities.
func Default() *File {
	return &File{
		Name:        "classic-four",
		Description: "Four staggered arrivals with mixed priorities",
		Policy:      "FCFS",
		Quantum:     2,
		Processes: []Entry{
			{ID: "p1", Name: "P1", Arrival: 0, Burst: 8, Priority: 3},
			{ID: "p2", Name: "P2", Arrival: 1, Burst: 4, Priority: 1},
			{ID: "p3", Name: "P3", Arrival: 2, Burst: 9, Priority: 4},
			{ID: "p4", Name: "P4", Arrival: 3, Burst: 5, Priority: 2},
		},
	}
}
