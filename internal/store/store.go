package store

import (
	"context"

	"github.com/me/schedsim/pkg/model"
)

// Store defines the persistence layer for schedsim entities. Scenarios are
// reusable process sets; Runs are the records of individual simulations.
// Live snapshots are never persisted, only run records and, at completion,
// the final per-process results.
type Store interface {
	// Scenario CRUD
	CreateScenario(ctx context.Context, sc *model.Scenario) error
	GetScenario(ctx context.Context, id string) (*model.Scenario, error)
	ListScenarios(ctx context.Context, opts model.ListOptions) ([]*model.Scenario, int, error)
	UpdateScenario(ctx context.Context, sc *model.Scenario) error
	DeleteScenario(ctx context.Context, id string) error

	// Run operations
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error)
	UpdateRun(ctx context.Context, run *model.Run) error
	GetRunsByState(ctx context.Context, state model.RunState) ([]*model.Run, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
