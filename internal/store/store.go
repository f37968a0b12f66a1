// Package store persists scenarios and simulation runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/scenario"
)

// ErrNotFound is returned when a scenario or run does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled"
)

// Run is the persisted record of one simulation run.
type Run struct {
	ID           string              `json:"id"`
	ScenarioID   string              `json:"scenario_id"`
	Seed         int64               `json:"seed"`
	Status       RunStatus           `json:"status"`
	Duration     float64             `json:"duration"`
	TickInterval int                 `json:"tick_interval"`
	Summary      *engine.Summary     `json:"summary"`
	Metrics      []engine.TickMetric `json:"metrics"`
	Events       []engine.Event      `json:"events"`
	StartedAt    time.Time           `json:"started_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// Store is the persistence boundary used by the driving layer and the API.
// The engine never depends on it.
type Store interface {
	// SaveScenario creates the scenario or replaces the one with the same ID.
	SaveScenario(ctx context.Context, s scenario.Scenario) error
	GetScenario(ctx context.Context, id string) (scenario.Scenario, error)
	// ListScenarios returns scenarios, most recently updated first.
	ListScenarios(ctx context.Context) ([]scenario.Scenario, error)
	// DeleteScenario removes the scenario and all of its runs.
	DeleteScenario(ctx context.Context, id string) error

	CreateRun(ctx context.Context, r Run) error
	// GetRun returns the run including its metrics and events.
	GetRun(ctx context.Context, id string) (Run, error)
	// ListRuns returns the runs of a scenario, newest first, without
	// metrics and events.
	ListRuns(ctx context.Context, scenarioID string) ([]Run, error)
	AppendMetrics(ctx context.Context, runID string, metrics []engine.TickMetric) error
	AppendEvents(ctx context.Context, runID string, events []engine.Event) error
	CompleteRun(ctx context.Context, runID string, summary engine.Summary, at time.Time) error
	SetRunStatus(ctx context.Context, runID string, status RunStatus) error

	Close() error
}

// Open returns the store selected by cfg.Driver. MySQL stores are migrated
// before they are returned.
func Open(ctx context.Context, cfg config.StoreSettings) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "mysql":
		s, err := OpenMySQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
