package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/scenario"
)

// MemoryStore keeps everything in process memory. It is safe for concurrent
// use and hands out copies.
type MemoryStore struct {
	mu        sync.RWMutex
	scenarios map[string]scenario.Scenario
	runs      map[string]*Run
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenarios: make(map[string]scenario.Scenario),
		runs:      make(map[string]*Run),
	}
}

func (m *MemoryStore) SaveScenario(_ context.Context, s scenario.Scenario) error {
	if s.ID == "" {
		return fmt.Errorf("save scenario: empty id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.ID] = s
	return nil
}

func (m *MemoryStore) GetScenario(_ context.Context, id string) (scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[id]
	if !ok {
		return scenario.Scenario{}, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *MemoryStore) ListScenarios(_ context.Context) ([]scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scenario.Scenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteScenario(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenarios[id]; !ok {
		return fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	delete(m.scenarios, id)
	for rid, r := range m.runs {
		if r.ScenarioID == id {
			delete(m.runs, rid)
		}
	}
	return nil
}

func (m *MemoryStore) CreateRun(_ context.Context, r Run) error {
	if r.ID == "" {
		return fmt.Errorf("create run: empty id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[r.ID]; ok {
		return fmt.Errorf("create run: %s already exists", r.ID)
	}
	cp := copyRun(r, true)
	m.runs[r.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRun(_ context.Context, id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return copyRun(*r, true), nil
}

func (m *MemoryStore) ListRuns(_ context.Context, scenarioID string) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Run
	for _, r := range m.runs {
		if r.ScenarioID == scenarioID {
			out = append(out, copyRun(*r, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (m *MemoryStore) AppendMetrics(_ context.Context, runID string, metrics []engine.TickMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	r.Metrics = append(r.Metrics, metrics...)
	return nil
}

func (m *MemoryStore) AppendEvents(_ context.Context, runID string, events []engine.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	r.Events = append(r.Events, events...)
	return nil
}

func (m *MemoryStore) CompleteRun(_ context.Context, runID string, summary engine.Summary, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	r.Status = StatusCompleted
	r.Summary = &summary
	r.CompletedAt = &at
	return nil
}

func (m *MemoryStore) SetRunStatus(_ context.Context, runID string, status RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	r.Status = status
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func copyRun(r Run, withSeries bool) Run {
	cp := r
	if r.Summary != nil {
		s := *r.Summary
		cp.Summary = &s
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	cp.Metrics = []engine.TickMetric{}
	cp.Events = []engine.Event{}
	if withSeries {
		cp.Metrics = append(cp.Metrics, r.Metrics...)
		cp.Events = append(cp.Events, r.Events...)
	}
	return cp
}

var _ Store = (*MemoryStore)(nil)
