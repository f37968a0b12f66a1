package api

import (
	"fmt"
	"net/http"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/logging"
	"github.com/jhaugland01/ReliabilitySim/internal/report"
	"github.com/jhaugland01/ReliabilitySim/internal/scenario"
	"github.com/jhaugland01/ReliabilitySim/internal/sim"
	"github.com/jhaugland01/ReliabilitySim/internal/store"
)

const (
	modeLive    = "live"
	modeInstant = "instant"
)

type startRequest struct {
	ScenarioID string `json:"scenarioId"`
	Seed       *int64 `json:"seed,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

type startResponse struct {
	RunID  string          `json:"runId"`
	Seed   int64           `json:"seed"`
	Status store.RunStatus `json:"status"`
	Run    *store.Run      `json:"run,omitempty"`
}

type compareRequest struct {
	RunIDA string `json:"runIdA"`
	RunIDB string `json:"runIdB"`
}

type runView struct {
	store.Run
	Scenario scenario.Scenario `json:"scenario"`
}

type compareResponse struct {
	RunA runView `json:"runA"`
	RunB runView `json:"runB"`
	report.Comparison
}

// handleStartRun records a new run. A live run waits for a stream to drive
// it; an instant run is advanced to completion before responding.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = modeLive
	}
	if mode != modeLive && mode != modeInstant {
		s.writeError(w, r, fmt.Errorf("%w: mode must be %q or %q", errBadRequest, modeLive, modeInstant))
		return
	}
	if req.ScenarioID == "" {
		s.writeError(w, r, fmt.Errorf("%w: scenarioId is required", errBadRequest))
		return
	}

	ctx := r.Context()
	sc, err := s.store.GetScenario(ctx, req.ScenarioID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var opts []engine.Option
	if req.Seed != nil {
		opts = append(opts, engine.WithSeed(*req.Seed))
	}
	eng, err := engine.New(sc.Config, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	run := store.Run{
		ID:           s.newID(),
		ScenarioID:   sc.ID,
		Seed:         eng.Seed(),
		Status:       store.StatusRunning,
		Duration:     sc.Config.Duration,
		TickInterval: sc.Config.TickInterval,
		StartedAt:    s.now().UTC(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.runsStarted.WithLabelValues(mode).Inc()
	s.log.Info("run created", "run_id", run.ID, "scenario_id", sc.ID, "seed", run.Seed, "mode", mode)

	if mode == modeLive {
		writeJSON(w, http.StatusCreated, startResponse{RunID: run.ID, Seed: run.Seed, Status: run.Status})
		return
	}

	runner := sim.NewRunner(run.ID, eng, sim.NewStoreWriter(ctx, s.store, run.ID), 0)
	if err := runner.Run(logging.NewContext(ctx, s.log)); err != nil {
		// A run that stopped without a stored summary never completes.
		s.markCancelled(ctx, run.ID)
		s.writeError(w, r, err)
		return
	}
	s.metrics.runsCompleted.Inc()
	done, err := s.store.GetRun(ctx, run.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, startResponse{RunID: done.ID, Seed: done.Seed, Status: done.Status, Run: &done})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), r.PathValue("scenarioId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleCompareRuns(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.completedRun(r, req.RunIDA)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.completedRun(r, req.RunIDB)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cmp := report.Compare(
		report.RunInput{Config: a.Scenario.Config, Summary: *a.Summary},
		report.RunInput{Config: b.Scenario.Config, Summary: *b.Summary},
	)
	writeJSON(w, http.StatusOK, compareResponse{RunA: a, RunB: b, Comparison: cmp})
}

func (s *Server) completedRun(r *http.Request, id string) (runView, error) {
	if id == "" {
		return runView{}, fmt.Errorf("%w: runIdA and runIdB are required", errBadRequest)
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		return runView{}, err
	}
	if run.Summary == nil {
		return runView{}, fmt.Errorf("%w: run %s has not completed", errConflict, id)
	}
	sc, err := s.store.GetScenario(r.Context(), run.ScenarioID)
	if err != nil {
		return runView{}, err
	}
	return runView{Run: run, Scenario: sc}, nil
}
