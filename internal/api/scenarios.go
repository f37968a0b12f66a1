package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/scenario"
	"github.com/jhaugland01/ReliabilitySim/internal/store"
)

type scenarioRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Config      config.SimulationConfig `json:"config"`
}

type presetView struct {
	Key string `json:"key"`
	scenario.Scenario
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	builtIn := scenario.BuiltIn()
	out := make([]presetView, 0, len(builtIn))
	for _, key := range scenario.PresetKeys() {
		out = append(out, presetView{Key: key, Scenario: builtIn[key]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListScenarios(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []scenario.Scenario{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.GetScenario(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.now().UTC()
	sc := scenario.Scenario{
		ID:          s.newID(),
		Name:        req.Name,
		Description: req.Description,
		Config:      req.Config,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := sc.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveScenario(r.Context(), sc); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("scenario created", "scenario_id", sc.ID, "name", sc.Name)
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := s.store.GetScenario(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc.Name = req.Name
	sc.Description = req.Description
	sc.Config = req.Config
	sc.UpdatedAt = s.now().UTC()
	if err := sc.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveScenario(r.Context(), sc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteScenario(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("scenario deleted", "scenario_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateScenario(w http.ResponseWriter, r *http.Request) {
	orig, err := s.store.GetScenario(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dup := scenario.Duplicate(orig, s.newID(), s.now().UTC())
	if err := s.store.SaveScenario(r.Context(), dup); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

// SeedPresets stores every built-in scenario under its preset key. Presets
// that already exist are left alone.
func (s *Server) SeedPresets(ctx context.Context) error {
	now := s.now().UTC()
	builtIn := scenario.BuiltIn()
	for _, key := range scenario.PresetKeys() {
		_, err := s.store.GetScenario(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		sc := builtIn[key]
		sc.ID = key
		sc.CreatedAt = now
		sc.UpdatedAt = now
		if err := s.store.SaveScenario(ctx, sc); err != nil {
			return fmt.Errorf("seed preset %s: %w", key, err)
		}
	}
	s.log.Info("presets seeded", "count", len(builtIn))
	return nil
}
