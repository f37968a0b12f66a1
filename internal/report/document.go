package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

// Document is the on-disk form of a completed run.
type Document struct {
	Scenario string                  `json:"scenario,omitempty"`
	Seed     int64                   `json:"seed"`
	Config   config.SimulationConfig `json:"config"`
	Metrics  []engine.TickMetric     `json:"metrics"`
	Events   []engine.Event          `json:"events"`
	Summary  engine.Summary          `json:"summary"`
}

// NewDocument builds a Document from an engine result.
func NewDocument(scenario string, cfg config.SimulationConfig, res engine.Result) Document {
	return Document{
		Scenario: scenario,
		Seed:     res.Seed,
		Config:   cfg,
		Metrics:  res.Metrics,
		Events:   res.Events,
		Summary:  res.Summary,
	}
}

// Input returns the comparison view of the document.
func (d Document) Input() RunInput {
	return RunInput{Config: d.Config, Summary: d.Summary}
}

// WriteDocument writes d as indented JSON.
func WriteDocument(path string, d Document) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// ReadDocument loads a document written by WriteDocument and validates its
// configuration.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read result: %w", err)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("decode result %s: %w", path, err)
	}
	if err := d.Config.Validate(); err != nil {
		return Document{}, fmt.Errorf("result %s: %w", path, err)
	}
	return d, nil
}
