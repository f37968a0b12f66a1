package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
)

// Scenario is a named, reusable simulation configuration.
type Scenario struct {
	ID          string                  `json:"id" yaml:"id,omitempty"`
	Name        string                  `json:"name" yaml:"name"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Config      config.SimulationConfig `json:"config" yaml:"config"`
	CreatedAt   time.Time               `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time               `json:"updated_at" yaml:"-"`
}

// Validate checks the name and the embedded configuration.
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &config.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return s.Config.Validate()
}

// Load reads a YAML scenario document from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML scenario document after checking it against the
// scenario schema.
func Parse(b []byte) (*Scenario, error) {
	if err := config.ValidateYAML(b, config.DefScenario); err != nil {
		return nil, fmt.Errorf("scenario schema: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Duplicate returns a copy of s under a new id with " (copy)" appended to
// its name.
func Duplicate(s Scenario, id string, now time.Time) Scenario {
	dup := s
	dup.ID = id
	dup.Name = s.Name + " (copy)"
	dup.CreatedAt = now
	dup.UpdatedAt = now
	return dup
}

// ErrUnknownPreset is returned by Preset for a name that is not built in.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset looks up a built-in scenario by key.
func Preset(key string) (Scenario, error) {
	s, ok := BuiltIn()[key]
	if !ok {
		return Scenario{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownPreset, key, strings.Join(PresetKeys(), ", "))
	}
	return s, nil
}
