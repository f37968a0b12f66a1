package scenario

import (
	"errors"
	"testing"
	"time"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
)

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "example" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if sc.Description != "basic test scenario" {
		t.Fatalf("unexpected description %s", sc.Description)
	}
	if sc.Config.TickInterval != 500 || sc.Config.Retry.BackoffType != config.BackoffExponential {
		t.Fatalf("unexpected config %+v", sc.Config)
	}
	if !sc.Config.CircuitBreaker.Enabled || sc.Config.CircuitBreaker.WindowTicks != 4 {
		t.Fatalf("unexpected breaker %+v", sc.Config.CircuitBreaker)
	}
}

func TestLoadScenarioRejectsInvalidWindow(t *testing.T) {
	_, err := Load("testdata/invalid.yaml")
	var ve *config.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != "circuitBreaker.windowTicks" {
		t.Fatalf("field = %s", ve.Field)
	}
}

func TestParseRequiresName(t *testing.T) {
	if _, err := Parse([]byte("config:\n  rps: 1\n  duration: 1\n  tick_interval: 100\n  capacity: 1\n  base_failure_probability: 0\n")); err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestBuiltInPresets(t *testing.T) {
	presets := BuiltIn()
	names := []string{"healthy-system", "retry-storm", "circuit-breaker-saves-you", "capacity-saturation", "network-spike"}
	if len(presets) != len(names) {
		t.Fatalf("expected %d presets, got %d", len(names), len(presets))
	}
	for _, n := range names {
		p, ok := presets[n]
		if !ok {
			t.Fatalf("preset %s not found", n)
		}
		if p.Description == "" {
			t.Fatalf("preset %s missing description", n)
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("preset %s invalid: %v", n, err)
		}
		if p.Config.TotalTicks() != 120 {
			t.Fatalf("preset %s has %d ticks", n, p.Config.TotalTicks())
		}
	}
	if presets["retry-storm"].Config.CircuitBreaker.Enabled {
		t.Fatalf("retry storm preset must run without a breaker")
	}
}

func TestPresetLookup(t *testing.T) {
	if _, err := Preset("healthy-system"); err != nil {
		t.Fatalf("Preset: %v", err)
	}
	if _, err := Preset("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
	keys := PresetKeys()
	if keys[0] != "capacity-saturation" {
		t.Fatalf("keys not sorted: %v", keys)
	}
}

func TestDuplicate(t *testing.T) {
	orig := BuiltIn()["network-spike"]
	orig.ID = "a1"
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	dup := Duplicate(orig, "b2", now)
	if dup.ID != "b2" || dup.Name != "Network Spike (copy)" {
		t.Fatalf("unexpected duplicate %+v", dup)
	}
	if dup.Config != orig.Config {
		t.Fatalf("config not copied")
	}
	if !dup.CreatedAt.Equal(now) || !dup.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not set")
	}
}
