package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zombiotrack.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadEmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.FloorsCount != 3 || cfg.RoomsPerFloor != 4 {
		t.Errorf("unexpected default shape %dx%d", cfg.FloorsCount, cfg.RoomsPerFloor)
	}
	if cfg.InfectionProbability != 0.5 {
		t.Errorf("unexpected default probability %g", cfg.InfectionProbability)
	}
	if cfg.Tuning.ClientSendBuffer <= 0 {
		t.Errorf("tuning defaults not applied")
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
floors_count: 5
rooms_per_floor: 2
stochastic: true
infection_probability: 0.25
seed: 99
step_interval_seconds: 2
infected:
  - {floor: 0, room: 0, count: 3}
  - {floor: 4, room: 1, count: 1}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.FloorsCount != 5 || cfg.RoomsPerFloor != 2 {
		t.Errorf("shape not loaded: %dx%d", cfg.FloorsCount, cfg.RoomsPerFloor)
	}
	if !cfg.Stochastic || cfg.Seed != 99 {
		t.Errorf("mode not loaded: stochastic=%v seed=%d", cfg.Stochastic, cfg.Seed)
	}
	if cfg.StepInterval() != 2*time.Second {
		t.Errorf("step interval not parsed: %v", cfg.StepInterval())
	}
	if len(cfg.Infected) != 2 || cfg.Infected[0].Count != 3 {
		t.Errorf("infected seeds not loaded: %+v", cfg.Infected)
	}
	// Unset knobs fall back to defaults.
	if cfg.ListenAddr != ":8080" || cfg.Tuning.BroadcastBuffer <= 0 {
		t.Errorf("normalization missing: addr=%q tuning=%+v", cfg.ListenAddr, cfg.Tuning)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero floors":     "floors_count: 0\nrooms_per_floor: 2\n",
		"bad probability": "infection_probability: 1.5\n",
		"seed oob":        "floors_count: 2\nrooms_per_floor: 2\ninfected:\n  - {floor: 5, room: 0, count: 1}\n",
		"negative count":  "infected:\n  - {floor: 0, room: 0, count: -2}\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected validation error", name)
		} else if !strings.Contains(err.Error(), "zombiotrack.yaml") {
			t.Errorf("%s: error should name the config file, got %v", name, err)
		}
	}
}
