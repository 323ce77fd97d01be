// Package config loads the simulation configuration from YAML, applying
// defaults and validating the result before anything touches the engine.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedSpec places an initial zombie population at a coordinate.
type SeedSpec struct {
	Floor int `yaml:"floor"`
	Room  int `yaml:"room"`
	Count int `yaml:"count"`
}

// Tuning holds channel and rate knobs consumed by the network layer.
type Tuning struct {
	ClientSendBuffer   int `yaml:"client_send_buffer"`
	BroadcastBuffer    int `yaml:"broadcast_buffer"`
	CommandRateLimitMs int `yaml:"command_rate_limit_ms"`
	MaxObserverClients int `yaml:"max_observer_clients"`
}

// CommandRateLimit returns the per-client command rate limit.
func (t Tuning) CommandRateLimit() time.Duration {
	return time.Duration(t.CommandRateLimitMs) * time.Millisecond
}

// Config is the full simulation host configuration.
type Config struct {
	FloorsCount          int        `yaml:"floors_count"`
	RoomsPerFloor        int        `yaml:"rooms_per_floor"`
	Stochastic           bool       `yaml:"stochastic"`
	InfectionProbability float64    `yaml:"infection_probability"`
	Seed                 int64      `yaml:"seed"` // 0 = time-based
	Infected             []SeedSpec `yaml:"infected,omitempty"`

	DataDir             string `yaml:"data_dir"`
	DBPath              string `yaml:"db_path"`
	ListenAddr          string `yaml:"listen_addr"`
	StepIntervalSeconds int    `yaml:"step_interval_seconds"` // 0 = manual stepping only
	ArchiveDir          string `yaml:"archive_dir,omitempty"`

	Tuning Tuning `yaml:"tuning"`
}

// Load reads the YAML file at path. An empty path yields pure defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("zombiotrack.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("zombiotrack.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		FloorsCount:          3,
		RoomsPerFloor:        4,
		Stochastic:           false,
		InfectionProbability: 0.5,
		DataDir:              "data",
		DBPath:               "data/zombiotrack.db",
		ListenAddr:           ":8080",
		Tuning: Tuning{
			ClientSendBuffer:   256,
			BroadcastBuffer:    64,
			CommandRateLimitMs: 200,
			MaxObserverClients: 200,
		},
	}
}

// Normalize fills zero-valued tuning knobs with defaults so a partial YAML
// document never yields unbuffered channels.
func (c *Config) Normalize() {
	d := defaults()
	if c.Tuning.ClientSendBuffer <= 0 {
		c.Tuning.ClientSendBuffer = d.Tuning.ClientSendBuffer
	}
	if c.Tuning.BroadcastBuffer <= 0 {
		c.Tuning.BroadcastBuffer = d.Tuning.BroadcastBuffer
	}
	if c.Tuning.CommandRateLimitMs <= 0 {
		c.Tuning.CommandRateLimitMs = d.Tuning.CommandRateLimitMs
	}
	if c.Tuning.MaxObserverClients <= 0 {
		c.Tuning.MaxObserverClients = d.Tuning.MaxObserverClients
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = d.DataDir
	}
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = d.DBPath
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = d.ListenAddr
	}
}

// Validate rejects configurations the engine would refuse anyway, before
// any session state is created.
func (c *Config) Validate() error {
	if c.FloorsCount <= 0 {
		return fmt.Errorf("floors_count must be > 0, got %d", c.FloorsCount)
	}
	if c.RoomsPerFloor <= 0 {
		return fmt.Errorf("rooms_per_floor must be > 0, got %d", c.RoomsPerFloor)
	}
	if c.InfectionProbability < 0 || c.InfectionProbability > 1 {
		return fmt.Errorf("infection_probability must be in [0,1], got %g", c.InfectionProbability)
	}
	for _, s := range c.Infected {
		if s.Floor < 0 || s.Floor >= c.FloorsCount || s.Room < 0 || s.Room >= c.RoomsPerFloor {
			return fmt.Errorf("infected seed (%d,%d) outside %dx%d building",
				s.Floor, s.Room, c.FloorsCount, c.RoomsPerFloor)
		}
		if s.Count < 0 {
			return fmt.Errorf("infected seed (%d,%d) has negative count %d", s.Floor, s.Room, s.Count)
		}
	}
	if c.StepIntervalSeconds < 0 {
		return fmt.Errorf("step_interval_seconds must not be negative")
	}
	return nil
}

// StepInterval returns the auto-step cadence, zero when manual.
func (c *Config) StepInterval() time.Duration {
	return time.Duration(c.StepIntervalSeconds) * time.Second
}
