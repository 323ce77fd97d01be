// Package session ties one simulation environment to its event log and
// persistence. All mutations of a session go through here so every action
// leaves an event record and an up-to-date state document.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/zombiotrack/zombiotrack/internal/config"
	"github.com/zombiotrack/zombiotrack/internal/domain/building"
	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
	"github.com/zombiotrack/zombiotrack/internal/engine"
	"github.com/zombiotrack/zombiotrack/internal/events"
	"github.com/zombiotrack/zombiotrack/internal/infra/statefile"
	"github.com/zombiotrack/zombiotrack/internal/infra/storage"
	"github.com/zombiotrack/zombiotrack/internal/platform/logger"
	"github.com/zombiotrack/zombiotrack/internal/platform/metrics"
)

// StateStore persists the session's current state document.
type StateStore interface {
	Save(sessionID string, st *engine.State) error
	Load(sessionID string) (*engine.State, error)
}

// Options wires a session's collaborators. Env and Events are required;
// the rest are optional.
type Options struct {
	ID        string
	Env       *engine.Environment
	Events    *events.Log
	States    StateStore
	Snapshots storage.SessionRepository
	Logger    *logger.Logger
}

// Session is the single entry point for mutating one running simulation.
type Session struct {
	id        string
	env       *engine.Environment
	events    *events.Log
	states    StateStore
	snapshots storage.SessionRepository
	logger    *logger.Logger
	metrics   *metrics.Collector
}

func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger()
	}
	return &Session{
		id:        opts.ID,
		env:       opts.Env,
		events:    opts.Events,
		states:    opts.States,
		snapshots: opts.Snapshots,
		logger:    opts.Logger,
		metrics:   metrics.Get(),
	}
}

// FromConfig builds a fresh session from a host configuration: a new
// building, the configured seed infections, and a SESSION_CONFIGURED event.
func FromConfig(cfg config.Config, opts Options) (*Session, error) {
	b, err := building.FromGridSpec(cfg.FloorsCount, cfg.RoomsPerFloor)
	if err != nil {
		return nil, err
	}
	infected := make(infection.Map, len(cfg.Infected))
	for _, seed := range cfg.Infected {
		infected[infection.Coord{Floor: seed.Floor, Room: seed.Room}] = infection.Attributes{ZombieCount: seed.Count}
	}

	env := engine.NewEnvironment(engine.NewState(b, infected), cfg.Stochastic)
	env.SetInfectionProbability(cfg.InfectionProbability)
	if cfg.Seed != 0 {
		env.Seed(cfg.Seed)
	}

	if opts.ID == "" {
		opts.ID = statefile.NewSessionID()
	}
	opts.Env = env
	s := New(opts)

	s.emit(events.EventTypeConfigured, 0, map[string]any{
		"floors_count":    cfg.FloorsCount,
		"rooms_per_floor": cfg.RoomsPerFloor,
		"stochastic":      cfg.Stochastic,
		"seeded_rooms":    len(cfg.Infected),
	})
	if err := s.persist(); err != nil {
		return nil, err
	}
	s.logger.Event(string(events.EventTypeConfigured), s.id,
		fmt.Sprintf("%dx%d building, %d seeded rooms", cfg.FloorsCount, cfg.RoomsPerFloor, len(cfg.Infected)))
	return s, nil
}

// Resume rebuilds a session from its persisted state document.
func Resume(opts Options, stochastic bool) (*Session, error) {
	if opts.States == nil {
		return nil, fmt.Errorf("session: resume requires a state store")
	}
	st, err := opts.States.Load(opts.ID)
	if err != nil {
		return nil, err
	}
	opts.Env = engine.NewEnvironment(st, stochastic)
	return New(opts), nil
}

func (s *Session) ID() string { return s.id }

// State returns a snapshot of the current simulation state.
func (s *Session) State() *engine.State { return s.env.State() }

// Env exposes the underlying environment for read-only configuration
// queries; mutations must go through Session methods.
func (s *Session) Env() *engine.Environment { return s.env }

// Step advances the simulation one turn and spreads the infection.
func (s *Session) Step() (*engine.State, error) {
	before := s.env.State()
	start := time.Now()

	st, err := s.env.Step(engine.DoNothing)
	if err != nil {
		return nil, err
	}

	deltas := 0
	if n := len(st.InfectionEventsLog); n > 0 {
		deltas = len(st.InfectionEventsLog[n-1])
	}
	triggered := alertCount(st) - alertCount(before)
	if triggered < 0 {
		triggered = 0
	}
	s.metrics.RecordStep(time.Since(start), deltas, triggered)

	s.emit(events.EventTypeInfectionSpread, st.Turn, map[string]any{
		"deltas":            deltas,
		"sensors_triggered": triggered,
		"infected_rooms":    len(st.Infected),
	})
	return st, s.persist()
}

// CleanRoom removes all zombies from a room.
func (s *Session) CleanRoom(floor, room int) (*engine.State, error) {
	return s.roomCommand(events.EventTypeRoomCleaned, floor, room, s.env.CleanRoom)
}

// ResetSensor returns a room's sensor to normal.
func (s *Session) ResetSensor(floor, room int) (*engine.State, error) {
	return s.roomCommand(events.EventTypeSensorReset, floor, room, s.env.ResetSensor)
}

// BlockRoom excludes a room from infection propagation.
func (s *Session) BlockRoom(floor, room int) (*engine.State, error) {
	return s.roomCommand(events.EventTypeRoomBlocked, floor, room, s.env.BlockRoom)
}

// UnblockRoom readmits a room to infection propagation.
func (s *Session) UnblockRoom(floor, room int) (*engine.State, error) {
	return s.roomCommand(events.EventTypeRoomUnblocked, floor, room, s.env.UnblockRoom)
}

func (s *Session) roomCommand(evType events.EventType, floor, room int, op func(int, int) (*engine.State, error)) (*engine.State, error) {
	st, err := op(floor, room)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRoomCommand()
	s.emit(evType, st.Turn, map[string]any{"floor": floor, "room": room})
	return st, s.persist()
}

// Resize changes the building's shape, discarding rooms (and their
// infections) that fall outside the new bounds.
func (s *Session) Resize(floors, rooms int) (*engine.State, error) {
	st, err := s.env.ResizeBuilding(floors, rooms)
	if err != nil {
		return nil, err
	}
	s.emit(events.EventTypeResized, st.Turn, map[string]any{
		"floors_count":    floors,
		"rooms_per_floor": rooms,
	})
	return st, s.persist()
}

// Reset restarts the simulation at turn zero, optionally installing a new
// set of infection seeds.
func (s *Session) Reset(preserveInfected infection.Map) (*engine.State, error) {
	st, err := s.env.ResetSimulation(preserveInfected)
	if err != nil {
		return nil, err
	}
	s.emit(events.EventTypeSimReset, st.Turn, map[string]any{
		"preserve_infected": preserveInfected != nil,
	})
	return st, s.persist()
}

// Events returns the session's event log.
func (s *Session) Events() *events.Log { return s.events }

func (s *Session) emit(evType events.EventType, turn int, payload map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Append(events.SimEvent{
		ID:        events.GenerateEventID(),
		SessionID: s.id,
		Timestamp: time.Now().UTC(),
		Type:      evType,
		Turn:      turn,
		Payload:   payload,
	})
}

func (s *Session) persist() error {
	st := s.env.State()
	if s.states != nil {
		if err := s.states.Save(s.id, st); err != nil {
			return fmt.Errorf("session: saving state: %w", err)
		}
	}
	if s.snapshots != nil {
		doc, err := statefile.Encode(st)
		if err != nil {
			return fmt.Errorf("session: encoding snapshot: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.snapshots.Upsert(ctx, storage.SessionSnapshot{
			SessionID:     s.id,
			Turn:          st.Turn,
			FloorsCount:   st.Building.FloorsCount,
			RoomsPerFloor: st.Building.RoomsPerFloor,
			Stochastic:    s.env.Stochastic(),
			StateJSON:     string(doc),
			LastUpdated:   time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("session: upserting snapshot: %w", err)
		}
	}
	return nil
}

func alertCount(st *engine.State) int {
	n := 0
	for _, floor := range st.Building.Floors {
		for _, room := range floor.Rooms {
			if room.Sensor.Status == building.SensorAlert {
				n++
			}
		}
	}
	return n
}
