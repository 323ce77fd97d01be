package engine

import (
	"errors"
	"math/rand"
	"time"
)

// DefaultInfectionProbability is the chance, per eligible neighbor, that a
// stochastic-mode seed hands out any spread at all.
const DefaultInfectionProbability = 0.5

var (
	// ErrOutOfBounds rejects a room operation outside the current building
	// shape. The state is left unchanged.
	ErrOutOfBounds = errors.New("engine: floor/room out of bounds")

	// ErrUnknownAction rejects a step-level action code that is not in the
	// registry. Unregistered codes fail fast instead of masking caller typos.
	ErrUnknownAction = errors.New("engine: unregistered step action code")

	// ErrContractViolation signals a broken internal invariant, such as a
	// blocked or out-of-bounds seed inside the engine's own infection map.
	ErrContractViolation = errors.New("engine: internal contract violation")
)

// Environment owns one working copy of the simulation state and derives new
// snapshots from it. It is single-threaded: every operation is a pure
// computation over a snapshot and completes before returning.
type Environment struct {
	state       *State
	stochastic  bool
	probability float64
	rng         *rand.Rand
	actions     map[int]stepAction
}

// NewEnvironment creates an environment owning an independent deep copy of
// initial. Sensors are synchronized with the infection map so that every
// room with a positive zombie count reports alert before the first step.
func NewEnvironment(initial *State, stochastic bool) *Environment {
	state := initial.Clone()
	syncSensors(state)

	return &Environment{
		state:       state,
		stochastic:  stochastic,
		probability: DefaultInfectionProbability,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		actions:     registeredActions(),
	}
}

// Seed replaces the random source with a deterministic one. Tests fix the
// seed to assert exact stochastic outputs.
func (e *Environment) Seed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
}

// SetInfectionProbability overrides the per-neighbor spread probability
// used in stochastic mode.
func (e *Environment) SetInfectionProbability(p float64) {
	e.probability = p
}

// Stochastic reports which propagation mode the environment runs in.
func (e *Environment) Stochastic() bool {
	return e.stochastic
}

// State returns an independent copy of the environment's current state.
func (e *Environment) State() *State {
	return e.state.Clone()
}

// commit records the action on the draft, atomically replaces the retained
// state, and hands the draft to the caller. The retained copy and the
// returned value share no mutable structure.
func (e *Environment) commit(draft *State, action string, payload map[string]any) *State {
	draft.LastAction = action
	draft.LastActionPayload = payload
	e.state = draft.Clone()
	return draft
}

// syncSensors establishes the bootstrap invariant: an infected room is never
// reported by a normal sensor.
func syncSensors(s *State) {
	for coord, attrs := range s.Infected {
		if attrs.ZombieCount <= 0 {
			continue
		}
		if room := s.Building.Room(coord.Floor, coord.Room); room != nil {
			room.Sensor.Trigger()
		}
	}
}
