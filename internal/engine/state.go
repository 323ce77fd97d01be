package engine

import (
	"github.com/zombiotrack/zombiotrack/internal/domain/building"
	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
)

// ActionStart is the label carried by a freshly created state before any
// mutating operation has run.
const ActionStart = "START"

// State is one immutable-per-turn snapshot of the simulation. The engine
// never mutates a State it has handed out; every operation derives a new,
// fully independent value.
type State struct {
	Turn              int
	Building          *building.Building
	Infected          infection.Map
	LastAction        string
	LastActionPayload map[string]any

	// InfectionEventsLog is the append-only audit trail of the engine's
	// propagation decisions: one delta batch per step, never pruned.
	InfectionEventsLog []infection.Batch
}

// NewState creates a turn-zero state over the given building. A nil infected
// map is treated as empty.
func NewState(b *building.Building, infected infection.Map) *State {
	if infected == nil {
		infected = make(infection.Map)
	}
	return &State{
		Building:          b,
		Infected:          infected,
		LastAction:        ActionStart,
		LastActionPayload: map[string]any{},
	}
}

// Clone returns a deep copy sharing no mutable structure with the receiver.
func (s *State) Clone() *State {
	payload := make(map[string]any, len(s.LastActionPayload))
	for k, v := range s.LastActionPayload {
		payload[k] = v
	}

	log := make([]infection.Batch, len(s.InfectionEventsLog))
	for i, batch := range s.InfectionEventsLog {
		log[i] = batch.Clone()
	}

	return &State{
		Turn:               s.Turn,
		Building:           s.Building.Clone(),
		Infected:           s.Infected.Clone(),
		LastAction:         s.LastAction,
		LastActionPayload:  payload,
		InfectionEventsLog: log,
	}
}
