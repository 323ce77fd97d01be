package engine

import "fmt"

// Step-level action codes. The registry is a closed table: adding an action
// means adding a constant and a registeredActions entry, checked at compile
// time, not a dynamic lookup.
const (
	// DoNothing is the default no-op step action.
	DoNothing = 0
)

// Labels recorded as LastAction on returned states.
const (
	ActionSpreadInfection = "spread_infection"
	ActionCleanRoom       = "clean_room"
	ActionResetSensor     = "reset_sensor"
	ActionBlockRoom       = "block_room"
	ActionUnblockRoom     = "unblock_room"
	ActionResizeBuilding  = "resize_building"
	ActionResetSimulation = "reset_simulation"
)

// stepAction mutates the draft state before propagation runs.
type stepAction struct {
	name  string
	apply func(*State)
}

func registeredActions() map[int]stepAction {
	return map[int]stepAction{
		DoNothing: {name: "do_nothing", apply: func(*State) {}},
	}
}

// Step advances the simulation by one turn: the turn counter increments by
// exactly one, the requested step-level action (if any) mutates the draft,
// and propagation runs exactly once. The caller-held input is untouched.
func (e *Environment) Step(action int) (*State, error) {
	if action != DoNothing {
		if _, ok := e.actions[action]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownAction, action)
		}
	}

	draft := e.state.Clone()
	draft.Turn++

	if action != DoNothing {
		e.actions[action].apply(draft)
	}

	if err := e.spreadInfection(draft); err != nil {
		return nil, err
	}

	return e.commit(draft, ActionSpreadInfection, map[string]any{
		"stochastic": e.stochastic,
	}), nil
}
