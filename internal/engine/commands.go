package engine

import (
	"fmt"

	"github.com/zombiotrack/zombiotrack/internal/domain/building"
	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
)

// checkRoomOp validates a caller-supplied coordinate against the current
// building shape. Failures reject the operation with no state mutated.
func checkRoomOp(s *State, floor, room int) error {
	if floor < 0 || floor >= s.Building.FloorsCount || room < 0 || room >= s.Building.RoomsPerFloor {
		return fmt.Errorf("%w: (%d,%d) in %dx%d building",
			ErrOutOfBounds, floor, room, s.Building.FloorsCount, s.Building.RoomsPerFloor)
	}
	if !s.Building.RoomExists(floor, room) {
		return fmt.Errorf("%w: room (%d,%d) does not exist", ErrOutOfBounds, floor, room)
	}
	return nil
}

// CleanRoom removes the coordinate from the infection map entirely. The
// room's sensor is untouched; an alert persists until explicitly reset.
// Cleaning an already-clean room is a no-op.
func (e *Environment) CleanRoom(floor, room int) (*State, error) {
	draft := e.state.Clone()
	if err := checkRoomOp(draft, floor, room); err != nil {
		return nil, err
	}

	delete(draft.Infected, infection.Coord{Floor: floor, Room: room})

	return e.commit(draft, ActionCleanRoom, map[string]any{
		"floor": floor,
		"room":  room,
	}), nil
}

// ResetSensor returns the room's sensor to normal, independent of the
// room's infection status. A later propagation that re-infects the room
// sets it back to alert.
func (e *Environment) ResetSensor(floor, room int) (*State, error) {
	draft := e.state.Clone()
	if err := checkRoomOp(draft, floor, room); err != nil {
		return nil, err
	}

	draft.Building.Room(floor, room).Sensor.Reset()

	return e.commit(draft, ActionResetSensor, map[string]any{
		"floor": floor,
		"room":  room,
	}), nil
}

// BlockRoom seals a room: it can neither originate nor receive spread.
// Blocking freezes the room's recorded infection, it does not clean it.
func (e *Environment) BlockRoom(floor, room int) (*State, error) {
	draft := e.state.Clone()
	if err := checkRoomOp(draft, floor, room); err != nil {
		return nil, err
	}

	draft.Building.Room(floor, room).Blocked = true

	return e.commit(draft, ActionBlockRoom, map[string]any{
		"floor": floor,
		"room":  room,
	}), nil
}

// UnblockRoom clears the room's blocked flag with no other observable change.
func (e *Environment) UnblockRoom(floor, room int) (*State, error) {
	draft := e.state.Clone()
	if err := checkRoomOp(draft, floor, room); err != nil {
		return nil, err
	}

	draft.Building.Room(floor, room).Blocked = false

	return e.commit(draft, ActionUnblockRoom, map[string]any{
		"floor": floor,
		"room":  room,
	}), nil
}

// ResizeBuilding grows or shrinks the building in place. Rooms discarded by
// a shrink take their infection entries with them; rooms added by a grow
// start fresh. Surviving rooms keep their blocked flags and sensor states.
func (e *Environment) ResizeBuilding(newFloors, newRooms int) (*State, error) {
	draft := e.state.Clone()
	if err := draft.Building.Resize(newFloors, newRooms); err != nil {
		return nil, err
	}

	for coord := range draft.Infected {
		if !draft.Building.RoomExists(coord.Floor, coord.Room) {
			delete(draft.Infected, coord)
		}
	}

	return e.commit(draft, ActionResizeBuilding, map[string]any{
		"floors_count":    newFloors,
		"rooms_per_floor": newRooms,
	}), nil
}

// ResetSimulation rebuilds the building from the current shape with fresh
// rooms and sensors, sets the turn back to zero, and installs either the
// supplied seed infection map or an empty one. The pre-reset infection map
// is never reused implicitly.
func (e *Environment) ResetSimulation(preserveInfected infection.Map) (*State, error) {
	b, err := building.FromGridSpec(e.state.Building.FloorsCount, e.state.Building.RoomsPerFloor)
	if err != nil {
		return nil, err
	}

	var seed infection.Map
	if preserveInfected != nil {
		seed = preserveInfected.Clone()
	}

	draft := NewState(b, seed)
	draft.InfectionEventsLog = []infection.Batch{}
	syncSensors(draft)

	return e.commit(draft, ActionResetSimulation, map[string]any{
		"preserve_infected": preserveInfected != nil,
	}), nil
}
