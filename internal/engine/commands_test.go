package engine

import (
	"errors"
	"testing"

	"github.com/zombiotrack/zombiotrack/internal/domain/building"
	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
)

func TestCleanRoomRemovesInfection(t *testing.T) {
	env := newTestEnv(t, 1, 1, infection.Map{coord(0, 0): {ZombieCount: 2}}, false)

	state, err := env.CleanRoom(0, 0)
	if err != nil {
		t.Fatalf("CleanRoom failed: %v", err)
	}

	if _, ok := state.Infected[coord(0, 0)]; ok {
		t.Errorf("cleaned coordinate should be removed from the infection map")
	}
	// Cleaning does not touch the sensor; the alert persists.
	if got := state.Building.Room(0, 0).Sensor.Status; got != building.SensorAlert {
		t.Errorf("sensor should stay alert after clean, got %s", got)
	}
	if state.LastAction != ActionCleanRoom {
		t.Errorf("expected last action %q, got %q", ActionCleanRoom, state.LastAction)
	}
	if state.LastActionPayload["floor"] != 0 || state.LastActionPayload["room"] != 0 {
		t.Errorf("payload should record the arguments, got %v", state.LastActionPayload)
	}
}

func TestCleanRoomIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 1, 1, infection.Map{coord(0, 0): {ZombieCount: 2}}, false)

	if _, err := env.CleanRoom(0, 0); err != nil {
		t.Fatalf("first clean failed: %v", err)
	}
	state, err := env.CleanRoom(0, 0)
	if err != nil {
		t.Fatalf("cleaning an already-clean room should not fail: %v", err)
	}
	if _, ok := state.Infected[coord(0, 0)]; ok {
		t.Errorf("coordinate should remain absent")
	}
}

func TestResetSensorIgnoresInfection(t *testing.T) {
	env := newTestEnv(t, 1, 1, infection.Map{coord(0, 0): {ZombieCount: 3}}, false)

	state, err := env.ResetSensor(0, 0)
	if err != nil {
		t.Fatalf("ResetSensor failed: %v", err)
	}

	if got := state.Building.Room(0, 0).Sensor.Status; got != building.SensorNormal {
		t.Errorf("sensor should be normal even while infected, got %s", got)
	}
	if got := state.Infected.Count(coord(0, 0)); got != 3 {
		t.Errorf("infection count must be untouched, got %d", got)
	}
}

func TestBlockThenUnblockRestoresRoom(t *testing.T) {
	env := newTestEnv(t, 1, 1, nil, false)

	before := env.State()
	if _, err := env.BlockRoom(0, 0); err != nil {
		t.Fatalf("BlockRoom failed: %v", err)
	}
	if !env.State().Building.Room(0, 0).Blocked {
		t.Fatalf("room should be blocked")
	}

	state, err := env.UnblockRoom(0, 0)
	if err != nil {
		t.Fatalf("UnblockRoom failed: %v", err)
	}
	if state.Building.Room(0, 0).Blocked {
		t.Errorf("room should be unblocked again")
	}
	if state.Building.Room(0, 0).Sensor.Status != before.Building.Room(0, 0).Sensor.Status {
		t.Errorf("block/unblock must have no other observable change")
	}
	if state.LastAction != ActionUnblockRoom {
		t.Errorf("expected last action %q, got %q", ActionUnblockRoom, state.LastAction)
	}
	if state.LastActionPayload["floor"] != 0 || state.LastActionPayload["room"] != 0 {
		t.Errorf("unblock payload should record the arguments, got %v", state.LastActionPayload)
	}
}

func TestRoomOpsRejectOutOfBounds(t *testing.T) {
	env := newTestEnv(t, 2, 2, infection.Map{coord(0, 0): {ZombieCount: 1}}, false)

	ops := map[string]func(int, int) (*State, error){
		"clean":        env.CleanRoom,
		"reset-sensor": env.ResetSensor,
		"block":        env.BlockRoom,
		"unblock":      env.UnblockRoom,
	}
	coords := [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {5, 5}}

	for name, op := range ops {
		for _, c := range coords {
			if _, err := op(c[0], c[1]); !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("%s(%d,%d): expected ErrOutOfBounds, got %v", name, c[0], c[1], err)
			}
		}
	}

	// Rejected operations leave the state unchanged.
	state := env.State()
	if state.Turn != 0 || state.LastAction != ActionStart {
		t.Errorf("bounds errors must not mutate the state: turn=%d action=%q", state.Turn, state.LastAction)
	}
}

func TestResizeBuildingShrinkPrunesInfection(t *testing.T) {
	env := newTestEnv(t, 3, 3, infection.Map{
		coord(0, 0): {ZombieCount: 2},
		coord(2, 2): {ZombieCount: 5},
	}, false)
	if _, err := env.BlockRoom(0, 1); err != nil {
		t.Fatalf("BlockRoom failed: %v", err)
	}

	state, err := env.ResizeBuilding(2, 2)
	if err != nil {
		t.Fatalf("ResizeBuilding failed: %v", err)
	}

	if state.Building.FloorsCount != 2 || state.Building.RoomsPerFloor != 2 {
		t.Errorf("expected 2x2 building, got %dx%d",
			state.Building.FloorsCount, state.Building.RoomsPerFloor)
	}
	if _, ok := state.Infected[coord(2, 2)]; ok {
		t.Errorf("infection outside the new bounds must be pruned")
	}
	if got := state.Infected.Count(coord(0, 0)); got != 2 {
		t.Errorf("surviving infection should be untouched, got %d", got)
	}
	// Surviving rooms keep their full state.
	if !state.Building.Room(0, 1).Blocked {
		t.Errorf("surviving room should stay blocked")
	}
	if got := state.Building.Room(0, 0).Sensor.Status; got != building.SensorAlert {
		t.Errorf("surviving seeded room should stay alert, got %s", got)
	}
	if state.LastAction != ActionResizeBuilding {
		t.Errorf("expected last action %q, got %q", ActionResizeBuilding, state.LastAction)
	}
	if state.LastActionPayload["floors_count"] != 2 || state.LastActionPayload["rooms_per_floor"] != 2 {
		t.Errorf("payload should record the new shape, got %v", state.LastActionPayload)
	}
}

func TestResizeBuildingGrowAddsFreshRooms(t *testing.T) {
	env := newTestEnv(t, 1, 1, infection.Map{coord(0, 0): {ZombieCount: 1}}, false)

	state, err := env.ResizeBuilding(2, 3)
	if err != nil {
		t.Fatalf("ResizeBuilding failed: %v", err)
	}

	if !state.Building.RoomExists(1, 2) {
		t.Fatalf("grown building should contain the new corner room")
	}
	room := state.Building.Room(1, 2)
	if room.Blocked || room.Sensor.Status != building.SensorNormal {
		t.Errorf("new rooms must start unblocked with normal sensors")
	}
	if got := state.Infected.Count(coord(0, 0)); got != 1 {
		t.Errorf("growing must not touch existing infection, got %d", got)
	}
}

func TestResizeBuildingRejectsInvalidShape(t *testing.T) {
	env := newTestEnv(t, 2, 2, infection.Map{coord(1, 1): {ZombieCount: 3}}, false)

	for _, shape := range [][2]int{{0, 2}, {2, 0}, {-1, 2}, {2, -1}} {
		if _, err := env.ResizeBuilding(shape[0], shape[1]); !errors.Is(err, building.ErrInvalidSpec) {
			t.Errorf("ResizeBuilding(%d,%d): expected ErrInvalidSpec, got %v", shape[0], shape[1], err)
		}
	}

	state := env.State()
	if state.Building.FloorsCount != 2 || state.Infected.Count(coord(1, 1)) != 3 {
		t.Errorf("rejected resize must not mutate the state")
	}
}

func TestResetSimulationClearsEverything(t *testing.T) {
	env := newTestEnv(t, 2, 3, infection.Map{coord(0, 0): {ZombieCount: 2}}, false)

	if _, err := env.Step(DoNothing); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if _, err := env.BlockRoom(1, 2); err != nil {
		t.Fatalf("BlockRoom failed: %v", err)
	}

	state, err := env.ResetSimulation(nil)
	if err != nil {
		t.Fatalf("ResetSimulation failed: %v", err)
	}

	if state.Turn != 0 {
		t.Errorf("expected turn 0, got %d", state.Turn)
	}
	if len(state.Infected) != 0 {
		t.Errorf("expected empty infection map, got %v", state.Infected)
	}
	if state.Building.FloorsCount != 2 || state.Building.RoomsPerFloor != 3 {
		t.Errorf("building shape should be preserved, got %dx%d",
			state.Building.FloorsCount, state.Building.RoomsPerFloor)
	}
	if state.Building.Room(1, 2).Blocked {
		t.Errorf("reset building should have no blocked rooms")
	}
	if state.Building.Room(0, 0).Sensor.Status != building.SensorNormal {
		t.Errorf("reset building should have fresh normal sensors")
	}
	if len(state.InfectionEventsLog) != 0 {
		t.Errorf("reset should start a fresh event log")
	}
}

func TestResetSimulationWithSeedMap(t *testing.T) {
	env := newTestEnv(t, 2, 2, infection.Map{coord(0, 0): {ZombieCount: 9}}, false)

	seed := infection.Map{coord(1, 1): {ZombieCount: 4}}
	state, err := env.ResetSimulation(seed)
	if err != nil {
		t.Fatalf("ResetSimulation failed: %v", err)
	}

	if got := state.Infected.Count(coord(1, 1)); got != 4 {
		t.Errorf("expected the supplied seed map, got count %d", got)
	}
	if _, ok := state.Infected[coord(0, 0)]; ok {
		t.Errorf("pre-reset infection must never leak into the new state")
	}
	// The bootstrap invariant holds after reset: seeded rooms alert.
	if got := state.Building.Room(1, 1).Sensor.Status; got != building.SensorAlert {
		t.Errorf("seeded room sensor should be alert, got %s", got)
	}

	// The environment owns its own copy of the seed map.
	seed[coord(1, 1)] = infection.Attributes{ZombieCount: 100}
	if env.State().Infected.Count(coord(1, 1)) != 4 {
		t.Errorf("environment aliased the caller's seed map")
	}
}
