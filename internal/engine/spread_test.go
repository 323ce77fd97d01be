package engine

import (
	"reflect"
	"testing"

	"github.com/zombiotrack/zombiotrack/internal/domain/building"
	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
)

func TestSpreadToAdjacentRooms(t *testing.T) {
	env := newTestEnv(t, 1, 3, infection.Map{coord(0, 1): {ZombieCount: 3}}, false)

	state, err := env.Step(DoNothing)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	left := state.Infected.Count(coord(0, 0))
	right := state.Infected.Count(coord(0, 2))
	if left <= 0 && right <= 0 {
		t.Fatalf("expected at least one neighbor infected, got left=%d right=%d", left, right)
	}

	// Deterministic split: power 3 over 2 eligible neighbors gives 1 each,
	// total handed out (2) is below power, so the seed keeps its count.
	if left != 1 || right != 1 {
		t.Errorf("expected 1 zombie per neighbor, got left=%d right=%d", left, right)
	}
	if got := state.Infected.Count(coord(0, 1)); got != 3 {
		t.Errorf("seed count should be unchanged, got %d", got)
	}
}

func TestSpreadAcrossFloors(t *testing.T) {
	env := newTestEnv(t, 2, 1, infection.Map{coord(0, 0): {ZombieCount: 2}}, false)

	state, err := env.Step(DoNothing)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	// The sole neighbor absorbs the full split.
	if got := state.Infected.Count(coord(1, 0)); got != 2 {
		t.Fatalf("expected (1,0) to receive 2 zombies, got %d", got)
	}
	if got := state.Building.Room(1, 0).Sensor.Status; got != building.SensorAlert {
		t.Errorf("receiving room sensor should be alert, got %s", got)
	}
}

func TestSpreadFloorsAtOnePerNeighbor(t *testing.T) {
	// Power 1 split over 4 neighbors still hands out 1 each; the seed's own
	// clamp delta then removes the excess down to zero.
	env := newTestEnv(t, 3, 3, infection.Map{coord(1, 1): {ZombieCount: 1}}, false)

	state, err := env.Step(DoNothing)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	for _, c := range []infection.Coord{coord(0, 1), coord(2, 1), coord(1, 0), coord(1, 2)} {
		if got := state.Infected.Count(c); got != 1 {
			t.Errorf("neighbor %v: expected 1 zombie, got %d", c, got)
		}
	}
	if got := state.Infected.Count(coord(1, 1)); got != 0 {
		t.Errorf("seed should be clamped to 0 after over-giving, got %d", got)
	}
	// The clamped-to-zero entry stays in the map; only clean removes it.
	if _, ok := state.Infected[coord(1, 1)]; !ok {
		t.Errorf("seed entry should persist with count 0")
	}
}

func TestBlockedNeighborReceivesNothing(t *testing.T) {
	env := newTestEnv(t, 1, 2, infection.Map{coord(0, 0): {ZombieCount: 2}}, false)

	if _, err := env.BlockRoom(0, 1); err != nil {
		t.Fatalf("BlockRoom failed: %v", err)
	}
	state, err := env.Step(DoNothing)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if _, ok := state.Infected[coord(0, 1)]; ok {
		t.Errorf("blocked room must not appear in the infection map")
	}
	if got := state.Building.Room(0, 1).Sensor.Status; got != building.SensorNormal {
		t.Errorf("blocked room sensor must stay normal, got %s", got)
	}
}

func TestBlockedSeedDoesNotSpread(t *testing.T) {
	env := newTestEnv(t, 1, 3, infection.Map{coord(0, 1): {ZombieCount: 5}}, false)

	if _, err := env.BlockRoom(0, 1); err != nil {
		t.Fatalf("BlockRoom failed: %v", err)
	}
	state, err := env.Step(DoNothing)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if _, ok := state.Infected[coord(0, 0)]; ok {
		t.Errorf("neighbors of a blocked seed must not be infected")
	}
	// Blocking freezes the infection, it does not clean it.
	if got := state.Infected.Count(coord(0, 1)); got != 5 {
		t.Errorf("blocked room keeps its recorded count, got %d", got)
	}
}

func TestSensorRetriggersAfterReset(t *testing.T) {
	env := newTestEnv(t, 1, 2, infection.Map{coord(0, 0): {ZombieCount: 2}}, false)

	if _, err := env.Step(DoNothing); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if _, err := env.ResetSensor(0, 1); err != nil {
		t.Fatalf("ResetSensor failed: %v", err)
	}
	if got := env.State().Building.Room(0, 1).Sensor.Status; got != building.SensorNormal {
		t.Fatalf("sensor should be normal after reset, got %s", got)
	}

	state, err := env.Step(DoNothing)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if got := state.Building.Room(0, 1).Sensor.Status; got != building.SensorAlert {
		t.Errorf("re-infected room must go back to alert, got %s", got)
	}
}

func TestDeterministicRunsAreReproducible(t *testing.T) {
	seedMap := infection.Map{coord(0, 0): {ZombieCount: 4}, coord(2, 3): {ZombieCount: 2}}

	run := func() *State {
		env := newTestEnv(t, 3, 4, seedMap.Clone(), false)
		var state *State
		var err error
		for i := 0; i < 5; i++ {
			state, err = env.Step(DoNothing)
			if err != nil {
				t.Fatalf("Step failed: %v", err)
			}
		}
		return state
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical deterministic runs diverged")
	}
}

func TestStochasticRunsReproducibleWithFixedSeed(t *testing.T) {
	seedMap := infection.Map{coord(1, 1): {ZombieCount: 5}}

	run := func(seed int64) *State {
		env := newTestEnv(t, 3, 3, seedMap.Clone(), true)
		env.Seed(seed)
		var state *State
		var err error
		for i := 0; i < 4; i++ {
			state, err = env.Step(DoNothing)
			if err != nil {
				t.Fatalf("Step failed: %v", err)
			}
		}
		return state
	}

	if !reflect.DeepEqual(run(7), run(7)) {
		t.Errorf("same RNG seed produced different stochastic outcomes")
	}
}

// Stochastic spread is deliberately not a conserved-quantity transfer:
// each neighbor's draw is independent of the others, and the seed only
// clamps its own count when the total handed out exceeds its power. A step
// can therefore create net zombies. This mirrors the reference behavior
// and is intentionally not "fixed" here.
func TestStochasticSpreadCanCreateNetZombies(t *testing.T) {
	total := func(m infection.Map) int {
		sum := 0
		for _, a := range m {
			sum += a.ZombieCount
		}
		return sum
	}

	increased := false
	for seed := int64(0); seed < 20; seed++ {
		env := newTestEnv(t, 2, 1, infection.Map{coord(0, 0): {ZombieCount: 5}}, true)
		env.Seed(seed)
		env.SetInfectionProbability(1.0)

		state, err := env.Step(DoNothing)
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}

		got := state.Infected.Count(coord(1, 0))
		if got < 0 || got > 5 {
			t.Fatalf("neighbor strength must be drawn from [0,power], got %d", got)
		}
		// Strength <= power leaves the seed untouched, so any nonzero
		// draw is net creation.
		if got > 0 && state.Infected.Count(coord(0, 0)) != 5 {
			t.Fatalf("seed must keep its count when total given <= power")
		}
		if total(state.Infected) > 5 {
			increased = true
		}
	}

	if !increased {
		t.Errorf("expected at least one seed to show net zombie creation")
	}
}

func TestSpreadBatchIsAppendedToLog(t *testing.T) {
	env := newTestEnv(t, 1, 2, infection.Map{coord(0, 0): {ZombieCount: 2}}, false)

	state, err := env.Step(DoNothing)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if len(state.InfectionEventsLog) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(state.InfectionEventsLog))
	}
	batch := state.InfectionEventsLog[0]
	// One delta for the sole neighbor plus the seed's own clamp delta.
	if len(batch) != 2 {
		t.Fatalf("expected 2 deltas in batch, got %d", len(batch))
	}
	if batch[0].Coord != coord(0, 1) || batch[0].Strength != 2 {
		t.Errorf("unexpected neighbor delta: %+v", batch[0])
	}
	if batch[1].Coord != coord(0, 0) || batch[1].Strength != 0 {
		t.Errorf("unexpected seed delta: %+v", batch[1])
	}
}
