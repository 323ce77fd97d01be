package engine

import (
	"fmt"
	"sort"

	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
)

// neighborOffsets are the four non-diagonal grid moves, in a fixed order so
// that stochastic draws consume the random stream deterministically.
var neighborOffsets = [4]infection.Coord{
	{Floor: -1, Room: 0},
	{Floor: 1, Room: 0},
	{Floor: 0, Room: -1},
	{Floor: 0, Room: 1},
}

// spreadInfection computes one delta batch from the draft as it stands at
// the start of the step and applies the whole batch atomically at the end.
// Propagation never observes its own partial effects.
func (e *Environment) spreadInfection(draft *State) error {
	batch := infection.Batch{}

	for _, seed := range sortedCoords(draft.Infected) {
		if draft.Infected[seed].ZombieCount <= 0 {
			continue
		}
		deltas, err := e.spreadFromSeed(draft, seed)
		if err != nil {
			return err
		}
		batch = append(batch, deltas...)
	}

	for _, delta := range batch {
		applyDelta(draft, delta)
	}
	draft.InfectionEventsLog = append(draft.InfectionEventsLog, batch)
	return nil
}

// spreadFromSeed computes the deltas one seed room hands out to its
// eligible neighbors. Seeds come from the engine's own state, so a blocked
// or out-of-bounds seed is a broken invariant, not caller input.
func (e *Environment) spreadFromSeed(draft *State, seed infection.Coord) (infection.Batch, error) {
	if !inBounds(draft, seed) || !draft.Building.RoomExists(seed.Floor, seed.Room) {
		return nil, fmt.Errorf("%w: seed (%d,%d) outside building", ErrContractViolation, seed.Floor, seed.Room)
	}
	if draft.Building.Room(seed.Floor, seed.Room).Blocked {
		return nil, fmt.Errorf("%w: seed (%d,%d) is blocked", ErrContractViolation, seed.Floor, seed.Room)
	}

	var eligible []infection.Coord
	for _, off := range neighborOffsets {
		c := infection.Coord{Floor: seed.Floor + off.Floor, Room: seed.Room + off.Room}
		if !inBounds(draft, c) {
			continue
		}
		room := draft.Building.Room(c.Floor, c.Room)
		if room == nil || room.Blocked {
			continue
		}
		eligible = append(eligible, c)
	}

	if len(eligible) == 0 {
		return nil, nil
	}

	power := draft.Infected[seed].ZombieCount

	var deltas infection.Batch
	given := 0
	for _, target := range eligible {
		var strength int
		if e.stochastic {
			if e.rng.Float64() >= e.probability {
				continue
			}
			strength = e.rng.Intn(power + 1)
		} else {
			strength = power / len(eligible)
			if strength < 1 {
				strength = 1
			}
		}
		deltas = append(deltas, infection.Delta{Coord: target, Strength: strength})
		given += strength
	}

	// The seed sheds zombies only when it handed out more than it had.
	// Independent stochastic draws may exceed power, so spread is not a
	// conserved-quantity transfer across a step.
	selfDelta := power - given
	if selfDelta > 0 {
		selfDelta = 0
	}
	deltas = append(deltas, infection.Delta{Coord: seed, Strength: selfDelta})

	return deltas, nil
}

// applyDelta commits a single delta: the coordinate's entry is created on
// demand, the count clamps at zero, and any positive delta triggers the
// room's sensor regardless of the post-clamp value.
func applyDelta(draft *State, delta infection.Delta) {
	attrs := draft.Infected[delta.Coord]

	if delta.Strength > 0 {
		if room := draft.Building.Room(delta.Coord.Floor, delta.Coord.Room); room != nil {
			room.Sensor.Trigger()
		}
	}

	attrs.ZombieCount += delta.Strength
	if attrs.ZombieCount < 0 {
		attrs.ZombieCount = 0
	}
	draft.Infected[delta.Coord] = attrs
}

func inBounds(s *State, c infection.Coord) bool {
	return c.Floor >= 0 && c.Floor < s.Building.FloorsCount &&
		c.Room >= 0 && c.Room < s.Building.RoomsPerFloor
}

// sortedCoords returns the map's coordinates ordered by (floor, room) so
// deterministic runs produce byte-identical output.
func sortedCoords(m infection.Map) []infection.Coord {
	coords := make([]infection.Coord, 0, len(m))
	for c := range m {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Floor != coords[j].Floor {
			return coords[i].Floor < coords[j].Floor
		}
		return coords[i].Room < coords[j].Room
	})
	return coords
}
