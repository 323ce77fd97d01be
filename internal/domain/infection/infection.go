// Package infection defines the domain types for tracking zombie presence
// across the building grid. This package is PURE and must NOT import any
// infrastructure packages.
//
// Coordinates are integer pairs; any "floor,room" string encoding belongs
// to the persistence boundary, never here.
package infection

// Coord addresses a room as (floor number, room number).
type Coord struct {
	Floor int `json:"floor"`
	Room  int `json:"room"`
}

// Attributes is the infection record attached to a coordinate. A coordinate
// missing from the map means "no recorded data"; an entry with a zero count
// is kept until an explicit clean removes it.
type Attributes struct {
	ZombieCount int `json:"zombie_count"`
}

// Map is the sparse infection state of the whole building.
type Map map[Coord]Attributes

// Clone returns an independent copy of the map.
func (m Map) Clone() Map {
	cp := make(Map, len(m))
	for c, a := range m {
		cp[c] = a
	}
	return cp
}

// Count returns the zombie count recorded at c, zero if absent.
func (m Map) Count(c Coord) int {
	return m[c].ZombieCount
}

// Delta is one infection-count change produced by a propagation step.
// Positive strength spreads zombies into the coordinate; the seed room's
// own clamp delta is never positive.
type Delta struct {
	Coord    Coord `json:"coord"`
	Strength int   `json:"strength"`
}

// Batch is the set of deltas computed from one propagation snapshot and
// applied atomically at the end of the step.
type Batch []Delta

// Clone returns an independent copy of the batch.
func (b Batch) Clone() Batch {
	cp := make(Batch, len(b))
	copy(cp, b)
	return cp
}
