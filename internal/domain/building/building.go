package building

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec indicates a building specification with non-positive counts.
var ErrInvalidSpec = errors.New("building: floors and rooms per floor must be greater than zero")

// Building is the monitored structure: a keyed collection of floors with
// uniform shape invariants. len(Floors) never exceeds FloorsCount.
type Building struct {
	FloorsCount   int            `json:"floors_count"`
	RoomsPerFloor int            `json:"rooms_per_floor"`
	Floors        map[int]*Floor `json:"floors"`
}

// FromGridSpec creates a building with floorsCount floors of roomsPerFloor
// rooms each. All rooms start unblocked with normal sensors.
func FromGridSpec(floorsCount, roomsPerFloor int) (*Building, error) {
	if floorsCount <= 0 || roomsPerFloor <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSpec, floorsCount, roomsPerFloor)
	}

	floors := make(map[int]*Floor, floorsCount)
	for fn := 0; fn < floorsCount; fn++ {
		floor := NewFloor(fn)
		for rn := 0; rn < roomsPerFloor; rn++ {
			floor.Rooms[rn] = NewRoom(rn)
		}
		floors[fn] = floor
	}

	return &Building{
		FloorsCount:   floorsCount,
		RoomsPerFloor: roomsPerFloor,
		Floors:        floors,
	}, nil
}

// Floor returns the floor with the given number, or nil if it does not exist.
func (b *Building) Floor(number int) *Floor {
	return b.Floors[number]
}

// Room returns the room at the given coordinate, or nil if floor or room
// does not exist.
func (b *Building) Room(floor, room int) *Room {
	f := b.Floors[floor]
	if f == nil {
		return nil
	}
	return f.Rooms[room]
}

// RoomExists reports whether the given coordinate resolves to a room.
func (b *Building) RoomExists(floor, room int) bool {
	return b.Room(floor, room) != nil
}

// Resize grows or shrinks the building to the new shape. New floors are
// filled with newRoomsPerFloor fresh rooms; every surviving floor gains or
// loses rooms to match. Removed rooms and floors are discarded together
// with their sensors.
func (b *Building) Resize(newFloorsCount, newRoomsPerFloor int) error {
	if newFloorsCount <= 0 || newRoomsPerFloor <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidSpec, newFloorsCount, newRoomsPerFloor)
	}

	if newFloorsCount < b.FloorsCount {
		for fn := range b.Floors {
			if fn >= newFloorsCount {
				delete(b.Floors, fn)
			}
		}
	} else if newFloorsCount > b.FloorsCount {
		for fn := b.FloorsCount; fn < newFloorsCount; fn++ {
			floor := NewFloor(fn)
			for rn := 0; rn < newRoomsPerFloor; rn++ {
				floor.Rooms[rn] = NewRoom(rn)
			}
			b.Floors[fn] = floor
		}
	}

	if newRoomsPerFloor != b.RoomsPerFloor {
		for _, floor := range b.Floors {
			if newRoomsPerFloor < b.RoomsPerFloor {
				for rn := range floor.Rooms {
					if rn >= newRoomsPerFloor {
						delete(floor.Rooms, rn)
					}
				}
			} else {
				for rn := b.RoomsPerFloor; rn < newRoomsPerFloor; rn++ {
					floor.Rooms[rn] = NewRoom(rn)
				}
			}
		}
	}

	b.FloorsCount = newFloorsCount
	b.RoomsPerFloor = newRoomsPerFloor
	return nil
}

// Clone returns a fully independent deep copy of the building.
func (b *Building) Clone() *Building {
	floors := make(map[int]*Floor, len(b.Floors))
	for fn, floor := range b.Floors {
		floors[fn] = floor.Clone()
	}
	return &Building{
		FloorsCount:   b.FloorsCount,
		RoomsPerFloor: b.RoomsPerFloor,
		Floors:        floors,
	}
}
