package building

// Floor represents one floor of the building, keyed by room number.
type Floor struct {
	Number int           `json:"floor_number"`
	Rooms  map[int]*Room `json:"rooms"`
}

// NewFloor creates an empty floor.
func NewFloor(number int) *Floor {
	return &Floor{
		Number: number,
		Rooms:  make(map[int]*Room),
	}
}

// Room returns the room with the given number, or nil if it does not exist.
func (f *Floor) Room(number int) *Room {
	return f.Rooms[number]
}

// Clone returns an independent copy of the floor and all its rooms.
func (f *Floor) Clone() *Floor {
	cp := NewFloor(f.Number)
	for n, room := range f.Rooms {
		cp.Rooms[n] = room.Clone()
	}
	return cp
}
