package building

// Room represents a single monitored room within a floor.
// Every room owns exactly one sensor for its whole lifetime.
type Room struct {
	Number  int     `json:"room_number"`
	Blocked bool    `json:"blocked"`
	Sensor  *Sensor `json:"sensor"`
}

// NewRoom creates an unblocked room with a fresh normal-status sensor.
func NewRoom(number int) *Room {
	return &Room{
		Number: number,
		Sensor: NewSensor(),
	}
}

// Clone returns an independent copy of the room and its sensor.
func (r *Room) Clone() *Room {
	return &Room{
		Number:  r.Number,
		Blocked: r.Blocked,
		Sensor:  r.Sensor.Clone(),
	}
}
