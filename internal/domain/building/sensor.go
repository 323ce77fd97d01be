// Package building defines the domain entities for the monitored building.
// This package is PURE and must NOT import any infrastructure packages.
package building

// SensorStatus is the state reported by a room's IoT sensor.
type SensorStatus string

const (
	SensorNormal SensorStatus = "normal"
	SensorAlert  SensorStatus = "alert"
)

// Sensor represents the two-state IoT device installed in a room.
// It is created together with its room and only the engine mutates it.
type Sensor struct {
	Status SensorStatus `json:"status"`
}

// NewSensor creates a sensor in the normal state.
func NewSensor() *Sensor {
	return &Sensor{Status: SensorNormal}
}

// Trigger raises the sensor into the alert state. Idempotent.
func (s *Sensor) Trigger() {
	s.Status = SensorAlert
}

// Reset returns the sensor to the normal state.
func (s *Sensor) Reset() {
	s.Status = SensorNormal
}

// Clone returns an independent copy of the sensor.
func (s *Sensor) Clone() *Sensor {
	cp := *s
	return &cp
}
