// Package statefile persists session state as a JSON document on disk.
// Each session owns a folder under <data>/sessions/<session-id>/ holding a
// single zombie-simulation-state.json. Documents are validated against an
// embedded JSON Schema on load so a hand-edited file fails loudly instead
// of corrupting the engine.
package statefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/zombiotrack/zombiotrack/internal/domain/building"
	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
	"github.com/zombiotrack/zombiotrack/internal/engine"
)

const stateFileName = "zombie-simulation-state.json"

// ErrNotFound is returned when a session has no saved state yet.
var ErrNotFound = errors.New("statefile: state not found")

// NewSessionID generates a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Store reads and writes session state documents under a base data directory.
type Store struct {
	baseDir string
}

func NewStore(dataDir string) *Store {
	return &Store{baseDir: dataDir}
}

// Path returns the state file path for a session.
func (s *Store) Path(sessionID string) string {
	return filepath.Join(s.baseDir, "sessions", sessionID, stateFileName)
}

// Save writes the session's state document, creating the session folder on
// first use.
func (s *Store) Save(sessionID string, st *engine.State) error {
	path := s.Path(sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("statefile: creating session folder: %w", err)
	}
	return SaveFile(path, st)
}

// Load reads the session's state document. Returns ErrNotFound when the
// session has never been saved.
func (s *Store) Load(sessionID string) (*engine.State, error) {
	return LoadFile(s.Path(sessionID))
}

// SaveFile writes a state document to an explicit path.
func SaveFile(path string, st *engine.State) error {
	b, err := Encode(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// LoadFile reads a state document from an explicit path.
func LoadFile(path string) (*engine.State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Decode(b)
}

// ---------------------------------------------------------
// Document shape
// ---------------------------------------------------------

// Coordinates appear as "floor,room" keys only in this document; everything
// inside the engine uses typed coordinates.

type sensorDoc struct {
	Status string `json:"status"`
}

type roomDoc struct {
	RoomNumber int       `json:"room_number"`
	Blocked    bool      `json:"blocked"`
	Sensor     sensorDoc `json:"sensor"`
}

type floorDoc struct {
	FloorNumber int                `json:"floor_number"`
	Rooms       map[string]roomDoc `json:"rooms"`
}

type buildingDoc struct {
	FloorsCount   int                 `json:"floors_count"`
	RoomsPerFloor int                 `json:"rooms_per_floor"`
	Floors        map[string]floorDoc `json:"floors"`
}

type attrsDoc struct {
	ZombieCount int `json:"zombie_count"`
}

type deltaDoc struct {
	Floor            int `json:"floor"`
	Room             int `json:"room"`
	ZombieCountDelta int `json:"zombie_count_delta"`
}

type stateDoc struct {
	Turn               int                 `json:"turn"`
	Building           buildingDoc         `json:"building"`
	InfectedCoords     map[string]attrsDoc `json:"infected_coords"`
	LastAction         string              `json:"last_action"`
	LastActionPayload  map[string]any      `json:"last_action_payload"`
	InfectionEventsLog [][]deltaDoc        `json:"infection_events_log"`
}

func coordKey(c infection.Coord) string {
	return fmt.Sprintf("%d,%d", c.Floor, c.Room)
}

func parseCoordKey(key string) (infection.Coord, error) {
	left, right, ok := strings.Cut(key, ",")
	if !ok {
		return infection.Coord{}, fmt.Errorf("statefile: malformed coordinate key %q", key)
	}
	floor, err := strconv.Atoi(left)
	if err != nil {
		return infection.Coord{}, fmt.Errorf("statefile: malformed coordinate key %q", key)
	}
	room, err := strconv.Atoi(right)
	if err != nil {
		return infection.Coord{}, fmt.Errorf("statefile: malformed coordinate key %q", key)
	}
	return infection.Coord{Floor: floor, Room: room}, nil
}

// Encode serializes engine state into the session document format.
func Encode(st *engine.State) ([]byte, error) {
	doc := stateDoc{
		Turn: st.Turn,
		Building: buildingDoc{
			FloorsCount:   st.Building.FloorsCount,
			RoomsPerFloor: st.Building.RoomsPerFloor,
			Floors:        make(map[string]floorDoc, len(st.Building.Floors)),
		},
		InfectedCoords:     make(map[string]attrsDoc, len(st.Infected)),
		LastAction:         st.LastAction,
		LastActionPayload:  st.LastActionPayload,
		InfectionEventsLog: make([][]deltaDoc, 0, len(st.InfectionEventsLog)),
	}
	for fn, floor := range st.Building.Floors {
		fd := floorDoc{
			FloorNumber: floor.Number,
			Rooms:       make(map[string]roomDoc, len(floor.Rooms)),
		}
		for rn, room := range floor.Rooms {
			fd.Rooms[strconv.Itoa(rn)] = roomDoc{
				RoomNumber: room.Number,
				Blocked:    room.Blocked,
				Sensor:     sensorDoc{Status: string(room.Sensor.Status)},
			}
		}
		doc.Building.Floors[strconv.Itoa(fn)] = fd
	}
	for coord, attrs := range st.Infected {
		doc.InfectedCoords[coordKey(coord)] = attrsDoc{ZombieCount: attrs.ZombieCount}
	}
	for _, batch := range st.InfectionEventsLog {
		deltas := make([]deltaDoc, 0, len(batch))
		for _, d := range batch {
			deltas = append(deltas, deltaDoc{
				Floor:            d.Coord.Floor,
				Room:             d.Coord.Room,
				ZombieCountDelta: d.Strength,
			})
		}
		doc.InfectionEventsLog = append(doc.InfectionEventsLog, deltas)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses and validates a session document, rebuilding engine state.
func Decode(data []byte) (*engine.State, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("statefile: %w", err)
	}

	b := &building.Building{
		FloorsCount:   doc.Building.FloorsCount,
		RoomsPerFloor: doc.Building.RoomsPerFloor,
		Floors:        make(map[int]*building.Floor, len(doc.Building.Floors)),
	}
	for key, fd := range doc.Building.Floors {
		fn, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("statefile: malformed floor key %q", key)
		}
		floor := &building.Floor{
			Number: fd.FloorNumber,
			Rooms:  make(map[int]*building.Room, len(fd.Rooms)),
		}
		for rkey, rd := range fd.Rooms {
			rn, err := strconv.Atoi(rkey)
			if err != nil {
				return nil, fmt.Errorf("statefile: malformed room key %q", rkey)
			}
			floor.Rooms[rn] = &building.Room{
				Number:  rd.RoomNumber,
				Blocked: rd.Blocked,
				Sensor:  &building.Sensor{Status: building.SensorStatus(rd.Sensor.Status)},
			}
		}
		b.Floors[fn] = floor
	}

	infected := make(infection.Map, len(doc.InfectedCoords))
	for key, attrs := range doc.InfectedCoords {
		coord, err := parseCoordKey(key)
		if err != nil {
			return nil, err
		}
		infected[coord] = infection.Attributes{ZombieCount: attrs.ZombieCount}
	}

	log := make([]infection.Batch, 0, len(doc.InfectionEventsLog))
	for _, deltas := range doc.InfectionEventsLog {
		batch := make(infection.Batch, 0, len(deltas))
		for _, d := range deltas {
			batch = append(batch, infection.Delta{
				Coord:    infection.Coord{Floor: d.Floor, Room: d.Room},
				Strength: d.ZombieCountDelta,
			})
		}
		log = append(log, batch)
	}

	if doc.LastAction == "" {
		doc.LastAction = engine.ActionStart
	}
	if doc.LastActionPayload == nil {
		doc.LastActionPayload = map[string]any{}
	}

	return &engine.State{
		Turn:               doc.Turn,
		Building:           b,
		Infected:           infected,
		LastAction:         doc.LastAction,
		LastActionPayload:  doc.LastActionPayload,
		InfectionEventsLog: log,
	}, nil
}
