// REST control surface for one running session. Lets operators step the
// simulation and run room commands without a WebSocket connection.
package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/zombiotrack/zombiotrack/internal/domain/building"
	"github.com/zombiotrack/zombiotrack/internal/domain/infection"
	"github.com/zombiotrack/zombiotrack/internal/engine"
	"github.com/zombiotrack/zombiotrack/internal/infra/statefile"
	"github.com/zombiotrack/zombiotrack/internal/platform/logger"
	"github.com/zombiotrack/zombiotrack/internal/session"
)

// ControlAPI handles operator interactions with the session.
type ControlAPI struct {
	session *session.Session
	logger  *logger.Logger
}

// NewControlAPI creates a new operator control handler.
func NewControlAPI(s *session.Session, log *logger.Logger) *ControlAPI {
	return &ControlAPI{session: s, logger: log}
}

// RoomRequest addresses one room for a command.
type RoomRequest struct {
	Floor int `json:"floor"`
	Room  int `json:"room"`
}

// ResetRequest optionally installs new infection seeds on reset.
type ResetRequest struct {
	Seeds []struct {
		Floor int `json:"floor"`
		Room  int `json:"room"`
		Count int `json:"count"`
	} `json:"seeds,omitempty"`
}

// RoomView is one cell of the grid summary.
type RoomView struct {
	Floor       int    `json:"floor"`
	Room        int    `json:"room"`
	Blocked     bool   `json:"blocked"`
	Sensor      string `json:"sensor"`
	ZombieCount int    `json:"zombie_count"`
}

// HandleStep advances the simulation one turn.
// POST /api/step
func (api *ControlAPI) HandleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st, err := api.session.Step()
	if err != nil {
		api.commandError(w, err)
		return
	}
	api.jsonSuccess(w, map[string]interface{}{
		"turn":           st.Turn,
		"infected_rooms": len(st.Infected),
	})
}

// HandleReset restarts the simulation, optionally with new seeds.
// POST /api/reset
func (api *ControlAPI) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResetRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	var seeds infection.Map
	if len(req.Seeds) > 0 {
		seeds = make(infection.Map, len(req.Seeds))
		for _, s := range req.Seeds {
			seeds[infection.Coord{Floor: s.Floor, Room: s.Room}] = infection.Attributes{ZombieCount: s.Count}
		}
	}

	st, err := api.session.Reset(seeds)
	if err != nil {
		api.commandError(w, err)
		return
	}
	api.jsonSuccess(w, map[string]interface{}{
		"turn":           st.Turn,
		"infected_rooms": len(st.Infected),
	})
}

func (api *ControlAPI) roomHandler(run func(floor, room int) (*engine.State, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.jsonError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		st, err := run(req.Floor, req.Room)
		if err != nil {
			api.commandError(w, err)
			return
		}
		api.jsonSuccess(w, map[string]interface{}{
			"turn":  st.Turn,
			"floor": req.Floor,
			"room":  req.Room,
		})
	}
}

// ResizeRequest changes the building shape.
type ResizeRequest struct {
	FloorsCount   int `json:"floors_count"`
	RoomsPerFloor int `json:"rooms_per_floor"`
}

// HandleResize grows or shrinks the building.
// POST /api/resize
func (api *ControlAPI) HandleResize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	st, err := api.session.Resize(req.FloorsCount, req.RoomsPerFloor)
	if err != nil {
		api.commandError(w, err)
		return
	}
	api.jsonSuccess(w, map[string]interface{}{
		"turn":            st.Turn,
		"floors_count":    st.Building.FloorsCount,
		"rooms_per_floor": st.Building.RoomsPerFloor,
	})
}

// HandleState returns the full state document for the session.
// GET /api/state
func (api *ControlAPI) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doc, err := statefile.Encode(api.session.State())
	if err != nil {
		api.jsonError(w, "Failed to encode state", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// HandleGrid returns a flattened room-by-room view of the building.
// GET /api/grid
func (api *ControlAPI) HandleGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := api.session.State()
	rooms := make([]RoomView, 0, st.Building.FloorsCount*st.Building.RoomsPerFloor)
	for floor := 0; floor < st.Building.FloorsCount; floor++ {
		for room := 0; room < st.Building.RoomsPerFloor; room++ {
			rm := st.Building.Room(floor, room)
			if rm == nil {
				continue
			}
			rooms = append(rooms, RoomView{
				Floor:       floor,
				Room:        room,
				Blocked:     rm.Blocked,
				Sensor:      string(rm.Sensor.Status),
				ZombieCount: st.Infected[infection.Coord{Floor: floor, Room: room}].ZombieCount,
			})
		}
	}
	api.jsonSuccess(w, map[string]interface{}{
		"session_id":      api.session.ID(),
		"turn":            st.Turn,
		"floors_count":    st.Building.FloorsCount,
		"rooms_per_floor": st.Building.RoomsPerFloor,
		"rooms":           rooms,
		"timestamp":       time.Now().Unix(),
	})
}

// RegisterRoutes sets up the control API routes.
func (api *ControlAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/step", api.HandleStep)
	mux.HandleFunc("/api/reset", api.HandleReset)
	mux.HandleFunc("/api/resize", api.HandleResize)
	mux.HandleFunc("/api/rooms/clean", api.roomHandler(api.session.CleanRoom))
	mux.HandleFunc("/api/rooms/block", api.roomHandler(api.session.BlockRoom))
	mux.HandleFunc("/api/rooms/unblock", api.roomHandler(api.session.UnblockRoom))
	mux.HandleFunc("/api/rooms/sensor/reset", api.roomHandler(api.session.ResetSensor))
	mux.HandleFunc("/api/state", api.HandleState)
	mux.HandleFunc("/api/grid", api.HandleGrid)
}

func (api *ControlAPI) commandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrOutOfBounds):
		api.jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrContractViolation), errors.Is(err, engine.ErrUnknownAction):
		api.jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, building.ErrInvalidSpec):
		api.jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		api.logger.Error("Command failed: " + err.Error())
		api.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

// jsonError sends an error response.
func (api *ControlAPI) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (api *ControlAPI) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
