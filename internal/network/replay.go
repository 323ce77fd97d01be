// Replay endpoint - JSON export of the session's event history.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zombiotrack/zombiotrack/internal/events"
	"github.com/zombiotrack/zombiotrack/internal/platform/logger"
)

// ReplayHandler provides the event replay API.
type ReplayHandler struct {
	sessionID string
	eventLog  *events.Log
	logger    *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(sessionID string, el *events.Log, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		sessionID: sessionID,
		eventLog:  el,
		logger:    log,
	}
}

// ReplayResponse is the API response for an event replay.
type ReplayResponse struct {
	SessionID   string            `json:"session_id"`
	TotalEvents int               `json:"total_events"`
	FilteredBy  string            `json:"filtered_by,omitempty"`
	GeneratedAt string            `json:"generated_at"`
	Events      []events.SimEvent `json:"events"`
}

// HandleReplay returns the event history for the session.
// GET /api/replay?type=INFECTION_SPREAD&since_turn=N
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "Method not allowed"})
		return
	}

	eventType := r.URL.Query().Get("type")
	sinceStr := r.URL.Query().Get("since_turn")

	all := rh.eventLog.Replay()
	filtered := make([]events.SimEvent, 0, len(all))
	filterDesc := ""

	sinceTurn := -1
	if sinceStr != "" {
		n, err := strconv.Atoi(sinceStr)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "since_turn must be an integer"})
			return
		}
		sinceTurn = n
		filterDesc = "since turn " + sinceStr
	}

	for _, e := range all {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		if sinceTurn >= 0 && e.Turn < sinceTurn {
			continue
		}
		filtered = append(filtered, e)
	}
	if eventType != "" {
		if filterDesc != "" {
			filterDesc += ", "
		}
		filterDesc += "type " + eventType
	}

	resp := ReplayResponse{
		SessionID:   rh.sessionID,
		TotalEvents: len(filtered),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Events:      filtered,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// RegisterRoutes sets up the replay API route.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
}
