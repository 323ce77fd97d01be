package network

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zombiotrack/zombiotrack/internal/config"
	"github.com/zombiotrack/zombiotrack/internal/events"
	"github.com/zombiotrack/zombiotrack/internal/platform/logger"
	"github.com/zombiotrack/zombiotrack/internal/session"
)

func newTestServer(t *testing.T) (*session.Session, *events.Log, *httptest.Server) {
	t.Helper()
	cfg, _ := config.Load("")
	cfg.FloorsCount = 2
	cfg.RoomsPerFloor = 2
	cfg.Infected = []config.SeedSpec{{Floor: 0, Room: 0, Count: 2}}

	log := events.NewLog(nil)
	s, err := session.FromConfig(cfg, session.Options{Events: log})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	mux := http.NewServeMux()
	appLogger := logger.NewLogger()
	NewControlAPI(s, appLogger).RegisterRoutes(mux)
	NewReplayHandler(s.ID(), log, appLogger).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, log, srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding response from %s: %v", url, err)
	}
	return resp, decoded
}

func TestStepEndpointAdvancesTurn(t *testing.T) {
	s, _, srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/step", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %v", resp.StatusCode, body)
	}
	if body["turn"].(float64) != 1 {
		t.Errorf("expected turn 1, got %v", body["turn"])
	}
	if s.State().Turn != 1 {
		t.Errorf("session not advanced: %d", s.State().Turn)
	}
}

func TestRoomEndpointsValidateBounds(t *testing.T) {
	_, _, srv := newTestServer(t)

	for _, path := range []string{"/api/rooms/clean", "/api/rooms/block", "/api/rooms/unblock", "/api/rooms/sensor/reset"} {
		resp, _ := postJSON(t, srv.URL+path, `{"floor": 9, "room": 9}`)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404 for out of bounds, got %d", path, resp.StatusCode)
		}
	}

	resp, body := postJSON(t, srv.URL+"/api/rooms/block", `{"floor": 1, "room": 1}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("block failed: %d %v", resp.StatusCode, body)
	}
}

func TestStepEndpointRejectsGet(t *testing.T) {
	_, _, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/step")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestGridEndpointReflectsState(t *testing.T) {
	s, _, srv := newTestServer(t)
	if _, err := s.BlockRoom(1, 0); err != nil {
		t.Fatalf("BlockRoom failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/grid")
	if err != nil {
		t.Fatalf("GET /api/grid failed: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		SessionID string     `json:"session_id"`
		Turn      int        `json:"turn"`
		Rooms     []RoomView `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding grid: %v", err)
	}
	if body.SessionID != s.ID() {
		t.Errorf("wrong session id %q", body.SessionID)
	}
	if len(body.Rooms) != 4 {
		t.Fatalf("expected 4 rooms, got %d", len(body.Rooms))
	}
	var seeded, blocked bool
	for _, rm := range body.Rooms {
		if rm.Floor == 0 && rm.Room == 0 && rm.ZombieCount == 2 && rm.Sensor == "alert" {
			seeded = true
		}
		if rm.Floor == 1 && rm.Room == 0 && rm.Blocked {
			blocked = true
		}
	}
	if !seeded || !blocked {
		t.Errorf("grid missing state: seeded=%v blocked=%v rooms=%+v", seeded, blocked, body.Rooms)
	}
}

func TestStateEndpointReturnsDocument(t *testing.T) {
	_, _, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state failed: %v", err)
	}
	defer resp.Body.Close()
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decoding state document: %v", err)
	}
	if _, ok := doc["building"]; !ok {
		t.Errorf("state document missing building: %v", doc)
	}
	if _, ok := doc["infected_coords"]; !ok {
		t.Errorf("state document missing infected_coords: %v", doc)
	}
}

func TestResetEndpointInstallsSeeds(t *testing.T) {
	s, _, srv := newTestServer(t)
	if _, err := s.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	resp, body := postJSON(t, srv.URL+"/api/reset", `{"seeds": [{"floor": 1, "room": 1, "count": 7}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset failed: %d %v", resp.StatusCode, body)
	}
	if body["turn"].(float64) != 0 {
		t.Errorf("expected turn 0 after reset, got %v", body["turn"])
	}
	if body["infected_rooms"].(float64) != 1 {
		t.Errorf("expected one seeded room, got %v", body["infected_rooms"])
	}
}

func TestResizeEndpointChangesShape(t *testing.T) {
	s, _, srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/resize", `{"floors_count": 3, "rooms_per_floor": 4}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resize failed: %d %v", resp.StatusCode, body)
	}
	if body["floors_count"].(float64) != 3 || body["rooms_per_floor"].(float64) != 4 {
		t.Errorf("unexpected shape in response: %v", body)
	}
	if s.State().Building.FloorsCount != 3 {
		t.Errorf("session building not resized: %d floors", s.State().Building.FloorsCount)
	}

	resp, _ = postJSON(t, srv.URL+"/api/resize", `{"floors_count": 0, "rooms_per_floor": 4}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid shape, got %d", resp.StatusCode)
	}
}

func TestReplayEndpointFilters(t *testing.T) {
	s, _, srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		if _, err := s.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	if _, err := s.CleanRoom(0, 0); err != nil {
		t.Fatalf("CleanRoom failed: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/replay?type=INFECTION_SPREAD&since_turn=2")
	if err != nil {
		t.Fatalf("GET /api/replay failed: %v", err)
	}
	defer resp.Body.Close()
	var body ReplayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding replay: %v", err)
	}
	if body.TotalEvents != 2 {
		t.Errorf("expected 2 filtered events, got %d", body.TotalEvents)
	}
	for _, e := range body.Events {
		if e.Type != "INFECTION_SPREAD" || e.Turn < 2 {
			t.Errorf("filter leaked event %+v", e)
		}
	}
}
