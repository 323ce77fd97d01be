package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/zombiotrack/zombiotrack/internal/config"
	"github.com/zombiotrack/zombiotrack/internal/events"
	"github.com/zombiotrack/zombiotrack/internal/platform/logger"
	"github.com/zombiotrack/zombiotrack/internal/platform/metrics"
	"github.com/zombiotrack/zombiotrack/internal/session"
)

// Hub maintains the set of active observer clients and broadcasts
// simulation events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	session    *session.Session
	tuning     config.Tuning
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// NewHub initializes a new WebSocket Hub bound to one session.
func NewHub(s *session.Session, tuning config.Tuning, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, tuning.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		session:    s,
		tuning:     tuning,
		logger:     log,
		metrics:    metrics.Get(),
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= h.tuning.MaxObserverClients {
				h.mu.Unlock()
				h.logger.Warn("Observer limit reached, rejecting WebSocket client")
				close(client.send)
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.WSConnected()
			h.logger.Info("New WebSocket observer connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.WSDisconnected()
				h.logger.Info("WebSocket observer disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					h.metrics.WSDisconnected()
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent serializes a SimEvent to JSON and sends it to all
// connected observers.
func (h *Hub) BroadcastEvent(event events.SimEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize SimEvent for WebSocket broadcast: " + err.Error())
		h.metrics.RecordWSError()
		return
	}
	h.broadcast <- payload
}

// StartEventPoller spawns a goroutine that polls the event log and pushes
// new events to the Hub. This keeps the Hub independent from the session's
// mutation path while observers still see every event.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.Log) {
	go func() {
		pollInterval := time.NewTicker(200 * time.Millisecond)
		defer pollInterval.Stop()

		lastProcessed := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				all := eventLog.Replay()
				if len(all) > lastProcessed {
					for _, event := range all[lastProcessed:] {
						h.BroadcastEvent(event)
					}
					lastProcessed = len(all)
				}
			}
		}
	}()
}
