package network

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zombiotrack/zombiotrack/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// ObserverCommand represents an incoming command from an observer client.
type ObserverCommand struct {
	Type  string `json:"type"` // "STEP", "CLEAN", "BLOCK", "UNBLOCK", "RESET_SENSOR", "RESET"
	Floor int    `json:"floor"`
	Room  int    `json:"room"`
}

// Client represents an active WebSocket connection.
type Client struct {
	hub             *Hub
	conn            *websocket.Conn
	send            chan []byte
	lastCommandTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.tuning.ClientSendBuffer),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection to the session.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var cmd ObserverCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Error("Failed to parse ObserverCommand from WebSocket. err: " + err.Error())
			c.hub.metrics.RecordWSError()
			continue
		}

		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd ObserverCommand) {
	// Rate limiting check
	if time.Since(c.lastCommandTime) < c.hub.tuning.CommandRateLimit() {
		c.hub.logger.Warn("Rate limit exceeded for observer command " + cmd.Type)
		return
	}
	c.lastCommandTime = time.Now()

	s := c.hub.session
	var err error
	switch cmd.Type {
	case "STEP":
		_, err = s.Step()
	case "CLEAN":
		_, err = s.CleanRoom(cmd.Floor, cmd.Room)
	case "BLOCK":
		_, err = s.BlockRoom(cmd.Floor, cmd.Room)
	case "UNBLOCK":
		_, err = s.UnblockRoom(cmd.Floor, cmd.Room)
	case "RESET_SENSOR":
		_, err = s.ResetSensor(cmd.Floor, cmd.Room)
	case "RESET":
		_, err = s.Reset(nil)
	default:
		c.hub.logger.Warn("Unknown ObserverCommand type: " + cmd.Type)
		return
	}

	if err != nil {
		c.hub.metrics.RecordWSError()
		c.sendError(cmd.Type, err)
	}
}

func (c *Client) sendError(cmdType string, err error) {
	code := "INTERNAL"
	switch {
	case errors.Is(err, engine.ErrOutOfBounds):
		code = "OUT_OF_BOUNDS"
	case errors.Is(err, engine.ErrContractViolation):
		code = "CONTRACT_VIOLATION"
	}
	payload, mErr := json.Marshal(map[string]string{
		"type":    "ERROR",
		"command": cmdType,
		"code":    code,
		"error":   err.Error(),
	})
	if mErr != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
