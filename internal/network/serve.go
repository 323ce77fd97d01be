package network

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/zombiotrack/zombiotrack/internal/platform/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Observers connect from arbitrary dashboards
	},
}

// ServeWS handles websocket requests from observer clients.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
