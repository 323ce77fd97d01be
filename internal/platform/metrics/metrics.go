// Package metrics provides observability for the simulation host.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Collector gathers performance counters for the running session.
type Collector struct {
	// Step metrics
	StepCount      int64
	StepLatencySum int64 // nanoseconds
	StepLatencyMax int64

	// Propagation metrics
	DeltasApplied    int64
	SensorsTriggered int64
	RoomCommands     int64

	// Event persistence metrics
	EventsWritten    int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	StartTime time.Time
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordStep records one turn advance and its latency.
func (c *Collector) RecordStep(latency time.Duration, deltas, triggered int) {
	atomic.AddInt64(&c.StepCount, 1)
	atomic.AddInt64(&c.StepLatencySum, int64(latency))
	atomic.AddInt64(&c.DeltasApplied, int64(deltas))
	atomic.AddInt64(&c.SensorsTriggered, int64(triggered))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > c.StepLatencyMax {
		c.StepLatencyMax = int64(latency)
	}
}

// RecordRoomCommand records one caller-invoked room operation.
func (c *Collector) RecordRoomCommand() {
	atomic.AddInt64(&c.RoomCommands, 1)
}

// RecordEventWrite records an event persistence attempt.
func (c *Collector) RecordEventWrite(err error) {
	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
		return
	}
	atomic.AddInt64(&c.EventsWritten, 1)
}

// WSConnected / WSDisconnected track the active observer count.
func (c *Collector) WSConnected()    { atomic.AddInt64(&c.WSConnectionsActive, 1) }
func (c *Collector) WSDisconnected() { atomic.AddInt64(&c.WSConnectionsActive, -1) }

// RecordWSMessage tracks message flow through the hub.
func (c *Collector) RecordWSMessage(inbound bool) {
	if inbound {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError tracks a websocket failure.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns the current counters as a serializable map.
func (c *Collector) Snapshot() map[string]any {
	steps := atomic.LoadInt64(&c.StepCount)
	latSum := atomic.LoadInt64(&c.StepLatencySum)
	avgMs := float64(0)
	if steps > 0 {
		avgMs = float64(latSum) / float64(steps) / 1e6
	}

	return map[string]any{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),
		"steps": map[string]any{
			"count":          steps,
			"avg_latency_ms": avgMs,
			"max_latency_ms": float64(c.StepLatencyMax) / 1e6,
		},
		"propagation": map[string]any{
			"deltas_applied":    atomic.LoadInt64(&c.DeltasApplied),
			"sensors_triggered": atomic.LoadInt64(&c.SensorsTriggered),
			"room_commands":     atomic.LoadInt64(&c.RoomCommands),
		},
		"events": map[string]any{
			"written": atomic.LoadInt64(&c.EventsWritten),
			"errors":  atomic.LoadInt64(&c.EventWriteErrors),
		},
		"websocket": map[string]any{
			"active":       atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":  atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out": atomic.LoadInt64(&c.WSMessagesOut),
			"errors":       atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler serves the metrics snapshot as JSON.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(collector.Snapshot())
	}
}
