package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zombiotrack/zombiotrack/internal/engine"
	"github.com/zombiotrack/zombiotrack/internal/platform/logger"
)

// Ticker advances a session automatically at a fixed interval. It knows
// nothing about rooms or sensors, only turn progression.
type Ticker struct {
	session  *Session
	interval time.Duration
	logger   *logger.Logger
	stopChan chan struct{}
}

// NewTicker creates an auto-step ticker for a session.
func NewTicker(s *Session, interval time.Duration, log *logger.Logger) *Ticker {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Ticker{
		session:  s,
		interval: interval,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Start begins the auto-step loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info(fmt.Sprintf("Auto-step ticker started, interval %s", t.interval))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Auto-step ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Auto-step ticker stopped manually.")
			return
		case <-ticker.C:
			if _, err := t.session.Step(); err != nil {
				// Contract violations mean a corrupted seed map; keep
				// ticking, operators can still reset the session.
				if errors.Is(err, engine.ErrContractViolation) {
					t.logger.Error(fmt.Sprintf("Auto-step skipped: %v", err))
					continue
				}
				t.logger.Error(fmt.Sprintf("Auto-step failed: %v", err))
			}
		}
	}
}

// Stop gracefully stops the ticker.
func (t *Ticker) Stop() {
	close(t.stopChan)
}
