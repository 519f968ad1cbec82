package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 30 * time.Second
)

// Poller refreshes a collection in the background while a session is
// active. Failures back off exponentially and stay quiet; the list view
// shows the offline state instead of a stream of notices.
type Poller struct {
	Target   interface{ Poll(context.Context) error }
	Auth     state.AuthChecker
	Interval time.Duration
	Logger   *slog.Logger
	// OnUpdate runs after every successful poll.
	OnUpdate func()
}

// Start launches the poller and returns immediately. It stops when ctx is
// cancelled.
func (p *Poller) Start(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if p.Auth == nil || p.Auth.IsAuthenticated() {
				err := p.Target.Poll(ctx)
				switch {
				case err == nil:
					failures = 0
					if p.OnUpdate != nil {
						p.OnUpdate()
					}
				case errors.Is(err, state.ErrStale), errors.Is(err, api.ErrNotAuthenticated):
				default:
					failures++
					logger.Debug("background refresh failed", "error", err, "failures", failures)
				}
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff. The cap never shortens a base interval that is already
// longer.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := maxBackoff
	if base > limit {
		limit = base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}
