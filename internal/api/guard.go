package api

import (
	"log/slog"
	"sync"
)

// Expirer ends a session if it still holds a given token.
type Expirer interface {
	ExpireToken(token string) bool
}

// Guard is the single place authorization failures are handled. Tripping it
// with a rejected token ends the session once; only the caller that actually
// ended it runs the expiry handler, so concurrent failures produce one
// logout, one notice and one redirect.
type Guard struct {
	session Expirer
	logger  *slog.Logger

	mu        sync.Mutex
	onExpired func()
}

// NewGuard returns a Guard that expires sessions through s.
func NewGuard(s Expirer, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{session: s, logger: logger}
}

// OnExpired sets the handler run after the guard ends a session.
func (g *Guard) OnExpired(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onExpired = fn
}

// Trip reports an authorization failure for token. It returns true if this
// call ended the session.
func (g *Guard) Trip(token string) bool {
	if g == nil || g.session == nil {
		return false
	}
	if !g.session.ExpireToken(token) {
		g.logger.Debug("authorization failure for stale token ignored")
		return false
	}
	g.logger.Warn("authorization rejected, session ended")

	g.mu.Lock()
	fn := g.onExpired
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
	return true
}
