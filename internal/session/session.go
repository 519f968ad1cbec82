// Package session owns the console's authentication state. A Manager is
// created once from the credential store and passed to everything that
// needs to read the token or end the session.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/shelf/internal/credstore"
)

// ErrEmptyToken is returned by Login when the payload carries no token.
var ErrEmptyToken = errors.New("login requires a token")

// Payload is what a successful login hands to the manager.
type Payload struct {
	Token string
	Role  string
}

// State is a point-in-time copy of the session. Authenticated is true
// exactly when Token is non-empty.
type State struct {
	Authenticated bool
	Token         string
	Role          string

	// Generation increases on every mutation.
	Generation uint64
}

// IsAdmin reports whether the session carries the admin role.
func (s State) IsAdmin() bool {
	return s.Authenticated && strings.EqualFold(s.Role, "admin")
}

// Manager is the LoggedOut/LoggedIn state machine. Every mutation is
// mirrored to the credential store before listeners are told about it.
type Manager struct {
	mu        sync.RWMutex
	state     State
	store     credstore.Store
	logger    *slog.Logger
	listeners map[int]func(State)
	nextID    int
}

// New builds a Manager from whatever the store holds. A stored session that
// claims to be authenticated without a token is discarded.
func New(store credstore.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = credstore.NewMemoryStore(nil)
	}
	m := &Manager{
		store:     store,
		logger:    logger,
		listeners: make(map[int]func(State)),
	}
	m.restore()
	return m
}

func (m *Manager) restore() {
	flag, _, err := m.store.Get(credstore.KeyAuthenticated)
	if err != nil {
		m.logger.Warn("session restore failed, starting logged out", "error", err)
		return
	}
	token, _, err := m.store.Get(credstore.KeyToken)
	if err != nil {
		m.logger.Warn("session restore failed, starting logged out", "error", err)
		return
	}
	role, _, err := m.store.Get(credstore.KeyRole)
	if err != nil {
		m.logger.Warn("session restore failed, starting logged out", "error", err)
		return
	}

	authenticated := flag == "true"
	token = strings.TrimSpace(token)
	switch {
	case authenticated && token != "":
		m.state = State{Authenticated: true, Token: token, Role: role}
		m.logger.Debug("session restored", "role", role)
	case authenticated || token != "":
		m.logger.Warn("stored session is inconsistent, clearing it",
			"is_authenticated", flag,
			"has_token", token != "",
		)
		if err := m.store.Delete(credstore.KeyAuthenticated, credstore.KeyToken, credstore.KeyRole); err != nil {
			m.logger.Warn("clear stored session failed", "error", err)
		}
	}
}

// Login moves to LoggedIn with the payload's token and role, replacing any
// current session. The in-memory state changes even when persisting fails;
// the persistence error is returned so callers can warn.
func (m *Manager) Login(p Payload) error {
	token := strings.TrimSpace(p.Token)
	if token == "" {
		return ErrEmptyToken
	}

	m.mu.Lock()
	m.state = State{
		Authenticated: true,
		Token:         token,
		Role:          strings.TrimSpace(p.Role),
		Generation:    m.state.Generation + 1,
	}
	snap := m.state
	err := m.store.Set(map[string]string{
		credstore.KeyAuthenticated: "true",
		credstore.KeyToken:         snap.Token,
		credstore.KeyRole:          snap.Role,
	})
	listeners := m.listenersLocked()
	m.mu.Unlock()

	m.logger.Info("logged in", "role", snap.Role, "generation", snap.Generation)
	notify(listeners, snap)
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Logout moves to LoggedOut and removes the stored keys. Calling it while
// already logged out only re-removes the keys.
func (m *Manager) Logout() error {
	m.mu.Lock()
	if !m.state.Authenticated {
		err := m.store.Delete(credstore.KeyAuthenticated, credstore.KeyToken, credstore.KeyRole)
		m.mu.Unlock()
		if err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	snap, listeners, err := m.logoutLocked()
	m.mu.Unlock()

	m.logger.Info("logged out", "generation", snap.Generation)
	notify(listeners, snap)
	return err
}

// ExpireToken logs out only if token is still the current token. It
// returns true for the single caller that performed the logout.
func (m *Manager) ExpireToken(token string) bool {
	m.mu.Lock()
	if !m.state.Authenticated || m.state.Token != token {
		m.mu.Unlock()
		return false
	}
	snap, listeners, err := m.logoutLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("clear expired session failed", "error", err)
	}
	m.logger.Warn("session expired", "generation", snap.Generation)
	notify(listeners, snap)
	return true
}

func (m *Manager) logoutLocked() (State, []func(State), error) {
	m.state = State{Generation: m.state.Generation + 1}
	snap := m.state
	var err error
	if delErr := m.store.Delete(credstore.KeyAuthenticated, credstore.KeyToken, credstore.KeyRole); delErr != nil {
		err = fmt.Errorf("clear session: %w", delErr)
	}
	return snap, m.listenersLocked(), err
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether a session is active.
func (m *Manager) IsAuthenticated() bool { return m.Snapshot().Authenticated }

// Token returns the bearer token, or "" when logged out.
func (m *Manager) Token() string { return m.Snapshot().Token }

// Role returns the role granted at login, or "" when logged out.
func (m *Manager) Role() string { return m.Snapshot().Role }

// Subscribe registers fn to be called after every mutation. The returned
// function removes the registration.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) listenersLocked() []func(State) {
	if len(m.listeners) == 0 {
		return nil
	}
	out := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// ok is false for opaque tokens and tokens without an expiry.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether token is a JWT whose expiry has passed at now.
func Expired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && !now.Before(exp)
}
