// Package notify carries short-lived user notices ("toasts") from the code
// that performs an action to whatever surface is showing them.
package notify

import (
	"sync"
	"time"
)

// Level orders notices by severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier accepts user-visible notices.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to Notifier.
type Func func(level Level, message string)

// Notify calls f.
func (f Func) Notify(level Level, message string) { f(level, message) }

// Discard drops every notice.
var Discard Notifier = Func(func(Level, string) {})

// Notice is a message shown until it expires.
type Notice struct {
	ID      uint64
	Level   Level
	Message string
	Posted  time.Time
	Expires time.Time
}

const (
	defaultTTL = 4 * time.Second
	maxActive  = 5
)

// Center keeps recent notices for a UI to poll. The oldest notice is
// dropped once maxActive are shown.
type Center struct {
	mu      sync.Mutex
	notices []Notice
	nextID  uint64
	ttl     time.Duration
	now     func() time.Time
	onPost  func(Notice)
}

// NewCenter returns a Center whose notices last ttl; zero selects the default.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Center{ttl: ttl, now: time.Now}
}

var _ Notifier = (*Center)(nil)

// OnPost registers fn to be called, outside the lock, for each new notice.
func (c *Center) OnPost(fn func(Notice)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPost = fn
}

// Notify records a notice. Error notices stay twice as long.
func (c *Center) Notify(level Level, message string) {
	if message == "" {
		return
	}
	c.mu.Lock()
	now := c.now()
	ttl := c.ttl
	if level == LevelError {
		ttl *= 2
	}
	c.nextID++
	n := Notice{ID: c.nextID, Level: level, Message: message, Posted: now, Expires: now.Add(ttl)}
	c.notices = append(c.pruneLocked(now), n)
	if len(c.notices) > maxActive {
		c.notices = c.notices[len(c.notices)-maxActive:]
	}
	hook := c.onPost
	c.mu.Unlock()

	if hook != nil {
		hook(n)
	}
}

// Active returns unexpired notices, oldest first.
func (c *Center) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = c.pruneLocked(c.now())
	if len(c.notices) == 0 {
		return nil
	}
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Clear drops every notice.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = nil
}

func (c *Center) pruneLocked(now time.Time) []Notice {
	kept := c.notices[:0]
	for _, n := range c.notices {
		if now.Before(n.Expires) {
			kept = append(kept, n)
		}
	}
	return kept
}

// Recorder remembers every notice; it is meant for tests.
type Recorder struct {
	mu      sync.Mutex
	Notices []Notice
}

// Notify records the notice.
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, Notice{Level: level, Message: message})
}

// Messages returns the recorded messages at level.
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.Notices {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// Len returns the number of recorded notices.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Notices)
}
