package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/notify"
)

// ErrStale is returned by Refresh when a newer refresh or mutation
// superseded it. The response was discarded.
var ErrStale = errors.New("stale response discarded")

// SyncStrategy decides how the local list follows a successful mutation.
type SyncStrategy int

const (
	// SyncRefetch reloads the list from the server.
	SyncRefetch SyncStrategy = iota
	// SyncPatch edits the local list in place. Creates still refetch
	// because the server assigns identifiers.
	SyncPatch
)

// AuthChecker reports whether a session is active.
type AuthChecker interface {
	IsAuthenticated() bool
}

// Spec describes one remote resource.
type Spec[T any] struct {
	Name     string // plural, for logs and notices ("books")
	Noun     string // singular, capitalised ("Book")
	Fetch    func(ctx context.Context) ([]T, error)
	Key      func(T) library.ID
	Haystack func(T) string
	Strategy SyncStrategy

	Create func(ctx context.Context, item T) error
	Update func(ctx context.Context, item T) error
	Delete func(ctx context.Context, id library.ID) error
}

// Config holds a Collection's collaborators.
type Config struct {
	Auth     AuthChecker
	Notifier notify.Notifier
	Logger   *slog.Logger
	PageSize int
}

// DefaultPageSize is the number of rows per page when none is configured.
const DefaultPageSize = 20

// Collection is the controller behind every list view: it fetches a remote
// resource, keeps the last good copy, filters and pages it locally, and
// keeps it in step with the server after mutations.
type Collection[T any] struct {
	spec     Spec[T]
	auth     AuthChecker
	notifier notify.Notifier
	logger   *slog.Logger

	mu          sync.RWMutex
	items       []T
	loaded      bool
	filter      string
	page        int
	pageSize    int
	generation  uint64
	lastUpdated time.Time
	lastError   error
	failures    int
}

// NewCollection returns an empty collection for spec.
func NewCollection[T any](spec Spec[T], cfg Config) *Collection[T] {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Collection[T]{
		spec:     spec,
		auth:     cfg.Auth,
		notifier: cfg.Notifier,
		logger:   cfg.Logger.With("collection", spec.Name),
		pageSize: cfg.PageSize,
	}
}

// Name returns the resource name.
func (c *Collection[T]) Name() string { return c.spec.Name }

func (c *Collection[T]) authenticated() bool {
	return c.auth == nil || c.auth.IsAuthenticated()
}

// Refresh fetches the list. Failures keep the previous list and post one
// error notice. Authorization failures post nothing here; the API guard
// already announced them.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	return c.refresh(ctx, true)
}

// Poll is Refresh without notices, for background refreshes.
func (c *Collection[T]) Poll(ctx context.Context) error {
	return c.refresh(ctx, false)
}

func (c *Collection[T]) refresh(ctx context.Context, announce bool) error {
	if !c.authenticated() {
		return api.ErrNotAuthenticated
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	items, err := c.spec.Fetch(ctx)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale response", "generation", gen)
		return ErrStale
	}
	c.lastUpdated = time.Now()
	if err != nil {
		c.lastError = err
		c.failures++
		failures := c.failures
		c.mu.Unlock()

		c.logger.Warn("refresh failed", "error", err, "consecutive_failures", failures)
		if announce && shouldAnnounce(err) {
			c.notifier.Notify(notify.LevelError, fmt.Sprintf("Could not load %s: %s", c.spec.Name, api.Message(err)))
		}
		return err
	}
	c.items = cloneItems(items)
	c.loaded = true
	c.lastError = nil
	c.failures = 0
	c.clampPageLocked()
	count := len(c.items)
	c.mu.Unlock()

	c.logger.Debug("refreshed", "count", count)
	return nil
}

// Action is a mutation performed against the server.
type Action[T any] struct {
	Verb    string // for logs ("delete book")
	Success string // notice posted on success
	Run     func(ctx context.Context) error
	// Patch applies the change locally for SyncPatch collections. A nil
	// Patch always refetches.
	Patch   func(items []T) []T
}

// Apply performs a, posts exactly one notice for it, and brings the local
// list in line with the server. Nothing changes locally when the request
// fails, and the request is never retried.
func (c *Collection[T]) Apply(ctx context.Context, a Action[T]) error {
	if !c.authenticated() {
		return api.ErrNotAuthenticated
	}
	if err := a.Run(ctx); err != nil {
		c.logger.Warn("mutation failed", "action", a.Verb, "error", err)
		if shouldAnnounce(err) {
			c.notifier.Notify(notify.LevelError, api.Message(err))
		}
		return err
	}
	c.logger.Info("mutation applied", "action", a.Verb)
	if a.Success != "" {
		c.notifier.Notify(notify.LevelSuccess, a.Success)
	}

	if c.spec.Strategy == SyncPatch && a.Patch != nil {
		c.mu.Lock()
		c.items = a.Patch(cloneItems(c.items))
		// Responses already in flight predate this change.
		c.generation++
		c.clampPageLocked()
		c.mu.Unlock()
		return nil
	}
	if err := c.Poll(ctx); err != nil && !errors.Is(err, ErrStale) {
		c.logger.Warn("refetch after mutation failed", "action", a.Verb, "error", err)
	}
	return nil
}

// Create adds item through the spec's Create call.
func (c *Collection[T]) Create(ctx context.Context, item T) error {
	if c.spec.Create == nil {
		return fmt.Errorf("%s: create not supported", c.spec.Name)
	}
	return c.Apply(ctx, Action[T]{
		Verb:    "create " + c.spec.Name,
		Success: c.spec.Noun + " added successfully!",
		Run:     func(ctx context.Context) error { return c.spec.Create(ctx, item) },
	})
}

// Update saves item through the spec's Update call.
func (c *Collection[T]) Update(ctx context.Context, item T) error {
	if c.spec.Update == nil {
		return fmt.Errorf("%s: update not supported", c.spec.Name)
	}
	key := c.spec.Key(item)
	return c.Apply(ctx, Action[T]{
		Verb:    "update " + c.spec.Name,
		Success: c.spec.Noun + " updated successfully!",
		Run:     func(ctx context.Context) error { return c.spec.Update(ctx, item) },
		Patch: func(items []T) []T {
			for i := range items {
				if c.spec.Key(items[i]) == key {
					items[i] = item
				}
			}
			return items
		},
	})
}

// Delete removes the item with id through the spec's Delete call.
func (c *Collection[T]) Delete(ctx context.Context, id library.ID) error {
	if c.spec.Delete == nil {
		return fmt.Errorf("%s: delete not supported", c.spec.Name)
	}
	return c.Apply(ctx, Action[T]{
		Verb:    "delete " + c.spec.Name,
		Success: c.spec.Noun + " deleted successfully!",
		Run:     func(ctx context.Context) error { return c.spec.Delete(ctx, id) },
		Patch: func(items []T) []T {
			kept := items[:0]
			for _, it := range items {
				if c.spec.Key(it) != id {
					kept = append(kept, it)
				}
			}
			return kept
		},
	})
}

// SetFilter changes the search text and returns to the first page.
func (c *Collection[T]) SetFilter(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = q
	c.page = 0
}

// SetPageSize changes the rows per page and returns to the first page.
func (c *Collection[T]) SetPageSize(n int) {
	if n <= 0 {
		n = DefaultPageSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = n
	c.page = 0
}

// SetPage moves to page p, clamped to the available pages.
func (c *Collection[T]) SetPage(p int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = p
	c.clampPageLocked()
}

// NextPage advances one page if possible.
func (c *Collection[T]) NextPage() { c.movePage(1) }

// PrevPage goes back one page if possible.
func (c *Collection[T]) PrevPage() { c.movePage(-1) }

func (c *Collection[T]) movePage(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page += delta
	c.clampPageLocked()
}

func (c *Collection[T]) clampPageLocked() {
	pages := PageCount(len(Filter(c.items, c.filter, c.spec.Haystack)), c.pageSize)
	if c.page >= pages {
		c.page = pages - 1
	}
	if c.page < 0 {
		c.page = 0
	}
}

// Clear forgets the fetched list, e.g. after logout.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.loaded = false
	c.filter = ""
	c.page = 0
	c.lastError = nil
	c.failures = 0
	c.generation++
}

// All returns a copy of the full fetched list.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneItems(c.items)
}

// Find returns the item with id.
func (c *Collection[T]) Find(id library.ID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.spec.Key(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Snapshot is what a view renders.
type Snapshot[T any] struct {
	Rows                []T // current page of the filtered list
	Filtered            int
	Total               int
	Page                int
	Pages               int
	PageSize            int
	Filter              string
	Loaded              bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has failed several refreshes in a row.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Snapshot returns the current page and bookkeeping.
func (c *Collection[T]) Snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	filtered := Filter(c.items, c.filter, c.spec.Haystack)
	return Snapshot[T]{
		Rows:                cloneItems(Paginate(filtered, c.page, c.pageSize)),
		Filtered:            len(filtered),
		Total:               len(c.items),
		Page:                c.page,
		Pages:               PageCount(len(filtered), c.pageSize),
		PageSize:            c.pageSize,
		Filter:              c.filter,
		Loaded:              c.loaded,
		LastUpdated:         c.lastUpdated,
		LastError:           c.lastError,
		ConsecutiveFailures: c.failures,
	}
}

func shouldAnnounce(err error) bool {
	switch api.Classify(err) {
	case api.KindUnauthorized, api.KindNotAuthenticated, api.KindCanceled:
		return false
	default:
		return true
	}
}

func cloneItems[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
