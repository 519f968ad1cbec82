package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/notify"
)

type fakeAuth struct{ ok bool }

func (f *fakeAuth) IsAuthenticated() bool { return f.ok }

// fakeBooks is an in-memory server for the catalog endpoints.
type fakeBooks struct {
	mu      sync.Mutex
	books   []library.Book
	nextID  int
	fetches int
	listErr error
	mutErr  error
}

func newFakeBooks(n int) *fakeBooks {
	f := &fakeBooks{nextID: 1}
	for i := 0; i < n; i++ {
		f.add(library.Book{
			AccessionNo: library.Text(fmt.Sprintf("A%03d", i)),
			Title:       library.Text(fmt.Sprintf("Title %d", i)),
			Author:      "Author",
		})
	}
	return f
}

func (f *fakeBooks) add(b library.Book) {
	b.ID = library.ID(fmt.Sprint(f.nextID))
	f.nextID++
	f.books = append(f.books, b)
}

func (f *fakeBooks) ListBooks(context.Context) ([]library.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]library.Book(nil), f.books...), nil
}

func (f *fakeBooks) AddBook(_ context.Context, b library.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	f.add(b)
	return nil
}

func (f *fakeBooks) UpdateBook(_ context.Context, b library.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	for i := range f.books {
		if f.books[i].ID == b.ID {
			f.books[i] = b
		}
	}
	return nil
}

func (f *fakeBooks) DeleteBook(_ context.Context, id library.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	kept := f.books[:0]
	for _, b := range f.books {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	f.books = kept
	return nil
}

func (f *fakeBooks) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestBooks(t *testing.T, server *fakeBooks) (*Collection[library.Book], *notify.Recorder, *fakeAuth) {
	t.Helper()
	rec := &notify.Recorder{}
	auth := &fakeAuth{ok: true}
	c := NewBooks(server, Config{Auth: auth, Notifier: rec, Logger: quietLogger(), PageSize: 10})
	return c, rec, auth
}

func sortedIDs(books []library.Book) []string {
	ids := make([]string, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID.String())
	}
	sort.Strings(ids)
	return ids
}

func TestRefreshLoadsList(t *testing.T) {
	server := newFakeBooks(25)
	c, rec, _ := newTestBooks(t, server)

	require.NoError(t, c.Refresh(context.Background()))

	snap := c.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, 25, snap.Total)
	assert.Equal(t, 3, snap.Pages)
	assert.Len(t, snap.Rows, 10)
	assert.Zero(t, rec.Len())
}

func TestRefreshWhileLoggedOutSendsNothing(t *testing.T) {
	server := newFakeBooks(3)
	c, rec, auth := newTestBooks(t, server)
	auth.ok = false

	err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, api.ErrNotAuthenticated)
	assert.Zero(t, server.fetchCount())
	assert.Zero(t, rec.Len())
}

func TestRefreshFailureKeepsListAndNotifiesOnce(t *testing.T) {
	server := newFakeBooks(4)
	c, rec, _ := newTestBooks(t, server)
	require.NoError(t, c.Refresh(context.Background()))

	server.listErr = &api.TransportError{Op: "list books", Err: errors.New("connection refused")}
	require.Error(t, c.Refresh(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, 4, snap.Total, "previous list is kept")
	assert.Error(t, snap.LastError)
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.False(t, snap.IsOffline())
	assert.Len(t, rec.Messages(notify.LevelError), 1)

	require.Error(t, c.Poll(context.Background()))
	assert.True(t, c.Snapshot().IsOffline())
	assert.Len(t, rec.Messages(notify.LevelError), 1, "poll is quiet")

	server.listErr = nil
	require.NoError(t, c.Refresh(context.Background()))
	assert.Zero(t, c.Snapshot().ConsecutiveFailures)
}

func TestRefreshUnauthorizedIsNotAnnouncedTwice(t *testing.T) {
	server := newFakeBooks(2)
	c, rec, _ := newTestBooks(t, server)
	server.listErr = api.ErrUnauthorized

	assert.ErrorIs(t, c.Refresh(context.Background()), api.ErrUnauthorized)
	assert.Zero(t, rec.Len())
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	rec := &notify.Recorder{}
	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	spec := Spec[library.Book]{
		Name: "books",
		Noun: "Book",
		Key:  library.BookKey,
		Fetch: func(ctx context.Context) ([]library.Book, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(started)
				<-release
				return []library.Book{{ID: "old"}}, nil
			}
			return []library.Book{{ID: "new"}}, nil
		},
	}
	c := NewCollection(spec, Config{Notifier: rec, Logger: quietLogger()})

	errs := make(chan error, 1)
	go func() { errs <- c.Refresh(context.Background()) }()
	<-started
	require.NoError(t, c.Refresh(context.Background()))
	close(release)

	assert.ErrorIs(t, <-errs, ErrStale)
	all := c.All()
	require.Len(t, all, 1)
	assert.Equal(t, library.ID("new"), all[0].ID)
}

func TestFilterResetsPage(t *testing.T) {
	server := newFakeBooks(30)
	c, _, _ := newTestBooks(t, server)
	require.NoError(t, c.Refresh(context.Background()))

	c.SetPage(2)
	assert.Equal(t, 2, c.Snapshot().Page)

	c.SetFilter("title 1")
	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Page)
	// "Title 1" and "Title 10".."Title 19"
	assert.Equal(t, 11, snap.Filtered)
	assert.Equal(t, 30, snap.Total)

	c.SetPage(1)
	c.SetPageSize(5)
	assert.Equal(t, 0, c.Snapshot().Page)
}

func TestPageIsClamped(t *testing.T) {
	server := newFakeBooks(12)
	c, _, _ := newTestBooks(t, server)
	require.NoError(t, c.Refresh(context.Background()))

	c.SetPage(99)
	assert.Equal(t, 1, c.Snapshot().Page)
	c.NextPage()
	assert.Equal(t, 1, c.Snapshot().Page)
	c.PrevPage()
	c.PrevPage()
	assert.Equal(t, 0, c.Snapshot().Page)
}

func TestPatchMatchesRefetch(t *testing.T) {
	ctx := context.Background()
	server := newFakeBooks(5)
	c, rec, _ := newTestBooks(t, server)
	require.NoError(t, c.Refresh(ctx))

	edited := c.All()[1]
	edited.Title = "Renamed"
	require.NoError(t, c.Update(ctx, edited))
	require.NoError(t, c.Delete(ctx, c.All()[0].ID))
	require.NoError(t, c.Create(ctx, library.Book{AccessionNo: "NEW", Title: "Fresh", Author: "X"}))

	assert.Equal(t, []string{
		"Book updated successfully!",
		"Book deleted successfully!",
		"Book added successfully!",
	}, rec.Messages(notify.LevelSuccess))

	fresh, err := server.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, sortedIDs(fresh), sortedIDs(c.All()))

	got, ok := c.Find(edited.ID)
	require.True(t, ok)
	assert.Equal(t, library.Text("Renamed"), got.Title)
}

func TestPatchDoesNotRefetch(t *testing.T) {
	ctx := context.Background()
	server := newFakeBooks(3)
	c, _, _ := newTestBooks(t, server)
	require.NoError(t, c.Refresh(ctx))
	before := server.fetchCount()

	require.NoError(t, c.Delete(ctx, c.All()[0].ID))
	assert.Equal(t, before, server.fetchCount())

	require.NoError(t, c.Create(ctx, library.Book{AccessionNo: "N", Title: "T", Author: "A"}))
	assert.Equal(t, before+1, server.fetchCount(), "creates refetch")
}

func TestFailedMutationLeavesListAlone(t *testing.T) {
	ctx := context.Background()
	server := newFakeBooks(3)
	c, rec, _ := newTestBooks(t, server)
	require.NoError(t, c.Refresh(ctx))

	server.mutErr = &api.BusinessError{Op: "delete book", Message: "Book is issued"}
	err := c.Delete(ctx, c.All()[0].ID)
	require.Error(t, err)

	assert.Len(t, c.All(), 3)
	assert.Equal(t, []string{"Book is issued"}, rec.Messages(notify.LevelError))
	assert.Empty(t, rec.Messages(notify.LevelSuccess))
}

func TestMutationWhileLoggedOut(t *testing.T) {
	server := newFakeBooks(1)
	c, rec, auth := newTestBooks(t, server)
	auth.ok = false

	assert.ErrorIs(t, c.Delete(context.Background(), "1"), api.ErrNotAuthenticated)
	assert.Zero(t, rec.Len())
}

func TestClearForgetsEverything(t *testing.T) {
	server := newFakeBooks(3)
	c, _, _ := newTestBooks(t, server)
	require.NoError(t, c.Refresh(context.Background()))
	c.SetFilter("A001")

	c.Clear()
	snap := c.Snapshot()
	assert.False(t, snap.Loaded)
	assert.Zero(t, snap.Total)
	assert.Empty(t, snap.Filter)
}
