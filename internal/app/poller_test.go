package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/shelf/internal/library"
)

func TestCalculateBackoff(t *testing.T) {
	base := 5 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"no failures", 0, 5 * time.Second},
		{"negative", -3, 5 * time.Second},
		{"one", 1, 10 * time.Second},
		{"two", 2, 20 * time.Second},
		{"three hits the cap", 3, maxBackoff},
		{"many", 50, maxBackoff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateBackoff(tt.failures, base); got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_LongBaseIsKept(t *testing.T) {
	base := 2 * time.Minute
	if got := calculateBackoff(4, base); got != base {
		t.Fatalf("calculateBackoff(4, %v) = %v, want the base interval", base, got)
	}
}

type fakeTarget struct {
	calls atomic.Int32
	err   error
}

func (f *fakeTarget) Poll(context.Context) error {
	f.calls.Add(1)
	return f.err
}

type fakeAuth struct{ ok atomic.Bool }

func (a *fakeAuth) IsAuthenticated() bool { return a.ok.Load() }

func TestPollerRefreshesWhileAuthenticated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := &fakeTarget{}
	auth := &fakeAuth{}
	auth.ok.Store(true)
	updates := make(chan struct{}, 10)

	p := &Poller{
		Target:   target,
		Auth:     auth,
		Interval: 10 * time.Millisecond,
		OnUpdate: func() { updates <- struct{}{} },
	}
	p.Start(ctx)

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reported an update")
	}
	if target.calls.Load() == 0 {
		t.Fatal("target was not polled")
	}
}

func TestPollerSkipsWithoutSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := &fakeTarget{}
	p := &Poller{Target: target, Auth: &fakeAuth{}, Interval: 5 * time.Millisecond}
	p.Start(ctx)

	time.Sleep(60 * time.Millisecond)
	if n := target.calls.Load(); n != 0 {
		t.Fatalf("polled %d times without a session", n)
	}
}

func TestPollerFailuresDoNotUpdate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := &fakeTarget{err: errors.New("connection refused")}
	var updated atomic.Bool
	p := &Poller{
		Target:   target,
		Interval: 5 * time.Millisecond,
		OnUpdate: func() { updated.Store(true) },
	}
	p.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if target.calls.Load() == 0 {
		t.Fatal("target was not polled")
	}
	if updated.Load() {
		t.Fatal("OnUpdate ran after a failed poll")
	}
}

type fakeStats struct {
	mu      sync.Mutex
	calls   []string
	books   []library.Book
	counts  []library.IssuedCount
	pending int
	err     error
}

func (f *fakeStats) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeStats) ListBooks(context.Context) ([]library.Book, error) {
	f.record("books")
	return f.books, nil
}

func (f *fakeStats) IssuedCounts(context.Context) ([]library.IssuedCount, error) {
	f.record("counts")
	return f.counts, f.err
}

func (f *fakeStats) PendingCount(context.Context) (int, error) {
	f.record("pending")
	return f.pending, nil
}

func TestFetchStatsSummarizesPeriod(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.Local)
	src := &fakeStats{
		books: []library.Book{
			{AccessionNo: "1", AddedOn: "2025-06-02"},
			{AccessionNo: "2", AddedOn: "2025-01-20"},
			{AccessionNo: "3", AddedOn: "2024-11-05"},
		},
		counts: []library.IssuedCount{
			{AccessionNo: "1", Count: 4},
			{AccessionNo: "2", Count: 1},
			{AccessionNo: "3", Count: 7},
		},
		pending: 6,
	}

	stats, err := FetchStats(context.Background(), src, library.Period{}, now)
	if err != nil {
		t.Fatalf("FetchStats returned error: %v", err)
	}
	if len(src.calls) != 3 {
		t.Fatalf("calls = %v, want all three sources", src.calls)
	}
	if stats.Period.Year != 2025 {
		t.Fatalf("Period.Year = %d, want the current year", stats.Period.Year)
	}
	if stats.BooksAdded != 2 || stats.TimesIssued != 5 || stats.Pending != 6 {
		t.Fatalf("stats = %+v, want 2 added, 5 issued, 6 pending", stats)
	}

	stats, err = FetchStats(context.Background(), src, library.Period{Year: 2024}, now)
	if err != nil {
		t.Fatalf("FetchStats returned error: %v", err)
	}
	if stats.BooksAdded != 1 || stats.TimesIssued != 7 || stats.Pending != 0 {
		t.Fatalf("stats for 2024 = %+v, want 1 added, 7 issued, no pending", stats)
	}
}

func TestFetchStatsReturnsFirstError(t *testing.T) {
	src := &fakeStats{err: errors.New("boom")}
	if _, err := FetchStats(context.Background(), src, library.Period{Year: 2025}, time.Now()); err == nil {
		t.Fatal("expected an error")
	}
}
