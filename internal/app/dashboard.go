package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/shelf/internal/library"
)

// StatsSource is the part of the API the dashboard reads.
type StatsSource interface {
	ListBooks(ctx context.Context) ([]library.Book, error)
	IssuedCounts(ctx context.Context) ([]library.IssuedCount, error)
	PendingCount(ctx context.Context) (int, error)
}

// FetchStats loads the three dashboard inputs in parallel and summarizes
// them for period. The first failure cancels the other requests.
func FetchStats(ctx context.Context, src StatsSource, period library.Period, now time.Time) (library.Stats, error) {
	var (
		books   []library.Book
		counts  []library.IssuedCount
		pending int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = src.ListBooks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = src.IssuedCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = src.PendingCount(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return library.Stats{}, err
	}
	if period.Year == 0 {
		period.Year = now.Year()
	}
	return library.Summarize(books, counts, pending, period, now), nil
}
