package library

import (
	"sort"
	"strconv"
	"time"
)

// Period selects the books counted on the dashboard. Month zero means the
// whole year.
type Period struct {
	Year  int
	Month time.Month
}

// Label renders the period for headers, e.g. "2025" or "March 2025".
func (p Period) Label() string {
	if p.Month == 0 {
		return strconv.Itoa(p.Year)
	}
	return p.Month.String() + " " + strconv.Itoa(p.Year)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if t.Year() != p.Year {
		return false
	}
	return p.Month == 0 || t.Month() == p.Month
}

// Stats are the dashboard totals for a period.
type Stats struct {
	Period      Period
	BooksAdded  int
	TimesIssued int
	Pending     int
	Years       []int
}

// AvailableYears lists the years books were added in, newest first. The
// first year the catalog was used and the current year are always offered.
func AvailableYears(books []Book, now time.Time) []int {
	seen := map[int]struct{}{
		SanitizeCutoff.Year(): {},
		now.Year():            {},
	}
	for _, b := range books {
		if added, err := ParseIssuedOn(string(b.AddedOn)); err == nil {
			seen[added.Year()] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Summarize computes dashboard totals. The server only reports the current
// pending count, so it is attributed to the newest year and, when a month is
// selected, only to the current month.
func Summarize(books []Book, counts []IssuedCount, pending int, period Period, now time.Time) Stats {
	issued := make(map[string]int, len(counts))
	for _, c := range counts {
		issued[string(c.AccessionNo)] += int(c.Count)
	}

	years := AvailableYears(books, now)
	stats := Stats{Period: period, Years: years}
	for _, b := range books {
		added, err := ParseIssuedOn(string(b.AddedOn))
		if err != nil || !period.Contains(added) {
			continue
		}
		stats.BooksAdded++
		stats.TimesIssued += issued[string(b.AccessionNo)]
	}

	if len(years) > 0 && period.Year == years[0] && (period.Month == 0 || period.Month == now.Month()) {
		stats.Pending = pending
	}
	return stats
}
