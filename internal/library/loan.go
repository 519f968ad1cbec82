package library

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LoanPeriodDays is the number of calendar days a book may be kept.
const LoanPeriodDays = 7

// DateLayout is the day-first format used in list views.
const DateLayout = "02/01/2006"

// SanitizeCutoff is the earliest issued date accepted as genuine. Older
// values come from legacy rows and are treated as corrupted.
var SanitizeCutoff = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)

var issuedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	DateLayout,
}

// ParseIssuedOn parses the issued date formats the API has been seen to emit.
// Date-only values are interpreted in local time.
func ParseIssuedOn(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("issued date is empty")
	}
	for _, layout := range issuedLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized issued date %q", trimmed)
}

// DueDate returns the date the loan ends.
func DueDate(issued time.Time) time.Time {
	return issued.AddDate(0, 0, LoanPeriodDays)
}

// IsOverdue reports whether a loan with the given status and due date is
// overdue at now. Only pending loans can be overdue, and only strictly
// after the due instant.
func IsOverdue(pending bool, due, now time.Time) bool {
	return pending && now.After(due)
}

// FormatDate renders t as DD/MM/YYYY, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

// Loan is an issue record with derived dates.
type Loan struct {
	Issue     Issue
	IssuedAt  time.Time
	DueAt     time.Time
	Overdue   bool
	Sanitized bool
}

// At returns the loan with Overdue evaluated at now.
func (l Loan) At(now time.Time) Loan {
	l.Overdue = IsOverdue(l.Issue.IsPending(), l.DueAt, now)
	return l
}

// DaysOverdue returns the whole days elapsed since the due date, or zero.
func (l Loan) DaysOverdue(now time.Time) int {
	if !l.Overdue {
		return 0
	}
	return int(now.Sub(l.DueAt).Hours() / 24)
}

// Sanitizer derives loans from raw issue records. Issued dates before
// SanitizeCutoff, and dates that cannot be parsed, are replaced with the
// current time before the due date is computed. Each replaced record is
// logged once per Sanitizer, however often the list is rebuilt.
type Sanitizer struct {
	Logger *slog.Logger
	Cutoff time.Time
	Now    func() time.Time

	mu     sync.Mutex
	warned map[string]struct{}
}

// NewSanitizer returns a Sanitizer using the default cutoff and clock.
func NewSanitizer(logger *slog.Logger) *Sanitizer {
	return &Sanitizer{Logger: logger, Cutoff: SanitizeCutoff, Now: time.Now}
}

// Loan derives the loan for a single issue.
func (s *Sanitizer) Loan(issue Issue) Loan {
	now := s.now()
	issued, err := ParseIssuedOn(string(issue.IssuedOn))
	sanitized := false
	switch {
	case err != nil:
		if s.firstWarning(issue) {
			s.logger().Warn("issued date unreadable, using current time",
				"issue_id", issue.IssueID.String(),
				"issued_on", string(issue.IssuedOn),
				"error", err,
			)
		}
		issued, sanitized = now, true
	case issued.Before(s.cutoff()):
		if s.firstWarning(issue) {
			s.logger().Warn("issued date predates cutoff, using current time",
				"issue_id", issue.IssueID.String(),
				"issued_on", string(issue.IssuedOn),
				"cutoff", s.cutoff().Format("2006-01-02"),
			)
		}
		issued, sanitized = now, true
	}
	due := DueDate(issued)
	return Loan{
		Issue:     issue,
		IssuedAt:  issued,
		DueAt:     due,
		Overdue:   IsOverdue(issue.IsPending(), due, now),
		Sanitized: sanitized,
	}
}

// Loans derives loans for every issue, preserving order.
func (s *Sanitizer) Loans(issues []Issue) []Loan {
	if len(issues) == 0 {
		return nil
	}
	out := make([]Loan, len(issues))
	for i, issue := range issues {
		out[i] = s.Loan(issue)
	}
	return out
}

// firstWarning reports whether issue has not been logged yet and marks it.
// A changed issued date counts as a new record.
func (s *Sanitizer) firstWarning(issue Issue) bool {
	if s == nil {
		return true
	}
	key := issue.IssueID.String() + "|" + string(issue.IssuedOn)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.warned[key]; ok {
		return false
	}
	if s.warned == nil {
		s.warned = make(map[string]struct{})
	}
	s.warned[key] = struct{}{}
	return true
}

func (s *Sanitizer) now() time.Time {
	if s == nil || s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Sanitizer) cutoff() time.Time {
	if s == nil || s.Cutoff.IsZero() {
		return SanitizeCutoff
	}
	return s.Cutoff
}

func (s *Sanitizer) logger() *slog.Logger {
	if s == nil || s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
