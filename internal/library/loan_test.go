package library

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueDateAddsSevenCalendarDays(t *testing.T) {
	issued := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2025, time.March, 17, 0, 0, 0, 0, time.Local), DueDate(issued))

	// Month rollover.
	issued = time.Date(2025, time.January, 28, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2025, time.February, 4, 0, 0, 0, 0, time.Local), DueDate(issued))
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		pending bool
		now     time.Time
		want    bool
	}{
		{"pending after due", true, due.Add(time.Second), true},
		{"pending exactly at due", true, due, false},
		{"pending before due", true, due.Add(-time.Hour), false},
		{"returned long after due", false, due.AddDate(1, 0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOverdue(tt.pending, due, tt.now))
		})
	}
}

func TestParseIssuedOn(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-10", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)},
		{"10/03/2025", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)},
		{"2025-03-10 14:30:00", time.Date(2025, time.March, 10, 14, 30, 0, 0, time.Local)},
		{"2025-03-10T14:30:00Z", time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIssuedOn(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}

	_, err := ParseIssuedOn("  ")
	assert.Error(t, err)
	_, err = ParseIssuedOn("yesterday")
	assert.Error(t, err)
}

func TestSanitizerReplacesLegacyDates(t *testing.T) {
	var logs bytes.Buffer
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	s := NewSanitizer(slog.New(slog.NewTextHandler(&logs, nil)))
	s.Now = func() time.Time { return now }

	loan := s.Loan(Issue{IssueID: "41", IssuedOn: "2023-12-31", Status: "Pending"})

	assert.True(t, loan.Sanitized)
	assert.Equal(t, now, loan.IssuedAt)
	assert.Equal(t, now.AddDate(0, 0, 7), loan.DueAt)
	assert.False(t, loan.Overdue)
	assert.Contains(t, logs.String(), "issue_id=41")
	assert.Contains(t, logs.String(), "issued_on=2023-12-31")
}

func TestSanitizerTreatsUnreadableDatesAsLegacy(t *testing.T) {
	var logs bytes.Buffer
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	s := NewSanitizer(slog.New(slog.NewTextHandler(&logs, nil)))
	s.Now = func() time.Time { return now }

	loan := s.Loan(Issue{IssueID: "7", IssuedOn: "not a date", Status: "Pending"})

	assert.True(t, loan.Sanitized)
	assert.Equal(t, now, loan.IssuedAt)
	assert.Contains(t, logs.String(), "issued date unreadable")
}

func TestSanitizerKeepsRecentDates(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	s := NewSanitizer(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.Now = func() time.Time { return now }

	loans := s.Loans([]Issue{
		{IssueID: "1", IssuedOn: "2025-05-01", Status: "Pending"},
		{IssueID: "2", IssuedOn: "2025-05-30", Status: "Pending"},
		{IssueID: "3", IssuedOn: "2025-05-01", Status: "Returned"},
		{IssueID: "4", IssuedOn: "2024-01-01", Status: "pending"},
	})
	require.Len(t, loans, 4)

	assert.False(t, loans[0].Sanitized)
	assert.True(t, loans[0].Overdue)
	assert.Equal(t, 24, loans[0].DaysOverdue(now))

	assert.False(t, loans[1].Overdue)
	assert.Zero(t, loans[1].DaysOverdue(now))

	assert.False(t, loans[2].Overdue, "returned loans are never overdue")

	assert.False(t, loans[3].Sanitized, "the cutoff day itself is genuine")
	assert.True(t, loans[3].Overdue)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(time.Time{}))
	assert.Equal(t, "05/03/2025", FormatDate(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.Local)))
}

func TestSanitizerLogsEachLegacyRecordOnce(t *testing.T) {
	var logs bytes.Buffer
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.Local)
	s := NewSanitizer(slog.New(slog.NewTextHandler(&logs, nil)))
	s.Now = func() time.Time { return now }

	issues := []Issue{
		{IssueID: "41", IssuedOn: "2023-12-31", Status: "Pending"},
		{IssueID: "42", IssuedOn: "garbled", Status: "Pending"},
	}
	for i := 0; i < 3; i++ {
		loans := s.Loans(issues)
		require.Len(t, loans, 2)
		assert.True(t, loans[0].Sanitized)
		assert.True(t, loans[1].Sanitized)
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "issue_id=41"))
	assert.Equal(t, 1, strings.Count(logs.String(), "issue_id=42"))

	s.Loan(Issue{IssueID: "41", IssuedOn: "2022-01-05", Status: "Pending"})
	assert.Equal(t, 2, strings.Count(logs.String(), "issue_id=41"))
}

func TestLoanAtReevaluatesOverdue(t *testing.T) {
	issued := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.Local)
	s := NewSanitizer(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.Now = func() time.Time { return issued }

	loan := s.Loan(Issue{IssueID: "9", IssuedOn: "2025-06-01", Status: "Pending"})
	require.False(t, loan.Overdue)

	later := loan.DueAt.AddDate(0, 0, 2)
	assert.True(t, loan.At(later).Overdue)
	assert.Equal(t, 2, loan.At(later).DaysOverdue(later))
	assert.False(t, loan.At(issued).Overdue)

	returned := loan
	returned.Issue.Status = "Returned"
	assert.False(t, returned.At(later).Overdue)
}
