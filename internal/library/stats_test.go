package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2025, time.March, 20, 9, 0, 0, 0, time.Local)
	books := []Book{
		{AccessionNo: "A1", AddedOn: "2025-03-02"},
		{AccessionNo: "A2", AddedOn: "2025-01-15"},
		{AccessionNo: "A3", AddedOn: "2024-07-01"},
		{AccessionNo: "A4", AddedOn: ""},
	}
	counts := []IssuedCount{
		{AccessionNo: "A1", Count: 4},
		{AccessionNo: "A2", Count: 1},
		{AccessionNo: "A3", Count: 9},
	}

	year := Summarize(books, counts, 6, Period{Year: 2025}, now)
	assert.Equal(t, 2, year.BooksAdded)
	assert.Equal(t, 5, year.TimesIssued)
	assert.Equal(t, 6, year.Pending)
	assert.Equal(t, []int{2025, 2024}, year.Years)

	march := Summarize(books, counts, 6, Period{Year: 2025, Month: time.March}, now)
	assert.Equal(t, 1, march.BooksAdded)
	assert.Equal(t, 4, march.TimesIssued)
	assert.Equal(t, 6, march.Pending)

	january := Summarize(books, counts, 6, Period{Year: 2025, Month: time.January}, now)
	assert.Equal(t, 1, january.BooksAdded)
	assert.Zero(t, january.Pending, "pending only counts toward the current month")

	older := Summarize(books, counts, 6, Period{Year: 2024}, now)
	assert.Equal(t, 1, older.BooksAdded)
	assert.Equal(t, 9, older.TimesIssued)
	assert.Zero(t, older.Pending)
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "2025", Period{Year: 2025}.Label())
	assert.Equal(t, "March 2025", Period{Year: 2025, Month: time.March}.Label())
}
