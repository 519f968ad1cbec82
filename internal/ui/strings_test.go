package ui

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"The Name of the Rose", 8, "The Nam…"},
		{"abc", 1, "a"},
		{"unbounded", 0, "unbounded"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateMiddleKeepsEnds(t *testing.T) {
	got := truncateMiddle("/home/librarian/.local/state/shelf/shelf.log", 15)
	if len([]rune(got)) != 15 {
		t.Fatalf("truncateMiddle length = %d, want 15 (%q)", len([]rune(got)), got)
	}
	if got[:7] != "/home/l" {
		t.Fatalf("truncateMiddle prefix = %q", got)
	}
	if want := "elf.log"; got[len(got)-len(want):] != want {
		t.Fatalf("truncateMiddle = %q, want suffix %q", got, want)
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"pending":     "Pending",
		"RETURNED":    "Returned",
		"book_added":  "Book Added",
		"":            "",
		"  overdue  ": "Overdue",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFitPadsAndTruncates(t *testing.T) {
	if got := fit("ab", 4); got != "ab  " {
		t.Fatalf("fit pad = %q", got)
	}
	if got := fit("abcdef", 4); got != "abc…" {
		t.Fatalf("fit truncate = %q", got)
	}
}

func TestPlural(t *testing.T) {
	if got := plural(1, "book"); got != "1 book" {
		t.Fatalf("plural(1) = %q", got)
	}
	if got := plural(3, "book"); got != "3 books" {
		t.Fatalf("plural(3) = %q", got)
	}
}
