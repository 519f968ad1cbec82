package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	line := `time=2026-10-17T09:12:01.000Z level=WARN msg="session expired" path=/books status=401`
	e := Parse(line)
	if !e.Parsed {
		t.Fatalf("Parse(%q) not parsed", line)
	}
	if e.Level != slog.LevelWarn {
		t.Errorf("Level = %v, want WARN", e.Level)
	}
	if e.Message != "session expired" {
		t.Errorf("Message = %q", e.Message)
	}
	if e.Time.IsZero() {
		t.Errorf("Time not parsed")
	}
	if v, ok := e.Attr("status"); !ok || v != "401" {
		t.Errorf("Attr(status) = %q, %v", v, ok)
	}
	if len(e.Attrs) != 2 {
		t.Errorf("Attrs = %v, want 2", e.Attrs)
	}
}

func TestParseQuotedEscapes(t *testing.T) {
	e := Parse(`level=ERROR msg="bad \"quote\" here" error="a b"`)
	if e.Message != `bad "quote" here` {
		t.Errorf("Message = %q", e.Message)
	}
	if v, _ := e.Attr("error"); v != "a b" {
		t.Errorf("Attr(error) = %q", v)
	}
}

func TestParseForeignLine(t *testing.T) {
	for _, line := range []string{"", "panic: runtime error", "goroutine 1 [running]:", `msg="unterminated`} {
		if e := Parse(line); e.Parsed {
			t.Errorf("Parse(%q) parsed, want raw", line)
		}
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		`level=DEBUG msg=request`,
		`level=INFO msg=login`,
		`panic: boom`,
		`level=WARN msg="session expired"`,
	}
	got := Filter(lines, slog.LevelInfo)
	var raws []string
	for _, e := range got {
		raws = append(raws, e.Raw)
	}
	want := lines[1:]
	if !reflect.DeepEqual(raws, want) {
		t.Fatalf("Filter = %v, want %v", raws, want)
	}
}
