package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() returned %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextThemeCycles(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"Nightfox", "Kanagawa"},
		{"Kanagawa", "Slate"},
		{"Slate", "Nightfox"},
		{"Unknown", "Nightfox"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.current); got != tt.want {
			t.Errorf("NextTheme(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestGetThemeFallsBackToNightfox(t *testing.T) {
	if got := GetTheme("nope").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(nope).Name = %q, want Nightfox", got)
	}
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
}

func TestStatusColor(t *testing.T) {
	th := GetTheme("Nightfox")
	if got := th.StatusColor(" Overdue "); got != th.StatusColors["overdue"] {
		t.Fatalf("StatusColor(overdue) = %q, want %q", got, th.StatusColors["overdue"])
	}
	if got := th.StatusColor("lost"); got != th.Text {
		t.Fatalf("StatusColor(lost) = %q, want %q", got, th.Text)
	}
}

func TestEveryThemeColorsEveryLoanState(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range []string{"pending", "returned", "overdue", "legacy"} {
			if th.StatusColors[status] == "" {
				t.Errorf("%s has no color for %q", name, status)
			}
		}
	}
}
