package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/library"
)

// dashState is the dashboard's period selection and the last totals.
type dashState struct {
	period  library.Period
	stats   library.Stats
	loaded  bool
	loading bool
}

func (m Model) statsCmd() tea.Cmd {
	if m.fetchStats == nil {
		return nil
	}
	ctx, fetch, period := m.ctx, m.fetchStats, m.dash.period
	return func() tea.Msg {
		stats, err := fetch(ctx, period)
		if err == nil {
			stats.Period = period
		}
		return statsMsg{stats: stats, err: err}
	}
}

func (m Model) handleStats(msg statsMsg) (tea.Model, tea.Cmd) {
	m.dash.loading = false
	if msg.err != nil {
		m.report(msg.err)
		return m, nil
	}
	// A reply for a period the user has already left.
	if msg.stats.Period != m.dash.period {
		return m, nil
	}
	m.dash.stats = msg.stats
	m.dash.loaded = true
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	years := m.dash.stats.Years
	if len(years) == 0 {
		years = []int{m.dash.period.Year}
	}
	idx := 0
	for i, y := range years {
		if y == m.dash.period.Year {
			idx = i
		}
	}

	period := m.dash.period
	switch {
	case key.Matches(msg, m.keys.PrevYear):
		// Years are listed newest first.
		if idx < len(years)-1 {
			period.Year = years[idx+1]
		}
	case key.Matches(msg, m.keys.NextYear):
		if idx > 0 {
			period.Year = years[idx-1]
		}
	case key.Matches(msg, m.keys.PrevMonth):
		period.Month = (period.Month + 12) % 13
	case key.Matches(msg, m.keys.NextMonth):
		period.Month = (period.Month + 1) % 13
	default:
		return m, nil
	}
	if period == m.dash.period {
		return m, nil
	}
	m.dash.period = period
	m.dash.loading = true
	return m, m.statsCmd()
}

func (m Model) renderDashboard(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	stats := m.dash.stats

	var b strings.Builder
	b.WriteString(bg.Render("Period: ", styles.MutedText))
	b.WriteString(bg.Render(m.dash.period.Label(), styles.AccentText.Bold(true)))
	if m.dash.loading || !m.dash.loaded {
		b.WriteString(bg.Render("  loading…", styles.FaintText))
	}
	b.WriteString("\n\n")

	cardWidth := max((width-8)/3, 16)
	cards := []string{
		m.renderStatCard("Books added", stats.BooksAdded, m.theme.Accent, cardWidth),
		m.renderStatCard("Times issued", stats.TimesIssued, m.theme.Info, cardWidth),
		m.renderStatCard("Pending", stats.Pending, m.theme.Warning, cardWidth),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n\n")

	yearParts := make([]string, 0, len(stats.Years))
	for _, y := range stats.Years {
		label := strconv.Itoa(y)
		if y == m.dash.period.Year {
			yearParts = append(yearParts, bg.Render("["+label+"]", styles.AccentText.Bold(true)))
		} else {
			yearParts = append(yearParts, bg.Render(label, styles.MutedText))
		}
	}
	if len(yearParts) > 0 {
		b.WriteString(bg.Render("Years  ", styles.FaintText))
		b.WriteString(bg.Join(yearParts, "  "))
		b.WriteString("\n")
	}
	month := "Whole year"
	if m.dash.period.Month != 0 {
		month = m.dash.period.Month.String()
	}
	b.WriteString(bg.Render("Month  ", styles.FaintText))
	b.WriteString(bg.Render(month, styles.Text))
	b.WriteString("\n\n")
	b.WriteString(bg.Render("←/→ year · ↑/↓ month · pending is today's count and shows for the current period only", styles.FaintText))

	return m.renderTitledBox("Dashboard", b.String(), width, height, true)
}

func (m Model) renderStatCard(label string, value int, color string, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Render(label),
		lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(strconv.Itoa(value)),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Background(lipgloss.Color(m.theme.FocusBg)).
		Padding(0, 2).
		MarginRight(1).
		Width(width).
		Render(content)
}
