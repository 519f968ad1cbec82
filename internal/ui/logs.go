package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/logtail"
)

const (
	logRefreshInterval = 2 * time.Second
	logBufferLimit     = 2000
)

// logLevels is the order v cycles the minimum level through.
var logLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

// logState tracks the tail of the console's own log file.
type logState struct {
	path     string
	lines    []string
	follow   bool
	minLevel slog.Level
	lastRead time.Time
	err      error
}

func newLogState(path string) logState {
	return logState{path: path, follow: true, minLevel: slog.LevelDebug}
}

func (m Model) readLogsCmd() tea.Cmd {
	path := m.logs.path
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logBufferLimit)
		return logBatchMsg{lines: lines, err: err}
	}
}

// handleLogBatch replaces the buffer with the latest tail of the file.
func (m *Model) handleLogBatch(msg logBatchMsg) {
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.lines = msg.lines
	}
	m.updateLogViewport()
}

// updateLogViewport sizes the viewport to the content area and fills it
// with the entries at or above the chosen level.
func (m *Model) updateLogViewport() {
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(0, 0)
	}
	// Header, command bar and the status line below the box, plus the
	// box's own borders.
	m.logViewport.Width = max(m.width-4, 0)
	m.logViewport.Height = max(m.height-5-noticeLines, 0)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	m.logViewport.SetContent(m.renderLogContent())
	if m.logs.follow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogContent() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.FocusBg)
	switch {
	case m.logs.err != nil:
		return bg.Render("Cannot read "+m.logs.path+": "+m.logs.err.Error(), styles.DangerText)
	case len(m.logs.lines) == 0:
		return bg.Render("No log entries yet.", styles.MutedText)
	}

	entries := logtail.Filter(m.logs.lines, m.logs.minLevel)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, m.renderLogEntry(e, styles, bg))
	}
	return strings.Join(out, "\n")
}

func (m Model) renderLogEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	if !e.Parsed {
		return bg.Render(e.Raw, styles.Text)
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
		b.WriteString(bg.Space())
	}
	b.WriteString(bg.Render(fmt.Sprintf("%-5s", e.Level.String()), levelStyle(e.Level, styles).Bold(true)))
	b.WriteString(bg.Space())
	b.WriteString(bg.Render(e.Message, styles.Text))
	for _, a := range e.Attrs {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(a.Key+"=", styles.MutedText))
		b.WriteString(bg.Render(a.Value, styles.AccentText))
	}
	return b.String()
}

func levelStyle(level slog.Level, styles Styles) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return styles.DangerText
	case level >= slog.LevelWarn:
		return styles.WarningText
	case level >= slog.LevelInfo:
		return styles.SuccessText
	default:
		return styles.InfoText
	}
}

func nextLogLevel(current slog.Level) slog.Level {
	for i, l := range logLevels {
		if l == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.CycleLevel):
		m.logs.minLevel = nextLogLevel(m.logs.minLevel)
		m.updateLogViewport()
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logs.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logs.follow = true
	case key.Matches(msg, m.keys.Down):
		m.logViewport.LineDown(1)
		m.logs.follow = false
	case key.Matches(msg, m.keys.Up):
		m.logViewport.LineUp(1)
		m.logs.follow = false
	case key.Matches(msg, m.keys.NextPage):
		m.logViewport.ViewDown()
		m.logs.follow = false
	case key.Matches(msg, m.keys.PrevPage):
		m.logViewport.ViewUp()
		m.logs.follow = false
	}
	return m, nil
}

func (m Model) renderLogs(width, height int) string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	title := "Console log"
	if m.logs.minLevel > slog.LevelDebug {
		title += " · " + m.logs.minLevel.String() + "+"
	}
	box := m.renderTitledBox(title, m.logViewport.View(), width, height-1, true)

	follow := bg.Render("paused", styles.WarningText)
	if m.logs.follow {
		follow = bg.Render("following", styles.SuccessText)
	}
	status := bg.Join([]string{
		follow,
		bg.Render("level "+m.logs.minLevel.String(), styles.MutedText),
		bg.Render(truncateMiddle(m.logs.path, max(width-30, 10)), styles.FaintText),
	}, " · ")
	return box + "\n" + bg.FillLine(status, width)
}
