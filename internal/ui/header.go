package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/notify"
)

// noticeLines is the space kept under the content for notices.
const noticeLines = 2

// renderMain draws header, command bar, the current view and notices.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent(max(m.height-2-noticeLines, 3)))
	b.WriteString("\n")
	b.WriteString(m.renderNotices())
	return b.String()
}

func (m Model) renderContent(height int) string {
	switch m.view {
	case ViewLogin:
		return m.renderLogin(m.width, height)
	case ViewDashboard:
		return m.renderDashboard(m.width, height)
	case ViewBooks:
		return m.renderBooks(m.width, height)
	case ViewPending:
		return m.renderPending(m.width, height)
	case ViewTransactions:
		return m.renderTransactions(m.width, height)
	case ViewAdmins:
		return m.renderAdmins(m.width, height)
	case ViewLogs:
		return m.renderLogs(m.width, height)
	default:
		return ""
	}
}

// renderHeader shows the logo, the view tabs and who is signed in.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("shelf", styles.Logo)}
	if m.view != ViewLogin {
		for i, v := range tabs {
			label := fmt.Sprintf("%d %s", i+1, v)
			if v == m.view {
				parts = append(parts, bg.Render(label, styles.AccentText.Bold(true)))
			} else {
				parts = append(parts, bg.Render(label, styles.MutedText))
			}
		}
	}
	if m.offline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText.Bold(true)))
	}

	if s := m.session.Snapshot(); s.Authenticated {
		who := m.username
		if who == "" {
			who = "signed in"
		}
		if s.Role != "" {
			who += " (" + s.Role + ")"
		}
		parts = append(parts, bg.Render(who, styles.FaintText))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// offline reports whether the list the view shows has stopped refreshing.
func (m Model) offline() bool {
	switch m.view {
	case ViewBooks:
		return m.books != nil && m.books.Snapshot().IsOffline()
	case ViewPending, ViewTransactions:
		return m.issues != nil && m.issues.Snapshot().IsOffline()
	case ViewAdmins:
		return m.admins != nil && m.admins.Snapshot().IsOffline()
	}
	return false
}

func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.view {
	case ViewLogin:
		commands = []cmd{{"tab", "Field"}, {"enter", "Sign in"}, {"ctrl+c", "Quit"}}
	case ViewDashboard:
		commands = []cmd{{"←/→", "Year"}, {"↑/↓", "Month"}, {"r", "Reload"}}
	case ViewBooks:
		commands = []cmd{
			{"/", "Search"}, {"a", "Add"}, {"e", "Edit"}, {"d", "Delete"},
			{"i", "Issue"}, {"h", "History"}, {"c", "Count"}, {"x", "Export"}, {"I", "Import"},
		}
	case ViewPending:
		commands = []cmd{{"/", "Search"}, {"i", "Issue"}, {"R", "Return"}, {"d", "Delete"}, {"h", "History"}}
	case ViewTransactions:
		commands = []cmd{{"/", "Search"}, {"p", "Phone"}, {"d", "Delete"}, {"esc", "Clear"}}
	case ViewAdmins:
		commands = []cmd{{"/", "Search"}, {"a", "Add"}, {"d", "Delete"}}
	case ViewLogs:
		follow := "Pause"
		if !m.logs.follow {
			follow = "Follow"
		}
		commands = []cmd{{"Space", follow}, {"v", "Level"}, {"g/G", "Top/Bottom"}}
	}
	if m.view != ViewLogin {
		commands = append(commands, cmd{"?", "More"})
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderNotices shows the newest notices, most recent last.
func (m Model) renderNotices() string {
	styles := m.theme.Styles()
	active := m.notices.Active()
	if len(active) > noticeLines {
		active = active[len(active)-noticeLines:]
	}
	lines := make([]string, noticeLines)
	for i, n := range active {
		style := styles.InfoText
		switch n.Level {
		case notify.LevelSuccess:
			style = styles.SuccessText
		case notify.LevelWarning:
			style = styles.WarningText
		case notify.LevelError:
			style = styles.DangerText
		}
		lines[i] = style.Render(truncate("● "+n.Message, max(m.width, 10)))
	}
	return strings.Join(lines, "\n")
}

// renderTitledBox draws content in a box with the title set into the top
// border. Content lines past the box are dropped.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 1))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColor))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	return top + "\n" + strings.Join(lines, "\n") + "\n" + bottom
}
