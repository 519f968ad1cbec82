package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Navigation",
		items: []helpItem{
			{"1-6", "Dashboard/Books/Pending/Transactions/Admins/Logs"},
			{"tab", "Next view"},
			{"j/k", "Move up/down"},
			{"g/G", "Top/bottom"},
			{"[ ]", "Previous/next page"},
			{"/", "Search the list"},
			{"esc", "Clear search or filter"},
		},
	},
	{
		title: "Catalog",
		items: []helpItem{
			{"a e d", "Add/edit/delete"},
			{"i", "Issue a book"},
			{"R", "Return the selected loan"},
			{"h", "Returned history"},
			{"c", "Times issued"},
			{"x / I", "Export/import spreadsheet"},
			{"p", "Transactions by phone"},
		},
	},
	{
		title: "Scanner",
		items: []helpItem{
			{"scan", "Find a book (Books) or issue it (Pending)"},
		},
	},
	{
		title: "General",
		items: []helpItem{
			{"r", "Reload the view"},
			{"C", "Change password"},
			{"L", "Log out"},
			{"T", "Cycle theme"},
			{"?", "Toggle help"},
			{"q/ctrl+c", "Quit"},
		},
	},
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i, section := range helpSections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(helpSections)-1 {
			b.WriteString("\n")
		}
	}
	return renderModalBox(m.theme, b.String(), 64, m.width, m.height)
}
