package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/state"
)

// listState is the cursor and search box of one list view.
type listState struct {
	selected  int
	page      int
	query     string
	searching bool
	search    textinput.Model
}

func newListState(placeholder string) listState {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/"
	ti.CharLimit = 100
	return listState{search: ti}
}

func (l *listState) reset() {
	l.selected = 0
	l.page = 0
	l.query = ""
	l.searching = false
	l.search.Blur()
	l.search.SetValue("")
}

func (l *listState) clamp(rows, pages int) {
	if l.page >= pages {
		l.page = pages - 1
	}
	if l.page < 0 {
		l.page = 0
	}
	if l.selected >= rows {
		l.selected = rows - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// navList applies movement keys to a list showing rows entries on the
// current page. It reports whether msg was a movement key.
func navList(msg tea.KeyMsg, keys keyMap, l *listState, rows int, next, prev func()) bool {
	switch {
	case key.Matches(msg, keys.Up):
		if l.selected > 0 {
			l.selected--
		}
	case key.Matches(msg, keys.Down):
		if l.selected < rows-1 {
			l.selected++
		}
	case key.Matches(msg, keys.Top):
		l.selected = 0
	case key.Matches(msg, keys.Bottom):
		l.selected = max(rows-1, 0)
	case key.Matches(msg, keys.NextPage):
		next()
		l.selected = 0
	case key.Matches(msg, keys.PrevPage):
		prev()
		l.selected = 0
	default:
		return false
	}
	return true
}

// localPager pages a list that the view filters itself.
func localPager(l *listState, pages int) (next, prev func()) {
	next = func() {
		if l.page < pages-1 {
			l.page++
		}
	}
	prev = func() {
		if l.page > 0 {
			l.page--
		}
	}
	return next, prev
}

func (m *Model) activeList() *listState {
	switch m.view {
	case ViewBooks:
		return &m.bookList
	case ViewPending:
		return &m.pending
	case ViewTransactions:
		return &m.history
	case ViewAdmins:
		return &m.adminList
	default:
		return nil
	}
}

func (m Model) startSearch() (tea.Model, tea.Cmd) {
	l := m.activeList()
	if l == nil {
		return m, nil
	}
	l.searching = true
	return m, l.search.Focus()
}

// handleSearchKey edits the search box. The filter follows every keystroke;
// enter keeps it and esc clears it.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.activeList()
	switch {
	case key.Matches(msg, m.keys.Confirm):
		l.searching = false
		l.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		l.searching = false
		l.search.Blur()
		l.search.SetValue("")
		m.applyQuery("")
		return m, nil
	}
	var cmd tea.Cmd
	l.search, cmd = l.search.Update(msg)
	m.applyQuery(l.search.Value())
	return m, cmd
}

func (m *Model) applyQuery(q string) {
	l := m.activeList()
	if l == nil {
		return
	}
	l.query = q
	l.page = 0
	l.selected = 0
	switch m.view {
	case ViewBooks:
		if m.books != nil {
			m.books.SetFilter(q)
		}
	case ViewAdmins:
		if m.admins != nil {
			m.admins.SetFilter(q)
		}
	}
}

func (m *Model) clearQuery() {
	l := m.activeList()
	if l == nil {
		return
	}
	l.reset()
	m.applyQuery("")
}

// pageSize is the number of rows per page for lists the views page
// themselves.
func (m Model) pageSize() int {
	switch {
	case m.prefs.PageSize > 0:
		return m.prefs.PageSize
	case m.config.PageSize > 0:
		return m.config.PageSize
	default:
		return state.DefaultPageSize
	}
}

func (m *Model) clampSelections() {
	if m.books != nil {
		m.bookList.clamp(len(m.books.Snapshot().Rows), 1<<30)
	}
	if m.admins != nil {
		m.adminList.clamp(len(m.admins.Snapshot().Rows), 1<<30)
	}
	rows, _, pages := m.pendingPage()
	m.pending.clamp(len(rows), pages)
	rows, _, pages = m.historyPage()
	m.history.clamp(len(rows), pages)
}

// column describes one table column. A zero width shares what is left.
type column struct {
	title string
	width int
}

type tableRow struct {
	cells []string
	// colors overrides the foreground of individual cells by index.
	colors map[int]string
}

// renderTable lays rows out in columns, keeping the selected row visible
// within height lines (header included).
func (m Model) renderTable(cols []column, rows []tableRow, selected, width, height int, bgColor string) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	widths := columnWidths(cols, width)

	headerCells := make([]string, len(cols))
	for i, c := range cols {
		headerCells[i] = fit(c.title, widths[i])
	}
	lines := []string{bg.Render(strings.Join(headerCells, " "), styles.MutedText.Bold(true))}

	visible := max(height-1, 1)
	offset := 0
	if selected >= visible {
		offset = selected - visible + 1
	}
	end := min(offset+visible, len(rows))

	for i := offset; i < end; i++ {
		row := rows[i]
		rowBg := bgColor
		if i == selected {
			rowBg = m.theme.SelectionBg
		}
		rb := NewBgStyle(rowBg)
		parts := make([]string, len(cols))
		for j := range cols {
			var cell string
			if j < len(row.cells) {
				cell = row.cells[j]
			}
			style := styles.Text
			if color, ok := row.colors[j]; ok {
				style = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			}
			if i == selected {
				style = style.Foreground(lipgloss.Color(m.theme.SelectionText))
			}
			parts[j] = rb.Render(fit(cell, widths[j]), style)
		}
		lines = append(lines, rb.FillLine(strings.Join(parts, rb.Space()), width))
	}
	return strings.Join(lines, "\n")
}

func columnWidths(cols []column, width int) []int {
	widths := make([]int, len(cols))
	fixed, flex := 0, 0
	for i, c := range cols {
		if c.width > 0 {
			widths[i] = c.width
			fixed += c.width
		} else {
			flex++
		}
	}
	if flex == 0 {
		return widths
	}
	remaining := width - fixed - (len(cols) - 1)
	share := max(remaining/flex, 8)
	for i, c := range cols {
		if c.width == 0 {
			widths[i] = share
		}
	}
	return widths
}

// renderSearchLine shows the search box, or the active filter when the box
// is closed.
func (m Model) renderSearchLine(l listState, bgColor string) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	if l.searching {
		return l.search.View()
	}
	if strings.TrimSpace(l.query) != "" {
		return bg.Render("Filter: ", styles.MutedText) + bg.Render(l.query, styles.AccentText) +
			bg.Render("  (esc clears)", styles.FaintText)
	}
	return ""
}
