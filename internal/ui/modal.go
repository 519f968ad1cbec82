package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/api"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

const (
	formLabelWidth = 18
	formWidth      = 64
)

type formField struct {
	label string
	input textinput.Model
}

func newField(label, value string) formField {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = formWidth - formLabelWidth - 8
	ti.SetValue(value)
	return formField{label: label, input: ti}
}

func newSecretField(label string) formField {
	f := newField(label, "")
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

// formModal collects a few values and submits them. A form that waits stays
// open, marked busy, until the action it started reports back.
type formModal struct {
	title  string
	fields []formField
	focus  int
	err    string
	busy   bool
	waits  bool

	// note renders a live hint from the current values, e.g. a due date.
	note   func(values []string) string
	// submit validates values and returns the command to run.
	submit func(values []string) (tea.Cmd, error)
}

func newFormModal(title string, fields ...formField) *formModal {
	f := &formModal{title: title, fields: fields}
	f.setFocus(0)
	return f
}

func (f *formModal) values() []string {
	out := make([]string, len(f.fields))
	for i, fld := range f.fields {
		out[i] = fld.input.Value()
	}
	return out
}

func (f *formModal) focusCmd() tea.Cmd {
	return f.setFocus(f.focus)
}

func (f *formModal) setFocus(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	i = (i + len(f.fields)) % len(f.fields)
	f.focus = i
	var cmd tea.Cmd
	for j := range f.fields {
		if j == i {
			cmd = f.fields[j].input.Focus()
		} else {
			f.fields[j].input.Blur()
		}
	}
	return cmd
}

func (f *formModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		if len(f.fields) == 0 {
			return f, nil, false
		}
		var cmd tea.Cmd
		f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
		return f, cmd, false
	}

	if key.Matches(km, keys.Escape) {
		return f, nil, true
	}
	if f.busy {
		return f, nil, false
	}

	switch {
	case key.Matches(km, keys.Confirm):
		if f.focus < len(f.fields)-1 {
			return f, f.setFocus(f.focus + 1), false
		}
		cmd, err := f.submit(f.values())
		if err != nil {
			f.err = api.Message(err)
			return f, nil, false
		}
		f.err = ""
		if !f.waits {
			return f, cmd, true
		}
		f.busy = true
		return f, cmd, false
	case key.Matches(km, keys.NextField):
		return f, f.setFocus(f.focus + 1), false
	case key.Matches(km, keys.PrevField):
		return f, f.setFocus(f.focus - 1), false
	}

	if len(f.fields) == 0 {
		return f, nil, false
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd, false
}

func (f *formModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render(f.title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", formWidth-6)))
	b.WriteString("\n\n")

	for i, fld := range f.fields {
		label := styles.MutedText
		if i == f.focus {
			label = styles.AccentText
		}
		b.WriteString(label.Width(formLabelWidth).Render(fld.label))
		b.WriteString(fld.input.View())
		b.WriteString("\n")
	}

	if f.note != nil {
		if note := f.note(f.values()); note != "" {
			b.WriteString("\n")
			b.WriteString(styles.InfoText.Render(note))
			b.WriteString("\n")
		}
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if f.busy {
		b.WriteString(styles.WarningText.Render("Working…"))
	} else {
		b.WriteString(styles.FaintText.Render("enter next/submit · tab move · esc cancel"))
	}
	return renderModalBox(theme, b.String(), formWidth, width, height)
}

// confirmModal asks before a destructive action.
type confirmModal struct {
	title   string
	message string
	onYes   tea.Cmd
}

func newConfirmModal(title, message string, onYes tea.Cmd) *confirmModal {
	return &confirmModal{title: title, message: message, onYes: onYes}
}

func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch km.String() {
	case "y", "Y", "enter":
		return c, c.onYes, true
	case "n", "N", "esc", "q":
		return c, nil, true
	}
	return c, nil, false
}

func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.WarningText.Bold(true).Render(c.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(c.message))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("y"))
	b.WriteString(styles.MutedText.Render(" confirm  "))
	b.WriteString(styles.AccentText.Render("n"))
	b.WriteString(styles.MutedText.Render(" cancel"))
	return renderModalBox(theme, b.String(), 52, width, height)
}

// listModal shows read-only lines, such as a book's returned history.
type listModal struct {
	title  string
	lines  []string
	offset int
}

func newListModal(title string, lines []string) *listModal {
	return &listModal{title: title, lines: lines}
}

func (l *listModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil, false
	}
	switch {
	case key.Matches(km, keys.Escape, keys.Confirm, keys.Quit):
		return l, nil, true
	case key.Matches(km, keys.Down):
		if l.offset < len(l.lines)-1 {
			l.offset++
		}
	case key.Matches(km, keys.Up):
		if l.offset > 0 {
			l.offset--
		}
	}
	return l, nil, false
}

func (l *listModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	visible := max(height-10, 3)
	end := min(l.offset+visible, len(l.lines))

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(l.title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 60)))
	b.WriteString("\n")
	for _, line := range l.lines[l.offset:end] {
		b.WriteString(styles.Text.Render(line))
		b.WriteString("\n")
	}
	if len(l.lines) > visible {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("%d entries, j/k to scroll", len(l.lines))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("esc close"))
	return renderModalBox(theme, b.String(), 72, width, height)
}

// renderModalBox draws content in a rounded box centered on the screen.
func renderModalBox(theme Theme, content string, boxWidth, width, height int) string {
	if width > 0 && boxWidth > width-2 {
		boxWidth = max(width-2, 20)
	}
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(boxWidth)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
