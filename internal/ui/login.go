package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/notify"
)

// loginState is the login form. Failures stay on the form; they never
// become notices.
type loginState struct {
	username textinput.Model
	password textinput.Model
	focused  int
	err      string
	busy     bool
}

func newLoginState() loginState {
	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = ""
	user.CharLimit = 64

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = ""
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return loginState{username: user, password: pass}
}

func (l *loginState) focus(i int) tea.Cmd {
	l.focused = i
	if i == 0 {
		l.password.Blur()
		return l.username.Focus()
	}
	l.username.Blur()
	return l.password.Focus()
}

func (l *loginState) clear() {
	l.username.SetValue("")
	l.password.SetValue("")
	l.err = ""
	l.busy = false
	l.focus(0)
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loginForm.busy {
		return m, nil
	}
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		return m, m.loginForm.focus(1 - m.loginForm.focused)
	case "esc":
		m.loginForm.err = ""
		return m, nil
	case "enter":
		if m.loginForm.focused == 0 {
			return m, m.loginForm.focus(1)
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	if m.loginForm.focused == 0 {
		m.loginForm.username, cmd = m.loginForm.username.Update(msg)
	} else {
		m.loginForm.password, cmd = m.loginForm.password.Update(msg)
	}
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(m.loginForm.username.Value())
	password := m.loginForm.password.Value()
	if username == "" || password == "" {
		m.loginForm.err = "Enter both username and password."
		return m, nil
	}
	if m.login == nil {
		m.loginForm.err = "Login is not available."
		return m, nil
	}
	m.loginForm.err = ""
	m.loginForm.busy = true

	ctx, login := m.ctx, m.login
	return m, func() tea.Msg {
		return loginResultMsg{err: login(ctx, username, password)}
	}
}

// handleLoginResult continues to the view that sent the user to login.
// A session that started but could not be saved still counts as a login.
func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.loginForm.busy = false
	if msg.err != nil && !m.session.IsAuthenticated() {
		m.loginForm.err = api.Message(msg.err)
		m.loginForm.password.SetValue("")
		return m, nil
	}
	if msg.err != nil {
		m.logger.Warn("session not persisted", "error", msg.err)
		m.notices.Notify(notify.LevelWarning, "Logged in, but the session could not be saved for next time.")
	}
	m.loginForm.clear()

	target := m.returnTo
	if target == ViewLogin {
		target = ViewDashboard
	}
	m.returnTo = ViewDashboard
	m.view = ViewDashboard
	next, cmd := m.navigate(target)
	return next, tea.Batch(cmd, next.profileCmd())
}

func (m Model) renderLogin(width, height int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.Logo.Render("shelf"))
	b.WriteString(styles.MutedText.Render("  library admin"))
	b.WriteString("\n\n")

	label := func(i int, text string) string {
		if m.loginForm.focused == i {
			return styles.AccentText.Width(10).Render(text)
		}
		return styles.MutedText.Width(10).Render(text)
	}
	b.WriteString(label(0, "Username"))
	b.WriteString(m.loginForm.username.View())
	b.WriteString("\n")
	b.WriteString(label(1, "Password"))
	b.WriteString(m.loginForm.password.View())
	b.WriteString("\n\n")

	switch {
	case m.loginForm.busy:
		b.WriteString(styles.WarningText.Render("Signing in…"))
	case m.loginForm.err != "":
		b.WriteString(styles.DangerText.Render(m.loginForm.err))
	default:
		b.WriteString(styles.FaintText.Render("enter to sign in · ctrl+c to quit"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 3).
		Width(48).
		Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
