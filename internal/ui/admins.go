package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/notify"
)

func (m Model) handleAdminsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.admins == nil {
		return m, nil
	}
	snap := m.admins.Snapshot()
	if navList(msg, m.keys, &m.adminList, len(snap.Rows), m.admins.NextPage, m.admins.PrevPage) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		return m.startSearch()
	case key.Matches(msg, m.keys.Escape):
		m.clearQuery()
		return m, nil
	case key.Matches(msg, m.keys.Add):
		form := m.newAdminForm()
		m.modal = form
		return m, form.focusCmd()
	case key.Matches(msg, m.keys.Delete):
		if m.adminList.selected < 0 || m.adminList.selected >= len(snap.Rows) {
			return m, nil
		}
		a := snap.Rows[m.adminList.selected]
		admins, ctx := m.admins, m.ctx
		m.modal = newConfirmModal("Delete admin",
			fmt.Sprintf("Delete the account %q?", a.Username),
			actionCmd("admins", false, func() error { return admins.Delete(ctx, a.UserID) }))
	}
	return m, nil
}

func (m Model) newAdminForm() *formModal {
	form := newFormModal("Add admin", newField("Username", ""), newSecretField("Password"))
	form.waits = true

	admins, ctx := m.admins, m.ctx
	form.submit = func(v []string) (tea.Cmd, error) {
		username, password := strings.TrimSpace(v[0]), v[1]
		var missing []string
		if username == "" {
			missing = append(missing, "username")
		}
		if password == "" {
			missing = append(missing, "password")
		}
		if len(missing) > 0 {
			return nil, &library.ValidationError{Fields: missing}
		}
		return actionCmd("admins", false, func() error { return admins.Add(ctx, username, password) }), nil
	}
	return form
}

// newPasswordForm changes the signed-in administrator's password. Every
// failure is shown in the form.
func (m Model) newPasswordForm() *formModal {
	form := newFormModal("Change password",
		newSecretField("Current password"),
		newSecretField("New password"),
		newSecretField("Confirm password"),
	)
	form.waits = true

	ctx, backend, notices := m.ctx, m.backend, m.notices
	form.submit = func(v []string) (tea.Cmd, error) {
		if backend == nil {
			return nil, fmt.Errorf("not connected")
		}
		return actionCmd("", true, func() error {
			if err := backend.ChangePassword(ctx, v[0], v[1], v[2]); err != nil {
				return err
			}
			notices.Notify(notify.LevelSuccess, "Password changed successfully!")
			return nil
		}), nil
	}
	return form
}

func (m Model) renderAdmins(width, height int) string {
	bgColor := m.theme.FocusBg
	styles := m.theme.Styles()
	if m.admins == nil {
		return m.renderTitledBox("Admins", "", width, height, true)
	}
	snap := m.admins.Snapshot()
	title := fmt.Sprintf("Admins · %d of %d · page %d/%d", snap.Filtered, snap.Total, snap.Page+1, snap.Pages)

	inner := height - 2
	var lines []string
	if search := m.renderSearchLine(m.adminList, bgColor); search != "" {
		lines = append(lines, search)
		inner--
	}
	switch {
	case !snap.Loaded:
		lines = append(lines, styles.MutedText.Render("Loading admins…"))
	case len(snap.Rows) == 0:
		lines = append(lines, styles.MutedText.Render("No admin accounts match."))
	default:
		cols := []column{{title: "User ID", width: 38}, {title: "Username"}}
		rows := make([]tableRow, len(snap.Rows))
		for i, a := range snap.Rows {
			rows[i] = tableRow{cells: []string{a.UserID.String(), string(a.Username)}}
		}
		lines = append(lines, m.renderTable(cols, rows, m.adminList.selected, width-2, inner, bgColor))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}
