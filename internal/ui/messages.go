package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/session"
)

// Messages

type tickMsg time.Time

// sessionMsg reports a login or logout, including a logout forced by the
// API guard.
type sessionMsg session.State

// noticeMsg wakes the program when a notice is posted.
type noticeMsg struct{}

// refreshedMsg reports a finished list refresh.
type refreshedMsg struct {
	name string
	err  error
}

// actionDoneMsg reports a finished mutation started from a view or modal.
type actionDoneMsg struct {
	err error
	// inline errors are shown in the open form instead of as a notice.
	inline bool
	// refresh names the list whose local copy the action changed.
	refresh string
}

type loginResultMsg struct{ err error }

type profileMsg struct {
	username string
	err      error
}

type statsMsg struct {
	stats library.Stats
	err   error
}

// lookupMsg carries a book found by accession number for issuing.
type lookupMsg struct {
	book library.Book
	err  error
}

type historyMsg struct {
	accession string
	issues    []library.Issue
	err       error
}

// phoneFilterMsg sets the exact phone number filter on transactions.
type phoneFilterMsg string

type logBatchMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type refresher interface {
	Refresh(ctx context.Context) error
}

func refreshCmd(ctx context.Context, name string, r refresher) tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{name: name, err: r.Refresh(ctx)}
	}
}

func actionCmd(refresh string, inline bool, run func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: run(), inline: inline, refresh: refresh}
	}
}
