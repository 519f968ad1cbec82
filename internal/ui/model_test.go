package ui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/credstore"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/notify"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	session *session.Manager
	books   *state.Collection[library.Book]
	notices *notify.Center
}

// newTestModel builds a model over an in-memory session. An empty role
// leaves the session logged out.
func newTestModel(t *testing.T, role string) (Model, *testEnv) {
	t.Helper()
	logger := discardLogger()
	sess := session.New(credstore.NewMemoryStore(nil), logger)
	if role != "" {
		if err := sess.Login(session.Payload{Token: "tok", Role: role}); err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
	}

	catalog := []library.Book{
		{ID: "1", AccessionNo: "1042", Title: "Dune", Author: "Frank Herbert"},
		{ID: "2", AccessionNo: "1043", Title: "Emma", Author: "Jane Austen"},
	}
	books := state.NewCollection(state.Spec[library.Book]{
		Name:     "books",
		Noun:     "Book",
		Fetch:    func(context.Context) ([]library.Book, error) { return catalog, nil },
		Key:      library.BookKey,
		Haystack: library.BookHaystack,
	}, state.Config{Auth: sess, Logger: logger})
	if role != "" {
		if err := books.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh returned error: %v", err)
		}
	}

	notices := notify.NewCenter(time.Minute)
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local)
	m := New(Options{
		Session: sess,
		Books:   books,
		Notices: notices,
		Config:  config.Config{ScannerPrefix: "%", PageSize: 20},
		Logger:  logger,
		Now:     func() time.Time { return now },
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, &testEnv{session: sess, books: books, notices: notices}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeKeys(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = keyRunes(k)
		}
		m = update(t, m, msg)
	}
	return m
}

func hasNotice(c *notify.Center, text string) bool {
	for _, n := range c.Active() {
		if strings.Contains(n.Message, text) {
			return true
		}
	}
	return false
}

func TestStartsOnLoginWithoutSession(t *testing.T) {
	m, _ := newTestModel(t, "")
	if m.view != ViewLogin {
		t.Fatalf("view = %v, want Login", m.view)
	}
	if !strings.Contains(m.View(), "library admin") {
		t.Fatalf("login screen not rendered:\n%s", m.View())
	}
}

func TestStartsOnDashboardWithSession(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	if m.view != ViewDashboard {
		t.Fatalf("view = %v, want Dashboard", m.view)
	}
}

func TestNavigationWithoutSessionRedirectsToLogin(t *testing.T) {
	m, _ := newTestModel(t, "")
	next, _ := m.navigate(ViewBooks)
	if next.view != ViewLogin {
		t.Fatalf("view = %v, want Login", next.view)
	}
	if next.returnTo != ViewBooks {
		t.Fatalf("returnTo = %v, want Books", next.returnTo)
	}
}

func TestLogoutReturnsToViewAfterLogin(t *testing.T) {
	m, env := newTestModel(t, "admin")
	m = typeKeys(t, m, "2")
	if m.view != ViewBooks {
		t.Fatalf("view = %v, want Books", m.view)
	}

	if err := env.session.Logout(); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	m = update(t, m, sessionMsg(env.session.Snapshot()))
	if m.view != ViewLogin || m.returnTo != ViewBooks {
		t.Fatalf("after logout view = %v returnTo = %v, want Login and Books", m.view, m.returnTo)
	}

	if err := env.session.Login(session.Payload{Token: "tok-2", Role: "admin"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	m = update(t, m, loginResultMsg{})
	if m.view != ViewBooks {
		t.Fatalf("after login view = %v, want Books", m.view)
	}
	if m.returnTo != ViewDashboard {
		t.Fatalf("returnTo = %v, want it reset to Dashboard", m.returnTo)
	}
}

func TestLoginFailureStaysOnForm(t *testing.T) {
	m, env := newTestModel(t, "")
	m = update(t, m, loginResultMsg{err: &api.AuthError{Message: "Invalid username or password"}})
	if m.view != ViewLogin {
		t.Fatalf("view = %v, want Login", m.view)
	}
	if m.loginForm.err != "Invalid username or password" {
		t.Fatalf("loginForm.err = %q", m.loginForm.err)
	}
	if len(env.notices.Active()) != 0 {
		t.Fatalf("login failure posted notices: %v", env.notices.Active())
	}
}

func TestLoginFormRequiresBothFields(t *testing.T) {
	m, _ := newTestModel(t, "")
	called := false
	m.login = func(context.Context, string, string) error {
		called = true
		return nil
	}
	m = typeKeys(t, m, "a", "d", "m", "i", "n", "enter", "enter")
	if called {
		t.Fatal("login called without a password")
	}
	if m.loginForm.err == "" {
		t.Fatal("expected an inline error for the missing password")
	}
}

func TestAdminsViewRequiresAdminRole(t *testing.T) {
	m, env := newTestModel(t, "staff")
	m = typeKeys(t, m, "5")
	if m.view != ViewDashboard {
		t.Fatalf("view = %v, want Dashboard", m.view)
	}
	if !hasNotice(env.notices, msgAdminsOnly) {
		t.Fatalf("expected %q notice, got %v", msgAdminsOnly, env.notices.Active())
	}
}

func TestAdminsViewOpensForAdmin(t *testing.T) {
	m, _ := newTestModel(t, "Admin")
	m = typeKeys(t, m, "5")
	if m.view != ViewAdmins {
		t.Fatalf("view = %v, want Admins", m.view)
	}
}

func TestTabCyclesViews(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m = typeKeys(t, m, "tab", "tab")
	if m.view != ViewPending {
		t.Fatalf("view = %v, want Due & Pending", m.view)
	}
	m = typeKeys(t, m, "shift+tab", "shift+tab", "shift+tab")
	if m.view != ViewLogs {
		t.Fatalf("view = %v, want Logs", m.view)
	}
}

func TestHelpToggles(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m = typeKeys(t, m, "?")
	if !m.showHelp {
		t.Fatal("help not shown")
	}
	if !strings.Contains(m.View(), "Scanner") {
		t.Fatal("help screen missing scanner section")
	}
	m = typeKeys(t, m, "esc")
	if m.showHelp {
		t.Fatal("help still shown after esc")
	}
}

func TestScanSelectsKnownBook(t *testing.T) {
	m, env := newTestModel(t, "admin")
	m = typeKeys(t, m, "2", "%", "1", "0", "4", "3", "enter")

	if m.modal != nil {
		t.Fatalf("scan of a known book opened %T", m.modal)
	}
	rows := env.books.Snapshot().Rows
	if len(rows) != 1 || rows[0].AccessionNo != "1043" {
		t.Fatalf("rows = %v, want only accession 1043", rows)
	}
	if m.bookList.query != "1043" {
		t.Fatalf("query = %q, want 1043", m.bookList.query)
	}
}

func TestScanOfUnknownBookOpensAddForm(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m = typeKeys(t, m, "2", "%", "7", "7", "enter")

	form, ok := m.modal.(*formModal)
	if !ok {
		t.Fatalf("modal = %T, want *formModal", m.modal)
	}
	if form.title != "Add book" {
		t.Fatalf("form title = %q", form.title)
	}
	if got := form.fields[0].input.Value(); got != "77" {
		t.Fatalf("accession field = %q, want 77", got)
	}
}

func TestScanSwallowsCommandKeys(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m = typeKeys(t, m, "2", "%", "q", "?", "esc")
	if m.showHelp {
		t.Fatal("? inside a scan opened help")
	}
	if m.view != ViewBooks {
		t.Fatalf("view = %v, want Books", m.view)
	}
}

func TestBookFormShowsValidationInline(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m = typeKeys(t, m, "2", "a")
	if _, ok := m.modal.(*formModal); !ok {
		t.Fatalf("modal = %T, want *formModal", m.modal)
	}
	// Wrap to the last field and submit.
	m = typeKeys(t, m, "shift+tab", "enter")

	form := m.modal.(*formModal)
	if !strings.Contains(form.err, "accession number") || !strings.Contains(form.err, "title") {
		t.Fatalf("form.err = %q, want the missing fields", form.err)
	}
	if form.busy {
		t.Fatal("form is busy after a validation error")
	}
}

func TestActionDoneClosesWaitingForm(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	form := newFormModal("Export catalog", newField("Save to", "books.xlsx"))
	form.waits = true
	form.busy = true
	m.modal = form

	m = update(t, m, actionDoneMsg{err: &api.BusinessError{Message: "disk full"}, inline: true})
	if m.modal == nil {
		t.Fatal("form closed after a failed action")
	}
	if form.err != "disk full" {
		t.Fatalf("form.err = %q, want disk full", form.err)
	}

	form.busy = true
	m = update(t, m, actionDoneMsg{})
	if m.modal != nil {
		t.Fatal("form still open after the action succeeded")
	}
}

func TestDashboardKeysChangePeriod(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m.dash.stats = library.Stats{Period: m.dash.period, Years: []int{2026, 2025, 2024}}
	m.dash.loaded = true

	m = typeKeys(t, m, "left")
	if m.dash.period.Year != 2025 {
		t.Fatalf("year = %d, want 2025", m.dash.period.Year)
	}
	if !m.dash.loading {
		t.Fatal("changing the period did not start loading")
	}

	m = typeKeys(t, m, "up")
	if m.dash.period.Month != time.December {
		t.Fatalf("month = %v, want December", m.dash.period.Month)
	}
	m = typeKeys(t, m, "down")
	if m.dash.period.Month != 0 {
		t.Fatalf("month = %v, want the whole year", m.dash.period.Month)
	}

	m = typeKeys(t, m, "right", "right", "right")
	if m.dash.period.Year != 2026 {
		t.Fatalf("year = %d, want to stop at 2026", m.dash.period.Year)
	}
}

func TestDashboardIgnoresStaleStats(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m.dash.period = library.Period{Year: 2025}

	m = update(t, m, statsMsg{stats: library.Stats{Period: library.Period{Year: 2024}, BooksAdded: 9}})
	if m.dash.loaded {
		t.Fatal("stats for another period were applied")
	}

	m = update(t, m, statsMsg{stats: library.Stats{Period: library.Period{Year: 2025}, BooksAdded: 3}})
	if !m.dash.loaded || m.dash.stats.BooksAdded != 3 {
		t.Fatalf("stats = %+v, want BooksAdded 3", m.dash.stats)
	}
}

func TestLogsViewKeys(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m = typeKeys(t, m, "6")
	if m.view != ViewLogs {
		t.Fatalf("view = %v, want Logs", m.view)
	}

	m = typeKeys(t, m, "v")
	if m.logs.minLevel != slog.LevelInfo {
		t.Fatalf("minLevel = %v, want INFO", m.logs.minLevel)
	}
	m = typeKeys(t, m, "v", "v", "v")
	if m.logs.minLevel != slog.LevelDebug {
		t.Fatalf("minLevel = %v, want it to wrap to DEBUG", m.logs.minLevel)
	}

	m = typeKeys(t, m, "up")
	if m.logs.follow {
		t.Fatal("scrolling up kept follow mode")
	}
	m = typeKeys(t, m, "G")
	if !m.logs.follow {
		t.Fatal("jumping to the bottom did not resume follow mode")
	}
}

func TestLogBatchFiltersByLevel(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m = typeKeys(t, m, "6")
	m.logs.minLevel = slog.LevelWarn
	m = update(t, m, logBatchMsg{lines: []string{
		`time=2026-03-10T09:00:00.000Z level=INFO msg="books refreshed"`,
		`time=2026-03-10T09:00:01.000Z level=ERROR msg="refresh failed" error=timeout`,
	}})
	content := m.renderLogContent()
	if strings.Contains(content, "books refreshed") {
		t.Fatal("INFO entry shown at WARN level")
	}
	if !strings.Contains(content, "refresh failed") {
		t.Fatal("ERROR entry missing")
	}
}

func TestExpiredSessionClearsLists(t *testing.T) {
	m, env := newTestModel(t, "admin")
	m = typeKeys(t, m, "2", "/", "d", "u", "n", "e", "enter")
	if m.bookList.query != "dune" {
		t.Fatalf("query = %q, want dune", m.bookList.query)
	}

	if err := env.session.Logout(); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	m = update(t, m, sessionMsg(env.session.Snapshot()))
	if m.bookList.query != "" || m.view != ViewLogin {
		t.Fatalf("query = %q view = %v, want cleared list on the login view", m.bookList.query, m.view)
	}
}

func TestLookupOpensIssueFormWithDueDate(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	m = typeKeys(t, m, "3")
	m = update(t, m, lookupMsg{book: library.Book{AccessionNo: "1042", Title: "Dune"}})

	form, ok := m.modal.(*formModal)
	if !ok {
		t.Fatalf("modal = %T, want *formModal", m.modal)
	}
	if got := form.fields[2].input.Value(); got != "10/03/2026" {
		t.Fatalf("issued date = %q, want today", got)
	}
	if note := form.note(form.values()); note != "Due back on 17/03/2026" {
		t.Fatalf("note = %q", note)
	}

	form.fields[2].input.SetValue("2026-03-10")
	if note := form.note(form.values()); !strings.Contains(note, "DD/MM/YYYY") {
		t.Fatalf("note for a bad date = %q", note)
	}
	if _, err := form.submit([]string{"Asha", "9876543210", "10/03/2026"}); err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if _, err := form.submit([]string{"", "9876543210", "10/03/2026"}); err == nil {
		t.Fatal("submit without a student name succeeded")
	}
}

func TestLogoutAsksFirst(t *testing.T) {
	m, env := newTestModel(t, "admin")
	m = typeKeys(t, m, "L")
	if _, ok := m.modal.(*confirmModal); !ok {
		t.Fatalf("modal = %T, want *confirmModal", m.modal)
	}
	m = typeKeys(t, m, "n")
	if m.modal != nil {
		t.Fatal("confirm modal still open after n")
	}
	if !env.session.IsAuthenticated() {
		t.Fatal("declining logged out anyway")
	}
}

func TestPendingRowTurnsOverdueWithoutRefresh(t *testing.T) {
	m, _ := newTestModel(t, "admin")
	issued := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.Local)
	m.loans = []library.Loan{{
		Issue:    library.Issue{IssueID: "7", AccessionNo: "1042", Title: "Dune", Status: "Pending"},
		IssuedAt: issued,
		DueAt:    library.DueDate(issued),
	}}

	rows, _, _ := m.pendingPage()
	if len(rows) != 1 || rows[0].Overdue {
		t.Fatalf("rows = %+v, want one loan that is not yet overdue", rows)
	}

	later := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.Local)
	m.now = func() time.Time { return later }
	rows, _, _ = m.pendingPage()
	if len(rows) != 1 || !rows[0].Overdue {
		t.Fatalf("rows = %+v, want the loan overdue once its due date has passed", rows)
	}
	if label, _ := loanStatus(rows[0], later); label != "Overdue 2d" {
		t.Fatalf("status label = %q, want Overdue 2d", label)
	}
	history, _, _ := m.historyPage()
	if len(history) != 1 || !history[0].Overdue {
		t.Fatalf("history rows = %+v, want the loan overdue there too", history)
	}
}
