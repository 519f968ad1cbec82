package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/notify"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/scanner"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewLogin View = iota
	ViewDashboard
	ViewBooks
	ViewPending
	ViewTransactions
	ViewAdmins
	ViewLogs
)

// tabs are the views reachable with tab and the number keys, in order.
var tabs = []View{ViewDashboard, ViewBooks, ViewPending, ViewTransactions, ViewAdmins, ViewLogs}

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "Login"
	case ViewDashboard:
		return "Dashboard"
	case ViewBooks:
		return "Books"
	case ViewPending:
		return "Due & Pending"
	case ViewTransactions:
		return "Transactions"
	case ViewAdmins:
		return "Admins"
	case ViewLogs:
		return "Logs"
	default:
		return "Unknown"
	}
}

// uiTick drives notice expiry and the log tail.
const uiTick = time.Second

const msgAdminsOnly = "Only administrators can manage admin accounts."

// Backend is the part of the API client the views call directly, outside
// the list collections.
type Backend interface {
	PendingBook(ctx context.Context, accession string) (library.Book, error)
	ReturnedIssues(ctx context.Context, accession string) ([]library.Issue, error)
	IssuedCount(ctx context.Context, accession string) (int, error)
	ExportBooks(ctx context.Context) ([]byte, error)
	ImportBooks(ctx context.Context, filename string, r io.Reader) error
	Profile(ctx context.Context) (string, error)
	ChangePassword(ctx context.Context, current, next, confirm string) error
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Session *session.Manager
	Backend Backend
	Books   *state.Collection[library.Book]
	Issues  *state.Issues
	Admins  *state.Admins
	Notices *notify.Center

	// Login authenticates and starts a session; Logout ends it.
	Login  func(ctx context.Context, username, password string) error
	Logout func() error

	SavePrefs  func(prefs.Prefs) error
	Prefs      prefs.Prefs
	Config     config.Config
	Logger     *slog.Logger
	FetchStats func(ctx context.Context, p library.Period) (library.Stats, error)
	Now        func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx        context.Context
	session    *session.Manager
	backend    Backend
	books      *state.Collection[library.Book]
	issues     *state.Issues
	admins     *state.Admins
	notices    *notify.Center
	login      func(ctx context.Context, username, password string) error
	logout     func() error
	savePrefs  func(prefs.Prefs) error
	fetchStats func(ctx context.Context, p library.Period) (library.Stats, error)
	prefs      prefs.Prefs
	config     config.Config
	logger     *slog.Logger
	now        func() time.Time
	sanitizer  *library.Sanitizer

	// UI state
	keys     keyMap
	theme    Theme
	width    int
	height   int
	ready    bool
	view     View
	returnTo View // where a successful login leads
	showHelp bool
	modal    Modal
	username string
	scanner  *scanner.Listener

	loginForm loginState
	dash      dashState

	// List state. Books and admins keep their filter in the collection;
	// the two loan views filter the shared issue list themselves.
	bookList  listState
	pending   listState
	history   listState
	adminList listState
	phone     string
	loans     []library.Loan

	logViewport viewport.Model
	logs        logState
}

// New creates the root model. Without a session it starts on the login
// view and continues to the dashboard.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.Notices == nil {
		opts.Notices = notify.NewCenter(0)
	}
	if opts.Session == nil {
		opts.Session = session.New(nil, logger)
	}

	sanitizer := library.NewSanitizer(logger.With("component", "loans"))
	sanitizer.Now = now

	m := Model{
		ctx:        ctx,
		session:    opts.Session,
		backend:    opts.Backend,
		books:      opts.Books,
		issues:     opts.Issues,
		admins:     opts.Admins,
		notices:    opts.Notices,
		login:      opts.Login,
		logout:     opts.Logout,
		savePrefs:  opts.SavePrefs,
		fetchStats: opts.FetchStats,
		prefs:      opts.Prefs,
		config:     opts.Config,
		logger:     logger,
		now:        now,
		sanitizer:  sanitizer,

		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		view:      ViewDashboard,
		returnTo:  ViewDashboard,
		scanner:   scanner.New(opts.Config.ScannerPrefix),
		loginForm: newLoginState(),
		dash:      dashState{period: library.Period{Year: now().Year()}},
		bookList:  newListState("Search books..."),
		pending:   newListState("Search title, student, phone, accession..."),
		history:   newListState("Search title or student..."),
		adminList: newListState("Search admins..."),
		logs:      newLogState(opts.Config.LogFile),
	}
	if !m.session.IsAuthenticated() {
		m.view = ViewLogin
		m.loginForm.focus(0)
	}
	if m.issues != nil {
		m.loans = m.sanitizer.Loans(m.issues.All())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(uiTick),
	}
	if m.session.IsAuthenticated() {
		cmds = append(cmds, m.profileCmd(), m.viewCmd(m.view))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case sessionMsg:
		return m.handleSession(session.State(msg))

	case noticeMsg:
		// Redraw only.
		return m, nil

	case refreshedMsg:
		return m.handleRefreshed(msg)

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case profileMsg:
		if msg.err != nil {
			m.report(msg.err)
			return m, nil
		}
		m.username = msg.username
		return m, nil

	case statsMsg:
		return m.handleStats(msg)

	case lookupMsg:
		return m.handleLookup(msg)

	case historyMsg:
		return m.handleHistory(msg)

	case phoneFilterMsg:
		m.phone = strings.TrimSpace(string(msg))
		m.history.page, m.history.selected = 0, 0
		return m, nil

	case logBatchMsg:
		m.handleLogBatch(msg)
		return m, nil
	}

	// Cursor blinks and similar housekeeping for the open form.
	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		m.setModal(next, closed)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k == "ctrl+c" && !m.scanner.Scanning() {
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Escape, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		m.setModal(next, closed)
		return m, cmd
	}

	if m.view == ViewLogin {
		return m.handleLoginKey(msg)
	}

	if l := m.activeList(); l != nil && l.searching {
		return m.handleSearchKey(msg)
	}

	// A scan in progress swallows every key, commands included.
	if m.scannerActive() {
		if res := m.scanner.Feed(k); res.Consumed {
			if res.Done {
				return m.handleScan(res.Code)
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		return m.cycleTheme()
	case key.Matches(msg, m.keys.Tab):
		return m.navigate(m.adjacentTab(1))
	case key.Matches(msg, m.keys.ShiftTab):
		return m.navigate(m.adjacentTab(-1))
	case key.Matches(msg, m.keys.ViewDashboard):
		return m.navigate(ViewDashboard)
	case key.Matches(msg, m.keys.ViewBooks):
		return m.navigate(ViewBooks)
	case key.Matches(msg, m.keys.ViewPending):
		return m.navigate(ViewPending)
	case key.Matches(msg, m.keys.ViewTransactions):
		return m.navigate(ViewTransactions)
	case key.Matches(msg, m.keys.ViewAdmins):
		return m.navigate(ViewAdmins)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.navigate(ViewLogs)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.viewCmd(m.view)
	case key.Matches(msg, m.keys.Logout):
		m.modal = newConfirmModal("Log out", "End this session and return to the login screen?", m.logoutCmd())
		return m, nil
	case key.Matches(msg, m.keys.ChangePassword):
		form := m.newPasswordForm()
		m.modal = form
		return m, form.focusCmd()
	}

	switch m.view {
	case ViewDashboard:
		return m.handleDashboardKey(msg)
	case ViewBooks:
		return m.handleBooksKey(msg)
	case ViewPending:
		return m.handlePendingKey(msg)
	case ViewTransactions:
		return m.handleTransactionsKey(msg)
	case ViewAdmins:
		return m.handleAdminsKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m *Model) setModal(next Modal, closed bool) {
	if closed {
		m.modal = nil
		return
	}
	m.modal = next
}

func (m Model) scannerActive() bool {
	return m.view == ViewBooks || m.view == ViewPending
}

func (m Model) handleScan(code string) (tea.Model, tea.Cmd) {
	m.logger.Debug("scan completed", "view", m.view.String(), "code", code)
	switch m.view {
	case ViewBooks:
		return m.selectScannedBook(code)
	case ViewPending:
		return m, m.lookupCmd(code)
	}
	return m, nil
}

// navigate switches views. Protected views redirect to login without a
// session, and the admin list also requires the admin role.
func (m Model) navigate(v View) (Model, tea.Cmd) {
	if !m.session.IsAuthenticated() {
		return m.redirectToLogin(v)
	}
	if v == ViewAdmins && !m.session.Snapshot().IsAdmin() {
		m.notices.Notify(notify.LevelWarning, msgAdminsOnly)
		v = ViewDashboard
	}
	if m.view != v {
		m.scanner.Reset()
	}
	m.view = v
	if v == ViewLogs {
		m.updateLogViewport()
	}
	return m, m.viewCmd(v)
}

func (m Model) redirectToLogin(from View) (Model, tea.Cmd) {
	if from != ViewLogin {
		m.returnTo = from
	}
	m.view = ViewLogin
	m.modal = nil
	m.showHelp = false
	m.scanner.Reset()
	m.loginForm.focus(0)
	return m, nil
}

func (m Model) adjacentTab(delta int) View {
	idx := 0
	for i, v := range tabs {
		if v == m.view {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(tabs)) % len(tabs)
	return tabs[idx]
}

// viewCmd loads what v shows.
func (m Model) viewCmd(v View) tea.Cmd {
	switch v {
	case ViewDashboard:
		return m.statsCmd()
	case ViewBooks:
		if m.books != nil {
			return refreshCmd(m.ctx, "books", m.books)
		}
	case ViewPending, ViewTransactions:
		if m.issues != nil {
			return refreshCmd(m.ctx, "issues", m.issues)
		}
	case ViewAdmins:
		if m.admins != nil {
			return refreshCmd(m.ctx, "admins", m.admins)
		}
	case ViewLogs:
		return m.readLogsCmd()
	}
	return nil
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(uiTick)}
	if m.view == ViewLogs && now.Sub(m.logs.lastRead) >= logRefreshInterval {
		m.logs.lastRead = now
		cmds = append(cmds, m.readLogsCmd())
	}
	return m, tea.Batch(cmds...)
}

// handleSession follows the session manager. Losing the session, whether
// by logout or because the API rejected the token, always lands on login.
func (m Model) handleSession(s session.State) (tea.Model, tea.Cmd) {
	if s.Authenticated {
		return m, nil
	}
	m.username = ""
	m.loans = nil
	m.phone = ""
	for _, l := range []*listState{&m.bookList, &m.pending, &m.history, &m.adminList} {
		l.reset()
	}
	if m.view == ViewLogin {
		m.modal = nil
		return m, nil
	}
	return m.redirectToLogin(m.view)
}

func (m Model) handleRefreshed(msg refreshedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrNotAuthenticated) && m.view != ViewLogin {
			return m.redirectToLogin(m.view)
		}
		return m, nil
	}
	if msg.name == "issues" {
		m.recomputeLoans()
	}
	m.clampSelections()
	return m, nil
}

// handleActionDone settles the form that started the action, if any.
func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	if f, ok := m.modal.(*formModal); ok && f.busy {
		f.busy = false
		switch {
		case msg.err == nil:
			m.modal = nil
		case msg.inline:
			f.err = api.Message(msg.err)
		}
	}
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrNotAuthenticated) && m.view != ViewLogin {
			return m.redirectToLogin(m.view)
		}
		return m, nil
	}
	if msg.refresh == "issues" {
		m.recomputeLoans()
	}
	m.clampSelections()
	return m, nil
}

func (m *Model) recomputeLoans() {
	if m.issues == nil {
		return
	}
	m.loans = m.sanitizer.Loans(m.issues.All())
}

func (m Model) cycleTheme() (tea.Model, tea.Cmd) {
	name := NextTheme(m.theme.Name)
	m.theme = GetTheme(name)
	m.prefs.Theme = name
	save, p, logger := m.savePrefs, m.prefs, m.logger
	if save == nil {
		return m, nil
	}
	return m, func() tea.Msg {
		if err := save(p); err != nil {
			logger.Warn("failed to save preferences", "error", err)
		}
		return nil
	}
}

func (m Model) logoutCmd() tea.Cmd {
	logout, notices := m.logout, m.notices
	if logout == nil {
		logout = m.session.Logout
	}
	return func() tea.Msg {
		if err := logout(); err != nil {
			notices.Notify(notify.LevelWarning, "Logged out, but the saved session could not be removed.")
		}
		return nil
	}
}

func (m Model) profileCmd() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		name, err := backend.Profile(ctx)
		return profileMsg{username: name, err: err}
	}
}

// report posts err as an error notice unless the guard or a redirect
// already dealt with it.
func (m Model) report(err error) {
	announce(m.notices, err)
}

func announce(n notify.Notifier, err error) {
	switch api.Classify(err) {
	case api.KindNone, api.KindUnauthorized, api.KindNotAuthenticated, api.KindCanceled:
		return
	}
	n.Notify(notify.LevelError, api.Message(err))
}

// Program runs the model and feeds it events from outside Bubble Tea.
type Program struct {
	prog        *tea.Program
	ctx         context.Context
	notices     *notify.Center
	unsubscribe func()
}

// NewProgram builds the model and subscribes it to session changes and
// new notices.
func NewProgram(opts Options) *Program {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Notices == nil {
		opts.Notices = notify.NewCenter(0)
	}
	m := New(opts)
	p := &Program{
		prog:    tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context)),
		ctx:     opts.Context,
		notices: m.notices,
	}
	// Send blocks until Update reads the message, and these callbacks can
	// fire from inside Update.
	p.unsubscribe = m.session.Subscribe(func(s session.State) {
		go p.prog.Send(sessionMsg(s))
	})
	p.notices.OnPost(func(notify.Notice) {
		go p.prog.Send(noticeMsg{})
	})
	return p
}

// Run blocks until the user quits or the context is cancelled.
func (p *Program) Run() error {
	defer p.unsubscribe()
	defer p.notices.OnPost(nil)
	_, err := p.prog.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && p.ctx.Err() != nil {
		return nil
	}
	return err
}

// Refreshed tells the UI that the loans list changed in the background.
func (p *Program) Refreshed() {
	go p.prog.Send(refreshedMsg{name: "issues"})
}
