package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/state"
)

func pendingHaystack(l library.Loan) string     { return library.PendingHaystack(l.Issue) }
func transactionHaystack(l library.Loan) string { return library.TransactionHaystack(l.Issue) }

// currentLoans returns the loans with overdue state evaluated at m.now(), so
// a row turns overdue on the UI tick without waiting for a refresh.
func (m Model) currentLoans() []library.Loan {
	if len(m.loans) == 0 {
		return nil
	}
	now := m.now()
	out := make([]library.Loan, len(m.loans))
	for i, l := range m.loans {
		out[i] = l.At(now)
	}
	return out
}

// pendingPage returns the visible page of loans still out.
func (m Model) pendingPage() (rows []library.Loan, filtered, pages int) {
	var out []library.Loan
	for _, l := range m.currentLoans() {
		if l.Issue.IsPending() {
			out = append(out, l)
		}
	}
	out = state.Filter(out, m.pending.query, pendingHaystack)
	size := m.pageSize()
	pages = state.PageCount(len(out), size)
	page := min(m.pending.page, pages-1)
	return state.Paginate(out, page, size), len(out), pages
}

// historyPage returns the visible page of every loan, narrowed to one
// phone number when a phone filter is set.
func (m Model) historyPage() (rows []library.Loan, filtered, pages int) {
	out := m.currentLoans()
	if m.phone != "" {
		var byPhone []library.Loan
		for _, l := range out {
			if library.MatchPhone(l.Issue, m.phone) {
				byPhone = append(byPhone, l)
			}
		}
		out = byPhone
	}
	out = state.Filter(out, m.history.query, transactionHaystack)
	size := m.pageSize()
	pages = state.PageCount(len(out), size)
	page := min(m.history.page, pages-1)
	return state.Paginate(out, page, size), len(out), pages
}

func selectedLoan(rows []library.Loan, l listState) (library.Loan, bool) {
	if l.selected < 0 || l.selected >= len(rows) {
		return library.Loan{}, false
	}
	return rows[l.selected], true
}

func (m Model) handlePendingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows, _, pages := m.pendingPage()
	next, prev := localPager(&m.pending, pages)
	if navList(msg, m.keys, &m.pending, len(rows), next, prev) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		return m.startSearch()
	case key.Matches(msg, m.keys.Escape):
		m.clearQuery()
		return m, nil
	case key.Matches(msg, m.keys.IssueBook):
		form := m.newAccessionForm()
		m.modal = form
		return m, form.focusCmd()
	}

	loan, ok := selectedLoan(rows, m.pending)
	if !ok || m.issues == nil {
		return m, nil
	}
	issues, ctx, id := m.issues, m.ctx, loan.Issue.IssueID
	switch {
	case key.Matches(msg, m.keys.ReturnBook):
		m.modal = newConfirmModal("Return book",
			fmt.Sprintf("Mark %q, issued to %s, as returned?", loan.Issue.Title, loan.Issue.StudentName),
			actionCmd("issues", false, func() error { return issues.Return(ctx, id) }))
	case key.Matches(msg, m.keys.Delete):
		m.modal = newConfirmModal("Delete transaction",
			fmt.Sprintf("Delete the loan of %q to %s?", loan.Issue.Title, loan.Issue.StudentName),
			actionCmd("issues", false, func() error { return issues.Delete(ctx, id) }))
	case key.Matches(msg, m.keys.History):
		return m, m.historyCmd(string(loan.Issue.AccessionNo))
	}
	return m, nil
}

func (m Model) handleTransactionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows, _, pages := m.historyPage()
	next, prev := localPager(&m.history, pages)
	if navList(msg, m.keys, &m.history, len(rows), next, prev) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		return m.startSearch()
	case key.Matches(msg, m.keys.Escape):
		m.clearQuery()
		m.phone = ""
		return m, nil
	case key.Matches(msg, m.keys.PhoneSearch):
		form := newFormModal("Find transactions by phone", newField("Phone No", m.phone))
		form.submit = func(v []string) (tea.Cmd, error) {
			phone := strings.TrimSpace(v[0])
			return func() tea.Msg { return phoneFilterMsg(phone) }, nil
		}
		m.modal = form
		return m, form.focusCmd()
	case key.Matches(msg, m.keys.Delete):
		loan, ok := selectedLoan(rows, m.history)
		if !ok || m.issues == nil {
			return m, nil
		}
		issues, ctx, id := m.issues, m.ctx, loan.Issue.IssueID
		m.modal = newConfirmModal("Delete transaction",
			fmt.Sprintf("Delete the loan of %q to %s?", loan.Issue.Title, loan.Issue.StudentName),
			actionCmd("issues", false, func() error { return issues.Delete(ctx, id) }))
	}
	return m, nil
}

// newAccessionForm asks for the accession number of the book to issue.
func (m Model) newAccessionForm() *formModal {
	form := newFormModal("Issue a book", newField("Accession No", ""))
	form.submit = func(v []string) (tea.Cmd, error) {
		accession := strings.TrimSpace(v[0])
		if accession == "" {
			return nil, &library.ValidationError{Fields: []string{"accession number"}}
		}
		return m.lookupCmd(accession), nil
	}
	return form
}

func (m Model) lookupCmd(accession string) tea.Cmd {
	if m.backend == nil || strings.TrimSpace(accession) == "" {
		return nil
	}
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		book, err := backend.PendingBook(ctx, accession)
		return lookupMsg{book: book, err: err}
	}
}

func (m Model) handleLookup(msg lookupMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.report(msg.err)
		return m, nil
	}
	form := m.newIssueForm(msg.book)
	m.modal = form
	return m, form.focusCmd()
}

// newIssueForm lends book. The issued date defaults to today and the due
// date is shown before the loan is confirmed.
func (m Model) newIssueForm(book library.Book) *formModal {
	form := newFormModal(fmt.Sprintf("Issue %q (%s)", book.Title, book.AccessionNo),
		newField("Student name", ""),
		newField("Phone No", ""),
		newField("Issued on", library.FormatDate(m.now())),
	)
	form.waits = true
	form.note = func(v []string) string {
		issued, err := parseFormDate(v[2])
		if err != nil {
			return "Enter the issued date as DD/MM/YYYY."
		}
		return "Due back on " + library.FormatDate(library.DueDate(issued))
	}

	issues, ctx := m.issues, m.ctx
	form.submit = func(v []string) (tea.Cmd, error) {
		issued, err := parseFormDate(v[2])
		if err != nil {
			return nil, err
		}
		issue := library.NewIssue(book, v[0], v[1])
		issue.IssuedOn = library.Text(issued.Format("2006-01-02"))
		if err := issue.Validate(); err != nil {
			return nil, err
		}
		return actionCmd("issues", false, func() error { return issues.Issue(ctx, issue) }), nil
	}
	return form
}

func parseFormDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(library.DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("issued date must be DD/MM/YYYY")
	}
	return t, nil
}

// loanStatus returns the label and the theme status key for a loan.
func loanStatus(l library.Loan, now time.Time) (label, status string) {
	switch {
	case l.Overdue:
		return fmt.Sprintf("Overdue %dd", l.DaysOverdue(now)), "overdue"
	case l.Issue.IsPending():
		return "Pending", "pending"
	case l.Issue.IsReturned():
		return "Returned", "returned"
	default:
		return titleCase(string(l.Issue.Status)), ""
	}
}

func (m Model) loanRows(loans []library.Loan) []tableRow {
	now := m.now()
	rows := make([]tableRow, len(loans))
	for i, l := range loans {
		label, status := loanStatus(l, now)
		issued := library.FormatDate(l.IssuedAt)
		colors := map[int]string{6: m.theme.StatusColor(status)}
		if l.Sanitized {
			issued += "*"
			colors[4] = m.theme.StatusColor("legacy")
		}
		rows[i] = tableRow{
			cells: []string{
				string(l.Issue.AccessionNo), string(l.Issue.Title), string(l.Issue.StudentName),
				string(l.Issue.PhoneNo), issued, library.FormatDate(l.DueAt), label,
			},
			colors: colors,
		}
	}
	return rows
}

var loanColumns = []column{
	{title: "Accession", width: 10},
	{title: "Title"},
	{title: "Student"},
	{title: "Phone", width: 12},
	{title: "Issued", width: 11},
	{title: "Due", width: 10},
	{title: "Status", width: 12},
}

func (m Model) renderPending(width, height int) string {
	rows, filtered, pages := m.pendingPage()
	overdue := 0
	for _, l := range m.currentLoans() {
		if l.Overdue {
			overdue++
		}
	}
	page := min(m.pending.page, pages-1) + 1
	title := fmt.Sprintf("Due & Pending · %d out · %d overdue · page %d/%d", filtered, overdue, page, pages)
	return m.renderLoanTable(title, m.pending, rows, "No books are out.", width, height)
}

func (m Model) renderTransactions(width, height int) string {
	rows, filtered, pages := m.historyPage()
	page := min(m.history.page, pages-1) + 1
	title := fmt.Sprintf("Transactions · %d of %d · page %d/%d", filtered, len(m.loans), page, pages)
	if m.phone != "" {
		title += " · phone " + m.phone
	}
	return m.renderLoanTable(title, m.history, rows, "No transactions.", width, height)
}

func (m Model) renderLoanTable(title string, l listState, rows []library.Loan, empty string, width, height int) string {
	bgColor := m.theme.FocusBg
	styles := m.theme.Styles()
	inner := height - 2
	var lines []string
	if search := m.renderSearchLine(l, bgColor); search != "" {
		lines = append(lines, search)
		inner--
	}

	loaded := m.issues != nil && m.issues.Snapshot().Loaded
	switch {
	case !loaded:
		lines = append(lines, styles.MutedText.Render("Loading transactions…"))
	case len(rows) == 0:
		lines = append(lines, styles.MutedText.Render(empty))
	default:
		lines = append(lines, m.renderTable(loanColumns, m.loanRows(rows), l.selected, width-2, inner-1, bgColor))
		if anySanitized(rows) {
			lines = append(lines, styles.FaintText.Render("* issued date was unreadable or too old and was reset to today"))
		}
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}

func anySanitized(loans []library.Loan) bool {
	for _, l := range loans {
		if l.Sanitized {
			return true
		}
	}
	return false
}
