package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/notify"
)

var bookFieldLabels = []string{
	"Accession No", "Class No", "Title", "Author", "Volume No", "Year", "Place",
	"Price", "ISBN/ISSN", "Language", "Subject heading", "Pages", "Source",
}

func bookValues(b library.Book) []string {
	return []string{
		string(b.AccessionNo), string(b.ClassNo), string(b.Title), string(b.Author),
		string(b.VolumeNo), string(b.Year), string(b.Place), string(b.Price),
		string(b.ISBN), string(b.Language), string(b.SubjectHeading), string(b.Pages),
		string(b.Source),
	}
}

// bookFromValues applies form values to base, keeping its id and added date.
func bookFromValues(base library.Book, v []string) library.Book {
	get := func(i int) library.Text {
		if i < len(v) {
			return library.Text(strings.TrimSpace(v[i]))
		}
		return ""
	}
	base.AccessionNo = get(0)
	base.ClassNo = get(1)
	base.Title = get(2)
	base.Author = get(3)
	base.VolumeNo = get(4)
	base.Year = get(5)
	base.Place = get(6)
	base.Price = get(7)
	base.ISBN = get(8)
	base.Language = get(9)
	base.SubjectHeading = get(10)
	base.Pages = get(11)
	base.Source = get(12)
	return base
}

func (m Model) handleBooksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.books == nil {
		return m, nil
	}
	snap := m.books.Snapshot()
	if navList(msg, m.keys, &m.bookList, len(snap.Rows), m.books.NextPage, m.books.PrevPage) {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		return m.startSearch()
	case key.Matches(msg, m.keys.Escape):
		m.clearQuery()
		return m, nil
	case key.Matches(msg, m.keys.Add):
		return m.openBookForm(library.Book{})
	case key.Matches(msg, m.keys.Export):
		form := m.newExportForm()
		m.modal = form
		return m, form.focusCmd()
	case key.Matches(msg, m.keys.Import):
		form := m.newImportForm()
		m.modal = form
		return m, form.focusCmd()
	}

	b, ok := m.selectedBook()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Edit):
		return m.openBookForm(b)
	case key.Matches(msg, m.keys.Delete):
		books, ctx := m.books, m.ctx
		m.modal = newConfirmModal("Delete book",
			fmt.Sprintf("Delete %q (accession %s)?", b.Title, b.AccessionNo),
			actionCmd("books", false, func() error { return books.Delete(ctx, b.ID) }))
		return m, nil
	case key.Matches(msg, m.keys.IssueBook):
		return m, m.lookupCmd(string(b.AccessionNo))
	case key.Matches(msg, m.keys.History):
		return m, m.historyCmd(string(b.AccessionNo))
	case key.Matches(msg, m.keys.IssuedCount):
		return m, m.issuedCountCmd(b)
	}
	return m, nil
}

func (m Model) selectedBook() (library.Book, bool) {
	if m.books == nil {
		return library.Book{}, false
	}
	rows := m.books.Snapshot().Rows
	if m.bookList.selected < 0 || m.bookList.selected >= len(rows) {
		return library.Book{}, false
	}
	return rows[m.bookList.selected], true
}

// selectScannedBook shows the scanned book, or offers to add it when the
// catalog does not have it.
func (m Model) selectScannedBook(code string) (tea.Model, tea.Cmd) {
	if m.books == nil {
		return m, nil
	}
	b, ok := library.FindByAccession(m.books.All(), code)
	if !ok {
		return m.openBookForm(library.Book{AccessionNo: library.Text(code)})
	}
	m.applyQuery(code)
	m.bookList.search.SetValue(code)
	for i, row := range m.books.Snapshot().Rows {
		if row.ID == b.ID {
			m.bookList.selected = i
			break
		}
	}
	return m, nil
}

// openBookForm edits b, or adds a new book when b has no id.
func (m Model) openBookForm(b library.Book) (tea.Model, tea.Cmd) {
	values := bookValues(b)
	fields := make([]formField, len(bookFieldLabels))
	for i, label := range bookFieldLabels {
		fields[i] = newField(label, values[i])
	}

	editing := !b.ID.IsZero()
	title := "Add book"
	if editing {
		title = "Edit book"
	}
	form := newFormModal(title, fields...)
	form.waits = true

	books, ctx := m.books, m.ctx
	form.submit = func(v []string) (tea.Cmd, error) {
		book := bookFromValues(b, v)
		if err := book.Validate(); err != nil {
			return nil, err
		}
		if editing {
			return actionCmd("books", false, func() error { return books.Update(ctx, book) }), nil
		}
		return actionCmd("books", false, func() error { return books.Create(ctx, book) }), nil
	}
	m.modal = form
	return m, form.focusCmd()
}

func (m Model) issuedCountCmd(b library.Book) tea.Cmd {
	if m.backend == nil {
		return nil
	}
	ctx, backend, notices := m.ctx, m.backend, m.notices
	return func() tea.Msg {
		n, err := backend.IssuedCount(ctx, string(b.AccessionNo))
		if err != nil {
			announce(notices, err)
			return nil
		}
		notices.Notify(notify.LevelInfo, fmt.Sprintf("%s has been issued %s.", b.AccessionNo, plural(n, "time")))
		return nil
	}
}

func (m Model) historyCmd(accession string) tea.Cmd {
	if m.backend == nil || strings.TrimSpace(accession) == "" {
		return nil
	}
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		issues, err := backend.ReturnedIssues(ctx, accession)
		return historyMsg{accession: accession, issues: issues, err: err}
	}
}

func (m Model) handleHistory(msg historyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.report(msg.err)
		return m, nil
	}
	lines := make([]string, 0, len(msg.issues))
	for _, is := range msg.issues {
		loan := m.sanitizer.Loan(is)
		lines = append(lines, fmt.Sprintf("%s  %-24s %s",
			library.FormatDate(loan.IssuedAt), truncate(string(is.StudentName), 24), is.PhoneNo))
	}
	if len(lines) == 0 {
		lines = append(lines, "No returned transactions for this book.")
	}
	m.modal = newListModal("Returned history · "+msg.accession, lines)
	return m, nil
}

func (m Model) newExportForm() *formModal {
	name := fmt.Sprintf("books-%s.xlsx", m.now().Format("20060102"))
	form := newFormModal("Export catalog", newField("Save to", name))
	form.waits = true

	ctx, backend, notices := m.ctx, m.backend, m.notices
	form.submit = func(v []string) (tea.Cmd, error) {
		path := strings.TrimSpace(v[0])
		if path == "" {
			return nil, fmt.Errorf("enter a file name")
		}
		return actionCmd("", true, func() error {
			data, err := backend.ExportBooks(ctx)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			notices.Notify(notify.LevelSuccess, "Catalog exported to "+path)
			return nil
		}), nil
	}
	return form
}

func (m Model) newImportForm() *formModal {
	form := newFormModal("Import catalog", newField("Spreadsheet", ""))
	form.waits = true

	ctx, backend, notices, books := m.ctx, m.backend, m.notices, m.books
	form.submit = func(v []string) (tea.Cmd, error) {
		path := strings.TrimSpace(v[0])
		if path == "" {
			return nil, fmt.Errorf("enter the path of an .xlsx file")
		}
		notices.Notify(notify.LevelInfo, "Importing books…")
		return actionCmd("books", true, func() error {
			if err := importBooks(ctx, backend, path); err != nil {
				return err
			}
			notices.Notify(notify.LevelSuccess, "Books imported successfully!")
			if books != nil {
				_ = books.Poll(ctx)
			}
			return nil
		}), nil
	}
	return form
}

func importBooks(ctx context.Context, backend Backend, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return backend.ImportBooks(ctx, filepath.Base(path), f)
}

func (m Model) renderBooks(width, height int) string {
	bgColor := m.theme.FocusBg
	if m.books == nil {
		return m.renderTitledBox("Books", "", width, height, true)
	}
	snap := m.books.Snapshot()

	title := fmt.Sprintf("Books · %d of %d · page %d/%d", snap.Filtered, snap.Total, snap.Page+1, snap.Pages)
	inner := height - 2
	var lines []string
	if search := m.renderSearchLine(m.bookList, bgColor); search != "" {
		lines = append(lines, search)
		inner--
	}

	switch {
	case !snap.Loaded && snap.LastError == nil:
		lines = append(lines, m.theme.Styles().MutedText.Render("Loading books…"))
	case snap.Total == 0 && snap.Loaded:
		lines = append(lines, m.theme.Styles().MutedText.Render("The catalog is empty. Press a to add a book."))
	default:
		cols := []column{
			{title: "Accession", width: 10},
			{title: "Title"},
			{title: "Author"},
			{title: "Class", width: 8},
			{title: "Year", width: 6},
			{title: "Language", width: 10},
		}
		rows := make([]tableRow, len(snap.Rows))
		for i, b := range snap.Rows {
			rows[i] = tableRow{cells: []string{
				string(b.AccessionNo), string(b.Title), string(b.Author),
				string(b.ClassNo), string(b.Year), string(b.Language),
			}}
		}
		lines = append(lines, m.renderTable(cols, rows, m.bookList.selected, width-2, inner, bgColor))
	}
	if snap.LastError != nil && snap.Loaded {
		title += " · stale " + snap.LastUpdated.Format(time.Kitchen)
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}
