package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/state"
)

func newBooksCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage the catalog",
	}
	cmd.AddCommand(
		newBooksListCommand(r),
		newBooksAddCommand(r),
		newBooksEditCommand(r),
		newBooksDeleteCommand(r),
		newBooksExportCommand(r),
		newBooksImportCommand(r),
		newBooksHistoryCommand(r),
		newBooksCountCommand(r),
	)
	return cmd
}

// session opens the environment and requires a login.
func (r *runtime) session() (*app.Env, error) {
	env, err := r.open()
	if err != nil {
		return nil, err
	}
	if !env.Session.IsAuthenticated() {
		return nil, api.ErrNotAuthenticated
	}
	return env, nil
}

// findBook loads the catalog and returns the book with accession.
func (r *runtime) findBook(cmd *cobra.Command, env *app.Env, accession string) (library.Book, error) {
	if err := env.Books.Refresh(cmd.Context()); err != nil {
		return library.Book{}, reported(err)
	}
	b, ok := library.FindByAccession(env.Books.All(), accession)
	if !ok {
		return library.Book{}, notFound("no book with accession number %s", accession)
	}
	return b, nil
}

func newBooksListCommand(r *runtime) *cobra.Command {
	var (
		search string
		page   int
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			if err := env.Books.Refresh(cmd.Context()); err != nil {
				return reported(err)
			}

			var rows []library.Book
			footer := ""
			if all {
				rows = state.Filter(env.Books.All(), search, library.BookHaystack)
				footer = fmt.Sprintf("%d books", len(rows))
			} else {
				env.Books.SetFilter(search)
				env.Books.SetPage(page - 1)
				snap := env.Books.Snapshot()
				rows = snap.Rows
				footer = fmt.Sprintf("Page %d/%d · %d of %d books", snap.Page+1, snap.Pages, snap.Filtered, snap.Total)
			}
			if len(rows) == 0 {
				r.printer.Info("No books found.")
				return nil
			}

			tbl := r.printer.NewTable("Accession", "Title", "Author", "Class", "Year", "Language")
			for _, b := range rows {
				tbl.AddRow(string(b.AccessionNo), string(b.Title), string(b.Author),
					string(b.ClassNo), string(b.Year), string(b.Language))
			}
			if err := tbl.Render(); err != nil {
				return err
			}
			r.printer.Print("%s", r.printer.Dim(footer))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by title, author, accession or subject")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().BoolVar(&all, "all", false, "show every matching book")
	return cmd
}

// bookFlags binds one flag per catalog field.
type bookFlags struct {
	values map[string]*string
	order  []string
}

var bookFlagNames = []struct{ name, usage string }{
	{"accession", "accession number"},
	{"class", "class number"},
	{"title", "title"},
	{"author", "author"},
	{"volume", "volume number"},
	{"year", "year of publication"},
	{"place", "place of publication"},
	{"price", "price"},
	{"isbn", "ISBN or ISSN"},
	{"language", "language"},
	{"subject", "subject heading"},
	{"pages", "number of pages"},
	{"source", "source"},
}

func addBookFlags(fs *pflag.FlagSet) *bookFlags {
	bf := &bookFlags{values: make(map[string]*string)}
	for _, f := range bookFlagNames {
		bf.values[f.name] = fs.String(f.name, "", f.usage)
		bf.order = append(bf.order, f.name)
	}
	return bf
}

// apply copies the flags that were set onto b.
func (bf *bookFlags) apply(fs *pflag.FlagSet, b library.Book) library.Book {
	fields := map[string]*library.Text{
		"accession": &b.AccessionNo,
		"class":     &b.ClassNo,
		"title":     &b.Title,
		"author":    &b.Author,
		"volume":    &b.VolumeNo,
		"year":      &b.Year,
		"place":     &b.Place,
		"price":     &b.Price,
		"isbn":      &b.ISBN,
		"language":  &b.Language,
		"subject":   &b.SubjectHeading,
		"pages":     &b.Pages,
		"source":    &b.Source,
	}
	for _, name := range bf.order {
		if fs.Changed(name) {
			*fields[name] = library.Text(strings.TrimSpace(*bf.values[name]))
		}
	}
	return b
}

func newBooksAddCommand(r *runtime) *cobra.Command {
	var bf *bookFlags
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a book to the catalog",
		Example: `  shelf books add --accession 1042 --title "Dune" --author "Frank Herbert"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			book := bf.apply(cmd.Flags(), library.Book{})
			if err := book.Validate(); err != nil {
				return err
			}
			env, err := r.session()
			if err != nil {
				return err
			}
			return reported(env.Books.Create(cmd.Context(), book))
		},
	}
	bf = addBookFlags(cmd.Flags())
	return cmd
}

func newBooksEditCommand(r *runtime) *cobra.Command {
	var bf *bookFlags
	cmd := &cobra.Command{
		Use:   "edit <accession>",
		Short: "Change fields of a book",
		Long:  "Only the fields given as flags change; the rest keep their current values.",
		Args:  exactArgs(1, "an accession number"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			current, err := r.findBook(cmd, env, args[0])
			if err != nil {
				return err
			}
			book := bf.apply(cmd.Flags(), current)
			if book == current {
				r.printer.Info("Nothing to change.")
				return nil
			}
			if err := book.Validate(); err != nil {
				return err
			}
			return reported(env.Books.Update(cmd.Context(), book))
		},
	}
	bf = addBookFlags(cmd.Flags())
	return cmd
}

func newBooksDeleteCommand(r *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <accession>",
		Short: "Remove a book from the catalog",
		Args:  exactArgs(1, "an accession number"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			book, err := r.findBook(cmd, env, args[0])
			if err != nil {
				return err
			}
			ok, err := r.confirm(yes, fmt.Sprintf("Delete %q (accession %s)?", book.Title, book.AccessionNo))
			if err != nil {
				return err
			}
			if !ok {
				r.printer.Info("Cancelled.")
				return nil
			}
			return reported(env.Books.Delete(cmd.Context(), book.ID))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newBooksExportCommand(r *runtime) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the catalog as a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			if path == "" {
				path = fmt.Sprintf("books-%s.xlsx", time.Now().Format("20060102"))
			}
			data, err := env.Client.ExportBooks(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			r.printer.Success("Catalog exported to %s", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "", "file to write (default books-YYYYMMDD.xlsx)")
	return cmd
}

func newBooksImportCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Upload a spreadsheet of books",
		Args:  exactArgs(1, "a spreadsheet path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			r.printer.Info("Importing books…")
			if err := env.Client.ImportBooks(cmd.Context(), filepath.Base(args[0]), f); err != nil {
				return err
			}
			r.printer.Success("Books imported successfully!")
			return nil
		},
	}
}

func newBooksHistoryCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "history <accession>",
		Short: "Show the returned loans of a book",
		Args:  exactArgs(1, "an accession number"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			issues, err := env.Client.ReturnedIssues(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				r.printer.Info("No returned transactions for this book.")
				return nil
			}
			sanitizer := library.NewSanitizer(env.Logger)
			tbl := r.printer.NewTable("Issued", "Student", "Phone")
			for _, l := range sanitizer.Loans(issues) {
				tbl.AddRow(library.FormatDate(l.IssuedAt), string(l.Issue.StudentName), string(l.Issue.PhoneNo))
			}
			return tbl.Render()
		},
	}
}

func newBooksCountCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "count <accession>",
		Short: "Show how many times a book was issued",
		Args:  exactArgs(1, "an accession number"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			n, err := env.Client.IssuedCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			times := "times"
			if n == 1 {
				times = "time"
			}
			r.printer.Print("%s has been issued %d %s.", args[0], n, times)
			return nil
		},
	}
}
