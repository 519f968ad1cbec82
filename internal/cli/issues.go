package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/state"
)

func newIssuesCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"loans"},
		Short:   "Lend, return and review books",
	}
	cmd.AddCommand(
		newIssuesListCommand(r),
		newIssuesPendingCommand(r),
		newIssuesLookupCommand(r),
		newIssuesIssueCommand(r),
		newIssuesReturnCommand(r),
		newIssuesDeleteCommand(r),
		newIssuesByPhoneCommand(r),
	)
	return cmd
}

// loadLoans refreshes the issue list and returns it with normalized dates.
func (r *runtime) loadLoans(cmd *cobra.Command, env *app.Env, issues func() []library.Issue) ([]library.Loan, error) {
	if err := env.Issues.Refresh(cmd.Context()); err != nil {
		return nil, reported(err)
	}
	return library.NewSanitizer(env.Logger).Loans(issues()), nil
}

func (r *runtime) printLoans(loans []library.Loan, empty string) error {
	if len(loans) == 0 {
		r.printer.Info("%s", empty)
		return nil
	}
	now := time.Now()
	tbl := r.printer.NewTable("Issue", "Accession", "Title", "Student", "Phone", "Issued", "Due", "Status")
	sanitized := false
	for _, l := range loans {
		issued := library.FormatDate(l.IssuedAt)
		if l.Sanitized {
			issued += "*"
			sanitized = true
		}
		status := r.printer.StatusBadge(string(l.Issue.Status), l.Overdue)
		if l.Overdue {
			status += fmt.Sprintf(" %dd", l.DaysOverdue(now))
		}
		tbl.AddRow(string(l.Issue.IssueID), string(l.Issue.AccessionNo), string(l.Issue.Title),
			string(l.Issue.StudentName), string(l.Issue.PhoneNo), issued, library.FormatDate(l.DueAt), status)
	}
	if err := tbl.Render(); err != nil {
		return err
	}
	if sanitized {
		r.printer.Print("%s", r.printer.Dim("* issued date was unreadable or too old and was reset to today"))
	}
	return nil
}

func newIssuesListCommand(r *runtime) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			loans, err := r.loadLoans(cmd, env, func() []library.Issue {
				return state.Filter(env.Issues.All(), search, library.TransactionHaystack)
			})
			if err != nil {
				return err
			}
			return r.printLoans(loans, "No transactions.")
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by title or student")
	return cmd
}

func newIssuesPendingCommand(r *runtime) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List books that are still out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			loans, err := r.loadLoans(cmd, env, func() []library.Issue {
				return state.Filter(env.Issues.Pending(), search, library.PendingHaystack)
			})
			if err != nil {
				return err
			}
			return r.printLoans(loans, "No books are out.")
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by title, student, phone or accession")
	return cmd
}

func newIssuesByPhoneCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "by-phone <phone>",
		Short: "List the transactions of one phone number",
		Args:  exactArgs(1, "a phone number"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			phone := strings.TrimSpace(args[0])
			loans, err := r.loadLoans(cmd, env, func() []library.Issue { return env.Issues.ByPhone(phone) })
			if err != nil {
				return err
			}
			return r.printLoans(loans, "No transactions for "+phone+".")
		},
	}
}

func newIssuesLookupCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <accession>",
		Short: "Check that a book can be issued",
		Args:  exactArgs(1, "an accession number"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			book, err := env.Client.PendingBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r.printer.Header(string(book.Title))
			r.printer.Field("Accession", string(book.AccessionNo))
			r.printer.Field("Author", string(book.Author))
			r.printer.Field("Class", string(book.ClassNo))
			r.printer.Field("Due if issued today", library.FormatDate(library.DueDate(time.Now())))
			return nil
		},
	}
}

func newIssuesIssueCommand(r *runtime) *cobra.Command {
	var student, phone, date string
	cmd := &cobra.Command{
		Use:     "issue <accession>",
		Short:   "Lend a book to a student",
		Example: `  shelf issues issue 1042 --student "Asha Rao" --phone 9876543210 --date 05/03/2025`,
		Args:    exactArgs(1, "an accession number"),
		RunE: func(cmd *cobra.Command, args []string) error {
			issued := time.Now()
			if strings.TrimSpace(date) != "" {
				t, err := time.ParseInLocation(library.DateLayout, strings.TrimSpace(date), time.Local)
				if err != nil {
					return usageError(cmd, fmt.Errorf("--date must be DD/MM/YYYY"))
				}
				issued = t
			}

			env, err := r.session()
			if err != nil {
				return err
			}
			book, err := env.Client.PendingBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			issue := library.NewIssue(book, student, phone)
			issue.IssuedOn = library.Text(issued.Format("2006-01-02"))
			if err := issue.Validate(); err != nil {
				return err
			}
			if err := env.Issues.Issue(cmd.Context(), issue); err != nil {
				return reported(err)
			}
			r.printer.Field("Due back", library.FormatDate(library.DueDate(issued)))
			return nil
		},
	}
	cmd.Flags().StringVar(&student, "student", "", "student name (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "student phone number (required)")
	cmd.Flags().StringVar(&date, "date", "", "issued date as DD/MM/YYYY (default today)")
	return cmd
}

func newIssuesReturnCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "return <issue-id>",
		Short: "Mark a loan as returned",
		Args:  exactArgs(1, "an issue id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			return reported(env.Issues.Return(cmd.Context(), library.ID(strings.TrimSpace(args[0]))))
		},
	}
}

func newIssuesDeleteCommand(r *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <issue-id>",
		Short: "Delete a transaction",
		Args:  exactArgs(1, "an issue id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.session()
			if err != nil {
				return err
			}
			id := library.ID(strings.TrimSpace(args[0]))
			ok, err := r.confirm(yes, fmt.Sprintf("Delete transaction %s?", id))
			if err != nil {
				return err
			}
			if !ok {
				r.printer.Info("Cancelled.")
				return nil
			}
			return reported(env.Issues.Delete(cmd.Context(), id))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
