package state

import (
	"context"

	"github.com/five82/shelf/internal/library"
)

// BookAPI is the catalog part of the API client.
type BookAPI interface {
	ListBooks(ctx context.Context) ([]library.Book, error)
	AddBook(ctx context.Context, b library.Book) error
	UpdateBook(ctx context.Context, b library.Book) error
	DeleteBook(ctx context.Context, id library.ID) error
}

// IssueAPI is the loans part of the API client.
type IssueAPI interface {
	ListIssues(ctx context.Context) ([]library.Issue, error)
	IssueBook(ctx context.Context, issue library.Issue) error
	ReturnBook(ctx context.Context, id library.ID) error
	DeleteIssue(ctx context.Context, id library.ID) error
}

// AdminAPI is the account part of the API client.
type AdminAPI interface {
	ListAdmins(ctx context.Context) ([]library.Admin, error)
	AddAdmin(ctx context.Context, username, password string) (library.Admin, error)
	DeleteAdmin(ctx context.Context, id library.ID) error
}

// NewBooks returns the catalog collection. Edits and deletes are patched
// locally; additions refetch to pick up the server-assigned id.
func NewBooks(client BookAPI, cfg Config) *Collection[library.Book] {
	return NewCollection(Spec[library.Book]{
		Name:     "books",
		Noun:     "Book",
		Fetch:    client.ListBooks,
		Key:      library.BookKey,
		Haystack: library.BookHaystack,
		Strategy: SyncPatch,
		Create:   client.AddBook,
		Update:   client.UpdateBook,
		Delete:   client.DeleteBook,
	}, cfg)
}

// Issues is the loans collection. The same fetched list backs the pending
// view and the transaction history; each view holds its own filter.
type Issues struct {
	*Collection[library.Issue]
	client IssueAPI
}

// NewIssues returns the loans collection. Every mutation refetches.
func NewIssues(client IssueAPI, cfg Config, haystack func(library.Issue) string) *Issues {
	if haystack == nil {
		haystack = library.TransactionHaystack
	}
	return &Issues{
		Collection: NewCollection(Spec[library.Issue]{
			Name:     "issues",
			Noun:     "Issue",
			Fetch:    client.ListIssues,
			Key:      library.IssueKey,
			Haystack: haystack,
			Strategy: SyncRefetch,
			Delete:   client.DeleteIssue,
		}, cfg),
		client: client,
	}
}

// Issue lends a book.
func (c *Issues) Issue(ctx context.Context, issue library.Issue) error {
	return c.Apply(ctx, Action[library.Issue]{
		Verb:    "issue book",
		Success: "Book issued successfully!",
		Run:     func(ctx context.Context) error { return c.client.IssueBook(ctx, issue) },
	})
}

// Return marks a loan as returned.
func (c *Issues) Return(ctx context.Context, id library.ID) error {
	return c.Apply(ctx, Action[library.Issue]{
		Verb:    "return book",
		Success: "Book returned successfully!",
		Run:     func(ctx context.Context) error { return c.client.ReturnBook(ctx, id) },
	})
}

// Pending returns the fetched loans that are still out.
func (c *Issues) Pending() []library.Issue {
	var out []library.Issue
	for _, is := range c.All() {
		if is.IsPending() {
			out = append(out, is)
		}
	}
	return out
}

// ByPhone returns the fetched loans made to phone.
func (c *Issues) ByPhone(phone string) []library.Issue {
	var out []library.Issue
	for _, is := range c.All() {
		if library.MatchPhone(is, phone) {
			out = append(out, is)
		}
	}
	return out
}

// Admins is the administrator accounts collection.
type Admins struct {
	*Collection[library.Admin]
	client AdminAPI
}

// NewAdmins returns the accounts collection. Every mutation refetches.
func NewAdmins(client AdminAPI, cfg Config) *Admins {
	return &Admins{
		Collection: NewCollection(Spec[library.Admin]{
			Name:     "admins",
			Noun:     "Admin",
			Fetch:    client.ListAdmins,
			Key:      library.AdminKey,
			Haystack: library.AdminHaystack,
			Strategy: SyncRefetch,
			Delete:   client.DeleteAdmin,
		}, cfg),
		client: client,
	}
}

// Add creates an administrator account.
func (c *Admins) Add(ctx context.Context, username, password string) error {
	return c.Apply(ctx, Action[library.Admin]{
		Verb:    "add admin",
		Success: "Admin added successfully!",
		Run: func(ctx context.Context) error {
			_, err := c.client.AddAdmin(ctx, username, password)
			return err
		},
	})
}
