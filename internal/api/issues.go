package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/five82/shelf/internal/library"
)

// ListIssues returns every issue record, pending and returned.
func (c *Client) ListIssues(ctx context.Context) ([]library.Issue, error) {
	var payload struct {
		Issues []library.Issue `json:"Issues"`
	}
	if err := c.doJSON(ctx, call{op: "list issues", method: http.MethodGet, path: "/issues/all_issues"}, &payload); err != nil {
		return nil, err
	}
	return payload.Issues, nil
}

// IssueBook records a new loan.
func (c *Client) IssueBook(ctx context.Context, issue library.Issue) error {
	if err := issue.Validate(); err != nil {
		return err
	}
	issue.IssueID = ""
	return c.doJSON(ctx, call{op: "issue book", method: http.MethodPost, path: "/issues/issue_book", payload: issue}, nil)
}

// ReturnBook marks the loan as returned.
func (c *Client) ReturnBook(ctx context.Context, id library.ID) error {
	if id.IsZero() {
		return fmt.Errorf("issue id required")
	}
	return c.doJSON(ctx, call{op: "return book", method: http.MethodPut, path: pathID("/issues/return_book", id.String()), payload: struct{}{}}, nil)
}

// DeleteIssue removes the loan record.
func (c *Client) DeleteIssue(ctx context.Context, id library.ID) error {
	if id.IsZero() {
		return fmt.Errorf("issue id required")
	}
	return c.doJSON(ctx, call{op: "delete issue", method: http.MethodDelete, path: pathID("/issues/delete_issue", id.String())}, nil)
}

// PendingBook looks up the catalog entry for an accession number before it
// is issued.
func (c *Client) PendingBook(ctx context.Context, accession string) (library.Book, error) {
	accession = strings.TrimSpace(accession)
	if accession == "" {
		return library.Book{}, fmt.Errorf("accession number required")
	}
	var payload struct {
		BookDetails *library.Book `json:"BookDetails"`
	}
	err := c.doJSON(ctx, call{op: "find book", method: http.MethodGet, path: pathID("/issues/pending_book", accession)}, &payload)
	if err != nil {
		return library.Book{}, withDefaultMessage(err, "Accession No not found!")
	}
	if payload.BookDetails == nil {
		return library.Book{}, &BusinessError{Op: "find book", Message: "Accession No not found!"}
	}
	return *payload.BookDetails, nil
}

// ReturnedIssues lists past loans of a book. It uses the shorter lookup
// timeout.
func (c *Client) ReturnedIssues(ctx context.Context, accession string) ([]library.Issue, error) {
	accession = strings.TrimSpace(accession)
	if accession == "" {
		return nil, fmt.Errorf("accession number required")
	}
	var payload struct {
		ReturnedIssues []library.Issue `json:"ReturnedIssues"`
	}
	cl := call{
		op:      "returned issues",
		method:  http.MethodGet,
		path:    pathID("/issues/returned_issues", accession),
		timeout: c.lookupTimeout,
	}
	if err := c.doJSON(ctx, cl, &payload); err != nil {
		return nil, err
	}
	return payload.ReturnedIssues, nil
}

// IssuedCounts returns how often each book has been issued.
func (c *Client) IssuedCounts(ctx context.Context) ([]library.IssuedCount, error) {
	var payload struct {
		IssuedBooks []library.IssuedCount `json:"IssuedBooks"`
	}
	if err := c.doJSON(ctx, call{op: "issued counts", method: http.MethodGet, path: "/issues/issued_books_count"}, &payload); err != nil {
		return nil, err
	}
	return payload.IssuedBooks, nil
}

// IssuedCount returns how often one book has been issued.
func (c *Client) IssuedCount(ctx context.Context, accession string) (int, error) {
	accession = strings.TrimSpace(accession)
	if accession == "" {
		return 0, fmt.Errorf("accession number required")
	}
	var payload struct {
		IssuedCount library.Count `json:"IssuedCount"`
	}
	if err := c.doJSON(ctx, call{op: "issued count", method: http.MethodGet, path: pathID("/issues/issued_books_count", accession)}, &payload); err != nil {
		return 0, err
	}
	return int(payload.IssuedCount), nil
}

// PendingCount returns the number of books currently out.
func (c *Client) PendingCount(ctx context.Context) (int, error) {
	var payload struct {
		PendingBooksCount library.Count `json:"PendingBooksCount"`
	}
	if err := c.doJSON(ctx, call{op: "pending count", method: http.MethodGet, path: "/issues/count_pending_books"}, &payload); err != nil {
		return 0, err
	}
	return int(payload.PendingBooksCount), nil
}

func withDefaultMessage(err error, msg string) error {
	var be *BusinessError
	if errors.As(err, &be) && be.Message == "" {
		return &BusinessError{Op: be.Op, Message: msg}
	}
	return err
}
