package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/five82/shelf/internal/library"
)

// ListBooks returns the whole catalog.
func (c *Client) ListBooks(ctx context.Context) ([]library.Book, error) {
	var payload struct {
		Books []library.Book `json:"Books"`
	}
	if err := c.doJSON(ctx, call{op: "list books", method: http.MethodGet, path: "/books/all_books"}, &payload); err != nil {
		return nil, err
	}
	return payload.Books, nil
}

// AddBook creates a catalog entry. The server assigns the id.
func (c *Client) AddBook(ctx context.Context, b library.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.ID = ""
	return c.doJSON(ctx, call{op: "add book", method: http.MethodPost, path: "/books/add_book", payload: b}, nil)
}

// UpdateBook replaces the catalog entry with b.ID.
func (c *Client) UpdateBook(ctx context.Context, b library.Book) error {
	if b.ID.IsZero() {
		return fmt.Errorf("book id required")
	}
	if err := b.Validate(); err != nil {
		return err
	}
	return c.doJSON(ctx, call{op: "update book", method: http.MethodPut, path: pathID("/books/edit_book", b.ID.String()), payload: b}, nil)
}

// DeleteBook removes the catalog entry with id.
func (c *Client) DeleteBook(ctx context.Context, id library.ID) error {
	if id.IsZero() {
		return fmt.Errorf("book id required")
	}
	return c.doJSON(ctx, call{op: "delete book", method: http.MethodDelete, path: pathID("/books/delete_book", id.String())}, nil)
}

// ExportBooks downloads the catalog as an xlsx workbook.
func (c *Client) ExportBooks(ctx context.Context) ([]byte, error) {
	resp, err := c.execute(ctx, call{op: "export books", method: http.MethodGet, path: "/books/export_books"})
	if err != nil {
		return nil, err
	}
	if resp.env.Status != nil && !*resp.env.Status {
		return nil, &BusinessError{Op: "export books", Message: errorText(resp.env.Error)}
	}
	return resp.body, nil
}

// ImportBooks uploads a spreadsheet of books as the multipart field "file".
func (c *Client) ImportBooks(ctx context.Context, filename string, r io.Reader) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}
	return c.doJSON(ctx, call{
		op:          "import books",
		method:      http.MethodPost,
		path:        "/books/import_books",
		body:        buf.Bytes(),
		contentType: form.FormDataContentType(),
	}, nil)
}
