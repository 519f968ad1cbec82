package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/output"
)

// fakeAPI serves the handful of endpoints the commands below call.
type fakeAPI struct {
	mu    sync.Mutex
	books []map[string]any
	added []map[string]any
	auth  []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/adminlogin", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, map[string]any{"loginStatus": false, "Error": "Invalid username or password"})
			return
		}
		writeJSON(w, map[string]any{"loginStatus": true, "token": "tok-1", "role": "admin"})
	})
	mux.HandleFunc("/books/all_books", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		books := f.books
		f.mu.Unlock()
		writeJSON(w, map[string]any{"Books": books})
	})
	mux.HandleFunc("/books/add_book", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.added = append(f.added, body)
		f.books = append(f.books, body)
		f.mu.Unlock()
		writeJSON(w, map[string]any{"Status": true})
	})
	mux.HandleFunc("/admin/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"username": "librarian"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type harness struct {
	t      *testing.T
	dir    string
	config string
	api    *fakeAPI
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("NO_COLOR", "1")

	fake := &fakeAPI{books: []map[string]any{
		{"id": 1, "accession_no": "1042", "title_of_the_book": "Dune", "name_of_the_author": "Frank Herbert"},
		{"id": 2, "accession_no": "1043", "title_of_the_book": "Emma", "name_of_the_author": "Jane Austen"},
	}}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	h := &harness{t: t, dir: dir, api: fake, server: server}
	h.writeConfig(server.URL)
	return h
}

func (h *harness) writeConfig(apiURL string) {
	h.t.Helper()
	h.config = filepath.Join(h.dir, "config.toml")
	content := fmt.Sprintf(`api_url = %q
session_path = %q
log_file = %q
refresh_seconds = 0
request_timeout_seconds = 2
`, apiURL, filepath.Join(h.dir, "session.toml"), filepath.Join(h.dir, "shelf.log"))
	require.NoError(h.t, os.WriteFile(h.config, []byte(content), 0o600))
}

// run executes the command line and returns the exit code, stdout and stderr.
func (h *harness) run(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	streams := Streams{In: strings.NewReader(stdin), Out: &out, Err: &errOut}
	full := append([]string{"--config", h.config, "--no-color"}, args...)
	code := Execute(context.Background(), full, streams)
	return code, out.String(), errOut.String()
}

func TestHelpListsCommands(t *testing.T) {
	h := newHarness(t)

	code, stdout, _ := h.run("", "--help")
	require.Equal(t, output.ExitSuccess, code)
	for _, name := range []string{"login", "logout", "whoami", "books", "issues", "admins", "stats", "logs"} {
		assert.Contains(t, stdout, name)
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("", "shelve")
	assert.Equal(t, output.ExitUsageError, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestWhoamiRequiresLogin(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("", "whoami")
	assert.Equal(t, output.ExitNotAuthenticated, code)
	assert.Contains(t, stderr, "not logged in")
	assert.Contains(t, stderr, "shelf login")
}

func TestLoginThenListBooks(t *testing.T) {
	h := newHarness(t)

	code, stdout, stderr := h.run("", "login", "-u", "librarian", "-p", "secret")
	require.Equal(t, output.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Logged in as librarian (admin)")

	code, stdout, stderr = h.run("", "books", "list", "--search", "dune")
	require.Equal(t, output.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Dune")
	assert.NotContains(t, stdout, "Emma")
	assert.Contains(t, stdout, "1 of 2 books")

	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	require.NotEmpty(t, h.api.auth)
	assert.Equal(t, "Bearer tok-1", h.api.auth[len(h.api.auth)-1])
}

func TestLoginPromptsForMissingPassword(t *testing.T) {
	h := newHarness(t)

	code, stdout, stderr := h.run("secret\n", "login", "-u", "librarian")
	require.Equal(t, output.ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "Password: ")
	assert.Contains(t, stdout, "Logged in as librarian")
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("", "login", "-u", "librarian", "-p", "wrong")
	assert.Equal(t, output.ExitNotAuthenticated, code)
	assert.Contains(t, stderr, "login failed")
	assert.Contains(t, stderr, "Invalid username or password")

	code, _, _ = h.run("", "books", "list")
	assert.Equal(t, output.ExitNotAuthenticated, code)
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)

	code, _, _ := h.run("", "login", "-u", "librarian", "-p", "secret")
	require.Equal(t, output.ExitSuccess, code)

	code, stdout, _ := h.run("", "logout")
	require.Equal(t, output.ExitSuccess, code)
	assert.Contains(t, stdout, "Logged out.")

	code, _, _ = h.run("", "whoami")
	assert.Equal(t, output.ExitNotAuthenticated, code)
}

func TestEphemeralLoginIsNotKept(t *testing.T) {
	h := newHarness(t)

	code, _, _ := h.run("", "--ephemeral", "login", "-u", "librarian", "-p", "secret")
	require.Equal(t, output.ExitSuccess, code)

	code, _, _ = h.run("", "whoami")
	assert.Equal(t, output.ExitNotAuthenticated, code)
}

func TestBooksAddValidatesBeforeSending(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("", "books", "add", "--accession", "2001")
	assert.Equal(t, output.ExitUsageError, code)
	assert.Contains(t, stderr, "invalid input")
	assert.Contains(t, stderr, "title")

	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	assert.Empty(t, h.api.added)
}

func TestBooksAddSendsBook(t *testing.T) {
	h := newHarness(t)
	code, _, _ := h.run("", "login", "-u", "librarian", "-p", "secret")
	require.Equal(t, output.ExitSuccess, code)

	code, _, stderr := h.run("", "books", "add", "--accession", "2001", "--title", "Kim", "--author", "Rudyard Kipling")
	require.Equal(t, output.ExitSuccess, code, stderr)

	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	require.Len(t, h.api.added, 1)
	assert.Equal(t, "2001", h.api.added[0]["accession_no"])
	assert.Equal(t, "Kim", h.api.added[0]["title_of_the_book"])
}

func TestBooksEditUnknownAccession(t *testing.T) {
	h := newHarness(t)
	code, _, _ := h.run("", "login", "-u", "librarian", "-p", "secret")
	require.Equal(t, output.ExitSuccess, code)

	code, _, stderr := h.run("", "books", "edit", "9999", "--title", "Nope")
	assert.Equal(t, output.ExitGeneral, code)
	assert.Contains(t, stderr, "no book with accession number 9999")
}

func TestBooksDeleteNeedsAccession(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("", "books", "delete")
	assert.Equal(t, output.ExitUsageError, code)
	assert.Contains(t, stderr, "expected an accession number")
}

func TestStatsRejectsBadMonth(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("", "stats", "--month", "13")
	assert.Equal(t, output.ExitUsageError, code)
	assert.Contains(t, stderr, "--month must be between 1 and 12")
}

func TestBadFlagIsUsageError(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("", "books", "list", "--page", "two")
	assert.Equal(t, output.ExitUsageError, code)
	assert.Contains(t, stderr, "shelf books list --help")
}

func TestLogsPrintsEntries(t *testing.T) {
	h := newHarness(t)
	log := strings.Join([]string{
		`time=2026-03-01T10:00:00.000Z level=DEBUG msg="request sent" path=/books/all_books`,
		`time=2026-03-01T10:00:01.000Z level=WARN msg="refresh failed" error=timeout`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "shelf.log"), []byte(log), 0o600))

	code, stdout, stderr := h.run("", "logs", "--level", "warn")
	require.Equal(t, output.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "refresh failed")
	assert.NotContains(t, stdout, "request sent")
}

func TestLogsRejectsUnknownLevel(t *testing.T) {
	h := newHarness(t)

	code, _, _ := h.run("", "logs", "--level", "loud")
	assert.Equal(t, output.ExitUsageError, code)
}

func TestBadAPIURLIsConfigError(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("", "--api", "ftp://example.com", "whoami")
	assert.Equal(t, output.ExitConfigError, code)
	assert.Contains(t, stderr, "cannot start shelf")
}

func TestRootStartsConsole(t *testing.T) {
	h := newHarness(t)
	var got app.Options
	root, r := newRootCommand(newRuntime(Streams{In: strings.NewReader(""), Out: &bytes.Buffer{}, Err: &bytes.Buffer{}}))
	r.runUI = func(ctx context.Context, opts app.Options) error {
		got = opts
		return nil
	}
	root.SetArgs([]string{"--config", h.config, "--api", h.server.URL, "--ephemeral"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, h.config, got.ConfigPath)
	assert.Equal(t, h.server.URL, got.APIURL)
	assert.True(t, got.Ephemeral)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &library.ValidationError{Fields: []string{"title"}}, output.ExitUsageError},
		{"password mismatch", api.ErrPasswordMismatch, output.ExitUsageError},
		{"not authenticated", api.ErrNotAuthenticated, output.ExitNotAuthenticated},
		{"auth", &api.AuthError{Message: "bad password"}, output.ExitNotAuthenticated},
		{"timeout", &api.TransportError{Op: "list books", Err: context.DeadlineExceeded}, output.ExitTimeout},
		{"transport", &api.TransportError{Op: "list books", Err: errors.New("connection refused")}, output.ExitGeneral},
		{"business", &api.BusinessError{Op: "add book", Message: "duplicate accession"}, output.ExitGeneral},
		{"cli error", &output.CLIError{Summary: "x", ExitCode: output.ExitConfigError}, output.ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestToCLIErrorSuggestions(t *testing.T) {
	transport := toCLIError(&api.TransportError{Op: "list books", Err: errors.New("connection refused")})
	assert.Contains(t, transport.Suggestion, "--api")

	timeout := toCLIError(&api.TransportError{Op: "list books", Err: context.DeadlineExceeded})
	assert.Contains(t, timeout.Suggestion, "request_timeout_seconds")

	business := toCLIError(&api.BusinessError{Op: "add book", Message: "duplicate accession"})
	assert.Equal(t, "duplicate accession", business.Summary)
}

func TestReportedErrorsAreNotPrintedTwice(t *testing.T) {
	var errOut bytes.Buffer
	r := newRuntime(Streams{Out: &bytes.Buffer{}, Err: &errOut})

	code := r.report(reported(&api.BusinessError{Op: "add book", Message: "duplicate accession"}))
	assert.Equal(t, output.ExitGeneral, code)
	assert.Empty(t, errOut.String())

	assert.NoError(t, reported(nil))
	assert.ErrorIs(t, reported(api.ErrNotAuthenticated), api.ErrNotAuthenticated)
}
