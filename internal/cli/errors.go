package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/output"
)

// reportedError is a failure a notice has already shown.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// reported marks an error returned by a collection, which posts its own
// error notice.
func reported(err error) error {
	switch api.Classify(err) {
	case api.KindNone:
		return nil
	case api.KindNotAuthenticated, api.KindCanceled:
		return err
	}
	return &reportedError{err: err}
}

// report prints err unless a notice already did and returns its exit code.
func (r *runtime) report(err error) int {
	var rep *reportedError
	// The API guard announces a rejected token itself.
	if errors.As(err, &rep) || api.Classify(err) == api.KindUnauthorized {
		return exitCode(err)
	}
	cliErr := toCLIError(err)
	r.printer.FormatError(cliErr)
	return cliErr.ExitCode
}

func exitCode(err error) int {
	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode
	}
	var validation *library.ValidationError
	switch {
	case errors.As(err, &validation), errors.Is(err, api.ErrPasswordMismatch):
		return output.ExitUsageError
	case strings.HasPrefix(err.Error(), "unknown command"), strings.HasPrefix(err.Error(), "accepts "):
		return output.ExitUsageError
	}
	switch api.Classify(err) {
	case api.KindNotAuthenticated, api.KindUnauthorized, api.KindAuth:
		return output.ExitNotAuthenticated
	case api.KindTimeout:
		return output.ExitTimeout
	default:
		return output.ExitGeneral
	}
}

// toCLIError maps err onto a summary, cause and suggestion.
func toCLIError(err error) *output.CLIError {
	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	out := &output.CLIError{Summary: api.Message(err), ExitCode: exitCode(err), Err: err}

	switch api.Classify(err) {
	case api.KindNotAuthenticated:
		out.Summary = "not logged in"
		out.Suggestion = "Run 'shelf login' first"
	case api.KindUnauthorized:
		out.Suggestion = "Run 'shelf login' again"
	case api.KindAuth:
		out.Summary = "login failed"
		out.Detail = api.Message(err)
	case api.KindTimeout:
		out.Suggestion = "Raise request_timeout_seconds in the config file if the server is slow"
	case api.KindTransport:
		out.Detail = err.Error()
		out.Suggestion = "Check api_url in the config file or pass --api"
	default:
		if out.ExitCode == output.ExitUsageError {
			out.Summary = "invalid input"
			out.Detail = api.Message(err)
			out.Suggestion = "Run with --help to see the expected arguments"
		}
	}
	return out
}

func usageError(c *cobra.Command, err error) error {
	return &output.CLIError{
		Summary:    err.Error(),
		Suggestion: fmt.Sprintf("Run '%s --help'", c.CommandPath()),
		ExitCode:   output.ExitUsageError,
		Err:        err,
	}
}

// exactArgs is cobra.ExactArgs with usage exit codes.
func exactArgs(n int, names string) cobra.PositionalArgs {
	return func(c *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError(c, fmt.Errorf("expected %s, got %d argument(s)", names, len(args)))
		}
		return nil
	}
}

func notFound(format string, args ...any) error {
	return &output.CLIError{Summary: fmt.Sprintf(format, args...), ExitCode: output.ExitGeneral}
}
