// Package cli is the shelf command tree. Without a subcommand it starts the
// terminal console; every other command performs one operation against the
// library API and exits.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/output"
)

// Streams are where commands read input and write output.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process's standard streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type globalOptions struct {
	configPath string
	apiURL     string
	color      string
	noColor    bool
	verbose    bool
	quiet      bool
	ephemeral  bool
}

// runtime is the state shared by one invocation's commands.
type runtime struct {
	opts       globalOptions
	streams    Streams
	printer    *output.Printer
	input      *bufio.Reader
	env        *app.Env
	httpClient *http.Client
	runUI      func(ctx context.Context, opts app.Options) error
}

func newRuntime(streams Streams) *runtime {
	if streams.In == nil {
		streams.In = os.Stdin
	}
	if streams.Out == nil {
		streams.Out = os.Stdout
	}
	if streams.Err == nil {
		streams.Err = os.Stderr
	}
	r := &runtime{streams: streams, runUI: app.Run}
	r.printer = output.NewPrinter(output.PrinterOptions{Out: streams.Out, Err: streams.Err})
	return r
}

// NewRootCommand builds the command tree.
func NewRootCommand(streams Streams) *cobra.Command {
	cmd, _ := newRootCommand(newRuntime(streams))
	return cmd
}

func newRootCommand(r *runtime) (*cobra.Command, *runtime) {
	root := &cobra.Command{
		Use:   "shelf",
		Short: "Terminal console for the library management API",
		Long: `shelf manages a library catalog, loans and administrator accounts.

Run without a command to open the interactive console. Every command below
talks to the same API and shares the saved session.

Example usage:
  shelf                          # open the console
  shelf login -u admin           # start a session
  shelf books list --search dune # find books
  shelf issues issue 1042 --student "Asha" --phone 9876543210
  shelf issues pending           # books still out, overdue first`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			r.printer.PrintHints(strings.TrimPrefix(cmd.CommandPath(), "shelf "))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.startUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&r.opts.configPath, "config", "", "config file (default ~/.config/shelf/config.toml)")
	flags.StringVar(&r.opts.apiURL, "api", "", "library API base URL (overrides api_url)")
	flags.StringVar(&r.opts.color, "color", "auto", "color output: auto, always or never")
	flags.BoolVar(&r.opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&r.opts.verbose, "verbose", "v", false, "write debug logs to stderr")
	flags.BoolVarP(&r.opts.quiet, "quiet", "q", false, "print errors only")
	flags.BoolVar(&r.opts.ephemeral, "ephemeral", false, "keep the session in memory only")

	root.SetIn(r.streams.In)
	root.SetOut(r.streams.Out)
	root.SetErr(r.streams.Err)
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError(c, err)
	})

	root.AddCommand(
		newUICommand(r),
		newLoginCommand(r),
		newLogoutCommand(r),
		newWhoamiCommand(r),
		newPasswdCommand(r),
		newBooksCommand(r),
		newIssuesCommand(r),
		newAdminsCommand(r),
		newStatsCommand(r),
		newLogsCommand(r),
	)
	return root, r
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, streams Streams) int {
	root, r := newRootCommand(newRuntime(streams))
	defer r.close()

	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return output.ExitSuccess
	}
	return r.report(err)
}

// setup applies the output flags once cobra has parsed them.
func (r *runtime) setup() error {
	mode, err := output.ParseColorMode(r.opts.color)
	if err != nil {
		return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError, Err: err}
	}
	if r.opts.noColor {
		mode = output.ColorNever
	}
	r.printer = output.NewPrinter(output.PrinterOptions{
		ColorMode: mode,
		Quiet:     r.opts.quiet,
		Out:       r.streams.Out,
		Err:       r.streams.Err,
	})
	return nil
}

func (r *runtime) appOptions() app.Options {
	opts := app.Options{
		ConfigPath: r.opts.configPath,
		APIURL:     r.opts.apiURL,
		Verbose:    r.opts.verbose,
		Ephemeral:  r.opts.ephemeral,
		HTTPClient: r.httpClient,
	}
	return opts
}

// open builds the environment on first use. Notices from the collections
// print through the printer.
func (r *runtime) open() (*app.Env, error) {
	if r.env != nil {
		return r.env, nil
	}
	opts := r.appOptions()
	opts.Notifier = r.printer
	if r.opts.verbose {
		opts.LogWriter = r.streams.Err
	}
	env, err := app.NewEnv(opts)
	if err != nil {
		return nil, &output.CLIError{
			Summary:    "cannot start shelf",
			Detail:     err.Error(),
			Suggestion: "Check the config file and the --api value",
			ExitCode:   output.ExitConfigError,
			Err:        err,
		}
	}
	r.env = env
	return env, nil
}

func (r *runtime) close() {
	if r.env != nil {
		_ = r.env.Close()
		r.env = nil
	}
}

func (r *runtime) startUI(ctx context.Context) error {
	if err := r.runUI(ctx, r.appOptions()); err != nil {
		return &output.CLIError{Summary: "console failed", Detail: err.Error(), ExitCode: output.ExitGeneral, Err: err}
	}
	return nil
}

// readLine prompts on stderr and reads one line from the input stream.
func (r *runtime) readLine(prompt string) (string, error) {
	if r.input == nil {
		r.input = bufio.NewReader(r.streams.In)
	}
	fmt.Fprint(r.streams.Err, prompt)
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question unless yes is already set.
func (r *runtime) confirm(yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	answer, err := r.readLine(question + " [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func newUICommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.startUI(cmd.Context())
		},
	}
}
