// Package output formats command-line output: colored status lines,
// tables and structured errors.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/five82/shelf/internal/notify"
)

// ColorMode represents color output mode.
type ColorMode int

const (
	// ColorAuto enables colors unless the environment says otherwise.
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on.
	ColorAlways
	// ColorNever forces colors off.
	ColorNever
)

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	ColorMode ColorMode
	Quiet     bool
	Out       io.Writer
	Err       io.Writer
}

// Printer writes formatted messages to the terminal.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
	quiet     bool
}

// ParseColorMode parses auto, always or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors decides whether to emit color for mode. Auto honours
// NO_COLOR, TERM=dumb and whether stdout is a terminal.
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return !color.NoColor
	}
}

// NewPrinter returns a printer for opts. Nil writers default to stdout and
// stderr.
func NewPrinter(opts PrinterOptions) *Printer {
	p := &Printer{
		out:       opts.Out,
		err:       opts.Err,
		useColors: ResolveColors(opts.ColorMode),
		quiet:     opts.Quiet,
	}
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.err == nil {
		p.err = os.Stderr
	}
	return p
}

// Out returns the writer used for regular output.
func (p *Printer) Out() io.Writer { return p.out }

// IsQuiet returns whether the printer is in quiet mode.
func (p *Printer) IsQuiet() bool { return p.quiet }

// Info prints an informational message.
func (p *Printer) Info(format string, args ...any) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
	} else {
		fmt.Fprintf(p.out, format+"\n", args...)
	}
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...any) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
	}
}

// Warning prints a warning to stderr.
func (p *Printer) Warning(format string, args ...any) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
	}
}

// Error prints an error to stderr. Errors ignore quiet mode.
func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		color.New(color.FgRed).Fprintf(p.err, "✗ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
	}
}

// Print prints a plain line.
func (p *Printer) Print(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Header prints a section header.
func (p *Printer) Header(title string) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		color.New(color.FgWhite).Fprintf(p.out, "%s\n", strings.Repeat("─", len([]rune(title))))
	} else {
		fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
	}
}

// Field prints an aligned "label: value" line.
func (p *Printer) Field(label, value string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "  %-16s %s\n", label+":", value)
}

// StatusBadge returns a marker for a loan status.
func (p *Printer) StatusBadge(status string, overdue bool) string {
	if !p.useColors {
		if overdue {
			return "[OVERDUE]"
		}
		return fmt.Sprintf("[%s]", status)
	}
	switch {
	case overdue:
		return color.RedString("● overdue")
	case strings.EqualFold(status, "returned"):
		return color.GreenString("● returned")
	case strings.EqualFold(status, "pending"):
		return color.YellowString("● pending")
	default:
		return color.WhiteString("○ " + status)
	}
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

// Dim returns dimmed text.
func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}

// Notify prints a notice, so a Printer can stand in for the TUI's notice
// center when commands run without one.
func (p *Printer) Notify(level notify.Level, message string) {
	switch level {
	case notify.LevelSuccess:
		p.Success("%s", message)
	case notify.LevelWarning:
		p.Warning("%s", message)
	case notify.LevelError:
		p.Error("%s", message)
	default:
		p.Info("%s", message)
	}
}
