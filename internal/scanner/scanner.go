// Package scanner turns keystrokes from a keyboard-wedge barcode reader
// into completed scan codes.
//
// A reader types a prefix character, the code, and Enter. Keystrokes that
// arrive between the prefix and Enter belong to the scan and must not be
// treated as commands.
package scanner

import "strings"

// DefaultPrefix starts a scan when no prefix is configured.
const DefaultPrefix = "%"

// Result describes what Feed did with a keystroke.
type Result struct {
	// Consumed is true when the key belonged to a scan.
	Consumed bool
	// Code is set, with Done, when Enter completed a non-empty scan.
	Code string
	Done bool
}

// Listener accumulates one scan at a time. It is not safe for concurrent
// use; feed it from the goroutine that reads keys.
type Listener struct {
	prefix   string
	scanning bool
	buf      strings.Builder
}

// New returns a listener that starts a scan on prefix.
func New(prefix string) *Listener {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Listener{prefix: prefix}
}

// Prefix returns the key that starts a scan.
func (l *Listener) Prefix() string { return l.prefix }

// Scanning reports whether a scan is in progress.
func (l *Listener) Scanning() bool { return l.scanning }

// Feed processes one key, named the way Bubble Tea names keys ("a",
// "enter", "esc", "backspace").
func (l *Listener) Feed(key string) Result {
	if !l.scanning {
		if key == l.prefix {
			l.scanning = true
			l.buf.Reset()
			return Result{Consumed: true}
		}
		return Result{}
	}

	switch key {
	case "enter":
		code := strings.TrimSpace(l.buf.String())
		l.Reset()
		if code == "" {
			return Result{Consumed: true}
		}
		return Result{Consumed: true, Code: code, Done: true}
	case "esc", "ctrl+c":
		l.Reset()
		return Result{Consumed: true}
	case "backspace":
		s := []rune(l.buf.String())
		if len(s) > 0 {
			l.buf.Reset()
			l.buf.WriteString(string(s[:len(s)-1]))
		}
		return Result{Consumed: true}
	case "space":
		l.buf.WriteByte(' ')
		return Result{Consumed: true}
	}
	if len([]rune(key)) == 1 {
		l.buf.WriteString(key)
	}
	return Result{Consumed: true}
}

// Reset abandons any scan in progress.
func (l *Listener) Reset() {
	l.scanning = false
	l.buf.Reset()
}
