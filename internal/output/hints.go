package output

import (
	"fmt"
	"strings"
)

// CommandHints maps a command to related commands worth running next.
var CommandHints = map[string][]string{
	"login":         {"whoami", "books list"},
	"logout":        {"login"},
	"books add":     {"books list", "issues lookup <accession>"},
	"books import":  {"books list"},
	"issues issue":  {"issues pending"},
	"issues return": {"issues list"},
	"issues lookup": {"issues issue <accession>"},
	"admins add":    {"admins list"},
	"passwd":        {"logout"},
}

// PrintHints prints "See also" hints for command. It does nothing in quiet
// mode or when command has no hints.
func (p *Printer) PrintHints(command string) {
	if p.quiet {
		return
	}
	hints, ok := CommandHints[command]
	if !ok || len(hints) == 0 {
		return
	}
	cmds := make([]string, len(hints))
	for i, h := range hints {
		cmds[i] = "shelf " + h
	}
	fmt.Fprintf(p.out, "\nSee also: %s\n", strings.Join(cmds, ", "))
}
