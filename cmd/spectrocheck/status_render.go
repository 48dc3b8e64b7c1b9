package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// severity drives the bracket label and color of a status line.
type severity int

const (
	sevInfo severity = iota
	sevOK
	sevWarn
	sevError
)

const escReset = "\x1b[0m"

var severityStyles = map[severity]struct {
	label string
	color string
}{
	sevInfo:  {label: "INFO", color: "\x1b[34m"},
	sevOK:    {label: "OK", color: "\x1b[32m"},
	sevWarn:  {label: "WARN", color: "\x1b[33m"},
	sevError: {label: "ERROR", color: "\x1b[31m"},
}

func (s severity) label() string { return severityStyles[s].label }
func (s severity) color() string { return severityStyles[s].color }

// renderStatusLine formats one aligned "Label: [STATE] message" line,
// wrapped in the severity color when colorize is set.
func renderStatusLine(label string, sev severity, message string, colorize bool) string {
	var b strings.Builder
	b.WriteString("  ")
	fmt.Fprintf(&b, "%-20s ", label+":")
	b.WriteString("[" + sev.label() + "]")
	if message != "" {
		b.WriteString(" " + message)
	}
	if colorize && sev.color() != "" {
		return sev.color() + b.String() + escReset
	}
	return b.String()
}

// renderSectionHeader returns the title line and its underline.
func renderSectionHeader(title string, colorize bool) []string {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	underline := strings.Repeat("-", len(heading))
	if colorize {
		blue := sevInfo.color()
		heading = blue + heading + escReset
		underline = blue + underline + escReset
	}
	return []string{heading, underline}
}

// shouldColorize reports whether the writer is an interactive terminal.
func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
