// Package console provides the leveled, colored logger shared by the
// translator's packages and its CLI.
package console

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

// Logger writes one line per call, prefixed with its level tag.
// A nil *Logger is valid and discards everything.
type Logger struct {
	l       *log.Logger
	verbose bool
}

// New returns a Logger writing to w. Debug lines are only written when
// verbose is set.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{l: log.New(w, "", 0), verbose: verbose}
}

// Default logs to stderr without debug output.
func Default() *Logger {
	return New(os.Stderr, false)
}

// Discard returns a Logger that drops every line.
func Discard() *Logger {
	return New(io.Discard, false)
}

func (c *Logger) Info(format string, args ...any) {
	c.print(blue("[INFO]"), format, args...)
}

func (c *Logger) Success(format string, args ...any) {
	c.print(green("[OK]"), format, args...)
}

func (c *Logger) Warn(format string, args ...any) {
	c.print(yellow("[WARN]"), format, args...)
}

func (c *Logger) Error(format string, args ...any) {
	c.print(red("[ERROR]"), format, args...)
}

func (c *Logger) Debug(format string, args ...any) {
	if c == nil || !c.verbose {
		return
	}
	c.print(cyan("[DEBUG]"), format, args...)
}

func (c *Logger) print(tag, format string, args ...any) {
	if c == nil {
		return
	}
	c.l.Printf(tag+" "+format, args...)
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
