// Package printing holds the console plumbing shared by the harness: a
// leveled, colored logger that never fails, and a writer that prefixes the
// lines of child-process output.
package printing

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	headerColor  = color.New(color.FgCyan)
)

// NewLogger creates a Logger writing to the provided io.Writer.
func NewLogger(to io.Writer) *Logger {
	return &Logger{out: to}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return NewLogger(io.Discard)
}

// Logger wraps an io.Writer and ignores errors when writing. It is safe for
// concurrent use by the worker pool.
type Logger struct {
	out io.Writer
	mu  sync.Mutex
}

var _ io.Writer = (*Logger)(nil)

// Write to the underlying io.Writer. Errors are silently ignored. Always
// returns len(p) and a nil error.
func (l *Logger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(p)
	return len(p), nil
}

// Logf writes a log line. A newline is automatically appended.
func (l *Logger) Logf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(l, format+"\n", a...)
}

// Infof writes an informational line.
func (l *Logger) Infof(format string, a ...interface{}) {
	l.Logf(format, a...)
}

// Headerf writes a highlighted line, used for stage banners.
func (l *Logger) Headerf(format string, a ...interface{}) {
	l.Logf("%s", headerColor.Sprintf(format, a...))
}

// Warnf writes a non-fatal problem.
func (l *Logger) Warnf(format string, a ...interface{}) {
	l.Logf("%s", warnColor.Sprintf("warning: "+format, a...))
}

// Errorf writes an error line. It does not return an error.
func (l *Logger) Errorf(format string, a ...interface{}) {
	l.Logf("%s", errorColor.Sprintf("error: "+format, a...))
}

// Successf writes a line in green.
func (l *Logger) Successf(format string, a ...interface{}) {
	l.Logf("%s", successColor.Sprintf(format, a...))
}

// ConfigureColor turns colored output off when f is not a terminal, so
// redirected logs and CI output stay free of escape sequences.
func ConfigureColor(f *os.File) {
	if !term.IsTerminal(int(f.Fd())) {
		color.NoColor = true
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
