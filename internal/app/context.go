// Package app holds the state shared by every command of a regtest
// invocation.
package app

import (
	"io"

	"regtest/internal/config"
	"regtest/internal/printing"
)

// Context is built once in main and handed to the commands. Nothing in it
// is read from or written to the process environment after loading.
type Context struct {
	Config *config.Config
	Log    *printing.Logger

	// Stdout receives reports and tables, Stderr progress bars.
	Stdout io.Writer
	Stderr io.Writer

	// Interactive is set when a terminal is attached, as the failures
	// viewer requires.
	Interactive bool
}

// New creates a Context over the default config.
func New(stdout, stderr io.Writer) *Context {
	return &Context{
		Config: config.New(),
		Log:    printing.NewLogger(stdout),
		Stdout: stdout,
		Stderr: stderr,
	}
}

// Load replaces the config with the one of the project enclosing dir and
// applies the parsed flags. The Config pointer is kept, so collaborators
// built before parsing see the loaded values.
func (c *Context) Load(dir string, flags config.Flags) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	cfg.ApplyFlags(flags)
	*c.Config = *cfg
	return nil
}
