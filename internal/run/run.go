// Package run executes the external programs the harness delegates to: the
// go tool, linters and report converters.
package run

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"regtest/internal/printing"
)

// Markers put in front of relayed child output in the log.
const (
	stdoutMarker = "  > "
	stderrMarker = "  ! "
)

type invocation struct {
	cmd        *exec.Cmd
	log        *printing.Logger
	echoStdout bool
	echoStderr bool
}

// Option configures one Cmd call.
type Option func(*invocation)

// Cmd executes command with args and returns everything it wrote to stdout
// and stderr. The error is non-nil for a non-zero exit status, and when ctx
// ends before the process does.
//
// The log (os.Stdout unless Log says otherwise) gets the command line, each
// output line marked with "  > " or "  ! ", and the exit outcome. Suppressed
// streams are still returned.
func Cmd(ctx context.Context, command string, args []string, opts ...Option) (string, string, error) {
	inv := invocation{
		cmd:        exec.CommandContext(ctx, command, args...),
		log:        printing.NewLogger(os.Stdout),
		echoStdout: true,
		echoStderr: true,
	}
	for _, opt := range opts {
		opt(&inv)
	}

	var stdout, stderr bytes.Buffer
	inv.cmd.Stdout = inv.tee(&stdout, inv.cmd.Stdout, inv.echoStdout, stdoutMarker)
	inv.cmd.Stderr = inv.tee(&stderr, nil, inv.echoStderr, stderrMarker)

	inv.log.Logf("exec %s %s", inv.cmd.Path, strings.Join(inv.cmd.Args[1:], " "))
	start := time.Now()
	err := inv.cmd.Run()
	took := time.Since(start).Round(time.Millisecond)
	if err != nil {
		inv.log.Logf("%s failed after %s: %v", command, took, err)
	} else {
		inv.log.Logf("%s finished in %s", command, took)
	}
	return stdout.String(), stderr.String(), err
}

// tee builds the writer one output stream of the child goes to.
func (inv *invocation) tee(capture *bytes.Buffer, extra io.Writer, echo bool, marker string) io.Writer {
	ws := []io.Writer{capture}
	if extra != nil {
		ws = append(ws, extra)
	}
	if echo {
		ws = append(ws, printing.NewLinePrefixWriter(inv.log, marker))
	}
	return io.MultiWriter(ws...)
}

// Args collects its arguments into a slice, so call sites read as
//
//	run.Cmd(ctx, "go", run.Args("vet", "./install/..."))
func Args(args ...string) []string {
	return args
}

// Env adds variables to the environment the command inherits.
func Env(env ...string) Option {
	return func(inv *invocation) {
		if len(inv.cmd.Env) == 0 {
			inv.cmd.Env = os.Environ()
		}
		inv.cmd.Env = append(inv.cmd.Env, env...)
	}
}

// Dir sets the working directory of the command.
func Dir(dir string) Option {
	return func(inv *invocation) {
		inv.cmd.Dir = dir
	}
}

// Stdin feeds in to the command.
func Stdin(in string) Option {
	return func(inv *invocation) {
		inv.cmd.Stdin = strings.NewReader(in)
	}
}

// Stdout copies the command's stdout to out as well.
func Stdout(out io.Writer) Option {
	return func(inv *invocation) {
		inv.cmd.Stdout = out
	}
}

// Log sends the command line, relayed output and exit outcome to to.
func Log(to *printing.Logger) Option {
	return func(inv *invocation) {
		inv.log = to
	}
}

// SuppressStdout keeps stdout out of the log.
func SuppressStdout() Option {
	return func(inv *invocation) {
		inv.echoStdout = false
	}
}

// SuppressStderr keeps stderr out of the log.
func SuppressStderr() Option {
	return func(inv *invocation) {
		inv.echoStderr = false
	}
}
