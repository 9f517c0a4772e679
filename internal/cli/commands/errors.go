package commands

import (
	"errors"
	"strings"
)

var (
	// errTestsFailed is returned by the "run" command when a test module
	// failed or errored.
	errTestsFailed = errors.New("tests failed")

	// errNoTests is returned by the "run" command when no test module
	// matched.
	errNoTests = errors.New("no tests")
)

// Exit codes of the regtest binary.
const (
	ExitSuccess      = 0
	ExitTestsFailed  = 1
	ExitHarnessError = 2
	ExitUsageError   = 64
)

// usageError marks bad flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// UsageError wraps err so that ExitCode maps it to ExitUsageError.
func UsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

// combinedErrors keeps the combined errors reachable for errors.Is.
type combinedErrors struct {
	errs []error
}

func (e *combinedErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("multiple errors occurred:\n")
	for _, err := range e.errs {
		sb.WriteString("  * " + err.Error() + "\n")
	}
	return sb.String()
}

func (e *combinedErrors) Unwrap() []error { return e.errs }

// CombineErrors returns nil for no errors, the error itself for one, and
// an error listing all of them otherwise.
func CombineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return &combinedErrors{errs: errs}
}

// ExitCode maps the error returned by a command to the process exit code.
// Test failures only count as such when nothing else went wrong.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	if onlyTestFailures(err) {
		return ExitTestsFailed
	}
	return ExitHarnessError
}

func onlyTestFailures(err error) bool {
	var combined *combinedErrors
	if errors.As(err, &combined) {
		for _, e := range combined.errs {
			if !onlyTestFailures(e) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, errTestsFailed) || errors.Is(err, errNoTests)
}
