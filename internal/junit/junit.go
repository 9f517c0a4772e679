// Package junit is for writing JUnit XML reports.
package junit

import (
	"context"
	"os"

	"regtest/internal/printing"
	"regtest/internal/run"
)

// FileName is the report written into the test reports dir.
const FileName = "junit.xml"

// Write a JUnit XML file from the provided verbose Go test output, using
// the converter tool (a "go run" package@version).
func Write(ctx context.Context, goBinary, tool, goTestOutput, outPath string) error {
	junitOut, _, err := run.Cmd(ctx, goBinary,
		run.Args("run", tool),
		run.Stdin(goTestOutput),
		run.Log(printing.Discard()),
	)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(junitOut), 0666) //nolint:gosec
}
