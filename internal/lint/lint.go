// Package lint runs the configured static analyser over the source
// directories and keeps its report.
package lint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"regtest/internal/config"
	"regtest/internal/printing"
	"regtest/internal/run"
)

// FileName is the report written into the lint reports dir.
const FileName = "lint.out"

var findingRegexp = regexp.MustCompile(`(?m)^\S+\.go:\d+(:\d+)?: `)

// Report is the outcome of a lint run.
type Report struct {
	Path     string
	Findings int
}

// Clean reports whether the analyser found nothing.
func (r Report) Clean() bool {
	return r.Findings == 0
}

// Run runs the lint command with the source package patterns appended and
// writes everything it printed to the lint report. Findings do not make
// Run fail; only a command that could not run does.
func Run(ctx context.Context, cfg *config.Config, log *printing.Logger) (Report, error) {
	if len(cfg.LintCommand) == 0 {
		return Report{}, errors.New("lint: no lint command configured")
	}
	args := append(append([]string(nil), cfg.LintCommand[1:]...), cfg.SourcePatterns()...)
	stdout, stderr, err := run.Cmd(ctx, cfg.LintCommand[0], args,
		run.Dir(cfg.ProjectRoot),
		run.Log(log),
	)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Report{}, fmt.Errorf("lint: %w", err)
	}
	if err != nil && ctx.Err() != nil {
		return Report{}, fmt.Errorf("lint: %w", ctx.Err())
	}

	output := stdout + stderr
	report := Report{
		Path:     filepath.Join(cfg.LintPath(), FileName),
		Findings: len(findingRegexp.FindAllString(output, -1)),
	}
	if report.Findings == 0 && err != nil {
		// The analyser failed without pointing at a line; keep it visible.
		report.Findings = len(strings.Split(strings.TrimSpace(output), "\n"))
	}
	if err := os.MkdirAll(filepath.Dir(report.Path), 0755); err != nil {
		return report, fmt.Errorf("lint: %w", err)
	}
	if err := os.WriteFile(report.Path, []byte(output), 0644); err != nil {
		return report, fmt.Errorf("lint: %w", err)
	}
	return report, nil
}
