package execution

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"regtest/internal/config"
	"regtest/internal/domain"
	"regtest/internal/parser"
	"regtest/internal/printing"
	"regtest/internal/run"
)

// Runner executes go test for a single module
type Runner struct {
	config *config.Config
	parser *parser.GoTestParser
	log    *printing.Logger
}

var _ ModuleRunner = (*Runner)(nil)

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, p *parser.GoTestParser, log *printing.Logger) *Runner {
	if log == nil {
		log = printing.Discard()
	}
	return &Runner{config: cfg, parser: p, log: log}
}

// Args returns the go test arguments for module. With coverage enabled each
// module writes its own profile, to be combined once every module is done.
func (r *Runner) Args(module domain.TestModule) []string {
	args := []string{"test", "-json", "-v", "-count=1", "-p", "1"}
	if r.config.TestTimeout > 0 {
		args = append(args, "-timeout", r.config.TestTimeout.String())
	}
	if r.config.Flags.Coverage {
		args = append(args,
			"-covermode", r.config.CoverMode,
			"-coverpkg", r.config.CoverPkg(),
			"-coverprofile", r.CoverProfile(module),
		)
	}
	return append(args, module.Pattern())
}

// CoverProfile returns the profile path of module, suffixed with the
// module's directory so parallel modules never share a file.
func (r *Runner) CoverProfile(module domain.TestModule) string {
	suffix := strings.NewReplacer("/", "_", ".", "_").Replace(module.RelDir)
	return filepath.Join(r.config.CoveragePath(), "cover."+suffix+".out")
}

// Run executes go test for module. Failing tests are not an error: the
// result's Error is set only when go test could not run to completion.
func (r *Runner) Run(ctx context.Context, module domain.TestModule, workerID int) domain.TestResult {
	start := time.Now()
	stdout, stderr, err := run.Cmd(ctx, r.config.GoBinary, r.Args(module),
		run.Dir(r.config.ProjectRoot),
		run.Env(r.config.TestEnv(workerID)...),
		run.Log(r.log),
		run.SuppressStdout(),
		run.SuppressStderr(),
	)

	result := domain.TestResult{
		Module:   module,
		Success:  err == nil,
		Output:   stdout + stderr,
		Cases:    r.parser.ParseCases(stdout),
		Duration: time.Since(start),
		WorkerID: workerID,
	}
	if r.config.Flags.Coverage {
		result.CoverProfile = r.CoverProfile(module)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		result.Error = fmt.Errorf("%s: %w", module.Name, ctx.Err())
	case !errors.As(err, &exitErr):
		result.Error = fmt.Errorf("%s: %w", module.Name, err)
	}
	return result
}
