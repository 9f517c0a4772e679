package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/database"
	"regtest/internal/docs"
	"regtest/internal/domain"
	"regtest/internal/execution"
	"regtest/internal/junit"
	"regtest/internal/lint"
	"regtest/internal/metrics"
	"regtest/internal/parser"
	"regtest/internal/storage"
	"regtest/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	app         *app.Context
	runner      execution.ModuleRunner
	parser      *parser.GoTestParser
	storage     storage.Storage
	formatter   *ui.Formatter
	provisioner *database.Provisioner
	viewer      ui.Viewer
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	appCtx *app.Context,
	runner execution.ModuleRunner,
	goTestParser *parser.GoTestParser,
	st storage.Storage,
	formatter *ui.Formatter,
	provisioner *database.Provisioner,
	viewer ui.Viewer,
) *RunCommand {
	return &RunCommand{
		app:         appCtx,
		runner:      runner,
		parser:      goTestParser,
		storage:     st,
		formatter:   formatter,
		provisioner: provisioner,
		viewer:      viewer,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	return rc.run(cmd.Context())
}

func (rc *RunCommand) run(ctx context.Context) error {
	cfg := rc.app.Config
	log := rc.app.Log
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Flags.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Flags.Timeout)
		defer cancel()
	}

	if err := resetReports(cfg); err != nil {
		return err
	}

	flags := cfg.Flags
	runTests := flags.Test || !(flags.Coverage || flags.Lint || flags.Docs)
	recorder := metrics.NewRecorder()

	var errs []error
	var output *domain.TestResultsOutput
	if runTests {
		var err error
		output, err = rc.runTests(ctx, recorder)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if flags.Coverage && ctx.Err() == nil {
		log.Headerf("Coverage")
		ratio, err := writeCoverageReports(ctx, rc.app, ReportAll)
		if err != nil {
			errs = append(errs, err)
		} else {
			recorder.RecordCoverage(ratio)
		}
	}

	if flags.Lint && ctx.Err() == nil {
		log.Headerf("Lint")
		report, err := lint.Run(ctx, cfg, log)
		if err != nil {
			errs = append(errs, err)
		} else {
			recorder.RecordLint(report.Findings)
			logLintReport(rc.app, report)
		}
	}

	if flags.Docs && ctx.Err() == nil {
		log.Headerf("Docs")
		if err := docs.NewGenerator(cfg, log).Generate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to generate docs: %w", err))
		}
	}

	if err := recorder.WriteTextfile(cfg.MetricsPath()); err != nil {
		errs = append(errs, err)
	}

	if flags.OpenFailures && output != nil && len(output.Details) > 0 {
		if !rc.app.Interactive {
			log.Warnf("not a terminal, run \"regtest failures\" to view the failures")
		} else if err := rc.viewer.View(output); err != nil {
			errs = append(errs, fmt.Errorf("failures viewer: %w", err))
		}
	}
	return CombineErrors(errs)
}

// runTests discovers, runs and reports the test modules. Failing modules
// yield errTestsFailed next to any report error.
func (rc *RunCommand) runTests(ctx context.Context, recorder *metrics.Recorder) (*domain.TestResultsOutput, error) {
	cfg := rc.app.Config
	log := rc.app.Log

	modules, err := discover(cfg, rc.storage)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		log.Warnf("No tests to execute")
		return nil, errNoTests
	}

	plan := execution.NewPlan(modules, cfg.Parallel)
	if cfg.Flags.DB {
		if err := rc.provision(ctx, plan.Workers); err != nil {
			return nil, fmt.Errorf("database provisioning failed: %w", err)
		}
	}

	log.Headerf("Running %d test modules (%d sequential, %d parallel) on %d workers",
		plan.Total(), len(plan.Sequential), len(plan.Parallel), plan.Workers)
	pool := execution.NewWorkerPool(rc.runner, rc.parser, cfg.Parallel)
	pool.SetFailFast(cfg.Flags.FailFast)
	pool.SetProgress(ui.NewProgressBar(rc.app.Stderr, plan.Total(), "Running tests"))

	results, duration, runErr := pool.Execute(ctx, modules)

	var failures []domain.TestFailure
	for _, result := range results {
		if !result.Success {
			failures = append(failures, rc.parser.ParseFailure(result)...)
		}
	}
	output := storage.Summarize(results, failures, duration, plan.Workers)

	var errs []error
	if err := rc.storage.Save(output); err != nil {
		errs = append(errs, fmt.Errorf("failed to save test results: %w", err))
	}
	if err := rc.writeJUnit(ctx, results); err != nil {
		errs = append(errs, fmt.Errorf("failed to write JUnit XML: %w", err))
	}
	recorder.RecordRun(results, output)

	rc.formatter.PrintMetaStats(output)

	switch {
	case runErr != nil:
		errs = append(errs, fmt.Errorf("test run interrupted: %w", runErr))
	case output.Meta.FailedModules > 0:
		errs = append(errs, errTestsFailed)
	}
	return output, CombineErrors(errs)
}

func (rc *RunCommand) provision(ctx context.Context, workers int) error {
	return provisionDatabases(ctx, rc.app, rc.provisioner, workers)
}

// writeJUnit converts the verbose output of every module into one report.
func (rc *RunCommand) writeJUnit(ctx context.Context, results []domain.TestResult) error {
	if len(results) == 0 {
		return nil
	}
	cfg := rc.app.Config
	var verbose strings.Builder
	for _, result := range results {
		verbose.WriteString(rc.parser.VerboseOutput(result.Output))
	}
	if ctx.Err() != nil {
		// An interrupted run still gets its report.
		ctx = context.WithoutCancel(ctx)
	}
	return junit.Write(ctx, cfg.GoBinary, cfg.JUnitTool, verbose.String(), filepath.Join(cfg.TestReportsPath(), junit.FileName))
}

func logLintReport(appCtx *app.Context, report lint.Report) {
	if report.Clean() {
		appCtx.Log.Successf("✓ No lint findings (%s)", report.Path)
		return
	}
	appCtx.Log.Warnf("%d lint finding(s), see %s", report.Findings, report.Path)
}
