package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/cli"
	"regtest/internal/config"
	"regtest/internal/database"
	"regtest/internal/discovery"
	"regtest/internal/execution"
	"regtest/internal/parser"
	"regtest/internal/storage"
	"regtest/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	app      *app.Context
	Run      *RunCommand
	List     *ListCommand
	Coverage *CoverageCommand
	Lint     *LintCommand
	Docs     *DocsCommand
	Build    *BuildCommand
	Failures *FailuresCommand
	DB       *DBCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(appCtx *app.Context) *Commands {
	cfg := appCtx.Config

	// Initialize dependencies
	goTestParser := parser.NewGoTestParser()
	caseParser := discovery.NewParser()
	runner := execution.NewRunner(cfg, goTestParser, nil)
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(appCtx.Stdout, caseParser)
	viewer := ui.NewFailureViewer(jsonStorage, appCtx.Log)
	provisioner := database.NewProvisioner(cfg, database.NewManager(cfg), appCtx.Log)

	return &Commands{
		app:      appCtx,
		Run:      NewRunCommand(appCtx, runner, goTestParser, jsonStorage, formatter, provisioner, viewer),
		List:     NewListCommand(appCtx, formatter, caseParser, jsonStorage),
		Coverage: NewCoverageCommand(appCtx),
		Lint:     NewLintCommand(appCtx),
		Docs:     NewDocsCommand(appCtx),
		Build:    NewBuildCommand(appCtx),
		Failures: NewFailuresCommand(appCtx, jsonStorage, viewer),
		DB:       NewDBCommand(appCtx, provisioner),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags) {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.Args = noArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return UsageError(err)
	})
	rootCmd.PersistentFlags().StringVar(&flags.Root, "root", ".", "Directory inside the project to test")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd == rootCmd {
			return nil
		}
		// Update config with flags after parsing
		if err := c.app.Load(flags.Root, flags.ToConfigFlags()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	}

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run regression tests and generate reports",
		Long: "Recreate the reports tree, then run the selected stages: tests (-t), " +
			"coverage reports (-c), lint (-l) and docs (-d). With no stage selected only the tests run.",
		Args: noArgs,
		RunE: c.Run.Execute,
	}
	runCmd.Flags().BoolVarP(&flags.Test, "test", "t", false, "Run the default or requested test modules")
	runCmd.Flags().BoolVarP(&flags.Coverage, "coverage", "c", false, "Measure coverage and write the coverage reports")
	runCmd.Flags().BoolVarP(&flags.Lint, "lint", "l", false, "Run the static analyser over the source dirs")
	runCmd.Flags().BoolVarP(&flags.Docs, "docs", "d", false, "Generate text and HTML package documentation")
	runCmd.Flags().IntVarP(&flags.Parallel, "parallel", "p", config.MaxParallelJobs, "Number of test modules to run in parallel")
	runCmd.Flags().StringVarP(&flags.Package, "package", "a", config.DefaultPackage, "Package dir searched for test modules, e.g. tests, tests/install or tests.install")
	runCmd.Flags().StringVarP(&flags.Case, "case", "r", config.DefaultCase, "Test module name pattern after the test_ prefix, e.g. check* for test_check*")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on the first failing module")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only the modules that failed in the last run")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Bound the whole run, e.g. 30m (0 means no limit)")
	runCmd.Flags().BoolVar(&flags.DB, "db", false, "Provision the per-worker test databases before running")
	runCmd.Flags().BoolVar(&flags.OpenFailures, "open-failures", false, "Open the failures viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered test modules",
		Long:  "Scan and list the test modules without running them. Modules that failed in the last run are marked [F].",
		Args:  noArgs,
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringVarP(&flags.Package, "package", "a", config.DefaultPackage, "Package dir searched for test modules")
	listCmd.Flags().StringVarP(&flags.Case, "case", "r", config.DefaultCase, "Test module name pattern after the test_ prefix")
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "List the test functions of every module")
	rootCmd.AddCommand(listCmd)

	// Coverage command
	coverageCmd := &cobra.Command{
		Use:   "coverage",
		Short: "Write coverage reports from the saved profiles",
		Long:  "Combine the per-module coverprofiles of the last run and write the requested reports.",
		Args:  noArgs,
		RunE:  c.Coverage.Execute,
	}
	coverageCmd.Flags().StringVar(&flags.Report, "report", ReportAll, "Report to write: text, html, xml or all")
	rootCmd.AddCommand(coverageCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "lint",
		Short: "Run the static analyser over the source dirs",
		Args:  noArgs,
		RunE:  c.Lint.Execute,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "docs",
		Short: "Generate text and HTML package documentation",
		Args:  noArgs,
		RunE:  c.Docs.Execute,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Compile every source package",
		Args:  noArgs,
		RunE:  c.Build.Execute,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "failures",
		Short: "View test failures interactively",
		Long:  "Display the failures of the last run, with their golden log diffs, in an interactive viewer",
		Args:  noArgs,
		RunE:  c.Failures.Execute,
	})

	// DB command
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Provision the per-worker test databases",
		Long:  "Create one MySQL database per worker and load the SQL fixtures into each, in parallel",
		Args:  noArgs,
		RunE:  c.DB.Execute,
	}
	dbCmd.Flags().IntVarP(&flags.Parallel, "parallel", "p", config.MaxParallelJobs, "Number of workers to provision databases for")
	dbCmd.Flags().BoolVar(&flags.Fresh, "fresh", false, "Drop and recreate existing databases")
	rootCmd.AddCommand(dbCmd)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if cmd.HasSubCommands() {
		return UsageError(fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath()))
	}
	return UsageError(fmt.Errorf("unexpected positional argument(s): %q", args))
}
