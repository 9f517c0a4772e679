package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/cli"
	"regtest/internal/cli/commands"
	"regtest/internal/printing"
)

var version = "dev"

func main() {
	printing.ConfigureColor(os.Stdout)

	// Create root command
	rootCmd := &cobra.Command{
		Use:     "regtest",
		Short:   "Regression test harness",
		Long:    `Discover and run regression test modules sequentially or in parallel, compare their logs against golden logs, and write coverage, lint, documentation, JUnit and metrics reports.`,
		Version: version,
	}

	// Config is loaded once the flags are parsed
	appCtx := app.New(os.Stdout, os.Stderr)
	appCtx.Interactive = printing.IsTerminal(os.Stdin) && printing.IsTerminal(os.Stdout)

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies and register them
	cmds := commands.NewCommands(appCtx)
	cmds.Register(rootCmd, &flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(commands.ExitCode(err))
}
