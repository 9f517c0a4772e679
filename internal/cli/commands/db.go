package commands

import (
	"context"

	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/config"
	"regtest/internal/database"
	"regtest/internal/ui"
)

// DBCommand handles the db command
type DBCommand struct {
	app         *app.Context
	provisioner *database.Provisioner
}

// NewDBCommand creates a new DBCommand
func NewDBCommand(appCtx *app.Context, provisioner *database.Provisioner) *DBCommand {
	return &DBCommand{app: appCtx, provisioner: provisioner}
}

// Execute runs the command
func (dc *DBCommand) Execute(cmd *cobra.Command, args []string) error {
	workers := dc.app.Config.Parallel
	if workers > config.MaxParallelJobs {
		workers = config.MaxParallelJobs
	}
	if workers < 1 {
		workers = 1
	}
	return provisionDatabases(cmd.Context(), dc.app, dc.provisioner, workers)
}

// provisionDatabases prepares the databases of workers 1..workers with a
// progress bar over every fixture of every worker.
func provisionDatabases(ctx context.Context, appCtx *app.Context, provisioner *database.Provisioner, workers int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fixtures, err := provisioner.FindFixtures()
	if err != nil {
		return err
	}
	if len(fixtures) > 0 {
		provisioner.SetProgress(ui.NewProgressBar(appCtx.Stderr, workers*len(fixtures), "Provisioning databases"))
	}
	_, err = provisioner.Run(ctx, workers, appCtx.Config.Flags.Fresh)
	return err
}
