package commands

import (
	"github.com/spf13/cobra"

	"regtest/internal/app"
)

// CoverageCommand handles the coverage command
type CoverageCommand struct {
	app *app.Context
}

// NewCoverageCommand creates a new CoverageCommand
func NewCoverageCommand(appCtx *app.Context) *CoverageCommand {
	return &CoverageCommand{app: appCtx}
}

// Execute runs the command
func (cc *CoverageCommand) Execute(cmd *cobra.Command, args []string) error {
	report := cc.app.Config.Flags.Report
	if report == "" {
		report = ReportAll
	}
	_, err := writeCoverageReports(cmd.Context(), cc.app, report)
	return err
}
