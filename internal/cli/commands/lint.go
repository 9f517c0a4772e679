package commands

import (
	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/lint"
)

// LintCommand handles the lint command
type LintCommand struct {
	app *app.Context
}

// NewLintCommand creates a new LintCommand
func NewLintCommand(appCtx *app.Context) *LintCommand {
	return &LintCommand{app: appCtx}
}

// Execute runs the command
func (lc *LintCommand) Execute(cmd *cobra.Command, args []string) error {
	report, err := lint.Run(cmd.Context(), lc.app.Config, lc.app.Log)
	if err != nil {
		return err
	}
	logLintReport(lc.app, report)
	return nil
}
