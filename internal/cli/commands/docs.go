package commands

import (
	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/docs"
)

// DocsCommand handles the docs command
type DocsCommand struct {
	app *app.Context
}

// NewDocsCommand creates a new DocsCommand
func NewDocsCommand(appCtx *app.Context) *DocsCommand {
	return &DocsCommand{app: appCtx}
}

// Execute runs the command
func (dc *DocsCommand) Execute(cmd *cobra.Command, args []string) error {
	if err := docs.NewGenerator(dc.app.Config, dc.app.Log).Generate(cmd.Context()); err != nil {
		return err
	}
	dc.app.Log.Successf("✓ Docs written to %s", dc.app.Config.DocsPath())
	return nil
}
