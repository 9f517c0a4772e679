package commands

import (
	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/build"
)

// BuildCommand handles the build command
type BuildCommand struct {
	app *app.Context
}

// NewBuildCommand creates a new BuildCommand
func NewBuildCommand(appCtx *app.Context) *BuildCommand {
	return &BuildCommand{app: appCtx}
}

// Execute runs the command
func (bc *BuildCommand) Execute(cmd *cobra.Command, args []string) error {
	return build.Run(cmd.Context(), bc.app.Config, bc.app.Log)
}
