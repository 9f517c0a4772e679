package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/storage"
	"regtest/internal/ui"
)

// FailuresCommand handles the failures command
type FailuresCommand struct {
	app     *app.Context
	storage storage.Storage
	viewer  ui.Viewer
}

// NewFailuresCommand creates a new FailuresCommand
func NewFailuresCommand(appCtx *app.Context, st storage.Storage, viewer ui.Viewer) *FailuresCommand {
	return &FailuresCommand{
		app:     appCtx,
		storage: st,
		viewer:  viewer,
	}
}

// Execute runs the command
func (fc *FailuresCommand) Execute(cmd *cobra.Command, args []string) error {
	results, err := fc.storage.Load()
	if err != nil {
		return err
	}
	if !fc.app.Interactive {
		return errors.New("the failures viewer needs a terminal")
	}

	return fc.viewer.View(results)
}
