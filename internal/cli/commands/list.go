package commands

import (
	"github.com/spf13/cobra"

	"regtest/internal/app"
	"regtest/internal/discovery"
	"regtest/internal/storage"
	"regtest/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	app       *app.Context
	formatter *ui.Formatter
	parser    *discovery.Parser
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(appCtx *app.Context, formatter *ui.Formatter, caseParser *discovery.Parser, st storage.Storage) *ListCommand {
	return &ListCommand{
		app:       appCtx,
		formatter: formatter,
		parser:    caseParser,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	modules, err := discover(lc.app.Config, lc.storage)
	if err != nil {
		return err
	}

	if len(modules) == 0 {
		lc.app.Log.Warnf("No tests found")
		return nil
	}

	// Last-run failures are optional decoration.
	var failedModules map[string]struct{}
	if last, err := lc.storage.Load(); err == nil {
		failedModules = make(map[string]struct{})
		for _, dir := range storage.FailedModules(last) {
			failedModules[dir] = struct{}{}
		}
	}

	lc.formatter.PrintTestList(modules, lc.app.Config.Flags.TestCases, failedModules)
	lc.app.Log.Infof("\nTotal test cases: %d", lc.parser.CountTestCases(modules))
	return nil
}
