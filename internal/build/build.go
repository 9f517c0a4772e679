// Package build compiles every source package, catching syntax and type
// errors in code no test imports.
package build

import (
	"context"
	"fmt"

	"regtest/internal/config"
	"regtest/internal/printing"
	"regtest/internal/run"
)

// Run compiles the source packages and discards the results.
func Run(ctx context.Context, cfg *config.Config, log *printing.Logger) error {
	args := append([]string{"build"}, cfg.SourcePatterns()...)
	if _, _, err := run.Cmd(ctx, cfg.GoBinary, args, run.Dir(cfg.ProjectRoot), run.Log(log)); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return nil
}
