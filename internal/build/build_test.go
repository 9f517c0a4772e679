package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"regtest/internal/config"
	"regtest/internal/printing"
)

func fakeGo(t *testing.T, script string) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.ProjectRoot = t.TempDir()
	cfg.SourceDirs = []string{"install", "cmd"}
	cfg.GoBinary = filepath.Join(t.TempDir(), "go")
	require.NoError(t, os.WriteFile(cfg.GoBinary, []byte("#!/bin/sh\n"+script+"\n"), 0755))
	return cfg
}

func Test_Run(t *testing.T) {
	cfg := fakeGo(t, `test "$*" = "build ./install/... ./cmd/..."`)
	require.NoError(t, Run(context.Background(), cfg, printing.Discard()))
}

func Test_Run_fails(t *testing.T) {
	cfg := fakeGo(t, `echo "install/x.go:3:1: syntax error" >&2; exit 1`)
	require.Error(t, Run(context.Background(), cfg, printing.Discard()))
}
