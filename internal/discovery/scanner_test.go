package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"regtest/internal/domain"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for file, content := range files {
		fullPath := filepath.Join(root, file)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", file, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file %s: %v", file, err)
		}
	}
}

func TestScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"tests/install/test_check/check_test.go":      "package check",
		"tests/install/test_sequential_db/db_test.go": "package db",
		"tests/install/test_empty/README":             "",
		"tests/install/helpers/helpers.go":            "package helpers",
		"tests/common/test_paths/paths_test.go":       "package paths",
		"tests/vendor/test_vendored/v_test.go":        "package v",
		"tests/.cache/test_hidden/h_test.go":          "package h",

		"tests/install/test_check/testdata/test_x/x_test.go": "package x",
	})

	scanner := NewScanner([]string{"vendor"})

	t.Run("scans test modules correctly", func(t *testing.T) {
		results, err := scanner.Scan(tmpDir, "tests")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []domain.TestModule{
			{Name: "test_paths", Dir: filepath.Join(tmpDir, "tests/common/test_paths"), RelDir: "tests/common/test_paths"},
			{Name: "test_check", Dir: filepath.Join(tmpDir, "tests/install/test_check"), RelDir: "tests/install/test_check"},
			{Name: "test_sequential_db", Dir: filepath.Join(tmpDir, "tests/install/test_sequential_db"), RelDir: "tests/install/test_sequential_db", Sequential: true},
		}
		if diff := cmp.Diff(want, results); diff != "" {
			t.Errorf("unexpected modules (-want +got):\n%s", diff)
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		_, err := scanner.Scan(tmpDir, "missing")
		if err == nil {
			t.Error("expected error for non-existent directory")
		}
	})

	t.Run("returns error for file instead of directory", func(t *testing.T) {
		_, err := scanner.Scan(tmpDir, "tests/install/helpers/helpers.go")
		if err == nil {
			t.Error("expected error for file path")
		}
	})
}

func TestTestModule_Pattern(t *testing.T) {
	m := domain.TestModule{RelDir: "tests/install/test_check"}
	if got := m.Pattern(); got != "./tests/install/test_check" {
		t.Errorf("unexpected pattern %q", got)
	}
}
