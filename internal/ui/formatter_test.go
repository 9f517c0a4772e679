package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"regtest/internal/discovery"
	"regtest/internal/domain"
)

func init() {
	color.NoColor = true
}

func TestFormatter_PrintMetaStats(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, discovery.NewParser())

	f.PrintMetaStats(&domain.TestResultsOutput{
		Meta: domain.TestResultsMeta{
			RunID:             "run-1",
			TotalModules:      3,
			SequentialModules: 1,
			ParallelModules:   2,
			FailedModules:     2,
			TotalCases:        6,
			PassedCases:       4,
			FailedCases:       1,
			ErroredCases:      1,
			DurationSeconds:   2.5,
			Workers:           2,
		},
		Details: []domain.TestFailure{
			{Module: "test_check", Package: "tests/install/test_check", TestName: "TestUpgrade", Kind: domain.KindFailure},
			{Module: "test_sequential_db", Package: "tests/install/test_sequential_db", TestName: "TestSchema", Kind: domain.KindError},
		},
	})

	out := buf.String()
	for _, want := range []string{
		"Test Execution Statistics",
		"run-1",
		"2.50s",
		"Total tests ran: 3, sequential tests: 1, parallel tests 2",
		"Total tests failed: 1, sequential tests: 0, parallel tests 1",
		"Total tests with errors: 1, sequential tests: 1, parallel tests 0",
		"Names of tests with errors:\n  tests/install/test_sequential_db.TestSchema",
		"Names of failed tests:\n  tests/install/test_check.TestUpgrade",
		"├── test_check\n",
		"TestSchema [E]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatter_PrintMetaStats_allPassed(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf, discovery.NewParser()).PrintMetaStats(&domain.TestResultsOutput{
		Meta: domain.TestResultsMeta{TotalModules: 1, ParallelModules: 1},
	})
	if !strings.Contains(buf.String(), "All tests passed!") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestFormatter_PrintTestList(t *testing.T) {
	dir := t.TempDir()
	src := "package check\n\nimport \"testing\"\n\nfunc TestOne(t *testing.T) {}\n\nfunc TestTwo(t *testing.T) {}\n"
	if err := os.WriteFile(filepath.Join(dir, "check_test.go"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	modules := []domain.TestModule{
		{Name: "test_check", Dir: dir, RelDir: "tests/install/test_check"},
		{Name: "test_sequential_db", Dir: filepath.Join(dir, "missing"), RelDir: "tests/install/test_sequential_db", Sequential: true},
	}

	t.Run("modules only", func(t *testing.T) {
		var buf bytes.Buffer
		NewFormatter(&buf, discovery.NewParser()).PrintTestList(modules, false, map[string]struct{}{"tests/install/test_check": {}})
		out := buf.String()
		if !strings.Contains(out, "Found 2 test module(s):") {
			t.Errorf("missing header:\n%s", out)
		}
		if !strings.Contains(out, "├── tests/install/test_check [F]") {
			t.Errorf("missing failure marker:\n%s", out)
		}
		if !strings.Contains(out, "└── tests/install/test_sequential_db (sequential)") {
			t.Errorf("missing sequential marker:\n%s", out)
		}
	})

	t.Run("with test cases", func(t *testing.T) {
		var buf bytes.Buffer
		NewFormatter(&buf, discovery.NewParser()).PrintTestList(modules, true, nil)
		out := buf.String()
		if !strings.Contains(out, "│   ├── TestOne\n│   └── TestTwo\n") {
			t.Errorf("missing test cases:\n%s", out)
		}
		if !strings.Contains(out, "    └── error reading module") {
			t.Errorf("missing read error:\n%s", out)
		}
	})
}
