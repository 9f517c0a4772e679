package parser

import (
	"errors"
	"strings"
	"testing"

	"regtest/internal/domain"
)

const failingRun = `{"Action":"start","Package":"regtest/tests/install/test_check"}
{"Action":"run","Package":"regtest/tests/install/test_check","Test":"TestPass"}
{"Action":"output","Package":"regtest/tests/install/test_check","Test":"TestPass","Output":"=== RUN   TestPass\n"}
{"Action":"output","Package":"regtest/tests/install/test_check","Test":"TestPass","Output":"--- PASS: TestPass (0.00s)\n"}
{"Action":"pass","Package":"regtest/tests/install/test_check","Test":"TestPass","Elapsed":0.5}
{"Action":"run","Package":"regtest/tests/install/test_check","Test":"TestGolden"}
{"Action":"output","Package":"regtest/tests/install/test_check","Test":"TestGolden","Output":"=== RUN   TestGolden\n"}
{"Action":"output","Package":"regtest/tests/install/test_check","Test":"TestGolden","Output":"    check_test.go:12: /r/test/TestGolden.log and /r/gold/TestGolden.log are different (/r/TestGolden.diff.out):\n"}
{"Action":"output","Package":"regtest/tests/install/test_check","Test":"TestGolden","Output":"        1c1\n"}
{"Action":"output","Package":"regtest/tests/install/test_check","Test":"TestGolden","Output":"--- FAIL: TestGolden (0.01s)\n"}
{"Action":"fail","Package":"regtest/tests/install/test_check","Test":"TestGolden","Elapsed":0.01}
{"Action":"run","Package":"regtest/tests/install/test_check","Test":"TestTable"}
{"Action":"run","Package":"regtest/tests/install/test_check","Test":"TestTable/empty"}
{"Action":"output","Package":"regtest/tests/install/test_check","Test":"TestTable/empty","Output":"    table_test.go:30: \u001b[31mexpected 1, got 2\u001b[0m\n"}
{"Action":"fail","Package":"regtest/tests/install/test_check","Test":"TestTable/empty","Elapsed":0}
{"Action":"fail","Package":"regtest/tests/install/test_check","Test":"TestTable","Elapsed":0}
{"Action":"run","Package":"regtest/tests/install/test_check","Test":"TestSkip"}
{"Action":"skip","Package":"regtest/tests/install/test_check","Test":"TestSkip","Elapsed":0}
{"Action":"run","Package":"regtest/tests/install/test_check","Test":"TestPanic"}
{"Action":"output","Package":"regtest/tests/install/test_check","Test":"TestPanic","Output":"panic: runtime error: index out of range [recovered]\n"}
{"Action":"fail","Package":"regtest/tests/install/test_check","Test":"TestPanic","Elapsed":0}
{"Action":"output","Package":"regtest/tests/install/test_check","Output":"FAIL\n"}
{"Action":"fail","Package":"regtest/tests/install/test_check","Elapsed":0.6}
`

func checkModule() domain.TestModule {
	return domain.TestModule{Name: "test_check", RelDir: "tests/install/test_check"}
}

func TestGoTestParser_ParseCases(t *testing.T) {
	p := NewGoTestParser()
	cases := p.ParseCases(failingRun)

	want := map[string]string{
		"TestPass":        domain.StatusPass,
		"TestGolden":      domain.StatusFail,
		"TestTable":       domain.StatusFail,
		"TestTable/empty": domain.StatusFail,
		"TestSkip":        domain.StatusSkip,
		"TestPanic":       domain.StatusError,
	}
	if len(cases) != len(want) {
		t.Fatalf("expected %d cases, got %d", len(want), len(cases))
	}
	for _, c := range cases {
		if c.Status != want[c.Name] {
			t.Errorf("%s: expected status %q, got %q", c.Name, want[c.Name], c.Status)
		}
	}
	if cases[0].Name != "TestPass" || cases[0].Elapsed.Seconds() != 0.5 {
		t.Errorf("unexpected first case: %+v", cases[0])
	}
}

func TestGoTestParser_ParseCases_unfinished(t *testing.T) {
	output := `{"Action":"run","Package":"p","Test":"TestHang"}
{"Action":"output","Package":"p","Test":"TestHang","Output":"=== RUN   TestHang\n"}
panic: test timed out after 10m0s
`
	cases := NewGoTestParser().ParseCases(output)
	if len(cases) != 1 || cases[0].Status != domain.StatusError {
		t.Errorf("expected one errored case, got %+v", cases)
	}
}

func TestGoTestParser_ParseTestCounts(t *testing.T) {
	p := NewGoTestParser()

	tests := []struct {
		name   string
		result domain.TestResult
		counts [4]int
	}{
		{
			name:   "mixed outcomes",
			result: domain.TestResult{Success: false, Cases: p.ParseCases(failingRun)},
			counts: [4]int{1, 2, 1, 1},
		},
		{
			name:   "build failure",
			result: domain.TestResult{Success: false},
			counts: [4]int{0, 0, 1, 0},
		},
		{
			name:   "no tests",
			result: domain.TestResult{Success: true},
			counts: [4]int{0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, failed, errored, skipped := p.ParseTestCounts(tt.result)
			got := [4]int{passed, failed, errored, skipped}
			if got != tt.counts {
				t.Errorf("expected %v, got %v", tt.counts, got)
			}
		})
	}
}

func TestGoTestParser_ParseFailure(t *testing.T) {
	p := NewGoTestParser()
	result := domain.TestResult{
		Module:  checkModule(),
		Output:  failingRun,
		Cases:   p.ParseCases(failingRun),
		Success: false,
	}

	failures := p.ParseFailure(result)
	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d: %+v", len(failures), failures)
	}

	golden := failures[0]
	if golden.TestName != "TestGolden" || golden.Kind != domain.KindFailure {
		t.Errorf("unexpected failure: %+v", golden)
	}
	if golden.File != "check_test.go" || golden.Line != 12 {
		t.Errorf("unexpected location %s:%d", golden.File, golden.Line)
	}
	if golden.DiffFile != "/r/TestGolden.diff.out" {
		t.Errorf("unexpected diff file %q", golden.DiffFile)
	}
	if golden.Module != "test_check" || golden.Package != "tests/install/test_check" {
		t.Errorf("unexpected module %q package %q", golden.Module, golden.Package)
	}

	sub := failures[1]
	if sub.TestName != "TestTable/empty" || sub.Message != "expected 1, got 2" {
		t.Errorf("unexpected subtest failure: %+v", sub)
	}

	panicked := failures[2]
	if !panicked.IsError() || !strings.HasPrefix(panicked.Message, "panic: runtime error") {
		t.Errorf("unexpected panic failure: %+v", panicked)
	}
}

func TestGoTestParser_ParseFailure_buildError(t *testing.T) {
	output := "# regtest/tests/install/test_check\ntests/install/test_check/check_test.go:3:2: undefined: foo\n" +
		`{"Action":"output","Package":"regtest/tests/install/test_check","Output":"FAIL\tregtest/tests/install/test_check [build failed]\n"}` + "\n" +
		`{"Action":"fail","Package":"regtest/tests/install/test_check","Elapsed":0}` + "\n"
	p := NewGoTestParser()

	failures := p.ParseFailure(domain.TestResult{Module: checkModule(), Output: output, Error: errors.New("exit status 1")})
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	f := failures[0]
	if !f.IsError() || f.TestName != "test_check" || f.Message != "exit status 1" {
		t.Errorf("unexpected failure: %+v", f)
	}
	if len(f.Output) != 2 || !strings.Contains(f.Output[1], "undefined: foo") {
		t.Errorf("unexpected output: %q", f.Output)
	}
}

func TestGoTestParser_ParseFailure_passing(t *testing.T) {
	output := `{"Action":"run","Package":"p","Test":"TestA"}
{"Action":"pass","Package":"p","Test":"TestA","Elapsed":0}
`
	p := NewGoTestParser()
	failures := p.ParseFailure(domain.TestResult{Module: checkModule(), Output: output, Cases: p.ParseCases(output), Success: true})
	if len(failures) != 0 {
		t.Errorf("expected no failures, got %+v", failures)
	}
}

func TestGoTestParser_VerboseOutput(t *testing.T) {
	output := "# build noise\n" +
		`{"Action":"run","Package":"p","Test":"TestA"}` + "\n" +
		`{"Action":"output","Package":"p","Test":"TestA","Output":"=== RUN   TestA\n"}` + "\n" +
		`{"Action":"output","Package":"p","Test":"TestA","Output":"--- PASS: TestA (0.00s)\n"}` + "\n" +
		`{"Action":"pass","Package":"p","Test":"TestA"}` + "\n" +
		`{"Action":"output","Package":"p","Output":"ok  \tp\t0.01s\n"}` + "\n"

	got := NewGoTestParser().VerboseOutput(output)
	want := "# build noise\n=== RUN   TestA\n--- PASS: TestA (0.00s)\nok  \tp\t0.01s\n"
	if got != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
}
