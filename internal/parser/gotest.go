package parser

import (
	"bufio"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"regtest/internal/domain"
)

// Event is one line of go test -json output.
type Event struct {
	Time       time.Time `json:",omitempty"`
	Action     string
	Package    string  `json:",omitempty"`
	ImportPath string  `json:",omitempty"`
	Test       string  `json:",omitempty"`
	Elapsed    float64 `json:",omitempty"`
	Output     string  `json:",omitempty"`
}

var (
	locationPattern = regexp.MustCompile(`^\s+([\w.\-/]+\.go):(\d+): ?(.*)$`)
	diffPattern     = regexp.MustCompile(`are different \((\S+\.diff\.out)\)`)
)

// GoTestParser parses go test -json output
type GoTestParser struct{}

var _ Parser = (*GoTestParser)(nil)

// NewGoTestParser creates a new GoTestParser
func NewGoTestParser() *GoTestParser {
	return &GoTestParser{}
}

// ParseEvents splits output into test events and the lines that are not
// JSON (build errors printed by the go command, crash output).
func (p *GoTestParser) ParseEvents(output string) (events []Event, other []string) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		var ev Event
		if strings.HasPrefix(line, "{") && json.Unmarshal([]byte(line), &ev) == nil && ev.Action != "" {
			events = append(events, ev)
			continue
		}
		if strings.TrimSpace(line) != "" {
			other = append(other, stripansi.Strip(line))
		}
	}
	return events, other
}

// ParseCases folds the events of one module into per-test results, in the
// order the tests started. A test that started but never reported an outcome
// is an error, as is one whose output shows a panic.
func (p *GoTestParser) ParseCases(output string) []domain.CaseResult {
	events, _ := p.ParseEvents(output)

	var order []string
	cases := make(map[string]*domain.CaseResult)
	for _, ev := range events {
		if ev.Test == "" {
			continue
		}
		c, ok := cases[ev.Test]
		if !ok {
			c = &domain.CaseResult{Name: ev.Test}
			cases[ev.Test] = c
			order = append(order, ev.Test)
		}
		switch ev.Action {
		case "output":
			c.Output = append(c.Output, strings.TrimRight(stripansi.Strip(ev.Output), "\n"))
		case "pass":
			c.Status = domain.StatusPass
		case "fail":
			c.Status = domain.StatusFail
		case "skip":
			c.Status = domain.StatusSkip
		}
		if ev.Elapsed > 0 {
			c.Elapsed = time.Duration(ev.Elapsed * float64(time.Second))
		}
	}

	results := make([]domain.CaseResult, 0, len(order))
	for _, name := range order {
		c := cases[name]
		if c.Status == "" || (c.Status == domain.StatusFail && panicked(c.Output)) {
			c.Status = domain.StatusError
		}
		results = append(results, *c)
	}
	return results
}

// ParseTestCounts counts top-level test outcomes. Subtests are folded into
// their parent. A module that failed without reporting any test counts as
// one error.
func (p *GoTestParser) ParseTestCounts(result domain.TestResult) (passed, failed, errored, skipped int) {
	for _, c := range topLevel(result.Cases) {
		switch c.Status {
		case domain.StatusPass:
			passed++
		case domain.StatusFail:
			failed++
		case domain.StatusError:
			errored++
		case domain.StatusSkip:
			skipped++
		}
	}
	if !result.Success && failed == 0 && errored == 0 {
		errored = 1
	}
	return passed, failed, errored, skipped
}

// ParseFailure turns the failed and errored cases of result into failures.
// Parents of failed subtests are skipped when a subtest carries the detail.
func (p *GoTestParser) ParseFailure(result domain.TestResult) []domain.TestFailure {
	var failures []domain.TestFailure
	failedChild := make(map[string]bool)
	for _, c := range result.Cases {
		if isFailed(c) && strings.Contains(c.Name, "/") {
			failedChild[c.Name[:strings.Index(c.Name, "/")]] = true
		}
	}

	for _, c := range result.Cases {
		if !isFailed(c) || failedChild[c.Name] {
			continue
		}
		failures = append(failures, p.parseTestFailureCase(result.Module, c))
	}

	if !result.Success && len(failures) == 0 {
		_, other := p.ParseEvents(result.Output)
		f := domain.TestFailure{
			Module:   result.Module.Name,
			Package:  result.Module.RelDir,
			TestName: result.Module.Name,
			Kind:     domain.KindError,
			Output:   append(other, p.packageOutput(result.Output)...),
		}
		switch {
		case result.Error != nil:
			f.Message = result.Error.Error()
		case len(f.Output) > 0:
			f.Message = f.Output[0]
		default:
			f.Message = "module failed without reporting a test"
		}
		failures = append(failures, f)
	}
	return failures
}

func (p *GoTestParser) parseTestFailureCase(module domain.TestModule, c domain.CaseResult) domain.TestFailure {
	f := domain.TestFailure{
		Module:   module.Name,
		Package:  module.RelDir,
		TestName: c.Name,
		Kind:     domain.KindFailure,
	}
	if c.Status == domain.StatusError {
		f.Kind = domain.KindError
	}

	var messageLines []string
	for _, line := range c.Output {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "=== ") || strings.HasPrefix(trimmed, "--- ") {
			continue
		}
		f.Output = append(f.Output, line)

		if m := diffPattern.FindStringSubmatch(line); m != nil && f.DiffFile == "" {
			f.DiffFile = m[1]
		}
		if m := locationPattern.FindStringSubmatch(line); m != nil {
			if f.File == "" {
				f.File = m[1]
				f.Line, _ = strconv.Atoi(m[2])
			}
			messageLines = append(messageLines, m[3])
			continue
		}
		if strings.HasPrefix(trimmed, "panic:") && len(messageLines) == 0 {
			messageLines = append(messageLines, trimmed)
		}
	}
	f.Message = strings.Join(messageLines, "\n")
	if f.Message == "" && len(f.Output) > 0 {
		f.Message = strings.TrimSpace(f.Output[0])
	}
	return f
}

func (p *GoTestParser) packageOutput(output string) []string {
	events, _ := p.ParseEvents(output)
	var lines []string
	for _, ev := range events {
		if ev.Test != "" || (ev.Action != "output" && ev.Action != "build-output") {
			continue
		}
		line := strings.TrimRight(stripansi.Strip(ev.Output), "\n")
		if line != "" && line != "FAIL" && !strings.HasPrefix(line, "FAIL\t") {
			lines = append(lines, line)
		}
	}
	return lines
}

func panicked(output []string) bool {
	for _, line := range output {
		if strings.HasPrefix(strings.TrimSpace(line), "panic:") {
			return true
		}
	}
	return false
}

func isFailed(c domain.CaseResult) bool {
	return c.Status == domain.StatusFail || c.Status == domain.StatusError
}

func topLevel(cases []domain.CaseResult) []domain.CaseResult {
	var out []domain.CaseResult
	for _, c := range cases {
		if !strings.Contains(c.Name, "/") {
			out = append(out, c)
		}
	}
	return out
}

// VerboseOutput reconstructs the plain "go test -v" output from a -json
// stream, the input format JUnit converters read.
func (p *GoTestParser) VerboseOutput(output string) string {
	events, other := p.ParseEvents(output)
	var b strings.Builder
	for _, line := range other {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, ev := range events {
		if ev.Action == "output" || ev.Action == "build-output" {
			b.WriteString(stripansi.Strip(ev.Output))
		}
	}
	return b.String()
}
