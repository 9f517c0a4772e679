package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"regtest/internal/discovery"
	"regtest/internal/domain"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

// Formatter formats and displays output
type Formatter struct {
	out    io.Writer
	parser *discovery.Parser
}

// NewFormatter creates a new Formatter writing to out
func NewFormatter(out io.Writer, parser *discovery.Parser) *Formatter {
	return &Formatter{
		out:    out,
		parser: parser,
	}
}

// PrintMetaStats prints the statistics table and the summary of a run
func (f *Formatter) PrintMetaStats(output *domain.TestResultsOutput) {
	meta := output.Meta

	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle("Test Execution Statistics")
	t.AppendHeader(table.Row{"", "Total", "Sequential", "Parallel"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	seqFailed, parFailed, seqErrored, parErrored := splitCounts(output.Details)
	t.AppendRows([]table.Row{
		{"Modules", meta.TotalModules, meta.SequentialModules, meta.ParallelModules},
		{"Test cases", meta.TotalCases, "", ""},
		{"Passed", meta.PassedCases, "", ""},
		{"Failed", meta.FailedCases, seqFailed, parFailed},
		{"Errors", meta.ErroredCases, seqErrored, parErrored},
		{"Skipped", meta.SkippedCases, "", ""},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), "", ""},
		{"Workers", meta.Workers, "", ""},
		{"Run", meta.RunID, "", ""},
	})
	t.Render()

	fmt.Fprintln(f.out)
	fmt.Fprintf(f.out, "Total tests ran: %d, sequential tests: %d, parallel tests %d\n",
		meta.TotalModules, meta.SequentialModules, meta.ParallelModules)
	fmt.Fprintf(f.out, "Total tests failed: %d, sequential tests: %d, parallel tests %d\n",
		seqFailed+parFailed, seqFailed, parFailed)
	fmt.Fprintf(f.out, "Total tests with errors: %d, sequential tests: %d, parallel tests %d\n\n",
		seqErrored+parErrored, seqErrored, parErrored)

	var errored, failed []domain.TestFailure
	for _, d := range output.Details {
		if d.IsError() {
			errored = append(errored, d)
		} else {
			failed = append(failed, d)
		}
	}
	if len(errored) > 0 {
		red.Fprintln(f.out, "Names of tests with errors:")
		for _, d := range errored {
			fmt.Fprintf(f.out, "  %s\n", qualifiedName(d))
		}
	}
	if len(failed) > 0 {
		red.Fprintln(f.out, "Names of failed tests:")
		for _, d := range failed {
			fmt.Fprintf(f.out, "  %s\n", qualifiedName(d))
		}
	}

	fmt.Fprintln(f.out)
	if len(output.Details) == 0 {
		green.Fprintln(f.out, "✓ All tests passed!")
		return
	}
	red.Fprintf(f.out, "✗ %d module(s) failed with %d test case failure(s) and %d error(s)\n\n",
		meta.FailedModules, len(failed), len(errored))
	f.printFailedTestsTree(output.Details)
}

func qualifiedName(d domain.TestFailure) string {
	return d.Package + "." + d.TestName
}

func splitCounts(details []domain.TestFailure) (seqFailed, parFailed, seqErrored, parErrored int) {
	for _, d := range details {
		seq := strings.HasPrefix(d.Module, discovery.SequentialModulePrefix)
		switch {
		case d.IsError() && seq:
			seqErrored++
		case d.IsError():
			parErrored++
		case seq:
			seqFailed++
		default:
			parFailed++
		}
	}
	return seqFailed, parFailed, seqErrored, parErrored
}

// TreeNode represents a node in the package tree structure
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Failures []domain.TestFailure
	IsModule bool
}

// printFailedTestsTree prints a tree of failed tests grouped by package dir
func (f *Formatter) printFailedTestsTree(failures []domain.TestFailure) {
	if len(failures) == 0 {
		return
	}

	moduleMap := make(map[string][]domain.TestFailure)
	for _, failure := range failures {
		moduleMap[failure.Package] = append(moduleMap[failure.Package], failure)
	}

	root := &TreeNode{Children: make(map[string]*TreeNode)}
	for pkg, moduleFailures := range moduleMap {
		parts := strings.Split(strings.TrimPrefix(pkg, "./"), "/")
		current := root
		for i, part := range parts {
			if part == "" {
				continue
			}
			if current.Children[part] == nil {
				current.Children[part] = &TreeNode{
					Name:     part,
					Children: make(map[string]*TreeNode),
					IsModule: i == len(parts)-1,
				}
			}
			current = current.Children[part]
			if i == len(parts)-1 {
				current.Failures = moduleFailures
			}
		}
	}

	f.printTreeNode(root, "", true)
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string, isRoot bool) {
	var keys []string
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		isLastChild := i == len(keys)-1

		connector, childPrefix := prefix+"├── ", prefix+"│   "
		if isLastChild {
			connector, childPrefix = prefix+"└── ", prefix+"    "
		}
		if isRoot {
			connector, childPrefix = "", ""
		}

		if child.IsModule {
			yellow.Fprintf(f.out, "%s%s\n", connector, child.Name)
		} else {
			cyan.Fprintf(f.out, "%s%s\n", connector, child.Name)
		}

		for j, failure := range child.Failures {
			casePrefix := childPrefix + "├── "
			if j == len(child.Failures)-1 && len(child.Children) == 0 {
				casePrefix = childPrefix + "└── "
			}
			marker := ""
			if failure.IsError() {
				marker = " [E]"
			}
			red.Fprintf(f.out, "%s%s%s\n", casePrefix, failure.TestName, marker)
		}

		f.printTreeNode(child, childPrefix, false)
	}
}

// PrintTestList prints a list of test modules, optionally with test cases.
// failedModules is optional; modules in it are marked with [F] in red (from
// the last run).
func (f *Formatter) PrintTestList(modules []domain.TestModule, showTestCases bool, failedModules map[string]struct{}) {
	noun := "module(s)"
	if showTestCases {
		noun = "module(s) with test cases"
	}
	green.Fprintf(f.out, "Found %d test %s:\n\n", len(modules), noun)

	for i, module := range modules {
		isLast := i == len(modules)-1

		failMarker := ""
		if _, ok := failedModules[module.RelDir]; ok {
			failMarker = " " + red.Sprint("[F]")
		}
		seqMarker := ""
		if module.Sequential {
			seqMarker = " (sequential)"
		}

		branch, childPrefix := "├── ", "│   "
		if isLast {
			branch, childPrefix = "└── ", "    "
		}
		cyan.Fprintf(f.out, "%s%s%s", branch, module.RelDir, seqMarker)
		fmt.Fprintf(f.out, "%s\n", failMarker)

		if !showTestCases {
			continue
		}

		cases, err := f.parser.ModuleCases(module)
		if err != nil {
			fmt.Fprintf(f.out, "%s└── %s\n", childPrefix, red.Sprintf("error reading module: %v", err))
		} else if len(cases) == 0 {
			fmt.Fprintf(f.out, "%s└── %s\n", childPrefix, red.Sprint("(no test cases found)"))
		}
		for j, tc := range cases {
			casePrefix := "├── "
			if j == len(cases)-1 {
				casePrefix = "└── "
			}
			fmt.Fprintf(f.out, "%s%s%s\n", childPrefix, casePrefix, yellow.Sprint(tc.Name))
		}
		if !isLast {
			fmt.Fprintln(f.out)
		}
	}
}
