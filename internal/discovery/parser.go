package discovery

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"regtest/internal/domain"
)

// Parser parses test files to extract test cases
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// FindTestCases finds all top-level test functions in a _test.go file,
// sorted by name. TestMain is not a test case.
func (p *Parser) FindTestCases(filePath string) ([]string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filePath, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("error parsing file %s: %w", filePath, err)
	}

	var testCases []string
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !isTestName(fn.Name.Name) {
			continue
		}
		if fn.Type.Params == nil || len(fn.Type.Params.List) != 1 {
			continue
		}
		testCases = append(testCases, fn.Name.Name)
	}
	sort.Strings(testCases)
	return testCases, nil
}

// ModuleCases returns the test cases of every _test.go file in the module.
func (p *Parser) ModuleCases(module domain.TestModule) ([]domain.TestCase, error) {
	entries, err := os.ReadDir(module.Dir)
	if err != nil {
		return nil, fmt.Errorf("error reading module %s: %w", module.Name, err)
	}

	var cases []domain.TestCase
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "_test.go") {
			continue
		}
		path := filepath.Join(module.Dir, e.Name())
		names, err := p.FindTestCases(path)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			cases = append(cases, domain.TestCase{Name: n, FilePath: path})
		}
	}
	return cases, nil
}

// CountTestCases sums the test cases of modules. Modules that fail to parse
// count as one case, since go test will report them as one error.
func (p *Parser) CountTestCases(modules []domain.TestModule) int {
	total := 0
	for _, m := range modules {
		cases, err := p.ModuleCases(m)
		if err != nil {
			total++
			continue
		}
		total += len(cases)
	}
	return total
}

// isTestName mirrors go test: "Test" followed by nothing or a
// non-lowercase rune.
func isTestName(name string) bool {
	if name == "TestMain" || !strings.HasPrefix(name, "Test") {
		return false
	}
	rest := name[len("Test"):]
	return rest == "" || !(rest[0] >= 'a' && rest[0] <= 'z')
}
