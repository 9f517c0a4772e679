package docs

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const checkSource = `// Package check verifies an installation.
package check

// Version is the layout version.
const Version = 2

// Checker runs checks.
type Checker struct{}

// New creates a Checker.
func New() *Checker { return &Checker{} }

// Run runs every check.
func (c *Checker) Run() error { return nil }

func hidden() {}
`

func parsePackage(t *testing.T) *Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "check.go", checkSource, parser.ParseComments)
	require.NoError(t, err)
	p, err := NewPackage("example.com/app/install/check", "/src/install/check", fset, []*ast.File{f})
	require.NoError(t, err)
	return p
}

func Test_NewPackage(t *testing.T) {
	p := parsePackage(t)
	require.Equal(t, "check", p.Name)
	require.Equal(t, "example_com_app_install_check", p.Slug())
	require.Len(t, p.Doc.Types, 1)
	require.Len(t, p.Doc.Funcs, 0)
}

func Test_WriteHTML(t *testing.T) {
	dir := t.TempDir()
	p := parsePackage(t)
	require.NoError(t, WriteHTML(dir, "example.com/app", []*Package{p}))

	index, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(index), `<a href="example_com_app_install_check.html">example.com/app/install/check</a>`)
	require.Contains(t, string(index), "Package check verifies an installation.")

	page, err := os.ReadFile(filepath.Join(dir, p.Slug()+".html"))
	require.NoError(t, err)
	out := string(page)
	require.Contains(t, out, "<h1>package check</h1>")
	require.Contains(t, out, "const Version = 2")
	require.Contains(t, out, "type Checker struct{}")
	require.Contains(t, out, "func New() *Checker")
	require.Contains(t, out, "method Checker.Run")
	require.Contains(t, out, "func (c *Checker) Run() error")
	require.NotContains(t, out, "hidden")
	require.NotContains(t, out, "// Run runs every check.")
}
