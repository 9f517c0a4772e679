// Package docs generates the API documentation of the source packages: a
// plain-text file per package from "go doc -all" and a static HTML site.
package docs

import (
	"context"
	"fmt"
	"go/ast"
	"go/doc"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"regtest/internal/config"
	"regtest/internal/printing"
	"regtest/internal/run"
)

// Package is one documented source package.
type Package struct {
	ImportPath string
	Name       string
	Dir        string
	Fset       *token.FileSet
	Doc        *doc.Package
}

// Slug returns the file name stem used for the package's pages.
func (p *Package) Slug() string {
	return strings.NewReplacer("/", "_", ".", "_").Replace(p.ImportPath)
}

// NewPackage builds the documentation of a parsed package.
func NewPackage(importPath, dir string, fset *token.FileSet, files []*ast.File) (*Package, error) {
	d, err := doc.NewFromFiles(fset, files, importPath)
	if err != nil {
		return nil, fmt.Errorf("docs: %s: %w", importPath, err)
	}
	return &Package{ImportPath: importPath, Name: d.Name, Dir: dir, Fset: fset, Doc: d}, nil
}

// Generator writes the documentation of cfg's source packages.
type Generator struct {
	cfg *config.Config
	log *printing.Logger
}

// NewGenerator creates a new Generator
func NewGenerator(cfg *config.Config, log *printing.Logger) *Generator {
	return &Generator{cfg: cfg, log: log}
}

// Load parses the source packages. Test files are left out.
func (g *Generator) Load(ctx context.Context) ([]*Package, error) {
	fset := token.NewFileSet()
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Dir:     g.cfg.ProjectRoot,
		Fset:    fset,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
	}, g.cfg.SourcePatterns()...)
	if err != nil {
		return nil, fmt.Errorf("docs: load packages: %w", err)
	}

	var out []*Package
	var errs []string
	for _, p := range pkgs {
		for _, e := range p.Errors {
			errs = append(errs, e.Error())
		}
		if len(p.Syntax) == 0 {
			continue
		}
		dir := ""
		if len(p.GoFiles) > 0 {
			dir = filepath.Dir(p.GoFiles[0])
		}
		dp, err := NewPackage(p.PkgPath, dir, fset, p.Syntax)
		if err != nil {
			return nil, err
		}
		out = append(out, dp)
	}
	if len(errs) > 0 {
		return out, fmt.Errorf("docs: %s", strings.Join(errs, "; "))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ImportPath < out[j].ImportPath })
	return out, nil
}

// WriteText writes "go doc -all" of every package to <slug>.txt in the docs
// dir.
func (g *Generator) WriteText(ctx context.Context, pkgs []*Package) error {
	dir := g.cfg.DocsPath()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, p := range pkgs {
		stdout, _, err := run.Cmd(ctx, g.cfg.GoBinary,
			run.Args("doc", "-all", p.ImportPath),
			run.Dir(g.cfg.ProjectRoot),
			run.Log(g.log),
			run.SuppressStdout(),
		)
		if err != nil {
			return fmt.Errorf("docs: go doc %s: %w", p.ImportPath, err)
		}
		if err := os.WriteFile(filepath.Join(dir, p.Slug()+".txt"), []byte(stdout), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Generate loads the packages and writes both the text and the HTML docs.
func (g *Generator) Generate(ctx context.Context) error {
	pkgs, err := g.Load(ctx)
	if err != nil {
		return err
	}
	if err := g.WriteText(ctx, pkgs); err != nil {
		return err
	}
	return WriteHTML(g.cfg.HTMLDocsPath(), g.cfg.ModulePath, pkgs)
}
