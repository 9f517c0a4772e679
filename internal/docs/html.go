package docs

import (
	"bytes"
	"go/ast"
	"go/doc"
	"go/printer"
	"go/token"
	"html/template"
	"os"
	"path/filepath"
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"synopsis": func(p *Package) string { return p.Doc.Synopsis(p.Doc.Doc) },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:sans-serif;max-width:60em;margin:auto}pre{background:#f4f4f4;padding:.5em;overflow:auto}</style>
</head>
<body>
{{- if .Package}}
<p><a href="index.html">index</a></p>
<h1>package {{.Package.Name}}</h1>
<p><code>import "{{.Package.ImportPath}}"</code></p>
{{.Doc}}
{{- range .Sections}}
<h2 id="{{.Name}}">{{.Kind}} {{.Name}}</h2>
<pre>{{.Decl}}</pre>
{{.Doc}}
{{- end}}
{{- else}}
<h1>{{.Title}}</h1>
<table>
{{- range .Packages}}
<tr><td><a href="{{.Slug}}.html">{{.ImportPath}}</a></td><td>{{synopsis .}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

type section struct {
	Kind string
	Name string
	Decl string
	Doc  template.HTML
}

type page struct {
	Title    string
	Packages []*Package
	Package  *Package
	Doc      template.HTML
	Sections []section
}

// WriteHTML writes index.html listing pkgs plus one page per package.
func WriteHTML(dir, title string, pkgs []*Package) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := writePage(filepath.Join(dir, "index.html"), page{Title: title, Packages: pkgs}); err != nil {
		return err
	}
	for _, p := range pkgs {
		if err := writePage(filepath.Join(dir, p.Slug()+".html"), packagePage(p)); err != nil {
			return err
		}
	}
	return nil
}

func writePage(path string, data page) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func packagePage(p *Package) page {
	pg := page{Title: p.ImportPath, Package: p, Doc: docHTML(p.Doc, p.Doc.Doc)}
	add := func(kind, name string, decl ast.Node, text string) {
		pg.Sections = append(pg.Sections, section{
			Kind: kind,
			Name: name,
			Decl: declString(p.Fset, decl),
			Doc:  docHTML(p.Doc, text),
		})
	}
	values := func(kind string, vs []*doc.Value) {
		for _, v := range vs {
			if len(v.Names) > 0 {
				add(kind, v.Names[0], v.Decl, v.Doc)
			}
		}
	}

	values("const", p.Doc.Consts)
	values("var", p.Doc.Vars)
	for _, f := range p.Doc.Funcs {
		add("func", f.Name, f.Decl, f.Doc)
	}
	for _, t := range p.Doc.Types {
		add("type", t.Name, t.Decl, t.Doc)
		values("const", t.Consts)
		values("var", t.Vars)
		for _, f := range t.Funcs {
			add("func", f.Name, f.Decl, f.Doc)
		}
		for _, m := range t.Methods {
			add("method", t.Name+"."+m.Name, m.Decl, m.Doc)
		}
	}
	return pg
}

func declString(fset *token.FileSet, decl ast.Node) string {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		decl = &ast.FuncDecl{Recv: d.Recv, Name: d.Name, Type: d.Type}
	case *ast.GenDecl:
		cp := *d
		cp.Doc = nil
		decl = &cp
	}
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, decl); err != nil {
		return ""
	}
	return buf.String()
}

func docHTML(d *doc.Package, text string) template.HTML {
	return template.HTML(d.HTML(text)) //nolint:gosec
}
