// Package emit holds what the generators share: the Artifact IR every
// emitter returns, the output roots artifacts are relative to, and the
// template plumbing with the naming functions exposed to templates.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"text/template"

	"github.com/matthewbaird/crudgen/internal/naming"
)

// Root names one of the output trees an artifact belongs to.
type Root string

const (
	RootBackend  Root = "backend"
	RootFrontend Root = "frontend"
	RootShared   Root = "shared"
)

// Header opens every generated TypeScript file.
const Header = "// GENERATED BY CRUDGEN. DO NOT HAND-EDIT."

// Artifact is one generated file. Path is slash-separated and relative to
// the directory of Root.
type Artifact struct {
	Root    Root   `json:"root" yaml:"root"`
	Path    string `json:"path" yaml:"path"`
	Content []byte `json:"-" yaml:"-"`
}

// Key returns root/path, unique within one generation run.
func (a Artifact) Key() string {
	return string(a.Root) + "/" + a.Path
}

// Sort orders artifacts by root then path.
func Sort(as []Artifact) {
	slices.SortFunc(as, func(a, b Artifact) int {
		return strings.Compare(a.Key(), b.Key())
	})
}

// Filter returns the artifacts under root.
func Filter(as []Artifact, root Root) []Artifact {
	var out []Artifact
	for _, a := range as {
		if a.Root == root {
			out = append(out, a)
		}
	}
	return out
}

// Templates is a parsed template set. TypeScript and TSX are full of "{{",
// so templates use [[ ]] delimiters.
type Templates struct {
	set *template.Template
}

// MustParse parses every file in fsys matching pattern. Template names are
// the file base names. It panics on a malformed template; templates are
// embedded, so that is a build defect.
func MustParse(fsys fs.FS, pattern string, extra template.FuncMap) *Templates {
	funcs := Funcs()
	for k, v := range extra {
		funcs[k] = v
	}
	set := template.New("").Delims("[[", "]]").Funcs(funcs)
	return &Templates{set: template.Must(set.ParseFS(fsys, pattern))}
}

// Render executes the named template into an artifact.
func (t *Templates) Render(root Root, p, name string, data any) (Artifact, error) {
	var buf bytes.Buffer
	if err := t.set.ExecuteTemplate(&buf, name, data); err != nil {
		return Artifact{}, fmt.Errorf("rendering %s for %s: %w", name, p, err)
	}
	return Artifact{Root: root, Path: path.Clean(p), Content: buf.Bytes()}, nil
}

// Funcs returns the functions available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"names":  naming.For,
		"pascal": naming.Pascal,
		"camel":  naming.Camel,
		"kebab":  naming.Kebab,
		"lower":  strings.ToLower,
		"label":  naming.Label,
		"quote":  Quote,
		"join":   strings.Join,
		"header": func() string { return Header },
		"array":  Array,
		"quoted": QuotedArray,
	}
}

// Array renders items as a TypeScript array literal of expressions.
func Array(items ...string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

// QuotedArray renders items as a TypeScript array literal of strings.
func QuotedArray(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = Quote(it)
	}
	return Array(quoted...)
}

// Quote renders s as a double-quoted TypeScript string literal.
func Quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
