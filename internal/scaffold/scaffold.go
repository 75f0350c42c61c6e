// Package scaffold generates the per-post display component and its
// stylesheet. Both files carry the post's uid in their header comment.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/identity"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/storage"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("scaffold").Funcs(template.FuncMap{
	"quote":   parser.Quote,
	"list":    quoteList,
	"literal": templateLiteral,
}).ParseFS(templateFS, "templates/*.tmpl"))

// UIDMarker prefixes the uid in generated headers.
const UIDMarker = "raido:uid "

// Post is the data a component is generated from.
type Post struct {
	UID        string
	Key        string
	Title      string
	Excerpt    string
	Date       string
	Difficulty string
	OS         string
	IPAddress  string
	Tags       []string
}

// Component is the generated identifier.
func (p Post) Component() string { return identity.Component(p.Key) }

// Route is the dispatch key.
func (p Post) Route() string { return identity.RouteKey(p.Key) }

// Generator writes generated files below the writeups directory.
type Generator struct {
	store storage.Provider
	dir   string
}

// New creates a Generator rooted at dir (root-relative).
func New(store storage.Provider, dir string) *Generator {
	return &Generator{store: store, dir: dir}
}

// Dir is the per-post generated-view directory.
func (g *Generator) Dir(key string) string { return filepath.Join(g.dir, key) }

// Generate renders and writes both files. An existing component is never
// overwritten.
func (g *Generator) Generate(p Post) ([]string, error) {
	base := filepath.Join(g.Dir(p.Key), p.Component())
	files := []struct{ path, tmpl string }{
		{base + ".js", "component.js.tmpl"},
		{base + ".css", "component.css.tmpl"},
	}
	if g.store.Exists(files[0].path) {
		return nil, fmt.Errorf("scaffold: %s: %w", files[0].path, apperr.ErrAlreadyExists)
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, f.tmpl, p); err != nil {
			return written, fmt.Errorf("scaffold: render %s: %w", f.tmpl, err)
		}
		if err := g.store.Write(f.path, buf.Bytes()); err != nil {
			return written, fmt.Errorf("scaffold: %w", err)
		}
		written = append(written, f.path)
	}
	return written, nil
}

// ReadUID returns the uid recorded in a generated file's first line.
func ReadUID(content []byte) (string, bool) {
	line, _, _ := bytes.Cut(content, []byte("\n"))
	_, after, ok := bytes.Cut(line, []byte(UIDMarker))
	if !ok {
		return "", false
	}
	uid := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(string(after)), "*/"))
	return uid, uid != ""
}

func quoteList(items []string) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = parser.Quote(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var literalEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")

func templateLiteral(s string) string { return literalEscaper.Replace(s) }
