// Package registry maintains the component-dispatch table of the detail
// page: one import line per generated component and one map entry from the
// route key to that component.
package registry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/starford/raido/internal/identity"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
)

// Spec locates the table.
type Spec struct {
	File         string `yaml:"file"`
	Map          string `yaml:"map"`
	ImportMarker string `yaml:"import_marker"`
}

// Entry is one route → component mapping.
type Entry struct {
	Route     string
	Component string
}

const entryIndent = "  "

// Entries decodes the dispatch map.
func Entries(doc string, spec Spec) ([]Entry, error) {
	span, err := parser.LocateObject(doc, spec.Map)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	obj, err := parser.ParseObject("{" + span.Body(doc) + "}")
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	out := make([]Entry, 0, len(obj.Fields))
	for _, f := range obj.Fields {
		out = append(out, Entry{Route: f.Name, Component: rawText(f.Value)})
	}
	return out, nil
}

func rawText(v models.Value) string {
	if v.Kind == models.KindString {
		return v.Str
	}
	return v.Raw
}

// ImportLine is the import statement registered for key.
func ImportLine(key string) string {
	c := identity.Component(key)
	return fmt.Sprintf("import %s from './writeups/%s/%s';", c, key, c)
}

// Register adds the import line and the map entry for key. Both steps are
// skipped when already present, so registering twice is a no-op.
func Register(doc string, spec Spec, key string) (string, error) {
	entries, err := Entries(doc, spec)
	if err != nil {
		return "", err
	}
	doc = addImport(doc, spec.ImportMarker, ImportLine(key))

	route := identity.RouteKey(key)
	if slices.ContainsFunc(entries, func(e Entry) bool { return strings.EqualFold(e.Route, route) }) {
		return doc, nil
	}
	entries = append(entries, Entry{Route: route, Component: identity.Component(key)})
	return renderMap(doc, spec, entries)
}

func addImport(doc, marker, line string) string {
	if strings.Contains(doc, line) {
		return doc
	}
	if marker != "" {
		if i := strings.Index(doc, marker); i >= 0 {
			at := i + len(marker)
			return doc[:at] + "\n" + line + doc[at:]
		}
	}
	// No marker: place it after the last import.
	lines := strings.Split(doc, "\n")
	last := -1
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "import ") {
			last = i
		}
	}
	lines = slices.Insert(lines, last+1, line)
	return strings.Join(lines, "\n")
}

// Unregister strips every import line and map entry that refers to key in
// any of its case spellings. It returns the new document and the number of
// lines and entries removed.
func Unregister(doc string, spec Spec, key string) (string, int, error) {
	variants := make(map[string]struct{})
	for _, v := range identity.Variants(key) {
		variants[strings.ToLower(v)] = struct{}{}
	}

	lines := strings.Split(doc, "\n")
	kept := lines[:0:0]
	removed := 0
	for _, l := range lines {
		if dir, ok := importDir(l); ok {
			if _, hit := variants[strings.ToLower(dir)]; hit {
				removed++
				continue
			}
		}
		kept = append(kept, l)
	}
	doc = strings.Join(kept, "\n")

	entries, err := Entries(doc, spec)
	if err != nil {
		return "", 0, err
	}
	left := slices.DeleteFunc(slices.Clone(entries), func(e Entry) bool {
		_, hit := variants[strings.TrimSuffix(strings.ToLower(e.Route), identity.RouteSuffix)]
		return hit
	})
	if len(left) == len(entries) {
		return doc, removed, nil
	}
	removed += len(entries) - len(left)
	doc, err = renderMap(doc, spec, left)
	return doc, removed, err
}

// importDir returns the per-post directory of a generated-component import.
func importDir(line string) (string, bool) {
	l := strings.TrimSpace(line)
	if !strings.HasPrefix(l, "import ") {
		return "", false
	}
	const from = "from './writeups/"
	i := strings.Index(l, from)
	if i < 0 {
		return "", false
	}
	rest := l[i+len(from):]
	j := strings.IndexByte(rest, '/')
	if j <= 0 {
		return "", false
	}
	return rest[:j], true
}

func renderMap(doc string, spec Spec, entries []Entry) (string, error) {
	span, err := parser.LocateObject(doc, spec.Map)
	if err != nil {
		return "", fmt.Errorf("registry: %w", err)
	}
	var b strings.Builder
	b.WriteString("\n")
	for i, e := range entries {
		b.WriteString(entryIndent)
		b.WriteString(parser.Quote(e.Route))
		b.WriteString(": ")
		b.WriteString(e.Component)
		if i < len(entries)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	return span.Replace(doc, b.String()), nil
}
