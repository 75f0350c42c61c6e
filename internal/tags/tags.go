// Package tags rebuilds the derived tag-usage collection from the canonical
// posts array. Counts are never adjusted in place: every rebuild starts from
// zero, so running it twice gives the same output.
package tags

import (
	"fmt"
	"slices"
	"strings"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
)

// DefaultColor is the decoration every entry carries.
const DefaultColor = "#3D0000"

// Recompute counts, for each lowercase tag, the number of records carrying
// it. Entries are sorted by name.
func Recompute(recs []models.Record, color string) []models.TagEntry {
	if color == "" {
		color = DefaultColor
	}
	counts := make(map[string]int)
	for _, r := range recs {
		for _, t := range models.NormalizeTags(r.Tags()) {
			counts[t]++
		}
	}
	out := make([]models.TagEntry, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.TagEntry{Name: name, Count: n, Color: color})
	}
	slices.SortFunc(out, func(a, b models.TagEntry) int { return strings.Compare(a.Name, b.Name) })
	return out
}

var entryFields = []string{"name", "count", "color"}

// Render encodes entries as an array body.
func Render(entries []models.TagEntry) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = parser.EncodeRecord(models.Record{
			"name":  models.String(e.Name),
			"count": models.Int(e.Count),
			"color": models.String(e.Color),
		}, entryFields)
	}
	return parser.JoinBlocks(blocks)
}

// Decode reads a rendered tags array back into entries.
func Decode(doc, tagsArray string) ([]models.TagEntry, error) {
	span, err := parser.Locate(doc, tagsArray)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	blocks, err := parser.SplitBlocks(span.Body(doc))
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	out := make([]models.TagEntry, 0, len(blocks))
	for _, b := range blocks {
		obj, err := parser.ParseObject(b.Text)
		if err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
		r := obj.Record()
		n := 0
		if v, ok := r["count"]; ok && v.Kind == models.KindInt {
			n = v.Int
		}
		out = append(out, models.TagEntry{Name: r.Str("name"), Count: n, Color: r.Str("color")})
	}
	return out, nil
}

// Rebuild replaces the tags array in doc with a fresh recomputation over the
// posts array of the same document. It returns the new document and entries.
// When only the tags array is missing the entries come back with the error.
func Rebuild(doc, postsArray, tagsArray, color string) (string, []models.TagEntry, error) {
	entries, err := Aggregate(doc, postsArray, color)
	if err != nil {
		return "", nil, err
	}
	span, err := parser.Locate(doc, tagsArray)
	if err != nil {
		return "", entries, fmt.Errorf("tags: tags array: %w", err)
	}
	return span.Replace(doc, Render(entries)), entries, nil
}

// Aggregate recomputes the tag counts from the posts array of doc without
// touching any tags literal. Undecodable post blocks are ignored.
func Aggregate(doc, postsArray, color string) ([]models.TagEntry, error) {
	posts, err := parser.Locate(doc, postsArray)
	if err != nil {
		return nil, fmt.Errorf("tags: posts array: %w", err)
	}
	blocks, err := parser.SplitBlocks(posts.Body(doc))
	if err != nil {
		return nil, fmt.Errorf("tags: posts array: %w", err)
	}
	recs := make([]models.Record, 0, len(blocks))
	for _, b := range blocks {
		if rec, err := parser.DecodeRecord(b.Text); err == nil {
			recs = append(recs, rec)
		}
	}
	return Recompute(recs, color), nil
}
