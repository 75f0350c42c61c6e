// Package view treats one named array literal inside one document as an
// ordered, newest-first list of records with a fixed field projection.
package view

import (
	"fmt"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/identity"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
)

// Spec describes where a view lives and how it projects the logical schema.
type Spec struct {
	Name          string   `yaml:"name"`
	File          string   `yaml:"file"`
	Array         string   `yaml:"array"`
	Fields        []string `yaml:"fields"`
	Canonical     bool     `yaml:"canonical"`
	LowercaseTags bool     `yaml:"lowercase_tags"`
	OnInsert      bool     `yaml:"on_insert"`
	OnRemove      bool     `yaml:"on_remove"`
	TagSource     bool     `yaml:"tag_source"`
}

type entry struct {
	text string
	rec  models.Record // nil when the block has no title
}

// View is a decoded array literal. Mutations are kept in memory until
// Document renders the new document text.
type View struct {
	spec    Spec
	doc     string
	span    parser.Span
	entries []entry
	dirty   bool
}

// Load locates the view's array in doc and decodes every block. A block
// without a title is kept verbatim but never takes part in matching.
func Load(spec Spec, doc string) (*View, error) {
	span, err := parser.Locate(doc, spec.Array)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", spec.Name, err)
	}
	blocks, err := parser.SplitBlocks(span.Body(doc))
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", spec.Name, err)
	}
	v := &View{spec: spec, doc: doc, span: span, entries: make([]entry, 0, len(blocks))}
	for _, b := range blocks {
		rec, err := parser.DecodeRecord(b.Text)
		if err != nil {
			rec = nil
		}
		v.entries = append(v.entries, entry{text: b.Text, rec: rec})
	}
	return v, nil
}

// Spec returns the view's declaration.
func (v *View) Spec() Spec { return v.spec }

// Len is the number of blocks, titled or not.
func (v *View) Len() int { return len(v.entries) }

// Records returns copies of the decodable records in document order.
func (v *View) Records() []models.Record {
	out := make([]models.Record, 0, len(v.entries))
	for _, e := range v.entries {
		if e.rec != nil {
			out = append(out, e.rec.Clone())
		}
	}
	return out
}

// NextID is the id the next insert will receive.
func (v *View) NextID() int {
	recs := make([]models.Record, 0, len(v.entries))
	for _, e := range v.entries {
		if e.rec != nil {
			recs = append(recs, e.rec)
		}
	}
	return identity.NextIDOf(recs)
}

// Insert projects rec onto the view's fields, allocates a fresh id and
// prepends the encoded block. The stored record is returned.
func (v *View) Insert(rec models.Record) models.Record {
	r := rec.Project(v.spec.Fields)
	r[models.FieldID] = models.Int(v.NextID())
	if v.spec.LowercaseTags {
		if tags, ok := r[models.FieldTags]; ok && tags.Kind == models.KindList {
			r[models.FieldTags] = models.List(models.NormalizeTags(tags.List)...)
		}
	}
	text := parser.EncodeRecord(r, v.spec.Fields)
	v.entries = append([]entry{{text: text, rec: r}}, v.entries...)
	v.dirty = true
	return r.Clone()
}

// Remove drops every record the permissive key match selects. When nothing
// matches it returns an error wrapping apperr.ErrNotFound and the view is
// left untouched.
func (v *View) Remove(key string) ([]models.Record, error) {
	removed := v.RemoveWhere(func(r models.Record) bool { return identity.Matches(r, key) })
	if len(removed) == 0 {
		return nil, fmt.Errorf("view %s: no record matches %q: %w", v.spec.Name, key, apperr.ErrNotFound)
	}
	return removed, nil
}

// RemoveWhere drops every record for which match is true and returns them.
func (v *View) RemoveWhere(match func(models.Record) bool) []models.Record {
	var removed []models.Record
	kept := v.entries[:0:0]
	for _, e := range v.entries {
		if e.rec != nil && match(e.rec) {
			removed = append(removed, e.rec.Clone())
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) > 0 {
		v.entries = kept
		v.dirty = true
	}
	return removed
}

// UpdateTags rewrites the tags of the one record whose title equals title.
// Only the tags value changes; every other byte of the block is kept.
func (v *View) UpdateTags(title string, tags []string) error {
	return v.updateTags(func(r models.Record) bool { return r.Title() == title }, title, tags)
}

// UpdateTagsByUID is UpdateTags keyed on the immutable identifier.
func (v *View) UpdateTagsByUID(uid string, tags []string) error {
	return v.updateTags(func(r models.Record) bool { return uid != "" && r.UID() == uid }, uid, tags)
}

func (v *View) updateTags(match func(models.Record) bool, key string, tags []string) error {
	at := -1
	for i, e := range v.entries {
		if e.rec == nil || !match(e.rec) {
			continue
		}
		if at >= 0 {
			return fmt.Errorf("view %s: %q selects more than one record: %w", v.spec.Name, key, apperr.ErrAmbiguousKey)
		}
		at = i
	}
	if at < 0 {
		return fmt.Errorf("view %s: no record %q: %w", v.spec.Name, key, apperr.ErrNotFound)
	}
	if v.spec.LowercaseTags {
		tags = models.NormalizeTags(tags)
	}
	val := models.List(tags...)
	e := v.entries[at]
	if cur, ok := e.rec[models.FieldTags]; ok && cur.Equal(val) {
		return nil
	}
	text, err := parser.SetField(e.text, models.FieldTags, val)
	if err != nil {
		return fmt.Errorf("view %s: %w", v.spec.Name, err)
	}
	rec := e.rec.Clone()
	rec[models.FieldTags] = val
	v.entries[at] = entry{text: text, rec: rec}
	v.dirty = true
	return nil
}

// Document returns the document text with the current records. An
// unmodified view returns the original text byte for byte.
func (v *View) Document() string {
	if !v.dirty {
		return v.doc
	}
	texts := make([]string, len(v.entries))
	for i, e := range v.entries {
		texts[i] = e.text
	}
	return v.span.Replace(v.doc, parser.JoinBlocks(texts))
}

// Changed reports whether Document differs from the loaded text.
func (v *View) Changed() bool { return v.dirty }
