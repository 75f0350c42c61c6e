// Package models defines the domain types for the post catalog.
package models

import (
	"slices"
	"strings"
)

// Field names of the logical post schema. Each view projects a subset.
const (
	FieldUID        = "uid"
	FieldID         = "id"
	FieldTitle      = "title"
	FieldExcerpt    = "excerpt"
	FieldDate       = "date"
	FieldCategory   = "category"
	FieldTags       = "tags"
	FieldImage      = "image"
	FieldLink       = "link"
	FieldDifficulty = "difficulty"
	FieldOS         = "os"
	FieldIPAddress  = "ip_address"
)

// Kind is the literal syntax a field value is written in.
type Kind int

const (
	// KindRaw is any literal the codec does not interpret (null, expressions).
	KindRaw Kind = iota
	KindString
	KindInt
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	default:
		return "raw"
	}
}

// Value is one decoded field value.
type Value struct {
	Kind Kind
	Str  string
	Int  int
	List []string
	Raw  string
}

// String returns a quoted-string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int returns an integer value.
func Int(n int) Value { return Value{Kind: KindInt, Int: n} }

// List returns a sequence-of-strings value.
func List(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{Kind: KindList, List: items}
}

// Raw returns a value that is rendered verbatim.
func Raw(src string) Value { return Value{Kind: KindRaw, Raw: src} }

// Equal reports whether two values are identical.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindList:
		return slices.Equal(v.List, o.List)
	default:
		return v.Raw == o.Raw
	}
}

// Record maps field names to values. A missing key means the field is absent
// from the block, which is never an error on its own.
type Record map[string]Value

// Str returns the string field name, or "" when absent or not a string.
func (r Record) Str(name string) string {
	v, ok := r[name]
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Str
}

// ID returns the numeric id, or 0 when absent.
func (r Record) ID() int {
	v, ok := r[FieldID]
	if !ok || v.Kind != KindInt {
		return 0
	}
	return v.Int
}

// Title returns the title field.
func (r Record) Title() string { return r.Str(FieldTitle) }

// UID returns the immutable identifier, or "" for records created before uids existed.
func (r Record) UID() string { return r.Str(FieldUID) }

// Link returns the link field.
func (r Record) Link() string { return r.Str(FieldLink) }

// Tags returns a copy of the tags sequence.
func (r Record) Tags() []string {
	v, ok := r[FieldTags]
	if !ok || v.Kind != KindList {
		return nil
	}
	return slices.Clone(v.List)
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if v.Kind == KindList {
			v.List = slices.Clone(v.List)
		}
		out[k] = v
	}
	return out
}

// Equal reports whether both records hold the same fields and values.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Project returns a record restricted to fields, in the given projection.
// Fields missing from r are skipped.
func (r Record) Project(fields []string) Record {
	out := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Merge copies every field of o over r; later values win on conflict.
func (r Record) Merge(o Record) {
	for k, v := range o {
		r[k] = v
	}
}

// TagEntry is one row of the derived tags collection.
type TagEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// NormalizeTags lowercases and trims tokens, dropping empties and duplicates
// while keeping first-seen order.
func NormalizeTags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
