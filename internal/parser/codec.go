package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// Block is one top-level object literal inside an array body. Start and End
// are offsets into the body; Text is body[Start:End], braces included.
type Block struct {
	Start int
	End   int
	Text  string
}

// SplitBlocks splits an array body into its top-level object literals,
// dropping separators and comments between them.
func SplitBlocks(body string) ([]Block, error) {
	var out []Block
	i := 0
	for {
		var err error
		if i, err = skipTrivia(body, i); err != nil {
			return nil, err
		}
		if i >= len(body) {
			return out, nil
		}
		switch body[i] {
		case ',':
			i++
		case '{':
			end, err := matchClose(body, i)
			if err != nil {
				return nil, err
			}
			out = append(out, Block{Start: i, End: end + 1, Text: body[i : end+1]})
			i = end + 1
		default:
			return nil, errorAt(body, i, "expected object literal, found %q", body[i])
		}
	}
}

// Field is one `name: value` pair. Start and End delimit the value text
// inside the object's source.
type Field struct {
	Name  string
	Value models.Value
	Start int
	End   int
}

// Object is a scanned object literal.
type Object struct {
	Text   string
	Fields []Field
}

// Lookup returns the field called name.
func (o *Object) Lookup(name string) (Field, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Record converts the object to a record, applying the per-field rules of
// the logical schema: a known field written in the wrong syntax is kept as a
// raw value so that it survives rewriting but never satisfies a typed read.
func (o *Object) Record() models.Record {
	rec := make(models.Record, len(o.Fields))
	for _, f := range o.Fields {
		v := f.Value
		if want, ok := schema[f.Name]; ok && v.Kind != want && v.Kind != models.KindRaw {
			v = models.Raw(o.Text[f.Start:f.End])
		}
		rec[f.Name] = v
	}
	return rec
}

var schema = map[string]models.Kind{
	models.FieldUID:        models.KindString,
	models.FieldID:         models.KindInt,
	models.FieldTitle:      models.KindString,
	models.FieldExcerpt:    models.KindString,
	models.FieldDate:       models.KindString,
	models.FieldCategory:   models.KindString,
	models.FieldTags:       models.KindList,
	models.FieldImage:      models.KindString,
	models.FieldLink:       models.KindString,
	models.FieldDifficulty: models.KindString,
	models.FieldOS:         models.KindString,
	models.FieldIPAddress:  models.KindString,
	"name":                 models.KindString,
	"count":                models.KindInt,
	"color":                models.KindString,
}

// ParseObject scans a `{ ... }` literal field by field.
func ParseObject(text string) (*Object, error) {
	i, err := skipTrivia(text, 0)
	if err != nil {
		return nil, err
	}
	if i >= len(text) || text[i] != '{' {
		return nil, errorAt(text, i, "expected '{'")
	}
	closeAt, err := matchClose(text, i)
	if err != nil {
		return nil, err
	}
	obj := &Object{Text: text}
	i++
	for {
		if i, err = skipTrivia(text, i); err != nil {
			return nil, err
		}
		if i >= closeAt {
			return obj, nil
		}
		if text[i] == ',' {
			i++
			continue
		}
		name, next, err := scanKey(text, i)
		if err != nil {
			return nil, err
		}
		if next, err = skipTrivia(text, next); err != nil {
			return nil, err
		}
		if next >= closeAt || text[next] != ':' {
			// Shorthand property: `{ title }`.
			obj.Fields = append(obj.Fields, Field{Name: name, Value: models.Raw(name), Start: i, End: next})
			i = next
			continue
		}
		vs, err := skipTrivia(text, next+1)
		if err != nil {
			return nil, err
		}
		ve, err := valueEnd(text, vs, closeAt)
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, Field{
			Name:  name,
			Value: decodeValue(text[vs:ve]),
			Start: vs,
			End:   ve,
		})
		i = ve
	}
}

func scanKey(text string, i int) (string, int, error) {
	c := text[i]
	switch {
	case c == '\'' || c == '"':
		end, err := skipString(text, i)
		if err != nil {
			return "", 0, err
		}
		return unquote(text[i:end]), end, nil
	case isIdentPart(c):
		j := i
		for j < len(text) && isIdentPart(text[j]) {
			j++
		}
		return text[i:j], j, nil
	}
	return "", 0, errorAt(text, i, "expected property name, found %q", c)
}

// valueEnd returns the end of the value starting at i: the first top-level
// comma or the object's closing brace, minus trailing whitespace.
func valueEnd(text string, i, limit int) (int, error) {
	j := i
	for j < limit {
		c := text[j]
		switch {
		case isQuote(c):
			end, err := skipString(text, j)
			if err != nil {
				return 0, err
			}
			j = end
			continue
		case c == '/':
			end, ok, err := skipComment(text, j)
			if err != nil {
				return 0, err
			}
			if ok {
				j = end
				continue
			}
		case c == '(' || c == '[' || c == '{':
			end, err := matchClose(text, j)
			if err != nil {
				return 0, err
			}
			j = end + 1
			continue
		case c == ',':
			return trimEnd(text, i, j), nil
		}
		j++
	}
	return trimEnd(text, i, limit), nil
}

func trimEnd(text string, start, end int) int {
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return end
}

func decodeValue(src string) models.Value {
	if src == "" {
		return models.Raw(src)
	}
	switch c := src[0]; {
	case isQuote(c):
		end, err := skipString(src, 0)
		if err != nil || end != len(src) {
			return models.Raw(src)
		}
		if c == '`' && strings.Contains(src, "${") {
			return models.Raw(src)
		}
		return models.String(unquote(src))
	case c == '[':
		if list, ok := decodeList(src); ok {
			return models.List(list...)
		}
		return models.Raw(src)
	case c == '-' || (c >= '0' && c <= '9'):
		if n, err := strconv.Atoi(src); err == nil {
			return models.Int(n)
		}
	}
	return models.Raw(src)
}

// decodeList accepts only a bracketed sequence of quoted strings.
func decodeList(src string) ([]string, bool) {
	out := []string{}
	i := 1
	last := len(src) - 1
	if src[last] != ']' {
		return nil, false
	}
	for {
		var err error
		if i, err = skipTrivia(src, i); err != nil {
			return nil, false
		}
		if i >= last {
			return out, true
		}
		if src[i] == ',' {
			i++
			continue
		}
		if !isQuote(src[i]) {
			return nil, false
		}
		end, err := skipString(src, i)
		if err != nil || end > last {
			return nil, false
		}
		out = append(out, unquote(src[i:end]))
		i = end
	}
}

// unquote strips the delimiters of a string literal and resolves escapes.
func unquote(lit string) string {
	inner := lit[1 : len(lit)-1]
	if !strings.Contains(inner, `\`) {
		return inner
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i+1 == len(inner) {
			b.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			if i+4 < len(inner) {
				if r, err := strconv.ParseUint(inner[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += 4
					continue
				}
			}
			b.WriteByte('u')
		default:
			b.WriteByte(inner[i])
		}
	}
	return b.String()
}

// DecodeRecord decodes one record block. Optional fields may be missing;
// a block without a title cannot take part in identity and is rejected.
func DecodeRecord(text string) (models.Record, error) {
	obj, err := ParseObject(text)
	if err != nil {
		return nil, err
	}
	rec := obj.Record()
	if rec.Title() == "" {
		return nil, fmt.Errorf("parser: record without title: %w", apperr.ErrMalformedInput)
	}
	return rec, nil
}

// SetField returns text with the named field's value replaced by v, or with
// the field appended when the object does not have it. Other fields are left
// byte-for-byte untouched.
func SetField(text, name string, v models.Value) (string, error) {
	obj, err := ParseObject(text)
	if err != nil {
		return "", err
	}
	enc := EncodeValue(v)
	if f, ok := obj.Lookup(name); ok {
		return text[:f.Start] + enc + text[f.End:], nil
	}
	closeAt := strings.LastIndexByte(text, '}')
	p := trimEnd(text, 0, closeAt)
	sep := ","
	if text[p-1] == ',' || text[p-1] == '{' {
		sep = ""
	}
	return text[:p] + sep + "\n" + fieldIndent + encodeKey(name) + ": " + enc + text[p:], nil
}
