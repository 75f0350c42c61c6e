package parser

import (
	"slices"
	"strconv"
	"strings"

	"github.com/starford/raido/internal/models"
)

const (
	blockIndent = "    "
	fieldIndent = "      "
	closeIndent = "  "
)

// EncodeRecord renders rec as a canonical block. Fields listed in order come
// first, in that order; any other fields follow alphabetically so nothing is
// lost when a record carries more than its view declares.
func EncodeRecord(rec models.Record, order []string) string {
	names := make([]string, 0, len(rec))
	seen := make(map[string]struct{}, len(order))
	for _, f := range order {
		if _, ok := rec[f]; ok {
			if _, dup := seen[f]; !dup {
				names = append(names, f)
				seen[f] = struct{}{}
			}
		}
	}
	var rest []string
	for f := range rec {
		if _, ok := seen[f]; !ok {
			rest = append(rest, f)
		}
	}
	slices.Sort(rest)
	names = append(names, rest...)

	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range names {
		b.WriteString(fieldIndent)
		b.WriteString(encodeKey(f))
		b.WriteString(": ")
		b.WriteString(EncodeValue(rec[f]))
		if i < len(names)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(blockIndent)
	b.WriteByte('}')
	return b.String()
}

// EncodeValue renders a single value in the host literal syntax.
func EncodeValue(v models.Value) string {
	switch v.Kind {
	case models.KindString:
		return Quote(v.Str)
	case models.KindInt:
		return strconv.Itoa(v.Int)
	case models.KindList:
		parts := make([]string, len(v.List))
		for i, s := range v.List {
			parts[i] = Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.Raw
	}
}

// Quote renders s as a single-quoted string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func encodeKey(name string) string {
	if name == "" || !isIdentStart(name[0]) {
		return Quote(name)
	}
	for i := 1; i < len(name); i++ {
		if !isIdentPart(name[i]) {
			return Quote(name)
		}
	}
	return name
}

// JoinBlocks renders an array body from block texts, newest first, using the
// same layout the generators have always written.
func JoinBlocks(blocks []string) string {
	if len(blocks) == 0 {
		return "\n" + closeIndent
	}
	trimmed := make([]string, len(blocks))
	for i, b := range blocks {
		trimmed[i] = strings.TrimSpace(b)
	}
	return "\n" + blockIndent + strings.Join(trimmed, ",\n"+blockIndent) + "\n" + closeIndent
}
