// Package parser locates array literals inside source documents and decodes
// the record blocks they contain. It never builds a syntax tree of the host
// language: a small scanner tracks quote state and bracket depth, which is
// enough to find the boundaries of nested literals.
package parser

import (
	"fmt"
	"strings"

	"github.com/starford/raido/internal/apperr"
)

// SyntaxError reports a scanning failure at a position in the scanned text.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parser: %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return apperr.ErrInvalidDocument }

func errorAt(src string, pos int, format string, args ...any) error {
	if pos > len(src) {
		pos = len(src)
	}
	line := strings.Count(src[:pos], "\n") + 1
	col := pos - strings.LastIndexByte(src[:pos], '\n')
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func closerOf(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

func isQuote(c byte) bool { return c == '\'' || c == '"' || c == '`' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }

// skipString returns the index just past the string literal opening at src[i].
// Template literals may span lines and nest ${...} expressions.
func skipString(src string, i int) (int, error) {
	q := src[i]
	j := i + 1
	for j < len(src) {
		c := src[j]
		switch {
		case c == '\\':
			j += 2
			continue
		case q == '`' && c == '$' && j+1 < len(src) && src[j+1] == '{':
			end, err := matchClose(src, j+1)
			if err != nil {
				return 0, err
			}
			j = end + 1
			continue
		case c == q:
			return j + 1, nil
		case c == '\n' && q != '`':
			return 0, errorAt(src, i, "unterminated string")
		}
		j++
	}
	return 0, errorAt(src, i, "unterminated string")
}

// skipComment reports whether a comment starts at src[i] and where it ends.
func skipComment(src string, i int) (int, bool, error) {
	if i+1 >= len(src) || src[i] != '/' {
		return i, false, nil
	}
	switch src[i+1] {
	case '/':
		end := strings.IndexByte(src[i:], '\n')
		if end < 0 {
			return len(src), true, nil
		}
		return i + end + 1, true, nil
	case '*':
		end := strings.Index(src[i+2:], "*/")
		if end < 0 {
			return 0, true, errorAt(src, i, "unterminated comment")
		}
		return i + 2 + end + 2, true, nil
	}
	return i, false, nil
}

// skipTrivia advances past whitespace and comments.
func skipTrivia(src string, i int) (int, error) {
	for i < len(src) {
		if isSpace(src[i]) {
			i++
			continue
		}
		end, ok, err := skipComment(src, i)
		if err != nil {
			return 0, err
		}
		if !ok {
			return i, nil
		}
		i = end
	}
	return i, nil
}

// matchClose returns the index of the bracket closing the one at src[open].
// Brackets inside strings and comments are ignored; mismatched pairs fail.
func matchClose(src string, open int) (int, error) {
	stack := []byte{closerOf(src[open])}
	i := open + 1
	for i < len(src) {
		c := src[i]
		switch {
		case isQuote(c):
			end, err := skipString(src, i)
			if err != nil {
				return 0, err
			}
			i = end
			continue
		case c == '/':
			end, ok, err := skipComment(src, i)
			if err != nil {
				return 0, err
			}
			if ok {
				i = end
				continue
			}
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, closerOf(c))
		case c == ')' || c == ']' || c == '}':
			want := stack[len(stack)-1]
			if c != want {
				return 0, errorAt(src, i, "unexpected %q, want %q", c, want)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, nil
			}
		}
		i++
	}
	return 0, errorAt(src, open, "unclosed %q", src[open])
}

// scanIdent returns the end of the (possibly dotted) identifier starting at i.
func scanIdent(src string, i int) int {
	j := i
	for j < len(src) {
		if isIdentPart(src[j]) {
			j++
			continue
		}
		if src[j] == '.' && j+1 < len(src) && isIdentStart(src[j+1]) {
			j++
			continue
		}
		break
	}
	return j
}
