package parser

import (
	"errors"
	"fmt"

	"github.com/starford/raido/internal/apperr"
)

// ErrNotLiteral marks a name that is assigned, but to an expression
// computed at runtime rather than a literal. It is reported together with
// apperr.ErrNotFound.
var ErrNotLiteral = errors.New("bound to a computed expression")

// Form is the surface syntax an array declaration was found in.
type Form int

const (
	// FormPlain is `name = [ ... ]`.
	FormPlain Form = iota
	// FormMemo is `name = useMemo(() => [ ... ], [])`.
	FormMemo
)

func (f Form) String() string {
	if f == FormMemo {
		return "memo"
	}
	return "plain"
}

// Span is the body of a located literal: doc[Start:End] is the text strictly
// between the outermost brackets.
type Span struct {
	Form  Form
	Start int
	End   int
}

// Body returns the literal's body.
func (s Span) Body(doc string) string { return doc[s.Start:s.End] }

// Replace returns doc with the body swapped for body. Everything outside the
// brackets, including the declaration form, is preserved.
func (s Span) Replace(doc, body string) string {
	return doc[:s.Start] + body + doc[s.End:]
}

// Locate finds the array literal bound to name, in either the plain or the
// memoized wrapper form. The returned error wraps apperr.ErrNotFound when no
// declaration exists and apperr.ErrInvalidDocument when one exists but its
// brackets do not balance.
func Locate(doc, name string) (Span, error) {
	return locate(doc, name, '[')
}

// LocateObject finds the object literal bound to name (`name = { ... }`).
func LocateObject(doc, name string) (Span, error) {
	return locate(doc, name, '{')
}

func locate(doc, name string, open byte) (Span, error) {
	computed := false
	i := 0
	for i < len(doc) {
		c := doc[i]
		switch {
		case isQuote(c):
			// Stray quotes (JSX text, regex literals) must not derail the walk.
			if end, err := skipString(doc, i); err == nil {
				i = end
			} else {
				i++
			}
			continue
		case c == '/':
			if end, ok, err := skipComment(doc, i); ok {
				if err != nil {
					return Span{}, fmt.Errorf("parser: locate %s: %w", name, err)
				}
				i = end
				continue
			}
		case isIdentStart(c):
			j := i
			for j < len(doc) && isIdentPart(doc[j]) {
				j++
			}
			if doc[i:j] == name && (i == 0 || doc[i-1] != '.') {
				span, ok, err := declaration(doc, j, open)
				if err != nil {
					return Span{}, fmt.Errorf("parser: locate %s: %w", name, err)
				}
				if ok {
					return span, nil
				}
				computed = computed || assigned(doc, j)
			}
			i = j
			continue
		}
		i++
	}
	if computed {
		return Span{}, fmt.Errorf("parser: %s: %w: %w", name, ErrNotLiteral, apperr.ErrNotFound)
	}
	return Span{}, fmt.Errorf("parser: %s: %w", name, apperr.ErrNotFound)
}

// assigned reports whether a plain assignment follows the identifier ending
// at i.
func assigned(doc string, i int) bool {
	k, err := skipTrivia(doc, i)
	if err != nil || k >= len(doc) || doc[k] != '=' {
		return false
	}
	return k+1 >= len(doc) || (doc[k+1] != '=' && doc[k+1] != '>')
}

// declaration checks whether an assignment of the wanted literal follows the
// identifier ending at i.
func declaration(doc string, i int, open byte) (Span, bool, error) {
	k, err := skipTrivia(doc, i)
	if err != nil {
		return Span{}, false, err
	}
	if k >= len(doc) || doc[k] != '=' {
		return Span{}, false, nil
	}
	if k+1 < len(doc) && (doc[k+1] == '=' || doc[k+1] == '>') {
		return Span{}, false, nil
	}
	if k, err = skipTrivia(doc, k+1); err != nil {
		return Span{}, false, err
	}
	if k >= len(doc) {
		return Span{}, false, nil
	}
	if doc[k] == open {
		end, err := matchClose(doc, k)
		if err != nil {
			return Span{}, false, err
		}
		return Span{Form: FormPlain, Start: k + 1, End: end}, true, nil
	}
	if open == '[' && isIdentStart(doc[k]) {
		return memoized(doc, k)
	}
	return Span{}, false, nil
}

// memoized matches `callee(() => [ ... ], [deps])` starting at the callee.
func memoized(doc string, k int) (Span, bool, error) {
	k = scanIdent(doc, k)
	var ok bool
	var err error
	for _, tok := range []string{"(", "(", ")", "=>"} {
		if k, ok, err = expect(doc, k, tok); !ok || err != nil {
			return Span{}, false, err
		}
	}
	if k, err = skipTrivia(doc, k); err != nil || k >= len(doc) || doc[k] != '[' {
		return Span{}, false, err
	}
	arrStart := k
	arrEnd, err := matchClose(doc, arrStart)
	if err != nil {
		return Span{}, false, err
	}
	k = arrEnd + 1
	if k, ok, err = expect(doc, k, ","); !ok || err != nil {
		return Span{}, false, err
	}
	if k, err = skipTrivia(doc, k); err != nil || k >= len(doc) || doc[k] != '[' {
		return Span{}, false, err
	}
	depsEnd, err := matchClose(doc, k)
	if err != nil {
		return Span{}, false, err
	}
	if _, ok, err = expect(doc, depsEnd+1, ")"); !ok || err != nil {
		return Span{}, false, err
	}
	return Span{Form: FormMemo, Start: arrStart + 1, End: arrEnd}, true, nil
}

func expect(doc string, k int, tok string) (int, bool, error) {
	k, err := skipTrivia(doc, k)
	if err != nil {
		return 0, false, err
	}
	if k+len(tok) > len(doc) || doc[k:k+len(tok)] != tok {
		return k, false, nil
	}
	return k + len(tok), true, nil
}
