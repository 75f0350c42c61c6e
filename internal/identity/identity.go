// Package identity allocates record ids and decides which records belong to
// the same logical post across views.
//
// Two name derivations come out of one grouping key and must stay mutually
// derivable: the slug, used for paths and links ("dc02" -> "/writeups/dc02-walkthrough"),
// and the component identifier used inside source code ("dc02" -> "Dc02Walkthrough").
package identity

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
)

const (
	// LinkPrefix is the route under which every post is mounted.
	LinkPrefix = "/writeups/"
	// RouteSuffix is appended to the slug to form the route key.
	RouteSuffix = "-walkthrough"
	// ComponentSuffix is appended to the component identifier.
	ComponentSuffix = "Walkthrough"
)

// titleCase is created per call: a cases.Caser keeps state between calls.
func titleCase(s string) string { return cases.Title(language.Und).String(s) }

// NewUID returns a fresh immutable identifier.
func NewUID() string { return uuid.NewString() }

// NextID returns max(id)+1 over every block of an array body, or 1 when the
// body holds no ids. Blocks that fail to scan are ignored.
func NextID(body string) int {
	blocks, err := parser.SplitBlocks(body)
	if err != nil {
		return 1
	}
	recs := make([]models.Record, 0, len(blocks))
	for _, b := range blocks {
		obj, err := parser.ParseObject(b.Text)
		if err != nil {
			continue
		}
		recs = append(recs, obj.Record())
	}
	return NextIDOf(recs)
}

// NextIDOf is NextID over already decoded records.
func NextIDOf(recs []models.Record) int {
	maxID := 0
	for _, r := range recs {
		if id := r.ID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// Slug is the path identity of a grouping key.
func Slug(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// RouteKey is the dispatch-map key of a grouping key ("dc02-walkthrough").
func RouteKey(key string) string { return Slug(key) + RouteSuffix }

// Link is the derived link path of a grouping key.
func Link(key string) string { return LinkPrefix + RouteKey(key) }

// LinkFragment is the substring looked for in a record's link.
func LinkFragment(key string) string { return "/" + RouteKey(key) }

// Component is the in-language identifier of a grouping key: hyphens, spaces
// and underscores are dropped and every segment is title-cased.
func Component(key string) string {
	segs := strings.FieldsFunc(strings.TrimSpace(key), func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(titleCase(s))
	}
	b.WriteString(ComponentSuffix)
	return b.String()
}

// KeyFromTitle derives a grouping key when the operator leaves it empty or
// gives an invalid one. Characters outside the key alphabet become hyphens.
func KeyFromTitle(title string) string {
	k := strings.ReplaceAll(strings.ToLower(title), "walkthrough", "")
	k = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			return r
		}
		return '-'
	}, k)
	for strings.Contains(k, "--") {
		k = strings.ReplaceAll(k, "--", "-")
	}
	return strings.Trim(k, "-_")
}

// ValidKey reports whether key can name files and routes: a single
// lowercase segment such as "dc02" or "my-box".
func ValidKey(key string) bool { return models.KeyPattern.MatchString(key) }

// PathLike reports whether key would escape a directory when joined to it.
func PathLike(key string) bool {
	k := strings.TrimSpace(key)
	return k == "." || k == ".." || strings.ContainsAny(k, `/\`)
}

// Variants lists the case spellings a key may have been written with in
// file names and import paths, without duplicates.
func Variants(key string) []string {
	spaced := strings.ReplaceAll(key, "-", " ")
	cands := []string{
		key,
		titleCase(key),
		strings.ToUpper(key),
		strings.ToLower(key),
		spaced,
		titleCase(spaced),
	}
	seen := make(map[string]struct{}, len(cands))
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Matches is the permissive cross-view match: the key appears, ignoring
// case, in the title, or the record's link contains the key's link fragment.
// It over-matches when one key is a substring of another ("dev" matches
// "devops"); callers that delete must check for ambiguity first.
func Matches(rec models.Record, key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	if strings.Contains(strings.ToLower(rec.Title()), k) {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Link()), LinkFragment(k))
}

// MatchesExactly is the strict form used to break ties: the uid equals key,
// or the link is exactly the key's derived link.
func MatchesExactly(rec models.Record, key string) bool {
	k := strings.TrimSpace(key)
	if k == "" {
		return false
	}
	if uid := rec.UID(); uid != "" && uid == k {
		return true
	}
	return strings.EqualFold(rec.Link(), Link(k))
}

// Same reports whether two records from different views are the same
// logical post: equal uids when both have one, else equal titles.
func Same(a, b models.Record) bool {
	if ua, ub := a.UID(), b.UID(); ua != "" && ub != "" {
		return ua == ub
	}
	return a.Title() != "" && a.Title() == b.Title()
}

// KeyFromLink recovers the grouping key from a derived link.
func KeyFromLink(link string) (string, bool) {
	rest, ok := strings.CutPrefix(link, LinkPrefix)
	if !ok {
		return "", false
	}
	key, ok := strings.CutSuffix(rest, RouteSuffix)
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}
