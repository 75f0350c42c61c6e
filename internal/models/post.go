package models

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NewPost is the operator-supplied description of a post to create.
// Fields are already normalised (defaults applied) by the session layer.
type NewPost struct {
	Title      string
	Key        string // grouping key, e.g. "puppy"
	Excerpt    string
	Difficulty string
	OS         string
	IPAddress  string
	Category   string
	Tags       []string
	Image      string
}

// KeyPattern is the shape of a grouping key: one lowercase path segment.
var KeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate checks the invariants the engine relies on.
func (p *NewPost) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required, validation.By(noQuoteBreak)),
		validation.Field(&p.Key, validation.Required, validation.Match(KeyPattern)),
		validation.Field(&p.Image, validation.Required),
	)
}

func noQuoteBreak(v any) error {
	s, _ := v.(string)
	if strings.ContainsAny(s, "\n\r") {
		return validation.NewError("validation_single_line", "must be a single line")
	}
	return nil
}
