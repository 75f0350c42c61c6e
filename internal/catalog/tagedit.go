package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// TagAction selects how a TagEdit changes a post's tags.
type TagAction int

// Tag edit actions.
const (
	TagAdd TagAction = iota
	TagRemove
	TagReplace
)

// TagEdit is one operator change to a post's tags.
type TagEdit struct {
	Action TagAction
	Tag    string   // TagAdd
	Index  int      // TagRemove, zero-based
	Tags   []string // TagReplace
}

// Apply returns the new tag list. cur is not modified.
func (e TagEdit) Apply(cur []string) ([]string, error) {
	switch e.Action {
	case TagAdd:
		tag := strings.ToLower(strings.TrimSpace(e.Tag))
		if tag == "" {
			return nil, fmt.Errorf("catalog: empty tag: %w", apperr.ErrMalformedInput)
		}
		if slices.ContainsFunc(cur, func(t string) bool { return strings.EqualFold(t, tag) }) {
			return nil, fmt.Errorf("catalog: tag %q: %w", tag, apperr.ErrAlreadyExists)
		}
		return append(slices.Clone(cur), tag), nil
	case TagRemove:
		if e.Index < 0 || e.Index >= len(cur) {
			return nil, fmt.Errorf("catalog: tag index %d out of range: %w", e.Index, apperr.ErrMalformedInput)
		}
		return slices.Delete(slices.Clone(cur), e.Index, e.Index+1), nil
	case TagReplace:
		tags := models.NormalizeTags(e.Tags)
		if len(tags) == 0 {
			return nil, fmt.Errorf("catalog: no tags given: %w", apperr.ErrMalformedInput)
		}
		return tags, nil
	}
	return nil, fmt.Errorf("catalog: unknown tag action %d: %w", e.Action, apperr.ErrMalformedInput)
}

// SplitTags splits operator input on commas, or on whitespace when there
// are none, and normalises the result.
func SplitTags(s string) []string {
	var parts []string
	if strings.Contains(s, ",") {
		parts = strings.Split(s, ",")
	} else {
		parts = strings.Fields(s)
	}
	return models.NormalizeTags(parts)
}
