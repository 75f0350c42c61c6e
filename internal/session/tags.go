package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/models"
)

var tagActions = []string{"Add a tag", "Remove a tag", "Replace all tags"}

// ManageTags lets the operator pick a post and add, remove or replace its
// tags in every view.
func (s *Session) ManageTags(ctx context.Context) error {
	s.heading("=== Tag Manager ===")
	posts, err := s.engine.Posts(ctx)
	if err != nil {
		return s.finish(err)
	}
	if len(posts) == 0 {
		return s.finish(fmt.Errorf("session: no posts: %w", apperr.ErrNotFound))
	}

	labels := make([]string, len(posts))
	for i, p := range posts {
		labels[i] = fmt.Sprintf("%s (%s)", p.Title(), p.Str(models.FieldCategory))
	}
	i, err := s.prompt.Select(ctx, "Select a post", labels)
	if err != nil {
		return s.finish(err)
	}
	post := posts[i]
	s.line("Selected: %s", post.Title())
	s.line("Current tags: %s", strings.Join(post.Tags(), ", "))

	edit, err := s.askEdit(ctx, post)
	if err != nil {
		return s.finish(err)
	}

	key := post.UID()
	if key == "" {
		key = post.Title()
	}
	rep, err := s.engine.EditTags(ctx, key, edit)
	s.views(rep, "Updated")
	if err == nil {
		s.ok("Tags of '%s': %s", post.Title(), strings.Join(rep.Post.Tags(), ", "))
	}
	return s.finish(err)
}

func (s *Session) askEdit(ctx context.Context, post models.Record) (catalog.TagEdit, error) {
	action, err := s.prompt.Select(ctx, "What would you like to do?", tagActions)
	if err != nil {
		return catalog.TagEdit{}, err
	}
	switch catalog.TagAction(action) {
	case catalog.TagAdd:
		tag, err := s.prompt.Input(ctx, "New tag", "")
		return catalog.TagEdit{Action: catalog.TagAdd, Tag: tag}, err
	case catalog.TagRemove:
		cur := post.Tags()
		if len(cur) == 0 {
			return catalog.TagEdit{}, fmt.Errorf("session: no tags to remove: %w", apperr.ErrMalformedInput)
		}
		idx, err := s.prompt.Select(ctx, "Select tag to remove", cur)
		return catalog.TagEdit{Action: catalog.TagRemove, Index: idx}, err
	default:
		in, err := s.prompt.Input(ctx, "New tags (comma-separated)", "")
		return catalog.TagEdit{Action: catalog.TagReplace, Tags: catalog.SplitTags(in)}, err
	}
}

// Retag rebuilds the tags collection and prints the result.
func (s *Session) Retag(ctx context.Context) error {
	rep, err := s.engine.RebuildTags(ctx)
	if err != nil {
		return s.finish(err)
	}
	s.views(rep, "Rebuilt")
	for _, t := range rep.Tags {
		s.line("  %-24s %d", t.Name, t.Count)
	}
	return nil
}
