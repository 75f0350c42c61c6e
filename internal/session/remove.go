package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/catalog"
)

// Remove asks for a grouping key, shows what would be deleted and, once the
// operator confirms, removes the post everywhere.
func (s *Session) Remove(ctx context.Context) error {
	s.heading("=== Writeup Remover ===")
	key, err := s.prompt.Input(ctx, "Machine name to remove", "machine-name")
	if err != nil {
		return s.finish(err)
	}
	if key == "" {
		return s.finish(fmt.Errorf("session: no machine name given: %w", apperr.ErrMalformedInput))
	}

	rep, err := s.engine.Remove(ctx, key, s.confirmRemoval)
	if rep != nil {
		for _, f := range rep.Files {
			s.ok("Removed %s", f)
		}
		s.views(rep, "Removed from")
		if rep.Registry > 0 {
			s.ok("Removed %d registrations from %s", rep.Registry, filepath.Base(s.engine.Layout().Registry.File))
		}
		s.line("")
		s.heading("Removed %d files/directories for '%s'", len(rep.Files), key)
	}
	return s.finish(err)
}

func (s *Session) confirmRemoval(ctx context.Context, plan catalog.Plan) (bool, error) {
	if plan.Post != nil {
		s.line("Post: %s", plan.Post.Title())
	}
	if len(plan.Files) == 0 {
		s.line("No files found for '%s'.", plan.Key)
	} else {
		s.line("Files to be removed:")
		for _, f := range plan.Files {
			s.line("   - %s", f)
		}
	}
	for _, v := range plan.Views {
		if v.Removed > 0 {
			s.line("   - %d record(s) in %s", v.Removed, filepath.Base(v.File))
		}
	}
	return s.prompt.Confirm(ctx, fmt.Sprintf("Remove everything for '%s'?", plan.Key))
}
