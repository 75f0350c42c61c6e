package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/identity"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/scaffold"
)

// maxTitleAttempts bounds re-asking for a required title.
const maxTitleAttempts = 3

// Generate asks for a new post, stores its image, inserts it into every
// view and writes its display component.
func (s *Session) Generate(ctx context.Context) error {
	s.heading("=== Writeup Generator ===")
	p, local, err := s.askPost(ctx)
	if err != nil {
		return s.finish(err)
	}

	p.Image = s.image(ctx, p.Key, local)
	if err := p.Validate(); err != nil {
		return s.finish(fmt.Errorf("session: %w: %w", apperr.ErrMalformedInput, err))
	}
	rec := s.engine.NewRecord(p)

	rep, err := s.engine.InsertRecord(ctx, p.Key, rec)
	s.views(rep, "Updated")
	if rep != nil && rep.Registry > 0 {
		s.ok("Registered %s", identity.Component(p.Key))
	}
	if err != nil && !errors.Is(err, apperr.ErrPartialSync) {
		return s.finish(err)
	}
	partial := err

	if s.generator != nil {
		files, gerr := s.generator.Generate(scaffold.Post{
			UID:        rec.UID(),
			Key:        p.Key,
			Title:      p.Title,
			Excerpt:    p.Excerpt,
			Date:       rec.Str(models.FieldDate),
			Difficulty: p.Difficulty,
			OS:         p.OS,
			IPAddress:  p.IPAddress,
			Tags:       rec.Tags(),
		})
		for _, f := range files {
			s.ok("Created %s", f)
		}
		switch {
		case errors.Is(gerr, apperr.ErrAlreadyExists):
			s.warn("component already exists, left untouched")
		case gerr != nil:
			return s.finish(gerr)
		}
	}

	s.line("")
	s.heading("=== Generation Complete! ===")
	s.line("Next: add your content to %s.js", identity.Component(p.Key))
	return s.finish(partial)
}

// askPost collects the post fields, substituting defaults for empty or
// invalid answers. It also returns the local image path, if any.
func (s *Session) askPost(ctx context.Context) (models.NewPost, string, error) {
	d := s.defaults
	var p models.NewPost

	for attempt := 0; p.Title == ""; attempt++ {
		if attempt == maxTitleAttempts {
			return p, "", fmt.Errorf("session: title is required: %w", apperr.ErrMalformedInput)
		}
		t, err := s.prompt.Input(ctx, "Writeup title", "Machine Name Walkthrough")
		if err != nil {
			return p, "", err
		}
		if p.Title = strings.TrimSpace(t); p.Title == "" {
			s.warn("title is required")
		}
	}

	key, err := s.prompt.Input(ctx, "Machine name (for file naming)", "machine-name")
	if err != nil {
		return p, "", err
	}
	p.Key = strings.ToLower(strings.TrimSpace(key))
	if p.Key != "" && !identity.ValidKey(p.Key) {
		s.warn("key %q is not a single name, using one derived from the title", p.Key)
		p.Key = ""
	}
	if p.Key == "" {
		p.Key = identity.KeyFromTitle(p.Title)
	}

	excerpt, err := s.prompt.Input(ctx, "Brief excerpt", "")
	if err != nil {
		return p, "", err
	}
	p.Excerpt = excerpt
	if p.Excerpt == "" {
		p.Excerpt = p.Title + " - " + d.ExcerptSuffix
	}

	diff, err := s.prompt.Input(ctx, "Difficulty ("+strings.Join(d.Difficulties, "/")+")", d.Difficulty)
	if err != nil {
		return p, "", err
	}
	p.Difficulty = canonicalChoice(diff, d.Difficulties, d.Difficulty)

	osName, err := s.prompt.Input(ctx, "Operating system ("+strings.Join(d.OSes, "/")+")", d.OS)
	if err != nil {
		return p, "", err
	}
	p.OS = canonicalChoice(osName, d.OSes, d.OS)

	ip, err := s.prompt.Input(ctx, "Target IP address", d.IPAddress)
	if err != nil {
		return p, "", err
	}
	p.IPAddress = ip
	if p.IPAddress == "" {
		p.IPAddress = d.IPAddress
	}

	tagList, err := s.prompt.Input(ctx, "Tags (comma-separated)", "windows, active-directory")
	if err != nil {
		return p, "", err
	}
	p.Tags = catalog.SplitTags(tagList)
	p.Category = d.Category

	local, err := s.prompt.Input(ctx, "Image path (Enter to skip)", "")
	if err != nil {
		return p, "", err
	}
	return p, local, nil
}

// image resolves the post image. Failures degrade to the default path.
func (s *Session) image(ctx context.Context, key, local string) string {
	if s.images == nil {
		return defaultImage(key)
	}
	web, err := s.images.Resolve(ctx, key, local)
	if err != nil {
		s.warn("image: %v; using %s", err, web)
		s.logger.Warn("session: image fallback", slog.String("key", key), slog.String("error", err.Error()))
		return web
	}
	s.ok("Image: %s", web)
	return web
}

func defaultImage(key string) string {
	return "/images/writeups/" + identity.Slug(key) + "/machine.png"
}
