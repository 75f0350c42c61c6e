package index

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"os"

	"github.com/starford/raido/internal/identity"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
)

// Source supplies the catalog the index mirrors.
type Source interface {
	Posts(ctx context.Context) ([]models.Record, error)
	Tags(ctx context.Context) ([]models.TagEntry, error)
}

// Sync brings the index up to date with the documents:
//   - when no document checksum changed nothing is done
//   - otherwise posts and tags are re-read from src and replace the index
//
// It reports whether the index was rebuilt.
func Sync(ctx context.Context, db *DB, src Source, store storage.Provider, docs []string, logger *slog.Logger) (bool, error) {
	disk := make(map[string]string, len(docs))
	for _, p := range docs {
		sum, err := store.Checksum(p)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warn("sync: checksum failed", slog.String("path", p), slog.String("error", err.Error()))
			}
			continue
		}
		disk[p] = sum
	}

	indexed, err := db.AllChecksums()
	if err != nil {
		return false, err
	}
	if len(indexed) > 0 && maps.Equal(indexed, disk) {
		return false, nil
	}

	recs, err := src.Posts(ctx)
	if err != nil {
		return false, err
	}
	entries, err := src.Tags(ctx)
	if err != nil {
		logger.Warn("sync: tags unavailable", slog.String("error", err.Error()))
	}

	posts := make([]PostRow, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		row := PostFromRecord(r)
		if _, dup := seen[row.ID]; dup {
			logger.Warn("sync: duplicate post id", slog.String("id", row.ID), slog.String("title", row.Title))
			continue
		}
		seen[row.ID] = struct{}{}
		posts = append(posts, row)
	}
	tags := make([]TagRow, len(entries))
	for i, e := range entries {
		tags[i] = TagRow{Name: e.Name, Count: e.Count, Color: e.Color}
	}

	if err := db.Replace(disk, posts, tags); err != nil {
		return false, err
	}
	logger.Info("sync: indexed", slog.Int("posts", len(posts)), slog.Int("tags", len(tags)))
	return true, nil
}

// PostFromRecord converts a merged catalog record into a row. The id is the
// record's uid, or for legacy records its grouping key.
func PostFromRecord(r models.Record) PostRow {
	id := r.UID()
	if id == "" {
		if key, ok := identity.KeyFromLink(r.Link()); ok {
			id = key
		} else {
			id = identity.KeyFromTitle(r.Title())
		}
	}
	return PostRow{
		ID:         id,
		UID:        r.UID(),
		Title:      r.Title(),
		Link:       r.Link(),
		Date:       r.Str(models.FieldDate),
		Category:   r.Str(models.FieldCategory),
		Tags:       nonNil(r.Tags()),
		Excerpt:    r.Str(models.FieldExcerpt),
		Image:      r.Str(models.FieldImage),
		Difficulty: r.Str(models.FieldDifficulty),
		OS:         r.Str(models.FieldOS),
	}
}
