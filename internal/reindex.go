package internal

import (
	"context"
	"log/slog"

	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
)

// reindexer keeps the tag aggregate and the index in step with the
// documents. It serves POST /api/tags/rebuild and the file watcher.
type reindexer struct {
	engine *catalog.Engine
	db     *index.DB
	store  storage.Provider
	broker *sse.Broker
	logger *slog.Logger
}

// Reindex rebuilds the tag aggregate and re-syncs the index.
func (r *reindexer) Reindex(ctx context.Context) error {
	_, err := r.sync(ctx)
	return err
}

func (r *reindexer) sync(ctx context.Context) (bool, error) {
	rep, err := r.engine.RebuildTags(ctx)
	if err != nil {
		return false, err
	}
	if len(rep.Written) > 0 {
		r.logger.Info("watcher: rebuilt tags", slog.Int("tags", len(rep.Tags)))
	}
	return index.Sync(ctx, r.db, r.engine, r.store, r.engine.Layout().Documents(), r.logger)
}

// onChange is the watcher callback. Writes made by the tag rebuild trigger
// another round, which finds nothing to change and stops there.
func (r *reindexer) onChange(ctx context.Context, paths []string) {
	changed, err := r.sync(ctx)
	if err != nil {
		r.logger.Warn("watcher: reindex failed", slog.String("error", err.Error()))
	}
	if r.broker != nil {
		r.broker.PublishChange(paths, changed)
	}
}
