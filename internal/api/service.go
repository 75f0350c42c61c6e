package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/index"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Reindexer repairs the tag aggregate in the documents and refreshes the
// index from them.
type Reindexer interface {
	Reindex(ctx context.Context) error
}

// Service coordinates index reads and repairs for the API layer.
type Service struct {
	idx       index.CatalogIndex
	reindexer Reindexer
}

// NewService creates a new API service. reindexer may be nil, which
// disables POST /tags/rebuild.
func NewService(idx index.CatalogIndex, reindexer Reindexer) *Service {
	return &Service{idx: idx, reindexer: reindexer}
}

// ListPosts returns a page of posts, newest first.
func (s *Service) ListPosts(_ context.Context, tag string, limit, offset int) (*PostListResponse, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	offset = max(offset, 0)
	posts, total, err := s.idx.ListPosts(strings.ToLower(strings.TrimSpace(tag)), limit, offset)
	if err != nil {
		return nil, err
	}
	return &PostListResponse{Posts: posts, Total: total}, nil
}

// GetPost returns one post by uid or grouping key.
func (s *Service) GetPost(_ context.Context, id string) (*Post, error) {
	if id == "" {
		return nil, fmt.Errorf("api: id is required: %w", apperr.ErrMalformedInput)
	}
	return s.idx.GetPost(id)
}

// Tags returns the tag aggregate.
func (s *Service) Tags(_ context.Context) (*TagListResponse, error) {
	tags, err := s.idx.Tags()
	if err != nil {
		return nil, err
	}
	return &TagListResponse{Tags: tags}, nil
}

// Search runs a query over titles, excerpts and tags.
func (s *Service) Search(_ context.Context, q string, limit int) (*SearchResponse, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("api: query is required: %w", apperr.ErrMalformedInput)
	}
	results, err := s.idx.Search(q, min(limit, maxLimit))
	if err != nil {
		return nil, err
	}
	return &SearchResponse{Results: results}, nil
}

// RebuildTags recomputes the tag aggregate and returns the fresh tags.
func (s *Service) RebuildTags(ctx context.Context) (*TagListResponse, error) {
	if s.reindexer == nil {
		return nil, fmt.Errorf("api: rebuild disabled: %w", apperr.ErrNotFound)
	}
	if err := s.reindexer.Reindex(ctx); err != nil {
		return nil, err
	}
	return s.Tags(ctx)
}
