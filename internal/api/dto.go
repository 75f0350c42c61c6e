package api

import "github.com/starford/raido/internal/index"

// Post is one catalog post (aliased from the index layer).
type Post = index.PostRow

// Tag is one tag aggregate row (aliased from the index layer).
type Tag = index.TagRow

// SearchResult is a single search hit (aliased from the index layer).
type SearchResult = index.SearchResult

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []Post `json:"posts" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// TagListResponse wraps the tag aggregate.
type TagListResponse struct {
	Tags []Tag `json:"tags" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
