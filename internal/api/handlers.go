package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List posts newest first
//	@Tags			posts
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Success		200		{object}	PostListResponse
//	@Security		BearerAuth
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	resp, err := h.svc.ListPosts(r.Context(), q.Get("tag"), limit, offset)
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPost handles GET /api/posts/{id}.
//
//	@Summary		Get a single post by uid or grouping key
//	@Tags			posts
//	@Produce		json
//	@Param			id	path		string	true	"Post uid or key"
//	@Success		200	{object}	Post
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{id} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Tags handles GET /api/tags.
//
//	@Summary		List the tag aggregate
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RebuildTags handles POST /api/tags/rebuild.
//
//	@Summary		Recompute the tag aggregate from the canonical posts
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/rebuild [post]
func (h *Handler) RebuildTags(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.RebuildTags(r.Context())
	if err != nil {
		writeError(w, "rebuild tags", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles GET /api/search.
//
//	@Summary		Search posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	resp, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
