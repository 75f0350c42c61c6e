package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/testutil"
)

// siteReindexer rebuilds the tags in the fixture site and re-syncs the index.
type siteReindexer struct {
	engine *catalog.Engine
	db     *index.DB
	store  storage.Provider
	logger *slog.Logger
}

func (s siteReindexer) Reindex(ctx context.Context) error {
	if _, err := s.engine.RebuildTags(ctx); err != nil {
		return err
	}
	_, err := index.Sync(ctx, s.db, s.engine, s.store, s.engine.Layout().Documents(), s.logger)
	return err
}

// testEnv indexes the fixture site and returns a router over it.
// An empty token means auth is disabled.
func testEnv(t *testing.T, token string) http.Handler {
	t.Helper()
	return testEnvWithSSE(t, token, nil)
}

func testEnvWithSSE(t *testing.T, token string, sseHandler http.Handler) http.Handler {
	t.Helper()
	fs, layout := testutil.Site(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := catalog.New(fs, layout, catalog.WithLogger(logger))
	db := testutil.TestDB(t)
	if _, err := index.Sync(context.Background(), db, engine, fs, layout.Documents(), logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	svc := NewService(db, siteReindexer{engine: engine, db: db, store: fs, logger: logger})
	return NewRouter(svc, token != "", token, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v\n%s", target, err, w.Body.String())
		}
	}
	return w.Code
}

func TestListPosts(t *testing.T) {
	router := testEnv(t, "")

	var resp PostListResponse
	if code := do(t, router, http.MethodGet, "/posts", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Total != 5 || len(resp.Posts) != 5 {
		t.Fatalf("total = %d, posts = %d, want 5", resp.Total, len(resp.Posts))
	}
	if resp.Posts[0].Title != "Puppy Walkthrough" {
		t.Errorf("first = %q, want newest", resp.Posts[0].Title)
	}
}

func TestListPosts_TagFilterAndPaging(t *testing.T) {
	router := testEnv(t, "")

	var resp PostListResponse
	do(t, router, http.MethodGet, "/posts?tag=Windows&limit=2&offset=1", &resp)
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
	if len(resp.Posts) != 2 || resp.Posts[0].Title != "Wcorp Walkthrough" {
		t.Errorf("page = %+v", resp.Posts)
	}
}

func TestGetPost(t *testing.T) {
	router := testEnv(t, "")

	var p Post
	if code := do(t, router, http.MethodGet, "/posts/u-puppy", &p); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if p.Difficulty != "Medium" || p.Link != "/writeups/puppy-walkthrough" {
		t.Errorf("post = %+v", p)
	}

	// Legacy posts are addressed by their grouping key.
	var legacy Post
	if code := do(t, router, http.MethodGet, "/posts/wcorp", &legacy); code != http.StatusOK || legacy.UID != "" {
		t.Errorf("legacy post: status %d, %+v", code, legacy)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	router := testEnv(t, "")
	if code := do(t, router, http.MethodGet, "/posts/nope", nil); code != http.StatusNotFound {
		t.Errorf("missing post = %d, want 404", code)
	}
}

func TestTagsAndRebuild(t *testing.T) {
	router := testEnv(t, "")

	var before TagListResponse
	do(t, router, http.MethodGet, "/tags", &before)
	if len(before.Tags) != 1 {
		t.Fatalf("fixture tags = %+v, want the stale single entry", before.Tags)
	}

	var rebuilt TagListResponse
	if code := do(t, router, http.MethodPost, "/tags/rebuild", &rebuilt); code != http.StatusOK {
		t.Fatalf("rebuild status = %d", code)
	}
	if len(rebuilt.Tags) != 7 {
		t.Fatalf("rebuilt = %+v", rebuilt.Tags)
	}
	if last := rebuilt.Tags[6]; last.Name != "windows" || last.Count != 3 {
		t.Errorf("windows = %+v", last)
	}

	var after TagListResponse
	do(t, router, http.MethodGet, "/tags", &after)
	if len(after.Tags) != 7 {
		t.Errorf("tags after rebuild = %d, want 7", len(after.Tags))
	}
}

func TestRebuildDisabled(t *testing.T) {
	svc := NewService(testutil.TestDB(t), nil)
	router := NewRouter(svc, false, "", nil)
	if code := do(t, router, http.MethodPost, "/tags/rebuild", nil); code != http.StatusNotFound {
		t.Errorf("rebuild without reindexer = %d, want 404", code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var resp SearchResponse
	if code := do(t, router, http.MethodGet, "/search?q=ftp", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "u-devel" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t, "")
	if code := do(t, router, http.MethodGet, "/search", nil); code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")
	if code := do(t, router, http.MethodGet, "/posts", nil); code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// blockingSSE writes headers and blocks until the request context ends.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, "secret", blockingSSE)
	if code := do(t, router, http.MethodGet, "/events", nil); code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
