package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db := testutil.TestDB(t)
	posts := []index.PostRow{
		{ID: "u-puppy", UID: "u-puppy", Title: "Puppy Walkthrough", Tags: []string{"windows", "ad"}, Excerpt: "Puppy - AD box", Difficulty: "Medium"},
		{ID: "wcorp", Title: "Wcorp Walkthrough", Tags: []string{"windows", "web"}, Excerpt: "Wcorp - web box"},
		{ID: "u-devops", UID: "u-devops", Title: "Devops Walkthrough", Tags: []string{"linux"}, Excerpt: "Devops - pipelines"},
	}
	tags := []index.TagRow{
		{Name: "ad", Count: 1, Color: "#3D0000"},
		{Name: "linux", Count: 1, Color: "#3D0000"},
		{Name: "web", Count: 1, Color: "#3D0000"},
		{Name: "windows", Count: 2, Color: "#3D0000"},
	}
	if err := db.Replace(map[string]string{"src/pages/Tags.js": "c1"}, posts, tags); err != nil {
		t.Fatal(err)
	}
	return New(db, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_posts":        srv.listPosts,
		"get_post":          srv.getPost,
		"search_posts":      srv.searchPosts,
		"list_tags":         srv.listTags,
		"get_record_format": srv.getRecordFormat,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListPosts(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_posts", map[string]any{"tag": "windows"})
	var got struct {
		Posts []index.PostRow `json:"posts"`
		Total int             `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, resultText(r))
	}
	if got.Total != 2 {
		t.Errorf("total = %d, want 2", got.Total)
	}
	titles := []string{}
	for _, p := range got.Posts {
		titles = append(titles, p.Title)
	}
	if diff := cmp.Diff([]string{"Puppy Walkthrough", "Wcorp Walkthrough"}, titles); diff != "" {
		t.Errorf("titles (-want +got):\n%s", diff)
	}
}

func TestGetPost(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_post", map[string]any{"id": "u-puppy"})
	var p index.PostRow
	if err := json.Unmarshal([]byte(resultText(r)), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Difficulty != "Medium" {
		t.Errorf("difficulty = %q, want Medium", p.Difficulty)
	}
}

func TestGetPostMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_post", map[string]any{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
	if r = callTool(t, srv, "get_post", map[string]any{}); !r.IsError {
		t.Error("expected error without id")
	}
}

func TestSearchPosts(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_posts", map[string]any{"query": "pipelines"})
	if !strings.Contains(resultText(r), "Devops Walkthrough") {
		t.Errorf("search result = %s", resultText(r))
	}

	r = callTool(t, srv, "search_posts", map[string]any{"query": "zzz"})
	if got := resultText(r); got != "no posts found" {
		t.Errorf("empty search = %q", got)
	}
}

func TestListTags(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_tags", nil)
	var tags []index.TagRow
	if err := json.Unmarshal([]byte(resultText(r)), &tags); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tags) != 4 || tags[3].Name != "windows" || tags[3].Count != 2 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestRecordFormat(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_record_format", nil)
	if !strings.Contains(resultText(r), "allPosts") {
		t.Error("format contract missing the canonical array")
	}

	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != formatURI {
		t.Errorf("resource = %+v", contents[0])
	}
}
