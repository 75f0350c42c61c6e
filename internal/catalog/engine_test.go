package catalog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/assets"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/testutil"
	"github.com/starford/raido/internal/view"
)

const (
	homeJS     = "src/pages/Home.js"
	writeupsJS = "src/pages/Writeups.js"
	tagsJS     = "src/pages/Tags.js"
	detailJS   = "src/pages/TagDetail.js"
	projectsJS = "src/pages/Projects.js"
	registryJS = "src/pages/WriteupDetail.js"
)

func newEngine(t *testing.T) (*catalog.Engine, *storage.FS) {
	t.Helper()
	fs, layout := testutil.Site(t)
	images := assets.New(fs, "public/images/writeups", "/images/writeups", nil)
	clock := func() time.Time { return time.Date(2025, time.July, 4, 12, 0, 0, 0, time.UTC) }
	e := catalog.New(fs, layout,
		catalog.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		catalog.WithClock(clock),
		catalog.WithImages(images),
	)
	return e, fs
}

func examplePost() models.NewPost {
	return models.NewPost{
		Title:      "Example Walkthrough",
		Key:        "example",
		Excerpt:    "Example - HTB",
		Difficulty: "Easy",
		OS:         "Windows",
		IPAddress:  "10.10.10.10",
		Category:   "writeup",
		Tags:       []string{"Windows", "AD"},
		Image:      "/images/writeups/example/machine.png",
	}
}

func loadView(t *testing.T, fs storage.Provider, layout catalog.Layout, name string) *view.View {
	t.Helper()
	i := slices.IndexFunc(layout.Views, func(s view.Spec) bool { return s.Name == name })
	if i < 0 {
		t.Fatalf("no view %q", name)
	}
	v, err := view.Load(layout.Views[i], testutil.Read(t, fs, layout.Views[i].File))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func tagCounts(entries []models.TagEntry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.Name] = e.Count
	}
	return out
}

func approve(context.Context, catalog.Plan) (bool, error) { return true, nil }

func TestInsert_AllocatesPerViewIDs(t *testing.T) {
	e, fs := newEngine(t)
	rep, err := e.Insert(context.Background(), examplePost())
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	ids := map[string]int{}
	for _, v := range rep.Views {
		if v.View == "tags" {
			continue
		}
		if v.Status != catalog.StatusUpdated {
			t.Errorf("%s: status %q, want updated", v.View, v.Status)
		}
		ids[v.View] = v.ID
	}
	want := map[string]int{"home": 5, "writeups": 8, "tags-posts": 5, "tag-detail": 5}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	home := loadView(t, fs, e.Layout(), "home")
	first := home.Records()[0]
	if first.Title() != "Example Walkthrough" || first.ID() != 5 {
		t.Errorf("home first = %q id %d", first.Title(), first.ID())
	}
	if diff := cmp.Diff([]string{"windows", "ad"}, first.Tags()); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
	if got := first.Str(models.FieldDate); got != "Jul 04, 2025" {
		t.Errorf("date = %q", got)
	}
	if got := first.Link(); got != "/writeups/example-walkthrough" {
		t.Errorf("link = %q", got)
	}
	if first.UID() == "" {
		t.Error("uid not set")
	}
	if _, ok := first[models.FieldDifficulty]; ok {
		t.Error("home projected a field it does not hold")
	}

	// Every view stores the same uid.
	for _, name := range []string{"writeups", "tags-posts", "tag-detail"} {
		if got := loadView(t, fs, e.Layout(), name).Records()[0].UID(); got != first.UID() {
			t.Errorf("%s uid = %q, want %q", name, got, first.UID())
		}
	}
}

func TestInsert_RebuildsTagsAndRegisters(t *testing.T) {
	e, fs := newEngine(t)
	rep, err := e.Insert(context.Background(), examplePost())
	if err != nil {
		t.Fatal(err)
	}

	counts := tagCounts(rep.Tags)
	if counts["windows"] != 4 || counts["ad"] != 2 {
		t.Errorf("counts = %v", counts)
	}
	onDisk, err := e.Tags(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rep.Tags, onDisk); diff != "" {
		t.Errorf("tags on disk (-report +disk):\n%s", diff)
	}

	entries, err := registry.Entries(testutil.Read(t, fs, registryJS), e.Layout().Registry)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(entries, registry.Entry{Route: "example-walkthrough", Component: "ExampleWalkthrough"}) {
		t.Errorf("registry entries = %v", entries)
	}
	if !strings.Contains(testutil.Read(t, fs, registryJS), registry.ImportLine("example")) {
		t.Error("import line missing")
	}
	if testutil.Read(t, fs, projectsJS) != testutil.SiteFiles[projectsJS] {
		t.Error("projects view rewritten by insert")
	}
}

func TestInsert_RetryIsHarmless(t *testing.T) {
	e, fs := newEngine(t)
	ctx := context.Background()
	if _, err := e.Insert(ctx, examplePost()); err != nil {
		t.Fatal(err)
	}
	before := map[string]string{}
	for _, p := range e.Layout().Documents() {
		before[p] = testutil.Read(t, fs, p)
	}

	rep, err := e.Insert(ctx, examplePost())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(rep.Written) != 0 {
		t.Errorf("retry wrote %v", rep.Written)
	}
	for p, want := range before {
		if got := testutil.Read(t, fs, p); got != want {
			t.Errorf("%s changed on retry", p)
		}
	}
}

func TestInsert_TitleTakenUnderAnotherKey(t *testing.T) {
	e, fs := newEngine(t)
	ctx := context.Background()
	if _, err := e.Insert(ctx, examplePost()); err != nil {
		t.Fatal(err)
	}
	before := map[string]string{}
	for _, p := range e.Layout().Documents() {
		before[p] = testutil.Read(t, fs, p)
	}

	p := examplePost()
	p.Key = "example2"
	p.Image = "/images/writeups/example2/machine.png"
	rep, err := e.Insert(ctx, p)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if rep != nil {
		t.Errorf("report = %+v, want nil", rep)
	}
	for path, want := range before {
		if got := testutil.Read(t, fs, path); got != want {
			t.Errorf("%s rewritten by rejected insert", path)
		}
	}
	if strings.Contains(testutil.Read(t, fs, registryJS), "Example2Walkthrough") {
		t.Error("rejected post registered")
	}
}

func TestInsert_InvalidPost(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*models.NewPost)
	}{
		{"no title", func(p *models.NewPost) { p.Title = "" }},
		{"key with slash", func(p *models.NewPost) { p.Key = "a/b" }},
		{"dot key", func(p *models.NewPost) { p.Key = ".." }},
		{"upper case key", func(p *models.NewPost) { p.Key = "Example" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, fs := newEngine(t)
			p := examplePost()
			tt.setup(&p)
			if _, err := e.Insert(context.Background(), p); !errors.Is(err, apperr.ErrMalformedInput) {
				t.Fatalf("err = %v, want ErrMalformedInput", err)
			}
			if testutil.Read(t, fs, homeJS) != testutil.SiteFiles[homeJS] {
				t.Error("home rewritten after rejected insert")
			}
		})
	}
}

func TestInsert_MissingArrayIsPartial(t *testing.T) {
	e, fs := newEngine(t)
	if err := fs.Write(homeJS, []byte("const Home = () => null;\nexport default Home;\n")); err != nil {
		t.Fatal(err)
	}

	rep, err := e.Insert(context.Background(), examplePost())
	if !errors.Is(err, apperr.ErrPartialSync) {
		t.Fatalf("err = %v, want ErrPartialSync", err)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want wrapped ErrNotFound", err)
	}
	skipped := rep.Skipped()
	if len(skipped) != 1 || skipped[0].View != "home" {
		t.Errorf("skipped = %+v", skipped)
	}
	if !strings.Contains(testutil.Read(t, fs, writeupsJS), "Example Walkthrough") {
		t.Error("writeups not updated despite partial sync")
	}
}

func TestRemove_DeletesEverywhere(t *testing.T) {
	e, fs := newEngine(t)
	var plan catalog.Plan
	confirm := func(_ context.Context, p catalog.Plan) (bool, error) {
		plan = p
		return true, nil
	}

	rep, err := e.Remove(context.Background(), "puppy", confirm)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}

	wantFiles := []string{
		"src/pages/writeups/puppy",
		"public/images/writeups/puppy",
		"writeups/puppy-walkthrough.html",
	}
	if diff := cmp.Diff(wantFiles, plan.Files); diff != "" {
		t.Errorf("plan files (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantFiles, rep.Files); diff != "" {
		t.Errorf("deleted (-want +got):\n%s", diff)
	}
	for _, p := range wantFiles {
		if fs.Exists(p) {
			t.Errorf("%s still exists", p)
		}
	}

	for _, name := range []string{"home", "writeups", "tags-posts", "tag-detail"} {
		for _, r := range loadView(t, fs, e.Layout(), name).Records() {
			if r.Title() == "Puppy Walkthrough" {
				t.Errorf("%s still holds puppy", name)
			}
		}
	}

	counts := tagCounts(rep.Tags)
	if counts["windows"] != 2 {
		t.Errorf("windows = %d, want 2", counts["windows"])
	}
	if _, ok := counts["smb"]; ok {
		t.Error("smb survived with no posts")
	}

	doc := testutil.Read(t, fs, registryJS)
	if strings.Contains(doc, "PuppyWalkthrough") {
		t.Errorf("registry still references puppy:\n%s", doc)
	}
	if !strings.Contains(doc, "'wcorp-walkthrough': WcorpWalkthrough") {
		t.Error("other registry entries lost")
	}
}

func TestRemove_LegacyRecordWithoutUID(t *testing.T) {
	e, fs := newEngine(t)
	if _, err := e.Remove(context.Background(), "wcorp", approve); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{homeJS, writeupsJS, tagsJS, detailJS} {
		if strings.Contains(testutil.Read(t, fs, p), "Wcorp Walkthrough") {
			t.Errorf("%s still holds wcorp", p)
		}
	}
	if !strings.Contains(testutil.Read(t, fs, homeJS), "Puppy Walkthrough") {
		t.Error("unrelated post removed")
	}
}

func TestRemove_AmbiguousKey(t *testing.T) {
	e, fs := newEngine(t)
	asked := false
	confirm := func(context.Context, catalog.Plan) (bool, error) {
		asked = true
		return true, nil
	}

	_, err := e.Remove(context.Background(), "dev", confirm)
	if !errors.Is(err, apperr.ErrAmbiguousKey) {
		t.Fatalf("err = %v, want ErrAmbiguousKey", err)
	}
	if asked {
		t.Error("operator asked despite ambiguity")
	}
	if testutil.Read(t, fs, homeJS) != testutil.SiteFiles[homeJS] {
		t.Error("home rewritten")
	}

	if _, err := e.Remove(context.Background(), "devel", approve); err != nil {
		t.Fatalf("exact key: %v", err)
	}
	home := testutil.Read(t, fs, homeJS)
	if strings.Contains(home, "Devel Walkthrough") || !strings.Contains(home, "Devops Walkthrough") {
		t.Errorf("wrong post removed:\n%s", home)
	}
}

func TestRemove_ByUID(t *testing.T) {
	e, fs := newEngine(t)
	if _, err := e.Remove(context.Background(), "u-devops", approve); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(testutil.Read(t, fs, writeupsJS), "Devops Walkthrough") {
		t.Error("devops not removed")
	}
}

func TestRemove_Declined(t *testing.T) {
	e, fs := newEngine(t)
	decline := func(context.Context, catalog.Plan) (bool, error) { return false, nil }

	_, err := e.Remove(context.Background(), "puppy", decline)
	if !errors.Is(err, apperr.ErrUnconfirmed) {
		t.Fatalf("err = %v, want ErrUnconfirmed", err)
	}
	for p, want := range testutil.SiteFiles {
		if !fs.Exists(p) {
			t.Errorf("%s deleted", p)
			continue
		}
		if got := testutil.Read(t, fs, p); got != want {
			t.Errorf("%s rewritten", p)
		}
	}
}

func TestRemove_NothingMatches(t *testing.T) {
	e, _ := newEngine(t)
	if _, err := e.Remove(context.Background(), "nonexistent", approve); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := e.Remove(context.Background(), "  ", approve); !errors.Is(err, apperr.ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestRemove_PathLikeKey(t *testing.T) {
	e, fs := newEngine(t)
	confirm := func(_ context.Context, p catalog.Plan) (bool, error) {
		t.Errorf("asked to confirm %v", p.Files)
		return true, nil
	}
	for _, key := range []string{".", "..", "../images", `puppy\..`} {
		if _, err := e.Remove(context.Background(), key, confirm); !errors.Is(err, apperr.ErrMalformedInput) {
			t.Errorf("Remove(%q) err = %v, want ErrMalformedInput", key, err)
		}
	}
	for _, p := range []string{"src/pages/writeups", "public/images/writeups"} {
		if !fs.Exists(p) {
			t.Errorf("%s deleted", p)
		}
	}
}

func TestRemove_KeepsDirOwnedByAnotherPost(t *testing.T) {
	e, fs := newEngine(t)
	const component = "src/pages/writeups/puppy/PuppyWalkthrough.js"
	if err := fs.Write(component, []byte("// raido:uid u-someone-else\nexport default null;\n")); err != nil {
		t.Fatal(err)
	}
	var plan catalog.Plan
	confirm := func(_ context.Context, p catalog.Plan) (bool, error) {
		plan = p
		return true, nil
	}

	if _, err := e.Remove(context.Background(), "puppy", confirm); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if slices.Contains(plan.Files, "src/pages/writeups/puppy") {
		t.Errorf("plan lists a directory owned by another uid: %v", plan.Files)
	}
	if !fs.Exists(component) {
		t.Error("foreign component deleted")
	}
	if fs.Exists("public/images/writeups/puppy") {
		t.Error("puppy images kept")
	}
}

func TestRemove_SharedTagKeepsCount(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	p := examplePost()
	p.Tags = []string{"docker"}
	if _, err := e.Insert(ctx, p); err != nil {
		t.Fatal(err)
	}
	rep, err := e.Remove(ctx, "example", approve)
	if err != nil {
		t.Fatal(err)
	}
	if got := tagCounts(rep.Tags)["docker"]; got != 1 {
		t.Errorf("docker = %d, want 1", got)
	}
}

func TestEditTags_AddUpdatesEveryView(t *testing.T) {
	e, fs := newEngine(t)
	rep, err := e.EditTags(context.Background(), "Puppy Walkthrough", catalog.TagEdit{Action: catalog.TagAdd, Tag: "HTB"})
	if err != nil {
		t.Fatal(err)
	}

	statuses := map[string]catalog.Status{}
	for _, v := range rep.Views {
		statuses[v.View] = v.Status
	}
	want := map[string]catalog.Status{
		"home":       catalog.StatusUpdated,
		"writeups":   catalog.StatusUpdated,
		"tags-posts": catalog.StatusUpdated,
		"tag-detail": catalog.StatusUpdated,
		"projects":   catalog.StatusNotFound,
		"tags":       catalog.StatusUpdated,
	}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Errorf("statuses (-want +got):\n%s", diff)
	}

	for _, name := range []string{"home", "writeups", "tags-posts", "tag-detail"} {
		got := loadView(t, fs, e.Layout(), name).Records()[0].Tags()
		if diff := cmp.Diff([]string{"windows", "ad", "smb", "htb"}, got); diff != "" {
			t.Errorf("%s tags (-want +got):\n%s", name, diff)
		}
	}
	if tagCounts(rep.Tags)["htb"] != 1 {
		t.Errorf("htb missing from %v", rep.Tags)
	}
	// Only the tags value of the block changes.
	home := testutil.Read(t, fs, homeJS)
	if !strings.Contains(home, "tags: ['windows', 'ad', 'smb', 'htb'],\n      image: '/images/writeups/puppy/machine.png',") {
		t.Errorf("block layout not kept:\n%s", home)
	}
}

func TestEditTags_RemoveAndReplace(t *testing.T) {
	e, fs := newEngine(t)
	ctx := context.Background()

	if _, err := e.EditTags(ctx, "Wcorp Walkthrough", catalog.TagEdit{Action: catalog.TagRemove, Index: 1}); err != nil {
		t.Fatal(err)
	}
	got := loadView(t, fs, e.Layout(), "tag-detail").Records()[1].Tags()
	if diff := cmp.Diff([]string{"windows"}, got); diff != "" {
		t.Errorf("after remove (-want +got):\n%s", diff)
	}

	rep, err := e.EditTags(ctx, "u-devops", catalog.TagEdit{Action: catalog.TagReplace, Tags: []string{"Linux", "CI"}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"linux", "ci"}, rep.Post.Tags()); diff != "" {
		t.Errorf("after replace (-want +got):\n%s", diff)
	}
	counts := tagCounts(rep.Tags)
	if _, ok := counts["docker"]; ok {
		t.Error("docker survived replace")
	}
	if _, ok := counts["web"]; ok {
		t.Error("web survived remove")
	}
}

func TestEditTags_Errors(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	if _, err := e.EditTags(ctx, "Nope", catalog.TagEdit{Action: catalog.TagAdd, Tag: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown post: %v", err)
	}
	if _, err := e.EditTags(ctx, "Puppy Walkthrough", catalog.TagEdit{Action: catalog.TagAdd, Tag: "SMB"}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate tag: %v", err)
	}
	if _, err := e.EditTags(ctx, "Puppy Walkthrough", catalog.TagEdit{Action: catalog.TagRemove, Index: 9}); !errors.Is(err, apperr.ErrMalformedInput) {
		t.Errorf("bad index: %v", err)
	}
}

func TestRebuildTags_Idempotent(t *testing.T) {
	e, fs := newEngine(t)
	ctx := context.Background()
	rep, err := e.RebuildTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.TagEntry{
		{Name: "ad", Count: 1, Color: "#3D0000"},
		{Name: "docker", Count: 1, Color: "#3D0000"},
		{Name: "iis", Count: 1, Color: "#3D0000"},
		{Name: "linux", Count: 1, Color: "#3D0000"},
		{Name: "smb", Count: 1, Color: "#3D0000"},
		{Name: "web", Count: 1, Color: "#3D0000"},
		{Name: "windows", Count: 3, Color: "#3D0000"},
	}
	if diff := cmp.Diff(want, rep.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	once := testutil.Read(t, fs, tagsJS)
	rep, err = e.RebuildTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Written) != 0 || testutil.Read(t, fs, tagsJS) != once {
		t.Error("second rebuild rewrote the document")
	}
}

const literalTags = `  const tags = [
    {
      name: 'windows',
      count: 1,
      color: '#3D0000'
    }
  ];
`

// runtimeTags is the tags page shape that derives its collection from the
// posts when rendering.
const runtimeTags = `  const allTagNames = [...new Set(allPosts.flatMap(post => Array.isArray(post.tags) ? post.tags : []))];
  const tags = allTagNames.map(tagName => ({
    name: tagName.toLowerCase(),
    count: allPosts.filter(post => post.tags.includes(tagName)).length,
    color: '#3D0000'
  })).sort((a, b) => a.name.localeCompare(b.name));
`

func tagsResult(t *testing.T, rep *catalog.Report) catalog.ViewResult {
	t.Helper()
	i := slices.IndexFunc(rep.Views, func(v catalog.ViewResult) bool { return v.View == "tags" })
	if i < 0 {
		t.Fatalf("no tags result in %+v", rep.Views)
	}
	return rep.Views[i]
}

func TestRuntimeTags_LeftUntouched(t *testing.T) {
	e, fs := newEngine(t)
	ctx := context.Background()
	doc := strings.Replace(testutil.SiteFiles[tagsJS], literalTags, runtimeTags, 1)
	if doc == testutil.SiteFiles[tagsJS] {
		t.Fatal("fixture tags literal not found")
	}
	if err := fs.Write(tagsJS, []byte(doc)); err != nil {
		t.Fatal(err)
	}

	rep, err := e.Insert(ctx, examplePost())
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := tagsResult(t, rep).Status; got != catalog.StatusUnchanged {
		t.Errorf("tags status = %q, want unchanged", got)
	}
	if got := tagCounts(rep.Tags)["windows"]; got != 4 {
		t.Errorf("windows = %d, want 4", got)
	}
	after := testutil.Read(t, fs, tagsJS)
	if !strings.Contains(after, runtimeTags) || !strings.Contains(after, "Example Walkthrough") {
		t.Errorf("tags page:\n%s", after)
	}

	if _, err := e.Remove(ctx, "example", approve); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := e.EditTags(ctx, "Puppy Walkthrough", catalog.TagEdit{Action: catalog.TagAdd, Tag: "kerberos"}); err != nil {
		t.Fatalf("EditTags: %v", err)
	}
	entries, err := e.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counts := tagCounts(entries)
	if counts["windows"] != 3 || counts["kerberos"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRuntimeTags_NoArrayConfigured(t *testing.T) {
	fs, layout := testutil.Site(t)
	layout.Tags.Array = ""
	e := catalog.New(fs, layout, catalog.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	rep, err := e.RebuildTags(context.Background())
	if err != nil {
		t.Fatalf("RebuildTags: %v", err)
	}
	if len(rep.Written) != 0 {
		t.Errorf("wrote %v", rep.Written)
	}
	if got := tagsResult(t, rep).Status; got != catalog.StatusUnchanged {
		t.Errorf("tags status = %q, want unchanged", got)
	}
	if got := tagCounts(rep.Tags)["windows"]; got != 3 {
		t.Errorf("windows = %d, want 3", got)
	}
}

func TestPosts_MergesTagSources(t *testing.T) {
	e, _ := newEngine(t)
	posts, err := e.Posts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var titles []string
	for _, p := range posts {
		titles = append(titles, p.Title())
	}
	want := []string{"Puppy Walkthrough", "Wcorp Walkthrough", "Devops Walkthrough", "Devel Walkthrough", "Portfolio Site"}
	if diff := cmp.Diff(want, titles); diff != "" {
		t.Errorf("titles (-want +got):\n%s", diff)
	}
	if got := posts[0].Str(models.FieldDifficulty); got != "Medium" {
		t.Errorf("difficulty = %q, want merged from writeups", got)
	}
	if got := posts[0].ID(); got != 7 {
		t.Errorf("id = %d, want the later view's", got)
	}
}

func TestLayout_Documents(t *testing.T) {
	want := []string{homeJS, writeupsJS, tagsJS, detailJS, projectsJS, registryJS}
	if diff := cmp.Diff(want, catalog.DefaultLayout().Documents()); diff != "" {
		t.Errorf("documents (-want +got):\n%s", diff)
	}
}
