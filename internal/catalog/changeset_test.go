package catalog

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/storage"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for p, c := range files {
		if err := fs.Write(p, []byte(c)); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func read(t *testing.T, fs storage.Provider, p string) string {
	t.Helper()
	b, err := fs.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

// failingStore rejects writes to one path.
type failingStore struct {
	storage.Provider
	fail string
}

func (f failingStore) Write(path string, content []byte) error {
	if path == f.fail {
		return errors.New("disk full")
	}
	return f.Provider.Write(path, content)
}

func TestChangeset_CommitWritesChangedOnly(t *testing.T) {
	fs := newStore(t, map[string]string{"a.js": "a", "b.js": "b"})
	cs := newChangeset(fs, discard())
	for _, p := range []string{"a.js", "b.js"} {
		if _, err := cs.load(p); err != nil {
			t.Fatal(err)
		}
	}
	cs.stage("b.js", "b2")

	written, err := cs.commit()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b.js"}, written); diff != "" {
		t.Errorf("written (-want +got):\n%s", diff)
	}
	if got := read(t, fs, "b.js"); got != "b2" {
		t.Errorf("b.js = %q", got)
	}
}

func TestChangeset_LoadMissing(t *testing.T) {
	cs := newChangeset(newStore(t, nil), discard())
	if _, err := cs.load("nope.js"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChangeset_ConflictAbortsBeforeWriting(t *testing.T) {
	fs := newStore(t, map[string]string{"a.js": "a", "b.js": "b"})
	cs := newChangeset(fs, discard())
	cs.load("a.js")
	cs.load("b.js")
	cs.stage("a.js", "a2")
	cs.stage("b.js", "b2")

	if err := fs.Write("b.js", []byte("edited elsewhere")); err != nil {
		t.Fatal(err)
	}
	if _, err := cs.commit(); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if got := read(t, fs, "a.js"); got != "a" {
		t.Errorf("a.js = %q, want untouched", got)
	}
}

func TestChangeset_ValidationFailure(t *testing.T) {
	fs := newStore(t, map[string]string{"a.js": "a"})
	cs := newChangeset(fs, discard())
	cs.load("a.js")
	cs.stage("a.js", "broken")
	cs.expect("a.js", "check", func(string) error { return errors.New("bad") })

	if _, err := cs.commit(); !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
	if got := read(t, fs, "a.js"); got != "a" {
		t.Errorf("a.js = %q", got)
	}
}

func TestChangeset_RollbackOnWriteFailure(t *testing.T) {
	fs := newStore(t, map[string]string{"a.js": "a", "b.js": "b"})
	cs := newChangeset(failingStore{Provider: fs, fail: "b.js"}, discard())
	cs.load("a.js")
	cs.load("b.js")
	cs.stage("a.js", "a2")
	cs.stage("b.js", "b2")

	if _, err := cs.commit(); err == nil {
		t.Fatal("commit succeeded")
	}
	if got := read(t, fs, "a.js"); got != "a" {
		t.Errorf("a.js = %q, want rolled back", got)
	}
}

func TestTagEdit_Apply(t *testing.T) {
	cur := []string{"windows", "ad"}
	tests := []struct {
		name string
		edit TagEdit
		want []string
		err  error
	}{
		{"add", TagEdit{Action: TagAdd, Tag: " SMB "}, []string{"windows", "ad", "smb"}, nil},
		{"add empty", TagEdit{Action: TagAdd, Tag: " "}, nil, apperr.ErrMalformedInput},
		{"add duplicate", TagEdit{Action: TagAdd, Tag: "AD"}, nil, apperr.ErrAlreadyExists},
		{"remove", TagEdit{Action: TagRemove, Index: 0}, []string{"ad"}, nil},
		{"remove out of range", TagEdit{Action: TagRemove, Index: 2}, nil, apperr.ErrMalformedInput},
		{"replace", TagEdit{Action: TagReplace, Tags: []string{"Linux", "linux", "web"}}, []string{"linux", "web"}, nil},
		{"replace empty", TagEdit{Action: TagReplace}, nil, apperr.ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.edit.Apply(cur)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tags (-want +got):\n%s", diff)
			}
		})
	}
	if diff := cmp.Diff([]string{"windows", "ad"}, cur); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestSplitTags(t *testing.T) {
	tests := map[string][]string{
		"windows, AD ,smb": {"windows", "ad", "smb"},
		"linux  web":       {"linux", "web"},
		"":                 {},
		"a,,a":             {"a"},
	}
	for in, want := range tests {
		if diff := cmp.Diff(want, SplitTags(in)); diff != "" {
			t.Errorf("SplitTags(%q) (-want +got):\n%s", in, diff)
		}
	}
}
