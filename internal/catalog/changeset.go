package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/storage"
)

// changeset stages whole-document rewrites in memory. Nothing reaches disk
// until commit, and commit first re-checks every staged document.
type changeset struct {
	store  storage.Provider
	logger *slog.Logger
	docs   map[string]*staged
	order  []string
}

type staged struct {
	original string
	sum      string
	current  string
	checks   []check
}

type check struct {
	what string
	fn   func(doc string) error
}

func newChangeset(store storage.Provider, logger *slog.Logger) *changeset {
	return &changeset{store: store, logger: logger, docs: make(map[string]*staged)}
}

// load returns the staged text of path, reading it on first use.
func (c *changeset) load(path string) (string, error) {
	if d, ok := c.docs[path]; ok {
		return d.current, nil
	}
	data, err := c.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("catalog: %s: %w", path, apperr.ErrNotFound)
		}
		return "", err
	}
	text := string(data)
	c.docs[path] = &staged{original: text, sum: checksum.Sum(data), current: text}
	c.order = append(c.order, path)
	return text, nil
}

// stage replaces the staged text of a loaded document.
func (c *changeset) stage(path, text string) {
	c.docs[path].current = text
}

// expect registers a validation run against the final staged text.
func (c *changeset) expect(path, what string, fn func(doc string) error) {
	d := c.docs[path]
	d.checks = append(d.checks, check{what: what, fn: fn})
}

// changed lists loaded documents whose staged text differs from disk.
func (c *changeset) changed() []string {
	var out []string
	for _, p := range c.order {
		if d := c.docs[p]; d.current != d.original {
			out = append(out, p)
		}
	}
	return out
}

func (c *changeset) validate() error {
	var errs []error
	for _, p := range c.order {
		d := c.docs[p]
		if d.current == d.original {
			continue
		}
		for _, ck := range d.checks {
			if err := ck.fn(d.current); err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", p, ck.what, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("catalog: staged documents failed validation: %w: %w",
			apperr.ErrInvalidDocument, errors.Join(errs...))
	}
	return nil
}

// commit validates, then writes every changed document. A document that
// changed on disk since it was loaded aborts the commit before any write.
// When a write fails, documents already written are restored.
func (c *changeset) commit() ([]string, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	paths := c.changed()
	for _, p := range paths {
		sum, err := c.store.Checksum(p)
		if err != nil {
			return nil, err
		}
		if sum != c.docs[p].sum {
			return nil, fmt.Errorf("catalog: %s changed on disk: %w", p, apperr.ErrConflict)
		}
	}

	written := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := c.store.Write(p, []byte(c.docs[p].current)); err != nil {
			c.rollback(written)
			return nil, fmt.Errorf("catalog: commit %s: %w", p, err)
		}
		written = append(written, p)
	}
	return written, nil
}

func (c *changeset) rollback(written []string) {
	for _, p := range written {
		if err := c.store.Write(p, []byte(c.docs[p].original)); err != nil {
			c.logger.Error("catalog: rollback failed",
				slog.String("path", p),
				slog.String("error", err.Error()))
		}
	}
}
