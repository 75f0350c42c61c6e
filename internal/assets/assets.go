// Package assets places a post's image under the per-post asset directory.
package assets

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/identity"
	"github.com/starford/raido/internal/storage"
)

// Extensions are the image types accepted from a local file.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

const baseName = "machine"

// Fetcher downloads an image for a grouping key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Store writes images below Dir (root-relative) and reports them under URL.
type Store struct {
	store   storage.Provider
	dir     string
	url     string
	fetcher Fetcher
}

// New creates a Store. fetcher may be nil.
func New(store storage.Provider, dir, url string, fetcher Fetcher) *Store {
	return &Store{store: store, dir: dir, url: strings.TrimRight(url, "/"), fetcher: fetcher}
}

// DefaultImage is the conventional path used when no asset exists.
func (s *Store) DefaultImage(key string) string {
	return path.Join(s.url, identity.Slug(key), baseName+".png")
}

// Dir is the per-post asset directory, root-relative.
func (s *Store) Dir(key string) string {
	return filepath.Join(s.dir, identity.Slug(key))
}

// Resolve returns the image path to store in the records. A local file is
// copied when given; otherwise the fetcher is tried. When neither delivers
// the default path is returned together with a warning error.
func (s *Store) Resolve(ctx context.Context, key, local string) (string, error) {
	var warn error
	if local != "" {
		web, err := s.copyLocal(key, local)
		if err == nil {
			return web, nil
		}
		warn = err
	}
	if s.fetcher != nil {
		data, err := s.fetcher.Fetch(ctx, key)
		if err == nil {
			name := baseName + ".png"
			if err := s.store.Write(filepath.Join(s.Dir(key), name), data); err != nil {
				return s.DefaultImage(key), fmt.Errorf("assets: save avatar: %w", err)
			}
			return path.Join(s.url, identity.Slug(key), name), nil
		}
		warn = err
	}
	return s.DefaultImage(key), warn
}

func (s *Store) copyLocal(key, local string) (string, error) {
	ext := strings.ToLower(filepath.Ext(local))
	if !slices.Contains(Extensions, ext) {
		return "", fmt.Errorf("assets: unsupported image type %q: %w", ext, apperr.ErrMalformedInput)
	}
	name := baseName + ext
	if err := s.store.CopyFrom(local, filepath.Join(s.Dir(key), name)); err != nil {
		return "", fmt.Errorf("assets: %w", err)
	}
	return path.Join(s.url, identity.Slug(key), name), nil
}

// Candidates lists the existing image paths that belong to key: the asset
// directory plus the flat legacy layouts, in every case spelling.
func (s *Store) Candidates(key string) []string {
	var out []string
	add := func(p string) {
		if s.store.Exists(p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	add(s.Dir(key))
	for _, v := range identity.Variants(key) {
		for _, ext := range Extensions {
			add(filepath.Join(s.dir, v+"-"+baseName+ext))
		}
		add(filepath.Join(s.dir, v+"-images"))
	}
	return out
}
