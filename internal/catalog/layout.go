package catalog

import (
	"path/filepath"

	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/tags"
	"github.com/starford/raido/internal/view"
)

// DefaultViews describes the views of the portfolio site. Files are
// relative to the pages directory.
func DefaultViews() []view.Spec {
	return []view.Spec{
		{
			Name:          "home",
			File:          "Home.js",
			Array:         "recentPosts",
			Fields:        []string{"uid", "id", "title", "excerpt", "date", "category", "tags", "image", "link", "os"},
			LowercaseTags: true,
			OnInsert:      true,
			OnRemove:      true,
			TagSource:     true,
		},
		{
			Name:          "writeups",
			File:          "Writeups.js",
			Array:         "writeups",
			Fields:        []string{"uid", "id", "title", "excerpt", "date", "tags", "image", "link", "difficulty", "category", "os"},
			LowercaseTags: true,
			OnInsert:      true,
			OnRemove:      true,
			TagSource:     true,
		},
		{
			Name:          "tags-posts",
			File:          "Tags.js",
			Array:         "allPosts",
			Fields:        []string{"uid", "id", "title", "category", "tags"},
			Canonical:     true,
			LowercaseTags: true,
			OnInsert:      true,
			OnRemove:      true,
		},
		{
			Name:          "tag-detail",
			File:          "TagDetail.js",
			Array:         "allPosts",
			Fields:        []string{"uid", "id", "title", "excerpt", "date", "tags", "image", "link", "category"},
			LowercaseTags: true,
			OnInsert:      true,
			OnRemove:      true,
		},
		{
			Name:      "projects",
			File:      "Projects.js",
			Array:     "projects",
			Fields:    []string{"uid", "id", "title", "excerpt", "date", "tags", "image", "link", "github", "demo", "category"},
			TagSource: true,
		},
	}
}

// DefaultTags describes the tags collection inside Tags.js.
func DefaultTags() TagsSpec {
	return TagsSpec{File: "Tags.js", Array: "tags", PostsArray: "allPosts", Color: tags.DefaultColor}
}

// DefaultRegistry describes the dispatch table inside WriteupDetail.js.
func DefaultRegistry() registry.Spec {
	return registry.Spec{
		File:         "WriteupDetail.js",
		Map:          "writeupComponents",
		ImportMarker: "// Import specific writeup components",
	}
}

// Resolve joins view, tags and registry files onto pagesDir.
func Resolve(pagesDir string, views []view.Spec, t TagsSpec, r registry.Spec, writeupsDir, templatesDir string) Layout {
	l := Layout{
		Views:        make([]view.Spec, len(views)),
		Tags:         t,
		Registry:     r,
		WriteupsDir:  writeupsDir,
		TemplatesDir: templatesDir,
	}
	for i, v := range views {
		v.File = filepath.Join(pagesDir, v.File)
		v.Fields = append([]string(nil), v.Fields...)
		l.Views[i] = v
	}
	l.Tags.File = filepath.Join(pagesDir, t.File)
	if r.File != "" {
		l.Registry.File = filepath.Join(pagesDir, r.File)
	}
	return l
}

// DefaultLayout is the layout of a site with the standard directories.
func DefaultLayout() Layout {
	return Resolve("src/pages", DefaultViews(), DefaultTags(), DefaultRegistry(), "src/pages/writeups", "writeups")
}
