// Package catalog propagates one logical change (insert, remove, tag edit)
// across every registered view and rebuilds the tag aggregate afterwards.
// All document rewrites of one operation are staged and committed together.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/identity"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/scaffold"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/tags"
	"github.com/starford/raido/internal/view"
)

// DefaultDateFormat renders creation dates ("Jan 02, 2006").
const DefaultDateFormat = "Jan 02, 2006"

// TagsSpec locates the derived tags collection and the posts it counts.
type TagsSpec struct {
	File       string `yaml:"file"`
	Array      string `yaml:"array"` // empty when the page computes its tags at runtime
	PostsArray string `yaml:"posts_array"`
	Color      string `yaml:"color"`
}

// Layout is the resolved, root-relative description of the site.
type Layout struct {
	Views        []view.Spec
	Tags         TagsSpec
	Registry     registry.Spec
	WriteupsDir  string
	TemplatesDir string
}

// Canonical returns the canonical posts view.
func (l Layout) Canonical() (view.Spec, bool) {
	for _, v := range l.Views {
		if v.Canonical {
			return v, true
		}
	}
	return view.Spec{}, false
}

// Documents lists every document the engine may rewrite, without duplicates.
func (l Layout) Documents() []string {
	var out []string
	add := func(p string) {
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	for _, v := range l.Views {
		add(v.File)
	}
	add(l.Tags.File)
	add(l.Registry.File)
	return out
}

// ImageLocator lists existing image paths of a grouping key.
type ImageLocator interface {
	Candidates(key string) []string
}

// Engine is the record-synchronization engine.
type Engine struct {
	store      storage.Provider
	layout     Layout
	images     ImageLocator
	logger     *slog.Logger
	now        func() time.Time
	dateFormat string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithClock sets the clock used for creation dates.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithDateFormat sets the creation date layout.
func WithDateFormat(f string) Option {
	return func(e *Engine) {
		if f != "" {
			e.dateFormat = f
		}
	}
}

// WithImages sets the image locator consulted by Remove.
func WithImages(l ImageLocator) Option { return func(e *Engine) { e.images = l } }

// New creates an Engine over store.
func New(store storage.Provider, layout Layout, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		layout:     layout,
		logger:     slog.Default(),
		now:        time.Now,
		dateFormat: DefaultDateFormat,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layout returns the engine's site layout.
func (e *Engine) Layout() Layout { return e.layout }

// NewRecord builds the full logical record for p. The uid is fresh and the
// date is the current time; neither is ever recomputed.
func (e *Engine) NewRecord(p models.NewPost) models.Record {
	return models.Record{
		models.FieldUID:        models.String(identity.NewUID()),
		models.FieldTitle:      models.String(p.Title),
		models.FieldExcerpt:    models.String(p.Excerpt),
		models.FieldDate:       models.String(e.now().Format(e.dateFormat)),
		models.FieldCategory:   models.String(p.Category),
		models.FieldTags:       models.List(models.NormalizeTags(p.Tags)...),
		models.FieldImage:      models.String(p.Image),
		models.FieldLink:       models.String(identity.Link(p.Key)),
		models.FieldDifficulty: models.String(p.Difficulty),
		models.FieldOS:         models.String(p.OS),
		models.FieldIPAddress:  models.String(p.IPAddress),
	}
}

// Insert adds a new post to every insert view, registers its component and
// rebuilds the tags. Views whose array cannot be found are skipped and
// reported through an error wrapping apperr.ErrPartialSync; the other views
// are still written. A view that already holds the post is left unchanged,
// so a retried insert is harmless.
func (e *Engine) Insert(ctx context.Context, p models.NewPost) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %w: %w", apperr.ErrMalformedInput, err)
	}
	return e.InsertRecord(ctx, p.Key, e.NewRecord(p))
}

// InsertRecord is Insert for an already built logical record.
func (e *Engine) InsertRecord(ctx context.Context, key string, rec models.Record) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep := &Report{Op: "insert", Post: rec.Clone()}
	cs := newChangeset(e.store, e.logger)
	if err := e.titleClash(cs, rec); err != nil {
		return nil, err
	}

	for _, spec := range e.layout.Views {
		if !spec.OnInsert {
			continue
		}
		e.apply(cs, rep, spec, func(v *view.View, res *ViewResult) {
			for _, r := range v.Records() {
				if samePost(r, rec) {
					res.Status = StatusUnchanged
					res.ID = r.ID()
					return
				}
			}
			stored := v.Insert(rec)
			res.Status = StatusUpdated
			res.ID = stored.ID()
		})
	}

	if err := e.register(cs, rep, key); err != nil {
		return rep, err
	}
	if err := e.rebuildTags(cs, rep); err != nil {
		return rep, err
	}
	if err := e.commit(cs, rep); err != nil {
		return rep, err
	}
	return rep, rep.partial()
}

// Plan is what Remove is about to delete, shown to the operator.
type Plan struct {
	Key   string
	Post  models.Record // nil when the canonical view has no match
	Files []string
	Views []ViewResult // Removed holds the number of matching records
}

// ConfirmFunc is the operator gate of Remove.
type ConfirmFunc func(ctx context.Context, plan Plan) (bool, error)

// Remove deletes a post from every remove view, deletes its files, strips
// its registrations and rebuilds the tags. key is a uid, a link key or a
// title fragment. Nothing is deleted or rewritten before confirm approves;
// a declined plan returns apperr.ErrUnconfirmed. When key selects more than
// one post in the canonical view, Remove stops with apperr.ErrAmbiguousKey
// before asking.
func (e *Engine) Remove(ctx context.Context, key string, confirm ConfirmFunc) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("catalog: empty key: %w", apperr.ErrMalformedInput)
	}
	if identity.PathLike(key) {
		return nil, fmt.Errorf("catalog: key %q is not a single name: %w", key, apperr.ErrMalformedInput)
	}
	cs := newChangeset(e.store, e.logger)

	target, err := e.resolve(cs, key)
	if err != nil {
		return nil, err
	}
	fileKey := key
	if target != nil {
		if k, ok := identity.KeyFromLink(target.Link()); ok {
			fileKey = k
		}
	}
	match := matcher(target, key)

	plan := Plan{Key: fileKey, Post: target, Files: e.candidateFiles(fileKey, target)}
	for _, spec := range e.layout.Views {
		if !spec.OnRemove {
			continue
		}
		res := ViewResult{View: spec.Name, File: spec.File}
		if doc, err := cs.load(spec.File); err != nil {
			res.Status, res.Err = StatusSkipped, err
		} else if v, err := view.Load(spec, doc); err != nil {
			res.Status, res.Err = StatusSkipped, err
		} else {
			for _, r := range v.Records() {
				if match(r) {
					res.Removed++
				}
			}
		}
		plan.Views = append(plan.Views, res)
	}

	if target == nil && len(plan.Files) == 0 && !slices.ContainsFunc(plan.Views, func(v ViewResult) bool { return v.Removed > 0 }) {
		return nil, fmt.Errorf("catalog: nothing matches %q: %w", key, apperr.ErrNotFound)
	}

	ok, err := confirm(ctx, plan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("catalog: remove %s: %w", key, apperr.ErrUnconfirmed)
	}

	rep := &Report{Op: "remove", Post: target}
	for _, spec := range e.layout.Views {
		if !spec.OnRemove {
			continue
		}
		e.apply(cs, rep, spec, func(v *view.View, res *ViewResult) {
			removed := v.RemoveWhere(match)
			if target == nil {
				if titles := distinctTitles(removed); len(titles) > 1 {
					res.Status = StatusSkipped
					res.Err = fmt.Errorf("%q selects %s: %w", key, strings.Join(titles, ", "), apperr.ErrAmbiguousKey)
					return
				}
			}
			res.Removed = len(removed)
			if res.Removed == 0 {
				res.Status = StatusNotFound
				e.logger.Info("catalog: no record to remove",
					slog.String("view", spec.Name), slog.String("key", key))
				return
			}
			res.Status = StatusUpdated
		})
	}

	if err := e.unregister(cs, rep, fileKey); err != nil {
		return rep, err
	}
	if err := e.rebuildTags(cs, rep); err != nil {
		return rep, err
	}
	if err := e.commit(cs, rep); err != nil {
		return rep, err
	}

	for _, p := range plan.Files {
		if err := e.store.RemoveAll(p); err != nil {
			e.logger.Warn("catalog: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		rep.Files = append(rep.Files, p)
	}
	return rep, rep.partial()
}

// resolve finds the post key refers to in the canonical view. An exact uid
// or link match wins; otherwise the permissive match must select a single
// post. A nil record with a nil error means nothing matched.
func (e *Engine) resolve(cs *changeset, key string) (models.Record, error) {
	spec, ok := e.layout.Canonical()
	if !ok {
		return nil, nil
	}
	doc, err := cs.load(spec.File)
	if err != nil {
		e.logger.Warn("catalog: canonical view unavailable", slog.String("error", err.Error()))
		return nil, nil
	}
	v, err := view.Load(spec, doc)
	if err != nil {
		e.logger.Warn("catalog: canonical view unavailable", slog.String("error", err.Error()))
		return nil, nil
	}
	recs := v.Records()
	for _, r := range recs {
		if identity.MatchesExactly(r, key) {
			return r, nil
		}
	}
	var hits []models.Record
	for _, r := range recs {
		if !identity.Matches(r, key) {
			continue
		}
		if !slices.ContainsFunc(hits, func(h models.Record) bool { return identity.Same(h, r) }) {
			hits = append(hits, r)
		}
	}
	switch len(hits) {
	case 0:
		return nil, nil
	case 1:
		return hits[0], nil
	}
	return nil, fmt.Errorf("catalog: %q selects %s: %w", key, strings.Join(distinctTitles(hits), ", "), apperr.ErrAmbiguousKey)
}

// matcher selects the records of target in any view. Records carrying a
// uid are matched on it; legacy records on link or title equality. Without
// a target the permissive key match is used.
func matcher(target models.Record, key string) func(models.Record) bool {
	if target == nil {
		return func(r models.Record) bool { return identity.Matches(r, key) }
	}
	uid, link, title := target.UID(), target.Link(), target.Title()
	return func(r models.Record) bool {
		if uid != "" && r.UID() != "" {
			return r.UID() == uid
		}
		if link != "" && r.Link() != "" {
			return strings.EqualFold(r.Link(), link)
		}
		return r.Title() == title
	}
}

// samePost reports whether r already stores rec: same uid or same link.
// Titles only decide for records that carry neither.
func samePost(r, rec models.Record) bool {
	if uid := rec.UID(); uid != "" && r.UID() == uid {
		return true
	}
	if link := rec.Link(); link != "" && strings.EqualFold(r.Link(), link) {
		return true
	}
	return r.UID() == "" && r.Link() == "" && r.Title() == rec.Title()
}

// titleClash fails when an insert view already holds rec's title under
// another link. It runs before anything is staged or registered.
func (e *Engine) titleClash(cs *changeset, rec models.Record) error {
	for _, spec := range e.layout.Views {
		if !spec.OnInsert {
			continue
		}
		doc, err := cs.load(spec.File)
		if err != nil {
			continue
		}
		v, err := view.Load(spec, doc)
		if err != nil {
			continue
		}
		for _, r := range v.Records() {
			if r.Link() == "" || samePost(r, rec) || !strings.EqualFold(r.Title(), rec.Title()) {
				continue
			}
			return fmt.Errorf("catalog: %q already published at %s: %w", rec.Title(), r.Link(), apperr.ErrAlreadyExists)
		}
	}
	return nil
}

func distinctTitles(recs []models.Record) []string {
	var out []string
	for _, r := range recs {
		if !slices.Contains(out, r.Title()) {
			out = append(out, r.Title())
		}
	}
	return out
}

// candidateFiles lists the existing files and directories that belong to
// key by naming convention. Keys that are not a single file name list
// nothing. A writeups directory whose component records another uid than
// target's is left alone.
func (e *Engine) candidateFiles(key string, target models.Record) []string {
	if !identity.ValidKey(identity.Slug(key)) {
		return nil
	}
	var out []string
	add := func(p string) {
		if p != "" && e.store.Exists(p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	if e.layout.WriteupsDir != "" {
		for _, v := range identity.Variants(key) {
			dir := filepath.Join(e.layout.WriteupsDir, v)
			if e.ownedElsewhere(dir, key, target) {
				e.logger.Info("catalog: writeups dir belongs to another post", slog.String("path", dir))
				continue
			}
			add(dir)
		}
	}
	if e.images != nil {
		for _, p := range e.images.Candidates(key) {
			add(p)
		}
	}
	if e.layout.TemplatesDir != "" {
		add(filepath.Join(e.layout.TemplatesDir, identity.RouteKey(key)+".html"))
	}
	return out
}

// ownedElsewhere reports whether dir's component file carries a uid header
// naming a post other than target.
func (e *Engine) ownedElsewhere(dir, key string, target models.Record) bool {
	if target == nil || target.UID() == "" {
		return false
	}
	data, err := e.store.Read(filepath.Join(dir, identity.Component(key)+".js"))
	if err != nil {
		return false
	}
	uid, ok := scaffold.ReadUID(data)
	return ok && uid != target.UID()
}

// EditTags applies edit to the post whose uid or exact title is key, in
// every view that stores tags, then rebuilds the tags. The post is looked
// up among the tag-source views.
func (e *Engine) EditTags(ctx context.Context, key string, edit TagEdit) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cs := newChangeset(e.store, e.logger)
	posts, err := e.posts(cs)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(posts, func(r models.Record) bool {
		return (r.UID() != "" && r.UID() == key) || r.Title() == key
	})
	if idx < 0 {
		return nil, fmt.Errorf("catalog: post %q: %w", key, apperr.ErrNotFound)
	}
	target := posts[idx]
	next, err := edit.Apply(target.Tags())
	if err != nil {
		return nil, err
	}
	return e.setTags(cs, target, next)
}

func (e *Engine) setTags(cs *changeset, post models.Record, tagList []string) (*Report, error) {
	updated := post.Clone()
	updated[models.FieldTags] = models.List(tagList...)
	rep := &Report{Op: "edit-tags", Post: updated}
	for _, spec := range e.layout.Views {
		if !slices.Contains(spec.Fields, models.FieldTags) {
			continue
		}
		e.apply(cs, rep, spec, func(v *view.View, res *ViewResult) {
			err := apperr.ErrNotFound
			if uid := post.UID(); uid != "" {
				err = v.UpdateTagsByUID(uid, tagList)
			}
			if errors.Is(err, apperr.ErrNotFound) {
				err = v.UpdateTags(post.Title(), tagList)
			}
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				res.Status = StatusNotFound
			case err != nil:
				res.Status, res.Err = StatusSkipped, err
			case v.Changed():
				res.Status = StatusUpdated
			default:
				res.Status = StatusUnchanged
			}
		})
	}
	if err := e.rebuildTags(cs, rep); err != nil {
		return rep, err
	}
	if err := e.commit(cs, rep); err != nil {
		return rep, err
	}
	return rep, rep.partial()
}

// RebuildTags recomputes the tags collection from the canonical posts.
func (e *Engine) RebuildTags(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep := &Report{Op: "rebuild-tags"}
	cs := newChangeset(e.store, e.logger)
	if err := e.rebuildTags(cs, rep); err != nil {
		return rep, err
	}
	if err := e.commit(cs, rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// Posts returns every post found in the tag-source views, deduplicated by
// title. Fields found in later views override earlier ones.
func (e *Engine) Posts(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.posts(newChangeset(e.store, e.logger))
}

func (e *Engine) posts(cs *changeset) ([]models.Record, error) {
	var out []models.Record
	byTitle := make(map[string]int)
	found := false
	for _, spec := range e.layout.Views {
		if !spec.TagSource {
			continue
		}
		doc, err := cs.load(spec.File)
		if err != nil {
			e.logger.Warn("catalog: view skipped", slog.String("view", spec.Name), slog.String("error", err.Error()))
			continue
		}
		v, err := view.Load(spec, doc)
		if err != nil {
			e.logger.Warn("catalog: view skipped", slog.String("view", spec.Name), slog.String("error", err.Error()))
			continue
		}
		found = true
		for _, r := range v.Records() {
			if i, ok := byTitle[r.Title()]; ok {
				out[i].Merge(r)
				continue
			}
			byTitle[r.Title()] = len(out)
			out = append(out, r)
		}
	}
	if !found {
		return nil, fmt.Errorf("catalog: no readable post views: %w", apperr.ErrNotFound)
	}
	return out, nil
}

// Tags decodes the current tags collection.
func (e *Engine) Tags(ctx context.Context) ([]models.TagEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec := e.layout.Tags
	data, err := e.store.Read(spec.File)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if spec.Array == "" {
		return tags.Aggregate(string(data), spec.PostsArray, spec.Color)
	}
	entries, err := tags.Decode(string(data), spec.Array)
	if errors.Is(err, parser.ErrNotLiteral) {
		return tags.Aggregate(string(data), spec.PostsArray, spec.Color)
	}
	return entries, err
}

// apply loads spec's view from the changeset, runs fn and stages the
// result. Load failures mark the view skipped.
func (e *Engine) apply(cs *changeset, rep *Report, spec view.Spec, fn func(*view.View, *ViewResult)) {
	res := ViewResult{View: spec.Name, File: spec.File}
	defer func() { rep.add(res) }()

	doc, err := cs.load(spec.File)
	if err != nil {
		res.Status, res.Err = StatusSkipped, err
		e.logger.Warn("catalog: view skipped", slog.String("view", spec.Name), slog.String("error", err.Error()))
		return
	}
	v, err := view.Load(spec, doc)
	if err != nil {
		res.Status, res.Err = StatusSkipped, err
		e.logger.Warn("catalog: view skipped", slog.String("view", spec.Name), slog.String("error", err.Error()))
		return
	}
	fn(v, &res)
	if res.Status == StatusSkipped || !v.Changed() {
		return
	}
	cs.stage(spec.File, v.Document())
	want := v.Len()
	cs.expect(spec.File, "view "+spec.Name, func(doc string) error {
		got, err := view.Load(spec, doc)
		if err != nil {
			return err
		}
		if got.Len() != want {
			return fmt.Errorf("%d records, want %d", got.Len(), want)
		}
		return nil
	})
}

func (e *Engine) register(cs *changeset, rep *Report, key string) error {
	spec := e.layout.Registry
	if spec.File == "" {
		return nil
	}
	doc, err := cs.load(spec.File)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			e.logger.Warn("catalog: registry missing", slog.String("file", spec.File))
			return nil
		}
		return err
	}
	out, err := registry.Register(doc, spec, key)
	if err != nil {
		e.logger.Warn("catalog: registry skipped", slog.String("error", err.Error()))
		return nil
	}
	if out != doc {
		rep.Registry++
		e.stageRegistry(cs, out)
	}
	return nil
}

func (e *Engine) unregister(cs *changeset, rep *Report, key string) error {
	spec := e.layout.Registry
	if spec.File == "" {
		return nil
	}
	doc, err := cs.load(spec.File)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	out, n, err := registry.Unregister(doc, spec, key)
	if err != nil {
		e.logger.Warn("catalog: registry skipped", slog.String("error", err.Error()))
		return nil
	}
	rep.Registry = n
	if n > 0 {
		e.stageRegistry(cs, out)
	}
	return nil
}

func (e *Engine) stageRegistry(cs *changeset, doc string) {
	spec := e.layout.Registry
	cs.stage(spec.File, doc)
	cs.expect(spec.File, "registry", func(doc string) error {
		_, err := registry.Entries(doc, spec)
		return err
	})
}

// rebuildTags stages a full recomputation of the tags collection. A missing
// tags array is reported, not fatal.
func (e *Engine) rebuildTags(cs *changeset, rep *Report) error {
	spec := e.layout.Tags
	doc, err := cs.load(spec.File)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			rep.add(ViewResult{View: "tags", File: spec.File, Status: StatusSkipped, Err: err})
			return nil
		}
		return err
	}
	if spec.Array == "" {
		entries, err := tags.Aggregate(doc, spec.PostsArray, spec.Color)
		return e.derivedTags(rep, spec, entries, err)
	}
	out, entries, err := tags.Rebuild(doc, spec.PostsArray, spec.Array, spec.Color)
	if errors.Is(err, parser.ErrNotLiteral) && entries != nil {
		return e.derivedTags(rep, spec, entries, nil)
	}
	if err != nil {
		rep.add(ViewResult{View: "tags", File: spec.File, Status: StatusSkipped, Err: err})
		e.logger.Warn("catalog: tags skipped", slog.String("error", err.Error()))
		return nil
	}
	rep.Tags = entries
	status := StatusUnchanged
	if out != doc {
		status = StatusUpdated
		cs.stage(spec.File, out)
		want := len(entries)
		cs.expect(spec.File, "tags", func(doc string) error {
			got, err := tags.Decode(doc, spec.Array)
			if err != nil {
				return err
			}
			if len(got) != want {
				return fmt.Errorf("%d tags, want %d", len(got), want)
			}
			return nil
		})
	}
	rep.add(ViewResult{View: "tags", File: spec.File, Status: status})
	return nil
}

// derivedTags reports a tags collection the page computes at runtime from
// its posts array. Nothing is written; the counts are still reported.
func (e *Engine) derivedTags(rep *Report, spec TagsSpec, entries []models.TagEntry, err error) error {
	if err != nil {
		rep.add(ViewResult{View: "tags", File: spec.File, Status: StatusSkipped, Err: err})
		e.logger.Warn("catalog: tags skipped", slog.String("error", err.Error()))
		return nil
	}
	e.logger.Info("catalog: tags derived at runtime, nothing to write", slog.String("file", spec.File))
	rep.Tags = entries
	rep.add(ViewResult{View: "tags", File: spec.File, Status: StatusUnchanged})
	return nil
}

func (e *Engine) commit(cs *changeset, rep *Report) error {
	written, err := cs.commit()
	if err != nil {
		return err
	}
	rep.Written = written
	for _, p := range written {
		e.logger.Info("catalog: document written", slog.String("op", rep.Op), slog.String("path", p))
	}
	return nil
}
