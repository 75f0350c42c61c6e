// Package session runs the interactive operator workflows: generating a new
// post, removing one, and managing tags. Each session asks its questions
// through a prompt.Prompter, drives the catalog engine and prints styled
// progress lines to its writer.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/prompt"
	"github.com/starford/raido/internal/scaffold"
)

// Defaults are substituted for missing or invalid operator input.
type Defaults struct {
	Difficulty    string
	Difficulties  []string
	OS            string
	OSes          []string
	IPAddress     string
	Category      string
	ExcerptSuffix string
}

// StandardDefaults returns the defaults of the portfolio site.
func StandardDefaults() Defaults {
	return Defaults{
		Difficulty:    "Medium",
		Difficulties:  []string{"Easy", "Medium", "Hard"},
		OS:            "Windows",
		OSes:          []string{"Windows", "Linux", "Other"},
		IPAddress:     "192.168.1.100",
		Category:      "writeup",
		ExcerptSuffix: "This writeup documents the discovery and analysis of vulnerabilities, exploitation techniques, and privilege escalation methods.",
	}
}

// ImageResolver stores a post's image and returns its web path.
type ImageResolver interface {
	Resolve(ctx context.Context, key, local string) (string, error)
}

// Generator writes the post's display component.
type Generator interface {
	Generate(p scaffold.Post) ([]string, error)
}

// Session wires the operator to the engine.
type Session struct {
	prompt    prompt.Prompter
	engine    *catalog.Engine
	images    ImageResolver
	generator Generator
	defaults  Defaults
	out       io.Writer
	logger    *slog.Logger
	st        styles
}

// Option configures a Session.
type Option func(*Session)

// WithImages sets the image resolver used by Generate.
func WithImages(r ImageResolver) Option { return func(s *Session) { s.images = r } }

// WithGenerator sets the component generator used by Generate.
func WithGenerator(g Generator) Option { return func(s *Session) { s.generator = g } }

// WithDefaults overrides StandardDefaults.
func WithDefaults(d Defaults) Option { return func(s *Session) { s.defaults = d } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// New creates a Session writing to out.
func New(p prompt.Prompter, engine *catalog.Engine, out io.Writer, opts ...Option) *Session {
	s := &Session{
		prompt:   p,
		engine:   engine,
		defaults: StandardDefaults(),
		out:      out,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.st = newStyles(out)
	return s
}

type styles struct {
	heading, ok, warn, fail, muted lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#FFB300")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("#E53935")),
		muted:   r.NewStyle().Faint(true),
	}
}

func (s *Session) heading(format string, args ...any) {
	fmt.Fprintln(s.out, s.st.heading.Render(fmt.Sprintf(format, args...)))
}

func (s *Session) ok(format string, args ...any) {
	fmt.Fprintln(s.out, s.st.ok.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (s *Session) warn(format string, args ...any) {
	fmt.Fprintln(s.out, s.st.warn.Render("! "+fmt.Sprintf(format, args...)))
}

func (s *Session) fail(format string, args ...any) {
	fmt.Fprintln(s.out, s.st.fail.Render("✗ "+fmt.Sprintf(format, args...)))
}

func (s *Session) line(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// views prints one line per view result.
func (s *Session) views(rep *catalog.Report, verb string) {
	if rep == nil {
		return
	}
	for _, v := range rep.Views {
		name := filepath.Base(v.File)
		switch v.Status {
		case catalog.StatusUpdated:
			s.ok("%s %s (%s)", verb, name, v.View)
		case catalog.StatusUnchanged:
			s.ok("%s already up to date (%s)", name, v.View)
		case catalog.StatusNotFound:
			s.line("%s", s.st.muted.Render(fmt.Sprintf("  no entry in %s (%s)", name, v.View)))
		case catalog.StatusSkipped:
			s.warn("skipped %s (%s): %v", name, v.View, v.Err)
		}
	}
}

// canonicalChoice returns the option matching v case-insensitively, or def.
func canonicalChoice(v string, options []string, def string) string {
	v = strings.TrimSpace(v)
	if i := slices.IndexFunc(options, func(o string) bool { return strings.EqualFold(o, v) }); i >= 0 {
		return options[i]
	}
	return def
}

// finish reports err in operator terms and passes it on.
func (s *Session) finish(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrUnconfirmed):
		s.fail("cancelled")
	case errors.Is(err, apperr.ErrPartialSync):
		s.warn("some documents were skipped; fix them and re-run, the operation is safe to retry")
	default:
		s.fail("%v", err)
	}
	return err
}
