// Package prompt collects operator input. The session layer talks to the
// Prompter interface; Huh renders real terminal forms and Scripted replays
// canned answers in tests.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/starford/raido/internal/apperr"
)

// Prompter asks the operator one question at a time.
type Prompter interface {
	// Input asks for free text; hint is shown as a placeholder.
	Input(ctx context.Context, title, hint string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, title string) (bool, error)
	// Select asks for one of options and returns its index.
	Select(ctx context.Context, title string, options []string) (int, error)
}

// Huh prompts through charmbracelet/huh forms.
type Huh struct {
	Accessible bool
}

func (h Huh) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithAccessible(h.Accessible)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("prompt: %w", apperr.ErrUnconfirmed)
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// Input implements Prompter.
func (h Huh) Input(ctx context.Context, title, hint string) (string, error) {
	var v string
	err := h.run(ctx, huh.NewInput().Title(title).Placeholder(hint).Value(&v))
	return strings.TrimSpace(v), err
}

// Confirm implements Prompter.
func (h Huh) Confirm(ctx context.Context, title string) (bool, error) {
	var v bool
	err := h.run(ctx, huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&v))
	return v, err
}

// Select implements Prompter.
func (h Huh) Select(ctx context.Context, title string, options []string) (int, error) {
	opts := make([]huh.Option[int], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o, i)
	}
	var v int
	err := h.run(ctx, huh.NewSelect[int]().Title(title).Options(opts...).Value(&v))
	return v, err
}

// Scripted replays answers in order. Confirm accepts y/yes; Select takes a
// zero-based index. Asked records every question title.
type Scripted struct {
	Answers []string
	Asked   []string
}

// ErrNoAnswer is returned when the script runs out.
var ErrNoAnswer = errors.New("prompt: script exhausted")

func (s *Scripted) next(title string) (string, error) {
	s.Asked = append(s.Asked, title)
	if len(s.Answers) == 0 {
		return "", fmt.Errorf("%w at %q", ErrNoAnswer, title)
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}

// Input implements Prompter.
func (s *Scripted) Input(_ context.Context, title, _ string) (string, error) {
	a, err := s.next(title)
	return strings.TrimSpace(a), err
}

// Confirm implements Prompter.
func (s *Scripted) Confirm(_ context.Context, title string) (bool, error) {
	a, err := s.next(title)
	if err != nil {
		return false, err
	}
	a = strings.ToLower(strings.TrimSpace(a))
	return a == "y" || a == "yes", nil
}

// Select implements Prompter.
func (s *Scripted) Select(_ context.Context, title string, options []string) (int, error) {
	a, err := s.next(title)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil || i < 0 || i >= len(options) {
		return 0, fmt.Errorf("prompt: option %q out of range: %w", a, apperr.ErrMalformedInput)
	}
	return i, nil
}
