package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

func TestScripted(t *testing.T) {
	ctx := context.Background()
	s := &Scripted{Answers: []string{"  Aria  ", "YES", "1", "7"}}

	if got, _ := s.Input(ctx, "Title", ""); got != "Aria" {
		t.Errorf("Input = %q, want %q", got, "Aria")
	}
	if ok, _ := s.Confirm(ctx, "Sure?"); !ok {
		t.Error("Confirm = false, want true")
	}
	if i, _ := s.Select(ctx, "Pick", []string{"a", "b"}); i != 1 {
		t.Errorf("Select = %d, want 1", i)
	}
	if _, err := s.Select(ctx, "Pick", []string{"a", "b"}); !errors.Is(err, apperr.ErrMalformedInput) {
		t.Errorf("out of range: err = %v", err)
	}
	if _, err := s.Input(ctx, "More", ""); !errors.Is(err, ErrNoAnswer) {
		t.Errorf("exhausted: err = %v", err)
	}
	if len(s.Asked) != 5 {
		t.Errorf("Asked = %v", s.Asked)
	}
}

var _ Prompter = Huh{}
