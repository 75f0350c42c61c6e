package catalog

import (
	"errors"
	"fmt"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// Status is the outcome of one operation on one view.
type Status string

// Per-view outcomes.
const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusNotFound  Status = "not found"
	StatusSkipped   Status = "skipped"
)

// ViewResult reports what happened to one view.
type ViewResult struct {
	View    string
	File    string
	Status  Status
	ID      int // id allocated by an insert
	Removed int
	Err     error
}

// Report summarises one logical operation.
type Report struct {
	Op       string
	Post     models.Record
	Views    []ViewResult
	Tags     []models.TagEntry
	Registry int      // import lines and map entries added or removed
	Files    []string // files and directories deleted
	Written  []string // documents rewritten
}

func (r *Report) add(v ViewResult) { r.Views = append(r.Views, v) }

// Skipped returns the views that could not be processed.
func (r *Report) Skipped() []ViewResult {
	var out []ViewResult
	for _, v := range r.Views {
		if v.Status == StatusSkipped {
			out = append(out, v)
		}
	}
	return out
}

// partial folds per-view failures into one error wrapping ErrPartialSync.
func (r *Report) partial() error {
	var errs []error
	for _, v := range r.Skipped() {
		errs = append(errs, fmt.Errorf("%s (%s): %w", v.View, v.File, v.Err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("catalog: %s: %w: %w", r.Op, apperr.ErrPartialSync, errors.Join(errs...))
}
