package scheduler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
)

// EditResult is what a single field edit produces.
type EditResult struct {
	Task       *domain.Task       // the edited task after the edit
	Patches    []domain.TaskPatch // edited task first, then cascaded changes
	Warnings   []string
	Validation ValidationResult
}

// ApplyEdit applies the fields set in edit to the task edit.TaskID names and
// cascades the consequences through tasks. tasks is not modified.
//
// Dates are snapped onto business days: a start moves forward, an end moves
// back. An end date recomputes duration; a duration or start recomputes the
// end. New predecessors are validated and then drive the task's dates.
// Start, end, duration and progress of a parent task cannot be edited.
func ApplyEdit(edit domain.TaskPatch, tasks []*domain.Task) (EditResult, error) {
	ix := newTaskIndex(tasks)
	orig, ok := ix.byID[edit.TaskID]
	if !ok {
		return EditResult{}, fmt.Errorf("task %s: %w", edit.TaskID, domain.ErrTaskNotFound)
	}
	if ix.parent(orig) && (edit.StartDate != nil || edit.EndDate != nil || edit.Duration != nil || edit.Progress != nil) {
		return EditResult{}, fmt.Errorf("task %s: %w", orig.HierarchyNumber, domain.ErrParentTask)
	}

	t := orig.Clone()
	res := EditResult{Validation: ValidationResult{Valid: true}}

	if edit.Name != nil {
		name := strings.TrimSpace(*edit.Name)
		if name == "" {
			return EditResult{}, domain.ErrEmptyName
		}
		t.Name = name
	}
	if edit.Resources != nil {
		t.Resources = *edit.Resources
	}
	if edit.Notes != nil {
		t.Notes = *edit.Notes
	}

	if edit.EndDate != nil && edit.Duration != nil {
		return EditResult{}, fmt.Errorf("%w: set either an end date or a duration, not both", domain.ErrInvalidEdit)
	}
	if edit.StartDate != nil {
		t.StartDate = calendar.SnapForward(*edit.StartDate)
	}
	switch {
	case edit.EndDate != nil:
		end := calendar.Normalize(*edit.EndDate)
		if !calendar.IsBusinessDay(end) {
			end = calendar.PreviousBusinessDay(end)
		}
		if end.Before(t.StartDate) {
			return EditResult{}, fmt.Errorf("%w: end date %s is before start date %s",
				domain.ErrInvalidEdit, calendar.Format(end), calendar.Format(t.StartDate))
		}
		t.EndDate = end
		t.Duration = calendar.BusinessDaysBetween(t.StartDate, end)
	case edit.Duration != nil:
		if *edit.Duration < 1 {
			return EditResult{}, fmt.Errorf("%w: duration must be at least 1 business day", domain.ErrInvalidEdit)
		}
		t.Duration = *edit.Duration
		t.EndDate = calendar.BusinessEndDate(t.StartDate, t.Duration)
	case edit.StartDate != nil:
		t.EndDate = calendar.BusinessEndDate(t.StartDate, max(t.Duration, 1))
	}

	if edit.Progress != nil {
		if *edit.Progress < 0 || *edit.Progress > 100 {
			return EditResult{}, fmt.Errorf("%w: progress must be between 0 and 100", domain.ErrInvalidEdit)
		}
		t.Progress = *edit.Progress
	}

	if edit.Predecessors != nil {
		proposed := cleanList(*edit.Predecessors)
		v := validateWith(t, proposed, ix)
		res.Validation = v
		if !v.Valid {
			return res, &ValidationError{Hierarchy: t.HierarchyNumber, Result: v}
		}
		t.Predecessors = proposed
		if !ix.parent(t) {
			updated := replaceTask(tasks, t)
			if dr, ok, warnings := computeDates(t, newTaskIndex(updated), nil); ok {
				t.StartDate, t.EndDate = dr.StartDate, dr.EndDate
				res.Warnings = append(res.Warnings, warnings...)
			}
		}
	}

	if p := diffTask(orig, t); !p.IsEmpty() {
		res.Patches = append(res.Patches, p)
	}
	cascade := Cascade(replaceTask(tasks, t), t.ID)
	res.Patches = append(res.Patches, cascade.Patches...)
	res.Warnings = append(res.Warnings, cascade.Warnings...)
	res.Task = t
	return res, nil
}

func replaceTask(tasks []*domain.Task, t *domain.Task) []*domain.Task {
	out := make([]*domain.Task, len(tasks))
	for i, o := range tasks {
		if o.ID == t.ID {
			out[i] = t
		} else {
			out[i] = o
		}
	}
	return out
}

// diffTask returns the patch that turns a into b.
func diffTask(a, b *domain.Task) domain.TaskPatch {
	p := domain.TaskPatch{TaskID: a.ID}
	if a.Name != b.Name {
		v := b.Name
		p.Name = &v
	}
	if !a.StartDate.Equal(b.StartDate) {
		v := b.StartDate
		p.StartDate = &v
	}
	if !a.EndDate.Equal(b.EndDate) {
		v := b.EndDate
		p.EndDate = &v
	}
	if a.Duration != b.Duration {
		v := b.Duration
		p.Duration = &v
	}
	if a.Progress != b.Progress {
		v := b.Progress
		p.Progress = &v
	}
	if !slices.Equal(a.Predecessors, b.Predecessors) {
		v := slices.Clone(b.Predecessors)
		p.Predecessors = &v
	}
	if a.Resources != b.Resources {
		v := b.Resources
		p.Resources = &v
	}
	if a.Notes != b.Notes {
		v := b.Notes
		p.Notes = &v
	}
	return p
}
