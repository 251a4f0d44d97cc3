package domain

import (
	"slices"
	"time"
)

// TaskPatch is a partial update of one task. Nil fields are left unchanged.
type TaskPatch struct {
	TaskID       string
	Name         *string
	StartDate    *time.Time
	EndDate      *time.Time
	Duration     *int
	Progress     *int
	Predecessors *[]string
	Resources    *string
	Notes        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.StartDate == nil && p.EndDate == nil &&
		p.Duration == nil && p.Progress == nil && p.Predecessors == nil &&
		p.Resources == nil && p.Notes == nil
}

// Apply writes the patch's fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.Predecessors != nil {
		t.Predecessors = slices.Clone(*p.Predecessors)
	}
	if p.Resources != nil {
		t.Resources = *p.Resources
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
}

// Merge overlays other onto p; fields set in other win.
func (p TaskPatch) Merge(other TaskPatch) TaskPatch {
	if other.Name != nil {
		p.Name = other.Name
	}
	if other.StartDate != nil {
		p.StartDate = other.StartDate
	}
	if other.EndDate != nil {
		p.EndDate = other.EndDate
	}
	if other.Duration != nil {
		p.Duration = other.Duration
	}
	if other.Progress != nil {
		p.Progress = other.Progress
	}
	if other.Predecessors != nil {
		p.Predecessors = other.Predecessors
	}
	if other.Resources != nil {
		p.Resources = other.Resources
	}
	if other.Notes != nil {
		p.Notes = other.Notes
	}
	return p
}

// HierarchyUpdate renames one task's hierarchy number. Updates produced by
// the outline engine must be applied in order.
type HierarchyUpdate struct {
	TaskID string
	From   string
	To     string
}
