package domain

import (
	"slices"
	"time"
)

// Task is one row of a project schedule. HierarchyNumber places it in the
// outline; ID never changes.
type Task struct {
	ID              string
	ProjectID       string
	HierarchyNumber string
	Name            string

	// Schedule. Dates are calendar dates at midnight UTC.
	StartDate time.Time
	EndDate   time.Time
	Duration  int // business days in [StartDate, EndDate]
	Progress  int // 0-100

	// Predecessors holds dependency expressions such as "2.1" or "2.1SF+3d".
	Predecessors []string

	// Opaque metadata.
	Resources string
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Depth returns the number of segments in the task's hierarchy number.
func (t *Task) Depth() int {
	return Depth(t.HierarchyNumber)
}

// Clone returns a copy that shares no mutable state with t.
func (t *Task) Clone() *Task {
	c := *t
	c.Predecessors = slices.Clone(t.Predecessors)
	return &c
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []*Task) []*Task {
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// IsParentIn reports whether any task in all sits below t in the outline.
func (t *Task) IsParentIn(all []*Task) bool {
	for _, o := range all {
		if IsAncestor(t.HierarchyNumber, o.HierarchyNumber) {
			return true
		}
	}
	return false
}
