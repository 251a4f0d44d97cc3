package scheduler

import (
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
)

// 2024-06-03 is a Monday.
func day(d int) time.Time { return calendar.Date(2024, time.June, d) }

// mk builds a task whose id is "t<hierarchy>" and whose end follows from
// start and duration.
func mk(h string, start time.Time, dur int, preds ...string) *domain.Task {
	return &domain.Task{
		ID:              "t" + h,
		HierarchyNumber: h,
		Name:            "Task " + h,
		StartDate:       start,
		EndDate:         calendar.BusinessEndDate(start, dur),
		Duration:        dur,
		Predecessors:    preds,
	}
}

func byID(tasks []*domain.Task, id string) *domain.Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// applyPatches returns copies of tasks with patches applied.
func applyPatches(tasks []*domain.Task, patches []domain.TaskPatch) []*domain.Task {
	out := domain.CloneTasks(tasks)
	for _, p := range patches {
		if t := byID(out, p.TaskID); t != nil {
			p.Apply(t)
		}
	}
	return out
}

func patchFor(patches []domain.TaskPatch, id string) (domain.TaskPatch, bool) {
	for _, p := range patches {
		if p.TaskID == id {
			return p, true
		}
	}
	return domain.TaskPatch{}, false
}
