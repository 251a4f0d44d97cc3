package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/outline"
	"github.com/alexanderramin/groundwork/internal/scheduler"
)

// EngineOptions carries the settings shared by the schedule use cases.
type EngineOptions struct {
	Logger *slog.Logger
	// MaxPasses bounds whole-schedule recalculation; zero means the
	// scheduler default.
	MaxPasses int
	// Now supplies today's date for tasks added without a start.
	Now func() time.Time
}

func (o EngineOptions) withDefaults() EngineOptions {
	o.Logger = loggerOrDiscard(o.Logger)
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// findTask resolves a user reference: a hierarchy number first, then a task id.
func findTask(tasks []*domain.Task, ref string) (*domain.Task, error) {
	ref = strings.TrimSpace(ref)
	for _, t := range tasks {
		if t.HierarchyNumber == ref {
			return t, nil
		}
	}
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
	}
	return nil, fmt.Errorf("task %s: %w", ref, domain.ErrTaskNotFound)
}

func taskByID(tasks []*domain.Task, id string) *domain.Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// applyPatches writes patches onto tasks in memory.
func applyPatches(tasks []*domain.Task, patches []domain.TaskPatch) {
	byID := make(map[string]*domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for _, p := range patches {
		if t := byID[p.TaskID]; t != nil {
			p.Apply(t)
		}
	}
}

// settledPatches returns the patches of a recalculation that settled. An
// unsettled run yields no patches so stored dates keep their last stable
// values.
func settledPatches(rc scheduler.Result) ([]domain.TaskPatch, []string) {
	if rc.Converged {
		return rc.Patches, rc.Warnings
	}
	return nil, append(rc.Warnings, "recalculated dates were discarded")
}

// projectAfter returns a copy of tasks as they will look once plan is
// stored, with extra appended.
func projectAfter(tasks []*domain.Task, plan outline.Plan, extra ...*domain.Task) []*domain.Task {
	gone := make(map[string]bool, len(plan.Deleted))
	for _, id := range plan.Deleted {
		gone[id] = true
	}
	out := make([]*domain.Task, 0, len(tasks)+len(extra))
	for _, t := range domain.CloneTasks(tasks) {
		if gone[t.ID] {
			continue
		}
		if to, ok := plan.Renames[t.HierarchyNumber]; ok {
			t.HierarchyNumber = to
		}
		out = append(out, t)
	}
	applyPatches(out, plan.Rewrites)
	return append(out, extra...)
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
