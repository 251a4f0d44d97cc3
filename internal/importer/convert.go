package importer

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/outline"
	"github.com/alexanderramin/groundwork/internal/scheduler"
	"github.com/google/uuid"
)

// Generated holds the domain objects produced from an import file.
type Generated struct {
	Project *domain.Project
	Tasks   []*domain.Task
	// Renames maps file hierarchy numbers that were closed up to their
	// stored numbers.
	Renames map[string]string
}

// Convert transforms a validated ImportSchema into domain objects ready for
// persistence. Call ValidateImportSchema first; Convert assumes the schema is
// valid. Starts snap forward and ends snap back to business days, and the
// outline is renumbered densely with predecessor references following.
func Convert(schema *ImportSchema) (*Generated, error) {
	now := time.Now().UTC()

	project := &domain.Project{
		ID:        uuid.New().String(),
		Code:      strings.ToUpper(strings.TrimSpace(schema.Project.Code)),
		Name:      strings.TrimSpace(schema.Project.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	tasks := make([]*domain.Task, 0, len(schema.Tasks))
	for i, in := range schema.Tasks {
		t, err := convertTask(in, project.ID, now)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		tasks = append(tasks, t)
	}

	plan := outline.Renumber(tasks)
	byID := make(map[string]*domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		if to, ok := plan.Renames[t.HierarchyNumber]; ok {
			t.HierarchyNumber = to
		}
	}
	for _, rw := range plan.Rewrites {
		if t := byID[rw.TaskID]; t != nil {
			rw.Apply(t)
		}
	}

	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		return domain.CompareHierarchy(a.HierarchyNumber, b.HierarchyNumber)
	})

	return &Generated{Project: project, Tasks: tasks, Renames: plan.Renames}, nil
}

func convertTask(in TaskImport, projectID string, now time.Time) (*domain.Task, error) {
	start, err := calendar.Parse(in.Start)
	if err != nil {
		return nil, fmt.Errorf("parsing start: %w", err)
	}
	start = calendar.SnapForward(start)

	var fromEnd *int
	if in.Duration == nil && in.End != nil {
		end, err := calendar.Parse(*in.End)
		if err != nil {
			return nil, fmt.Errorf("parsing end: %w", err)
		}
		if !calendar.IsBusinessDay(end) {
			end = calendar.PreviousBusinessDay(end)
		}
		d := calendar.BusinessDaysBetween(start, end)
		fromEnd = &d
	}
	duration := max(domain.IntFromPtrWithDefault(1, in.Duration, fromEnd), 1)

	return &domain.Task{
		ID:              uuid.New().String(),
		ProjectID:       projectID,
		HierarchyNumber: in.Hierarchy,
		Name:            strings.TrimSpace(in.Name),
		StartDate:       start,
		EndDate:         calendar.BusinessEndDate(start, duration),
		Duration:        duration,
		Progress:        domain.IntFromPtrWithDefault(0, in.Progress),
		Predecessors:    scheduler.NormalizePredecessors(in.Predecessors),
		Resources:       in.Resources,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
