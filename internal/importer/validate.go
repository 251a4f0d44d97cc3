package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/scheduler"
)

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found. Predecessor lists are only
// checked once every row is otherwise well formed.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateProject(&schema.Project)...)

	hierarchies := make(map[string]bool)
	taskErrs := validateTasks(schema.Tasks, hierarchies)
	errs = append(errs, taskErrs...)

	if len(taskErrs) == 0 {
		errs = append(errs, validatePredecessors(schema.Tasks)...)
	}

	return errs
}

func validateProject(p *ProjectImport) []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	if strings.TrimSpace(p.Code) == "" {
		errs = append(errs, fmt.Errorf("project.code is required"))
	} else {
		probe := domain.Project{Code: strings.ToUpper(strings.TrimSpace(p.Code))}
		if err := probe.ValidateCode(); err != nil {
			errs = append(errs, fmt.Errorf("project.code: %w", err))
		}
	}

	return errs
}

func validateTasks(tasks []TaskImport, hierarchies map[string]bool) []error {
	var errs []error

	if len(tasks) == 0 {
		return []error{fmt.Errorf("tasks: at least one task is required")}
	}

	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)

		switch {
		case t.Hierarchy == "":
			errs = append(errs, fmt.Errorf("%s.hierarchy is required", prefix))
		case !domain.ValidHierarchy(t.Hierarchy):
			errs = append(errs, fmt.Errorf("%s.hierarchy: invalid hierarchy number %q (expected e.g. 2.1)", prefix, t.Hierarchy))
		case hierarchies[t.Hierarchy]:
			errs = append(errs, fmt.Errorf("%s.hierarchy: duplicate hierarchy number %q", prefix, t.Hierarchy))
		default:
			hierarchies[t.Hierarchy] = true
		}

		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}

		var start *string
		if t.Start == "" {
			errs = append(errs, fmt.Errorf("%s.start is required", prefix))
		} else if _, err := calendar.Parse(t.Start); err != nil {
			errs = append(errs, fmt.Errorf("%s.start: %w", prefix, err))
		} else {
			start = &t.Start
		}

		if t.Duration != nil && *t.Duration < 1 {
			errs = append(errs, fmt.Errorf("%s.duration must be at least 1 business day", prefix))
		}
		if t.Duration == nil && t.End != nil {
			errs = append(errs, validateEnd(prefix, start, *t.End)...)
		}

		if t.Progress != nil && (*t.Progress < 0 || *t.Progress > 100) {
			errs = append(errs, fmt.Errorf("%s.progress must be between 0 and 100", prefix))
		}
	}

	// Parents are checked after the loop so rows may appear in any order.
	for i, t := range tasks {
		if !domain.ValidHierarchy(t.Hierarchy) {
			continue
		}
		if parent := domain.ParentHierarchy(t.Hierarchy); parent != "" && !hierarchies[parent] {
			errs = append(errs, fmt.Errorf("tasks[%d].hierarchy: parent %q of %q not found", i, parent, t.Hierarchy))
		}
	}

	return errs
}

func validateEnd(prefix string, start *string, end string) []error {
	e, err := calendar.Parse(end)
	if err != nil {
		return []error{fmt.Errorf("%s.end: %w", prefix, err)}
	}
	if start == nil {
		return nil
	}
	s, _ := calendar.Parse(*start)
	if calendar.BusinessDaysBetween(calendar.SnapForward(s), e) < 1 {
		return []error{fmt.Errorf("%s.end %q must not be before start %q", prefix, end, *start)}
	}
	return nil
}

// validatePredecessors runs the schedule's own predecessor rules over the
// file as written, so references use the file's hierarchy numbers.
func validatePredecessors(tasks []TaskImport) []error {
	provisional := make([]*domain.Task, len(tasks))
	for i, t := range tasks {
		provisional[i] = &domain.Task{
			ID:              t.Hierarchy,
			HierarchyNumber: t.Hierarchy,
			Name:            t.Name,
			Predecessors:    scheduler.NormalizePredecessors(t.Predecessors),
		}
	}

	var errs []error
	for _, report := range scheduler.ValidateAll(provisional) {
		for _, msg := range report.Result.Errors {
			errs = append(errs, fmt.Errorf("task %s predecessors: %s", report.Hierarchy, msg))
		}
	}
	return errs
}
