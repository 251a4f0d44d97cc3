package scheduler

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/groundwork/internal/domain"
)

// ValidationResult is the outcome of checking a predecessor list.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidationError rejects a predecessor edit.
type ValidationError struct {
	Hierarchy string
	Result    ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid predecessors for task %s: %s", e.Hierarchy, strings.Join(e.Result.Errors, "; "))
}

// ValidatePredecessors checks a proposed predecessor list for task against
// the full task set. Neither task nor all is modified.
func ValidatePredecessors(task *domain.Task, proposed []string, all []*domain.Task) ValidationResult {
	return validateWith(task, proposed, newTaskIndex(all))
}

func validateWith(task *domain.Task, proposed []string, ix *taskIndex) ValidationResult {
	res := ValidationResult{}
	var unresolved []string
	seen := map[string]bool{}
	cycles := map[string]bool{}

	for _, raw := range cleanList(proposed) {
		p := ParsePredecessor(raw)
		target := ix.resolve(p)

		key := p.TaskRef
		if target != nil {
			key = target.ID
		}
		if key != "" {
			if seen[key] {
				res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate predecessor %s", displayRef(p)))
				continue
			}
			seen[key] = true
		}

		switch {
		case target == nil && !p.Valid():
			res.Errors = append(res.Errors, p.Err.Error())
		case target == nil:
			unresolved = append(unresolved, p.TaskRef)
		case target.ID == task.ID || target.HierarchyNumber == task.HierarchyNumber:
			res.Errors = append(res.Errors, fmt.Sprintf("task %s cannot be its own predecessor", task.HierarchyNumber))
		case domain.IsAncestor(target.HierarchyNumber, task.HierarchyNumber):
			res.Errors = append(res.Errors, fmt.Sprintf("predecessor %s is a parent of task %s", target.HierarchyNumber, task.HierarchyNumber))
		case domain.IsAncestor(task.HierarchyNumber, target.HierarchyNumber):
			res.Errors = append(res.Errors, fmt.Sprintf("predecessor %s is a subtask of task %s", target.HierarchyNumber, task.HierarchyNumber))
		default:
			if path := findCycle(task, target, ix); path != nil {
				msg := "circular dependency: " + strings.Join(path, " → ")
				if !cycles[msg] {
					cycles[msg] = true
					res.Errors = append(res.Errors, msg)
				}
			}
		}
	}

	if len(unresolved) > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("predecessor task(s) not found: %s", strings.Join(unresolved, ", ")))
	}
	res.Valid = len(res.Errors) == 0
	return res
}

func displayRef(p Predecessor) string {
	if p.TaskRef != "" {
		return p.TaskRef
	}
	return strings.TrimSpace(p.Raw)
}

// findCycle follows stored predecessor chains from start and returns the
// path task → start → ... → task if one leads back to task. A parent
// depends on its descendants through the roll-up, so the walk descends
// into them as well.
func findCycle(task, start *domain.Task, ix *taskIndex) []string {
	visited := map[string]bool{}
	var path []string

	var walk func(t *domain.Task) bool
	walk = func(t *domain.Task) bool {
		if t.ID == task.ID {
			return true
		}
		if visited[t.ID] {
			return false
		}
		visited[t.ID] = true
		path = append(path, t.HierarchyNumber)
		for _, p := range ParsePredecessors(t.Predecessors) {
			next := ix.resolve(p)
			if next == nil || next.ID == t.ID {
				continue
			}
			if walk(next) {
				return true
			}
		}
		if ix.parent(t) {
			for _, d := range ix.descendants(t.HierarchyNumber) {
				if walk(d) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		return false
	}

	if !walk(start) {
		return nil
	}
	out := make([]string, 0, len(path)+2)
	out = append(out, task.HierarchyNumber)
	out = append(out, path...)
	return append(out, task.HierarchyNumber)
}

// TaskReport is the validation result for one stored task.
type TaskReport struct {
	TaskID    string
	Hierarchy string
	Name      string
	Result    ValidationResult
}

// ValidateAll checks every task's stored predecessor list and returns a
// report for each task with errors or warnings, in outline order.
func ValidateAll(tasks []*domain.Task) []TaskReport {
	ix := newTaskIndex(tasks)
	var out []TaskReport
	for _, t := range sortedByHierarchy(tasks) {
		if len(t.Predecessors) == 0 {
			continue
		}
		res := validateWith(t, t.Predecessors, ix)
		if len(res.Errors) == 0 && len(res.Warnings) == 0 {
			continue
		}
		out = append(out, TaskReport{TaskID: t.ID, Hierarchy: t.HierarchyNumber, Name: t.Name, Result: res})
	}
	return out
}
