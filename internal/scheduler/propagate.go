package scheduler

import (
	"fmt"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
)

// DateResult is the schedule a task's predecessors imply.
type DateResult struct {
	StartDate time.Time
	EndDate   time.Time
	Duration  int
}

// ComputeDates derives task's dates from its predecessors. ok is false when
// no predecessor entry resolves to another task; the task then keeps its
// dates. Duration is never changed.
func ComputeDates(task *domain.Task, all []*domain.Task) (DateResult, bool) {
	res, ok, _ := computeDates(task, newTaskIndex(all), nil)
	return res, ok
}

// edge is a predecessor → dependent link by task id.
type edge struct{ from, to string }

// computeDates applies the link rules for task. Entries that do not parse,
// do not resolve, point at the task itself, or are in skip are ignored and
// reported as warnings.
func computeDates(task *domain.Task, ix *taskIndex, skip map[edge]bool) (DateResult, bool, []string) {
	var (
		warnings       []string
		sf, ss, ff, fs []linkConstraint
	)
	for _, p := range ParsePredecessors(task.Predecessors) {
		pred := ix.resolve(p)
		switch {
		case pred == nil && !p.Valid():
			warnings = append(warnings, fmt.Sprintf("task %s: ignoring %v", task.HierarchyNumber, p.Err))
			continue
		case pred == nil:
			warnings = append(warnings, fmt.Sprintf("task %s: predecessor %s not found", task.HierarchyNumber, p.TaskRef))
			continue
		case pred.ID == task.ID:
			warnings = append(warnings, fmt.Sprintf("task %s: ignoring self reference", task.HierarchyNumber))
			continue
		case skip[edge{pred.ID, task.ID}]:
			continue
		}
		c := linkConstraint{pred: pred, lag: p.LagDays}
		switch p.Type {
		case domain.LinkStartToFinish:
			sf = append(sf, c)
		case domain.LinkStartToStart:
			ss = append(ss, c)
		case domain.LinkFinishToFinish:
			ff = append(ff, c)
		default:
			fs = append(fs, c)
		}
	}

	d := task.Duration
	if d < 1 {
		d = 1
	}
	fromStart := func(start time.Time) DateResult {
		return DateResult{StartDate: start, EndDate: calendar.BusinessEndDate(start, d), Duration: task.Duration}
	}
	fromEnd := func(end time.Time) DateResult {
		return DateResult{StartDate: calendar.AddBusinessDays(end, -(d - 1)), EndDate: end, Duration: task.Duration}
	}

	// One link type drives the result: SF, then SS, then FF, then FS.
	switch {
	case len(sf) > 0:
		var end time.Time
		for i, c := range sf {
			cand := calendar.AddBusinessDays(c.pred.StartDate, c.lag-1)
			if i == 0 || cand.Before(end) {
				end = cand
			}
		}
		return fromEnd(end), true, warnings
	case len(ss) > 0:
		return fromStart(latest(ss, func(c linkConstraint) time.Time {
			return calendar.AddBusinessDays(c.pred.StartDate, c.lag)
		})), true, warnings
	case len(ff) > 0:
		return fromEnd(latest(ff, func(c linkConstraint) time.Time {
			return calendar.AddBusinessDays(c.pred.EndDate, c.lag)
		})), true, warnings
	case len(fs) > 0:
		return fromStart(latest(fs, func(c linkConstraint) time.Time {
			return calendar.NextBusinessDay(calendar.AddBusinessDays(c.pred.EndDate, c.lag))
		})), true, warnings
	}
	return DateResult{}, false, warnings
}

type linkConstraint struct {
	pred *domain.Task
	lag  int
}

func latest(cs []linkConstraint, candidate func(linkConstraint) time.Time) time.Time {
	var out time.Time
	for i, c := range cs {
		if t := candidate(c); i == 0 || t.After(out) {
			out = t
		}
	}
	return out
}
