package scheduler

import (
	"math"
	"time"

	"github.com/alexanderramin/groundwork/internal/domain"
)

// RollupResult is the summary a parent derives from its descendants.
type RollupResult struct {
	StartDate    time.Time
	EndDate      time.Time
	Duration     int
	Progress     int
	ShouldUpdate bool
}

// RollUp summarizes every descendant of parent, nested parents included.
// ok is false when parent has no descendants. Duration is total scheduled
// work, the sum of descendant durations, not the calendar span.
func RollUp(parent *domain.Task, all []*domain.Task) (RollupResult, bool) {
	return rollUp(parent, newTaskIndex(all))
}

func rollUp(parent *domain.Task, ix *taskIndex) (RollupResult, bool) {
	desc := ix.descendants(parent.HierarchyNumber)
	if len(desc) == 0 {
		return RollupResult{}, false
	}

	var (
		res      RollupResult
		total    int
		weighted float64
	)
	for i, t := range desc {
		if i == 0 || t.StartDate.Before(res.StartDate) {
			res.StartDate = t.StartDate
		}
		if i == 0 || t.EndDate.After(res.EndDate) {
			res.EndDate = t.EndDate
		}
		total += t.Duration
		weighted += float64(t.Duration) * float64(t.Progress) / 100
	}
	res.Duration = total
	if total > 0 {
		res.Progress = int(math.Round(weighted / float64(total) * 100))
	}
	res.ShouldUpdate = !res.StartDate.Equal(parent.StartDate) ||
		!res.EndDate.Equal(parent.EndDate) ||
		res.Duration != parent.Duration ||
		res.Progress != parent.Progress
	return res, true
}
