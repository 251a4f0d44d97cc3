package outline

import (
	"testing"

	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/stretchr/testify/require"
)

func task(h string, preds ...string) *domain.Task {
	return &domain.Task{ID: "t" + h, HierarchyNumber: h, Predecessors: preds}
}

func outline(hs ...string) []*domain.Task {
	out := make([]*domain.Task, len(hs))
	for i, h := range hs {
		out[i] = task(h)
	}
	return out
}

// apply plays a plan against copies of tasks the way a store would, failing
// the test if two tasks ever share a number.
func apply(t *testing.T, tasks []*domain.Task, p Plan) []*domain.Task {
	t.Helper()
	gone := map[string]bool{}
	for _, id := range p.Deleted {
		gone[id] = true
	}
	var out []*domain.Task
	byID := map[string]*domain.Task{}
	held := map[string]string{}
	for _, orig := range domain.CloneTasks(tasks) {
		if gone[orig.ID] {
			continue
		}
		out = append(out, orig)
		byID[orig.ID] = orig
		held[orig.HierarchyNumber] = orig.ID
	}

	for _, u := range p.Updates {
		task := byID[u.TaskID]
		require.NotNil(t, task, "update for unknown task %s", u.TaskID)
		require.Equal(t, u.From, task.HierarchyNumber, "stale update for %s", u.TaskID)
		holder, taken := held[u.To]
		require.False(t, taken, "collision: %s → %s while %s holds it", u.From, u.To, holder)
		delete(held, u.From)
		held[u.To] = u.TaskID
		task.HierarchyNumber = u.To
	}
	for _, rw := range p.Rewrites {
		if task := byID[rw.TaskID]; task != nil {
			rw.Apply(task)
		}
	}
	return out
}

func hierarchyOf(tasks []*domain.Task) map[string]string {
	out := map[string]string{}
	for _, t := range tasks {
		out[t.ID] = t.HierarchyNumber
	}
	return out
}

func predsOf(tasks []*domain.Task, id string) []string {
	for _, t := range tasks {
		if t.ID == id {
			return t.Predecessors
		}
	}
	return nil
}
