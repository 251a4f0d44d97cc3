package scheduler

import (
	"sort"
	"strings"

	"github.com/alexanderramin/groundwork/internal/domain"
)

// taskIndex keys one project snapshot by id and by hierarchy number.
type taskIndex struct {
	tasks    []*domain.Task
	byID     map[string]*domain.Task
	byHier   map[string]*domain.Task
	isParent map[string]bool // hierarchy numbers with at least one descendant
}

func newTaskIndex(tasks []*domain.Task) *taskIndex {
	ix := &taskIndex{
		tasks:    tasks,
		byID:     make(map[string]*domain.Task, len(tasks)),
		byHier:   make(map[string]*domain.Task, len(tasks)),
		isParent: make(map[string]bool),
	}
	for _, t := range tasks {
		ix.byID[t.ID] = t
		if _, dup := ix.byHier[t.HierarchyNumber]; !dup {
			ix.byHier[t.HierarchyNumber] = t
		}
		for h := domain.ParentHierarchy(t.HierarchyNumber); h != ""; h = domain.ParentHierarchy(h) {
			ix.isParent[h] = true
		}
	}
	return ix
}

// resolve finds the task an expression points at: by hierarchy number
// first, then by id.
func (ix *taskIndex) resolve(p Predecessor) *domain.Task {
	if p.Valid() {
		if t, ok := ix.byHier[p.TaskRef]; ok {
			return t
		}
		if t, ok := ix.byID[p.TaskRef]; ok {
			return t
		}
	}
	if t, ok := ix.byID[strings.TrimSpace(p.Raw)]; ok {
		return t
	}
	return nil
}

func (ix *taskIndex) parent(t *domain.Task) bool {
	return ix.isParent[t.HierarchyNumber]
}

// descendants returns every task below h in the outline.
func (ix *taskIndex) descendants(h string) []*domain.Task {
	var out []*domain.Task
	for _, t := range ix.tasks {
		if domain.IsAncestor(h, t.HierarchyNumber) {
			out = append(out, t)
		}
	}
	return out
}

// ancestors returns the existing ancestors of t, deepest first.
func (ix *taskIndex) ancestors(t *domain.Task) []*domain.Task {
	var out []*domain.Task
	for h := domain.ParentHierarchy(t.HierarchyNumber); h != ""; h = domain.ParentHierarchy(h) {
		if a, ok := ix.byHier[h]; ok {
			out = append(out, a)
		}
	}
	return out
}

// sortedByHierarchy returns tasks in outline order, ties broken by id.
func sortedByHierarchy(tasks []*domain.Task) []*domain.Task {
	out := make([]*domain.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		if c := domain.CompareHierarchy(out[i].HierarchyNumber, out[j].HierarchyNumber); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
