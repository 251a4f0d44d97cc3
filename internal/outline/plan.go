package outline

import (
	"slices"
	"sort"

	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/scheduler"
)

// tempPrefix marks a parking number used to break a rename cycle. It can
// never collide with a real hierarchy number.
const tempPrefix = "~"

// Plan is the outcome of one structural edit.
type Plan struct {
	// Hierarchy is the final number of the inserted or moved task.
	Hierarchy string
	// Renames maps every old hierarchy number that changes to its new one.
	Renames map[string]string
	// Updates applies Renames without transient collisions, in order.
	Updates []domain.HierarchyUpdate
	// Rewrites carries the new predecessor list of every task whose
	// references changed.
	Rewrites []domain.TaskPatch
	// Deleted lists the ids a delete removes, subtree included.
	Deleted []string
}

// IsEmpty reports whether the plan changes nothing.
func (p Plan) IsEmpty() bool {
	return len(p.Updates) == 0 && len(p.Rewrites) == 0 && len(p.Deleted) == 0
}

// plan renumbers t and derives the updates and rewrites. focus is the node
// whose final number goes into Plan.Hierarchy; removed are tasks already
// cut from t.
func (t *tree) plan(focus *node, removed []*domain.Task) Plan {
	numbers := t.number()
	p := Plan{Renames: map[string]string{}}
	if focus != nil {
		p.Hierarchy = numbers[focus]
	}

	var renames []domain.HierarchyUpdate
	t.root.walk(func(n *node) {
		if n.task == nil {
			return
		}
		if to := numbers[n]; to != n.task.HierarchyNumber {
			renames = append(renames, domain.HierarchyUpdate{TaskID: n.task.ID, From: n.task.HierarchyNumber, To: to})
			p.Renames[n.task.HierarchyNumber] = to
		}
	})

	gone := map[string]bool{}
	for _, r := range removed {
		p.Deleted = append(p.Deleted, r.ID)
		gone[r.HierarchyNumber] = true
		gone[r.ID] = true
	}

	p.Updates = orderUpdates(renames, t.all, gone)

	for _, task := range t.all {
		if gone[task.ID] {
			continue
		}
		preds, dropped := scheduler.DropRefs(task.Predecessors, gone)
		preds, moved := scheduler.RewriteRefs(preds, p.Renames)
		if dropped || moved {
			v := slices.Clone(preds)
			p.Rewrites = append(p.Rewrites, domain.TaskPatch{TaskID: task.ID, Predecessors: &v})
		}
	}
	return p
}

// orderUpdates sequences renames so no number is held by two tasks at once.
// A rename runs as soon as its target is free; when every pending rename is
// blocked by another, one task is parked on a temporary number first.
func orderUpdates(renames []domain.HierarchyUpdate, all []*domain.Task, removed map[string]bool) []domain.HierarchyUpdate {
	occupied := map[string]int{}
	for _, t := range all {
		if !removed[t.ID] {
			occupied[t.HierarchyNumber]++
		}
	}

	pending := slices.Clone(renames)
	// Highest numbers first: shifting a run up then needs no parking.
	sort.SliceStable(pending, func(i, j int) bool {
		return domain.CompareHierarchy(pending[i].From, pending[j].From) > 0
	})

	var out []domain.HierarchyUpdate
	move := func(u domain.HierarchyUpdate) {
		out = append(out, u)
		occupied[u.From]--
		occupied[u.To]++
	}
	for len(pending) > 0 {
		progressed := false
		rest := pending[:0]
		for _, u := range pending {
			if occupied[u.To] == 0 {
				move(u)
				progressed = true
			} else {
				rest = append(rest, u)
			}
		}
		pending = rest
		if progressed || len(pending) == 0 {
			continue
		}
		park := pending[0]
		tmp := tempPrefix + park.TaskID
		move(domain.HierarchyUpdate{TaskID: park.TaskID, From: park.From, To: tmp})
		pending[0].From = tmp
	}
	return out
}
