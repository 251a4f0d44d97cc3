package scheduler

import (
	"fmt"
	"sort"

	"github.com/alexanderramin/groundwork/internal/domain"
)

// DefaultMaxPasses bounds RecalculateUntilStable when no limit is given.
const DefaultMaxPasses = 50

// Result is the outcome of a recalculation: the patches to apply as one
// batch, plus anything the engine skipped along the way.
type Result struct {
	Patches   []domain.TaskPatch
	Warnings  []string
	Passes    int
	Converged bool
}

// TopologicalOrder returns tasks ordered so every task follows the tasks it
// depends on: its predecessors and, for a parent, its descendants. Roots
// are visited in outline order. A predecessor edge that closes a cycle is
// skipped and reported, never fatal.
func TopologicalOrder(tasks []*domain.Task) (order []*domain.Task, warnings []string) {
	order, _, warnings = topoSort(newTaskIndex(tasks))
	return order, warnings
}

func topoSort(ix *taskIndex) ([]*domain.Task, map[edge]bool, []string) {
	const (
		unvisited = iota
		visiting
		done
	)
	skipped := map[edge]bool{}
	var warnings []string
	skip := func(e edge) {
		if skipped[e] {
			return
		}
		skipped[e] = true
		warnings = append(warnings, fmt.Sprintf("dependency cycle: ignoring %s → %s",
			ix.byID[e.from].HierarchyNumber, ix.byID[e.to].HierarchyNumber))
	}

	roots := sortedByHierarchy(ix.tasks)
	for {
		state := make(map[string]int, len(ix.tasks))
		order := make([]*domain.Task, 0, len(ix.tasks))
		// path holds the predecessor edges of the current walk, innermost last.
		var path []edge
		restart := false

		var visit func(t *domain.Task)
		visit = func(t *domain.Task) {
			state[t.ID] = visiting
			for _, p := range ParsePredecessors(t.Predecessors) {
				pred := ix.resolve(p)
				if pred == nil || pred.ID == t.ID {
					continue
				}
				e := edge{pred.ID, t.ID}
				if skipped[e] {
					continue
				}
				switch state[pred.ID] {
				case visiting:
					skip(e)
				case unvisited:
					path = append(path, e)
					visit(pred)
					path = path[:len(path)-1]
				}
			}
			if ix.parent(t) {
				for _, d := range ix.descendants(t.HierarchyNumber) {
					switch state[d.ID] {
					case visiting:
						// A roll-up cannot be ignored, so the cycle is broken
						// at the innermost predecessor edge leading back here.
						// The walk from d down to t must contain one, since
						// roll-up steps only go deeper. Other routes from d
						// to t may remain, hence the fresh walk.
						if len(path) > 0 {
							skip(path[len(path)-1])
							restart = true
						}
					case unvisited:
						visit(d)
					}
				}
			}
			state[t.ID] = done
			order = append(order, t)
		}

		for _, t := range roots {
			if state[t.ID] == unvisited {
				visit(t)
			}
		}
		if !restart {
			return order, skipped, warnings
		}
	}
}

// snapshot is a private copy of a project's tasks that passes update in
// place. Patches are the difference between the copy and the input.
type snapshot struct {
	orig     map[string]*domain.Task
	ix       *taskIndex
	order    []*domain.Task
	pos      map[string]int
	skipped  map[edge]bool
	changed  []string // task ids in order of first change
	touched  map[string]bool
	warnings []string
	warned   map[string]bool
}

func newSnapshot(tasks []*domain.Task) *snapshot {
	s := &snapshot{
		orig:    make(map[string]*domain.Task, len(tasks)),
		touched: map[string]bool{},
		warned:  map[string]bool{},
		pos:     make(map[string]int, len(tasks)),
	}
	for _, t := range tasks {
		s.orig[t.ID] = t
	}
	s.ix = newTaskIndex(domain.CloneTasks(tasks))
	var warnings []string
	s.order, s.skipped, warnings = topoSort(s.ix)
	for i, t := range s.order {
		s.pos[t.ID] = i
	}
	s.warn(warnings...)
	return s
}

func (s *snapshot) warn(msgs ...string) {
	for _, m := range msgs {
		if !s.warned[m] {
			s.warned[m] = true
			s.warnings = append(s.warnings, m)
		}
	}
}

// updateLeaf recomputes a leaf from its predecessors and reports a change.
func (s *snapshot) updateLeaf(t *domain.Task) bool {
	res, ok, warnings := computeDates(t, s.ix, s.skipped)
	s.warn(warnings...)
	if !ok || (res.StartDate.Equal(t.StartDate) && res.EndDate.Equal(t.EndDate)) {
		return false
	}
	t.StartDate, t.EndDate = res.StartDate, res.EndDate
	s.markChanged(t)
	return true
}

// updateParent rolls a parent up from its descendants and reports a change.
func (s *snapshot) updateParent(t *domain.Task) bool {
	res, ok := rollUp(t, s.ix)
	if !ok || !res.ShouldUpdate {
		return false
	}
	t.StartDate, t.EndDate, t.Duration, t.Progress = res.StartDate, res.EndDate, res.Duration, res.Progress
	s.markChanged(t)
	return true
}

func (s *snapshot) markChanged(t *domain.Task) {
	if !s.touched[t.ID] {
		s.touched[t.ID] = true
		s.changed = append(s.changed, t.ID)
	}
}

// pass runs one leaf pass in dependency order, then one parent pass deepest
// first.
func (s *snapshot) pass() bool {
	changed := false
	for _, t := range s.order {
		if !s.ix.parent(t) && s.updateLeaf(t) {
			changed = true
		}
	}
	for _, t := range s.parentsDeepestFirst(s.order) {
		if s.updateParent(t) {
			changed = true
		}
	}
	return changed
}

func (s *snapshot) parentsDeepestFirst(tasks []*domain.Task) []*domain.Task {
	var parents []*domain.Task
	for _, t := range tasks {
		if s.ix.parent(t) {
			parents = append(parents, t)
		}
	}
	sort.SliceStable(parents, func(i, j int) bool {
		di, dj := parents[i].Depth(), parents[j].Depth()
		if di != dj {
			return di > dj
		}
		return domain.CompareHierarchy(parents[i].HierarchyNumber, parents[j].HierarchyNumber) < 0
	})
	return parents
}

// result diffs the snapshot against the input tasks.
func (s *snapshot) result() Result {
	res := Result{Warnings: s.warnings}
	for _, id := range s.changed {
		cur, orig := s.ix.byID[id], s.orig[id]
		p := domain.TaskPatch{TaskID: id}
		if !cur.StartDate.Equal(orig.StartDate) {
			v := cur.StartDate
			p.StartDate = &v
		}
		if !cur.EndDate.Equal(orig.EndDate) {
			v := cur.EndDate
			p.EndDate = &v
		}
		if cur.Duration != orig.Duration {
			v := cur.Duration
			p.Duration = &v
		}
		if cur.Progress != orig.Progress {
			v := cur.Progress
			p.Progress = &v
		}
		if !p.IsEmpty() {
			res.Patches = append(res.Patches, p)
		}
	}
	return res
}

// Recalculate runs exactly one leaf pass and one parent pass over the whole
// project.
func Recalculate(tasks []*domain.Task) Result {
	s := newSnapshot(tasks)
	changed := s.pass()
	res := s.result()
	res.Passes = 1
	res.Converged = !changed
	return res
}

// RecalculateUntilStable repeats the single pass until nothing changes or
// maxPasses is reached. Patches from all passes are merged per task.
func RecalculateUntilStable(tasks []*domain.Task, maxPasses int) Result {
	if maxPasses < 1 {
		maxPasses = DefaultMaxPasses
	}
	s := newSnapshot(tasks)
	passes, converged := 0, false
	for passes < maxPasses {
		passes++
		if !s.pass() {
			converged = true
			break
		}
	}
	if !converged {
		s.warn(fmt.Sprintf("schedule did not settle after %d passes", maxPasses))
	}
	res := s.result()
	res.Passes = passes
	res.Converged = converged
	return res
}

// Cascade propagates an edit already present in tasks to everything that
// depends on the edited tasks. Each dependent is recomputed at most once;
// the edited tasks themselves are never recomputed. Ancestors of every
// changed task roll up, and a parent that changes passes the change on to
// its own dependents.
func Cascade(tasks []*domain.Task, changedIDs ...string) Result {
	s := newSnapshot(tasks)
	dependents := s.dependentsIndex()
	processed := map[string]bool{}

	var dirty []*domain.Task
	for _, id := range changedIDs {
		if t, ok := s.ix.byID[id]; ok {
			processed[id] = true
			dirty = append(dirty, t)
		}
	}

	for len(dirty) > 0 {
		// Leaves reachable from the dirty set, in dependency order.
		reach := map[string]bool{}
		var stack []string
		for _, t := range dirty {
			stack = append(stack, t.ID)
		}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, dep := range dependents[id] {
				if reach[dep] || processed[dep] || s.ix.parent(s.ix.byID[dep]) {
					continue
				}
				reach[dep] = true
				stack = append(stack, dep)
			}
		}
		leaves := make([]*domain.Task, 0, len(reach))
		for id := range reach {
			leaves = append(leaves, s.ix.byID[id])
		}
		sort.Slice(leaves, func(i, j int) bool { return s.pos[leaves[i].ID] < s.pos[leaves[j].ID] })

		changedLeaves := append([]*domain.Task(nil), dirty...)
		for _, t := range leaves {
			processed[t.ID] = true
			if s.updateLeaf(t) {
				changedLeaves = append(changedLeaves, t)
			}
		}

		// Ancestors of everything that moved, deepest first.
		anc := map[string]*domain.Task{}
		for _, t := range changedLeaves {
			for _, a := range s.ix.ancestors(t) {
				anc[a.ID] = a
			}
		}
		ancList := make([]*domain.Task, 0, len(anc))
		for _, a := range anc {
			ancList = append(ancList, a)
		}
		dirty = dirty[:0]
		for _, a := range s.parentsDeepestFirst(ancList) {
			if s.updateParent(a) {
				dirty = append(dirty, a)
			}
		}
	}

	res := s.result()
	res.Passes = 1
	res.Converged = true
	return res
}

// dependentsIndex maps a task id to the ids of tasks that name it as a
// predecessor, skipping cycle edges.
func (s *snapshot) dependentsIndex() map[string][]string {
	out := map[string][]string{}
	for _, t := range s.order {
		for _, p := range ParsePredecessors(t.Predecessors) {
			pred := s.ix.resolve(p)
			if pred == nil || pred.ID == t.ID || s.skipped[edge{pred.ID, t.ID}] {
				continue
			}
			out[pred.ID] = append(out[pred.ID], t.ID)
		}
	}
	return out
}
