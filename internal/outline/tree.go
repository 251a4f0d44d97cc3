// Package outline renumbers a project's hierarchy after structural edits.
//
// Every operation works on a snapshot: it builds the outline tree, changes
// its shape, renumbers every sibling group densely from 1 and returns a
// Plan. A Plan holds the hierarchy renames in an order that never puts two
// tasks on one number, plus the predecessor rewrites that follow from them.
// Callers apply both as one batch.
package outline

import (
	"sort"

	"github.com/alexanderramin/groundwork/internal/domain"
)

type node struct {
	task     *domain.Task // nil for the root and for a task being inserted
	parent   *node
	children []*node
}

func (n *node) index() int {
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

func (n *node) detach() {
	i := n.index()
	n.parent.children = append(n.parent.children[:i], n.parent.children[i+1:]...)
	n.parent = nil
}

func (n *node) insertChild(at int, c *node) {
	c.parent = n
	n.children = append(n.children, nil)
	copy(n.children[at+1:], n.children[at:])
	n.children[at] = c
}

// contains reports whether m is n or lies below n.
func (n *node) contains(m *node) bool {
	for ; m != nil; m = m.parent {
		if m == n {
			return true
		}
	}
	return false
}

func (n *node) walk(fn func(*node)) {
	for _, c := range n.children {
		fn(c)
		c.walk(fn)
	}
}

// tree is the outline of one snapshot.
type tree struct {
	root *node
	byID map[string]*node
	all  []*domain.Task
}

// build arranges tasks by hierarchy number. A task whose parent number is
// missing hangs under its nearest existing ancestor.
func build(tasks []*domain.Task) *tree {
	sorted := make([]*domain.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := domain.CompareHierarchy(sorted[i].HierarchyNumber, sorted[j].HierarchyNumber); c != 0 {
			return c < 0
		}
		return sorted[i].ID < sorted[j].ID
	})

	t := &tree{root: &node{}, byID: make(map[string]*node, len(tasks)), all: tasks}
	byHier := make(map[string]*node, len(tasks))
	for _, task := range sorted {
		parent := t.root
		for h := domain.ParentHierarchy(task.HierarchyNumber); h != ""; h = domain.ParentHierarchy(h) {
			if p, ok := byHier[h]; ok {
				parent = p
				break
			}
		}
		n := &node{task: task}
		parent.insertChild(len(parent.children), n)
		t.byID[task.ID] = n
		if _, dup := byHier[task.HierarchyNumber]; !dup {
			byHier[task.HierarchyNumber] = n
		}
	}
	return t
}

func (t *tree) find(id string) (*node, error) {
	n, ok := t.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return n, nil
}

// number assigns dense hierarchy numbers to every node, keyed by node.
func (t *tree) number() map[*node]string {
	out := map[*node]string{}
	var visit func(n *node, prefix []int)
	visit = func(n *node, prefix []int) {
		for i, c := range n.children {
			segs := append(append([]int(nil), prefix...), i+1)
			out[c] = domain.JoinHierarchy(segs)
			visit(c, segs)
		}
	}
	visit(t.root, nil)
	return out
}
