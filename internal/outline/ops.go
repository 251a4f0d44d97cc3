package outline

import (
	"fmt"

	"github.com/alexanderramin/groundwork/internal/domain"
)

// InsertAbove plans a new task in the slot of anchor; anchor and the
// siblings after it shift down by one.
func InsertAbove(tasks []*domain.Task, anchorID string) (Plan, error) {
	return insertBeside(tasks, anchorID, 0)
}

// InsertBelow plans a new task directly after anchor among its siblings.
func InsertBelow(tasks []*domain.Task, anchorID string) (Plan, error) {
	return insertBeside(tasks, anchorID, 1)
}

func insertBeside(tasks []*domain.Task, anchorID string, offset int) (Plan, error) {
	t := build(tasks)
	anchor, err := t.find(anchorID)
	if err != nil {
		return Plan{}, fmt.Errorf("anchor %s: %w", anchorID, err)
	}
	placeholder := &node{}
	anchor.parent.insertChild(anchor.index()+offset, placeholder)
	return t.plan(placeholder, nil), nil
}

// Append plans a new task as the last child of parentID, or at the end of
// the outline when parentID is empty.
func Append(tasks []*domain.Task, parentID string) (Plan, error) {
	t := build(tasks)
	parent := t.root
	if parentID != "" {
		var err error
		if parent, err = t.find(parentID); err != nil {
			return Plan{}, fmt.Errorf("parent %s: %w", parentID, err)
		}
	}
	placeholder := &node{}
	parent.insertChild(len(parent.children), placeholder)
	return t.plan(placeholder, nil), nil
}

// Indent makes a task, with its subtree, the last child of its previous
// sibling.
func Indent(tasks []*domain.Task, id string) (Plan, error) {
	t := build(tasks)
	n, err := t.find(id)
	if err != nil {
		return Plan{}, err
	}
	i := n.index()
	if i == 0 {
		return Plan{}, fmt.Errorf("task %s: %w", n.task.HierarchyNumber, domain.ErrNoPreviousSibling)
	}
	prev := n.parent.children[i-1]
	n.detach()
	prev.insertChild(len(prev.children), n)
	return t.plan(n, nil), nil
}

// Outdent makes a task, with its subtree, the next sibling of its parent.
func Outdent(tasks []*domain.Task, id string) (Plan, error) {
	t := build(tasks)
	n, err := t.find(id)
	if err != nil {
		return Plan{}, err
	}
	parent := n.parent
	if parent == t.root {
		return Plan{}, fmt.Errorf("task %s: %w", n.task.HierarchyNumber, domain.ErrTopLevel)
	}
	n.detach()
	parent.parent.insertChild(parent.index()+1, n)
	return t.plan(n, nil), nil
}

// Move places a task, with its subtree, above or below target, into target
// as its last child, or at the end of the outline (target ignored).
func Move(tasks []*domain.Task, id, targetID string, where domain.Placement) (Plan, error) {
	t := build(tasks)
	n, err := t.find(id)
	if err != nil {
		return Plan{}, err
	}
	if where == domain.PlaceEnd {
		n.detach()
		t.root.insertChild(len(t.root.children), n)
		return t.plan(n, nil), nil
	}

	target, err := t.find(targetID)
	if err != nil {
		return Plan{}, fmt.Errorf("target %s: %w", targetID, err)
	}
	if n.contains(target) {
		return Plan{}, fmt.Errorf("%w: cannot move %s relative to itself or its own subtask %s",
			domain.ErrInvalidMove, n.task.HierarchyNumber, target.task.HierarchyNumber)
	}

	switch where {
	case domain.PlaceAbove, domain.PlaceBelow, domain.PlaceInto:
	default:
		return Plan{}, fmt.Errorf("%w: unknown placement %q", domain.ErrInvalidMove, where)
	}

	n.detach()
	switch where {
	case domain.PlaceAbove:
		target.parent.insertChild(target.index(), n)
	case domain.PlaceBelow:
		target.parent.insertChild(target.index()+1, n)
	case domain.PlaceInto:
		target.insertChild(len(target.children), n)
	}
	return t.plan(n, nil), nil
}

// Delete removes a task. A task with subtasks is only removed together with
// its whole subtree, and only when cascade is set. Predecessor entries that
// point at a removed task are dropped everywhere.
func Delete(tasks []*domain.Task, id string, cascade bool) (Plan, error) {
	t := build(tasks)
	n, err := t.find(id)
	if err != nil {
		return Plan{}, err
	}
	if len(n.children) > 0 && !cascade {
		return Plan{}, fmt.Errorf("task %s: %w", n.task.HierarchyNumber, domain.ErrHasChildren)
	}

	removed := []*domain.Task{n.task}
	n.walk(func(c *node) { removed = append(removed, c.task) })
	n.detach()
	return t.plan(nil, removed), nil
}

// Renumber closes gaps in the outline without changing its shape.
func Renumber(tasks []*domain.Task) Plan {
	return build(tasks).plan(nil, nil)
}
