package domain

import "errors"

// Domain errors.
var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrParentTask        = errors.New("parent task dates, duration and progress are derived from its subtasks")
	ErrHasChildren       = errors.New("task has subtasks")
	ErrInvalidMove       = errors.New("invalid move")
	ErrNoPreviousSibling = errors.New("task has no previous sibling to indent under")
	ErrTopLevel          = errors.New("task is already at the top level")
	ErrInvalidEdit       = errors.New("invalid edit")
	ErrEmptyName         = errors.New("task name cannot be empty")
)
