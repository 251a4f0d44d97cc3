package repository

import (
	"context"

	"github.com/alexanderramin/groundwork/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByCode(ctx context.Context, code string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

// TaskRepo is the task store: a full project snapshot on read, and batch
// writes that callers run inside one transaction.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// ListByProject returns every task of a project in outline order.
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	ApplyPatches(ctx context.Context, patches []domain.TaskPatch) error
	// ApplyHierarchyUpdates renames tasks strictly in the given order.
	ApplyHierarchyUpdates(ctx context.Context, updates []domain.HierarchyUpdate) error
	Delete(ctx context.Context, ids ...string) error
}
