package service

import (
	"context"
	"time"

	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/importer"
	"github.com/alexanderramin/groundwork/internal/scheduler"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// Resolve finds a project by code (case-insensitive) or id.
	Resolve(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

// AddTaskRequest describes a new task and where it goes. Anchor is a
// hierarchy number or task id; it is ignored for PlaceEnd.
type AddTaskRequest struct {
	ProjectID    string
	Name         string
	Anchor       string
	Placement    domain.Placement
	Start        *time.Time // defaults to the anchor's start, or today
	Duration     int        // defaults to 1
	Predecessors []string
	Resources    string
	Notes        string
}

// ChangeResult reports what a schedule change did. Tasks is the project
// snapshot after the change, in outline order.
type ChangeResult struct {
	Task     *domain.Task // the added, edited or moved task; nil otherwise
	Renames  map[string]string
	Deleted  []string
	Patches  []domain.TaskPatch // date and roll-up changes written
	Warnings []string
	Passes   int
	Tasks    []*domain.Task
}

type ScheduleService interface {
	Tasks(ctx context.Context, projectID string) ([]*domain.Task, error)
	AddTask(ctx context.Context, req AddTaskRequest) (*ChangeResult, error)
	// EditTask applies edit to the task named by ref and cascades it.
	EditTask(ctx context.Context, projectID, ref string, edit domain.TaskPatch) (*ChangeResult, error)
	Indent(ctx context.Context, projectID, ref string) (*ChangeResult, error)
	Outdent(ctx context.Context, projectID, ref string) (*ChangeResult, error)
	Move(ctx context.Context, projectID, ref, targetRef string, where domain.Placement) (*ChangeResult, error)
	DeleteTask(ctx context.Context, projectID, ref string, cascade bool) (*ChangeResult, error)
	Recalculate(ctx context.Context, projectID string) (*ChangeResult, error)
	Check(ctx context.Context, projectID string) ([]scheduler.TaskReport, error)
}

// ImportResult holds the outcome of a schedule import.
type ImportResult struct {
	Project   *domain.Project
	TaskCount int
	Renames   map[string]string
	Warnings  []string
	Tasks     []*domain.Task
}

type ImportService interface {
	ImportProject(ctx context.Context, filePath string) (*ImportResult, error)
	ImportProjectFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
	// Preview converts and recalculates a schema without storing anything.
	Preview(schema *importer.ImportSchema) (*ImportResult, error)
}
