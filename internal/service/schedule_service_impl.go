package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/db"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/outline"
	"github.com/alexanderramin/groundwork/internal/repository"
	"github.com/alexanderramin/groundwork/internal/scheduler"
	"github.com/google/uuid"
)

type scheduleService struct {
	tasks    repository.TaskRepo
	uow      db.UnitOfWork
	opts     EngineOptions
	observer UseCaseObserver
}

// NewScheduleService builds the schedule use cases. Every change runs in one
// transaction: structural writes, the new or edited task, then the
// recalculated dates.
func NewScheduleService(tasks repository.TaskRepo, uow db.UnitOfWork, opts EngineOptions, observers ...UseCaseObserver) ScheduleService {
	return &scheduleService{
		tasks:    tasks,
		uow:      uow,
		opts:     opts.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *scheduleService) Tasks(ctx context.Context, projectID string) ([]*domain.Task, error) {
	return s.tasks.ListByProject(ctx, projectID)
}

// load opens the project's snapshot inside a transaction.
func load(ctx context.Context, tx db.DBTX, projectID string) (*repository.SQLiteTaskRepo, []*domain.Task, error) {
	if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID); err != nil {
		return nil, nil, err
	}
	repo := repository.NewSQLiteTaskRepo(tx)
	tasks, err := repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return repo, tasks, nil
}

// applyPlan stores a structural plan: deletions, renames, the new task if
// any, then predecessor rewrites.
func applyPlan(ctx context.Context, repo repository.TaskRepo, plan outline.Plan, created *domain.Task) error {
	if len(plan.Deleted) > 0 {
		if err := repo.Delete(ctx, plan.Deleted...); err != nil {
			return err
		}
	}
	if err := repo.ApplyHierarchyUpdates(ctx, plan.Updates); err != nil {
		return err
	}
	if created != nil {
		if err := repo.Create(ctx, created); err != nil {
			return fmt.Errorf("creating task %q: %w", created.Name, err)
		}
	}
	return repo.ApplyPatches(ctx, plan.Rewrites)
}

// settle recalculates the stored project until it is stable and records
// the outcome in res.
func (s *scheduleService) settle(ctx context.Context, repo repository.TaskRepo, projectID string, res *ChangeResult) error {
	tasks, err := repo.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	rc := scheduler.RecalculateUntilStable(tasks, s.opts.MaxPasses)
	patches, warnings := settledPatches(rc)
	if err := repo.ApplyPatches(ctx, patches); err != nil {
		return fmt.Errorf("storing recalculated dates: %w", err)
	}
	applyPatches(tasks, patches)
	res.Patches = append(res.Patches, patches...)
	res.Warnings = append(res.Warnings, warnings...)
	res.Passes = rc.Passes
	res.Tasks = tasks
	return nil
}

func (s *scheduleService) finish(ctx context.Context, useCase, projectID string, fields map[string]any, res *ChangeResult) {
	fields["patches"] = len(res.Patches)
	fields["renamed"] = len(res.Renames)
	fields["warnings"] = len(res.Warnings)
	logWarnings(ctx, s.opts.Logger, useCase, projectID, res.Warnings)
}

func (s *scheduleService) AddTask(ctx context.Context, req AddTaskRequest) (res *ChangeResult, err error) {
	fields := map[string]any{"project_id": req.ProjectID, "placement": string(req.Placement), "anchor": req.Anchor}
	done := track(ctx, s.observer, "add-task", fields)
	defer func() { done(err) }()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo, tasks, loadErr := load(ctx, tx, req.ProjectID)
		if loadErr != nil {
			return loadErr
		}

		plan, anchor, planErr := s.planInsert(tasks, req)
		if planErr != nil {
			return planErr
		}

		start := calendar.SnapForward(s.opts.Now())
		switch {
		case req.Start != nil:
			start = calendar.SnapForward(*req.Start)
		case anchor != nil:
			start = anchor.StartDate
		}
		duration := max(req.Duration, 1)
		preds, _ := scheduler.RewriteRefs(scheduler.NormalizePredecessors(req.Predecessors), plan.Renames)

		now := time.Now().UTC()
		task := &domain.Task{
			ID:              uuid.New().String(),
			ProjectID:       req.ProjectID,
			HierarchyNumber: plan.Hierarchy,
			Name:            name,
			StartDate:       start,
			EndDate:         calendar.BusinessEndDate(start, duration),
			Duration:        duration,
			Predecessors:    preds,
			Resources:       req.Resources,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if len(preds) > 0 {
			v := scheduler.ValidatePredecessors(task, preds, projectAfter(tasks, plan, task))
			if !v.Valid {
				return &scheduler.ValidationError{Hierarchy: task.HierarchyNumber, Result: v}
			}
		}

		if err := applyPlan(ctx, repo, plan, task); err != nil {
			return err
		}
		res = &ChangeResult{Renames: plan.Renames}
		if err := s.settle(ctx, repo, req.ProjectID, res); err != nil {
			return err
		}
		res.Task = taskByID(res.Tasks, task.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["hierarchy"] = res.Task.HierarchyNumber
	s.finish(ctx, "add-task", req.ProjectID, fields, res)
	return res, nil
}

func (s *scheduleService) planInsert(tasks []*domain.Task, req AddTaskRequest) (outline.Plan, *domain.Task, error) {
	if req.Placement == "" || req.Placement == domain.PlaceEnd {
		plan, err := outline.Append(tasks, "")
		return plan, nil, err
	}

	anchor, err := findTask(tasks, req.Anchor)
	if err != nil {
		return outline.Plan{}, nil, err
	}
	var plan outline.Plan
	switch req.Placement {
	case domain.PlaceAbove:
		plan, err = outline.InsertAbove(tasks, anchor.ID)
	case domain.PlaceBelow:
		plan, err = outline.InsertBelow(tasks, anchor.ID)
	case domain.PlaceInto:
		plan, err = outline.Append(tasks, anchor.ID)
	default:
		err = fmt.Errorf("%w: unknown placement %q", domain.ErrInvalidMove, req.Placement)
	}
	return plan, anchor, err
}

func (s *scheduleService) EditTask(ctx context.Context, projectID, ref string, edit domain.TaskPatch) (res *ChangeResult, err error) {
	fields := map[string]any{"project_id": projectID, "task": ref}
	done := track(ctx, s.observer, "edit-task", fields)
	defer func() { done(err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo, tasks, loadErr := load(ctx, tx, projectID)
		if loadErr != nil {
			return loadErr
		}
		target, findErr := findTask(tasks, ref)
		if findErr != nil {
			return findErr
		}
		edit.TaskID = target.ID

		er, editErr := scheduler.ApplyEdit(edit, tasks)
		if editErr != nil {
			return editErr
		}
		if err := repo.ApplyPatches(ctx, er.Patches); err != nil {
			return err
		}
		applyPatches(tasks, er.Patches)

		res = &ChangeResult{
			Task:     taskByID(tasks, target.ID),
			Patches:  er.Patches,
			Warnings: append(er.Validation.Warnings, er.Warnings...),
			Passes:   1,
			Tasks:    tasks,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.finish(ctx, "edit-task", projectID, fields, res)
	return res, nil
}

// restructure runs one outline operation. build receives the snapshot and
// the task ref names.
func (s *scheduleService) restructure(
	ctx context.Context,
	useCase, projectID, ref string,
	build func(tasks []*domain.Task, target *domain.Task) (outline.Plan, error),
) (res *ChangeResult, err error) {
	fields := map[string]any{"project_id": projectID, "task": ref}
	done := track(ctx, s.observer, useCase, fields)
	defer func() { done(err) }()

	var focus string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo, tasks, loadErr := load(ctx, tx, projectID)
		if loadErr != nil {
			return loadErr
		}
		target, findErr := findTask(tasks, ref)
		if findErr != nil {
			return findErr
		}
		plan, planErr := build(tasks, target)
		if planErr != nil {
			return planErr
		}
		if plan.Hierarchy != "" {
			focus = target.ID
		}

		if err := applyPlan(ctx, repo, plan, nil); err != nil {
			return err
		}
		res = &ChangeResult{Renames: plan.Renames, Deleted: plan.Deleted}
		if err := s.settle(ctx, repo, projectID, res); err != nil {
			return err
		}
		if focus != "" {
			res.Task = taskByID(res.Tasks, focus)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["deleted"] = len(res.Deleted)
	s.finish(ctx, useCase, projectID, fields, res)
	return res, nil
}

func (s *scheduleService) Indent(ctx context.Context, projectID, ref string) (*ChangeResult, error) {
	return s.restructure(ctx, "indent-task", projectID, ref, func(tasks []*domain.Task, target *domain.Task) (outline.Plan, error) {
		return outline.Indent(tasks, target.ID)
	})
}

func (s *scheduleService) Outdent(ctx context.Context, projectID, ref string) (*ChangeResult, error) {
	return s.restructure(ctx, "outdent-task", projectID, ref, func(tasks []*domain.Task, target *domain.Task) (outline.Plan, error) {
		return outline.Outdent(tasks, target.ID)
	})
}

func (s *scheduleService) Move(ctx context.Context, projectID, ref, targetRef string, where domain.Placement) (*ChangeResult, error) {
	return s.restructure(ctx, "move-task", projectID, ref, func(tasks []*domain.Task, target *domain.Task) (outline.Plan, error) {
		if where == domain.PlaceEnd {
			return outline.Move(tasks, target.ID, "", where)
		}
		dest, err := findTask(tasks, targetRef)
		if err != nil {
			return outline.Plan{}, err
		}
		return outline.Move(tasks, target.ID, dest.ID, where)
	})
}

func (s *scheduleService) DeleteTask(ctx context.Context, projectID, ref string, cascade bool) (*ChangeResult, error) {
	return s.restructure(ctx, "delete-task", projectID, ref, func(tasks []*domain.Task, target *domain.Task) (outline.Plan, error) {
		return outline.Delete(tasks, target.ID, cascade)
	})
}

func (s *scheduleService) Recalculate(ctx context.Context, projectID string) (res *ChangeResult, err error) {
	fields := map[string]any{"project_id": projectID}
	done := track(ctx, s.observer, "recalculate", fields)
	defer func() { done(err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo, _, loadErr := load(ctx, tx, projectID)
		if loadErr != nil {
			return loadErr
		}
		res = &ChangeResult{}
		return s.settle(ctx, repo, projectID, res)
	})
	if err != nil {
		return nil, err
	}
	fields["passes"] = res.Passes
	s.finish(ctx, "recalculate", projectID, fields, res)
	return res, nil
}

func (s *scheduleService) Check(ctx context.Context, projectID string) ([]scheduler.TaskReport, error) {
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return scheduler.ValidateAll(tasks), nil
}
