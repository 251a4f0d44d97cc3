package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/groundwork/internal/db"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/importer"
	"github.com/alexanderramin/groundwork/internal/repository"
	"github.com/alexanderramin/groundwork/internal/scheduler"
)

type importService struct {
	uow      db.UnitOfWork
	opts     EngineOptions
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, opts EngineOptions, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		opts:     opts.withDefaults(),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportProject(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportProjectFromSchema(ctx, schema)
}

func (s *importService) ImportProjectFromSchema(ctx context.Context, schema *importer.ImportSchema) (result *ImportResult, err error) {
	fields := map[string]any{"project_code": schema.Project.Code}
	done := track(ctx, s.observer, "import-project", fields)
	defer func() { done(err) }()

	result, err = s.Preview(schema)
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLiteProjectRepo(tx)
		txTasks := repository.NewSQLiteTaskRepo(tx)

		if _, lookupErr := txProjects.GetByCode(ctx, result.Project.Code); lookupErr == nil {
			return fmt.Errorf("project code %q is already in use", result.Project.Code)
		} else if !errors.Is(lookupErr, domain.ErrProjectNotFound) {
			return lookupErr
		}

		if err := txProjects.Create(ctx, result.Project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		for _, t := range result.Tasks {
			if err := txTasks.Create(ctx, t); err != nil {
				return fmt.Errorf("creating task %s %q: %w", t.HierarchyNumber, t.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["task_count"] = result.TaskCount
	fields["renamed"] = len(result.Renames)
	fields["warnings"] = len(result.Warnings)
	logWarnings(ctx, s.opts.Logger, "import-project", result.Project.ID, result.Warnings)
	return result, nil
}

// Preview validates, converts and recalculates a schema in memory.
func (s *importService) Preview(schema *importer.ImportSchema) (*ImportResult, error) {
	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	generated, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	patches, warnings := settledPatches(scheduler.RecalculateUntilStable(generated.Tasks, s.opts.MaxPasses))
	applyPatches(generated.Tasks, patches)

	return &ImportResult{
		Project:   generated.Project,
		TaskCount: len(generated.Tasks),
		Renames:   generated.Renames,
		Warnings:  warnings,
		Tasks:     generated.Tasks,
	}, nil
}
