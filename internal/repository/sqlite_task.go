package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/db"
	"github.com/alexanderramin/groundwork/internal/domain"
)

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

const taskColumns = `id, project_id, hierarchy_number, name, start_date, end_date, duration, progress,
	predecessors, resources, notes, created_at, updated_at`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	preds, err := encodePredecessors(t.Predecessors)
	if err != nil {
		return err
	}
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		t.HierarchyNumber,
		t.Name,
		calendar.Format(t.StartDate),
		calendar.Format(t.EndDate),
		t.Duration,
		t.Progress,
		preds,
		t.Resources,
		t.Notes,
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task %s: %w", t.HierarchyNumber, err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
	}
	return t, err
}

func (r *SQLiteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	// Hierarchy numbers sort naturally, not as text.
	sort.SliceStable(tasks, func(i, j int) bool {
		return domain.CompareHierarchy(tasks[i].HierarchyNumber, tasks[j].HierarchyNumber) < 0
	})
	return tasks, nil
}

// ApplyPatches writes only the fields each patch sets.
func (r *SQLiteTaskRepo) ApplyPatches(ctx context.Context, patches []domain.TaskPatch) error {
	now := nowUTC()
	for _, p := range patches {
		if p.IsEmpty() {
			continue
		}
		var (
			sets []string
			args []any
		)
		set := func(col string, v any) {
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
		if p.Name != nil {
			set("name", *p.Name)
		}
		if p.StartDate != nil {
			set("start_date", calendar.Format(*p.StartDate))
		}
		if p.EndDate != nil {
			set("end_date", calendar.Format(*p.EndDate))
		}
		if p.Duration != nil {
			set("duration", *p.Duration)
		}
		if p.Progress != nil {
			set("progress", *p.Progress)
		}
		if p.Predecessors != nil {
			preds, err := encodePredecessors(*p.Predecessors)
			if err != nil {
				return err
			}
			set("predecessors", preds)
		}
		if p.Resources != nil {
			set("resources", *p.Resources)
		}
		if p.Notes != nil {
			set("notes", *p.Notes)
		}
		set("updated_at", now)
		args = append(args, p.TaskID)

		query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("updating task %s: %w", p.TaskID, err)
		}
		if err := expectRow(res, fmt.Errorf("task %s: %w", p.TaskID, domain.ErrTaskNotFound)); err != nil {
			return err
		}
	}
	return nil
}

// ApplyHierarchyUpdates renames tasks one at a time. Each rename checks the
// task still carries its From number, and the unique index rejects any
// transient collision.
func (r *SQLiteTaskRepo) ApplyHierarchyUpdates(ctx context.Context, updates []domain.HierarchyUpdate) error {
	now := nowUTC()
	for _, u := range updates {
		res, err := r.db.ExecContext(ctx,
			`UPDATE tasks SET hierarchy_number = ?, updated_at = ? WHERE id = ? AND hierarchy_number = ?`,
			u.To, now, u.TaskID, u.From)
		if err != nil {
			return fmt.Errorf("renumbering task %s from %s to %s: %w", u.TaskID, u.From, u.To, err)
		}
		if err := expectRow(res, fmt.Errorf("task %s at %s: %w", u.TaskID, u.From, domain.ErrTaskNotFound)); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting task %s: %w", id, err)
		}
		if err := expectRow(res, fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)); err != nil {
			return err
		}
	}
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var startStr, endStr, predsStr, createdAtStr, updatedAtStr string
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.HierarchyNumber, &t.Name,
		&startStr, &endStr, &t.Duration, &t.Progress,
		&predsStr, &t.Resources, &t.Notes,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	if t.StartDate, err = parseDate(startStr, "start_date"); err != nil {
		return nil, err
	}
	if t.EndDate, err = parseDate(endStr, "end_date"); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTimestamp(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTimestamp(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	t.Predecessors = decodePredecessors(predsStr)
	return &t, nil
}
