package service

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/db"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/repository"
	"github.com/alexanderramin/groundwork/internal/testutil"
	"github.com/stretchr/testify/require"
)

// saturday is a weekend "today" so default starts visibly snap forward.
var saturday = calendar.Date(2024, time.June, 8)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

type scheduleEnv struct {
	db       *sql.DB
	projects *repository.SQLiteProjectRepo
	tasks    *repository.SQLiteTaskRepo
	project  *domain.Project
	svc      ScheduleService
	observer *recordingObserver
	logs     *bytes.Buffer
}

func newScheduleEnv(t *testing.T) *scheduleEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	return newScheduleEnvWithUoW(t, database, testutil.NewTestUoW(database))
}

func newScheduleEnvWithUoW(t *testing.T, database *sql.DB, uow db.UnitOfWork) *scheduleEnv {
	t.Helper()
	env := &scheduleEnv{
		db:       database,
		projects: repository.NewSQLiteProjectRepo(database),
		tasks:    repository.NewSQLiteTaskRepo(database),
		project:  testutil.NewTestProject("Depot"),
		observer: &recordingObserver{},
		logs:     &bytes.Buffer{},
	}
	require.NoError(t, env.projects.Create(context.Background(), env.project))

	logger := slog.New(slog.NewTextHandler(env.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	env.svc = NewScheduleService(env.tasks, uow, EngineOptions{
		Logger: logger,
		Now:    func() time.Time { return saturday },
	}, env.observer)
	return env
}

func (e *scheduleEnv) seed(t *testing.T, tasks ...*domain.Task) {
	t.Helper()
	for _, task := range tasks {
		require.NoError(t, e.tasks.Create(context.Background(), task))
	}
}

func (e *scheduleEnv) task(h, name string, opts ...testutil.TaskOption) *domain.Task {
	return testutil.NewTestTask(e.project.ID, h, name, opts...)
}

// stored returns the stored tasks keyed by name.
func (e *scheduleEnv) stored(t *testing.T) map[string]*domain.Task {
	t.Helper()
	tasks, err := e.tasks.ListByProject(context.Background(), e.project.ID)
	require.NoError(t, err)
	out := make(map[string]*domain.Task, len(tasks))
	for _, task := range tasks {
		out[task.Name] = task
	}
	return out
}

// outline returns "hierarchy name" pairs in stored order.
func (e *scheduleEnv) outline(t *testing.T) []string {
	t.Helper()
	tasks, err := e.tasks.ListByProject(context.Background(), e.project.ID)
	require.NoError(t, err)
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.HierarchyNumber + " " + task.Name
	}
	return out
}
