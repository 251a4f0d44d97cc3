package cli

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/repository"
	"github.com/alexanderramin/groundwork/internal/service"
	"github.com/alexanderramin/groundwork/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saturday is "today" in CLI tests, so tasks without a start land on Monday
// 2024-06-10.
var saturday = calendar.Date(2024, time.June, 8)

type cliEnv struct {
	app      *App
	db       *sql.DB
	projects *repository.SQLiteProjectRepo
	tasks    *repository.SQLiteTaskRepo
}

// newCLIEnv wires a full App backed by an in-memory DB, with HOME and the
// working directory pointed at an empty temp dir so no real config leaks in.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GROUNDWORK_CONFIG", "")
	t.Setenv("GROUNDWORK_PROJECT", "")
	t.Setenv("GROUNDWORK_COLOR", "never")
	t.Chdir(home)

	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	projects := repository.NewSQLiteProjectRepo(database)
	tasks := repository.NewSQLiteTaskRepo(database)
	opts := service.EngineOptions{Now: func() time.Time { return saturday }}

	return &cliEnv{
		app: &App{
			Projects: service.NewProjectService(projects),
			Schedule: service.NewScheduleService(tasks, uow, opts),
			Import:   service.NewImportService(uow, opts),
		},
		db:       database,
		projects: projects,
		tasks:    tasks,
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "groundwork %s\n%s", strings.Join(args, " "), out)
	return out
}

func (e *cliEnv) outline(t *testing.T, code string) []string {
	t.Helper()
	p, err := e.projects.GetByCode(context.Background(), code)
	require.NoError(t, err)
	tasks, err := e.tasks.ListByProject(context.Background(), p.ID)
	require.NoError(t, err)
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.HierarchyNumber + " " + task.Name
	}
	return out
}

func (e *cliEnv) stored(t *testing.T, code, name string) *domain.Task {
	t.Helper()
	p, err := e.projects.GetByCode(context.Background(), code)
	require.NoError(t, err)
	tasks, err := e.tasks.ListByProject(context.Background(), p.ID)
	require.NoError(t, err)
	for _, task := range tasks {
		if task.Name == name {
			return task
		}
	}
	t.Fatalf("task %q not stored", name)
	return nil
}

// --- project ---

func TestProjectCmd_Lifecycle(t *testing.T) {
	env := newCLIEnv(t)

	out := mustRun(t, env.app, "project", "add", "--code", "depot01", "--name", "Depot")
	assert.Contains(t, out, "Created project Depot (DEPOT01)")

	out = mustRun(t, env.app, "project", "list")
	assert.Contains(t, out, "DEPOT01")
	assert.Contains(t, out, "Depot")

	out = mustRun(t, env.app, "project", "show", "depot01")
	assert.Contains(t, out, "No tasks yet")

	out = mustRun(t, env.app, "project", "update", "DEPOT01", "--name", "Depot extension")
	assert.Contains(t, out, "Updated project Depot extension")

	_, err := executeCmd(t, env.app, "project", "update", "DEPOT01")
	assert.ErrorContains(t, err, "nothing to update")

	_, err = executeCmd(t, env.app, "project", "remove", "DEPOT01")
	assert.ErrorContains(t, err, "without --yes")

	out = mustRun(t, env.app, "project", "remove", "DEPOT01", "--yes")
	assert.Contains(t, out, "Deleted project DEPOT01")

	_, err = executeCmd(t, env.app, "project", "show", "DEPOT01")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestProjectCmd_AddValidation(t *testing.T) {
	env := newCLIEnv(t)

	_, err := executeCmd(t, env.app, "project", "add", "--name", "Depot")
	assert.ErrorContains(t, err, `required flag(s) "code" not set`)

	_, err = executeCmd(t, env.app, "project", "add", "--name", "Depot", "--code", "D1")
	assert.ErrorContains(t, err, "uppercase letters")
}

// --- task ---

func TestTaskCmd_AddWithPlacementAndPredecessors(t *testing.T) {
	env := newCLIEnv(t)
	mustRun(t, env.app, "project", "add", "--code", "DEPOT01", "--name", "Depot")

	mustRun(t, env.app, "task", "add", "Slab", "-p", "DEPOT01", "--start", "2024-06-03", "--duration", "2")
	out := mustRun(t, env.app, "task", "add", "Walls", "-p", "DEPOT01", "--pred", "1")
	assert.Contains(t, out, "Added 2 Walls")
	assert.Equal(t, calendar.Date(2024, time.June, 5), env.stored(t, "DEPOT01", "Walls").StartDate)

	out = mustRun(t, env.app, "task", "add", "Survey", "-p", "DEPOT01", "--above", "1")
	assert.Contains(t, out, "Added 1 Survey")
	assert.Contains(t, out, "1 → 2")
	assert.Contains(t, out, "2 → 3")

	assert.Equal(t, []string{"1 Survey", "2 Slab", "3 Walls"}, env.outline(t, "DEPOT01"))
	assert.Equal(t, []string{"2"}, env.stored(t, "DEPOT01", "Walls").Predecessors)
	assert.Equal(t, testutil.Monday, env.stored(t, "DEPOT01", "Survey").StartDate)
}

func TestTaskCmd_AddDefaultsAndRejections(t *testing.T) {
	env := newCLIEnv(t)
	mustRun(t, env.app, "project", "add", "--code", "DEPOT01", "--name", "Depot")

	mustRun(t, env.app, "task", "add", "Fence", "-p", "DEPOT01")
	assert.Equal(t, calendar.Date(2024, time.June, 10), env.stored(t, "DEPOT01", "Fence").StartDate)

	_, err := executeCmd(t, env.app, "task", "add", "-p", "DEPOT01")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	_, err = executeCmd(t, env.app, "task", "add", "Gate")
	assert.ErrorContains(t, err, "project is required")

	_, err = executeCmd(t, env.app, "task", "add", "Gate", "-p", "DEPOT01", "--above", "1", "--below", "1")
	assert.ErrorContains(t, err, "none of the others can be")

	_, err = executeCmd(t, env.app, "task", "add", "Gate", "-p", "DEPOT01", "--pred", "7")
	assert.ErrorContains(t, err, "invalid predecessors")

	_, err = executeCmd(t, env.app, "task", "add", "Gate", "-p", "DEPOT01", "--start", "next week")
	assert.ErrorContains(t, err, "--start")

	assert.Equal(t, []string{"1 Fence"}, env.outline(t, "DEPOT01"))
}

func TestTaskCmd_EditCascades(t *testing.T) {
	env := newCLIEnv(t)
	mustRun(t, env.app, "project", "add", "--code", "DEPOT01", "--name", "Depot")
	mustRun(t, env.app, "task", "add", "Slab", "-p", "DEPOT01", "--start", "2024-06-03", "--duration", "2")
	mustRun(t, env.app, "task", "add", "Walls", "-p", "DEPOT01", "--pred", "1")

	out := mustRun(t, env.app, "task", "edit", "1", "-p", "DEPOT01", "--duration", "4")
	assert.Contains(t, out, "Updated 1 Slab")
	assert.Contains(t, out, "Rescheduled")

	walls := env.stored(t, "DEPOT01", "Walls")
	assert.Equal(t, calendar.Date(2024, time.June, 7), walls.StartDate)

	mustRun(t, env.app, "task", "edit", "2", "-p", "DEPOT01", "--pred", "", "--notes", "east side")
	walls = env.stored(t, "DEPOT01", "Walls")
	assert.Empty(t, walls.Predecessors)
	assert.Equal(t, "east side", walls.Notes)

	_, err := executeCmd(t, env.app, "task", "edit", "2", "-p", "DEPOT01")
	assert.ErrorContains(t, err, "nothing to edit")

	_, err = executeCmd(t, env.app, "task", "edit", "2", "-p", "DEPOT01", "--progress", "140")
	assert.ErrorIs(t, err, domain.ErrInvalidEdit)

	_, err = executeCmd(t, env.app, "task", "edit", "9", "-p", "DEPOT01", "--progress", "10")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskCmd_Restructure(t *testing.T) {
	env := newCLIEnv(t)
	mustRun(t, env.app, "project", "add", "--code", "DEPOT01", "--name", "Depot")
	for _, name := range []string{"A", "B", "C"} {
		mustRun(t, env.app, "task", "add", name, "-p", "DEPOT01", "--start", "2024-06-03")
	}

	out := mustRun(t, env.app, "task", "indent", "2", "-p", "DEPOT01")
	assert.Contains(t, out, "Indented 1.1 B")
	assert.Equal(t, []string{"1 A", "1.1 B", "2 C"}, env.outline(t, "DEPOT01"))

	mustRun(t, env.app, "task", "outdent", "1.1", "-p", "DEPOT01")
	assert.Equal(t, []string{"1 A", "2 B", "3 C"}, env.outline(t, "DEPOT01"))

	_, err := executeCmd(t, env.app, "task", "outdent", "1", "-p", "DEPOT01")
	assert.ErrorIs(t, err, domain.ErrTopLevel)

	mustRun(t, env.app, "task", "move", "1", "--below", "3", "-p", "DEPOT01")
	assert.Equal(t, []string{"1 B", "2 C", "3 A"}, env.outline(t, "DEPOT01"))

	_, err = executeCmd(t, env.app, "task", "move", "1", "-p", "DEPOT01")
	assert.ErrorContains(t, err, "one of --above, --below or --into is required")

	out = mustRun(t, env.app, "task", "remove", "1", "-p", "DEPOT01")
	assert.Contains(t, out, "Deleted")
	assert.Equal(t, []string{"1 C", "2 A"}, env.outline(t, "DEPOT01"))

	mustRun(t, env.app, "task", "indent", "2", "-p", "DEPOT01")
	_, err = executeCmd(t, env.app, "task", "remove", "1", "-p", "DEPOT01")
	assert.ErrorIs(t, err, domain.ErrHasChildren)

	_, err = executeCmd(t, env.app, "task", "remove", "1", "--cascade", "-p", "DEPOT01")
	assert.ErrorContains(t, err, "without --yes")

	out = mustRun(t, env.app, "task", "rm", "1", "--cascade", "--yes", "-p", "DEPOT01")
	assert.Contains(t, out, "Removed 2 tasks")
	assert.Empty(t, env.outline(t, "DEPOT01"))
}

// --- schedule ---

func TestScheduleCmd_ShowRecalcCheck(t *testing.T) {
	env := newCLIEnv(t)
	mustRun(t, env.app, "project", "add", "--code", "DEPOT01", "--name", "Depot")
	mustRun(t, env.app, "task", "add", "Slab", "-p", "DEPOT01", "--start", "2024-06-03", "--duration", "2")
	mustRun(t, env.app, "task", "add", "Walls", "-p", "DEPOT01", "--pred", "1")

	out := mustRun(t, env.app, "schedule", "show", "-p", "DEPOT01")
	assert.Contains(t, out, "PREDECESSORS")
	assert.Contains(t, out, "2024-06-05")
	assert.Contains(t, out, "2 tasks · 2024-06-03 → 2024-06-05 · 3 days")

	out = mustRun(t, env.app, "schedule", "show", "--gantt", "-p", "DEPOT01")
	assert.Contains(t, out, "1 Slab   ██·")
	assert.Contains(t, out, "2 Walls  ··█")

	out = mustRun(t, env.app, "schedule", "recalc", "-p", "DEPOT01")
	assert.Contains(t, out, "Recalculated DEPOT01")
	assert.Contains(t, out, "0 tasks changed")

	out = mustRun(t, env.app, "schedule", "check", "-p", "DEPOT01")
	assert.Contains(t, out, "All predecessor links are valid")

	p, err := env.projects.GetByCode(context.Background(), "DEPOT01")
	require.NoError(t, err)
	require.NoError(t, env.tasks.Create(context.Background(),
		testutil.NewTestTask(p.ID, "3", "Roof", testutil.WithPredecessors("9"))))

	out, err = executeCmd(t, env.app, "schedule", "check", "-p", "DEPOT01")
	assert.ErrorContains(t, err, "1 task with invalid predecessors")
	assert.Contains(t, out, "3 Roof")
	assert.Contains(t, out, "✖")
}

func TestScheduleCmd_ProjectFromEnvironment(t *testing.T) {
	env := newCLIEnv(t)
	mustRun(t, env.app, "project", "add", "--code", "DEPOT01", "--name", "Depot")
	t.Setenv("GROUNDWORK_PROJECT", "depot01")

	out := mustRun(t, env.app, "schedule", "show")
	assert.Contains(t, out, "DEPOT01 · DEPOT")
}

func TestScheduleCmd_TUINeedsTerminal(t *testing.T) {
	env := newCLIEnv(t)
	mustRun(t, env.app, "project", "add", "--code", "DEPOT01", "--name", "Depot")

	_, err := executeCmd(t, env.app, "schedule", "tui", "-p", "DEPOT01")
	assert.ErrorContains(t, err, "interactive terminal")
}

// --- import / watch ---

const depotYAML = `
project:
  code: DEPOT01
  name: Depot
tasks:
  - hierarchy: "1"
    name: Slab
    start: "2024-06-03"
    duration: 2
  - hierarchy: "3"
    name: Walls
    start: "2024-06-03"
    predecessors: "1"
`

func writeSchedule(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCmd_DryRunThenImport(t *testing.T) {
	env := newCLIEnv(t)
	path := writeSchedule(t, depotYAML)

	out := mustRun(t, env.app, "import", path, "--dry-run")
	assert.Contains(t, out, "Checked Depot (DEPOT01) with 2 tasks")
	assert.Contains(t, out, "3 → 2")
	assert.Contains(t, out, "nothing was stored")
	projects, err := env.app.Projects.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)

	out = mustRun(t, env.app, "import", path, "--gantt")
	assert.Contains(t, out, "Imported Depot (DEPOT01) with 2 tasks")
	assert.Contains(t, out, "2 Walls  ··█")
	assert.Equal(t, []string{"1 Slab", "2 Walls"}, env.outline(t, "DEPOT01"))

	_, err = executeCmd(t, env.app, "import", path)
	assert.ErrorContains(t, err, "already in use")
}

func TestImportCmd_InvalidFile(t *testing.T) {
	env := newCLIEnv(t)
	path := writeSchedule(t, strings.Replace(depotYAML, "name: Slab", "name: ''", 1))

	_, err := executeCmd(t, env.app, "import", path, "--dry-run")
	assert.ErrorContains(t, err, "tasks[0].name is required")

	_, err = executeCmd(t, env.app, "import", filepath.Join(t.TempDir(), "plan.csv"))
	assert.ErrorContains(t, err, "unsupported import file extension")
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestWatchCmd_RedrawsOnSave(t *testing.T) {
	env := newCLIEnv(t)
	path := writeSchedule(t, depotYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	root := NewRootCmd(env.app)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs([]string{"watch", path, "--debounce", "50ms"})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Walls") },
		3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(depotYAML, "Walls", "Roof", 1)), 0o644))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "Roof") },
		3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("tasks: ["), 0o644))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "✖ loading import file") },
		3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}

	projects, err := env.app.Projects.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects, "watch never stores")
}
