package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/scheduler"
	"github.com/alexanderramin/groundwork/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAddTask_AboveShiftsGroupAndRewritesReferences(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "Mobilise"),
		env.task("2", "Foundations"),
		env.task("2.1", "Excavate"),
		env.task("2.2", "Pour"),
		env.task("3", "Frame", testutil.WithPredecessors("2.1SF+2d", "2.2")),
	)

	res, err := env.svc.AddTask(context.Background(), AddTaskRequest{
		ProjectID: env.project.ID,
		Name:      "Survey",
		Anchor:    "2",
		Placement: domain.PlaceAbove,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Task)
	assert.Equal(t, "2", res.Task.HierarchyNumber)
	assert.Equal(t, map[string]string{"2": "3", "2.1": "3.1", "2.2": "3.2", "3": "4"}, res.Renames)

	assert.Equal(t, []string{
		"1 Mobilise",
		"2 Survey",
		"3 Foundations",
		"3.1 Excavate",
		"3.2 Pour",
		"4 Frame",
	}, env.outline(t))
	assert.Equal(t, []string{"3.1SF+2d", "3.2"}, env.stored(t)["Frame"].Predecessors)
}

func TestAddTask_Placements(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t, env.task("1", "Site", testutil.WithSchedule(testutil.Monday.AddDate(0, 0, 2), 1)))
	ctx := context.Background()

	res, err := env.svc.AddTask(ctx, AddTaskRequest{ProjectID: env.project.ID, Name: "Fence", Anchor: "1", Placement: domain.PlaceInto})
	require.NoError(t, err)
	assert.Equal(t, "1.1", res.Task.HierarchyNumber)
	assert.Equal(t, calendar.Date(2024, 6, 5), res.Task.StartDate, "anchor start is the default")

	res, err = env.svc.AddTask(ctx, AddTaskRequest{ProjectID: env.project.ID, Name: "Handover"})
	require.NoError(t, err)
	assert.Equal(t, "2", res.Task.HierarchyNumber)
	assert.Equal(t, calendar.Date(2024, 6, 10), res.Task.StartDate, "today snaps forward off the weekend")

	res, err = env.svc.AddTask(ctx, AddTaskRequest{ProjectID: env.project.ID, Name: "Gate", Anchor: "1.1", Placement: domain.PlaceBelow, Duration: 3})
	require.NoError(t, err)
	assert.Equal(t, "1.2", res.Task.HierarchyNumber)
	assert.Equal(t, 3, res.Task.Duration)

	assert.Equal(t, []string{"1 Site", "1.1 Fence", "1.2 Gate", "2 Handover"}, env.outline(t))

	// The former leaf now rolls up from its subtasks.
	site := env.stored(t)["Site"]
	assert.Equal(t, 4, site.Duration)
	assert.Equal(t, calendar.Date(2024, 6, 5), site.StartDate)
	assert.Equal(t, calendar.Date(2024, 6, 7), site.EndDate)
}

func TestAddTask_PredecessorDrivesDates(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t, env.task("1", "Excavate", testutil.WithSchedule(testutil.Monday, 5)))

	res, err := env.svc.AddTask(context.Background(), AddTaskRequest{
		ProjectID:    env.project.ID,
		Name:         "Pour",
		Anchor:       "1",
		Placement:    domain.PlaceBelow,
		Duration:     2,
		Predecessors: []string{" 1 "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, res.Task.Predecessors)
	assert.Equal(t, calendar.Date(2024, 6, 10), res.Task.StartDate)
	assert.Equal(t, calendar.Date(2024, 6, 11), res.Task.EndDate)
}

func TestAddTask_PredecessorsUseCurrentNumbers(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "A", testutil.WithSchedule(testutil.Monday, 2)),
		env.task("2", "B", testutil.WithSchedule(testutil.Monday, 4)),
	)

	// Inserting above 1 shifts B to 3; the new task's "2" follows it.
	res, err := env.svc.AddTask(context.Background(), AddTaskRequest{
		ProjectID: env.project.ID, Name: "New", Anchor: "1", Placement: domain.PlaceAbove,
		Predecessors: []string{"2FF"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", res.Task.HierarchyNumber)
	assert.Equal(t, []string{"3FF"}, res.Task.Predecessors)
	assert.Equal(t, env.stored(t)["B"].EndDate, res.Task.EndDate)
}

func TestAddTask_Rejections(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t, env.task("1", "Group"), env.task("1.1", "Leaf"))
	ctx := context.Background()

	_, err := env.svc.AddTask(ctx, AddTaskRequest{ProjectID: env.project.ID, Name: "  "})
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	_, err = env.svc.AddTask(ctx, AddTaskRequest{ProjectID: "nope", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = env.svc.AddTask(ctx, AddTaskRequest{ProjectID: env.project.ID, Name: "X", Anchor: "7", Placement: domain.PlaceBelow})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = env.svc.AddTask(ctx, AddTaskRequest{ProjectID: env.project.ID, Name: "X", Anchor: "1", Placement: "sideways"})
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	_, err = env.svc.AddTask(ctx, AddTaskRequest{
		ProjectID: env.project.ID, Name: "X", Anchor: "1", Placement: domain.PlaceInto,
		Predecessors: []string{"1", "9"},
	})
	var ve *scheduler.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "1.2", ve.Hierarchy)
	assert.Len(t, ve.Result.Errors, 2)

	assert.Equal(t, []string{"1 Group", "1.1 Leaf"}, env.outline(t), "rejected adds store nothing")
}

func TestEditTask_DurationCascades(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "Excavate", testutil.WithSchedule(testutil.Monday, 2)),
		env.task("2", "Pour", testutil.WithSchedule(calendar.Date(2024, 6, 5), 1), testutil.WithPredecessors("1")),
	)

	res, err := env.svc.EditTask(context.Background(), env.project.ID, "1", domain.TaskPatch{Duration: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2024, 6, 7), res.Task.EndDate)
	require.Len(t, res.Patches, 2)

	pour := env.stored(t)["Pour"]
	assert.Equal(t, calendar.Date(2024, 6, 10), pour.StartDate)
	assert.Equal(t, calendar.Date(2024, 6, 10), pour.EndDate)
	assert.Equal(t, 1, pour.Duration)
}

func TestEditTask_ByID(t *testing.T) {
	env := newScheduleEnv(t)
	task := env.task("1", "Excavate")
	env.seed(t, task)

	res, err := env.svc.EditTask(context.Background(), env.project.ID, task.ID, domain.TaskPatch{Name: ptr("Dig")})
	require.NoError(t, err)
	assert.Equal(t, "Dig", res.Task.Name)
	assert.Equal(t, "Dig", env.stored(t)["Dig"].Name)
}

func TestEditTask_Rejections(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "Group"),
		env.task("1.1", "Leaf"),
		env.task("2", "Other", testutil.WithPredecessors("1.1")),
	)
	ctx := context.Background()

	_, err := env.svc.EditTask(ctx, env.project.ID, "1", domain.TaskPatch{Duration: ptr(3)})
	assert.ErrorIs(t, err, domain.ErrParentTask)

	_, err = env.svc.EditTask(ctx, env.project.ID, "1.1", domain.TaskPatch{Predecessors: &[]string{"2"}})
	var ve *scheduler.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "circular dependency")

	assert.Empty(t, env.stored(t)["Leaf"].Predecessors)
}

func TestIndentOutdent(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "A"),
		env.task("2", "B", testutil.WithSchedule(testutil.Monday, 3)),
		env.task("3", "C", testutil.WithPredecessors("2")),
	)
	ctx := context.Background()

	res, err := env.svc.Indent(ctx, env.project.ID, "2")
	require.NoError(t, err)
	assert.Equal(t, "1.1", res.Task.HierarchyNumber)
	assert.Equal(t, []string{"1 A", "1.1 B", "2 C"}, env.outline(t))
	assert.Equal(t, []string{"1.1"}, env.stored(t)["C"].Predecessors)
	assert.Equal(t, 3, env.stored(t)["A"].Duration, "new parent rolls up")

	_, err = env.svc.Indent(ctx, env.project.ID, "1")
	assert.ErrorIs(t, err, domain.ErrNoPreviousSibling)

	res, err = env.svc.Outdent(ctx, env.project.ID, "1.1")
	require.NoError(t, err)
	assert.Equal(t, "2", res.Task.HierarchyNumber)
	assert.Equal(t, []string{"1 A", "2 B", "3 C"}, env.outline(t))
	assert.Equal(t, []string{"2"}, env.stored(t)["C"].Predecessors)

	_, err = env.svc.Outdent(ctx, env.project.ID, "2")
	assert.ErrorIs(t, err, domain.ErrTopLevel)
}

func TestMove_RotationIsCollisionFree(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "A"),
		env.task("2", "B"),
		env.task("3", "C", testutil.WithPredecessors("1FS+1d")),
	)
	ctx := context.Background()

	res, err := env.svc.Move(ctx, env.project.ID, "1", "3", domain.PlaceBelow)
	require.NoError(t, err)
	assert.Equal(t, "3", res.Task.HierarchyNumber)
	assert.Equal(t, []string{"1 B", "2 C", "3 A"}, env.outline(t))
	assert.Equal(t, []string{"3FS+1d"}, env.stored(t)["C"].Predecessors)

	res, err = env.svc.Move(ctx, env.project.ID, "1", "", domain.PlaceEnd)
	require.NoError(t, err)
	assert.Equal(t, "3", res.Task.HierarchyNumber)
	assert.Equal(t, []string{"1 C", "2 A", "3 B"}, env.outline(t))

	_, err = env.svc.Move(ctx, env.project.ID, "1", "1", domain.PlaceInto)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)
}

func TestDeleteTask(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "Group"),
		env.task("1.1", "Leaf"),
		env.task("2", "Single"),
		env.task("3", "Tail", testutil.WithPredecessors("1.1", "2SS")),
	)
	ctx := context.Background()

	_, err := env.svc.DeleteTask(ctx, env.project.ID, "1", false)
	assert.ErrorIs(t, err, domain.ErrHasChildren)

	res, err := env.svc.DeleteTask(ctx, env.project.ID, "2", false)
	require.NoError(t, err)
	assert.Nil(t, res.Task)
	assert.Len(t, res.Deleted, 1)
	assert.Equal(t, []string{"1 Group", "1.1 Leaf", "2 Tail"}, env.outline(t))
	assert.Equal(t, []string{"1.1"}, env.stored(t)["Tail"].Predecessors)

	res, err = env.svc.DeleteTask(ctx, env.project.ID, "1", true)
	require.NoError(t, err)
	assert.Len(t, res.Deleted, 2)
	assert.Equal(t, []string{"1 Tail"}, env.outline(t))
	assert.Empty(t, env.stored(t)["Tail"].Predecessors)
}

func TestRecalculate_ReachesFixpoint(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "Excavate", testutil.WithSchedule(testutil.Monday, 5)),
		env.task("2", "Pour", testutil.WithPredecessors("1")),
		env.task("3", "Cure", testutil.WithPredecessors("2FS+2d")),
	)
	ctx := context.Background()

	res, err := env.svc.Recalculate(ctx, env.project.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Patches)

	stored := env.stored(t)
	assert.Equal(t, calendar.Date(2024, 6, 10), stored["Pour"].StartDate)
	assert.Equal(t, calendar.Date(2024, 6, 13), stored["Cure"].StartDate)

	res, err = env.svc.Recalculate(ctx, env.project.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Patches)
	assert.Equal(t, 1, res.Passes)
}

func TestRecalculate_CycleIsLoggedNotFatal(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "A", testutil.WithPredecessors("2")),
		env.task("2", "B", testutil.WithPredecessors("1")),
	)

	res, err := env.svc.Recalculate(context.Background(), env.project.ID)
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "dependency cycle")
	assert.Contains(t, env.logs.String(), "level=WARN")
	assert.Contains(t, env.logs.String(), "use_case=recalculate")

	ev := env.observer.last()
	assert.Equal(t, "recalculate", ev.Name)
	assert.True(t, ev.Success)
	assert.Equal(t, len(res.Warnings), ev.Fields["warnings"])
}

func TestRecalculate_CycleThroughParentStaysPut(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "Survey", testutil.WithPredecessors("2")),
		env.task("2", "Foundations"),
		env.task("2.1", "Footings", testutil.WithPredecessors("1")),
	)
	ctx := context.Background()

	res, err := env.svc.Recalculate(ctx, env.project.ID)
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, "dependency cycle: ignoring 1 → 2.1")
	assert.Equal(t, calendar.Date(2024, 6, 4), env.stored(t)["Survey"].StartDate)

	for i := 0; i < 3; i++ {
		res, err = env.svc.Recalculate(ctx, env.project.ID)
		require.NoError(t, err)
		assert.Empty(t, res.Patches)
	}
	stored := env.stored(t)
	assert.Equal(t, calendar.Date(2024, 6, 4), stored["Survey"].StartDate)
	assert.Equal(t, testutil.Monday, stored["Footings"].StartDate)
}

func TestRecalculate_UnsettledDatesAreNotStored(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "Frame"),
		env.task("1.1", "Walls", testutil.WithSchedule(testutil.Monday, 2)),
		env.task("1.2", "Roof", testutil.WithSchedule(testutil.Monday, 3), testutil.WithPredecessors("1.1")),
		env.task("2", "Fitout", testutil.WithPredecessors("1")),
	)
	svc := NewScheduleService(env.tasks, testutil.NewTestUoW(env.db), EngineOptions{MaxPasses: 2})

	res, err := svc.Recalculate(context.Background(), env.project.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Patches)
	assert.Equal(t, 2, res.Passes)
	assert.Contains(t, res.Warnings, "schedule did not settle after 2 passes")
	assert.Contains(t, res.Warnings, "recalculated dates were discarded")

	stored := env.stored(t)
	assert.Equal(t, testutil.Monday, stored["Roof"].StartDate)
	assert.Equal(t, testutil.Monday, stored["Fitout"].StartDate)
	assert.Equal(t, testutil.Monday, stored["Frame"].EndDate)
}

func TestRecalculate_UnknownProject(t *testing.T) {
	env := newScheduleEnv(t)

	_, err := env.svc.Recalculate(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	ev := env.observer.last()
	assert.False(t, ev.Success)
	assert.ErrorIs(t, ev.Err, domain.ErrProjectNotFound)
}

func TestCheck_ReportsStoredProblems(t *testing.T) {
	env := newScheduleEnv(t)
	env.seed(t,
		env.task("1", "Group", testutil.WithPredecessors("1.1")),
		env.task("1.1", "Leaf"),
		env.task("2", "Ok", testutil.WithPredecessors("1.1", "1.1")),
		env.task("3", "Bad", testutil.WithPredecessors("9")),
	)

	reports, err := env.svc.Check(context.Background(), env.project.ID)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "1", reports[0].Hierarchy)
	assert.False(t, reports[0].Result.Valid)
	assert.Equal(t, "2", reports[1].Hierarchy)
	assert.Empty(t, reports[1].Result.Errors)
	assert.NotEmpty(t, reports[1].Result.Warnings)
	assert.Equal(t, "3", reports[2].Hierarchy)
}

func TestAddTask_RollbackOnRenumberFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     database,
		FailOn: 2,
		Err:    fmt.Errorf("injected renumber failure"),
	}
	env := newScheduleEnvWithUoW(t, database, failUoW)
	env.seed(t, env.task("1", "A"), env.task("2", "B"))

	// Exec #1 renames 2 to 3, #2 renames 1 to 2.
	_, err := env.svc.AddTask(context.Background(), AddTaskRequest{
		ProjectID: env.project.ID, Name: "New", Anchor: "1", Placement: domain.PlaceAbove,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected renumber failure")
	assert.Equal(t, []string{"1 A", "2 B"}, env.outline(t))
}

func TestDeleteTask_RollbackOnRewriteFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	injected := errors.New("injected rewrite failure")
	// Only the predecessor rewrite mentions the predecessors column.
	failUoW := &testutil.FailOnNthExecUoW{DB: database, FailOn: 1, Err: injected, Match: "predecessors"}
	env := newScheduleEnvWithUoW(t, database, failUoW)
	env.seed(t,
		env.task("1", "A"),
		env.task("2", "B"),
		env.task("3", "C", testutil.WithPredecessors("1", "2")),
	)

	_, err := env.svc.DeleteTask(context.Background(), env.project.ID, "2", false)
	require.ErrorIs(t, err, injected)
	assert.Equal(t, []string{"1 A", "2 B", "3 C"}, env.outline(t))
	assert.Equal(t, []string{"1", "2"}, env.stored(t)["C"].Predecessors)
}
