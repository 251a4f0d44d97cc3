package cli

import (
	"fmt"

	"github.com/alexanderramin/groundwork/internal/cli/formatter"
	"github.com/alexanderramin/groundwork/internal/scheduler"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"sched"},
		Short:   "View, recalculate and check a project schedule",
	}

	cmd.AddCommand(
		newScheduleShowCmd(app),
		newScheduleRecalcCmd(app),
		newScheduleCheckCmd(app),
		newScheduleTUICmd(app),
	)

	return cmd
}

func newScheduleShowCmd(app *App) *cobra.Command {
	var (
		projectRef string
		gantt      bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the task table, or a Gantt chart with --gantt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			tasks, err := app.Schedule.Tasks(ctx, p.ID)
			if err != nil {
				return err
			}
			if gantt {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatGantt(tasks))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSchedule(p, tasks))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().BoolVar(&gantt, "gantt", false, "draw bars over business days")

	return cmd
}

func newScheduleRecalcCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recalculate every task's dates until the schedule is stable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			res, err := app.Schedule.Recalculate(ctx, p.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatChange("Recalculated "+p.Code, res))
			fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("%s, %s changed",
				formatter.Plural(res.Passes, "pass"), formatter.Plural(len(res.Patches), "task"))))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)

	return cmd
}

func newScheduleCheckCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate every task's predecessors",
		Long:  "Validate every task's predecessors. Exits non-zero when any task has errors.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			reports, err := app.Schedule.Check(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCheck(reports))
			if n := countInvalid(reports); n > 0 {
				return fmt.Errorf("%s with invalid predecessors", formatter.Plural(n, "task"))
			}
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)

	return cmd
}

func countInvalid(reports []scheduler.TaskReport) int {
	n := 0
	for _, r := range reports {
		if len(r.Result.Errors) > 0 {
			n++
		}
	}
	return n
}

func newScheduleTUICmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse and restructure the schedule interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}
			if !app.interactive() {
				return fmt.Errorf("schedule tui needs an interactive terminal")
			}
			model := newScheduleModel(ctx, app.Schedule, p)
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	addProjectFlag(cmd, &projectRef)

	return cmd
}
