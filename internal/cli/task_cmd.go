package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/cli/formatter"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/scheduler"
	"github.com/alexanderramin/groundwork/internal/service"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, edit and restructure schedule tasks",
		Long: `Tasks are addressed by hierarchy number (e.g. 2.1) or id.

Predecessors use the form <hierarchy>[FS|SS|FF|SF][+|-<n>d], for example
"2.1", "3SS", "4FF+2d" or "1.2SF-1d".`,
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskEditCmd(app),
		newTaskIndentCmd(app),
		newTaskOutdentCmd(app),
		newTaskMoveCmd(app),
		newTaskRemoveCmd(app),
	)

	return cmd
}

// errCancelled ends a command the user declined to confirm.
var errCancelled = errors.New("cancelled")

func addProjectFlag(cmd *cobra.Command, ref *string) {
	cmd.Flags().StringVarP(ref, "project", "p", "", "project code or id")
}

// placementFlags registers --above/--below/--into and reports which one
// was given.
type placementFlags struct {
	above, below, into string
}

func (f *placementFlags) register(cmd *cobra.Command, noun string) {
	cmd.Flags().StringVar(&f.above, "above", "", "place "+noun+" above this task")
	cmd.Flags().StringVar(&f.below, "below", "", "place "+noun+" below this task")
	cmd.Flags().StringVar(&f.into, "into", "", "place "+noun+" as the last subtask of this task")
	cmd.MarkFlagsMutuallyExclusive("above", "below", "into")
}

func (f *placementFlags) resolve() (domain.Placement, string) {
	switch {
	case f.above != "":
		return domain.PlaceAbove, f.above
	case f.below != "":
		return domain.PlaceBelow, f.below
	case f.into != "":
		return domain.PlaceInto, f.into
	default:
		return domain.PlaceEnd, ""
	}
}

func parseDateFlag(name, value string) (time.Time, error) {
	d, err := calendar.Parse(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

func newTaskAddCmd(app *App) *cobra.Command {
	var (
		projectRef string
		place      placementFlags
		start      string
		duration   int
		preds      []string
		resources  string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "add [NAME]",
		Short: "Add a task at the end, above, below or inside another task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			if strings.TrimSpace(name) == "" {
				if !app.interactive() {
					return domain.ErrEmptyName
				}
				durText := ""
				if duration > 0 {
					durText = strconv.Itoa(duration)
				}
				if err := newTaskForm(&name, &start, &durText).Run(); err != nil {
					return err
				}
				if durText != "" {
					duration, _ = strconv.Atoi(durText)
				}
			}

			where, anchor := place.resolve()
			req := service.AddTaskRequest{
				ProjectID:    p.ID,
				Name:         name,
				Anchor:       anchor,
				Placement:    where,
				Duration:     duration,
				Predecessors: scheduler.NormalizePredecessors(preds),
				Resources:    resources,
				Notes:        notes,
			}
			if start != "" {
				d, err := parseDateFlag("start", start)
				if err != nil {
					return err
				}
				req.Start = &d
			}
			if duration < 0 {
				return fmt.Errorf("--duration must be at least 1")
			}

			res, err := app.Schedule.AddTask(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatChange("Added", res))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	place.register(cmd, "the new task")
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD (default: the anchor's start, or today)")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in business days (default 1)")
	cmd.Flags().StringSliceVar(&preds, "pred", nil, "predecessor, repeatable or comma-separated (e.g. 2.1FS+2d)")
	cmd.Flags().StringVar(&resources, "resources", "", "assigned resources")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")

	return cmd
}

func newTaskEditCmd(app *App) *cobra.Command {
	var (
		projectRef string
		name       string
		start      string
		end        string
		duration   int
		progress   int
		preds      []string
		resources  string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "edit TASK",
		Short: "Edit task fields and reschedule its dependents",
		Long: `Edit one task. Changing the start keeps the duration, changing the end
recomputes the duration, and --pred "" clears all predecessors. Dates,
duration and progress of a task with subtasks are derived and cannot be
edited.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, projectRef)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var edit domain.TaskPatch
			if flags.Changed("name") {
				edit.Name = &name
			}
			if flags.Changed("start") {
				d, err := parseDateFlag("start", start)
				if err != nil {
					return err
				}
				edit.StartDate = &d
			}
			if flags.Changed("end") {
				d, err := parseDateFlag("end", end)
				if err != nil {
					return err
				}
				edit.EndDate = &d
			}
			if flags.Changed("duration") {
				edit.Duration = &duration
			}
			if flags.Changed("progress") {
				edit.Progress = &progress
			}
			if flags.Changed("pred") {
				list := scheduler.NormalizePredecessors(preds)
				edit.Predecessors = &list
			}
			if flags.Changed("resources") {
				edit.Resources = &resources
			}
			if flags.Changed("notes") {
				edit.Notes = &notes
			}
			if edit.IsEmpty() {
				return fmt.Errorf("nothing to edit (see --help for the editable fields)")
			}

			res, err := app.Schedule.EditTask(ctx, p.ID, args[0], edit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatChange("Updated", res))
			return nil
		},
	}

	addProjectFlag(cmd, &projectRef)
	cmd.Flags().StringVar(&name, "name", "", "task name")
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "end date YYYY-MM-DD")
	cmd.Flags().IntVar(&duration, "duration", 0, "duration in business days")
	cmd.Flags().IntVar(&progress, "progress", 0, "progress percentage 0-100")
	cmd.Flags().StringSliceVar(&preds, "pred", nil, "replace the predecessor list")
	cmd.Flags().StringVar(&resources, "resources", "", "assigned resources")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	cmd.MarkFlagsMutuallyExclusive("end", "duration")

	return cmd
}

// newOutlineCmd builds the one-argument structural commands.
func newOutlineCmd(app *App, use, short, action string,
	run func(svc service.ScheduleService, cmd *cobra.Command, projectID, ref string) (*service.ChangeResult, error),
) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   use + " TASK",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), app, projectRef)
			if err != nil {
				return err
			}
			res, err := run(app.Schedule, cmd, p.ID, args[0])
			if errors.Is(err, errCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled."))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatChange(action, res))
			return nil
		},
	}
	addProjectFlag(cmd, &projectRef)
	return cmd
}

func newTaskIndentCmd(app *App) *cobra.Command {
	return newOutlineCmd(app, "indent", "Make a task the last subtask of its previous sibling", "Indented",
		func(svc service.ScheduleService, cmd *cobra.Command, projectID, ref string) (*service.ChangeResult, error) {
			return svc.Indent(cmd.Context(), projectID, ref)
		})
}

func newTaskOutdentCmd(app *App) *cobra.Command {
	return newOutlineCmd(app, "outdent", "Move a task out of its parent, right after it", "Outdented",
		func(svc service.ScheduleService, cmd *cobra.Command, projectID, ref string) (*service.ChangeResult, error) {
			return svc.Outdent(cmd.Context(), projectID, ref)
		})
}

func newTaskMoveCmd(app *App) *cobra.Command {
	var place placementFlags

	cmd := newOutlineCmd(app, "move", "Move a task and its subtasks above, below or into another task", "Moved",
		func(svc service.ScheduleService, cmd *cobra.Command, projectID, ref string) (*service.ChangeResult, error) {
			where, target := place.resolve()
			if where == domain.PlaceEnd {
				return nil, fmt.Errorf("one of --above, --below or --into is required")
			}
			return svc.Move(cmd.Context(), projectID, ref, target, where)
		})
	place.register(cmd, "the task")
	return cmd
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	var cascade, yes bool

	cmd := newOutlineCmd(app, "remove", "Delete a task", "Deleted",
		func(svc service.ScheduleService, cmd *cobra.Command, projectID, ref string) (*service.ChangeResult, error) {
			if cascade && !yes {
				if !app.interactive() {
					return nil, fmt.Errorf("refusing to delete task %s with its subtasks without --yes", ref)
				}
				ok, err := confirm(fmt.Sprintf("Delete task %s and all its subtasks?", ref),
					"Predecessor links to the deleted tasks are removed.")
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, errCancelled
				}
			}
			return svc.DeleteTask(cmd.Context(), projectID, ref, cascade)
		})
	cmd.Aliases = []string{"rm"}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete the task's subtasks")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
