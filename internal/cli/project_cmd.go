package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/groundwork/internal/cli/formatter"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/spf13/cobra"
)

// resolveProject finds a project by code or id, for --project flags and
// positional arguments. An empty ref falls back to the configured project.
func resolveProject(ctx context.Context, app *App, ref string) (*domain.Project, error) {
	ref = domain.CoalesceStr(strings.TrimSpace(ref), app.Config.Project)
	if ref == "" {
		return nil, fmt.Errorf("project is required (use --project with a code such as SITE01, or set GROUNDWORK_PROJECT)")
	}
	p, err := app.Projects.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", ref, err)
	}
	return p, nil
}

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectUpdateCmd(app),
		newProjectRemoveCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var code, name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &domain.Project{Code: code, Name: name}
			if err := app.Projects.Create(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created project %s (%s)\n",
				formatter.StyleGreen.Render("✔"), formatter.Bold(p.Name), p.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "project code, 3-6 letters then 2-4 digits (e.g. SITE01)")
	cmd.Flags().StringVar(&name, "name", "", "project name")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projects, err := app.Projects.List(ctx)
			if err != nil {
				return err
			}
			summaries := make([]formatter.ProjectSummary, 0, len(projects))
			for _, p := range projects {
				tasks, err := app.Schedule.Tasks(ctx, p.ID)
				if err != nil {
					return err
				}
				summaries = append(summaries, formatter.ProjectSummary{
					Project:  p,
					Tasks:    len(tasks),
					Progress: formatter.OverallProgress(tasks),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectList(summaries))
			return nil
		},
	}
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show CODE",
		Short: "Show a project and its outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			tasks, err := app.Schedule.Tasks(ctx, p.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectDetail(p, tasks))
			return nil
		},
	}
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var code, name string

	cmd := &cobra.Command{
		Use:   "update CODE",
		Short: "Rename a project or change its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("code") && !cmd.Flags().Changed("name") {
				return fmt.Errorf("nothing to update (use --code or --name)")
			}
			if cmd.Flags().Changed("code") {
				p.Code = code
			}
			if cmd.Flags().Changed("name") {
				p.Name = name
			}
			if err := app.Projects.Update(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Updated project %s (%s)\n",
				formatter.StyleGreen.Render("✔"), formatter.Bold(p.Name), p.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "new project code")
	cmd.Flags().StringVar(&name, "name", "", "new project name")

	return cmd
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove CODE",
		Aliases: []string{"rm"},
		Short:   "Delete a project and all its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete %s without --yes", p.Code)
				}
				ok, err := confirm(fmt.Sprintf("Delete project %s?", p.Code), "All of its tasks are deleted too.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled."))
					return nil
				}
			}
			if err := app.Projects.Delete(ctx, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted project %s\n", formatter.StyleGreen.Render("✔"), p.Code)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
