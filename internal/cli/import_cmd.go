package cli

import (
	"fmt"

	"github.com/alexanderramin/groundwork/internal/cli/formatter"
	"github.com/alexanderramin/groundwork/internal/importer"
	"github.com/alexanderramin/groundwork/internal/service"
	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var dryRun, gantt bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create a project from a JSON, TOML or YAML schedule file",
		Long: `Create a project from a schedule file. The format follows the file
extension (.json, .toml, .yaml or .yml). Tasks are renumbered densely and
the whole schedule is recalculated before it is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res *service.ImportResult
				err error
			)
			if dryRun {
				res, err = previewFile(app, args[0])
			} else {
				res, err = app.Import.ImportProject(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatImport(res, dryRun))
			if gantt {
				fmt.Fprint(out, formatter.FormatGantt(res.Tasks))
			} else {
				fmt.Fprintln(out, formatter.FormatSchedule(res.Project, res.Tasks))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and show the schedule without storing it")
	cmd.Flags().BoolVar(&gantt, "gantt", false, "show a Gantt chart instead of the task table")

	return cmd
}

func previewFile(app *App, path string) (*service.ImportResult, error) {
	schema, err := importer.LoadImportSchema(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return app.Import.Preview(schema)
}
