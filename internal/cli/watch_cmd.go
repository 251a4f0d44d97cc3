package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/groundwork/internal/cli/formatter"
	"github.com/alexanderramin/groundwork/internal/importer"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	var (
		gantt    bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Recalculate and redraw a schedule file every time it is saved",
		Long: `Watch a schedule file and print its recalculated schedule on every save.
Nothing is stored; use "groundwork import" once the file is ready.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			w, err := importer.NewWatcher(args[0], debounce)
			if err != nil {
				return err
			}
			w.Logger = app.Logger
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			renderPreview(app, out, w.Path, gantt)
			for {
				select {
				case <-ctx.Done():
					return nil
				case _, ok := <-w.Changes:
					if !ok {
						return nil
					}
					fmt.Fprintln(out, formatter.Dim("── "+time.Now().Format("15:04:05")+" ──"))
					renderPreview(app, out, w.Path, gantt)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&gantt, "gantt", false, "show a Gantt chart instead of the task table")
	cmd.Flags().DurationVar(&debounce, "debounce", importer.DefaultDebounce, "quiet period before a save is picked up")

	return cmd
}

// renderPreview prints the schedule in path, or why it cannot be loaded.
// Errors are shown rather than returned so watching continues.
func renderPreview(app *App, out io.Writer, path string, gantt bool) {
	res, err := previewFile(app, path)
	if err != nil {
		fmt.Fprintln(out, formatter.StyleRed.Render("✖ "+err.Error()))
		return
	}
	fmt.Fprint(out, formatter.FormatImport(res, true))
	if gantt {
		fmt.Fprint(out, formatter.FormatGantt(res.Tasks))
		return
	}
	fmt.Fprintln(out, formatter.FormatSchedule(res.Project, res.Tasks))
}
