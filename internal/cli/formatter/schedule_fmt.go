package formatter

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/groundwork/internal/calendar"
	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/alexanderramin/groundwork/internal/scheduler"
	"github.com/alexanderramin/groundwork/internal/service"
	"github.com/charmbracelet/lipgloss"
)

// TaskRow returns the display cells of one schedule row: number, indented
// name, start, end, duration, progress and predecessors.
func TaskRow(t *domain.Task, parent bool) []string {
	name := strings.Repeat("  ", t.Depth()-1) + t.Name
	if parent {
		name = Bold(name)
	} else {
		name = ProgressStyle(t.Progress).Render(name)
	}
	preds := strings.Join(t.Predecessors, ", ")
	if preds == "" {
		preds = Dim("--")
	}
	return []string{
		t.HierarchyNumber,
		name,
		FormatDate(t.StartDate),
		FormatDate(t.EndDate),
		strconv.Itoa(t.Duration),
		fmt.Sprintf("%d%%", t.Progress),
		preds,
	}
}

// ScheduleHeaders are the column titles matching TaskRow.
var ScheduleHeaders = []string{"#", "TASK", "START", "END", "DAYS", "DONE", "PREDECESSORS"}

// FormatSchedule renders a project's tasks as a table in outline order.
func FormatSchedule(p *domain.Project, tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return RenderBox(p.Code+" · "+p.Name, Dim("No tasks yet. Add one with `groundwork task add`."))
	}
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = TaskRow(t, t.IsParentIn(tasks))
	}
	table := RenderTable(ScheduleHeaders, rows, 4, 5)
	return RenderBox(p.Code+" · "+p.Name, table+"\n"+scheduleSummary(tasks))
}

func scheduleSummary(tasks []*domain.Task) string {
	start, end := span(tasks)
	return Dim(fmt.Sprintf("%s · %s → %s · %s",
		Plural(len(tasks), "task"), FormatDate(start), FormatDate(end),
		FormatDays(calendar.BusinessDaysBetween(start, end))))
}

// span returns the earliest start and latest end across tasks.
func span(tasks []*domain.Task) (time.Time, time.Time) {
	var start, end time.Time
	for _, t := range tasks {
		if start.IsZero() || t.StartDate.Before(start) {
			start = t.StartDate
		}
		if t.EndDate.After(end) {
			end = t.EndDate
		}
	}
	return start, end
}

// GanttMaxColumns caps the chart width; longer schedules get several
// business days per column.
const GanttMaxColumns = 60

// FormatGantt draws one bar per task across the project's business days.
// Parent bars use a lighter block.
func FormatGantt(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return ""
	}
	start, end := span(tasks)
	days := calendar.BusinessDaysBetween(start, end)
	perCol := (days + GanttMaxColumns - 1) / GanttMaxColumns
	perCol = max(perCol, 1)
	cols := (days + perCol - 1) / perCol

	labels := make([]string, len(tasks))
	widest := 0
	for i, t := range tasks {
		labels[i] = t.HierarchyNumber + " " + strings.Repeat(" ", t.Depth()-1) + t.Name
		widest = max(widest, lipgloss.Width(labels[i]))
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", widest+2) + Dim(calendar.Format(start)))
	if cols > 21 {
		endLabel := calendar.Format(end)
		b.WriteString(strings.Repeat(" ", max(cols-len(endLabel)-10, 1)) + Dim(endLabel))
	}
	b.WriteString("\n")

	for i, t := range tasks {
		// Column offsets of the bar, in business days from the chart start.
		from := calendar.BusinessDaysBetween(start, t.StartDate) - 1
		to := calendar.BusinessDaysBetween(start, t.EndDate) - 1
		parent := t.IsParentIn(tasks)

		var bar strings.Builder
		for c := 0; c < cols; c++ {
			lo, hi := c*perCol, (c+1)*perCol-1
			switch {
			case hi < from || lo > to:
				bar.WriteString(Dim("·"))
			case parent:
				bar.WriteString(StyleBlue.Render("▬"))
			default:
				bar.WriteString(ProgressStyle(t.Progress).Render(filledBlock))
			}
		}
		pad := strings.Repeat(" ", widest-lipgloss.Width(labels[i])+2)
		b.WriteString(labels[i] + pad + bar.String() + "\n")
	}
	if perCol > 1 {
		b.WriteString(Dim(fmt.Sprintf("each column is %d business days", perCol)) + "\n")
	}
	return b.String()
}

// FormatRenames lists hierarchy renumbering as "old → new" lines.
func FormatRenames(renames map[string]string) string {
	if len(renames) == 0 {
		return ""
	}
	olds := slices.SortedFunc(maps.Keys(renames), domain.CompareHierarchy)
	var b strings.Builder
	for _, old := range olds {
		b.WriteString(fmt.Sprintf("  %s %s %s\n", Dim(old), Dim("→"), renames[old]))
	}
	return b.String()
}

// FormatChange summarizes a schedule change.
func FormatChange(action string, res *service.ChangeResult) string {
	var b strings.Builder
	head := StyleGreen.Render("✔ ") + action
	if res.Task != nil {
		head += " " + Bold(res.Task.HierarchyNumber+" "+res.Task.Name)
	}
	b.WriteString(head + "\n")

	if len(res.Renames) > 0 {
		b.WriteString(Dim("Renumbered:") + "\n" + FormatRenames(res.Renames))
	}
	if len(res.Deleted) > 0 {
		b.WriteString(Dim(fmt.Sprintf("Removed %s", Plural(len(res.Deleted), "task"))) + "\n")
	}
	if len(res.Patches) > 0 {
		b.WriteString(Dim(fmt.Sprintf("Rescheduled %s", Plural(len(res.Patches), "task"))) + "\n")
	}
	for _, w := range res.Warnings {
		b.WriteString(Warning(w) + "\n")
	}
	return b.String()
}

// FormatCheck renders predecessor validation reports, or an all-clear line.
func FormatCheck(reports []scheduler.TaskReport) string {
	if len(reports) == 0 {
		return StyleGreen.Render("✔ ") + "All predecessor links are valid\n"
	}
	var b strings.Builder
	for _, r := range reports {
		b.WriteString(Bold(r.Hierarchy+" "+r.Name) + "\n")
		for _, e := range r.Result.Errors {
			b.WriteString("  " + StyleRed.Render("✖ "+e) + "\n")
		}
		for _, w := range r.Result.Warnings {
			b.WriteString("  " + Warning(w) + "\n")
		}
	}
	return b.String()
}

// FormatImport summarizes an import or a dry run.
func FormatImport(res *service.ImportResult, dryRun bool) string {
	var b strings.Builder
	verb := "Imported"
	if dryRun {
		verb = "Checked"
	}
	b.WriteString(fmt.Sprintf("%s%s %s (%s) with %s\n",
		StyleGreen.Render("✔ "), verb, Bold(res.Project.Name), res.Project.Code,
		Plural(res.TaskCount, "task")))
	if len(res.Renames) > 0 {
		b.WriteString(Dim("Renumbered:") + "\n" + FormatRenames(res.Renames))
	}
	for _, w := range res.Warnings {
		b.WriteString(Warning(w) + "\n")
	}
	if dryRun {
		b.WriteString(Dim("Dry run: nothing was stored.") + "\n")
	}
	return b.String()
}
