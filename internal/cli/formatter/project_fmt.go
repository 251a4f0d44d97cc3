package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// ProjectSummary is one row of the project list.
type ProjectSummary struct {
	Project  *domain.Project
	Tasks    int
	Progress int // weighted over top-level tasks
}

// FormatProjectList renders the project list inside a bordered box.
func FormatProjectList(projects []ProjectSummary) string {
	if len(projects) == 0 {
		return RenderBox("Projects", Dim("No projects yet. Create one with `groundwork project add`."))
	}
	headers := []string{"CODE", "NAME", "TASKS", "PROGRESS"}
	rows := make([][]string, 0, len(projects))
	for _, s := range projects {
		rows = append(rows, []string{
			s.Project.DisplayID(),
			Bold(s.Project.Name),
			fmt.Sprint(s.Tasks),
			RenderProgress(s.Progress, 10),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows, 2))
}

// FormatProjectDetail renders a project card beside its outline tree.
func FormatProjectDetail(p *domain.Project, tasks []*domain.Task) string {
	var meta strings.Builder
	meta.WriteString(StyleBold.Render(p.Name) + "\n\n")
	meta.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("CODE "), p.Code))
	meta.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("UUID "), TruncID(p.ID)))
	meta.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("TASKS"), fmt.Sprint(len(tasks))))
	if len(tasks) > 0 {
		start, end := span(tasks)
		meta.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("START"), FormatDate(start)))
		meta.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render("END  "), FormatDate(end)))
		meta.WriteString("\n" + RenderProgress(OverallProgress(tasks), 16))
	}

	tree := Dim("No tasks yet.")
	if len(tasks) > 0 {
		tree = RenderTree(OutlineItems(tasks))
	}
	return RenderBox("", lipgloss.JoinHorizontal(lipgloss.Top, meta.String(), "    ", tree))
}

// OverallProgress weights top-level task progress by duration.
func OverallProgress(tasks []*domain.Task) int {
	var weighted, total int
	for _, t := range tasks {
		if t.Depth() != 1 {
			continue
		}
		weighted += t.Progress * t.Duration
		total += t.Duration
	}
	if total == 0 {
		return 0
	}
	return (weighted + total/2) / total
}
