package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of an outline tree. Prefix holds the connector
// characters for its depth.
type TreeItem struct {
	Label    string // hierarchy number
	Title    string
	Prefix   string
	Progress int
	Detail   string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// OutlineItems turns tasks in outline order into tree lines with
// connectors. Detail shows dates and duration.
func OutlineItems(tasks []*domain.Task) []TreeItem {
	items := make([]TreeItem, len(tasks))
	// lastAt[d] tracks whether the most recent task at depth d+1 is the
	// last of its siblings.
	var lastAt []bool
	for i, t := range tasks {
		depth := t.Depth()
		last := true
		for _, o := range tasks[i+1:] {
			if o.Depth() < depth {
				break
			}
			if o.Depth() == depth && domain.ParentHierarchy(o.HierarchyNumber) == domain.ParentHierarchy(t.HierarchyNumber) {
				last = false
				break
			}
		}
		if len(lastAt) < depth {
			lastAt = append(lastAt, make([]bool, depth-len(lastAt))...)
		}
		lastAt = lastAt[:depth]
		lastAt[depth-1] = last

		var prefix strings.Builder
		for d := 1; d < depth-1; d++ {
			if lastAt[d] {
				prefix.WriteString(treeBlank)
			} else {
				prefix.WriteString(treePipe)
			}
		}
		if depth > 1 {
			if last {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}

		items[i] = TreeItem{
			Label:    t.HierarchyNumber,
			Title:    t.Name,
			Prefix:   prefix.String(),
			Progress: t.Progress,
			Detail:   fmt.Sprintf("%s → %s · %s", FormatDate(t.StartDate), FormatDate(t.EndDate), FormatDays(t.Duration)),
		}
	}
	return items
}

// RenderTree renders tree lines with right-aligned detail badges.
// Finished tasks get a green ✔ and started ones a yellow ▶.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	widest := 0
	for i, item := range items {
		title := item.Title
		marker := ""
		switch {
		case item.Progress >= 100:
			marker = StyleGreen.Render("✔ ")
			title = Dim(title)
		case item.Progress > 0:
			marker = StyleYellow.Render("▶ ")
			title = StyleYellow.Render(title)
		}
		contents[i] = item.Prefix + StyleDim.Render(item.Label+" ") + marker + title
		widest = max(widest, lipgloss.Width(contents[i]))
	}

	var b strings.Builder
	for i, item := range items {
		b.WriteString(contents[i])
		if item.Detail != "" {
			pad := widest - lipgloss.Width(contents[i])
			b.WriteString(strings.Repeat(" ", pad) + "  " + StyleBlue.Render("[ "+item.Detail+" ]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
