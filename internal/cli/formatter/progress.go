package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a task completion bar like [████░░░░]  45%.
func RenderProgress(progress, width int) string {
	progress = min(max(progress, 0), 100)
	width = max(width, 2)

	filled := progress * width / 100
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
	return fmt.Sprintf("[%s] %3d%%", ProgressStyle(progress).Render(bar), progress)
}
