package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Board geometry. Every content line inside a column box is padded to the same inner width,
// so box positions follow from the column count alone.
const (
	// boardTop is the first screen row of the column boxes: header line, then a spacer.
	boardTop = 2
	// columnChrome is the border plus horizontal padding on both sides of a column box.
	columnChrome = 4
	// columnGap separates adjacent column boxes.
	columnGap = 1
	// columnHeaderRows is the title row plus a spacer above the first task.
	columnHeaderRows = 2
	// footerRows covers the status line and the bordered help line.
	footerRows = 3
)

// dropTarget is what the pointer is over: a task (ID is the task id) or empty column space
// (ID equals ColumnID). Below is set when the pointer is on the lower half of a task card.
type dropTarget struct {
	ID       string
	ColumnID string
	Below    bool
}

// isTask reports whether the target names a task rather than a column.
func (t dropTarget) isTask() bool {
	return t.ID != t.ColumnID
}

// columnInnerWidth returns the text width of one column.
func (m Model) columnInnerWidth() int {
	count := len(m.state.Board.Columns)
	if count == 0 || m.width <= 0 {
		return 24
	}
	w := (m.width - count*(columnChrome+columnGap)) / count
	return clamp(w, 16, 36)
}

// taskBlockHeight is the number of rows one task card occupies, trailing gap included.
func (m Model) taskBlockHeight() int {
	if m.showDescriptions {
		return 3
	}
	return 2
}

// columnContentRows returns the shared content height of every column box.
func (m Model) columnContentRows() int {
	block := m.taskBlockHeight()
	rows := columnHeaderRows + 2*block
	for _, column := range m.state.Board.Columns {
		rows = max(rows, columnHeaderRows+len(column.TaskIDs)*block)
	}
	if m.height > 0 {
		rows = max(rows, m.height-boardTop-2-footerRows)
	}
	return rows
}

// hitTest maps a zero-based screen cell onto the task or column under it.
func (m Model) hitTest(x, y int) (dropTarget, bool) {
	columns := m.state.Board.Columns
	if len(columns) == 0 || x < 0 || y < boardTop {
		return dropTarget{}, false
	}
	boxWidth := m.columnInnerWidth() + columnChrome
	stride := boxWidth + columnGap
	colIdx := x / stride
	if colIdx >= len(columns) || x%stride >= boxWidth {
		return dropTarget{}, false
	}
	if y >= boardTop+m.columnContentRows()+2 {
		return dropTarget{}, false
	}

	column := columns[colIdx]
	target := dropTarget{ID: column.ID, ColumnID: column.ID}
	rel := y - boardTop - 1 - columnHeaderRows
	if rel < 0 {
		return target, true
	}
	block := m.taskBlockHeight()
	if idx := rel / block; idx < len(column.TaskIDs) {
		target.ID = column.TaskIDs[idx]
		target.Below = rel%block > 0
	}
	return target, true
}

// padLine truncates s to width cells and right-pads it with spaces.
func padLine(s string, width int) string {
	s = truncate(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

// firstLine returns the first non-blank line of s.
func firstLine(s string) string {
	for line := range strings.SplitSeq(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
