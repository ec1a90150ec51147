package tui

import "github.com/charmbracelet/lipgloss"

const (
	calendarHeaderH = 3 // title, year selector, blank
	weekdayHeaderH  = 1
	cellLines       = 2 // day number, relative label
	footerH         = 2 // status, help

	minCellWidth = 5
	maxCellWidth = 18
	minEditorH   = 3
)

// LayoutCache stores layout dimensions and styles derived from the window size.
type LayoutCache struct {
	InnerW int
	InnerH int

	CellW   int
	GridW   int
	FooterH int

	EditorW int
	EditorH int

	StatusStyle lipgloss.Style
	HelpStyle   lipgloss.Style
	Cells       StyleCache
}

// cellWidth splits the inner width across the seven weekdays.
func cellWidth(innerW int) int {
	w := innerW / 7
	if w < minCellWidth {
		w = minCellWidth
	}
	if w > maxCellWidth {
		w = maxCellWidth
	}
	return w
}

func (m Model) buildLayoutCache(width, height int) LayoutCache {
	styles := m.styles
	appH, appV := styles.AppStyle.GetFrameSize()
	innerW := max(0, width-appH)
	innerH := max(0, height-appV)

	cellW := cellWidth(innerW)

	boxH, boxV := styles.EditorBoxStyle.GetFrameSize()
	editorW := max(1, innerW-boxH)
	// Header line and a blank line above the box.
	editorH := max(minEditorH, innerH-2-boxV-footerH)

	return LayoutCache{
		InnerW:      innerW,
		InnerH:      innerH,
		CellW:       cellW,
		GridW:       cellW * 7,
		FooterH:     footerH,
		EditorW:     editorW,
		EditorH:     editorH,
		StatusStyle: styles.StatusStyle.MaxWidth(max(1, innerW)),
		HelpStyle:   styles.HelpStyle.MaxWidth(max(1, innerW)),
		Cells:       NewStyleCache(styles, cellW),
	}
}
