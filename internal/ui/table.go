package ui

import (
	"github.com/gdamore/tcell/v2"
)

// TableColumn defines a column in the table
type TableColumn struct {
	Title      string
	Width      int     // 0 means flexible width
	MinWidth   int     // Minimum width for flexible columns
	FlexWeight float64 // Weight for distributing available space
	Align      Alignment
}

// Alignment specifies text alignment within a cell
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// TableRow represents a single row of data
type TableRow interface {
	// GetCell returns the content for a specific column index
	GetCell(columnIndex int) string
	// GetCellStyle returns the style for a specific cell (nil for default)
	GetCellStyle(columnIndex int, selected bool) *tcell.Style
	// GetHighlightPositions returns rune positions to highlight in a cell
	GetHighlightPositions(columnIndex int) []int
}

// Table is a scrollable list of rows laid out in columns
type Table struct {
	columns      []TableColumn
	rows         []TableRow
	selectedIdx  int
	scrollOffset int

	x, y          int
	width, height int

	indicator string

	headerStyle    tcell.Style
	defaultStyle   tcell.Style
	selectedStyle  tcell.Style
	highlightStyle tcell.Style

	columnWidths []int
}

func NewTable() *Table {
	return &Table{
		indicator:      "> ",
		headerStyle:    tcell.StyleDefault.Bold(true).Foreground(ColorHeader).Background(ColorBg),
		defaultStyle:   tcell.StyleDefault.Foreground(ColorFg).Background(ColorBg),
		selectedStyle:  tcell.StyleDefault.Background(ColorSelection).Foreground(ColorBright),
		highlightStyle: tcell.StyleDefault.Foreground(ColorHighlight).Background(ColorBg).Bold(true),
	}
}

func (t *Table) SetColumns(columns []TableColumn) {
	t.columns = columns
	t.calculateColumnWidths()
}

// SetRows replaces the rows, keeping the selection in range
func (t *Table) SetRows(rows []TableRow) {
	t.rows = rows
	t.Select(t.selectedIdx)
}

func (t *Table) Len() int {
	return len(t.rows)
}

// SetBounds places the table on screen; the first line is the header
func (t *Table) SetBounds(x, y, width, height int) {
	t.x, t.y = x, y
	if width != t.width || height != t.height {
		t.width, t.height = width, height
		t.calculateColumnWidths()
		t.ensureVisible()
	}
}

func (t *Table) SelectedIndex() int {
	return t.selectedIdx
}

// Select moves the selection to index, clamped to the rows, and scrolls it into view
func (t *Table) Select(index int) {
	switch {
	case len(t.rows) == 0:
		index = 0
	case index >= len(t.rows):
		index = len(t.rows) - 1
	case index < 0:
		index = 0
	}
	t.selectedIdx = index
	t.ensureVisible()
}

func (t *Table) SelectNext() bool {
	if t.selectedIdx < len(t.rows)-1 {
		t.Select(t.selectedIdx + 1)
		return true
	}
	return false
}

func (t *Table) SelectPrevious() bool {
	if t.selectedIdx > 0 {
		t.Select(t.selectedIdx - 1)
		return true
	}
	return false
}

func (t *Table) SelectFirst() {
	t.selectedIdx = 0
	t.scrollOffset = 0
}

func (t *Table) SelectLast() {
	t.Select(len(t.rows) - 1)
}

func (t *Table) PageDown() bool {
	return t.page(1)
}

func (t *Table) PageUp() bool {
	return t.page(-1)
}

func (t *Table) page(dir int) bool {
	pageSize := t.visibleHeight() - 1
	if pageSize < 1 {
		pageSize = 1
	}
	before := t.selectedIdx
	t.Select(t.selectedIdx + dir*pageSize)
	return t.selectedIdx != before
}

// ScrollBy moves the viewport without changing the selection
func (t *Table) ScrollBy(delta int) {
	t.scrollOffset += delta
	if maxOffset := len(t.rows) - t.visibleHeight(); t.scrollOffset > maxOffset {
		t.scrollOffset = maxOffset
	}
	if t.scrollOffset < 0 {
		t.scrollOffset = 0
	}
}

// RowAt maps a screen position to a row index, or -1 when it is not on a row
func (t *Table) RowAt(x, y int) int {
	if x < t.x || x >= t.x+t.width {
		return -1
	}
	line := y - t.y - 1
	if line < 0 || line >= t.visibleHeight() {
		return -1
	}
	idx := t.scrollOffset + line
	if idx >= len(t.rows) {
		return -1
	}
	return idx
}

// ScrollInfo returns the 1-based visible range and the row count
func (t *Table) ScrollInfo() (first, last, total int) {
	total = len(t.rows)
	if total == 0 {
		return 0, 0, 0
	}
	first = t.scrollOffset + 1
	last = t.scrollOffset + t.visibleHeight()
	if last > total {
		last = total
	}
	return first, last, total
}

func (t *Table) Draw(s tcell.Screen) {
	if t.width <= 0 || t.height <= 0 {
		return
	}

	for row := t.y; row < t.y+t.height; row++ {
		for col := t.x; col < t.x+t.width; col++ {
			s.SetContent(col, row, ' ', nil, t.defaultStyle)
		}
	}

	t.drawHeader(s, t.y)
	for i := 0; i < t.visibleHeight() && i+t.scrollOffset < len(t.rows); i++ {
		idx := i + t.scrollOffset
		t.drawRow(s, t.y+1+i, t.rows[idx], idx == t.selectedIdx)
	}
}

func (t *Table) visibleHeight() int {
	if t.height <= 1 {
		return 0
	}
	return t.height - 1
}

// ensureVisible centers the selection when the viewport allows it
func (t *Table) ensureVisible() {
	visible := t.visibleHeight()
	if visible <= 0 {
		return
	}

	target := t.selectedIdx - visible/2
	maxOffset := len(t.rows) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	switch {
	case target < 0:
		t.scrollOffset = 0
	case target > maxOffset:
		t.scrollOffset = maxOffset
	default:
		t.scrollOffset = target
	}
}

func (t *Table) calculateColumnWidths() {
	if len(t.columns) == 0 || t.width <= 0 {
		return
	}
	t.columnWidths = make([]int, len(t.columns))
	indicatorWidth := len([]rune(t.indicator))

	fixed := 0
	totalWeight := 0.0
	for i, col := range t.columns {
		if col.Width > 0 {
			w := col.Width
			if i == 0 {
				w += indicatorWidth
			}
			t.columnWidths[i] = w
			fixed += w
			continue
		}
		if col.FlexWeight > 0 {
			totalWeight += col.FlexWeight
		} else {
			totalWeight++
		}
	}

	available := t.width - fixed - (len(t.columns) - 1)
	if t.columns[0].Width == 0 {
		available -= indicatorWidth
	}
	if available <= 0 || totalWeight == 0 {
		return
	}
	for i, col := range t.columns {
		if col.Width > 0 {
			continue
		}
		weight := col.FlexWeight
		if weight <= 0 {
			weight = 1
		}
		w := int(float64(available) * weight / totalWeight)
		if col.MinWidth > 0 && w < col.MinWidth {
			w = col.MinWidth
		}
		if i == 0 {
			w += indicatorWidth
		}
		t.columnWidths[i] = w
	}
}

func (t *Table) drawHeader(s tcell.Screen, y int) {
	x := t.x
	for i, col := range t.columns {
		if i > 0 {
			x++
		}
		offset := 0
		if i == 0 {
			offset = len([]rune(t.indicator))
		}
		t.drawCell(s, x+offset, y, t.columnWidths[i]-offset, col.Title, t.headerStyle, nil, col.Align)
		x += t.columnWidths[i]
	}
}

func (t *Table) drawRow(s tcell.Screen, y int, row TableRow, selected bool) {
	if selected {
		for x := 0; x < t.width; x++ {
			s.SetContent(t.x+x, y, ' ', nil, t.selectedStyle)
		}
	}

	x := t.x
	for i, col := range t.columns {
		if i > 0 {
			x++
		}

		content := row.GetCell(i)
		highlights := row.GetHighlightPositions(i)
		if i == 0 {
			prefix := []rune(t.indicator)
			if !selected {
				for j := range prefix {
					prefix[j] = ' '
				}
			}
			content = string(prefix) + content
			shifted := make([]int, len(highlights))
			for j, pos := range highlights {
				shifted[j] = pos + len(prefix)
			}
			highlights = shifted
		}

		style := t.defaultStyle
		if selected {
			style = t.selectedStyle
		}
		if cellStyle := row.GetCellStyle(i, selected); cellStyle != nil {
			style = *cellStyle
		}

		t.drawCell(s, x, y, t.columnWidths[i], content, style, highlights, col.Align)
		x += t.columnWidths[i]
	}
}

func (t *Table) drawCell(s tcell.Screen, x, y, width int, text string, style tcell.Style, highlights []int, align Alignment) {
	if width <= 0 {
		return
	}

	marked := make(map[int]bool, len(highlights))
	for _, pos := range highlights {
		marked[pos] = true
	}
	highlight := t.highlightStyle
	if _, bg, _ := style.Decompose(); bg == ColorSelection {
		highlight = style.Foreground(ColorBgDark).Background(ColorHighlight).Bold(true)
	}

	runes := []rune(text)
	truncated := len(runes) > width
	if truncated {
		if width > 3 {
			runes = runes[:width-3]
		} else {
			runes = runes[:width]
		}
	}

	startX := x
	if !truncated && align == AlignRight {
		startX = x + width - len(runes)
	}
	for i, r := range runes {
		cs := style
		if marked[i] {
			cs = highlight
		}
		s.SetContent(startX+i, y, r, nil, cs)
	}
	if truncated && width > 3 {
		for i := 0; i < 3; i++ {
			s.SetContent(startX+len(runes)+i, y, '.', nil, style)
		}
	}
}
