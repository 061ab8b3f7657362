package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	pos := 0
	for _, r := range text {
		s.SetContent(x+pos, y, r, nil, style)
		pos++
	}
}

// drawTextClipped draws at most maxWidth runes
func drawTextClipped(s tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	runes := []rune(text)
	if len(runes) > maxWidth {
		if maxWidth > 3 {
			runes = append(runes[:maxWidth-3], []rune("...")...)
		} else if maxWidth > 0 {
			runes = runes[:maxWidth]
		} else {
			return
		}
	}
	for i, r := range runes {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func fillRow(s tcell.Screen, y, width int, style tcell.Style) {
	for x := 0; x < width; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

// drawBox fills a bordered rectangle
func drawBox(s tcell.Screen, x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
	for col := x; col < x+w; col++ {
		top, bottom := '─', '─'
		if col == x {
			top, bottom = '┌', '└'
		} else if col == x+w-1 {
			top, bottom = '┐', '┘'
		}
		s.SetContent(col, y, top, nil, style)
		s.SetContent(col, y+h-1, bottom, nil, style)
	}
	for row := y + 1; row < y+h-1; row++ {
		s.SetContent(x, row, '│', nil, style)
		s.SetContent(x+w-1, row, '│', nil, style)
	}
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if width <= 0 || len(text) <= width {
		return []string{text}
	}

	var lines []string
	for len(text) > width {
		breakPoint := width
		if i := strings.LastIndexByte(text[:width], ' '); i > 0 {
			breakPoint = i
		}
		lines = append(lines, text[:breakPoint])
		text = strings.TrimPrefix(text[breakPoint:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
