package ui

import (
	"github.com/gdamore/tcell/v2"
)

// ConfirmationDialog is a yes/no prompt drawn over the current view
type ConfirmationDialog struct {
	visible bool
	title   string
	message string
	onYes   func()
	onNo    func()
}

func NewConfirmationDialog() *ConfirmationDialog {
	return &ConfirmationDialog{}
}

func (c *ConfirmationDialog) Show(title, message string, onYes, onNo func()) {
	c.visible = true
	c.title = title
	c.message = message
	c.onYes = onYes
	c.onNo = onNo
}

func (c *ConfirmationDialog) Hide() {
	c.visible = false
	c.title = ""
	c.message = ""
	c.onYes = nil
	c.onNo = nil
}

func (c *ConfirmationDialog) IsVisible() bool {
	return c.visible
}

func (c *ConfirmationDialog) Draw(s tcell.Screen) {
	if !c.visible {
		return
	}

	w, h := s.Size()
	width, height := 50, 8
	if width > w {
		width = w
	}
	if height > h {
		height = h
	}
	startX := (w - width) / 2
	startY := (h - height) / 2

	style := tcell.StyleDefault.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite)
	drawBox(s, startX, startY, width, height, style)

	titleX := startX + (width-len([]rune(c.title)))/2
	if titleX < startX+2 {
		titleX = startX + 2
	}
	drawText(s, titleX, startY+1, style.Foreground(tcell.ColorYellow).Bold(true), c.title)

	for i, line := range wrapText(c.message, width-4) {
		if i+3 >= height-2 {
			break
		}
		drawText(s, startX+2, startY+3+i, style, line)
	}

	buttonsY := startY + height - 2
	drawText(s, startX+width/2-6, buttonsY, style.Bold(true), "[Y]es")
	drawText(s, startX+width/2+2, buttonsY, style.Bold(true), "[N]o")
}

func (c *ConfirmationDialog) HandleKey(ev *tcell.EventKey) bool {
	if !c.visible {
		return false
	}

	answer := func(cb func()) bool {
		c.Hide()
		if cb != nil {
			cb()
		}
		return true
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		return answer(c.onNo)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'y', 'Y':
			return answer(c.onYes)
		case 'n', 'N':
			return answer(c.onNo)
		}
	}

	return true // Consume all other keys when visible
}
