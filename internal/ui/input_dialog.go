package ui

import (
	"github.com/gdamore/tcell/v2"
)

// InputDialog asks for a single line of text. Show returns immediately;
// onOK or onCancel runs later from HandleKey.
type InputDialog struct {
	visible  bool
	title    string
	message  string
	field    *SearchState
	onOK     func(text string)
	onCancel func()
}

func NewInputDialog() *InputDialog {
	return &InputDialog{field: NewSearchState()}
}

func (d *InputDialog) Show(title, message string, onOK func(string), onCancel func()) {
	d.visible = true
	d.title = title
	d.message = message
	d.field.Clear()
	d.onOK = onOK
	d.onCancel = onCancel
}

func (d *InputDialog) Hide() {
	d.visible = false
	d.onOK = nil
	d.onCancel = nil
}

func (d *InputDialog) IsVisible() bool {
	return d.visible
}

func (d *InputDialog) Text() string {
	return d.field.Query()
}

func (d *InputDialog) HandleKey(ev *tcell.EventKey) bool {
	if !d.visible {
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		cb := d.onCancel
		d.Hide()
		if cb != nil {
			cb()
		}
	case tcell.KeyEnter:
		cb, text := d.onOK, d.field.Query()
		d.Hide()
		if cb != nil {
			cb(text)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		d.field.DeleteChar()
	case tcell.KeyLeft:
		d.field.MoveCursorLeft()
	case tcell.KeyRight:
		d.field.MoveCursorRight()
	case tcell.KeyCtrlW:
		d.field.DeleteWord()
	case tcell.KeyCtrlK:
		d.field.DeleteToEnd()
	case tcell.KeyRune:
		d.field.InsertChar(ev.Rune())
	}
	return true // Consume all other keys when visible
}

func (d *InputDialog) Draw(s tcell.Screen) {
	if !d.visible {
		return
	}

	w, h := s.Size()
	width := 50
	if width > w {
		width = w
	}
	lines := wrapText(d.message, width-4)
	height := len(lines) + 7
	startX := (w - width) / 2
	startY := (h - height) / 2
	if startY < 0 {
		startY = 0
	}

	style := tcell.StyleDefault.Background(ColorBlue7).Foreground(ColorFg)
	drawBox(s, startX, startY, width, height, style)

	titleX := startX + (width-len([]rune(d.title)))/2
	drawText(s, titleX, startY+1, style.Foreground(ColorYellow).Bold(true), d.title)
	for i, line := range lines {
		drawText(s, startX+2, startY+3+i, style, line)
	}

	fieldY := startY + 3 + len(lines)
	fieldStyle := tcell.StyleDefault.Background(ColorBgDark).Foreground(ColorBright)
	fillSpan(s, startX+2, fieldY, width-4, fieldStyle)
	drawTextClipped(s, startX+2, fieldY, width-5, fieldStyle, d.field.Query())
	cursorX := startX + 2 + d.field.CursorColumn()
	if cursorX < startX+width-2 {
		ch := ' '
		if rest := []rune(d.field.Query()); d.field.CursorColumn() < len(rest) {
			ch = rest[d.field.CursorColumn()]
		}
		s.SetContent(cursorX, fieldY, ch, nil, fieldStyle.Reverse(true))
	}

	hint := "[Enter] OK   [Esc] Cancel"
	drawText(s, startX+(width-len(hint))/2, startY+height-2, style.Bold(true), hint)
}
