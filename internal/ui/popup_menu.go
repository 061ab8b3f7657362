package ui

import (
	"github.com/gdamore/tcell/v2"
)

// MenuItem is one entry of a PopupMenu
type MenuItem struct {
	ID    string
	Label string
}

// PopupMenu is a small list anchored at a screen position
type PopupMenu struct {
	visible  bool
	items    []MenuItem
	selected int
	x, y     int
	width    int
	onSelect func(MenuItem)
}

func NewPopupMenu() *PopupMenu {
	return &PopupMenu{}
}

// Show opens the menu with its top-left corner at (x, y)
func (m *PopupMenu) Show(x, y int, items []MenuItem, onSelect func(MenuItem)) {
	m.visible = true
	m.items = items
	m.selected = 0
	m.x, m.y = x, y
	m.onSelect = onSelect

	m.width = 0
	for _, it := range items {
		if n := len([]rune(it.Label)); n > m.width {
			m.width = n
		}
	}
	m.width += 4
}

func (m *PopupMenu) Hide() {
	m.visible = false
	m.items = nil
	m.onSelect = nil
}

func (m *PopupMenu) IsVisible() bool {
	return m.visible
}

func (m *PopupMenu) Items() []MenuItem {
	return m.items
}

func (m *PopupMenu) Draw(s tcell.Screen) {
	if !m.visible {
		return
	}
	style := tcell.StyleDefault.Background(ColorMenu).Foreground(ColorFg)
	drawBox(s, m.x, m.y, m.width, len(m.items)+2, style)
	for i, it := range m.items {
		st := style
		if i == m.selected {
			st = style.Background(ColorBlue).Foreground(ColorBgDark).Bold(true)
			fillSpan(s, m.x+1, m.y+1+i, m.width-2, st)
		}
		drawText(s, m.x+2, m.y+1+i, st, it.Label)
	}
}

func fillSpan(s tcell.Screen, x, y, n int, style tcell.Style) {
	for i := 0; i < n; i++ {
		s.SetContent(x+i, y, ' ', nil, style)
	}
}

func (m *PopupMenu) choose(index int) {
	item := m.items[index]
	cb := m.onSelect
	m.Hide()
	if cb != nil {
		cb(item)
	}
}

func (m *PopupMenu) HandleKey(ev *tcell.EventKey) bool {
	if !m.visible {
		return false
	}
	switch ev.Key() {
	case tcell.KeyEscape:
		m.Hide()
	case tcell.KeyUp:
		m.move(-1)
	case tcell.KeyDown:
		m.move(1)
	case tcell.KeyEnter:
		m.choose(m.selected)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			m.move(1)
		case 'k':
			m.move(-1)
		case 'q':
			m.Hide()
		}
	}
	return true // Consume all other keys when visible
}

func (m *PopupMenu) move(delta int) {
	n := len(m.items)
	if n == 0 {
		return
	}
	m.selected = (m.selected + delta + n) % n
}

// HandleMouse selects the clicked item; a click outside closes the menu
func (m *PopupMenu) HandleMouse(ev *tcell.EventMouse) bool {
	if !m.visible || ev.Buttons()&tcell.Button1 == 0 {
		return m.visible
	}
	x, y := ev.Position()
	idx := y - m.y - 1
	if x <= m.x || x >= m.x+m.width-1 || idx < 0 || idx >= len(m.items) {
		m.Hide()
		return true
	}
	m.choose(idx)
	return true
}
