package ui

import (
	"github.com/gdamore/tcell/v2"
)

type HelpDialog struct {
	visible      bool
	scrollOffset int
	visibleLines int
}

func NewHelpDialog() *HelpDialog {
	return &HelpDialog{visibleLines: 15}
}

func (h *HelpDialog) Show() {
	h.visible = true
	h.scrollOffset = 0
}

func (h *HelpDialog) Hide() {
	h.visible = false
}

func (h *HelpDialog) IsVisible() bool {
	return h.visible
}

func (h *HelpDialog) Draw(s tcell.Screen) {
	if !h.visible {
		return
	}

	w, screenHeight := s.Size()
	lines := helpContent

	maxLineWidth := 0
	for _, line := range lines {
		if len(line) > maxLineWidth {
			maxLineWidth = len(line)
		}
	}
	dialogWidth := maxLineWidth + 4
	if dialogWidth > w-4 {
		dialogWidth = w - 4
	}
	if dialogWidth < 40 {
		dialogWidth = 40
	}
	dialogHeight := len(lines) + 6
	if dialogHeight > screenHeight-4 {
		dialogHeight = screenHeight - 4
	}
	if dialogHeight < 10 {
		dialogHeight = 10
	}

	startX := (w - dialogWidth) / 2
	startY := (screenHeight - dialogHeight) / 2
	if startX < 1 {
		startX = 1
	}
	if startY < 1 {
		startY = 1
	}

	style := tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorWhite)
	drawBox(s, startX, startY, dialogWidth, dialogHeight, style)

	title := "Help - Keybindings"
	drawText(s, startX+(dialogWidth-len(title))/2, startY+1, style.Foreground(tcell.ColorYellow).Bold(true), title)

	h.visibleLines = dialogHeight - 5
	h.clampScroll()
	for i := 0; i < h.visibleLines && i+h.scrollOffset < len(lines); i++ {
		drawTextClipped(s, startX+2, startY+3+i, dialogWidth-4, style, lines[i+h.scrollOffset])
	}

	footer := "Press Esc or ? to close this help dialog"
	if len(lines) > h.visibleLines {
		footer = "j/k to scroll, Esc to close"
	}
	footerX := startX + (dialogWidth-len(footer))/2
	if footerX < startX+2 {
		footerX = startX + 2
	}
	drawText(s, footerX, startY+dialogHeight-2, style.Foreground(tcell.ColorGray), footer)
}

func (h *HelpDialog) HandleKey(ev *tcell.EventKey) bool {
	if !h.visible {
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		h.Hide()
	case tcell.KeyUp:
		h.scrollOffset--
	case tcell.KeyDown:
		h.scrollOffset++
	case tcell.KeyRune:
		switch ev.Rune() {
		case '?', 'q':
			h.Hide()
		case 'j':
			h.scrollOffset++
		case 'k':
			h.scrollOffset--
		case 'g':
			h.scrollOffset = 0
		case 'G':
			h.scrollOffset = len(helpContent)
		}
	}
	h.clampScroll()

	return true // Consume all other keys when visible
}

func (h *HelpDialog) clampScroll() {
	maxScroll := len(helpContent) - h.visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if h.scrollOffset > maxScroll {
		h.scrollOffset = maxScroll
	}
	if h.scrollOffset < 0 {
		h.scrollOffset = 0
	}
}

var helpContent = []string{
	"Queue:",
	"  j / k         Move down/up",
	"  Ctrl+D / U    Page down/up",
	"  g / G         Go to top/bottom",
	"  o             Jump to the current song",
	"  Enter / l     Play selected song",
	"  i             Show genre of selected song",
	"  /             Find in queue",
	"  Ctrl+T        Toggle match filtering while finding",
	"",
	"Menu:",
	"  m / F10       Sort queue or save it as a playlist",
	"  s             Toggle shuffle",
	"  r             Toggle repeat",
	"",
	"Playback:",
	"  Space         Play/pause",
	"  f / b         Seek forward/backward",
	"  Left/Right    Seek backward/forward",
	"  n / p         Next/previous song",
	"  c             Show transport controls",
	"",
	"Mouse:",
	"  Click         Play song",
	"  Hold          Show genre",
	"",
	"Playlists:",
	"  P             Open saved playlists",
	"  Enter         Load playlist into the queue",
	"  d             Delete playlist",
	"  Esc / h       Back to the queue",
	"",
	"Other:",
	"  ?             Show this help dialog",
	"  q / Ctrl+C    Quit",
}
