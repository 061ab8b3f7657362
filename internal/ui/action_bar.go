package ui

import (
	"github.com/gdamore/tcell/v2"
)

// ActionItem identifies an action bar button
type ActionItem int

const (
	ActionHome ActionItem = iota
	ActionShuffle
	ActionRepeat
)

const (
	iconHome    = "☰"
	iconShuffle = "⤮"
	iconRepeat  = "↻"
)

type span struct {
	start, end int
	item       ActionItem
}

// ActionBar is the title line with the home button and the
// shuffle/repeat toggles
type ActionBar struct {
	title    string
	subtitle string
	shuffle  bool
	repeat   bool
	visible  bool
	spans    []span
}

func NewActionBar(title string) *ActionBar {
	return &ActionBar{title: title, visible: true}
}

func (b *ActionBar) Title() string    { return b.title }
func (b *ActionBar) Subtitle() string { return b.subtitle }

func (b *ActionBar) SetSubtitle(subtitle string) {
	b.subtitle = subtitle
}

func (b *ActionBar) SetShuffle(on bool) { b.shuffle = on }
func (b *ActionBar) SetRepeat(on bool)  { b.repeat = on }
func (b *ActionBar) ShuffleOn() bool    { return b.shuffle }
func (b *ActionBar) RepeatOn() bool     { return b.repeat }

// Visible is false while the screen is too short to host the bar
func (b *ActionBar) Visible() bool {
	return b.visible
}

func (b *ActionBar) SetVisible(visible bool) {
	b.visible = visible
	if !visible {
		b.spans = nil
	}
}

// ItemAt maps a click on row 0 to a button
func (b *ActionBar) ItemAt(x, y int) (ActionItem, bool) {
	if !b.visible || y != 0 {
		return 0, false
	}
	for _, sp := range b.spans {
		if x >= sp.start && x < sp.end {
			return sp.item, true
		}
	}
	return 0, false
}

func (b *ActionBar) Draw(s tcell.Screen, width int) {
	if !b.visible {
		return
	}
	base := tcell.StyleDefault.Background(ColorBgDark).Foreground(ColorFg)
	fillRow(s, 0, width, base)
	b.spans = b.spans[:0]

	home := " " + iconHome + " "
	drawText(s, 0, 0, base.Foreground(ColorBlue), home)
	b.spans = append(b.spans, span{0, 3, ActionHome})

	x := 3
	drawText(s, x, 0, base.Bold(true).Foreground(ColorHeader), b.title)
	x += len([]rune(b.title))

	// right-aligned toggles: " ⤮  ↻ "
	toggles := []struct {
		icon string
		on   bool
		item ActionItem
	}{
		{iconShuffle, b.shuffle, ActionShuffle},
		{iconRepeat, b.repeat, ActionRepeat},
	}
	right := width - len(toggles)*3
	if b.subtitle != "" {
		drawText(s, x, 0, base.Foreground(ColorDimmed), " · ")
		drawTextClipped(s, x+3, 0, right-x-4, base.Foreground(ColorBright), b.subtitle)
	}
	for i, tg := range toggles {
		style := base.Foreground(ColorToggleOff)
		if tg.on {
			style = base.Foreground(ColorToggleOn).Bold(true)
		}
		start := right + i*3
		drawText(s, start, 0, style, " "+tg.icon+" ")
		b.spans = append(b.spans, span{start, start + 3, tg.item})
	}
}
