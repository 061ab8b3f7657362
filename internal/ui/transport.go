package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
)

// MediaPlayerControl is what the transport widget drives
type MediaPlayerControl interface {
	Start()
	Pause()
	Duration() time.Duration
	CurrentPosition() time.Duration
	SeekTo(pos time.Duration)
	IsPlaying() bool
	CanPause() bool
	CanSeekBackward() bool
	CanSeekForward() bool
}

// TransportWidget is the play/pause, seek and prev/next line above the
// status bar
type TransportWidget struct {
	control  MediaPlayerControl
	next     func()
	prev     func()
	seekStep time.Duration
	visible  bool
	enabled  bool

	// last values reported while playing, shown while paused
	lastPosition time.Duration
	lastDuration time.Duration
}

func NewTransportWidget(control MediaPlayerControl, seekStep time.Duration) *TransportWidget {
	return &TransportWidget{control: control, seekStep: seekStep}
}

// SetPrevNextListeners wires the skip buttons
func (t *TransportWidget) SetPrevNextListeners(next, prev func()) {
	t.next = next
	t.prev = prev
}

func (t *TransportWidget) SetEnabled(enabled bool) { t.enabled = enabled }
func (t *TransportWidget) IsEnabled() bool         { return t.enabled }

func (t *TransportWidget) Show() { t.visible = true }
func (t *TransportWidget) Hide() { t.visible = false }

func (t *TransportWidget) IsVisible() bool {
	return t.visible
}

func (t *TransportWidget) sample() (pos, dur time.Duration) {
	if t.control.IsPlaying() {
		t.lastPosition = t.control.CurrentPosition()
		t.lastDuration = t.control.Duration()
	}
	return t.lastPosition, t.lastDuration
}

// TogglePlay pauses when playing and starts otherwise
func (t *TransportWidget) TogglePlay() {
	if t.control.IsPlaying() {
		if t.control.CanPause() {
			t.sample()
			t.control.Pause()
		}
		return
	}
	t.control.Start()
}

// Seek moves relative to the current position
func (t *TransportWidget) Seek(delta time.Duration) {
	if delta < 0 && !t.control.CanSeekBackward() || delta > 0 && !t.control.CanSeekForward() {
		return
	}
	pos, _ := t.sample()
	target := pos + delta
	if target < 0 {
		target = 0
	}
	t.control.SeekTo(target)
	t.lastPosition = target
}

// HandleKey runs transport keys; any handled key also shows the widget
func (t *TransportWidget) HandleKey(ev *tcell.EventKey) bool {
	if !t.enabled {
		return false
	}
	switch ev.Key() {
	case tcell.KeyLeft:
		t.Seek(-t.seekStep)
	case tcell.KeyRight:
		t.Seek(t.seekStep)
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			t.TogglePlay()
		case 'f':
			t.Seek(t.seekStep)
		case 'b':
			t.Seek(-t.seekStep)
		case 'n':
			if t.next == nil {
				return false
			}
			t.next()
		case 'p':
			if t.prev == nil {
				return false
			}
			t.prev()
		default:
			return false
		}
	default:
		return false
	}
	t.Show()
	return true
}

func (t *TransportWidget) Draw(s tcell.Screen, y, width int) {
	if !t.visible {
		return
	}
	base := tcell.StyleDefault.Background(ColorBgDark).Foreground(ColorFg)
	fillRow(s, y, width, base)

	playing := t.control.IsPlaying()
	pos, dur := t.sample()

	state, stateStyle := "⏸", base.Foreground(ColorPaused)
	if playing {
		state, stateStyle = "▶", base.Foreground(ColorPlaying)
	}
	drawText(s, 1, y, base.Foreground(ColorDimmed), "⏮")
	drawText(s, 3, y, stateStyle.Bold(true), state)
	drawText(s, 5, y, base.Foreground(ColorDimmed), "⏭")

	left := formatQueueDuration(pos)
	right := formatQueueDuration(dur)
	drawText(s, 8, y, base, left)
	rightX := width - len(right) - 1
	drawText(s, rightX, y, base, right)

	barX := 8 + len(left) + 1
	barWidth := rightX - 1 - barX
	if barWidth > 2 {
		drawText(s, barX, y, base.Foreground(ColorBlue), progressBar(pos, dur, barWidth))
	}
}

func progressBar(pos, dur time.Duration, width int) string {
	filled := 0
	if dur > 0 {
		filled = int(float64(width) * float64(pos) / float64(dur))
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

func formatQueueDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
