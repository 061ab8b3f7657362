package ui

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// Toast display durations
const (
	ToastShort = 2 * time.Second
	ToastLong  = 3500 * time.Millisecond
)

// Toast is a transient message shown in the status bar
type Toast struct {
	message string
	isError bool
	expires time.Time
	now     func() time.Time
}

func NewToast() *Toast {
	return &Toast{now: time.Now}
}

func (t *Toast) Show(message string, d time.Duration) {
	t.message = message
	t.isError = false
	t.expires = t.now().Add(d)
}

func (t *Toast) ShowError(message string) {
	t.Show(message, ToastLong)
	t.isError = true
}

// Message returns the current message, or "" once it has expired
func (t *Toast) Message() string {
	if t.message == "" || !t.now().Before(t.expires) {
		return ""
	}
	return t.message
}

func (t *Toast) Style(base tcell.Style) tcell.Style {
	if t.isError {
		return base.Foreground(ColorError)
	}
	return base.Foreground(ColorYellow)
}
