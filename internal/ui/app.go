package ui

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gdamore/tcell/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/csams/nowplaying-tui/internal/models"
	"github.com/csams/nowplaying-tui/internal/player"
	"github.com/csams/nowplaying-tui/internal/playlist"
)

const tickInterval = 250 * time.Millisecond

// View is a full screen of the app
type View interface {
	Draw(s tcell.Screen)
	HandleKey(ev *tcell.EventKey) bool
	HandleMouse(ev *tcell.EventMouse) bool
	OnResume()
	OnPause()
	OnStop()
}

// Options configures an App
type Options struct {
	Session    Session
	Playlists  PlaylistCatalog
	Events     <-chan player.Event
	Queue      []*models.Song
	Directives Directives
	SeekStep   time.Duration
	LongPress  time.Duration
	Scope      string
	// Screen is used instead of the terminal when set
	Screen tcell.Screen
}

// Events posted from other goroutines onto the UI goroutine
type (
	tickEvent struct {
		tcell.EventTime
	}
	playerEvent struct {
		tcell.EventTime
		event player.Event
	}
	playlistsChangedEvent struct {
		tcell.EventTime
		change playlist.Change
	}
)

type App struct {
	screen        tcell.Screen
	quit          chan struct{}
	done          chan struct{}
	quitOnce      sync.Once
	shutdownOnce  sync.Once
	currentView   View
	nowPlaying    *NowPlayingView
	playlists     *PlaylistListView
	helpDialog    *HelpDialog
	confirmDialog *ConfirmationDialog
	toast         *Toast
	catalog       PlaylistCatalog
	events        <-chan player.Event
	queue         []*models.Song
	directives    Directives
	unsubscribe   func()
	ticker        *time.Ticker
	focused       bool
}

func NewApp(opts Options) *App {
	a := &App{
		screen:        opts.Screen,
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		helpDialog:    NewHelpDialog(),
		confirmDialog: NewConfirmationDialog(),
		catalog:       opts.Playlists,
		events:        opts.Events,
		queue:         opts.Queue,
		directives:    opts.Directives,
		focused:       true,
	}

	a.nowPlaying = NewNowPlayingView(opts.Session, opts.Playlists)
	a.nowPlaying.SetSeekStep(opts.SeekStep)
	a.nowPlaying.SetLongPressThreshold(opts.LongPress)
	if opts.Scope != "" {
		a.nowPlaying.SetPlaylistScope(opts.Scope)
	}
	a.toast = a.nowPlaying.Toast()

	a.playlists = NewPlaylistListView(opts.Playlists, a.confirmDialog, a.toast)
	a.playlists.SetHandlers(a.openPlaylist, a.showNowPlaying)

	a.currentView = a.nowPlaying
	return a
}

func (a *App) NowPlaying() *NowPlayingView  { return a.nowPlaying }
func (a *App) Playlists() *PlaylistListView { return a.playlists }
func (a *App) CurrentView() View            { return a.currentView }

func (a *App) Run() error {
	if err := a.start(); err != nil {
		return err
	}

	defer func() {
		a.shutdown()
		a.screen.Fini()
		if r := recover(); r != nil {
			zlog.Error().Interface("panic", r).Msg("panic during shutdown")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			zlog.Info().Msg("received interrupt signal, shutting down")
			a.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-a.quit:
		}
	}()

	// the first frame is drawn before the event goroutine takes over the views
	a.draw()
	go a.handleEvents()

	<-a.done
	zlog.Info().Msg("shutdown complete")
	return nil
}

// start initializes the screen and the views and begins forwarding
// background notifications
func (a *App) start() error {
	if a.screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return errors.Wrap(err, "create screen")
		}
		a.screen = s
	}
	if err := a.screen.Init(); err != nil {
		return errors.Wrap(err, "init screen")
	}
	a.screen.SetStyle(tcell.StyleDefault.Background(ColorBg).Foreground(ColorFg))
	a.screen.EnableMouse(tcell.MouseButtonEvents)
	a.screen.EnableFocus()
	a.screen.Clear()

	a.nowPlaying.Initialize(a.queue, a.directives)
	a.playlists.Reload()

	if a.catalog != nil {
		a.unsubscribe = a.catalog.Subscribe(func(c playlist.Change) {
			a.post(&playlistsChangedEvent{change: c})
		})
	}
	if a.events != nil {
		go a.forwardPlayerEvents()
	}
	a.ticker = time.NewTicker(tickInterval)
	go a.forwardTicks(a.ticker)
	return nil
}

func (a *App) shutdown() {
	a.shutdownOnce.Do(func() {
		zlog.Info().Msg("shutting down nowplaying-tui")
		a.requestQuit()
		if a.ticker != nil {
			a.ticker.Stop()
		}
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
	})
}

func (a *App) requestQuit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

func (a *App) post(ev interface {
	tcell.Event
	SetEventNow()
}) {
	ev.SetEventNow()
	if err := a.screen.PostEvent(ev); err != nil {
		zlog.Debug().Err(err).Msg("event queue full")
	}
}

func (a *App) forwardPlayerEvents() {
	for {
		select {
		case <-a.quit:
			return
		case ev, ok := <-a.events:
			if !ok {
				return
			}
			a.post(&playerEvent{event: ev})
		}
	}
}

func (a *App) forwardTicks(t *time.Ticker) {
	for {
		select {
		case <-a.quit:
			return
		case <-t.C:
			a.post(&tickEvent{})
		}
	}
}

// handleEvents is the UI goroutine. Run waits for it to return before
// tearing the screen down.
func (a *App) handleEvents() {
	defer close(a.done)

	eventChan := make(chan tcell.Event)
	go func() {
		defer close(eventChan)
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-a.quit:
				return
			}
		}
	}()

	for {
		select {
		case <-a.quit:
			return
		case ev, ok := <-eventChan:
			if !ok {
				return
			}
			if !a.handleEvent(ev) {
				a.requestQuit()
				return
			}
		}
	}
}

// handleEvent dispatches one event on the UI goroutine. It returns false
// when the app should exit.
func (a *App) handleEvent(ev tcell.Event) bool {
	redraw := false
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		redraw = true
	case *tcell.EventKey:
		quit, changed := a.handleKey(ev)
		if quit {
			return false
		}
		redraw = changed
	case *tcell.EventMouse:
		redraw = a.handleMouse(ev)
	case *tcell.EventFocus:
		a.handleFocus(ev.Focused)
		redraw = true
	case *tickEvent:
		a.nowPlaying.CheckLongPress()
		redraw = true
	case *playerEvent:
		a.handlePlayerEvent(ev.event)
		redraw = true
	case *playlistsChangedEvent:
		zlog.Debug().Str("id", ev.change.Playlist.ID).Msg("playlists changed")
		a.playlists.Reload()
		redraw = true
	case *tcell.EventInterrupt:
		return false
	}
	if redraw {
		a.draw()
	}
	return true
}

func (a *App) handleKey(ev *tcell.EventKey) (quit, redraw bool) {
	if a.helpDialog.IsVisible() {
		return false, a.helpDialog.HandleKey(ev)
	}
	if a.confirmDialog.IsVisible() {
		return false, a.confirmDialog.HandleKey(ev)
	}
	if ev.Key() == tcell.KeyCtrlC {
		return true, false
	}
	if a.currentView == a.nowPlaying && a.nowPlaying.WantsAllKeys() {
		return false, a.nowPlaying.HandleKey(ev)
	}

	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'q':
			return true, false
		case '?':
			a.helpDialog.Show()
			return false, true
		case 'P':
			if a.currentView != a.playlists {
				a.showPlaylists()
				return false, true
			}
		}
	}
	return false, a.currentView.HandleKey(ev)
}

func (a *App) handleMouse(ev *tcell.EventMouse) bool {
	if a.helpDialog.IsVisible() || a.confirmDialog.IsVisible() {
		return false
	}
	return a.currentView.HandleMouse(ev)
}

// handleFocus maps terminal focus changes onto the view lifecycle
func (a *App) handleFocus(focused bool) {
	if focused == a.focused {
		return
	}
	a.focused = focused
	if focused {
		a.currentView.OnResume()
		return
	}
	a.currentView.OnPause()
	a.currentView.OnStop()
}

func (a *App) handlePlayerEvent(ev player.Event) {
	switch ev.Type {
	case player.EventEndOfTrack:
		a.nowPlaying.OnTrackCompleted()
	case player.EventPlaybackError:
		zlog.Warn().Str("path", ev.Path).Msg("playback error, skipping")
		a.toast.ShowError("Could not play " + ev.Path)
		a.nowPlaying.OnTrackCompleted()
	}
}

func (a *App) switchTo(v View) {
	if a.currentView == v {
		return
	}
	a.currentView.OnPause()
	a.currentView.OnStop()
	a.currentView = v
	v.OnResume()
}

func (a *App) showPlaylists() {
	a.switchTo(a.playlists)
}

func (a *App) showNowPlaying() {
	a.switchTo(a.nowPlaying)
}

func (a *App) openPlaylist(p *models.Playlist) {
	zlog.Info().Str("id", p.ID).Str("name", p.Name).Int("songs", len(p.Songs)).Msg("loading playlist")
	a.showNowPlaying()
	a.nowPlaying.LoadQueue(p.Songs)
	a.toast.Show("Loaded playlist: "+p.Name, ToastShort)
}

func (a *App) draw() {
	w, h := a.screen.Size()
	style := tcell.StyleDefault.Background(ColorBg).Foreground(ColorFg)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a.screen.SetContent(x, y, ' ', nil, style)
		}
	}

	a.currentView.Draw(a.screen)
	a.drawStatusBar()
	a.helpDialog.Draw(a.screen)
	a.confirmDialog.Draw(a.screen)

	a.screen.Show()
}

func (a *App) drawStatusBar() {
	w, h := a.screen.Size()
	style := tcell.StyleDefault.Background(ColorBgHighlight).Foreground(ColorFg)
	fillRow(a.screen, h-1, w, style)

	mode := "QUEUE"
	if a.currentView == a.playlists {
		mode = "PLAYLISTS"
	}
	drawText(a.screen, 0, h-1, style.Bold(true).Foreground(ColorBlue), mode)

	right := ""
	if a.currentView == a.nowPlaying {
		if cur, total := a.nowPlaying.Position(); total > 0 {
			right = fmt.Sprintf("%d/%d", cur, total)
		}
	}
	if right != "" {
		drawText(a.screen, w-len(right)-1, h-1, style, right)
	}

	if msg := a.toast.Message(); msg != "" {
		maxWidth := w - len(mode) - len(right) - 4
		drawTextClipped(a.screen, len(mode)+2, h-1, maxWidth, a.toast.Style(style), msg)
	}
}
