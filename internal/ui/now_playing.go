package ui

import (
	"time"

	"github.com/gdamore/tcell/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/csams/nowplaying-tui/internal/models"
	"github.com/csams/nowplaying-tui/internal/music"
)

// Session is the playback service the queue screen controls
type Session interface {
	SetList(songs []*models.Song)
	Songs() []*models.Song
	SetSong(index int)
	CurrentSongPosition() int
	CurrentSong() *models.Song
	GetSong(index int) *models.Song
	PlaySong() error
	Next()
	Previous()
	OnCompletion() error
	SortBy(key string) bool
	PausePlayer() error
	Unpause() error
	SeekTo(pos time.Duration) error
	GetPosition() time.Duration
	GetDuration() time.Duration
	IsPlaying() bool
	Bound() bool
	ToggleShuffle()
	ToggleRepeat()
	IsShuffle() bool
	IsRepeat() bool
}

// PlaylistStore persists the queue as a named playlist
type PlaylistStore interface {
	NewPlaylist(scope, name string, songs []*models.Song) (*models.Playlist, error)
}

// Directives are the optional launch parameters of the queue screen
type Directives struct {
	Sort    string // sort key applied before playback, "" for none
	Song    int    // queue index to start at, used when HasSong
	HasSong bool
}

const (
	nowPlayingTitle   = "Now Playing"
	menuNewPlaylist   = "new_playlist"
	defaultSeekStep   = 10 * time.Second
	defaultLongPress  = 500 * time.Millisecond
	minActionBarLines = 6
)

var queueMenu = []MenuItem{
	{ID: music.SortTitle, Label: "Sort by title"},
	{ID: music.SortArtist, Label: "Sort by artist"},
	{ID: music.SortAlbum, Label: "Sort by album"},
	{ID: music.SortTrack, Label: "Sort by track"},
	{ID: music.SortRandom, Label: "Shuffle order"},
	{ID: menuNewPlaylist, Label: "New playlist..."},
}

type mousePress struct {
	row   int
	at    time.Time
	fired bool
}

// NowPlayingView is the queue screen. It binds the song table, the
// transport widget and the action bar to a Session. All methods run on
// the UI goroutine.
type NowPlayingView struct {
	session Session
	store   PlaylistStore
	scope   string

	table     *Table
	actionBar *ActionBar
	menu      *PopupMenu
	input     *InputDialog
	toast     *Toast
	transport *TransportWidget
	search    *SearchState
	searching bool

	// paused is set when the screen loses focus; playbackPaused records
	// that the transport widget has to be rebuilt on the next playback change
	paused         bool
	playbackPaused bool

	seekStep  time.Duration
	longPress time.Duration
	press     *mousePress
	now       func() time.Time

	// snapshot taken at the start of each draw
	drawCurrent int
	drawPlaying bool
}

func NewNowPlayingView(session Session, store PlaylistStore) *NowPlayingView {
	v := &NowPlayingView{
		session:     session,
		store:       store,
		scope:       models.ScopeExternal,
		table:       NewTable(),
		actionBar:   NewActionBar(nowPlayingTitle),
		menu:        NewPopupMenu(),
		input:       NewInputDialog(),
		toast:       NewToast(),
		search:      NewSearchState(),
		seekStep:    defaultSeekStep,
		longPress:   defaultLongPress,
		now:         time.Now,
		drawCurrent: -1,
	}
	v.table.SetColumns(songColumns)
	return v
}

func (v *NowPlayingView) SetSeekStep(d time.Duration) {
	if d > 0 {
		v.seekStep = d
	}
}

func (v *NowPlayingView) SetLongPressThreshold(d time.Duration) {
	if d > 0 {
		v.longPress = d
	}
}

func (v *NowPlayingView) SetPlaylistScope(scope string) {
	v.scope = scope
}

func (v *NowPlayingView) Toast() *Toast               { return v.toast }
func (v *NowPlayingView) ActionBar() *ActionBar       { return v.actionBar }
func (v *NowPlayingView) Transport() *TransportWidget { return v.transport }
func (v *NowPlayingView) SelectedIndex() int          { return v.table.SelectedIndex() }
func (v *NowPlayingView) IsPaused() bool              { return v.paused }
func (v *NowPlayingView) IsPlaybackPaused() bool      { return v.playbackPaused }
func (v *NowPlayingView) Menu() *PopupMenu            { return v.menu }
func (v *NowPlayingView) InputDialog() *InputDialog   { return v.input }
func (v *NowPlayingView) Searching() bool             { return v.searching }
func (v *NowPlayingView) SearchState() *SearchState   { return v.search }
func (v *NowPlayingView) WantsAllKeys() bool          { return v.searching || v.input.IsVisible() || v.menu.IsVisible() }

// Initialize loads queue into the session and starts playback when
// launch directives were given
func (v *NowPlayingView) Initialize(queue []*models.Song, d Directives) {
	v.session.SetList(queue)
	v.session.SetSong(0)

	if d.Sort != "" || d.HasSong {
		if d.Sort != "" && !v.session.SortBy(d.Sort) {
			zlog.Warn().Str("sort", d.Sort).Msg("ignoring unknown sort directive")
		}
		if d.HasSong {
			v.session.SetSong(d.Song)
		}
		v.play()
	}

	v.refreshRows()
	v.table.Select(v.session.CurrentSongPosition())
	v.refreshSubtitle()
	v.refreshActionBarItems()
	v.setMusicController()
	zlog.Debug().Int("songs", len(queue)).Str("sort", d.Sort).Int("current", v.session.CurrentSongPosition()).Msg("queue screen initialized")
}

// LoadQueue replaces the queue and plays it from the first song
func (v *NowPlayingView) LoadQueue(queue []*models.Song) {
	v.Initialize(queue, Directives{Song: 0, HasSong: true})
}

// OnItemSelected plays the song at index
func (v *NowPlayingView) OnItemSelected(index int) {
	v.session.SetSong(index)
	v.table.Select(v.session.CurrentSongPosition())
	v.play()
	v.refreshSubtitle()

	if v.playbackPaused {
		v.setMusicController()
		v.playbackPaused = false
	}
}

// OnItemLongPressed shows the genre of the song at index. It always
// reports the gesture as handled so no selection follows.
func (v *NowPlayingView) OnItemLongPressed(index int) bool {
	if song := v.session.GetSong(index); song != nil {
		v.toast.Show(song.DisplayGenre(), ToastLong)
	}
	return true
}

// ShowQueueMenu opens the sort/playlist menu under the home button
func (v *NowPlayingView) ShowQueueMenu() {
	if v.actionBar == nil || !v.actionBar.Visible() {
		return
	}
	v.menu.Show(0, 1, queueMenu, v.onMenuItem)
}

func (v *NowPlayingView) onMenuItem(item MenuItem) {
	switch {
	case item.ID == menuNewPlaylist:
		v.input.Show("New playlist", "Save the current queue as a playlist named:", v.CreatePlaylist, nil)
	case music.IsSortKey(item.ID):
		v.sortQueue(item.ID)
	default:
		zlog.Warn().Str("item", item.ID).Msg("unknown queue menu item")
	}
}

func (v *NowPlayingView) sortQueue(key string) {
	if !v.session.SortBy(key) {
		return
	}
	v.refreshRows()
	v.table.Select(v.session.CurrentSongPosition())
}

// CreatePlaylist stores the whole queue, in order, under name
func (v *NowPlayingView) CreatePlaylist(name string) {
	p, err := v.store.NewPlaylist(v.scope, name, v.session.Songs())
	if err != nil {
		v.report(err, "Could not create playlist")
		return
	}
	v.toast.Show("Playlist created: "+p.Name, ToastShort)
}

func (v *NowPlayingView) PlayNext() {
	v.session.Next()
	v.afterSkip()
}

func (v *NowPlayingView) PlayPrevious() {
	v.session.Previous()
	v.afterSkip()
}

func (v *NowPlayingView) afterSkip() {
	v.play()
	v.refreshSubtitle()
	if v.playbackPaused || v.transport == nil {
		v.setMusicController()
		v.playbackPaused = false
	}
	v.transport.Show()
}

// OnTrackCompleted advances after the backend finished a song
func (v *NowPlayingView) OnTrackCompleted() {
	if err := v.session.OnCompletion(); err != nil {
		v.report(err, "Playback failed")
	}
	v.refreshSubtitle()
}

// OnOptionsItemSelected handles the action bar buttons
func (v *NowPlayingView) OnOptionsItemSelected(item ActionItem) bool {
	switch item {
	case ActionHome:
		v.ShowQueueMenu()
	case ActionShuffle:
		v.session.ToggleShuffle()
		v.actionBar.SetShuffle(v.session.IsShuffle())
	case ActionRepeat:
		v.session.ToggleRepeat()
		v.actionBar.SetRepeat(v.session.IsRepeat())
	default:
		return false
	}
	return true
}

func (v *NowPlayingView) OnResume() {
	v.refreshSubtitle()
	if v.paused {
		v.setMusicController()
		v.paused = false
	}
}

func (v *NowPlayingView) OnPause() {
	v.paused = true
	v.playbackPaused = true
}

func (v *NowPlayingView) OnStop() {
	if v.transport != nil {
		v.transport.Hide()
	}
}

// setMusicController rebuilds the transport widget around this view
func (v *NowPlayingView) setMusicController() {
	v.transport = NewTransportWidget(v, v.seekStep)
	v.transport.SetPrevNextListeners(v.PlayNext, v.PlayPrevious)
	v.transport.SetEnabled(true)
	v.transport.Show()
}

func (v *NowPlayingView) play() {
	if err := v.session.PlaySong(); err != nil {
		v.report(err, "Playback failed")
	}
}

func (v *NowPlayingView) report(err error, msg string) {
	zlog.Warn().Err(err).Msg(msg)
	v.toast.ShowError(msg + ": " + err.Error())
}

func (v *NowPlayingView) refreshSubtitle() {
	if v.actionBar == nil {
		return
	}
	if song := v.session.CurrentSong(); song != nil {
		v.actionBar.SetSubtitle(song.Title)
	}
}

func (v *NowPlayingView) refreshActionBarItems() {
	v.actionBar.SetShuffle(v.session.IsShuffle())
	v.actionBar.SetRepeat(v.session.IsRepeat())
}

func (v *NowPlayingView) refreshRows() {
	songs := v.session.Songs()
	rows := make([]TableRow, len(songs))
	for i, song := range songs {
		row := &SongTableRow{song: song, index: i, view: v}
		if v.searching {
			if ok, m := v.search.MatchSong(song); ok {
				row.highlights = m.Positions
			}
		}
		rows[i] = row
	}
	v.table.SetRows(rows)
}

// MediaPlayerControl

func (v *NowPlayingView) Start() {
	if err := v.session.Unpause(); err != nil {
		v.report(err, "Could not resume")
	}
}

func (v *NowPlayingView) Pause() {
	if err := v.session.PausePlayer(); err != nil {
		v.report(err, "Could not pause")
	}
}

func (v *NowPlayingView) Duration() time.Duration {
	if v.session.Bound() && v.session.IsPlaying() {
		return v.session.GetDuration()
	}
	return 0
}

func (v *NowPlayingView) CurrentPosition() time.Duration {
	if v.session.Bound() && v.session.IsPlaying() {
		return v.session.GetPosition()
	}
	return 0
}

func (v *NowPlayingView) SeekTo(pos time.Duration) {
	if err := v.session.SeekTo(pos); err != nil {
		v.report(err, "Could not seek")
	}
}

func (v *NowPlayingView) IsPlaying() bool {
	return v.session.Bound() && v.session.IsPlaying()
}

func (v *NowPlayingView) CanPause() bool        { return true }
func (v *NowPlayingView) CanSeekBackward() bool { return true }
func (v *NowPlayingView) CanSeekForward() bool  { return true }

// Find in queue

func (v *NowPlayingView) startSearch() {
	v.searching = true
	v.search.Clear()
	v.refreshRows()
}

func (v *NowPlayingView) endSearch(jump bool) {
	if jump {
		if idx := v.search.BestMatch(v.session.Songs()); idx >= 0 {
			v.table.Select(idx)
		} else {
			v.toast.Show("No match for "+v.search.Query(), ToastShort)
		}
	}
	v.searching = false
	v.refreshRows()
}

// toggleSearchThreshold switches between filtered and unfiltered matching
func (v *NowPlayingView) toggleSearchThreshold() {
	if v.search.MinScore() == ScoreThresholdNone {
		v.search.SetMinScore(ScoreThresholdNormal)
		v.toast.Show("Find: normal matching", ToastShort)
		return
	}
	v.search.SetMinScore(ScoreThresholdNone)
	v.toast.Show("Find: all matches", ToastShort)
}

func (v *NowPlayingView) handleSearchKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		v.endSearch(false)
		return true
	case tcell.KeyEnter:
		v.endSearch(true)
		return true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if v.search.Query() == "" {
			v.endSearch(false)
			return true
		}
		v.search.DeleteChar()
	case tcell.KeyLeft:
		v.search.MoveCursorLeft()
	case tcell.KeyRight:
		v.search.MoveCursorRight()
	case tcell.KeyCtrlW:
		v.search.DeleteWord()
	case tcell.KeyCtrlK:
		v.search.DeleteToEnd()
	case tcell.KeyCtrlT:
		v.toggleSearchThreshold()
	case tcell.KeyRune:
		v.search.InsertChar(ev.Rune())
	default:
		return true
	}
	v.refreshRows()
	if idx := v.search.BestMatch(v.session.Songs()); idx >= 0 {
		v.table.Select(idx)
	}
	return true
}

// Input

func (v *NowPlayingView) HandleKey(ev *tcell.EventKey) bool {
	if v.input.IsVisible() {
		return v.input.HandleKey(ev)
	}
	if v.menu.IsVisible() {
		return v.menu.HandleKey(ev)
	}
	if v.searching {
		return v.handleSearchKey(ev)
	}

	switch ev.Key() {
	case tcell.KeyDown:
		return v.table.SelectNext()
	case tcell.KeyUp:
		return v.table.SelectPrevious()
	case tcell.KeyCtrlD, tcell.KeyPgDn:
		return v.table.PageDown()
	case tcell.KeyCtrlU, tcell.KeyPgUp:
		return v.table.PageUp()
	case tcell.KeyEnter:
		return v.selectCurrentRow()
	case tcell.KeyF10:
		return v.OnOptionsItemSelected(ActionHome)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			return v.table.SelectNext()
		case 'k':
			return v.table.SelectPrevious()
		case 'g':
			v.table.SelectFirst()
			return true
		case 'G':
			v.table.SelectLast()
			return true
		case 'o':
			v.table.Select(v.session.CurrentSongPosition())
			return true
		case 'l':
			return v.selectCurrentRow()
		case 'i':
			if v.table.Len() > 0 {
				return v.OnItemLongPressed(v.table.SelectedIndex())
			}
			return false
		case 'm':
			return v.OnOptionsItemSelected(ActionHome)
		case 's':
			return v.OnOptionsItemSelected(ActionShuffle)
		case 'r':
			return v.OnOptionsItemSelected(ActionRepeat)
		case 'c':
			if v.transport != nil {
				v.transport.Show()
			}
			return true
		case '/':
			v.startSearch()
			return true
		}
	}

	if v.transport != nil && v.table.Len() > 0 {
		return v.transport.HandleKey(ev)
	}
	return false
}

func (v *NowPlayingView) selectCurrentRow() bool {
	if v.table.Len() == 0 {
		return false
	}
	v.OnItemSelected(v.table.SelectedIndex())
	return true
}

// HandleMouse classifies a press/release on a row once: a hold of at
// least the long-press threshold is a long press, anything shorter is a
// selection
func (v *NowPlayingView) HandleMouse(ev *tcell.EventMouse) bool {
	if v.input.IsVisible() {
		return false
	}
	if v.menu.IsVisible() {
		return v.menu.HandleMouse(ev)
	}

	x, y := ev.Position()
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		v.table.ScrollBy(-3)
		return true
	case buttons&tcell.WheelDown != 0:
		v.table.ScrollBy(3)
		return true
	case buttons&tcell.Button1 != 0:
		if v.press != nil {
			return false // still held
		}
		if item, ok := v.actionBar.ItemAt(x, y); ok {
			return v.OnOptionsItemSelected(item)
		}
		if row := v.table.RowAt(x, y); row >= 0 {
			v.press = &mousePress{row: row, at: v.now()}
			v.table.Select(row)
			return true
		}
		return false
	case buttons == tcell.ButtonNone:
		p := v.press
		if p == nil {
			return false
		}
		v.press = nil
		if p.fired {
			return true
		}
		if v.now().Sub(p.at) >= v.longPress && v.OnItemLongPressed(p.row) {
			return true
		}
		v.OnItemSelected(p.row)
		return true
	}
	return false
}

// CheckLongPress fires the long press for a button still held past the
// threshold. The app calls it on every tick.
func (v *NowPlayingView) CheckLongPress() bool {
	p := v.press
	if p == nil || p.fired || v.now().Sub(p.at) < v.longPress {
		return false
	}
	p.fired = v.OnItemLongPressed(p.row)
	return true
}

func (v *NowPlayingView) Draw(s tcell.Screen) {
	width, height := s.Size()
	v.drawCurrent = v.session.CurrentSongPosition()
	v.drawPlaying = v.IsPlaying()
	if v.table.Len() == 0 {
		v.drawCurrent = -1
	}

	top := 0
	v.actionBar.SetVisible(height >= minActionBarLines)
	if v.actionBar.Visible() {
		v.actionBar.Draw(s, width)
		for x := 0; x < width; x++ {
			s.SetContent(x, 1, '─', nil, tcell.StyleDefault.Background(ColorBg).Foreground(ColorDimmed))
		}
		top = 2
	}

	// transport line and status bar sit below the table
	v.table.SetBounds(0, top, width, height-top-2)
	v.table.Draw(s)
	if v.table.Len() == 0 {
		drawText(s, 2, top+2, tcell.StyleDefault.Background(ColorBg).Foreground(ColorDimmed), "The queue is empty")
	}

	if v.searching {
		v.drawSearchLine(s, height-2, width)
	} else if v.transport != nil {
		v.transport.Draw(s, height-2, width)
	}

	v.menu.Draw(s)
	v.input.Draw(s)
}

func (v *NowPlayingView) drawSearchLine(s tcell.Screen, y, width int) {
	style := tcell.StyleDefault.Background(ColorBgDark).Foreground(ColorFg)
	fillRow(s, y, width, style)
	drawText(s, 0, y, style.Foreground(ColorCyan), "/")
	drawText(s, 1, y, style, v.search.Query())

	cursorX := 1 + v.search.CursorColumn()
	ch := ' '
	if q := []rune(v.search.Query()); v.search.CursorColumn() < len(q) {
		ch = q[v.search.CursorColumn()]
	}
	s.SetContent(cursorX, y, ch, nil, style.Reverse(true))
}

// Position describes the selection for the status bar
func (v *NowPlayingView) Position() (current, total int) {
	return v.session.CurrentSongPosition() + 1, v.table.Len()
}
