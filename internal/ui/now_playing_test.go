package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csams/nowplaying-tui/internal/models"
	"github.com/csams/nowplaying-tui/internal/music"
)

func TestInitializeWithoutDirectives(t *testing.T) {
	v := newTestView(t)

	v.Initialize(testSongs(), Directives{})

	assert.Equal(t, []string{"SetList", "SetSong:0"}, v.session.calls)
	assert.Empty(t, v.backend.loaded)
	assert.Equal(t, 0, v.SelectedIndex())
	require.NotNil(t, v.Transport())
	assert.True(t, v.Transport().IsVisible())
	assert.True(t, v.Transport().IsEnabled())
	assert.Equal(t, "Delta", v.ActionBar().Subtitle())
}

func TestInitializeSortThenSong(t *testing.T) {
	v := newTestView(t)

	v.Initialize(testSongs(), Directives{Sort: music.SortTitle, Song: 1, HasSong: true})

	assert.Equal(t, []string{"SetList", "SetSong:0", "SortBy:title", "SetSong:1", "PlaySong"}, v.session.calls)
	assert.Equal(t, []string{"2", "4", "3", "1"}, songIDs(v.session.Songs()))
	assert.Equal(t, "4", v.session.CurrentSong().ID)
	assert.Equal(t, []string{"/music/4.mp3"}, v.backend.loaded)
	assert.Equal(t, 1, v.SelectedIndex())
}

func TestInitializeOutOfRangeSongStartsAtFirst(t *testing.T) {
	for _, idx := range []int{-1, 4, 99} {
		v := newTestView(t)

		v.Initialize(testSongs(), Directives{Song: idx, HasSong: true})

		assert.Equal(t, 0, v.session.CurrentSongPosition(), "index %d", idx)
		assert.Equal(t, []string{"/music/1.mp3"}, v.backend.loaded, "index %d", idx)
	}
}

func TestInitializeUnknownSortStillPlays(t *testing.T) {
	v := newTestView(t)

	v.Initialize(testSongs(), Directives{Sort: "bogus"})

	assert.Equal(t, []string{"1", "2", "3", "4"}, songIDs(v.session.Songs()))
	assert.Equal(t, 1, v.session.count("PlaySong"))
}

func TestInitializeEmptyQueue(t *testing.T) {
	v := newTestView(t)
	s := newSimScreen(t)

	v.Initialize(nil, Directives{HasSong: true})
	v.Draw(s)

	assert.Empty(t, v.backend.loaded)
	assert.Equal(t, 1, v.backend.stops, "an empty queue silences the previous song")
	assert.Equal(t, "", v.ActionBar().Subtitle())
	assert.Contains(t, screenText(s), "The queue is empty")
	assert.False(t, v.HandleKey(key(tcell.KeyEnter)))
}

func TestOnItemSelected(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	v.OnItemSelected(2)

	assert.Equal(t, 2, v.session.CurrentSongPosition())
	assert.Equal(t, 2, v.SelectedIndex())
	assert.Equal(t, []string{"/music/3.mp3"}, v.backend.loaded)
	assert.Equal(t, "charlie", v.ActionBar().Subtitle())
}

func TestOnItemSelectedOutOfRangeHighlightsPlayingSong(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	v.table.Select(2)

	v.OnItemSelected(9)

	assert.Equal(t, 0, v.session.CurrentSongPosition())
	assert.Equal(t, 0, v.SelectedIndex())
	assert.Equal(t, []string{"/music/1.mp3"}, v.backend.loaded)
}

func TestOnItemSelectedRebuildsTransportAfterPause(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	before := v.Transport()

	v.OnItemSelected(1)
	assert.Same(t, before, v.Transport(), "transport kept while not paused")

	v.OnPause()
	v.OnItemSelected(2)
	assert.NotSame(t, before, v.Transport())
	assert.False(t, v.IsPlaybackPaused())
	assert.True(t, v.IsPaused(), "only resume clears paused")
}

func TestOnItemLongPressed(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	assert.True(t, v.OnItemLongPressed(1))
	assert.Equal(t, "Jazz", v.Toast().Message())

	assert.True(t, v.OnItemLongPressed(2))
	assert.Equal(t, "Unknown genre", v.Toast().Message())

	assert.Zero(t, v.session.count("PlaySong"))
	assert.Equal(t, 0, v.session.CurrentSongPosition())
}

func TestMouseGestures(t *testing.T) {
	clock := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) *testView {
		v := newTestView(t)
		v.now = func() time.Time { return clock }
		v.Initialize(testSongs(), Directives{})
		v.Draw(newSimScreen(t))
		return v
	}
	// action bar on row 0, separator on row 1, header on row 2
	rowY := func(i int) int { return 3 + i }

	t.Run("click selects", func(t *testing.T) {
		v := setup(t)
		start := clock

		assert.True(t, v.HandleMouse(tcell.NewEventMouse(10, rowY(2), tcell.Button1, tcell.ModNone)))
		clock = start.Add(100 * time.Millisecond)
		assert.True(t, v.HandleMouse(tcell.NewEventMouse(10, rowY(2), tcell.ButtonNone, tcell.ModNone)))

		assert.Equal(t, 2, v.session.CurrentSongPosition())
		assert.Equal(t, []string{"/music/3.mp3"}, v.backend.loaded)
	})

	t.Run("hold released late is only a long press", func(t *testing.T) {
		v := setup(t)
		start := clock

		v.HandleMouse(tcell.NewEventMouse(10, rowY(1), tcell.Button1, tcell.ModNone))
		clock = start.Add(time.Second)
		v.HandleMouse(tcell.NewEventMouse(10, rowY(1), tcell.ButtonNone, tcell.ModNone))

		assert.Equal(t, "Jazz", v.Toast().Message())
		assert.Empty(t, v.backend.loaded)
		assert.Equal(t, 0, v.session.CurrentSongPosition())
	})

	t.Run("hold fires while held", func(t *testing.T) {
		v := setup(t)
		start := clock

		v.HandleMouse(tcell.NewEventMouse(10, rowY(3), tcell.Button1, tcell.ModNone))
		clock = start.Add(200 * time.Millisecond)
		assert.False(t, v.CheckLongPress())
		clock = start.Add(600 * time.Millisecond)
		assert.True(t, v.CheckLongPress())
		assert.False(t, v.CheckLongPress(), "fires once")
		assert.Equal(t, "Blues", v.Toast().Message())

		clock = start.Add(2 * time.Second)
		v.HandleMouse(tcell.NewEventMouse(10, rowY(3), tcell.ButtonNone, tcell.ModNone))
		assert.Empty(t, v.backend.loaded)
	})

	t.Run("toggle icons", func(t *testing.T) {
		v := setup(t)

		// shuffle and repeat sit in the last six columns of row 0
		v.HandleMouse(tcell.NewEventMouse(95, 0, tcell.Button1, tcell.ModNone))
		assert.True(t, v.session.IsShuffle())
		assert.False(t, v.session.IsRepeat())
	})
}

func TestQueueMenuSortKeepsCurrentSong(t *testing.T) {
	for _, key := range music.SortKeys {
		t.Run(key, func(t *testing.T) {
			v := newTestView(t)
			v.Initialize(testSongs(), Directives{})
			v.OnItemSelected(2)

			v.ShowQueueMenu()
			require.True(t, v.Menu().IsVisible())
			require.Len(t, v.Menu().Items(), len(music.SortKeys)+1)
			v.onMenuItem(MenuItem{ID: key})

			assert.Equal(t, "3", v.session.CurrentSong().ID)
			assert.Equal(t, v.session.CurrentSongPosition(), v.SelectedIndex())
			assert.Len(t, v.session.Songs(), 4)
			assert.Contains(t, v.session.calls, "SortBy:"+key)
		})
	}
}

func TestQueueMenuKeyboard(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	assert.True(t, v.HandleKey(runeKey('m')))
	require.True(t, v.Menu().IsVisible())
	v.HandleKey(runeKey('j')) // artist
	v.HandleKey(key(tcell.KeyEnter))

	assert.False(t, v.Menu().IsVisible())
	assert.Equal(t, []string{"2", "3", "1", "4"}, songIDs(v.session.Songs()))
}

func TestQueueMenuIgnoresUnknownItem(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	v.onMenuItem(MenuItem{ID: "genre"})

	assert.Zero(t, v.session.count("SortBy:genre"))
	assert.Equal(t, []string{"1", "2", "3", "4"}, songIDs(v.session.Songs()))
	assert.False(t, v.InputDialog().IsVisible())
}

func TestShowQueueMenuWithoutActionBar(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	v.ActionBar().SetVisible(false)

	v.ShowQueueMenu()

	assert.False(t, v.Menu().IsVisible())
}

func TestCreatePlaylistFromMenu(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{Sort: music.SortAlbum})

	v.onMenuItem(MenuItem{ID: menuNewPlaylist})
	require.True(t, v.InputDialog().IsVisible())
	assert.True(t, v.WantsAllKeys())

	typeText(v, "Road trip")
	v.HandleKey(key(tcell.KeyEnter))

	require.Len(t, v.store.playlists, 1)
	p := v.store.playlists[0]
	assert.Equal(t, models.ScopeExternal, p.Scope)
	assert.Equal(t, "Road trip", p.Name)
	assert.Equal(t, songIDs(v.session.Songs()), songIDs(p.Songs))
	assert.Equal(t, "Playlist created: Road trip", v.Toast().Message())
	assert.False(t, v.InputDialog().IsVisible())
}

func TestCreatePlaylistCancel(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	v.onMenuItem(MenuItem{ID: menuNewPlaylist})
	typeText(v, "nope")
	v.HandleKey(key(tcell.KeyEscape))

	assert.Empty(t, v.store.playlists)
	assert.Equal(t, "", v.Toast().Message())
}

func TestCreatePlaylistFailure(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	v.store.err = errors.New("disk full")

	v.CreatePlaylist("Mix")

	assert.Contains(t, v.Toast().Message(), "Could not create playlist")
	assert.Contains(t, v.Toast().Message(), "disk full")
}

func TestPlayNextAndPrevious(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	v.Transport().Hide()

	v.PlayNext()
	assert.Equal(t, 1, v.session.CurrentSongPosition())
	assert.Equal(t, "Alpha", v.ActionBar().Subtitle())
	assert.True(t, v.Transport().IsVisible())

	v.PlayPrevious()
	v.PlayPrevious()
	assert.Equal(t, 3, v.session.CurrentSongPosition(), "wraps to the last song")
	assert.Equal(t, []string{"/music/2.mp3", "/music/1.mp3", "/music/4.mp3"}, v.backend.loaded)
}

func TestPlayNextRebuildsTransportAfterPause(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	before := v.Transport()

	v.OnPause()
	v.PlayNext()

	assert.NotSame(t, before, v.Transport())
	assert.False(t, v.IsPlaybackPaused())
	assert.True(t, v.Transport().IsVisible())
}

func TestShuffleAndRepeatIconsAreIndependent(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	assert.True(t, v.HandleKey(runeKey('s')))
	assert.True(t, v.ActionBar().ShuffleOn())
	assert.False(t, v.ActionBar().RepeatOn())

	assert.True(t, v.OnOptionsItemSelected(ActionRepeat))
	assert.True(t, v.ActionBar().ShuffleOn())
	assert.True(t, v.ActionBar().RepeatOn())

	v.OnOptionsItemSelected(ActionShuffle)
	assert.False(t, v.ActionBar().ShuffleOn())
	assert.True(t, v.ActionBar().RepeatOn())
	assert.False(t, v.session.IsShuffle())
	assert.True(t, v.session.IsRepeat())

	assert.False(t, v.OnOptionsItemSelected(ActionItem(42)))
}

func TestLifecycle(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	first := v.Transport()

	v.OnPause()
	assert.True(t, v.IsPaused())
	assert.True(t, v.IsPlaybackPaused())

	v.OnStop()
	assert.False(t, first.IsVisible())

	v.OnItemSelected(3)
	v.ActionBar().SetSubtitle("stale")
	v.OnResume()
	assert.False(t, v.IsPaused())
	assert.Equal(t, "Bravo", v.ActionBar().Subtitle())
	assert.True(t, v.Transport().IsVisible())

	// resume without a pause keeps the widget
	current := v.Transport()
	v.OnResume()
	assert.Same(t, current, v.Transport())
}

func TestMediaPlayerControl(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	assert.False(t, v.IsPlaying())
	assert.Zero(t, v.Duration())
	assert.Zero(t, v.CurrentPosition())

	v.OnItemSelected(0)
	v.backend.position = 42 * time.Second
	v.backend.duration = 3 * time.Minute
	assert.True(t, v.IsPlaying())
	assert.Equal(t, 42*time.Second, v.CurrentPosition())
	assert.Equal(t, 3*time.Minute, v.Duration())

	v.Pause()
	assert.False(t, v.backend.playing)
	assert.Zero(t, v.Duration(), "nothing reported while paused")

	v.Start()
	assert.True(t, v.backend.playing)

	v.SeekTo(time.Minute)
	assert.Equal(t, []time.Duration{time.Minute}, v.backend.seeks)

	v.backend.running = false
	assert.False(t, v.IsPlaying())
	assert.Zero(t, v.CurrentPosition())

	assert.True(t, v.CanPause())
	assert.True(t, v.CanSeekBackward())
	assert.True(t, v.CanSeekForward())
}

func TestTransportKeys(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	v.OnItemSelected(0)
	v.backend.position = 30 * time.Second

	assert.True(t, v.HandleKey(runeKey('f')))
	assert.Equal(t, []time.Duration{40 * time.Second}, v.backend.seeks)

	v.SetSeekStep(5 * time.Second)
	v.setMusicController()
	v.HandleKey(key(tcell.KeyLeft))
	assert.Equal(t, 35*time.Second, v.backend.seeks[1])

	v.HandleKey(runeKey(' '))
	assert.False(t, v.backend.playing)
	v.HandleKey(runeKey(' '))
	assert.True(t, v.backend.playing)

	v.HandleKey(runeKey('n'))
	assert.Equal(t, 1, v.session.CurrentSongPosition())
	v.HandleKey(runeKey('p'))
	assert.Equal(t, 0, v.session.CurrentSongPosition())
}

func TestKeyboardSelectionAndInfo(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	v.HandleKey(runeKey('j'))
	v.HandleKey(runeKey('j'))
	assert.True(t, v.HandleKey(runeKey('i')))
	assert.Equal(t, "Unknown genre", v.Toast().Message())
	assert.Empty(t, v.backend.loaded)

	v.HandleKey(key(tcell.KeyEnter))
	assert.Equal(t, []string{"/music/3.mp3"}, v.backend.loaded)

	v.HandleKey(runeKey('g'))
	assert.Equal(t, 0, v.SelectedIndex())
	v.HandleKey(runeKey('o'))
	assert.Equal(t, 2, v.SelectedIndex())
}

func TestFindInQueue(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	s := newSimScreen(t)

	v.HandleKey(runeKey('/'))
	require.True(t, v.Searching())
	typeText(v, "charl")
	assert.Equal(t, 2, v.SelectedIndex(), "selection follows the best match")

	v.Draw(s)
	assert.Contains(t, screenLine(s, 22), "/charl")

	v.HandleKey(key(tcell.KeyEnter))
	assert.False(t, v.Searching())
	assert.Equal(t, 2, v.SelectedIndex())
	assert.Empty(t, v.backend.loaded, "finding does not play")

	v.HandleKey(runeKey('/'))
	typeText(v, "zzzz")
	v.HandleKey(key(tcell.KeyEnter))
	assert.Equal(t, "No match for zzzz", v.Toast().Message())
	assert.Equal(t, 2, v.SelectedIndex())

	v.HandleKey(runeKey('/'))
	v.HandleKey(key(tcell.KeyEscape))
	assert.False(t, v.Searching())
}

func TestFindToggleMatchFiltering(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})

	v.HandleKey(runeKey('/'))
	require.Equal(t, ScoreThresholdNormal, v.SearchState().MinScore())

	v.HandleKey(key(tcell.KeyCtrlT))
	assert.Equal(t, ScoreThresholdNone, v.SearchState().MinScore())
	assert.Equal(t, "Find: all matches", v.Toast().Message())
	assert.True(t, v.Searching(), "toggling keeps the find line open")

	v.HandleKey(key(tcell.KeyCtrlT))
	assert.Equal(t, ScoreThresholdNormal, v.SearchState().MinScore())
	assert.Equal(t, "Find: normal matching", v.Toast().Message())
}

func TestOnTrackCompleted(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	v.OnItemSelected(3)

	v.OnTrackCompleted()

	assert.Equal(t, 0, v.session.CurrentSongPosition())
	assert.Equal(t, "Delta", v.ActionBar().Subtitle())
	assert.Equal(t, []string{"/music/4.mp3", "/music/1.mp3"}, v.backend.loaded)
}

func TestPlaybackFailureIsReported(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{})
	v.backend.loadErr = errors.New("no such file")

	v.OnItemSelected(1)

	assert.Contains(t, v.Toast().Message(), "Playback failed")
	assert.Equal(t, 1, v.session.CurrentSongPosition())
}

func TestDrawNowPlaying(t *testing.T) {
	v := newTestView(t)
	v.Initialize(testSongs(), Directives{Song: 1, HasSong: true})
	s := newSimScreen(t)

	v.Draw(s)

	assert.Contains(t, screenLine(s, 0), "Now Playing")
	assert.Contains(t, screenLine(s, 0), "Alpha")
	assert.Contains(t, screenLine(s, 2), "Title")
	assert.Contains(t, screenLine(s, 3), "Delta")
	assert.Contains(t, screenLine(s, 4), "▶ 2")
	assert.Contains(t, screenLine(s, 22), "⏮")

	// a short terminal has no room for the action bar
	s.SetSize(100, 5)
	v.Draw(s)
	assert.False(t, v.ActionBar().Visible())
	v.ShowQueueMenu()
	assert.False(t, v.Menu().IsVisible())
}
