package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"

	"github.com/csams/nowplaying-tui/internal/models"
	"github.com/csams/nowplaying-tui/internal/music"
	"github.com/csams/nowplaying-tui/internal/playlist"
)

type fakeBackend struct {
	loaded   []string
	playing  bool
	running  bool
	position time.Duration
	duration time.Duration
	seeks    []time.Duration
	loadErr  error
	stops    int
}

func (b *fakeBackend) Load(path string) error {
	if b.loadErr != nil {
		return b.loadErr
	}
	b.loaded = append(b.loaded, path)
	b.playing = true
	b.position = 0
	return nil
}

func (b *fakeBackend) Stop() error   { b.stops++; b.playing = false; return nil }
func (b *fakeBackend) Pause() error  { b.playing = false; return nil }
func (b *fakeBackend) Resume() error { b.playing = true; return nil }

func (b *fakeBackend) SeekAbsolute(pos time.Duration) error {
	b.seeks = append(b.seeks, pos)
	b.position = pos
	return nil
}

func (b *fakeBackend) GetPosition() (time.Duration, error) { return b.position, nil }
func (b *fakeBackend) GetDuration() (time.Duration, error) { return b.duration, nil }
func (b *fakeBackend) IsPlaying() bool                     { return b.playing }
func (b *fakeBackend) IsRunning() bool                     { return b.running }

// recordingSession records the calls the screen makes before passing them on
type recordingSession struct {
	*music.Service
	calls []string
}

func (r *recordingSession) record(call string) { r.calls = append(r.calls, call) }

func (r *recordingSession) SetList(songs []*models.Song) {
	r.record("SetList")
	r.Service.SetList(songs)
}

func (r *recordingSession) SetSong(index int) {
	r.record(fmt.Sprintf("SetSong:%d", index))
	r.Service.SetSong(index)
}

func (r *recordingSession) SortBy(key string) bool {
	r.record("SortBy:" + key)
	return r.Service.SortBy(key)
}

func (r *recordingSession) PlaySong() error {
	r.record("PlaySong")
	return r.Service.PlaySong()
}

func (r *recordingSession) count(call string) int {
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

type fakeStore struct {
	playlists []*models.Playlist
	err       error
	listeners []playlist.Listener
	deleted   []string
}

func (s *fakeStore) NewPlaylist(scope, name string, songs []*models.Song) (*models.Playlist, error) {
	if s.err != nil {
		return nil, s.err
	}
	p := &models.Playlist{
		ID:        fmt.Sprintf("p%d", len(s.playlists)+1),
		Scope:     scope,
		Name:      name,
		Songs:     append([]*models.Song(nil), songs...),
		CreatedAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
	s.playlists = append(s.playlists, p)
	for _, fn := range s.listeners {
		fn(playlist.Change{Kind: playlist.ChangeCreated, Playlist: p})
	}
	return p, nil
}

func (s *fakeStore) List() ([]*models.Playlist, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]*models.Playlist(nil), s.playlists...), nil
}

func (s *fakeStore) Delete(id string) error {
	for i, p := range s.playlists {
		if p.ID == id {
			s.playlists = append(s.playlists[:i], s.playlists[i+1:]...)
			s.deleted = append(s.deleted, id)
			for _, fn := range s.listeners {
				fn(playlist.Change{Kind: playlist.ChangeDeleted, Playlist: p})
			}
			return nil
		}
	}
	return playlist.ErrNotFound
}

func (s *fakeStore) Subscribe(fn playlist.Listener) func() {
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() { s.listeners[idx] = func(playlist.Change) {} }
}

func testSongs() []*models.Song {
	return []*models.Song{
		{ID: "1", Path: "/music/1.mp3", Title: "Delta", Artist: "Bravo", Album: "Zeta", Genre: "Rock", TrackNumber: 3, Duration: 3 * time.Minute},
		{ID: "2", Path: "/music/2.mp3", Title: "Alpha", Artist: "alpha", Album: "Eta", Genre: "Jazz", TrackNumber: 1, Duration: 4 * time.Minute},
		{ID: "3", Path: "/music/3.mp3", Title: "charlie", Artist: "Bravo", Album: "Eta", TrackNumber: 2, Duration: 5 * time.Minute},
		{ID: "4", Path: "/music/4.mp3", Title: "Bravo", Artist: "Echo", Album: "Theta", Genre: "Blues", TrackNumber: 4, Duration: 2 * time.Minute},
	}
}

type testView struct {
	*NowPlayingView
	session *recordingSession
	backend *fakeBackend
	store   *fakeStore
}

func newTestView(t *testing.T) *testView {
	t.Helper()
	backend := &fakeBackend{running: true}
	session := &recordingSession{Service: music.NewService(backend)}
	store := &fakeStore{}
	return &testView{
		NowPlayingView: NewNowPlayingView(session, store),
		session:        session,
		backend:        backend,
		store:          store,
	}
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("")
	require.NoError(t, s.Init())
	s.SetSize(100, 24)
	t.Cleanup(s.Fini)
	return s
}

// screenLine returns the text of row y
func screenLine(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func screenText(s tcell.Screen) string {
	_, h := s.Size()
	lines := make([]string, h)
	for y := 0; y < h; y++ {
		lines[y] = screenLine(s, y)
	}
	return strings.Join(lines, "\n")
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func typeText(h interface{ HandleKey(*tcell.EventKey) bool }, text string) {
	for _, r := range text {
		h.HandleKey(runeKey(r))
	}
}

func songIDs(songs []*models.Song) []string {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.ID
	}
	return ids
}
