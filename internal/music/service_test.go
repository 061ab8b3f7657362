package music

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/csams/nowplaying-tui/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func (f *fakeBackend) Load(path string) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = append(f.loaded, path)
	f.playing = true
	return nil
}
func (f *fakeBackend) Stop() error                          { f.stops++; f.playing = false; return nil }
func (f *fakeBackend) Pause() error                         { f.playing = false; return nil }
func (f *fakeBackend) Resume() error                        { f.playing = true; return nil }
func (f *fakeBackend) SeekAbsolute(pos time.Duration) error { f.seeks = append(f.seeks, pos); return nil }
func (f *fakeBackend) GetPosition() (time.Duration, error)  { return f.position, nil }
func (f *fakeBackend) GetDuration() (time.Duration, error)  { return f.duration, nil }
func (f *fakeBackend) IsPlaying() bool                      { return f.playing }
func (f *fakeBackend) IsRunning() bool                      { return f.running }

func queue() []*models.Song {
	return []*models.Song{
		{ID: "1", Path: "/m/1.mp3", Title: "delta", Artist: "Bravo", Album: "Zeta", TrackNumber: 3},
		{ID: "2", Path: "/m/2.mp3", Title: "Alpha", Artist: "alpha", Album: "Eta", TrackNumber: 1},
		{ID: "3", Path: "/m/3.mp3", Title: "charlie", Artist: "Bravo", Album: "Eta", TrackNumber: 2},
		{ID: "4", Path: "/m/4.mp3", Title: "Bravo", Artist: "Charlie", Album: "Theta", TrackNumber: 4},
	}
}

func newServiceForTest(t *testing.T) (*Service, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{running: true}
	s := NewService(backend)
	s.rng = rand.New(rand.NewSource(42))
	s.SetList(queue())
	return s, backend
}

func ids(songs []*models.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}

func TestSetSong_OutOfRangeFallsBackToFirst(t *testing.T) {
	s, _ := newServiceForTest(t)

	for _, idx := range []int{-1, 4, 100} {
		s.SetSong(2)
		s.SetSong(idx)
		assert.Equal(t, 0, s.CurrentSongPosition(), "index %d", idx)
	}

	s.SetSong(3)
	assert.Equal(t, 3, s.CurrentSongPosition())
	assert.Equal(t, "4", s.CurrentSong().ID)
}

func TestSetList_CopiesAndResets(t *testing.T) {
	s, _ := newServiceForTest(t)
	s.SetSong(2)

	songs := queue()[:2]
	s.SetList(songs)
	songs[0] = &models.Song{ID: "x"}

	assert.Equal(t, 0, s.CurrentSongPosition())
	assert.Equal(t, []string{"1", "2"}, ids(s.Songs()))
}

func TestEmptyQueue(t *testing.T) {
	s := NewService(&fakeBackend{})

	assert.Nil(t, s.CurrentSong())
	assert.Nil(t, s.GetSong(0))
	assert.NoError(t, s.PlaySong())
	s.Next()
	s.Previous()
	assert.Equal(t, 0, s.CurrentSongPosition())
	assert.True(t, s.SortBy(SortTitle))
}

func TestPlaySong_EmptyQueueStopsBackend(t *testing.T) {
	s, backend := newServiceForTest(t)
	require.NoError(t, s.PlaySong())
	require.True(t, backend.playing)

	s.SetList(nil)
	require.NoError(t, s.PlaySong())
	assert.Equal(t, 1, backend.stops)
	assert.False(t, backend.playing)

	idle := &fakeBackend{}
	require.NoError(t, NewService(idle).PlaySong())
	assert.Zero(t, idle.stops, "a backend that is not running is left alone")
}

func TestPlaySong_LoadsCurrentPath(t *testing.T) {
	s, backend := newServiceForTest(t)
	s.SetSong(1)

	require.NoError(t, s.PlaySong())
	assert.Equal(t, []string{"/m/2.mp3"}, backend.loaded)
	assert.True(t, s.IsPlaying())

	backend.loadErr = errors.New("boom")
	assert.Error(t, s.PlaySong())
}

func TestNextPrevious_Wrap(t *testing.T) {
	s, _ := newServiceForTest(t)

	s.SetSong(3)
	s.Next()
	assert.Equal(t, 0, s.CurrentSongPosition())

	s.Previous()
	assert.Equal(t, 3, s.CurrentSongPosition())

	s.Previous()
	assert.Equal(t, 2, s.CurrentSongPosition())
}

func TestNext_Repeat(t *testing.T) {
	s, _ := newServiceForTest(t)
	s.SetSong(1)
	s.ToggleRepeat()

	s.Next()
	assert.Equal(t, 1, s.CurrentSongPosition())
	s.Previous()
	assert.Equal(t, 1, s.CurrentSongPosition())
}

func TestNext_ShuffleNeverRepeatsCurrent(t *testing.T) {
	s, _ := newServiceForTest(t)
	s.ToggleShuffle()

	for i := 0; i < 50; i++ {
		before := s.CurrentSongPosition()
		s.Next()
		after := s.CurrentSongPosition()
		assert.NotEqual(t, before, after)
		assert.True(t, after >= 0 && after < 4)
	}
}

func TestToggles_AreIndependent(t *testing.T) {
	s, _ := newServiceForTest(t)

	s.ToggleShuffle()
	assert.True(t, s.IsShuffle())
	assert.False(t, s.IsRepeat())

	s.ToggleRepeat()
	assert.True(t, s.IsShuffle())
	assert.True(t, s.IsRepeat())

	s.ToggleShuffle()
	assert.False(t, s.IsShuffle())
	assert.True(t, s.IsRepeat())
}

func TestSortBy_KeepsCurrentSong(t *testing.T) {
	tests := []struct {
		key      string
		expected []string
	}{
		{key: SortTitle, expected: []string{"2", "4", "3", "1"}},
		{key: SortArtist, expected: []string{"2", "3", "1", "4"}},
		{key: SortAlbum, expected: []string{"2", "3", "4", "1"}},
		{key: SortTrack, expected: []string{"2", "3", "1", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s, _ := newServiceForTest(t)
			s.SetSong(0)

			require.True(t, s.SortBy(tt.key))
			assert.Equal(t, tt.expected, ids(s.Songs()))
			assert.Equal(t, "1", s.CurrentSong().ID, "current song identity survives the sort")
		})
	}
}

func TestSortBy_Random(t *testing.T) {
	s, _ := newServiceForTest(t)
	s.SetSong(2)

	require.True(t, s.SortBy(SortRandom))
	assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, ids(s.Songs()))
	assert.Equal(t, "3", s.CurrentSong().ID)
}

func TestSortBy_UnknownKey(t *testing.T) {
	s, _ := newServiceForTest(t)

	assert.False(t, s.SortBy("genre"))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(s.Songs()))
	assert.False(t, IsSortKey("genre"))
	assert.True(t, IsSortKey(SortTrack))
}

func TestOnCompletion(t *testing.T) {
	s, backend := newServiceForTest(t)
	s.SetSong(3)

	require.NoError(t, s.OnCompletion())
	assert.Equal(t, 0, s.CurrentSongPosition())
	assert.Equal(t, []string{"/m/1.mp3"}, backend.loaded)
}

func TestTransportPassThrough(t *testing.T) {
	s, backend := newServiceForTest(t)
	backend.position = 5 * time.Second

	require.NoError(t, s.SeekTo(30*time.Second))
	assert.Equal(t, []time.Duration{30 * time.Second}, backend.seeks)
	assert.Equal(t, 5*time.Second, s.GetPosition())

	require.NoError(t, s.Unpause())
	assert.True(t, s.IsPlaying())
	require.NoError(t, s.PausePlayer())
	assert.False(t, s.IsPlaying())
	assert.True(t, s.Bound())
}

func TestGetDuration_FallsBackToTag(t *testing.T) {
	s, backend := newServiceForTest(t)
	s.SetList([]*models.Song{{ID: "a", Duration: 3 * time.Minute}})

	assert.Equal(t, 3*time.Minute, s.GetDuration())

	backend.duration = 2 * time.Minute
	assert.Equal(t, 2*time.Minute, s.GetDuration())
}
