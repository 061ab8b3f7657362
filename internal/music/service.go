// Package music holds the now-playing queue and drives the audio backend.
package music

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/csams/nowplaying-tui/internal/models"
	zlog "github.com/rs/zerolog/log"
)

// Sort keys accepted by SortBy
const (
	SortTitle  = "title"
	SortArtist = "artist"
	SortAlbum  = "album"
	SortTrack  = "track"
	SortRandom = "random"
)

// SortKeys lists every key SortBy understands, in menu order
var SortKeys = []string{SortTitle, SortArtist, SortAlbum, SortTrack, SortRandom}

// IsSortKey reports whether key is understood by SortBy
func IsSortKey(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Backend plays one file at a time
type Backend interface {
	Load(path string) error
	Pause() error
	Resume() error
	Stop() error
	SeekAbsolute(pos time.Duration) error
	GetPosition() (time.Duration, error)
	GetDuration() (time.Duration, error)
	IsPlaying() bool
	IsRunning() bool
}

// Service owns the now-playing queue, the current index and the
// shuffle/repeat flags
type Service struct {
	mu      sync.Mutex
	backend Backend
	songs   []*models.Song
	current int
	shuffle bool
	repeat  bool
	rng     *rand.Rand
}

// NewService creates a service that plays through backend
func NewService(backend Backend) *Service {
	return &Service{
		backend: backend,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetList replaces the queue. The current index is reset to 0.
func (s *Service) SetList(songs []*models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.songs = append([]*models.Song(nil), songs...)
	s.current = 0
}

// Songs returns the queue in its current order
func (s *Service) Songs() []*models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Song(nil), s.songs...)
}

// SetSong makes index the current song. Out-of-range indexes select the
// first song.
func (s *Service) SetSong(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.songs) {
		index = 0
	}
	s.current = index
}

// CurrentSongPosition returns the index of the current song
func (s *Service) CurrentSongPosition() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentSong returns the current song, or nil when the queue is empty
func (s *Service) CurrentSong() *models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.songAtLocked(s.current)
}

// GetSong returns the song at index, or nil
func (s *Service) GetSong(index int) *models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.songAtLocked(index)
}

func (s *Service) songAtLocked(index int) *models.Song {
	if index < 0 || index >= len(s.songs) {
		return nil
	}
	return s.songs[index]
}

// PlaySong starts the current song from the beginning. With an empty
// queue whatever the backend was playing is stopped.
func (s *Service) PlaySong() error {
	song := s.CurrentSong()
	if song == nil {
		if s.backend == nil || !s.backend.IsRunning() {
			return nil
		}
		return errors.Wrap(s.backend.Stop(), "failed to stop playback")
	}

	if err := s.backend.Load(song.Path); err != nil {
		return errors.Wrapf(err, "failed to play %q", song.Title)
	}

	zlog.Info().Str("title", song.Title).Str("artist", song.Artist).Int("index", s.CurrentSongPosition()).Msg("playing song")
	return nil
}

// Next moves to the song after the current one. With repeat on the current
// song stays; with shuffle on a random other song is picked; otherwise the
// queue wraps around.
func (s *Service) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.stepLocked(1)
}

// Previous mirrors Next
func (s *Service) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.stepLocked(-1)
}

func (s *Service) stepLocked(delta int) int {
	n := len(s.songs)
	switch {
	case n == 0:
		return 0
	case s.repeat:
		return s.current
	case s.shuffle && n > 1:
		next := s.rng.Intn(n - 1)
		if next >= s.current {
			next++
		}
		return next
	default:
		return ((s.current+delta)%n + n) % n
	}
}

// OnCompletion advances after a song played to its end
func (s *Service) OnCompletion() error {
	s.Next()
	return s.PlaySong()
}

// SortBy reorders the queue in place. The current song stays current.
// It returns false for an unknown key, leaving the queue untouched.
func (s *Service) SortBy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var currentID string
	if cur := s.songAtLocked(s.current); cur != nil {
		currentID = cur.ID
	}

	switch key {
	case SortTitle:
		s.sortStable(func(a, b *models.Song) int {
			return compareFold(a.Title, b.Title)
		})
	case SortArtist:
		s.sortStable(func(a, b *models.Song) int {
			return compareFold(a.Artist, b.Artist)
		})
	case SortAlbum:
		s.sortStable(func(a, b *models.Song) int {
			return compareFold(a.Album, b.Album)
		})
	case SortTrack:
		s.sortStable(func(a, b *models.Song) int {
			return a.TrackNumber - b.TrackNumber
		})
	case SortRandom:
		s.rng.Shuffle(len(s.songs), func(i, j int) {
			s.songs[i], s.songs[j] = s.songs[j], s.songs[i]
		})
	default:
		zlog.Warn().Str("key", key).Msg("unknown sort key")
		return false
	}

	if idx := models.IndexOf(s.songs, currentID); idx >= 0 {
		s.current = idx
	}

	zlog.Debug().Str("key", key).Int("current", s.current).Msg("queue sorted")
	return true
}

// sortStable sorts by cmp, breaking ties by title
func (s *Service) sortStable(cmp func(a, b *models.Song) int) {
	sort.SliceStable(s.songs, func(i, j int) bool {
		a, b := s.songs[i], s.songs[j]
		if c := cmp(a, b); c != 0 {
			return c < 0
		}
		return compareFold(a.Title, b.Title) < 0
	})
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func (s *Service) PausePlayer() error {
	return errors.Wrap(s.backend.Pause(), "pause")
}

func (s *Service) Unpause() error {
	return errors.Wrap(s.backend.Resume(), "resume")
}

func (s *Service) SeekTo(pos time.Duration) error {
	return errors.Wrap(s.backend.SeekAbsolute(pos), "seek")
}

// GetPosition returns the playback position, or 0 when it is unknown
func (s *Service) GetPosition() time.Duration {
	pos, err := s.backend.GetPosition()
	if err != nil {
		zlog.Debug().Err(err).Msg("position unavailable")
		return 0
	}
	return pos
}

// GetDuration returns the current song length as reported by the backend,
// falling back to the tagged length
func (s *Service) GetDuration() time.Duration {
	dur, err := s.backend.GetDuration()
	if err == nil && dur > 0 {
		return dur
	}
	if song := s.CurrentSong(); song != nil {
		return song.Duration
	}
	return 0
}

func (s *Service) IsPlaying() bool {
	return s.backend.IsPlaying()
}

// Bound reports whether the audio backend is available
func (s *Service) Bound() bool {
	return s.backend != nil && s.backend.IsRunning()
}

func (s *Service) ToggleShuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuffle = !s.shuffle
}

func (s *Service) ToggleRepeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeat = !s.repeat
}

func (s *Service) IsShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuffle
}

func (s *Service) IsRepeat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat
}
