// Package playlist persists playlists in SQLite and tells subscribers when
// the set of playlists changes.
package playlist

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/csams/nowplaying-tui/internal/models"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

var (
	ErrEmptyName    = errors.New("playlist name is empty")
	ErrInvalidScope = errors.New("invalid playlist scope")
	ErrNotFound     = errors.New("playlist not found")
)

// ChangeKind says what happened to a playlist
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeDeleted
)

// Change is delivered to subscribers after a committed mutation
type Change struct {
	Kind     ChangeKind
	Playlist *models.Playlist
}

// Listener receives change notifications. It is called on the goroutine
// that made the change.
type Listener func(Change)

// Store is a SQLite-backed playlist store
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// Open opens (and migrates) the playlist database at path
func Open(path string) (*Store, error) {
	database, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:        database,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe registers fn for change notifications and returns a function
// that removes it
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(change Change) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}

// NewPlaylist stores songs, in order, as a new playlist. If the name is
// already taken in the scope a numeric suffix is appended.
func (s *Store) NewPlaylist(scope, name string, songs []*models.Song) (*models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if scope != models.ScopeExternal && scope != models.ScopeInternal {
		return nil, errors.Wrapf(ErrInvalidScope, "%q", scope)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin playlist tx")
	}
	defer tx.Rollback()

	unique, err := uniqueName(tx, scope, name)
	if err != nil {
		return nil, err
	}

	p := &models.Playlist{
		ID:        uuid.NewString(),
		Scope:     scope,
		Name:      unique,
		Songs:     append([]*models.Song(nil), songs...),
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	if _, err := tx.Exec(
		"INSERT INTO playlists(id, scope, name, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Scope, p.Name, p.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return nil, errors.Wrap(err, "insert playlist")
	}

	stmt, err := tx.Prepare(`INSERT INTO playlist_songs(
		playlist_id, position, song_id, path, title, artist, album, genre, track_number, year, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare playlist songs insert")
	}
	defer stmt.Close()

	for i, song := range p.Songs {
		if _, err := stmt.Exec(
			p.ID, i, song.ID, song.Path, song.Title, song.Artist, song.Album, song.Genre,
			song.TrackNumber, song.Year, song.Duration.Milliseconds(),
		); err != nil {
			return nil, errors.Wrapf(err, "insert playlist song %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit playlist")
	}

	zlog.Info().Str("id", p.ID).Str("name", p.Name).Int("songs", len(p.Songs)).Msg("playlist created")
	zlog.Debug().Str("id", p.ID).Strs("songIDs", p.SongIDs()).Msg("playlist contents")
	s.notify(Change{Kind: ChangeCreated, Playlist: p})
	return p, nil
}

func uniqueName(tx *sql.Tx, scope, name string) (string, error) {
	candidate := name
	for n := 2; ; n++ {
		var count int
		if err := tx.QueryRow(
			"SELECT COUNT(1) FROM playlists WHERE scope = ? AND name = ?", scope, candidate,
		).Scan(&count); err != nil {
			return "", errors.Wrap(err, "check playlist name")
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
}

// List returns every playlist, songs included, oldest first
func (s *Store) List() ([]*models.Playlist, error) {
	rows, err := s.db.Query("SELECT id, scope, name, created_at FROM playlists ORDER BY created_at, name")
	if err != nil {
		return nil, errors.Wrap(err, "query playlists")
	}

	var playlists []*models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.Wrap(err, "iterate playlists")
	}
	rows.Close()

	for _, p := range playlists {
		if p.Songs, err = s.loadSongs(p.ID); err != nil {
			return nil, err
		}
	}
	return playlists, nil
}

// Get loads one playlist by ID
func (s *Store) Get(id string) (*models.Playlist, error) {
	row := s.db.QueryRow("SELECT id, scope, name, created_at FROM playlists WHERE id = ?", id)
	p, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "%s", id)
	}
	if err != nil {
		return nil, err
	}
	if p.Songs, err = s.loadSongs(p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByName looks a playlist up by scope and exact name
func (s *Store) FindByName(scope, name string) (*models.Playlist, error) {
	var id string
	err := s.db.QueryRow("SELECT id FROM playlists WHERE scope = ? AND name = ?", scope, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find playlist")
	}
	return s.Get(id)
}

// Delete removes a playlist and its songs
func (s *Store) Delete(id string) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM playlists WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "delete playlist")
	}

	zlog.Info().Str("id", id).Str("name", p.Name).Msg("playlist deleted")
	s.notify(Change{Kind: ChangeDeleted, Playlist: p})
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row rowScanner) (*models.Playlist, error) {
	var (
		p       models.Playlist
		created string
	)
	if err := row.Scan(&p.ID, &p.Scope, &p.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan playlist")
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, errors.Wrapf(err, "parse created_at of playlist %s", p.ID)
	}
	p.CreatedAt = t
	return &p, nil
}

func (s *Store) loadSongs(playlistID string) ([]*models.Song, error) {
	rows, err := s.db.Query(`SELECT song_id, path, title, artist, album, genre, track_number, year, duration_ms
		FROM playlist_songs WHERE playlist_id = ? ORDER BY position`, playlistID)
	if err != nil {
		return nil, errors.Wrap(err, "query playlist songs")
	}
	defer rows.Close()

	songs := []*models.Song{}
	for rows.Next() {
		var (
			song       models.Song
			durationMS int64
		)
		if err := rows.Scan(&song.ID, &song.Path, &song.Title, &song.Artist, &song.Album, &song.Genre,
			&song.TrackNumber, &song.Year, &durationMS); err != nil {
			return nil, errors.Wrap(err, "scan playlist song")
		}
		song.Duration = time.Duration(durationMS) * time.Millisecond
		songs = append(songs, &song)
	}
	return songs, errors.Wrap(rows.Err(), "iterate playlist songs")
}
