// Package library turns files and directories into songs.
package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/csams/nowplaying-tui/internal/models"
	zlog "github.com/rs/zerolog/log"
	"go.senan.xyz/taglib"
)

// DefaultExtensions are the audio file extensions picked up by a scan
var DefaultExtensions = []string{".mp3", ".flac", ".ogg", ".opus", ".m4a", ".wav"}

var (
	leadingIntegerPattern = regexp.MustCompile(`^\d+`)
	trackPrefixPattern    = regexp.MustCompile(`^(\d{1,3})[\s._-]+(.+)$`)
)

// TagReader reads tags and audio properties of a file
type TagReader interface {
	ReadTags(path string) (map[string][]string, error)
	ReadProperties(path string) (taglib.Properties, error)
}

type taglibReader struct{}

func (taglibReader) ReadTags(path string) (map[string][]string, error) {
	return taglib.ReadTags(path)
}

func (taglibReader) ReadProperties(path string) (taglib.Properties, error) {
	return taglib.ReadProperties(path)
}

// Scanner collects songs from the filesystem
type Scanner struct {
	extensions map[string]bool
	tags       TagReader
}

// NewScanner creates a scanner for the given extensions
func NewScanner(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Scanner{extensions: exts, tags: taglibReader{}}
}

// Scan walks each path. Files are kept in the order given, directory
// contents in lexical path order. Unreadable tags fall back to the file name.
func (s *Scanner) Scan(paths ...string) ([]*models.Song, error) {
	var songs []*models.Song
	seen := make(map[string]bool)

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		songs = append(songs, s.readSong(abs))
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot scan %s", root)
		}

		if !info.IsDir() {
			if s.isAudio(root) {
				add(root)
			}
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				zlog.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
				return nil
			}
			if !d.IsDir() && s.isAudio(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to walk %s", root)
		}

		sort.Strings(found)
		for _, path := range found {
			add(path)
		}
	}

	zlog.Info().Int("songs", len(songs)).Strs("paths", paths).Msg("library scan complete")
	return songs, nil
}

func (s *Scanner) isAudio(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

func (s *Scanner) readSong(path string) *models.Song {
	song := fallbackSong(path)

	tags, err := s.tags.ReadTags(path)
	if err != nil {
		zlog.Debug().Err(err).Str("path", path).Msg("no tags, using file name")
		return song
	}
	applyTags(song, tags)

	if props, err := s.tags.ReadProperties(path); err == nil && props.Length > 0 {
		song.Duration = props.Length
	}

	return song
}

func fallbackSong(path string) *models.Song {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	song := &models.Song{Path: path, Title: strings.TrimSpace(base)}

	if match := trackPrefixPattern.FindStringSubmatch(base); len(match) == 3 {
		if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
			song.TrackNumber = n
			song.Title = strings.TrimSpace(match[2])
		}
	}

	song.GenerateID()
	return song
}

func applyTags(song *models.Song, tags map[string][]string) {
	if v := firstTagValue(tags, taglib.Title, "TITLE"); v != "" {
		song.Title = v
	}
	if v := firstTagValue(tags, taglib.Artist, "ARTIST"); v != "" {
		song.Artist = v
	}
	if v := firstTagValue(tags, taglib.Album, "ALBUM"); v != "" {
		song.Album = v
	}
	if v := firstTagValue(tags, taglib.Genre, "GENRE"); v != "" {
		song.Genre = v
	}
	if n := parseNumericTag(firstTagValue(tags, taglib.TrackNumber, "TRACKNUMBER", "TRCK")); n > 0 {
		song.TrackNumber = n
	}
	if n := parseNumericTag(firstTagValue(tags, taglib.Date, "DATE", "YEAR")); n > 0 {
		song.Year = n
	}
}

func firstTagValue(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		for _, value := range tags[key] {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// parseNumericTag reads the leading integer of values like "3/12" or "2019-05-01"
func parseNumericTag(value string) int {
	match := leadingIntegerPattern.FindString(strings.TrimSpace(value))
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}
