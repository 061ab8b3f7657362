package models

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Song is a single playable file in the library
type Song struct {
	ID          string        `json:"id"`
	Path        string        `json:"path"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist"`
	Album       string        `json:"album"`
	Genre       string        `json:"genre"`
	TrackNumber int           `json:"trackNumber,omitempty"`
	Year        int           `json:"year,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// GenerateSongID creates a stable ID for a song from its absolute path
func GenerateSongID(path string) string {
	h := sha256.New()
	h.Write([]byte(path))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// GenerateID sets the song ID from its path
func (s *Song) GenerateID() {
	s.ID = GenerateSongID(s.Path)
}

// SearchText is the text matched by the queue search
func (s *Song) SearchText() string {
	return strings.Join([]string{s.Title, s.Artist, s.Album}, " ")
}

// DisplayGenre returns the genre, or a placeholder when the tag is missing
func (s *Song) DisplayGenre() string {
	if strings.TrimSpace(s.Genre) == "" {
		return "Unknown genre"
	}
	return s.Genre
}

// IndexOf returns the position of the song with the given ID, or -1
func IndexOf(songs []*Song, id string) int {
	for i, s := range songs {
		if s != nil && s.ID == id {
			return i
		}
	}
	return -1
}
