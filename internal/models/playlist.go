package models

import (
	"time"
)

// Playlist scopes. External playlists are visible to other players that
// read the same store; internal ones belong to this application only.
const (
	ScopeExternal = "external"
	ScopeInternal = "internal"
)

// Playlist is a named, ordered list of songs
type Playlist struct {
	ID        string    `json:"id"`
	Scope     string    `json:"scope"`
	Name      string    `json:"name"`
	Songs     []*Song   `json:"songs"`
	CreatedAt time.Time `json:"createdAt"`
}

// SongIDs returns the IDs of the playlist songs in order
func (p *Playlist) SongIDs() []string {
	ids := make([]string, 0, len(p.Songs))
	for _, s := range p.Songs {
		ids = append(ids, s.ID)
	}
	return ids
}

// TotalDuration sums the durations of all songs
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range p.Songs {
		total += s.Duration
	}
	return total
}
