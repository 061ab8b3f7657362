package ui

import (
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/csams/nowplaying-tui/internal/models"
)

// Score threshold constants (raw fzf scores)
const (
	ScoreThresholdNormal = 50
	ScoreThresholdNone   = 0
)

var initAlgo sync.Once

// SearchState holds the query line and fuzzy matching settings
type SearchState struct {
	query         string
	cursorPos     int
	caseSensitive bool
	minScore      int
	slab          *util.Slab
}

// MatchResult contains match score and rune positions for highlighting
type MatchResult struct {
	Score     int
	Positions []int
}

func NewSearchState() *SearchState {
	initAlgo.Do(func() { algo.Init("default") })
	return &SearchState{
		minScore: ScoreThresholdNormal,
		slab:     util.MakeSlab(16384, 1024),
	}
}

func (s *SearchState) Query() string {
	return s.query
}

func (s *SearchState) SetQuery(query string) {
	s.query = query
	s.cursorPos = len(query)
}

func (s *SearchState) SetMinScore(score int) {
	s.minScore = score
}

func (s *SearchState) MinScore() int {
	return s.minScore
}

func (s *SearchState) Clear() {
	s.query = ""
	s.cursorPos = 0
}

func (s *SearchState) InsertChar(ch rune) {
	c := string(ch)
	s.query = s.query[:s.cursorPos] + c + s.query[s.cursorPos:]
	s.cursorPos += len(c)
}

// DeleteChar deletes the character before the cursor (backspace)
func (s *SearchState) DeleteChar() {
	if s.cursorPos == 0 {
		return
	}
	prev := []rune(s.query[:s.cursorPos])
	cut := len(string(prev[len(prev)-1]))
	s.query = s.query[:s.cursorPos-cut] + s.query[s.cursorPos:]
	s.cursorPos -= cut
}

func (s *SearchState) MoveCursorLeft() {
	if s.cursorPos > 0 {
		prev := []rune(s.query[:s.cursorPos])
		s.cursorPos -= len(string(prev[len(prev)-1]))
	}
}

func (s *SearchState) MoveCursorRight() {
	if s.cursorPos < len(s.query) {
		next := []rune(s.query[s.cursorPos:])
		s.cursorPos += len(string(next[0]))
	}
}

// DeleteWord deletes the word before cursor (Ctrl+W)
func (s *SearchState) DeleteWord() {
	if s.cursorPos == 0 {
		return
	}
	start := s.cursorPos
	for start > 0 && s.query[start-1] == ' ' {
		start--
	}
	for start > 0 && s.query[start-1] != ' ' {
		start--
	}
	s.query = s.query[:start] + s.query[s.cursorPos:]
	s.cursorPos = start
}

// DeleteToEnd deletes from cursor to end (Ctrl+K)
func (s *SearchState) DeleteToEnd() {
	s.query = s.query[:s.cursorPos]
}

// CursorColumn is the cursor position in runes, for drawing
func (s *SearchState) CursorColumn() int {
	return len([]rune(s.query[:s.cursorPos]))
}

func (s *SearchState) matchWithPositions(text string) MatchResult {
	if s.query == "" {
		return MatchResult{}
	}

	searchText, pattern := text, s.query
	if !s.caseSensitive {
		searchText = strings.ToLower(text)
		pattern = strings.ToLower(s.query)
	}

	chars := util.ToChars([]byte(searchText))
	result, positions := algo.FuzzyMatchV2(s.caseSensitive, false, true, &chars, []rune(pattern), true, s.slab)
	if result.Start < 0 {
		return MatchResult{Score: -1}
	}

	var matched []int
	if positions != nil {
		matched = make([]int, len(*positions))
		copy(matched, *positions)
	}
	return MatchResult{Score: result.Score, Positions: matched}
}

func (s *SearchState) accepts(score int) bool {
	return score >= 0 && (s.minScore == 0 || score >= s.minScore)
}

// MatchSong tries the title first, then title, artist and album together.
// Positions are only returned for title matches.
func (s *SearchState) MatchSong(song *models.Song) (bool, MatchResult) {
	if s.query == "" {
		return true, MatchResult{}
	}
	if r := s.matchWithPositions(song.Title); s.accepts(r.Score) {
		return true, r
	}
	if r := s.matchWithPositions(song.SearchText()); s.accepts(r.Score) {
		return true, MatchResult{Score: r.Score}
	}
	return false, MatchResult{Score: -1}
}

// BestMatch returns the index of the highest scoring song, or -1.
// Ties go to the earlier song.
func (s *SearchState) BestMatch(songs []*models.Song) int {
	if s.query == "" {
		return -1
	}
	best, bestScore := -1, -1
	for i, song := range songs {
		ok, r := s.MatchSong(song)
		if ok && r.Score > bestScore {
			best, bestScore = i, r.Score
		}
	}
	return best
}
