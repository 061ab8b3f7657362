package ui

import (
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/csams/nowplaying-tui/internal/models"
)

var songColumns = []TableColumn{
	{Title: "#", Width: 6, Align: AlignRight},
	{Title: "Title", MinWidth: 15, FlexWeight: 0.4},
	{Title: "Artist", MinWidth: 10, FlexWeight: 0.3},
	{Title: "Album", MinWidth: 10, FlexWeight: 0.3},
	{Title: "Time", Width: 7, Align: AlignRight},
}

// SongTableRow renders one queue entry
type SongTableRow struct {
	song       *models.Song
	index      int
	view       *NowPlayingView
	highlights []int
}

func (r *SongTableRow) isCurrent() bool {
	return r.index == r.view.drawCurrent
}

func (r *SongTableRow) GetCell(columnIndex int) string {
	switch columnIndex {
	case 0:
		num := strconv.Itoa(r.index + 1)
		if r.isCurrent() {
			if r.view.drawPlaying {
				return "▶ " + num
			}
			return "⏸ " + num
		}
		return num
	case 1:
		return r.song.Title
	case 2:
		return r.song.Artist
	case 3:
		return r.song.Album
	case 4:
		if r.song.Duration > 0 {
			return formatQueueDuration(r.song.Duration)
		}
		return ""
	default:
		return ""
	}
}

func (r *SongTableRow) GetCellStyle(columnIndex int, selected bool) *tcell.Style {
	if !r.isCurrent() || selected {
		return nil
	}
	style := tcell.StyleDefault.Background(ColorBlue7).Foreground(ColorPlaying)
	if !r.view.drawPlaying {
		style = style.Foreground(ColorPaused)
	}
	return &style
}

func (r *SongTableRow) GetHighlightPositions(columnIndex int) []int {
	if columnIndex == 1 {
		return r.highlights
	}
	return nil
}
