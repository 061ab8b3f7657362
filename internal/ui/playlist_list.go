package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/csams/nowplaying-tui/internal/models"
	"github.com/csams/nowplaying-tui/internal/playlist"
)

// PlaylistCatalog is the playlist store as seen by the app
type PlaylistCatalog interface {
	PlaylistStore
	List() ([]*models.Playlist, error)
	Delete(id string) error
	Subscribe(fn playlist.Listener) func()
}

// PlaylistTableRow adapts a playlist to the TableRow interface
type PlaylistTableRow struct {
	playlist *models.Playlist
}

func (r *PlaylistTableRow) GetCell(columnIndex int) string {
	switch columnIndex {
	case 0:
		return r.playlist.Name
	case 1:
		return r.playlist.Scope
	case 2:
		return strconv.Itoa(len(r.playlist.Songs))
	case 3:
		return formatQueueDuration(r.playlist.TotalDuration())
	case 4:
		return formatCreated(r.playlist.CreatedAt)
	default:
		return ""
	}
}

func (r *PlaylistTableRow) GetCellStyle(columnIndex int, selected bool) *tcell.Style {
	return nil
}

func (r *PlaylistTableRow) GetHighlightPositions(columnIndex int) []int {
	return nil
}

func formatCreated(t time.Time) string {
	local := t.Local()
	if local.Year() == time.Now().Year() {
		return local.Format("Jan 02 15:04")
	}
	return local.Format("2006-01-02")
}

// PlaylistListView lists the stored playlists
type PlaylistListView struct {
	table     *Table
	catalog   PlaylistCatalog
	confirm   *ConfirmationDialog
	toast     *Toast
	playlists []*models.Playlist
	onOpen    func(*models.Playlist)
	onBack    func()
}

func NewPlaylistListView(catalog PlaylistCatalog, confirm *ConfirmationDialog, toast *Toast) *PlaylistListView {
	v := &PlaylistListView{
		table:   NewTable(),
		catalog: catalog,
		confirm: confirm,
		toast:   toast,
	}
	v.table.SetColumns([]TableColumn{
		{Title: "Name", MinWidth: 20, FlexWeight: 1},
		{Title: "Scope", Width: 8},
		{Title: "Songs", Width: 5, Align: AlignRight},
		{Title: "Length", Width: 8, Align: AlignRight},
		{Title: "Created", Width: 12},
	})
	return v
}

// SetHandlers wires opening a playlist and leaving the screen
func (v *PlaylistListView) SetHandlers(onOpen func(*models.Playlist), onBack func()) {
	v.onOpen = onOpen
	v.onBack = onBack
}

// Reload re-reads the store, keeping the selected playlist selected
func (v *PlaylistListView) Reload() {
	selectedID := ""
	if p := v.Selected(); p != nil {
		selectedID = p.ID
	}

	playlists, err := v.catalog.List()
	if err != nil {
		zlog.Error().Err(err).Msg("failed to list playlists")
		v.toast.ShowError("Could not load playlists: " + err.Error())
		return
	}
	v.playlists = playlists

	rows := make([]TableRow, len(playlists))
	selected := v.table.SelectedIndex()
	for i, p := range playlists {
		rows[i] = &PlaylistTableRow{playlist: p}
		if p.ID == selectedID {
			selected = i
		}
	}
	v.table.SetRows(rows)
	v.table.Select(selected)
}

func (v *PlaylistListView) Playlists() []*models.Playlist {
	return v.playlists
}

func (v *PlaylistListView) Selected() *models.Playlist {
	idx := v.table.SelectedIndex()
	if idx >= 0 && idx < len(v.playlists) {
		return v.playlists[idx]
	}
	return nil
}

func (v *PlaylistListView) OnResume() { v.Reload() }
func (v *PlaylistListView) OnPause()  {}
func (v *PlaylistListView) OnStop()   {}

func (v *PlaylistListView) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyDown:
		return v.table.SelectNext()
	case tcell.KeyUp:
		return v.table.SelectPrevious()
	case tcell.KeyCtrlD, tcell.KeyPgDn:
		return v.table.PageDown()
	case tcell.KeyCtrlU, tcell.KeyPgUp:
		return v.table.PageUp()
	case tcell.KeyEnter:
		return v.open()
	case tcell.KeyEscape:
		return v.back()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			return v.table.SelectNext()
		case 'k':
			return v.table.SelectPrevious()
		case 'g':
			v.table.SelectFirst()
			return true
		case 'G':
			v.table.SelectLast()
			return true
		case 'l':
			return v.open()
		case 'h':
			return v.back()
		case 'd', 'x':
			return v.confirmDelete()
		}
	}
	return false
}

func (v *PlaylistListView) HandleMouse(ev *tcell.EventMouse) bool {
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		v.table.ScrollBy(-3)
	case buttons&tcell.WheelDown != 0:
		v.table.ScrollBy(3)
	case buttons&tcell.Button1 != 0:
		x, y := ev.Position()
		row := v.table.RowAt(x, y)
		if row < 0 {
			return false
		}
		v.table.Select(row)
	default:
		return false
	}
	return true
}

func (v *PlaylistListView) open() bool {
	p := v.Selected()
	if p == nil || v.onOpen == nil {
		return false
	}
	v.onOpen(p)
	return true
}

func (v *PlaylistListView) back() bool {
	if v.onBack == nil {
		return false
	}
	v.onBack()
	return true
}

func (v *PlaylistListView) confirmDelete() bool {
	p := v.Selected()
	if p == nil {
		return false
	}
	v.confirm.Show("Delete Playlist",
		fmt.Sprintf("Delete %q (%d songs)?", p.Name, len(p.Songs)),
		func() {
			if err := v.catalog.Delete(p.ID); err != nil {
				zlog.Error().Err(err).Str("id", p.ID).Msg("failed to delete playlist")
				v.toast.ShowError("Could not delete playlist: " + err.Error())
				return
			}
			v.toast.Show("Deleted playlist: "+p.Name, ToastShort)
		}, nil)
	return true
}

func (v *PlaylistListView) Draw(s tcell.Screen) {
	width, height := s.Size()

	header := "Playlists"
	if len(v.playlists) > 0 {
		header = fmt.Sprintf("Playlists (%d)", len(v.playlists))
	}
	base := tcell.StyleDefault.Background(ColorBg).Foreground(ColorFg)
	drawText(s, 0, 0, base.Bold(true).Foreground(ColorHeader), header)
	for x := 0; x < width; x++ {
		s.SetContent(x, 1, '─', nil, base.Foreground(ColorDimmed))
	}

	v.table.SetBounds(0, 2, width, height-3)
	v.table.Draw(s)

	if first, last, total := v.table.ScrollInfo(); total > last-first+1 {
		drawText(s, len(header)+2, 0, base.Foreground(ColorDimmed), fmt.Sprintf("[%d-%d/%d]", first, last, total))
	}
	if len(v.playlists) == 0 {
		drawText(s, 2, 4, base.Foreground(ColorDimmed), "No playlists yet. Press m on the queue to save one.")
	}
}
