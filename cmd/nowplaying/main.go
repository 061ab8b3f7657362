// Package main provides the nowplaying-tui entry point.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/csams/nowplaying-tui/internal/config"
	"github.com/csams/nowplaying-tui/internal/library"
	"github.com/csams/nowplaying-tui/internal/logger"
	"github.com/csams/nowplaying-tui/internal/models"
	"github.com/csams/nowplaying-tui/internal/music"
	"github.com/csams/nowplaying-tui/internal/player"
	"github.com/csams/nowplaying-tui/internal/playlist"
	"github.com/csams/nowplaying-tui/internal/ui"
)

var (
	app       = kingpin.New("nowplaying", "Terminal now playing queue")
	configDir = app.Flag("config-dir", "Directory holding config.yaml and the playlist database").Default(config.DefaultDir()).String()
	verbose   = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile   = app.Flag("logfile", "Path to log file").String()

	playCmd      = app.Command("play", "Play files and directories (default)").Default()
	playPaths    = playCmd.Arg("paths", "Files or directories to queue, defaults to the music dir").Strings()
	playSort     = playCmd.Flag("sort", "Sort the queue before playing").Enum(music.SortKeys...)
	playSong     = playCmd.Flag("song", "Queue index to start at").Default("0").Int()
	playPlaylist = playCmd.Flag("playlist", "Queue a stored playlist instead of scanning").String()

	playlistsCmd = app.Command("playlists", "List stored playlists and exit")
)

func main() {
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}
	if *verbose {
		logCfg.Level = "debug"
	}
	if *logfile != "" {
		logCfg.Output = "file"
		logCfg.File = *logfile
	}
	closer, err := logger.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	switch command {
	case playlistsCmd.FullCommand():
		err = listPlaylists(cfg)
	default:
		err = run(cfg)
	}
	if err != nil {
		zlog.Error().Err(err).Msg("nowplaying exited with error")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	store, err := playlist.Open(cfg.Playlists.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	queue, err := loadQueue(cfg, store)
	if err != nil {
		return err
	}
	zlog.Info().Int("songs", len(queue)).Msg("queue loaded")

	p := player.New(cfg.Player.MpvPath)
	if err := p.StartIdle(); err != nil {
		// the queue is still browsable without mpv
		zlog.Warn().Err(err).Msg("failed to start mpv")
	}
	defer p.Cleanup()

	sortKey := *playSort
	if sortKey == "" {
		sortKey = cfg.UI.DefaultSort
	}

	return ui.NewApp(ui.Options{
		Session:   music.NewService(p),
		Playlists: store,
		Events:    p.Events(),
		Queue:     queue,
		Directives: ui.Directives{
			Sort:    sortKey,
			Song:    *playSong,
			HasSong: len(queue) > 0,
		},
		SeekStep:  time.Duration(cfg.Player.SeekStepSec) * time.Second,
		LongPress: time.Duration(cfg.UI.LongPressMs) * time.Millisecond,
		Scope:     cfg.Playlists.DefaultScope,
	}).Run()
}

func loadQueue(cfg *config.Config, store *playlist.Store) ([]*models.Song, error) {
	if *playPlaylist != "" {
		pl, err := store.FindByName(cfg.Playlists.DefaultScope, *playPlaylist)
		if err != nil {
			return nil, errors.Wrapf(err, "playlist %q", *playPlaylist)
		}
		return pl.Songs, nil
	}

	paths := *playPaths
	if len(paths) == 0 {
		paths = []string{cfg.Library.MusicDir}
	}
	songs, err := library.NewScanner(cfg.Library.Extensions).Scan(paths...)
	if err != nil {
		return nil, errors.Wrap(err, "scan library")
	}
	return songs, nil
}

func listPlaylists(cfg *config.Config) error {
	store, err := playlist.Open(cfg.Playlists.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	playlists, err := store.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCOPE\tSONGS\tCREATED")
	for _, p := range playlists {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Name, p.Scope, len(p.Songs), p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
