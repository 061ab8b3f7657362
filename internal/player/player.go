// Package player drives an mpv process over its JSON IPC socket.
package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

type PlayerState int

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// EventType identifies a backend notification
type EventType int

const (
	// EventEndOfTrack fires when a file played through to its end
	EventEndOfTrack EventType = iota
	// EventPlaybackError fires when mpv could not play a file
	EventPlaybackError
)

// Event is sent on the Events channel
type Event struct {
	Type EventType
	Path string
}

var ErrNotRunning = errors.New("mpv is not running")

type Player struct {
	mpvPath    string
	socketPath string

	mu        sync.Mutex
	cmd       *exec.Cmd
	running   bool
	path      string
	state     PlayerState
	position  time.Duration
	duration  time.Duration
	eventConn net.Conn
	eventStop chan struct{}

	events chan Event
}

type mpvCommand struct {
	Command   []interface{} `json:"command"`
	RequestID int           `json:"request_id,omitempty"`
}

type mpvResponse struct {
	Data      interface{} `json:"data"`
	RequestID int         `json:"request_id"`
	Error     string      `json:"error"`
}

type mpvEvent struct {
	Event  string `json:"event"`
	Reason string `json:"reason,omitempty"`
}

// New creates a player that runs the given mpv binary
func New(mpvPath string) *Player {
	if mpvPath == "" {
		mpvPath = "mpv"
	}
	return &Player{
		mpvPath:    mpvPath,
		socketPath: fmt.Sprintf("%s/nowplaying-mpv-%d.sock", os.TempDir(), os.Getpid()),
		state:      StateStopped,
		events:     make(chan Event, 4),
	}
}

// Events delivers end-of-track and error notifications
func (p *Player) Events() <-chan Event {
	return p.events
}

// StartIdle starts mpv in idle mode, ready to load tracks instantly
func (p *Player) StartIdle() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startIdleLocked()
}

func (p *Player) startIdleLocked() error {
	if p.running {
		return nil
	}

	os.Remove(p.socketPath)

	p.cmd = exec.Command(p.mpvPath,
		"--no-video",
		"--really-quiet",
		"--no-terminal",
		fmt.Sprintf("--input-ipc-server=%s", p.socketPath),
		"--idle",
		"--force-window=no",
		"--keep-open=no",
	)

	if err := p.cmd.Start(); err != nil {
		p.cmd = nil
		return fmt.Errorf("failed to start mpv in idle mode: %w", err)
	}

	socketReady := false
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(p.socketPath); err == nil {
			socketReady = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	if !socketReady {
		p.cmd.Process.Kill()
		p.cmd.Wait()
		p.cmd = nil
		return fmt.Errorf("mpv socket not created after timeout")
	}

	p.running = true
	if err := p.startEventListenerLocked(); err != nil {
		zlog.Warn().Err(err).Msg("failed to start mpv event listener")
	}

	zlog.Info().Str("socket", p.socketPath).Msg("mpv started in idle mode")
	return nil
}

// Load replaces whatever is playing with the file at path and starts it
func (p *Player) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.startIdleLocked(); err != nil {
		return err
	}

	if _, err := p.request("loadfile", path, "replace"); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	if _, err := p.request("set_property", "pause", false); err != nil {
		zlog.Warn().Err(err).Msg("failed to unpause after loading file")
	}

	p.path = path
	p.position = 0
	p.duration = 0
	p.state = StatePlaying

	zlog.Debug().Str("path", path).Msg("track loaded")
	return nil
}

// request sends one command to mpv. The caller holds p.mu.
func (p *Player) request(args ...interface{}) (*mpvResponse, error) {
	if !p.running {
		return nil, ErrNotRunning
	}

	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		p.state = StateStopped
		return nil, fmt.Errorf("failed to connect to mpv socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))

	data, err := json.Marshal(mpvCommand{Command: args})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write command: %w", err)
	}

	// mpv may interleave events with the reply on the same connection
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		var response mpvResponse
		if err := json.Unmarshal(line, &response); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		if response.Error == "" {
			continue
		}
		if response.Error != "success" {
			return &response, fmt.Errorf("mpv error: %s", response.Error)
		}
		return &response, nil
	}
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return nil
	}

	if _, err := p.request("set_property", "pause", true); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	p.state = StatePaused
	return nil
}

func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused {
		return nil
	}

	if _, err := p.request("set_property", "pause", false); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}

	p.state = StatePlaying
	return nil
}

// Stop stops playback but keeps mpv running in idle mode
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return nil
	}

	if _, err := p.request("stop"); err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}

	p.state = StateStopped
	p.position = 0
	p.duration = 0
	p.path = ""
	return nil
}

// SeekAbsolute seeks to pos, clamped to the track bounds
func (p *Player) SeekAbsolute(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return nil
	}

	seconds := pos.Seconds()
	if seconds < 0 {
		seconds = 0
	} else if p.duration > 0 && pos >= p.duration {
		// stop one second short so mpv doesn't skip to the next file
		seconds = p.duration.Seconds() - 1
		if seconds < 0 {
			seconds = 0
		}
	}

	if _, err := p.request("seek", seconds, "absolute"); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	p.position = time.Duration(seconds * float64(time.Second))
	return nil
}

func (p *Player) GetPosition() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return p.position, nil
	}

	resp, err := p.request("get_property", "time-pos")
	if err != nil {
		// unavailable while a file is still opening
		if resp != nil && resp.Error == "property unavailable" {
			return p.position, nil
		}
		return p.position, err
	}

	if pos, ok := resp.Data.(float64); ok && pos >= 0 {
		p.position = time.Duration(pos * float64(time.Second))
	}

	return p.position, nil
}

func (p *Player) GetDuration() (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateStopped {
		return p.duration, nil
	}

	resp, err := p.request("get_property", "duration")
	if err != nil {
		if resp != nil && resp.Error == "property unavailable" {
			return p.duration, nil
		}
		return p.duration, err
	}

	if dur, ok := resp.Data.(float64); ok && dur > 0 {
		p.duration = time.Duration(dur * float64(time.Second))
	}

	return p.duration, nil
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StatePlaying
}

func (p *Player) GetState() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsRunning reports whether the mpv process is up
func (p *Player) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Cleanup quits mpv and removes the socket. Call on shutdown.
func (p *Player) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopEventListenerLocked()

	if p.running {
		if _, err := p.request("quit"); err != nil {
			zlog.Debug().Err(err).Msg("mpv quit command failed")
		}
	}
	p.running = false
	p.state = StateStopped

	if p.cmd != nil && p.cmd.Process != nil {
		done := make(chan error, 1)
		go func() {
			done <- p.cmd.Wait()
		}()

		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			zlog.Warn().Int("pid", p.cmd.Process.Pid).Msg("force killing mpv")
			if err := p.cmd.Process.Kill(); err != nil {
				zlog.Error().Err(err).Msg("failed to kill mpv")
			}
			<-done
		}
	}
	p.cmd = nil

	for i := 0; i < 3; i++ {
		if err := os.Remove(p.socketPath); err == nil || os.IsNotExist(err) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (p *Player) startEventListenerLocked() error {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect for events: %w", err)
	}

	data, _ := json.Marshal(mpvCommand{Command: []interface{}{"enable_event", "end-file"}})
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		conn.Close()
		return fmt.Errorf("failed to enable events: %w", err)
	}

	p.eventConn = conn
	p.eventStop = make(chan struct{})
	go p.handleEvents(conn, p.eventStop)

	return nil
}

func (p *Player) stopEventListenerLocked() {
	if p.eventStop != nil {
		close(p.eventStop)
		p.eventStop = nil
	}
	if p.eventConn != nil {
		p.eventConn.Close()
		p.eventConn = nil
	}
}

func (p *Player) handleEvents(conn net.Conn, stop <-chan struct{}) {
	reader := bufio.NewReader(conn)
	// bytes of a line cut off by a read deadline
	var pending []byte
	for {
		select {
		case <-stop:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		line, err := reader.ReadBytes('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				pending = append(pending, line...)
				continue
			}
			zlog.Debug().Err(err).Msg("mpv event reader stopped")
			return
		}
		if len(pending) > 0 {
			line = append(pending, line...)
			pending = nil
		}

		var event mpvEvent
		if err := json.Unmarshal(line, &event); err != nil || event.Event != "end-file" {
			continue
		}
		p.handleEndFile(event.Reason)
	}
}

// handleEndFile reacts to mpv's end-file. Reason "stop" comes from our own
// loadfile/stop commands and is ignored.
func (p *Player) handleEndFile(reason string) {
	var ev Event
	p.mu.Lock()
	switch reason {
	case "eof":
		ev = Event{Type: EventEndOfTrack, Path: p.path}
		if p.duration > 0 {
			p.position = p.duration
		}
	case "error":
		ev = Event{Type: EventPlaybackError, Path: p.path}
	default:
		p.mu.Unlock()
		return
	}
	p.state = StateStopped
	p.mu.Unlock()

	zlog.Debug().Str("reason", reason).Str("path", ev.Path).Msg("mpv end-file")
	select {
	case p.events <- ev:
	default:
		zlog.Warn().Msg("player event dropped, channel full")
	}
}
