// Package audio owns the single active playback of lesson speech.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Clip is synthesized speech for one piece of content.
type Clip struct {
	Label    string
	Language string
	Data     []byte
}

// Playback is a running clip. Stop is idempotent and Done closes when playback ends.
type Playback interface {
	Stop() error
	Done() <-chan struct{}
}

// Player starts playback of a clip.
type Player interface {
	Play(ctx context.Context, clip Clip) (Playback, error)
}

// Slot holds at most one active playback. Starting a new clip stops the previous one first.
type Slot struct {
	player Player

	mu      sync.Mutex
	current Playback
	cancel  context.CancelFunc
	closed  bool
}

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("audio: slot closed")

func NewSlot(player Player) *Slot {
	return &Slot{player: player}
}

// Start stops any active playback and plays clip.
func (s *Slot) Start(ctx context.Context, clip Clip) (Playback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := s.stopLocked(); err != nil {
		return nil, err
	}
	playCtx, cancel := context.WithCancel(ctx)
	playback, err := s.player.Play(playCtx, clip)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("audio: play %s: %w", clip.Label, err)
	}
	s.current = playback
	s.cancel = cancel
	return playback, nil
}

// Playing reports whether a clip is active.
func (s *Slot) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	select {
	case <-s.current.Done():
		return false
	default:
		return true
	}
}

// Stop ends the active playback, if any.
func (s *Slot) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Close stops playback and rejects later starts.
func (s *Slot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.stopLocked()
}

func (s *Slot) stopLocked() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Stop()
	s.cancel()
	s.current = nil
	s.cancel = nil
	return err
}

// CommandPlayer saves each clip under Dir and plays it with an external command
// such as mpg123 or afplay. Without a command it only saves the file.
type CommandPlayer struct {
	Dir     string
	Command string
}

// Play writes the clip and starts the command.
func (p CommandPlayer) Play(ctx context.Context, clip Clip) (Playback, error) {
	if len(clip.Data) == 0 {
		return nil, errors.New("empty clip")
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(p.Dir, "speech-"+uuid.NewString()[:8]+".mp3")
	if err := os.WriteFile(path, clip.Data, 0o644); err != nil {
		return nil, err
	}
	fields := strings.Fields(p.Command)
	if len(fields) == 0 {
		return finished{}, nil
	}
	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	proc := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(proc.done)
	}()
	return proc, nil
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (p *process) Stop() error {
	var err error
	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		if killErr := p.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = killErr
		}
		<-p.done
	})
	return err
}

func (p *process) Done() <-chan struct{} { return p.done }

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

type finished struct{}

func (finished) Stop() error { return nil }

func (finished) Done() <-chan struct{} { return closedChan }
