package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ExecPlayer loads audio by launching an external player process, e.g.
// "ffplay -nodisp -autoexit -loglevel quiet". The audio file path is
// appended to the configured command.
type ExecPlayer struct {
	// Command is the player command line. Empty disables audio.
	Command string
}

// errNoSuspend is returned by suspendProcess on platforms without job
// control; Pause falls back to stopping the process entirely.
var errNoSuspend = errors.New("audio: process suspension not supported")

// LoadAudioResource verifies the audio file exists and returns a handle
// bound to the configured player command.
func (p *ExecPlayer) LoadAudioResource(_ context.Context, ref string) (Handle, error) {
	if p.Command == "" {
		return nil, errors.New("no audio player command configured")
	}
	if _, err := os.Stat(ref); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}
	return &execHandle{argv: strings.Fields(p.Command), path: ref}, nil
}

// execHandle drives one player process. Pause and resume use process
// suspension where the platform supports it, so playback position is
// preserved; elsewhere pause stops the process and play restarts it.
type execHandle struct {
	mu        sync.Mutex
	argv      []string
	path      string
	cmd       *exec.Cmd
	suspended bool
}

func (h *execHandle) Play(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd != nil {
		if !h.suspended {
			return nil
		}
		if err := resumeProcess(h.cmd.Process); err != nil {
			return fmt.Errorf("resume player: %w", err)
		}
		h.suspended = false
		return nil
	}

	cmd := exec.Command(h.argv[0], append(append([]string{}, h.argv[1:]...), h.path)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	h.cmd = cmd
	go func() {
		_ = cmd.Wait()
		h.mu.Lock()
		if h.cmd == cmd {
			h.cmd = nil
			h.suspended = false
		}
		h.mu.Unlock()
	}()
	return nil
}

func (h *execHandle) Pause(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd == nil || h.suspended {
		return nil
	}
	err := suspendProcess(h.cmd.Process)
	if errors.Is(err, errNoSuspend) {
		_ = h.cmd.Process.Kill()
		h.cmd = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("suspend player: %w", err)
	}
	h.suspended = true
	return nil
}

func (h *execHandle) Unload(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd == nil {
		return nil
	}
	if h.suspended {
		// Resume first so the player can exit cleanly before the kill.
		_ = resumeProcess(h.cmd.Process)
	}
	_ = h.cmd.Process.Kill()
	h.cmd = nil
	h.suspended = false
	return nil
}
