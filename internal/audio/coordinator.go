package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoSource indicates the meditation has no audio reference to load.
var ErrNoSource = errors.New("audio: no source configured")

// Handle is a loaded, playable audio resource.
type Handle interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Unload(ctx context.Context) error
}

// Loader resolves an audio reference to a playable handle.
type Loader interface {
	LoadAudioResource(ctx context.Context, ref string) (Handle, error)
}

// Coordinator binds a single audio resource to play/pause state. The
// resource is loaded lazily on first playback and exclusively owned by the
// coordinator until Release.
//
// Play and pause requests may suspend. Requests issued while an earlier one
// is still in flight are not rejected; the most recently requested state
// wins, and a superseded request never clobbers it.
type Coordinator struct {
	mu      sync.Mutex
	loader  Loader
	source  string
	handle  Handle
	playing bool // last applied state
	desired bool // last requested state
	gen     uint64
}

// NewCoordinator creates a coordinator for the given audio reference. An
// empty reference is allowed; playback will fail with ErrNoSource while the
// rest of the session carries on.
func NewCoordinator(loader Loader, source string) *Coordinator {
	return &Coordinator{loader: loader, source: source}
}

// EnsureLoaded loads the audio resource if it is not loaded yet and returns
// the handle. Repeated calls return the same handle.
func (c *Coordinator) EnsureLoaded(ctx context.Context) (Handle, error) {
	c.mu.Lock()
	if c.handle != nil {
		h := c.handle
		c.mu.Unlock()
		return h, nil
	}
	loader := c.loader
	source := c.source
	c.mu.Unlock()

	if source == "" {
		return nil, ErrNoSource
	}
	h, err := loader.LoadAudioResource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load audio %q: %w", source, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		c.handle = h
	}
	return c.handle, nil
}

// Toggle flips playback: load-then-play when stopped, pause when playing.
// The final observable state always reflects the most recent toggle, even
// when earlier toggles are still in flight.
func (c *Coordinator) Toggle(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.desired = !c.desired
	target := c.desired
	c.mu.Unlock()

	h, err := c.EnsureLoaded(ctx)
	if err != nil {
		c.mu.Lock()
		if gen == c.gen {
			c.desired = c.playing
		}
		c.mu.Unlock()
		return err
	}

	if target {
		err = h.Play(ctx)
	} else {
		err = h.Pause(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// Superseded; the later request owns the final state.
		return nil
	}
	if err != nil {
		c.desired = c.playing
		return fmt.Errorf("toggle playback: %w", err)
	}
	c.playing = target
	return nil
}

// Pause stops playback if anything is playing or about to play. It is the
// best-effort stop used when the session completes.
func (c *Coordinator) Pause(ctx context.Context) error {
	c.mu.Lock()
	if c.handle == nil || (!c.playing && !c.desired) {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	c.desired = false
	h := c.handle
	c.mu.Unlock()

	if err := h.Pause(ctx); err != nil {
		return fmt.Errorf("pause playback: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.playing = false
	}
	return nil
}

// Playing reports the last applied playback state.
func (c *Coordinator) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Release unloads the audio resource. It must be called on session
// teardown; calling it with nothing loaded is a no-op. Any in-flight
// play or pause request is superseded.
func (c *Coordinator) Release(ctx context.Context) error {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.playing = false
	c.desired = false
	c.gen++
	c.mu.Unlock()

	if h == nil {
		return nil
	}
	if err := h.Unload(ctx); err != nil {
		return fmt.Errorf("unload audio: %w", err)
	}
	return nil
}
