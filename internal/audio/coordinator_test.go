package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandle records play/pause/unload calls. Play can be made to block
// until released, to simulate an in-flight request.
type fakeHandle struct {
	mu      sync.Mutex
	plays   int
	pauses  int
	unloads int

	playGate chan struct{} // if non-nil, Play blocks until closed
	playErr  error
	pauseErr error
}

func (h *fakeHandle) Play(_ context.Context) error {
	h.mu.Lock()
	gate := h.playGate
	h.plays++
	h.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return h.playErr
}

func (h *fakeHandle) Pause(_ context.Context) error {
	h.mu.Lock()
	h.pauses++
	h.mu.Unlock()
	return h.pauseErr
}

func (h *fakeHandle) Unload(_ context.Context) error {
	h.mu.Lock()
	h.unloads++
	h.mu.Unlock()
	return nil
}

type fakeLoader struct {
	handle *fakeHandle
	err    error
	loads  int
}

func (l *fakeLoader) LoadAudioResource(_ context.Context, _ string) (Handle, error) {
	l.loads++
	if l.err != nil {
		return nil, l.err
	}
	return l.handle, nil
}

func TestCoordinator_LazySingleLoad(t *testing.T) {
	loader := &fakeLoader{handle: &fakeHandle{}}
	c := NewCoordinator(loader, "calm.mp3")
	ctx := context.Background()

	h1, err := c.EnsureLoaded(ctx)
	require.NoError(t, err)
	h2, err := c.EnsureLoaded(ctx)
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, 1, loader.loads, "no duplicate loads")
}

func TestCoordinator_MissingSource(t *testing.T) {
	c := NewCoordinator(&fakeLoader{handle: &fakeHandle{}}, "")
	_, err := c.EnsureLoaded(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)

	err = c.Toggle(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
	assert.False(t, c.Playing())
}

func TestCoordinator_TogglePlayPause(t *testing.T) {
	handle := &fakeHandle{}
	c := NewCoordinator(&fakeLoader{handle: handle}, "calm.mp3")
	ctx := context.Background()

	require.NoError(t, c.Toggle(ctx))
	assert.True(t, c.Playing())
	assert.Equal(t, 1, handle.plays)

	require.NoError(t, c.Toggle(ctx))
	assert.False(t, c.Playing())
	assert.Equal(t, 1, handle.pauses)
}

func TestCoordinator_SupersededToggle(t *testing.T) {
	gate := make(chan struct{})
	handle := &fakeHandle{playGate: gate}
	c := NewCoordinator(&fakeLoader{handle: handle}, "calm.mp3")
	ctx := context.Background()

	// First toggle (play) blocks in flight.
	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Toggle(ctx) }()

	// Wait until the play request is actually issued.
	for {
		handle.mu.Lock()
		started := handle.plays > 0
		handle.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Second toggle (pause) resolves while the first is still pending.
	require.NoError(t, c.Toggle(ctx))

	close(gate)
	require.NoError(t, <-firstDone)

	// The most recent request wins: paused, not playing.
	assert.False(t, c.Playing())
}

func TestCoordinator_LoadFailureDegrades(t *testing.T) {
	loader := &fakeLoader{err: errors.New("asset missing")}
	c := NewCoordinator(loader, "calm.mp3")

	err := c.Toggle(context.Background())
	require.Error(t, err)
	assert.False(t, c.Playing())

	// A later toggle retries the load rather than wedging.
	err = c.Toggle(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, loader.loads)
}

func TestCoordinator_PauseWithoutPlayback(t *testing.T) {
	c := NewCoordinator(&fakeLoader{handle: &fakeHandle{}}, "calm.mp3")
	assert.NoError(t, c.Pause(context.Background()), "pause with nothing loaded is a no-op")
}

func TestCoordinator_Release(t *testing.T) {
	handle := &fakeHandle{}
	c := NewCoordinator(&fakeLoader{handle: handle}, "calm.mp3")
	ctx := context.Background()

	require.NoError(t, c.Release(ctx), "release with nothing loaded is a no-op")

	require.NoError(t, c.Toggle(ctx))
	require.NoError(t, c.Release(ctx))
	assert.Equal(t, 1, handle.unloads)
	assert.False(t, c.Playing())

	// The handle is gone; a new toggle loads again.
	require.NoError(t, c.Toggle(ctx))
	assert.True(t, c.Playing())
}
