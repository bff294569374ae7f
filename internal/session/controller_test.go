package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillmind-app/stillmind/internal/audio"
	"github.com/stillmind-app/stillmind/internal/models"
)

type recorderMock struct {
	mu      sync.Mutex
	records []models.SessionRecord
	err     error
}

func (r *recorderMock) PersistSession(_ context.Context, rec models.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.err
}

func (r *recorderMock) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *recorderMock) last() models.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[len(r.records)-1]
}

type stubHandle struct {
	plays, pauses, unloads int
}

func (h *stubHandle) Play(context.Context) error   { h.plays++; return nil }
func (h *stubHandle) Pause(context.Context) error  { h.pauses++; return nil }
func (h *stubHandle) Unload(context.Context) error { h.unloads++; return nil }

type stubLoader struct {
	handle audio.Handle
	err    error
}

func (l *stubLoader) LoadAudioResource(context.Context, string) (audio.Handle, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.handle, nil
}

func newTestController(t *testing.T, durationSec int, rec Recorder, loader audio.Loader) *Controller {
	t.Helper()
	if loader == nil {
		loader = &stubLoader{handle: &stubHandle{}}
	}
	return New(Config{
		MeditationID: "3",
		Title:        "Sunset",
		DurationSec:  durationSec,
		Audio:        audio.NewCoordinator(loader, "sunset.mp3"),
		Recorder:     rec,
		Now:          func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
	})
}

func TestController_CompletesAndPersistsOnce(t *testing.T) {
	rec := &recorderMock{}
	c := newTestController(t, 3, rec, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, models.SessionStateRunning, c.State())

	for i := 0; i < 3; i++ {
		c.Tick(ctx)
	}
	c.Wait()

	assert.Equal(t, models.SessionStateCompleted, c.State())
	assert.Equal(t, 0, c.Remaining())
	require.Equal(t, 1, rec.count())

	saved := rec.last()
	assert.Equal(t, 1, saved.Minutes, "3 seconds rounds up to the 1-minute floor")
	assert.Equal(t, "3", saved.MeditationID)
	assert.Equal(t, "Sunset", saved.Title)
	assert.False(t, saved.Date.IsZero())

	// Further ticks after completion change nothing.
	c.Tick(ctx)
	c.Wait()
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, 0, c.Remaining())
}

func TestController_DuplicateExpirySubmitsOnce(t *testing.T) {
	rec := &recorderMock{}
	c := newTestController(t, 1, rec, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.Tick(ctx)
	c.Wait()
	require.Equal(t, 1, rec.count())

	// Force the clock to expire again without an explicit restart,
	// simulating a spurious duplicate expiry signal.
	c.mu.Lock()
	c.clock.Reset(1)
	c.clock.Start()
	c.mu.Unlock()
	c.Tick(ctx)
	c.Wait()

	assert.Equal(t, 1, rec.count(), "completion guard blocks a second submission")
}

func TestController_MinutesRounding(t *testing.T) {
	cases := []struct {
		seconds int
		minutes int
	}{
		{3, 1},
		{29, 1},
		{60, 1},
		{90, 2},
		{150, 3},
		{600, 10},
	}
	for _, tc := range cases {
		rec := &recorderMock{}
		c := newTestController(t, tc.seconds, rec, nil)
		ctx := context.Background()
		require.NoError(t, c.Start(ctx))
		for i := 0; i < tc.seconds; i++ {
			c.Tick(ctx)
		}
		c.Wait()
		require.Equal(t, 1, rec.count())
		assert.Equal(t, tc.minutes, rec.last().Minutes, "seconds=%d", tc.seconds)
	}
}

func TestController_PauseResumeLockstep(t *testing.T) {
	handle := &stubHandle{}
	rec := &recorderMock{}
	c := newTestController(t, 10, rec, &stubLoader{handle: handle})
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.Tick(ctx)
	assert.Equal(t, 9, c.Remaining())
	assert.Equal(t, 1, handle.plays)

	require.NoError(t, c.Toggle(ctx))
	assert.True(t, c.Paused())
	assert.Equal(t, 1, handle.pauses)

	c.Tick(ctx)
	assert.Equal(t, 9, c.Remaining(), "paused sessions do not advance")

	require.NoError(t, c.Toggle(ctx))
	assert.False(t, c.Paused())
	assert.Equal(t, 2, handle.plays)

	c.Tick(ctx)
	assert.Equal(t, 8, c.Remaining())
}

func TestController_RestartAfterCompletion(t *testing.T) {
	rec := &recorderMock{}
	c := newTestController(t, 2, rec, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.Tick(ctx)
	c.Tick(ctx)
	c.Wait()
	require.Equal(t, 1, rec.count())

	// Explicit restart re-arms the run and the completion guard.
	require.NoError(t, c.Toggle(ctx))
	assert.Equal(t, models.SessionStateRunning, c.State())
	assert.Equal(t, 2, c.Remaining())

	c.Tick(ctx)
	c.Tick(ctx)
	c.Wait()
	assert.Equal(t, 2, rec.count(), "a restarted run persists again")
}

func TestController_PersistFailureStaysCompleted(t *testing.T) {
	rec := &recorderMock{err: errors.New("network down")}
	c := newTestController(t, 1, rec, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.Tick(ctx)
	c.Wait()

	assert.Equal(t, models.SessionStateCompleted, c.State())
	assert.Equal(t, 1, rec.count(), "one attempt, no retry")

	// The failed attempt is not repeated by further ticks.
	c.Tick(ctx)
	c.Wait()
	assert.Equal(t, 1, rec.count())
}

func TestController_AudioFailureDoesNotBlockTimer(t *testing.T) {
	rec := &recorderMock{}
	c := newTestController(t, 2, rec, &stubLoader{err: errors.New("asset missing")})
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.Tick(ctx)
	c.Tick(ctx)
	c.Wait()

	assert.Equal(t, models.SessionStateCompleted, c.State())
	assert.Equal(t, 1, rec.count(), "session completes without audio")
}

func TestController_StartTwice(t *testing.T) {
	c := newTestController(t, 5, &recorderMock{}, nil)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.ErrorIs(t, c.Start(ctx), ErrNotIdle)
}

func TestController_AdjustDuration(t *testing.T) {
	handle := &stubHandle{}
	c := newTestController(t, 10, &recorderMock{}, &stubLoader{handle: handle})
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.Tick(ctx)

	// Entering the picker pauses timer and audio together.
	require.NoError(t, c.BeginAdjust(ctx))
	assert.True(t, c.Paused())
	assert.Equal(t, 1, handle.pauses)

	require.NoError(t, c.ApplyDuration(30))
	assert.Equal(t, 30, c.Remaining())
	assert.Equal(t, 30, c.Initial())

	require.NoError(t, c.Toggle(ctx))
	c.Tick(ctx)
	assert.Equal(t, 29, c.Remaining())

	assert.Error(t, c.ApplyDuration(0))
}

func TestController_AdjustAfterCompletionArmsFreshRun(t *testing.T) {
	rec := &recorderMock{}
	c := newTestController(t, 1, rec, nil)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.Tick(ctx)
	c.Wait()
	require.Equal(t, 1, rec.count())

	require.NoError(t, c.ApplyDuration(2))
	assert.Equal(t, models.SessionStateIdle, c.State())

	require.NoError(t, c.Start(ctx))
	c.Tick(ctx)
	c.Tick(ctx)
	c.Wait()
	assert.Equal(t, 2, rec.count())
}

func TestController_RunLoopCancellation(t *testing.T) {
	rec := &recorderMock{}
	c := newTestController(t, 3600, rec, nil)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, c.Start(ctx))
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not stop on cancellation")
	}

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 0, rec.count(), "abandoned sessions are not persisted")
}
