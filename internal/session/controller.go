package session

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/stillmind-app/stillmind/internal/audio"
	"github.com/stillmind-app/stillmind/internal/models"
	"github.com/stillmind-app/stillmind/internal/timer"
)

// Recorder persists a completed session. The controller calls it at most
// once per run, from a goroutine that may outlive the controller itself.
type Recorder interface {
	PersistSession(ctx context.Context, rec models.SessionRecord) error
}

// ErrNotIdle is returned by Start when a session is already underway.
var ErrNotIdle = errors.New("session: already started")

// defaultPersistTimeout bounds the fire-and-forget completion write.
const defaultPersistTimeout = 30 * time.Second

// Config assembles a controller's collaborators.
type Config struct {
	MeditationID string
	Title        string
	DurationSec  int

	Audio    *audio.Coordinator
	Recorder Recorder
	Logger   *slog.Logger

	// Now overrides the completion timestamp source. Defaults to time.Now.
	Now func() time.Time
	// PersistTimeout bounds the completion write. Defaults to 30s.
	PersistTimeout time.Duration
}

// Controller orchestrates the countdown and the audio coordinator into one
// session state machine: Idle -> Running (with a paused sub-state) ->
// Completed, with an explicit restart back to Running. The completion side
// effect — building the SessionRecord and handing it to the Recorder —
// fires exactly once per run.
//
// One controller is owned by one active session surface at a time.
type Controller struct {
	mu    sync.Mutex
	state models.SessionState
	clock *timer.Countdown
	audio *audio.Coordinator

	meditationID string
	title        string

	// completed guards the persistence side effect for the current run.
	// Set atomically with the first completion attempt; only an explicit
	// restart clears it.
	completed bool

	recorder       Recorder
	logger         *slog.Logger
	now            func() time.Time
	persistTimeout time.Duration
	persistWG      sync.WaitGroup
}

// New creates an idle controller armed with the configured duration.
func New(cfg Config) *Controller {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	pt := cfg.PersistTimeout
	if pt <= 0 {
		pt = defaultPersistTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		state:          models.SessionStateIdle,
		clock:          timer.New(cfg.DurationSec),
		audio:          cfg.Audio,
		meditationID:   cfg.MeditationID,
		title:          cfg.Title,
		recorder:       cfg.Recorder,
		logger:         logger,
		now:            now,
		persistTimeout: pt,
	}
}

// Start begins the session from Idle: the countdown starts and audio
// playback is requested. Audio failure is tolerated; the countdown runs
// regardless.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != models.SessionStateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.state = models.SessionStateRunning
	c.clock.Start()
	c.mu.Unlock()

	c.toggleAudio(ctx)
	return nil
}

// Toggle is the single entry point that pauses and resumes the session,
// keeping the countdown and the audio in lockstep. From Completed it
// restarts: the countdown is re-armed with the initial duration and the
// completion guard is cleared for the new run.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case models.SessionStateIdle:
		c.mu.Unlock()
		return c.Start(ctx)
	case models.SessionStateCompleted:
		c.clock.Reset(c.clock.Initial())
		c.completed = false
		c.state = models.SessionStateRunning
		c.clock.Start()
	default:
		if c.clock.Running() {
			c.clock.Pause()
		} else {
			c.clock.Start()
		}
	}
	c.mu.Unlock()

	c.toggleAudio(ctx)
	return nil
}

// toggleAudio flips playback, logging instead of failing: audio is a
// non-essential enhancement and must never stall the countdown.
func (c *Controller) toggleAudio(ctx context.Context) {
	if c.audio == nil {
		return
	}
	if err := c.audio.Toggle(ctx); err != nil {
		c.logger.Warn("audio toggle failed, continuing without audio",
			"meditation", c.meditationID, "error", err)
	}
}

// Tick advances the session by one second. The run loop drives it, but it
// is exported so a session can be stepped deterministically. On the tick
// that reaches zero the session transitions to Completed, audio is paused
// best-effort, and — exactly once per run — a SessionRecord is dispatched
// to the Recorder.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	if !c.clock.Tick() {
		c.mu.Unlock()
		return
	}
	c.state = models.SessionStateCompleted
	first := !c.completed
	c.completed = true
	var rec models.SessionRecord
	if first {
		rec = models.SessionRecord{
			Minutes:      minutesFor(c.clock.Initial()),
			MeditationID: c.meditationID,
			Title:        c.title,
			Date:         c.now().UTC(),
		}
	}
	c.mu.Unlock()

	if c.audio != nil {
		if err := c.audio.Pause(ctx); err != nil {
			c.logger.Warn("pause audio on completion", "error", err)
		}
	}

	if first {
		c.dispatchPersist(rec)
	}
}

// minutesFor converts a configured duration to recorded minutes; even the
// shortest session counts as one minute.
func minutesFor(initialSeconds int) int {
	m := int(math.Round(float64(initialSeconds) / 60))
	if m < 1 {
		m = 1
	}
	return m
}

// dispatchPersist submits the record on its own context: once dispatched
// the write is fire-and-forget, and leaving the session surface must not
// cancel it. Failure is logged, never retried and never rolled back — the
// session is experientially complete either way.
func (c *Controller) dispatchPersist(rec models.SessionRecord) {
	if c.recorder == nil {
		return
	}
	c.persistWG.Add(1)
	go func() {
		defer c.persistWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.persistTimeout)
		defer cancel()
		if err := c.recorder.PersistSession(ctx, rec); err != nil {
			c.logger.Warn("persist session failed",
				"meditation", rec.MeditationID, "minutes", rec.Minutes, "error", err)
		}
	}()
}

// Run drives the one-second cadence until ctx is cancelled. Each tick
// re-arms a fresh timeout, so ticks never overlap and cancellation always
// lands between ticks. Paused and completed sessions tick harmlessly.
func (c *Controller) Run(ctx context.Context) {
	t := time.NewTimer(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Tick(ctx)
			t.Reset(time.Second)
		}
	}
}

// BeginAdjust prepares for a duration change: an actively running session
// is paused first (timer and audio together), then control passes to the
// duration picker.
func (c *Controller) BeginAdjust(ctx context.Context) error {
	c.mu.Lock()
	running := c.state == models.SessionStateRunning && c.clock.Running()
	c.mu.Unlock()
	if running {
		return c.Toggle(ctx)
	}
	return nil
}

// ApplyDuration installs the duration chosen by the picker, resetting the
// countdown. Applying a duration to a completed session arms a fresh run.
func (c *Controller) ApplyDuration(seconds int) error {
	if seconds <= 0 {
		return errors.New("session: duration must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock.Reset(seconds)
	if c.state == models.SessionStateCompleted {
		c.state = models.SessionStateIdle
		c.completed = false
	}
	return nil
}

// Close tears the session down: the audio handle is released. The caller
// cancels the Run context; an in-flight persistence write continues.
func (c *Controller) Close(ctx context.Context) error {
	if c.audio == nil {
		return nil
	}
	return c.audio.Release(ctx)
}

// Wait blocks until any dispatched persistence write has finished. The CLI
// calls it before process exit so the fire-and-forget write can land.
func (c *Controller) Wait() {
	c.persistWG.Wait()
}

// State returns the current lifecycle state.
func (c *Controller) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Paused reports whether an underway session is currently paused.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == models.SessionStateRunning && !c.clock.Running()
}

// Remaining returns the seconds left on the countdown.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock.Remaining()
}

// Initial returns the configured duration in seconds.
func (c *Controller) Initial() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock.Initial()
}
