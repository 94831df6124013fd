// Package engine implements the guided multi-angle face capture state
// machine: a pure reducer over SessionState and the Session driver that
// executes its effects.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
	"github.com/hammamikhairi/facecapture/internal/timer"
)

// Option configures the engine.
type Option func(*Engine)

// WithScheduler makes every session use the given scheduler instead of a
// wall-clock countdown. Used with timer.Virtual in tests.
func WithScheduler(fn func() domain.Scheduler) Option {
	return func(e *Engine) {
		e.newScheduler = fn
	}
}

// WithNotifier sets where user-facing notices go.
func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithCue sets the audible feedback player.
func WithCue(c domain.Cue) Option {
	return func(e *Engine) {
		e.cue = c
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine creates capture sessions and manages stored face records. It
// depends only on interfaces and is fully testable with fakes.
type Engine struct {
	store        domain.RecordStore
	log          *logger.Logger
	newScheduler func() domain.Scheduler
	notifier     domain.Notifier
	cue          domain.Cue
	now          func() time.Time
}

// New creates an engine with the given dependencies and options.
func New(store domain.RecordStore, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		log:      log,
		notifier: nopNotifier{},
		cue:      nopCue{},
		now:      time.Now,
	}
	e.newScheduler = func() domain.Scheduler { return timer.NewCountdown(log) }
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartSession creates a session with five fresh targets that takes its
// stills from camera. The session is idle until Run is called.
func (e *Engine) StartSession(camera domain.Camera, subject string, fallback *Fallback) *Session {
	id := generateID()
	s := &Session{
		id:       id,
		subject:  subject,
		camera:   camera,
		store:    e.store,
		sched:    e.newScheduler(),
		fallback: fallback,
		notifier: e.notifier,
		cue:      e.cue,
		log:      e.log,
		now:      e.now,
		events:   make(chan envelope, eventBuffer),
		done:     make(chan struct{}),
	}
	state := domain.NewSessionState(id, fallback.AutomaticAvailable(), e.now())
	s.snap.Store(&state)

	e.log.Debug("created session %s for %q", id, subject)
	return s
}

// ListRecords returns every stored face record.
func (e *Engine) ListRecords(ctx context.Context) ([]*domain.FaceRecord, error) {
	recs, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return recs, nil
}

// GetRecord returns a stored record by id.
func (e *Engine) GetRecord(ctx context.Context, id string) (*domain.FaceRecord, error) {
	rec, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading record: %w", err)
	}
	return rec, nil
}

// DeleteRecord removes a stored record.
func (e *Engine) DeleteRecord(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	e.log.Info("deleted record %s", id)
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) error       { return nil }
func (nopNotifier) NotifyUrgent(context.Context, string) error { return nil }

type nopCue struct{}

func (nopCue) Play(domain.CueKind) {}
