package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// eventBuffer bounds the number of queued events. Detection samples that
// do not fit are dropped.
const eventBuffer = 8

// Outcome is how a session ended.
type Outcome struct {
	Phase  domain.Phase
	Record *domain.FaceRecord // set when Phase is Finalizing and the save succeeded
	Err    error
}

// Remover is implemented by cameras that can delete stills they produced.
type Remover interface {
	Remove(uri string) error
}

type envelope struct {
	ev    Event
	reply chan error
}

// Session drives one capture session. All state transitions happen on the
// goroutine running Run; other methods only post events or read the
// published snapshot.
type Session struct {
	id       string
	subject  string
	camera   domain.Camera
	store    domain.RecordStore
	sched    domain.Scheduler
	fallback *Fallback
	notifier domain.Notifier
	cue      domain.Cue
	log      *logger.Logger
	now      func() time.Time

	events  chan envelope
	done    chan struct{}
	snap    atomic.Pointer[domain.SessionState]
	dropped atomic.Uint64
	running atomic.Bool
	stills  sync.WaitGroup
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Snapshot returns the latest published state.
func (s *Session) Snapshot() domain.SessionState {
	return *s.snap.Load()
}

// Fallback returns the controller deciding automatic vs manual capture.
func (s *Session) Fallback() *Fallback { return s.fallback }

// Dropped returns how many detection samples were dropped because the
// session was busy.
func (s *Session) Dropped() uint64 { return s.dropped.Load() }

// Done is closed once the session reaches a terminal phase.
func (s *Session) Done() <-chan struct{} { return s.done }

// Detect submits a detector sample. It never blocks: if the session is
// busy the sample is dropped and false is returned. Samples are gated off
// entirely in fallback mode.
func (s *Session) Detect(sample domain.Sample) bool {
	if !s.fallback.AutomaticAvailable() {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- envelope{ev: Detection{Sample: sample}}:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// ManualCapture requests an immediate still of angle, bypassing
// orientation matching. It returns once the request has been accepted or
// rejected, not when the still is taken.
func (s *Session) ManualCapture(ctx context.Context, angle domain.Angle) error {
	if !s.fallback.ManualEnabled() {
		return domain.ErrManualCaptureDisabled
	}
	reply := make(chan error, 1)
	if !s.post(ctx, envelope{ev: ManualCapture{Angle: angle}, reply: reply}) {
		return domain.ErrSessionTerminal
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrSessionTerminal
	}
}

// Cancel abandons the session. Safe to call in any phase.
func (s *Session) Cancel() {
	s.post(context.Background(), envelope{ev: Cancel{}})
}

// post delivers an event, blocking until there is room. It returns false
// if the session has ended.
func (s *Session) post(ctx context.Context, env envelope) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- env:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Run processes events until the session is terminal or ctx ends. A
// cancelled context cancels the session. Run may be called once.
func (s *Session) Run(ctx context.Context) Outcome {
	if !s.running.CompareAndSwap(false, true) {
		return Outcome{Phase: s.Snapshot().Phase, Err: errors.New("session already running")}
	}

	s.announce(ctx)

	var out Outcome
	for {
		var env envelope
		select {
		case env = <-s.events:
		case <-ctx.Done():
			env = envelope{ev: Cancel{}}
		}

		out = s.apply(ctx, env)
		if s.Snapshot().Phase.Terminal() {
			break
		}
	}

	s.sched.Cancel()
	close(s.done)
	s.stills.Wait()
	s.drain()

	s.log.Info("session %s ended: %s", s.id, out.Phase)
	return out
}

// announce reports the capture mode once at the start.
func (s *Session) announce(ctx context.Context) {
	if s.fallback.AutomaticAvailable() {
		s.log.Info("session %s started (automatic capture)", s.id)
		return
	}
	reason := s.fallback.Reason()
	s.log.Warn("session %s started in manual mode: %v", s.id, reason)
	msg := "Automatic face detection is unavailable. Type 'capture' when you are in position."
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Error("notifying fallback: %v", err)
	}
}

// apply runs one event through the reducer, executes its effects, then
// publishes the new state.
func (s *Session) apply(ctx context.Context, env envelope) Outcome {
	prev := s.Snapshot()
	next, effects := Reduce(prev, env.ev)
	if next.Phase != prev.Phase {
		s.log.Debug("session %s: %s -> %s", s.id, prev.Phase, next.Phase)
	}

	out := Outcome{Phase: next.Phase}
	var rejected error
	for _, eff := range effects {
		switch eff := eff.(type) {
		case ArmCountdown:
			seq := eff.Seq
			s.sched.Arm(eff.Delay, func() {
				s.post(context.Background(), envelope{ev: CountdownFired{Seq: seq}})
			})
		case CancelCountdown:
			s.sched.Cancel()
		case RequestStill:
			s.requestStill(ctx, eff)
		case Finalize:
			rec, err := s.finalize(ctx, eff.Images)
			out.Record, out.Err = rec, err
			if err != nil {
				next.LastError = err.Error()
			}
		case ReportCaptureFailure:
			s.log.Warn("capture of %s failed: %v", eff.Angle, eff.Err)
			msg := fmt.Sprintf("Capture failed for %s. Hold the pose and try again.", eff.Angle)
			if err := s.notifier.NotifyUrgent(ctx, msg); err != nil {
				s.log.Error("notifying capture failure: %v", err)
			}
		case Discard:
			s.discard(eff.URIs)
		case PlayCue:
			s.cue.Play(eff.Kind)
		case Reject:
			rejected = eff.Err
		}
	}

	if env.reply != nil {
		env.reply <- rejected
	}

	next.UpdatedAt = s.now()
	s.snap.Store(&next)
	return out
}

// requestStill takes the still off the event loop and posts the result.
func (s *Session) requestStill(ctx context.Context, req RequestStill) {
	s.stills.Add(1)
	go func() {
		defer s.stills.Done()

		uri, err := s.camera.Still(ctx)
		if err != nil && !errors.Is(err, domain.ErrCaptureFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrCaptureFailed, err)
		}
		if err == nil {
			s.log.Debug("still for %s stored at %s", req.Angle, uri)
		}

		done := CaptureDone{Seq: req.Seq, Angle: req.Angle, URI: uri, Err: err}
		if !s.post(context.Background(), envelope{ev: done}) && err == nil {
			s.discard([]string{uri})
		}
	}()
}

// drain settles events queued after the session ended: late stills are
// discarded and pending requests rejected.
func (s *Session) drain() {
	for {
		select {
		case env := <-s.events:
			if done, ok := env.ev.(CaptureDone); ok && done.Err == nil && done.URI != "" {
				s.discard([]string{done.URI})
			}
			if env.reply != nil {
				env.reply <- domain.ErrSessionTerminal
			}
		default:
			return
		}
	}
}

func (s *Session) finalize(ctx context.Context, images []domain.CapturedImage) (*domain.FaceRecord, error) {
	rec := &domain.FaceRecord{
		ID:        generateID(),
		SessionID: s.id,
		Subject:   s.subject,
		Images:    images,
		CreatedAt: s.now(),
	}
	if !rec.Complete() {
		s.log.Error("session %s finalized with %d images", s.id, len(images))
		return nil, fmt.Errorf("finalizing session %s: %w", s.id, domain.ErrNoImagesAtFinalization)
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.log.Error("saving record %s: %v", rec.ID, err)
		return nil, fmt.Errorf("saving record: %w", err)
	}
	s.log.Info("record %s saved with %d images", rec.ID, len(rec.Images))
	return rec, nil
}

func (s *Session) discard(uris []string) {
	rm, ok := s.camera.(Remover)
	if !ok {
		return
	}
	for _, uri := range uris {
		if err := rm.Remove(uri); err != nil {
			s.log.Warn("discarding %s: %v", uri, err)
		}
	}
}
