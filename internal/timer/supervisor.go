// Package timer holds the countdown schedulers used by capture sessions and
// the background supervisor that reminds the user when a session stalls.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Option configures the supervisor.
type Option func(*Supervisor)

// WithTickInterval sets how often the supervisor checks the session.
func WithTickInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.tickInterval = d
	}
}

// WithNotifyCooldown sets the minimum time between repeated reminders.
func WithNotifyCooldown(d time.Duration) Option {
	return func(s *Supervisor) {
		s.notifyCooldown = d
	}
}

// WithMaxEscalation sets the escalation level after which the supervisor stops nagging.
func WithMaxEscalation(level int) Option {
	return func(s *Supervisor) {
		s.maxEscalation = level
	}
}

// WithReminderInterval sets how long a target may stay active before the
// first reminder.
func WithReminderInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.reminderInterval = d
	}
}

// WithClock replaces the wall clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		s.now = now
	}
}

// Supervisor watches a session snapshot in the background and nudges the
// user when the active target has not changed for a while. It never ends
// the session.
type Supervisor struct {
	source           domain.SnapshotSource
	notifier         domain.Notifier
	log              *logger.Logger
	now              func() time.Time
	tickInterval     time.Duration
	notifyCooldown   time.Duration
	maxEscalation    int
	reminderInterval time.Duration

	// Tick-loop state; only touched from tick.
	target       domain.Angle
	targetSince  time.Time
	lastNotified time.Time
	level        int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a reminder supervisor with the given dependencies and options.
func New(source domain.SnapshotSource, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		source:           source,
		notifier:         notifier,
		log:              log,
		now:              time.Now,
		tickInterval:     1 * time.Second,
		notifyCooldown:   15 * time.Second,
		maxEscalation:    3,
		reminderInterval: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background supervisor loop. Non-blocking.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("reminder supervisor already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.done = make(chan struct{})

	go s.loop(childCtx, s.done)

	s.log.Info("reminder supervisor started (tick=%s, after=%s, cooldown=%s)",
		s.tickInterval, s.reminderInterval, s.notifyCooldown)
}

// Stop shuts the supervisor down and waits for the loop to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	done := s.done
	s.mu.Unlock()

	<-done
	s.log.Info("reminder supervisor stopped")
}

func (s *Supervisor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.tick(ctx) {
				return
			}
		}
	}
}

// tick runs one cycle. It returns false once the session is terminal.
func (s *Supervisor) tick(ctx context.Context) bool {
	snap := s.source.Snapshot()
	if snap.Phase.Terminal() {
		s.log.Debug("supervisor: session %s is %s, exiting", snap.ID, snap.Phase)
		return false
	}

	now := s.now()
	if snap.Current != s.target {
		s.target = snap.Current
		s.targetSince = now
		s.lastNotified = time.Time{}
		s.level = 0
		return true
	}
	if snap.Current == "" {
		return true
	}

	// The user is already holding the pose.
	if snap.Phase == domain.PhaseCountdownArmed || snap.Phase == domain.PhaseCapturing {
		return true
	}

	if now.Sub(s.targetSince) < s.reminderInterval {
		return true
	}
	if s.level >= s.maxEscalation {
		return true // Stop nagging.
	}
	if !s.lastNotified.IsZero() && now.Sub(s.lastNotified) < s.notifyCooldown {
		return true // Cooldown active.
	}

	msg := s.reminderMessage(snap)
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Error("supervisor: reminder notify: %v", err)
	}
	s.lastNotified = now
	s.level++
	return true
}

// reminderMessage returns a message based on the escalation level.
func (s *Supervisor) reminderMessage(snap domain.SessionState) string {
	angle := snap.Current
	hint := angle.Instruction()
	if !snap.DetectionSupported {
		hint = "Type 'capture' when you are facing " + string(angle)
	} else if !snap.FaceDetected {
		hint = "No face detected. Move into the frame"
	}

	switch s.level {
	case 0:
		return fmt.Sprintf("[Reminder] %s.", hint)
	case 1:
		return fmt.Sprintf("[Reminder] Still waiting on %s (%s). %s.", angle, progressLabel(snap), hint)
	default:
		return fmt.Sprintf("[Reminder] %s. Say or type 'cancel' to stop.", hint)
	}
}

func progressLabel(snap domain.SessionState) string {
	return fmt.Sprintf("%d of %d captured", snap.CompletedCount(), len(snap.Targets))
}
