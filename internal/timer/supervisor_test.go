package timer

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// mockNotifier collects notifications for testing.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	urgent   []string
}

func (m *mockNotifier) Notify(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockNotifier) NotifyUrgent(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urgent = append(m.urgent, msg)
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func (m *mockNotifier) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return ""
	}
	return m.messages[len(m.messages)-1]
}

// staticSource serves a settable snapshot.
type staticSource struct {
	mu    sync.Mutex
	state domain.SessionState
}

func (s *staticSource) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *staticSource) set(fn func(*domain.SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSupervisor(t *testing.T) (*Supervisor, *staticSource, *mockNotifier, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	src := &staticSource{state: domain.NewSessionState("s1", true, clock.Now())}
	src.set(func(s *domain.SessionState) { s.FaceDetected = true })
	n := &mockNotifier{}
	sup := New(src, n, logger.New(logger.LevelOff, nil),
		WithClock(clock.Now),
		WithReminderInterval(20*time.Second),
		WithNotifyCooldown(10*time.Second),
		WithMaxEscalation(2),
	)
	return sup, src, n, clock
}

func TestSupervisorRemindsAfterInterval(t *testing.T) {
	sup, _, n, clock := newTestSupervisor(t)
	ctx := context.Background()

	sup.tick(ctx) // observes the first target
	clock.advance(19 * time.Second)
	sup.tick(ctx)
	if n.count() != 0 {
		t.Fatalf("expected no reminder before the interval, got %d", n.count())
	}

	clock.advance(1 * time.Second)
	sup.tick(ctx)
	if n.count() != 1 {
		t.Fatalf("expected 1 reminder, got %d", n.count())
	}
	if !strings.Contains(n.last(), domain.AngleFront.Instruction()) {
		t.Fatalf("expected front instruction, got %q", n.last())
	}
}

func TestSupervisorCooldownAndEscalationCap(t *testing.T) {
	sup, _, n, clock := newTestSupervisor(t)
	ctx := context.Background()

	sup.tick(ctx)
	clock.advance(20 * time.Second)
	sup.tick(ctx) // reminder 1

	clock.advance(5 * time.Second)
	sup.tick(ctx)
	if n.count() != 1 {
		t.Fatalf("expected cooldown to suppress reminder, got %d", n.count())
	}

	clock.advance(5 * time.Second)
	sup.tick(ctx) // reminder 2
	if n.count() != 2 {
		t.Fatalf("expected 2 reminders, got %d", n.count())
	}

	clock.advance(time.Minute)
	sup.tick(ctx)
	if n.count() != 2 {
		t.Fatalf("expected escalation cap at 2, got %d", n.count())
	}
}

func TestSupervisorResetsOnTargetChange(t *testing.T) {
	sup, src, n, clock := newTestSupervisor(t)
	ctx := context.Background()

	sup.tick(ctx)
	clock.advance(20 * time.Second)
	sup.tick(ctx)
	if n.count() != 1 {
		t.Fatalf("expected 1 reminder, got %d", n.count())
	}

	src.set(func(s *domain.SessionState) {
		s.Targets[0].Complete = true
		s.Current = domain.AngleLeft
	})
	sup.tick(ctx)
	clock.advance(10 * time.Second)
	sup.tick(ctx)
	if n.count() != 1 {
		t.Fatalf("expected timer to restart on new target, got %d", n.count())
	}

	clock.advance(10 * time.Second)
	sup.tick(ctx)
	if n.count() != 2 {
		t.Fatalf("expected reminder for left, got %d", n.count())
	}
	if !strings.Contains(n.last(), domain.AngleLeft.Instruction()) {
		t.Fatalf("expected left instruction, got %q", n.last())
	}
}

func TestSupervisorQuietWhileHolding(t *testing.T) {
	sup, src, n, clock := newTestSupervisor(t)
	ctx := context.Background()

	sup.tick(ctx)
	src.set(func(s *domain.SessionState) { s.Phase = domain.PhaseCountdownArmed })
	clock.advance(time.Minute)
	sup.tick(ctx)
	if n.count() != 0 {
		t.Fatalf("expected no reminder while countdown armed, got %d", n.count())
	}
}

func TestSupervisorFallbackMessage(t *testing.T) {
	sup, src, n, clock := newTestSupervisor(t)
	src.set(func(s *domain.SessionState) { s.DetectionSupported = false })
	ctx := context.Background()

	sup.tick(ctx)
	clock.advance(20 * time.Second)
	sup.tick(ctx)
	if !strings.Contains(n.last(), "capture") {
		t.Fatalf("expected manual capture hint, got %q", n.last())
	}
}

func TestSupervisorExitsWhenTerminal(t *testing.T) {
	sup, src, _, _ := newTestSupervisor(t)
	src.set(func(s *domain.SessionState) { s.Phase = domain.PhaseCancelled })

	if sup.tick(context.Background()) {
		t.Fatal("expected tick to report terminal session")
	}
}

func TestSupervisorStartStop(t *testing.T) {
	src := &staticSource{state: domain.NewSessionState("s1", true, time.Now())}
	sup := New(src, &mockNotifier{}, logger.New(logger.LevelOff, nil), WithTickInterval(10*time.Millisecond))

	sup.Start(context.Background())
	sup.Start(context.Background()) // no-op
	time.Sleep(30 * time.Millisecond)
	sup.Stop()
	sup.Stop() // no-op
}
