package domain

import "time"

// Phase tracks where a capture session is in its lifecycle.
type Phase int

const (
	PhaseAwaitingTarget Phase = iota
	PhaseMatching
	PhaseCountdownArmed
	PhaseCapturing
	PhaseFinalizing
	PhaseCancelled
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingTarget:
		return "awaiting_target"
	case PhaseMatching:
		return "matching"
	case PhaseCountdownArmed:
		return "countdown_armed"
	case PhaseCapturing:
		return "capturing"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events can change the session.
func (p Phase) Terminal() bool {
	return p == PhaseFinalizing || p == PhaseCancelled
}

// Sample is one detector reading. Roll is kept for diagnostics only;
// matching uses yaw and pitch.
type Sample struct {
	HasFace bool
	Yaw     float64
	Pitch   float64
	Roll    float64
}

// CapturedImage is a stored still for one angle.
type CapturedImage struct {
	URI   string `json:"uri"`
	Angle Angle  `json:"angle"`
}

// SessionState is the complete state of a capture session. Values are
// treated as immutable: transitions produce a new state via Clone.
type SessionState struct {
	ID                 string
	Targets            []Target
	Captured           map[Angle]CapturedImage
	Current            Angle // "" once every target is complete
	Phase              Phase
	FaceDetected       bool
	Matching           bool
	CountdownArmed     bool
	DetectionSupported bool
	CountdownSeq       uint64
	CaptureSeq         uint64
	Pending            Angle // angle of the in-flight still, if any
	LastError          string
	StartedAt          time.Time
	UpdatedAt          time.Time
}

// NewSessionState returns a fresh state with all five targets pending.
func NewSessionState(id string, detectionSupported bool, now time.Time) SessionState {
	targets := DefaultTargets()
	return SessionState{
		ID:                 id,
		Targets:            targets,
		Captured:           make(map[Angle]CapturedImage, len(targets)),
		Current:            targets[0].ID,
		Phase:              PhaseAwaitingTarget,
		DetectionSupported: detectionSupported,
		StartedAt:          now,
		UpdatedAt:          now,
	}
}

// Clone returns a deep copy.
func (s SessionState) Clone() SessionState {
	out := s
	out.Targets = append([]Target(nil), s.Targets...)
	out.Captured = make(map[Angle]CapturedImage, len(s.Captured))
	for k, v := range s.Captured {
		out.Captured[k] = v
	}
	return out
}

// Target returns the target with the given angle.
func (s SessionState) Target(a Angle) (Target, bool) {
	for _, t := range s.Targets {
		if t.ID == a {
			return t, true
		}
	}
	return Target{}, false
}

// CurrentTarget returns the active target, if any remain.
func (s SessionState) CurrentTarget() (Target, bool) {
	if s.Current == "" {
		return Target{}, false
	}
	return s.Target(s.Current)
}

// FirstIncomplete returns the first target in sequence order that is not
// complete, or "" if there is none.
func (s SessionState) FirstIncomplete() Angle {
	for _, t := range s.Targets {
		if !t.Complete {
			return t.ID
		}
	}
	return ""
}

// CompletedCount returns how many targets are complete.
func (s SessionState) CompletedCount() int {
	n := 0
	for _, t := range s.Targets {
		if t.Complete {
			n++
		}
	}
	return n
}

// Progress returns the completion percentage (0-100).
func (s SessionState) Progress() float64 {
	if len(s.Targets) == 0 {
		return 0
	}
	return 100 * float64(s.CompletedCount()) / float64(len(s.Targets))
}

// Images returns the captured images in target order.
func (s SessionState) Images() []CapturedImage {
	out := make([]CapturedImage, 0, len(s.Captured))
	for _, t := range s.Targets {
		if img, ok := s.Captured[t.ID]; ok {
			out = append(out, img)
		}
	}
	return out
}
