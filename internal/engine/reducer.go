package engine

import (
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

// Event is an input to the session state machine.
type Event interface{ isEvent() }

// Detection carries one detector reading.
type Detection struct{ Sample domain.Sample }

// CountdownFired is posted by the scheduler when a hold-still window ends.
// Seq is the CountdownSeq the countdown was armed with.
type CountdownFired struct{ Seq uint64 }

// CaptureDone reports the result of a still request.
type CaptureDone struct {
	Seq   uint64
	Angle domain.Angle
	URI   string
	Err   error
}

// ManualCapture asks for an immediate still of the given angle.
type ManualCapture struct{ Angle domain.Angle }

// Cancel abandons the session.
type Cancel struct{}

func (Detection) isEvent()      {}
func (CountdownFired) isEvent() {}
func (CaptureDone) isEvent()    {}
func (ManualCapture) isEvent()  {}
func (Cancel) isEvent()         {}

// Effect is work the driver performs after a transition.
type Effect interface{ isEffect() }

// ArmCountdown starts the hold-still window.
type ArmCountdown struct {
	Seq   uint64
	Delay time.Duration
}

// CancelCountdown drops a pending hold-still window.
type CancelCountdown struct{}

// RequestStill asks the camera for a still of Angle. Seq must be echoed
// back in CaptureDone.
type RequestStill struct {
	Angle domain.Angle
	Seq   uint64
}

// Finalize hands the complete image set to the record store.
type Finalize struct{ Images []domain.CapturedImage }

// ReportCaptureFailure surfaces a recoverable capture error to the user.
type ReportCaptureFailure struct {
	Angle domain.Angle
	Err   error
}

// Discard releases stills that will never be handed off.
type Discard struct{ URIs []string }

// PlayCue requests audible feedback.
type PlayCue struct{ Kind domain.CueKind }

// Reject refuses a request event.
type Reject struct{ Err error }

func (ArmCountdown) isEffect()         {}
func (CancelCountdown) isEffect()      {}
func (RequestStill) isEffect()         {}
func (Finalize) isEffect()             {}
func (ReportCaptureFailure) isEffect() {}
func (Discard) isEffect()              {}
func (PlayCue) isEffect()              {}
func (Reject) isEffect()               {}

// Reduce applies ev to s and returns the next state together with the
// effects to execute. It never mutates s.
func Reduce(s domain.SessionState, ev Event) (domain.SessionState, []Effect) {
	switch ev := ev.(type) {
	case Detection:
		return reduceDetection(s, ev.Sample)
	case CountdownFired:
		return reduceCountdownFired(s, ev)
	case CaptureDone:
		return reduceCaptureDone(s, ev)
	case ManualCapture:
		return reduceManual(s, ev)
	case Cancel:
		return reduceCancel(s)
	default:
		return s, nil
	}
}

func reduceDetection(s domain.SessionState, sample domain.Sample) (domain.SessionState, []Effect) {
	if s.Phase.Terminal() || s.Phase == domain.PhaseCapturing || !s.DetectionSupported {
		return s, nil
	}
	target, ok := s.CurrentTarget()
	if !ok || target.Complete {
		return s, nil
	}

	next := s.Clone()
	var effects []Effect

	if !sample.HasFace {
		next.FaceDetected = false
		next.Matching = false
		effects = disarm(&next, effects)
		next.Phase = domain.PhaseAwaitingTarget
		return next, effects
	}

	next.FaceDetected = true
	if !Matches(sample.Yaw, sample.Pitch, target) {
		next.Matching = false
		effects = disarm(&next, effects)
		next.Phase = domain.PhaseMatching
		return next, effects
	}

	next.Matching = true
	if next.CountdownArmed {
		return next, nil
	}
	next.CountdownSeq++
	next.CountdownArmed = true
	next.Phase = domain.PhaseCountdownArmed
	return next, append(effects,
		ArmCountdown{Seq: next.CountdownSeq, Delay: domain.CaptureDelay},
		PlayCue{Kind: domain.CueCountdown},
	)
}

// disarm clears an armed countdown and records the cancellation.
func disarm(s *domain.SessionState, effects []Effect) []Effect {
	if !s.CountdownArmed {
		return effects
	}
	s.CountdownArmed = false
	return append(effects, CancelCountdown{})
}

func reduceCountdownFired(s domain.SessionState, ev CountdownFired) (domain.SessionState, []Effect) {
	if s.Phase.Terminal() || !s.CountdownArmed || ev.Seq != s.CountdownSeq {
		return s, nil
	}
	target, ok := s.CurrentTarget()
	if !ok || target.Complete {
		return s, nil
	}

	next := s.Clone()
	next.CountdownArmed = false
	return beginCapture(next, target.ID, nil)
}

func reduceManual(s domain.SessionState, ev ManualCapture) (domain.SessionState, []Effect) {
	switch {
	case s.Phase.Terminal():
		return s, []Effect{Reject{Err: domain.ErrSessionTerminal}}
	case s.Phase == domain.PhaseCapturing:
		return s, []Effect{Reject{Err: domain.ErrCaptureInProgress}}
	case ev.Angle != s.Current:
		return s, []Effect{Reject{Err: domain.ErrNotActiveTarget}}
	}

	next := s.Clone()
	effects := disarm(&next, nil)
	return beginCapture(next, ev.Angle, effects)
}

func beginCapture(next domain.SessionState, angle domain.Angle, effects []Effect) (domain.SessionState, []Effect) {
	next.Phase = domain.PhaseCapturing
	next.CaptureSeq++
	next.Pending = angle
	return next, append(effects, RequestStill{Angle: angle, Seq: next.CaptureSeq})
}

func reduceCaptureDone(s domain.SessionState, ev CaptureDone) (domain.SessionState, []Effect) {
	stale := s.Phase != domain.PhaseCapturing || ev.Seq != s.CaptureSeq || ev.Angle != s.Pending
	if stale {
		if ev.Err == nil && ev.URI != "" {
			return s, []Effect{Discard{URIs: []string{ev.URI}}}
		}
		return s, nil
	}

	next := s.Clone()
	next.Pending = ""
	next.Matching = false
	next.CountdownArmed = false

	if ev.Err != nil {
		next.Phase = domain.PhaseAwaitingTarget
		next.LastError = ev.Err.Error()
		return next, []Effect{
			ReportCaptureFailure{Angle: ev.Angle, Err: ev.Err},
			PlayCue{Kind: domain.CueError},
		}
	}

	next.Captured[ev.Angle] = domain.CapturedImage{URI: ev.URI, Angle: ev.Angle}
	for i := range next.Targets {
		if next.Targets[i].ID == ev.Angle {
			next.Targets[i].Complete = true
		}
	}
	next.LastError = ""
	next.Current = next.FirstIncomplete()

	effects := []Effect{PlayCue{Kind: domain.CueShutter}}
	if next.Current != "" {
		next.Phase = domain.PhaseAwaitingTarget
		return next, effects
	}

	next.Phase = domain.PhaseFinalizing
	return next, append(effects,
		Finalize{Images: next.Images()},
		PlayCue{Kind: domain.CueComplete},
	)
}

func reduceCancel(s domain.SessionState) (domain.SessionState, []Effect) {
	if s.Phase.Terminal() {
		return s, nil
	}

	next := s.Clone()
	effects := disarm(&next, nil)

	var uris []string
	for _, img := range s.Images() {
		uris = append(uris, img.URI)
	}
	if len(uris) > 0 {
		effects = append(effects, Discard{URIs: uris})
	}

	next.Captured = make(map[domain.Angle]domain.CapturedImage)
	for i := range next.Targets {
		next.Targets[i].Complete = false
	}
	next.Pending = ""
	next.Matching = false
	next.Phase = domain.PhaseCancelled
	return next, effects
}
