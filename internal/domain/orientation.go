package domain

import "time"

// Angle identifies one of the fixed head orientations a session collects.
type Angle string

const (
	AngleFront Angle = "front"
	AngleLeft  Angle = "left"
	AngleRight Angle = "right"
	AngleUp    Angle = "up"
	AngleDown  Angle = "down"
)

// Matching tolerances, in degrees. A sample exactly at the tolerance does
// not match.
const (
	YawTolerance   = 10.0
	PitchTolerance = 10.0
)

// CaptureDelay is the hold-still window between an orientation match and
// the automatic capture.
const CaptureDelay = 1000 * time.Millisecond

// Target is an orientation the user must approximate.
type Target struct {
	ID       Angle
	Yaw      float64 // degrees, negative = left
	Pitch    float64 // degrees, negative = up
	Complete bool
}

// DefaultTargets returns a fresh copy of the ordered target list.
func DefaultTargets() []Target {
	return []Target{
		{ID: AngleFront, Yaw: 0, Pitch: 0},
		{ID: AngleLeft, Yaw: -30, Pitch: 0},
		{ID: AngleRight, Yaw: 30, Pitch: 0},
		{ID: AngleUp, Yaw: 0, Pitch: -15},
		{ID: AngleDown, Yaw: 0, Pitch: 15},
	}
}

// Angles returns the angle ids in target order.
func Angles() []Angle {
	ts := DefaultTargets()
	out := make([]Angle, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

// ParseAngle maps a user-supplied string to a known angle.
func ParseAngle(s string) (Angle, bool) {
	for _, a := range Angles() {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// Instruction returns the prompt shown while the user's face does not yet
// match the angle.
func (a Angle) Instruction() string {
	switch a {
	case AngleFront:
		return "Look straight at the camera"
	case AngleLeft:
		return "Turn your head slowly to the left"
	case AngleRight:
		return "Turn your head slowly to the right"
	case AngleUp:
		return "Tilt your head up slightly"
	case AngleDown:
		return "Tilt your head down slightly"
	default:
		return "Position your face in the frame"
	}
}
