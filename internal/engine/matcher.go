package engine

import (
	"math"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

// Matches reports whether a yaw/pitch reading is within tolerance of the
// target. Both bounds are exclusive.
func Matches(yaw, pitch float64, t domain.Target) bool {
	return math.Abs(yaw-t.Yaw) < domain.YawTolerance &&
		math.Abs(pitch-t.Pitch) < domain.PitchTolerance
}
