package display

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

// StatusText is the main line shown under the preview.
func StatusText(s domain.SessionState) string {
	switch s.Phase {
	case domain.PhaseFinalizing:
		return "All angles captured"
	case domain.PhaseCancelled:
		return "Capture cancelled"
	case domain.PhaseCapturing:
		return "Capturing..."
	}
	if s.Current == "" {
		return ""
	}
	if !s.DetectionSupported {
		return fmt.Sprintf("%s, then type 'capture'", s.Current.Instruction())
	}

	switch {
	case !s.FaceDetected:
		return "No face detected"
	case !s.Matching:
		return s.Current.Instruction()
	case s.CountdownArmed:
		return "Hold still"
	}
	return ""
}

// CountdownText is shown while the hold-still window runs.
func CountdownText(s domain.SessionState) string {
	if s.CountdownArmed {
		return "Capturing in..."
	}
	return ""
}

// ProgressText summarises completion, e.g. "2 of 5 captured".
func ProgressText(s domain.SessionState) string {
	return fmt.Sprintf("%d of %d captured", s.CompletedCount(), len(s.Targets))
}

// DroppedText reports detector samples skipped while the session was busy.
func DroppedText(n uint64) string {
	if n == 1 {
		return "1 detector sample skipped while busy"
	}
	return fmt.Sprintf("%d detector samples skipped while busy", n)
}

// Marker glyphs for the per-angle strip.
const (
	markDone    = "✓"
	markActive  = "●"
	markPending = "○"
)

// Markers renders one glyph and label per angle in target order.
func Markers(s domain.SessionState) string {
	parts := make([]string, 0, len(s.Targets))
	for _, t := range s.Targets {
		mark := markPending
		switch {
		case t.Complete:
			mark = markDone
		case t.ID == s.Current:
			mark = markActive
		}
		parts = append(parts, mark+" "+string(t.ID))
	}
	return strings.Join(parts, "  ")
}

// ProgressBar renders a fixed-width bar for the completion percentage.
func ProgressBar(s domain.SessionState, width int) string {
	if width < 1 {
		width = 1
	}
	filled := int(s.Progress() / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
