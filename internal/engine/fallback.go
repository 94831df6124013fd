package engine

// Fallback decides whether a session is driven by the detector or by the
// user. Automatic capture needs both a detector that runs on this platform
// and a loaded model; otherwise detection events are gated off and manual
// capture is the only path.
type Fallback struct {
	platformSupported bool
	modelLoaded       bool
	manualOverride    bool
	reason            error
}

// NewFallback builds a controller from the detector probe result. reason
// is the probe error, if any, and is reported to the user.
func NewFallback(platformSupported, modelLoaded, manualOverride bool, reason error) *Fallback {
	return &Fallback{
		platformSupported: platformSupported,
		modelLoaded:       modelLoaded,
		manualOverride:    manualOverride,
		reason:            reason,
	}
}

// AutomaticAvailable reports whether detection-driven capture can run.
func (f *Fallback) AutomaticAvailable() bool {
	return f.platformSupported && f.modelLoaded
}

// ManualEnabled reports whether ManualCapture requests are accepted.
func (f *Fallback) ManualEnabled() bool {
	return !f.AutomaticAvailable() || f.manualOverride
}

// Reason returns why automatic capture is off, or nil.
func (f *Fallback) Reason() error {
	if f.AutomaticAvailable() {
		return nil
	}
	return f.reason
}
