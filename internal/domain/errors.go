package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrDetectorUnavailable    = errors.New("face detector unavailable")
	ErrCameraPermissionDenied = errors.New("camera permission denied")
	ErrCaptureFailed          = errors.New("capture failed")
	ErrNoImagesAtFinalization = errors.New("finalized without a full image set")
	ErrSessionTerminal        = errors.New("capture session has ended")
	ErrNotActiveTarget        = errors.New("angle is not the active target")
	ErrManualCaptureDisabled  = errors.New("manual capture is disabled while detection works")
	ErrCaptureInProgress      = errors.New("a capture is already in progress")
)
