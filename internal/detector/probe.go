// Package detector estimates head pose from camera frames: a gocv cascade
// finds the face and an ONNX head-pose model reads its orientation.
package detector

import (
	"fmt"
	"os"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

// Config holds asset paths and tuning for the head-pose detector.
type Config struct {
	OnnxLib   string // e.g. "bin/libonnxruntime.so"
	Model     string // e.g. "models/headpose.onnx"
	Cascade   string // e.g. "models/haarcascade_frontalface_default.xml"
	InputSize int    // model input side in pixels (default 224)
	Margin    float64
	FlipYaw   bool
	FlipPitch bool
	MinFace   int // smallest face side in pixels (default 80)
}

func (c *Config) defaults() {
	if c.InputSize <= 0 {
		c.InputSize = 224
	}
	if c.Margin <= 0 {
		c.Margin = 0.2
	}
	if c.MinFace <= 0 {
		c.MinFace = 80
	}
}

// Status is what the probe found.
type Status struct {
	PlatformSupported bool // ONNX runtime library present
	ModelLoaded       bool // model and cascade present
}

// Probe checks the assets the detector needs without loading them. Any
// missing piece is reported wrapped in ErrDetectorUnavailable.
func Probe(cfg Config) (Status, error) {
	var st Status
	if cfg.OnnxLib == "" {
		return st, fmt.Errorf("%w: no onnx runtime library configured", domain.ErrDetectorUnavailable)
	}
	if _, err := os.Stat(cfg.OnnxLib); err != nil {
		return st, fmt.Errorf("%w: onnx runtime library %s: %v", domain.ErrDetectorUnavailable, cfg.OnnxLib, err)
	}
	st.PlatformSupported = true

	for _, p := range []string{cfg.Model, cfg.Cascade} {
		if p == "" {
			return st, fmt.Errorf("%w: model asset not configured", domain.ErrDetectorUnavailable)
		}
		if _, err := os.Stat(p); err != nil {
			return st, fmt.Errorf("%w: model asset %s: %v", domain.ErrDetectorUnavailable, p, err)
		}
	}
	st.ModelLoaded = true
	return st, nil
}
