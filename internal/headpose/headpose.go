// Package headpose holds the pure parts of the head-pose pipeline: face
// selection, crop geometry, tensor preparation and output decoding, plus
// fetching the model file. It has no cgo dependencies.
package headpose

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidPose is returned when the model output cannot be a head pose.
var ErrInvalidPose = errors.New("invalid head pose output")

// ImageNet normalisation constants, RGB order.
var (
	mean = [3]float32{0.485, 0.456, 0.406}
	std  = [3]float32{0.229, 0.224, 0.225}
)

// Pose is a head orientation in degrees.
type Pose struct {
	Yaw   float64
	Pitch float64
	Roll  float64
}

// Convention adapts a model's sign conventions to ours: yaw negative when
// the user turns left, pitch negative when the user looks up.
type Convention struct {
	FlipYaw   bool
	FlipPitch bool
}

// FirstFace picks the face to track. Detector order is kept: the first
// box wins.
func FirstFace(faces []image.Rectangle) (image.Rectangle, bool) {
	if len(faces) == 0 {
		return image.Rectangle{}, false
	}
	return faces[0], true
}

// ExpandBox grows a face box by margin (a fraction of its size) on every
// side, squares it around its centre and clamps it to bounds.
func ExpandBox(face, bounds image.Rectangle, margin float64) image.Rectangle {
	w, h := face.Dx(), face.Dy()
	side := int(math.Round(float64(max(w, h)) * (1 + 2*margin)))
	c := image.Pt(face.Min.X+w/2, face.Min.Y+h/2)

	r := image.Rect(c.X-side/2, c.Y-side/2, c.X-side/2+side, c.Y-side/2+side)
	return r.Intersect(bounds)
}

// Normalize converts a size×size BGR image (row-major, 3 bytes per pixel)
// into an RGB planar tensor normalised with ImageNet statistics.
func Normalize(bgr []byte, size int, dst []float32) error {
	plane := size * size
	if len(bgr) != plane*3 {
		return fmt.Errorf("normalize: expected %d bytes, got %d", plane*3, len(bgr))
	}
	if len(dst) != plane*3 {
		return fmt.Errorf("normalize: expected tensor of %d, got %d", plane*3, len(dst))
	}

	for i := 0; i < plane; i++ {
		px := bgr[i*3 : i*3+3]
		for c := 0; c < 3; c++ {
			v := float32(px[2-c]) / 255
			dst[c*plane+i] = (v - mean[c]) / std[c]
		}
	}
	return nil
}

// Decode reads yaw, pitch and roll (in that order, degrees) from a model
// output and applies conv.
func Decode(out []float32, conv Convention) (Pose, error) {
	if len(out) < 3 {
		return Pose{}, fmt.Errorf("%w: %d values", ErrInvalidPose, len(out))
	}
	p := Pose{Yaw: float64(out[0]), Pitch: float64(out[1]), Roll: float64(out[2])}
	for _, v := range []float64{p.Yaw, p.Pitch, p.Roll} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 180 {
			return Pose{}, fmt.Errorf("%w: %v", ErrInvalidPose, out[:3])
		}
	}
	if conv.FlipYaw {
		p.Yaw = -p.Yaw
	}
	if conv.FlipPitch {
		p.Pitch = -p.Pitch
	}
	return p, nil
}
