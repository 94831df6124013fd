package headpose

import (
	"errors"
	"image"
	"math"
	"testing"
)

func TestFirstFace(t *testing.T) {
	if _, ok := FirstFace(nil); ok {
		t.Fatal("expected no face")
	}
	a := image.Rect(10, 10, 50, 50)
	b := image.Rect(100, 100, 300, 300)
	got, ok := FirstFace([]image.Rectangle{a, b})
	if !ok || got != a {
		t.Fatalf("expected the first box, got %v", got)
	}
}

func TestExpandBox(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)

	tests := []struct {
		name string
		face image.Rectangle
		want image.Rectangle
	}{
		{"centred", image.Rect(300, 200, 340, 240), image.Rect(300, 200, 340, 240).Inset(-10)},
		{"clamped at origin", image.Rect(0, 0, 40, 40), image.Rect(0, 0, 50, 50)},
		{"wide box squared", image.Rect(100, 100, 140, 120), image.Rect(90, 80, 150, 140)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandBox(tt.face, bounds, 0.25); got != tt.want {
				t.Fatalf("ExpandBox = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	// 1x1 pixel, pure red in BGR.
	bgr := []byte{0, 0, 255}
	dst := make([]float32, 3)
	if err := Normalize(bgr, 1, dst); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := []float32{
		(1 - 0.485) / 0.229,
		(0 - 0.456) / 0.224,
		(0 - 0.406) / 0.225,
	}
	for i := range want {
		if math.Abs(float64(dst[i]-want[i])) > 1e-5 {
			t.Fatalf("channel %d: got %v, want %v", i, dst[i], want[i])
		}
	}

	if err := Normalize(bgr, 2, make([]float32, 12)); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestNormalizeIsPlanar(t *testing.T) {
	// 2x2 image; pixel 3 is white, the rest black.
	bgr := make([]byte, 12)
	bgr[9], bgr[10], bgr[11] = 255, 255, 255
	dst := make([]float32, 12)
	if err := Normalize(bgr, 2, dst); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for c := 0; c < 3; c++ {
		white := (1 - mean[c]) / std[c]
		if got := dst[c*4+3]; math.Abs(float64(got-white)) > 1e-5 {
			t.Fatalf("channel %d pixel 3: got %v, want %v", c, got, white)
		}
	}
}

func TestDecode(t *testing.T) {
	p, err := Decode([]float32{-25, 5, 2, 99}, Convention{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Yaw != -25 || p.Pitch != 5 || p.Roll != 2 {
		t.Fatalf("unexpected pose %+v", p)
	}

	p, _ = Decode([]float32{-25, 5, 2}, Convention{FlipYaw: true, FlipPitch: true})
	if p.Yaw != 25 || p.Pitch != -5 || p.Roll != 2 {
		t.Fatalf("unexpected flipped pose %+v", p)
	}

	bad := [][]float32{
		{1, 2},
		{float32(math.NaN()), 0, 0},
		{0, 200, 0},
	}
	for _, out := range bad {
		if _, err := Decode(out, Convention{}); !errors.Is(err, ErrInvalidPose) {
			t.Fatalf("Decode(%v): expected ErrInvalidPose, got %v", out, err)
		}
	}
}
