package audio

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

func TestPatternCoversEveryCue(t *testing.T) {
	for _, k := range []domain.CueKind{domain.CueCountdown, domain.CueShutter, domain.CueComplete, domain.CueError} {
		if len(Pattern(k)) == 0 {
			t.Errorf("cue %d has no notes", k)
		}
	}
	if Pattern(domain.CueKind(99)) != nil {
		t.Error("expected no notes for unknown cue")
	}
}

func TestRenderLength(t *testing.T) {
	pcm := Render([]Note{{440, 100 * time.Millisecond}, {0, 50 * time.Millisecond}}, 0.5)
	want := (samples(100*time.Millisecond) + samples(50*time.Millisecond)) * 2
	if len(pcm) != want {
		t.Fatalf("len = %d, want %d", len(pcm), want)
	}
}

func TestRenderRestIsSilent(t *testing.T) {
	pcm := Render([]Note{{0, 10 * time.Millisecond}}, 1)
	for i := 0; i < len(pcm); i += 2 {
		if binary.LittleEndian.Uint16(pcm[i:]) != 0 {
			t.Fatalf("sample %d not silent", i/2)
		}
	}
}

func TestRenderRespectsVolume(t *testing.T) {
	pcm := Render([]Note{{440, 50 * time.Millisecond}}, 0.25)
	limit := int16(0.25*32767) + 1
	peak := int16(0)
	for i := 0; i < len(pcm); i += 2 {
		v := int16(binary.LittleEndian.Uint16(pcm[i:]))
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	if peak == 0 || peak > limit {
		t.Fatalf("peak %d outside (0, %d]", peak, limit)
	}
}

func TestSilent(t *testing.T) {
	Silent{}.Play(domain.CueShutter)
}
