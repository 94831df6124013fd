package audio

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

// Note is a single sine tone. A zero frequency is a rest.
type Note struct {
	Freq float64
	Dur  time.Duration
}

// Pattern returns the notes played for a cue.
func Pattern(kind domain.CueKind) []Note {
	switch kind {
	case domain.CueCountdown:
		return []Note{{880, 60 * time.Millisecond}}
	case domain.CueShutter:
		return []Note{{1320, 30 * time.Millisecond}, {0, 20 * time.Millisecond}, {990, 40 * time.Millisecond}}
	case domain.CueComplete:
		return []Note{{523.25, 120 * time.Millisecond}, {659.25, 120 * time.Millisecond}, {783.99, 220 * time.Millisecond}}
	case domain.CueError:
		return []Note{{220, 180 * time.Millisecond}, {0, 60 * time.Millisecond}, {196, 220 * time.Millisecond}}
	}
	return nil
}

// fade is the attack and release length applied to every note, to avoid
// clicks at the edges.
const fade = 5 * time.Millisecond

// Render synthesizes notes as signed 16-bit little-endian mono PCM.
func Render(notes []Note, volume float64) []byte {
	total := 0
	for _, n := range notes {
		total += samples(n.Dur)
	}
	out := make([]byte, 0, total*2)

	ramp := samples(fade)
	for _, n := range notes {
		count := samples(n.Dur)
		for i := 0; i < count; i++ {
			var v float64
			if n.Freq > 0 {
				v = math.Sin(2*math.Pi*n.Freq*float64(i)/SampleRate) * volume
				if i < ramp {
					v *= float64(i) / float64(ramp)
				} else if rem := count - i; rem < ramp {
					v *= float64(rem) / float64(ramp)
				}
			}
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(v*math.MaxInt16)))
		}
	}
	return out
}

func samples(d time.Duration) int {
	return int(d.Seconds() * SampleRate)
}
