// Package audio plays short synthesized feedback tones through oto.
package audio

import (
	"bytes"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Output format shared by every tone.
const (
	SampleRate   = 44100
	ChannelCount = 1
)

var (
	_ domain.Cue = (*Chime)(nil)
	_ domain.Cue = Silent{}
)

// Chime plays one tone sequence per cue. A new cue interrupts the one
// still playing.
type Chime struct {
	ctx    *oto.Context
	log    *logger.Logger
	volume float64

	mu     sync.Mutex
	active *oto.Player
}

// NewChime opens the system audio device. Returns an error if no output
// device is available.
func NewChime(volume float64, log *logger.Logger) (*Chime, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	if volume <= 0 || volume > 1 {
		volume = 0.3
	}
	log.Debug("chime initialized (rate=%d, volume=%.2f)", SampleRate, volume)
	return &Chime{ctx: ctx, log: log, volume: volume}, nil
}

// Play starts the tone for kind and returns immediately.
func (c *Chime) Play(kind domain.CueKind) {
	pcm := Render(Pattern(kind), c.volume)
	if len(pcm) == 0 {
		return
	}
	go c.play(kind, pcm)
}

func (c *Chime) play(kind domain.CueKind, pcm []byte) {
	player := c.ctx.NewPlayer(bytes.NewReader(pcm))

	c.mu.Lock()
	if c.active != nil {
		c.active.Pause()
	}
	c.active = player
	c.mu.Unlock()

	player.Play()
	c.log.Debug("chime: cue %d (%d bytes)", kind, len(pcm))

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	c.mu.Lock()
	if c.active == player {
		c.active = nil
	}
	c.mu.Unlock()

	if err := player.Close(); err != nil {
		c.log.Warn("chime: close player: %v", err)
	}
}

// Stop interrupts the tone currently playing, if any.
func (c *Chime) Stop() {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active != nil {
		active.Pause()
	}
}

// Silent is the Cue used when audio is disabled or unavailable.
type Silent struct{}

// Play does nothing.
func (Silent) Play(domain.CueKind) {}
