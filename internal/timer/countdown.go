package timer

import (
	"sync"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Compile-time interface check.
var _ domain.Scheduler = (*Countdown)(nil)

// Countdown is a wall-clock Scheduler backed by time.AfterFunc. A fire that
// races a Cancel (or a re-Arm) is dropped.
type Countdown struct {
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
	log   *logger.Logger
}

// NewCountdown creates an idle countdown.
func NewCountdown(log *logger.Logger) *Countdown {
	return &Countdown{log: log}
}

// Arm schedules onFire after delay. Arming while armed is a caller error;
// the previous action is cancelled and a warning logged.
func (c *Countdown) Arm(delay time.Duration, onFire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.log.Warn("countdown: armed while already armed, replacing pending action")
		c.timer.Stop()
	}
	c.seq++
	seq := c.seq
	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.seq != seq || c.timer == nil {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()
		onFire()
	})
	c.log.Debug("countdown: armed #%d (%s)", seq, delay)
}

// Cancel drops the pending action, if any.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer == nil {
		return
	}
	c.timer.Stop()
	c.timer = nil
	c.seq++
	c.log.Debug("countdown: cancelled")
}

// Armed reports whether an action is pending.
func (c *Countdown) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}
