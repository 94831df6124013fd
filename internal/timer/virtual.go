package timer

import (
	"sync"
	"time"

	"github.com/hammamikhairi/facecapture/internal/domain"
)

// Compile-time interface check.
var _ domain.Scheduler = (*Virtual)(nil)

// Virtual is a Scheduler driven by simulated time. Nothing fires until
// Advance moves the clock past the deadline; callbacks run on the caller
// of Advance.
type Virtual struct {
	mu       sync.Mutex
	now      time.Duration
	deadline time.Duration
	onFire   func()
	fired    int
}

// NewVirtual creates a virtual scheduler at time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Arm schedules onFire delay from the current virtual time, replacing any
// pending action.
func (v *Virtual) Arm(delay time.Duration, onFire func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deadline = v.now + delay
	v.onFire = onFire
}

// Cancel drops the pending action, if any.
func (v *Virtual) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onFire = nil
}

// Armed reports whether an action is pending.
func (v *Virtual) Armed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.onFire != nil
}

// Advance moves virtual time forward by d and runs the pending action if
// its deadline has been reached. The callback may re-arm.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	v.now += d
	fn := v.onFire
	if fn == nil || v.now < v.deadline {
		v.mu.Unlock()
		return
	}
	v.onFire = nil
	v.fired++
	v.mu.Unlock()

	fn()
}

// Now returns the elapsed virtual time.
func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Fired returns how many actions have run.
func (v *Virtual) Fired() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fired
}
