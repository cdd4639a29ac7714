package transition

import (
	"time"

	"github.com/brightless/brightless/internal/util"
)

// DirectTransition gracefully approaches the target value by limiting the
// change per second. The limit is time based, so slow cycles (f.ex. while
// a DDC/CI write blocks) do not slow the transition down.
type DirectTransition struct {
	// limits the maximum allowed change per second
	maxChangePerSecond float64
	lastTime           time.Time
}

func NewDirectTransition(maxChangePerSecond float64) *DirectTransition {
	return &DirectTransition{
		maxChangePerSecond: maxChangePerSecond,
		lastTime:           time.Now(),
	}
}

func (t *DirectTransition) Step(target float64, measured float64) float64 {
	stepTime := time.Now()
	dt := stepTime.Sub(t.lastTime).Seconds()
	t.lastTime = stepTime

	// the adjustment depends on the direction and the time-based
	// change speed limit.
	maxChangeThisStep := t.maxChangePerSecond * dt
	err := target - measured
	// we can be above or below the target value, so we subtract or add
	// at most the max change, capped to having reached the target
	if err > 0 {
		return util.Coerce(maxChangeThisStep, 0, err)
	} else {
		return util.Coerce(-maxChangeThisStep, err, 0)
	}
}
