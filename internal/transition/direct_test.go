package transition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInstantTransition(t *testing.T) {
	// GIVEN
	transition := InstantTransition{}

	// WHEN
	step := transition.Step(80, 20)

	// THEN
	assert.Equal(t, 60.0, step)
}

func TestDirectTransitionLimitsStep(t *testing.T) {
	// GIVEN
	transition := NewDirectTransition(10)
	transition.lastTime = time.Now().Add(-1 * time.Second)

	// WHEN
	step := transition.Step(80, 20)

	// THEN
	// at most one second worth of change (plus scheduling slack)
	assert.LessOrEqual(t, step, 11.0)
	assert.Greater(t, step, 9.0)
}

func TestDirectTransitionCapsAtTarget(t *testing.T) {
	// GIVEN
	transition := NewDirectTransition(10)
	transition.lastTime = time.Now().Add(-1 * time.Second)

	// WHEN
	step := transition.Step(22, 20)

	// THEN
	assert.Equal(t, 2.0, step)
}

func TestDirectTransitionStepsDownward(t *testing.T) {
	// GIVEN
	transition := NewDirectTransition(10)
	transition.lastTime = time.Now().Add(-1 * time.Second)

	// WHEN
	step := transition.Step(20, 80)

	// THEN
	assert.GreaterOrEqual(t, step, -11.0)
	assert.Less(t, step, -9.0)
}

func TestDirectTransitionAtTarget(t *testing.T) {
	// GIVEN
	transition := NewDirectTransition(10)
	transition.lastTime = time.Now().Add(-1 * time.Second)

	// WHEN
	step := transition.Step(50, 50)

	// THEN
	assert.Equal(t, 0.0, step)
}
