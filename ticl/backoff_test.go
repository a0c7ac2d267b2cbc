package ticl

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestBackoffGrowthAndReset(t *testing.T) {
	generator := NewExponentialBackoffDelayGenerator(100*time.Millisecond, 8)

	// the first draw after construction has no delay
	assert.Equal(t, time.Duration(0), generator.GetNextDelay())

	cap := 800 * time.Millisecond
	for i := 0; i < 20; i += 1 {
		delay := generator.GetNextDelay()
		assert.Equal(t, true, 0 <= delay)
		assert.Equal(t, true, delay < cap)
	}

	generator.Reset()
	assert.Equal(t, time.Duration(0), generator.GetNextDelay())
	// right after a reset the delay is bounded by twice the initial mark
	delay := generator.GetNextDelay()
	assert.Equal(t, true, delay < 200*time.Millisecond)
}

func TestBackoffBadArgsPanic(t *testing.T) {
	defer func() {
		assert.NotEqual(t, recover(), nil)
	}()
	NewExponentialBackoffDelayGenerator(0, 4)
}
