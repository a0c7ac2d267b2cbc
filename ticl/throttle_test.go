package ticl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestThrottleCollapse(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	var stateLock sync.Mutex
	fireCount := 0
	throttle := NewThrottle(scheduler, 100*time.Millisecond, func() {
		stateLock.Lock()
		fireCount += 1
		stateLock.Unlock()
	})

	// the first fire is immediate, the burst collapses into one deferred
	// firing at the window edge
	for i := 0; i < 10; i += 1 {
		throttle.Fire()
	}

	stateLock.Lock()
	assert.Equal(t, 1, fireCount)
	stateLock.Unlock()

	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return fireCount == 2
	})

	time.Sleep(150 * time.Millisecond)
	stateLock.Lock()
	assert.Equal(t, 2, fireCount)
	stateLock.Unlock()
}

func TestThrottleSpacedFires(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	var stateLock sync.Mutex
	fireCount := 0
	throttle := NewThrottle(scheduler, 20*time.Millisecond, func() {
		stateLock.Lock()
		fireCount += 1
		stateLock.Unlock()
	})

	throttle.Fire()
	time.Sleep(100 * time.Millisecond)
	throttle.Fire()

	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return fireCount == 2
	})
}
