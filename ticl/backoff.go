package ticl

import (
	"math/rand"
	"sync"
	"time"
)

// ExponentialBackoffDelayGenerator produces randomized reconnect delays.
// The high-water mark doubles on each draw up to `maxFactor` times the
// initial delay; each delay is uniformly random in [0, mark).
type ExponentialBackoffDelayGenerator struct {
	initialMaxDelay time.Duration
	maxFactor       int

	stateLock    sync.Mutex
	currentMax   time.Duration
	inRetryUntil bool
}

func NewExponentialBackoffDelayGenerator(initialMaxDelay time.Duration, maxFactor int) *ExponentialBackoffDelayGenerator {
	if initialMaxDelay <= 0 {
		panic("Non-positive initial delay.")
	}
	if maxFactor < 1 {
		panic("Max factor must be at least 1.")
	}
	return &ExponentialBackoffDelayGenerator{
		initialMaxDelay: initialMaxDelay,
		maxFactor:       maxFactor,
		currentMax:      initialMaxDelay,
	}
}

// GetNextDelay returns the next backoff delay and advances the high-water
// mark.
func (self *ExponentialBackoffDelayGenerator) GetNextDelay() time.Duration {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	var delay time.Duration
	if self.inRetryUntil {
		delay = time.Duration(rand.Int63n(int64(self.currentMax)))
	}
	// first call after a reset returns no delay
	self.inRetryUntil = true

	cap := self.initialMaxDelay * time.Duration(self.maxFactor)
	if self.currentMax < cap {
		self.currentMax *= 2
		if cap < self.currentMax {
			self.currentMax = cap
		}
	}
	return delay
}

// Reset restores the generator to its initial state after a healthy
// connection.
func (self *ExponentialBackoffDelayGenerator) Reset() {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.currentMax = self.initialMaxDelay
	self.inRetryUntil = false
}
