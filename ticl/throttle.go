package ticl

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle bounds the firing rate of a callback. Calls inside the rate
// window collapse into a single deferred firing at the window edge, so the
// callback sees at most one call per window and never loses the last one.
type Throttle struct {
	scheduler Scheduler
	listener  func()

	limiter *rate.Limiter

	stateLock sync.Mutex
	deferred  bool
}

func NewThrottle(scheduler Scheduler, window time.Duration, listener func()) *Throttle {
	return &Throttle{
		scheduler: scheduler,
		listener:  listener,
		limiter:   rate.NewLimiter(rate.Every(window), 1),
	}
}

func (self *Throttle) Fire() {
	self.stateLock.Lock()
	if self.deferred {
		// a firing is already pending for this window
		self.stateLock.Unlock()
		return
	}
	r := self.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		self.stateLock.Unlock()
		self.listener()
		return
	}
	self.deferred = true
	self.stateLock.Unlock()

	self.scheduler.Schedule(delay, func() {
		self.stateLock.Lock()
		self.deferred = false
		self.stateLock.Unlock()
		self.listener()
	})
}
