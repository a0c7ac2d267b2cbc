package ticl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func runOnScheduler(scheduler Scheduler, task func()) {
	done := make(chan struct{})
	scheduler.Post(func() {
		task()
		close(done)
	})
	<-done
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	endTime := time.Now().Add(timeout)
	for {
		if condition() {
			return
		}
		if endTime.Before(time.Now()) {
			t.Fatal("Timeout waiting for condition.")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerPostOrder(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	var stateLock sync.Mutex
	order := []int{}

	n := 50
	for i := 0; i < n; i += 1 {
		i := i
		scheduler.Post(func() {
			stateLock.Lock()
			order = append(order, i)
			stateLock.Unlock()
		})
	}

	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return len(order) == n
	})

	stateLock.Lock()
	defer stateLock.Unlock()
	for i := 0; i < n; i += 1 {
		assert.Equal(t, i, order[i])
	}
}

func TestSchedulerDelayOrder(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	var stateLock sync.Mutex
	order := []string{}
	record := func(tag string) func() {
		return func() {
			stateLock.Lock()
			order = append(order, tag)
			stateLock.Unlock()
		}
	}

	scheduler.Schedule(100*time.Millisecond, record("late"))
	scheduler.Schedule(20*time.Millisecond, record("early"))
	scheduler.Post(record("now"))

	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return len(order) == 3
	})

	stateLock.Lock()
	defer stateLock.Unlock()
	assert.Equal(t, []string{"now", "early", "late"}, order)
}

func TestSchedulerIsRunningOnThread(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	assert.Equal(t, false, scheduler.IsRunningOnThread())

	var onThread bool
	runOnScheduler(scheduler, func() {
		onThread = scheduler.IsRunningOnThread()
	})
	assert.Equal(t, true, onThread)
}

func TestSchedulerCurrentTimeMs(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()

	beforeMs := time.Now().UnixMilli()
	nowMs := scheduler.CurrentTimeMs()
	afterMs := time.Now().UnixMilli()
	assert.Equal(t, true, beforeMs <= nowMs)
	assert.Equal(t, true, nowMs <= afterMs)
}
