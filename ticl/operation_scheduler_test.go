package ticl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestOperationSchedulerDedup(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()
	operationScheduler := NewOperationScheduler(scheduler)

	var stateLock sync.Mutex
	runCount := 0
	operation := &Operation{
		Name: "Test",
		Run: func() {
			stateLock.Lock()
			runCount += 1
			stateLock.Unlock()
		},
	}
	operationScheduler.Register(operation, 100*time.Millisecond)

	startTime := time.Now()
	for i := 0; i < 5; i += 1 {
		operationScheduler.Schedule(operation)
	}

	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return runCount == 1
	})
	assert.Equal(t, true, 100*time.Millisecond <= time.Since(startTime))

	// no further firings from the collapsed schedules
	time.Sleep(200 * time.Millisecond)
	stateLock.Lock()
	assert.Equal(t, 1, runCount)
	stateLock.Unlock()

	// after running, a new schedule fires exactly once more
	operationScheduler.Schedule(operation)
	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return runCount == 2
	})
}

func TestOperationSchedulerReRegisterPanics(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()
	operationScheduler := NewOperationScheduler(scheduler)

	operation := &Operation{
		Name: "Test",
		Run:  func() {},
	}
	operationScheduler.Register(operation, 10*time.Millisecond)

	defer func() {
		assert.NotEqual(t, recover(), nil)
	}()
	operationScheduler.Register(operation, 10*time.Millisecond)
}

func TestOperationSchedulerNonPositiveDelayPanics(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()
	operationScheduler := NewOperationScheduler(scheduler)

	defer func() {
		assert.NotEqual(t, recover(), nil)
	}()
	operationScheduler.Register(&Operation{Name: "Test", Run: func() {}}, 0)
}

func TestOperationSchedulerChangeDelay(t *testing.T) {
	scheduler := NewRunScheduler(context.Background())
	defer scheduler.Close()
	operationScheduler := NewOperationScheduler(scheduler)

	var stateLock sync.Mutex
	runCount := 0
	operation := &Operation{
		Name: "Test",
		Run: func() {
			stateLock.Lock()
			runCount += 1
			stateLock.Unlock()
		},
	}
	operationScheduler.Register(operation, 10*time.Minute)
	operationScheduler.ChangeDelay(operation, 20*time.Millisecond)

	operationScheduler.Schedule(operation)
	waitFor(t, 5*time.Second, func() bool {
		stateLock.Lock()
		defer stateLock.Unlock()
		return runCount == 1
	})
}
