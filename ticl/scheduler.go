package ticl

import (
	"bytes"
	"container/heap"
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Scheduler is the client's internal serial executor. All client state is
// owned by the scheduler goroutine; scheduled tasks run to completion one
// at a time, in deadline order, FIFO for equal deadlines.
type Scheduler interface {
	// Schedule runs `task` on the scheduler goroutine after `delay`.
	Schedule(delay time.Duration, task func())
	// Post runs `task` on the scheduler goroutine as soon as possible.
	Post(task func())
	// IsRunningOnThread is true when called from the scheduler goroutine.
	IsRunningOnThread() bool
	CurrentTimeMs() int64
}

const NoDelay = time.Duration(0)

type scheduledTask struct {
	deadline time.Time
	seq      uint64
	run      func()

	heapIndex int
}

type RunScheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	stateLock sync.Mutex
	tasks     *taskHeap
	nextSeq   uint64
	wake      chan struct{}

	runGoroutineId uint64
	started        chan struct{}
}

func NewRunScheduler(ctx context.Context) *RunScheduler {
	cancelCtx, cancel := context.WithCancel(ctx)
	scheduler := &RunScheduler{
		ctx:     cancelCtx,
		cancel:  cancel,
		tasks:   &taskHeap{},
		wake:    make(chan struct{}, 1),
		started: make(chan struct{}),
	}
	heap.Init(scheduler.tasks)
	go scheduler.run()
	<-scheduler.started
	return scheduler
}

func (self *RunScheduler) run() {
	self.stateLock.Lock()
	self.runGoroutineId = curGoroutineId()
	self.stateLock.Unlock()
	close(self.started)

	timer := time.NewTimer(0)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		self.stateLock.Lock()
		var task *scheduledTask
		var wait time.Duration
		if self.tasks.Len() == 0 {
			wait = -1
		} else {
			next := (*self.tasks)[0]
			now := time.Now()
			if !next.deadline.After(now) {
				task = heap.Pop(self.tasks).(*scheduledTask)
			} else {
				wait = next.deadline.Sub(now)
			}
		}
		self.stateLock.Unlock()

		if task != nil {
			task.run()
			continue
		}

		if wait < 0 {
			select {
			case <-self.ctx.Done():
				return
			case <-self.wake:
			}
		} else {
			timer.Reset(wait)
			select {
			case <-self.ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return
			case <-self.wake:
				if !timer.Stop() {
					<-timer.C
				}
			case <-timer.C:
			}
		}
	}
}

func (self *RunScheduler) Schedule(delay time.Duration, task func()) {
	if task == nil {
		panic("Schedule with nil task.")
	}
	self.stateLock.Lock()
	self.nextSeq += 1
	heap.Push(self.tasks, &scheduledTask{
		deadline: time.Now().Add(delay),
		seq:      self.nextSeq,
		run:      task,
	})
	self.stateLock.Unlock()

	select {
	case self.wake <- struct{}{}:
	default:
	}
}

func (self *RunScheduler) Post(task func()) {
	self.Schedule(NoDelay, task)
}

func (self *RunScheduler) IsRunningOnThread() bool {
	self.stateLock.Lock()
	runGoroutineId := self.runGoroutineId
	self.stateLock.Unlock()
	return curGoroutineId() == runGoroutineId
}

func (self *RunScheduler) CurrentTimeMs() int64 {
	return time.Now().UnixMilli()
}

// Close stops the run loop. Pending tasks are dropped.
func (self *RunScheduler) Close() {
	self.cancel()
	self.stateLock.Lock()
	n := self.tasks.Len()
	self.stateLock.Unlock()
	if 0 < n {
		glog.V(2).Infof("[scheduler]close with %d pending tasks\n", n)
	}
}

var goroutinePrefix = []byte("goroutine ")

func curGoroutineId() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, goroutinePrefix)
	i := bytes.IndexByte(buf, ' ')
	if i < 0 {
		panic("Malformed stack header.")
	}
	id, err := strconv.ParseUint(string(buf[:i]), 10, 64)
	if err != nil {
		panic(err)
	}
	return id
}

// ordered by deadline, FIFO for equal deadlines
type taskHeap []*scheduledTask

// heap.Interface

func (self *taskHeap) Push(x any) {
	task := x.(*scheduledTask)
	task.heapIndex = len(*self)
	*self = append(*self, task)
}

func (self *taskHeap) Pop() any {
	n := len(*self)
	task := (*self)[n-1]
	(*self)[n-1] = nil
	*self = (*self)[:n-1]
	return task
}

// sort.Interface

func (self *taskHeap) Len() int {
	return len(*self)
}

func (self *taskHeap) Less(i int, j int) bool {
	a := (*self)[i]
	b := (*self)[j]
	if !a.deadline.Equal(b.deadline) {
		return a.deadline.Before(b.deadline)
	}
	return a.seq < b.seq
}

func (self *taskHeap) Swap(i int, j int) {
	a := (*self)[i]
	b := (*self)[j]
	b.heapIndex = i
	(*self)[i] = b
	a.heapIndex = j
	(*self)[j] = a
}
