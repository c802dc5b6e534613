// Package loop provides the single-threaded event loop the client core runs
// on. All controller and store mutation happens in callbacks delivered by a
// Loop; blocking work runs elsewhere and hands its continuation back.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop schedules callbacks on one logical thread.
type Loop interface {
	// AfterFunc runs f on the loop after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Post runs f on the loop as soon as possible.
	Post(f func())
	// Go runs work off the loop and then runs the continuation it returns on
	// the loop. A nil continuation is ignored.
	Go(work func() func())
	// Now returns the loop's current time.
	Now() time.Time
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer before it ran.
	Stop() bool
}

// Queue is a Loop backed by real time and a goroutine running Run.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// NewQueue returns an idle queue. Callbacks run once Run is called.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Run executes posted callbacks until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		for _, f := range q.take() {
			f()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

func (q *Queue) take() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Post implements Loop.
func (q *Queue) Post(f func()) {
	if f == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, f)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// AfterFunc implements Loop.
func (q *Queue) AfterFunc(d time.Duration, f func()) Timer {
	t := &queueTimer{}
	t.timer = time.AfterFunc(d, func() {
		q.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

// Go implements Loop.
func (q *Queue) Go(work func() func()) {
	go func() {
		if next := work(); next != nil {
			q.Post(next)
		}
	}()
}

// Now implements Loop.
func (q *Queue) Now() time.Time {
	return time.Now()
}

type queueTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *queueTimer) Stop() bool {
	t.timer.Stop()
	return t.stopped.CompareAndSwap(false, true)
}
