package chat

import (
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adamavenir/confab/internal/loop"
)

// loopMsg carries a callback onto the bubbletea event goroutine.
type loopMsg struct {
	fn func()
}

// teaLoop runs loop callbacks inside Update. Callbacks posted from Update are
// queued and drained before Update returns; timers and finished jobs arrive as
// loopMsg through the program.
type teaLoop struct {
	mu     sync.Mutex
	posted []func()
	send   func(tea.Msg)
	ready  chan struct{}
	once   sync.Once
}

var _ loop.Loop = (*teaLoop)(nil)

func newTeaLoop() *teaLoop {
	return &teaLoop{ready: make(chan struct{})}
}

// attach sets the program sender. Messages sent before attach wait for it.
func (l *teaLoop) attach(send func(tea.Msg)) {
	l.once.Do(func() {
		l.send = send
		close(l.ready)
	})
}

func (l *teaLoop) deliver(f func()) {
	<-l.ready
	l.send(loopMsg{fn: f})
}

func (l *teaLoop) Now() time.Time { return time.Now() }

func (l *teaLoop) Post(f func()) {
	l.mu.Lock()
	l.posted = append(l.posted, f)
	l.mu.Unlock()
}

func (l *teaLoop) Go(work func() func()) {
	go func() {
		done := work()
		if done != nil {
			l.deliver(done)
		}
	}()
}

func (l *teaLoop) AfterFunc(d time.Duration, f func()) loop.Timer {
	t := &teaTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.deliver(func() {
			if t.stopped.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

// drain runs queued callbacks, including ones they post, until none remain.
func (l *teaLoop) drain() {
	for {
		l.mu.Lock()
		batch := l.posted
		l.posted = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, f := range batch {
			f()
		}
	}
}

type teaTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *teaTimer) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	t.timer.Stop()
	return true
}
