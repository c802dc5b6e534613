package loop

import (
	"sort"
	"time"
)

// Manual is a Loop driven by hand with virtual time. Posted callbacks wait
// for Drain or Advance; Go jobs wait for RunJob or RunJobs, so a test decides
// when blocking work completes.
type Manual struct {
	now    time.Time
	seq    int
	timers []*manualTimer
	posted []func()
	jobs   []func() func()
}

// NewManual returns a manual loop whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now implements Loop.
func (m *Manual) Now() time.Time { return m.now }

// Post implements Loop.
func (m *Manual) Post(f func()) {
	if f != nil {
		m.posted = append(m.posted, f)
	}
}

// Go implements Loop. The job runs when the loop is stepped.
func (m *Manual) Go(work func() func()) {
	m.jobs = append(m.jobs, work)
}

// AfterFunc implements Loop.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Jobs returns the number of Go jobs waiting to run.
func (m *Manual) Jobs() int { return len(m.jobs) }

// Timers returns the number of timers waiting to fire.
func (m *Manual) Timers() int {
	n := 0
	for _, t := range m.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// RunJob runs the i-th waiting Go job and posts its continuation.
func (m *Manual) RunJob(i int) {
	if i < 0 || i >= len(m.jobs) {
		return
	}
	job := m.jobs[i]
	m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
	if next := job(); next != nil {
		m.posted = append(m.posted, next)
	}
}

// RunJobs runs the Go jobs waiting now, in order, then drains posted
// callbacks. Jobs queued while it runs wait for the next call.
func (m *Manual) RunJobs() {
	jobs := m.jobs
	m.jobs = nil
	for _, job := range jobs {
		if next := job(); next != nil {
			m.posted = append(m.posted, next)
		}
	}
	m.Drain()
}

// Drain runs posted callbacks, including ones posted while draining. Go jobs
// are left waiting.
func (m *Manual) Drain() {
	for len(m.posted) > 0 {
		f := m.posted[0]
		m.posted = m.posted[1:]
		f()
	}
}

// Advance moves the clock forward by d, firing due timers in order and
// draining posted callbacks after each.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	m.Drain()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.at
		t.done = true
		t.f()
		m.Drain()
	}
	m.now = target
	m.compact()
}

func (m *Manual) nextDue(target time.Time) *manualTimer {
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	for _, t := range m.timers {
		if t.done {
			continue
		}
		if t.at.After(target) {
			return nil
		}
		return t
	}
	return nil
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	m.timers = live
}

type manualTimer struct {
	at   time.Time
	seq  int
	f    func()
	done bool
}

func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	return true
}
