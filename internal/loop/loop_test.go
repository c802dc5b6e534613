package loop

import (
	"context"
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualAdvanceFiresInOrder(t *testing.T) {
	m := NewManual(epoch)
	var got []string
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, "late") })
	m.AfterFunc(100*time.Millisecond, func() {
		got = append(got, "early")
		m.Post(func() { got = append(got, "posted") })
	})
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "tie") })

	m.Advance(200 * time.Millisecond)
	want := []string{"early", "posted", "tie"}
	if len(got) != len(want) {
		t.Fatalf("fired: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fired: got %v want %v", got, want)
		}
	}
	if m.Now() != epoch.Add(200*time.Millisecond) {
		t.Fatalf("now: got %v", m.Now())
	}
	if m.Timers() != 1 {
		t.Fatalf("timers left: got %d want 1", m.Timers())
	}
}

func TestManualStopPreventsFire(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Fatalf("first stop should report true")
	}
	if timer.Stop() {
		t.Fatalf("second stop should report false")
	}
	m.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
}

func TestManualJobsRunOutOfOrder(t *testing.T) {
	m := NewManual(epoch)
	var got []string
	m.Go(func() func() { return func() { got = append(got, "a") } })
	m.Go(func() func() { return func() { got = append(got, "b") } })
	if m.Jobs() != 2 {
		t.Fatalf("jobs: got %d want 2", m.Jobs())
	}
	m.RunJob(1)
	m.RunJobs()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("order: got %v", got)
	}
}

func TestQueueRunsCallbacks(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Run(ctx) }()

	done := make(chan string, 3)
	q.Post(func() { done <- "post" })
	q.Go(func() func() { return func() { done <- "continuation" } })
	stopped := q.AfterFunc(10*time.Millisecond, func() { done <- "stopped" })
	stopped.Stop()
	q.AfterFunc(20*time.Millisecond, func() { done <- "timer" })

	seen := map[string]bool{}
	deadline := time.After(2 * time.Second)
	for len(seen) < 3 {
		select {
		case name := <-done:
			seen[name] = true
		case <-deadline:
			t.Fatalf("timed out, saw %v", seen)
		}
	}
	if seen["stopped"] {
		t.Fatalf("stopped timer ran")
	}
	for _, name := range []string{"post", "continuation", "timer"} {
		if !seen[name] {
			t.Fatalf("missing %s in %v", name, seen)
		}
	}
}
