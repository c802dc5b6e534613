package push

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/adamavenir/confab/internal/loop"
	"github.com/adamavenir/confab/internal/types"
)

type fakeStream struct {
	conversation string
	events       []types.PushEvent
	errs         []error
	closed       bool
}

func (s *fakeStream) Next(ctx context.Context) (types.PushEvent, error) {
	if s.closed {
		return types.PushEvent{}, errors.New("closed")
	}
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return types.PushEvent{}, err
	}
	if len(s.events) == 0 {
		panic("fakeStream: Next with nothing scripted")
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeDialer struct {
	streams []*fakeStream
	fail    map[string]error
}

func (d *fakeDialer) dial(ctx context.Context, id string) (Stream, error) {
	if err := d.fail[id]; err != nil {
		return nil, err
	}
	s := &fakeStream{conversation: id}
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDialer) live() []*fakeStream {
	var out []*fakeStream
	for _, s := range d.streams {
		if !s.closed {
			out = append(out, s)
		}
	}
	return out
}

type fixture struct {
	loop     *loop.Manual
	dialer   *fakeDialer
	mgr      *Manager
	metrics  *Metrics
	states   []types.ConnectionState
	received []types.Message
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		loop:    loop.NewManual(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)),
		dialer:  &fakeDialer{fail: map[string]error{}},
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	f.mgr = NewManager(f.loop, Options{
		Dialer:  f.dialer.dial,
		Metrics: f.metrics,
		OnMessage: func(_ string, msg types.Message) {
			f.received = append(f.received, msg)
		},
		OnState: func(state types.ConnectionState, _ error) {
			f.states = append(f.states, state)
		},
	})
	return f
}

func (f *fixture) connect(t *testing.T, id string) *fakeStream {
	t.Helper()
	f.mgr.SetActive(id)
	f.loop.RunJobs()
	if f.mgr.State() != types.ConnectionConnected {
		t.Fatalf("state: got %s want connected", f.mgr.State())
	}
	live := f.dialer.live()
	if len(live) != 1 {
		t.Fatalf("live connections: got %d want 1", len(live))
	}
	return live[0]
}

func (f *fixture) deliver(s *fakeStream, events ...types.PushEvent) {
	s.events = append(s.events, events...)
	for range events {
		f.loop.RunJobs()
	}
}

func chat(conversation, id, content string) types.PushEvent {
	return types.PushEvent{
		Type:           types.PushChatMessage,
		ConversationID: conversation,
		Message: &types.Message{
			ID:      id,
			Type:    types.MessageTypeAssistant,
			Content: content,
		},
	}
}

func TestConnectDeliversMessages(t *testing.T) {
	f := newFixture(t)
	stream := f.connect(t, "c1")
	f.deliver(stream,
		types.PushEvent{Type: types.PushConnected, ConversationID: "c1"},
		chat("c1", "m1", "hello"),
	)
	if len(f.received) != 1 || f.received[0].ID != "m1" || f.received[0].ConversationID != "c1" {
		t.Fatalf("received: %+v", f.received)
	}
	want := []types.ConnectionState{types.ConnectionConnecting, types.ConnectionConnected}
	if len(f.states) != len(want) || f.states[0] != want[0] || f.states[1] != want[1] {
		t.Fatalf("states: got %v want %v", f.states, want)
	}
	if got := testutil.ToFloat64(f.metrics.connected); got != 1 {
		t.Fatalf("connected gauge: got %v", got)
	}
}

func TestSwitchDuringConnectKeepsOneConnection(t *testing.T) {
	f := newFixture(t)
	f.mgr.SetActive("old")
	f.mgr.SetActive("new")
	if f.loop.Jobs() != 2 {
		t.Fatalf("pending dials: got %d want 2", f.loop.Jobs())
	}
	f.loop.RunJobs()

	live := f.dialer.live()
	if len(live) != 1 || live[0].conversation != "new" {
		t.Fatalf("live: %+v", live)
	}
	if f.mgr.State() != types.ConnectionConnected || f.mgr.Active() != "new" {
		t.Fatalf("state=%s active=%s", f.mgr.State(), f.mgr.Active())
	}
	for _, st := range f.states {
		if st == types.ConnectionError {
			t.Fatalf("stale attempt surfaced as error: %v", f.states)
		}
	}
	if got := testutil.ToFloat64(f.metrics.dropped.WithLabelValues("stale_connect")); got != 1 {
		t.Fatalf("stale drops: got %v", got)
	}
}

func TestSwitchClosesPreviousConnection(t *testing.T) {
	f := newFixture(t)
	first := f.connect(t, "c1")
	f.mgr.SetActive("c2")
	if !first.closed {
		t.Fatalf("previous stream should be closed before reconnecting")
	}
	f.loop.RunJobs()
	if live := f.dialer.live(); len(live) != 1 || live[0].conversation != "c2" {
		t.Fatalf("live: %+v", live)
	}
}

func TestMessagesForInactiveConversationDropped(t *testing.T) {
	f := newFixture(t)
	stream := f.connect(t, "c1")
	f.deliver(stream, chat("c2", "x", "elsewhere"), chat("c1", "y", "here"))
	if len(f.received) != 1 || f.received[0].ID != "y" {
		t.Fatalf("received: %+v", f.received)
	}
}

func TestMalformedEventSkipped(t *testing.T) {
	f := newFixture(t)
	stream := f.connect(t, "c1")
	f.deliver(stream,
		types.PushEvent{Type: types.PushChatMessage, ConversationID: "c1"},
		chat("c1", "ok", "fine"),
	)
	if len(f.received) != 1 || f.mgr.State() != types.ConnectionConnected {
		t.Fatalf("received=%+v state=%s", f.received, f.mgr.State())
	}
}

func TestHeartbeatUpdatesLiveness(t *testing.T) {
	f := newFixture(t)
	stream := f.connect(t, "c1")
	start := f.mgr.LastHeartbeat()
	f.loop.Advance(25 * time.Second)
	f.deliver(stream, types.PushEvent{Type: types.PushHeartbeat})
	if got := f.mgr.LastHeartbeat().Sub(start); got != 25*time.Second {
		t.Fatalf("heartbeat moved by %s", got)
	}
}

func TestTimeoutIsNormalDisconnect(t *testing.T) {
	f := newFixture(t)
	stream := f.connect(t, "c1")
	f.deliver(stream, types.PushEvent{Type: types.PushConnectionTimeout})
	if f.mgr.State() != types.ConnectionDisconnected {
		t.Fatalf("state: got %s", f.mgr.State())
	}
	if f.mgr.Err() != nil {
		t.Fatalf("timeout should not record an error: %v", f.mgr.Err())
	}
	if !stream.closed {
		t.Fatalf("stream should be closed")
	}
	if f.loop.Jobs() != 0 {
		t.Fatalf("no reconnect expected, %d jobs pending", f.loop.Jobs())
	}
}

func TestTransportErrorNoRetry(t *testing.T) {
	f := newFixture(t)
	stream := f.connect(t, "c1")
	stream.errs = append(stream.errs, io.EOF)
	f.loop.RunJobs()

	n := len(f.states)
	if n < 2 || f.states[n-2] != types.ConnectionError || f.states[n-1] != types.ConnectionDisconnected {
		t.Fatalf("states: %v", f.states)
	}
	if !errors.Is(f.mgr.Err(), ErrServerClosed) {
		t.Fatalf("err: %v", f.mgr.Err())
	}
	if f.loop.Jobs() != 0 || len(f.dialer.streams) != 1 {
		t.Fatalf("manager retried on its own")
	}
	if got := testutil.ToFloat64(f.metrics.errors); got != 1 {
		t.Fatalf("error counter: got %v", got)
	}
}

func TestDialErrorGoesThroughErrorState(t *testing.T) {
	f := newFixture(t)
	f.dialer.fail["c1"] = errors.New("connection refused")
	f.mgr.SetActive("c1")
	f.loop.RunJobs()
	want := []types.ConnectionState{types.ConnectionConnecting, types.ConnectionError, types.ConnectionDisconnected}
	if len(f.states) != len(want) {
		t.Fatalf("states: got %v want %v", f.states, want)
	}
	for i := range want {
		if f.states[i] != want[i] {
			t.Fatalf("states: got %v want %v", f.states, want)
		}
	}
}

func TestVisibilityTogglesConnection(t *testing.T) {
	f := newFixture(t)
	stream := f.connect(t, "c1")
	f.mgr.SetVisible(false)
	if !stream.closed || f.mgr.State() != types.ConnectionDisconnected {
		t.Fatalf("hidden: closed=%v state=%s", stream.closed, f.mgr.State())
	}
	// the abandoned read finishes and is ignored
	f.loop.RunJobs()
	f.mgr.SetActive("c2")
	if f.loop.Jobs() != 0 {
		t.Fatalf("should not connect while hidden")
	}
	f.mgr.SetVisible(true)
	f.loop.RunJobs()
	live := f.dialer.live()
	if len(live) != 1 || live[0].conversation != "c2" {
		t.Fatalf("live after show: %+v", live)
	}
}

func TestCloseForgetsConversation(t *testing.T) {
	f := newFixture(t)
	f.connect(t, "c1")
	f.mgr.Close()
	f.loop.RunJobs()
	f.mgr.SetVisible(false)
	f.mgr.SetVisible(true)
	if f.loop.Jobs() != 0 || len(f.dialer.live()) != 0 {
		t.Fatalf("closed manager reconnected")
	}
}
