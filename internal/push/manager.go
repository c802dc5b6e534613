// Package push manages the single live server-push connection for the active
// conversation.
package push

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/adamavenir/confab/internal/loop"
	"github.com/adamavenir/confab/internal/types"
)

// Stream is an open push connection.
type Stream interface {
	// Next blocks until the next event arrives. It returns io.EOF when the
	// server ends the stream.
	Next(ctx context.Context) (types.PushEvent, error)
	// Close releases the connection and unblocks Next. It may be called
	// concurrently with Next.
	Close() error
}

// Dialer opens a push stream for a conversation.
type Dialer func(ctx context.Context, conversationID string) (Stream, error)

// ErrServerClosed reports a stream that ended without a timeout notice.
var ErrServerClosed = errors.New("push stream closed by server")

// Options configure a Manager.
type Options struct {
	Dialer  Dialer
	Metrics *Metrics
	Logger  *slog.Logger
	// OnMessage receives chat messages for the active conversation.
	OnMessage func(conversationID string, msg types.Message)
	// OnState receives every state transition. err is set on the transition
	// into ConnectionError.
	OnState func(state types.ConnectionState, err error)
}

// Manager owns at most one push connection. Its methods must be called on the
// loop it was built with.
type Manager struct {
	loop    loop.Loop
	dial    Dialer
	metrics *Metrics
	log     *slog.Logger
	opts    Options

	active  string
	visible bool
	state   types.ConnectionState
	lastErr error

	gen           uint64
	stream        Stream
	streamID      string
	ctx           context.Context
	cancel        context.CancelFunc
	lastHeartbeat time.Time
}

// NewManager returns a disconnected manager. It starts visible with no active
// conversation.
func NewManager(l loop.Loop, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		loop:    l,
		dial:    opts.Dialer,
		metrics: opts.Metrics,
		log:     logger,
		opts:    opts,
		visible: true,
		state:   types.ConnectionDisconnected,
	}
}

// State returns the connection state.
func (m *Manager) State() types.ConnectionState { return m.state }

// Active returns the active conversation id.
func (m *Manager) Active() string { return m.active }

// Visible reports whether the owner is visible.
func (m *Manager) Visible() bool { return m.visible }

// LastHeartbeat returns when the live connection last showed signs of life.
func (m *Manager) LastHeartbeat() time.Time { return m.lastHeartbeat }

// Err returns the error that ended the last connection, if any.
func (m *Manager) Err() error { return m.lastErr }

// SetActive makes conversationID the active conversation and connects to it.
// Any previous connection or pending attempt is abandoned first. An empty id
// disconnects.
func (m *Manager) SetActive(conversationID string) {
	if conversationID == m.active && m.state != types.ConnectionDisconnected {
		return
	}
	m.active = conversationID
	m.teardown()
	if conversationID != "" && m.visible {
		m.connect()
	}
}

// SetVisible tears the connection down when the owner is hidden and reopens it
// for the active conversation when it is shown again.
func (m *Manager) SetVisible(visible bool) {
	if visible == m.visible {
		return
	}
	m.visible = visible
	if !visible {
		m.log.Debug("push hidden, disconnecting", "conversation", m.active)
		m.teardown()
		return
	}
	if m.active != "" && m.state == types.ConnectionDisconnected {
		m.connect()
	}
}

// Reconnect opens a fresh connection for the active conversation.
func (m *Manager) Reconnect() {
	if m.active == "" || !m.visible {
		return
	}
	m.connect()
}

// Disconnect closes the connection and keeps the active conversation.
func (m *Manager) Disconnect() {
	m.teardown()
}

// Close disconnects and forgets the active conversation.
func (m *Manager) Close() {
	m.active = ""
	m.teardown()
}

func (m *Manager) connect() {
	m.teardown()
	if m.dial == nil {
		m.fail(errors.New("push: no dialer configured"))
		return
	}
	m.gen++
	gen := m.gen
	id := m.active
	ctx, cancel := context.WithCancel(context.Background())
	m.ctx, m.cancel = ctx, cancel
	m.setState(types.ConnectionConnecting, nil)

	dial := m.dial
	m.loop.Go(func() func() {
		stream, err := dial(ctx, id)
		return func() { m.dialed(gen, id, stream, err) }
	})
}

func (m *Manager) dialed(gen uint64, id string, stream Stream, err error) {
	if gen != m.gen || id != m.active {
		if stream != nil {
			_ = stream.Close()
		}
		m.metrics.drop("stale_connect")
		m.log.Debug("discarding stale push connection", "conversation", id, "active", m.active)
		return
	}
	if err != nil {
		m.fail(err)
		return
	}
	m.stream = stream
	m.streamID = id
	m.lastHeartbeat = m.loop.Now()
	m.lastErr = nil
	m.metrics.connect()
	m.setState(types.ConnectionConnected, nil)
	m.read(gen)
}

func (m *Manager) read(gen uint64) {
	stream, ctx := m.stream, m.ctx
	m.loop.Go(func() func() {
		ev, err := stream.Next(ctx)
		return func() { m.received(gen, ev, err) }
	})
}

func (m *Manager) received(gen uint64, ev types.PushEvent, err error) {
	if gen != m.gen {
		return
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrServerClosed
		}
		m.fail(err)
		return
	}
	if m.handle(ev) {
		m.read(gen)
	}
}

// handle applies one event and reports whether to keep reading.
func (m *Manager) handle(ev types.PushEvent) bool {
	m.metrics.event(string(ev.Type))
	switch ev.Type {
	case types.PushConnected, types.PushHeartbeat:
		m.lastHeartbeat = m.loop.Now()
	case types.PushConnectionTimeout:
		m.log.Debug("push connection timed out", "conversation", m.streamID)
		m.teardown()
		return false
	case types.PushChatMessage:
		m.lastHeartbeat = m.loop.Now()
		if ev.Message == nil {
			m.metrics.drop("malformed")
			m.log.Warn("push message without body", "conversation", ev.ConversationID)
			return true
		}
		target := ev.ConversationID
		if target == "" {
			target = ev.Message.ConversationID
		}
		if target == "" {
			target = m.streamID
		}
		if target != m.active || m.streamID != m.active {
			m.metrics.drop("inactive")
			m.log.Debug("dropping message for inactive conversation", "conversation", target, "active", m.active)
			return true
		}
		msg := *ev.Message
		msg.ConversationID = target
		if m.opts.OnMessage != nil {
			m.opts.OnMessage(target, msg)
		}
	default:
		m.log.Debug("ignoring push event", "type", ev.Type)
	}
	return true
}

// fail moves through error to disconnected. There is no automatic retry.
func (m *Manager) fail(err error) {
	m.log.Warn("push connection failed", "conversation", m.active, "error", err)
	m.metrics.failure()
	m.release()
	m.lastErr = err
	m.setState(types.ConnectionError, err)
	m.setState(types.ConnectionDisconnected, nil)
}

// teardown closes any connection or pending attempt.
func (m *Manager) teardown() {
	m.release()
	if m.state != types.ConnectionDisconnected {
		m.setState(types.ConnectionDisconnected, nil)
	}
}

func (m *Manager) release() {
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.stream != nil {
		_ = m.stream.Close()
		m.stream = nil
		m.metrics.disconnect()
	}
	m.streamID = ""
	m.ctx = nil
}

func (m *Manager) setState(state types.ConnectionState, err error) {
	if state == m.state && err == nil {
		return
	}
	m.state = state
	if m.opts.OnState != nil {
		m.opts.OnState(state, err)
	}
}
