package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/adamavenir/confab/internal/api"
	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/editor"
	"github.com/adamavenir/confab/internal/store"
	"github.com/adamavenir/confab/internal/types"
)

func stripLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ansi.Strip(line)
	}
	return out
}

func TestRenderSurfaceCaretBeforeChip(t *testing.T) {
	s := editor.FromText("hi @{meeting}{Sprint}", editor.DisplayShort)
	lines, cell := renderSurface(s, 3, time.Now(), 0)
	got := stripLines(lines)
	if len(got) != 1 || got[0] != "hi ▏@Sprint" {
		t.Fatalf("unexpected render %q", got)
	}
	if cell != (caretCell{row: 0, col: 3}) {
		t.Fatalf("unexpected caret cell %+v", cell)
	}

	lines, _ = renderSurface(s, -1, time.Now(), 0)
	if got := stripLines(lines); got[0] != "hi @Sprint" {
		t.Fatalf("unexpected render without caret %q", got)
	}
}

func TestRenderSurfaceWrapsAndSplitsBlocks(t *testing.T) {
	s := editor.FromText("abcdef", editor.DisplayShort)
	lines, cell := renderSurface(s, 6, time.Now(), 4)
	got := stripLines(lines)
	if len(got) != 2 || got[0] != "abcd" || got[1] != "ef " {
		t.Fatalf("unexpected wrap %q", got)
	}
	if cell != (caretCell{row: 1, col: 2}) {
		t.Fatalf("unexpected caret cell %+v", cell)
	}

	s = editor.FromText("a\nb", editor.DisplayShort)
	lines, cell = renderSurface(s, 2, time.Now(), 0)
	got = stripLines(lines)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected blocks %q", got)
	}
	if cell != (caretCell{row: 1, col: 0}) {
		t.Fatalf("unexpected caret cell %+v", cell)
	}
}

func TestTeaLoopDrainsNestedPosts(t *testing.T) {
	l := newTeaLoop()
	var order []string
	l.Post(func() {
		order = append(order, "a")
		l.Post(func() { order = append(order, "c") })
	})
	l.Post(func() { order = append(order, "b") })
	l.drain()
	if strings.Join(order, "") != "abc" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestTeaLoopDeliversJobsAndTimers(t *testing.T) {
	l := newTeaLoop()
	msgs := make(chan tea.Msg, 4)
	l.attach(func(msg tea.Msg) { msgs <- msg })

	ran := false
	l.Go(func() func() {
		return func() { ran = true }
	})
	select {
	case msg := <-msgs:
		msg.(loopMsg).fn()
	case <-time.After(time.Second):
		t.Fatal("job continuation was not delivered")
	}
	if !ran {
		t.Fatal("expected continuation to run")
	}

	fired := false
	timer := l.AfterFunc(10*time.Millisecond, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("expected Stop to report a pending timer")
	}
	if timer.Stop() {
		t.Fatal("second Stop should report false")
	}
	select {
	case msg := <-msgs:
		msg.(loopMsg).fn()
	case <-time.After(50 * time.Millisecond):
	}
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestSuggestionKeyMapping(t *testing.T) {
	ev, ok := suggestionKey(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	if !ok || !ev.Shift {
		t.Fatalf("alt+enter should map to shift+enter, got %+v %v", ev, ok)
	}
	if _, ok := suggestionKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}); ok {
		t.Fatal("runes should not reach the popover")
	}
}

func TestNotificationText(t *testing.T) {
	msg := types.Message{Content: "See   @{meeting}{Standup}\nfor details", Type: types.MessageTypeAssistant}
	title, body := NotificationText("Planning", msg)
	if title != "confab · Planning" {
		t.Fatalf("unexpected title %q", title)
	}
	if body != "See @Standup for details" {
		t.Fatalf("unexpected body %q", body)
	}

	long := types.Message{Content: strings.Repeat("x", 300)}
	_, body = NotificationText("", long)
	if len([]rune(body)) != notifyPreviewLen {
		t.Fatalf("expected truncated body, got %d runes", len([]rune(body)))
	}
}

func TestHighlightCodeBlocksRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	body := "look\n```go\nfmt.Println(1)\n```"
	if got := highlightCodeBlocks(body); got != body {
		t.Fatalf("expected body unchanged, got %q", got)
	}
}

func TestParseFence(t *testing.T) {
	fence, lang, ok := parseFence("  ```python extra")
	if !ok || fence != "```" || lang != "python" {
		t.Fatalf("unexpected fence %q %q %v", fence, lang, ok)
	}
	if _, _, ok := parseFence("``not"); ok {
		t.Fatal("two backticks are not a fence")
	}
	if end := findClosingFence([]string{"code", "````"}, 0, "```"); end != 1 {
		t.Fatalf("expected closing fence at 1, got %d", end)
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	l := newTeaLoop()
	l.attach(func(tea.Msg) {})
	m := NewModel(Options{Config: core.DefaultConfig()}, l)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func apiResult(msg types.Message) api.SendResult {
	return api.SendResult{UserMessage: msg, TaskID: "task-1"}
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestModelOpensFirstConversation(t *testing.T) {
	m := newTestModel(t)
	m.Update(conversationsMsg{conversations: []types.Conversation{
		{ID: "c1", Title: "Planning"},
		{ID: "c2", Title: "Retro"},
	}})
	if got := m.store.ConversationID(); got != "c1" {
		t.Fatalf("expected c1 open, got %q", got)
	}
	if m.store.State() != store.Loading {
		t.Fatalf("expected loading, got %s", m.store.State())
	}
	// no dialer: the push connection fails without retrying
	if m.connState != types.ConnectionDisconnected || m.connErr == nil {
		t.Fatalf("expected failed connection, got %s %v", m.connState, m.connErr)
	}

	m.Update(messagesMsg{conversationID: "c1", messages: []types.Message{
		{ID: "m1", ConversationID: "c1", Type: types.MessageTypeUser, Content: "hello", CreatedAt: time.Unix(10, 0)},
	}})
	if m.store.Len() != 1 || m.store.State() != store.Loaded {
		t.Fatalf("expected one loaded message, got %d (%s)", m.store.Len(), m.store.State())
	}
	if view := ansi.Strip(m.View()); !strings.Contains(view, "hello") || !strings.Contains(view, "Planning") {
		t.Fatalf("view missing message or title:\n%s", view)
	}
}

func TestModelSendFailureRestoresInput(t *testing.T) {
	m := newTestModel(t)
	m.Update(conversationsMsg{conversations: []types.Conversation{{ID: "c1"}}})
	m.Update(messagesMsg{conversationID: "c1"})

	typeText(m, "hi")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	typeText(m, "there")
	if got := m.surface.Display(); got != "hi\nthere" {
		t.Fatalf("unexpected input %q", got)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.surface.IsEmpty() {
		t.Fatalf("input should clear on send, got %q", m.surface.Display())
	}
	temps := m.store.Temporary()
	if len(temps) != 1 {
		t.Fatalf("expected one pending message, got %d", len(temps))
	}

	m.Update(sentMsg{conversationID: "c1", tempID: temps[0], err: errors.New("boom")})
	if m.store.Len() != 0 {
		t.Fatalf("failed message should be removed, have %d", m.store.Len())
	}
	if got := m.surface.Display(); got != "hi\nthere" {
		t.Fatalf("expected input restored, got %q", got)
	}
}

func TestModelConfirmReplacesTemporary(t *testing.T) {
	m := newTestModel(t)
	m.Update(conversationsMsg{conversations: []types.Conversation{{ID: "c1"}}})
	m.Update(messagesMsg{conversationID: "c1"})

	typeText(m, "ping")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	temps := m.store.Temporary()
	if len(temps) != 1 {
		t.Fatalf("expected one pending message, got %d", len(temps))
	}
	confirmed := types.Message{ID: "u1", ConversationID: "c1", Type: types.MessageTypeUser, Content: "ping"}
	m.Update(sentMsg{conversationID: "c1", tempID: temps[0], result: apiResult(confirmed)})
	if len(m.store.Temporary()) != 0 {
		t.Fatal("expected no pending messages")
	}
	if _, ok := m.store.Get("u1"); !ok {
		t.Fatal("expected confirmed message")
	}

	// the echo over push is not shown twice
	m.pushReceived("c1", confirmed)
	if m.store.Len() != 1 {
		t.Fatalf("expected one message, got %d", m.store.Len())
	}
}

func TestModelDropsSendResultAfterSwitch(t *testing.T) {
	m := newTestModel(t)
	m.Update(conversationsMsg{conversations: []types.Conversation{{ID: "c1"}, {ID: "c2"}}})
	m.Update(messagesMsg{conversationID: "c1"})

	typeText(m, "ping")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	temps := m.store.Temporary()
	if len(temps) != 1 {
		t.Fatalf("expected one pending message, got %d", len(temps))
	}
	m.openConversation("c2")
	m.Update(messagesMsg{conversationID: "c2"})

	confirmed := types.Message{ID: "u1", ConversationID: "c1", Type: types.MessageTypeUser, Content: "ping"}
	m.Update(sentMsg{conversationID: "c1", tempID: temps[0], result: apiResult(confirmed)})
	if m.store.Len() != 0 {
		t.Fatalf("c1's message leaked into c2: %+v", m.store.Messages())
	}

	m.Update(sentMsg{conversationID: "c1", tempID: temps[0], err: errors.New("boom")})
	if !m.surface.IsEmpty() || m.status != "" {
		t.Fatalf("late failure should not touch c2's input, got %q status %q", m.surface.Display(), m.status)
	}
}

func TestModelFocusDrivesVisibility(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.BlurMsg{})
	if m.push.Visible() || m.focused {
		t.Fatal("blur should hide the push connection")
	}
	m.Update(tea.FocusMsg{})
	if !m.push.Visible() || !m.focused {
		t.Fatal("focus should show the push connection")
	}
}

func TestCtrlCClearsBeforeQuitting(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "draft")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); !m.surface.IsEmpty() {
		t.Fatal("ctrl+c should clear the input first")
	} else if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Fatal("ctrl+c with input should not quit")
		}
	}
}
