package suggest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/adamavenir/confab/internal/editor"
	"github.com/adamavenir/confab/internal/loop"
	"github.com/adamavenir/confab/internal/types"
)

type fakeSearch struct {
	queries []string
	items   []types.SearchItem
	err     error
}

func (f *fakeSearch) search(ctx context.Context, query string, limit int) ([]types.SearchItem, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func meetings(n int) []types.SearchItem {
	items := make([]types.SearchItem, n)
	for i := range items {
		items[i] = types.SearchItem{ID: fmt.Sprintf("m%d", i), Title: fmt.Sprintf("Meeting %d", i)}
	}
	return items
}

type harness struct {
	loop    *loop.Manual
	surface *editor.Surface
	sel     editor.Selection
	ctrl    *Controller
	search  *fakeSearch
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		loop:    loop.NewManual(time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)),
		surface: editor.New(),
		search:  &fakeSearch{items: meetings(3)},
	}
	h.sel = editor.Caret(h.surface.Start())
	h.ctrl = New(h.loop, h.surface, h.search.search, opts)
	return h
}

func (h *harness) typeText(t *testing.T, text string) {
	t.Helper()
	sel, err := h.surface.InsertText(h.sel, text)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	h.sel = sel
	h.ctrl.OnInput(sel)
}

func TestDebounceResetsOnKeystroke(t *testing.T) {
	h := newHarness(t, Options{})
	h.typeText(t, "hello @mee")
	h.loop.Advance(150 * time.Millisecond)
	h.loop.RunJobs()
	h.typeText(t, "t")
	h.loop.Advance(150 * time.Millisecond)
	h.loop.RunJobs()
	if len(h.search.queries) != 0 {
		t.Fatalf("search ran early: %v", h.search.queries)
	}
	h.loop.Advance(50 * time.Millisecond)
	h.loop.RunJobs()
	if len(h.search.queries) != 1 || h.search.queries[0] != "meet" {
		t.Fatalf("queries: got %v want [meet]", h.search.queries)
	}
	st := h.ctrl.State()
	if !st.Open || len(st.Items) != 3 || st.FocusedIndex != 0 {
		t.Fatalf("state: %+v", st)
	}
}

func TestOnInputWithoutTriggerCloses(t *testing.T) {
	h := newHarness(t, Options{})
	h.typeText(t, "@a")
	h.loop.Advance(DefaultDebounce)
	h.loop.RunJobs()
	if !h.ctrl.State().Open {
		t.Fatalf("expected popover open")
	}
	h.typeText(t, "\nfoo@bar")
	h.loop.Advance(time.Second)
	h.loop.RunJobs()
	if h.ctrl.State().Open {
		t.Fatalf("popover should stay closed")
	}
	if _, ok := h.ctrl.Trigger(); ok {
		t.Fatalf("trigger should be cleared")
	}
}

func TestRunSearchCapsResults(t *testing.T) {
	h := newHarness(t, Options{})
	h.search.items = meetings(12)
	h.ctrl.RunSearch("m")
	h.loop.RunJobs()
	st := h.ctrl.State()
	if len(st.Items) != DefaultLimit {
		t.Fatalf("items: got %d want %d", len(st.Items), DefaultLimit)
	}
}

func TestSearchFailureOpensEmpty(t *testing.T) {
	h := newHarness(t, Options{})
	h.search.err = errors.New("boom")
	h.ctrl.RunSearch("x")
	h.loop.RunJobs()
	st := h.ctrl.State()
	if !st.Open || len(st.Items) != 0 || st.FocusedIndex != -1 {
		t.Fatalf("state: %+v", st)
	}
}

func TestSearchPanicOpensEmpty(t *testing.T) {
	h := newHarness(t, Options{})
	h.ctrl.search = func(context.Context, string, int) ([]types.SearchItem, error) {
		panic("bad search")
	}
	h.ctrl.RunSearch("x")
	h.loop.RunJobs()
	if st := h.ctrl.State(); !st.Open || len(st.Items) != 0 {
		t.Fatalf("state: %+v", st)
	}
}

func TestStaleResultsDropped(t *testing.T) {
	h := newHarness(t, Options{})
	calls := map[string][]types.SearchItem{
		"a":  {{ID: "1", Title: "Alpha"}},
		"ab": {{ID: "2", Title: "Abacus"}},
	}
	h.ctrl.search = func(_ context.Context, q string, _ int) ([]types.SearchItem, error) {
		return calls[q], nil
	}
	h.ctrl.RunSearch("a")
	h.ctrl.RunSearch("ab")
	// finish the newer search first, then the stale one
	h.loop.RunJob(1)
	h.loop.RunJobs()
	st := h.ctrl.State()
	if st.Query != "ab" || len(st.Items) != 1 || st.Items[0].ID != "2" {
		t.Fatalf("state: %+v", st)
	}

	h.ctrl.RunSearch("a")
	h.ctrl.Close()
	h.loop.RunJobs()
	if h.ctrl.State().Open {
		t.Fatalf("results after close should be dropped")
	}
}

func TestKeyNavigationClamps(t *testing.T) {
	h := newHarness(t, Options{})
	if h.ctrl.OnKeyDown(KeyEvent{Key: KeyDown}) {
		t.Fatalf("keys are not consumed while closed")
	}
	h.typeText(t, "@m")
	h.loop.Advance(DefaultDebounce)
	h.loop.RunJobs()

	for i := 0; i < 5; i++ {
		if !h.ctrl.OnKeyDown(KeyEvent{Key: KeyDown}) {
			t.Fatalf("down should be consumed")
		}
	}
	if got := h.ctrl.State().FocusedIndex; got != 2 {
		t.Fatalf("focused after down: got %d want 2", got)
	}
	for i := 0; i < 5; i++ {
		h.ctrl.OnKeyDown(KeyEvent{Key: KeyUp})
	}
	if got := h.ctrl.State().FocusedIndex; got != 0 {
		t.Fatalf("focused after up: got %d want 0", got)
	}
	if h.ctrl.OnKeyDown(KeyEvent{Key: KeyOther}) {
		t.Fatalf("other keys pass through")
	}
	if !h.ctrl.OnKeyDown(KeyEvent{Key: KeyEscape}) {
		t.Fatalf("escape should be consumed")
	}
	if h.ctrl.State().Open {
		t.Fatalf("escape should close")
	}
}

func TestEnterCommitsFocusedItem(t *testing.T) {
	var committed types.Mention
	var caret editor.Selection
	h := newHarness(t, Options{OnCommit: func(m types.Mention, sel editor.Selection) {
		committed = m
		caret = sel
	}})
	h.search.items = []types.SearchItem{{ID: "42", Title: "Sprint Planning"}}
	h.typeText(t, "hello @spr")
	h.loop.Advance(DefaultDebounce)
	h.loop.RunJobs()

	if h.ctrl.OnKeyDown(KeyEvent{Key: KeyEnter, Shift: true}) {
		t.Fatalf("shift+enter must not be consumed")
	}
	if !h.ctrl.State().Open {
		t.Fatalf("shift+enter should leave the popover open")
	}
	if !h.ctrl.OnKeyDown(KeyEvent{Key: KeyEnter}) {
		t.Fatalf("enter should commit")
	}
	if committed.ID != "42" || committed.Type != types.MentionMeeting {
		t.Fatalf("committed: %+v", committed)
	}
	if got := h.surface.Display(); got != "hello @Sprint Planning " {
		t.Fatalf("display: got %q", got)
	}
	if off, _ := h.surface.Offset(caret.Focus()); off != 8 {
		t.Fatalf("caret: got %d want 8", off)
	}
	if h.ctrl.State().Open {
		t.Fatalf("popover should close after commit")
	}
	out := h.surface.Serialize()
	if out.Content != "hello @{meeting}{Sprint Planning}" || len(out.Mentions) != 1 {
		t.Fatalf("serialized: %+v", out)
	}
}

func TestEnterWithoutItemsNotConsumed(t *testing.T) {
	h := newHarness(t, Options{})
	h.search.items = nil
	h.typeText(t, "@zzz")
	h.loop.Advance(DefaultDebounce)
	h.loop.RunJobs()
	if !h.ctrl.State().Open {
		t.Fatalf("popover should open with no results")
	}
	if h.ctrl.OnKeyDown(KeyEvent{Key: KeyEnter}) {
		t.Fatalf("enter with no focused item must pass through")
	}
}

func TestCommitWithoutTriggerIsNoop(t *testing.T) {
	h := newHarness(t, Options{})
	h.typeText(t, "plain")
	sel, ok := h.ctrl.Commit(types.SearchItem{ID: "1", Title: "X"})
	if ok {
		t.Fatalf("commit should report false")
	}
	if sel != (editor.Selection{}) {
		t.Fatalf("selection should be zero: %+v", sel)
	}
	if got := h.surface.Display(); got != "plain" {
		t.Fatalf("surface changed: %q", got)
	}
}

func TestThrottledWaitsForToken(t *testing.T) {
	search := &fakeSearch{items: meetings(1)}
	throttled := Throttled(search.search, rate.NewLimiter(rate.Every(time.Hour), 1))

	if _, err := throttled(context.Background(), "a", 8); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := throttled(ctx, "b", 8); err == nil {
		t.Fatalf("expected error without a token")
	}
	if len(search.queries) != 1 {
		t.Fatalf("upstream calls: got %d want 1", len(search.queries))
	}
}

type fakeRecents []types.Mention

func (f fakeRecents) RecentMentions(ctx context.Context, prefix string, limit int) ([]types.Mention, error) {
	return f, nil
}

func TestWithRecents(t *testing.T) {
	recents := fakeRecents{
		{ID: "m1", Name: "Meeting 1", Type: types.MentionMeeting},
		{ID: "f1", Name: "plan.md", Type: types.MentionFile},
	}
	remote := &fakeSearch{items: meetings(3)}
	search := WithRecents(remote.search, recents)

	items, err := search(context.Background(), "", 8)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"m1", "f1", "m0", "m2"}
	if len(items) != len(want) {
		t.Fatalf("items: got %+v", items)
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("item %d: got %s want %s", i, items[i].ID, id)
		}
	}

	remote.err = errors.New("offline")
	items, err = search(context.Background(), "plan", 8)
	if err != nil || len(items) != 2 {
		t.Fatalf("fallback: items=%+v err=%v", items, err)
	}
}
