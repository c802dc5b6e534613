// Package suggest drives the mention suggestion popover: it watches the caret
// for an @ trigger, debounces searches through an injected Searcher, and
// commits the chosen entity into the editing surface as a chip.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamavenir/confab/internal/editor"
	"github.com/adamavenir/confab/internal/loop"
	"github.com/adamavenir/confab/internal/types"
)

const (
	// DefaultDebounce is the delay between the last keystroke and the search.
	DefaultDebounce = 200 * time.Millisecond
	// DefaultLimit caps the number of suggestions shown.
	DefaultLimit = 8
)

// Searcher looks up entities matching query. It may block; the controller
// calls it off the loop and cancels ctx when the result is no longer wanted.
type Searcher func(ctx context.Context, query string, limit int) ([]types.SearchItem, error)

// Point is the popover anchor in screen cells.
type Point struct {
	X int
	Y int
}

// Key is a key the popover reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyEscape
	KeyUp
	KeyDown
	KeyEnter
)

// KeyEvent is a key press as seen by the controller.
type KeyEvent struct {
	Key   Key
	Shift bool
}

// State is the popover state.
type State struct {
	Open         bool
	Position     *Point
	Items        []types.SearchItem
	FocusedIndex int
	Query        string
	Loading      bool
}

// Options configure a Controller.
type Options struct {
	Debounce time.Duration
	Limit    int
	// Anchor computes the popover position for the caret.
	Anchor func(editor.Selection) *Point
	// OnCommit receives the committed mention and the caret after the chip.
	OnCommit func(types.Mention, editor.Selection)
	// OnChange is called after every state change.
	OnChange func(State)
	Logger   *slog.Logger
}

// Controller owns the suggestion popover. Its methods must be called on the
// loop it was built with.
type Controller struct {
	loop    loop.Loop
	search  Searcher
	surface *editor.Surface
	opts    Options
	log     *slog.Logger

	state   State
	trigger *editor.Trigger
	timer   loop.Timer
	seq     int
	cancel  context.CancelFunc
}

// New returns a closed controller editing surface.
func New(l loop.Loop, surface *editor.Surface, search Searcher, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		loop:    l,
		search:  search,
		surface: surface,
		opts:    opts,
		log:     logger,
		state:   State{FocusedIndex: -1},
	}
}

// State returns a copy of the popover state.
func (c *Controller) State() State {
	st := c.state
	st.Items = append([]types.SearchItem(nil), c.state.Items...)
	if c.state.Position != nil {
		p := *c.state.Position
		st.Position = &p
	}
	return st
}

// Trigger returns the recorded trigger, if any.
func (c *Controller) Trigger() (editor.Trigger, bool) {
	if c.trigger == nil {
		return editor.Trigger{}, false
	}
	return *c.trigger, true
}

// SetSurface points the controller at a different surface and closes the
// popover.
func (c *Controller) SetSurface(surface *editor.Surface) {
	c.Close()
	c.surface = surface
}

// SetDebounce changes the debounce delay for future keystrokes.
func (c *Controller) SetDebounce(d time.Duration) {
	if d > 0 {
		c.opts.Debounce = d
	}
}

// SetLimit changes the result cap for future searches.
func (c *Controller) SetLimit(n int) {
	if n > 0 {
		c.opts.Limit = n
	}
}

// OnInput re-evaluates the trigger after the surface or caret changed. With
// no trigger the popover closes; otherwise a search is scheduled.
func (c *Controller) OnInput(sel editor.Selection) {
	trig, ok := editor.FindTrigger(c.surface, sel)
	if !ok {
		if c.trigger != nil || c.state.Open {
			c.Close()
		}
		return
	}
	c.trigger = &trig
	if c.opts.Anchor != nil {
		c.state.Position = c.opts.Anchor(sel)
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	query := trig.Query
	c.timer = c.loop.AfterFunc(c.opts.Debounce, func() {
		c.timer = nil
		c.RunSearch(query)
	})
}

// RunSearch issues a search for query now. Results that arrive after a newer
// search started, or after the popover closed, are dropped.
func (c *Controller) RunSearch(query string) {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state.Query = query
	c.state.Loading = true
	c.changed()

	search := c.search
	limit := c.opts.Limit
	c.loop.Go(func() func() {
		items, err := callSearch(ctx, search, query, limit)
		return func() {
			cancel()
			if seq != c.seq {
				return
			}
			c.cancel = nil
			if err != nil {
				c.log.Debug("suggestion search failed", "query", query, "error", err)
				items = nil
			}
			if len(items) > limit {
				items = items[:limit]
			}
			c.state.Items = items
			c.state.FocusedIndex = -1
			if len(items) > 0 {
				c.state.FocusedIndex = 0
			}
			c.state.Open = true
			c.state.Loading = false
			c.changed()
		}
	})
}

func callSearch(ctx context.Context, search Searcher, query string, limit int) (items []types.SearchItem, err error) {
	if search == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("search panicked: %v", r)
		}
	}()
	return search(ctx, query, limit)
}

// OnKeyDown handles popover navigation and reports whether the key was
// consumed. Shift+Enter is never consumed so newlines keep working.
func (c *Controller) OnKeyDown(ev KeyEvent) bool {
	if !c.state.Open {
		return false
	}
	switch ev.Key {
	case KeyEscape:
		c.Close()
		return true
	case KeyUp:
		if c.state.FocusedIndex > 0 {
			c.state.FocusedIndex--
			c.changed()
		} else if len(c.state.Items) > 0 && c.state.FocusedIndex < 0 {
			c.state.FocusedIndex = 0
			c.changed()
		}
		return true
	case KeyDown:
		if c.state.FocusedIndex < len(c.state.Items)-1 {
			c.state.FocusedIndex++
			c.changed()
		}
		return true
	case KeyEnter:
		if ev.Shift {
			return false
		}
		idx := c.state.FocusedIndex
		if idx < 0 || idx >= len(c.state.Items) {
			return false
		}
		_, ok := c.Commit(c.state.Items[idx])
		return ok
	}
	return false
}

// Commit replaces the recorded trigger with a chip for item and closes the
// popover. Without a recorded trigger it does nothing and reports false.
func (c *Controller) Commit(item types.SearchItem) (editor.Selection, bool) {
	if c.trigger == nil || c.surface == nil {
		return editor.Selection{}, false
	}
	mention := item.Mention()
	sel, _, err := c.surface.InsertAtRange(c.trigger.Range, mention, editor.DisplayShort)
	if err != nil {
		c.log.Warn("commit suggestion", "mention", mention.Name, "error", err)
		c.Close()
		return editor.Selection{}, false
	}
	c.Close()
	if c.opts.OnCommit != nil {
		c.opts.OnCommit(mention, sel)
	}
	return sel, true
}

// Close hides the popover, cancels pending work and forgets the trigger.
func (c *Controller) Close() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.seq++
	c.trigger = nil
	c.state = State{FocusedIndex: -1}
	c.changed()
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.State())
	}
}
