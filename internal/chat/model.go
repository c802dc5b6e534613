package chat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"golang.org/x/time/rate"

	"github.com/adamavenir/confab/internal/api"
	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/db"
	"github.com/adamavenir/confab/internal/editor"
	"github.com/adamavenir/confab/internal/push"
	"github.com/adamavenir/confab/internal/store"
	"github.com/adamavenir/confab/internal/suggest"
	"github.com/adamavenir/confab/internal/types"
)

// Options configure chat.
type Options struct {
	Client         *api.Client
	DB             *sql.DB
	Config         core.Config
	ConfigPath     string
	ConversationID string
	Metrics        *push.Metrics
	Logger         *slog.Logger
}

// Run starts the chat UI and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	l := newTeaLoop()
	model := NewModel(opts, l)
	defer model.Close()

	fmt.Printf("\033]0;%s\007", "confab")

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	l.attach(program.Send)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := core.WatchConfig(watchCtx, opts.ConfigPath, func(cfg core.Config, err error) {
		program.Send(configMsg{cfg: cfg, err: err})
	}); err != nil {
		model.log.Warn("config watch unavailable", "error", err)
	}

	_, err := program.Run()
	return err
}

// Model implements the chat UI.
type Model struct {
	client  *api.Client
	db      *sql.DB
	cfg     core.Config
	log     *slog.Logger
	loop    *teaLoop
	limiter *rate.Limiter

	store   *store.Store
	push    *push.Manager
	suggest *suggest.Controller
	surface *editor.Surface
	sel     editor.Selection
	popover suggest.State

	conversations []types.Conversation
	convIndex     int
	initialID     string
	sidebarOpen   bool
	sidebarFocus  bool

	viewport            viewport.Model
	spinner             spinner.Model
	zoneManager         *zone.Manager
	rendered            map[string]string
	renderedWidth       int
	width               int
	height              int
	status              string
	connState           types.ConnectionState
	connErr             error
	focused             bool
	pendingScrollBottom bool
	highlightTicking    bool
}

// NewModel wires the chat core to the UI. l must be the loop the program
// delivers messages for.
func NewModel(opts Options, l *teaLoop) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	m := &Model{
		client:      opts.Client,
		db:          opts.DB,
		cfg:         cfg,
		log:         logger,
		loop:        l,
		limiter:     rate.NewLimiter(rate.Limit(cfg.SearchRate), cfg.SearchBurst),
		store:       store.New(logger),
		surface:     editor.New(),
		initialID:   opts.ConversationID,
		sidebarOpen: true,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		zoneManager: zone.New(),
		rendered:    make(map[string]string),
		connState:   types.ConnectionDisconnected,
		focused:     true,
	}
	m.sel = editor.Caret(m.surface.Start())

	var recents suggest.Recents
	if opts.DB != nil {
		recents = db.MentionHistory{DB: opts.DB}
	}
	var search suggest.Searcher = func(ctx context.Context, query string, limit int) ([]types.SearchItem, error) {
		return nil, fmt.Errorf("search unavailable")
	}
	if opts.Client != nil {
		search = opts.Client.SearchEntities
	}
	m.suggest = suggest.New(l, m.surface, suggest.WithRecents(suggest.Throttled(search, m.limiter), recents), suggest.Options{
		Debounce: cfg.Debounce(),
		Limit:    cfg.SearchLimit,
		Anchor:   m.anchor,
		OnCommit: m.mentionCommitted,
		OnChange: func(st suggest.State) { m.popover = st },
		Logger:   logger,
	})

	var dial push.Dialer
	if opts.Client != nil {
		dial = opts.Client.Dial
	}
	m.push = push.NewManager(l, push.Options{
		Dialer:    dial,
		Metrics:   opts.Metrics,
		Logger:    logger,
		OnMessage: m.pushReceived,
		OnState: func(state types.ConnectionState, err error) {
			m.connState = state
			switch {
			case err != nil:
				m.connErr = err
			case state == types.ConnectionConnected:
				m.connErr = nil
			}
		},
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadConversationsCmd(), m.spinner.Tick)
}

const recentMentionsKept = 200

// Close saves the draft, trims the mention history and releases the push
// connection.
func (m *Model) Close() {
	m.saveDraft()
	if m.db != nil {
		if _, err := db.PruneMentions(m.db, recentMentionsKept); err != nil {
			m.log.Warn("prune recent mentions", "error", err)
		}
	}
	m.suggest.Close()
	m.push.Close()
}

// mentionCommitted moves the caret after a committed chip and remembers the
// mention for later suggestions.
func (m *Model) mentionCommitted(mention types.Mention, sel editor.Selection) {
	m.sel = sel
	if m.db != nil {
		if err := db.RecordMention(m.db, mention, time.Now()); err != nil {
			m.log.Warn("record mention", "mention", mention.Name, "error", err)
		}
	}
}

func (m *Model) pushReceived(conversationID string, msg types.Message) {
	if conversationID != m.store.ConversationID() {
		return
	}
	if !m.store.ReceivePush(msg) {
		return
	}
	m.pendingScrollBottom = m.viewport.AtBottom() || msg.Type == types.MessageTypeUser
}

func (m *Model) activeConversation() (types.Conversation, bool) {
	id := m.store.ConversationID()
	for _, conv := range m.conversations {
		if conv.ID == id {
			return conv, true
		}
	}
	return types.Conversation{}, false
}
