// Package tui is the terminal feed reader: a topic-tabbed article list that
// loads further pages as the reader scrolls to the end.
package tui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/synapse-news/synapse-client/pkg/client"
	"github.com/synapse-news/synapse-client/pkg/feed"
)

// API is the part of the Synapse client the feed view uses.
type API interface {
	PreferredTopics(ctx context.Context) ([]client.Topic, error)
	ForYouNews(ctx context.Context, page, perPage int) (feed.Page[client.News], error)
	NewsByTopic(ctx context.Context, topicID int64, page, perPage int) (feed.Page[client.News], error)
	FavoriteNews(ctx context.Context, newsID int64) error
	AddNewsToHistory(ctx context.Context, newsID int64) error
}

// Config holds view settings.
type Config struct {
	PageSize     int
	FetchTimeout time.Duration
}

// tab is a feed selector. ID 0 is the For You feed.
type tab struct {
	ID   int64
	Name string
}

type (
	activateMsg struct{}
	feedMsg     struct{}
	topicsMsg   struct {
		topics []client.Topic
		err    error
	}
	actionMsg struct {
		status string
		err    error
	}
)

// chrome is the number of lines around the list: tabs, gap, status, help.
const (
	chrome       = 4
	linesPerItem = 2
)

// Model is the bubbletea model of the feed view.
type Model struct {
	ctx    context.Context
	api    API
	logger zerolog.Logger

	ctrl      *feed.Controller[client.News]
	observer  *ViewportObserver
	trigger   *feed.Trigger[int]
	topic     *atomic.Int64
	requested *atomic.Bool

	tabs   []tab
	active int
	snap   feed.Snapshot[client.News]

	cursor int
	top    int
	width  int
	height int

	// pending counts load commands not yet returned
	pending int
	ticking bool

	status    string
	actionErr string

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	styles  styles
}

// New builds the view. Loading starts with Init.
func New(ctx context.Context, api API, cfg Config) Model {
	topic := new(atomic.Int64)
	fetch := func(ctx context.Context, page, pageSize int) (feed.Page[client.News], error) {
		if id := topic.Load(); id != 0 {
			return api.NewsByTopic(ctx, id, page, pageSize)
		}
		return api.ForYouNews(ctx, page, pageSize)
	}

	logger := log.With().Str("component", "tui").Logger()
	fcfg := feed.DefaultConfig()
	if cfg.PageSize > 0 {
		fcfg.PageSize = cfg.PageSize
	}
	fcfg.FetchTimeout = cfg.FetchTimeout
	fcfg.Logger = &logger
	ctrl := feed.New(fetch, fcfg)

	requested := new(atomic.Bool)
	observer := NewViewportObserver()
	trigger := feed.NewTrigger[int](observer, ctrl, func() { requested.Store(true) })

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		api:       api,
		logger:    logger,
		ctrl:      ctrl,
		observer:  observer,
		trigger:   trigger,
		topic:     topic,
		requested: requested,
		tabs:      []tab{{Name: "For You"}},
		snap:      feed.Snapshot[client.News]{Page: 1, HasMore: true},
		spinner:   sp,
		help:      help.New(),
		keys:      defaultKeys(),
		styles:    defaultStyles(),
	}
}

// Init fetches the topic tabs and the first page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchTopics(), func() tea.Msg { return activateMsg{} })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, m.reveal()

	case activateMsg:
		ctrl, id := m.ctrl, m.topic.Load()
		return m, m.run(func(ctx context.Context) { ctrl.SetDependencies(ctx, id) })

	case feedMsg:
		if m.pending > 0 {
			m.pending--
		}
		return m, m.refresh()

	case topicsMsg:
		if msg.err != nil {
			m.actionErr = "Could not load topics: " + msg.err.Error()
			return m, nil
		}
		tabs := []tab{{Name: "For You"}}
		for _, t := range msg.topics {
			tabs = append(tabs, tab{ID: t.ID, Name: t.Name})
		}
		current := m.tabs[m.active].ID
		m.tabs, m.active = tabs, 0
		for i, t := range tabs {
			if t.ID == current {
				m.active = i
			}
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.actionErr = msg.err.Error()
			m.status = ""
		} else {
			m.status = msg.status
			m.actionErr = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.trigger.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.scroll()
		return m, m.reveal()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Items)-1 {
			m.cursor++
		}
		m.scroll()
		return m, m.reveal()

	case key.Matches(msg, m.keys.NextTab):
		return m, m.selectTab(m.active + 1)

	case key.Matches(msg, m.keys.PrevTab):
		return m, m.selectTab(m.active - 1)

	case key.Matches(msg, m.keys.Retry):
		if m.snap.Err == "" {
			return m, nil
		}
		return m, m.loadMore()

	case key.Matches(msg, m.keys.Save):
		return m, m.act(func(ctx context.Context, n client.News) (string, error) {
			return "Saved: " + n.Title, m.api.FavoriteNews(ctx, n.ID)
		})

	case key.Matches(msg, m.keys.Read):
		return m, m.act(func(ctx context.Context, n client.News) (string, error) {
			return "Marked as read: " + n.Title, m.api.AddNewsToHistory(ctx, n.ID)
		})
	}
	return m, nil
}

// selectTab switches the feed to tab i, wrapping around.
func (m *Model) selectTab(i int) tea.Cmd {
	if len(m.tabs) < 2 {
		return nil
	}
	i = (i%len(m.tabs) + len(m.tabs)) % len(m.tabs)
	m.active = i
	id := m.tabs[i].ID
	m.topic.Store(id)

	m.cursor, m.top = 0, 0
	m.snap = feed.Snapshot[client.News]{Page: 1, HasMore: true}
	m.status, m.actionErr = "", ""
	m.trigger.Close()

	ctrl := m.ctrl
	return m.run(func(ctx context.Context) { ctrl.SetDependencies(ctx, id) })
}

func (m *Model) loadMore() tea.Cmd {
	ctrl := m.ctrl
	return m.run(ctrl.LoadMore)
}

// run executes fn off the UI loop and reports back with a feedMsg.
func (m *Model) run(fn func(context.Context)) tea.Cmd {
	m.pending++
	ctx := m.ctx
	cmd := func() tea.Msg {
		fn(ctx)
		return feedMsg{}
	}
	if m.ticking {
		return cmd
	}
	m.ticking = true
	return tea.Batch(cmd, m.spinner.Tick)
}

// act runs fn on the selected article.
func (m *Model) act(fn func(context.Context, client.News) (string, error)) tea.Cmd {
	if len(m.snap.Items) == 0 {
		return nil
	}
	n := m.snap.Items[m.cursor]
	ctx := m.ctx
	return func() tea.Msg {
		status, err := fn(ctx, n)
		return actionMsg{status: status, err: err}
	}
}

func (m Model) fetchTopics() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		topics, err := api.PreferredTopics(ctx)
		return topicsMsg{topics: topics, err: err}
	}
}

// refresh copies the controller state into the view.
func (m *Model) refresh() tea.Cmd {
	m.snap = m.ctrl.Snapshot()
	if m.cursor >= len(m.snap.Items) {
		m.cursor = max(len(m.snap.Items)-1, 0)
	}
	m.scroll()
	return m.reveal()
}

// reveal binds the trigger to the last item and reports the visible rows.
// A request raised by the trigger becomes a load command.
func (m *Model) reveal() tea.Cmd {
	n := len(m.snap.Items)
	m.trigger.Ref(n)
	m.observer.Reveal(m.top+1, min(m.top+m.visibleItems(), n))

	if m.requested.Swap(false) {
		m.logger.Debug().Int("items", n).Msg("End of list visible, loading more")
		return m.loadMore()
	}
	return nil
}

// scroll keeps the cursor inside the window.
func (m *Model) scroll() {
	rows := m.visibleItems()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+rows {
		m.top = m.cursor - rows + 1
	}
	if m.top < 0 {
		m.top = 0
	}
}

func (m Model) visibleItems() int {
	if m.height == 0 {
		return 10
	}
	return max((m.height-chrome)/linesPerItem, 1)
}

func (m Model) loading() bool {
	return m.pending > 0 || m.snap.Loading
}

// Items returns the articles currently shown.
func (m Model) Items() []client.News {
	return m.snap.Items
}
