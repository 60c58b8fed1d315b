// Package tui implements the interactive reviewer interface: a list of
// consolidation orders and a review screen that drives the review
// orchestrator for one order at a time.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/colonyops/cams/internal/cams"
	"github.com/colonyops/cams/internal/core/logging"
	"github.com/colonyops/cams/internal/core/styles"
)

type appState int

const (
	stateOrders appState = iota
	stateReview
)

// Opts configures a TUI run.
type Opts struct {
	// OrderID opens the review screen for this order on start.
	OrderID string
}

// Model is the root bubbletea model.
type Model struct {
	opts  Opts
	ctx   context.Context
	app   *cams.App
	keys  keyMap
	help  help.Model
	queue *commandQueue
	log   zerolog.Logger

	state  appState
	orders ordersScreen
	review *reviewScreen
	toasts *ToastController

	width    int
	height   int
	showHelp bool
}

// New creates the root model. The theme named in the config is applied to
// the shared styles.
func New(ctx context.Context, app *cams.App, opts Opts) *Model {
	if p, ok := styles.GetPalette(app.Config.Theme); ok {
		styles.SetTheme(p)
	}

	return &Model{
		opts:   opts,
		ctx:    ctx,
		app:    app,
		keys:   defaultKeyMap(),
		help:   help.New(),
		queue:  newCommandQueue(),
		log:    logging.Component("tui"),
		orders: newOrdersScreen(),
		toasts: NewToastController(),
	}
}

// Run starts the program and blocks until the reviewer quits.
func Run(ctx context.Context, app *cams.App, opts Opts) error {
	m := New(ctx, app, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if m.review != nil {
		m.review.Close()
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadOrders(m.ctx, m.app), m.queue.wait()}
	if m.opts.OrderID != "" {
		cmds = append(cmds, openOrder(m.ctx, m.app, m.opts.OrderID))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.orders.SetSize(msg.Width, msg.Height-2)
		if m.review != nil {
			m.review.width = msg.Width
		}
		return m, nil

	case commandBatchMsg:
		cmds := []tea.Cmd{m.queue.wait()}
		for _, c := range msg {
			cmds = append(cmds, m.handleCommand(c))
		}
		return m, tea.Batch(cmds...)

	case stateChangedMsg:
		return m, m.handleCommand(msg)

	case ordersLoadedMsg:
		if msg.err != nil {
			m.log.Error().Err(msg.err).Msg("load orders")
			return m, m.pushToast(toastError, "Could not load orders.")
		}
		return m, m.orders.SetOrders(msg.orders)

	case reviewReadyMsg:
		if msg.err != nil {
			return m, m.pushToast(toastError, msg.err.Error())
		}
		return m, m.startReview(msg)

	case toastTickMsg:
		return m, m.toasts.HandleTick()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	if m.state == stateReview && m.review != nil {
		return m, m.review.Update(msg)
	}
	return m, m.orders.Update(msg)
}

func (m *Model) handleCommand(msg tea.Msg) tea.Cmd {
	if upd, ok := msg.(orderUpdatedMsg); ok {
		m.closeReview()
		text := fmt.Sprintf("Order %s %s.", upd.order.ID, upd.order.Status)
		return tea.Batch(m.pushToast(toastInfo, text), loadOrders(m.ctx, m.app))
	}
	if m.review != nil {
		m.review.HandleCommand(msg)
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	if m.state == stateReview && m.review != nil {
		if m.review.confirm == nil && key.Matches(msg, m.keys.Back) {
			m.closeReview()
			return loadOrders(m.ctx, m.app)
		}
		if !m.review.CapturesKeys() && key.Matches(msg, m.keys.Help) {
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return nil
		}
		return m.review.Update(msg)
	}

	if m.orders.Filtering() {
		return m.orders.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		return loadOrders(m.ctx, m.app)
	case key.Matches(msg, m.keys.Open):
		if o, ok := m.orders.Selected(); ok {
			return openOrder(m.ctx, m.app, o.ID)
		}
		return nil
	}
	return m.orders.Update(msg)
}

func (m *Model) startReview(msg reviewReadyMsg) tea.Cmd {
	m.closeReview()

	orch := m.app.NewReview(msg.order, m.queue, m.queue.orderUpdated)
	m.review = newReviewScreen(m.ctx, orch, m.keys)
	m.review.width = m.width
	m.state = stateReview

	m.log.Info().Str("order_id", msg.order.ID).Str("reviewer", m.app.Config.Reviewer).Msg("review started")
	return m.review.Init()
}

func (m *Model) closeReview() {
	if m.review != nil {
		m.review.Close()
		m.review = nil
	}
	m.state = stateOrders
	m.showHelp = false
	m.help.ShowAll = false
}

func (m *Model) pushToast(level toastLevel, text string) tea.Cmd {
	m.toasts.Push(level, text)
	return m.toasts.StartTicking()
}

func (m *Model) View() string {
	var body, helpView string
	if m.state == stateReview && m.review != nil {
		body = m.review.View()
		helpView = m.help.View(m.keys)
	} else {
		body = m.orders.View()
		helpView = styles.HelpStyle.Render("enter review • / filter • r refresh • q quit")
	}

	view := lipgloss.JoinVertical(lipgloss.Left, body, helpView)
	if m.toasts.HasToasts() {
		view = lipgloss.JoinVertical(lipgloss.Left, view, m.toasts.View())
	}
	return view
}
