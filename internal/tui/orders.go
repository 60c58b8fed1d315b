package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/cams/internal/cams"
	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/styles"
)

type orderItem struct {
	order consolidation.Order
}

func (i orderItem) Title() string {
	return fmt.Sprintf("%s  %s", i.order.ID, styles.StatusStyle(string(i.order.Status)).Render(string(i.order.Status)))
}

func (i orderItem) Description() string {
	return fmt.Sprintf("%s · %s · %d cases", i.order.CourtName, i.order.OrderDate.Format("2006-01-02"), len(i.order.ChildCases))
}

func (i orderItem) FilterValue() string {
	ids := make([]string, 0, len(i.order.ChildCases)+1)
	ids = append(ids, i.order.ID)
	for _, c := range i.order.ChildCases {
		ids = append(ids, c.CaseID)
	}
	return strings.Join(ids, " ")
}

type ordersLoadedMsg struct {
	orders []consolidation.Order
	err    error
}

type reviewReadyMsg struct {
	order consolidation.Order
	err   error
}

func loadOrders(ctx context.Context, app *cams.App) tea.Cmd {
	return func() tea.Msg {
		orders, err := app.Orders.List(ctx, "")
		return ordersLoadedMsg{orders: orders, err: err}
	}
}

func openOrder(ctx context.Context, app *cams.App, id string) tea.Cmd {
	return func() tea.Msg {
		o, err := app.PendingOrder(ctx, id)
		return reviewReadyMsg{order: o, err: err}
	}
}

// ordersScreen lists consolidation orders next to a rendered preview of
// the highlighted one.
type ordersScreen struct {
	list      list.Model
	preview   string
	previewID string
	width     int
	height    int
}

func newOrdersScreen() ordersScreen {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Consolidation orders"
	l.Styles.Title = styles.TitleStyle
	l.SetShowHelp(false)
	return ordersScreen{list: l}
}

func (s *ordersScreen) SetOrders(orders []consolidation.Order) tea.Cmd {
	items := make([]list.Item, 0, len(orders))
	for _, o := range orders {
		items = append(items, orderItem{order: o})
	}
	s.previewID = ""
	return s.list.SetItems(items)
}

func (s *ordersScreen) SetSize(width, height int) {
	s.width, s.height = width, height
	s.list.SetSize(s.listWidth(), height)
	s.previewID = ""
}

func (s *ordersScreen) listWidth() int {
	return max(s.width*2/5, 30)
}

// Selected returns the highlighted order.
func (s *ordersScreen) Selected() (consolidation.Order, bool) {
	item, ok := s.list.SelectedItem().(orderItem)
	if !ok {
		return consolidation.Order{}, false
	}
	return item.order, true
}

// Filtering reports whether the list is capturing keys for its filter.
func (s *ordersScreen) Filtering() bool {
	return s.list.FilterState() == list.Filtering
}

func (s *ordersScreen) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return cmd
}

func (s *ordersScreen) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.list.View(), s.previewView())
}

func (s *ordersScreen) previewView() string {
	o, ok := s.Selected()
	if !ok {
		return styles.MutedStyle.Render("  No orders. Load some with `cams seed`.")
	}
	if o.ID != s.previewID {
		s.preview = renderMarkdown(cams.OrderMarkdown(o), s.width-s.listWidth()-2)
		s.previewID = o.ID
	}
	return lipgloss.NewStyle().PaddingLeft(2).MaxHeight(s.height).Render(s.preview)
}

func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
