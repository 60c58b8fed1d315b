package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/cams/internal/cams"
	"github.com/colonyops/cams/internal/core/config"
	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/lock"
	"github.com/colonyops/cams/internal/core/review"
	"github.com/colonyops/cams/internal/data/db"
	"github.com/colonyops/cams/pkg/tuitest"
)

func newTestApp(t *testing.T) *cams.App {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	cfg := config.DefaultConfig()
	cfg.Review.Debounce = 0
	app := cams.NewApp(&cfg, database, lock.NewMemoryRegistry())

	seed, err := cams.ReadSeedFile("../cams/testdata/seed.yaml")
	require.NoError(t, err)
	_, err = app.Seed(context.Background(), seed)
	require.NoError(t, err)
	return app
}

// newTestReview opens order-1 and runs the expansion synchronously.
func newTestReview(t *testing.T) (*reviewScreen, *commandQueue, *cams.App) {
	t.Helper()
	ctx := context.Background()
	app := newTestApp(t)

	order, err := app.PendingOrder(ctx, "order-1")
	require.NoError(t, err)

	q := newCommandQueue()
	r := newReviewScreen(ctx, app.NewReview(order, q, q.orderUpdated), defaultKeyMap())
	t.Cleanup(r.Close)

	r.orch.Expand(ctx)
	r.Update(expandedMsg{})
	flush(r, q)
	return r, q, app
}

// flush hands every queued command to the screen and returns the queued
// messages.
func flush(r *reviewScreen, q *commandQueue) []tea.Msg {
	msgs := q.drain()
	for _, m := range msgs {
		r.HandleCommand(m)
	}
	return msgs
}

var (
	runes = tuitest.Type
	space = tuitest.Key(tea.KeySpace)
	down  = tuitest.Key(tea.KeyDown)
	tab   = tuitest.Key(tea.KeyTab)
	enter = tuitest.Key(tea.KeyEnter)
)

func TestCommandQueue(t *testing.T) {
	q := newCommandQueue()

	q.SetControlDisabled(review.ControlApprove, false)
	q.StateChanged()

	msg := q.wait()()
	batch, ok := msg.(commandBatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	assert.Equal(t, controlMsg{control: review.ControlApprove, disabled: false}, batch[0])
	assert.Equal(t, stateChangedMsg{}, batch[1])

	assert.Empty(t, q.drain())
}

func TestCommandQueue_NeverBlocks(t *testing.T) {
	q := newCommandQueue()

	done := make(chan struct{})
	go func() {
		for range 100 {
			q.ClearSelectionWidgets()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pushing commands blocked")
	}
	assert.Len(t, q.drain(), 100)
}

func TestReviewScreen_ControlsStartDisabled(t *testing.T) {
	r, _, _ := newTestReview(t)

	assert.False(t, r.expanding)
	assert.True(t, r.state.IsDataEnhanced)
	assert.True(t, r.disabled[review.ControlApprove])
	assert.True(t, r.disabled[review.ControlReject])
	assert.Nil(t, r.press(review.ControlApprove))
	assert.Nil(t, r.confirm)
}

func TestReviewScreen_ApproveFlow(t *testing.T) {
	r, q, app := newTestReview(t)

	r.Update(space)
	r.Update(down)
	r.Update(space)
	r.Update(down)
	r.Update(space)
	r.Update(runes("l"))
	require.NotNil(t, r.state.LeadCase)
	assert.Equal(t, "081-23-10003", r.state.LeadCase.CaseID)

	r.Update(tab)
	r.Update(space)
	assert.Equal(t, consolidation.TypeAdministrative, r.state.ConsolidationType)

	flush(r, q)
	require.False(t, r.disabled[review.ControlApprove])

	r.Update(tuitest.Key(tea.KeyCtrlA))
	flush(r, q)
	require.NotNil(t, r.confirm)
	assert.Equal(t, consolidation.StatusApproved, r.confirm.ctx.Status)
	assert.Contains(t, tuitest.StripANSI(r.View()), "Approve consolidation")

	cmd := r.Update(enter)
	require.NotNil(t, cmd)
	done, ok := cmd().(submitDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	r.Update(done)
	assert.Nil(t, r.confirm)

	var updated *consolidation.Order
	for _, m := range flush(r, q) {
		if u, ok := m.(orderUpdatedMsg); ok {
			updated = &u.order
		}
	}
	require.NotNil(t, updated)
	assert.Equal(t, consolidation.StatusApproved, updated.Status)

	stored, err := app.Orders.Get(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, consolidation.StatusApproved, stored.Status)
	assert.Equal(t, consolidation.TypeAdministrative, stored.ConsolidationType)
}

func TestReviewScreen_RejectWithReason(t *testing.T) {
	r, q, app := newTestReview(t)

	r.Update(space)
	flush(r, q)
	r.Update(tuitest.Key(tea.KeyCtrlR))
	flush(r, q)
	require.NotNil(t, r.confirm)
	assert.True(t, r.CapturesKeys(), "the reason field takes key presses")

	r.Update(runes("dup"))
	assert.Equal(t, "dup", r.confirm.Result().RejectionReason)

	cmd := r.Update(enter)
	require.NotNil(t, cmd)
	done := cmd().(submitDoneMsg)
	require.NoError(t, done.err)

	orders, err := app.Orders.List(context.Background(), consolidation.StatusRejected)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "dup", orders[0].Reason)
	assert.Equal(t, []string{"081-23-10001"}, caseIDs(orders[0]))
}

func TestReviewScreen_CancelConfirmation(t *testing.T) {
	r, q, _ := newTestReview(t)

	r.Update(space)
	flush(r, q)
	r.Update(tuitest.Key(tea.KeyCtrlR))
	flush(r, q)
	require.NotNil(t, r.confirm)

	r.Update(tuitest.Key(tea.KeyEsc))
	assert.Nil(t, r.confirm)
	assert.True(t, r.state.IsSelected("081-23-10001"), "cancelling keeps the selection")
}

func TestReviewScreen_ClearResetsWidgets(t *testing.T) {
	r, q, _ := newTestReview(t)

	r.Update(space)
	r.setFocus(focusAddCourt)
	r.Update(runes("091"))
	flush(r, q)
	assert.Equal(t, "091", r.inputs[inputAddCourt].Value())

	r.Update(tuitest.Key(tea.KeyCtrlX))
	flush(r, q)

	assert.Empty(t, r.state.SelectedCases)
	assert.Empty(t, r.inputs[inputAddCourt].Value())
	assert.Equal(t, focusCases, r.focus)
}

func TestReviewScreen_AddCase(t *testing.T) {
	r, q, _ := newTestReview(t)

	r.setFocus(focusAddCourt)
	r.Update(runes("091"))
	r.setFocus(focusAddNumber)
	r.Update(runes("22-40001"))
	r.orch.Wait()
	flush(r, q)
	require.NotNil(t, r.state.CaseToAdd)
	assert.Contains(t, tuitest.StripANSI(r.View()), "Parent Co")

	r.Update(enter)
	assert.Len(t, r.order.ChildCases, 4)
	assert.Empty(t, r.inputs[inputAddNumber].Value())
}

func TestReviewScreen_ExternalLeadNotFound(t *testing.T) {
	r, q, _ := newTestReview(t)

	r.setFocus(focusLeadCourt)
	r.Update(runes("091"))
	r.setFocus(focusLeadNumber)
	r.Update(runes("22-99999"))
	r.orch.Wait()
	flush(r, q)

	assert.Equal(t, review.MsgCaseNotFound, r.state.LeadCaseNumberError)
	assert.Contains(t, tuitest.StripANSI(r.View()), review.MsgCaseNotFound)
}

func TestReviewScreen_LeadCourtDefaultsToSharedDivision(t *testing.T) {
	r, _, _ := newTestReview(t)

	r.setFocus(focusLeadCourt)
	assert.Empty(t, r.inputs[inputLeadCourt].Value(), "no selection, no suggestion")

	r.setFocus(focusCases)
	r.Update(space)
	r.Update(down)
	r.Update(space)
	r.setFocus(focusLeadCourt)

	assert.Equal(t, "081", r.inputs[inputLeadCourt].Value())
	assert.Equal(t, "081", r.state.LeadCaseCourt)
}

func TestReviewScreen_LeadCourtKeepsMarkedLead(t *testing.T) {
	r, _, _ := newTestReview(t)

	r.Update(space)
	r.Update(runes("l"))
	require.NotNil(t, r.state.LeadCase)

	r.setFocus(focusLeadCourt)
	assert.Empty(t, r.inputs[inputLeadCourt].Value())
	require.NotNil(t, r.state.LeadCase)
	assert.Equal(t, "081-23-10001", r.state.LeadCase.CaseID)
}

func TestReviewScreen_CaseNumberIsNormalized(t *testing.T) {
	r, _, _ := newTestReview(t)

	r.setFocus(focusAddNumber)
	r.Update(runes("2240001"))

	assert.Equal(t, "22-40001", r.inputs[inputAddNumber].Value())
	assert.Equal(t, "22-40001", r.state.AddCaseNumber)
}

func TestReviewScreen_AttorneysFormatted(t *testing.T) {
	r, _, _ := newTestReview(t)

	require.Equal(t, []string{"Jane Doe"}, r.order.ChildCases[0].AttorneyAssignments)
	assert.Contains(t, tuitest.StripANSI(r.View()), "(Jane Doe)")
}

func TestModel_OrderUpdatedReturnsToList(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	m := New(ctx, app, Opts{})

	order, err := app.PendingOrder(ctx, "order-1")
	require.NoError(t, err)
	m.Update(reviewReadyMsg{order: order})
	require.Equal(t, stateReview, m.state)
	require.NotNil(t, m.review)

	updated := order
	updated.Status = consolidation.StatusRejected
	m.Update(commandBatchMsg{orderUpdatedMsg{order: updated}})

	assert.Equal(t, stateOrders, m.state)
	assert.Nil(t, m.review)
	assert.True(t, m.toasts.HasToasts())
}

func TestModel_OrderList(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	m := New(ctx, app, Opts{})

	m.Update(tuitest.WindowSize(120, 40))
	m.Update(loadOrders(ctx, app)())

	o, ok := m.orders.Selected()
	require.True(t, ok)
	assert.Equal(t, "order-1", o.ID)

	view := tuitest.StripANSI(m.View())
	assert.Contains(t, view, "order-1")
	assert.Contains(t, view, "081-23-10002", "the preview lists the child cases")

	cmd := m.handleKey(enter)
	require.NotNil(t, cmd)
	ready, ok := cmd().(reviewReadyMsg)
	require.True(t, ok)
	require.NoError(t, ready.err)

	m.Update(ready)
	require.Equal(t, stateReview, m.state)
	m.closeReview()
}

func TestModel_OpenDecidedOrderShowsToast(t *testing.T) {
	m := New(context.Background(), newTestApp(t), Opts{})

	m.Update(reviewReadyMsg{err: assert.AnError})

	assert.Equal(t, stateOrders, m.state)
	assert.True(t, m.toasts.HasToasts())
}

func TestToastController(t *testing.T) {
	c := NewToastController()
	for i := range defaultMaxToasts + 1 {
		c.Push(toastInfo, string(rune('a'+i)))
	}
	require.Len(t, c.toasts, defaultMaxToasts)
	assert.Equal(t, "b", c.toasts[0].message, "oldest toast is evicted")

	require.NotNil(t, c.StartTicking())
	assert.Nil(t, c.StartTicking(), "only one tick loop runs")

	c.Tick(defaultToastTTL)
	assert.False(t, c.HasToasts())
	assert.Nil(t, c.HandleTick())
	assert.False(t, c.ticking)
}

func caseIDs(o consolidation.Order) []string {
	ids := make([]string, 0, len(o.ChildCases))
	for _, c := range o.ChildCases {
		ids = append(ids, c.CaseID)
	}
	return ids
}
