package review

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/lock"
)

var (
	caseA = consolidation.OrderCase{CaseID: "081-23-10001", CaseTitle: "Acme Corp", CourtDivisionCode: "081", Chapter: "11"}
	caseB = consolidation.OrderCase{CaseID: "081-23-10002", CaseTitle: "Acme Holdings", CourtDivisionCode: "081", Chapter: "11"}
	caseC = consolidation.OrderCase{CaseID: "081-23-10003", CaseTitle: "Acme Logistics", CourtDivisionCode: "081", Chapter: "11"}
)

func testOrder() consolidation.Order {
	return consolidation.Order{
		ID:                "order-1",
		Status:            consolidation.StatusPending,
		CourtDivisionCode: "081",
		OrderDate:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ChildCases:        []consolidation.OrderCase{caseA, caseB, caseC},
	}
}

func summary(caseID, title string) consolidation.CaseSummary {
	return consolidation.CaseSummary{
		CaseID:            caseID,
		CaseTitle:         title,
		CourtDivisionCode: caseID[:3],
		Chapter:           "11",
	}
}

type fakeRegistry struct {
	mu           sync.Mutex
	cases        map[string]consolidation.CaseSummary
	associations map[string][]consolidation.Association
	summaryErr   map[string]error
	assocErr     map[string]error
	gates        map[string]chan struct{}
	calls        []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		cases:        map[string]consolidation.CaseSummary{},
		associations: map[string][]consolidation.Association{},
		summaryErr:   map[string]error{},
		assocErr:     map[string]error{},
		gates:        map[string]chan struct{}{},
	}
}

func (r *fakeRegistry) add(s consolidation.CaseSummary, assocs ...consolidation.Association) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases[s.CaseID] = s
	if len(assocs) > 0 {
		r.associations[s.CaseID] = assocs
	}
}

// gate makes lookups of caseID block until the returned channel is closed.
func (r *fakeRegistry) gate(caseID string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.gates[caseID] = ch
	return ch
}

func (r *fakeRegistry) summaryCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRegistry) GetCaseSummary(ctx context.Context, caseID string) (consolidation.CaseSummary, error) {
	r.mu.Lock()
	r.calls = append(r.calls, caseID)
	gate := r.gates[caseID]
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return consolidation.CaseSummary{}, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.summaryErr[caseID]; err != nil {
		return consolidation.CaseSummary{}, err
	}
	s, ok := r.cases[caseID]
	if !ok {
		return consolidation.CaseSummary{}, consolidation.ErrNotFound
	}
	return s, nil
}

func (r *fakeRegistry) GetCaseAssociations(_ context.Context, caseID string) ([]consolidation.Association, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.assocErr[caseID]; err != nil {
		return nil, err
	}
	return r.associations[caseID], nil
}

type fakeAssignments struct {
	mu    sync.Mutex
	names map[string][]string
	err   error
}

func (f *fakeAssignments) GetCaseAssignments(_ context.Context, caseID string) ([]consolidation.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []consolidation.Assignment
	for _, n := range f.names[caseID] {
		out = append(out, consolidation.Assignment{CaseID: caseID, Name: n, Role: "TrialAttorney"})
	}
	return out, nil
}

type fakeOrders struct {
	mu        sync.Mutex
	decisions []consolidation.Decision
	err       error
	entered   chan struct{}
	release   chan struct{}
}

func (f *fakeOrders) SubmitDecision(ctx context.Context, orderID string, d consolidation.Decision) (consolidation.Order, error) {
	f.mu.Lock()
	f.decisions = append(f.decisions, d)
	entered, release, err := f.entered, f.release, f.err
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return consolidation.Order{}, ctx.Err()
		}
	}
	if err != nil {
		return consolidation.Order{}, err
	}

	order := testOrder()
	order.ID = orderID
	order.Status = d.Status
	order.ConsolidationType = d.ConsolidationType
	order.Reason = d.RejectionReason
	return order, nil
}

func (f *fakeOrders) submitted() []consolidation.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]consolidation.Decision(nil), f.decisions...)
}

// fakeUI records every command. StateChanged snapshots the lead case so
// tests can prove a stale lookup result was never applied.
type fakeUI struct {
	mu            sync.Mutex
	container     *Container
	disabled      map[Control]bool
	confirmations []ConfirmationContext
	errors        []string
	clears        int
	leadsSeen     []string
}

func newFakeUI() *fakeUI {
	return &fakeUI{disabled: map[Control]bool{}}
}

func (u *fakeUI) SetControlDisabled(c Control, disabled bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.disabled[c] = disabled
}

func (u *fakeUI) ShowConfirmation(ctx ConfirmationContext) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.confirmations = append(u.confirmations, ctx)
}

func (u *fakeUI) ShowConfirmationError(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errors = append(u.errors, msg)
}

func (u *fakeUI) ClearSelectionWidgets() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.clears++
}

func (u *fakeUI) StateChanged() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.container == nil {
		return
	}
	if lead := u.container.LeadCase(); lead != nil {
		u.leadsSeen = append(u.leadsSeen, lead.CaseID)
	}
}

func (u *fakeUI) isDisabled(c Control) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.disabled[c]
}

func (u *fakeUI) confirmationErrors() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.errors...)
}

func (u *fakeUI) leads() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.leadsSeen...)
}

type harness struct {
	o           *Orchestrator
	registry    *fakeRegistry
	assignments *fakeAssignments
	orders      *fakeOrders
	ui          *fakeUI
	updates     []consolidation.Order
	updatesMu   sync.Mutex
}

func (h *harness) orderUpdates() []consolidation.Order {
	h.updatesMu.Lock()
	defer h.updatesMu.Unlock()
	return append([]consolidation.Order(nil), h.updates...)
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()

	h := &harness{
		registry:    newFakeRegistry(),
		assignments: &fakeAssignments{names: map[string][]string{}},
		orders:      &fakeOrders{},
		ui:          newFakeUI(),
	}

	opts := Options{
		Registry:    h.registry,
		Assignments: h.assignments,
		Orders:      h.orders,
		UI:          h.ui,
		Locks:       lock.NewMemoryRegistry(),
		OnOrderUpdate: func(o consolidation.Order) {
			h.updatesMu.Lock()
			defer h.updatesMu.Unlock()
			h.updates = append(h.updates, o)
		},
		LookupTimeout: 5 * time.Second,
	}
	for _, fn := range mutate {
		fn(&opts)
	}

	h.o = New(testOrder(), opts)
	h.ui.mu.Lock()
	h.ui.container = h.o.Container()
	h.ui.mu.Unlock()

	t.Cleanup(func() {
		h.o.Close()
		h.o.Wait()
	})
	return h
}
