package review

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/lock"
	"github.com/colonyops/cams/internal/core/logging"
)

var (
	// ErrSubmissionInProgress is returned by ConfirmAction while another
	// submission for the same order is outstanding.
	ErrSubmissionInProgress = errors.New("submission already in progress")
	// ErrSessionClosed is returned by ConfirmAction after Close.
	ErrSessionClosed = errors.New("review session closed")
	// ErrInvalidDecision is returned when the confirmed decision does not
	// satisfy the approval or rejection requirements.
	ErrInvalidDecision = errors.New("invalid decision")
)

// Reviewer-facing messages.
const (
	MsgInvalidCaseNumber   = "Enter a 3-character court and a case number formatted as NN-NNNNN."
	MsgCaseNotFound        = "We couldn't find a case with that number."
	MsgCannotVerify        = "Cannot verify case number."
	MsgLeadAlreadyInOrder  = "This case is already part of this consolidation. Select it from the case list instead."
	MsgCaseAlreadyIncluded = "This case is already included in the consolidation."
	MsgSubmissionFailed    = "An unknown error has occurred and has been logged.  Please try again later."
)

const (
	defaultLookupTimeout = 10 * time.Second
	enhanceConcurrency   = 4
)

// Options configures an Orchestrator.
type Options struct {
	Registry    consolidation.CaseRegistry
	Assignments consolidation.AssignmentService
	Orders      consolidation.OrderService
	UI          UICommands

	// Locks guards submissions. A process-local registry is used when nil.
	Locks lock.Registry

	// OnOrderUpdate is called once per successful submission.
	OnOrderUpdate func(consolidation.Order)

	Debounce      time.Duration
	LookupTimeout time.Duration
}

// Orchestrator drives the review of one consolidation order.
//
// All state mutations happen under mu. Lookups run on their own goroutines
// and never hold mu while waiting on a service. Each debounced lookup
// captures a generation when it is issued; its result is applied only if no
// newer lookup has been issued and the input has not changed since.
type Orchestrator struct {
	mu     sync.Mutex
	order  consolidation.Order
	state  *Container
	closed bool

	ui            UICommands
	registry      consolidation.CaseRegistry
	assignments   consolidation.AssignmentService
	orders        consolidation.OrderService
	submitLock    lock.Mutex
	onOrderUpdate func(consolidation.Order)
	lookupTimeout time.Duration

	leadDebounce *Debouncer
	addDebounce  *Debouncer
	leadSeq      Sequence
	addSeq       Sequence
	inflight     pending

	log zerolog.Logger
}

// New creates an orchestrator for order with an empty review state.
func New(order consolidation.Order, opts Options) *Orchestrator {
	ui := opts.UI
	if ui == nil {
		ui = NopCommands{}
	}
	locks := opts.Locks
	if locks == nil {
		locks = lock.NewMemoryRegistry()
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}

	order.ChildCases = slices.Clone(order.ChildCases)

	o := &Orchestrator{
		order:         order,
		state:         NewContainer(),
		ui:            ui,
		registry:      opts.Registry,
		assignments:   opts.Assignments,
		orders:        opts.Orders,
		submitLock:    locks.Register("consolidation:" + order.ID),
		onOrderUpdate: opts.OnOrderUpdate,
		lookupTimeout: timeout,
		leadDebounce:  NewDebouncer(opts.Debounce),
		addDebounce:   NewDebouncer(opts.Debounce),
		log:           logging.ForOrder("review", order.ID),
	}

	o.mu.Lock()
	o.updateSubmitButtonsLocked()
	o.mu.Unlock()

	return o
}

// State returns a snapshot of the review state.
func (o *Orchestrator) State() State {
	return o.state.Snapshot()
}

// Container exposes the state container for synchronous reads by the view.
func (o *Orchestrator) Container() *Container {
	return o.state
}

// Order returns a copy of the order under review, including cases added
// during the review.
func (o *Orchestrator) Order() consolidation.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.order
	out.ChildCases = slices.Clone(o.order.ChildCases)
	return out
}

// Controls evaluates the submit controls against the current state.
func (o *Orchestrator) Controls() Controls {
	return EvaluateControls(o.state.Snapshot())
}

// Wait blocks until scheduled validations have fired and every lookup they
// issued has resolved. Input changes made while Wait runs may not be covered.
func (o *Orchestrator) Wait() {
	o.leadDebounce.Wait()
	o.addDebounce.Wait()
	o.inflight.wait()
}

// Expand enriches the child cases with assignments and existing
// consolidation associations. Assignment failures are ignored; if any
// association lookup fails the order is marked as not enhanced.
func (o *Orchestrator) Expand(ctx context.Context) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	cases := slices.Clone(o.order.ChildCases)
	o.mu.Unlock()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		enhanced = true
	)
	g.SetLimit(enhanceConcurrency)

	for i := range cases {
		c := &cases[i]
		g.Go(func() error {
			attorneys := consolidation.FetchAttorneysForCase(ctx, o.assignments, c.CaseID)
			associations, err := o.registry.GetCaseAssociations(ctx, c.CaseID)

			mu.Lock()
			defer mu.Unlock()
			c.AttorneyAssignments = attorneys
			if err != nil {
				o.log.Warn().Err(err).Str("case_id", c.CaseID).Msg("association lookup failed")
				enhanced = false
				return nil
			}
			c.IsLeadCase = consolidation.IsLeadCase(c.CaseID, associations)
			c.IsMemberCase = consolidation.IsMemberCase(c.CaseID, associations)
			return nil
		})
	}
	_ = g.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	byID := make(map[string]consolidation.OrderCase, len(cases))
	for _, c := range cases {
		byID[c.CaseID] = c
	}
	for i, c := range o.order.ChildCases {
		if enriched, ok := byID[c.CaseID]; ok {
			o.order.ChildCases[i] = enriched
		}
	}

	o.state.Update(func(s *State) {
		for i, c := range s.SelectedCases {
			if enriched, ok := byID[c.CaseID]; ok {
				s.SelectedCases[i] = enriched
			}
		}
		if s.LeadCase != nil {
			if enriched, ok := byID[s.LeadCase.CaseID]; ok {
				s.LeadCase = &enriched
				s.LeadCaseAttorneys = slices.Clone(enriched.AttorneyAssignments)
			}
		}
		s.IsDataEnhanced = enhanced
	})

	o.updateSubmitButtonsLocked()
	o.ui.StateChanged()
}

// IncludeCase toggles c in the selection. Removing the current lead case
// also clears the lead case and the consolidation type.
func (o *Orchestrator) IncludeCase(c consolidation.OrderCase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		o.log.Warn().Str("case_id", c.CaseID).Msg("include case on closed session")
		return
	}

	child, ok := o.order.ChildCase(c.CaseID)
	if !ok {
		o.log.Warn().Str("case_id", c.CaseID).Msg("include case: not a child case of the order")
		return
	}

	o.state.Update(func(s *State) {
		idx := slices.IndexFunc(s.SelectedCases, func(sc consolidation.OrderCase) bool {
			return sc.CaseID == child.CaseID
		})
		if idx < 0 {
			s.SelectedCases = append(s.SelectedCases, child)
			return
		}

		s.SelectedCases = slices.Delete(s.SelectedCases, idx, idx+1)
		if s.LeadCase != nil && s.LeadCase.CaseID == child.CaseID {
			s.LeadCase = nil
			s.LeadCaseAttorneys = nil
			s.ConsolidationType = ""
		}
	})

	o.updateSubmitButtonsLocked()
}

// SelectAll selects every child case of the order.
func (o *Orchestrator) SelectAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	cases := slices.Clone(o.order.ChildCases)
	o.state.Update(func(s *State) { s.SelectedCases = cases })
	o.updateSubmitButtonsLocked()
}

// MarkLeadCase makes c the lead case if it is selected. Otherwise nothing
// changes. Any lead case entered by number is discarded.
func (o *Orchestrator) MarkLeadCase(c consolidation.OrderCase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	snap := o.state.Snapshot()
	idx := slices.IndexFunc(snap.SelectedCases, func(sc consolidation.OrderCase) bool {
		return sc.CaseID == c.CaseID
	})
	if idx < 0 {
		o.log.Debug().Str("case_id", c.CaseID).Msg("mark lead case: case is not selected")
		return
	}
	lead := snap.SelectedCases[idx]

	o.leadSeq.Next()
	o.leadDebounce.Stop()
	o.state.Update(func(s *State) {
		s.LeadCase = &lead
		s.LeadCaseAttorneys = slices.Clone(lead.AttorneyAssignments)
		s.LeadCaseCourt = ""
		s.LeadCaseNumber = ""
		s.IsValidatingLeadCaseNumber = false
		s.FoundValidCaseNumber = false
		s.LeadCaseNumberError = ""
	})

	o.updateSubmitButtonsLocked()
}

// SelectConsolidationType sets the consolidation type.
func (o *Orchestrator) SelectConsolidationType(t consolidation.Type) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	if t != "" {
		if _, err := consolidation.ParseType(string(t)); err != nil {
			o.log.Warn().Err(err).Msg("select consolidation type")
			return
		}
	}

	o.state.SetConsolidationType(t)
	o.updateSubmitButtonsLocked()
}

// SelectLeadCaseCourt records the court of a lead case entered by number
// and schedules validation.
func (o *Orchestrator) SelectLeadCaseCourt(court string) {
	o.leadCaseInputChanged(func(s *State) { s.LeadCaseCourt = court })
}

// LeadCaseNumberChanged records the case number of a lead case entered by
// number and schedules validation.
func (o *Orchestrator) LeadCaseNumberChanged(number string) {
	o.leadCaseInputChanged(func(s *State) { s.LeadCaseNumber = number })
}

func (o *Orchestrator) leadCaseInputChanged(apply func(s *State)) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	// Supersede any lookup issued for the previous input.
	gen := o.leadSeq.Next()

	var number string
	o.state.Update(func(s *State) {
		apply(s)
		number = s.LeadCaseNumber
		s.LeadCase = nil
		s.LeadCaseAttorneys = nil
		s.IsValidatingLeadCaseNumber = false
		s.FoundValidCaseNumber = false
		s.LeadCaseNumberError = ""
	})
	o.updateSubmitButtonsLocked()
	o.mu.Unlock()

	if number == "" {
		o.leadDebounce.Stop()
		return
	}
	o.leadDebounce.Trigger(func() { o.validateLeadCase(gen) })
}

// validateLeadCase issues a lookup for the lead case currently entered. It
// does nothing if anything has superseded gen since the validation was
// scheduled.
func (o *Orchestrator) validateLeadCase(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if !o.leadSeq.IsCurrent(gen) {
		o.log.Debug().Uint64("gen", gen).Msg("lead case input superseded before validation")
		return
	}

	snap := o.state.Snapshot()
	seq := o.leadSeq.Next()

	caseID := consolidation.ComputeLeadCaseID(snap.LeadCaseCourt, snap.LeadCaseNumber)
	var admissionMsg string
	switch {
	case caseID == "":
		admissionMsg = MsgInvalidCaseNumber
	case o.order.HasChildCase(caseID):
		admissionMsg = MsgLeadAlreadyInOrder
	}
	if admissionMsg != "" {
		o.state.Update(func(s *State) {
			s.LeadCase = nil
			s.LeadCaseAttorneys = nil
			s.IsValidatingLeadCaseNumber = false
			s.FoundValidCaseNumber = false
			s.LeadCaseNumberError = admissionMsg
		})
		o.updateSubmitButtonsLocked()
		o.ui.StateChanged()
		return
	}

	o.state.SetIsValidatingLeadCaseNumber(true)
	o.updateSubmitButtonsLocked()
	o.ui.StateChanged()

	o.log.Debug().Str("case_id", caseID).Uint64("seq", seq).Msg("lead case lookup issued")

	o.inflight.add()
	go func() {
		defer o.inflight.done()
		res := o.lookupCase(caseID)
		o.applyLeadCaseResult(seq, res)
	}()
}

func (o *Orchestrator) applyLeadCaseResult(seq uint64, res caseLookup) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.leadSeq.IsCurrent(seq) {
		o.log.Debug().Uint64("seq", seq).Uint64("current", o.leadSeq.Current()).Msg("discarding stale lead case lookup")
		return
	}

	o.state.Update(func(s *State) {
		s.IsValidatingLeadCaseNumber = false
		if res.err != nil {
			s.LeadCase = nil
			s.LeadCaseAttorneys = nil
			s.FoundValidCaseNumber = false
			s.LeadCaseNumberError = res.err.Message
			return
		}
		lead := res.found
		if o.order.HasChildCase(lead.CaseID) {
			s.LeadCase = nil
			s.LeadCaseAttorneys = nil
			s.FoundValidCaseNumber = false
			s.LeadCaseNumberError = MsgLeadAlreadyInOrder
			return
		}
		s.LeadCase = &lead
		s.LeadCaseAttorneys = slices.Clone(lead.AttorneyAssignments)
		s.FoundValidCaseNumber = true
		s.LeadCaseNumberError = ""
	})

	o.updateSubmitButtonsLocked()
	o.ui.StateChanged()
}

// AddCaseCourtChanged records the court of a case to add and schedules
// verification.
func (o *Orchestrator) AddCaseCourtChanged(court string) {
	o.addCaseInputChanged(func(s *State) { s.AddCaseCourt = court })
}

// AddCaseNumberChanged records the number of a case to add and schedules
// verification.
func (o *Orchestrator) AddCaseNumberChanged(number string) {
	o.addCaseInputChanged(func(s *State) { s.AddCaseNumber = number })
}

func (o *Orchestrator) addCaseInputChanged(apply func(s *State)) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	gen := o.addSeq.Next()

	var number string
	o.state.Update(func(s *State) {
		apply(s)
		number = s.AddCaseNumber
		s.CaseToAdd = nil
		s.IsLookingForCase = false
		s.AddCaseNumberError = ""
	})
	o.mu.Unlock()

	if number == "" {
		o.addDebounce.Stop()
		return
	}
	o.addDebounce.Trigger(func() { o.verifyEnteredCase(gen) })
}

// VerifyCaseCanBeAdded records court and number as the case to add and
// immediately checks that it can join the order.
func (o *Orchestrator) VerifyCaseCanBeAdded(court, number string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.addDebounce.Stop()
	gen := o.addSeq.Next()
	o.state.Update(func(s *State) {
		s.AddCaseCourt = court
		s.AddCaseNumber = number
	})
	o.mu.Unlock()

	o.verifyEnteredCase(gen)
}

// verifyEnteredCase issues a lookup for the case to add. Like
// validateLeadCase it is a no-op once gen has been superseded.
func (o *Orchestrator) verifyEnteredCase(gen uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if !o.addSeq.IsCurrent(gen) {
		o.log.Debug().Uint64("gen", gen).Msg("add case input superseded before verification")
		return
	}

	snap := o.state.Snapshot()
	seq := o.addSeq.Next()

	caseID := consolidation.ComputeLeadCaseID(snap.AddCaseCourt, snap.AddCaseNumber)
	var admissionMsg string
	switch {
	case caseID == "":
		admissionMsg = MsgInvalidCaseNumber
	case o.order.HasChildCase(caseID):
		admissionMsg = MsgCaseAlreadyIncluded
	}
	if admissionMsg != "" {
		o.state.Update(func(s *State) {
			s.CaseToAdd = nil
			s.IsLookingForCase = false
			s.AddCaseNumberError = admissionMsg
		})
		o.ui.StateChanged()
		return
	}

	o.state.Update(func(s *State) {
		s.CaseToAdd = nil
		s.IsLookingForCase = true
		s.AddCaseNumberError = ""
	})
	o.ui.StateChanged()

	o.log.Debug().Str("case_id", caseID).Uint64("seq", seq).Msg("add case lookup issued")

	o.inflight.add()
	go func() {
		defer o.inflight.done()
		res := o.lookupCase(caseID)
		o.applyAddCaseResult(seq, res)
	}()
}

func (o *Orchestrator) applyAddCaseResult(seq uint64, res caseLookup) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || !o.addSeq.IsCurrent(seq) {
		o.log.Debug().Uint64("seq", seq).Msg("discarding stale add case lookup")
		return
	}

	o.state.Update(func(s *State) {
		s.IsLookingForCase = false
		if res.err != nil {
			s.CaseToAdd = nil
			s.AddCaseNumberError = res.err.Message
			return
		}
		found := res.found
		found.DocketEntries = nil
		s.CaseToAdd = &found
		s.AddCaseNumberError = ""
	})
	o.ui.StateChanged()
}

// AddCase appends the verified case to the order's child cases. A case that
// already leads another consolidation, or that was entered as the external
// lead case, is selected and becomes the lead from within the order.
// It returns false when no verified case is pending.
func (o *Orchestrator) AddCase() (consolidation.OrderCase, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return consolidation.OrderCase{}, false
	}

	candidate := o.state.CaseToAdd()
	if candidate == nil || o.order.HasChildCase(candidate.CaseID) {
		return consolidation.OrderCase{}, false
	}
	added := *candidate
	current := o.state.LeadCase()
	promote := added.IsLeadCase || (current != nil && current.CaseID == added.CaseID)

	o.order.ChildCases = append(o.order.ChildCases, added)
	o.addSeq.Next()
	o.addDebounce.Stop()
	o.state.Update(func(s *State) {
		s.AddCaseCourt = ""
		s.AddCaseNumber = ""
		s.CaseToAdd = nil
		s.IsLookingForCase = false
		s.AddCaseNumberError = ""

		if promote {
			if !s.IsSelected(added.CaseID) {
				s.SelectedCases = append(s.SelectedCases, added)
			}
			lead := added
			s.LeadCase = &lead
			s.LeadCaseAttorneys = slices.Clone(added.AttorneyAssignments)
			s.LeadCaseCourt = ""
			s.LeadCaseNumber = ""
			s.LeadCaseNumberError = ""
			s.FoundValidCaseNumber = false
			s.IsValidatingLeadCaseNumber = false
		}
	})
	if promote {
		o.leadSeq.Next()
		o.leadDebounce.Stop()
	}

	o.log.Info().Str("case_id", added.CaseID).Msg("case added to order")

	o.updateSubmitButtonsLocked()
	o.ui.StateChanged()
	return added, true
}

// ResetAddCase clears the add-case inputs and any pending verification.
func (o *Orchestrator) ResetAddCase() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	o.addSeq.Next()
	o.addDebounce.Stop()
	o.state.Update(func(s *State) {
		s.AddCaseCourt = ""
		s.AddCaseNumber = ""
		s.CaseToAdd = nil
		s.IsLookingForCase = false
		s.AddCaseNumberError = ""
	})
	o.ui.StateChanged()
}

// UpdateSubmitButtonsState pushes the enabled state of the submit controls.
func (o *Orchestrator) UpdateSubmitButtonsState() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updateSubmitButtonsLocked()
}

func (o *Orchestrator) updateSubmitButtonsLocked() {
	c := EvaluateControls(o.state.Snapshot())
	o.ui.SetControlDisabled(ControlApprove, !c.Approve)
	o.ui.SetControlDisabled(ControlReject, !c.Reject)
	o.ui.SetControlDisabled(ControlClear, !c.Clear)
}

// RequestApproval opens the confirmation surface for an approval.
func (o *Orchestrator) RequestApproval() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	s := o.state.Snapshot()
	if !EvaluateControls(s).Approve {
		o.log.Debug().Msg("approval requested while approve is disabled")
		return
	}

	t := s.ConsolidationType
	o.ui.ShowConfirmation(ConfirmationContext{
		SelectedCases:     s.SelectedCases,
		LeadCase:          s.LeadCase,
		LeadCaseAttorneys: s.LeadCaseAttorneys,
		Status:            consolidation.StatusApproved,
		ConsolidationType: &t,
	})
}

// RequestRejection opens the confirmation surface for a rejection.
func (o *Orchestrator) RequestRejection() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	s := o.state.Snapshot()
	if !EvaluateControls(s).Reject {
		o.log.Debug().Msg("rejection requested while reject is disabled")
		return
	}

	o.ui.ShowConfirmation(ConfirmationContext{
		SelectedCases: s.SelectedCases,
		LeadCase:      s.LeadCase,
		Status:        consolidation.StatusRejected,
	})
}

// ConfirmAction submits the confirmed decision. Only one submission per
// order runs at a time; a call made while one is outstanding returns
// ErrSubmissionInProgress without submitting.
//
// On success the review state is reset and OnOrderUpdate is called with the
// updated order. On failure the selection, lead case and consolidation type
// are kept so the reviewer can retry, and the failure is reported through
// ShowConfirmationError.
func (o *Orchestrator) ConfirmAction(ctx context.Context, result ConfirmActionResult) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrSessionClosed
	}

	s := o.state.Snapshot()
	if s.IsProcessing {
		o.mu.Unlock()
		o.log.Warn().Msg("confirm ignored: submission in progress")
		return ErrSubmissionInProgress
	}

	decision, err := buildDecision(s, result)
	if err != nil {
		o.ui.ShowConfirmationError(err.Error())
		o.mu.Unlock()
		return err
	}

	ticket, err := o.submitLock.TryLock(ctx)
	if err != nil {
		o.mu.Unlock()
		if errors.Is(err, lock.ErrLocked) {
			o.log.Warn().Msg("confirm ignored: order locked by another submission")
			return ErrSubmissionInProgress
		}
		o.ui.ShowConfirmationError(MsgSubmissionFailed)
		return fmt.Errorf("acquire submission lock: %w", err)
	}

	o.state.SetIsProcessing(true)
	o.updateSubmitButtonsLocked()
	orderID := o.order.ID
	o.mu.Unlock()

	o.log.Info().Ctx(ctx).
		Str("status", string(decision.Status)).
		Strs("case_ids", decision.CaseIDs).
		Msg("submitting consolidation decision")

	updated, submitErr := o.orders.SubmitDecision(ctx, orderID, decision)

	o.mu.Lock()
	if err := o.submitLock.Unlock(context.WithoutCancel(ctx), ticket); err != nil {
		o.log.Warn().Err(err).Msg("release submission lock")
	}
	o.state.SetIsProcessing(false)

	if submitErr != nil {
		o.log.Error().Ctx(ctx).Err(submitErr).Msg("consolidation decision failed")
		o.ui.ShowConfirmationError(MsgSubmissionFailed)
		o.updateSubmitButtonsLocked()
		o.ui.StateChanged()
		o.mu.Unlock()
		return fmt.Errorf("submit decision: %w", submitErr)
	}

	o.leadSeq.Next()
	o.addSeq.Next()
	o.order = updated
	o.order.ChildCases = slices.Clone(updated.ChildCases)
	o.state.Reset()
	o.ui.ClearSelectionWidgets()
	o.updateSubmitButtonsLocked()
	o.ui.StateChanged()
	onUpdate := o.onOrderUpdate
	o.mu.Unlock()

	o.leadDebounce.Stop()
	o.addDebounce.Stop()

	o.log.Info().Ctx(ctx).Str("status", string(updated.Status)).Msg("consolidation decision recorded")

	if onUpdate != nil {
		onUpdate(updated)
	}
	return nil
}

// buildDecision shapes the submission payload. Approvals need at least two
// selected cases, a lead case and a consolidation type; rejections need at
// least one selected case and never carry the lead case or the type.
func buildDecision(s State, result ConfirmActionResult) (consolidation.Decision, error) {
	ids := s.SelectedCaseIDs()

	switch result.Status {
	case consolidation.StatusApproved:
		if len(ids) < 2 {
			return consolidation.Decision{}, fmt.Errorf("%w: approval needs at least two selected cases", ErrInvalidDecision)
		}

		leadID := result.LeadCaseID
		if leadID == "" && s.LeadCase != nil {
			leadID = s.LeadCase.CaseID
		}
		if leadID == "" || s.LeadCaseNumberError != "" {
			return consolidation.Decision{}, fmt.Errorf("%w: approval needs a lead case", ErrInvalidDecision)
		}

		t := result.ConsolidationType
		if t == "" {
			t = s.ConsolidationType
		}
		if _, err := consolidation.ParseType(string(t)); err != nil {
			return consolidation.Decision{}, fmt.Errorf("%w: %w", ErrInvalidDecision, err)
		}

		division := result.CourtDivision
		if division == "" && s.IsLeadCaseExternal() {
			division = s.LeadCase.CourtDivisionCode
		}

		return consolidation.NewApproval(ids, leadID, division, t), nil

	case consolidation.StatusRejected:
		if len(ids) < 1 {
			return consolidation.Decision{}, fmt.Errorf("%w: rejection needs a selected case", ErrInvalidDecision)
		}
		return consolidation.NewRejection(ids, result.RejectionReason), nil

	default:
		return consolidation.Decision{}, fmt.Errorf("%w: unknown status %q", ErrInvalidDecision, result.Status)
	}
}

// ClearAll resets the review state and the selection widgets. It is ignored
// while a submission is in progress.
func (o *Orchestrator) ClearAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.state.IsProcessing() {
		o.log.Debug().Msg("clear ignored: submission in progress")
		return
	}

	o.leadSeq.Next()
	o.addSeq.Next()
	o.leadDebounce.Stop()
	o.addDebounce.Stop()

	enhanced := o.state.IsDataEnhanced()
	o.state.Reset()
	o.state.SetIsDataEnhanced(enhanced)

	o.ui.ClearSelectionWidgets()
	o.updateSubmitButtonsLocked()
	o.ui.StateChanged()
}

// Close tears down the review session. Lookups still in flight resolve as
// no-ops.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.leadSeq.Next()
	o.addSeq.Next()
	o.mu.Unlock()

	o.leadDebounce.Stop()
	o.addDebounce.Stop()
}

// AdmissionError explains why an entered case cannot be used.
type AdmissionError struct {
	Message string
	// Transient is true when the lookup failed rather than the case being
	// rejected; re-entering the case may succeed.
	Transient bool
	Err       error
}

func (e *AdmissionError) Error() string { return e.Message }

func (e *AdmissionError) Unwrap() error { return e.Err }

type caseLookup struct {
	found consolidation.OrderCase
	err   *AdmissionError
}

// lookupCase fetches an externally entered case and rejects cases that are
// already members of another consolidation.
func (o *Orchestrator) lookupCase(caseID string) caseLookup {
	ctx, cancel := context.WithTimeout(context.Background(), o.lookupTimeout)
	defer cancel()

	summary, err := o.registry.GetCaseSummary(ctx, caseID)
	if err != nil {
		if errors.Is(err, consolidation.ErrNotFound) {
			return caseLookup{err: &AdmissionError{Message: MsgCaseNotFound, Err: err}}
		}
		o.log.Warn().Err(err).Str("case_id", caseID).Msg("case lookup failed")
		return caseLookup{err: &AdmissionError{Message: MsgCannotVerify, Transient: true, Err: err}}
	}

	associations, err := o.registry.GetCaseAssociations(ctx, caseID)
	if err != nil {
		o.log.Warn().Err(err).Str("case_id", caseID).Msg("case association lookup failed")
		return caseLookup{err: &AdmissionError{Message: MsgCannotVerify, Transient: true, Err: err}}
	}

	if leadID, ok := consolidation.LeadOf(caseID, associations); ok {
		msg := fmt.Sprintf("Case %s is a consolidated member case of case %s.",
			consolidation.CaseNumber(caseID), consolidation.CaseNumber(leadID))
		return caseLookup{err: &AdmissionError{Message: msg}}
	}

	found := summary.OrderCase()
	found.AttorneyAssignments = consolidation.FetchAttorneysForCase(ctx, o.assignments, caseID)
	found.IsLeadCase = consolidation.IsLeadCase(caseID, associations)
	return caseLookup{found: found}
}
