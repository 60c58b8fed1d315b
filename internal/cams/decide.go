package cams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/logging"
	"github.com/colonyops/cams/internal/core/review"
)

// ErrDecisionBlocked is returned by Decide when the review state does not
// allow the requested decision.
var ErrDecisionBlocked = errors.New("decision not allowed")

// DecideInput describes a decision made without the TUI.
type DecideInput struct {
	Status consolidation.OrderStatus `json:"status"`
	// Cases are the child case IDs to include. Empty selects every case.
	Cases []string `json:"cases,omitempty"`
	// Add lists registry case IDs to add to the order before selecting.
	Add []string `json:"add,omitempty"`
	// LeadCaseID names the lead case. A case outside the order is
	// validated against the registry the way a typed case number is.
	LeadCaseID        string             `json:"leadCaseId,omitempty"`
	ConsolidationType consolidation.Type `json:"consolidationType,omitempty"`
	Reason            string             `json:"reason,omitempty"`
}

// Decide drives a review session headlessly: it expands the order, applies
// the input the way a reviewer would and confirms the decision. The
// returned order is the decided one.
func (a *App) Decide(ctx context.Context, orderID string, in DecideInput) (consolidation.Order, error) {
	order, err := a.PendingOrder(ctx, orderID)
	if err != nil {
		return consolidation.Order{}, err
	}

	var (
		rec     = &Recorder{}
		decided consolidation.Order
	)
	r := a.NewReview(order, rec, func(o consolidation.Order) { decided = o }, func(o *review.Options) {
		o.Debounce = 0
	})
	defer func() {
		r.Close()
		r.Wait()
	}()

	log := logging.ForOrder("decide", orderID)

	r.Expand(ctx)

	for _, id := range in.Add {
		court, number, ok := splitCaseID(id)
		if !ok {
			return consolidation.Order{}, fmt.Errorf("add %s: %s", id, review.MsgInvalidCaseNumber)
		}
		r.VerifyCaseCanBeAdded(court, number)
		r.Wait()
		if _, ok := r.AddCase(); !ok {
			return consolidation.Order{}, fmt.Errorf("add %s: %s", id, r.State().AddCaseNumberError)
		}
	}

	if len(in.Cases) == 0 {
		r.SelectAll()
	} else {
		current := r.Order()
		for _, id := range in.Cases {
			c, ok := current.ChildCase(id)
			if !ok {
				return consolidation.Order{}, fmt.Errorf("case %s is not part of order %s", id, orderID)
			}
			if !r.State().IsSelected(id) {
				r.IncludeCase(c)
			}
		}
	}

	switch in.Status {
	case consolidation.StatusApproved:
		if err := applyLead(r, in.LeadCaseID); err != nil {
			return consolidation.Order{}, err
		}
		r.SelectConsolidationType(in.ConsolidationType)

		if !r.Controls().Approve {
			return consolidation.Order{}, approvalBlocked(r.State())
		}
		r.RequestApproval()

	case consolidation.StatusRejected:
		if !r.Controls().Reject {
			return consolidation.Order{}, fmt.Errorf("%w: no cases selected", ErrDecisionBlocked)
		}
		r.RequestRejection()

	default:
		return consolidation.Order{}, fmt.Errorf("unknown status %q (expected approved or rejected)", in.Status)
	}

	log.Debug().Strs("case_ids", r.State().SelectedCaseIDs()).Msg("confirming headless decision")

	err = r.ConfirmAction(ctx, review.ConfirmActionResult{
		Status:          in.Status,
		RejectionReason: in.Reason,
	})
	if err != nil {
		if msg := rec.LastError(); msg != "" && msg != err.Error() {
			return consolidation.Order{}, fmt.Errorf("%s: %w", msg, err)
		}
		return consolidation.Order{}, err
	}

	return decided, nil
}

func applyLead(r *review.Orchestrator, leadID string) error {
	if leadID == "" {
		return fmt.Errorf("%w: a lead case is required", ErrDecisionBlocked)
	}

	if c, ok := r.Order().ChildCase(leadID); ok {
		if !r.State().IsSelected(leadID) {
			r.IncludeCase(c)
		}
		r.MarkLeadCase(c)
		return nil
	}

	court, number, ok := splitCaseID(leadID)
	if !ok {
		return fmt.Errorf("lead %s: %s", leadID, review.MsgInvalidCaseNumber)
	}
	r.SelectLeadCaseCourt(court)
	r.LeadCaseNumberChanged(number)
	r.Wait()

	if msg := r.State().LeadCaseNumberError; msg != "" {
		return fmt.Errorf("lead %s: %s", leadID, msg)
	}
	return nil
}

func approvalBlocked(s review.State) error {
	var reasons []string
	if len(s.SelectedCases) < 2 {
		reasons = append(reasons, "at least two cases must be selected")
	}
	if s.ConsolidationType == "" {
		reasons = append(reasons, "a consolidation type is required")
	}
	if s.LeadCase == nil {
		reasons = append(reasons, "a lead case is required")
	}
	for _, c := range review.BlockingCases(s) {
		reasons = append(reasons, fmt.Sprintf("%s is already part of another consolidation", c.CaseID))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "the lead case could not be verified")
	}
	return fmt.Errorf("%w: %s", ErrDecisionBlocked, strings.Join(reasons, "; "))
}

// splitCaseID splits "081-23-12345" into its court and case number.
func splitCaseID(id string) (court, number string, ok bool) {
	court, number, ok = strings.Cut(id, "-")
	if !ok || consolidation.ComputeLeadCaseID(court, number) != id {
		return "", "", false
	}
	return court, number, true
}

// Recorder is a review.UICommands that remembers what the orchestrator asked
// the view to do.
type Recorder struct {
	mu           sync.Mutex
	disabled     map[review.Control]bool
	confirmation *review.ConfirmationContext
	lastError    string
	clears       int
}

var _ review.UICommands = (*Recorder)(nil)

func (r *Recorder) SetControlDisabled(c review.Control, disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disabled == nil {
		r.disabled = make(map[review.Control]bool)
	}
	r.disabled[c] = disabled
}

func (r *Recorder) ShowConfirmation(ctx review.ConfirmationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmation = &ctx
}

func (r *Recorder) ShowConfirmationError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastError = message
}

func (r *Recorder) ClearSelectionWidgets() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *Recorder) StateChanged() {}

// Disabled reports the last disabled state pushed for c.
func (r *Recorder) Disabled(c review.Control) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled[c]
}

// Confirmation returns the last confirmation shown, if any.
func (r *Recorder) Confirmation() *review.ConfirmationContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.confirmation
}

// LastError returns the last confirmation error shown.
func (r *Recorder) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}

// Clears returns how many times the selection widgets were cleared.
func (r *Recorder) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}
