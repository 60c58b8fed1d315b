package review

import "github.com/colonyops/cams/internal/core/consolidation"

// Control identifies a submit control owned by the view.
type Control string

const (
	ControlApprove Control = "approve"
	ControlReject  Control = "reject"
	ControlClear   Control = "clear"
)

// ConfirmationContext is what the confirmation surface shows before a
// decision is submitted. ConsolidationType is only set for approvals.
type ConfirmationContext struct {
	SelectedCases     []consolidation.OrderCase
	LeadCase          *consolidation.OrderCase
	LeadCaseAttorneys []string
	Status            consolidation.OrderStatus
	ConsolidationType *consolidation.Type
}

// ConfirmActionResult is delivered by the confirmation surface when the
// reviewer confirms. Empty fields fall back to the current review state.
type ConfirmActionResult struct {
	Status            consolidation.OrderStatus
	LeadCaseID        string
	CourtDivision     string
	ConsolidationType consolidation.Type
	RejectionReason   string
}

// UICommands are the side effects the orchestrator triggers in the view.
//
// Implementations must not block and must not call back into the
// orchestrator before returning; the orchestrator may hold its lock while
// issuing commands.
type UICommands interface {
	SetControlDisabled(control Control, disabled bool)
	ShowConfirmation(ctx ConfirmationContext)
	// ShowConfirmationError reports a failed submission inside the
	// confirmation surface.
	ShowConfirmationError(message string)
	ClearSelectionWidgets()
	// StateChanged tells the view that state changed outside of a direct
	// user action, e.g. when a lookup resolves.
	StateChanged()
}

// NopCommands discards every command.
type NopCommands struct{}

var _ UICommands = NopCommands{}

func (NopCommands) SetControlDisabled(Control, bool) {}
func (NopCommands) ShowConfirmation(ConfirmationContext) {}
func (NopCommands) ShowConfirmationError(string) {}
func (NopCommands) ClearSelectionWidgets() {}
func (NopCommands) StateChanged() {}
