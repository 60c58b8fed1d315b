package consolidation

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by the case registry when a case does not exist.
	ErrNotFound = errors.New("case not found")
	// ErrOrderNotFound is returned by the order service for unknown orders.
	ErrOrderNotFound = errors.New("order not found")
)

// CaseRegistry looks up cases in the external case registry.
type CaseRegistry interface {
	// GetCaseSummary returns ErrNotFound when the case does not exist.
	GetCaseSummary(ctx context.Context, caseID string) (CaseSummary, error)
	GetCaseAssociations(ctx context.Context, caseID string) ([]Association, error)
}

// AssignmentService looks up staff assignments for a case.
type AssignmentService interface {
	GetCaseAssignments(ctx context.Context, caseID string) ([]Assignment, error)
}

// OrderService records consolidation decisions.
type OrderService interface {
	SubmitDecision(ctx context.Context, orderID string, decision Decision) (Order, error)
}

// Decision is the payload submitted for an order.
//
// An approval carries the lead case and the consolidation type; a rejection
// carries at most a reason. CaseIDs lists the selected child cases the
// decision applies to; cases left out stay pending.
type Decision struct {
	Status            OrderStatus `json:"status"`
	CaseIDs           []string    `json:"caseIds"`
	LeadCaseID        string      `json:"leadCaseId,omitempty"`
	CourtDivision     string      `json:"courtDivision,omitempty"`
	ConsolidationType Type        `json:"consolidationType,omitempty"`
	RejectionReason   string      `json:"rejectionReason,omitempty"`
}

// NewApproval builds an approval payload.
func NewApproval(caseIDs []string, leadCaseID, courtDivision string, t Type) Decision {
	return Decision{
		Status:            StatusApproved,
		CaseIDs:           caseIDs,
		LeadCaseID:        leadCaseID,
		CourtDivision:     courtDivision,
		ConsolidationType: t,
	}
}

// NewRejection builds a rejection payload. The reason is sanitized.
func NewRejection(caseIDs []string, reason string) Decision {
	return Decision{
		Status:          StatusRejected,
		CaseIDs:         caseIDs,
		RejectionReason: SanitizeText(reason),
	}
}
