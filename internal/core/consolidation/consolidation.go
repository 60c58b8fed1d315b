// Package consolidation defines the consolidation order domain types, the
// contracts of the services the review workflow consumes, and small lookup
// helpers shared by the review workflow and the CLI.
package consolidation

import (
	"fmt"
	"slices"
	"time"
)

// OrderStatus is the lifecycle status of a consolidation order.
// ENUM(pending, approved, rejected).
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusApproved OrderStatus = "approved"
	StatusRejected OrderStatus = "rejected"
)

// Type is the kind of consolidation chosen on approval.
//
// The stored values do not match the labels shown to reviewers:
// "administrative" is shown as "Joint Administration" and "substantive" as
// "Substantive Consolidation".
type Type string

const (
	TypeAdministrative Type = "administrative"
	TypeSubstantive    Type = "substantive"
)

// Label returns the reviewer-facing label for the consolidation type.
func (t Type) Label() string {
	switch t {
	case TypeAdministrative:
		return "Joint Administration"
	case TypeSubstantive:
		return "Substantive Consolidation"
	default:
		return string(t)
	}
}

// ParseType converts a stored value into a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeAdministrative, TypeSubstantive:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown consolidation type %q", s)
	}
}

// DocketEntry is a single docket line attached to a child case.
type DocketEntry struct {
	Sequence    int       `json:"sequence" yaml:"sequence"`
	DateFiled   time.Time `json:"dateFiled" yaml:"date_filed"`
	Summary     string    `json:"summary" yaml:"summary"`
	FullText    string    `json:"fullText,omitempty" yaml:"full_text"`
	DocumentURL string    `json:"documentUrl,omitempty" yaml:"document_url"`
}

// OrderCase is a case belonging to a consolidation order. It is a snapshot
// fetched from the case registry and never written by the review workflow.
type OrderCase struct {
	CaseID            string        `json:"caseId"`
	CaseTitle         string        `json:"caseTitle"`
	CourtName         string        `json:"courtName,omitempty"`
	CourtDivisionCode string        `json:"courtDivisionCode"`
	CourtDivisionName string        `json:"courtDivisionName"`
	Chapter           string        `json:"chapter"`
	DateFiled         time.Time     `json:"dateFiled"`
	DocketEntries     []DocketEntry `json:"docketEntries,omitempty"`

	// Populated when the order is expanded for review.
	AttorneyAssignments []string `json:"attorneyAssignments,omitempty"`
	IsLeadCase          bool     `json:"isLeadCase,omitempty"`
	IsMemberCase        bool     `json:"isMemberCase,omitempty"`
}

// Order is one batch of related cases flagged for a consolidation decision.
type Order struct {
	ID                string      `json:"id"`
	Status            OrderStatus `json:"status"`
	CourtName         string      `json:"courtName,omitempty"`
	CourtDivisionCode string      `json:"courtDivisionCode"`
	OrderDate         time.Time   `json:"orderDate"`
	ChildCases        []OrderCase `json:"childCases"`
	ConsolidationType Type        `json:"consolidationType,omitempty"`
	LeadCase          *OrderCase  `json:"leadCase,omitempty"`
	Reason            string      `json:"reason,omitempty"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// ChildCase returns the child case with the given ID.
func (o Order) ChildCase(caseID string) (OrderCase, bool) {
	idx := slices.IndexFunc(o.ChildCases, func(c OrderCase) bool { return c.CaseID == caseID })
	if idx < 0 {
		return OrderCase{}, false
	}
	return o.ChildCases[idx], true
}

// HasChildCase reports whether caseID is one of the order's child cases.
func (o Order) HasChildCase(caseID string) bool {
	_, ok := o.ChildCase(caseID)
	return ok
}

// CaseSummary is the case registry's record of a case.
type CaseSummary struct {
	CaseID            string    `json:"caseId" yaml:"case_id"`
	CaseTitle         string    `json:"caseTitle" yaml:"case_title"`
	CourtName         string    `json:"courtName" yaml:"court_name"`
	CourtDivisionCode string    `json:"courtDivisionCode" yaml:"court_division_code"`
	CourtDivisionName string    `json:"courtDivisionName" yaml:"court_division_name"`
	Chapter           string    `json:"chapter" yaml:"chapter"`
	DateFiled         time.Time `json:"dateFiled" yaml:"date_filed"`
}

// OrderCase converts the summary into an order case snapshot.
func (s CaseSummary) OrderCase() OrderCase {
	return OrderCase{
		CaseID:            s.CaseID,
		CaseTitle:         s.CaseTitle,
		CourtName:         s.CourtName,
		CourtDivisionCode: s.CourtDivisionCode,
		CourtDivisionName: s.CourtDivisionName,
		Chapter:           s.Chapter,
		DateFiled:         s.DateFiled,
	}
}

// Summary converts an order case back into its registry summary.
func (c OrderCase) Summary() CaseSummary {
	return CaseSummary{
		CaseID:            c.CaseID,
		CaseTitle:         c.CaseTitle,
		CourtName:         c.CourtName,
		CourtDivisionCode: c.CourtDivisionCode,
		CourtDivisionName: c.CourtDivisionName,
		Chapter:           c.Chapter,
		DateFiled:         c.DateFiled,
	}
}

// Assignment is a staff assignment to a case.
type Assignment struct {
	CaseID string `json:"caseId" yaml:"case_id"`
	Name   string `json:"name" yaml:"name"`
	Role   string `json:"role" yaml:"role"`
}

// AssociationType identifies the direction of a consolidation reference.
type AssociationType string

const (
	// ConsolidationFrom is recorded on a lead case and points at a member case.
	ConsolidationFrom AssociationType = "CONSOLIDATION_FROM"
	// ConsolidationTo is recorded on a member case and points at its lead case.
	ConsolidationTo AssociationType = "CONSOLIDATION_TO"
)

// Association is a consolidation reference between two cases.
type Association struct {
	CaseID            string          `json:"caseId" yaml:"case_id"`
	OtherCaseID       string          `json:"otherCaseId" yaml:"other_case_id"`
	DocumentType      AssociationType `json:"documentType" yaml:"document_type"`
	ConsolidationType Type            `json:"consolidationType" yaml:"consolidation_type"`
	OrderDate         time.Time       `json:"orderDate" yaml:"order_date"`
}

// IsLeadCase reports whether caseID leads an existing consolidation.
func IsLeadCase(caseID string, associations []Association) bool {
	return slices.ContainsFunc(associations, func(a Association) bool {
		return a.DocumentType == ConsolidationFrom && a.CaseID == caseID
	})
}

// IsMemberCase reports whether caseID is a member of an existing consolidation.
func IsMemberCase(caseID string, associations []Association) bool {
	return slices.ContainsFunc(associations, func(a Association) bool {
		return a.DocumentType == ConsolidationTo && a.CaseID == caseID
	})
}

// LeadOf returns the lead case ID of the consolidation caseID is a member of.
func LeadOf(caseID string, associations []Association) (string, bool) {
	for _, a := range associations {
		if a.DocumentType == ConsolidationTo && a.CaseID == caseID {
			return a.OtherCaseID, true
		}
	}
	return "", false
}
