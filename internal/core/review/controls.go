package review

import "github.com/colonyops/cams/internal/core/consolidation"

// Controls reports which submit controls are enabled.
type Controls struct {
	Approve bool
	Reject  bool
	Clear   bool
}

// EvaluateControls derives the enabled submit controls from s.
//
// Approve needs at least two selected cases, a consolidation type and a
// resolved lead case with no pending validation. A lead case entered by
// number must have been found in the registry. Selected cases that are
// already members of another consolidation, or that lead one other than the
// chosen lead, block approval. Reject needs one selected case. Nothing is
// enabled while a submission is in progress.
func EvaluateControls(s State) Controls {
	if s.IsProcessing {
		return Controls{}
	}

	selected := len(s.SelectedCases)
	return Controls{
		Approve: selected >= 2 && canApprove(s),
		Reject:  selected >= 1,
		Clear:   selected >= 1,
	}
}

func canApprove(s State) bool {
	if s.ConsolidationType == "" || s.LeadCase == nil {
		return false
	}
	if s.LeadCaseNumberError != "" || s.IsValidatingLeadCaseNumber {
		return false
	}
	if s.IsLeadCaseExternal() && !s.FoundValidCaseNumber {
		return false
	}

	for _, c := range s.SelectedCases {
		if c.IsMemberCase {
			return false
		}
		if c.IsLeadCase && c.CaseID != s.LeadCase.CaseID {
			return false
		}
	}
	return true
}

// BlockingCases returns the selected cases that prevent approval because of
// an existing consolidation.
func BlockingCases(s State) []consolidation.OrderCase {
	var out []consolidation.OrderCase
	for _, c := range s.SelectedCases {
		if c.IsMemberCase || (c.IsLeadCase && (s.LeadCase == nil || c.CaseID != s.LeadCase.CaseID)) {
			out = append(out, c)
		}
	}
	return out
}
