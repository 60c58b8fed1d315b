// Package review implements the consolidation order review workflow: the
// per-order review state, the command port used to drive the view, and the
// orchestrator that validates input and submits decisions.
package review

import (
	"slices"
	"sync"

	"github.com/colonyops/cams/internal/core/consolidation"
)

// State is the mutable review state of one order. It is session scoped and
// never persisted.
type State struct {
	SelectedCases     []consolidation.OrderCase
	LeadCase          *consolidation.OrderCase
	LeadCaseAttorneys []string
	ConsolidationType consolidation.Type // "" when unset

	// Lead case entered by court and number instead of picked from the list.
	LeadCaseCourt              string
	LeadCaseNumber             string
	IsValidatingLeadCaseNumber bool
	FoundValidCaseNumber       bool
	LeadCaseNumberError        string

	IsProcessing bool

	AddCaseCourt       string
	AddCaseNumber      string
	IsLookingForCase   bool
	CaseToAdd          *consolidation.OrderCase
	AddCaseNumberError string

	IsDataEnhanced bool
}

// IsSelected reports whether caseID is in SelectedCases.
func (s State) IsSelected(caseID string) bool {
	return slices.ContainsFunc(s.SelectedCases, func(c consolidation.OrderCase) bool {
		return c.CaseID == caseID
	})
}

// SelectedCaseIDs returns the IDs of the selected cases in selection order.
func (s State) SelectedCaseIDs() []string {
	ids := make([]string, 0, len(s.SelectedCases))
	for _, c := range s.SelectedCases {
		ids = append(ids, c.CaseID)
	}
	return ids
}

// IsLeadCaseExternal reports whether the lead case was entered by number
// rather than picked from the selected cases.
func (s State) IsLeadCaseExternal() bool {
	return s.LeadCase != nil && !s.IsSelected(s.LeadCase.CaseID)
}

func (s State) clone() State {
	out := s
	out.SelectedCases = slices.Clone(s.SelectedCases)
	out.LeadCaseAttorneys = slices.Clone(s.LeadCaseAttorneys)
	if s.LeadCase != nil {
		lead := *s.LeadCase
		out.LeadCase = &lead
	}
	if s.CaseToAdd != nil {
		c := *s.CaseToAdd
		out.CaseToAdd = &c
	}
	return out
}

// Container holds the State of one order. It enforces no invariants; it only
// makes the state safe to read from the view while the orchestrator writes.
type Container struct {
	mu    sync.RWMutex
	state State
}

// NewContainer returns a container holding the empty state.
func NewContainer() *Container {
	return &Container{}
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Update applies fn to the state as one atomic change.
func (c *Container) Update(fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}

// Reset returns the state to its pristine form.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{}
}

func (c *Container) SelectedCases() []consolidation.OrderCase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.state.SelectedCases)
}

func (c *Container) SetSelectedCases(cases []consolidation.OrderCase) {
	c.Update(func(s *State) { s.SelectedCases = slices.Clone(cases) })
}

func (c *Container) LeadCase() *consolidation.OrderCase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.LeadCase == nil {
		return nil
	}
	lead := *c.state.LeadCase
	return &lead
}

func (c *Container) SetLeadCase(lead *consolidation.OrderCase) {
	c.Update(func(s *State) {
		if lead == nil {
			s.LeadCase = nil
			return
		}
		cp := *lead
		s.LeadCase = &cp
	})
}

func (c *Container) LeadCaseAttorneys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.state.LeadCaseAttorneys)
}

func (c *Container) SetLeadCaseAttorneys(names []string) {
	c.Update(func(s *State) { s.LeadCaseAttorneys = slices.Clone(names) })
}

func (c *Container) ConsolidationType() consolidation.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.ConsolidationType
}

func (c *Container) SetConsolidationType(t consolidation.Type) {
	c.Update(func(s *State) { s.ConsolidationType = t })
}

func (c *Container) LeadCaseCourt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.LeadCaseCourt
}

func (c *Container) SetLeadCaseCourt(court string) {
	c.Update(func(s *State) { s.LeadCaseCourt = court })
}

func (c *Container) LeadCaseNumber() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.LeadCaseNumber
}

func (c *Container) SetLeadCaseNumber(number string) {
	c.Update(func(s *State) { s.LeadCaseNumber = number })
}

func (c *Container) IsValidatingLeadCaseNumber() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.IsValidatingLeadCaseNumber
}

func (c *Container) SetIsValidatingLeadCaseNumber(v bool) {
	c.Update(func(s *State) { s.IsValidatingLeadCaseNumber = v })
}

func (c *Container) FoundValidCaseNumber() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.FoundValidCaseNumber
}

func (c *Container) SetFoundValidCaseNumber(v bool) {
	c.Update(func(s *State) { s.FoundValidCaseNumber = v })
}

func (c *Container) LeadCaseNumberError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.LeadCaseNumberError
}

func (c *Container) SetLeadCaseNumberError(msg string) {
	c.Update(func(s *State) { s.LeadCaseNumberError = msg })
}

func (c *Container) IsProcessing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.IsProcessing
}

func (c *Container) SetIsProcessing(v bool) {
	c.Update(func(s *State) { s.IsProcessing = v })
}

func (c *Container) AddCaseCourt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.AddCaseCourt
}

func (c *Container) SetAddCaseCourt(court string) {
	c.Update(func(s *State) { s.AddCaseCourt = court })
}

func (c *Container) AddCaseNumber() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.AddCaseNumber
}

func (c *Container) SetAddCaseNumber(number string) {
	c.Update(func(s *State) { s.AddCaseNumber = number })
}

func (c *Container) IsLookingForCase() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.IsLookingForCase
}

func (c *Container) SetIsLookingForCase(v bool) {
	c.Update(func(s *State) { s.IsLookingForCase = v })
}

func (c *Container) CaseToAdd() *consolidation.OrderCase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.CaseToAdd == nil {
		return nil
	}
	cp := *c.state.CaseToAdd
	return &cp
}

func (c *Container) SetCaseToAdd(candidate *consolidation.OrderCase) {
	c.Update(func(s *State) {
		if candidate == nil {
			s.CaseToAdd = nil
			return
		}
		cp := *candidate
		s.CaseToAdd = &cp
	})
}

func (c *Container) AddCaseNumberError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.AddCaseNumberError
}

func (c *Container) SetAddCaseNumberError(msg string) {
	c.Update(func(s *State) { s.AddCaseNumberError = msg })
}

func (c *Container) IsDataEnhanced() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.IsDataEnhanced
}

func (c *Container) SetIsDataEnhanced(v bool) {
	c.Update(func(s *State) { s.IsDataEnhanced = v })
}
