package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/review"
	"github.com/colonyops/cams/internal/core/styles"
)

type focusArea int

const (
	focusCases focusArea = iota
	focusType
	focusLeadCourt
	focusLeadNumber
	focusAddCourt
	focusAddNumber
	focusButtons
	focusCount
)

// Text inputs, indexed from focusLeadCourt.
const (
	inputLeadCourt = iota
	inputLeadNumber
	inputAddCourt
	inputAddNumber
	inputCount
)

var buttons = []review.Control{review.ControlApprove, review.ControlReject, review.ControlClear}

var consolidationTypes = []consolidation.Type{consolidation.TypeAdministrative, consolidation.TypeSubstantive}

type (
	expandedMsg   struct{}
	submitDoneMsg struct{ err error }
)

// reviewScreen drives one review.Orchestrator. It reads the review state
// only through snapshots and changes it only through orchestrator calls;
// submit controls follow the commands delivered by the orchestrator.
type reviewScreen struct {
	ctx  context.Context
	orch *review.Orchestrator
	keys keyMap

	order     consolidation.Order
	state     review.State
	disabled  map[review.Control]bool
	expanding bool

	cursor  int
	focus   focusArea
	button  int
	inputs  [inputCount]textinput.Model
	spinner spinner.Model
	confirm *confirmModal

	width int
}

func newReviewScreen(ctx context.Context, orch *review.Orchestrator, keys keyMap) *reviewScreen {
	r := &reviewScreen{
		ctx:       ctx,
		orch:      orch,
		keys:      keys,
		expanding: true,
		disabled: map[review.Control]bool{
			review.ControlApprove: true,
			review.ControlReject:  true,
			review.ControlClear:   true,
		},
	}

	placeholders := [inputCount]string{"081", "23-12345", "081", "23-12345"}
	for i := range r.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Prompt = ""
		ti.Width = 12
		r.inputs[i] = ti
	}
	r.inputs[inputLeadCourt].CharLimit = 3
	r.inputs[inputAddCourt].CharLimit = 3
	r.inputs[inputLeadNumber].CharLimit = 8
	r.inputs[inputAddNumber].CharLimit = 8

	r.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle))
	r.refresh()
	return r
}

// Init expands the order in the background.
func (r *reviewScreen) Init() tea.Cmd {
	orch, ctx := r.orch, r.ctx
	return tea.Batch(r.spinner.Tick, func() tea.Msg {
		orch.Expand(ctx)
		return expandedMsg{}
	})
}

// Close ends the session. Lookups still in flight resolve as no-ops.
func (r *reviewScreen) Close() {
	r.orch.Close()
}

func (r *reviewScreen) refresh() {
	r.state = r.orch.State()
	r.order = r.orch.Order()
	if r.cursor >= len(r.order.ChildCases) {
		r.cursor = max(len(r.order.ChildCases)-1, 0)
	}
}

func (r *reviewScreen) busy() bool {
	return r.expanding || r.state.IsProcessing || r.state.IsValidatingLeadCaseNumber || r.state.IsLookingForCase
}

// HandleCommand applies a command issued by the orchestrator.
func (r *reviewScreen) HandleCommand(msg tea.Msg) {
	switch msg := msg.(type) {
	case controlMsg:
		r.disabled[msg.control] = msg.disabled
	case showConfirmMsg:
		m := newConfirmModal(msg.ctx)
		r.confirm = &m
	case confirmErrorMsg:
		if r.confirm != nil {
			r.confirm.err = msg.message
		}
	case clearSelectionMsg:
		for i := range r.inputs {
			r.inputs[i].SetValue("")
		}
		r.cursor = 0
		r.setFocus(focusCases)
	case stateChangedMsg:
	}
	r.refresh()
}

func (r *reviewScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case expandedMsg:
		r.expanding = false
		r.refresh()
		return nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spinner, cmd = r.spinner.Update(msg)
		return cmd
	case submitDoneMsg:
		return r.handleSubmitDone(msg.err)
	case tea.KeyMsg:
		if r.confirm != nil {
			return r.updateConfirm(msg)
		}
		return r.handleKey(msg)
	}
	return nil
}

func (r *reviewScreen) handleSubmitDone(err error) tea.Cmd {
	if r.confirm == nil {
		return nil
	}
	r.confirm.submitting = false
	r.confirm.confirmed = false
	if err == nil {
		r.confirm = nil
		return nil
	}
	if r.confirm.err == "" {
		if errors.Is(err, review.ErrSubmissionInProgress) {
			r.confirm.err = "A decision for this order is already being submitted."
		} else {
			r.confirm.err = review.MsgSubmissionFailed
		}
	}
	return nil
}

func (r *reviewScreen) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	m, cmd := r.confirm.Update(msg)
	r.confirm = &m

	switch {
	case m.cancelled:
		r.confirm = nil
		return nil
	case m.confirmed && !m.submitting:
		r.confirm.submitting = true
		orch, ctx, result := r.orch, r.ctx, m.Result()
		return func() tea.Msg {
			return submitDoneMsg{err: orch.ConfirmAction(ctx, result)}
		}
	}
	return cmd
}

// CapturesKeys reports whether key presses are going to a text field.
func (r *reviewScreen) CapturesKeys() bool {
	if r.confirm != nil {
		return r.confirm.ctx.Status == consolidation.StatusRejected
	}
	return r.focus >= focusLeadCourt && r.focus <= focusAddNumber
}

func (r *reviewScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, r.keys.NextFocus):
		r.setFocus((r.focus + 1) % focusCount)
		return nil
	case key.Matches(msg, r.keys.PrevFocus):
		r.setFocus((r.focus + focusCount - 1) % focusCount)
		return nil
	case key.Matches(msg, r.keys.Approve):
		return r.press(review.ControlApprove)
	case key.Matches(msg, r.keys.Reject):
		return r.press(review.ControlReject)
	case key.Matches(msg, r.keys.Clear):
		return r.press(review.ControlClear)
	}

	switch r.focus {
	case focusCases:
		r.handleCaseKey(msg)
	case focusType:
		r.handleTypeKey(msg)
	case focusButtons:
		return r.handleButtonKey(msg)
	default:
		return r.handleInputKey(msg)
	}
	return nil
}

func (r *reviewScreen) handleCaseKey(msg tea.KeyMsg) {
	cases := r.order.ChildCases
	switch {
	case key.Matches(msg, r.keys.Up):
		if r.cursor > 0 {
			r.cursor--
		}
	case key.Matches(msg, r.keys.Down):
		if r.cursor < len(cases)-1 {
			r.cursor++
		}
	case key.Matches(msg, r.keys.Toggle):
		if len(cases) > 0 {
			r.orch.IncludeCase(cases[r.cursor])
		}
	case key.Matches(msg, r.keys.Lead):
		if len(cases) > 0 {
			r.orch.MarkLeadCase(cases[r.cursor])
		}
	case key.Matches(msg, r.keys.SelectAll):
		r.orch.SelectAll()
	}
	r.refresh()
}

func (r *reviewScreen) handleTypeKey(msg tea.KeyMsg) {
	switch msg.String() {
	case " ", "right", "l", "left", "h":
	default:
		return
	}

	next := consolidationTypes[0]
	for i, t := range consolidationTypes {
		if t == r.state.ConsolidationType {
			next = consolidationTypes[(i+1)%len(consolidationTypes)]
		}
	}
	r.orch.SelectConsolidationType(next)
	r.refresh()
}

func (r *reviewScreen) handleButtonKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		r.button = (r.button + len(buttons) - 1) % len(buttons)
	case "right", "l":
		r.button = (r.button + 1) % len(buttons)
	case "enter", " ":
		return r.press(buttons[r.button])
	}
	return nil
}

// press activates a submit control if the orchestrator has it enabled.
func (r *reviewScreen) press(control review.Control) tea.Cmd {
	if r.disabled[control] {
		return nil
	}
	switch control {
	case review.ControlApprove:
		r.orch.RequestApproval()
	case review.ControlReject:
		r.orch.RequestRejection()
	case review.ControlClear:
		r.orch.ClearAll()
	}
	r.refresh()
	return nil
}

func (r *reviewScreen) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	idx := int(r.focus - focusLeadCourt)

	if msg.Type == tea.KeyEnter && idx == inputAddNumber {
		return r.submitAddCase()
	}

	before := r.inputs[idx].Value()
	var cmd tea.Cmd
	r.inputs[idx], cmd = r.inputs[idx].Update(msg)
	value := r.inputs[idx].Value()
	if idx == inputLeadNumber || idx == inputAddNumber {
		if normalized := consolidation.NormalizeCaseNumber(value); normalized != value {
			r.inputs[idx].SetValue(normalized)
			r.inputs[idx].CursorEnd()
			value = normalized
		}
	}
	if value == before {
		return cmd
	}

	switch idx {
	case inputLeadCourt:
		r.orch.SelectLeadCaseCourt(value)
	case inputLeadNumber:
		r.orch.LeadCaseNumberChanged(value)
	case inputAddCourt:
		r.orch.AddCaseCourtChanged(value)
	case inputAddNumber:
		r.orch.AddCaseNumberChanged(value)
	}
	r.refresh()
	return cmd
}

// submitAddCase adds the verified case, or verifies the entered one right
// away when no verified case is pending.
func (r *reviewScreen) submitAddCase() tea.Cmd {
	if r.state.CaseToAdd != nil {
		if _, ok := r.orch.AddCase(); ok {
			r.inputs[inputAddCourt].SetValue("")
			r.inputs[inputAddNumber].SetValue("")
		}
		r.refresh()
		return nil
	}

	court := r.inputs[inputAddCourt].Value()
	number := r.inputs[inputAddNumber].Value()
	if number == "" {
		return nil
	}
	orch := r.orch
	return func() tea.Msg {
		orch.VerifyCaseCanBeAdded(court, number)
		return stateChangedMsg{}
	}
}

func (r *reviewScreen) setFocus(f focusArea) {
	r.focus = f
	for i := range r.inputs {
		if int(f-focusLeadCourt) == i {
			r.inputs[i].Focus()
		} else {
			r.inputs[i].Blur()
		}
	}

	if f == focusLeadCourt {
		r.suggestLeadCourt()
	}
}

// suggestLeadCourt fills an empty lead court with the division shared by
// the selected cases.
func (r *reviewScreen) suggestLeadCourt() {
	in := &r.inputs[inputLeadCourt]
	if in.Value() != "" || r.state.LeadCase != nil {
		return
	}
	code, ok := consolidation.UniqueDivisionCode(r.state.SelectedCases)
	if !ok {
		return
	}
	in.SetValue(code)
	in.CursorEnd()
	r.orch.SelectLeadCaseCourt(code)
	r.refresh()
}

func (r *reviewScreen) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", styles.TitleStyle.Render("Order "+r.order.ID), styles.MutedStyle.Render(r.order.CourtName))
	if r.busy() {
		fmt.Fprintf(&b, "%s %s\n", r.spinner.View(), styles.MutedStyle.Render(r.busyLabel()))
	} else if !r.state.IsDataEnhanced {
		b.WriteString(styles.WarningStyle.Render("Existing consolidations could not be checked for every case.") + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(r.casesView())
	b.WriteString("\n")
	b.WriteString(r.blockingView())
	b.WriteString(r.typeView())
	b.WriteString("\n")
	b.WriteString(r.leadView())
	b.WriteString("\n")
	b.WriteString(r.addCaseView())
	b.WriteString("\n")
	b.WriteString(r.buttonsView())

	content := b.String()
	if r.confirm != nil {
		return lipgloss.JoinVertical(lipgloss.Left, content, "", r.confirm.View())
	}
	return content
}

func (r *reviewScreen) busyLabel() string {
	switch {
	case r.state.IsProcessing:
		return "Submitting decision..."
	case r.expanding:
		return "Loading assignments and existing consolidations..."
	default:
		return "Looking up case..."
	}
}

func (r *reviewScreen) casesView() string {
	var b strings.Builder
	header := fmt.Sprintf("    %-4s %-14s %-6s %-4s %s", "", "Case", "Ch.", "Lead", "Title")
	b.WriteString(styles.HeaderStyle.Render(header) + "\n")

	for i, c := range r.order.ChildCases {
		check := "[ ]"
		if r.state.IsSelected(c.CaseID) {
			check = styles.CheckedStyle.Render("[x]")
		}
		lead := "    "
		if r.state.LeadCase != nil && r.state.LeadCase.CaseID == c.CaseID {
			lead = styles.LeadMarkerStyle.Render("LEAD")
		}

		var notes []string
		if c.IsLeadCase {
			notes = append(notes, "leads a consolidation")
		}
		if c.IsMemberCase {
			notes = append(notes, "already consolidated")
		}
		if len(c.AttorneyAssignments) > 0 {
			notes = append(notes, consolidation.FormatAttorneys(c.AttorneyAssignments))
		}
		note := ""
		if len(notes) > 0 {
			note = styles.MutedStyle.Render("  (" + strings.Join(notes, "; ") + ")")
		}

		line := fmt.Sprintf("%s %-14s %-6s %s %s", check, c.CaseID, c.Chapter, lead, c.CaseTitle)
		cursor := "  "
		if i == r.cursor && r.focus == focusCases {
			cursor = styles.TitleStyle.Render("> ")
			line = styles.RowCursorStyle.Render(line)
		}
		b.WriteString(cursor + line + note + "\n")
	}
	return b.String()
}

func (r *reviewScreen) blockingView() string {
	blocking := review.BlockingCases(r.state)
	if len(blocking) == 0 {
		return ""
	}
	ids := make([]string, 0, len(blocking))
	for _, c := range blocking {
		ids = append(ids, c.CaseID)
	}
	return styles.BlockingStyle.Render("Cannot approve while these cases are part of another consolidation: "+strings.Join(ids, ", ")) + "\n"
}

func (r *reviewScreen) label(f focusArea, text string) string {
	if r.focus == f {
		return styles.InputFocusStyle.Render(text)
	}
	return styles.InputLabelStyle.Render(text)
}

func (r *reviewScreen) typeView() string {
	opts := make([]string, 0, len(consolidationTypes))
	for _, t := range consolidationTypes {
		mark := "( )"
		if r.state.ConsolidationType == t {
			mark = styles.CheckedStyle.Render("(•)")
		}
		opts = append(opts, mark+" "+t.Label())
	}
	return r.label(focusType, "Type") + strings.Join(opts, "   ") + "\n"
}

func (r *reviewScreen) leadView() string {
	var b strings.Builder
	b.WriteString(styles.MutedStyle.Render("Lead case from another order:") + "\n")
	b.WriteString(r.label(focusLeadCourt, "Court") + r.inputs[inputLeadCourt].View() + "\n")
	b.WriteString(r.label(focusLeadNumber, "Case number") + r.inputs[inputLeadNumber].View())

	switch {
	case r.state.LeadCaseNumberError != "":
		b.WriteString("  " + styles.ErrorStyle.Render(r.state.LeadCaseNumberError))
	case r.state.IsLeadCaseExternal() && r.state.FoundValidCaseNumber:
		b.WriteString("  " + styles.SuccessStyle.Render(r.state.LeadCase.CaseTitle))
	}
	b.WriteString("\n")

	if r.state.LeadCase != nil && len(r.state.LeadCaseAttorneys) > 0 {
		b.WriteString(styles.MutedStyle.Render("Lead attorneys: "+consolidation.FormatAttorneys(r.state.LeadCaseAttorneys)) + "\n")
	}
	return b.String()
}

func (r *reviewScreen) addCaseView() string {
	var b strings.Builder
	b.WriteString(styles.MutedStyle.Render("Add a case to this order:") + "\n")
	b.WriteString(r.label(focusAddCourt, "Court") + r.inputs[inputAddCourt].View() + "\n")
	b.WriteString(r.label(focusAddNumber, "Case number") + r.inputs[inputAddNumber].View())

	switch {
	case r.state.AddCaseNumberError != "":
		b.WriteString("  " + styles.ErrorStyle.Render(r.state.AddCaseNumberError))
	case r.state.CaseToAdd != nil:
		b.WriteString("  " + styles.SuccessStyle.Render(r.state.CaseToAdd.CaseTitle+" (enter to add)"))
	}
	b.WriteString("\n")
	return b.String()
}

func (r *reviewScreen) buttonsView() string {
	labels := map[review.Control]string{
		review.ControlApprove: "Approve",
		review.ControlReject:  "Reject",
		review.ControlClear:   "Clear",
	}

	out := make([]string, 0, len(buttons))
	for i, c := range buttons {
		style := styles.ButtonStyle
		switch {
		case r.disabled[c]:
			style = styles.ButtonOffStyle
		case r.focus == focusButtons && r.button == i:
			style = styles.ButtonFocusStyle
		}
		out = append(out, style.Render(labels[c]))
	}
	return strings.Join(out, "  ") + "\n"
}
