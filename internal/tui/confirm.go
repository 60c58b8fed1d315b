package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/review"
	"github.com/colonyops/cams/internal/core/styles"
)

const maxReasonLength = 500

// confirmModal shows the decision about to be submitted. Rejections take an
// optional reason.
type confirmModal struct {
	ctx        review.ConfirmationContext
	reason     textinput.Model
	err        string
	submitting bool
	confirmed  bool
	cancelled  bool
}

func newConfirmModal(ctx review.ConfirmationContext) confirmModal {
	ti := textinput.New()
	ti.Placeholder = "Reason for rejection (optional)"
	ti.CharLimit = maxReasonLength
	ti.Width = 50
	if ctx.Status == consolidation.StatusRejected {
		ti.Focus()
	}
	return confirmModal{ctx: ctx, reason: ti}
}

func (m confirmModal) Update(msg tea.Msg) (confirmModal, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.submitting {
		return m, nil
	}

	switch keyMsg.String() {
	case "enter", "ctrl+s":
		m.confirmed = true
		m.err = ""
		return m, nil
	case "esc":
		m.cancelled = true
		return m, nil
	}

	if m.ctx.Status != consolidation.StatusRejected {
		return m, nil
	}
	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

// Result is the confirmation delivered to the orchestrator.
func (m confirmModal) Result() review.ConfirmActionResult {
	res := review.ConfirmActionResult{Status: m.ctx.Status}
	if m.ctx.Status == consolidation.StatusRejected {
		res.RejectionReason = strings.TrimSpace(m.reason.Value())
	}
	return res
}

func (m confirmModal) View() string {
	var b strings.Builder

	title := "Reject consolidation"
	if m.ctx.Status == consolidation.StatusApproved {
		title = "Approve consolidation"
	}
	b.WriteString(styles.ModalTitleStyle.Render(title))
	b.WriteString("\n\n")

	if m.ctx.ConsolidationType != nil {
		fmt.Fprintf(&b, "%s %s\n", styles.MutedStyle.Render("Type:"), m.ctx.ConsolidationType.Label())
	}
	if m.ctx.Status == consolidation.StatusApproved && m.ctx.LeadCase != nil {
		fmt.Fprintf(&b, "%s %s %s\n", styles.MutedStyle.Render("Lead case:"), m.ctx.LeadCase.CaseID, m.ctx.LeadCase.CaseTitle)
		if len(m.ctx.LeadCaseAttorneys) > 0 {
			fmt.Fprintf(&b, "%s %s\n", styles.MutedStyle.Render("Attorneys:"), consolidation.FormatAttorneys(m.ctx.LeadCaseAttorneys))
		}
	}

	fmt.Fprintf(&b, "%s\n", styles.MutedStyle.Render(fmt.Sprintf("Cases (%d):", len(m.ctx.SelectedCases))))
	for _, c := range m.ctx.SelectedCases {
		fmt.Fprintf(&b, "  %s  %s\n", c.CaseID, c.CaseTitle)
	}

	if m.ctx.Status == consolidation.StatusRejected {
		b.WriteString("\n")
		b.WriteString(m.reason.View())
		b.WriteString("\n")
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.err))
		b.WriteString("\n")
	}

	help := "enter confirm • esc cancel"
	if m.submitting {
		help = "submitting..."
	}
	b.WriteString(styles.ModalHelpStyle.Render(help))

	return styles.ModalStyle.Render(b.String())
}
