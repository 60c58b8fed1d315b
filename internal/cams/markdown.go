package cams

import (
	"fmt"
	"strings"

	"github.com/colonyops/cams/internal/core/consolidation"
)

const dateLayout = "01/02/2006"

// OrderMarkdown renders an order summary as markdown.
func OrderMarkdown(o consolidation.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Consolidation order %s\n\n", o.ID)
	fmt.Fprintf(&b, "- **Status:** %s\n", o.Status)
	if o.CourtName != "" {
		fmt.Fprintf(&b, "- **Court:** %s (%s)\n", o.CourtName, o.CourtDivisionCode)
	} else {
		fmt.Fprintf(&b, "- **Division:** %s\n", o.CourtDivisionCode)
	}
	fmt.Fprintf(&b, "- **Order date:** %s\n", o.OrderDate.Format(dateLayout))
	if o.ConsolidationType != "" {
		fmt.Fprintf(&b, "- **Type:** %s\n", o.ConsolidationType.Label())
	}
	if o.LeadCase != nil {
		fmt.Fprintf(&b, "- **Lead case:** %s %s\n", o.LeadCase.CaseID, o.LeadCase.CaseTitle)
		fmt.Fprintf(&b, "- **Lead attorneys:** %s\n", consolidation.FormatAttorneys(o.LeadCase.AttorneyAssignments))
	}
	if o.Reason != "" {
		fmt.Fprintf(&b, "- **Reason:** %s\n", o.Reason)
	}

	b.WriteString("\n## Cases\n\n")
	b.WriteString("| Case | Title | Chapter | Filed |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, c := range o.ChildCases {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			c.CaseID, escapeCell(c.CaseTitle), c.Chapter, c.DateFiled.Format(dateLayout))
	}

	for _, c := range o.ChildCases {
		if len(c.DocketEntries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### Docket %s\n\n", c.CaseID)
		for _, e := range c.DocketEntries {
			fmt.Fprintf(&b, "%d. %s %s", e.Sequence, e.DateFiled.Format(dateLayout), e.Summary)
			if e.DocumentURL != "" {
				fmt.Fprintf(&b, " ([document](%s))", e.DocumentURL)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
