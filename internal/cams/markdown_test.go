package cams

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/cams/internal/core/consolidation"
)

func TestOrderMarkdown(t *testing.T) {
	filed := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	lead := consolidation.OrderCase{CaseID: "081-23-10001", CaseTitle: "Acme Holdings"}

	md := OrderMarkdown(consolidation.Order{
		ID:                "order-1",
		Status:            consolidation.StatusApproved,
		CourtDivisionCode: "081",
		OrderDate:         time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		ConsolidationType: consolidation.TypeAdministrative,
		LeadCase:          &lead,
		ChildCases: []consolidation.OrderCase{
			{
				CaseID: "081-23-10001", CaseTitle: "Acme | Holdings", Chapter: "11", DateFiled: filed,
				DocketEntries: []consolidation.DocketEntry{{Sequence: 1, DateFiled: filed, Summary: "Petition", DocumentURL: "https://example.test/1"}},
			},
		},
	})

	assert.Contains(t, md, "# Consolidation order order-1")
	assert.Contains(t, md, "**Type:** Joint Administration")
	assert.Contains(t, md, "**Lead case:** 081-23-10001 Acme Holdings")
	assert.Contains(t, md, "**Lead attorneys:** (unassigned)")
	assert.Contains(t, md, `| 081-23-10001 | Acme \| Holdings | 11 | 01/15/2023 |`)
	assert.Contains(t, md, "1. 01/15/2023 Petition ([document](https://example.test/1))")
	assert.NotContains(t, md, "**Reason:**")
}
