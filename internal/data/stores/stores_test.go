package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/data/db"
)

var testOrderDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func testCase(id, title string) consolidation.OrderCase {
	return consolidation.OrderCase{
		CaseID:            id,
		CaseTitle:         title,
		CourtName:         "Southern District of New York",
		CourtDivisionCode: "081",
		CourtDivisionName: "Manhattan",
		Chapter:           "11",
		DateFiled:         time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func seedOrder(t *testing.T, s *OrderStore, id string, cases ...consolidation.OrderCase) consolidation.Order {
	t.Helper()
	o, err := s.Create(context.Background(), consolidation.Order{
		ID:                id,
		CourtName:         "Southern District of New York",
		CourtDivisionCode: "081",
		OrderDate:         testOrderDate,
		ChildCases:        cases,
	})
	require.NoError(t, err)
	return o
}
