package cams

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/review"
	"github.com/colonyops/cams/internal/data/stores"
)

func seededApp(t *testing.T) *App {
	t.Helper()
	app := newTestApp(t)

	seed, err := ReadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)
	_, err = app.Seed(context.Background(), seed)
	require.NoError(t, err)
	return app
}

func TestDecide_ApproveWithChildLead(t *testing.T) {
	ctx := context.Background()
	app := seededApp(t)

	decided, err := app.Decide(ctx, "order-1", DecideInput{
		Status:            consolidation.StatusApproved,
		LeadCaseID:        "081-23-10001",
		ConsolidationType: consolidation.TypeSubstantive,
	})
	require.NoError(t, err)

	assert.Equal(t, "order-1", decided.ID, "all cases selected keeps the order")
	assert.Equal(t, consolidation.StatusApproved, decided.Status)
	assert.Equal(t, consolidation.TypeSubstantive, decided.ConsolidationType)
	require.NotNil(t, decided.LeadCase)
	assert.Equal(t, "081-23-10001", decided.LeadCase.CaseID)
	assert.Len(t, decided.ChildCases, 3)
}

func TestDecide_ApproveWithExternalLead(t *testing.T) {
	ctx := context.Background()
	app := seededApp(t)

	decided, err := app.Decide(ctx, "order-1", DecideInput{
		Status:            consolidation.StatusApproved,
		Cases:             []string{"081-23-10002", "081-23-10003"},
		LeadCaseID:        "091-22-40001",
		ConsolidationType: consolidation.TypeAdministrative,
	})
	require.NoError(t, err)

	require.NotNil(t, decided.LeadCase)
	assert.Equal(t, "091-22-40001", decided.LeadCase.CaseID)
	assert.NotEqual(t, "order-1", decided.ID)

	copied, err := app.Assignments.GetCaseAssignments(ctx, "081-23-10002")
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, "John Roe", copied[0].Name)
}

func TestDecide_UnknownExternalLead(t *testing.T) {
	app := seededApp(t)

	_, err := app.Decide(context.Background(), "order-1", DecideInput{
		Status:            consolidation.StatusApproved,
		LeadCaseID:        "091-22-49999",
		ConsolidationType: consolidation.TypeAdministrative,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), review.MsgCaseNotFound)

	o, err := app.PendingOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Len(t, o.ChildCases, 3, "order untouched")
}

func TestDecide_ApproveNeedsType(t *testing.T) {
	app := seededApp(t)

	_, err := app.Decide(context.Background(), "order-1", DecideInput{
		Status:     consolidation.StatusApproved,
		LeadCaseID: "081-23-10001",
	})
	require.ErrorIs(t, err, ErrDecisionBlocked)
	assert.Contains(t, err.Error(), "consolidation type")
}

func TestDecide_BlockedByMemberCase(t *testing.T) {
	ctx := context.Background()
	app := seededApp(t)

	require.NoError(t, app.Cases.SaveAssociation(ctx, consolidation.Association{
		CaseID:            "081-23-10003",
		OtherCaseID:       "091-22-40001",
		DocumentType:      consolidation.ConsolidationTo,
		ConsolidationType: consolidation.TypeAdministrative,
	}))

	_, err := app.Decide(ctx, "order-1", DecideInput{
		Status:            consolidation.StatusApproved,
		LeadCaseID:        "081-23-10001",
		ConsolidationType: consolidation.TypeAdministrative,
	})
	require.ErrorIs(t, err, ErrDecisionBlocked)
	assert.Contains(t, err.Error(), "081-23-10003 is already part of another consolidation")
}

func TestDecide_Reject(t *testing.T) {
	ctx := context.Background()
	app := seededApp(t)

	decided, err := app.Decide(ctx, "order-1", DecideInput{
		Status: consolidation.StatusRejected,
		Cases:  []string{"081-23-10003"},
		Reason: "unrelated debtor",
	})
	require.NoError(t, err)
	assert.Equal(t, consolidation.StatusRejected, decided.Status)
	assert.Equal(t, "unrelated debtor", decided.Reason)
	require.Len(t, decided.ChildCases, 1)

	remaining, err := app.PendingOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Len(t, remaining.ChildCases, 2)
}

func TestDecide_AddCase(t *testing.T) {
	ctx := context.Background()
	app := seededApp(t)

	require.NoError(t, app.Cases.SaveCase(ctx, consolidation.CaseSummary{
		CaseID:            "081-23-10009",
		CaseTitle:         "Acme Late Filer",
		CourtDivisionCode: "081",
	}))

	decided, err := app.Decide(ctx, "order-1", DecideInput{
		Status:            consolidation.StatusApproved,
		Cases:             []string{"081-23-10001", "081-23-10009"},
		Add:               []string{"081-23-10009"},
		LeadCaseID:        "081-23-10001",
		ConsolidationType: consolidation.TypeAdministrative,
	})
	require.NoError(t, err)

	ids := make([]string, 0, len(decided.ChildCases))
	for _, c := range decided.ChildCases {
		ids = append(ids, c.CaseID)
	}
	assert.Equal(t, []string{"081-23-10001", "081-23-10009"}, ids)
}

func TestDecide_AddUnknownCase(t *testing.T) {
	app := seededApp(t)

	_, err := app.Decide(context.Background(), "order-1", DecideInput{
		Status: consolidation.StatusRejected,
		Add:    []string{"081-23-19999"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), review.MsgCaseNotFound)
}

func TestDecide_DecidedOrder(t *testing.T) {
	ctx := context.Background()
	app := seededApp(t)

	_, err := app.Decide(ctx, "order-1", DecideInput{Status: consolidation.StatusRejected})
	require.NoError(t, err)

	_, err = app.Decide(ctx, "order-1", DecideInput{Status: consolidation.StatusRejected})
	assert.ErrorIs(t, err, stores.ErrOrderNotPending)
}

func TestSplitCaseID(t *testing.T) {
	court, number, ok := splitCaseID("081-23-12345")
	require.True(t, ok)
	assert.Equal(t, "081", court)
	assert.Equal(t, "23-12345", number)

	for _, bad := range []string{"", "081", "81-23-12345", "081-2312345", "081-23-1234"} {
		_, _, ok := splitCaseID(bad)
		assert.False(t, ok, bad)
	}
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.SetControlDisabled(review.ControlApprove, true)
	rec.ShowConfirmationError("boom")
	rec.ClearSelectionWidgets()

	assert.True(t, rec.Disabled(review.ControlApprove))
	assert.False(t, rec.Disabled(review.ControlReject))
	assert.Equal(t, "boom", rec.LastError())
	assert.Equal(t, 1, rec.Clears())
	assert.Nil(t, rec.Confirmation())
}
