package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/cams/internal/core/consolidation"
)

func TestOrderStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore(openTestDB(t))

	a := testCase("081-23-10001", "Acme Holdings")
	a.DocketEntries = []consolidation.DocketEntry{{Sequence: 1, DateFiled: testOrderDate, Summary: "Voluntary petition"}}
	b := testCase("081-23-10002", "Acme Subsidiary")

	created := seedOrder(t, s, "order-1", b, a)
	assert.Equal(t, consolidation.StatusPending, created.Status)

	got, err := s.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, testOrderDate, got.OrderDate)
	assert.Equal(t, "081", got.CourtDivisionCode)
	require.Len(t, got.ChildCases, 2)
	assert.Equal(t, b.CaseID, got.ChildCases[0].CaseID, "child cases keep their position")
	assert.Equal(t, a.CaseID, got.ChildCases[1].CaseID)
	require.Len(t, got.ChildCases[1].DocketEntries, 1)
	assert.Equal(t, "Voluntary petition", got.ChildCases[1].DocketEntries[0].Summary)
	assert.Nil(t, got.LeadCase)
}

func TestOrderStore_CreateGeneratesID(t *testing.T) {
	s := NewOrderStore(openTestDB(t))

	o := seedOrder(t, s, "", testCase("081-23-10001", "Acme Holdings"))
	assert.NotEmpty(t, o.ID)
}

func TestOrderStore_CreateWithoutCases(t *testing.T) {
	s := NewOrderStore(openTestDB(t))

	_, err := s.Create(context.Background(), consolidation.Order{ID: "empty", CourtDivisionCode: "081"})
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestOrderStore_GetNotFound(t *testing.T) {
	s := NewOrderStore(openTestDB(t))

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, consolidation.ErrOrderNotFound)
}

func TestOrderStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore(openTestDB(t))

	seedOrder(t, s, "order-1", testCase("081-23-10001", "Acme Holdings"))
	seedOrder(t, s, "order-2", testCase("081-23-10002", "Beta Corp"))

	_, err := s.SubmitDecision(ctx, "order-2", consolidation.NewRejection([]string{"081-23-10002"}, "not related"))
	require.NoError(t, err)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := s.List(ctx, consolidation.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "order-1", pending[0].ID)

	rejected, err := s.List(ctx, consolidation.StatusRejected)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "not related", rejected[0].Reason)
}

func TestOrderStore_ApproveAllCases(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewOrderStore(database)
	cases := NewCaseStore(database)
	assignments := NewAssignmentStore(database)

	lead := testCase("081-23-10001", "Acme Holdings")
	member := testCase("081-23-10002", "Acme Subsidiary")
	seedOrder(t, s, "order-1", lead, member)
	require.NoError(t, assignments.Assign(ctx, consolidation.Assignment{CaseID: lead.CaseID, Name: "Jane Doe", Role: "TrialAttorney"}))

	decided, err := s.SubmitDecision(ctx, "order-1", consolidation.NewApproval(
		[]string{lead.CaseID, member.CaseID}, lead.CaseID, "081", consolidation.TypeSubstantive,
	))
	require.NoError(t, err)

	assert.Equal(t, "order-1", decided.ID, "deciding every case keeps the order")
	assert.Equal(t, consolidation.StatusApproved, decided.Status)
	assert.Equal(t, consolidation.TypeSubstantive, decided.ConsolidationType)
	require.NotNil(t, decided.LeadCase)
	assert.Equal(t, lead.CaseID, decided.LeadCase.CaseID)
	assert.True(t, decided.LeadCase.IsLeadCase)

	memberAssocs, err := cases.GetCaseAssociations(ctx, member.CaseID)
	require.NoError(t, err)
	leadOf, ok := consolidation.LeadOf(member.CaseID, memberAssocs)
	require.True(t, ok)
	assert.Equal(t, lead.CaseID, leadOf)

	leadAssocs, err := cases.GetCaseAssociations(ctx, lead.CaseID)
	require.NoError(t, err)
	assert.True(t, consolidation.IsLeadCase(lead.CaseID, leadAssocs))
	assert.False(t, consolidation.IsMemberCase(lead.CaseID, leadAssocs))

	copied, err := assignments.GetCaseAssignments(ctx, member.CaseID)
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, "Jane Doe", copied[0].Name)
}

func TestOrderStore_PartialDecisionSplitsOrder(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore(openTestDB(t))

	a := testCase("081-23-10001", "Acme Holdings")
	b := testCase("081-23-10002", "Acme Subsidiary")
	c := testCase("081-23-10003", "Unrelated LLC")
	seedOrder(t, s, "order-1", a, b, c)

	decided, err := s.SubmitDecision(ctx, "order-1", consolidation.NewApproval(
		[]string{a.CaseID, b.CaseID}, a.CaseID, "081", consolidation.TypeAdministrative,
	))
	require.NoError(t, err)

	assert.NotEqual(t, "order-1", decided.ID)
	assert.Equal(t, consolidation.StatusApproved, decided.Status)
	assert.Equal(t, testOrderDate, decided.OrderDate)
	require.Len(t, decided.ChildCases, 2)
	assert.Equal(t, a.CaseID, decided.ChildCases[0].CaseID)
	assert.Equal(t, b.CaseID, decided.ChildCases[1].CaseID)

	remaining, err := s.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, consolidation.StatusPending, remaining.Status)
	require.Len(t, remaining.ChildCases, 1)
	assert.Equal(t, c.CaseID, remaining.ChildCases[0].CaseID)
}

func TestOrderStore_Reject(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewOrderStore(database)

	a := testCase("081-23-10001", "Acme Holdings")
	seedOrder(t, s, "order-1", a)

	decided, err := s.SubmitDecision(ctx, "order-1", consolidation.NewRejection([]string{a.CaseID}, "  wrong   debtor  "))
	require.NoError(t, err)
	assert.Equal(t, consolidation.StatusRejected, decided.Status)
	assert.Equal(t, consolidation.SanitizeText("  wrong   debtor  "), decided.Reason)
	assert.Nil(t, decided.LeadCase)

	assocs, err := NewCaseStore(database).GetCaseAssociations(ctx, a.CaseID)
	require.NoError(t, err)
	assert.Empty(t, assocs, "rejections do not link cases")
}

func TestOrderStore_ExternalLeadCase(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewOrderStore(database)
	cases := NewCaseStore(database)

	external := testCase("091-22-40001", "Parent Co")
	external.CourtDivisionCode = "091"
	require.NoError(t, cases.SaveCase(ctx, external.Summary()))

	a := testCase("081-23-10001", "Acme Holdings")
	seedOrder(t, s, "order-1", a)

	decided, err := s.SubmitDecision(ctx, "order-1", consolidation.NewApproval(
		[]string{a.CaseID}, external.CaseID, "091", consolidation.TypeAdministrative,
	))
	require.NoError(t, err)
	require.NotNil(t, decided.LeadCase)
	assert.Equal(t, external.CaseID, decided.LeadCase.CaseID)
	assert.Equal(t, "091", decided.LeadCase.CourtDivisionCode)
}

func TestOrderStore_SubmitDecisionErrors(t *testing.T) {
	a := testCase("081-23-10001", "Acme Holdings")
	b := testCase("081-23-10002", "Acme Subsidiary")
	ids := []string{a.CaseID, b.CaseID}

	tests := []struct {
		name     string
		setup    func(t *testing.T, s *OrderStore, cases *CaseStore)
		decision consolidation.Decision
		want     error
	}{
		{
			name:     "unknown order",
			decision: consolidation.NewRejection(ids, ""),
			want:     consolidation.ErrOrderNotFound,
		},
		{
			name:     "case not in order",
			setup:    func(t *testing.T, s *OrderStore, _ *CaseStore) { seedOrder(t, s, "order-1", a, b) },
			decision: consolidation.NewRejection([]string{a.CaseID, "081-23-77777"}, ""),
			want:     ErrCaseNotInOrder,
		},
		{
			name:     "no cases",
			setup:    func(t *testing.T, s *OrderStore, _ *CaseStore) { seedOrder(t, s, "order-1", a, b) },
			decision: consolidation.NewRejection(nil, ""),
			want:     ErrInvalidDecision,
		},
		{
			name:     "unknown status",
			setup:    func(t *testing.T, s *OrderStore, _ *CaseStore) { seedOrder(t, s, "order-1", a, b) },
			decision: consolidation.Decision{Status: consolidation.StatusPending, CaseIDs: ids},
			want:     ErrInvalidDecision,
		},
		{
			name:     "approval without lead",
			setup:    func(t *testing.T, s *OrderStore, _ *CaseStore) { seedOrder(t, s, "order-1", a, b) },
			decision: consolidation.NewApproval(ids, "", "081", consolidation.TypeAdministrative),
			want:     ErrInvalidDecision,
		},
		{
			name:     "approval without type",
			setup:    func(t *testing.T, s *OrderStore, _ *CaseStore) { seedOrder(t, s, "order-1", a, b) },
			decision: consolidation.NewApproval(ids, a.CaseID, "081", ""),
			want:     ErrInvalidDecision,
		},
		{
			name:     "approval of lead alone",
			setup:    func(t *testing.T, s *OrderStore, _ *CaseStore) { seedOrder(t, s, "order-1", a, b) },
			decision: consolidation.NewApproval([]string{a.CaseID}, a.CaseID, "081", consolidation.TypeAdministrative),
			want:     ErrInvalidDecision,
		},
		{
			name:     "unknown lead case",
			setup:    func(t *testing.T, s *OrderStore, _ *CaseStore) { seedOrder(t, s, "order-1", a, b) },
			decision: consolidation.NewApproval(ids, "091-22-40001", "091", consolidation.TypeAdministrative),
			want:     consolidation.ErrNotFound,
		},
		{
			name: "lead is a member case",
			setup: func(t *testing.T, s *OrderStore, cases *CaseStore) {
				seedOrder(t, s, "order-1", a, b)
				require.NoError(t, cases.SaveAssociation(context.Background(), consolidation.Association{
					CaseID: a.CaseID, OtherCaseID: "081-20-00001", DocumentType: consolidation.ConsolidationTo,
					ConsolidationType: consolidation.TypeAdministrative, OrderDate: testOrderDate,
				}))
			},
			decision: consolidation.NewApproval(ids, a.CaseID, "081", consolidation.TypeAdministrative),
			want:     ErrLeadCaseIsMember,
		},
		{
			name: "child already leads another consolidation",
			setup: func(t *testing.T, s *OrderStore, cases *CaseStore) {
				seedOrder(t, s, "order-1", a, b)
				require.NoError(t, cases.SaveAssociation(context.Background(), consolidation.Association{
					CaseID: b.CaseID, OtherCaseID: "081-20-00001", DocumentType: consolidation.ConsolidationFrom,
					ConsolidationType: consolidation.TypeAdministrative, OrderDate: testOrderDate,
				}))
			},
			decision: consolidation.NewApproval(ids, a.CaseID, "081", consolidation.TypeAdministrative),
			want:     ErrCaseAlreadyConsolidated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := openTestDB(t)
			s := NewOrderStore(database)
			if tt.setup != nil {
				tt.setup(t, s, NewCaseStore(database))
			}

			_, err := s.SubmitDecision(context.Background(), "order-1", tt.decision)
			require.ErrorIs(t, err, tt.want)

			if tt.setup != nil {
				o, err := s.Get(context.Background(), "order-1")
				require.NoError(t, err)
				assert.Equal(t, consolidation.StatusPending, o.Status, "failed decisions leave the order pending")
			}
		})
	}
}

func TestOrderStore_DecidedOrderIsFinal(t *testing.T) {
	ctx := context.Background()
	s := NewOrderStore(openTestDB(t))

	a := testCase("081-23-10001", "Acme Holdings")
	seedOrder(t, s, "order-1", a)

	_, err := s.SubmitDecision(ctx, "order-1", consolidation.NewRejection([]string{a.CaseID}, ""))
	require.NoError(t, err)

	_, err = s.SubmitDecision(ctx, "order-1", consolidation.NewRejection([]string{a.CaseID}, ""))
	assert.ErrorIs(t, err, ErrOrderNotPending)
}

func TestOrderStore_DecisionWithAddedCase(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	s := NewOrderStore(database)

	extra := testCase("081-23-10009", "Acme Late Filer")
	require.NoError(t, NewCaseStore(database).SaveCase(ctx, extra.Summary()))

	a := testCase("081-23-10001", "Acme Holdings")
	b := testCase("081-23-10002", "Acme Subsidiary")
	seedOrder(t, s, "order-1", a, b)

	decided, err := s.SubmitDecision(ctx, "order-1", consolidation.NewApproval(
		[]string{a.CaseID, extra.CaseID}, a.CaseID, "081", consolidation.TypeAdministrative,
	))
	require.NoError(t, err)

	require.Len(t, decided.ChildCases, 2)
	assert.Equal(t, a.CaseID, decided.ChildCases[0].CaseID)
	assert.Equal(t, extra.CaseID, decided.ChildCases[1].CaseID, "added cases follow the moved cases")

	remaining, err := s.Get(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, remaining.ChildCases, 1)
	assert.Equal(t, b.CaseID, remaining.ChildCases[0].CaseID)
}
