package cams

import (
	"context"
	"strings"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/cams/internal/core/config"
	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/lock"
	"github.com/colonyops/cams/internal/core/review"
	"github.com/colonyops/cams/internal/data/db"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	cfg := config.DefaultConfig()
	cfg.Review.Debounce = 0
	return NewApp(&cfg, database, lock.NewMemoryRegistry())
}

func TestReadSeedFile(t *testing.T) {
	seed, err := ReadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)

	require.Len(t, seed.Cases, 4)
	assert.Equal(t, "081-23-10001", seed.Cases[0].CaseID)
	assert.Len(t, seed.Cases[0].DocketEntries, 2)
	require.Len(t, seed.Orders, 1)
	assert.Equal(t, []string{"081-23-10001", "081-23-10002", "081-23-10003"}, seed.Orders[0].Cases)
}

func TestDecodeSeed_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{
			name: "bad case id",
			input: `
cases:
  - case_id: 23-10001
    case_title: Acme
    court_division_code: "081"
`,
			field: "cases[0].case_id",
		},
		{
			name: "unknown order case",
			input: `
cases:
  - case_id: 081-23-10001
    case_title: Acme
    court_division_code: "081"
orders:
  - id: order-1
    court_division_code: "081"
    cases: [081-23-99999]
`,
			field: "orders[0].cases",
		},
		{
			name: "bad association type",
			input: `
associations:
  - case_id: 081-23-10002
    other_case_id: 081-23-10001
    document_type: CONSOLIDATION_TO
    consolidation_type: merged
`,
			field: "associations[0].consolidation_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSeed(strings.NewReader(tt.input))
			require.Error(t, err)

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDecodeSeed_UnknownField(t *testing.T) {
	_, err := DecodeSeed(strings.NewReader("sessions: []\n"))
	assert.Error(t, err)
}

func TestDecodeSeed_Empty(t *testing.T) {
	seed, err := DecodeSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, seed.Cases)
}

func TestApp_Seed(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	seed, err := ReadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)

	res, err := app.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Cases)
	assert.Equal(t, 2, res.Assignments)
	assert.Equal(t, 1, res.Orders)

	order, err := app.PendingOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, order.ChildCases, 3)
	assert.Len(t, order.ChildCases[0].DocketEntries, 2)

	again, err := app.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Orders)
	assert.Equal(t, []string{"order-1"}, again.SkippedOrders)
}

func TestApp_ReviewApprovesSeededOrder(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	seed, err := ReadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)
	_, err = app.Seed(ctx, seed)
	require.NoError(t, err)

	order, err := app.PendingOrder(ctx, "order-1")
	require.NoError(t, err)

	var updates []consolidation.Order
	r := app.NewReview(order, nil, func(o consolidation.Order) { updates = append(updates, o) })
	t.Cleanup(func() {
		r.Close()
		r.Wait()
	})

	r.Expand(ctx)
	r.IncludeCase(order.ChildCases[0])
	r.IncludeCase(order.ChildCases[1])
	r.MarkLeadCase(order.ChildCases[0])
	r.SelectConsolidationType(consolidation.TypeAdministrative)
	require.True(t, r.Controls().Approve)

	require.NoError(t, r.ConfirmAction(ctx, review.ConfirmActionResult{Status: consolidation.StatusApproved}))
	require.Len(t, updates, 1)
	assert.Equal(t, consolidation.StatusApproved, updates[0].Status)

	remaining, err := app.PendingOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, remaining.ChildCases, 1)
	assert.Equal(t, "081-23-10003", remaining.ChildCases[0].CaseID)

	copied, err := app.Assignments.GetCaseAssignments(ctx, "081-23-10002")
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.Equal(t, "Jane Doe", copied[0].Name)
}

func TestNewLockRegistry(t *testing.T) {
	r, closer, err := NewLockRegistry(config.LocksConfig{Backend: config.LockBackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &lock.MemoryRegistry{}, r)
	assert.NoError(t, closer())

	_, _, err = NewLockRegistry(config.LocksConfig{Backend: "etcd"})
	assert.Error(t, err)
}
