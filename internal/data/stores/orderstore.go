package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/core/logging"
	"github.com/colonyops/cams/internal/data/db"
)

// OrderStore implements consolidation.OrderService using SQLite.
type OrderStore struct {
	db  *db.DB
	now func() time.Time
}

var _ consolidation.OrderService = (*OrderStore)(nil)

// NewOrderStore creates a new SQLite-backed order service.
func NewOrderStore(db *db.DB) *OrderStore {
	return &OrderStore{db: db, now: time.Now}
}

// List returns orders with their child cases, newest order date first. An
// empty status returns every order.
func (s *OrderStore) List(ctx context.Context, status consolidation.OrderStatus) ([]consolidation.Order, error) {
	query := "SELECT id FROM orders"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY order_date DESC, id"

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]consolidation.Order, 0, len(ids))
	for _, id := range ids {
		o, err := getOrder(ctx, s.db.Conn(), id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Get returns an order by ID. Returns consolidation.ErrOrderNotFound if not found.
func (s *OrderStore) Get(ctx context.Context, id string) (consolidation.Order, error) {
	return getOrder(ctx, s.db.Conn(), id)
}

// Create stores a new pending order. Child cases are saved to the case
// registry as well. An empty ID is replaced by a generated one.
func (s *OrderStore) Create(ctx context.Context, o consolidation.Order) (consolidation.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = consolidation.StatusPending
	}
	if len(o.ChildCases) == 0 {
		return consolidation.Order{}, fmt.Errorf("%w: order %s has no child cases", ErrInvalidDecision, o.ID)
	}

	now := s.now()
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, status, court_name, court_division_code, order_date, consolidation_type,
			                    lead_case_id, reason, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, o.ID, string(o.Status), o.CourtName, o.CourtDivisionCode, o.OrderDate.UnixNano(),
			string(o.ConsolidationType), leadCaseID(o), o.Reason, now.UnixNano(), now.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i, c := range o.ChildCases {
			if err := upsertCase(ctx, tx, c.Summary()); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO order_cases (order_id, case_id, position) VALUES (?, ?, ?)",
				o.ID, c.CaseID, i,
			)
			if err != nil {
				return fmt.Errorf("failed to add case %s to order: %w", c.CaseID, err)
			}
			for _, e := range c.DocketEntries {
				_, err := tx.ExecContext(ctx, `
					INSERT OR REPLACE INTO docket_entries (case_id, sequence, date_filed, summary, full_text, document_url)
					VALUES (?, ?, ?, ?, ?, ?)
				`, c.CaseID, e.Sequence, e.DateFiled.UnixNano(), e.Summary, e.FullText, e.DocumentURL)
				if err != nil {
					return fmt.Errorf("failed to save docket entry: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return consolidation.Order{}, err
	}

	return s.Get(ctx, o.ID)
}

// SubmitDecision records an approval or rejection for the cases named in
// the decision.
//
// Only pending orders can be decided. Every named case must belong to the
// order or, when it was added during review, exist in the case registry.
// When the decision covers only some of the child cases, those cases
// move to a new order carrying the decision and the rest stay pending under
// the original ID. An approval links each child case to the lead case and
// copies the lead case's staff assignments onto the child cases. The
// returned order is the decided one.
func (s *OrderStore) SubmitDecision(ctx context.Context, orderID string, d consolidation.Decision) (consolidation.Order, error) {
	var decided consolidation.Order
	err := retryBusy(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			decided, err = s.decide(ctx, tx, orderID, d)
			return err
		})
	})
	if err != nil {
		return consolidation.Order{}, err
	}

	logger := logging.Component("orders")
	logger.Info().
		Ctx(ctx).
		Str("decided_order", decided.ID).
		Str("source_order", orderID).
		Str("status", string(decided.Status)).
		Int("cases", len(decided.ChildCases)).
		Msg("decision recorded")

	return decided, nil
}

func (s *OrderStore) decide(ctx context.Context, tx *sql.Tx, orderID string, d consolidation.Decision) (consolidation.Order, error) {
	order, err := getOrder(ctx, tx, orderID)
	if err != nil {
		return consolidation.Order{}, err
	}
	if order.Status != consolidation.StatusPending {
		return consolidation.Order{}, fmt.Errorf("%w: %s is %s", ErrOrderNotPending, orderID, order.Status)
	}

	included, remaining, added, err := splitCases(ctx, tx, order, d.CaseIDs)
	if err != nil {
		return consolidation.Order{}, err
	}

	var (
		reason   string
		leadID   string
		consType consolidation.Type
	)

	switch d.Status {
	case consolidation.StatusApproved:
		consType, err = consolidation.ParseType(string(d.ConsolidationType))
		if err != nil {
			return consolidation.Order{}, fmt.Errorf("%w: %w", ErrInvalidDecision, err)
		}
		leadID = d.LeadCaseID
		if err := approve(ctx, tx, order, included, leadID, consType); err != nil {
			return consolidation.Order{}, err
		}

	case consolidation.StatusRejected:
		reason = consolidation.SanitizeText(d.RejectionReason)

	default:
		return consolidation.Order{}, fmt.Errorf("%w: status %q", ErrInvalidDecision, d.Status)
	}

	now := s.now().UnixNano()
	decidedID := orderID

	if len(remaining) == 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE orders SET status = ?, consolidation_type = ?, lead_case_id = ?, reason = ?, updated_at = ?
			WHERE id = ?
		`, string(d.Status), string(consType), leadID, reason, now, orderID)
		if err != nil {
			return consolidation.Order{}, fmt.Errorf("failed to update order: %w", err)
		}
		if err := attachCases(ctx, tx, decidedID, added); err != nil {
			return consolidation.Order{}, err
		}
		return getOrder(ctx, tx, decidedID)
	}

	decidedID = uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, status, court_name, court_division_code, order_date, consolidation_type,
		                    lead_case_id, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, decidedID, string(d.Status), order.CourtName, order.CourtDivisionCode, order.OrderDate.UnixNano(),
		string(consType), leadID, reason, now, now)
	if err != nil {
		return consolidation.Order{}, fmt.Errorf("failed to insert decided order: %w", err)
	}

	moved := len(included) - len(added)
	if moved > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", moved), ",")
		args := []any{decidedID, orderID}
		for _, c := range included[:moved] {
			args = append(args, c.CaseID)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE order_cases SET order_id = ? WHERE order_id = ? AND case_id IN ("+placeholders+")",
			args...,
		)
		if err != nil {
			return consolidation.Order{}, fmt.Errorf("failed to move decided cases: %w", err)
		}
	}
	if err := attachCases(ctx, tx, decidedID, added); err != nil {
		return consolidation.Order{}, err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE orders SET updated_at = ? WHERE id = ?", now, orderID); err != nil {
		return consolidation.Order{}, fmt.Errorf("failed to update pending order: %w", err)
	}

	return getOrder(ctx, tx, decidedID)
}

// splitCases partitions the order's child cases into those named by ids and
// the rest. Named cases that are not child cases were added during review;
// they are returned as added and must exist in the case registry.
func splitCases(ctx context.Context, q querier, order consolidation.Order, ids []string) (included, remaining, added []consolidation.OrderCase, err error) {
	if len(ids) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no cases selected", ErrInvalidDecision)
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] || order.HasChildCase(id) {
			seen[id] = true
			continue
		}
		seen[id] = true

		summary, err := getCaseSummary(ctx, q, id)
		if errors.Is(err, consolidation.ErrNotFound) {
			return nil, nil, nil, fmt.Errorf("%w: %s", ErrCaseNotInOrder, id)
		}
		if err != nil {
			return nil, nil, nil, err
		}
		added = append(added, summary.OrderCase())
	}

	for _, c := range order.ChildCases {
		if slices.Contains(ids, c.CaseID) {
			included = append(included, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	included = append(included, added...)
	return included, remaining, added, nil
}

// approve validates the consolidation and writes its associations and
// assignments.
func approve(ctx context.Context, tx *sql.Tx, order consolidation.Order, included []consolidation.OrderCase, leadID string, t consolidation.Type) error {
	if leadID == "" {
		return fmt.Errorf("%w: approval needs a lead case", ErrInvalidDecision)
	}

	if _, err := getCaseSummary(ctx, tx, leadID); err != nil {
		return fmt.Errorf("lead case %s: %w", leadID, err)
	}

	leadAssocs, err := getCaseAssociations(ctx, tx, leadID)
	if err != nil {
		return err
	}
	if consolidation.IsMemberCase(leadID, leadAssocs) {
		return fmt.Errorf("%w: %s", ErrLeadCaseIsMember, leadID)
	}

	var members []string
	for _, c := range included {
		if c.CaseID == leadID {
			continue
		}
		assocs, err := getCaseAssociations(ctx, tx, c.CaseID)
		if err != nil {
			return err
		}
		if consolidation.IsMemberCase(c.CaseID, assocs) || consolidation.IsLeadCase(c.CaseID, assocs) {
			return fmt.Errorf("%w: %s", ErrCaseAlreadyConsolidated, c.CaseID)
		}
		members = append(members, c.CaseID)
	}
	if len(members) == 0 {
		return fmt.Errorf("%w: approval needs at least one case besides the lead case", ErrInvalidDecision)
	}

	leadAssignments, err := getCaseAssignments(ctx, tx, leadID)
	if err != nil {
		return err
	}

	for _, member := range members {
		links := []consolidation.Association{
			{CaseID: member, OtherCaseID: leadID, DocumentType: consolidation.ConsolidationTo},
			{CaseID: leadID, OtherCaseID: member, DocumentType: consolidation.ConsolidationFrom},
		}
		for _, a := range links {
			a.ConsolidationType = t
			a.OrderDate = order.OrderDate
			if err := saveAssociation(ctx, tx, a); err != nil {
				return fmt.Errorf("failed to link %s to %s: %w", a.CaseID, a.OtherCaseID, err)
			}
		}

		for _, a := range leadAssignments {
			a.CaseID = member
			if err := assign(ctx, tx, a); err != nil {
				return fmt.Errorf("failed to copy assignment to %s: %w", member, err)
			}
		}
	}

	return nil
}

// attachCases appends registry cases to an order after its existing cases.
func attachCases(ctx context.Context, tx *sql.Tx, orderID string, cases []consolidation.OrderCase) error {
	if len(cases) == 0 {
		return nil
	}

	var next int
	err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM order_cases WHERE order_id = ?", orderID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read case positions: %w", err)
	}

	for i, c := range cases {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO order_cases (order_id, case_id, position) VALUES (?, ?, ?)",
			orderID, c.CaseID, next+i,
		)
		if err != nil {
			return fmt.Errorf("failed to attach case %s: %w", c.CaseID, err)
		}
	}
	return nil
}

func leadCaseID(o consolidation.Order) string {
	if o.LeadCase == nil {
		return ""
	}
	return o.LeadCase.CaseID
}

func upsertCase(ctx context.Context, q querier, c consolidation.CaseSummary) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO cases (case_id, case_title, court_name, court_division_code, court_division_name, chapter, date_filed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (case_id) DO UPDATE SET
			case_title = excluded.case_title,
			court_name = excluded.court_name,
			court_division_code = excluded.court_division_code,
			court_division_name = excluded.court_division_name,
			chapter = excluded.chapter,
			date_filed = excluded.date_filed
	`, c.CaseID, c.CaseTitle, c.CourtName, c.CourtDivisionCode, c.CourtDivisionName, c.Chapter, c.DateFiled.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save case %s: %w", c.CaseID, err)
	}
	return nil
}

func getOrder(ctx context.Context, q querier, id string) (consolidation.Order, error) {
	var (
		o                   consolidation.Order
		status, consType    string
		leadID              string
		orderDate, updateAt int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, status, court_name, court_division_code, order_date, consolidation_type, lead_case_id, reason, updated_at
		FROM orders WHERE id = ?
	`, id).Scan(&o.ID, &status, &o.CourtName, &o.CourtDivisionCode, &orderDate, &consType, &leadID, &o.Reason, &updateAt)
	if IsNotFoundError(err) {
		return consolidation.Order{}, fmt.Errorf("%w: %s", consolidation.ErrOrderNotFound, id)
	}
	if err != nil {
		return consolidation.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	o.Status = consolidation.OrderStatus(status)
	o.ConsolidationType = consolidation.Type(consType)
	o.OrderDate = time.Unix(0, orderDate).UTC()
	o.UpdatedAt = time.Unix(0, updateAt).UTC()

	o.ChildCases, err = orderCases(ctx, q, id)
	if err != nil {
		return consolidation.Order{}, err
	}

	if leadID != "" {
		lead, err := getCaseSummary(ctx, q, leadID)
		if err != nil {
			return consolidation.Order{}, fmt.Errorf("lead case %s: %w", leadID, err)
		}
		lc := lead.OrderCase()
		lc.IsLeadCase = true
		o.LeadCase = &lc
	}

	return o, nil
}

func orderCases(ctx context.Context, q querier, orderID string) ([]consolidation.OrderCase, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.case_id, c.case_title, c.court_name, c.court_division_code, c.court_division_name, c.chapter, c.date_filed
		FROM order_cases oc
		JOIN cases c ON c.case_id = oc.case_id
		WHERE oc.order_id = ?
		ORDER BY oc.position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order cases: %w", err)
	}

	var cases []consolidation.OrderCase
	for rows.Next() {
		var (
			c         consolidation.OrderCase
			dateFiled int64
		)
		if err := rows.Scan(&c.CaseID, &c.CaseTitle, &c.CourtName, &c.CourtDivisionCode, &c.CourtDivisionName, &c.Chapter, &dateFiled); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan order case: %w", err)
		}
		c.DateFiled = time.Unix(0, dateFiled).UTC()
		cases = append(cases, c)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list order cases: %w", err)
	}

	for i := range cases {
		cases[i].DocketEntries, err = docketEntries(ctx, q, cases[i].CaseID)
		if err != nil {
			return nil, err
		}
	}
	return cases, nil
}
