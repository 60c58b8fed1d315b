package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/data/db"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CaseStore implements consolidation.CaseRegistry using SQLite.
type CaseStore struct {
	db *db.DB
}

var _ consolidation.CaseRegistry = (*CaseStore)(nil)

// NewCaseStore creates a new SQLite-backed case registry.
func NewCaseStore(db *db.DB) *CaseStore {
	return &CaseStore{db: db}
}

// GetCaseSummary returns a case by ID. Returns consolidation.ErrNotFound if not found.
func (s *CaseStore) GetCaseSummary(ctx context.Context, caseID string) (consolidation.CaseSummary, error) {
	return getCaseSummary(ctx, s.db.Conn(), caseID)
}

// GetCaseAssociations returns the consolidation references recorded for caseID.
func (s *CaseStore) GetCaseAssociations(ctx context.Context, caseID string) ([]consolidation.Association, error) {
	return getCaseAssociations(ctx, s.db.Conn(), caseID)
}

// SaveCase creates or updates a case.
func (s *CaseStore) SaveCase(ctx context.Context, c consolidation.CaseSummary) error {
	_, err := s.db.Conn().ExecContext(ctx, `
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
		return fmt.Errorf("failed to save case: %w", err)
	}
	return nil
}

// SaveAssociation records a consolidation reference. Saving the same
// reference twice updates it.
func (s *CaseStore) SaveAssociation(ctx context.Context, a consolidation.Association) error {
	if err := saveAssociation(ctx, s.db.Conn(), a); err != nil {
		return fmt.Errorf("failed to save association: %w", err)
	}
	return nil
}

// SaveDocketEntries replaces the docket entries of a case.
func (s *CaseStore) SaveDocketEntries(ctx context.Context, caseID string, entries []consolidation.DocketEntry) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM docket_entries WHERE case_id = ?", caseID); err != nil {
			return fmt.Errorf("failed to clear docket entries: %w", err)
		}
		for _, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO docket_entries (case_id, sequence, date_filed, summary, full_text, document_url)
				VALUES (?, ?, ?, ?, ?, ?)
			`, caseID, e.Sequence, e.DateFiled.UnixNano(), e.Summary, e.FullText, e.DocumentURL)
			if err != nil {
				return fmt.Errorf("failed to save docket entry %d: %w", e.Sequence, err)
			}
		}
		return nil
	})
}

// DocketEntries returns the docket entries of a case ordered by sequence.
func (s *CaseStore) DocketEntries(ctx context.Context, caseID string) ([]consolidation.DocketEntry, error) {
	return docketEntries(ctx, s.db.Conn(), caseID)
}

func getCaseSummary(ctx context.Context, q querier, caseID string) (consolidation.CaseSummary, error) {
	var (
		c         consolidation.CaseSummary
		dateFiled int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT case_id, case_title, court_name, court_division_code, court_division_name, chapter, date_filed
		FROM cases WHERE case_id = ?
	`, caseID).Scan(&c.CaseID, &c.CaseTitle, &c.CourtName, &c.CourtDivisionCode, &c.CourtDivisionName, &c.Chapter, &dateFiled)
	if IsNotFoundError(err) {
		return consolidation.CaseSummary{}, consolidation.ErrNotFound
	}
	if err != nil {
		return consolidation.CaseSummary{}, fmt.Errorf("failed to get case: %w", err)
	}

	c.DateFiled = time.Unix(0, dateFiled).UTC()
	return c, nil
}

func getCaseAssociations(ctx context.Context, q querier, caseID string) ([]consolidation.Association, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT case_id, other_case_id, document_type, consolidation_type, order_date
		FROM case_associations WHERE case_id = ?
		ORDER BY document_type, other_case_id
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list associations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []consolidation.Association
	for rows.Next() {
		var (
			a         consolidation.Association
			docType   string
			consType  string
			orderDate int64
		)
		if err := rows.Scan(&a.CaseID, &a.OtherCaseID, &docType, &consType, &orderDate); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		a.DocumentType = consolidation.AssociationType(docType)
		a.ConsolidationType = consolidation.Type(consType)
		a.OrderDate = time.Unix(0, orderDate).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func saveAssociation(ctx context.Context, q querier, a consolidation.Association) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO case_associations (case_id, other_case_id, document_type, consolidation_type, order_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (case_id, other_case_id, document_type) DO UPDATE SET
			consolidation_type = excluded.consolidation_type,
			order_date = excluded.order_date
	`, a.CaseID, a.OtherCaseID, string(a.DocumentType), string(a.ConsolidationType), a.OrderDate.UnixNano())
	return err
}

func docketEntries(ctx context.Context, q querier, caseID string) ([]consolidation.DocketEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT sequence, date_filed, summary, full_text, document_url
		FROM docket_entries WHERE case_id = ?
		ORDER BY sequence
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list docket entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []consolidation.DocketEntry
	for rows.Next() {
		var (
			e         consolidation.DocketEntry
			dateFiled int64
		)
		if err := rows.Scan(&e.Sequence, &dateFiled, &e.Summary, &e.FullText, &e.DocumentURL); err != nil {
			return nil, fmt.Errorf("failed to scan docket entry: %w", err)
		}
		e.DateFiled = time.Unix(0, dateFiled).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
