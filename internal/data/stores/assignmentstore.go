package stores

import (
	"context"
	"fmt"

	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/internal/data/db"
)

// AssignmentStore implements consolidation.AssignmentService using SQLite.
type AssignmentStore struct {
	db *db.DB
}

var _ consolidation.AssignmentService = (*AssignmentStore)(nil)

// NewAssignmentStore creates a new SQLite-backed assignment service.
func NewAssignmentStore(db *db.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// GetCaseAssignments returns the staff assigned to caseID in assignment order.
func (s *AssignmentStore) GetCaseAssignments(ctx context.Context, caseID string) ([]consolidation.Assignment, error) {
	return getCaseAssignments(ctx, s.db.Conn(), caseID)
}

// Assign adds a staff assignment. Assigning the same person and role twice
// is a no-op.
func (s *AssignmentStore) Assign(ctx context.Context, a consolidation.Assignment) error {
	if err := assign(ctx, s.db.Conn(), a); err != nil {
		return fmt.Errorf("failed to assign %q to %s: %w", a.Name, a.CaseID, err)
	}
	return nil
}

func getCaseAssignments(ctx context.Context, q querier, caseID string) ([]consolidation.Assignment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT case_id, name, role FROM case_assignments
		WHERE case_id = ? ORDER BY id
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []consolidation.Assignment
	for rows.Next() {
		var a consolidation.Assignment
		if err := rows.Scan(&a.CaseID, &a.Name, &a.Role); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func assign(ctx context.Context, q querier, a consolidation.Assignment) error {
	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO case_assignments (case_id, name, role) VALUES (?, ?, ?)
	`, a.CaseID, a.Name, a.Role)
	return err
}
