package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/database"
)

// adjustmentRepository reads one of the per-period adjustment tables.
// The table name is fixed at construction and never user supplied.
type adjustmentRepository struct {
	db    *database.DB
	table string
}

func NewChargeRepository(db *database.DB) payroll.ChargeRepository {
	return &adjustmentRepository{db: db, table: "cash_advance_charges"}
}

func NewLeaveRepository(db *database.DB) payroll.LeaveRepository {
	return &adjustmentRepository{db: db, table: "leave_pay_entries"}
}

func (r *adjustmentRepository) ListByPeriodEnd(ctx context.Context, companyID string, periodEnd time.Time) ([]payroll.AdjustmentEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, company_id, employee_id, period_end_date, amount, created_at
		FROM %s
		WHERE company_id = $1 AND period_end_date = $2
		ORDER BY employee_id, created_at DESC
	`, r.table)

	return r.list(ctx, query, companyID, periodEnd)
}

func (r *adjustmentRepository) ListByEmployee(ctx context.Context, companyID string, employeeID string, periodEnd time.Time) ([]payroll.AdjustmentEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, company_id, employee_id, period_end_date, amount, created_at
		FROM %s
		WHERE company_id = $1 AND employee_id = $2 AND period_end_date = $3
		ORDER BY created_at DESC
	`, r.table)

	return r.list(ctx, query, companyID, employeeID, periodEnd)
}

func (r *adjustmentRepository) list(ctx context.Context, query string, args ...any) ([]payroll.AdjustmentEntry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	defer rows.Close()

	var entries []payroll.AdjustmentEntry
	for rows.Next() {
		var e payroll.AdjustmentEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.EmployeeID, &e.PeriodEndDate, &e.Amount, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.table, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", r.table, err)
	}

	return entries, nil
}
