package postgresql

import (
	"context"
	"fmt"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/database"
)

type tripRepository struct {
	db *database.DB
}

func NewTripRepository(db *database.DB) payroll.TripRepository {
	return &tripRepository{db: db}
}

const waybillColumns = `
	w.waybill_number, COALESCE(w.trip_id::text, ''), COALESCE(w.stub_number, ''),
	COALESCE(w.destination, ''), COALESCE(w.billing_rate, 0), w.dispatched_at
`

// ListAssignedWaybills returns waybills dispatched in the period on trips the employee crewed.
func (r *tripRepository) ListAssignedWaybills(ctx context.Context, companyID string, employeeID string, period payroll.Period) ([]payroll.Waybill, error) {
	query := `
		SELECT DISTINCT ON (w.waybill_number)` + waybillColumns + `
		FROM waybills w
		JOIN trip_crew tc ON tc.waybill_number = w.waybill_number AND tc.company_id = w.company_id
		WHERE w.company_id = $1 AND tc.employee_id = $2
			AND w.dispatched_at::date BETWEEN $3 AND $4
		ORDER BY w.waybill_number
	`

	return r.list(ctx, query, companyID, employeeID, period.Start, period.End)
}

func (r *tripRepository) ListTripMembers(ctx context.Context, companyID string, tripID string) ([]payroll.Waybill, error) {
	query := `
		SELECT` + waybillColumns + `
		FROM waybills w
		WHERE w.company_id = $1 AND w.trip_id = $2
		ORDER BY w.waybill_number
	`

	return r.list(ctx, query, companyID, tripID)
}

func (r *tripRepository) SearchByStub(ctx context.Context, companyID string, stubNumber string) ([]payroll.Waybill, error) {
	query := `
		SELECT` + waybillColumns + `
		FROM waybills w
		WHERE w.company_id = $1 AND w.stub_number = $2
		ORDER BY w.waybill_number
	`

	return r.list(ctx, query, companyID, stubNumber)
}

func (r *tripRepository) list(ctx context.Context, query string, args ...any) ([]payroll.Waybill, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list waybills: %w", err)
	}
	defer rows.Close()

	var waybills []payroll.Waybill
	for rows.Next() {
		var w payroll.Waybill
		if err := rows.Scan(&w.WaybillNumber, &w.TripID, &w.StubNumber, &w.Destination, &w.BillingRate, &w.DispatchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan waybill: %w", err)
		}
		waybills = append(waybills, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waybills: %w", err)
	}

	return waybills, nil
}
