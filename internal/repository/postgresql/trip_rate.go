package postgresql

import (
	"context"
	"fmt"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type tripRateRepository struct {
	db *database.DB
}

func NewTripRateRepository(db *database.DB) payroll.TripRateRepository {
	return &tripRateRepository{db: db}
}

const tripRateColumns = `
	id, company_id, employee_id, period_start, period_end, waybill_number,
	trip_id, destination, rate, is_included, created_at, updated_at
`

const upsertTripRateQuery = `
	INSERT INTO trip_waybill_rates (
		company_id, employee_id, period_start, period_end, waybill_number,
		trip_id, destination, rate, is_included
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (company_id, employee_id, waybill_number, period_start, period_end) DO UPDATE SET
		trip_id = EXCLUDED.trip_id,
		destination = EXCLUDED.destination,
		rate = EXCLUDED.rate,
		is_included = EXCLUDED.is_included,
		updated_at = NOW()
	RETURNING ` + tripRateColumns

func (r *tripRateRepository) ListByEmployee(ctx context.Context, companyID string, employeeID string, period payroll.Period) ([]payroll.TripWaybillRate, error) {
	query := `
		SELECT ` + tripRateColumns + `
		FROM trip_waybill_rates
		WHERE company_id = $1 AND employee_id = $2 AND period_start = $3 AND period_end = $4
		ORDER BY waybill_number
	`

	return r.list(ctx, query, companyID, employeeID, period.Start, period.End)
}

func (r *tripRateRepository) ListByPeriod(ctx context.Context, companyID string, period payroll.Period) ([]payroll.TripWaybillRate, error) {
	query := `
		SELECT ` + tripRateColumns + `
		FROM trip_waybill_rates
		WHERE company_id = $1 AND period_start = $2 AND period_end = $3
		ORDER BY employee_id, waybill_number
	`

	return r.list(ctx, query, companyID, period.Start, period.End)
}

func (r *tripRateRepository) Upsert(ctx context.Context, rate payroll.TripWaybillRate) (payroll.TripWaybillRate, error) {
	q := GetQuerier(ctx, r.db)

	row := q.QueryRow(ctx, upsertTripRateQuery, upsertTripRateArgs(rate)...)
	saved, err := scanTripRate(row)
	if err != nil {
		return payroll.TripWaybillRate{}, fmt.Errorf("failed to upsert trip rate: %w", err)
	}
	return saved, nil
}

// UpsertMany sends all rows in one batch.
func (r *tripRateRepository) UpsertMany(ctx context.Context, rates []payroll.TripWaybillRate) error {
	if len(rates) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	batch := &pgx.Batch{}
	for _, rate := range rates {
		batch.Queue(upsertTripRateQuery, upsertTripRateArgs(rate)...)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range rates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert trip rates: %w", err)
		}
	}
	return nil
}

func upsertTripRateArgs(rate payroll.TripWaybillRate) []any {
	return []any{
		rate.CompanyID, rate.EmployeeID, rate.PeriodStart, rate.PeriodEnd, rate.WaybillNumber,
		rate.TripID, rate.Destination, rate.Rate, rate.IsIncluded,
	}
}

func (r *tripRateRepository) list(ctx context.Context, query string, args ...any) ([]payroll.TripWaybillRate, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip rates: %w", err)
	}
	defer rows.Close()

	var rates []payroll.TripWaybillRate
	for rows.Next() {
		rate, err := scanTripRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trip rates: %w", err)
	}

	return rates, nil
}

func scanTripRate(row pgx.Row) (payroll.TripWaybillRate, error) {
	var t payroll.TripWaybillRate
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.EmployeeID, &t.PeriodStart, &t.PeriodEnd, &t.WaybillNumber,
		&t.TripID, &t.Destination, &t.Rate, &t.IsIncluded, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}
