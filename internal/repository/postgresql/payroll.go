package postgresql

import (
	"context"
	"fmt"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type draftRepository struct {
	db *database.DB
}

func NewDraftRepository(db *database.DB) payroll.DraftRepository {
	return &draftRepository{db: db}
}

const draftColumns = `
	id, company_id, employee_id, employee_name, department, payment_type, salary_category,
	period_start, period_end,
	daily_wage, monthly_basic_pay, trip_rate, number_of_trips,
	regular_days_worked, earnings_adjustment, over_time, holiday_pay,
	deductions_adjustment, withholding_tax, thirteenth_month,
	sss, philhealth, pagibig, ca_charges, sil_pay,
	basic_pay_for_period, total_gross_pay, total_deductions, net_pay,
	is_override, created_at, updated_at
`

func (r *draftRepository) ListByPeriod(ctx context.Context, companyID string, category payroll.SalaryCategory, period payroll.Period) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + draftColumns + `
		FROM payroll_drafts
		WHERE company_id = $1 AND salary_category = $2 AND period_start = $3 AND period_end = $4
		ORDER BY employee_name ASC, employee_id ASC
	`

	rows, err := q.Query(ctx, query, companyID, category, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll drafts: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll draft: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll drafts: %w", err)
	}

	return records, nil
}

// UpsertMany writes each record on its own so one bad row does not block the others.
func (r *draftRepository) UpsertMany(ctx context.Context, companyID string, records []payroll.PayrollRecord) (map[string]error, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_drafts (
			company_id, employee_id, employee_name, department, payment_type, salary_category,
			period_start, period_end,
			daily_wage, monthly_basic_pay, trip_rate, number_of_trips,
			regular_days_worked, earnings_adjustment, over_time, holiday_pay,
			deductions_adjustment, withholding_tax, thirteenth_month,
			sss, philhealth, pagibig, ca_charges, sil_pay,
			basic_pay_for_period, total_gross_pay, total_deductions, net_pay,
			is_override
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
		)
		ON CONFLICT (company_id, employee_id, period_start, period_end) DO UPDATE SET
			employee_name = EXCLUDED.employee_name,
			department = EXCLUDED.department,
			payment_type = EXCLUDED.payment_type,
			salary_category = EXCLUDED.salary_category,
			daily_wage = EXCLUDED.daily_wage,
			monthly_basic_pay = EXCLUDED.monthly_basic_pay,
			trip_rate = EXCLUDED.trip_rate,
			number_of_trips = EXCLUDED.number_of_trips,
			regular_days_worked = EXCLUDED.regular_days_worked,
			earnings_adjustment = EXCLUDED.earnings_adjustment,
			over_time = EXCLUDED.over_time,
			holiday_pay = EXCLUDED.holiday_pay,
			deductions_adjustment = EXCLUDED.deductions_adjustment,
			withholding_tax = EXCLUDED.withholding_tax,
			thirteenth_month = EXCLUDED.thirteenth_month,
			sss = EXCLUDED.sss,
			philhealth = EXCLUDED.philhealth,
			pagibig = EXCLUDED.pagibig,
			ca_charges = EXCLUDED.ca_charges,
			sil_pay = EXCLUDED.sil_pay,
			basic_pay_for_period = EXCLUDED.basic_pay_for_period,
			total_gross_pay = EXCLUDED.total_gross_pay,
			total_deductions = EXCLUDED.total_deductions,
			net_pay = EXCLUDED.net_pay,
			is_override = EXCLUDED.is_override,
			updated_at = NOW()
	`

	failed := make(map[string]error)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		_, err := q.Exec(ctx, query,
			companyID, rec.EmployeeID, rec.EmployeeName, rec.Department, rec.PaymentType, rec.SalaryCategory,
			rec.PeriodStart, rec.PeriodEnd,
			rec.DailyWage, rec.MonthlyBasicPay, rec.TripRate, rec.NumberOfTrips,
			rec.RegularDaysWorked, rec.EarningsAdjustment, rec.OverTime, rec.HolidayPay,
			rec.DeductionsAdjustment, rec.WithholdingTax, rec.ThirteenthMonth,
			rec.SSS, rec.Philhealth, rec.Pagibig, rec.CACharges, rec.SILPay,
			rec.BasicPayForPeriod, rec.TotalGrossPay, rec.TotalDeductions, rec.NetPay,
			rec.IsOverride,
		)
		if err != nil {
			failed[rec.EmployeeID] = fmt.Errorf("failed to upsert payroll draft: %w", err)
		}
	}

	return failed, nil
}

func (r *draftRepository) DeleteByPeriod(ctx context.Context, companyID string, category payroll.SalaryCategory, period payroll.Period) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM payroll_drafts
		WHERE company_id = $1 AND salary_category = $2 AND period_start = $3 AND period_end = $4
	`

	tag, err := q.Exec(ctx, query, companyID, category, period.Start, period.End)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payroll drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteFinalized deletes the drafts matching the lines of a report. Already-deleted drafts are skipped.
func (r *draftRepository) DeleteFinalized(ctx context.Context, companyID string, reportID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM payroll_drafts d
		USING payroll_report_lines l
		JOIN payroll_reports pr ON pr.id = l.report_id
		WHERE pr.id = $1 AND pr.company_id = $2
			AND d.company_id = pr.company_id
			AND d.employee_id = l.employee_id
			AND d.period_start = pr.period_start
			AND d.period_end = pr.period_end
	`

	tag, err := q.Exec(ctx, query, reportID, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete finalized drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanDraft(row pgx.Row) (payroll.PayrollRecord, error) {
	var d payroll.PayrollRecord
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.EmployeeID, &d.EmployeeName, &d.Department, &d.PaymentType, &d.SalaryCategory,
		&d.PeriodStart, &d.PeriodEnd,
		&d.DailyWage, &d.MonthlyBasicPay, &d.TripRate, &d.NumberOfTrips,
		&d.RegularDaysWorked, &d.EarningsAdjustment, &d.OverTime, &d.HolidayPay,
		&d.DeductionsAdjustment, &d.WithholdingTax, &d.ThirteenthMonth,
		&d.SSS, &d.Philhealth, &d.Pagibig, &d.CACharges, &d.SILPay,
		&d.BasicPayForPeriod, &d.TotalGrossPay, &d.TotalDeductions, &d.NetPay,
		&d.IsOverride, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}
