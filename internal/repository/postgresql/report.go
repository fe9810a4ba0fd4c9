package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type reportRepository struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) payroll.ReportRepository {
	return &reportRepository{db: db}
}

// Submit stores the report header and its lines in one transaction.
func (r *reportRepository) Submit(ctx context.Context, report payroll.PayrollReport) (payroll.PayrollReport, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return payroll.PayrollReport{}, fmt.Errorf("failed to generate report id: %w", err)
	}
	report.ID = id.String()

	err = WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		headerQuery := `
			INSERT INTO payroll_reports (
				id, company_id, salary_category, period_start, period_end, generated_by,
				total_gross_pay, total_deductions, total_net_pay
			) VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8, $9)
			RETURNING created_at
		`
		if err := q.QueryRow(txCtx, headerQuery,
			report.ID, report.CompanyID, report.SalaryCategory, report.PeriodStart, report.PeriodEnd, report.GeneratedBy,
			report.TotalGrossPay, report.TotalDeductions, report.TotalNetPay,
		).Scan(&report.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert payroll report: %w", err)
		}

		lineQuery := `
			INSERT INTO payroll_report_lines (
				report_id, employee_id, employee_name, department, payment_type,
				basic_pay_for_period, total_gross_pay, sss, philhealth, pagibig, ca_charges, sil_pay,
				total_deductions, net_pay, is_override
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`
		batch := &pgx.Batch{}
		for _, l := range report.Lines {
			batch.Queue(lineQuery,
				report.ID, l.EmployeeID, l.EmployeeName, l.Department, l.PaymentType,
				l.BasicPayForPeriod, l.TotalGrossPay, l.SSS, l.Philhealth, l.Pagibig, l.CACharges, l.SILPay,
				l.TotalDeductions, l.NetPay, l.IsOverride,
			)
		}
		results := q.SendBatch(txCtx, batch)
		for range report.Lines {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to insert payroll report line: %w", err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return payroll.PayrollReport{}, err
	}

	return report, nil
}

func (r *reportRepository) GetByID(ctx context.Context, companyID string, reportID string) (payroll.PayrollReport, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, salary_category, period_start, period_end, COALESCE(generated_by::text, ''),
			total_gross_pay, total_deductions, total_net_pay, created_at
		FROM payroll_reports
		WHERE id = $1 AND company_id = $2
	`

	var rep payroll.PayrollReport
	err := q.QueryRow(ctx, query, reportID, companyID).Scan(
		&rep.ID, &rep.CompanyID, &rep.SalaryCategory, &rep.PeriodStart, &rep.PeriodEnd, &rep.GeneratedBy,
		&rep.TotalGrossPay, &rep.TotalDeductions, &rep.TotalNetPay, &rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollReport{}, payroll.ErrReportNotFound
		}
		return payroll.PayrollReport{}, fmt.Errorf("failed to get payroll report: %w", err)
	}

	return rep, nil
}
