package postgresql

import (
	"context"
	"fmt"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/database"
)

type employeeDirectoryImpl struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) payroll.EmployeeDirectory {
	return &employeeDirectoryImpl{db: db}
}

// ListActiveWageProfiles implements payroll.EmployeeDirectory.
func (e *employeeDirectoryImpl) ListActiveWageProfiles(ctx context.Context, companyID string, category payroll.SalaryCategory) ([]payroll.EmployeeWageProfile, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, company_id, full_name, salary_category,
			COALESCE(daily_wage, 0), COALESCE(monthly_basic_pay, 0),
			COALESCE(department, ''), COALESCE(payment_type, ''), employment_status
		FROM employees
		WHERE company_id = $1 AND salary_category = $2
			AND employment_status = 'active' AND deleted_at IS NULL
		ORDER BY full_name ASC, id ASC
	`

	rows, err := q.Query(ctx, query, companyID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list wage profiles: %w", err)
	}
	defer rows.Close()

	var profiles []payroll.EmployeeWageProfile
	for rows.Next() {
		var p payroll.EmployeeWageProfile
		if err := rows.Scan(
			&p.EmployeeID, &p.CompanyID, &p.DisplayName, &p.SalaryCategory,
			&p.DailyWage, &p.MonthlyBasicPay,
			&p.Department, &p.PaymentType, &p.EmploymentStatus,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wage profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wage profiles: %w", err)
	}

	return profiles, nil
}
