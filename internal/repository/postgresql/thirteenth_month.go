package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type thirteenthMonthRepository struct {
	db *database.DB
}

func NewThirteenthMonthRepository(db *database.DB) payroll.ThirteenthMonthRepository {
	return &thirteenthMonthRepository{db: db}
}

// GetAmount returns the latest computed 13th month pay of the employee.
func (r *thirteenthMonthRepository) GetAmount(ctx context.Context, companyID string, employeeID string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT amount
		FROM thirteenth_month_pay
		WHERE company_id = $1 AND employee_id = $2
		ORDER BY computed_at DESC
		LIMIT 1
	`

	var amount decimal.Decimal
	err := q.QueryRow(ctx, query, companyID, employeeID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, payroll.ErrThirteenthMonthNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get 13th month pay: %w", err)
	}

	return amount, nil
}
