package postgresql

import (
	"context"
	"fmt"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/database"
)

type bracketRepository struct {
	db *database.DB
}

func NewBracketRepository(db *database.DB) payroll.BracketRepository {
	return &bracketRepository{db: db}
}

func (r *bracketRepository) GetTables(ctx context.Context, companyID string) (payroll.BracketTables, error) {
	q := GetQuerier(ctx, r.db)

	rangeQuery := `
		SELECT table_name, range_start, range_end, value
		FROM contribution_range_brackets
		WHERE company_id = $1
		ORDER BY table_name, position ASC
	`

	rows, err := q.Query(ctx, rangeQuery, companyID)
	if err != nil {
		return payroll.BracketTables{}, fmt.Errorf("failed to get range brackets: %w", err)
	}
	defer rows.Close()

	var tables payroll.BracketTables
	for rows.Next() {
		var table payroll.ContributionTable
		var b payroll.RangeBracket
		if err := rows.Scan(&table, &b.RangeStart, &b.RangeEnd, &b.Value); err != nil {
			return payroll.BracketTables{}, fmt.Errorf("failed to scan range bracket: %w", err)
		}
		switch table {
		case payroll.ContributionTableSSS:
			tables.SSS = append(tables.SSS, b)
		case payroll.ContributionTablePagibig:
			tables.Pagibig = append(tables.Pagibig, b)
		}
	}
	if err := rows.Err(); err != nil {
		return payroll.BracketTables{}, fmt.Errorf("failed to iterate range brackets: %w", err)
	}

	exactQuery := `
		SELECT match_wage, employee_share
		FROM philhealth_brackets
		WHERE company_id = $1
		ORDER BY position ASC
	`

	exactRows, err := q.Query(ctx, exactQuery, companyID)
	if err != nil {
		return payroll.BracketTables{}, fmt.Errorf("failed to get philhealth brackets: %w", err)
	}
	defer exactRows.Close()

	for exactRows.Next() {
		var b payroll.ExactMatchBracket
		if err := exactRows.Scan(&b.MatchWage, &b.EmployeeShare); err != nil {
			return payroll.BracketTables{}, fmt.Errorf("failed to scan philhealth bracket: %w", err)
		}
		tables.Philhealth = append(tables.Philhealth, b)
	}
	if err := exactRows.Err(); err != nil {
		return payroll.BracketTables{}, fmt.Errorf("failed to iterate philhealth brackets: %w", err)
	}

	return tables, nil
}

// ReplaceTables swaps all three tables of a company in one transaction.
func (r *bracketRepository) ReplaceTables(ctx context.Context, companyID string, tables payroll.BracketTables) error {
	return WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		if _, err := q.Exec(txCtx, `DELETE FROM contribution_range_brackets WHERE company_id = $1`, companyID); err != nil {
			return fmt.Errorf("failed to delete range brackets: %w", err)
		}
		if _, err := q.Exec(txCtx, `DELETE FROM philhealth_brackets WHERE company_id = $1`, companyID); err != nil {
			return fmt.Errorf("failed to delete philhealth brackets: %w", err)
		}

		insertRange := `
			INSERT INTO contribution_range_brackets (company_id, table_name, position, range_start, range_end, value)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		for table, brackets := range map[payroll.ContributionTable][]payroll.RangeBracket{
			payroll.ContributionTableSSS:     tables.SSS,
			payroll.ContributionTablePagibig: tables.Pagibig,
		} {
			for i, b := range brackets {
				if _, err := q.Exec(txCtx, insertRange, companyID, table, i, b.RangeStart, b.RangeEnd, b.Value); err != nil {
					return fmt.Errorf("failed to insert %s bracket: %w", table, err)
				}
			}
		}

		insertExact := `
			INSERT INTO philhealth_brackets (company_id, position, match_wage, employee_share)
			VALUES ($1, $2, $3, $4)
		`
		for i, b := range tables.Philhealth {
			if _, err := q.Exec(txCtx, insertExact, companyID, i, b.MatchWage, b.EmployeeShare); err != nil {
				return fmt.Errorf("failed to insert philhealth bracket: %w", err)
			}
		}

		return nil
	})
}
