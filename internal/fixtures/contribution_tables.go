package fixtures

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed contribution_tables.yaml
var contributionTablesYAML []byte

type rangeBracketRow struct {
	RangeStart string `yaml:"range_start"`
	RangeEnd   string `yaml:"range_end"`
	Value      string `yaml:"value"`
}

type exactBracketRow struct {
	MatchWage     string `yaml:"match_wage"`
	EmployeeShare string `yaml:"employee_share"`
}

type contributionTablesFile struct {
	Version    int               `yaml:"version"`
	SSS        []rangeBracketRow `yaml:"sss"`
	Philhealth []exactBracketRow `yaml:"philhealth"`
	Pagibig    []rangeBracketRow `yaml:"pagibig"`
}

// DefaultContributionTables returns the embedded statutory tables.
func DefaultContributionTables() (payroll.BracketTables, error) {
	return ParseContributionTables(contributionTablesYAML)
}

// ParseContributionTables decodes a contribution tables document.
func ParseContributionTables(b []byte) (payroll.BracketTables, error) {
	var f contributionTablesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return payroll.BracketTables{}, fmt.Errorf("failed to decode contribution tables: %w", err)
	}
	if f.Version != 1 {
		return payroll.BracketTables{}, errors.New("contribution tables: unsupported version")
	}

	sss, err := toRangeBrackets(f.SSS)
	if err != nil {
		return payroll.BracketTables{}, fmt.Errorf("sss: %w", err)
	}
	pagibig, err := toRangeBrackets(f.Pagibig)
	if err != nil {
		return payroll.BracketTables{}, fmt.Errorf("pagibig: %w", err)
	}

	philhealth := make([]payroll.ExactMatchBracket, 0, len(f.Philhealth))
	for i, row := range f.Philhealth {
		wage, err := decimal.NewFromString(row.MatchWage)
		if err != nil {
			return payroll.BracketTables{}, fmt.Errorf("philhealth row %d match_wage: %w", i, err)
		}
		share, err := decimal.NewFromString(row.EmployeeShare)
		if err != nil {
			return payroll.BracketTables{}, fmt.Errorf("philhealth row %d employee_share: %w", i, err)
		}
		philhealth = append(philhealth, payroll.ExactMatchBracket{MatchWage: wage, EmployeeShare: share})
	}

	return payroll.BracketTables{SSS: sss, Philhealth: philhealth, Pagibig: pagibig}, nil
}

func toRangeBrackets(rows []rangeBracketRow) ([]payroll.RangeBracket, error) {
	brackets := make([]payroll.RangeBracket, 0, len(rows))
	for i, row := range rows {
		start, err := decimal.NewFromString(row.RangeStart)
		if err != nil {
			return nil, fmt.Errorf("row %d range_start: %w", i, err)
		}
		end, err := decimal.NewFromString(row.RangeEnd)
		if err != nil {
			return nil, fmt.Errorf("row %d range_end: %w", i, err)
		}
		if end.LessThan(start) {
			return nil, fmt.Errorf("row %d: range_end below range_start", i)
		}
		value, err := decimal.NewFromString(row.Value)
		if err != nil {
			return nil, fmt.Errorf("row %d value: %w", i, err)
		}
		brackets = append(brackets, payroll.RangeBracket{RangeStart: start, RangeEnd: end, Value: value})
	}
	return brackets, nil
}

// SeedingBracketRepository installs the default tables for a company the first time
// its tables are read and found empty.
type SeedingBracketRepository struct {
	payroll.BracketRepository
	defaults payroll.BracketTables
	logger   *slog.Logger
}

func NewSeedingBracketRepository(repo payroll.BracketRepository, defaults payroll.BracketTables, logger *slog.Logger) *SeedingBracketRepository {
	return &SeedingBracketRepository{BracketRepository: repo, defaults: defaults, logger: logger}
}

func (r *SeedingBracketRepository) GetTables(ctx context.Context, companyID string) (payroll.BracketTables, error) {
	tables, err := r.BracketRepository.GetTables(ctx, companyID)
	if err != nil || !tables.IsEmpty() || r.defaults.IsEmpty() {
		return tables, err
	}

	if err := r.BracketRepository.ReplaceTables(ctx, companyID, r.defaults); err != nil {
		// Seeding is best-effort; the defaults still apply to this read.
		r.logger.Warn("failed to seed contribution tables", "company_id", companyID, "error", err)
	} else {
		r.logger.Info("seeded default contribution tables", "company_id", companyID)
	}
	return r.defaults, nil
}
