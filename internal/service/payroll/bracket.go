package payroll

import (
	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// PagibigCeiling is the maximum employee Pag-IBIG contribution per period.
var PagibigCeiling = decimal.NewFromInt(100)

var hundred = decimal.NewFromInt(100)

// BracketResolver looks up statutory contributions in a fixed snapshot of tables.
// A missing bracket always resolves to zero.
type BracketResolver struct {
	tables payroll.BracketTables
}

func NewBracketResolver(tables payroll.BracketTables) *BracketResolver {
	snapshot := payroll.BracketTables{
		SSS:        append([]payroll.RangeBracket(nil), tables.SSS...),
		Philhealth: append([]payroll.ExactMatchBracket(nil), tables.Philhealth...),
		Pagibig:    append([]payroll.RangeBracket(nil), tables.Pagibig...),
	}
	return &BracketResolver{tables: snapshot}
}

// ResolveSSS returns the total contribution of the first bracket containing totalGrossPay.
func (b *BracketResolver) ResolveSSS(totalGrossPay decimal.Decimal) decimal.Decimal {
	for _, bracket := range b.tables.SSS {
		if bracket.Contains(totalGrossPay) {
			return bracket.Value
		}
	}
	return decimal.Zero
}

// ResolvePhilhealth returns the employee share of the bracket whose wage equals baseWage exactly.
// Wages that fall between table entries resolve to zero.
func (b *BracketResolver) ResolvePhilhealth(baseWage decimal.Decimal) decimal.Decimal {
	for _, bracket := range b.tables.Philhealth {
		if bracket.MatchWage.Equal(baseWage) {
			return bracket.EmployeeShare
		}
	}
	return decimal.Zero
}

// ResolvePagibig returns baseWage times the bracket's share percentage, capped at PagibigCeiling.
// Wages above every bracket use the share of the bracket with the highest upper bound.
func (b *BracketResolver) ResolvePagibig(baseWage decimal.Decimal) decimal.Decimal {
	share, ok := b.pagibigShare(baseWage)
	if !ok {
		return decimal.Zero
	}

	amount := baseWage.Mul(share).Div(hundred)
	if amount.GreaterThan(PagibigCeiling) {
		amount = PagibigCeiling
	}
	return amount.Round(2)
}

func (b *BracketResolver) pagibigShare(baseWage decimal.Decimal) (decimal.Decimal, bool) {
	if len(b.tables.Pagibig) == 0 {
		return decimal.Zero, false
	}

	highest := b.tables.Pagibig[0]
	for _, bracket := range b.tables.Pagibig {
		if bracket.Contains(baseWage) {
			return bracket.Value, true
		}
		if bracket.RangeEnd.GreaterThan(highest.RangeEnd) {
			highest = bracket
		}
	}

	if baseWage.GreaterThan(highest.RangeEnd) {
		return highest.Value, true
	}
	return decimal.Zero, false
}
