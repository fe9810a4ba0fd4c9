package payroll

import (
	"fmt"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var daysPerMonth = decimal.NewFromInt(30)

// variant holds the formulas that differ between salary categories.
type variant interface {
	basicPay(r payroll.PayrollRecord) decimal.Decimal
	grossPay(r payroll.PayrollRecord) decimal.Decimal
	// baseWage feeds the Philhealth and Pag-IBIG lookups.
	baseWage(r payroll.PayrollRecord) decimal.Decimal
}

type dailyVariant struct{}

func (dailyVariant) basicPay(r payroll.PayrollRecord) decimal.Decimal {
	return r.DailyWage.Mul(r.RegularDaysWorked)
}

func (dailyVariant) grossPay(r payroll.PayrollRecord) decimal.Decimal {
	return r.BasicPayForPeriod.
		Add(r.EarningsAdjustment).
		Add(r.OverTime).
		Add(r.HolidayPay).
		Add(r.SILPay).
		Add(r.ThirteenthMonth)
}

func (dailyVariant) baseWage(r payroll.PayrollRecord) decimal.Decimal {
	return r.DailyWage
}

// perTripVariant pays the ledger's sum of included trip rates as-is.
type perTripVariant struct{}

func (perTripVariant) basicPay(r payroll.PayrollRecord) decimal.Decimal {
	return r.TripRate
}

func (perTripVariant) grossPay(r payroll.PayrollRecord) decimal.Decimal {
	return r.BasicPayForPeriod.
		Add(r.EarningsAdjustment).
		Add(r.SILPay).
		Add(r.ThirteenthMonth)
}

func (perTripVariant) baseWage(r payroll.PayrollRecord) decimal.Decimal {
	return r.TripRate
}

type monthlyVariant struct{}

func (monthlyVariant) basicPay(r payroll.PayrollRecord) decimal.Decimal {
	if !r.MonthlyBasicPay.IsPositive() {
		return decimal.Zero
	}
	return r.MonthlyBasicPay.Div(daysPerMonth).Mul(r.RegularDaysWorked)
}

func (monthlyVariant) grossPay(r payroll.PayrollRecord) decimal.Decimal {
	return r.BasicPayForPeriod.Add(r.ThirteenthMonth)
}

func (monthlyVariant) baseWage(r payroll.PayrollRecord) decimal.Decimal {
	return r.MonthlyBasicPay
}

var variants = map[payroll.SalaryCategory]variant{
	payroll.SalaryCategoryDaily:   dailyVariant{},
	payroll.SalaryCategoryPerTrip: perTripVariant{},
	payroll.SalaryCategoryMonthly: monthlyVariant{},
}

// Calculator derives pay and deductions for a record. It performs no I/O.
type Calculator struct {
	resolver *BracketResolver
}

func NewCalculator(resolver *BracketResolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// Calculate returns the record with its derived fields recomputed for the given category.
// Statutory contributions are re-resolved only when the record is not overridden.
func (c *Calculator) Calculate(record payroll.PayrollRecord, category payroll.SalaryCategory) (payroll.PayrollRecord, error) {
	v, ok := variants[category]
	if !ok {
		return payroll.PayrollRecord{}, fmt.Errorf("%w: %q", payroll.ErrInvalidSalaryCategory, category)
	}

	r := Normalize(record)
	r.BasicPayForPeriod = v.basicPay(r).Round(2)
	r.TotalGrossPay = v.grossPay(r).Round(2)

	if !r.IsOverride {
		base := v.baseWage(r)
		r.SSS = c.resolver.ResolveSSS(r.TotalGrossPay)
		r.Philhealth = c.resolver.ResolvePhilhealth(base)
		r.Pagibig = c.resolver.ResolvePagibig(base)
	}

	r.TotalDeductions = r.SSS.
		Add(r.Philhealth).
		Add(r.Pagibig).
		Add(r.CACharges).
		Add(r.DeductionsAdjustment).
		Add(r.WithholdingTax).
		Round(2)
	r.NetPay = r.TotalGrossPay.Sub(r.TotalDeductions)

	return r, nil
}

// Normalize clamps negative quantities to zero. The two adjustment fields stay signed.
func Normalize(r payroll.PayrollRecord) payroll.PayrollRecord {
	r.DailyWage = nonNegative(r.DailyWage)
	r.MonthlyBasicPay = nonNegative(r.MonthlyBasicPay)
	r.TripRate = nonNegative(r.TripRate)
	if r.NumberOfTrips < 0 {
		r.NumberOfTrips = 0
	}

	r.RegularDaysWorked = nonNegative(r.RegularDaysWorked)
	r.OverTime = nonNegative(r.OverTime)
	r.HolidayPay = nonNegative(r.HolidayPay)
	r.WithholdingTax = nonNegative(r.WithholdingTax)
	r.ThirteenthMonth = nonNegative(r.ThirteenthMonth)

	r.SSS = nonNegative(r.SSS)
	r.Philhealth = nonNegative(r.Philhealth)
	r.Pagibig = nonNegative(r.Pagibig)
	r.CACharges = nonNegative(r.CACharges)
	r.SILPay = nonNegative(r.SILPay)
	return r
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
