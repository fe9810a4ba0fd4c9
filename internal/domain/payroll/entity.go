package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryCategory enum
type SalaryCategory string

const (
	SalaryCategoryDaily   SalaryCategory = "daily"
	SalaryCategoryMonthly SalaryCategory = "monthly"
	SalaryCategoryPerTrip SalaryCategory = "per_trip"
)

func (c SalaryCategory) IsValid() bool {
	switch c {
	case SalaryCategoryDaily, SalaryCategoryMonthly, SalaryCategoryPerTrip:
		return true
	}
	return false
}

// Principal identifies the caller on whose behalf a session runs.
type Principal struct {
	CompanyID string
	UserID    string
}

// Period is an inclusive payroll date range.
type Period struct {
	Start time.Time
	End   time.Time
}

func NewPeriod(start, end time.Time) (Period, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

func (p Period) String() string {
	return p.Start.Format("2006-01-02") + ".." + p.End.Format("2006-01-02")
}

// EmployeeWageProfile - Read-only view of the employee directory
type EmployeeWageProfile struct {
	EmployeeID       string
	CompanyID        string
	DisplayName      string
	SalaryCategory   SalaryCategory
	DailyWage        decimal.Decimal
	MonthlyBasicPay  decimal.Decimal
	Department       string
	PaymentType      string
	EmploymentStatus string
}

// ContributionTable names one of the three statutory tables.
type ContributionTable string

const (
	ContributionTableSSS        ContributionTable = "sss"
	ContributionTablePhilhealth ContributionTable = "philhealth"
	ContributionTablePagibig    ContributionTable = "pagibig"
)

// RangeBracket - SSS total contribution or Pag-IBIG employee share percentage
type RangeBracket struct {
	RangeStart decimal.Decimal
	RangeEnd   decimal.Decimal
	Value      decimal.Decimal
}

func (b RangeBracket) Contains(amount decimal.Decimal) bool {
	return b.RangeStart.LessThanOrEqual(amount) && amount.LessThanOrEqual(b.RangeEnd)
}

// ExactMatchBracket - Philhealth employee share keyed by exact wage
type ExactMatchBracket struct {
	MatchWage     decimal.Decimal
	EmployeeShare decimal.Decimal
}

// BracketTables is the snapshot of contribution tables used for one period.
type BracketTables struct {
	SSS        []RangeBracket
	Philhealth []ExactMatchBracket
	Pagibig    []RangeBracket
}

func (t BracketTables) IsEmpty() bool {
	return len(t.SSS) == 0 && len(t.Philhealth) == 0 && len(t.Pagibig) == 0
}

// AdjustmentEntry - Cash-advance charge or service-incentive-leave pay for a period end
type AdjustmentEntry struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	PeriodEndDate time.Time
	Amount        decimal.Decimal
	RecordedAt    time.Time
}

// Waybill as reported by the trip collaborator
type Waybill struct {
	WaybillNumber string
	TripID        string
	StubNumber    string
	Destination   string
	BillingRate   decimal.Decimal
	DispatchedAt  time.Time
}

// TripWaybillRate - Per-employee, per-period rate and inclusion of one waybill
type TripWaybillRate struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	WaybillNumber string
	TripID        string
	Destination   string
	Rate          decimal.Decimal
	IsIncluded    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TripEntry is a ledger row joined against current trip membership.
type TripEntry struct {
	TripWaybillRate
	IsMember bool
}

// TripAggregate - Sum and count of included trip rates
type TripAggregate struct {
	Sum   decimal.Decimal
	Count int
}

// OverrideState enum
type OverrideState string

const (
	OverrideCalculated OverrideState = "calculated"
	OverrideManual     OverrideState = "manual"
)

// PayrollRecord - Draft payroll row for one employee and one period
type PayrollRecord struct {
	ID             string
	CompanyID      string
	EmployeeID     string
	EmployeeName   string
	Department     string
	PaymentType    string
	SalaryCategory SalaryCategory
	PeriodStart    time.Time
	PeriodEnd      time.Time

	// Base rates
	DailyWage       decimal.Decimal
	MonthlyBasicPay decimal.Decimal
	TripRate        decimal.Decimal
	NumberOfTrips   int

	// Manual inputs
	RegularDaysWorked    decimal.Decimal
	EarningsAdjustment   decimal.Decimal
	OverTime             decimal.Decimal
	HolidayPay           decimal.Decimal
	DeductionsAdjustment decimal.Decimal
	WithholdingTax       decimal.Decimal
	ThirteenthMonth      decimal.Decimal

	// Authoritative only while IsOverride is set
	SSS        decimal.Decimal
	Philhealth decimal.Decimal
	Pagibig    decimal.Decimal
	CACharges  decimal.Decimal
	SILPay     decimal.Decimal

	// Derived
	BasicPayForPeriod decimal.Decimal
	TotalGrossPay     decimal.Decimal
	TotalDeductions   decimal.Decimal
	NetPay            decimal.Decimal

	IsOverride bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r PayrollRecord) OverrideState() OverrideState {
	if r.IsOverride {
		return OverrideManual
	}
	return OverrideCalculated
}

// RecordEdit carries the fields an operator may change on a record. Nil means unchanged.
type RecordEdit struct {
	RegularDaysWorked    *decimal.Decimal
	EarningsAdjustment   *decimal.Decimal
	OverTime             *decimal.Decimal
	HolidayPay           *decimal.Decimal
	DeductionsAdjustment *decimal.Decimal
	WithholdingTax       *decimal.Decimal
	ThirteenthMonth      *decimal.Decimal

	SSS        *decimal.Decimal
	Philhealth *decimal.Decimal
	Pagibig    *decimal.Decimal
	CACharges  *decimal.Decimal
	SILPay     *decimal.Decimal
}

// PayrollReport - Finalized, immutable set of payroll lines
type PayrollReport struct {
	ID              string
	CompanyID       string
	SalaryCategory  SalaryCategory
	PeriodStart     time.Time
	PeriodEnd       time.Time
	GeneratedBy     string
	Lines           []PayrollRecord
	TotalGrossPay   decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalNetPay     decimal.Decimal
	CreatedAt       time.Time
}
