package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// All methods include companyID parameter to prevent cross-company data access attacks.

// EmployeeDirectory lists active wage profiles.
type EmployeeDirectory interface {
	ListActiveWageProfiles(ctx context.Context, companyID string, category SalaryCategory) ([]EmployeeWageProfile, error)
}

// BracketRepository stores the SSS, Philhealth and Pag-IBIG contribution tables.
type BracketRepository interface {
	GetTables(ctx context.Context, companyID string) (BracketTables, error)
	ReplaceTables(ctx context.Context, companyID string, tables BracketTables) error
}

// ChargeRepository reads cash-advance charges.
type ChargeRepository interface {
	ListByPeriodEnd(ctx context.Context, companyID string, periodEnd time.Time) ([]AdjustmentEntry, error)
	ListByEmployee(ctx context.Context, companyID string, employeeID string, periodEnd time.Time) ([]AdjustmentEntry, error)
}

// LeaveRepository reads service-incentive-leave pay.
type LeaveRepository interface {
	ListByPeriodEnd(ctx context.Context, companyID string, periodEnd time.Time) ([]AdjustmentEntry, error)
	ListByEmployee(ctx context.Context, companyID string, employeeID string, periodEnd time.Time) ([]AdjustmentEntry, error)
}

// TripRepository resolves waybills and their trip grouping.
type TripRepository interface {
	ListAssignedWaybills(ctx context.Context, companyID string, employeeID string, period Period) ([]Waybill, error)
	ListTripMembers(ctx context.Context, companyID string, tripID string) ([]Waybill, error)
	SearchByStub(ctx context.Context, companyID string, stubNumber string) ([]Waybill, error)
}

// TripRateRepository persists the per-waybill trip ledger.
type TripRateRepository interface {
	ListByEmployee(ctx context.Context, companyID string, employeeID string, period Period) ([]TripWaybillRate, error)
	ListByPeriod(ctx context.Context, companyID string, period Period) ([]TripWaybillRate, error)
	Upsert(ctx context.Context, rate TripWaybillRate) (TripWaybillRate, error)
	UpsertMany(ctx context.Context, rates []TripWaybillRate) error
}

// DraftRepository persists unfinalized payroll records keyed by (employee, period).
type DraftRepository interface {
	ListByPeriod(ctx context.Context, companyID string, category SalaryCategory, period Period) ([]PayrollRecord, error)
	// UpsertMany writes each record independently. The returned map holds per-employee failures.
	UpsertMany(ctx context.Context, companyID string, records []PayrollRecord) (map[string]error, error)
	DeleteByPeriod(ctx context.Context, companyID string, category SalaryCategory, period Period) (int64, error)
	// DeleteFinalized removes the drafts covered by a report. Safe to call more than once.
	DeleteFinalized(ctx context.Context, companyID string, reportID string) (int64, error)
}

// ReportRepository stores finalized payroll reports.
type ReportRepository interface {
	Submit(ctx context.Context, report PayrollReport) (PayrollReport, error)
	GetByID(ctx context.Context, companyID string, reportID string) (PayrollReport, error)
}

// ThirteenthMonthRepository looks up precomputed 13th month pay.
type ThirteenthMonthRepository interface {
	GetAmount(ctx context.Context, companyID string, employeeID string) (decimal.Decimal, error)
}
