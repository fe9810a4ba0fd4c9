package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/metrics"
	"github.com/shopspring/decimal"
)

// MembershipResolver lists the waybills that share a trip with an assigned waybill.
type MembershipResolver interface {
	Members(ctx context.Context, companyID string, assigned payroll.Waybill) ([]payroll.Waybill, error)
}

// TripGraphResolver follows the waybill's trip ID.
type TripGraphResolver struct {
	trips payroll.TripRepository
}

func NewTripGraphResolver(trips payroll.TripRepository) *TripGraphResolver {
	return &TripGraphResolver{trips: trips}
}

func (r *TripGraphResolver) Members(ctx context.Context, companyID string, assigned payroll.Waybill) ([]payroll.Waybill, error) {
	if assigned.TripID == "" {
		return nil, nil
	}
	return r.trips.ListTripMembers(ctx, companyID, assigned.TripID)
}

// StubSearchResolver groups waybills printed on the same stub.
// Used for waybills whose trip link is missing.
type StubSearchResolver struct {
	trips payroll.TripRepository
}

func NewStubSearchResolver(trips payroll.TripRepository) *StubSearchResolver {
	return &StubSearchResolver{trips: trips}
}

func (r *StubSearchResolver) Members(ctx context.Context, companyID string, assigned payroll.Waybill) ([]payroll.Waybill, error) {
	if assigned.StubNumber == "" {
		return nil, nil
	}
	return r.trips.SearchByStub(ctx, companyID, assigned.StubNumber)
}

// TripRateLedger owns the per-waybill rates of per-trip employees and is the
// only source of a record's trip rate and trip count.
type TripRateLedger struct {
	trips    payroll.TripRepository
	rates    payroll.TripRateRepository
	primary  MembershipResolver
	fallback MembershipResolver
	logger   *slog.Logger
}

func NewTripRateLedger(
	trips payroll.TripRepository,
	rates payroll.TripRateRepository,
	primary MembershipResolver,
	fallback MembershipResolver,
	logger *slog.Logger,
) *TripRateLedger {
	return &TripRateLedger{
		trips:    trips,
		rates:    rates,
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// EntriesFor returns the ledger rows for the employee's trips in the period.
// Member waybills without a row get one, priced at the billing rate and excluded.
// Stored rows for waybills no longer in the trip are returned with IsMember unset.
func (l *TripRateLedger) EntriesFor(ctx context.Context, companyID, employeeID string, period payroll.Period) ([]payroll.TripEntry, error) {
	members, err := l.members(ctx, companyID, employeeID, period)
	if err != nil {
		return nil, err
	}

	stored, err := l.rates.ListByEmployee(ctx, companyID, employeeID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip rates: %w", err)
	}
	byWaybill := make(map[string]payroll.TripWaybillRate, len(stored))
	for _, row := range stored {
		byWaybill[row.WaybillNumber] = row
	}

	var missing []payroll.TripWaybillRate
	entries := make([]payroll.TripEntry, 0, len(members)+len(stored))
	seen := make(map[string]bool, len(members))
	for _, wb := range members {
		seen[wb.WaybillNumber] = true
		row, ok := byWaybill[wb.WaybillNumber]
		if !ok {
			row = payroll.TripWaybillRate{
				CompanyID:     companyID,
				EmployeeID:    employeeID,
				PeriodStart:   period.Start,
				PeriodEnd:     period.End,
				WaybillNumber: wb.WaybillNumber,
				TripID:        wb.TripID,
				Destination:   wb.Destination,
				Rate:          nonNegative(wb.BillingRate),
				IsIncluded:    false,
			}
			missing = append(missing, row)
		}
		entries = append(entries, payroll.TripEntry{TripWaybillRate: row, IsMember: true})
	}

	if len(missing) > 0 {
		if err := l.rates.UpsertMany(ctx, missing); err != nil {
			return nil, fmt.Errorf("failed to create trip rates: %w", err)
		}
	}

	for _, row := range stored {
		if !seen[row.WaybillNumber] {
			entries = append(entries, payroll.TripEntry{TripWaybillRate: row})
		}
	}
	return entries, nil
}

// members resolves the distinct waybills of every trip assigned to the employee in the period.
func (l *TripRateLedger) members(ctx context.Context, companyID, employeeID string, period payroll.Period) ([]payroll.Waybill, error) {
	assigned, err := l.trips.ListAssignedWaybills(ctx, companyID, employeeID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned waybills: %w", err)
	}

	var result []payroll.Waybill
	seen := make(map[string]bool)
	add := func(wb payroll.Waybill) {
		if wb.WaybillNumber == "" || seen[wb.WaybillNumber] {
			return
		}
		seen[wb.WaybillNumber] = true
		result = append(result, wb)
	}

	for _, wb := range assigned {
		add(wb)
		for _, m := range l.resolve(ctx, companyID, wb) {
			add(m)
		}
	}
	return result, nil
}

func (l *TripRateLedger) resolve(ctx context.Context, companyID string, assigned payroll.Waybill) []payroll.Waybill {
	members, err := l.primary.Members(ctx, companyID, assigned)
	if err == nil && len(members) > 0 {
		return members
	}
	if err != nil {
		metrics.AuxiliaryDegraded.WithLabelValues(sourceTripLedger).Inc()
		l.logger.Warn("trip membership lookup failed, searching by stub",
			slog.String("waybill_number", assigned.WaybillNumber),
			slog.Any("error", err),
		)
	}

	members, err = l.fallback.Members(ctx, companyID, assigned)
	if err != nil {
		metrics.AuxiliaryDegraded.WithLabelValues(sourceTripLedger).Inc()
		l.logger.Warn("stub search failed",
			slog.String("waybill_number", assigned.WaybillNumber),
			slog.Any("error", err),
		)
		return nil
	}
	return members
}

// SetRate stores a new rate for one waybill. Negative rates are stored as zero.
func (l *TripRateLedger) SetRate(ctx context.Context, companyID, employeeID string, period payroll.Period, waybillNumber string, rate decimal.Decimal) (payroll.TripWaybillRate, error) {
	return l.mutate(ctx, companyID, employeeID, period, waybillNumber, func(row *payroll.TripWaybillRate) {
		row.Rate = nonNegative(rate)
	})
}

// SetIncluded marks one waybill as counted or not counted toward trip pay.
func (l *TripRateLedger) SetIncluded(ctx context.Context, companyID, employeeID string, period payroll.Period, waybillNumber string, included bool) (payroll.TripWaybillRate, error) {
	return l.mutate(ctx, companyID, employeeID, period, waybillNumber, func(row *payroll.TripWaybillRate) {
		row.IsIncluded = included
	})
}

func (l *TripRateLedger) mutate(
	ctx context.Context,
	companyID, employeeID string,
	period payroll.Period,
	waybillNumber string,
	apply func(row *payroll.TripWaybillRate),
) (payroll.TripWaybillRate, error) {
	row, ok, err := l.find(ctx, companyID, employeeID, period, waybillNumber)
	if err != nil {
		return payroll.TripWaybillRate{}, err
	}
	if !ok {
		// Row not materialized yet, build the ledger view first.
		entries, err := l.EntriesFor(ctx, companyID, employeeID, period)
		if err != nil {
			return payroll.TripWaybillRate{}, err
		}
		for _, e := range entries {
			if e.WaybillNumber == waybillNumber {
				row, ok = e.TripWaybillRate, true
				break
			}
		}
		if !ok {
			return payroll.TripWaybillRate{}, payroll.ErrWaybillNotAssigned
		}
	}

	apply(&row)
	updated, err := l.rates.Upsert(ctx, row)
	if err != nil {
		return payroll.TripWaybillRate{}, fmt.Errorf("failed to update trip rate: %w", err)
	}
	return updated, nil
}

func (l *TripRateLedger) find(ctx context.Context, companyID, employeeID string, period payroll.Period, waybillNumber string) (payroll.TripWaybillRate, bool, error) {
	rows, err := l.rates.ListByEmployee(ctx, companyID, employeeID, period)
	if err != nil {
		return payroll.TripWaybillRate{}, false, fmt.Errorf("failed to list trip rates: %w", err)
	}
	for _, row := range rows {
		if row.WaybillNumber == waybillNumber {
			return row, true, nil
		}
	}
	return payroll.TripWaybillRate{}, false, nil
}

// Aggregate sums the included rates of one employee.
func (l *TripRateLedger) Aggregate(ctx context.Context, companyID, employeeID string, period payroll.Period) (payroll.TripAggregate, error) {
	rows, err := l.rates.ListByEmployee(ctx, companyID, employeeID, period)
	if err != nil {
		return payroll.TripAggregate{}, fmt.Errorf("failed to list trip rates: %w", err)
	}
	return aggregateRows(rows)[employeeID], nil
}

// AggregatePeriod sums the included rates of every employee in the period.
func (l *TripRateLedger) AggregatePeriod(ctx context.Context, companyID string, period payroll.Period) (map[string]payroll.TripAggregate, error) {
	rows, err := l.rates.ListByPeriod(ctx, companyID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip rates: %w", err)
	}
	return aggregateRows(rows), nil
}

func aggregateRows(rows []payroll.TripWaybillRate) map[string]payroll.TripAggregate {
	result := make(map[string]payroll.TripAggregate)
	for _, row := range rows {
		agg := result[row.EmployeeID]
		if row.IsIncluded {
			agg.Sum = agg.Sum.Add(row.Rate)
			agg.Count++
		}
		result[row.EmployeeID] = agg
	}
	return result
}
