package payroll

import (
	"context"
	"log/slog"
	"time"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/metrics"
	"github.com/shopspring/decimal"
)

const (
	sourceCharges    = "charges"
	sourceLeave      = "leave"
	sourceDirectory  = "directory"
	sourceBrackets   = "contribution_tables"
	sourceTripLedger = "trip_ledger"
)

// AdjustmentSnapshot holds the effective charge and leave pay per employee for one period end.
type AdjustmentSnapshot struct {
	Charges  map[string]decimal.Decimal
	LeavePay map[string]decimal.Decimal
	Degraded []string
}

func (s AdjustmentSnapshot) Charge(employeeID string) decimal.Decimal {
	return s.Charges[employeeID]
}

func (s AdjustmentSnapshot) Leave(employeeID string) decimal.Decimal {
	return s.LeavePay[employeeID]
}

// AdjustmentGateway reads cash-advance charges and leave pay.
// Lookups never fail: missing data or an unreachable source resolves to zero.
type AdjustmentGateway struct {
	charges payroll.ChargeRepository
	leaves  payroll.LeaveRepository
	logger  *slog.Logger
}

func NewAdjustmentGateway(charges payroll.ChargeRepository, leaves payroll.LeaveRepository, logger *slog.Logger) *AdjustmentGateway {
	return &AdjustmentGateway{charges: charges, leaves: leaves, logger: logger}
}

func (g *AdjustmentGateway) Snapshot(ctx context.Context, companyID string, periodEnd time.Time) AdjustmentSnapshot {
	snap := AdjustmentSnapshot{
		Charges:  map[string]decimal.Decimal{},
		LeavePay: map[string]decimal.Decimal{},
	}

	charges, err := g.charges.ListByPeriodEnd(ctx, companyID, periodEnd)
	if err != nil {
		g.degraded(sourceCharges, companyID, err)
		snap.Degraded = append(snap.Degraded, sourceCharges)
	} else {
		snap.Charges = latestByEmployee(charges, periodEnd)
	}

	leaves, err := g.leaves.ListByPeriodEnd(ctx, companyID, periodEnd)
	if err != nil {
		g.degraded(sourceLeave, companyID, err)
		snap.Degraded = append(snap.Degraded, sourceLeave)
	} else {
		snap.LeavePay = latestByEmployee(leaves, periodEnd)
	}

	return snap
}

func (g *AdjustmentGateway) ChargeTotal(ctx context.Context, companyID, employeeID string, periodEnd time.Time) decimal.Decimal {
	entries, err := g.charges.ListByEmployee(ctx, companyID, employeeID, periodEnd)
	if err != nil {
		g.degraded(sourceCharges, companyID, err)
		return decimal.Zero
	}
	return latestByEmployee(entries, periodEnd)[employeeID]
}

func (g *AdjustmentGateway) LeavePay(ctx context.Context, companyID, employeeID string, periodEnd time.Time) decimal.Decimal {
	entries, err := g.leaves.ListByEmployee(ctx, companyID, employeeID, periodEnd)
	if err != nil {
		g.degraded(sourceLeave, companyID, err)
		return decimal.Zero
	}
	return latestByEmployee(entries, periodEnd)[employeeID]
}

func (g *AdjustmentGateway) degraded(source, companyID string, err error) {
	metrics.AuxiliaryDegraded.WithLabelValues(source).Inc()
	g.logger.Warn("auxiliary lookup failed, using zero values",
		slog.String("source", source),
		slog.String("company_id", companyID),
		slog.Any("error", err),
	)
}

// latestByEmployee keeps the most recently recorded entry per employee for the period end.
func latestByEmployee(entries []payroll.AdjustmentEntry, periodEnd time.Time) map[string]decimal.Decimal {
	latest := make(map[string]payroll.AdjustmentEntry, len(entries))
	for _, e := range entries {
		if !sameDay(e.PeriodEndDate, periodEnd) {
			continue
		}
		if cur, ok := latest[e.EmployeeID]; !ok || e.RecordedAt.After(cur.RecordedAt) {
			latest[e.EmployeeID] = e
		}
	}

	amounts := make(map[string]decimal.Decimal, len(latest))
	for id, e := range latest {
		amounts[id] = e.Amount
	}
	return amounts
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
