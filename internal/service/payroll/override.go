package payroll

import (
	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Transition is the outcome of toggling a record's override flag.
type Transition int

const (
	// TransitionFrozen: Calculated -> Manual. Current gated values become the manual baseline.
	TransitionFrozen Transition = iota + 1
	// TransitionReleased: Manual -> Calculated. Caller must refetch adjustments and recalculate.
	TransitionReleased
)

func (t Transition) String() string {
	switch t {
	case TransitionFrozen:
		return "frozen"
	case TransitionReleased:
		return "released"
	}
	return "unknown"
}

// ToggleOverride flips the record between Calculated and Manual.
func ToggleOverride(r payroll.PayrollRecord) (payroll.PayrollRecord, Transition) {
	if r.IsOverride {
		r.IsOverride = false
		return r, TransitionReleased
	}
	r.IsOverride = true
	return r, TransitionFrozen
}

// Rehydrate prepares a stored draft for display. Gated values of a non-overridden
// draft are not trusted and are zeroed so they get re-derived.
func Rehydrate(draft payroll.PayrollRecord) payroll.PayrollRecord {
	if draft.IsOverride {
		return draft
	}
	return clearGated(draft)
}

func clearGated(r payroll.PayrollRecord) payroll.PayrollRecord {
	r.SSS = decimal.Zero
	r.Philhealth = decimal.Zero
	r.Pagibig = decimal.Zero
	r.CACharges = decimal.Zero
	r.SILPay = decimal.Zero
	return r
}

// ApplyEdit copies the non-nil fields of edit onto r. Gated fields are applied only in Manual state.
// Trip rate and trip count are ledger projections and are never edited here.
func ApplyEdit(r payroll.PayrollRecord, edit payroll.RecordEdit) payroll.PayrollRecord {
	set := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}

	set(&r.RegularDaysWorked, edit.RegularDaysWorked)
	set(&r.EarningsAdjustment, edit.EarningsAdjustment)
	set(&r.OverTime, edit.OverTime)
	set(&r.HolidayPay, edit.HolidayPay)
	set(&r.DeductionsAdjustment, edit.DeductionsAdjustment)
	set(&r.WithholdingTax, edit.WithholdingTax)
	set(&r.ThirteenthMonth, edit.ThirteenthMonth)

	if r.OverrideState() == payroll.OverrideManual {
		set(&r.SSS, edit.SSS)
		set(&r.Philhealth, edit.Philhealth)
		set(&r.Pagibig, edit.Pagibig)
		set(&r.CACharges, edit.CACharges)
		set(&r.SILPay, edit.SILPay)
	}
	return r
}
