package payroll

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidPeriod           = errors.New("invalid payroll period")
	ErrInvalidSalaryCategory   = errors.New("invalid salary category")
	ErrPrincipalRequired       = errors.New("company_id claim is missing or invalid")
	ErrRecordNotFound          = errors.New("payroll record not found in this period")
	ErrTripRatesNotApplicable  = errors.New("trip rates only apply to per-trip payroll")
	ErrWaybillNotAssigned      = errors.New("waybill is not part of the employee's trips for this period")
	ErrReportNotFound          = errors.New("payroll report not found")
	ErrThirteenthMonthNotFound = errors.New("13th month pay not found for employee")
	ErrPartialSave             = errors.New("some payroll drafts failed to save")
	ErrDraftClearFailed        = errors.New("report was generated but its drafts could not be cleared")
)

// SaveError lists the employees whose drafts were not persisted.
// Drafts saved before the failure stay saved.
type SaveError struct {
	Failed map[string]error
}

func (e *SaveError) Error() string {
	ids := e.EmployeeIDs()
	return fmt.Sprintf("%s: %s", ErrPartialSave.Error(), strings.Join(ids, ", "))
}

func (e *SaveError) Unwrap() error {
	return ErrPartialSave
}

func (e *SaveError) EmployeeIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FinalizeError is returned when a report was submitted but clearing its drafts failed.
// Retry the clear with the ReportID.
type FinalizeError struct {
	ReportID string
	Err      error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("%s (report %s): %v", ErrDraftClearFailed.Error(), e.ReportID, e.Err)
}

func (e *FinalizeError) Unwrap() []error {
	return []error{ErrDraftClearFailed, e.Err}
}
