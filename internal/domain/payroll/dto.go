package payroll

import (
	"strings"

	"github.com/haulops/backoffice-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Amount is a lenient money input. Blank or non-numeric values decode to zero.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	d, err := decimal.NewFromString(s)
	if err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = d
	return nil
}

func (a *Amount) decimalPtr() *decimal.Decimal {
	if a == nil {
		return nil
	}
	d := a.Decimal
	return &d
}

// ========== PERIOD DTOs ==========

type PeriodRequest struct {
	Category    string `json:"-"`
	PeriodStart string `json:"-"`
	PeriodEnd   string `json:"-"`
}

func (r *PeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if !SalaryCategory(r.Category).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "must be 'daily', 'monthly' or 'per_trip'"})
	}
	start, okStart := validator.IsValidDate(r.PeriodStart)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be in YYYY-MM-DD format"})
	}
	end, okEnd := validator.IsValidDate(r.PeriodEnd)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be in YYYY-MM-DD format"})
	}
	if okStart && okEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must not be before period_start"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Resolve validates the request and returns its category and period.
func (r *PeriodRequest) Resolve() (SalaryCategory, Period, error) {
	if err := r.Validate(); err != nil {
		return "", Period{}, err
	}
	start, _ := validator.IsValidDate(r.PeriodStart)
	end, _ := validator.IsValidDate(r.PeriodEnd)
	period, err := NewPeriod(start, end)
	if err != nil {
		return "", Period{}, err
	}
	return SalaryCategory(r.Category), period, nil
}

type PeriodSummaryResponse struct {
	TotalEmployees  int             `json:"total_employees"`
	TotalBasicPay   decimal.Decimal `json:"total_basic_pay"`
	TotalGrossPay   decimal.Decimal `json:"total_gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNetPay     decimal.Decimal `json:"total_net_pay"`
	OverrideCount   int             `json:"override_count"`
}

type PeriodResponse struct {
	Category    string                  `json:"category"`
	PeriodStart string                  `json:"period_start"`
	PeriodEnd   string                  `json:"period_end"`
	Records     []PayrollRecordResponse `json:"records"`
	Summary     PeriodSummaryResponse   `json:"summary"`
	Degraded    []string                `json:"degraded,omitempty"` // auxiliary sources that failed to load
}

// ========== RECORD DTOs ==========

type RecordRequest struct {
	PeriodRequest
	EmployeeID string `json:"-"`
}

func (r *RecordRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := r.PeriodRequest.Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EditRecordRequest struct {
	RecordRequest
	RegularDaysWorked    *Amount `json:"regular_days_worked,omitempty"`
	EarningsAdjustment   *Amount `json:"earnings_adjustment,omitempty"`
	OverTime             *Amount `json:"over_time,omitempty"`
	HolidayPay           *Amount `json:"holiday_pay,omitempty"`
	DeductionsAdjustment *Amount `json:"deductions_adjustment,omitempty"`
	WithholdingTax       *Amount `json:"withholding_tax,omitempty"`
	ThirteenthMonth      *Amount `json:"thirteenth_month,omitempty"`

	// Ignored unless the record is overridden
	SSS        *Amount `json:"sss,omitempty"`
	Philhealth *Amount `json:"philhealth,omitempty"`
	Pagibig    *Amount `json:"pagibig,omitempty"`
	CACharges  *Amount `json:"ca_charges,omitempty"`
	SILPay     *Amount `json:"sil_pay,omitempty"`
}

func (r *EditRecordRequest) ToEdit() RecordEdit {
	return RecordEdit{
		RegularDaysWorked:    r.RegularDaysWorked.decimalPtr(),
		EarningsAdjustment:   r.EarningsAdjustment.decimalPtr(),
		OverTime:             r.OverTime.decimalPtr(),
		HolidayPay:           r.HolidayPay.decimalPtr(),
		DeductionsAdjustment: r.DeductionsAdjustment.decimalPtr(),
		WithholdingTax:       r.WithholdingTax.decimalPtr(),
		ThirteenthMonth:      r.ThirteenthMonth.decimalPtr(),
		SSS:                  r.SSS.decimalPtr(),
		Philhealth:           r.Philhealth.decimalPtr(),
		Pagibig:              r.Pagibig.decimalPtr(),
		CACharges:            r.CACharges.decimalPtr(),
		SILPay:               r.SILPay.decimalPtr(),
	}
}

type PayrollRecordResponse struct {
	EmployeeID           string          `json:"employee_id"`
	EmployeeName         string          `json:"employee_name"`
	Department           string          `json:"department,omitempty"`
	PaymentType          string          `json:"payment_type,omitempty"`
	SalaryCategory       string          `json:"salary_category"`
	PeriodStart          string          `json:"period_start"`
	PeriodEnd            string          `json:"period_end"`
	DailyWage            decimal.Decimal `json:"daily_wage"`
	MonthlyBasicPay      decimal.Decimal `json:"monthly_basic_pay"`
	TripRate             decimal.Decimal `json:"trip_rate"`
	NumberOfTrips        int             `json:"number_of_trips"`
	RegularDaysWorked    decimal.Decimal `json:"regular_days_worked"`
	EarningsAdjustment   decimal.Decimal `json:"earnings_adjustment"`
	OverTime             decimal.Decimal `json:"over_time"`
	HolidayPay           decimal.Decimal `json:"holiday_pay"`
	DeductionsAdjustment decimal.Decimal `json:"deductions_adjustment"`
	WithholdingTax       decimal.Decimal `json:"withholding_tax"`
	ThirteenthMonth      decimal.Decimal `json:"thirteenth_month"`
	SSS                  decimal.Decimal `json:"sss"`
	Philhealth           decimal.Decimal `json:"philhealth"`
	Pagibig              decimal.Decimal `json:"pagibig"`
	CACharges            decimal.Decimal `json:"ca_charges"`
	SILPay               decimal.Decimal `json:"sil_pay"`
	BasicPayForPeriod    decimal.Decimal `json:"basic_pay_for_period"`
	TotalGrossPay        decimal.Decimal `json:"total_gross_pay"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`
	IsOverride           bool            `json:"is_override"`
	OverrideState        string          `json:"override_state"`
}

func NewPayrollRecordResponse(r PayrollRecord) PayrollRecordResponse {
	return PayrollRecordResponse{
		EmployeeID:           r.EmployeeID,
		EmployeeName:         r.EmployeeName,
		Department:           r.Department,
		PaymentType:          r.PaymentType,
		SalaryCategory:       string(r.SalaryCategory),
		PeriodStart:          r.PeriodStart.Format("2006-01-02"),
		PeriodEnd:            r.PeriodEnd.Format("2006-01-02"),
		DailyWage:            r.DailyWage,
		MonthlyBasicPay:      r.MonthlyBasicPay,
		TripRate:             r.TripRate,
		NumberOfTrips:        r.NumberOfTrips,
		RegularDaysWorked:    r.RegularDaysWorked,
		EarningsAdjustment:   r.EarningsAdjustment,
		OverTime:             r.OverTime,
		HolidayPay:           r.HolidayPay,
		DeductionsAdjustment: r.DeductionsAdjustment,
		WithholdingTax:       r.WithholdingTax,
		ThirteenthMonth:      r.ThirteenthMonth,
		SSS:                  r.SSS,
		Philhealth:           r.Philhealth,
		Pagibig:              r.Pagibig,
		CACharges:            r.CACharges,
		SILPay:               r.SILPay,
		BasicPayForPeriod:    r.BasicPayForPeriod,
		TotalGrossPay:        r.TotalGrossPay,
		TotalDeductions:      r.TotalDeductions,
		NetPay:               r.NetPay,
		IsOverride:           r.IsOverride,
		OverrideState:        string(r.OverrideState()),
	}
}

// ========== TRIP DTOs ==========

type UpdateTripRequest struct {
	RecordRequest
	WaybillNumber string  `json:"-"`
	Rate          *Amount `json:"rate,omitempty"`
	IsIncluded    *bool   `json:"is_included,omitempty"`
}

func (r *UpdateTripRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := r.RecordRequest.Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	if validator.IsEmpty(r.WaybillNumber) {
		errs = append(errs, validator.ValidationError{Field: "waybill_number", Message: "is required"})
	}
	if r.Rate == nil && r.IsIncluded == nil {
		errs = append(errs, validator.ValidationError{Field: "rate", Message: "rate or is_included is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TripEntryResponse struct {
	WaybillNumber string          `json:"waybill_number"`
	TripID        string          `json:"trip_id"`
	Destination   string          `json:"destination"`
	Rate          decimal.Decimal `json:"rate"`
	IsIncluded    bool            `json:"is_included"`
	IsMember      bool            `json:"is_member"`
}

type TripLedgerResponse struct {
	Entries []TripEntryResponse   `json:"entries"`
	Record  PayrollRecordResponse `json:"record"`
}

// ========== DRAFT DTOs ==========

type SaveDraftsRequest struct {
	PeriodRequest
	EmployeeIDs []string `json:"employee_ids,omitempty"` // Empty = all records in the period
}

type SaveFailure struct {
	EmployeeID string `json:"employee_id"`
	Message    string `json:"message"`
}

type SaveDraftsResponse struct {
	Saved  int           `json:"saved"`
	Failed []SaveFailure `json:"failed,omitempty"`
}

type ClearDraftsResponse struct {
	Deleted int64 `json:"deleted"`
}

// ========== FINALIZE DTOs ==========

type FinalizeRequest struct {
	PeriodRequest
	EmployeeIDs []string `json:"employee_ids"`
}

func (r *FinalizeRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := r.PeriodRequest.Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "at least one employee is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type FinalizeResponse struct {
	ReportID      string          `json:"report_id"`
	LineCount     int             `json:"line_count"`
	TotalNetPay   decimal.Decimal `json:"total_net_pay"`
	DraftsCleared int64           `json:"drafts_cleared"`
	Period        PeriodResponse  `json:"period"`
}
