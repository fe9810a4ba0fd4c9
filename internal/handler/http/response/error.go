package response

import (
	"errors"
	"net/http"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/domain/user"
	"github.com/haulops/backoffice-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Report submitted, drafts still present: the caller needs the report id to retry.
	var finalizeErr *payroll.FinalizeError
	if errors.As(err, &finalizeErr) {
		failure(w, http.StatusInternalServerError, "DRAFT_CLEAR_FAILED", payroll.ErrDraftClearFailed.Error(),
			map[string]string{"report_id": finalizeErr.ReportID})
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, user.ErrCompanyIDRequired), errors.Is(err, payroll.ErrPrincipalRequired):
		Unauthorized(w, "Company ID is required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Payroll domain errors
	case errors.Is(err, payroll.ErrRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrReportNotFound):
		NotFound(w, "Payroll report not found")
	case errors.Is(err, payroll.ErrThirteenthMonthNotFound):
		NotFound(w, "13th month pay not found")
	case errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrInvalidSalaryCategory),
		errors.Is(err, payroll.ErrTripRatesNotApplicable),
		errors.Is(err, payroll.ErrWaybillNotAssigned):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
