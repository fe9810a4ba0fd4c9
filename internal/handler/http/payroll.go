package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/handler/http/response"
)

type PayrollHandler interface {
	// Period
	OpenPeriod(w http.ResponseWriter, r *http.Request)

	// Records
	EditRecord(w http.ResponseWriter, r *http.Request)
	ToggleOverride(w http.ResponseWriter, r *http.Request)
	ApplyThirteenthMonth(w http.ResponseWriter, r *http.Request)

	// Trips
	ListTrips(w http.ResponseWriter, r *http.Request)
	UpdateTrip(w http.ResponseWriter, r *http.Request)

	// Drafts
	SaveDrafts(w http.ResponseWriter, r *http.Request)
	ClearDrafts(w http.ResponseWriter, r *http.Request)

	// Finalize
	Finalize(w http.ResponseWriter, r *http.Request)
	ClearFinalizedDrafts(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

func periodFromURL(r *http.Request) payroll.PeriodRequest {
	return payroll.PeriodRequest{
		Category:    chi.URLParam(r, "category"),
		PeriodStart: chi.URLParam(r, "start"),
		PeriodEnd:   chi.URLParam(r, "end"),
	}
}

func recordFromURL(r *http.Request) payroll.RecordRequest {
	return payroll.RecordRequest{
		PeriodRequest: periodFromURL(r),
		EmployeeID:    chi.URLParam(r, "employeeId"),
	}
}

// decodeOptional decodes a JSON body, treating an empty body as no input.
func decodeOptional(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ========== PERIOD ==========

func (h *payrollHandlerImpl) OpenPeriod(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.OpenPeriod(r.Context(), periodFromURL(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== RECORDS ==========

func (h *payrollHandlerImpl) EditRecord(w http.ResponseWriter, r *http.Request) {
	var req payroll.EditRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.RecordRequest = recordFromURL(r)

	result, err := h.payrollService.EditRecord(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ToggleOverride(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ToggleOverride(r.Context(), recordFromURL(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Override toggled", result)
}

func (h *payrollHandlerImpl) ApplyThirteenthMonth(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ApplyThirteenthMonth(r.Context(), recordFromURL(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "13th month pay applied", result)
}

// ========== TRIPS ==========

func (h *payrollHandlerImpl) ListTrips(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListTrips(r.Context(), recordFromURL(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpdateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.RecordRequest = recordFromURL(r)
	req.WaybillNumber = chi.URLParam(r, "waybill")

	result, err := h.payrollService.UpdateTrip(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== DRAFTS ==========

func (h *payrollHandlerImpl) SaveDrafts(w http.ResponseWriter, r *http.Request) {
	var req payroll.SaveDraftsRequest
	if err := decodeOptional(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.PeriodRequest = periodFromURL(r)

	result, err := h.payrollService.SaveDrafts(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if len(result.Failed) > 0 {
		response.PartialFailure(w, "PARTIAL_SAVE", "Some drafts failed to save", result)
		return
	}
	response.SuccessWithMessage(w, "Drafts saved", result)
}

func (h *payrollHandlerImpl) ClearDrafts(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ClearDrafts(r.Context(), periodFromURL(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Drafts cleared", result)
}

// ========== FINALIZE ==========

func (h *payrollHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	var req payroll.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.PeriodRequest = periodFromURL(r)

	result, err := h.payrollService.Finalize(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll report generated", result)
}

func (h *payrollHandlerImpl) ClearFinalizedDrafts(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportId")
	if reportID == "" {
		response.BadRequest(w, "Report ID is required", nil)
		return
	}

	result, err := h.payrollService.ClearFinalizedDrafts(r.Context(), reportID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Drafts cleared", result)
}
