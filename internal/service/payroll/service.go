package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/metrics"
	"github.com/haulops/backoffice-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	sessions *SessionFactory
	registry *sessionRegistry
	logger   *slog.Logger
}

func NewPayrollService(sessions *SessionFactory, sessionTTL time.Duration, logger *slog.Logger) *PayrollServiceImpl {
	return &PayrollServiceImpl{
		sessions: sessions,
		registry: newSessionRegistry(sessionTTL),
		logger:   logger,
	}
}

// EvictIdleSessions drops sessions unused for longer than the session TTL.
func (s *PayrollServiceImpl) EvictIdleSessions(ctx context.Context) (evicted int, open int) {
	evicted, open = s.registry.sweep()
	metrics.OpenSessions.Set(float64(open))
	return evicted, open
}

// Helper to get company_id and user_id from JWT context
func getPrincipalFromContext(ctx context.Context) (payroll.Principal, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return payroll.Principal{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return payroll.Principal{}, payroll.ErrPrincipalRequired
	}

	userID, _ := claims["user_id"].(string)

	return payroll.Principal{CompanyID: companyID, UserID: userID}, nil
}

// session returns the caller's open session for the period, opening it on first use.
func (s *PayrollServiceImpl) session(ctx context.Context, req payroll.PeriodRequest) (*PeriodSession, error) {
	category, period, err := req.Resolve()
	if err != nil {
		return nil, err
	}
	principal, err := getPrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}

	key := newSessionKey(principal, category, period)
	if session, ok := s.registry.get(key); ok {
		return session, nil
	}

	session, err := s.sessions.Open(ctx, principal, category, period)
	if err != nil {
		return nil, err
	}
	s.registry.put(key, session)
	return session, nil
}

// ========== PERIOD ==========

func (s *PayrollServiceImpl) OpenPeriod(ctx context.Context, req payroll.PeriodRequest) (payroll.PeriodResponse, error) {
	category, period, err := req.Resolve()
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	principal, err := getPrincipalFromContext(ctx)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	session, err := s.sessions.Open(ctx, principal, category, period)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}
	s.registry.put(newSessionKey(principal, category, period), session)

	s.logger.Info("payroll period opened",
		slog.String("company_id", principal.CompanyID),
		slog.String("category", string(category)),
		slog.String("period", period.String()),
		slog.Int("records", len(session.Records())),
	)

	return newPeriodResponse(session), nil
}

func (s *PayrollServiceImpl) EditRecord(ctx context.Context, req payroll.EditRecordRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	session, err := s.session(ctx, req.PeriodRequest)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := session.Edit(req.EmployeeID, req.ToEdit())
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return payroll.NewPayrollRecordResponse(record), nil
}

func (s *PayrollServiceImpl) ToggleOverride(ctx context.Context, req payroll.RecordRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	session, err := s.session(ctx, req.PeriodRequest)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := session.ToggleOverride(ctx, req.EmployeeID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return payroll.NewPayrollRecordResponse(record), nil
}

func (s *PayrollServiceImpl) ApplyThirteenthMonth(ctx context.Context, req payroll.RecordRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	session, err := s.session(ctx, req.PeriodRequest)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := session.ApplyThirteenthMonth(ctx, req.EmployeeID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return payroll.NewPayrollRecordResponse(record), nil
}

// ========== TRIPS ==========

func (s *PayrollServiceImpl) ListTrips(ctx context.Context, req payroll.RecordRequest) (payroll.TripLedgerResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.TripLedgerResponse{}, err
	}

	session, err := s.session(ctx, req.PeriodRequest)
	if err != nil {
		return payroll.TripLedgerResponse{}, err
	}

	return tripLedgerResponse(ctx, session, req.EmployeeID)
}

func (s *PayrollServiceImpl) UpdateTrip(ctx context.Context, req payroll.UpdateTripRequest) (payroll.TripLedgerResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.TripLedgerResponse{}, err
	}

	session, err := s.session(ctx, req.PeriodRequest)
	if err != nil {
		return payroll.TripLedgerResponse{}, err
	}

	if req.Rate != nil {
		if _, err := session.SetTripRate(ctx, req.EmployeeID, req.WaybillNumber, req.Rate.Decimal); err != nil {
			return payroll.TripLedgerResponse{}, err
		}
	}
	if req.IsIncluded != nil {
		if _, err := session.SetTripIncluded(ctx, req.EmployeeID, req.WaybillNumber, *req.IsIncluded); err != nil {
			return payroll.TripLedgerResponse{}, err
		}
	}

	return tripLedgerResponse(ctx, session, req.EmployeeID)
}

func tripLedgerResponse(ctx context.Context, session *PeriodSession, employeeID string) (payroll.TripLedgerResponse, error) {
	entries, err := session.TripEntries(ctx, employeeID)
	if err != nil {
		return payroll.TripLedgerResponse{}, err
	}
	record, err := session.Record(employeeID)
	if err != nil {
		return payroll.TripLedgerResponse{}, err
	}

	resp := payroll.TripLedgerResponse{
		Entries: make([]payroll.TripEntryResponse, 0, len(entries)),
		Record:  payroll.NewPayrollRecordResponse(record),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, payroll.TripEntryResponse{
			WaybillNumber: e.WaybillNumber,
			TripID:        e.TripID,
			Destination:   e.Destination,
			Rate:          e.Rate,
			IsIncluded:    e.IsIncluded,
			IsMember:      e.IsMember,
		})
	}
	return resp, nil
}

// ========== DRAFTS ==========

func (s *PayrollServiceImpl) SaveDrafts(ctx context.Context, req payroll.SaveDraftsRequest) (payroll.SaveDraftsResponse, error) {
	session, err := s.session(ctx, req.PeriodRequest)
	if err != nil {
		return payroll.SaveDraftsResponse{}, err
	}

	saved, err := session.Save(ctx, req.EmployeeIDs...)
	var saveErr *payroll.SaveError
	if errors.As(err, &saveErr) {
		resp := payroll.SaveDraftsResponse{Saved: saved}
		for _, id := range saveErr.EmployeeIDs() {
			resp.Failed = append(resp.Failed, payroll.SaveFailure{
				EmployeeID: id,
				Message:    saveErr.Failed[id].Error(),
			})
		}
		return resp, nil
	}
	if err != nil {
		return payroll.SaveDraftsResponse{}, err
	}

	return payroll.SaveDraftsResponse{Saved: saved}, nil
}

func (s *PayrollServiceImpl) ClearDrafts(ctx context.Context, req payroll.PeriodRequest) (payroll.ClearDraftsResponse, error) {
	session, err := s.session(ctx, req)
	if err != nil {
		return payroll.ClearDraftsResponse{}, err
	}

	deleted, err := session.Clear(ctx)
	if err != nil {
		return payroll.ClearDraftsResponse{}, err
	}
	return payroll.ClearDraftsResponse{Deleted: deleted}, nil
}

// ========== FINALIZE ==========

func (s *PayrollServiceImpl) Finalize(ctx context.Context, req payroll.FinalizeRequest) (payroll.FinalizeResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.FinalizeResponse{}, err
	}

	session, err := s.session(ctx, req.PeriodRequest)
	if err != nil {
		return payroll.FinalizeResponse{}, err
	}

	result, err := session.Finalize(ctx, req.EmployeeIDs)
	if err != nil {
		return payroll.FinalizeResponse{}, err
	}

	s.logger.Info("payroll report finalized",
		slog.String("report_id", result.Report.ID),
		slog.String("category", string(session.Category())),
		slog.String("period", session.Period().String()),
		slog.Int("lines", len(result.Report.Lines)),
	)

	return payroll.FinalizeResponse{
		ReportID:      result.Report.ID,
		LineCount:     len(result.Report.Lines),
		TotalNetPay:   result.Report.TotalNetPay,
		DraftsCleared: result.DraftsCleared,
		Period:        newPeriodResponse(session),
	}, nil
}

func (s *PayrollServiceImpl) ClearFinalizedDrafts(ctx context.Context, reportID string) (payroll.ClearDraftsResponse, error) {
	if validator.IsEmpty(reportID) {
		return payroll.ClearDraftsResponse{}, validator.ValidationErrors{
			{Field: "report_id", Message: "is required"},
		}
	}
	if !validator.IsValidUUID(reportID) {
		return payroll.ClearDraftsResponse{}, validator.ValidationErrors{
			{Field: "report_id", Message: "must be a valid UUID"},
		}
	}

	principal, err := getPrincipalFromContext(ctx)
	if err != nil {
		return payroll.ClearDraftsResponse{}, err
	}

	deleted, err := s.sessions.ClearFinalized(ctx, principal, reportID)
	if err != nil {
		return payroll.ClearDraftsResponse{}, err
	}
	return payroll.ClearDraftsResponse{Deleted: deleted}, nil
}

func newPeriodResponse(session *PeriodSession) payroll.PeriodResponse {
	records := session.Records()
	period := session.Period()

	resp := payroll.PeriodResponse{
		Category:    string(session.Category()),
		PeriodStart: period.Start.Format("2006-01-02"),
		PeriodEnd:   period.End.Format("2006-01-02"),
		Records:     make([]payroll.PayrollRecordResponse, 0, len(records)),
		Summary:     summarize(records),
		Degraded:    session.Degraded(),
	}
	for _, r := range records {
		resp.Records = append(resp.Records, payroll.NewPayrollRecordResponse(r))
	}
	return resp
}

func summarize(records []payroll.PayrollRecord) payroll.PeriodSummaryResponse {
	summary := payroll.PeriodSummaryResponse{
		TotalEmployees:  len(records),
		TotalBasicPay:   decimal.Zero,
		TotalGrossPay:   decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNetPay:     decimal.Zero,
	}
	for _, r := range records {
		summary.TotalBasicPay = summary.TotalBasicPay.Add(r.BasicPayForPeriod)
		summary.TotalGrossPay = summary.TotalGrossPay.Add(r.TotalGrossPay)
		summary.TotalDeductions = summary.TotalDeductions.Add(r.TotalDeductions)
		summary.TotalNetPay = summary.TotalNetPay.Add(r.NetPay)
		if r.IsOverride {
			summary.OverrideCount++
		}
	}
	return summary
}
