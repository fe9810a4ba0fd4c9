package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haulops/backoffice-go/internal/config"
	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/domain/user"
	"github.com/haulops/backoffice-go/internal/handler/http/response"
	"github.com/haulops/backoffice-go/internal/pkg/jwt"
	"github.com/haulops/backoffice-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret = "test-secret-key-for-jwt"
	periodPath        = "/api/v1/payroll/daily/periods/2025-01-01/2025-01-15"
)

// fakePayrollService records the last request and returns canned results.
type fakePayrollService struct {
	payroll.PayrollService

	openFn     func(ctx context.Context, req payroll.PeriodRequest) (payroll.PeriodResponse, error)
	saveFn     func(ctx context.Context, req payroll.SaveDraftsRequest) (payroll.SaveDraftsResponse, error)
	finalizeFn func(ctx context.Context, req payroll.FinalizeRequest) (payroll.FinalizeResponse, error)
	editFn     func(ctx context.Context, req payroll.EditRecordRequest) (payroll.PayrollRecordResponse, error)
}

func (f *fakePayrollService) OpenPeriod(ctx context.Context, req payroll.PeriodRequest) (payroll.PeriodResponse, error) {
	return f.openFn(ctx, req)
}

func (f *fakePayrollService) SaveDrafts(ctx context.Context, req payroll.SaveDraftsRequest) (payroll.SaveDraftsResponse, error) {
	return f.saveFn(ctx, req)
}

func (f *fakePayrollService) Finalize(ctx context.Context, req payroll.FinalizeRequest) (payroll.FinalizeResponse, error) {
	return f.finalizeFn(ctx, req)
}

func (f *fakePayrollService) EditRecord(ctx context.Context, req payroll.EditRecordRequest) (payroll.PayrollRecordResponse, error) {
	return f.editFn(ctx, req)
}

func newTestRouter(t *testing.T, svc payroll.PayrollService) (http.Handler, jwt.Service) {
	t.Helper()
	jwtSvc := jwt.NewJWTService(handlerTestSecret, time.Hour)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := config.HTTPConfig{
		AllowedOrigins:    []string{"http://localhost:3000"},
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}
	return NewRouter(cfg, logger, jwtSvc, NewPayrollHandler(svc)), jwtSvc
}

func accessToken(t *testing.T, jwtSvc jwt.Service, role user.Role) string {
	t.Helper()
	token, _, err := jwtSvc.GenerateAccessToken(jwt.AccessClaims{UserID: "user-1", CompanyID: "company-1", Role: role})
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp response.Response
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestPayrollHandler_OpenPeriod(t *testing.T) {
	var got payroll.PeriodRequest
	svc := &fakePayrollService{
		openFn: func(ctx context.Context, req payroll.PeriodRequest) (payroll.PeriodResponse, error) {
			got = req
			return payroll.PeriodResponse{Category: req.Category}, nil
		},
	}
	router, jwtSvc := newTestRouter(t, svc)

	w, resp := doRequest(t, router, http.MethodGet, periodPath, accessToken(t, jwtSvc, user.RoleViewer), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, payroll.PeriodRequest{Category: "daily", PeriodStart: "2025-01-01", PeriodEnd: "2025-01-15"}, got)
}

func TestPayrollHandler_Authentication(t *testing.T) {
	svc := &fakePayrollService{
		openFn: func(ctx context.Context, req payroll.PeriodRequest) (payroll.PeriodResponse, error) {
			t.Fatal("service must not be reached")
			return payroll.PeriodResponse{}, nil
		},
	}
	router, jwtSvc := newTestRouter(t, svc)

	t.Run("missing token", func(t *testing.T) {
		w, resp := doRequest(t, router, http.MethodGet, periodPath, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, resp.Success)
	})

	t.Run("wrong signature", func(t *testing.T) {
		other := jwt.NewJWTService("another-secret", time.Hour)
		w, _ := doRequest(t, router, http.MethodGet, periodPath, accessToken(t, other, user.RoleOwner), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("not an access token", func(t *testing.T) {
		_, token, err := jwtSvc.JWTAuth().Encode(map[string]interface{}{
			"user_id":    "user-1",
			"company_id": "company-1",
			"role":       "owner",
			"type":       "refresh",
		})
		require.NoError(t, err)
		w, _ := doRequest(t, router, http.MethodGet, periodPath, token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing company", func(t *testing.T) {
		token, _, err := jwtSvc.GenerateAccessToken(jwt.AccessClaims{UserID: "user-1", Role: user.RoleOwner})
		require.NoError(t, err)
		w, resp := doRequest(t, router, http.MethodGet, periodPath, token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Company ID is required", resp.Error.Message)
	})

	t.Run("revoked token", func(t *testing.T) {
		token := accessToken(t, jwtSvc, user.RoleOwner)
		jwtSvc.RevokeToken(token)
		w, _ := doRequest(t, router, http.MethodGet, periodPath, token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPayrollHandler_Permissions(t *testing.T) {
	svc := &fakePayrollService{
		finalizeFn: func(ctx context.Context, req payroll.FinalizeRequest) (payroll.FinalizeResponse, error) {
			return payroll.FinalizeResponse{ReportID: "0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", LineCount: len(req.EmployeeIDs)}, nil
		},
		editFn: func(ctx context.Context, req payroll.EditRecordRequest) (payroll.PayrollRecordResponse, error) {
			return payroll.PayrollRecordResponse{EmployeeID: req.EmployeeID}, nil
		},
	}
	router, jwtSvc := newTestRouter(t, svc)
	body := map[string]interface{}{"employee_ids": []string{"emp-1"}}

	w, resp := doRequest(t, router, http.MethodPost, periodPath+"/finalize", accessToken(t, jwtSvc, user.RoleViewer), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	w, _ = doRequest(t, router, http.MethodPatch, periodPath+"/records/emp-1", accessToken(t, jwtSvc, user.RoleViewer), map[string]string{"over_time": "10"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = doRequest(t, router, http.MethodPost, periodPath+"/finalize", accessToken(t, jwtSvc, user.RolePayrollOfficer), body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)

	w, _ = doRequest(t, router, http.MethodPatch, periodPath+"/records/emp-1", accessToken(t, jwtSvc, user.RoleOwner), map[string]string{"over_time": "10"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPayrollHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "validation",
			err:      validator.ValidationErrors{{Field: "employee_ids", Message: "at least one employee is required"}},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "drafts not cleared",
			err:      &payroll.FinalizeError{ReportID: "0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", Err: errors.New("lock timeout")},
			wantCode: http.StatusInternalServerError,
			wantErr:  "DRAFT_CLEAR_FAILED",
		},
		{
			name:     "unknown record",
			err:      payroll.ErrRecordNotFound,
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
		{
			name:     "trip rates on daily payroll",
			err:      payroll.ErrTripRatesNotApplicable,
			wantCode: http.StatusBadRequest,
			wantErr:  "BAD_REQUEST",
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePayrollService{
				finalizeFn: func(ctx context.Context, req payroll.FinalizeRequest) (payroll.FinalizeResponse, error) {
					return payroll.FinalizeResponse{}, tt.err
				},
			}
			router, jwtSvc := newTestRouter(t, svc)

			w, resp := doRequest(t, router, http.MethodPost, periodPath+"/finalize", accessToken(t, jwtSvc, user.RoleOwner),
				map[string]interface{}{"employee_ids": []string{"emp-1"}})

			assert.Equal(t, tt.wantCode, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestPayrollHandler_FinalizeClearFailureCarriesReportID(t *testing.T) {
	reportID := "0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b"
	svc := &fakePayrollService{
		finalizeFn: func(ctx context.Context, req payroll.FinalizeRequest) (payroll.FinalizeResponse, error) {
			return payroll.FinalizeResponse{}, &payroll.FinalizeError{ReportID: reportID, Err: errors.New("lock timeout")}
		},
	}
	router, jwtSvc := newTestRouter(t, svc)

	_, resp := doRequest(t, router, http.MethodPost, periodPath+"/finalize", accessToken(t, jwtSvc, user.RoleOwner),
		map[string]interface{}{"employee_ids": []string{"emp-1"}})

	require.NotNil(t, resp.Error)
	assert.Equal(t, reportID, resp.Error.Details["report_id"])
}

func TestPayrollHandler_SaveDrafts(t *testing.T) {
	var got payroll.SaveDraftsRequest
	svc := &fakePayrollService{
		saveFn: func(ctx context.Context, req payroll.SaveDraftsRequest) (payroll.SaveDraftsResponse, error) {
			got = req
			return payroll.SaveDraftsResponse{
				Saved:  1,
				Failed: []payroll.SaveFailure{{EmployeeID: "emp-2", Message: "deadlock detected"}},
			}, nil
		},
	}
	router, jwtSvc := newTestRouter(t, svc)

	// No body: save every record in the period.
	w, resp := doRequest(t, router, http.MethodPost, periodPath+"/drafts", accessToken(t, jwtSvc, user.RolePayrollOfficer), nil)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PARTIAL_SAVE", resp.Error.Code)
	assert.Empty(t, got.EmployeeIDs)
	assert.Equal(t, "daily", got.Category)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, data["saved"])
	failed, ok := data["failed"].([]interface{})
	require.True(t, ok)
	require.Len(t, failed, 1)
	assert.Equal(t, "emp-2", failed[0].(map[string]interface{})["employee_id"])
}

func TestPayrollHandler_SaveDrafts_AllSaved(t *testing.T) {
	var got payroll.SaveDraftsRequest
	svc := &fakePayrollService{
		saveFn: func(ctx context.Context, req payroll.SaveDraftsRequest) (payroll.SaveDraftsResponse, error) {
			got = req
			return payroll.SaveDraftsResponse{Saved: 2}, nil
		},
	}
	router, jwtSvc := newTestRouter(t, svc)

	w, resp := doRequest(t, router, http.MethodPost, periodPath+"/drafts", accessToken(t, jwtSvc, user.RoleOwner),
		map[string]interface{}{"employee_ids": []string{"emp-1", "emp-2"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "Drafts saved", resp.Message)
	assert.Equal(t, []string{"emp-1", "emp-2"}, got.EmployeeIDs)
}

func TestPayrollHandler_InvalidBody(t *testing.T) {
	router, jwtSvc := newTestRouter(t, &fakePayrollService{})

	req := httptest.NewRequest(http.MethodPost, periodPath+"/finalize", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+accessToken(t, jwtSvc, user.RoleOwner))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_MetricsIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, &fakePayrollService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
