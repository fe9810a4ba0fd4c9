package payroll

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var testPeriod = payroll.Period{
	Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
}

var testPrincipal = payroll.Principal{CompanyID: "company-1", UserID: "user-1"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDirectory struct {
	listFn func(ctx context.Context, companyID string, category payroll.SalaryCategory) ([]payroll.EmployeeWageProfile, error)
}

func (f *fakeDirectory) ListActiveWageProfiles(ctx context.Context, companyID string, category payroll.SalaryCategory) ([]payroll.EmployeeWageProfile, error) {
	if f.listFn != nil {
		return f.listFn(ctx, companyID, category)
	}
	return nil, nil
}

type fakeBracketRepository struct {
	getFn     func(ctx context.Context, companyID string) (payroll.BracketTables, error)
	replaceFn func(ctx context.Context, companyID string, tables payroll.BracketTables) error
}

func (f *fakeBracketRepository) GetTables(ctx context.Context, companyID string) (payroll.BracketTables, error) {
	if f.getFn != nil {
		return f.getFn(ctx, companyID)
	}
	return payroll.BracketTables{}, nil
}

func (f *fakeBracketRepository) ReplaceTables(ctx context.Context, companyID string, tables payroll.BracketTables) error {
	if f.replaceFn != nil {
		return f.replaceFn(ctx, companyID, tables)
	}
	return nil
}

// fakeAdjustmentRepository serves as both the charge and the leave repository.
type fakeAdjustmentRepository struct {
	listByPeriodEndFn func(ctx context.Context, companyID string, periodEnd time.Time) ([]payroll.AdjustmentEntry, error)
	listByEmployeeFn  func(ctx context.Context, companyID string, employeeID string, periodEnd time.Time) ([]payroll.AdjustmentEntry, error)
}

func (f *fakeAdjustmentRepository) ListByPeriodEnd(ctx context.Context, companyID string, periodEnd time.Time) ([]payroll.AdjustmentEntry, error) {
	if f.listByPeriodEndFn != nil {
		return f.listByPeriodEndFn(ctx, companyID, periodEnd)
	}
	return nil, nil
}

func (f *fakeAdjustmentRepository) ListByEmployee(ctx context.Context, companyID string, employeeID string, periodEnd time.Time) ([]payroll.AdjustmentEntry, error) {
	if f.listByEmployeeFn != nil {
		return f.listByEmployeeFn(ctx, companyID, employeeID, periodEnd)
	}
	return nil, nil
}

type fakeTripRepository struct {
	assignedFn func(ctx context.Context, companyID string, employeeID string, period payroll.Period) ([]payroll.Waybill, error)
	membersFn  func(ctx context.Context, companyID string, tripID string) ([]payroll.Waybill, error)
	stubFn     func(ctx context.Context, companyID string, stubNumber string) ([]payroll.Waybill, error)
}

func (f *fakeTripRepository) ListAssignedWaybills(ctx context.Context, companyID string, employeeID string, period payroll.Period) ([]payroll.Waybill, error) {
	if f.assignedFn != nil {
		return f.assignedFn(ctx, companyID, employeeID, period)
	}
	return nil, nil
}

func (f *fakeTripRepository) ListTripMembers(ctx context.Context, companyID string, tripID string) ([]payroll.Waybill, error) {
	if f.membersFn != nil {
		return f.membersFn(ctx, companyID, tripID)
	}
	return nil, nil
}

func (f *fakeTripRepository) SearchByStub(ctx context.Context, companyID string, stubNumber string) ([]payroll.Waybill, error) {
	if f.stubFn != nil {
		return f.stubFn(ctx, companyID, stubNumber)
	}
	return nil, nil
}

// memTripRateRepository keeps ledger rows in memory.
type memTripRateRepository struct {
	mu         sync.Mutex
	rows       map[string]payroll.TripWaybillRate
	listErr    error
	upsertErr  error
	upsertMany int
}

func newMemTripRateRepository(rows ...payroll.TripWaybillRate) *memTripRateRepository {
	m := &memTripRateRepository{rows: make(map[string]payroll.TripWaybillRate)}
	for _, r := range rows {
		m.rows[tripRateKey(r)] = r
	}
	return m
}

func tripRateKey(r payroll.TripWaybillRate) string {
	return r.EmployeeID + "|" + r.WaybillNumber + "|" + r.PeriodStart.Format("2006-01-02") + "|" + r.PeriodEnd.Format("2006-01-02")
}

func (m *memTripRateRepository) ListByEmployee(ctx context.Context, companyID string, employeeID string, period payroll.Period) ([]payroll.TripWaybillRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []payroll.TripWaybillRate
	for _, r := range m.rows {
		if r.EmployeeID == employeeID && r.PeriodStart.Equal(period.Start) && r.PeriodEnd.Equal(period.End) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTripRateRepository) ListByPeriod(ctx context.Context, companyID string, period payroll.Period) ([]payroll.TripWaybillRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []payroll.TripWaybillRate
	for _, r := range m.rows {
		if r.PeriodStart.Equal(period.Start) && r.PeriodEnd.Equal(period.End) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTripRateRepository) Upsert(ctx context.Context, rate payroll.TripWaybillRate) (payroll.TripWaybillRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return payroll.TripWaybillRate{}, m.upsertErr
	}
	if rate.ID == "" {
		rate.ID = "rate-" + rate.WaybillNumber
	}
	m.rows[tripRateKey(rate)] = rate
	return rate, nil
}

func (m *memTripRateRepository) UpsertMany(ctx context.Context, rates []payroll.TripWaybillRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertMany++
	for _, r := range rates {
		if r.ID == "" {
			r.ID = "rate-" + r.WaybillNumber
		}
		m.rows[tripRateKey(r)] = r
	}
	return nil
}

func (m *memTripRateRepository) get(employeeID, waybill string) (payroll.TripWaybillRate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[tripRateKey(payroll.TripWaybillRate{
		EmployeeID: employeeID, WaybillNumber: waybill, PeriodStart: testPeriod.Start, PeriodEnd: testPeriod.End,
	})]
	return r, ok
}

type fakeDraftRepository struct {
	listFn            func(ctx context.Context, companyID string, category payroll.SalaryCategory, period payroll.Period) ([]payroll.PayrollRecord, error)
	upsertManyFn      func(ctx context.Context, companyID string, records []payroll.PayrollRecord) (map[string]error, error)
	deleteByPeriodFn  func(ctx context.Context, companyID string, category payroll.SalaryCategory, period payroll.Period) (int64, error)
	deleteFinalizedFn func(ctx context.Context, companyID string, reportID string) (int64, error)
}

func (f *fakeDraftRepository) ListByPeriod(ctx context.Context, companyID string, category payroll.SalaryCategory, period payroll.Period) ([]payroll.PayrollRecord, error) {
	if f.listFn != nil {
		return f.listFn(ctx, companyID, category, period)
	}
	return nil, nil
}

func (f *fakeDraftRepository) UpsertMany(ctx context.Context, companyID string, records []payroll.PayrollRecord) (map[string]error, error) {
	if f.upsertManyFn != nil {
		return f.upsertManyFn(ctx, companyID, records)
	}
	return nil, nil
}

func (f *fakeDraftRepository) DeleteByPeriod(ctx context.Context, companyID string, category payroll.SalaryCategory, period payroll.Period) (int64, error) {
	if f.deleteByPeriodFn != nil {
		return f.deleteByPeriodFn(ctx, companyID, category, period)
	}
	return 0, nil
}

func (f *fakeDraftRepository) DeleteFinalized(ctx context.Context, companyID string, reportID string) (int64, error) {
	if f.deleteFinalizedFn != nil {
		return f.deleteFinalizedFn(ctx, companyID, reportID)
	}
	return 0, nil
}

type fakeReportRepository struct {
	submitFn func(ctx context.Context, report payroll.PayrollReport) (payroll.PayrollReport, error)
	getFn    func(ctx context.Context, companyID string, reportID string) (payroll.PayrollReport, error)
}

func (f *fakeReportRepository) Submit(ctx context.Context, report payroll.PayrollReport) (payroll.PayrollReport, error) {
	if f.submitFn != nil {
		return f.submitFn(ctx, report)
	}
	report.ID = "report-1"
	return report, nil
}

func (f *fakeReportRepository) GetByID(ctx context.Context, companyID string, reportID string) (payroll.PayrollReport, error) {
	if f.getFn != nil {
		return f.getFn(ctx, companyID, reportID)
	}
	return payroll.PayrollReport{ID: reportID, CompanyID: companyID}, nil
}

type fakeThirteenthMonthRepository struct {
	getFn func(ctx context.Context, companyID string, employeeID string) (decimal.Decimal, error)
}

func (f *fakeThirteenthMonthRepository) GetAmount(ctx context.Context, companyID string, employeeID string) (decimal.Decimal, error) {
	if f.getFn != nil {
		return f.getFn(ctx, companyID, employeeID)
	}
	return decimal.Zero, payroll.ErrThirteenthMonthNotFound
}

// testDeps bundles the fakes behind one session factory.
type testDeps struct {
	directory *fakeDirectory
	brackets  *fakeBracketRepository
	charges   *fakeAdjustmentRepository
	leaves    *fakeAdjustmentRepository
	trips     *fakeTripRepository
	rates     *memTripRateRepository
	drafts    *fakeDraftRepository
	reports   *fakeReportRepository
	thirteen  *fakeThirteenthMonthRepository
}

func newTestDeps() *testDeps {
	return &testDeps{
		directory: &fakeDirectory{},
		brackets:  &fakeBracketRepository{},
		charges:   &fakeAdjustmentRepository{},
		leaves:    &fakeAdjustmentRepository{},
		trips:     &fakeTripRepository{},
		rates:     newMemTripRateRepository(),
		drafts:    &fakeDraftRepository{},
		reports:   &fakeReportRepository{},
		thirteen:  &fakeThirteenthMonthRepository{},
	}
}

func (d *testDeps) ledger() *TripRateLedger {
	return NewTripRateLedger(d.trips, d.rates, NewTripGraphResolver(d.trips), NewStubSearchResolver(d.trips), discardLogger())
}

func (d *testDeps) factory() *SessionFactory {
	logger := discardLogger()
	return NewSessionFactory(SessionDeps{
		Directory:       d.directory,
		Brackets:        d.brackets,
		Drafts:          d.drafts,
		Reports:         d.reports,
		ThirteenthMonth: d.thirteen,
		Adjustments:     NewAdjustmentGateway(d.charges, d.leaves, logger),
		Ledger:          d.ledger(),
		Logger:          logger,
	})
}

func adjustment(employeeID, amount string, periodEnd time.Time, recordedAt time.Time) payroll.AdjustmentEntry {
	return payroll.AdjustmentEntry{
		EmployeeID:    employeeID,
		PeriodEndDate: periodEnd,
		Amount:        dec(amount),
		RecordedAt:    recordedAt,
	}
}

func tripRate(employeeID, waybill, rate string, included bool) payroll.TripWaybillRate {
	return payroll.TripWaybillRate{
		CompanyID:     testPrincipal.CompanyID,
		EmployeeID:    employeeID,
		PeriodStart:   testPeriod.Start,
		PeriodEnd:     testPeriod.End,
		WaybillNumber: waybill,
		Rate:          dec(rate),
		IsIncluded:    included,
	}
}
