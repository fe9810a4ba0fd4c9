package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/haulops/backoffice-go/internal/domain/payroll"
	"github.com/haulops/backoffice-go/internal/pkg/metrics"
	"github.com/haulops/backoffice-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SessionDeps groups the collaborators a period session reads from and writes to.
type SessionDeps struct {
	Directory       payroll.EmployeeDirectory
	Brackets        payroll.BracketRepository
	Drafts          payroll.DraftRepository
	Reports         payroll.ReportRepository
	ThirteenthMonth payroll.ThirteenthMonthRepository
	Adjustments     *AdjustmentGateway
	Ledger          *TripRateLedger
	Logger          *slog.Logger
}

type SessionFactory struct {
	deps SessionDeps
}

func NewSessionFactory(deps SessionDeps) *SessionFactory {
	return &SessionFactory{deps: deps}
}

// Open loads a period and builds one calculated record per employee.
func (f *SessionFactory) Open(ctx context.Context, principal payroll.Principal, category payroll.SalaryCategory, period payroll.Period) (*PeriodSession, error) {
	if principal.CompanyID == "" {
		return nil, payroll.ErrPrincipalRequired
	}
	if !category.IsValid() {
		return nil, payroll.ErrInvalidSalaryCategory
	}

	s := &PeriodSession{
		deps:      f.deps,
		principal: principal,
		category:  category,
		period:    period,
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	metrics.SessionsOpened.WithLabelValues(string(category)).Inc()
	return s, nil
}

// ClearFinalized retries the draft cleanup of an already submitted report.
func (f *SessionFactory) ClearFinalized(ctx context.Context, principal payroll.Principal, reportID string) (int64, error) {
	if principal.CompanyID == "" {
		return 0, payroll.ErrPrincipalRequired
	}
	if _, err := f.deps.Reports.GetByID(ctx, principal.CompanyID, reportID); err != nil {
		return 0, err
	}
	deleted, err := f.deps.Drafts.DeleteFinalized(ctx, principal.CompanyID, reportID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear finalized drafts: %w", err)
	}
	return deleted, nil
}

// PeriodSession is the in-memory working set of one salary category and period.
// Operations are applied in call order.
type PeriodSession struct {
	mu        sync.Mutex
	deps      SessionDeps
	principal payroll.Principal
	category  payroll.SalaryCategory
	period    payroll.Period

	calc     *Calculator
	records  map[string]payroll.PayrollRecord
	order    []string
	degraded []string
}

// FinalizeResult describes a submitted report.
type FinalizeResult struct {
	Report        payroll.PayrollReport
	DraftsCleared int64
}

func (s *PeriodSession) Category() payroll.SalaryCategory { return s.category }
func (s *PeriodSession) Period() payroll.Period           { return s.period }

// Degraded lists the auxiliary sources that could not be read on the last load.
func (s *PeriodSession) Degraded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.degraded...)
}

func (s *PeriodSession) load(ctx context.Context) error {
	companyID := s.principal.CompanyID

	var (
		tables   payroll.BracketTables
		snap     AdjustmentSnapshot
		drafts   []payroll.PayrollRecord
		profiles []payroll.EmployeeWageProfile
		trips    map[string]payroll.TripAggregate

		bracketsFailed, directoryFailed, tripsFailed bool
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.deps.Brackets.GetTables(gCtx, companyID)
		if err != nil {
			s.warn(sourceBrackets, err)
			bracketsFailed = true
			return nil
		}
		tables = t
		return nil
	})

	g.Go(func() error {
		snap = s.deps.Adjustments.Snapshot(gCtx, companyID, s.period.End)
		return nil
	})

	g.Go(func() error {
		d, err := s.deps.Drafts.ListByPeriod(gCtx, companyID, s.category, s.period)
		if err != nil {
			return fmt.Errorf("failed to load drafts: %w", err)
		}
		drafts = d
		return nil
	})

	g.Go(func() error {
		p, err := s.deps.Directory.ListActiveWageProfiles(gCtx, companyID, s.category)
		if err != nil {
			s.warn(sourceDirectory, err)
			directoryFailed = true
			return nil
		}
		profiles = p
		return nil
	})

	if s.category == payroll.SalaryCategoryPerTrip {
		g.Go(func() error {
			a, err := s.deps.Ledger.AggregatePeriod(gCtx, companyID, s.period)
			if err != nil {
				s.warn(sourceTripLedger, err)
				tripsFailed = true
				return nil
			}
			trips = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	var degraded []string
	if bracketsFailed {
		degraded = append(degraded, sourceBrackets)
	}
	degraded = append(degraded, snap.Degraded...)
	if directoryFailed {
		degraded = append(degraded, sourceDirectory)
	}
	if tripsFailed {
		degraded = append(degraded, sourceTripLedger)
	}

	// Saved drafts win; active employees without one get a default record.
	// Drafts of employees no longer active are kept after the directory order.
	draftByID := make(map[string]payroll.PayrollRecord, len(drafts))
	for _, d := range drafts {
		draftByID[d.EmployeeID] = d
	}
	base := make([]payroll.PayrollRecord, 0, len(profiles)+len(drafts))
	for _, p := range profiles {
		if d, ok := draftByID[p.EmployeeID]; ok {
			base = append(base, Rehydrate(d))
			delete(draftByID, p.EmployeeID)
			continue
		}
		base = append(base, s.defaultRecord(p))
	}
	for _, d := range drafts {
		if _, ok := draftByID[d.EmployeeID]; ok {
			base = append(base, Rehydrate(d))
		}
	}

	calc := NewCalculator(NewBracketResolver(tables))
	records := make(map[string]payroll.PayrollRecord, len(base))
	order := make([]string, 0, len(base))
	for _, r := range base {
		if _, dup := records[r.EmployeeID]; dup {
			continue
		}
		if !r.IsOverride {
			r.CACharges = snap.Charge(r.EmployeeID)
			r.SILPay = snap.Leave(r.EmployeeID)
		}
		if trips != nil {
			applyTripAggregate(&r, trips[r.EmployeeID])
		}

		calculated, err := calc.Calculate(r, s.category)
		if err != nil {
			return err
		}
		records[r.EmployeeID] = calculated
		order = append(order, r.EmployeeID)
	}

	s.calc = calc
	s.records = records
	s.order = order
	s.degraded = degraded
	return nil
}

func (s *PeriodSession) defaultRecord(p payroll.EmployeeWageProfile) payroll.PayrollRecord {
	return payroll.PayrollRecord{
		CompanyID:       s.principal.CompanyID,
		EmployeeID:      p.EmployeeID,
		EmployeeName:    p.DisplayName,
		Department:      p.Department,
		PaymentType:     p.PaymentType,
		SalaryCategory:  s.category,
		PeriodStart:     s.period.Start,
		PeriodEnd:       s.period.End,
		DailyWage:       p.DailyWage,
		MonthlyBasicPay: p.MonthlyBasicPay,
	}
}

func (s *PeriodSession) warn(source string, err error) {
	metrics.AuxiliaryDegraded.WithLabelValues(source).Inc()
	s.deps.Logger.Warn("auxiliary source unavailable, continuing with defaults",
		slog.String("source", source),
		slog.String("company_id", s.principal.CompanyID),
		slog.String("category", string(s.category)),
		slog.String("period", s.period.String()),
		slog.Any("error", err),
	)
}

func applyTripAggregate(r *payroll.PayrollRecord, agg payroll.TripAggregate) {
	r.TripRate = agg.Sum
	r.NumberOfTrips = agg.Count
}

// Records returns the session's records in display order.
func (s *PeriodSession) Records() []payroll.PayrollRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]payroll.PayrollRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

func (s *PeriodSession) Record(employeeID string) (payroll.PayrollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(employeeID)
}

func (s *PeriodSession) get(employeeID string) (payroll.PayrollRecord, error) {
	r, ok := s.records[employeeID]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrRecordNotFound
	}
	return r, nil
}

// put recalculates r and replaces the stored record.
func (s *PeriodSession) put(r payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	calculated, err := s.calc.Calculate(r, s.category)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	s.records[r.EmployeeID] = calculated
	return calculated, nil
}

// Edit applies operator input to one record and recalculates it.
func (s *PeriodSession) Edit(employeeID string, edit payroll.RecordEdit) (payroll.PayrollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.get(employeeID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	return s.put(ApplyEdit(r, edit))
}

// ToggleOverride switches a record between calculated and manual contributions.
// Leaving manual mode refetches charges and leave pay and re-resolves contributions.
func (s *PeriodSession) ToggleOverride(ctx context.Context, employeeID string) (payroll.PayrollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.get(employeeID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	r, transition := ToggleOverride(r)
	if transition == TransitionReleased {
		companyID := s.principal.CompanyID
		r.CACharges = s.deps.Adjustments.ChargeTotal(ctx, companyID, employeeID, s.period.End)
		r.SILPay = s.deps.Adjustments.LeavePay(ctx, companyID, employeeID, s.period.End)
	}
	return s.put(r)
}

// ApplyThirteenthMonth fills the record's 13th month pay from the precomputed lookup.
func (s *PeriodSession) ApplyThirteenthMonth(ctx context.Context, employeeID string) (payroll.PayrollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.get(employeeID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	amount, err := s.deps.ThirteenthMonth.GetAmount(ctx, s.principal.CompanyID, employeeID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	r.ThirteenthMonth = amount
	return s.put(r)
}

// TripEntries returns the trip ledger view of a per-trip employee.
func (s *PeriodSession) TripEntries(ctx context.Context, employeeID string) ([]payroll.TripEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTrips(employeeID); err != nil {
		return nil, err
	}
	return s.deps.Ledger.EntriesFor(ctx, s.principal.CompanyID, employeeID, s.period)
}

func (s *PeriodSession) SetTripRate(ctx context.Context, employeeID, waybillNumber string, rate decimal.Decimal) (payroll.PayrollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTrips(employeeID); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if _, err := s.deps.Ledger.SetRate(ctx, s.principal.CompanyID, employeeID, s.period, waybillNumber, rate); err != nil {
		return payroll.PayrollRecord{}, err
	}
	return s.refreshTrips(ctx, employeeID)
}

func (s *PeriodSession) SetTripIncluded(ctx context.Context, employeeID, waybillNumber string, included bool) (payroll.PayrollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTrips(employeeID); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if _, err := s.deps.Ledger.SetIncluded(ctx, s.principal.CompanyID, employeeID, s.period, waybillNumber, included); err != nil {
		return payroll.PayrollRecord{}, err
	}
	return s.refreshTrips(ctx, employeeID)
}

func (s *PeriodSession) requireTrips(employeeID string) error {
	if s.category != payroll.SalaryCategoryPerTrip {
		return payroll.ErrTripRatesNotApplicable
	}
	_, err := s.get(employeeID)
	return err
}

func (s *PeriodSession) refreshTrips(ctx context.Context, employeeID string) (payroll.PayrollRecord, error) {
	agg, err := s.deps.Ledger.Aggregate(ctx, s.principal.CompanyID, employeeID, s.period)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	r, err := s.get(employeeID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	applyTripAggregate(&r, agg)
	return s.put(r)
}

// reaggregate refreshes the trip projections of per-trip records from the ledger.
func (s *PeriodSession) reaggregate(ctx context.Context, ids []string) error {
	if s.category != payroll.SalaryCategoryPerTrip {
		return nil
	}
	aggs, err := s.deps.Ledger.AggregatePeriod(ctx, s.principal.CompanyID, s.period)
	if err != nil {
		return fmt.Errorf("failed to aggregate trip rates: %w", err)
	}
	for _, id := range ids {
		r := s.records[id]
		applyTripAggregate(&r, aggs[id])
		if _, err := s.put(r); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts the given records, or every record when none are named.
// Per-trip records are re-aggregated from the ledger first.
// Records that fail are reported in a *payroll.SaveError; the rest stay saved.
func (s *PeriodSession) Save(ctx context.Context, employeeIDs ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.selection(employeeIDs)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.reaggregate(ctx, ids); err != nil {
		return 0, err
	}

	batch := make([]payroll.PayrollRecord, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, s.records[id])
	}

	category := string(s.category)
	failed, err := s.deps.Drafts.UpsertMany(ctx, s.principal.CompanyID, batch)
	if err != nil {
		metrics.DraftsSaved.WithLabelValues(category, "error").Add(float64(len(batch)))
		return 0, fmt.Errorf("failed to save drafts: %w", err)
	}

	saved := len(batch) - len(failed)
	metrics.DraftsSaved.WithLabelValues(category, "saved").Add(float64(saved))
	if len(failed) > 0 {
		metrics.DraftsSaved.WithLabelValues(category, "error").Add(float64(len(failed)))
		s.deps.Logger.Warn("partial draft save",
			slog.String("company_id", s.principal.CompanyID),
			slog.String("period", s.period.String()),
			slog.Int("saved", saved),
			slog.Int("failed", len(failed)),
		)
		return saved, &payroll.SaveError{Failed: failed}
	}
	return saved, nil
}

// Clear deletes the saved drafts of the period. Trip ledger rows are kept.
func (s *PeriodSession) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.deps.Drafts.DeleteByPeriod(ctx, s.principal.CompanyID, s.category, s.period)
	if err != nil {
		return 0, fmt.Errorf("failed to clear drafts: %w", err)
	}
	return deleted, nil
}

// Finalize submits the selected records as a report, clears their drafts and reloads the period.
// If the clear step fails the report stays submitted and a *payroll.FinalizeError carries its ID.
func (s *PeriodSession) Finalize(ctx context.Context, employeeIDs []string) (FinalizeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(employeeIDs) == 0 {
		return FinalizeResult{}, validator.ValidationErrors{
			{Field: "employee_ids", Message: "at least one employee is required"},
		}
	}
	ids, err := s.selection(employeeIDs)
	if err != nil {
		return FinalizeResult{}, err
	}
	if err := s.reaggregate(ctx, ids); err != nil {
		return FinalizeResult{}, err
	}

	report := payroll.PayrollReport{
		CompanyID:       s.principal.CompanyID,
		SalaryCategory:  s.category,
		PeriodStart:     s.period.Start,
		PeriodEnd:       s.period.End,
		GeneratedBy:     s.principal.UserID,
		TotalGrossPay:   decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNetPay:     decimal.Zero,
	}
	for _, id := range ids {
		r := s.records[id]
		report.Lines = append(report.Lines, r)
		report.TotalGrossPay = report.TotalGrossPay.Add(r.TotalGrossPay)
		report.TotalDeductions = report.TotalDeductions.Add(r.TotalDeductions)
		report.TotalNetPay = report.TotalNetPay.Add(r.NetPay)
	}

	submitted, err := s.deps.Reports.Submit(ctx, report)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("failed to submit payroll report: %w", err)
	}
	metrics.ReportsFinalized.WithLabelValues(string(s.category)).Inc()

	result := FinalizeResult{Report: submitted}
	cleared, err := s.deps.Drafts.DeleteFinalized(ctx, s.principal.CompanyID, submitted.ID)
	if err != nil {
		metrics.FinalizeClearFailures.Inc()
		s.deps.Logger.Error("report submitted but drafts not cleared",
			slog.String("company_id", s.principal.CompanyID),
			slog.String("report_id", submitted.ID),
			slog.Any("error", err),
		)
		return result, &payroll.FinalizeError{ReportID: submitted.ID, Err: err}
	}
	result.DraftsCleared = cleared

	if err := s.load(ctx); err != nil {
		return result, fmt.Errorf("failed to reload period after finalize: %w", err)
	}
	return result, nil
}

// selection returns the requested IDs in display order, or all IDs when none are given.
func (s *PeriodSession) selection(employeeIDs []string) ([]string, error) {
	if len(employeeIDs) == 0 {
		return append([]string(nil), s.order...), nil
	}

	wanted := make(map[string]bool, len(employeeIDs))
	var unknown []string
	for _, id := range employeeIDs {
		if _, ok := s.records[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		wanted[id] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, validator.ValidationErrors{
			{Field: "employee_ids", Message: "not in this payroll period: " + strings.Join(unknown, ", ")},
		}
	}

	ids := make([]string, 0, len(wanted))
	for _, id := range s.order {
		if wanted[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
