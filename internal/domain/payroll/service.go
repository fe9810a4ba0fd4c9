package payroll

import "context"

// PayrollService drives the payroll screens for one salary category and period.
// Company scope is taken from the JWT claims in ctx.
type PayrollService interface {
	// Period session
	OpenPeriod(ctx context.Context, req PeriodRequest) (PeriodResponse, error)
	EditRecord(ctx context.Context, req EditRecordRequest) (PayrollRecordResponse, error)
	ToggleOverride(ctx context.Context, req RecordRequest) (PayrollRecordResponse, error)
	ApplyThirteenthMonth(ctx context.Context, req RecordRequest) (PayrollRecordResponse, error)

	// Trip ledger
	ListTrips(ctx context.Context, req RecordRequest) (TripLedgerResponse, error)
	UpdateTrip(ctx context.Context, req UpdateTripRequest) (TripLedgerResponse, error)

	// Drafts
	SaveDrafts(ctx context.Context, req SaveDraftsRequest) (SaveDraftsResponse, error)
	ClearDrafts(ctx context.Context, req PeriodRequest) (ClearDraftsResponse, error)

	// Finalize
	Finalize(ctx context.Context, req FinalizeRequest) (FinalizeResponse, error)
	ClearFinalizedDrafts(ctx context.Context, reportID string) (ClearDraftsResponse, error)
}
