package snapshot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/roasbooster/analytics-backend/internal/reporting"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// Reporter computes the live reports the archiver freezes into summary
// rows.
type Reporter interface {
	ComputeWindow(ctx context.Context, start, end string) (*reporting.WindowReport, error)
	ComputeDashboard(ctx context.Context, start, end string) (*reporting.DashboardReport, error)
}

// Archiver walks closed days back from yesterday and freezes each one
// into the summary tables. Days that fail are parked in
// snapshot_backfills and retried on the next run.
type Archiver struct {
	reporter Reporter
	store    Store
	floor    string
	tz       *time.Location
	logg     *logger.Logger

	now func() time.Time
}

// NewArchiver builds an Archiver. floor is the earliest date (inclusive,
// YYYY-MM-DD) the backwards walk reaches.
func NewArchiver(reporter Reporter, store Store, floor string, tz *time.Location, logg *logger.Logger) *Archiver {
	return &Archiver{
		reporter: reporter,
		store:    store,
		floor:    floor,
		tz:       tz,
		logg:     logg,
		now:      time.Now,
	}
}

// Run retries parked backfills first, then walks yesterday back to the
// floor, archiving every day that has no snapshot yet. A failed day is
// recorded and the walk continues; the accumulated errors come back
// together.
func (a *Archiver) Run(ctx context.Context) error {
	var errs error

	errs = multierr.Append(errs, a.retryBackfills(ctx))

	yesterday := a.now().In(a.tz).AddDate(0, 0, -1).Format(dateLayout)
	floor, err := time.ParseInLocation(dateLayout, a.floor, a.tz)
	if err != nil {
		return fmt.Errorf("parsing snapshot floor %q: %w", a.floor, err)
	}

	archived, err := a.store.ArchivedDates(ctx, a.floor, yesterday)
	if err != nil {
		return multierr.Append(errs, fmt.Errorf("listing archived days: %w", err))
	}

	day, err := time.ParseInLocation(dateLayout, yesterday, a.tz)
	if err != nil {
		return multierr.Append(errs, err)
	}
	for !day.Before(floor) {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}

		date := day.Format(dateLayout)
		day = day.AddDate(0, 0, -1)
		if archived[date] {
			continue
		}

		if err := a.ArchiveDay(ctx, date); err != nil {
			a.warn(ctx, date, err)
			errs = multierr.Append(errs, a.park(ctx, date, err))
		}
	}

	return errs
}

// ArchiveDay computes both reports for one day and saves them in a
// single transaction, clearing any pending backfill on success.
func (a *Archiver) ArchiveDay(ctx context.Context, date string) error {
	window, err := a.reporter.ComputeWindow(ctx, date, date)
	if err != nil {
		return fmt.Errorf("computing window for %s: %w", date, err)
	}
	dashboard, err := a.reporter.ComputeDashboard(ctx, date, date)
	if err != nil {
		return fmt.Errorf("computing dashboard for %s: %w", date, err)
	}

	if err := a.store.SaveDay(ctx, date, window, dashboard); err != nil {
		return fmt.Errorf("saving snapshot for %s: %w", date, err)
	}
	return a.store.ResolveBackfill(ctx, date)
}

func (a *Archiver) retryBackfills(ctx context.Context) error {
	pending, err := a.store.PendingBackfills(ctx)
	if err != nil {
		return fmt.Errorf("listing pending backfills: %w", err)
	}

	var errs error
	for _, backfill := range pending {
		if err := a.ArchiveDay(ctx, backfill.SnapshotDate); err != nil {
			a.warn(ctx, backfill.SnapshotDate, err)
			errs = multierr.Append(errs, a.park(ctx, backfill.SnapshotDate, err))
		}
	}
	return errs
}

// park records the failure and returns it, folding in any bookkeeping
// error on top.
func (a *Archiver) park(ctx context.Context, date string, cause error) error {
	if err := a.store.RecordFailure(ctx, date, cause); err != nil {
		return multierr.Append(cause, fmt.Errorf("recording backfill for %s: %w", date, err))
	}
	return cause
}

func (a *Archiver) warn(ctx context.Context, date string, err error) {
	if a.logg == nil {
		return
	}
	a.logg.Warn(ctx, fmt.Sprintf("snapshot for %s failed: %v", date, err))
}
