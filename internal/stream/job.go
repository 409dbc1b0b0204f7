package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/roasbooster/analytics-backend/internal/reporting"
)

const dateLayout = "2006-01-02"

// Reporter computes the live reports the job caches.
type Reporter interface {
	ComputeWindow(ctx context.Context, start, end string) (*reporting.WindowReport, error)
	ComputeDashboard(ctx context.Context, start, end string) (*reporting.DashboardReport, error)
}

// Sink receives the freshly computed payload.
type Sink interface {
	StoreToday(ctx context.Context, payload *TodayPayload) error
}

// TodayCacheJob recomputes the running day's reports and pushes them
// into the cache, which fans them out to stream clients.
type TodayCacheJob struct {
	reporter Reporter
	sink     Sink
	tz       *time.Location

	now func() time.Time
}

func NewTodayCacheJob(reporter Reporter, sink Sink, tz *time.Location) *TodayCacheJob {
	return &TodayCacheJob{reporter: reporter, sink: sink, tz: tz, now: time.Now}
}

func (j *TodayCacheJob) Run(ctx context.Context) error {
	moment := j.now().In(j.tz)
	today := moment.Format(dateLayout)

	window, err := j.reporter.ComputeWindow(ctx, today, today)
	if err != nil {
		return fmt.Errorf("computing today window: %w", err)
	}
	dashboard, err := j.reporter.ComputeDashboard(ctx, today, today)
	if err != nil {
		return fmt.Errorf("computing today dashboard: %w", err)
	}

	return j.sink.StoreToday(ctx, &TodayPayload{
		GeneratedAt: moment,
		Window:      window,
		Dashboard:   dashboard,
	})
}
