package controllers

import (
	"context"
	"net/http"

	"github.com/roasbooster/analytics-backend/api/responses"
	"github.com/roasbooster/analytics-backend/api/validators"
	"github.com/roasbooster/analytics-backend/internal/reporting"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

// Reporter computes live, attribution-joined reports.
type Reporter interface {
	ComputeWindow(ctx context.Context, start, end string) (*reporting.WindowReport, error)
	ComputeDashboard(ctx context.Context, start, end string) (*reporting.DashboardReport, error)
}

// SummaryReader serves the same report shapes from archived snapshots.
type SummaryReader interface {
	SummaryWindow(ctx context.Context, start, end string) (*reporting.WindowReport, error)
	SummaryDashboard(ctx context.Context, start, end string) (*reporting.DashboardReport, error)
}

// Insights serves the live windowed metric report for every ad entity.
func Insights(reporter Reporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rng, err := validators.ParseDateRange(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := reporter.ComputeWindow(ctx, rng.Start, rng.End)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// OrdersSummary serves the live storefront-wide order aggregate.
func OrdersSummary(reporter Reporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rng, err := validators.ParseDateRange(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := reporter.ComputeDashboard(ctx, rng.Start, rng.End)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// Summary serves the metric report from archived daily snapshots.
func Summary(reader SummaryReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rng, err := validators.ParseDateRange(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := reader.SummaryWindow(ctx, rng.Start, rng.End)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// DashboardSummary serves the order aggregate from archived snapshots.
func DashboardSummary(reader SummaryReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rng, err := validators.ParseDateRange(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := reader.SummaryDashboard(ctx, rng.Start, rng.End)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
