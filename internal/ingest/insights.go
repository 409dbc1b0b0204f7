package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/roasbooster/analytics-backend/internal/facebook"
	"github.com/roasbooster/analytics-backend/pkg/db/models"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

// Puller sweeps insights across the configured ad accounts.
type Puller interface {
	Pull(ctx context.Context, since, until string) (*facebook.Pull, error)
}

// SaveResult reports the outcome of one insight table write.
type SaveResult struct {
	Table   string `json:"table"`
	Success bool   `json:"success"`
	Rows    int    `json:"rows"`
}

// InsightsService pulls today's insights for every account and upserts
// them per table. Tables save independently: one failing does not stop
// the others, and the per-table outcomes are reported to the caller.
type InsightsService struct {
	puller Puller
	store  InsightStore
	logg   *logger.Logger
	state  *RunState
	tz     *time.Location

	now func() time.Time
}

// NewInsightsService wires the insights ingestion pipeline. The
// timezone decides what "today" means for the pull window.
func NewInsightsService(puller Puller, store InsightStore, tz *time.Location, logg *logger.Logger) *InsightsService {
	if tz == nil {
		tz = time.UTC
	}
	return &InsightsService{
		puller: puller,
		store:  store,
		logg:   logg,
		state:  NewRunState(),
		tz:     tz,
		now:    time.Now,
	}
}

// State exposes the run phase for observability.
func (s *InsightsService) State() State {
	return s.state.Get()
}

// Run performs one pull-and-upsert cycle for today's window.
func (s *InsightsService) Run(ctx context.Context) ([]SaveResult, error) {
	today := s.now().In(s.tz).Format("2006-01-02")
	return s.RunWindow(ctx, today, today)
}

// RunWindow pulls and upserts insights for an explicit date window.
func (s *InsightsService) RunWindow(ctx context.Context, since, until string) ([]SaveResult, error) {
	s.state.Set(StateFetching)

	pull, pullErr := s.puller.Pull(ctx, since, until)
	if pull == nil {
		s.state.Set(StateFailed)
		return nil, fmt.Errorf("insights pull: %w", pullErr)
	}
	if pullErr != nil {
		// partial rows are still worth persisting
		s.logg.Warn(ctx, fmt.Sprintf("insights pull degraded: %v", pullErr))
	}

	s.state.Set(StateUpserting)

	results := make([]SaveResult, 0, 4)
	var errs error

	saveAds := s.store.UpsertAdInsights(ctx, mapAdRows(pull.Ads))
	results = append(results, saveResult("ad_insights", len(pull.Ads), saveAds))
	errs = multierr.Append(errs, saveAds)

	saveAdsets := s.store.UpsertAdsetInsights(ctx, mapAdsetRows(pull.Adsets))
	results = append(results, saveResult("adset_insights", len(pull.Adsets), saveAdsets))
	errs = multierr.Append(errs, saveAdsets)

	saveCampaigns := s.store.UpsertCampaignInsights(ctx, mapCampaignRows(pull.Campaigns))
	results = append(results, saveResult("campaign_insights", len(pull.Campaigns), saveCampaigns))
	errs = multierr.Append(errs, saveCampaigns)

	saveAccounts := s.store.UpsertAccountInsights(ctx, mapAccountRows(pull.Accounts))
	results = append(results, saveResult("account_insights", len(pull.Accounts), saveAccounts))
	errs = multierr.Append(errs, saveAccounts)

	if errs != nil {
		s.state.Set(StateFailed)
		return results, errs
	}
	s.state.Set(StateIdle)
	return results, nil
}

func saveResult(table string, rows int, err error) SaveResult {
	return SaveResult{Table: table, Success: err == nil, Rows: rows}
}

func mapAdRows(rows []facebook.Row) []models.AdInsight {
	out := make([]models.AdInsight, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.AdInsight{
			AdID:         row.AdID,
			DateStart:    row.DateStart,
			AdName:       row.AdName,
			AdsetID:      row.AdsetID,
			AdsetName:    row.AdsetName,
			CampaignID:   row.CampaignID,
			CampaignName: row.CampaignName,
			AccountID:    row.AccountID,
			AccountName:  row.AccountName,
			Impressions:  row.Impressions,
			Reach:        row.Reach,
			Clicks:       row.Clicks,
			UniqueClicks: row.UniqueClicks,
			Spend:        row.Spend,
			CPC:          row.CPC,
			CPM:          row.CPM,
			CTR:          row.CTR,
			DataSet:      row.DataSet,
		})
	}
	return out
}

func mapAdsetRows(rows []facebook.Row) []models.AdsetInsight {
	out := make([]models.AdsetInsight, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.AdsetInsight{
			AdsetID:      row.AdsetID,
			DateStart:    row.DateStart,
			AdsetName:    row.AdsetName,
			CampaignID:   row.CampaignID,
			CampaignName: row.CampaignName,
			AccountID:    row.AccountID,
			AccountName:  row.AccountName,
			Impressions:  row.Impressions,
			Reach:        row.Reach,
			Clicks:       row.Clicks,
			UniqueClicks: row.UniqueClicks,
			Spend:        row.Spend,
			CPC:          row.CPC,
			CPM:          row.CPM,
			CTR:          row.CTR,
			DataSet:      row.DataSet,
		})
	}
	return out
}

func mapCampaignRows(rows []facebook.Row) []models.CampaignInsight {
	out := make([]models.CampaignInsight, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.CampaignInsight{
			CampaignID:   row.CampaignID,
			DateStart:    row.DateStart,
			CampaignName: row.CampaignName,
			AccountID:    row.AccountID,
			AccountName:  row.AccountName,
			Impressions:  row.Impressions,
			Reach:        row.Reach,
			Clicks:       row.Clicks,
			UniqueClicks: row.UniqueClicks,
			Spend:        row.Spend,
			CPC:          row.CPC,
			CPM:          row.CPM,
			CTR:          row.CTR,
			DataSet:      row.DataSet,
		})
	}
	return out
}

func mapAccountRows(rows []facebook.Row) []models.AccountInsight {
	out := make([]models.AccountInsight, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.AccountInsight{
			AccountID:    row.AccountID,
			DateStart:    row.DateStart,
			AccountName:  row.AccountName,
			Impressions:  row.Impressions,
			Reach:        row.Reach,
			Clicks:       row.Clicks,
			UniqueClicks: row.UniqueClicks,
			Spend:        row.Spend,
			CPC:          row.CPC,
			CPM:          row.CPM,
			CTR:          row.CTR,
			DataSet:      row.DataSet,
		})
	}
	return out
}
