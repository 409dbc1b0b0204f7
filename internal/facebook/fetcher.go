package facebook

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/roasbooster/analytics-backend/pkg/config"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

// Pull is one complete insights sweep across every configured account.
type Pull struct {
	Accounts  []Row
	Campaigns []Row
	Adsets    []Row
	Ads       []Row
}

// Fetcher sweeps all four insight levels across the configured account
// list. One account failing does not abort the sweep: its partial rows
// are kept, the error is aggregated, and the next account proceeds.
type Fetcher struct {
	api      API
	accounts []config.AdAccount
	logg     *logger.Logger
}

// NewFetcher builds a Fetcher over the configured accounts.
func NewFetcher(api API, accounts []config.AdAccount, logg *logger.Logger) *Fetcher {
	return &Fetcher{api: api, accounts: accounts, logg: logg}
}

// Pull fetches account, campaign, adset and ad level insights for the
// given date window. Adset queries are filtered to the campaigns seen
// for that account in this sweep.
func (f *Fetcher) Pull(ctx context.Context, since, until string) (*Pull, error) {
	result := &Pull{}
	var errs error

	for _, account := range f.accounts {
		actx := ctx
		if f.logg != nil {
			actx = f.logg.WithAccount(ctx, account.ID)
		}
		window := InsightParams{Since: since, Until: until}

		rows, err := f.api.Insights(actx, account, LevelAccount, window)
		result.Accounts = append(result.Accounts, rows...)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("account %s summary: %w", account.ID, err))
			f.warn(actx, "account summary pull failed", err)
			continue
		}

		campaigns, err := f.api.Insights(actx, account, LevelCampaign, window)
		result.Campaigns = append(result.Campaigns, campaigns...)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("account %s campaigns: %w", account.ID, err))
			f.warn(actx, "campaign pull failed", err)
			continue
		}

		adsetParams := window
		for _, row := range campaigns {
			adsetParams.CampaignIDs = append(adsetParams.CampaignIDs, row.CampaignID)
		}
		adsets, err := f.api.Insights(actx, account, LevelAdset, adsetParams)
		result.Adsets = append(result.Adsets, adsets...)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("account %s adsets: %w", account.ID, err))
			f.warn(actx, "adset pull failed", err)
			continue
		}

		ads, err := f.api.Insights(actx, account, LevelAd, window)
		result.Ads = append(result.Ads, ads...)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("account %s ads: %w", account.ID, err))
			f.warn(actx, "ad pull failed", err)
		}
	}

	return result, errs
}

func (f *Fetcher) warn(ctx context.Context, msg string, err error) {
	if f.logg != nil {
		f.logg.Warn(ctx, fmt.Sprintf("%s: %v", msg, err))
	}
}
