package snapshot

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/roasbooster/analytics-backend/internal/reporting"
	"github.com/roasbooster/analytics-backend/pkg/db/models"
)

// Reader serves historical reports straight from the summary tables,
// re-deriving the ratio metrics over the requested window so a
// multi-day read is consistent with a live computation.
type Reader struct {
	db           *gorm.DB
	marginFactor float64
}

func NewReader(db *gorm.DB, marginFactor float64) *Reader {
	return &Reader{db: db, marginFactor: marginFactor}
}

// summaryAgg is the scan target for one entity summed over a window of
// summary rows.
type summaryAgg struct {
	EntityID     string  `gorm:"column:entity_id"`
	Name         string  `gorm:"column:name"`
	AdsetID      string  `gorm:"column:adset_id"`
	CampaignID   string  `gorm:"column:campaign_id"`
	AccountID    string  `gorm:"column:account_id"`
	AccountName  string  `gorm:"column:account_name"`
	Impressions  int64   `gorm:"column:impressions"`
	UniqueClicks int64   `gorm:"column:unique_clicks"`
	Spend        float64 `gorm:"column:spend"`
	CPM          float64 `gorm:"column:cpm"`
	CTR          float64 `gorm:"column:ctr"`
	Revenue      float64 `gorm:"column:revenue"`
	Cost         float64 `gorm:"column:cost"`
	Orders       int64   `gorm:"column:orders"`
}

type summarySource struct {
	table    string
	idColumn string
	name     string
	extras   string
}

var summarySources = map[string]summarySource{
	"ads": {
		table:    "summary_ads",
		idColumn: "ad_id",
		name:     "ad_name",
		extras:   "MAX(adset_id) AS adset_id, MAX(campaign_id) AS campaign_id,",
	},
	"adsets": {
		table:    "summary_adsets",
		idColumn: "adset_id",
		name:     "adset_name",
		extras:   "MAX(campaign_id) AS campaign_id,",
	},
	"campaigns": {
		table:    "summary_campaigns",
		idColumn: "campaign_id",
		name:     "campaign_name",
	},
	"accounts": {
		table:    "summary_accounts",
		idColumn: "account_id",
		name:     "account_name",
	},
}

// SummaryWindow aggregates the archived days in [start, end] into one
// report shaped exactly like a live window computation.
func (r *Reader) SummaryWindow(ctx context.Context, start, end string) (*reporting.WindowReport, error) {
	report := &reporting.WindowReport{Start: start, End: end}

	var err error
	if report.Ads, err = r.summaryEntities(ctx, "ads", start, end); err != nil {
		return nil, err
	}
	if report.Adsets, err = r.summaryEntities(ctx, "adsets", start, end); err != nil {
		return nil, err
	}
	if report.Campaigns, err = r.summaryEntities(ctx, "campaigns", start, end); err != nil {
		return nil, err
	}
	if report.Accounts, err = r.summaryEntities(ctx, "accounts", start, end); err != nil {
		return nil, err
	}

	for _, account := range report.Accounts {
		report.TotalProfit += account.Profit
	}
	return report, nil
}

func (r *Reader) summaryEntities(ctx context.Context, level, start, end string) ([]reporting.EntityMetrics, error) {
	source, ok := summarySources[level]
	if !ok {
		return nil, fmt.Errorf("unknown summary level %q", level)
	}

	query := fmt.Sprintf(`
SELECT %s AS entity_id,
       MAX(%s) AS name,
       %s
       MAX(account_id) AS account_id,
       MAX(account_name) AS account_name,
       SUM(impressions) AS impressions,
       SUM(unique_clicks) AS unique_clicks,
       SUM(spend) AS spend,
       AVG(cpm) AS cpm,
       AVG(ctr) AS ctr,
       SUM(total_revenue) AS revenue,
       SUM(total_cost) AS cost,
       SUM(order_count) AS orders
FROM %s
WHERE snapshot_date BETWEEN ? AND ?
GROUP BY %s
ORDER BY %s`,
		source.idColumn, source.name, source.extras, source.table, source.idColumn, source.idColumn)

	var aggs []summaryAgg
	if err := r.db.WithContext(ctx).Raw(query, start, end).Scan(&aggs).Error; err != nil {
		return nil, fmt.Errorf("aggregating %s summaries: %w", level, err)
	}

	out := make([]reporting.EntityMetrics, 0, len(aggs))
	for _, agg := range aggs {
		entity := reporting.EntityMetrics{
			EntityID:    agg.EntityID,
			Name:        agg.Name,
			AdsetID:     agg.AdsetID,
			CampaignID:  agg.CampaignID,
			AccountID:   agg.AccountID,
			AccountName: agg.AccountName,
			Metrics: reporting.DeriveMetrics(
				reporting.InsightAgg{
					EntityID:     agg.EntityID,
					Impressions:  agg.Impressions,
					UniqueClicks: agg.UniqueClicks,
					Spend:        agg.Spend,
					CPM:          agg.CPM,
					CTR:          agg.CTR,
				},
				reporting.OrderAgg{
					Revenue: agg.Revenue,
					Cost:    agg.Cost,
					Orders:  agg.Orders,
				},
				r.marginFactor,
			),
		}
		out = append(out, entity)
	}
	return out, nil
}

// SummaryDashboard merges the archived dashboard rows in [start, end]:
// counts and sales sum, largest orders take the max, and buckets with
// the same key fold together.
func (r *Reader) SummaryDashboard(ctx context.Context, start, end string) (*reporting.DashboardReport, error) {
	var days []models.SummaryDashboard
	err := r.db.WithContext(ctx).
		Where("snapshot_date BETWEEN ? AND ?", start, end).
		Order("snapshot_date ASC").
		Find(&days).Error
	if err != nil {
		return nil, fmt.Errorf("listing dashboard summaries: %w", err)
	}

	report := &reporting.DashboardReport{
		Start:      start,
		End:        end,
		TagBuckets: map[string]reporting.Bucket{},
		UTMBuckets: map[string]reporting.Bucket{},
	}
	for _, day := range days {
		report.OrderCount += day.OrderCount
		report.TotalRevenue += day.TotalRevenue
		if day.LargestOrder > report.LargestOrder {
			report.LargestOrder = day.LargestOrder
		}
		mergeBuckets(report.TagBuckets, day.TagBuckets)
		mergeBuckets(report.UTMBuckets, day.UTMBuckets)
	}
	return report, nil
}

func mergeBuckets(into map[string]reporting.Bucket, from models.DashboardBuckets) {
	for key, day := range from {
		bucket := into[key]
		bucket.Count += day.Count
		bucket.TotalSales += day.TotalSales
		if day.LargestOrder > bucket.LargestOrder {
			bucket.LargestOrder = day.LargestOrder
		}
		into[key] = bucket
	}
}
