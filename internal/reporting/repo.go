package reporting

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/roasbooster/analytics-backend/pkg/db/models"
	"github.com/roasbooster/analytics-backend/pkg/enums"
)

// Repository reads the live insight and order tables for the engine.
type Repository interface {
	InsightAggregates(ctx context.Context, kind enums.EntityKind, start, end string) ([]InsightAgg, error)
	OrderAggsByUTM(ctx context.Context, column UTMColumn, start, end string) (map[string]OrderAgg, error)
	OrdersInWindow(ctx context.Context, start, end string) ([]models.ShopifyOrder, error)
}

// UTMColumn is a whitelisted order column an entity level joins on.
type UTMColumn string

const (
	UTMContent  UTMColumn = "utm_content"
	UTMTerm     UTMColumn = "utm_term"
	UTMCampaign UTMColumn = "utm_campaign"
)

// JoinStrategy maps each entity level to the UTM column its orders are
// attributed through. Accounts have no column of their own: they join
// through their campaigns.
var JoinStrategy = map[enums.EntityKind]UTMColumn{
	enums.EntityKindAd:       UTMContent,
	enums.EntityKindAdSet:    UTMTerm,
	enums.EntityKindCampaign: UTMCampaign,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the reporting read layer bound to the provided
// DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type insightSource struct {
	table    string
	idColumn string
	name     string
	extras   string
}

var insightSources = map[enums.EntityKind]insightSource{
	enums.EntityKindAd: {
		table:    "ad_insights",
		idColumn: "ad_id",
		name:     "ad_name",
		extras:   "MAX(adset_id) AS adset_id, MAX(campaign_id) AS campaign_id,",
	},
	enums.EntityKindAdSet: {
		table:    "adset_insights",
		idColumn: "adset_id",
		name:     "adset_name",
		extras:   "MAX(campaign_id) AS campaign_id,",
	},
	enums.EntityKindCampaign: {
		table:    "campaign_insights",
		idColumn: "campaign_id",
		name:     "campaign_name",
	},
	enums.EntityKindAccount: {
		table:    "account_insights",
		idColumn: "account_id",
		name:     "account_name",
	},
}

func (r *repository) InsightAggregates(ctx context.Context, kind enums.EntityKind, start, end string) ([]InsightAgg, error) {
	source, ok := insightSources[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
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
       AVG(ctr) AS ctr
FROM %s
WHERE date_start BETWEEN ? AND ?
GROUP BY %s
ORDER BY %s`,
		source.idColumn, source.name, source.extras, source.table, source.idColumn, source.idColumn)

	var aggs []InsightAgg
	if err := r.db.WithContext(ctx).Raw(query, start, end).Scan(&aggs).Error; err != nil {
		return nil, err
	}
	return aggs, nil
}

func (r *repository) OrderAggsByUTM(ctx context.Context, column UTMColumn, start, end string) (map[string]OrderAgg, error) {
	switch column {
	case UTMContent, UTMTerm, UTMCampaign:
	default:
		return nil, fmt.Errorf("unsupported join column %q", column)
	}

	query := fmt.Sprintf(`
SELECT %s AS key,
       SUM(total_price) AS revenue,
       SUM(total_cost) AS cost,
       COUNT(*) AS orders
FROM shopify_orders
WHERE %s IS NOT NULL
  AND DATE(created_at) BETWEEN ? AND ?
GROUP BY %s`, column, column, column)

	var rows []OrderAgg
	if err := r.db.WithContext(ctx).Raw(query, start, end).Scan(&rows).Error; err != nil {
		return nil, err
	}

	aggs := make(map[string]OrderAgg, len(rows))
	for _, row := range rows {
		aggs[row.Key] = row
	}
	return aggs, nil
}

func (r *repository) OrdersInWindow(ctx context.Context, start, end string) ([]models.ShopifyOrder, error) {
	var orders []models.ShopifyOrder
	err := r.db.WithContext(ctx).
		Where("DATE(created_at) BETWEEN ? AND ?", start, end).
		Order("order_id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
