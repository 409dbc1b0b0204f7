package reporting

import (
	"context"
	"fmt"
	"strings"

	"github.com/roasbooster/analytics-backend/pkg/db/models"
	"github.com/roasbooster/analytics-backend/pkg/enums"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

// Engine joins insight aggregates with attributed orders and derives
// the full metric set. Orders with no UTM value never join an entity;
// they still count in the dashboard aggregate.
type Engine struct {
	repo         Repository
	marginFactor float64
	logg         *logger.Logger
}

// NewEngine builds an Engine. marginFactor is the business take-rate
// applied to gross revenue before profit.
func NewEngine(repo Repository, marginFactor float64, logg *logger.Logger) *Engine {
	return &Engine{repo: repo, marginFactor: marginFactor, logg: logg}
}

// ComputeWindow builds the attribution-joined report for [start, end]
// (inclusive date strings). Ads join orders on utm_content, adsets on
// utm_term, campaigns on utm_campaign; accounts aggregate the orders
// of their campaigns.
func (e *Engine) ComputeWindow(ctx context.Context, start, end string) (*WindowReport, error) {
	report := &WindowReport{Start: start, End: end}

	ordersByContent, err := e.repo.OrderAggsByUTM(ctx, UTMContent, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating orders by content: %w", err)
	}
	ordersByTerm, err := e.repo.OrderAggsByUTM(ctx, UTMTerm, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating orders by term: %w", err)
	}
	ordersByCampaign, err := e.repo.OrderAggsByUTM(ctx, UTMCampaign, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating orders by campaign: %w", err)
	}

	report.Ads, err = e.entityMetrics(ctx, enums.EntityKindAd, start, end, ordersByContent)
	if err != nil {
		return nil, err
	}
	report.Adsets, err = e.entityMetrics(ctx, enums.EntityKindAdSet, start, end, ordersByTerm)
	if err != nil {
		return nil, err
	}
	report.Campaigns, err = e.entityMetrics(ctx, enums.EntityKindCampaign, start, end, ordersByCampaign)
	if err != nil {
		return nil, err
	}

	report.Accounts, err = e.accountMetrics(ctx, start, end, ordersByCampaign)
	if err != nil {
		return nil, err
	}
	for _, account := range report.Accounts {
		report.TotalProfit += account.Profit
	}

	return report, nil
}

func (e *Engine) entityMetrics(ctx context.Context, kind enums.EntityKind, start, end string, orders map[string]OrderAgg) ([]EntityMetrics, error) {
	aggs, err := e.repo.InsightAggregates(ctx, kind, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s insights: %w", kind, err)
	}

	out := make([]EntityMetrics, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, buildEntity(agg, orders[agg.EntityID], e.marginFactor))
	}
	return out, nil
}

// accountMetrics aggregates campaign-attributed orders up to each
// account: an account has no UTM column of its own, so its orders are
// the sum over its campaigns in the window.
func (e *Engine) accountMetrics(ctx context.Context, start, end string, ordersByCampaign map[string]OrderAgg) ([]EntityMetrics, error) {
	accountAggs, err := e.repo.InsightAggregates(ctx, enums.EntityKindAccount, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregating account insights: %w", err)
	}
	campaignAggs, err := e.repo.InsightAggregates(ctx, enums.EntityKindCampaign, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing window campaigns: %w", err)
	}

	ordersByAccount := map[string]OrderAgg{}
	for _, campaign := range campaignAggs {
		orders, ok := ordersByCampaign[campaign.EntityID]
		if !ok {
			continue
		}
		total := ordersByAccount[campaign.AccountID]
		total.Revenue += orders.Revenue
		total.Cost += orders.Cost
		total.Orders += orders.Orders
		ordersByAccount[campaign.AccountID] = total
	}

	out := make([]EntityMetrics, 0, len(accountAggs))
	for _, agg := range accountAggs {
		out = append(out, buildEntity(agg, ordersByAccount[agg.EntityID], e.marginFactor))
	}
	return out, nil
}

func buildEntity(agg InsightAgg, orders OrderAgg, marginFactor float64) EntityMetrics {
	return EntityMetrics{
		EntityID:    agg.EntityID,
		Name:        agg.Name,
		AdsetID:     agg.AdsetID,
		CampaignID:  agg.CampaignID,
		AccountID:   agg.AccountID,
		AccountName: agg.AccountName,
		Metrics:     DeriveMetrics(agg, orders, marginFactor),
	}
}

// DeriveMetrics computes every ratio for one entity's aggregated
// numbers. Zero denominators collapse to zero so a sparse window never
// produces NaN or Inf.
func DeriveMetrics(agg InsightAgg, orders OrderAgg, marginFactor float64) Metrics {
	metrics := Metrics{
		Impressions:  agg.Impressions,
		UniqueClicks: agg.UniqueClicks,
		Spend:        agg.Spend,
		CPM:          agg.CPM,
		CTR:          agg.CTR,
		TotalRevenue: orders.Revenue,
		TotalCost:    orders.Cost,
		OrderCount:   orders.Orders,
	}
	metrics.CPC = ratio(agg.Spend, float64(agg.UniqueClicks))
	metrics.ROAS = ratio(orders.Revenue, agg.Spend)
	metrics.CPA = ratio(agg.Spend, float64(orders.Orders))
	metrics.AOV = ratio(orders.Revenue, float64(orders.Orders))
	metrics.CVR = ratio(float64(orders.Orders), float64(agg.UniqueClicks)) * 100
	metrics.EPC = ratio(orders.Revenue, float64(agg.UniqueClicks))
	// Profit discounts gross revenue by the configured take-rate;
	// margin is the profit share of gross sales.
	metrics.Profit = orders.Revenue*marginFactor - orders.Cost - agg.Spend
	metrics.Margin = ratio(metrics.Profit, orders.Revenue) * 100
	return metrics
}

func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// ComputeDashboard aggregates every order in the window, attributed or
// not, into totals plus tag and UTM-source buckets. Revenue is net of
// refunds.
func (e *Engine) ComputeDashboard(ctx context.Context, start, end string) (*DashboardReport, error) {
	orders, err := e.repo.OrdersInWindow(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing window orders: %w", err)
	}

	report := &DashboardReport{
		Start:      start,
		End:        end,
		TagBuckets: map[string]Bucket{},
		UTMBuckets: map[string]Bucket{},
	}

	for _, order := range orders {
		net := netRevenue(order)

		report.OrderCount++
		report.TotalRevenue += net
		if net > report.LargestOrder {
			report.LargestOrder = net
		}

		for _, tag := range splitTags(order.Tags) {
			addToBucket(report.TagBuckets, tag, net)
		}
		if order.UTMSource != nil && *order.UTMSource != "" {
			addToBucket(report.UTMBuckets, strings.ToLower(*order.UTMSource), net)
		}
	}

	return report, nil
}

func netRevenue(order models.ShopifyOrder) float64 {
	net, _ := order.TotalPrice.Sub(order.Refunds.RefundedTotal()).Float64()
	return net
}

func addToBucket(buckets map[string]Bucket, key string, amount float64) {
	bucket := buckets[key]
	bucket.Count++
	bucket.TotalSales += amount
	if amount > bucket.LargestOrder {
		bucket.LargestOrder = amount
	}
	buckets[key] = bucket
}

func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
