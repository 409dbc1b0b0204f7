package models

import "time"

// Summary tables hold one archived row per entity per day, written by
// the snapshot archiver. They carry both the aggregated raw numbers and
// the derived metrics so historical reads never touch the live tables.

// SummaryAd archives one ad's metrics for one day.
type SummaryAd struct {
	SnapshotDate string    `gorm:"column:snapshot_date;primaryKey"`
	AdID         string    `gorm:"column:ad_id;primaryKey"`
	AdName       string    `gorm:"column:ad_name;not null"`
	AdsetID      string    `gorm:"column:adset_id;not null"`
	CampaignID   string    `gorm:"column:campaign_id;not null"`
	AccountID    string    `gorm:"column:account_id;not null;index"`
	AccountName  string    `gorm:"column:account_name;not null"`
	Metrics      `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// SummaryAdset archives one ad set's metrics for one day.
type SummaryAdset struct {
	SnapshotDate string    `gorm:"column:snapshot_date;primaryKey"`
	AdsetID      string    `gorm:"column:adset_id;primaryKey"`
	AdsetName    string    `gorm:"column:adset_name;not null"`
	CampaignID   string    `gorm:"column:campaign_id;not null"`
	AccountID    string    `gorm:"column:account_id;not null;index"`
	AccountName  string    `gorm:"column:account_name;not null"`
	Metrics      `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// SummaryCampaign archives one campaign's metrics for one day.
type SummaryCampaign struct {
	SnapshotDate string    `gorm:"column:snapshot_date;primaryKey"`
	CampaignID   string    `gorm:"column:campaign_id;primaryKey"`
	CampaignName string    `gorm:"column:campaign_name;not null"`
	AccountID    string    `gorm:"column:account_id;not null;index"`
	AccountName  string    `gorm:"column:account_name;not null"`
	Metrics      `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// SummaryAccount archives one ad account's metrics for one day.
type SummaryAccount struct {
	SnapshotDate string    `gorm:"column:snapshot_date;primaryKey"`
	AccountID    string    `gorm:"column:account_id;primaryKey"`
	AccountName  string    `gorm:"column:account_name;not null"`
	Metrics      `gorm:"embedded"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Metrics is the shared aggregated + derived metric block embedded in
// every summary row.
type Metrics struct {
	Impressions  int64   `gorm:"column:impressions;not null"`
	UniqueClicks int64   `gorm:"column:unique_clicks;not null"`
	Spend        float64 `gorm:"column:spend;not null"`
	CPM          float64 `gorm:"column:cpm;not null"`
	CTR          float64 `gorm:"column:ctr;not null"`
	CPC          float64 `gorm:"column:cpc;not null"`
	TotalRevenue float64 `gorm:"column:total_revenue;not null"`
	TotalCost    float64 `gorm:"column:total_cost;not null"`
	OrderCount   int64   `gorm:"column:order_count;not null"`
	ROAS         float64 `gorm:"column:roas;not null"`
	CPA          float64 `gorm:"column:cpa;not null"`
	AOV          float64 `gorm:"column:aov;not null"`
	CVR          float64 `gorm:"column:cvr;not null"`
	EPC          float64 `gorm:"column:epc;not null"`
	Profit       float64 `gorm:"column:profit;not null"`
	Margin       float64 `gorm:"column:margin;not null"`
}

// SummaryDashboard archives the storefront-wide order aggregate for one
// day, with the tag and UTM breakdowns kept as JSON.
type SummaryDashboard struct {
	SnapshotDate string           `gorm:"column:snapshot_date;primaryKey"`
	OrderCount   int64            `gorm:"column:order_count;not null"`
	TotalRevenue float64          `gorm:"column:total_revenue;not null"`
	LargestOrder float64          `gorm:"column:largest_order;not null"`
	TagBuckets   DashboardBuckets `gorm:"column:tag_buckets;type:jsonb;serializer:json"`
	UTMBuckets   DashboardBuckets `gorm:"column:utm_buckets;type:jsonb;serializer:json"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// DashboardBucket is one named slice of the day's orders.
type DashboardBucket struct {
	Count        int64   `json:"count"`
	TotalSales   float64 `json:"totalSales"`
	LargestOrder float64 `json:"largestOrder"`
}

type DashboardBuckets map[string]DashboardBucket
