package models

import "time"

// The four insight tables hold one row per entity per reporting day.
// DateStart is the upstream date string (YYYY-MM-DD); re-ingesting the
// same day overwrites the row via ON CONFLICT DO UPDATE.

// AdInsight is a per-ad daily performance row with its full ancestry
// denormalized for display.
type AdInsight struct {
	AdID         string    `gorm:"column:ad_id;primaryKey"`
	DateStart    string    `gorm:"column:date_start;primaryKey"`
	AdName       string    `gorm:"column:ad_name;not null"`
	AdsetID      string    `gorm:"column:adset_id;not null;index"`
	AdsetName    string    `gorm:"column:adset_name;not null"`
	CampaignID   string    `gorm:"column:campaign_id;not null;index"`
	CampaignName string    `gorm:"column:campaign_name;not null"`
	AccountID    string    `gorm:"column:account_id;not null;index"`
	AccountName  string    `gorm:"column:account_name;not null"`
	Impressions  int64     `gorm:"column:impressions;not null"`
	Reach        int64     `gorm:"column:reach;not null"`
	Clicks       int64     `gorm:"column:clicks;not null"`
	UniqueClicks int64     `gorm:"column:unique_clicks;not null"`
	Spend        float64   `gorm:"column:spend;not null"`
	CPC          float64   `gorm:"column:cpc;not null"`
	CPM          float64   `gorm:"column:cpm;not null"`
	CTR          float64   `gorm:"column:ctr;not null"`
	DataSet      string    `gorm:"column:data_set;not null"`
	RecordedAt   time.Time `gorm:"column:recorded_at;autoUpdateTime"`
}

// AdsetInsight is a per-ad-set daily performance row.
type AdsetInsight struct {
	AdsetID      string    `gorm:"column:adset_id;primaryKey"`
	DateStart    string    `gorm:"column:date_start;primaryKey"`
	AdsetName    string    `gorm:"column:adset_name;not null"`
	CampaignID   string    `gorm:"column:campaign_id;not null;index"`
	CampaignName string    `gorm:"column:campaign_name;not null"`
	AccountID    string    `gorm:"column:account_id;not null;index"`
	AccountName  string    `gorm:"column:account_name;not null"`
	Impressions  int64     `gorm:"column:impressions;not null"`
	Reach        int64     `gorm:"column:reach;not null"`
	Clicks       int64     `gorm:"column:clicks;not null"`
	UniqueClicks int64     `gorm:"column:unique_clicks;not null"`
	Spend        float64   `gorm:"column:spend;not null"`
	CPC          float64   `gorm:"column:cpc;not null"`
	CPM          float64   `gorm:"column:cpm;not null"`
	CTR          float64   `gorm:"column:ctr;not null"`
	DataSet      string    `gorm:"column:data_set;not null"`
	RecordedAt   time.Time `gorm:"column:recorded_at;autoUpdateTime"`
}

// CampaignInsight is a per-campaign daily performance row.
type CampaignInsight struct {
	CampaignID   string    `gorm:"column:campaign_id;primaryKey"`
	DateStart    string    `gorm:"column:date_start;primaryKey"`
	CampaignName string    `gorm:"column:campaign_name;not null"`
	AccountID    string    `gorm:"column:account_id;not null;index"`
	AccountName  string    `gorm:"column:account_name;not null"`
	Impressions  int64     `gorm:"column:impressions;not null"`
	Reach        int64     `gorm:"column:reach;not null"`
	Clicks       int64     `gorm:"column:clicks;not null"`
	UniqueClicks int64     `gorm:"column:unique_clicks;not null"`
	Spend        float64   `gorm:"column:spend;not null"`
	CPC          float64   `gorm:"column:cpc;not null"`
	CPM          float64   `gorm:"column:cpm;not null"`
	CTR          float64   `gorm:"column:ctr;not null"`
	DataSet      string    `gorm:"column:data_set;not null"`
	RecordedAt   time.Time `gorm:"column:recorded_at;autoUpdateTime"`
}

// AccountInsight is a per-ad-account daily summary row.
type AccountInsight struct {
	AccountID    string    `gorm:"column:account_id;primaryKey"`
	DateStart    string    `gorm:"column:date_start;primaryKey"`
	AccountName  string    `gorm:"column:account_name;not null"`
	Impressions  int64     `gorm:"column:impressions;not null"`
	Reach        int64     `gorm:"column:reach;not null"`
	Clicks       int64     `gorm:"column:clicks;not null"`
	UniqueClicks int64     `gorm:"column:unique_clicks;not null"`
	Spend        float64   `gorm:"column:spend;not null"`
	CPC          float64   `gorm:"column:cpc;not null"`
	CPM          float64   `gorm:"column:cpm;not null"`
	CTR          float64   `gorm:"column:ctr;not null"`
	DataSet      string    `gorm:"column:data_set;not null"`
	RecordedAt   time.Time `gorm:"column:recorded_at;autoUpdateTime"`
}
