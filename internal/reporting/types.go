package reporting

// Metrics is the full derived metric set for one entity over a window.
type Metrics struct {
	Impressions  int64   `json:"impressions"`
	UniqueClicks int64   `json:"uniqueClicks"`
	Spend        float64 `json:"spend"`
	CPM          float64 `json:"cpm"`
	CTR          float64 `json:"ctr"`
	CPC          float64 `json:"cpc"`
	TotalRevenue float64 `json:"totalRevenue"`
	TotalCost    float64 `json:"totalCost"`
	OrderCount   int64   `json:"orderCount"`
	ROAS         float64 `json:"roas"`
	CPA          float64 `json:"cpa"`
	AOV          float64 `json:"aov"`
	CVR          float64 `json:"cvr"`
	EPC          float64 `json:"epc"`
	Profit       float64 `json:"profit"`
	Margin       float64 `json:"margin"`
}

// EntityMetrics ties a metric set to one ad entity. The ancestry
// fields are filled as far as the entity's level carries them.
type EntityMetrics struct {
	EntityID    string `json:"entityId"`
	Name        string `json:"name"`
	AdsetID     string `json:"adsetId,omitempty"`
	CampaignID  string `json:"campaignId,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
	AccountName string `json:"accountName,omitempty"`
	Metrics
}

// WindowReport is the attribution-joined metric report for a date
// window, one slice per hierarchy level.
type WindowReport struct {
	Start       string          `json:"start"`
	End         string          `json:"end"`
	Ads         []EntityMetrics `json:"ads"`
	Adsets      []EntityMetrics `json:"adsets"`
	Campaigns   []EntityMetrics `json:"campaigns"`
	Accounts    []EntityMetrics `json:"accounts"`
	TotalProfit float64         `json:"totalProfit"`
}

// Bucket is one named slice of a window's orders.
type Bucket struct {
	Count        int64   `json:"count"`
	TotalSales   float64 `json:"totalSales"`
	LargestOrder float64 `json:"largestOrder"`
}

// DashboardReport is the storefront-wide order aggregate for a window.
type DashboardReport struct {
	Start        string            `json:"start"`
	End          string            `json:"end"`
	OrderCount   int64             `json:"orderCount"`
	TotalRevenue float64           `json:"totalRevenue"`
	LargestOrder float64           `json:"largestOrder"`
	TagBuckets   map[string]Bucket `json:"tagBuckets"`
	UTMBuckets   map[string]Bucket `json:"utmBuckets"`
}

// InsightAgg is one entity's raw numbers summed over a window:
// volume columns are summed, rate columns are averaged.
type InsightAgg struct {
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
}

// OrderAgg is the attributed order volume for one UTM key.
type OrderAgg struct {
	Key     string  `gorm:"column:key"`
	Revenue float64 `gorm:"column:revenue"`
	Cost    float64 `gorm:"column:cost"`
	Orders  int64   `gorm:"column:orders"`
}
