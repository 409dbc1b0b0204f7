package facebook

// Level selects which tier of the ad hierarchy an insights query
// aggregates over.
type Level string

const (
	LevelAccount  Level = "account"
	LevelCampaign Level = "campaign"
	LevelAdset    Level = "adset"
	LevelAd       Level = "ad"
)

// Row is one normalized insights row. Upstream returns every number as
// a string; malformed or absent values degrade to zero.
type Row struct {
	DateStart    string
	DateStop     string
	AdID         string
	AdName       string
	AdsetID      string
	AdsetName    string
	CampaignID   string
	CampaignName string
	AccountID    string
	AccountName  string
	DataSet      string
	Impressions  int64
	Reach        int64
	Clicks       int64
	UniqueClicks int64
	Spend        float64
	CPC          float64
	CPM          float64
	CTR          float64
}

// record is the wire shape of one insights row.
type record struct {
	DateStart    string `json:"date_start"`
	DateStop     string `json:"date_stop"`
	AdID         string `json:"ad_id"`
	AdName       string `json:"ad_name"`
	AdsetID      string `json:"adset_id"`
	AdsetName    string `json:"adset_name"`
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Impressions  string `json:"impressions"`
	Reach        string `json:"reach"`
	Clicks       string `json:"clicks"`
	UniqueClicks string `json:"unique_clicks"`
	Spend        string `json:"spend"`
	CPC          string `json:"cpc"`
	CPM          string `json:"cpm"`
	CTR          string `json:"ctr"`
}

type page struct {
	Data   []record `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}
