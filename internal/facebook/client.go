package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roasbooster/analytics-backend/pkg/config"
	"github.com/roasbooster/analytics-backend/pkg/errors"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

const (
	backoffInitial = 2 * time.Second
	backoffCap     = 32 * time.Second
)

// dataSets tags each row with the hierarchy tier it was pulled at.
var dataSets = map[Level]string{
	LevelAccount:  "ad_account",
	LevelCampaign: "campaign",
	LevelAdset:    "adset",
	LevelAd:       "ads",
}

var insightFields = map[Level]string{
	LevelAccount:  "impressions,reach,clicks,unique_clicks,spend,cpc,cpm,ctr,date_start,date_stop",
	LevelCampaign: "campaign_id,campaign_name,impressions,reach,clicks,unique_clicks,spend,cpc,cpm,ctr,date_start,date_stop",
	LevelAdset:    "adset_id,adset_name,campaign_id,campaign_name,impressions,reach,clicks,unique_clicks,spend,cpc,cpm,ctr,date_start,date_stop",
	LevelAd:       "ad_id,ad_name,adset_id,adset_name,campaign_id,campaign_name,impressions,reach,clicks,unique_clicks,spend,cpc,cpm,ctr,date_start,date_stop",
}

// API is the insights surface the ingestion job depends on.
type API interface {
	Insights(ctx context.Context, account config.AdAccount, level Level, params InsightParams) ([]Row, error)
}

// Client talks to the Graph API insights edge for the configured
// token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pageSize   int
	logg       *logger.Logger

	// sleep is swapped in tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// New builds a Client from config.
func New(cfg config.FacebookConfig, logg *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    "https://graph.facebook.com/" + cfg.APIVersion,
		token:      cfg.AccessToken,
		pageSize:   cfg.PageSize,
		logg:       logg,
		sleep:      time.Sleep,
	}
}

// InsightParams narrows an insights query to a date window, with an
// optional campaign filter for adset-level pulls.
type InsightParams struct {
	Since       string
	Until       string
	CampaignIDs []string
}

// Insights pulls every row for one account at one level, following
// paging.next until exhausted. A 429 is retried in place with
// exponential backoff (2s doubling, capped at 32s). Any other failure
// ends the walk early and returns the rows already collected alongside
// the error, so the caller can keep partial data.
func (c *Client) Insights(ctx context.Context, account config.AdAccount, level Level, params InsightParams) ([]Row, error) {
	query := url.Values{}
	query.Set("access_token", c.token)
	query.Set("level", string(level))
	query.Set("fields", insightFields[level])
	query.Set("limit", strconv.Itoa(c.pageSize))
	if params.Since != "" && params.Until != "" {
		query.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`, params.Since, params.Until))
	}
	if len(params.CampaignIDs) > 0 {
		ids, err := json.Marshal(params.CampaignIDs)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "encoding campaign filter")
		}
		query.Set("filtering", fmt.Sprintf(`[{"field":"campaign.id","operator":"IN","value":%s}]`, ids))
	}

	next := fmt.Sprintf("%s/%s/insights?%s", c.baseURL, account.ID, query.Encode())

	var rows []Row
	for next != "" {
		body, err := c.getWithBackoff(ctx, next)
		if err != nil {
			return rows, err
		}

		var parsed page
		if err := json.Unmarshal(body, &parsed); err != nil {
			return rows, errors.Wrap(errors.CodeDependency, err, "decoding insights page")
		}
		for _, rec := range parsed.Data {
			rows = append(rows, rec.toRow(account, level))
		}
		next = parsed.Paging.Next
	}
	return rows, nil
}

// getWithBackoff fetches one page, retrying the same URL indefinitely
// on 429 until the context is canceled.
func (c *Client) getWithBackoff(ctx context.Context, rawURL string) ([]byte, error) {
	delay := backoffInitial
	for {
		body, status, err := c.get(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if status == http.StatusTooManyRequests {
			if c.logg != nil {
				c.logg.Warn(ctx, fmt.Sprintf("insights rate limited, retrying in %s", delay))
			}
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(errors.CodeRateLimit, ctx.Err(), "rate limit backoff canceled")
			default:
			}
			c.sleep(delay)
			if delay < backoffCap {
				delay *= 2
				if delay > backoffCap {
					delay = backoffCap
				}
			}
			continue
		}
		if status < 200 || status >= 300 {
			return nil, errors.New(errors.CodeDependency,
				fmt.Sprintf("graph api responded %d: %s", status, truncate(string(body), 512)))
		}
		return body, nil
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, errors.Wrap(errors.CodeInternal, err, "building graph request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(errors.CodeDependency, err, "calling graph api")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(errors.CodeDependency, err, "reading graph response")
	}
	return body, resp.StatusCode, nil
}

func (r record) toRow(account config.AdAccount, level Level) Row {
	return Row{
		DateStart:    r.DateStart,
		DateStop:     r.DateStop,
		AdID:         r.AdID,
		AdName:       r.AdName,
		AdsetID:      r.AdsetID,
		AdsetName:    r.AdsetName,
		CampaignID:   r.CampaignID,
		CampaignName: r.CampaignName,
		AccountID:    account.ID,
		AccountName:  account.Name,
		DataSet:      dataSets[level],
		Impressions:  parseInt(r.Impressions),
		Reach:        parseInt(r.Reach),
		Clicks:       parseInt(r.Clicks),
		UniqueClicks: parseInt(r.UniqueClicks),
		Spend:        parseFloat(r.Spend),
		CPC:          parseFloat(r.CPC),
		CPM:          parseFloat(r.CPM),
		CTR:          parseFloat(r.CTR),
	}
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
