package shopify

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

const tokenHeader = "X-Shopify-Access-Token"

// API is the storefront surface the ingestion jobs depend on.
type API interface {
	ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	GetVariant(ctx context.Context, id int64) (*Variant, error)
	GetInventoryItem(ctx context.Context, id int64) (*InventoryItem, error)
}

// Client talks to the Shopify Admin REST API for a single shop.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pageSize   int
	logg       *logger.Logger
}

// New builds a Client for the configured shop.
func New(cfg config.ShopifyConfig, logg *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    fmt.Sprintf("https://%s/admin/api/%s", cfg.ShopDomain, cfg.APIVersion),
		token:      cfg.AccessToken,
		pageSize:   cfg.PageSize,
		logg:       logg,
	}
}

// ListOrdersParams narrows an order listing.
type ListOrdersParams struct {
	SinceID      int64
	CreatedAtMin time.Time
	Fields       []string
}

// ListOrders fetches every order matching params, following the Link
// rel="next" header until the listing is exhausted. Transport and API
// errors propagate to the caller with the pages so far discarded.
func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) ([]Order, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("limit", strconv.Itoa(c.pageSize))
	if params.SinceID > 0 {
		query.Set("since_id", strconv.FormatInt(params.SinceID, 10))
	}
	if !params.CreatedAtMin.IsZero() {
		query.Set("created_at_min", params.CreatedAtMin.Format(time.RFC3339))
	}
	if len(params.Fields) > 0 {
		query.Set("fields", strings.Join(params.Fields, ","))
	}

	next := c.baseURL + "/orders.json?" + query.Encode()

	var all []Order
	for next != "" {
		var page ordersEnvelope
		linkHeader, err := c.getJSON(ctx, next, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Orders...)
		next = nextPageURL(linkHeader)
	}
	return all, nil
}

// GetOrder fetches a single order with its line items.
func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var envelope orderEnvelope
	u := fmt.Sprintf("%s/orders/%d.json", c.baseURL, id)
	if _, err := c.getJSON(ctx, u, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Order, nil
}

// GetVariant fetches a variant, primarily for its inventory item id.
func (c *Client) GetVariant(ctx context.Context, id int64) (*Variant, error) {
	var envelope variantEnvelope
	u := fmt.Sprintf("%s/variants/%d.json", c.baseURL, id)
	if _, err := c.getJSON(ctx, u, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Variant, nil
}

// GetInventoryItem fetches the cost metadata for an inventory item.
func (c *Client) GetInventoryItem(ctx context.Context, id int64) (*InventoryItem, error) {
	var envelope inventoryItemEnvelope
	u := fmt.Sprintf("%s/inventory_items/%d.json", c.baseURL, id)
	if _, err := c.getJSON(ctx, u, &envelope); err != nil {
		return nil, err
	}
	return &envelope.InventoryItem, nil
}

// getJSON performs an authenticated GET, decodes the body into out and
// returns the response Link header for pagination.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "building shopify request")
	}
	req.Header.Set(tokenHeader, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "calling shopify")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errors.New(errors.CodeRateLimit, "shopify rate limit")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", errors.New(errors.CodeDependency,
			fmt.Sprintf("shopify responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "decoding shopify response")
	}
	return resp.Header.Get("Link"), nil
}

// nextPageURL extracts the rel="next" target from a Link header, or
// empty when the listing is exhausted.
func nextPageURL(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, part := range strings.Split(linkHeader, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if !strings.Contains(section[1], `rel="next"`) {
			continue
		}
		target := strings.TrimSpace(section[0])
		target = strings.TrimPrefix(target, "<")
		target = strings.TrimSuffix(target, ">")
		return target
	}
	return ""
}
