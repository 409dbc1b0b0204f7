package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roasbooster/analytics-backend/pkg/errors"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
		token:      "test-token",
		pageSize:   250,
	}
}

func TestListOrdersFollowsLinkHeader(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())
		require.Equal(t, "test-token", r.Header.Get("X-Shopify-Access-Token"))

		switch r.URL.Query().Get("page_info") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/orders.json?page_info=second>; rel="next"`, r.Host))
			fmt.Fprint(w, `{"orders":[{"id":1,"order_number":1001},{"id":2,"order_number":1002}]}`)
		case "second":
			// no Link header: listing exhausted
			fmt.Fprint(w, `{"orders":[{"id":3,"order_number":1003}]}`)
		default:
			t.Fatalf("unexpected page_info %q", r.URL.Query().Get("page_info"))
		}
	}))
	defer server.Close()

	client := newTestClient(server)
	orders, err := client.ListOrders(context.Background(), ListOrdersParams{SinceID: 0})
	require.NoError(t, err)

	require.Len(t, orders, 3)
	assert.Equal(t, int64(1), orders[0].ID)
	assert.Equal(t, int64(3), orders[2].ID)
	require.Len(t, requests, 2)
}

func TestListOrdersSendsSinceIDAndFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("since_id"))
		assert.Equal(t, "id,created_at,total_price", r.URL.Query().Get("fields"))
		assert.Equal(t, "any", r.URL.Query().Get("status"))
		assert.Equal(t, "250", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"orders":[]}`)
	}))
	defer server.Close()

	client := newTestClient(server)
	orders, err := client.ListOrders(context.Background(), ListOrdersParams{
		SinceID: 42,
		Fields:  []string{"id", "created_at", "total_price"},
	})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListOrdersPropagatesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"boom"}`, http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.ListOrders(context.Background(), ListOrdersParams{})
	require.Error(t, err)
	require.NotNil(t, errors.As(err))
	assert.Equal(t, errors.CodeDependency, errors.As(err).Code())
}

func TestListOrdersRateLimitCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.ListOrders(context.Background(), ListOrdersParams{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeRateLimit, errors.As(err).Code())
}

func TestGetVariantAndInventoryItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/variants/77.json":
			fmt.Fprint(w, `{"variant":{"id":77,"product_id":9,"inventory_item_id":555,"title":"Blue / L","sku":"BL-L"}}`)
		case "/inventory_items/555.json":
			fmt.Fprint(w, `{"inventory_item":{"id":555,"sku":"BL-L","cost":"13.00","tracked":true,"requires_shipping":true}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(server)

	variant, err := client.GetVariant(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, int64(555), variant.InventoryItemID)

	item, err := client.GetInventoryItem(context.Background(), 555)
	require.NoError(t, err)
	require.NotNil(t, item.Cost)
	assert.Equal(t, "13.00", *item.Cost)
	assert.True(t, item.Tracked)
}

func TestGetOrderDecodesLineItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/900.json", r.URL.Path)
		fmt.Fprint(w, `{"order":{"id":900,"order_number":1900,"created_at":"2024-01-02T10:00:00Z",`+
			`"line_items":[{"variant_id":77,"product_id":9,"title":"Blue / L","quantity":2,"price":"30.00"}]}}`)
	}))
	defer server.Close()

	client := newTestClient(server)
	order, err := client.GetOrder(context.Background(), 900)
	require.NoError(t, err)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, 2, order.LineItems[0].Quantity)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), order.CreatedAt)
}

func TestNextPageURL(t *testing.T) {
	header := `<https://shop.myshopify.com/admin/api/2023-10/orders.json?page_info=abc>; rel="previous", ` +
		`<https://shop.myshopify.com/admin/api/2023-10/orders.json?page_info=def>; rel="next"`
	assert.Equal(t, "https://shop.myshopify.com/admin/api/2023-10/orders.json?page_info=def", nextPageURL(header))
	assert.Equal(t, "", nextPageURL(`<https://x>; rel="previous"`))
	assert.Equal(t, "", nextPageURL(""))
}
