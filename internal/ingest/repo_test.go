package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/roasbooster/analytics-backend/pkg/db/models"
)

func setupIngestTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddls := []string{`
CREATE TABLE IF NOT EXISTS shopify_orders (
  order_id INTEGER PRIMARY KEY,
  order_number INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  total_price NUMERIC NOT NULL DEFAULT 0,
  current_total_price NUMERIC NOT NULL DEFAULT 0,
  total_tax NUMERIC NOT NULL DEFAULT 0,
  current_total_tax NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'USD',
  status TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '',
  note TEXT,
  utm_campaign TEXT,
  utm_content TEXT,
  utm_term TEXT,
  utm_source TEXT,
  note_attributes TEXT,
  refunds TEXT,
  line_items TEXT,
  total_cost NUMERIC NOT NULL DEFAULT 0,
  imported_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS product_costs (
  inventory_item_id INTEGER PRIMARY KEY,
  variant_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL DEFAULT 0,
  title TEXT NOT NULL DEFAULT '',
  sku TEXT,
  cost NUMERIC NOT NULL DEFAULT 0,
  tracked INTEGER NOT NULL DEFAULT 0,
  requires_shipping INTEGER NOT NULL DEFAULT 0,
  country_code_of_origin TEXT,
  province_code_of_origin TEXT,
  harmonized_system_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS ad_insights (
  ad_id TEXT NOT NULL,
  date_start TEXT NOT NULL,
  ad_name TEXT NOT NULL DEFAULT '',
  adset_id TEXT NOT NULL DEFAULT '',
  adset_name TEXT NOT NULL DEFAULT '',
  campaign_id TEXT NOT NULL DEFAULT '',
  campaign_name TEXT NOT NULL DEFAULT '',
  account_id TEXT NOT NULL DEFAULT '',
  account_name TEXT NOT NULL DEFAULT '',
  impressions INTEGER NOT NULL DEFAULT 0,
  reach INTEGER NOT NULL DEFAULT 0,
  clicks INTEGER NOT NULL DEFAULT 0,
  unique_clicks INTEGER NOT NULL DEFAULT 0,
  spend REAL NOT NULL DEFAULT 0,
  cpc REAL NOT NULL DEFAULT 0,
  cpm REAL NOT NULL DEFAULT 0,
  ctr REAL NOT NULL DEFAULT 0,
  data_set TEXT NOT NULL DEFAULT '',
  recorded_at DATETIME,
  PRIMARY KEY (ad_id, date_start)
);`, `
CREATE TABLE IF NOT EXISTS account_insights (
  account_id TEXT NOT NULL,
  date_start TEXT NOT NULL,
  account_name TEXT NOT NULL DEFAULT '',
  impressions INTEGER NOT NULL DEFAULT 0,
  reach INTEGER NOT NULL DEFAULT 0,
  clicks INTEGER NOT NULL DEFAULT 0,
  unique_clicks INTEGER NOT NULL DEFAULT 0,
  spend REAL NOT NULL DEFAULT 0,
  cpc REAL NOT NULL DEFAULT 0,
  cpm REAL NOT NULL DEFAULT 0,
  ctr REAL NOT NULL DEFAULT 0,
  data_set TEXT NOT NULL DEFAULT '',
  recorded_at DATETIME,
  PRIMARY KEY (account_id, date_start)
);`}

	for _, ddl := range ddls {
		require.NoError(t, conn.Exec(ddl).Error)
	}
	for _, table := range []string{"shopify_orders", "product_costs", "ad_insights", "account_insights"} {
		require.NoError(t, conn.Exec("DELETE FROM "+table).Error)
	}
	return conn
}

func testOrder(id int64) models.ShopifyOrder {
	return models.ShopifyOrder{
		OrderID:     id,
		OrderNumber: 1000 + id,
		CreatedAt:   time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
		TotalPrice:  decimal.RequireFromString("30.00"),
		TotalCost:   decimal.RequireFromString("10.00"),
	}
}

func TestInsertOrdersIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupIngestTestDB(t))

	rows := []models.ShopifyOrder{testOrder(1), testOrder(2)}

	lastID, inserted, err := repo.InsertOrders(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), lastID)
	assert.Equal(t, 2, inserted)

	// re-running the same batch inserts nothing and fails nothing
	lastID, inserted, err = repo.InsertOrders(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), lastID)
	assert.Zero(t, inserted)

	var count int64
	require.NoError(t, repo.db.Model(&models.ShopifyOrder{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestInsertOrdersWritesAscending(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupIngestTestDB(t))

	// shuffled input still lands and reports the max id
	lastID, inserted, err := repo.InsertOrders(ctx, []models.ShopifyOrder{testOrder(9), testOrder(3), testOrder(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(9), lastID)
	assert.Equal(t, 3, inserted)
}

func TestOrdersMissingLineItemsAndBackfill(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupIngestTestDB(t))

	withItems := testOrder(1)
	withItems.LineItems = models.OrderItems{{Title: "Blue / L", Quantity: 1, Price: decimal.RequireFromString("30.00")}}
	without := testOrder(2)

	_, _, err := repo.InsertOrders(ctx, []models.ShopifyOrder{withItems, without})
	require.NoError(t, err)

	missing, err := repo.OrdersMissingLineItems(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, int64(2), missing[0].OrderID)

	items := models.OrderItems{{VariantID: int64Ptr(77), Title: "Red / S", Quantity: 2, Price: decimal.RequireFromString("15.00")}}
	require.NoError(t, repo.SetOrderLineItems(ctx, 2, items, decimal.RequireFromString("26.00")))

	missing, err = repo.OrdersMissingLineItems(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, missing)

	var updated models.ShopifyOrder
	require.NoError(t, repo.db.First(&updated, "order_id = ?", 2).Error)
	require.Len(t, updated.LineItems, 1)
	assert.True(t, updated.TotalCost.Equal(decimal.RequireFromString("26.00")))
}

func TestCostsByVariantIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupIngestTestDB(t))

	require.NoError(t, repo.db.Create(&models.ProductCost{
		InventoryItemID: 555,
		VariantID:       77,
		ProductID:       9,
		Title:           "Blue / L",
		Cost:            decimal.RequireFromString("13.00"),
	}).Error)

	lookup, err := repo.CostsByVariantIDs(ctx, []int64{77, 999})
	require.NoError(t, err)
	require.Len(t, lookup, 1)
	assert.True(t, lookup[77].Equal(decimal.RequireFromString("13.00")))

	empty, err := repo.CostsByVariantIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpsertAdInsightsOverwritesSameDay(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupIngestTestDB(t))

	first := models.AdInsight{
		AdID: "a1", DateStart: "2024-01-03", AdName: "Ad One",
		AccountID: "act_1", Impressions: 100, Spend: 5,
	}
	require.NoError(t, repo.UpsertAdInsights(ctx, []models.AdInsight{first}))

	// same entity/day with fresher numbers replaces the row
	second := first
	second.Impressions = 180
	second.Spend = 9.5
	require.NoError(t, repo.UpsertAdInsights(ctx, []models.AdInsight{second}))

	var rows []models.AdInsight
	require.NoError(t, repo.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(180), rows[0].Impressions)
	assert.Equal(t, 9.5, rows[0].Spend)

	// a different day is its own row
	third := first
	third.DateStart = "2024-01-04"
	require.NoError(t, repo.UpsertAdInsights(ctx, []models.AdInsight{third}))
	require.NoError(t, repo.db.Find(&rows).Error)
	assert.Len(t, rows, 2)
}

func TestUpsertAccountInsights(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupIngestTestDB(t))

	row := models.AccountInsight{AccountID: "act_1", DateStart: "2024-01-03", AccountName: "Brand One", Spend: 42}
	require.NoError(t, repo.UpsertAccountInsights(ctx, []models.AccountInsight{row}))

	row.Spend = 50
	require.NoError(t, repo.UpsertAccountInsights(ctx, []models.AccountInsight{row}))

	var rows []models.AccountInsight
	require.NoError(t, repo.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 50.0, rows[0].Spend)
}
