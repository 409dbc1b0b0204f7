package ingest

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/roasbooster/analytics-backend/pkg/db/models"
)

// Cursors tracks how far each named scan has progressed.
type Cursors interface {
	Get(ctx context.Context, name string) (int64, error)
	Advance(ctx context.Context, name string, value int64) error
}

// OrderStore persists imported orders.
type OrderStore interface {
	// InsertOrders writes rows in ascending order id, skipping ids that
	// already exist. It stops at the first row that fails to persist and
	// returns the highest order id that made it in, so the caller never
	// advances a cursor past a failed row.
	InsertOrders(ctx context.Context, rows []models.ShopifyOrder) (lastID int64, inserted int, err error)

	// OrdersMissingLineItems lists imported rows whose line items were
	// never captured.
	OrdersMissingLineItems(ctx context.Context, limit int) ([]models.ShopifyOrder, error)

	// SetOrderLineItems backfills the line items and recomputed cost of
	// one order.
	SetOrderLineItems(ctx context.Context, orderID int64, items models.OrderItems, totalCost decimal.Decimal) error
}

// CostStore resolves variant costs from the catalog.
type CostStore interface {
	CostsByVariantIDs(ctx context.Context, variantIDs []int64) (CostLookup, error)
}

// InsightStore persists insight rows, one table per hierarchy level.
// Rows are independent: a failed row does not block its siblings.
type InsightStore interface {
	UpsertAdInsights(ctx context.Context, rows []models.AdInsight) error
	UpsertAdsetInsights(ctx context.Context, rows []models.AdsetInsight) error
	UpsertCampaignInsights(ctx context.Context, rows []models.CampaignInsight) error
	UpsertAccountInsights(ctx context.Context, rows []models.AccountInsight) error
}
