package models

import "time"

// Cursor names used by the ingestion jobs.
const (
	CursorShopifyOrders = "shopify_orders"
	CursorCatalogScan   = "catalog_scan"
)

// IngestCursor records the highest external id a named scan has fully
// processed. Values only move forward.
type IngestCursor struct {
	Name      string    `gorm:"column:name;primaryKey"`
	Value     int64     `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
