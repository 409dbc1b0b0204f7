package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCost caches the unit cost of a storefront variant, keyed by
// its inventory item. Refreshed by the catalog scanner; joined against
// order line items to compute per-order cost of goods.
type ProductCost struct {
	InventoryItemID      int64           `gorm:"column:inventory_item_id;primaryKey"`
	VariantID            int64           `gorm:"column:variant_id;not null;index"`
	ProductID            int64           `gorm:"column:product_id;not null"`
	Title                string          `gorm:"column:title;not null"`
	SKU                  *string         `gorm:"column:sku"`
	Cost                 decimal.Decimal `gorm:"column:cost;type:numeric;not null"`
	Tracked              bool            `gorm:"column:tracked;not null;default:false"`
	RequiresShipping     bool            `gorm:"column:requires_shipping;not null;default:false"`
	CountryCodeOfOrigin  *string         `gorm:"column:country_code_of_origin"`
	ProvinceCodeOfOrigin *string         `gorm:"column:province_code_of_origin"`
	HarmonizedSystemCode *string         `gorm:"column:harmonized_system_code"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
