package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShopifyOrder is one imported storefront order. Rows are append-only:
// the importer inserts with ON CONFLICT DO NOTHING keyed on OrderID,
// except for the line-item backfill which fills LineItems/TotalCost on
// rows imported before those columns were captured.
type ShopifyOrder struct {
	OrderID           int64           `gorm:"column:order_id;primaryKey"`
	OrderNumber       int64           `gorm:"column:order_number;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;not null;index"`
	TotalPrice        decimal.Decimal `gorm:"column:total_price;type:numeric;not null"`
	CurrentTotalPrice decimal.Decimal `gorm:"column:current_total_price;type:numeric;not null"`
	TotalTax          decimal.Decimal `gorm:"column:total_tax;type:numeric;not null"`
	CurrentTotalTax   decimal.Decimal `gorm:"column:current_total_tax;type:numeric;not null"`
	Currency          string          `gorm:"column:currency;not null;default:'USD'"`
	Status            string          `gorm:"column:status;not null;default:''"`
	Tags              string          `gorm:"column:tags;not null;default:''"`
	Note              *string         `gorm:"column:note"`
	UTMCampaign       *string         `gorm:"column:utm_campaign;index"`
	UTMContent        *string         `gorm:"column:utm_content;index"`
	UTMTerm           *string         `gorm:"column:utm_term;index"`
	UTMSource         *string         `gorm:"column:utm_source"`
	NoteAttributes    NoteAttributes  `gorm:"column:note_attributes;type:jsonb;serializer:json"`
	Refunds           OrderRefunds    `gorm:"column:refunds;type:jsonb;serializer:json"`
	LineItems         OrderItems      `gorm:"column:line_items;type:jsonb;serializer:json"`
	TotalCost         decimal.Decimal `gorm:"column:total_cost;type:numeric;not null"`
	ImportedAt        time.Time       `gorm:"column:imported_at;autoCreateTime"`
}

// NoteAttribute is one key/value pair attached to an order at checkout.
// UTM parameters arrive this way.
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type NoteAttributes []NoteAttribute

// OrderItem is the subset of a storefront line item the pipeline keeps
// for cost attribution.
type OrderItem struct {
	VariantID *int64          `json:"variant_id"`
	ProductID *int64          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderItems []OrderItem

// RefundTransaction is a single refunded amount within a refund.
type RefundTransaction struct {
	Amount decimal.Decimal `json:"amount"`
}

// OrderRefund groups the transactions of one storefront refund.
type OrderRefund struct {
	Transactions []RefundTransaction `json:"transactions"`
}

type OrderRefunds []OrderRefund

// RefundedTotal sums every transaction across all refunds.
func (r OrderRefunds) RefundedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, refund := range r {
		for _, txn := range refund.Transactions {
			total = total.Add(txn.Amount)
		}
	}
	return total
}
