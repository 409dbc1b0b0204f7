package shopify

import "time"

// Order is the raw storefront order payload, trimmed to the fields the
// pipeline consumes.
type Order struct {
	ID                int64           `json:"id"`
	OrderNumber       int64           `json:"order_number"`
	CreatedAt         time.Time       `json:"created_at"`
	TotalPrice        string          `json:"total_price"`
	CurrentTotalPrice string          `json:"current_total_price"`
	TotalTax          string          `json:"total_tax"`
	CurrentTotalTax   string          `json:"current_total_tax"`
	Currency          string          `json:"currency"`
	FinancialStatus   string          `json:"financial_status"`
	Tags              string          `json:"tags"`
	Note              *string         `json:"note"`
	NoteAttributes    []NoteAttribute `json:"note_attributes"`
	Refunds           []Refund        `json:"refunds"`
	LineItems         []LineItem      `json:"line_items"`
}

// NoteAttribute is one key/value pair attached at checkout.
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LineItem is one purchased variant within an order.
type LineItem struct {
	VariantID *int64 `json:"variant_id"`
	ProductID *int64 `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// Refund groups the refunded transactions of an order.
type Refund struct {
	Transactions []RefundTransaction `json:"transactions"`
}

// RefundTransaction is one refunded amount.
type RefundTransaction struct {
	Amount string `json:"amount"`
}

// Variant is the storefront variant payload used to resolve a line
// item to its inventory item.
type Variant struct {
	ID              int64  `json:"id"`
	ProductID       int64  `json:"product_id"`
	InventoryItemID int64  `json:"inventory_item_id"`
	Title           string `json:"title"`
	SKU             string `json:"sku"`
	Price           string `json:"price"`
}

// InventoryItem carries the per-unit cost metadata for a variant.
type InventoryItem struct {
	ID                   int64   `json:"id"`
	SKU                  string  `json:"sku"`
	Cost                 *string `json:"cost"`
	Tracked              bool    `json:"tracked"`
	RequiresShipping     bool    `json:"requires_shipping"`
	CountryCodeOfOrigin  *string `json:"country_code_of_origin"`
	ProvinceCodeOfOrigin *string `json:"province_code_of_origin"`
	HarmonizedSystemCode *string `json:"harmonized_system_code"`
}

type ordersEnvelope struct {
	Orders []Order `json:"orders"`
}

type orderEnvelope struct {
	Order Order `json:"order"`
}

type variantEnvelope struct {
	Variant Variant `json:"variant"`
}

type inventoryItemEnvelope struct {
	InventoryItem InventoryItem `json:"inventory_item"`
}
