package ingest

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roasbooster/analytics-backend/internal/shopify"
	"github.com/roasbooster/analytics-backend/pkg/db/models"
)

// CostLookup maps a variant id to its unit cost.
type CostLookup map[int64]decimal.Decimal

// NormalizeOrder converts a raw storefront order into its persisted
// shape. It is pure given the cost lookup: UTM parameters come from
// the first matching note attribute (absent stays nil), and total cost
// sums unit cost times quantity across line items with any missing
// cost treated as zero. Malformed money strings also degrade to zero.
func NormalizeOrder(raw shopify.Order, costs CostLookup) models.ShopifyOrder {
	order := models.ShopifyOrder{
		OrderID:           raw.ID,
		OrderNumber:       raw.OrderNumber,
		CreatedAt:         raw.CreatedAt,
		TotalPrice:        parseMoney(raw.TotalPrice),
		CurrentTotalPrice: parseMoney(raw.CurrentTotalPrice),
		TotalTax:          parseMoney(raw.TotalTax),
		CurrentTotalTax:   parseMoney(raw.CurrentTotalTax),
		Currency:          raw.Currency,
		Status:            raw.FinancialStatus,
		Tags:              raw.Tags,
		Note:              raw.Note,
		UTMCampaign:       noteAttribute(raw.NoteAttributes, "utm_campaign"),
		UTMContent:        noteAttribute(raw.NoteAttributes, "utm_content"),
		UTMTerm:           noteAttribute(raw.NoteAttributes, "utm_term"),
		UTMSource:         noteAttribute(raw.NoteAttributes, "utm_source"),
		NoteAttributes:    normalizeNoteAttributes(raw.NoteAttributes),
		Refunds:           normalizeRefunds(raw.Refunds),
		LineItems:         NormalizeLineItems(raw.LineItems),
	}
	order.TotalCost = TotalCost(order.LineItems, costs)
	return order
}

// NormalizeLineItems trims raw line items to the persisted subset.
func NormalizeLineItems(items []shopify.LineItem) models.OrderItems {
	if len(items) == 0 {
		return nil
	}
	out := make(models.OrderItems, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			VariantID: item.VariantID,
			ProductID: item.ProductID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			Price:     parseMoney(item.Price),
		})
	}
	return out
}

// TotalCost sums cost x quantity across items. Items without a variant
// or without a known cost contribute zero.
func TotalCost(items models.OrderItems, costs CostLookup) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.VariantID == nil || item.Quantity <= 0 {
			continue
		}
		cost, ok := costs[*item.VariantID]
		if !ok {
			continue
		}
		total = total.Add(cost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func noteAttribute(attrs []shopify.NoteAttribute, name string) *string {
	for _, attr := range attrs {
		if strings.EqualFold(attr.Name, name) && attr.Value != "" {
			value := attr.Value
			return &value
		}
	}
	return nil
}

func normalizeNoteAttributes(attrs []shopify.NoteAttribute) models.NoteAttributes {
	if len(attrs) == 0 {
		return nil
	}
	out := make(models.NoteAttributes, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, models.NoteAttribute{Name: attr.Name, Value: attr.Value})
	}
	return out
}

func normalizeRefunds(refunds []shopify.Refund) models.OrderRefunds {
	if len(refunds) == 0 {
		return nil
	}
	out := make(models.OrderRefunds, 0, len(refunds))
	for _, refund := range refunds {
		var txns []models.RefundTransaction
		for _, txn := range refund.Transactions {
			txns = append(txns, models.RefundTransaction{Amount: parseMoney(txn.Amount)})
		}
		out = append(out, models.OrderRefund{Transactions: txns})
	}
	return out
}

func parseMoney(s string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return value
}
