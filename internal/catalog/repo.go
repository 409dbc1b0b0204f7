package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roasbooster/analytics-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds the catalog persistence layer bound to the
// provided DB. VariantRefsAfter relies on Postgres jsonb expansion.
func NewRepository(db *gorm.DB) Store {
	return &repository{db: db}
}

// The limit bounds whole orders, not expanded line items: a batch
// always carries every ref of each included order, so advancing the
// cursor to the batch's max order id never strands an order's tail.
func (r *repository) VariantRefsAfter(ctx context.Context, afterOrderID int64, limit int) ([]VariantRef, error) {
	var refs []VariantRef
	err := r.db.WithContext(ctx).Raw(`
SELECT o.order_id,
       COALESCE((item->>'variant_id')::bigint, 0) AS variant_id,
       COALESCE((item->>'product_id')::bigint, 0) AS product_id,
       COALESCE(item->>'title', '') AS title
FROM (
    SELECT order_id, line_items
    FROM shopify_orders
    WHERE order_id > ?
      AND line_items IS NOT NULL
      AND jsonb_typeof(line_items) = 'array'
    ORDER BY order_id ASC
    LIMIT ?
) o,
     jsonb_array_elements(o.line_items) AS item
ORDER BY o.order_id ASC`, afterOrderID, limit).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *repository) KnownVariantIDs(ctx context.Context, variantIDs []int64) (map[int64]bool, error) {
	known := make(map[int64]bool, len(variantIDs))
	if len(variantIDs) == 0 {
		return known, nil
	}
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductCost{}).
		Where("variant_id IN ?", variantIDs).
		Pluck("variant_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		known[id] = true
	}
	return known, nil
}

func (r *repository) UpsertCost(ctx context.Context, row models.ProductCost) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "inventory_item_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}
