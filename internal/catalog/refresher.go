package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/roasbooster/analytics-backend/internal/ingest"
	"github.com/roasbooster/analytics-backend/internal/shopify"
	"github.com/roasbooster/analytics-backend/pkg/db/models"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

// skipTitle marks line items that never map to a costed variant.
const skipTitle = "Tip"

// VariantRef is one line-item occurrence of a variant inside an
// imported order.
type VariantRef struct {
	OrderID   int64
	VariantID int64
	ProductID int64
	Title     string
}

// Store is the persistence surface of the catalog scanner.
type Store interface {
	// VariantRefsAfter expands order line items past the cursor into
	// variant references, oldest order first. limit counts orders, and
	// every ref of an included order is returned, so a batch never
	// splits one order's line items.
	VariantRefsAfter(ctx context.Context, afterOrderID int64, limit int) ([]VariantRef, error)

	// KnownVariantIDs reports which of the given variants already have a
	// catalog row.
	KnownVariantIDs(ctx context.Context, variantIDs []int64) (map[int64]bool, error)

	// UpsertCost writes or refreshes one catalog row.
	UpsertCost(ctx context.Context, row models.ProductCost) error
}

// Refresher walks imported orders past its own cursor and resolves
// each new variant to its unit cost via the storefront API. Variants
// already cataloged, already handled this run, or that cannot carry a
// cost (tips, items with no variant id) are skipped.
type Refresher struct {
	shop      shopify.API
	store     Store
	cursors   ingest.Cursors
	batchSize int
	logg      *logger.Logger
}

// NewRefresher wires the catalog scanner.
func NewRefresher(shop shopify.API, store Store, cursors ingest.Cursors, batchSize int, logg *logger.Logger) *Refresher {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Refresher{
		shop:      shop,
		store:     store,
		cursors:   cursors,
		batchSize: batchSize,
		logg:      logg,
	}
}

// Run processes batches until the scan catches up with the newest
// imported order. The cursor only advances past a batch when every
// resolvable variant in it persisted, so a failed batch is retried by
// the next run.
func (r *Refresher) Run(ctx context.Context) error {
	processed := map[int64]struct{}{}

	for {
		after, err := r.cursors.Get(ctx, models.CursorCatalogScan)
		if err != nil {
			return fmt.Errorf("reading catalog cursor: %w", err)
		}

		refs, err := r.store.VariantRefsAfter(ctx, after, r.batchSize)
		if err != nil {
			return fmt.Errorf("listing variants after order %d: %w", after, err)
		}
		if len(refs) == 0 {
			return nil
		}

		batchErr := r.processBatch(ctx, refs, processed)
		if batchErr != nil {
			return batchErr
		}

		maxOrderID := refs[0].OrderID
		for _, ref := range refs[1:] {
			if ref.OrderID > maxOrderID {
				maxOrderID = ref.OrderID
			}
		}
		if err := r.cursors.Advance(ctx, models.CursorCatalogScan, maxOrderID); err != nil {
			return fmt.Errorf("advancing catalog cursor: %w", err)
		}
	}
}

func (r *Refresher) processBatch(ctx context.Context, refs []VariantRef, processed map[int64]struct{}) error {
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		if ref.VariantID != 0 {
			ids = append(ids, ref.VariantID)
		}
	}
	known, err := r.store.KnownVariantIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("checking known variants: %w", err)
	}

	var errs error
	for _, ref := range refs {
		if ref.VariantID == 0 || strings.EqualFold(ref.Title, skipTitle) {
			continue
		}
		if _, done := processed[ref.VariantID]; done {
			continue
		}
		if known[ref.VariantID] {
			processed[ref.VariantID] = struct{}{}
			continue
		}

		if err := r.resolveVariant(ctx, ref); err != nil {
			// not marked processed: retried next batch or next run
			errs = multierr.Append(errs, err)
			r.logg.Warn(ctx, fmt.Sprintf("catalog: variant %d unresolved: %v", ref.VariantID, err))
			continue
		}
		processed[ref.VariantID] = struct{}{}
	}
	return errs
}

func (r *Refresher) resolveVariant(ctx context.Context, ref VariantRef) error {
	variant, err := r.shop.GetVariant(ctx, ref.VariantID)
	if err != nil {
		return fmt.Errorf("fetching variant %d: %w", ref.VariantID, err)
	}
	item, err := r.shop.GetInventoryItem(ctx, variant.InventoryItemID)
	if err != nil {
		return fmt.Errorf("fetching inventory item %d: %w", variant.InventoryItemID, err)
	}

	row := models.ProductCost{
		InventoryItemID:      item.ID,
		VariantID:            variant.ID,
		ProductID:            variant.ProductID,
		Title:                variant.Title,
		Cost:                 parseCost(item.Cost),
		Tracked:              item.Tracked,
		RequiresShipping:     item.RequiresShipping,
		CountryCodeOfOrigin:  item.CountryCodeOfOrigin,
		ProvinceCodeOfOrigin: item.ProvinceCodeOfOrigin,
		HarmonizedSystemCode: item.HarmonizedSystemCode,
	}
	if variant.SKU != "" {
		sku := variant.SKU
		row.SKU = &sku
	}

	if err := r.store.UpsertCost(ctx, row); err != nil {
		return fmt.Errorf("saving cost for variant %d: %w", variant.ID, err)
	}
	return nil
}

// parseCost treats a missing or malformed upstream cost as zero.
func parseCost(cost *string) decimal.Decimal {
	if cost == nil {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(strings.TrimSpace(*cost))
	if err != nil {
		return decimal.Zero
	}
	return value
}
