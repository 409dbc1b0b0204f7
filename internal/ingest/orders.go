package ingest

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/roasbooster/analytics-backend/internal/shopify"
	"github.com/roasbooster/analytics-backend/pkg/db/models"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

const backfillBatchSize = 100

// OrdersService imports new storefront orders past the cursor and
// backfills line items on rows imported without them.
type OrdersService struct {
	shop    shopify.API
	orders  OrderStore
	costs   CostStore
	cursors Cursors
	logg    *logger.Logger
	state   *RunState
}

// NewOrdersService wires the orders ingestion pipeline.
func NewOrdersService(shop shopify.API, orders OrderStore, costs CostStore, cursors Cursors, logg *logger.Logger) *OrdersService {
	return &OrdersService{
		shop:    shop,
		orders:  orders,
		costs:   costs,
		cursors: cursors,
		logg:    logg,
		state:   NewRunState(),
	}
}

// State exposes the run phase for observability.
func (s *OrdersService) State() State {
	return s.state.Get()
}

// Run performs one fetch, normalize, upsert cycle. The cursor advances
// to the highest order id that persisted; a failed upsert leaves it at
// the last good row so the next run retries from there.
func (s *OrdersService) Run(ctx context.Context) error {
	s.state.Set(StateFetching)

	since, err := s.cursors.Get(ctx, models.CursorShopifyOrders)
	if err != nil {
		s.state.Set(StateFailed)
		return fmt.Errorf("reading orders cursor: %w", err)
	}

	raws, err := s.shop.ListOrders(ctx, shopify.ListOrdersParams{SinceID: since})
	if err != nil {
		s.state.Set(StateFailed)
		return fmt.Errorf("listing orders since %d: %w", since, err)
	}
	if len(raws) == 0 {
		s.state.Set(StateIdle)
		return nil
	}

	s.state.Set(StateNormalizing)

	lookup, err := s.costs.CostsByVariantIDs(ctx, collectVariantIDs(raws))
	if err != nil {
		s.state.Set(StateFailed)
		return fmt.Errorf("loading variant costs: %w", err)
	}

	rows := make([]models.ShopifyOrder, 0, len(raws))
	for _, raw := range raws {
		if len(raw.LineItems) == 0 {
			s.logg.Warn(ctx, fmt.Sprintf("order %d has no line items, cost recorded as zero", raw.ID))
		}
		rows = append(rows, NormalizeOrder(raw, lookup))
	}

	s.state.Set(StateUpserting)

	lastID, inserted, insertErr := s.orders.InsertOrders(ctx, rows)
	if lastID > since {
		if cursorErr := s.cursors.Advance(ctx, models.CursorShopifyOrders, lastID); cursorErr != nil {
			insertErr = multierr.Append(insertErr, fmt.Errorf("advancing orders cursor: %w", cursorErr))
		}
	}
	if insertErr != nil {
		s.state.Set(StateFailed)
		return insertErr
	}

	s.logg.Info(ctx, fmt.Sprintf("orders ingest: %d fetched, %d new, cursor at %d", len(raws), inserted, lastID))
	s.state.Set(StateIdle)
	return nil
}

// BackfillLineItems re-fetches orders persisted without line items and
// fills in the items plus the recomputed cost. Per-order failures are
// logged and aggregated; the rest of the batch proceeds.
func (s *OrdersService) BackfillLineItems(ctx context.Context) error {
	missing, err := s.orders.OrdersMissingLineItems(ctx, backfillBatchSize)
	if err != nil {
		return fmt.Errorf("listing orders missing line items: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	var errs error
	for _, row := range missing {
		raw, err := s.shop.GetOrder(ctx, row.OrderID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("fetching order %d: %w", row.OrderID, err))
			continue
		}
		items := NormalizeLineItems(raw.LineItems)
		if len(items) == 0 {
			continue
		}

		lookup, err := s.costs.CostsByVariantIDs(ctx, itemVariantIDs(items))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("loading costs for order %d: %w", row.OrderID, err))
			continue
		}
		if err := s.orders.SetOrderLineItems(ctx, row.OrderID, items, TotalCost(items, lookup)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("backfilling order %d: %w", row.OrderID, err))
		}
	}
	return errs
}

func collectVariantIDs(raws []shopify.Order) []int64 {
	seen := map[int64]struct{}{}
	var ids []int64
	for _, raw := range raws {
		for _, item := range raw.LineItems {
			if item.VariantID == nil {
				continue
			}
			if _, ok := seen[*item.VariantID]; ok {
				continue
			}
			seen[*item.VariantID] = struct{}{}
			ids = append(ids, *item.VariantID)
		}
	}
	return ids
}

func itemVariantIDs(items models.OrderItems) []int64 {
	var ids []int64
	for _, item := range items {
		if item.VariantID != nil {
			ids = append(ids, *item.VariantID)
		}
	}
	return ids
}
