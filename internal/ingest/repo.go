package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roasbooster/analytics-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds the ingest persistence layer bound to the
// provided DB. It implements OrderStore, CostStore and InsightStore.
func NewRepository(db *gorm.DB) *repository {
	return &repository{db: db}
}

func (r *repository) InsertOrders(ctx context.Context, rows []models.ShopifyOrder) (int64, int, error) {
	sorted := make([]models.ShopifyOrder, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OrderID < sorted[j].OrderID })

	var lastID int64
	var inserted int
	for i := range sorted {
		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_id"}},
				DoNothing: true,
			}).
			Create(&sorted[i])
		if result.Error != nil {
			return lastID, inserted, fmt.Errorf("inserting order %d: %w", sorted[i].OrderID, result.Error)
		}
		if result.RowsAffected > 0 {
			inserted++
		}
		lastID = sorted[i].OrderID
	}
	return lastID, inserted, nil
}

func (r *repository) OrdersMissingLineItems(ctx context.Context, limit int) ([]models.ShopifyOrder, error) {
	var rows []models.ShopifyOrder
	err := r.db.WithContext(ctx).
		Where("line_items IS NULL OR line_items = ? OR line_items = ?", "null", "[]").
		Order("order_id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SetOrderLineItems(ctx context.Context, orderID int64, items models.OrderItems, totalCost decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.ShopifyOrder{}).
		Where("order_id = ?", orderID).
		Select("line_items", "total_cost").
		Updates(models.ShopifyOrder{LineItems: items, TotalCost: totalCost}).Error
}

func (r *repository) CostsByVariantIDs(ctx context.Context, variantIDs []int64) (CostLookup, error) {
	lookup := make(CostLookup, len(variantIDs))
	if len(variantIDs) == 0 {
		return lookup, nil
	}
	var rows []models.ProductCost
	err := r.db.WithContext(ctx).
		Where("variant_id IN ?", variantIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		lookup[row.VariantID] = row.Cost
	}
	return lookup, nil
}

func (r *repository) UpsertAdInsights(ctx context.Context, rows []models.AdInsight) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(insightConflict("ad_id")).
		Create(&rows).Error
}

func (r *repository) UpsertAdsetInsights(ctx context.Context, rows []models.AdsetInsight) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(insightConflict("adset_id")).
		Create(&rows).Error
}

func (r *repository) UpsertCampaignInsights(ctx context.Context, rows []models.CampaignInsight) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(insightConflict("campaign_id")).
		Create(&rows).Error
}

func (r *repository) UpsertAccountInsights(ctx context.Context, rows []models.AccountInsight) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(insightConflict("account_id")).
		Create(&rows).Error
}

// insightConflict re-ingests the same entity/day by overwriting every
// non-key column.
func insightConflict(idColumn string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: idColumn}, {Name: "date_start"}},
		UpdateAll: true,
	}
}
