package snapshot

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/roasbooster/analytics-backend/internal/reporting"
	"github.com/roasbooster/analytics-backend/pkg/db/models"
	"github.com/roasbooster/analytics-backend/pkg/enums"
)

// Store persists archived days and tracks the ones that failed.
type Store interface {
	// ArchivedDates reports which days in [start, end] already have a
	// snapshot.
	ArchivedDates(ctx context.Context, start, end string) (map[string]bool, error)
	// SaveDay replaces the full snapshot of one day in a single
	// transaction.
	SaveDay(ctx context.Context, date string, window *reporting.WindowReport, dashboard *reporting.DashboardReport) error
	PendingBackfills(ctx context.Context) ([]models.SnapshotBackfill, error)
	// RecordFailure marks a day as pending backfill, bumping the
	// attempt count if it is already recorded.
	RecordFailure(ctx context.Context, date string, cause error) error
	ResolveBackfill(ctx context.Context, date string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the snapshot store bound to the provided DB.
func NewRepository(db *gorm.DB) Store {
	return &repository{db: db}
}

// The dashboard row is written on every archive, so its presence marks
// the day as done.
func (r *repository) ArchivedDates(ctx context.Context, start, end string) (map[string]bool, error) {
	var dates []string
	err := r.db.WithContext(ctx).
		Model(&models.SummaryDashboard{}).
		Where("snapshot_date BETWEEN ? AND ?", start, end).
		Pluck("snapshot_date", &dates).Error
	if err != nil {
		return nil, err
	}

	archived := make(map[string]bool, len(dates))
	for _, date := range dates {
		archived[date] = true
	}
	return archived, nil
}

func (r *repository) SaveDay(ctx context.Context, date string, window *reporting.WindowReport, dashboard *reporting.DashboardReport) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.SummaryAd{}, &models.SummaryAdset{}, &models.SummaryCampaign{},
			&models.SummaryAccount{}, &models.SummaryDashboard{},
		} {
			if err := tx.Where("snapshot_date = ?", date).Delete(model).Error; err != nil {
				return err
			}
		}

		if rows := summaryAds(date, window.Ads); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if rows := summaryAdsets(date, window.Adsets); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if rows := summaryCampaigns(date, window.Campaigns); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if rows := summaryAccounts(date, window.Accounts); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		return tx.Create(summaryDashboard(date, dashboard)).Error
	})
}

func (r *repository) PendingBackfills(ctx context.Context) ([]models.SnapshotBackfill, error) {
	var backfills []models.SnapshotBackfill
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.BackfillStatusPending).
		Order("snapshot_date ASC").
		Find(&backfills).Error
	if err != nil {
		return nil, err
	}
	return backfills, nil
}

func (r *repository) RecordFailure(ctx context.Context, date string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var backfill models.SnapshotBackfill
		err := tx.Where("snapshot_date = ?", date).First(&backfill).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.SnapshotBackfill{
				SnapshotDate: date,
				Status:       enums.BackfillStatusPending,
				Attempts:     1,
				LastError:    message,
			}).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&backfill).Updates(map[string]any{
			"status":     enums.BackfillStatusPending,
			"attempts":   backfill.Attempts + 1,
			"last_error": message,
		}).Error
	})
}

func (r *repository) ResolveBackfill(ctx context.Context, date string) error {
	return r.db.WithContext(ctx).
		Model(&models.SnapshotBackfill{}).
		Where("snapshot_date = ?", date).
		Update("status", enums.BackfillStatusResolved).Error
}

func summaryMetrics(m reporting.Metrics) models.Metrics {
	return models.Metrics{
		Impressions:  m.Impressions,
		UniqueClicks: m.UniqueClicks,
		Spend:        m.Spend,
		CPM:          m.CPM,
		CTR:          m.CTR,
		CPC:          m.CPC,
		TotalRevenue: m.TotalRevenue,
		TotalCost:    m.TotalCost,
		OrderCount:   m.OrderCount,
		ROAS:         m.ROAS,
		CPA:          m.CPA,
		AOV:          m.AOV,
		CVR:          m.CVR,
		EPC:          m.EPC,
		Profit:       m.Profit,
		Margin:       m.Margin,
	}
}

func summaryAds(date string, entities []reporting.EntityMetrics) []models.SummaryAd {
	rows := make([]models.SummaryAd, 0, len(entities))
	for _, entity := range entities {
		rows = append(rows, models.SummaryAd{
			SnapshotDate: date,
			AdID:         entity.EntityID,
			AdName:       entity.Name,
			AdsetID:      entity.AdsetID,
			CampaignID:   entity.CampaignID,
			AccountID:    entity.AccountID,
			AccountName:  entity.AccountName,
			Metrics:      summaryMetrics(entity.Metrics),
		})
	}
	return rows
}

func summaryAdsets(date string, entities []reporting.EntityMetrics) []models.SummaryAdset {
	rows := make([]models.SummaryAdset, 0, len(entities))
	for _, entity := range entities {
		rows = append(rows, models.SummaryAdset{
			SnapshotDate: date,
			AdsetID:      entity.EntityID,
			AdsetName:    entity.Name,
			CampaignID:   entity.CampaignID,
			AccountID:    entity.AccountID,
			AccountName:  entity.AccountName,
			Metrics:      summaryMetrics(entity.Metrics),
		})
	}
	return rows
}

func summaryCampaigns(date string, entities []reporting.EntityMetrics) []models.SummaryCampaign {
	rows := make([]models.SummaryCampaign, 0, len(entities))
	for _, entity := range entities {
		rows = append(rows, models.SummaryCampaign{
			SnapshotDate: date,
			CampaignID:   entity.EntityID,
			CampaignName: entity.Name,
			AccountID:    entity.AccountID,
			AccountName:  entity.AccountName,
			Metrics:      summaryMetrics(entity.Metrics),
		})
	}
	return rows
}

func summaryAccounts(date string, entities []reporting.EntityMetrics) []models.SummaryAccount {
	rows := make([]models.SummaryAccount, 0, len(entities))
	for _, entity := range entities {
		rows = append(rows, models.SummaryAccount{
			SnapshotDate: date,
			AccountID:    entity.EntityID,
			AccountName:  entity.Name,
			Metrics:      summaryMetrics(entity.Metrics),
		})
	}
	return rows
}

func summaryDashboard(date string, report *reporting.DashboardReport) *models.SummaryDashboard {
	return &models.SummaryDashboard{
		SnapshotDate: date,
		OrderCount:   report.OrderCount,
		TotalRevenue: report.TotalRevenue,
		LargestOrder: report.LargestOrder,
		TagBuckets:   summaryBuckets(report.TagBuckets),
		UTMBuckets:   summaryBuckets(report.UTMBuckets),
	}
}

func summaryBuckets(buckets map[string]reporting.Bucket) models.DashboardBuckets {
	out := make(models.DashboardBuckets, len(buckets))
	for key, bucket := range buckets {
		out[key] = models.DashboardBucket{
			Count:        bucket.Count,
			TotalSales:   bucket.TotalSales,
			LargestOrder: bucket.LargestOrder,
		}
	}
	return out
}
