package models

import (
	"time"

	"github.com/roasbooster/analytics-backend/pkg/enums"
)

// SnapshotBackfill records a day the archiver failed to snapshot so a
// later run can retry it instead of leaving a silent gap.
type SnapshotBackfill struct {
	SnapshotDate string               `gorm:"column:snapshot_date;primaryKey"`
	Status       enums.BackfillStatus `gorm:"column:status;not null;default:'pending'"`
	Attempts     int                  `gorm:"column:attempts;not null;default:0"`
	LastError    string               `gorm:"column:last_error;not null;default:''"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
