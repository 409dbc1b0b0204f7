package ingest

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/roasbooster/analytics-backend/pkg/db/models"
)

// CursorStore persists ingest cursors in the ingest_cursors table.
type CursorStore struct {
	db *gorm.DB
}

// NewCursorStore builds a CursorStore bound to the provided DB.
func NewCursorStore(db *gorm.DB) *CursorStore {
	return &CursorStore{db: db}
}

// Get returns the stored cursor value, or zero when the cursor has
// never been written.
func (s *CursorStore) Get(ctx context.Context, name string) (int64, error) {
	var cursor models.IngestCursor
	err := s.db.WithContext(ctx).First(&cursor, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cursor.Value, nil
}

// Advance moves the cursor forward to value. A value at or below the
// stored one is a no-op: cursors never go backward.
func (s *CursorStore) Advance(ctx context.Context, name string, value int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cursor models.IngestCursor
		err := tx.First(&cursor, "name = ?", name).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.IngestCursor{Name: name, Value: value}).Error
		}
		if err != nil {
			return err
		}
		if value <= cursor.Value {
			return nil
		}
		return tx.Model(&models.IngestCursor{}).
			Where("name = ?", name).
			Update("value", value).Error
	})
}
