package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roasbooster/analytics-backend/internal/reporting"
	"github.com/roasbooster/analytics-backend/pkg/db/models"
	"github.com/roasbooster/analytics-backend/pkg/enums"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

type fakeReporter struct {
	failDates map[string]bool
}

func (f *fakeReporter) ComputeWindow(_ context.Context, start, _ string) (*reporting.WindowReport, error) {
	if f.failDates[start] {
		return nil, assert.AnError
	}
	return &reporting.WindowReport{Start: start, End: start}, nil
}

func (f *fakeReporter) ComputeDashboard(_ context.Context, start, end string) (*reporting.DashboardReport, error) {
	return &reporting.DashboardReport{Start: start, End: end}, nil
}

type fakeSnapshotStore struct {
	archived map[string]bool
	pending  []models.SnapshotBackfill

	saved    []string
	failures map[string]int
	resolved []string
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{
		archived: map[string]bool{},
		failures: map[string]int{},
	}
}

func (f *fakeSnapshotStore) ArchivedDates(_ context.Context, _, _ string) (map[string]bool, error) {
	return f.archived, nil
}

func (f *fakeSnapshotStore) SaveDay(_ context.Context, date string, _ *reporting.WindowReport, _ *reporting.DashboardReport) error {
	f.saved = append(f.saved, date)
	return nil
}

func (f *fakeSnapshotStore) PendingBackfills(_ context.Context) ([]models.SnapshotBackfill, error) {
	return f.pending, nil
}

func (f *fakeSnapshotStore) RecordFailure(_ context.Context, date string, _ error) error {
	f.failures[date]++
	return nil
}

func (f *fakeSnapshotStore) ResolveBackfill(_ context.Context, date string) error {
	f.resolved = append(f.resolved, date)
	return nil
}

func testArchiver(reporter Reporter, store Store, floor string) *Archiver {
	archiver := NewArchiver(reporter, store, floor, time.UTC, logger.New(logger.Options{ServiceName: "test"}))
	archiver.now = func() time.Time {
		return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	}
	return archiver
}

func TestRunWalksBackToFloorSkippingArchived(t *testing.T) {
	store := newFakeSnapshotStore()
	store.archived["2024-01-08"] = true
	archiver := testArchiver(&fakeReporter{}, store, "2024-01-06")

	require.NoError(t, archiver.Run(context.Background()))

	// yesterday first, archived day skipped, floor inclusive
	assert.Equal(t, []string{"2024-01-09", "2024-01-07", "2024-01-06"}, store.saved)
	assert.Empty(t, store.failures)
}

func TestRunRecordsFailedDayAndContinues(t *testing.T) {
	store := newFakeSnapshotStore()
	reporter := &fakeReporter{failDates: map[string]bool{"2024-01-08": true}}
	archiver := testArchiver(reporter, store, "2024-01-07")

	err := archiver.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"2024-01-09", "2024-01-07"}, store.saved)
	assert.Equal(t, 1, store.failures["2024-01-08"])
}

func TestRunRetriesPendingBackfillsFirst(t *testing.T) {
	store := newFakeSnapshotStore()
	store.pending = []models.SnapshotBackfill{
		{SnapshotDate: "2023-12-20", Status: enums.BackfillStatusPending},
	}
	// the walk itself has nothing to do
	store.archived["2024-01-09"] = true
	archiver := testArchiver(&fakeReporter{}, store, "2024-01-09")

	require.NoError(t, archiver.Run(context.Background()))

	assert.Equal(t, []string{"2023-12-20"}, store.saved)
	assert.Contains(t, store.resolved, "2023-12-20")
}

func TestRunBacksOffStillFailingBackfill(t *testing.T) {
	store := newFakeSnapshotStore()
	store.pending = []models.SnapshotBackfill{
		{SnapshotDate: "2023-12-20", Status: enums.BackfillStatusPending, Attempts: 2},
	}
	store.archived["2024-01-09"] = true
	reporter := &fakeReporter{failDates: map[string]bool{"2023-12-20": true}}
	archiver := testArchiver(reporter, store, "2024-01-09")

	err := archiver.Run(context.Background())
	require.Error(t, err)

	assert.Empty(t, store.saved)
	assert.Equal(t, 1, store.failures["2023-12-20"])
}

func TestArchiveDayResolvesBackfill(t *testing.T) {
	store := newFakeSnapshotStore()
	archiver := testArchiver(&fakeReporter{}, store, "2024-01-01")

	require.NoError(t, archiver.ArchiveDay(context.Background(), "2024-01-05"))

	assert.Equal(t, []string{"2024-01-05"}, store.saved)
	assert.Equal(t, []string{"2024-01-05"}, store.resolved)
}
