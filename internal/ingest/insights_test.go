package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roasbooster/analytics-backend/internal/facebook"
	"github.com/roasbooster/analytics-backend/pkg/db/models"
	"github.com/roasbooster/analytics-backend/pkg/errors"
)

type fakePuller struct {
	pull    *facebook.Pull
	pullErr error
	windows [][2]string
}

func (f *fakePuller) Pull(ctx context.Context, since, until string) (*facebook.Pull, error) {
	f.windows = append(f.windows, [2]string{since, until})
	return f.pull, f.pullErr
}

type fakeInsightStore struct {
	ads       []models.AdInsight
	adsets    []models.AdsetInsight
	campaigns []models.CampaignInsight
	accounts  []models.AccountInsight

	failTables map[string]error
}

func (f *fakeInsightStore) UpsertAdInsights(ctx context.Context, rows []models.AdInsight) error {
	if err := f.failTables["ad_insights"]; err != nil {
		return err
	}
	f.ads = append(f.ads, rows...)
	return nil
}

func (f *fakeInsightStore) UpsertAdsetInsights(ctx context.Context, rows []models.AdsetInsight) error {
	if err := f.failTables["adset_insights"]; err != nil {
		return err
	}
	f.adsets = append(f.adsets, rows...)
	return nil
}

func (f *fakeInsightStore) UpsertCampaignInsights(ctx context.Context, rows []models.CampaignInsight) error {
	if err := f.failTables["campaign_insights"]; err != nil {
		return err
	}
	f.campaigns = append(f.campaigns, rows...)
	return nil
}

func (f *fakeInsightStore) UpsertAccountInsights(ctx context.Context, rows []models.AccountInsight) error {
	if err := f.failTables["account_insights"]; err != nil {
		return err
	}
	f.accounts = append(f.accounts, rows...)
	return nil
}

func samplePull() *facebook.Pull {
	return &facebook.Pull{
		Accounts:  []facebook.Row{{AccountID: "act_1", DateStart: "2024-01-03", Spend: 40}},
		Campaigns: []facebook.Row{{CampaignID: "c1", AccountID: "act_1", DateStart: "2024-01-03"}},
		Adsets:    []facebook.Row{{AdsetID: "s1", CampaignID: "c1", DateStart: "2024-01-03"}},
		Ads:       []facebook.Row{{AdID: "a1", AdsetID: "s1", DateStart: "2024-01-03", Impressions: 100}},
	}
}

func TestInsightsRunSavesAllFourTables(t *testing.T) {
	store := &fakeInsightStore{}
	svc := NewInsightsService(&fakePuller{pull: samplePull()}, store, time.UTC, testLogger())

	results, err := svc.RunWindow(context.Background(), "2024-01-03", "2024-01-03")
	require.NoError(t, err)

	require.Len(t, results, 4)
	for _, result := range results {
		assert.True(t, result.Success, "table %s should save", result.Table)
	}
	assert.Len(t, store.ads, 1)
	assert.Len(t, store.adsets, 1)
	assert.Len(t, store.campaigns, 1)
	assert.Len(t, store.accounts, 1)
	assert.Equal(t, StateIdle, svc.State())
}

func TestInsightsRunReportsPerTableFailure(t *testing.T) {
	store := &fakeInsightStore{
		failTables: map[string]error{"adset_insights": errors.New(errors.CodeInternal, "bad column")},
	}
	svc := NewInsightsService(&fakePuller{pull: samplePull()}, store, time.UTC, testLogger())

	results, err := svc.RunWindow(context.Background(), "2024-01-03", "2024-01-03")
	require.Error(t, err)

	byTable := map[string]SaveResult{}
	for _, result := range results {
		byTable[result.Table] = result
	}
	assert.False(t, byTable["adset_insights"].Success)
	assert.True(t, byTable["ad_insights"].Success)
	assert.True(t, byTable["campaign_insights"].Success)
	assert.True(t, byTable["account_insights"].Success)

	// other tables still saved
	assert.Len(t, store.ads, 1)
	assert.Len(t, store.accounts, 1)
	assert.Equal(t, StateFailed, svc.State())
}

func TestInsightsRunPersistsPartialPull(t *testing.T) {
	puller := &fakePuller{
		pull:    &facebook.Pull{Ads: []facebook.Row{{AdID: "a1", DateStart: "2024-01-03"}}},
		pullErr: errors.New(errors.CodeDependency, "one account down"),
	}
	store := &fakeInsightStore{}
	svc := NewInsightsService(puller, store, time.UTC, testLogger())

	results, err := svc.RunWindow(context.Background(), "2024-01-03", "2024-01-03")
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Len(t, store.ads, 1)
}

func TestInsightsRunUsesTodayInConfiguredTimezone(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	puller := &fakePuller{pull: &facebook.Pull{}}
	svc := NewInsightsService(puller, &fakeInsightStore{}, la, testLogger())
	// 05:00 UTC Jan 4 is still Jan 3 in Los Angeles
	svc.now = func() time.Time { return time.Date(2024, 1, 4, 5, 0, 0, 0, time.UTC) }

	_, err = svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, puller.windows, 1)
	assert.Equal(t, [2]string{"2024-01-03", "2024-01-03"}, puller.windows[0])
}

func TestInsightsRunNilPullFails(t *testing.T) {
	svc := NewInsightsService(&fakePuller{pullErr: errors.New(errors.CodeDependency, "token dead")}, &fakeInsightStore{}, time.UTC, testLogger())
	_, err := svc.RunWindow(context.Background(), "2024-01-03", "2024-01-03")
	require.Error(t, err)
	assert.Equal(t, StateFailed, svc.State())
}
