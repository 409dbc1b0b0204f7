package facebook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roasbooster/analytics-backend/pkg/config"
	"github.com/roasbooster/analytics-backend/pkg/errors"
)

type fakeAPI struct {
	rows     map[string]map[Level][]Row
	failures map[string]map[Level]error
	calls    []call
}

type call struct {
	account string
	level   Level
	params  InsightParams
}

func (f *fakeAPI) Insights(ctx context.Context, account config.AdAccount, level Level, params InsightParams) ([]Row, error) {
	f.calls = append(f.calls, call{account: account.ID, level: level, params: params})
	if failure, ok := f.failures[account.ID][level]; ok {
		return f.rows[account.ID][level], failure
	}
	return f.rows[account.ID][level], nil
}

func TestPullSweepsAllLevelsPerAccount(t *testing.T) {
	api := &fakeAPI{
		rows: map[string]map[Level][]Row{
			"act_1": {
				LevelAccount:  {{AccountID: "act_1"}},
				LevelCampaign: {{CampaignID: "c1"}, {CampaignID: "c2"}},
				LevelAdset:    {{AdsetID: "s1"}},
				LevelAd:       {{AdID: "a1"}},
			},
		},
	}
	fetcher := NewFetcher(api, []config.AdAccount{{ID: "act_1", Name: "One"}}, nil)

	pull, err := fetcher.Pull(context.Background(), "2024-01-01", "2024-01-02")
	require.NoError(t, err)

	assert.Len(t, pull.Accounts, 1)
	assert.Len(t, pull.Campaigns, 2)
	assert.Len(t, pull.Adsets, 1)
	assert.Len(t, pull.Ads, 1)

	// adset query carries the campaign ids discovered this sweep
	var adsetCall *call
	for i := range api.calls {
		if api.calls[i].level == LevelAdset {
			adsetCall = &api.calls[i]
		}
	}
	require.NotNil(t, adsetCall)
	assert.Equal(t, []string{"c1", "c2"}, adsetCall.params.CampaignIDs)
}

func TestPullToleratesFailingAccount(t *testing.T) {
	api := &fakeAPI{
		rows: map[string]map[Level][]Row{
			"act_1": {LevelAccount: {{AccountID: "act_1"}}},
			"act_2": {
				LevelAccount:  {{AccountID: "act_2"}},
				LevelCampaign: {{CampaignID: "c9"}},
				LevelAdset:    {},
				LevelAd:       {{AdID: "a9"}},
			},
		},
		failures: map[string]map[Level]error{
			"act_1": {LevelCampaign: errors.New(errors.CodeDependency, "expired token")},
		},
	}
	fetcher := NewFetcher(api, []config.AdAccount{
		{ID: "act_1", Name: "One"},
		{ID: "act_2", Name: "Two"},
	}, nil)

	pull, err := fetcher.Pull(context.Background(), "2024-01-01", "2024-01-01")
	// the failure is reported but does not wipe the sweep
	require.Error(t, err)

	assert.Len(t, pull.Accounts, 2)
	assert.Len(t, pull.Campaigns, 1)
	assert.Equal(t, "c9", pull.Campaigns[0].CampaignID)
	assert.Len(t, pull.Ads, 1)
}

func TestPullKeepsPartialRowsFromFailedLevel(t *testing.T) {
	api := &fakeAPI{
		rows: map[string]map[Level][]Row{
			"act_1": {
				LevelAccount: {{AccountID: "act_1", DateStart: "2024-01-01"}},
			},
		},
		failures: map[string]map[Level]error{
			"act_1": {LevelAccount: errors.New(errors.CodeDependency, "cut off mid page")},
		},
	}
	fetcher := NewFetcher(api, []config.AdAccount{{ID: "act_1", Name: "One"}}, nil)

	pull, err := fetcher.Pull(context.Background(), "2024-01-01", "2024-01-01")
	require.Error(t, err)
	// rows fetched before the failure are preserved
	assert.Len(t, pull.Accounts, 1)
}
