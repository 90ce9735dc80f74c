package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

func TestRisk_NoCriticalFindingsWithoutCrisisItems(t *testing.T) {
	a := NewRiskAnalyzer(config.Default().Analysis)

	// Benign news plus a strong upward move must not produce critical risk.
	batch := &domain.Batch{
		News: []domain.NewsItem{
			{ID: "n1", Title: "Bitcoin breaks $50,000", Description: "ETF inflows surge", AlertLevel: domain.AlertNone},
		},
		Quotes: []domain.MarketQuote{{Symbol: "BTC", ChangePercent: 8.2}},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	for _, r := range findings.Risks {
		assert.NotEqual(t, domain.AlertCritical, r.Level)
	}
}

func TestRisk_CriticalClusterScoresCritical(t *testing.T) {
	a := NewRiskAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		News: []domain.NewsItem{
			{ID: "n1", Category: domain.CategoryGeopolitics, AlertLevel: domain.AlertCritical, Region: domain.RegionEurope},
			{ID: "n2", Category: domain.CategoryGeopolitics, AlertLevel: domain.AlertHigh},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, findings.Risks, 1)

	r := findings.Risks[0]
	// probability 0.8 (critical) x impact 0.9 (geopolitics) = score 72
	assert.InDelta(t, 72.0, r.Score, 1e-9)
	assert.Equal(t, domain.AlertCritical, r.Level)
	assert.ElementsMatch(t, []string{"n1", "n2"}, r.Evidence)
	assert.Equal(t, domain.RegionEurope, r.Region)
}

func TestRisk_BucketThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.AlertLevel
	}{
		{score: 70, want: domain.AlertCritical},
		{score: 64, want: domain.AlertCritical},
		{score: 50, want: domain.AlertHigh},
		{score: 25, want: domain.AlertMedium},
		{score: 10, want: domain.AlertLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, bucketRisk(tc.score), "score %.0f", tc.score)
	}
}

func TestRisk_MarketDrawdownFlagged(t *testing.T) {
	a := NewRiskAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		Quotes: []domain.MarketQuote{{Symbol: "BTC", ChangePercent: -8.0}},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, findings.Risks, 1)
	assert.Equal(t, []string{"BTC"}, findings.Risks[0].Evidence)
	assert.Equal(t, domain.CategoryMarkets, findings.Risks[0].Category)
}

func TestRisk_LowAlertItemsIgnored(t *testing.T) {
	a := NewRiskAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		News: []domain.NewsItem{
			{ID: "n1", AlertLevel: domain.AlertLow, Category: domain.CategoryMarkets},
			{ID: "n2", AlertLevel: domain.AlertNone, Category: domain.CategoryMarkets},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	assert.Empty(t, findings.Risks)
}
