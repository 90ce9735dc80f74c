package analyze

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

func trendFor(findings *Findings, subject string) (domain.Trend, bool) {
	for _, tr := range findings.Trends {
		if tr.Subject == subject {
			return tr, true
		}
	}
	return domain.Trend{}, false
}

func TestTrend_DirectionFromChangePercent(t *testing.T) {
	a := NewTrendAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		AsOf: time.Now(),
		Quotes: []domain.MarketQuote{
			{Symbol: "BTC", ChangePercent: 6.5},
			{Symbol: "ETH", ChangePercent: -4.2},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)

	up, ok := trendFor(findings, "BTC")
	require.True(t, ok)
	assert.Equal(t, domain.TrendUp, up.Direction)
	assert.Contains(t, up.Evidence, "BTC")

	down, ok := trendFor(findings, "ETH")
	require.True(t, ok)
	assert.Equal(t, domain.TrendDown, down.Direction)
}

func TestTrend_NewsMentionsBoostConfidence(t *testing.T) {
	a := NewTrendAnalyzer(config.Default().Analysis)
	now := time.Now()

	quiet := &domain.Batch{
		AsOf:   now,
		Quotes: []domain.MarketQuote{{Symbol: "BTC", ChangePercent: 5.0}},
	}
	noisy := &domain.Batch{
		AsOf:   now,
		Quotes: []domain.MarketQuote{{Symbol: "BTC", ChangePercent: 5.0}},
		News: []domain.NewsItem{
			{ID: "n1", Title: "BTC rallies on volume", Keywords: []string{"btc"}},
			{ID: "n2", Title: "Funds rotate into btc", Keywords: []string{"btc"}},
		},
	}

	base, err := a.Analyze(context.Background(), quiet)
	require.NoError(t, err)
	boosted, err := a.Analyze(context.Background(), noisy)
	require.NoError(t, err)

	tb, ok := trendFor(base, "BTC")
	require.True(t, ok)
	tn, ok := trendFor(boosted, "BTC")
	require.True(t, ok)
	assert.Greater(t, tn.Confidence, tb.Confidence)
	assert.Contains(t, tn.Evidence, "n1")
	assert.Contains(t, tn.Evidence, "n2")
}

func TestTrend_SmallMovesBelowFloorAreDropped(t *testing.T) {
	a := NewTrendAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		AsOf:   time.Now(),
		Quotes: []domain.MarketQuote{{Symbol: "XRP", ChangePercent: 0.4}},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	_, ok := trendFor(findings, "XRP")
	assert.False(t, ok)
}

func TestTrend_ElevatedRegionFlaggedAsDeterioration(t *testing.T) {
	a := NewTrendAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		AsOf: time.Now(),
		News: []domain.NewsItem{
			{ID: "e1", Region: domain.RegionEurope, AlertLevel: domain.AlertHigh},
			{ID: "e2", Region: domain.RegionEurope, AlertLevel: domain.AlertCritical},
			{ID: "e3", Region: domain.RegionEurope, AlertLevel: domain.AlertMedium},
			{ID: "a1", Region: domain.RegionAsia, AlertLevel: domain.AlertNone},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)

	eu, ok := trendFor(findings, string(domain.RegionEurope))
	require.True(t, ok)
	assert.Equal(t, domain.TrendDown, eu.Direction)
	assert.ElementsMatch(t, []string{"e1", "e2", "e3"}, eu.Evidence)

	_, ok = trendFor(findings, string(domain.RegionAsia))
	assert.False(t, ok, "region with no elevated items should produce no trend")
}

func TestTrend_SortedByConfidenceDescending(t *testing.T) {
	a := NewTrendAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		AsOf: time.Now(),
		Quotes: []domain.MarketQuote{
			{Symbol: "AAA", ChangePercent: 4.0},
			{Symbol: "BBB", ChangePercent: 9.0},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(findings.Trends), 2)
	for i := 1; i < len(findings.Trends); i++ {
		assert.GreaterOrEqual(t, findings.Trends[i-1].Confidence, findings.Trends[i].Confidence)
	}
}
