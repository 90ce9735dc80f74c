package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

func TestOpportunity_MomentumOnStrongMove(t *testing.T) {
	a := NewOpportunityAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		News: []domain.NewsItem{
			{ID: "n1", Title: "Bitcoin breaks $50,000", Description: "ETF inflows surge", Keywords: []string{}},
		},
		Quotes: []domain.MarketQuote{
			{Symbol: "BTC", Price: 50000, ChangePercent: 8.2},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)

	var momentum *domain.Opportunity
	for i := range findings.Opportunities {
		if findings.Opportunities[i].Kind == domain.OpportunityMomentum {
			momentum = &findings.Opportunities[i]
		}
	}
	require.NotNil(t, momentum, "expected a momentum opportunity")
	assert.Equal(t, "BTC", momentum.Symbol)
	assert.Greater(t, momentum.Confidence, 30.0)
	assert.Contains(t, momentum.Evidence, "BTC")
	assert.NotEmpty(t, momentum.Rationale)
}

func TestOpportunity_NoMomentumBelowThreshold(t *testing.T) {
	a := NewOpportunityAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		Quotes: []domain.MarketQuote{{Symbol: "BTC", ChangePercent: 1.0}},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	for _, o := range findings.Opportunities {
		assert.NotEqual(t, domain.OpportunityMomentum, o.Kind)
	}
}

func TestOpportunity_GridFitInsideBand(t *testing.T) {
	a := NewOpportunityAnalyzer(config.Default().Analysis)

	// 5% intraday range with a 0.5% net move: oscillation without direction.
	batch := &domain.Batch{
		Quotes: []domain.MarketQuote{
			{Symbol: "ETH", Open: 100, High: 103, Low: 98, ChangePercent: 0.5},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, findings.Opportunities, 1)

	o := findings.Opportunities[0]
	assert.Equal(t, domain.OpportunityGrid, o.Kind)
	assert.True(t, o.GridFit)
	assert.Equal(t, []string{"ETH"}, o.Evidence)
}

func TestOpportunity_NoGridFitWhenFlatOrChaotic(t *testing.T) {
	a := NewOpportunityAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		Quotes: []domain.MarketQuote{
			{Symbol: "FLAT", Open: 100, High: 100.5, Low: 99.9, ChangePercent: 0.1}, // below band
			{Symbol: "WILD", Open: 100, High: 115, Low: 95, ChangePercent: 0.2},     // above band
			{Symbol: "TREND", Open: 100, High: 104, Low: 100, ChangePercent: 3.8},   // directional, momentum instead
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	for _, o := range findings.Opportunities {
		assert.NotEqual(t, domain.OpportunityGrid, o.Kind, "unexpected grid fit for %s", o.Symbol)
	}
}

func TestOpportunity_EmptyBatchYieldsNoFindings(t *testing.T) {
	a := NewOpportunityAnalyzer(config.Default().Analysis)

	findings, err := a.Analyze(context.Background(), &domain.Batch{})
	require.NoError(t, err)
	assert.Empty(t, findings.Opportunities)
}
