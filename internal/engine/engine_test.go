package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitroom/sitrep/internal/analyze"
	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

func fixedBatch() *domain.Batch {
	asOf := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sentiment := func(v float64) *float64 { return &v }
	return &domain.Batch{
		AsOf: asOf,
		News: []domain.NewsItem{
			{
				ID: "n1", Title: "Sanctions tighten on energy exports",
				Keywords: []string{"sanctions", "energy"}, Source: "wire",
				PublishedAt: asOf.Add(-3 * time.Hour), Sentiment: sentiment(-0.6),
			},
			{
				ID: "n2", Title: "New sanctions package under discussion",
				Keywords: []string{"sanctions", "energy"}, Source: "wire",
				PublishedAt: asOf.Add(-2 * time.Hour), Sentiment: sentiment(-0.3),
			},
			{
				ID: "n3", Title: "Chipmaker beats earnings expectations",
				Keywords: []string{"earnings", "semiconductors"}, Source: "wire",
				PublishedAt: asOf.Add(-1 * time.Hour), Sentiment: sentiment(0.5),
			},
			{
				ID: "n4", Title: "Quiet session across local markets",
				Keywords: []string{"markets"}, Source: "wire",
				PublishedAt: asOf.Add(-30 * time.Minute), Sentiment: sentiment(0.0),
			},
		},
		Quotes: []domain.MarketQuote{
			{Symbol: "BTC", Price: 64000, ChangePercent: 8.2},
			{Symbol: "ETH", Price: 3200, ChangePercent: -6.0},
		},
	}
}

// stubAnalyzer lets tests inject findings, errors, or panics into the fan-out.
type stubAnalyzer struct {
	name    string
	analyze func(context.Context, *domain.Batch) (*analyze.Findings, error)
}

func (s *stubAnalyzer) Name() string { return s.name }
func (s *stubAnalyzer) Analyze(ctx context.Context, b *domain.Batch) (*analyze.Findings, error) {
	return s.analyze(ctx, b)
}

func TestRun_DeterministicOnFrozenBatch(t *testing.T) {
	cfg := config.Default()
	e := New(cfg)
	defer e.Close()

	first, err := e.Run(context.Background(), fixedBatch())
	require.NoError(t, err)
	second, err := e.Run(context.Background(), fixedBatch())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	assert.Equal(t, first.Patterns, second.Patterns)
	assert.Equal(t, first.Trends, second.Trends)
	assert.Equal(t, first.Risks, second.Risks)
	assert.Equal(t, first.Opportunities, second.Opportunities)
	assert.Equal(t, first.Narratives, second.Narratives)
	assert.Equal(t, first.Characters, second.Characters)
	assert.Equal(t, first.Correlations, second.Correlations)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Metadata, second.Metadata)

	require.Equal(t, len(first.Decisions), len(second.Decisions))
	for i := range first.Decisions {
		assert.Equal(t, first.Decisions[i].Subject, second.Decisions[i].Subject)
		assert.Equal(t, first.Decisions[i].Action, second.Decisions[i].Action)
		assert.Equal(t, first.Decisions[i].Confidence, second.Decisions[i].Confidence)
		assert.Equal(t, first.Decisions[i].Rationale, second.Decisions[i].Rationale)
	}
}

func TestRun_PanickingAnalyzerYieldsZeroFindings(t *testing.T) {
	cfg := config.Default()
	analyzers := append(analyze.All(cfg.Analysis), &stubAnalyzer{
		name: "faulty",
		analyze: func(context.Context, *domain.Batch) (*analyze.Findings, error) {
			panic("boom")
		},
	})
	e := New(cfg, WithAnalyzers(analyzers))
	defer e.Close()

	result, err := e.Run(context.Background(), fixedBatch())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Patterns, "other analyzers keep producing findings")
	assert.NotEmpty(t, result.Trends)
}

func TestRun_FailingAnalyzerDoesNotAbortRun(t *testing.T) {
	cfg := config.Default()
	analyzers := append(analyze.All(cfg.Analysis), &stubAnalyzer{
		name: "flaky",
		analyze: func(context.Context, *domain.Batch) (*analyze.Findings, error) {
			return nil, errors.New("upstream timeout")
		},
	})
	e := New(cfg, WithAnalyzers(analyzers))
	defer e.Close()

	clean := New(cfg)
	defer clean.Close()

	withFault, err := e.Run(context.Background(), fixedBatch())
	require.NoError(t, err)
	baseline, err := clean.Run(context.Background(), fixedBatch())
	require.NoError(t, err)

	assert.Equal(t, baseline.Patterns, withFault.Patterns)
	assert.Equal(t, baseline.Trends, withFault.Trends)
	assert.Equal(t, baseline.Risks, withFault.Risks)
}

func TestRun_CancelledContextNeverReachesCache(t *testing.T) {
	e := New(config.Default())
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Run(ctx, fixedBatch())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)

	_, ok := e.Latest()
	assert.False(t, ok, "abandoned run must not populate the cache")
}

func TestRun_FusionFailurePreservesCachedResult(t *testing.T) {
	cfg := config.Default()
	broken := false
	stub := &stubAnalyzer{
		name: "switchable",
		analyze: func(context.Context, *domain.Batch) (*analyze.Findings, error) {
			trend := domain.Trend{
				ID: "trend-btc", Subject: "BTC", Direction: domain.TrendUp,
				Strength: 50, Confidence: 70, Evidence: []string{"BTC"},
			}
			if broken {
				trend.Evidence = nil
			}
			return &analyze.Findings{Trends: []domain.Trend{trend}}, nil
		},
	}
	e := New(cfg, WithAnalyzers([]analyze.Analyzer{stub}))
	defer e.Close()

	first, err := e.Run(context.Background(), fixedBatch())
	require.NoError(t, err)

	broken = true
	_, err = e.Run(context.Background(), fixedBatch())
	require.Error(t, err)
	var fusionErr *domain.FusionError
	assert.ErrorAs(t, err, &fusionErr)

	cached, ok := e.Latest()
	require.True(t, ok, "previous result stays cached after a failed run")
	assert.Equal(t, first.ID, cached.ID)
}

func TestRun_EmptyBatchProducesCompleteResult(t *testing.T) {
	e := New(config.Default())
	defer e.Close()

	result, err := e.Run(context.Background(), &domain.Batch{})
	require.NoError(t, err)

	assert.Empty(t, result.Patterns)
	assert.Empty(t, result.Trends)
	assert.Empty(t, result.Risks)
	assert.Empty(t, result.Opportunities)
	assert.Empty(t, result.Narratives)
	assert.Empty(t, result.Characters)
	assert.Empty(t, result.Decisions)
	assert.Zero(t, result.Confidence)
	assert.Zero(t, result.Metadata.NewsCount)
	assert.NotEmpty(t, result.ID)
	assert.NotEmpty(t, result.Summary)
}

func TestRun_MetadataCounters(t *testing.T) {
	e := New(config.Default())
	defer e.Close()

	result, err := e.Run(context.Background(), fixedBatch())
	require.NoError(t, err)

	meta := result.Metadata
	assert.Equal(t, 4, meta.NewsCount)
	assert.Equal(t, 2, meta.MarketSymbolsCount)
	assert.Equal(t, len(result.Patterns), meta.PatternsDetected)
	assert.Equal(t, len(result.Risks), meta.RisksIdentified)
	assert.Equal(t, len(result.Opportunities), meta.OpportunitiesIdentified)
	assert.Equal(t, 1, meta.PositiveSentimentCount)
	assert.Equal(t, 2, meta.NegativeSentimentCount)
	assert.Equal(t, 1, meta.NeutralSentimentCount)
}

func TestRun_ItemWithoutTitleIsExcluded(t *testing.T) {
	e := New(config.Default())
	defer e.Close()

	batch := fixedBatch()
	batch.News = append(batch.News, domain.NewsItem{ID: "bad", PublishedAt: batch.AsOf})

	result, err := e.Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Metadata.NewsCount, "the malformed item is dropped, the rest survive")
}

func TestLatest_ReturnsMostRecentRun(t *testing.T) {
	e := New(config.Default())
	defer e.Close()

	_, ok := e.Latest()
	assert.False(t, ok)

	result, err := e.Run(context.Background(), fixedBatch())
	require.NoError(t, err)

	cached, ok := e.Latest()
	require.True(t, ok)
	assert.Equal(t, result.ID, cached.ID)
}
