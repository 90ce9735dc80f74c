package analyze

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

func quoteBatch(returns map[string][]float64) *domain.Batch {
	batch := &domain.Batch{Returns: returns}
	for symbol := range returns {
		batch.Quotes = append(batch.Quotes, domain.MarketQuote{Symbol: symbol, Price: 100})
	}
	return batch
}

func TestCorrelation_SymmetricWithUnitDiagonal(t *testing.T) {
	a := NewCorrelationAnalyzer(config.Default().Analysis)

	batch := quoteBatch(map[string][]float64{
		"BTC": {0.01, -0.02, 0.03, 0.01, -0.01, 0.02, 0.00, 0.01},
		"ETH": {0.02, -0.01, 0.02, 0.02, -0.02, 0.01, 0.01, 0.00},
		"XAU": {-0.01, 0.01, -0.02, 0.00, 0.01, -0.01, 0.00, -0.01},
	})

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.NotNil(t, findings.Correlations)

	m := findings.Correlations
	require.Len(t, m.Assets, 3)
	for i := range m.Assets {
		assert.Equal(t, 1.0, m.Cells[i][i], "diagonal must be 1")
		for j := range m.Assets {
			assert.Equal(t, m.Cells[i][j], m.Cells[j][i], "matrix must be symmetric")
			assert.False(t, math.IsNaN(m.Cells[i][j]), "no NaN cells")
		}
	}
}

func TestCorrelation_PerfectlyCorrelatedPairIsStrong(t *testing.T) {
	a := NewCorrelationAnalyzer(config.Default().Analysis)

	series := []float64{0.01, -0.02, 0.03, 0.01, -0.01, 0.02, 0.00, 0.015}
	batch := quoteBatch(map[string][]float64{
		"BTC": series,
		"ETH": series,
	})

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.NotNil(t, findings.Correlations)

	require.Len(t, findings.Correlations.Pairs, 1)
	pair := findings.Correlations.Pairs[0]
	assert.InDelta(t, 1.0, pair.Coefficient, 1e-9)
	assert.Equal(t, domain.PairStrong, pair.Strength)
	assert.Equal(t, len(series), pair.SampleSize)
}

func TestCorrelation_InsufficientSamplesExcludedWithReason(t *testing.T) {
	a := NewCorrelationAnalyzer(config.Default().Analysis)

	batch := quoteBatch(map[string][]float64{
		"BTC":  {0.01, -0.02, 0.03, 0.01, -0.01, 0.02, 0.00, 0.01},
		"DOGE": {0.01, 0.02}, // below the min sample count
	})
	batch.Quotes = append(batch.Quotes, domain.MarketQuote{Symbol: "SHIB", Price: 1}) // no series at all

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.NotNil(t, findings.Correlations)

	m := findings.Correlations
	assert.Equal(t, []string{"BTC"}, m.Assets)
	require.Len(t, m.Excluded, 2)
	for _, ex := range m.Excluded {
		assert.NotEmpty(t, ex.Reason)
	}
}

func TestCorrelation_EmptyBatchYieldsEmptyFindings(t *testing.T) {
	a := NewCorrelationAnalyzer(config.Default().Analysis)

	findings, err := a.Analyze(context.Background(), &domain.Batch{})
	require.NoError(t, err)
	assert.Nil(t, findings.Correlations)
}

func TestPearson_ZeroVarianceYieldsZeroNotNaN(t *testing.T) {
	r := pearson([]float64{1, 1, 1}, []float64{0.1, 0.2, 0.3})
	assert.Equal(t, 0.0, r)
}
