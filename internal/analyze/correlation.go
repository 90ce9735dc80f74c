package analyze

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// CorrelationAnalyzer computes pairwise Pearson correlation over the
// overlapping window of each symbol's return series. Symbols without enough
// overlapping samples are excluded with a reason rather than producing NaN.
// The matrix is symmetric with a unit diagonal by construction.
type CorrelationAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewCorrelationAnalyzer(cfg config.AnalysisConfig) *CorrelationAnalyzer {
	return &CorrelationAnalyzer{cfg: cfg}
}

func (a *CorrelationAnalyzer) Name() string { return "correlation" }

func (a *CorrelationAnalyzer) Analyze(_ context.Context, batch *domain.Batch) (*Findings, error) {
	if len(batch.Quotes) == 0 {
		return &Findings{}, nil
	}

	var assets []string
	var excluded []domain.ExcludedAsset
	for _, q := range batch.Quotes {
		series := batch.Returns[q.Symbol]
		switch {
		case len(series) == 0:
			excluded = append(excluded, domain.ExcludedAsset{
				Symbol: q.Symbol,
				Reason: "no return series in batch",
			})
		case len(series) < a.cfg.CorrelationMinSamples:
			excluded = append(excluded, domain.ExcludedAsset{
				Symbol: q.Symbol,
				Reason: fmt.Sprintf("only %d samples, need %d", len(series), a.cfg.CorrelationMinSamples),
			})
		default:
			assets = append(assets, q.Symbol)
		}
	}
	sort.Strings(assets)

	if len(assets) == 0 {
		if len(excluded) == 0 {
			return &Findings{}, nil
		}
		return &Findings{Correlations: &domain.CorrelationMatrix{Excluded: excluded}}, nil
	}

	cells := make([][]float64, len(assets))
	for i := range cells {
		cells[i] = make([]float64, len(assets))
		cells[i][i] = 1.0
	}

	var pairs []domain.CorrelatedPair
	for i := 0; i < len(assets); i++ {
		for j := i + 1; j < len(assets); j++ {
			x, y := overlap(batch.Returns[assets[i]], batch.Returns[assets[j]])
			r := pearson(x, y)
			cells[i][j] = r
			cells[j][i] = r

			if math.Abs(r) >= a.cfg.CorrelationCutoff {
				pairs = append(pairs, domain.CorrelatedPair{
					Base:        assets[i],
					Quote:       assets[j],
					Coefficient: r,
					Strength:    bucketPair(math.Abs(r)),
					SampleSize:  len(x),
				})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].Coefficient), math.Abs(pairs[j].Coefficient)
		if ai != aj {
			return ai > aj
		}
		return pairs[i].Base+pairs[i].Quote < pairs[j].Base+pairs[j].Quote
	})

	return &Findings{Correlations: &domain.CorrelationMatrix{
		Assets:   assets,
		Cells:    cells,
		Pairs:    pairs,
		Excluded: excluded,
	}}, nil
}

// overlap aligns two series on their most recent samples.
func overlap(a, b []float64) ([]float64, []float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return a[len(a)-n:], b[len(b)-n:]
}

// pearson computes the correlation coefficient; a zero-variance series
// yields 0 rather than NaN.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}

	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func bucketPair(abs float64) domain.PairStrength {
	if abs >= 0.75 {
		return domain.PairStrong
	}
	return domain.PairModerate
}
