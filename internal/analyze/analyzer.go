package analyze

import (
	"context"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// Findings is the union output of the analyzer set. Each analyzer fills
// only its own slice; the orchestrator merges them into one result.
type Findings struct {
	Patterns      []domain.Pattern
	Trends        []domain.Trend
	Risks         []domain.Risk
	Opportunities []domain.Opportunity
	Correlations  *domain.CorrelationMatrix
	Narratives    []domain.Narrative
	Characters    []domain.MainCharacter
}

// Analyzer is the single capability contract shared by all seven variants:
// batch in, findings out. Implementations must be deterministic for a given
// batch, must not mutate it, must drop findings below the configured
// confidence floor, and must return empty findings (not an error) for an
// empty batch.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, batch *domain.Batch) (*Findings, error)
}

// All returns the full analyzer set in fixed dispatch order.
func All(cfg config.AnalysisConfig) []Analyzer {
	return []Analyzer{
		NewPatternAnalyzer(cfg),
		NewTrendAnalyzer(cfg),
		NewRiskAnalyzer(cfg),
		NewOpportunityAnalyzer(cfg),
		NewCorrelationAnalyzer(cfg),
		NewNarrativeAnalyzer(cfg),
		NewCharacterAnalyzer(cfg),
	}
}

func clamp100(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
