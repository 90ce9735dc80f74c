package analyze

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// OpportunityAnalyzer scores favorable setups: momentum moves above the
// configured threshold, and grid-trading fit when intraday volatility sits
// inside the configured band (neither flat nor chaotic).
type OpportunityAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewOpportunityAnalyzer(cfg config.AnalysisConfig) *OpportunityAnalyzer {
	return &OpportunityAnalyzer{cfg: cfg}
}

func (a *OpportunityAnalyzer) Name() string { return "opportunity" }

func (a *OpportunityAnalyzer) Analyze(_ context.Context, batch *domain.Batch) (*Findings, error) {
	opportunities := make([]domain.Opportunity, 0, len(batch.Quotes))

	for _, q := range batch.Quotes {
		if opp, ok := a.momentum(q, batch); ok {
			opportunities = append(opportunities, opp)
		}
		if opp, ok := a.gridFit(q); ok {
			opportunities = append(opportunities, opp)
		}
	}

	sort.Slice(opportunities, func(i, j int) bool {
		if opportunities[i].Confidence != opportunities[j].Confidence {
			return opportunities[i].Confidence > opportunities[j].Confidence
		}
		return opportunities[i].ID < opportunities[j].ID
	})
	return &Findings{Opportunities: opportunities}, nil
}

func (a *OpportunityAnalyzer) momentum(q domain.MarketQuote, batch *domain.Batch) (domain.Opportunity, bool) {
	if q.ChangePercent < a.cfg.MomentumMinPct {
		return domain.Opportunity{}, false
	}

	evidence := []string{q.Symbol}
	mentions := 0
	for _, item := range batch.News {
		if containsSymbol(item, q.Symbol) {
			evidence = append(evidence, item.ID)
			mentions++
		}
	}

	confidence := clamp100(40 + q.ChangePercent*5 + float64(mentions)*5)
	if confidence < a.cfg.ConfidenceFloor {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		ID:         fmt.Sprintf("opp-momentum-%s", strings.ToLower(q.Symbol)),
		Kind:       domain.OpportunityMomentum,
		Symbol:     q.Symbol,
		Confidence: confidence,
		Timeframe:  domain.TimeframeShort,
		Rationale:  fmt.Sprintf("%s up %.1f%% with %d corroborating items", q.Symbol, q.ChangePercent, mentions),
		Evidence:   evidence,
	}, true
}

// gridFit flags assets whose intraday range sits inside the band while the
// net move stays small: oscillation without direction.
func (a *OpportunityAnalyzer) gridFit(q domain.MarketQuote) (domain.Opportunity, bool) {
	if q.Open <= 0 || q.High <= 0 || q.Low <= 0 {
		return domain.Opportunity{}, false
	}
	rangePct := (q.High - q.Low) / q.Open * 100
	if rangePct < a.cfg.GridBandLowPct || rangePct > a.cfg.GridBandHighPct {
		return domain.Opportunity{}, false
	}
	if math.Abs(q.ChangePercent) >= a.cfg.TrendMinChangePct {
		return domain.Opportunity{}, false
	}

	// Best fit at the middle of the band.
	mid := (a.cfg.GridBandLowPct + a.cfg.GridBandHighPct) / 2
	halfWidth := (a.cfg.GridBandHighPct - a.cfg.GridBandLowPct) / 2
	fit := 1 - math.Abs(rangePct-mid)/halfWidth
	confidence := clamp100(40 + fit*40)
	if confidence < a.cfg.ConfidenceFloor {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		ID:         fmt.Sprintf("opp-grid-%s", strings.ToLower(q.Symbol)),
		Kind:       domain.OpportunityGrid,
		Symbol:     q.Symbol,
		Confidence: confidence,
		Timeframe:  domain.TimeframeMedium,
		GridFit:    true,
		Rationale:  fmt.Sprintf("%s intraday range %.1f%% inside grid band with %.1f%% net move", q.Symbol, rangePct, q.ChangePercent),
		Evidence:   []string{q.Symbol},
	}, true
}
