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

// TrendAnalyzer derives directional signals per asset from the quote batch,
// with news items mentioning the symbol boosting confidence, and per region
// from the density of elevated-alert items.
type TrendAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewTrendAnalyzer(cfg config.AnalysisConfig) *TrendAnalyzer {
	return &TrendAnalyzer{cfg: cfg}
}

func (a *TrendAnalyzer) Name() string { return "trend" }

func (a *TrendAnalyzer) Analyze(_ context.Context, batch *domain.Batch) (*Findings, error) {
	trends := make([]domain.Trend, 0, len(batch.Quotes))

	for _, q := range batch.Quotes {
		direction := domain.TrendSideways
		if q.ChangePercent >= a.cfg.TrendMinChangePct {
			direction = domain.TrendUp
		} else if q.ChangePercent <= -a.cfg.TrendMinChangePct {
			direction = domain.TrendDown
		}

		strength := clamp100(math.Abs(q.ChangePercent) * 10)
		evidence := []string{q.Symbol}

		// News corroboration: items mentioning the symbol.
		mentions := 0
		for _, item := range batch.News {
			if containsSymbol(item, q.Symbol) {
				evidence = append(evidence, item.ID)
				mentions++
			}
		}

		confidence := clamp100(strength*0.8 + float64(mentions)*10)
		if confidence < a.cfg.ConfidenceFloor {
			continue
		}

		trends = append(trends, domain.Trend{
			ID:         fmt.Sprintf("trend-%s", strings.ToLower(q.Symbol)),
			Subject:    q.Symbol,
			Direction:  direction,
			Strength:   strength,
			Confidence: confidence,
			Timeframe:  domain.TimeframeShort,
			Evidence:   evidence,
		})
	}

	trends = append(trends, a.regionTrends(batch)...)

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Confidence != trends[j].Confidence {
			return trends[i].Confidence > trends[j].Confidence
		}
		return trends[i].Subject < trends[j].Subject
	})

	return &Findings{Trends: trends}, nil
}

// regionTrends flags regions where a majority of items carry an elevated
// alert level.
func (a *TrendAnalyzer) regionTrends(batch *domain.Batch) []domain.Trend {
	type bucket struct {
		total    int
		elevated int
		evidence []string
	}
	byRegion := make(map[domain.Region]*bucket)
	for _, item := range batch.News {
		if item.Region == "" {
			continue
		}
		b := byRegion[item.Region]
		if b == nil {
			b = &bucket{}
			byRegion[item.Region] = b
		}
		b.total++
		if item.AlertLevel.Rank() >= domain.AlertMedium.Rank() {
			b.elevated++
			b.evidence = append(b.evidence, item.ID)
		}
	}

	regions := make([]domain.Region, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	var trends []domain.Trend
	for _, region := range regions {
		b := byRegion[region]
		if b.elevated == 0 {
			continue
		}
		ratio := float64(b.elevated) / float64(b.total)
		confidence := clamp100(ratio*60 + float64(b.elevated)*10)
		if confidence < a.cfg.ConfidenceFloor {
			continue
		}
		trends = append(trends, domain.Trend{
			ID:         fmt.Sprintf("trend-region-%s", region),
			Subject:    string(region),
			Direction:  domain.TrendDown, // elevated alerts read as deterioration
			Strength:   clamp100(ratio * 100),
			Confidence: confidence,
			Timeframe:  domain.TimeframeMedium,
			Evidence:   b.evidence,
		})
	}
	return trends
}

func containsSymbol(item domain.NewsItem, symbol string) bool {
	lower := strings.ToLower(symbol)
	for _, kw := range item.Keywords {
		if kw == lower {
			return true
		}
	}
	text := strings.ToLower(item.Title + " " + item.Description)
	return strings.Contains(text, lower)
}
