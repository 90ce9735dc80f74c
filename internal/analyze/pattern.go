package analyze

import (
	"context"
	"fmt"
	"sort"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// PatternAnalyzer detects recurring topical clusters: keywords shared by
// enough items in the batch become a pattern, scored by cluster size and
// recency.
type PatternAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewPatternAnalyzer(cfg config.AnalysisConfig) *PatternAnalyzer {
	return &PatternAnalyzer{cfg: cfg}
}

func (a *PatternAnalyzer) Name() string { return "pattern" }

func (a *PatternAnalyzer) Analyze(_ context.Context, batch *domain.Batch) (*Findings, error) {
	clusters := make(map[string][]domain.NewsItem)
	for _, item := range batch.News {
		for _, kw := range item.Keywords {
			clusters[kw] = append(clusters[kw], item)
		}
	}

	themes := make([]string, 0, len(clusters))
	for theme, items := range clusters {
		if len(items) >= a.cfg.PatternMinItems {
			themes = append(themes, theme)
		}
	}
	sort.Strings(themes)

	patterns := make([]domain.Pattern, 0, len(themes))
	for _, theme := range themes {
		items := clusters[theme]
		evidence := make([]string, 0, len(items))
		recent := 0
		for _, item := range items {
			evidence = append(evidence, item.ID)
			if batch.AsOf.Sub(item.PublishedAt).Hours() <= 24 {
				recent++
			}
		}

		confidence := clamp100(float64(len(items))*20 + float64(recent)*5)
		if confidence < a.cfg.ConfidenceFloor {
			continue
		}

		patterns = append(patterns, domain.Pattern{
			ID:         fmt.Sprintf("pattern-%s", theme),
			Theme:      theme,
			ItemCount:  len(items),
			Confidence: confidence,
			Timeframe:  recencyTimeframe(recent, len(items)),
			Evidence:   evidence,
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Confidence != patterns[j].Confidence {
			return patterns[i].Confidence > patterns[j].Confidence
		}
		return patterns[i].Theme < patterns[j].Theme
	})

	return &Findings{Patterns: patterns}, nil
}

func recencyTimeframe(recent, total int) domain.Timeframe {
	switch {
	case total == 0:
		return domain.TimeframeLong
	case recent == total:
		return domain.TimeframeImmediate
	case recent*2 >= total:
		return domain.TimeframeShort
	default:
		return domain.TimeframeMedium
	}
}
