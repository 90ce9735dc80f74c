package analyze

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// probability assigned per alert level; items below medium carry none.
var riskProbability = map[domain.AlertLevel]float64{
	domain.AlertCritical: 0.8,
	domain.AlertHigh:     0.6,
	domain.AlertMedium:   0.4,
}

// impact weight per category; unknown categories get the floor weight.
var riskImpact = map[domain.Category]float64{
	domain.CategoryGeopolitics: 0.9,
	domain.CategoryMarkets:     0.8,
	domain.CategoryEconomy:     0.8,
	domain.CategorySecurity:    0.7,
	domain.CategoryEnergy:      0.7,
	domain.CategoryRegulation:  0.5,
	domain.CategoryTechnology:  0.5,
}

const riskImpactFloor = 0.4

// RiskAnalyzer scores threats by probability x impact, clustering elevated
// items per category and flagging sharp market drawdowns.
type RiskAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewRiskAnalyzer(cfg config.AnalysisConfig) *RiskAnalyzer {
	return &RiskAnalyzer{cfg: cfg}
}

func (a *RiskAnalyzer) Name() string { return "risk" }

func (a *RiskAnalyzer) Analyze(_ context.Context, batch *domain.Batch) (*Findings, error) {
	risks := a.newsRisks(batch)
	risks = append(risks, a.marketRisks(batch)...)

	sort.Slice(risks, func(i, j int) bool {
		if risks[i].Score != risks[j].Score {
			return risks[i].Score > risks[j].Score
		}
		return risks[i].ID < risks[j].ID
	})
	return &Findings{Risks: risks}, nil
}

func (a *RiskAnalyzer) newsRisks(batch *domain.Batch) []domain.Risk {
	type cluster struct {
		items []domain.NewsItem
		top   domain.AlertLevel
	}
	clusters := make(map[domain.Category]*cluster)
	for _, item := range batch.News {
		if riskProbability[item.AlertLevel] == 0 {
			continue
		}
		c := clusters[item.Category]
		if c == nil {
			c = &cluster{top: item.AlertLevel}
			clusters[item.Category] = c
		}
		c.items = append(c.items, item)
		if item.AlertLevel.Rank() > c.top.Rank() {
			c.top = item.AlertLevel
		}
	}

	categories := make([]domain.Category, 0, len(clusters))
	for cat := range clusters {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	risks := make([]domain.Risk, 0, len(categories))
	for _, cat := range categories {
		c := clusters[cat]
		probability := riskProbability[c.top]
		impact, ok := riskImpact[cat]
		if !ok {
			impact = riskImpactFloor
		}
		score := probability * impact * 100

		evidence := make([]string, 0, len(c.items))
		region := domain.Region("")
		for _, item := range c.items {
			evidence = append(evidence, item.ID)
			if region == "" {
				region = item.Region
			}
		}

		confidence := clamp100(score*0.6 + float64(len(c.items))*10)
		if confidence < a.cfg.ConfidenceFloor {
			continue
		}

		name := string(cat)
		if name == "" {
			name = "uncategorized"
		}
		risks = append(risks, domain.Risk{
			ID:          fmt.Sprintf("risk-%s", name),
			Title:       fmt.Sprintf("%s threat cluster (%d items)", name, len(c.items)),
			Category:    cat,
			Region:      region,
			Probability: probability,
			Impact:      impact,
			Score:       score,
			Level:       bucketRisk(score),
			Confidence:  confidence,
			Timeframe:   domain.TimeframeShort,
			Evidence:    evidence,
		})
	}
	return risks
}

func (a *RiskAnalyzer) marketRisks(batch *domain.Batch) []domain.Risk {
	var risks []domain.Risk
	for _, q := range batch.Quotes {
		if q.ChangePercent > a.cfg.RiskMarketDropPct {
			continue
		}
		probability := 0.6
		impact := clampFraction(-q.ChangePercent / 10)
		score := probability * impact * 100
		confidence := clamp100(score * 1.2)
		if confidence < a.cfg.ConfidenceFloor {
			continue
		}
		risks = append(risks, domain.Risk{
			ID:          fmt.Sprintf("risk-drawdown-%s", strings.ToLower(q.Symbol)),
			Title:       fmt.Sprintf("%s drawdown %.1f%%", q.Symbol, q.ChangePercent),
			Category:    domain.CategoryMarkets,
			Probability: probability,
			Impact:      impact,
			Score:       score,
			Level:       bucketRisk(score),
			Confidence:  confidence,
			Timeframe:   domain.TimeframeImmediate,
			Evidence:    []string{q.Symbol},
		})
	}
	return risks
}

// bucketRisk maps a probability x impact score (0-100) onto the four
// severity buckets.
func bucketRisk(score float64) domain.AlertLevel {
	switch {
	case score >= 64:
		return domain.AlertCritical
	case score >= 40:
		return domain.AlertHigh
	case score >= 20:
		return domain.AlertMedium
	default:
		return domain.AlertLow
	}
}

func clampFraction(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
