package decision

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sitroom/sitrep/internal/analyze"
	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// Engine is the pure fusion step: it consumes the pattern/trend/risk/
// opportunity findings and produces ranked Decision records. It never
// touches the batch or the other finding types.
type Engine struct {
	cfg config.FusionConfig
}

func New(cfg config.FusionConfig) *Engine {
	return &Engine{cfg: cfg}
}

// contributorKind tags which finding type produced a contributor, so that
// action selection never has to guess the type from its weight.
type contributorKind int

const (
	kindTrend contributorKind = iota
	kindPattern
	kindRisk
	kindOpportunity
)

// contributor is one finding feeding a decision.
type contributor struct {
	kind       contributorKind
	weight     float64
	confidence float64
	rationale  string
	evidence   []string
}

// Fuse combines the four analyzer outputs into ranked decisions. Malformed
// input (a contributing finding with no evidence) is a FusionError: the run
// fails and the previous cached result stays valid.
func (e *Engine) Fuse(findings *analyze.Findings, now time.Time) ([]domain.Decision, error) {
	if findings == nil {
		return nil, &domain.FusionError{Reason: "nil findings"}
	}

	groups := make(map[string][]contributor)
	add := func(subject string, c contributor) error {
		if len(c.evidence) == 0 {
			return &domain.FusionError{Reason: fmt.Sprintf("finding for %q carries no evidence", subject)}
		}
		groups[subject] = append(groups[subject], c)
		return nil
	}

	for _, t := range findings.Trends {
		err := add(t.Subject, contributor{
			kind:       kindTrend,
			weight:     e.cfg.TrendWeight,
			confidence: t.Confidence,
			rationale:  fmt.Sprintf("trend %s %s (strength %.0f)", t.Subject, t.Direction, t.Strength),
			evidence:   t.Evidence,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, p := range findings.Patterns {
		err := add(p.Theme, contributor{
			kind:       kindPattern,
			weight:     e.cfg.PatternWeight,
			confidence: p.Confidence,
			rationale:  fmt.Sprintf("pattern %q across %d items", p.Theme, p.ItemCount),
			evidence:   p.Evidence,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, r := range findings.Risks {
		subject := string(r.Category)
		if subject == "" {
			subject = r.Title
		}
		err := add(subject, contributor{
			kind:       kindRisk,
			weight:     e.cfg.RiskWeight,
			confidence: r.Confidence,
			rationale:  fmt.Sprintf("risk %s at level %s (score %.0f)", r.Title, r.Level, r.Score),
			evidence:   r.Evidence,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, o := range findings.Opportunities {
		err := add(o.Symbol, contributor{
			kind:       kindOpportunity,
			weight:     e.cfg.OpportunityWeight,
			confidence: o.Confidence,
			rationale:  o.Rationale,
			evidence:   o.Evidence,
		})
		if err != nil {
			return nil, err
		}
	}

	subjects := make([]string, 0, len(groups))
	for s := range groups {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	decisions := make([]domain.Decision, 0, len(subjects))
	for _, subject := range subjects {
		decisions = append(decisions, e.decide(subject, groups[subject], now))
	}

	sort.Slice(decisions, func(i, j int) bool {
		if decisions[i].Confidence != decisions[j].Confidence {
			return decisions[i].Confidence > decisions[j].Confidence
		}
		return decisions[i].Subject < decisions[j].Subject
	})
	return decisions, nil
}

func (e *Engine) decide(subject string, contributors []contributor, now time.Time) domain.Decision {
	var weighted, totalWeight float64
	rationale := make([]string, 0, len(contributors))
	seen := make(map[string]struct{})
	var evidence []string
	riskWeight, oppWeight := 0.0, 0.0

	for _, c := range contributors {
		weighted += c.confidence * c.weight
		totalWeight += c.weight
		rationale = append(rationale, c.rationale)
		for _, ev := range c.evidence {
			if _, ok := seen[ev]; ok {
				continue
			}
			seen[ev] = struct{}{}
			evidence = append(evidence, ev)
		}
		switch c.kind {
		case kindRisk:
			riskWeight += c.weight
		case kindTrend, kindOpportunity:
			oppWeight += c.weight
		}
	}

	confidence := 0.0
	if totalWeight > 0 {
		confidence = weighted / totalWeight
	}

	action := domain.ActionWatch
	switch {
	case riskWeight > oppWeight:
		action = domain.ActionMitigate
	case confidence >= 60:
		action = domain.ActionAct
	}

	return domain.Decision{
		ID:         fmt.Sprintf("decision-%s", strings.ReplaceAll(strings.ToLower(subject), " ", "-")),
		Subject:    subject,
		Action:     action,
		Confidence: confidence,
		Rationale:  rationale,
		Evidence:   evidence,
		CreatedAt:  now,
		ExpiresAt:  now.Add(e.cfg.DecisionTTL),
	}
}

// OverallConfidence computes the run-level confidence with the same fixed
// weights used for fusion: the weighted mean of each finding type's mean
// confidence, over the types that produced anything.
func (e *Engine) OverallConfidence(findings *analyze.Findings) float64 {
	var weighted, totalWeight float64
	accumulate := func(mean float64, n int, weight float64) {
		if n == 0 {
			return
		}
		weighted += mean * weight
		totalWeight += weight
	}

	accumulate(meanTrend(findings.Trends), len(findings.Trends), e.cfg.TrendWeight)
	accumulate(meanPattern(findings.Patterns), len(findings.Patterns), e.cfg.PatternWeight)
	accumulate(meanRisk(findings.Risks), len(findings.Risks), e.cfg.RiskWeight)
	accumulate(meanOpportunity(findings.Opportunities), len(findings.Opportunities), e.cfg.OpportunityWeight)

	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

func meanTrend(ts []domain.Trend) float64 {
	var sum float64
	for _, t := range ts {
		sum += t.Confidence
	}
	if len(ts) == 0 {
		return 0
	}
	return sum / float64(len(ts))
}

func meanPattern(ps []domain.Pattern) float64 {
	var sum float64
	for _, p := range ps {
		sum += p.Confidence
	}
	if len(ps) == 0 {
		return 0
	}
	return sum / float64(len(ps))
}

func meanRisk(rs []domain.Risk) float64 {
	var sum float64
	for _, r := range rs {
		sum += r.Confidence
	}
	if len(rs) == 0 {
		return 0
	}
	return sum / float64(len(rs))
}

func meanOpportunity(os []domain.Opportunity) float64 {
	var sum float64
	for _, o := range os {
		sum += o.Confidence
	}
	if len(os) == 0 {
		return 0
	}
	return sum / float64(len(os))
}
