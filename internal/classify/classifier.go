package classify

import (
	"strings"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// Classifier annotates raw news items with alert level, category, region
// and keyword tags. It holds its own copies of the dictionaries and never
// mutates shared state; Classify returns an annotated copy of the item.
type Classifier struct {
	tiers      []config.TierRule
	categories []config.CategoryRule
	regions    []config.RegionRule
}

// New builds a classifier from the configured dictionaries. Tiers are
// reordered by descending severity so that the first match short-circuits.
func New(cfg config.ClassifierConfig) *Classifier {
	tiers := make([]config.TierRule, 0, len(cfg.Tiers))
	for _, level := range domain.TierOrder {
		for _, tier := range cfg.Tiers {
			if tier.Level == level {
				tiers = append(tiers, tier)
			}
		}
	}
	return &Classifier{
		tiers:      tiers,
		categories: cfg.Categories,
		regions:    cfg.Regions,
	}
}

// Classify returns an annotated copy of the item. A missing title is a
// ClassificationError; the caller excludes that item, not the batch.
func (c *Classifier) Classify(item domain.NewsItem) (domain.NewsItem, error) {
	if item.Title == "" {
		return domain.NewsItem{}, &domain.ClassificationError{ItemID: item.ID, Field: "title"}
	}

	text := strings.ToLower(item.Title + " " + item.Description)
	out := item

	out.AlertLevel = c.alertLevel(text)

	// Category matching supplements keywords. A source-provided category is
	// kept; only an unset one is filled with the first match.
	var hits []string
	for _, rule := range c.categories {
		if kws := allHits(text, rule.Keywords); len(kws) > 0 {
			if out.Category == "" {
				out.Category = rule.Category
			}
			hits = append(hits, kws...)
		}
	}

	if out.Region == "" {
		for _, rule := range c.regions {
			if _, ok := firstHit(text, rule.Keywords); ok {
				out.Region = rule.Region
				break
			}
		}
	}

	out.Keywords = mergeKeywords(item.Keywords, out.Category, out.Region, hits)
	return out, nil
}

// alertLevel walks the tiers in descending severity; the first tier with
// any hit wins, no match means none.
func (c *Classifier) alertLevel(text string) domain.AlertLevel {
	for _, tier := range c.tiers {
		if _, ok := firstHit(text, tier.Keywords); ok {
			return tier.Level
		}
	}
	return domain.AlertNone
}

func firstHit(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// allHits returns every dictionary keyword present in the text; category
// keywords all contribute to the item's tags, not just the first match.
func allHits(text string, keywords []string) []string {
	var hits []string
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			hits = append(hits, kw)
		}
	}
	return hits
}

// mergeKeywords builds the deduplicated union of existing keywords, the
// item's category and region, and dictionary hits, preserving first-seen
// order.
func mergeKeywords(existing []string, category domain.Category, region domain.Region, hits []string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0, len(existing)+len(hits)+2)
	add := func(kw string) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		merged = append(merged, kw)
	}

	for _, kw := range existing {
		add(kw)
	}
	add(string(category))
	add(string(region))
	for _, kw := range hits {
		add(kw)
	}
	return merged
}
