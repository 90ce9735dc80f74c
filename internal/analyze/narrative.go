package analyze

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// NarrativeAnalyzer clusters items sharing overlapping keyword sets inside
// a bounded time window into evolving storylines. Strength grows with item
// count and recency; the timeline is the chronological list of contributing
// items.
type NarrativeAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewNarrativeAnalyzer(cfg config.AnalysisConfig) *NarrativeAnalyzer {
	return &NarrativeAnalyzer{cfg: cfg}
}

func (a *NarrativeAnalyzer) Name() string { return "narrative" }

func (a *NarrativeAnalyzer) Analyze(_ context.Context, batch *domain.Batch) (*Findings, error) {
	items := make([]domain.NewsItem, len(batch.News))
	copy(items, batch.News)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.Before(items[j].PublishedAt)
		}
		return items[i].ID < items[j].ID
	})

	window := time.Duration(a.cfg.NarrativeWindowHours) * time.Hour
	used := make([]bool, len(items))
	var narratives []domain.Narrative

	// Greedy seeding in chronological order keeps clustering deterministic.
	for i, seed := range items {
		if used[i] {
			continue
		}
		cluster := []domain.NewsItem{seed}
		used[i] = true
		for j := i + 1; j < len(items); j++ {
			if used[j] {
				continue
			}
			if items[j].PublishedAt.Sub(seed.PublishedAt) > window {
				break
			}
			if keywordOverlap(seed.Keywords, items[j].Keywords) >= a.cfg.NarrativeMinOverlap {
				cluster = append(cluster, items[j])
				used[j] = true
			}
		}
		if len(cluster) < 2 {
			continue
		}
		if n, ok := a.build(cluster, batch.AsOf); ok {
			narratives = append(narratives, n)
		}
	}

	sort.Slice(narratives, func(i, j int) bool {
		if narratives[i].Strength != narratives[j].Strength {
			return narratives[i].Strength > narratives[j].Strength
		}
		return narratives[i].Theme < narratives[j].Theme
	})
	return &Findings{Narratives: narratives}, nil
}

func (a *NarrativeAnalyzer) build(cluster []domain.NewsItem, asOf time.Time) (domain.Narrative, bool) {
	shared := sharedKeywords(cluster)
	if len(shared) == 0 {
		return domain.Narrative{}, false
	}

	timeline := make([]domain.TimelineEntry, 0, len(cluster))
	evidence := make([]string, 0, len(cluster))
	recent := 0
	for _, item := range cluster {
		timeline = append(timeline, domain.TimelineEntry{
			Timestamp: item.PublishedAt,
			ItemID:    item.ID,
			Title:     item.Title,
		})
		evidence = append(evidence, item.ID)
		if asOf.Sub(item.PublishedAt).Hours() <= 24 {
			recent++
		}
	}

	strength := clamp100(float64(len(cluster))*15 + float64(recent)*10)
	if strength < a.cfg.ConfidenceFloor {
		return domain.Narrative{}, false
	}

	theme := strings.Join(shared, "/")
	return domain.Narrative{
		ID:        fmt.Sprintf("narrative-%s", strings.ReplaceAll(theme, " ", "-")),
		Theme:     theme,
		Keywords:  shared,
		Strength:  strength,
		Timeframe: recencyTimeframe(recent, len(cluster)),
		Timeline:  timeline,
		Evidence:  evidence,
	}, true
}

func keywordOverlap(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, kw := range a {
		set[kw] = struct{}{}
	}
	n := 0
	for _, kw := range b {
		if _, ok := set[kw]; ok {
			n++
		}
	}
	return n
}

// sharedKeywords returns the keywords present in every item of the cluster,
// sorted for stable themes.
func sharedKeywords(cluster []domain.NewsItem) []string {
	counts := make(map[string]int)
	for _, item := range cluster {
		seen := make(map[string]struct{})
		for _, kw := range item.Keywords {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			counts[kw]++
		}
	}
	var shared []string
	for kw, n := range counts {
		if n == len(cluster) {
			shared = append(shared, kw)
		}
	}
	sort.Strings(shared)
	return shared
}
