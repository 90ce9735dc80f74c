package analyze

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

// CharacterAnalyzer ranks recurring named entities by influence. Entities
// come from a configured dictionary (people/orgs/countries), not NLP;
// influence aggregates mention frequency and the alert levels of the items
// mentioning them.
type CharacterAnalyzer struct {
	cfg config.AnalysisConfig
}

func NewCharacterAnalyzer(cfg config.AnalysisConfig) *CharacterAnalyzer {
	return &CharacterAnalyzer{cfg: cfg}
}

func (a *CharacterAnalyzer) Name() string { return "character" }

func (a *CharacterAnalyzer) Analyze(_ context.Context, batch *domain.Batch) (*Findings, error) {
	type tally struct {
		rule     config.EntityRule
		mentions int
		alertSum int
		evidence []string
	}
	tallies := make([]*tally, len(a.cfg.Entities))
	for i, rule := range a.cfg.Entities {
		tallies[i] = &tally{rule: rule}
	}

	for _, item := range batch.News {
		text := strings.ToLower(item.Title + " " + item.Description)
		for _, t := range tallies {
			for _, alias := range t.rule.Aliases {
				if strings.Contains(text, strings.ToLower(alias)) {
					t.mentions++
					t.alertSum += item.AlertLevel.Rank()
					t.evidence = append(t.evidence, item.ID)
					break
				}
			}
		}
	}

	characters := make([]domain.MainCharacter, 0, len(tallies))
	for _, t := range tallies {
		if t.mentions == 0 {
			continue
		}
		influence := clamp100(float64(t.mentions)*10 + float64(t.alertSum)*5)
		characters = append(characters, domain.MainCharacter{
			ID:        fmt.Sprintf("character-%s", strings.ReplaceAll(strings.ToLower(t.rule.Name), " ", "-")),
			Name:      t.rule.Name,
			Type:      t.rule.Type,
			Mentions:  t.mentions,
			Influence: influence,
			Evidence:  t.evidence,
		})
	}

	sort.Slice(characters, func(i, j int) bool {
		if characters[i].Influence != characters[j].Influence {
			return characters[i].Influence > characters[j].Influence
		}
		return characters[i].Name < characters[j].Name
	})

	if a.cfg.MaxCharacters > 0 && len(characters) > a.cfg.MaxCharacters {
		characters = characters[:a.cfg.MaxCharacters]
	}
	return &Findings{Characters: characters}, nil
}
