package analyze

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
)

func TestCharacters_RankedByInfluence(t *testing.T) {
	a := NewCharacterAnalyzer(config.Default().Analysis)
	now := time.Now()

	batch := &domain.Batch{
		AsOf: now,
		News: []domain.NewsItem{
			{ID: "n1", Title: "Fed signals a pause", AlertLevel: domain.AlertMedium},
			{ID: "n2", Title: "Federal Reserve minutes released", AlertLevel: domain.AlertLow},
			{ID: "n3", Title: "FOMC statement moves markets", AlertLevel: domain.AlertHigh},
			{ID: "n4", Title: "ECB holds rates", AlertLevel: domain.AlertLow},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(findings.Characters), 2)

	top := findings.Characters[0]
	assert.Equal(t, "Federal Reserve", top.Name)
	assert.Equal(t, domain.CharacterOrg, top.Type)
	assert.Equal(t, 3, top.Mentions)
	assert.ElementsMatch(t, []string{"n1", "n2", "n3"}, top.Evidence)

	for i := 1; i < len(findings.Characters); i++ {
		assert.GreaterOrEqual(t, findings.Characters[i-1].Influence, findings.Characters[i].Influence)
	}
}

func TestCharacters_AliasMatchCountsOncePerItem(t *testing.T) {
	a := NewCharacterAnalyzer(config.Default().Analysis)

	batch := &domain.Batch{
		AsOf: time.Now(),
		News: []domain.NewsItem{
			{ID: "n1", Title: "Fed and FOMC both named", Description: "federal reserve outlook"},
		},
	}

	findings, err := a.Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, findings.Characters, 1)
	assert.Equal(t, 1, findings.Characters[0].Mentions)
}

func TestCharacters_TruncatedToMaxCharacters(t *testing.T) {
	cfg := config.Default().Analysis
	cfg.MaxCharacters = 2
	cfg.Entities = []config.EntityRule{
		{Name: "Alpha", Type: domain.CharacterOrg, Aliases: []string{"alpha"}},
		{Name: "Bravo", Type: domain.CharacterOrg, Aliases: []string{"bravo"}},
		{Name: "Charlie", Type: domain.CharacterOrg, Aliases: []string{"charlie"}},
	}
	a := NewCharacterAnalyzer(cfg)

	news := make([]domain.NewsItem, 0, 6)
	for i, name := range []string{"alpha", "alpha", "alpha", "bravo", "bravo", "charlie"} {
		news = append(news, domain.NewsItem{ID: fmt.Sprintf("n%d", i), Title: name + " in the headlines"})
	}

	findings, err := a.Analyze(context.Background(), &domain.Batch{AsOf: time.Now(), News: news})
	require.NoError(t, err)
	require.Len(t, findings.Characters, 2)
	assert.Equal(t, "Alpha", findings.Characters[0].Name)
	assert.Equal(t, "Bravo", findings.Characters[1].Name)
}

func TestCharacters_NoMentionsNoFindings(t *testing.T) {
	a := NewCharacterAnalyzer(config.Default().Analysis)

	findings, err := a.Analyze(context.Background(), &domain.Batch{
		AsOf: time.Now(),
		News: []domain.NewsItem{{ID: "n1", Title: "quiet local story"}},
	})
	require.NoError(t, err)
	assert.Empty(t, findings.Characters)
}
