package tagger

import (
	"testing"
	"time"

	"sentinela/internal/core"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestTagMatchesTitleAndDescription(t *testing.T) {
	articles := []core.Article{
		{Title: "Prefeito anuncia nova obra", Description: "Detalhes do projeto"},
		{Title: "Economia local cresce", Description: "Analistas citam o prefeito"},
		{Title: "Esportes: final do campeonato", Description: "Nada relacionado"},
	}

	tagged := Tag(articles, []string{"Prefeito"})

	if len(tagged) != 2 {
		t.Fatalf("expected 2 tagged articles, got %d", len(tagged))
	}
	for _, article := range tagged {
		if len(article.MatchedTerms) != 1 || article.MatchedTerms[0] != "Prefeito" {
			t.Errorf("unexpected matched terms: %v", article.MatchedTerms)
		}
	}
}

func TestTagIsCaseInsensitive(t *testing.T) {
	articles := []core.Article{
		{Title: "REFORMA TRIBUTÁRIA avança no congresso"},
	}

	tagged := Tag(articles, []string{"reforma tributária"})

	if len(tagged) != 1 {
		t.Fatalf("expected 1 tagged article, got %d", len(tagged))
	}
}

func TestTagMultipleTerms(t *testing.T) {
	articles := []core.Article{
		{Title: "Prefeito debate reforma com vereadores"},
	}

	tagged := Tag(articles, []string{"Prefeito", "reforma", "senador"})

	if len(tagged) != 1 {
		t.Fatalf("expected 1 tagged article, got %d", len(tagged))
	}
	if len(tagged[0].MatchedTerms) != 2 {
		t.Errorf("expected 2 matched terms, got %v", tagged[0].MatchedTerms)
	}
}

func TestTagBreakingWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	articles := []core.Article{
		{Title: "Prefeito fala agora", PublishedAt: timePtr(now.Add(-30 * time.Minute))},
		{Title: "Prefeito falou ontem", PublishedAt: timePtr(now.Add(-3 * time.Hour))},
		{Title: "Prefeito sem data"},
	}

	tagged := tagAt(articles, []string{"Prefeito"}, now)

	if len(tagged) != 3 {
		t.Fatalf("expected 3 tagged articles, got %d", len(tagged))
	}
	if !tagged[0].IsBreaking {
		t.Error("recent article should be breaking")
	}
	if tagged[1].IsBreaking {
		t.Error("3h old article should not be breaking")
	}
	if tagged[2].IsBreaking {
		t.Error("undated article should not be breaking")
	}
}

func TestTagDropsUnmatched(t *testing.T) {
	articles := []core.Article{
		{Title: "Nada a ver com os termos"},
	}

	tagged := Tag(articles, []string{"Prefeito"})
	if len(tagged) != 0 {
		t.Fatalf("expected no tagged articles, got %d", len(tagged))
	}
}
