// Package metrics aggregates tagged articles into per-term and global
// measurements for the current analysis cycle.
package metrics

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"sentinela/internal/core"
)

// PerTerm builds TermMetrics for every watch term from the tagged article
// set. Terms with no matching articles still get an entry so downstream
// consumers see the full term list each cycle.
func PerTerm(articles []core.TaggedArticle, watchwords []string) []core.TermMetrics {
	byTerm := make(map[string][]core.TaggedArticle, len(watchwords))
	for _, article := range articles {
		for _, term := range article.MatchedTerms {
			byTerm[term] = append(byTerm[term], article)
		}
	}

	perTerm := make([]core.TermMetrics, 0, len(watchwords))
	for _, term := range watchwords {
		termArticles := byTerm[term]

		var breaking []core.TaggedArticle
		var hourly [24]int
		titles := make([]string, 0, len(termArticles))

		for _, article := range termArticles {
			titles = append(titles, article.Title)
			if article.IsBreaking {
				breaking = append(breaking, article)
			}
			if article.PublishedAt != nil {
				hourly[article.PublishedAt.Hour()]++
			}
		}

		perTerm = append(perTerm, core.TermMetrics{
			Term:               term,
			Mentions:           len(termArticles),
			Articles:           termArticles,
			Breaking:           breaking,
			HourlyDistribution: hourly,
			TitlesHash:         TitlesHash(titles),
		})
	}
	return perTerm
}

// Global rolls per-term metrics up into a session-wide summary. Mentions
// count every term match, so an article matching two terms counts twice.
func Global(perTerm []core.TermMetrics, trend core.TrendDirection) core.GlobalMetrics {
	global := core.GlobalMetrics{OverallTrend: trend}

	var sentimentSum float64
	var sentimentCount int
	var hottestMentions int

	for _, tm := range perTerm {
		global.TotalMentions += tm.Mentions
		if tm.Sentiment != nil {
			sentimentSum += tm.Sentiment.Score
			sentimentCount++
		}
		if tm.Mentions > hottestMentions {
			hottestMentions = tm.Mentions
			global.HottestTerm = tm.Term
		}
	}

	if sentimentCount > 0 {
		avg := sentimentSum / float64(sentimentCount)
		global.AvgSentiment = &avg
	}
	return global
}

// TitlesHash produces a short change-detection key over a title set.
// Stable for the same titles in the same order.
func TitlesHash(titles []string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.Join(titles, "|")))
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

// SnapshotKey serializes per-term metrics into a canonical string used to
// detect unchanged cycles. Term order does not affect the key.
func SnapshotKey(perTerm []core.TermMetrics) string {
	parts := make([]string, 0, len(perTerm))
	for _, tm := range perTerm {
		score := "null"
		if tm.Sentiment != nil {
			score = fmt.Sprintf("%.2f", tm.Sentiment.Score)
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%s", tm.Term, tm.Mentions, score))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
