// Package tagger matches raw articles against the watch term list.
package tagger

import (
	"strings"
	"time"

	"sentinela/internal/core"
)

// breakingWindow is how recently an article must have been published to
// count as breaking.
const breakingWindow = 2 * time.Hour

// Tag annotates each article with the watch terms it mentions and drops
// articles matching no term. Matching is case-insensitive over title and
// description.
func Tag(articles []core.Article, watchwords []string) []core.TaggedArticle {
	return tagAt(articles, watchwords, time.Now())
}

func tagAt(articles []core.Article, watchwords []string, now time.Time) []core.TaggedArticle {
	tagged := make([]core.TaggedArticle, 0, len(articles))

	for _, article := range articles {
		haystack := strings.ToLower(article.Title + " " + article.Description)

		var matched []string
		for _, term := range watchwords {
			if term == "" {
				continue
			}
			if strings.Contains(haystack, strings.ToLower(term)) {
				matched = append(matched, term)
			}
		}
		if len(matched) == 0 {
			continue
		}

		breaking := article.PublishedAt != nil && now.Sub(*article.PublishedAt) < breakingWindow

		tagged = append(tagged, core.TaggedArticle{
			Article:      article,
			MatchedTerms: matched,
			IsBreaking:   breaking,
		})
	}
	return tagged
}
