// Package news acquires recent articles for watch terms from an RSS
// search endpoint, with per-term caching and result normalization.
package news

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"sentinela/internal/cache"
	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/fetch"
	"sentinela/internal/kvstore"
	"sentinela/internal/logger"
)

// Locale parameters for the Google News RSS search endpoint.
const (
	localeLang    = "pt-BR"
	localeCountry = "BR"
	localeCeid    = "BR:pt-419"
)

// Source fetches articles mentioning a term.
type Source interface {
	Search(ctx context.Context, term string) ([]core.Article, error)
}

// GoogleNewsSource implements Source against the Google News RSS search
// endpoint. Results are cached per term; acquisition failures degrade to
// an empty article list so one bad term never aborts a cycle.
type GoogleNewsSource struct {
	cfg    config.News
	client *fetch.Client
	parser *gofeed.Parser
	cache  *cache.Cache[[]core.Article]
	now    func() time.Time
}

// NewGoogleNewsSource creates a source using the configured endpoint.
func NewGoogleNewsSource(cfg config.News, store kvstore.Store) *GoogleNewsSource {
	return &GoogleNewsSource{
		cfg:    cfg,
		client: fetch.NewClient(cfg.Timeout),
		parser: gofeed.NewParser(),
		cache:  cache.New[[]core.Article](store, kvstore.NamespaceNewsCache, cfg.CacheTTL),
		now:    time.Now,
	}
}

// Search returns up to MaxPerTerm recent articles mentioning term, newest
// first. Returns an empty slice (never an error) when acquisition fails.
func (s *GoogleNewsSource) Search(ctx context.Context, term string) ([]core.Article, error) {
	cacheKey := cache.Key("news", strings.ToLower(term))
	if articles, ok := s.cache.Get(ctx, cacheKey); ok {
		return articles, nil
	}

	body, err := s.client.Get(ctx, s.searchURL(term), nil)
	if err != nil {
		logger.Warn("news fetch failed", "term", term, "error", err.Error())
		return []core.Article{}, nil
	}

	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		logger.Warn("news feed parse failed", "term", term, "error", err.Error())
		return []core.Article{}, nil
	}

	articles := s.normalize(feed.Items)
	if err := s.cache.Set(ctx, cacheKey, articles); err != nil {
		logger.Warn("news cache write failed", "term", term, "error", err.Error())
	}
	return articles, nil
}

// searchURL builds the RSS query for term, scoped to the configured region.
func (s *GoogleNewsSource) searchURL(term string) string {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s %s", term, s.cfg.Region))
	query.Set("hl", localeLang)
	query.Set("gl", localeCountry)
	query.Set("ceid", localeCeid)
	return s.cfg.Endpoint + "?" + query.Encode()
}

// normalize dedups, filters and sorts raw feed items into Articles.
func (s *GoogleNewsSource) normalize(items []*gofeed.Item) []core.Article {
	currentYear := s.now().Year()
	seen := make(map[string]bool)
	articles := make([]core.Article, 0, len(items))

	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		titleKey := strings.ToLower(title)
		if seen[titleKey] {
			continue
		}
		seen[titleKey] = true

		var publishedAt *time.Time
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			// Stale items from previous years are noise for monitoring;
			// items without a parseable date are kept.
			if t.Year() != currentYear {
				continue
			}
			publishedAt = &t
		}

		articles = append(articles, core.Article{
			Title:       cleanTitle(title),
			Link:        item.Link,
			PublishedAt: publishedAt,
			Source:      extractSource(title, item.Link),
			Description: cleanDescription(item.Description),
		})
	}

	sort.SliceStable(articles, func(i, j int) bool {
		ti, tj := articles[i].PublishedAt, articles[j].PublishedAt
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})

	if s.cfg.MaxPerTerm > 0 && len(articles) > s.cfg.MaxPerTerm {
		articles = articles[:s.cfg.MaxPerTerm]
	}
	return articles
}

// cleanTitle strips the trailing " - Outlet" suffix Google News appends.
func cleanTitle(title string) string {
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		return strings.TrimSpace(title[:idx])
	}
	return title
}

// extractSource derives the outlet name from the title suffix, falling
// back to the link host.
func extractSource(title, link string) string {
	if idx := strings.LastIndex(title, " - "); idx > 0 && idx+3 < len(title) {
		return strings.TrimSpace(title[idx+3:])
	}
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}
	return ""
}

// cleanDescription strips the HTML markup feed descriptions carry.
func cleanDescription(description string) string {
	if description == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return strings.TrimSpace(description)
	}
	return strings.TrimSpace(doc.Text())
}
