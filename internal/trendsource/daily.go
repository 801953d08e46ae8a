package trendsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/fetch"
)

// DailyStrategy checks today's trending-topics list for the term and
// derives a single-day heuristic score: 70 when the term appears among
// the trending searches or their article titles, 30 otherwise.
type DailyStrategy struct {
	cfg    config.Trends
	client *fetch.Client
	now    func() time.Time
}

type dailyResponse struct {
	Default struct {
		TrendingSearchesDays []struct {
			TrendingSearches []struct {
				Title struct {
					Query string `json:"query"`
				} `json:"title"`
				Articles []struct {
					Title string `json:"title"`
				} `json:"articles"`
			} `json:"trendingSearches"`
		} `json:"trendingSearchesDays"`
	} `json:"default"`
}

// Name returns the tier identifier.
func (s *DailyStrategy) Name() string {
	return "daily"
}

// Fetch derives today's score from the trending list.
func (s *DailyStrategy) Fetch(ctx context.Context, term string) ([]core.TrendPoint, error) {
	url := fmt.Sprintf("%s/dailytrends?hl=pt-BR&tz=180&geo=%s&ns=15", s.cfg.Endpoint, s.cfg.Geo)

	body, err := s.client.Get(ctx, url, googleHeaders())
	if err != nil {
		return nil, err
	}

	var daily dailyResponse
	if err := json.Unmarshal(stripJSONPrefix(body), &daily); err != nil {
		return nil, fmt.Errorf("%w: dailytrends payload: %v", core.ErrInvalidResponse, err)
	}
	if len(daily.Default.TrendingSearchesDays) == 0 {
		return nil, fmt.Errorf("%w: no trending days", core.ErrInvalidResponse)
	}

	termLower := strings.ToLower(term)
	matched := false
	for _, story := range daily.Default.TrendingSearchesDays[0].TrendingSearches {
		if strings.Contains(strings.ToLower(story.Title.Query), termLower) {
			matched = true
			break
		}
		for _, article := range story.Articles {
			if strings.Contains(strings.ToLower(article.Title), termLower) {
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	interest := 30
	if matched {
		interest = 70
	}

	today := s.clock()
	return []core.TrendPoint{{
		Date:             today.Format("2006-01-02"),
		Label:            "Hoje",
		RelativeInterest: interest,
		IsEstimated:      true,
	}}, nil
}

func (s *DailyStrategy) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
