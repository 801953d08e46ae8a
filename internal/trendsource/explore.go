package trendsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"sentinela/internal/config"
	"sentinela/internal/core"
	"sentinela/internal/fetch"
	"sentinela/internal/trends"
)

// ExploreStrategy fetches a real 30-day time series via the explore API:
// first resolve a TIMESERIES widget token, then fetch its multiline data.
type ExploreStrategy struct {
	cfg    config.Trends
	client *fetch.Client
	now    func() time.Time
}

type exploreResponse struct {
	Widgets []exploreWidget `json:"widgets"`
}

type exploreWidget struct {
	Type    string          `json:"type"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time  string `json:"time"`
			Value []int  `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// Name returns the tier identifier.
func (s *ExploreStrategy) Name() string {
	return "explore"
}

// Fetch resolves and downloads the time series for term.
func (s *ExploreStrategy) Fetch(ctx context.Context, term string) ([]core.TrendPoint, error) {
	now := s.clock()

	timeRange := fmt.Sprintf("%s %s",
		now.AddDate(0, 0, -30).Format("2006-01-02"),
		now.Format("2006-01-02"))

	exploreReq, err := json.Marshal(map[string]any{
		"comparisonItem": []map[string]string{
			{"keyword": term, "geo": s.cfg.Geo, "time": timeRange},
		},
		"category": s.cfg.Category,
		"property": "",
	})
	if err != nil {
		return nil, err
	}

	exploreURL := fmt.Sprintf("%s/explore?hl=pt-BR&tz=180&req=%s",
		s.cfg.Endpoint, url.QueryEscape(string(exploreReq)))

	body, err := s.client.Get(ctx, exploreURL, googleHeaders())
	if err != nil {
		return nil, err
	}

	var explore exploreResponse
	if err := json.Unmarshal(stripJSONPrefix(body), &explore); err != nil {
		return nil, fmt.Errorf("%w: explore payload: %v", core.ErrInvalidResponse, err)
	}

	var widget *exploreWidget
	for i := range explore.Widgets {
		if explore.Widgets[i].Type == "TIMESERIES" {
			widget = &explore.Widgets[i]
			break
		}
	}
	if widget == nil || widget.Token == "" || len(widget.Request) == 0 {
		return nil, fmt.Errorf("%w: no timeseries widget", core.ErrInvalidResponse)
	}

	dataURL := fmt.Sprintf("%s/widgetdata/multiline?hl=pt-BR&tz=180&req=%s&token=%s",
		s.cfg.Endpoint, url.QueryEscape(string(widget.Request)), url.QueryEscape(widget.Token))

	body, err = s.client.Get(ctx, dataURL, googleHeaders())
	if err != nil {
		return nil, err
	}

	var multiline multilineResponse
	if err := json.Unmarshal(stripJSONPrefix(body), &multiline); err != nil {
		return nil, fmt.Errorf("%w: multiline payload: %v", core.ErrInvalidResponse, err)
	}
	if len(multiline.Default.TimelineData) == 0 {
		return nil, fmt.Errorf("%w: empty timeline", core.ErrInvalidResponse)
	}

	points := make([]core.TrendPoint, 0, len(multiline.Default.TimelineData))
	for _, sample := range multiline.Default.TimelineData {
		var epoch int64
		if _, err := fmt.Sscanf(sample.Time, "%d", &epoch); err != nil {
			continue
		}
		day := time.Unix(epoch, 0)
		daysAgo := int(now.Sub(day).Hours() / 24)

		interest := 0
		if len(sample.Value) > 0 {
			interest = sample.Value[0]
		}

		points = append(points, core.TrendPoint{
			Date:             day.Format("2006-01-02"),
			Label:            trends.DayLabel(day, daysAgo),
			RelativeInterest: interest,
		})
	}
	return points, nil
}

func (s *ExploreStrategy) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
