package trendsource

import (
	"context"
	"math"
	"time"

	"sentinela/internal/core"
	"sentinela/internal/trends"
)

// EstimatedStrategy is the final tier: a deterministic 30-day curve that
// rises toward today with sinusoidal noise, clipped to [10, 100]. Never
// fails, so the provider always has data to return.
type EstimatedStrategy struct {
	now func() time.Time
}

// Name returns the tier identifier.
func (s *EstimatedStrategy) Name() string {
	return "estimated"
}

// Fetch builds the synthetic series. The term does not influence the
// curve; only the current date does.
func (s *EstimatedStrategy) Fetch(_ context.Context, _ string) ([]core.TrendPoint, error) {
	now := s.clock()
	points := make([]core.TrendPoint, 0, 30)

	for daysAgo := 29; daysAgo >= 0; daysAgo-- {
		day := now.AddDate(0, 0, -daysAgo)

		base := 40 + float64(29-daysAgo)*1.5
		noise := math.Sin(float64(daysAgo)*1.3) * 8
		interest := int(math.Round(base + noise))
		if interest > 100 {
			interest = 100
		}
		if interest < 10 {
			interest = 10
		}

		points = append(points, core.TrendPoint{
			Date:             day.Format("2006-01-02"),
			Label:            trends.DayLabel(day, daysAgo),
			RelativeInterest: interest,
			IsEstimated:      true,
		})
	}
	return points, nil
}

func (s *EstimatedStrategy) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
