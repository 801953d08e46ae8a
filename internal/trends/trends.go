// Package trends builds normalized interest waveforms from article
// timestamps and classifies their direction.
package trends

import (
	"fmt"
	"math"
	"time"

	"sentinela/internal/core"
)

// dailyWindow is how many days the daily waveform covers.
const dailyWindow = 15

var shortMonths = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// HourlyWaveform buckets articles by publish hour into 24 normalized
// points. Articles without a parseable timestamp are skipped; with no
// datable articles the series is a flat baseline of zeros.
func HourlyWaveform(articles []core.TaggedArticle) []core.TrendPoint {
	var hourly [24]int
	for _, article := range articles {
		if article.PublishedAt != nil {
			hourly[article.PublishedAt.Hour()]++
		}
	}

	maxBucket := 1
	for _, count := range hourly {
		if count > maxBucket {
			maxBucket = count
		}
	}

	points := make([]core.TrendPoint, 24)
	for hour, count := range hourly {
		points[hour] = core.TrendPoint{
			Date:             fmt.Sprintf("%02d:00", hour),
			Label:            fmt.Sprintf("%02d:00", hour),
			RelativeInterest: int(math.Round(float64(count) / float64(maxBucket) * 100)),
		}
	}
	return points
}

// DailyWaveform buckets articles by calendar day over the last 15 days
// into normalized points, oldest first.
func DailyWaveform(articles []core.TaggedArticle, now time.Time) []core.TrendPoint {
	today := calendarDay(now)
	daily := make([]int, dailyWindow)

	for _, article := range articles {
		if article.PublishedAt == nil {
			continue
		}
		published := calendarDay(article.PublishedAt.In(now.Location()))
		daysAgo := int(math.Round(today.Sub(published).Hours() / 24))
		if daysAgo >= 0 && daysAgo < dailyWindow {
			daily[daysAgo]++
		}
	}

	maxBucket := 1
	for _, count := range daily {
		if count > maxBucket {
			maxBucket = count
		}
	}

	points := make([]core.TrendPoint, 0, dailyWindow)
	for daysAgo := dailyWindow - 1; daysAgo >= 0; daysAgo-- {
		day := now.AddDate(0, 0, -daysAgo)
		points = append(points, core.TrendPoint{
			Date:             day.Format("2006-01-02"),
			Label:            DayLabel(day, daysAgo),
			RelativeInterest: int(math.Round(float64(daily[daysAgo]) / float64(maxBucket) * 100)),
		})
	}
	return points
}

// calendarDay truncates t to midnight in its own location, so bucketing
// follows local calendar days rather than absolute 24h boundaries.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayLabel renders a human label for a day: Hoje, Ontem or "3 jan".
func DayLabel(day time.Time, daysAgo int) string {
	switch daysAgo {
	case 0:
		return "Hoje"
	case 1:
		return "Ontem"
	}
	return fmt.Sprintf("%d %s", day.Day(), shortMonths[day.Month()-1])
}

// Direction classifies a normalized series by comparing the mean of its
// recent half against its earlier half.
func Direction(values []int) core.TrendDirection {
	if len(values) < 2 {
		return core.TrendSteady
	}

	mid := len(values) / 2
	firstMean := mean(values[:mid])
	secondMean := mean(values[mid:])
	diff := secondMean - firstMean

	threshold := 0.1 * math.Max(firstMean, 1)
	switch {
	case diff > threshold:
		return core.TrendUp
	case diff < -threshold:
		return core.TrendDown
	}
	return core.TrendSteady
}

// BlendDaily merges real external interest into the article-derived daily
// waveform. Dates with an external point get a weighted blend favoring
// the external signal; estimated external points are ignored.
func BlendDaily(articleSeries, external []core.TrendPoint) []core.TrendPoint {
	externalByDate := make(map[string]int, len(external))
	for _, point := range external {
		if !point.IsEstimated {
			externalByDate[point.Date] = point.RelativeInterest
		}
	}

	blended := make([]core.TrendPoint, len(articleSeries))
	copy(blended, articleSeries)
	for i, point := range blended {
		if externalValue, ok := externalByDate[point.Date]; ok {
			blended[i].RelativeInterest = int(math.Round(float64(point.RelativeInterest)*0.4 + float64(externalValue)*0.6))
		}
	}
	return blended
}

// Values extracts the interest series from trend points.
func Values(points []core.TrendPoint) []int {
	values := make([]int, len(points))
	for i, point := range points {
		values[i] = point.RelativeInterest
	}
	return values
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
