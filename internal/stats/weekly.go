package stats

import (
	"sort"
	"time"

	"github.com/aristath/signalboard/internal/domain"
)

// weeklyWindow is the number of trailing weeks reported
const weeklyWindow = 10

// weekStart returns the Sunday-aligned start of t's calendar week,
// truncated to local midnight.
func weekStart(t time.Time) time.Time {
	local := t.Local()
	sunday := local.AddDate(0, 0, -int(local.Weekday()))
	return time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 0, 0, 0, 0, sunday.Location())
}

// CalculateWeeklyStats buckets completed records by the Sunday-aligned
// start of their calendar week and returns win/loss counts per week,
// ascending, truncated to the most recent 10 weeks.
func CalculateWeeklyStats(records []domain.TradeRecord) []domain.WeeklyBucket {
	if len(records) == 0 {
		return nil
	}

	weeks := map[string]*domain.WeeklyBucket{}

	for _, rec := range records {
		if !rec.Status.IsCompleted() || !rec.HasTimestamp {
			continue
		}

		key := weekStart(rec.Timestamp).Format("2006-01-02")
		bucket, ok := weeks[key]
		if !ok {
			bucket = &domain.WeeklyBucket{Week: key}
			weeks[key] = bucket
		}
		if rec.Status == domain.StatusWin {
			bucket.Wins++
		} else {
			bucket.Losses++
		}
	}

	out := make([]domain.WeeklyBucket, 0, len(weeks))
	for _, bucket := range weeks {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Week < out[j].Week
	})

	if len(out) > weeklyWindow {
		out = out[len(out)-weeklyWindow:]
	}
	return out
}
