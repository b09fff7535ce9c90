package stats

import (
	"github.com/aristath/signalboard/internal/domain"
)

// CalculateTimeBuckets tallies completed records into 7 day-of-week
// buckets (index 0 = Sunday) and 24 hour-of-day buckets. Bucketing
// reads the record's local calendar time, not UTC. Records without a
// parsable timestamp do not contribute.
func CalculateTimeBuckets(records []domain.TradeRecord) domain.TimeBuckets {
	var buckets domain.TimeBuckets

	for _, rec := range records {
		if !rec.Status.IsCompleted() || !rec.HasTimestamp {
			continue
		}

		local := rec.Timestamp.Local()
		day := int(local.Weekday())
		hour := local.Hour()

		if rec.Status == domain.StatusWin {
			buckets.Days[day].Wins++
			buckets.Hours[hour].Wins++
		} else {
			buckets.Days[day].Losses++
			buckets.Hours[hour].Losses++
		}
	}
	return buckets
}
