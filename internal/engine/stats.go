package engine

import (
	"time"

	"github.com/questforge/questforge/models"
)

// StatsSummary aggregates a date range of daily buckets. Missing days count
// as zero.
type StatsSummary struct {
	Days           []models.DailyStats
	TasksCompleted int
	XPEarned       int
	BestDayXP      int
	BestDay        string
}

// StatsRange returns the user's buckets for [from, to], one entry per
// calendar day with zero-valued buckets filling the gaps, plus totals.
func (s *Service) StatsRange(userID string, from, to time.Time) (*StatsSummary, error) {
	fromDay := models.DayKey(from)
	toDay := models.DayKey(to)
	rows, err := s.store.ListDailyStatsRange(userID, fromDay, toDay)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]models.DailyStats, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}

	summary := &StatsSummary{}
	// Day keys sort lexicographically, so string comparison walks the range.
	for d := from; models.DayKey(d) <= toDay; d = d.AddDate(0, 0, 1) {
		key := models.DayKey(d)
		bucket, ok := byDay[key]
		if !ok {
			bucket = models.DailyStats{UserID: userID, Day: key}
		}
		summary.Days = append(summary.Days, bucket)
		summary.TasksCompleted += bucket.TasksCompleted
		summary.XPEarned += bucket.XPEarned
		if bucket.XPEarned > summary.BestDayXP {
			summary.BestDayXP = bucket.XPEarned
			summary.BestDay = key
		}
	}
	return summary, nil
}

// StatsLastNDays returns the trailing window ending at now.
func (s *Service) StatsLastNDays(userID string, n int, now time.Time) (*StatsSummary, error) {
	if n < 1 {
		n = 1
	}
	return s.StatsRange(userID, now.AddDate(0, 0, -(n-1)), now)
}

// DayStats returns one day's bucket, zero-valued when absent.
func (s *Service) DayStats(userID string, day time.Time) (*models.DailyStats, error) {
	return s.store.GetDailyStats(userID, models.DayKey(day))
}
