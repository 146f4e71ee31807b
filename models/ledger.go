package models

import "time"

// ProgressionLedger holds the per-user progression state. One row per user,
// mutated only by the engine in response to completion and purchase events.
//
// Invariants: Level is always the largest L with XP >= threshold(L); PP equals
// the sum of per-level PP rewards for every level passed.
type ProgressionLedger struct {
	UserID        string    `json:"userId" validate:"required"`
	Level         int       `json:"level" validate:"min=0"`
	XP            int       `json:"xp" validate:"min=0"`
	PP            int       `json:"pp" validate:"min=0"`
	Coins         int       `json:"coins" validate:"min=0"`
	CurrentStreak int       `json:"currentStreak" validate:"min=0"`
	LongestStreak int       `json:"longestStreak" validate:"min=0"`
	LastActiveDay string    `json:"lastActiveDay,omitempty"` // DayKey of the most recent completion
	UpdatedAt     time.Time `json:"updatedAt"`
	Synced        bool      `json:"synced"`
}

// DailyStats is the per-user per-calendar-day completion bucket. Upserted,
// never duplicated per (user, day).
type DailyStats struct {
	UserID         string `json:"userId" validate:"required"`
	Day            string `json:"day" validate:"required"` // DayKey
	TasksCompleted int    `json:"tasksCompleted" validate:"min=0"`
	XPEarned       int    `json:"xpEarned" validate:"min=0"`
	Streak         int    `json:"streak" validate:"min=0"` // streak as of this day
	Synced         bool   `json:"synced"`
}

// DayKey formats t as the calendar-day bucket key. All streak and stats math
// compares these keys, so the cutoff is the local midnight of t's location.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DayKeyTime parses a bucket key back to midnight UTC of that day.
func DayKeyTime(key string) (time.Time, error) {
	return time.Parse("2006-01-02", key)
}
