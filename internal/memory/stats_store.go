package memory

import (
	"fmt"

	"github.com/questforge/questforge/models"
)

// UpsertDailyStats increments the (user, day) bucket, creating it if absent.
// The streak column is overwritten with the streak as of that day.
func (s *Store) UpsertDailyStats(userID, day string, tasksDelta, xpDelta, streak int) error {
	_, err := s.h.Exec(`
		INSERT INTO daily_stats (user_id, day, tasks_completed, xp_earned, streak, synced)
		VALUES (?, ?, ?, ?, ?, 0)
		ON CONFLICT(user_id, day) DO UPDATE SET
			tasks_completed = tasks_completed + excluded.tasks_completed,
			xp_earned = xp_earned + excluded.xp_earned,
			streak = excluded.streak,
			synced = 0
	`, userID, day, tasksDelta, xpDelta, streak)
	if err != nil {
		return fmt.Errorf("upsert daily stats %s/%s: %w", userID, day, err)
	}
	return nil
}

// GetDailyStats returns the bucket for (user, day). A missing day is returned
// as a zero-valued bucket, not an error.
func (s *Store) GetDailyStats(userID, day string) (*models.DailyStats, error) {
	rows, err := s.ListDailyStatsRange(userID, day, day)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &models.DailyStats{UserID: userID, Day: day}, nil
	}
	return &rows[0], nil
}

// ListDailyStatsRange returns the existing buckets inside [fromDay, toDay],
// ordered by day. Missing days are simply absent; readers treat them as zero.
func (s *Store) ListDailyStatsRange(userID, fromDay, toDay string) ([]models.DailyStats, error) {
	rows, err := s.h.Query(`
		SELECT user_id, day, tasks_completed, xp_earned, streak, synced
		FROM daily_stats
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`, userID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.DailyStats
	for rows.Next() {
		var (
			d      models.DailyStats
			synced int
		)
		if err := rows.Scan(&d.UserID, &d.Day, &d.TasksCompleted, &d.XPEarned, &d.Streak, &synced); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		d.Synced = synced != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily stats rows: %w", err)
	}
	return out, nil
}
