package memory

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/questforge/questforge/models"
)

// GetOrCreateLedger fetches the user's progression ledger, creating the zero
// row on first contact.
func (s *Store) GetOrCreateLedger(userID string) (*models.ProgressionLedger, error) {
	_, err := s.h.Exec(`
		INSERT OR IGNORE INTO progression_ledgers (user_id, updated_at)
		VALUES (?, ?)
	`, userID, timeString(time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("ensure ledger %s: %w", userID, err)
	}
	return s.getLedger(userID)
}

func (s *Store) getLedger(userID string) (*models.ProgressionLedger, error) {
	row := s.h.QueryRow(`
		SELECT user_id, level, xp, pp, coins, current_streak, longest_streak, last_active_day, updated_at, synced
		FROM progression_ledgers WHERE user_id = ?
	`, userID)

	var (
		l             models.ProgressionLedger
		lastActiveDay sql.NullString
		updatedAt     string
		synced        int
	)
	if err := row.Scan(&l.UserID, &l.Level, &l.XP, &l.PP, &l.Coins,
		&l.CurrentStreak, &l.LongestStreak, &lastActiveDay, &updatedAt, &synced); err != nil {
		return nil, fmt.Errorf("get ledger %s: %w", userID, err)
	}
	l.LastActiveDay = lastActiveDay.String
	l.Synced = synced != 0
	var err error
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse ledger updated_at: %w", err)
	}
	return &l, nil
}

// UpdateLedger writes back the full ledger row. Callers hold the per-user
// lock, so a plain rewrite is race-free.
func (s *Store) UpdateLedger(l *models.ProgressionLedger) error {
	var lastActive interface{}
	if l.LastActiveDay != "" {
		lastActive = l.LastActiveDay
	}
	res, err := s.h.Exec(`
		UPDATE progression_ledgers SET
			level = ?, xp = ?, pp = ?, coins = ?,
			current_streak = ?, longest_streak = ?, last_active_day = ?,
			updated_at = ?, synced = ?
		WHERE user_id = ?
	`, l.Level, l.XP, l.PP, l.Coins,
		l.CurrentStreak, l.LongestStreak, lastActive,
		timeString(l.UpdatedAt), boolToInt(l.Synced), l.UserID)
	if err != nil {
		return fmt.Errorf("update ledger %s: %w", l.UserID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update ledger %s: no such row", l.UserID)
	}
	return nil
}
