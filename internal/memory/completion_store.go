package memory

import (
	"fmt"

	"github.com/questforge/questforge/models"
)

// InsertCompletion appends one immutable completion record.
func (s *Store) InsertCompletion(c *models.TaskCompletion) error {
	_, err := s.h.Exec(`
		INSERT INTO completions (id, task_id, owner_id, difficulty, importance, xp_awarded, completed_at, day, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.TaskID, c.OwnerID, string(c.Difficulty), string(c.Importance),
		c.XPAwarded, timeString(c.CompletedAt), models.DayKey(c.CompletedAt), boolToInt(c.Synced))
	if err != nil {
		return fmt.Errorf("insert completion %s: %w", c.ID, err)
	}
	return nil
}

// CountCompletionsOnDay returns how many tasks of the given difficulty the
// owner completed on the given calendar day. Feeds the per-day reward cap.
func (s *Store) CountCompletionsOnDay(ownerID, day string, difficulty models.Difficulty) (int, error) {
	row := s.h.QueryRow(`
		SELECT COUNT(*) FROM completions
		WHERE owner_id = ? AND day = ? AND difficulty = ?
	`, ownerID, day, string(difficulty))
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return n, nil
}

// ListCompletions returns the owner's completions inside [fromDay, toDay],
// ordered by completion time.
func (s *Store) ListCompletions(ownerID, fromDay, toDay string) ([]models.TaskCompletion, error) {
	rows, err := s.h.Query(`
		SELECT id, task_id, owner_id, difficulty, importance, xp_awarded, completed_at, synced
		FROM completions
		WHERE owner_id = ? AND day >= ? AND day <= ?
		ORDER BY completed_at ASC
	`, ownerID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.TaskCompletion
	for rows.Next() {
		var (
			c           models.TaskCompletion
			difficulty  string
			importance  string
			completedAt string
			synced      int
		)
		if err := rows.Scan(&c.ID, &c.TaskID, &c.OwnerID, &difficulty, &importance, &c.XPAwarded, &completedAt, &synced); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		c.Difficulty = models.Difficulty(difficulty)
		c.Importance = models.Importance(importance)
		c.Synced = synced != 0
		if c.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("completion rows: %w", err)
	}
	return out, nil
}

// DeleteCompletionsForOwner purges an owner's completion history. Used only on
// user purge; normal operation never deletes completions.
func (s *Store) DeleteCompletionsForOwner(ownerID string) (int, error) {
	res, err := s.h.Exec(`DELETE FROM completions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("purge completions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	return int(n), nil
}
