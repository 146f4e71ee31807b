package engine

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/questforge/questforge/internal/config"
	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
)

// ApplyXP adds XP to the user's ledger and applies every qualifying level-up
// in one call. A reward crossing k levels grants the PP for each of the k
// levels individually; one LevelUpEvent is emitted per level gained.
func (s *Service) ApplyXP(userID string, xp int, at time.Time) ([]types.LevelUpEvent, error) {
	unlock := s.users.lock(userID)
	defer unlock()

	ledger, err := s.store.GetOrCreateLedger(userID)
	if err != nil {
		return nil, err
	}
	events := s.applyXPLocked(ledger, xp)
	ledger.UpdatedAt = at
	ledger.Synced = false
	if err := s.store.UpdateLedger(ledger); err != nil {
		return nil, err
	}
	for _, ev := range events {
		s.notifier.LevelUp(ev)
	}
	return events, nil
}

// applyXPLocked mutates the in-memory ledger under the caller-held user lock
// and returns the level-up events. It does not persist or notify.
func (s *Service) applyXPLocked(ledger *models.ProgressionLedger, xp int) []types.LevelUpEvent {
	if xp <= 0 {
		return nil
	}
	ledger.XP += xp

	ppMult := s.effects.MultipliersFor(ledger.UserID).PP
	if ppMult <= 0 {
		ppMult = 1.0
	}

	var events []types.LevelUpEvent
	for ledger.XP >= XPForLevel(ledger.Level+1) && ledger.Level < config.LevelCap {
		old := ledger.Level
		ledger.Level++
		pp := int(math.Round(float64(PPForLevel(ledger.Level)) * ppMult))
		ledger.PP += pp
		events = append(events, types.LevelUpEvent{
			UserID:   ledger.UserID,
			OldLevel: old,
			NewLevel: ledger.Level,
			PPGained: pp,
		})
	}
	return events
}

// ApplyCoins applies a signed coin delta. Spending below zero fails with
// insufficient_funds and leaves the ledger unchanged.
func (s *Service) ApplyCoins(userID string, delta int, at time.Time) (*models.ProgressionLedger, error) {
	unlock := s.users.lock(userID)
	defer unlock()

	ledger, err := s.store.GetOrCreateLedger(userID)
	if err != nil {
		return nil, err
	}
	if ledger.Coins+delta < 0 {
		return nil, types.NewEngineError(types.CodeInsufficientFunds,
			fmt.Sprintf("balance %d cannot cover spend of %d", ledger.Coins, -delta),
			map[string]any{"balance": ledger.Coins, "delta": delta})
	}
	ledger.Coins += delta
	ledger.UpdatedAt = at
	ledger.Synced = false
	if err := s.store.UpdateLedger(ledger); err != nil {
		return nil, err
	}
	slog.Debug("coins applied", "user", userID, "delta", delta, "balance", ledger.Coins)
	return ledger, nil
}

// updateStreakLocked advances the streak for activity on day. Same calendar
// day keeps the streak, the next day increments it, a gap of more than one
// day resets it to 1. Longest streak is a monotonic max. Returns the streak
// as of day.
func updateStreakLocked(ledger *models.ProgressionLedger, day string) int {
	switch {
	case ledger.LastActiveDay == day:
		// Additional completions on an already-counted day.
	case isNextDay(ledger.LastActiveDay, day):
		ledger.CurrentStreak++
	default:
		ledger.CurrentStreak = 1
	}
	if ledger.CurrentStreak > ledger.LongestStreak {
		ledger.LongestStreak = ledger.CurrentStreak
	}
	ledger.LastActiveDay = day
	return ledger.CurrentStreak
}

// isNextDay reports whether day is exactly the calendar day after prev.
func isNextDay(prev, day string) bool {
	if prev == "" {
		return false
	}
	pt, err := models.DayKeyTime(prev)
	if err != nil {
		return false
	}
	return models.DayKey(pt.AddDate(0, 0, 1)) == day
}

// Ledger returns the user's progression ledger, creating it on first contact.
func (s *Service) Ledger(userID string) (*models.ProgressionLedger, error) {
	unlock := s.users.lock(userID)
	defer unlock()
	return s.store.GetOrCreateLedger(userID)
}
