package engine

import (
	"testing"
	"time"

	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyXP_SingleLevelUp(t *testing.T) {
	svc, rec := newTestService(t, nil)
	now := time.Now().UTC()

	events, err := svc.ApplyXP("alice", 150, now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].OldLevel)
	assert.Equal(t, 1, events[0].NewLevel)
	assert.Equal(t, 5, events[0].PPGained)

	l, err := svc.Ledger("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, l.Level)
	assert.Equal(t, 150, l.XP)
	assert.Equal(t, 5, l.PP)
	assert.Len(t, rec.LevelUps(), 1)
}

func TestApplyXP_MultiLevelGrantsEachLevelsPP(t *testing.T) {
	svc, rec := newTestService(t, nil)
	now := time.Now().UTC()

	// 600 XP crosses the thresholds for levels 1 (100), 2 (283) and 3 (520).
	events, err := svc.ApplyXP("bob", 600, now)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i, ev.OldLevel)
		assert.Equal(t, i+1, ev.NewLevel)
		assert.Equal(t, PPForLevel(i+1), ev.PPGained)
	}

	l, err := svc.Ledger("bob")
	require.NoError(t, err)
	assert.Equal(t, 3, l.Level)
	assert.Equal(t, PPForLevel(1)+PPForLevel(2)+PPForLevel(3), l.PP)
	assert.Len(t, rec.LevelUps(), 3)
}

func TestApplyXP_PPMultiplier(t *testing.T) {
	svc, _ := newTestService(t, types.StaticEffects{M: types.Multipliers{Attack: 1.0, PP: 2.0}})

	events, err := svc.ApplyXP("carol", 150, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 10, events[0].PPGained)

	l, err := svc.Ledger("carol")
	require.NoError(t, err)
	assert.Equal(t, 10, l.PP)
}

func TestApplyXP_ZeroAndNegativeAreNoops(t *testing.T) {
	svc, rec := newTestService(t, nil)
	now := time.Now().UTC()

	for _, xp := range []int{0, -10} {
		events, err := svc.ApplyXP("dave", xp, now)
		require.NoError(t, err)
		assert.Empty(t, events)
	}
	l, err := svc.Ledger("dave")
	require.NoError(t, err)
	assert.Equal(t, 0, l.XP)
	assert.Equal(t, 0, l.Level)
	assert.Empty(t, rec.LevelUps())
}

func TestApplyCoins(t *testing.T) {
	svc, _ := newTestService(t, nil)
	now := time.Now().UTC()

	l, err := svc.ApplyCoins("alice", 50, now)
	require.NoError(t, err)
	assert.Equal(t, 50, l.Coins)

	l, err = svc.ApplyCoins("alice", -20, now)
	require.NoError(t, err)
	assert.Equal(t, 30, l.Coins)

	// Overdraw fails and leaves the balance untouched.
	_, err = svc.ApplyCoins("alice", -31, now)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CodeInsufficientFunds))

	l, err = svc.Ledger("alice")
	require.NoError(t, err)
	assert.Equal(t, 30, l.Coins)
}

func TestUpdateStreakLocked(t *testing.T) {
	tests := []struct {
		name        string
		lastActive  string
		current     int
		longest     int
		day         string
		wantStreak  int
		wantLongest int
	}{
		{"first ever activity", "", 0, 0, "2026-09-01", 1, 1},
		{"same day keeps streak", "2026-09-01", 3, 5, "2026-09-01", 3, 5},
		{"next day increments", "2026-09-01", 3, 5, "2026-09-02", 4, 5},
		{"next day sets new longest", "2026-09-01", 5, 5, "2026-09-02", 6, 6},
		{"gap resets to one", "2026-09-01", 7, 9, "2026-09-04", 1, 9},
		{"month boundary", "2026-08-31", 2, 2, "2026-09-01", 3, 3},
		{"year boundary", "2025-12-31", 4, 4, "2026-01-01", 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &models.ProgressionLedger{
				UserID:        "alice",
				CurrentStreak: tt.current,
				LongestStreak: tt.longest,
				LastActiveDay: tt.lastActive,
			}
			got := updateStreakLocked(l, tt.day)
			assert.Equal(t, tt.wantStreak, got)
			assert.Equal(t, tt.wantStreak, l.CurrentStreak)
			assert.Equal(t, tt.wantLongest, l.LongestStreak)
			assert.Equal(t, tt.day, l.LastActiveDay)
		})
	}
}

func TestIsNextDay(t *testing.T) {
	assert.True(t, isNextDay("2026-09-01", "2026-09-02"))
	assert.True(t, isNextDay("2026-02-28", "2026-03-01")) // 2026 is not a leap year
	assert.False(t, isNextDay("2026-09-01", "2026-09-03"))
	assert.False(t, isNextDay("2026-09-02", "2026-09-01"))
	assert.False(t, isNextDay("", "2026-09-01"))
	assert.False(t, isNextDay("garbage", "2026-09-01"))
}
