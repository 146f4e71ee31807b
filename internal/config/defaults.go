// Package config provides centralized configuration constants for QuestForge.
// All default values should be defined here to ensure a single source of truth.
package config

import "time"

// Reward economy defaults
const (
	// DefaultDailyFullRewardCount is how many completions of a given difficulty
	// earn the full reward on one calendar day. Completions beyond the count
	// earn the diminished fraction, never zero.
	DefaultDailyFullRewardCount = 5

	// DiminishedRewardFactor is applied to XP past the daily full-reward count.
	DiminishedRewardFactor = 0.5
)

// Leveling curve defaults
const (
	// CurveCoefficient is the multiplier in xpForLevel(n) = ceil(coef * n^1.5).
	CurveCoefficient = 100.0

	// CurveExponent is the growth exponent of the level threshold curve.
	CurveExponent = 1.5

	// LevelCap is the practical level ceiling. Thresholds beyond the cap
	// return the capped value rather than failing.
	LevelCap = 999

	// PPBase and PPGrowthDivisor shape ppForLevel(n) = PPBase * (1 + n/PPGrowthDivisor).
	PPBase          = 5
	PPGrowthDivisor = 10
)

// Task lifecycle defaults
const (
	// DefaultExpiryGrace is how long past the due time an active task survives
	// before expireOverdue fails it.
	DefaultExpiryGrace = 12 * time.Hour
)

// Recurrence expander defaults
const (
	// DefaultExpansionWindow is the rolling horizon inside which missing
	// recurring instances are materialized.
	DefaultExpansionWindow = 14 * 24 * time.Hour

	// MaxInstancesPerPass caps materialization per master per expander pass.
	MaxInstancesPerPass = 60
)

// Mission defaults
const (
	// DefaultDailyFullAttacks is how many contributions per member per day
	// deal full damage; later ones are diminished like task rewards.
	DefaultDailyFullAttacks = 10

	// BossHealthRetries bounds the compare-and-set loop on the shared boss
	// health pool before surfacing a conflict to the caller.
	BossHealthRetries = 5
)

// BaseXP returns the base reward for a difficulty grade.
func BaseXP(difficulty string) int {
	switch difficulty {
	case "very_easy":
		return 5
	case "easy":
		return 10
	case "hard":
		return 20
	case "very_hard":
		return 40
	default:
		return 0
	}
}

// ImportanceMultiplier returns the reward scale for an importance grade.
func ImportanceMultiplier(importance string) float64 {
	switch importance {
	case "normal":
		return 1.0
	case "important":
		return 1.5
	case "very_important":
		return 2.0
	case "special":
		return 3.0
	default:
		return 0
	}
}
