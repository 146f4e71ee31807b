package engine

import (
	"math"

	"github.com/questforge/questforge/internal/config"
	"github.com/questforge/questforge/models"
)

// rewardXP computes the XP award for completing a task: base XP for the
// difficulty scaled by the importance multiplier, diminished to half (never
// below 1) once the owner has already banked the daily full-reward count of
// same-difficulty completions. priorToday is the count before this completion.
func rewardXP(difficulty models.Difficulty, importance models.Importance, priorToday int) int {
	base := float64(config.BaseXP(string(difficulty)))
	xp := base * config.ImportanceMultiplier(string(importance))
	if priorToday >= config.DefaultDailyFullRewardCount {
		xp = xp * config.DiminishedRewardFactor
	}
	award := int(math.Round(xp))
	if award < 1 {
		award = 1
	}
	return award
}

// missionDamage computes the boss damage for one qualifying contribution:
// the same base-times-importance product scaled by the member's attack
// multiplier, diminished past the per-day full-damage attack count.
func missionDamage(difficulty models.Difficulty, importance models.Importance, attackMult float64, attacksToday int) int {
	base := float64(config.BaseXP(string(difficulty)))
	dmg := base * config.ImportanceMultiplier(string(importance)) * attackMult
	if attacksToday >= config.DefaultDailyFullAttacks {
		dmg = dmg * config.DiminishedRewardFactor
	}
	out := int(math.Round(dmg))
	if out < 1 {
		out = 1
	}
	return out
}
