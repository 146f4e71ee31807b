package engine

import (
	"math"

	"github.com/questforge/questforge/internal/config"
)

// XPForLevel returns the total XP threshold required to be at the given level.
// Level 0 requires 0 XP. The curve is xp = ceil(coef * level^1.5), strictly
// increasing up to the level cap; beyond the cap the capped threshold is
// returned rather than failing.
func XPForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	if level > config.LevelCap {
		level = config.LevelCap
	}
	req := config.CurveCoefficient * math.Pow(float64(level), config.CurveExponent)
	// Use ceil to avoid making thresholds easier due to floating point rounding.
	return int(math.Ceil(req))
}

// PPForLevel returns the PP granted for reaching the given level. Zero for
// level 0, non-decreasing afterwards.
func PPForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	if level > config.LevelCap {
		level = config.LevelCap
	}
	return config.PPBase * (1 + level/config.PPGrowthDivisor)
}

// LevelForXP returns the highest level L such that totalXP >= XPForLevel(L).
func LevelForXP(totalXP int) int {
	if totalXP <= 0 {
		return 0
	}

	// Exponential search upper bound, then binary search.
	low := 0
	high := 1
	for XPForLevel(high) <= totalXP {
		low = high
		high *= 2
		if high > config.LevelCap {
			high = config.LevelCap + 1
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if XPForLevel(mid) <= totalXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}
