package services

import (
	"math"

	"progression-engine/models"
)

// LevelCalculator maps experience to levels on an exponential curve. The
// step to leave level L costs floor(base * multiplier^(L-1)) and is compared
// against total experience, while ExperienceForLevel sums the steps for
// progress reporting. It is pure and safe for concurrent use.
type LevelCalculator struct {
	base       int64
	multiplier float64
	maxLevel   int
}

func NewLevelCalculator(settings models.GameSettings) LevelCalculator {
	return LevelCalculator{
		base:       settings.ExperiencePerLevel,
		multiplier: settings.ExperienceMultiplier,
		maxLevel:   settings.MaxLevel,
	}
}

func (c LevelCalculator) valid() bool {
	return c.base > 0 && c.multiplier > 0 && c.maxLevel >= 1
}

// MaxLevel is the configured cap, or 1 when the curve is misconfigured.
func (c LevelCalculator) MaxLevel() int {
	if !c.valid() {
		return 1
	}
	return c.maxLevel
}

// stepCost is the experience needed to go from level to level+1.
func (c LevelCalculator) stepCost(level int) int64 {
	cost := math.Floor(float64(c.base) * math.Pow(c.multiplier, float64(level-1)))
	if cost >= math.MaxInt64 || math.IsInf(cost, 1) || math.IsNaN(cost) {
		return math.MaxInt64
	}
	return int64(cost)
}

// LevelForExperience climbs from level 1 while experience covers the cost of
// the current step, stopping at the max level. A step too large to represent
// is never reached. Misconfigured curves fail closed to level 1.
func (c LevelCalculator) LevelForExperience(experience int64) int {
	if !c.valid() {
		return 1
	}
	level := 1
	required := c.stepCost(level)
	for level < c.maxLevel && required < math.MaxInt64 && experience >= required {
		level++
		required = c.stepCost(level)
	}
	return level
}

// ExperienceForLevel returns the cumulative experience needed to reach level.
func (c LevelCalculator) ExperienceForLevel(level int) int64 {
	if !c.valid() || level <= 1 {
		return 0
	}
	var total int64
	for i := 1; i < level; i++ {
		step := c.stepCost(i)
		if total > math.MaxInt64-step {
			return math.MaxInt64
		}
		total += step
	}
	return total
}

// ProgressToNextLevel is the percentage of the current level already earned, in [0,100].
func (c LevelCalculator) ProgressToNextLevel(experience int64, level int) float64 {
	if !c.valid() {
		return 0
	}
	if level >= c.maxLevel {
		return 100
	}
	floor := c.ExperienceForLevel(level)
	next := c.ExperienceForLevel(level + 1)
	if next <= floor {
		return 100
	}
	pct := float64(experience-floor) / float64(next-floor) * 100
	return math.Max(0, math.Min(100, pct))
}
