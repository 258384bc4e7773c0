package leveling

// Calculator derives levels and proficiency tiers from total XP. The
// curve widens by StepGrowth at each level: with the default config the
// thresholds run 300, then 800, then 1500 and so on. Level 1 starts at
// zero XP and levels never regress because total XP never shrinks.
type Calculator struct {
	config *Config
}

func NewCalculator(config *Config) *Calculator {
	if config == nil {
		config = NewDefaultConfig()
	}
	return &Calculator{config: config}
}

// LevelForXP returns the level reached with totalXP.
func (c *Calculator) LevelForXP(totalXP int64) int {
	if totalXP < 0 {
		return 1
	}

	level := 1
	step := c.config.FirstStep
	next := c.config.FirstStep
	for totalXP >= next {
		level++
		step += c.config.StepGrowth
		next += step
	}
	return level
}

// XPForLevel returns the total XP needed to reach level. Level 1 and
// below cost nothing.
func (c *Calculator) XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}

	var total int64
	step := c.config.FirstStep
	for l := 2; l <= level; l++ {
		total += step
		step += c.config.StepGrowth
	}
	return total
}

// XPToNextLevel returns how much more XP is needed to level up.
func (c *Calculator) XPToNextLevel(totalXP int64) int64 {
	next := c.XPForLevel(c.LevelForXP(totalXP) + 1)
	return next - totalXP
}

// TierForLevel returns the highest proficiency tier whose milestone
// level has been reached, or "" when no milestone applies yet.
func (c *Calculator) TierForLevel(level int) string {
	best := 0
	tier := ""
	for milestone, t := range c.config.TierMilestones {
		if level >= milestone && milestone > best {
			best = milestone
			tier = t
		}
	}
	return tier
}

// XPForAnswer returns the XP awarded for a single answer.
func (c *Calculator) XPForAnswer(correct bool) int64 {
	if correct {
		return c.config.CorrectAnswerXP
	}
	return c.config.IncorrectAnswerXP
}
