package leveling

// Config controls the XP curve and the level milestones that advance a
// user's displayed language proficiency tier.
type Config struct {
	// XP needed to go from level 1 to level 2
	FirstStep int64

	// Added to the step size at every subsequent level
	StepGrowth int64

	// Level milestones mapped to the proficiency tier they unlock
	TierMilestones map[int]string

	// XP awarded per answer during practice sessions
	CorrectAnswerXP   int64
	IncorrectAnswerXP int64
}

func NewDefaultConfig() *Config {
	return &Config{
		FirstStep:  300,
		StepGrowth: 200,
		TierMilestones: map[int]string{
			5:  "A1",
			10: "A2",
			15: "B1",
			20: "B2",
			25: "C1",
			30: "C2",
		},
		CorrectAnswerXP:   10,
		IncorrectAnswerXP: 5,
	}
}
