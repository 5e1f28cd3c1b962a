package scoring

// Policy holds the tunable numbers of the point formula.
type Policy struct {
	BasePoints     int `toml:"base_points"`
	StreakBonusPer int `toml:"streak_bonus_per"`

	// Time bonus: TimeBonusHigh when more than TimeHighFraction of the
	// answer window was left, TimeBonusMid above TimeMidFraction.
	TimeBonusHigh    int     `toml:"time_bonus_high"`
	TimeBonusMid     int     `toml:"time_bonus_mid"`
	TimeHighFraction float64 `toml:"time_high_fraction"`
	TimeMidFraction  float64 `toml:"time_mid_fraction"`

	GoldMinStreak int     `toml:"gold_bonus_min_streak"`
	GoldChance    float64 `toml:"gold_bonus_chance"` // 1.0 = always once eligible
	GoldMin       int     `toml:"gold_bonus_min"`
	GoldMax       int     `toml:"gold_bonus_max"`

	WrongPenalty   int `toml:"wrong_penalty"`
	MilestoneStep  int `toml:"milestone_step"`
	MilestoneCoins int `toml:"milestone_coins"`
}

// DefaultPolicy returns the reference numbers.
func DefaultPolicy() Policy {
	return Policy{
		BasePoints:       20,
		StreakBonusPer:   5,
		TimeBonusHigh:    10,
		TimeBonusMid:     5,
		TimeHighFraction: 0.70,
		TimeMidFraction:  0.40,
		GoldMinStreak:    7,
		GoldChance:       1.0,
		GoldMin:          25,
		GoldMax:          50,
		WrongPenalty:     5,
		MilestoneStep:    500,
		MilestoneCoins:   50,
	}
}

// normalized fills zero or inconsistent fields from the defaults so a
// partially written config never yields a zero milestone step.
func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MilestoneStep <= 0 {
		p.MilestoneStep = d.MilestoneStep
	}
	if p.GoldMax < p.GoldMin {
		p.GoldMax = p.GoldMin
	}
	p.GoldChance = min(max(p.GoldChance, 0), 1)
	if p.TimeMidFraction > p.TimeHighFraction {
		p.TimeMidFraction = p.TimeHighFraction
	}
	return p
}

// TimeBonus returns the speed bonus for an answer given with remainingMs
// of a totalMs window left.
func (p Policy) TimeBonus(remainingMs, totalMs int64) int {
	if totalMs <= 0 || remainingMs <= 0 {
		return 0
	}
	frac := float64(remainingMs) / float64(totalMs)
	switch {
	case frac > p.TimeHighFraction:
		return p.TimeBonusHigh
	case frac > p.TimeMidFraction:
		return p.TimeBonusMid
	}
	return 0
}
