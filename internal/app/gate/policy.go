package gate

import "time"

// Policy holds the gate's budget and run tuning.
type Policy struct {
	MaxTriesPerDay  int
	Stages          int
	ErrorsAllowed   int
	StabilityStart  int
	HealOnCorrect   int
	PenaltyBase     int
	PenaltyPerStage int
	DecayPerSecond  int
	TimeBudget      time.Duration // 0 = unlimited
}

// MaxStability is the ceiling of the stability meter.
const MaxStability = 100

// DefaultPolicy returns the reference tuning.
func DefaultPolicy() Policy {
	return Policy{
		MaxTriesPerDay:  3,
		Stages:          3,
		ErrorsAllowed:   2,
		StabilityStart:  MaxStability,
		HealOnCorrect:   6,
		PenaltyBase:     14,
		PenaltyPerStage: 4,
		DecayPerSecond:  1,
		TimeBudget:      90 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MaxTriesPerDay <= 0 {
		p.MaxTriesPerDay = d.MaxTriesPerDay
	}
	if p.Stages <= 0 {
		p.Stages = d.Stages
	}
	if p.ErrorsAllowed <= 0 {
		p.ErrorsAllowed = d.ErrorsAllowed
	}
	if p.StabilityStart <= 0 || p.StabilityStart > MaxStability {
		p.StabilityStart = MaxStability
	}
	p.DecayPerSecond = max(0, p.DecayPerSecond)
	return p
}

// WrongPenalty is the stability lost for a wrong answer at stage.
func (p Policy) WrongPenalty(stage int) int {
	return p.PenaltyBase + stage*p.PenaltyPerStage
}
