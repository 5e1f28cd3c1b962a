package domain

import (
	"errors"
	"testing"
)

func TestLevelID_Valid(t *testing.T) {
	for _, l := range append(OrderedLevels, LevelEnigma) {
		if !l.Valid() {
			t.Errorf("%s should be valid", l)
		}
	}
	for _, l := range []LevelID{"", "Beginner", "mythic"} {
		if l.Valid() {
			t.Errorf("%q should be invalid", l)
		}
	}
	if OrderedLevels[0] != EntryLevel {
		t.Error("the ladder should start at the entry level")
	}
}

func TestScoreBreakdown_Total(t *testing.T) {
	b := ScoreBreakdown{Base: 20, Streak: 35, Time: 10, Gold: 30}
	if got := b.Total(); got != 95 {
		t.Errorf("Total() = %d, want 95", got)
	}
	if (ScoreBreakdown{}).Total() != 0 {
		t.Error("zero breakdown should total 0")
	}
}

func TestCosmeticCategories_Distinct(t *testing.T) {
	seen := map[CosmeticCategory]bool{}
	for _, c := range CosmeticCategories {
		if seen[c] {
			t.Errorf("duplicate category %s", c)
		}
		seen[c] = true
	}
	if len(seen) != 5 {
		t.Errorf("categories = %d, want 5", len(seen))
	}
}

func TestSentinelErrors_Distinct(t *testing.T) {
	all := []error{
		ErrInsufficientCoins, ErrInvalidAmount, ErrLevelLocked, ErrUnknownLevel,
		ErrNotEnoughQuestions, ErrInvalidQuestion, ErrUnknownCosmetic, ErrCosmeticLocked,
		ErrCosmeticOwned, ErrCosmeticNotOnSale, ErrPetMaxEvolution,
		ErrDailyAttemptsExhausted, ErrNoActiveRun, ErrRunFinished,
		ErrCipherUnavailable, ErrLeaderboardDisabled,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}
