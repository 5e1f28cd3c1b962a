// Package levels maps the lifetime score onto the unlocked level ladder.
package levels

import (
	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/metrics"
)

// Threshold is the lifetime score at which a level opens.
type Threshold struct {
	Level domain.LevelID `json:"level"`
	Score int            `json:"score"`
}

// Thresholds is the ladder, lowest first. The entry level needs no score.
var Thresholds = []Threshold{
	{domain.LevelIntermediate, 3500},
	{domain.LevelAdvanced, 6000},
	{domain.LevelExpert, 10000},
}

// Store is what unlock persistence needs from the progress store.
type Store interface {
	OverallTotalScore() int
	UnlockLevel(level domain.LevelID) bool
}

// LevelsForScore returns every ladder level open at score, entry first.
func LevelsForScore(score int) []domain.LevelID {
	out := []domain.LevelID{domain.EntryLevel}
	for _, t := range Thresholds {
		if score >= t.Score {
			out = append(out, t.Level)
		}
	}
	return out
}

// CheckAndSaveLevelUnlocks persists every level the stored lifetime score
// has reached and returns only those unlocked by this call.
func CheckAndSaveLevelUnlocks(s Store) []domain.LevelID {
	var unlocked []domain.LevelID
	for _, l := range LevelsForScore(s.OverallTotalScore()) {
		if l == domain.EntryLevel {
			continue
		}
		if s.UnlockLevel(l) {
			metrics.LevelUnlocks.WithLabelValues(string(l)).Inc()
			unlocked = append(unlocked, l)
		}
	}
	return unlocked
}

// NextThreshold returns the next level to open above score and the score it
// needs. ok is false once the whole ladder is open.
func NextThreshold(score int) (next Threshold, ok bool) {
	for _, t := range Thresholds {
		if score < t.Score {
			return t, true
		}
	}
	return Threshold{}, false
}

// ProgressToNext returns how far score is between the previous threshold
// and the next one, in [0,1]. 1 when the ladder is complete.
func ProgressToNext(score int) float64 {
	next, ok := NextThreshold(score)
	if !ok {
		return 1
	}
	prev := 0
	for _, t := range Thresholds {
		if t.Score < next.Score {
			prev = t.Score
		}
	}
	return min(max(float64(score-prev)/float64(next.Score-prev), 0), 1)
}
