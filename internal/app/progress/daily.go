package progress

import (
	"math/rand/v2"
	"slices"

	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/clock"
)

const (
	keyDailyLastDone    = "daily_last_done"
	keyDailyStreak      = "daily_streak"
	keyDailyLastCorrect = "daily_last_correct"
	keyDailyLastScore   = "daily_last_score"
	keyDailyLastXP      = "daily_last_xp"
	keyDailySelected    = "daily_selected_questions"
	keyDailyPickDate    = "daily_pick_date"
)

// Daily streak lengths that unlock a title.
var dailyStreakTitles = []struct {
	days int
	id   string
}{
	{3, "title_constante"},
	{7, "title_imparavel"},
}

// DailyState returns the persisted daily-challenge record.
func (s *Store) DailyState() domain.DailyState {
	kv, sc := s.secure, s.scope
	return domain.DailyState{
		LastDoneDate: kv.GetString(sc.Key(keyDailyLastDone), ""),
		Streak:       max(0, kv.GetInt(sc.Key(keyDailyStreak), 0)),
		LastResult: domain.DailyResult{
			Correct: max(0, kv.GetInt(sc.Key(keyDailyLastCorrect), 0)),
			Score:   max(0, kv.GetInt(sc.Key(keyDailyLastScore), 0)),
			XP:      max(0, kv.GetInt(sc.Key(keyDailyLastXP), 0)),
		},
		SelectedTexts:    kv.GetStringSet(sc.Key(keyDailySelected)),
		QuestionPickDate: kv.GetString(sc.Key(keyDailyPickDate), ""),
	}
}

// IsDailyDoneToday reports whether today's challenge was already recorded.
func (s *Store) IsDailyDoneToday() bool {
	return s.secure.GetString(s.scope.Key(keyDailyLastDone), "") == s.clock.Today()
}

// DailyStreak returns the current daily streak as it stands today: a streak
// whose last day is before yesterday reads as zero.
func (s *Store) DailyStreak() int {
	st := s.DailyState()
	today := s.clock.Today()
	if st.LastDoneDate == today || st.LastDoneDate == clock.PreviousDay(today) {
		return st.Streak
	}
	return 0
}

// RecordDailyResult stores today's outcome and advances the daily streak.
// A second call on the same day is a no-op returning false. Cosmetics
// unlocked by the new streak are returned.
func (s *Store) RecordDailyResult(result domain.DailyResult) (recorded bool, unlocked []string) {
	today := s.clock.Today()
	st := s.DailyState()
	if st.LastDoneDate == today {
		return false, nil
	}

	streak := 1
	if st.LastDoneDate != "" && st.LastDoneDate == clock.PreviousDay(today) {
		streak = st.Streak + 1
	}

	kv, sc := s.secure, s.scope
	s.persisted(sc.Key(keyDailyLastDone), kv.PutString(sc.Key(keyDailyLastDone), today))
	s.putInt(keyDailyStreak, streak)
	s.putInt(keyDailyLastCorrect, max(0, result.Correct))
	s.putInt(keyDailyLastScore, max(0, result.Score))
	s.putInt(keyDailyLastXP, max(0, result.XP))

	for _, t := range dailyStreakTitles {
		if streak >= t.days {
			if ok, _ := s.UnlockCosmetic(domain.CosmeticTitle, t.id); ok {
				unlocked = append(unlocked, t.id)
			}
		}
	}
	return true, unlocked
}

// DailyQuestions picks today's questions for this user from level's pool.
// The pick is seeded by the date and the user id, so it is stable all day
// and differs between users. The chosen texts are persisted; later calls on
// the same day restore them by text. Pools smaller than the daily count are
// returned unchanged.
func (s *Store) DailyQuestions(level domain.LevelID, src domain.QuestionSource) []domain.Question {
	pool := src.QuestionsForLevel(level)
	if len(pool) < domain.DailyQuestionCount {
		return slices.Clone(pool)
	}

	today := s.clock.Today()
	kv, sc := s.secure, s.scope

	if kv.GetString(sc.Key(keyDailyPickDate), "") == today {
		if restored := restorePicked(pool, kv.GetStringSet(sc.Key(keyDailySelected))); restored != nil {
			return restored
		}
	}

	picked := PickDaily(pool, today, s.scope.User())

	texts := make([]string, len(picked))
	for i, q := range picked {
		texts[i] = NormalizeQuestionKey(q.Text)
	}
	s.persisted(sc.Key(keyDailySelected), kv.PutStringSet(sc.Key(keyDailySelected), texts))
	s.persisted(sc.Key(keyDailyPickDate), kv.PutString(sc.Key(keyDailyPickDate), today))
	return picked
}

// DailySeed is hash(day) + 31*hash(userID) in 32-bit arithmetic.
func DailySeed(day, userID string) int32 {
	return stringHash(day) + 31*stringHash(userID)
}

// PickDaily deterministically shuffles pool with DailySeed and returns the
// first DailyQuestionCount.
func PickDaily(pool []domain.Question, day, userID string) []domain.Question {
	if len(pool) < domain.DailyQuestionCount {
		return slices.Clone(pool)
	}
	seed := DailySeed(day, userID)
	rng := rand.New(rand.NewPCG(uint64(int64(seed)), 0))

	shuffled := slices.Clone(pool)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:domain.DailyQuestionCount]
}

// restorePicked returns the pool questions whose texts were saved, in pool
// order, or nil when the saved set no longer matches the pool.
func restorePicked(pool []domain.Question, saved []string) []domain.Question {
	if len(saved) != domain.DailyQuestionCount {
		return nil
	}
	want := make(map[string]struct{}, len(saved))
	for _, t := range saved {
		want[t] = struct{}{}
	}

	var out []domain.Question
	for _, q := range pool {
		k := NormalizeQuestionKey(q.Text)
		if _, ok := want[k]; ok {
			out = append(out, q)
			delete(want, k)
		}
	}
	if len(out) != domain.DailyQuestionCount {
		return nil
	}
	return out
}

// stringHash is the classic 31-multiplier string hash over UTF-16 code
// units with 32-bit wraparound.
func stringHash(s string) int32 {
	var h int32
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			h = 31*h + int32(0xD800+(r>>10))
			h = 31*h + int32(0xDC00+(r&0x3FF))
			continue
		}
		h = 31*h + int32(r)
	}
	return h
}
