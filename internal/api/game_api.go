package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/desafio-logico/desafio/internal/app/levels"
	"github.com/desafio-logico/desafio/internal/app/progress"
	"github.com/desafio-logico/desafio/internal/app/scoring"
	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/domain"
)

// ─── Game API (/api/users/{user}/*) ──────────────────────────────────────────
// Every handler runs under the user's session lock.

// withUser runs fn on the session named by the {user} path parameter.
// fn writes its own success response; a returned error is mapped to a status.
func (s *Server) withUser(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	err := s.sessions.With(userParam(r), fn)
	if err != nil {
		writeDomainError(w, err)
	}
}

func userParam(r *http.Request) string { return chi.URLParam(r, "user") }

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// --- /progress ---

type levelView struct {
	Level       domain.LevelID `json:"level"`
	Unlocked    bool           `json:"unlocked"`
	Correct     int            `json:"correct"`
	MapProgress int            `json:"map_progress"`
	Seen        int            `json:"seen"`
	Scored      int            `json:"scored"`
}

type progressView struct {
	User           string            `json:"user"`
	Coins          int               `json:"coins"`
	XP             int               `json:"xp"`
	OverallScore   int               `json:"overall_score"`
	HighestStreak  int               `json:"highest_streak"`
	UnlockedLevels []domain.LevelID  `json:"unlocked_levels"`
	Levels         []levelView       `json:"levels"`
	NextLevel      *levels.Threshold `json:"next_level,omitempty"`
	ProgressToNext float64           `json:"progress_to_next"`
	Daily          domain.DailyState `json:"daily"`
	DailyDoneToday bool              `json:"daily_done_today"`
	Relics         int               `json:"relics"`
	Session        scoring.Snapshot  `json:"session"`
}

func buildProgress(sess *session.Session) progressView {
	st := sess.Store
	score := st.OverallTotalScore()
	v := progressView{
		User:           sess.UserID(),
		Coins:          st.Coins(),
		XP:             st.XP(),
		OverallScore:   score,
		HighestStreak:  st.HighestStreak(),
		UnlockedLevels: st.UnlockedLevels(),
		ProgressToNext: levels.ProgressToNext(score),
		Daily:          st.DailyState(),
		DailyDoneToday: st.IsDailyDoneToday(),
		Relics:         sess.Gate.Relics(),
		Session:        sess.Engine.Snapshot(),
	}
	v.Daily.Streak = st.DailyStreak()
	if next, ok := levels.NextThreshold(score); ok {
		v.NextLevel = &next
	}
	all := append(append([]domain.LevelID{}, domain.OrderedLevels...), domain.LevelEnigma)
	for _, l := range all {
		v.Levels = append(v.Levels, levelView{
			Level:       l,
			Unlocked:    st.IsLevelUnlocked(l),
			Correct:     st.CorrectForLevel(l),
			MapProgress: st.MapProgress(l),
			Seen:        st.SeenCount(l),
			Scored:      st.ScoredCount(l),
		})
	}
	return v
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(sess *session.Session) error {
		writeJSON(w, http.StatusOK, buildProgress(sess))
		return nil
	})
}

// --- DELETE / (reset) and /migrate ---

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	user := userParam(r)
	removed := s.sessions.Reset(user)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    progress.SanitizeUserID(user),
		"removed": removed,
	})
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(sess *session.Session) error {
		rep := sess.Store.MigrateIfNeeded()
		sess.Migration = rep
		writeJSON(w, http.StatusOK, rep)
		return nil
	})
}

// --- /run (start a level) ---

type startRunRequest struct {
	Level domain.LevelID `json:"level"`
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Level == "" {
		req.Level = domain.EntryLevel
	}
	s.withUser(w, r, func(sess *session.Session) error {
		if !req.Level.Valid() {
			return fmt.Errorf("%w: %s", domain.ErrUnknownLevel, req.Level)
		}
		if !sess.Store.IsLevelUnlocked(req.Level) {
			return fmt.Errorf("%w: %s", domain.ErrLevelLocked, req.Level)
		}
		pool := s.questions.QuestionsForLevel(req.Level)
		if len(pool) == 0 {
			return fmt.Errorf("%w: %s", domain.ErrNotEnoughQuestions, req.Level)
		}
		sess.Engine.StartRun(req.Level)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session":   sess.Engine.Snapshot(),
			"questions": pool,
		})
		return nil
	})
}

// --- /answers ---

type answerRequest struct {
	Level       domain.LevelID `json:"level"`
	Question    string         `json:"question"`
	Correct     bool           `json:"correct"`
	RemainingMs int64          `json:"remaining_ms"`
	TotalMs     int64          `json:"total_ms"`
}

type answerResponse struct {
	scoring.AnswerResult
	Coins          int              `json:"coins"`
	UnlockedLevels []domain.LevelID `json:"unlocked_levels,omitempty"`
	MapRewards     []string         `json:"map_rewards,omitempty"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if progress.NormalizeQuestionKey(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	s.withUser(w, r, func(sess *session.Session) error {
		level := sess.Engine.Snapshot().Level
		if req.Level != "" && req.Level != level {
			writeError(w, http.StatusConflict,
				fmt.Sprintf("answer is for level %s but the run is on %s", req.Level, level))
			return nil
		}

		res := answerResponse{
			AnswerResult: sess.Engine.Answer(req.Question, req.Correct, req.RemainingMs, req.TotalMs),
		}
		if res.Scored {
			res.UnlockedLevels = levels.CheckAndSaveLevelUnlocks(sess.Store)
			res.MapRewards = sess.Store.CheckMapRewards(level)
		}
		res.Coins = sess.Store.Coins()
		writeJSON(w, http.StatusOK, res)
		return nil
	})
}

// --- /review-hit ---

func (s *Server) handleReviewHit(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(sess *session.Session) error {
		streak, record := sess.Engine.OnCorrectAnswer()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"score":      sess.Engine.Snapshot().Score,
			"streak":     streak,
			"new_record": record,
		})
		return nil
	})
}

// --- /levels/check ---

func (s *Server) handleCheckLevels(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(sess *session.Session) error {
		unlocked := levels.CheckAndSaveLevelUnlocks(sess.Store)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"newly_unlocked": unlocked,
			"levels":         sess.Store.UnlockedLevels(),
		})
		return nil
	})
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ladder":     domain.OrderedLevels,
		"thresholds": levels.Thresholds,
	})
}

// --- /daily ---

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	level := domain.LevelID(r.URL.Query().Get("level"))
	if level == "" {
		level = domain.EntryLevel
	}
	s.withUser(w, r, func(sess *session.Session) error {
		if !level.Valid() {
			return fmt.Errorf("%w: %s", domain.ErrUnknownLevel, level)
		}
		if !sess.Store.IsLevelUnlocked(level) {
			return fmt.Errorf("%w: %s", domain.ErrLevelLocked, level)
		}
		qs := sess.Store.DailyQuestions(level, s.questions)
		if len(qs) == 0 {
			return fmt.Errorf("%w: %s", domain.ErrNotEnoughQuestions, level)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"day":        sess.Store.Clock().Today(),
			"level":      level,
			"done_today": sess.Store.IsDailyDoneToday(),
			"streak":     sess.Store.DailyStreak(),
			"questions":  qs,
		})
		return nil
	})
}

func (s *Server) handleDailyResult(w http.ResponseWriter, r *http.Request) {
	var req domain.DailyResult
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Correct < 0 || req.Correct > domain.DailyQuestionCount || req.Score < 0 || req.XP < 0 {
		writeDomainError(w, fmt.Errorf("%w: daily result out of range", domain.ErrInvalidAmount))
		return
	}
	s.withUser(w, r, func(sess *session.Session) error {
		recorded, titles := sess.Store.RecordDailyResult(req)
		if recorded && req.XP > 0 {
			sess.Store.AddXP(req.XP)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"recorded":        recorded,
			"streak":          sess.Store.DailyStreak(),
			"unlocked_titles": titles,
			"xp":              sess.Store.XP(),
		})
		return nil
	})
}
