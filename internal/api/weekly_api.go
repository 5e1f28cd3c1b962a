package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/desafio-logico/desafio/internal/app/progress"
	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/leaderboard"
)

// ─── Weekly championship ─────────────────────────────────────────────────────

func (s *Server) week(r *http.Request) string {
	if w := r.URL.Query().Get("week"); w != "" {
		return w
	}
	return leaderboard.WeekID(s.clock.Now())
}

// boardID is the id a player is ranked under. Guests of different
// installations would collide on "guest", so theirs carries the
// installation id.
func (s *Server) boardID(user string) string {
	if user != progress.GuestUserID || s.installID == "" {
		return user
	}
	id := strings.ReplaceAll(s.installID, "-", "")
	if len(id) > 12 {
		id = id[:12]
	}
	return user + "_" + id
}

func (s *Server) handleWeeklyTop(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, 100)
	}
	week := s.week(r)
	top, err := s.board.Top(r.Context(), week, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"week":    week,
		"entries": top,
	})
}

func (s *Server) handleWeeklyRank(w http.ResponseWriter, r *http.Request) {
	user := s.boardID(progress.SanitizeUserID(userParam(r)))
	week := s.week(r)
	rank, err := s.board.Rank(r.Context(), week, user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"week": week,
		"user": user,
		"rank": rank,
	})
}

type weeklySubmitRequest struct {
	Score int `json:"score"`
}

// handleWeeklySubmit posts a score to this week's board; without a score
// in the body the live session score is used. The board keeps the best.
func (s *Server) handleWeeklySubmit(w http.ResponseWriter, r *http.Request) {
	var req weeklySubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var user string
	score := req.Score
	_ = s.sessions.With(userParam(r), func(sess *session.Session) error {
		user = s.boardID(sess.UserID())
		if score <= 0 {
			score = sess.Engine.Snapshot().Score
		}
		return nil
	})
	if score <= 0 {
		writeDomainError(w, fmt.Errorf("%w: nothing to submit", domain.ErrInvalidAmount))
		return
	}

	week := s.week(r)
	if err := s.board.Submit(r.Context(), week, user, score); err != nil {
		log.Printf("[api] weekly submit for %s: %v", user, err)
		writeDomainError(w, err)
		return
	}
	rank, _ := s.board.Rank(r.Context(), week, user)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"week":  week,
		"score": score,
		"rank":  rank,
	})
}
