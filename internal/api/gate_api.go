package api

import (
	"net/http"

	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/domain"
)

// ─── Portal gate ─────────────────────────────────────────────────────────────

type gateView struct {
	domain.GateStatus
	ShouldAutoOpen bool `json:"should_auto_open"`
}

func (s *Server) handleGateStatus(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(sess *session.Session) error {
		writeJSON(w, http.StatusOK, gateView{
			GateStatus:     sess.Gate.Status(),
			ShouldAutoOpen: sess.Gate.ShouldAutoOpen(),
		})
		return nil
	})
}

// runStep adapts a run transition to a handler.
func (s *Server) runStep(step func(*session.Session) (domain.RunState, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withUser(w, r, func(sess *session.Session) error {
			run, err := step(sess)
			if err != nil {
				return err
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"run":           run,
				"attempts_left": sess.Gate.AttemptsLeftToday(),
				"relics":        sess.Gate.Relics(),
			})
			return nil
		})
	}
}

func (s *Server) handleGateReserve(w http.ResponseWriter, r *http.Request) {
	s.runStep(func(sess *session.Session) (domain.RunState, error) {
		return sess.Gate.Start()
	})(w, r)
}

type gateAnswerRequest struct {
	Correct bool `json:"correct"`
}

func (s *Server) handleGateAnswer(w http.ResponseWriter, r *http.Request) {
	var req gateAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.runStep(func(sess *session.Session) (domain.RunState, error) {
		return sess.Gate.Answer(req.Correct)
	})(w, r)
}

func (s *Server) handleGateBackground(w http.ResponseWriter, r *http.Request) {
	s.runStep(func(sess *session.Session) (domain.RunState, error) {
		return sess.Gate.OnBackground()
	})(w, r)
}

func (s *Server) handleGateResume(w http.ResponseWriter, r *http.Request) {
	s.runStep(func(sess *session.Session) (domain.RunState, error) {
		return sess.Gate.OnResume()
	})(w, r)
}

type gateFinishRequest struct {
	Win bool `json:"win"`
}

func (s *Server) handleGateFinish(w http.ResponseWriter, r *http.Request) {
	var req gateFinishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.withUser(w, r, func(sess *session.Session) error {
		writeJSON(w, http.StatusOK, map[string]int{
			"relics": sess.Gate.FinishRun(req.Win),
		})
		return nil
	})
}

func (s *Server) handleGateAutoOpened(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(sess *session.Session) error {
		sess.Gate.MarkAutoOpened()
		writeJSON(w, http.StatusOK, gateView{GateStatus: sess.Gate.Status()})
		return nil
	})
}
