// Package api provides the HTTP server for Desafio.
// It exposes the progression core (scores, daily challenge, cosmetics,
// portal gate, weekly board) to a UI layer as JSON.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/health"
	"github.com/desafio-logico/desafio/internal/infra/leaderboard"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the Desafio HTTP API server.
type Server struct {
	sessions       *session.Registry
	questions      domain.QuestionSource
	clock          domain.Clock
	board          domain.Leaderboard
	health         *health.Checker
	corsOrigins    []string
	installID      string
	metricsEnabled bool
}

// NewServer creates a new API server. The weekly board starts disabled.
func NewServer(sessions *session.Registry, questions domain.QuestionSource, clock domain.Clock) *Server {
	return &Server{
		sessions:  sessions,
		questions: questions,
		clock:     clock,
		board:     leaderboard.Disabled{},
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetLeaderboard sets the weekly championship backend.
func (s *Server) SetLeaderboard(b domain.Leaderboard) {
	if b != nil {
		s.board = b
	}
}

// SetHealth makes /health report the checker's results.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetInstallationID names this installation's guest on the weekly board.
func (s *Server) SetInstallationID(id string) { s.installID = id }

// SetCORSOrigins restricts cross-origin callers. Empty or "*" allows any.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Get("/api/levels", s.handleLevels)
	r.Get("/api/cosmetics", s.handleCatalog)
	r.Get("/api/weekly", s.handleWeeklyTop)

	r.Route("/api/users/{user}", func(r chi.Router) {
		r.Get("/progress", s.handleProgress)
		r.Delete("/", s.handleReset)
		r.Post("/migrate", s.handleMigrate)

		r.Post("/run", s.handleStartRun)
		r.Post("/answers", s.handleAnswer)
		r.Post("/review-hit", s.handleReviewHit)
		r.Post("/levels/check", s.handleCheckLevels)

		r.Get("/daily", s.handleDaily)
		r.Post("/daily/result", s.handleDailyResult)

		r.Get("/cosmetics", s.handleCosmetics)
		r.Post("/cosmetics/{category}/{id}/buy", s.handleBuyCosmetic)
		r.Post("/cosmetics/{category}/{id}/select", s.handleSelectCosmetic)
		r.Post("/pets/{id}/evolve", s.handleEvolvePet)

		r.Get("/gate", s.handleGateStatus)
		r.Post("/gate/reserve", s.handleGateReserve)
		r.Post("/gate/answer", s.handleGateAnswer)
		r.Post("/gate/background", s.handleGateBackground)
		r.Post("/gate/resume", s.handleGateResume)
		r.Post("/gate/finish", s.handleGateFinish)
		r.Post("/gate/auto-opened", s.handleGateAutoOpened)

		r.Get("/weekly", s.handleWeeklyRank)
		r.Post("/weekly/submit", s.handleWeeklySubmit)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	statuses := s.health.Statuses()
	if len(statuses) == 0 {
		statuses = s.health.RunOnce(r.Context())
	}
	status, code := "ok", http.StatusOK
	for _, st := range statuses {
		if !st.Healthy {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": statuses,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps core sentinels onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInsufficientCoins):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrUnknownCosmetic),
		errors.Is(err, domain.ErrUnknownLevel):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLevelLocked),
		errors.Is(err, domain.ErrCosmeticLocked):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDailyAttemptsExhausted),
		errors.Is(err, domain.ErrNoActiveRun),
		errors.Is(err, domain.ErrRunFinished),
		errors.Is(err, domain.ErrCosmeticOwned),
		errors.Is(err, domain.ErrPetMaxEvolution):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCosmeticNotOnSale),
		errors.Is(err, domain.ErrNotEnoughQuestions),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLeaderboardDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// corsMiddleware adds CORS headers for the UI layer.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if len(s.corsOrigins) == 0 || slices.Contains(s.corsOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(s.corsOrigins, origin) {
		return origin
	}
	return ""
}
