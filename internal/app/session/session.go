// Package session bundles one user's progress store, score engine and
// portal controller, and serializes access to them per user.
package session

import (
	"log"
	"math/rand/v2"
	"sync"

	"github.com/desafio-logico/desafio/internal/app/gate"
	"github.com/desafio-logico/desafio/internal/app/progress"
	"github.com/desafio-logico/desafio/internal/app/scoring"
	"github.com/desafio-logico/desafio/internal/domain"
)

// Session is the per-user handle. Use it only inside Registry.With.
type Session struct {
	Store     *progress.Store
	Engine    *scoring.Engine
	Gate      *gate.Controller
	Migration progress.MigrationReport
}

// UserID returns the sanitized user id.
func (s *Session) UserID() string { return s.Store.UserID() }

// Config holds what every new session is built from.
type Config struct {
	Plain   domain.KeyValueStore
	Secure  domain.KeyValueStore
	Clock   domain.Clock
	Scoring scoring.Policy
	Gate    gate.Policy

	// Fallback is the tier used while the cipher was unavailable. Set it
	// only when Secure is the sealed tier; its rows move into Secure.
	Fallback domain.KeyValueStore

	// NewRandom seeds each session's bonus roller. Nil uses a random PCG.
	NewRandom func() domain.Random
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Registry hands out sessions by user id. Every mutation of a user's state
// goes through With, which holds that user's lock; read-then-write steps
// such as increment-then-clamp or reserve-then-increment stay atomic when
// requests for one user arrive concurrently.
type Registry struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.NewRandom == nil {
		cfg.NewRandom = func() domain.Random {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	return &Registry{cfg: cfg, entries: make(map[string]*entry)}
}

// With runs fn with the session of rawUserID under that user's lock. The
// session is created, and its migration run, on first use.
func (r *Registry) With(rawUserID string, fn func(*Session) error) error {
	e := r.entry(progress.SanitizeUserID(rawUserID))
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		e.sess = r.open(rawUserID)
	}
	return fn(e.sess)
}

// Reset wipes a user's local data and drops the in-memory session so the
// next request starts from the zero state. The entry, and with it the
// user's lock, stays in place for requests already queued on it.
func (r *Registry) Reset(rawUserID string) (removed int) {
	e := r.entry(progress.SanitizeUserID(rawUserID))
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess == nil {
		e.sess = r.open(rawUserID)
	}
	removed = e.sess.Store.ResetUserLocalData()
	e.sess.Engine.Reset()
	e.sess = nil
	return removed
}

// Users returns the ids the registry has handed a session to.
func (r *Registry) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	return out
}

func (r *Registry) entry(id string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	return e
}

func (r *Registry) open(rawUserID string) *Session {
	store := progress.New(r.cfg.Plain, r.cfg.Secure, rawUserID, r.cfg.Clock)
	if r.cfg.Fallback != nil {
		store.SetFallback(r.cfg.Fallback)
	}
	// The gate registers its keys with the store; it must exist before
	// migration runs.
	g := gate.New(store, r.cfg.Gate)
	eng := scoring.NewEngine(store, r.cfg.Scoring, r.cfg.NewRandom())

	rep := store.MigrateIfNeeded()
	if rep.Migrated > 0 || len(rep.Failed) > 0 {
		log.Printf("[session] %s migrated %d keys (%d skipped, %d failed)",
			rep.User, rep.Migrated, rep.Skipped, len(rep.Failed))
	}
	return &Session{Store: store, Engine: eng, Gate: g, Migration: rep}
}
