package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desafio-logico/desafio/internal/app/gate"
	"github.com/desafio-logico/desafio/internal/app/scoring"
	"github.com/desafio-logico/desafio/internal/infra/clock"
	"github.com/desafio-logico/desafio/internal/infra/sqlite"
)

func newTestRegistry(t *testing.T) (*Registry, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRegistry(Config{
		Plain:   db.Tier(sqlite.TierPlain),
		Secure:  db.Tier(sqlite.TierSecure),
		Clock:   clock.NewFixed(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)),
		Scoring: scoring.DefaultPolicy(),
		Gate:    gate.DefaultPolicy(),
	}), db
}

func TestWith_SameSessionPerUser(t *testing.T) {
	r, _ := newTestRegistry(t)

	var first, second *Session
	_ = r.With("ana@x", func(s *Session) error { first = s; return nil })
	_ = r.With("ana_x", func(s *Session) error { second = s; return nil })
	if first != second {
		t.Error("ids that sanitize the same should share a session")
	}
	if first.UserID() != "ana_x" {
		t.Errorf("user = %q", first.UserID())
	}
}

func TestWith_MigratesOnFirstUse(t *testing.T) {
	r, db := newTestRegistry(t)
	_ = db.Tier(sqlite.TierPlain).PutInt("ana_coins", 40)
	_ = db.Tier(sqlite.TierPlain).PutInt("ana_portal_relics", 2)

	_ = r.With("ana", func(s *Session) error {
		if s.Migration.Migrated != 2 {
			t.Errorf("migrated = %d, want 2", s.Migration.Migrated)
		}
		if s.Store.Coins() != 40 || s.Gate.Relics() != 2 {
			t.Error("migrated values not visible")
		}
		return nil
	})
}

func TestWith_SerializesPerUser(t *testing.T) {
	r, _ := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.With("ana", func(s *Session) error {
				s.Store.AddCoins(1)
				return nil
			})
		}()
	}
	wg.Wait()

	_ = r.With("ana", func(s *Session) error {
		if got := s.Store.Coins(); got != 50 {
			t.Errorf("coins = %d, want 50", got)
		}
		return nil
	})
}

func TestReset_DropsSession(t *testing.T) {
	r, _ := newTestRegistry(t)
	_ = r.With("ana", func(s *Session) error {
		s.Store.AddCoins(10)
		s.Engine.AddScore(0, 1)
		return nil
	})

	if n := r.Reset("ana"); n == 0 {
		t.Error("reset removed nothing")
	}
	_ = r.With("ana", func(s *Session) error {
		if s.Store.Coins() != 0 || s.Engine.Snapshot().Score != 0 {
			t.Error("state should be back to zero")
		}
		return nil
	})
}

func TestReset_KeepsUserSerialized(t *testing.T) {
	r, _ := newTestRegistry(t)

	var active, peak atomic.Int32
	work := func(*Session) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return nil
	}

	held := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = r.With("ana", func(*Session) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	// Both queue on ana's lock while it is held.
	wg.Add(2)
	go func() { defer wg.Done(); r.Reset("ana") }()
	go func() { defer wg.Done(); _ = r.With("ana", work) }()
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() { defer wg.Done(); _ = r.With("ana", work) }()
	}
	wg.Wait()

	if got := peak.Load(); got != 1 {
		t.Errorf("concurrent callbacks for one user = %d, want 1", got)
	}
}

func TestWith_DrainsFallbackTier(t *testing.T) {
	r, db := newTestRegistry(t)
	fallback := db.Tier("secure_fallback")
	r.cfg.Fallback = fallback
	_ = fallback.PutInt("ana_coins", 40)

	_ = r.With("ana", func(s *Session) error {
		if s.Store.Coins() != 40 {
			t.Errorf("coins = %d, want 40 drained from fallback", s.Store.Coins())
		}
		return nil
	})
	if fallback.Contains("ana_coins") {
		t.Error("fallback copy should be gone after the session opened")
	}
}
