package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/security"
)

func newTestDaemon(t *testing.T, mutate func(*Config)) *Daemon {
	t.Helper()
	t.Setenv("DESAFIO_HOME", t.TempDir())
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestNewWithConfig_WiresServices(t *testing.T) {
	d := newTestDaemon(t, nil)

	if !d.Encrypted {
		t.Error("secure tier should be encrypted by default")
	}
	if _, err := os.Stat(filepath.Join(d.Config.Storage.Dir, "keys", "data.key")); err != nil {
		t.Errorf("data key not created: %v", err)
	}
	if n := d.Questions.Count(); len(n) == 0 {
		t.Error("built-in questions should be loaded when no bank dir exists")
	}

	err := d.Sessions.With("ana", func(s *session.Session) error {
		s.Store.AddCoins(10)
		return nil
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if d.Plain.Contains("ana_coins") {
		t.Error("progress must not land in the plain tier")
	}

	w := httptest.NewRecorder()
	d.Server.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/users/ana/progress", nil))
	if w.Code != http.StatusOK {
		t.Errorf("progress status = %d", w.Code)
	}
}

func TestNewWithConfig_EncryptionDisabled(t *testing.T) {
	d := newTestDaemon(t, func(c *Config) { c.Storage.Encrypt = false })
	if d.Encrypted {
		t.Error("Encrypted should be false when disabled")
	}
}

func TestNewWithConfig_LeaderboardUnreachable(t *testing.T) {
	d := newTestDaemon(t, func(c *Config) {
		c.Leaderboard.Enabled = true
		c.Leaderboard.RedisAddr = "127.0.0.1:1" // nothing listens here
	})
	if d.redis == nil || d.retry == nil {
		t.Fatal("an unreachable redis should still be wired behind the retry queue")
	}
	if d.Board != d.retry {
		t.Error("board should be the retrying wrapper")
	}

	ctx := context.Background()
	if err := d.Board.Submit(ctx, "2026-W43", "ana", 120); err == nil {
		t.Error("submit to a dead server should report the error")
	}
	if st := d.retry.Stats(); st.Pending != 1 {
		t.Errorf("pending retries = %d, want 1", st.Pending)
	}

	healthy := true
	for _, st := range d.Health.RunOnce(ctx) {
		if st.Name == "leaderboard" {
			healthy = st.Healthy
		}
	}
	if healthy {
		t.Error("leaderboard check should report the outage")
	}
}

func TestNewWithConfig_FallbackDrainedWhenCipherReturns(t *testing.T) {
	home := t.TempDir()
	t.Setenv("DESAFIO_HOME", home)

	// A plain file where the key directory belongs breaks key setup.
	keys := filepath.Join(home, "keys")
	if err := os.WriteFile(keys, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	d1, err := NewWithConfig(DefaultConfig())
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	if d1.Encrypted {
		t.Fatal("first start should run on the fallback tier")
	}
	_ = d1.Sessions.With("ana", func(s *session.Session) error {
		s.Store.AddCoins(500)
		return nil
	})
	d1.Close()

	if err := os.Remove(keys); err != nil {
		t.Fatal(err)
	}
	d2, err := NewWithConfig(DefaultConfig())
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	defer d2.Close()
	if !d2.Encrypted {
		t.Fatal("second start should be encrypted")
	}

	_ = d2.Sessions.With("ana", func(s *session.Session) error {
		if got := s.Store.Coins(); got != 500 {
			t.Errorf("coins after cipher returned = %d, want 500", got)
		}
		return nil
	})
	if d2.DB.Tier(security.TierFallback).Contains("ana_coins") {
		t.Error("fallback copy should be removed once sealed")
	}
}

func TestNewWithConfig_BadQuestionBank(t *testing.T) {
	t.Setenv("DESAFIO_HOME", t.TempDir())
	cfg := DefaultConfig()
	if err := os.MkdirAll(cfg.Questions.BankDir, 0700); err != nil {
		t.Fatal(err)
	}
	bad := "[[question]]\nlevel = \"mythic\"\ntext = \"?\"\noptions = [\"a\",\"b\"]\ncorrect_index = 0\n"
	if err := os.WriteFile(filepath.Join(cfg.Questions.BankDir, "bad.toml"), []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWithConfig(cfg); err == nil {
		t.Error("unknown level in a bank should fail startup")
	}
}
