package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desafio-logico/desafio/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func statusOf(t *testing.T, c *Checker, name string) Status {
	t.Helper()
	for _, s := range c.Statuses() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("check %q not found", name)
	return Status{}
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db, db.Tier(sqlite.TierSecure), t.TempDir())
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db, db.Tier(sqlite.TierSecure), t.TempDir())

	statuses := c.RunOnce(context.Background())
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db, db.Tier(sqlite.TierSecure), t.TempDir())

	// No statuses yet: vacuously healthy.
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run")
	}
}

func TestChecker_SecureProbeLeavesNoTrace(t *testing.T) {
	db := newTestDB(t)
	secure := db.Tier(sqlite.TierSecure)
	c := NewChecker(db, secure, t.TempDir())
	c.runAll(context.Background())

	if !statusOf(t, c, "secure_store").Healthy {
		t.Error("secure_store should be healthy")
	}
	if secure.Contains(probeKey) {
		t.Error("probe key should be removed")
	}
}

func TestChecker_DataDirRecovers(t *testing.T) {
	db := newTestDB(t)
	dataDir := filepath.Join(t.TempDir(), "missing")

	c := NewChecker(db, db.Tier(sqlite.TierSecure), dataDir)
	c.runAll(context.Background())
	if statusOf(t, c, "data_dir").Healthy {
		t.Error("missing data dir should fail the first run")
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Fatalf("recovery should create the dir: %v", err)
	}

	c.runAll(context.Background())
	if !statusOf(t, c, "data_dir").Healthy {
		t.Error("data_dir should be healthy after recovery")
	}
}

func TestChecker_DataDirIsFile(t *testing.T) {
	db := newTestDB(t)
	path := filepath.Join(t.TempDir(), "data")
	os.WriteFile(path, []byte("not a dir"), 0644)

	c := NewChecker(db, db.Tier(sqlite.TierSecure), path)
	c.runAll(context.Background())
	if statusOf(t, c, "data_dir").Healthy {
		t.Error("data_dir should fail when path is a file")
	}
}

func TestChecker_AddCheck(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db, db.Tier(sqlite.TierSecure), t.TempDir())
	c.AddCheck(Check{
		Name: "leaderboard",
		CheckFn: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	})

	c.runAll(context.Background())
	s := statusOf(t, c, "leaderboard")
	if s.Healthy || s.Error != "connection refused" {
		t.Errorf("status = %+v", s)
	}
	if c.IsHealthy() {
		t.Error("one failing check should make the checker unhealthy")
	}
}

func TestChecker_Run_StopsOnCancel(t *testing.T) {
	c := &Checker{
		interval: 10,
		checks: []Check{{
			Name:    "always_pass",
			CheckFn: func(ctx context.Context) error { return nil },
		}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if len(c.Statuses()) != 1 {
		t.Error("Run should check once before the first tick")
	}
}
