package sqlite

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "state.db")); os.IsNotExist(err) {
		t.Error("state.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := db.Tier(TierPlain).PutInt("guest_coins", 42); err != nil {
		t.Fatalf("PutInt: %v", err)
	}
	db.Close()

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	if got := db2.Tier(TierPlain).GetInt("guest_coins", 0); got != 42 {
		t.Errorf("after reopen coins = %d, want 42", got)
	}
}

// ─── Typed Values ───────────────────────────────────────────────────────────

func TestStore_Defaults(t *testing.T) {
	s := newTestDB(t).Tier(TierPlain)

	if got := s.GetString("missing", "def"); got != "def" {
		t.Errorf("GetString = %q, want def", got)
	}
	if got := s.GetInt("missing", 7); got != 7 {
		t.Errorf("GetInt = %d, want 7", got)
	}
	if got := s.GetLong("missing", 9); got != 9 {
		t.Errorf("GetLong = %d, want 9", got)
	}
	if got := s.GetBool("missing", true); !got {
		t.Error("GetBool should return default true")
	}
	if got := s.GetStringSet("missing"); got != nil {
		t.Errorf("GetStringSet = %v, want nil", got)
	}
	if s.Contains("missing") {
		t.Error("Contains should be false")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestDB(t).Tier(TierPlain)

	_ = s.PutString("name", "ana")
	_ = s.PutInt("coins", 120)
	_ = s.PutLong("ts", 1_700_000_000_000)
	_ = s.PutBool("done", true)
	_ = s.PutStringSet("seen", []string{"b", "a", "b"})

	if got := s.GetString("name", ""); got != "ana" {
		t.Errorf("name = %q", got)
	}
	if got := s.GetInt("coins", 0); got != 120 {
		t.Errorf("coins = %d", got)
	}
	if got := s.GetLong("ts", 0); got != 1_700_000_000_000 {
		t.Errorf("ts = %d", got)
	}
	if !s.GetBool("done", false) {
		t.Error("done should be true")
	}
	if got := s.GetStringSet("seen"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("seen = %v, want [a b]", got)
	}
}

func TestStore_KindMismatchReadsDefault(t *testing.T) {
	s := newTestDB(t).Tier(TierPlain)
	_ = s.PutString("coins", "lots")

	if got := s.GetInt("coins", 3); got != 3 {
		t.Errorf("GetInt on string value = %d, want default 3", got)
	}
	if !s.Contains("coins") {
		t.Error("Contains should ignore kind")
	}
}

func TestStore_CorruptValueReadsDefault(t *testing.T) {
	s := newTestDB(t).Tier(TierPlain)
	_ = s.PutRaw("coins", KindInt, "not-a-number")
	_ = s.PutRaw("seen", KindSet, "{broken")

	if got := s.GetInt("coins", 5); got != 5 {
		t.Errorf("GetInt corrupt = %d, want 5", got)
	}
	if got := s.GetStringSet("seen"); got != nil {
		t.Errorf("GetStringSet corrupt = %v, want nil", got)
	}
}

func TestStore_Overwrite(t *testing.T) {
	s := newTestDB(t).Tier(TierPlain)
	_ = s.PutInt("xp", 1)
	_ = s.PutInt("xp", 2)
	if got := s.GetInt("xp", 0); got != 2 {
		t.Errorf("xp = %d, want 2", got)
	}
}

func TestStore_Remove(t *testing.T) {
	s := newTestDB(t).Tier(TierPlain)
	_ = s.PutInt("xp", 10)
	if err := s.Remove("xp"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Contains("xp") {
		t.Error("xp should be gone")
	}
	if err := s.Remove("xp"); err != nil {
		t.Errorf("Remove absent key: %v", err)
	}
}

func TestStore_TiersAreIsolated(t *testing.T) {
	db := newTestDB(t)
	plain := db.Tier(TierPlain)
	secure := db.Tier(TierSecure)

	_ = plain.PutInt("guest_coins", 5)
	if secure.Contains("guest_coins") {
		t.Error("secure tier should not see plain keys")
	}
}

func TestStore_KeysByPrefix(t *testing.T) {
	s := newTestDB(t).Tier(TierPlain)
	_ = s.PutInt("ana_coins", 1)
	_ = s.PutInt("ana_xp", 1)
	_ = s.PutInt("bob_coins", 1)
	_ = s.PutInt("ana%_weird", 1)

	got := s.Keys("ana_")
	want := []string{"ana_coins", "ana_xp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys(ana_) = %v, want %v", got, want)
	}
	if all := s.Keys(""); len(all) != 4 {
		t.Errorf("Keys(\"\") = %d keys, want 4", len(all))
	}
}

// ─── Install Info ───────────────────────────────────────────────────────────

func TestInstallationID_Stable(t *testing.T) {
	db := newTestDB(t)
	id1, err := db.InstallationID()
	if err != nil {
		t.Fatalf("InstallationID: %v", err)
	}
	if len(id1) != 36 {
		t.Errorf("id len = %d, want 36", len(id1))
	}
	id2, _ := db.InstallationID()
	if id1 != id2 {
		t.Errorf("installation id changed: %s -> %s", id1, id2)
	}
}

func TestEncodeSet_Dedup(t *testing.T) {
	got := DecodeSet(EncodeSet([]string{"z", "a", "z"}))
	if !reflect.DeepEqual(got, []string{"a", "z"}) {
		t.Errorf("got %v", got)
	}
	if DecodeSet(EncodeSet(nil)) != nil {
		t.Error("empty set should decode to nil")
	}
}
