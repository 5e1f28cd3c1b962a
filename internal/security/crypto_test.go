package security

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desafio-logico/desafio/internal/infra/sqlite"
)

// ─── Data Key ───────────────────────────────────────────────────────────────

func TestLoadOrCreateDataKey_CreatesAndReloads(t *testing.T) {
	home := t.TempDir()

	k1, err := LoadOrCreateDataKey(home)
	if err != nil {
		t.Fatalf("LoadOrCreateDataKey() error: %v", err)
	}
	if len(k1) != KeySize {
		t.Errorf("key len = %d, want %d", len(k1), KeySize)
	}

	info, err := os.Stat(filepath.Join(home, "keys", "data.key"))
	if err != nil {
		t.Fatalf("key file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("key perm = %o, want 600", info.Mode().Perm())
	}

	k2, err := LoadOrCreateDataKey(home)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("reloaded key should match the generated one")
	}
}

func TestLoadOrCreateDataKey_RejectsCorruptFile(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, "keys")
	_ = os.MkdirAll(dir, 0700)
	_ = os.WriteFile(filepath.Join(dir, "data.key"), []byte("zz-not-hex"), 0600)

	if _, err := LoadOrCreateDataKey(home); err == nil {
		t.Error("expected error for corrupt key file")
	}
}

func TestDeriveDataKey_Deterministic(t *testing.T) {
	home := t.TempDir()
	k1, err := DeriveDataKey(home, "correct horse")
	if err != nil {
		t.Fatalf("DeriveDataKey: %v", err)
	}
	k2, _ := DeriveDataKey(home, "correct horse")
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt should derive the same key")
	}
	k3, _ := DeriveDataKey(home, "battery staple")
	if bytes.Equal(k1, k3) {
		t.Error("different passphrases should derive different keys")
	}
	if _, err := DeriveDataKey(home, ""); err == nil {
		t.Error("empty passphrase should fail")
	}
}

// ─── Cipher ─────────────────────────────────────────────────────────────────

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(bytes.Repeat([]byte{7}, KeySize))
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	c := testCipher(t)
	sealed, err := c.Seal("guest_coins", "150")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if strings.Contains(sealed, "150") {
		t.Error("sealed value should not contain plaintext")
	}
	plain, err := c.Open("guest_coins", sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plain != "150" {
		t.Errorf("Open = %q, want 150", plain)
	}
}

func TestCipher_BoundToRowKey(t *testing.T) {
	c := testCipher(t)
	sealed, _ := c.Seal("ana_coins", "9999")
	if _, err := c.Open("bob_coins", sealed); err == nil {
		t.Error("value sealed for ana_coins must not open as bob_coins")
	}
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c := testCipher(t)
	a, _ := c.Seal("k", "v")
	b, _ := c.Seal("k", "v")
	if a == b {
		t.Error("two seals of the same value should differ")
	}
}

func TestCipher_RejectsGarbage(t *testing.T) {
	c := testCipher(t)
	if _, err := c.Open("k", "%%%"); err == nil {
		t.Error("expected base64 error")
	}
	if _, err := c.Open("k", "AAAA"); err == nil {
		t.Error("expected short ciphertext error")
	}
}

func TestNewCipher_BadKeyLength(t *testing.T) {
	if _, err := NewCipher([]byte("short")); err == nil {
		t.Error("expected key length error")
	}
}

// ─── Secure Store ───────────────────────────────────────────────────────────

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenSecureStore_Encrypts(t *testing.T) {
	db := newTestDB(t)
	store, fellBack := OpenSecureStore(db, StoreOptions{Home: t.TempDir()})
	if fellBack {
		t.Fatal("should not fall back with a writable home")
	}

	if err := store.PutInt("guest_coins", 321); err != nil {
		t.Fatalf("PutInt: %v", err)
	}
	if got := store.GetInt("guest_coins", 0); got != 321 {
		t.Errorf("GetInt = %d, want 321", got)
	}

	// The raw tier must not hold the plaintext.
	_, raw, ok := db.Tier(sqlite.TierSecure).GetRaw("guest_coins")
	if !ok {
		t.Fatal("raw row missing")
	}
	if raw == "321" {
		t.Error("secure tier stored plaintext")
	}
}

func TestOpenSecureStore_FallsBackOnKeyFailure(t *testing.T) {
	db := newTestDB(t)

	// A regular file where the keys directory should be makes key setup fail.
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "keys"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	store, fellBack := OpenSecureStore(db, StoreOptions{Home: home})
	if !fellBack {
		t.Fatal("expected fallback when key dir is unusable")
	}
	if err := store.PutString("guest_title", "rookie"); err != nil {
		t.Fatalf("fallback store should still work: %v", err)
	}
	if got := store.GetString("guest_title", ""); got != "rookie" {
		t.Errorf("GetString = %q, want rookie", got)
	}
}

func TestOpenSecureStore_Disabled(t *testing.T) {
	db := newTestDB(t)
	_, fellBack := OpenSecureStore(db, StoreOptions{Disabled: true})
	if !fellBack {
		t.Error("disabled encryption should report the fallback tier")
	}
}

func TestOpenSecureStore_WrongPassphraseReadsDefault(t *testing.T) {
	db := newTestDB(t)
	home := t.TempDir()

	s1, _ := OpenSecureStore(db, StoreOptions{Home: home, Passphrase: "one"})
	_ = s1.PutInt("guest_xp", 50)

	s2, _ := OpenSecureStore(db, StoreOptions{Home: home, Passphrase: "two"})
	if got := s2.GetInt("guest_xp", -1); got != -1 {
		t.Errorf("wrong key should read default, got %d", got)
	}
}
