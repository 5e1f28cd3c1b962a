package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/desafio-logico/desafio/internal/domain"
)

// Value kinds recorded next to every stored value. A typed getter only
// accepts its own kind; anything else reads as the default.
const (
	KindString = "string"
	KindInt    = "int"
	KindLong   = "long"
	KindBool   = "bool"
	KindSet    = "set"
)

// ─── Typed Key-Value Tier ───────────────────────────────────────────────────

// Codec transforms values on their way to and from disk. The key is
// passed so implementations can bind a value to the row it lives in.
type Codec interface {
	Seal(key, plaintext string) (string, error)
	Open(key, sealed string) (string, error)
}

// Store is one tier of the prefs table. It implements domain.KeyValueStore.
type Store struct {
	db    *DB
	tier  string
	codec Codec
}

var _ domain.KeyValueStore = (*Store)(nil)

// Tier returns the key-value view for the named tier.
func (d *DB) Tier(name string) *Store {
	return &Store{db: d, tier: name}
}

// SealedTier returns a tier whose values pass through codec.
// Kinds and keys stay readable so prefix scans keep working.
func (d *DB) SealedTier(name string, codec Codec) *Store {
	return &Store{db: d, tier: name, codec: codec}
}

// Name returns the tier name.
func (s *Store) Name() string { return s.tier }

// GetRaw returns the stored kind and text of a key. ok is false when absent.
func (s *Store) GetRaw(key string) (kind, value string, ok bool) {
	err := s.db.db.QueryRow(
		`SELECT kind, value FROM prefs WHERE tier = ? AND key = ?`, s.tier, key,
	).Scan(&kind, &value)
	if err == sql.ErrNoRows {
		return "", "", false
	}
	if err != nil {
		log.Printf("[sqlite] read %s/%s: %v", s.tier, key, err)
		return "", "", false
	}
	if s.codec != nil {
		plain, err := s.codec.Open(key, value)
		if err != nil {
			log.Printf("[sqlite] open %s/%s: %v", s.tier, key, err)
			return "", "", false
		}
		value = plain
	}
	return kind, value, true
}

// PutRaw upserts a value with an explicit kind.
func (s *Store) PutRaw(key, kind, value string) error {
	if s.codec != nil {
		sealed, err := s.codec.Seal(key, value)
		if err != nil {
			return fmt.Errorf("seal %s: %w", key, err)
		}
		value = sealed
	}
	_, err := s.db.db.Exec(
		`INSERT INTO prefs (tier, key, kind, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT(tier, key) DO UPDATE SET kind=excluded.kind, value=excluded.value`,
		s.tier, key, kind, value,
	)
	return err
}

func (s *Store) get(key, kind string) (string, bool) {
	k, v, ok := s.GetRaw(key)
	if !ok || k != kind {
		return "", false
	}
	return v, true
}

// GetString returns the string at key, or def.
func (s *Store) GetString(key, def string) string {
	if v, ok := s.get(key, KindString); ok {
		return v
	}
	return def
}

// PutString stores a string.
func (s *Store) PutString(key, value string) error {
	return s.PutRaw(key, KindString, value)
}

// GetInt returns the int at key, or def.
func (s *Store) GetInt(key string, def int) int {
	v, ok := s.get(key, KindInt)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// PutInt stores an int.
func (s *Store) PutInt(key string, value int) error {
	return s.PutRaw(key, KindInt, strconv.Itoa(value))
}

// GetLong returns the int64 at key, or def.
func (s *Store) GetLong(key string, def int64) int64 {
	v, ok := s.get(key, KindLong)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// PutLong stores an int64.
func (s *Store) PutLong(key string, value int64) error {
	return s.PutRaw(key, KindLong, strconv.FormatInt(value, 10))
}

// GetBool returns the bool at key, or def.
func (s *Store) GetBool(key string, def bool) bool {
	v, ok := s.get(key, KindBool)
	if !ok {
		return def
	}
	return v == "1"
}

// PutBool stores a bool.
func (s *Store) PutBool(key string, value bool) error {
	return s.PutRaw(key, KindBool, boolStr(value))
}

// GetStringSet returns the sorted set at key, or nil.
func (s *Store) GetStringSet(key string) []string {
	v, ok := s.get(key, KindSet)
	if !ok {
		return nil
	}
	return DecodeSet(v)
}

// PutStringSet stores a set. Duplicates collapse.
func (s *Store) PutStringSet(key string, values []string) error {
	return s.PutRaw(key, KindSet, EncodeSet(values))
}

// Remove deletes a key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	_, err := s.db.db.Exec(`DELETE FROM prefs WHERE tier = ? AND key = ?`, s.tier, key)
	return err
}

// Contains reports whether a row exists for key, regardless of kind
// or whether its value can still be opened.
func (s *Store) Contains(key string) bool {
	var n int
	err := s.db.db.QueryRow(
		`SELECT COUNT(*) FROM prefs WHERE tier = ? AND key = ?`, s.tier, key,
	).Scan(&n)
	return err == nil && n > 0
}

// Keys lists keys in this tier that start with prefix.
func (s *Store) Keys(prefix string) []string {
	rows, err := s.db.db.Query(
		`SELECT key FROM prefs WHERE tier = ? AND substr(key, 1, ?) = ? ORDER BY key`,
		s.tier, len(prefix), prefix,
	)
	if err != nil {
		log.Printf("[sqlite] list %s/%s*: %v", s.tier, prefix, err)
		return nil
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			log.Printf("[sqlite] scan key: %v", err)
			return keys
		}
		keys = append(keys, k)
	}
	return keys
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// EncodeSet serializes a string set as a sorted JSON array.
func EncodeSet(values []string) string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	b, _ := json.Marshal(out)
	return string(b)
}

// DecodeSet parses EncodeSet output. Malformed input yields nil.
func DecodeSet(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
