// Package progress is the single source of truth for durable per-user game
// state: economy, level unlocks, per-level counters, the daily challenge,
// cosmetics, and the anti-farm question sets.
//
// Every key is namespaced by user through UserScope, and every value lives
// in the encrypted tier once the one-time migration from the plain tier ran.
package progress

import (
	"fmt"
	"strings"
)

// GuestUserID is used when no authenticated identity is available.
const GuestUserID = "guest"

// SanitizeUserID maps an external auth identifier onto the key-safe
// alphabet [A-Za-z0-9_]. Blank input resolves to the guest user.
func SanitizeUserID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return GuestUserID
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Key is a user-namespaced persisted key.
type Key struct {
	User string
	Name string
}

// String renders the on-disk form "{user}_{name}".
func (k Key) String() string {
	return k.User + "_" + k.Name
}

// UserScope resolves logical key names for one user.
type UserScope struct {
	user string
}

// NewUserScope sanitizes rawUserID and returns its scope.
func NewUserScope(rawUserID string) UserScope {
	return UserScope{user: SanitizeUserID(rawUserID)}
}

// User returns the sanitized user id.
func (s UserScope) User() string { return s.user }

// Key returns the namespaced form of name.
func (s UserScope) Key(name string) string {
	return Key{User: s.user, Name: name}.String()
}

// Keyf formats a dynamic logical name, then namespaces it.
func (s UserScope) Keyf(format string, args ...any) string {
	return s.Key(fmt.Sprintf(format, args...))
}

// ─── Key specs ──────────────────────────────────────────────────────────────

// ValueKind is the stored type of a persisted value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindLong
	KindBool
	KindSet
)

// KeySpec describes one persisted logical key, or a family of keys sharing
// a prefix when Dynamic is set. ValidSuffix narrows a family to the
// suffixes that family actually uses, so one user's scan never picks up a
// key that belongs to a user whose id happens to extend the prefix.
type KeySpec struct {
	Name        string
	Kind        ValueKind
	Dynamic     bool
	ValidSuffix func(suffix string) bool
}

// Static returns a spec for a single logical key.
func Static(name string, kind ValueKind) KeySpec {
	return KeySpec{Name: name, Kind: kind}
}

// Dynamic returns a spec for a prefixed key family.
func Dynamic(prefix string, kind ValueKind, valid func(string) bool) KeySpec {
	return KeySpec{Name: prefix, Kind: kind, Dynamic: true, ValidSuffix: valid}
}
