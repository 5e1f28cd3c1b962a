package progress

import (
	"log"
	"slices"
	"sync"

	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/metrics"
)

// Logical key names. Dynamic families end with "_" and take a suffix.
const (
	keyCoins          = "coins"
	keyXP             = "xp"
	keyOverallScore   = "overall_total_score"
	keyHighestStreak  = "highest_streak"
	keyUnlockedLevels = "unlocked_levels"

	prefixCorrect = "correct_"
	prefixSeen    = "seen_"
	prefixScored  = "scored_"

	keyMigrated = "secure_migrated" // plain tier only
)

// Store is the per-user progress handle. It is not safe for concurrent use;
// callers serialize access per user (see session.Registry).
type Store struct {
	plain    domain.KeyValueStore
	secure   domain.KeyValueStore
	fallback domain.KeyValueStore // nil unless secure is the sealed tier
	scope    UserScope
	clock    domain.Clock

	specMu sync.Mutex
	specs  []KeySpec
}

// New returns the progress store for rawUserID. plain is the legacy tier
// read only by migration; every other read and write goes to secure.
func New(plain, secure domain.KeyValueStore, rawUserID string, clock domain.Clock) *Store {
	s := &Store{
		plain:  plain,
		secure: secure,
		scope:  NewUserScope(rawUserID),
		clock:  clock,
	}
	s.specs = append(s.specs, coreKeySpecs()...)
	return s
}

// SetFallback names the tier that stood in for secure while the cipher was
// unavailable. MigrateIfNeeded drains it into secure; reset clears it.
// Leave it unset when secure is itself the fallback tier.
func (s *Store) SetFallback(kv domain.KeyValueStore) { s.fallback = kv }

// UserID returns the sanitized user id.
func (s *Store) UserID() string { return s.scope.User() }

// Scope returns the key scope of this store's user.
func (s *Store) Scope() UserScope { return s.scope }

// KV returns the tier this store persists to. Sibling components that own
// their own keys (the portal gate) share it.
func (s *Store) KV() domain.KeyValueStore { return s.secure }

// Clock returns the store's clock.
func (s *Store) Clock() domain.Clock { return s.clock }

// RegisterKeys adds key specs owned by other components so migration and
// reset cover them too.
func (s *Store) RegisterKeys(specs ...KeySpec) {
	s.specMu.Lock()
	s.specs = append(s.specs, specs...)
	s.specMu.Unlock()
}

func (s *Store) keySpecs() []KeySpec {
	s.specMu.Lock()
	defer s.specMu.Unlock()
	out := make([]KeySpec, len(s.specs))
	copy(out, s.specs)
	return out
}

// coreKeySpecs lists every key this package writes.
func coreKeySpecs() []KeySpec {
	validLevel := func(s string) bool { return domain.LevelID(s).Valid() }
	return []KeySpec{
		Static(keyCoins, KindInt),
		Static(keyXP, KindInt),
		Static(keyOverallScore, KindInt),
		Static(keyHighestStreak, KindInt),
		Static(keyUnlockedLevels, KindSet),
		Dynamic(prefixCorrect, KindInt, validLevel),
		Dynamic(prefixSeen, KindSet, validLevel),
		Dynamic(prefixScored, KindSet, validLevel),

		Static(keyDailyLastDone, KindString),
		Static(keyDailyStreak, KindInt),
		Static(keyDailyLastCorrect, KindInt),
		Static(keyDailyLastScore, KindInt),
		Static(keyDailyLastXP, KindInt),
		Static(keyDailySelected, KindSet),
		Static(keyDailyPickDate, KindString),

		Dynamic(prefixCosmeticUnlocked, KindSet, validCategory),
		Dynamic(prefixCosmeticSelected, KindString, validCategory),
		Dynamic(prefixPetLevel, KindInt, validPet),
	}
}

// ─── Write helpers ──────────────────────────────────────────────────────────

// persisted logs a failed write. The core never surfaces storage errors.
func (s *Store) persisted(key string, err error) {
	if err != nil {
		metrics.StoreWriteErrors.Inc()
		log.Printf("[progress] write %s failed: %v", key, err)
	}
}

func (s *Store) getInt(name string) int {
	return s.secure.GetInt(s.scope.Key(name), 0)
}

func (s *Store) putInt(name string, v int) {
	key := s.scope.Key(name)
	s.persisted(key, s.secure.PutInt(key, v))
}

// addClamped applies delta to an int counter, clamping the result at zero.
func (s *Store) addClamped(name string, delta int) int {
	next := max(0, s.getInt(name)+delta)
	if delta != 0 {
		s.putInt(name, next)
	}
	return next
}

func (s *Store) getSet(key string) map[string]struct{} {
	vals := s.secure.GetStringSet(key)
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}

// addToSet inserts v into the set at key; reports whether it was absent.
func (s *Store) addToSet(key, v string) bool {
	vals := s.secure.GetStringSet(key)
	for _, existing := range vals {
		if existing == v {
			return false
		}
	}
	s.persisted(key, s.secure.PutStringSet(key, append(vals, v)))
	return true
}

// ─── Economy ────────────────────────────────────────────────────────────────

// Coins returns the coin balance.
func (s *Store) Coins() int { return max(0, s.getInt(keyCoins)) }

// AddCoins applies delta and returns the new balance (never below zero).
func (s *Store) AddCoins(delta int) int {
	return s.addClamped(keyCoins, delta)
}

// SpendCoins deducts amount if the balance covers it. Non-positive amounts
// and insufficient funds leave the balance untouched and return false.
func (s *Store) SpendCoins(amount int) bool {
	if amount <= 0 {
		return false
	}
	if s.Coins() < amount {
		return false
	}
	s.AddCoins(-amount)
	return true
}

// XP returns accumulated experience.
func (s *Store) XP() int { return max(0, s.getInt(keyXP)) }

// AddXP applies delta and returns the new total (never below zero).
func (s *Store) AddXP(delta int) int {
	return s.addClamped(keyXP, delta)
}

// OverallTotalScore returns the lifetime score that drives level unlocks.
func (s *Store) OverallTotalScore() int { return max(0, s.getInt(keyOverallScore)) }

// AddToOverallScore applies delta and returns the new total (never below zero).
func (s *Store) AddToOverallScore(delta int) int {
	return s.addClamped(keyOverallScore, delta)
}

// ─── Streak record ──────────────────────────────────────────────────────────

// HighestStreak returns the personal best streak.
func (s *Store) HighestStreak() int { return max(0, s.getInt(keyHighestStreak)) }

// UpdateHighestStreak stores streak if it beats the record.
func (s *Store) UpdateHighestStreak(streak int) bool {
	if streak <= s.HighestStreak() {
		return false
	}
	s.putInt(keyHighestStreak, streak)
	return true
}

// ─── Levels ─────────────────────────────────────────────────────────────────

// UnlockLevel adds level to the unlocked set; reports whether it changed.
func (s *Store) UnlockLevel(level domain.LevelID) bool {
	if !level.Valid() || level == domain.EntryLevel {
		return false
	}
	return s.addToSet(s.scope.Key(keyUnlockedLevels), string(level))
}

// IsLevelUnlocked reports whether level can be played. The entry level
// is always unlocked.
func (s *Store) IsLevelUnlocked(level domain.LevelID) bool {
	if level == domain.EntryLevel {
		return true
	}
	_, ok := s.getSet(s.scope.Key(keyUnlockedLevels))[string(level)]
	return ok
}

// UnlockedLevels returns unlocked levels in ladder order, secret levels last.
func (s *Store) UnlockedLevels() []domain.LevelID {
	set := s.getSet(s.scope.Key(keyUnlockedLevels))
	set[string(domain.EntryLevel)] = struct{}{}

	out := make([]domain.LevelID, 0, len(set))
	for _, l := range slices.Concat(domain.OrderedLevels, []domain.LevelID{domain.LevelEnigma}) {
		if _, ok := set[string(l)]; ok {
			out = append(out, l)
		}
	}
	return out
}

// ─── Per-level correct counters ─────────────────────────────────────────────

// Map progress is shown in steps of MapStep, capped at MapCap.
const (
	MapStep = 10
	MapCap  = 30
)

// CorrectForLevel returns the cumulative correct answers on level.
func (s *Store) CorrectForLevel(level domain.LevelID) int {
	return max(0, s.getInt(prefixCorrect+string(level)))
}

// IncrementCorrectForLevel adds delta (> 0) and returns the new count.
// Non-positive deltas and unknown levels are ignored.
func (s *Store) IncrementCorrectForLevel(level domain.LevelID, delta int) int {
	if delta <= 0 || !level.Valid() {
		return s.CorrectForLevel(level)
	}
	return s.addClamped(prefixCorrect+string(level), delta)
}

// SetCorrectForLevel overwrites the counter; negative values become zero.
func (s *Store) SetCorrectForLevel(level domain.LevelID, n int) {
	if !level.Valid() {
		return
	}
	s.putInt(prefixCorrect+string(level), max(0, n))
}

// MapProgress returns the displayed map progress for level:
// the correct count rounded down to a step, capped.
func (s *Store) MapProgress(level domain.LevelID) int {
	return min(s.CorrectForLevel(level)/MapStep*MapStep, MapCap)
}
