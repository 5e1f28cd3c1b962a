package domain

import (
	"context"
	"time"
)

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// Infrastructure implements them; the app layer depends on them.

// KeyValueStore is a persisted, typed key-value store. Reads never fail:
// a missing or malformed value yields def. Each write is durable on return.
type KeyValueStore interface {
	GetString(key, def string) string
	PutString(key, value string) error
	GetInt(key string, def int) int
	PutInt(key string, value int) error
	GetLong(key string, def int64) int64
	PutLong(key string, value int64) error
	GetBool(key string, def bool) bool
	PutBool(key string, value bool) error
	GetStringSet(key string) []string
	PutStringSet(key string, values []string) error
	Remove(key string) error
	Contains(key string) bool

	// Keys lists stored keys starting with prefix, sorted.
	Keys(prefix string) []string
}

// Clock supplies wall time. Today is formatted YYYYMMDD in the clock's zone.
type Clock interface {
	Now() time.Time
	Today() string
}

// QuestionSource returns the static question pool for a level.
type QuestionSource interface {
	QuestionsForLevel(level LevelID) []Question
}

// Random is the subset of math/rand/v2 the score engine needs.
type Random interface {
	IntN(n int) int
	Float64() float64
}

// LeaderboardEntry is one row of the weekly championship board.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

// Leaderboard is the remote weekly championship store.
type Leaderboard interface {
	Submit(ctx context.Context, week, userID string, score int) error
	Top(ctx context.Context, week string, limit int) ([]LeaderboardEntry, error)
	Rank(ctx context.Context, week, userID string) (int, error)
}
