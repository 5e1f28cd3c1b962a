// Package leaderboard stores weekly championship scores in Redis sorted sets.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/desafio-logico/desafio/internal/domain"
)

// WeekID formats the ISO week of t as YYYY-Www.
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Redis is a domain.Leaderboard backed by one ZSET per week.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ domain.Leaderboard = (*Redis)(nil)

// Options configures the Redis leaderboard.
type Options struct {
	Addr      string
	DB        int
	KeyPrefix string
	// Weeks are kept this long after their last write. 0 keeps them forever.
	Retention time.Duration
}

// Dial builds the client without touching the network; connections are
// made on first use, so a server that is down now may be back later.
// The caller owns Close.
func Dial(opts Options) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})
	return NewRedisWithClient(client, opts.KeyPrefix, opts.Retention)
}

// NewRedis dials and pings. The caller owns Close.
func NewRedis(ctx context.Context, opts Options) (*Redis, error) {
	r := Dial(opts)
	if err := r.Ping(ctx); err != nil {
		r.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return r, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, retention time.Duration) *Redis {
	if prefix == "" {
		prefix = "desafio"
	}
	return &Redis{client: client, prefix: prefix, ttl: retention}
}

// Key returns the ZSET key of week.
func (r *Redis) Key(week string) string {
	return fmt.Sprintf("%s:weekly:%s", r.prefix, week)
}

// Submit records score for userID, keeping the user's best of the week.
func (r *Redis) Submit(ctx context.Context, week, userID string, score int) error {
	key := r.Key(week)
	pipe := r.client.TxPipeline()
	pipe.ZAddArgs(ctx, key, redis.ZAddArgs{
		GT:      true,
		Members: []redis.Z{{Score: float64(score), Member: userID}},
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("submit weekly score: %w", err)
	}
	return nil
}

// Top returns the best limit entries of week, rank 1 first.
func (r *Redis) Top(ctx context.Context, week string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	results, err := r.client.ZRevRangeWithScores(ctx, r.Key(week), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("weekly top: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries = append(entries, domain.LeaderboardEntry{
			UserID: member,
			Score:  int(z.Score),
			Rank:   i + 1,
		})
	}
	return entries, nil
}

// Rank returns the 1-based rank of userID in week, or 0 if absent.
func (r *Redis) Rank(ctx context.Context, week, userID string) (int, error) {
	rank, err := r.client.ZRevRank(ctx, r.Key(week), userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("weekly rank: %w", err)
	}
	return int(rank) + 1, nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Disabled rejects every call. Used when no leaderboard is configured.
type Disabled struct{}

var _ domain.Leaderboard = Disabled{}

func (Disabled) Submit(context.Context, string, string, int) error {
	return domain.ErrLeaderboardDisabled
}

func (Disabled) Top(context.Context, string, int) ([]domain.LeaderboardEntry, error) {
	return nil, domain.ErrLeaderboardDisabled
}

func (Disabled) Rank(context.Context, string, string) (int, error) {
	return 0, domain.ErrLeaderboardDisabled
}
