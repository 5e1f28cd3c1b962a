package leaderboard

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/desafio-logico/desafio/internal/domain"
)

func TestWeekID(t *testing.T) {
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W01"},
		{time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), "2026-W43"},
		{time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
	}
	for _, tt := range tests {
		if got := WeekID(tt.t); got != tt.want {
			t.Errorf("WeekID(%s) = %s, want %s", tt.t.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	var lb domain.Leaderboard = Disabled{}
	if err := lb.Submit(ctx, "2026-W01", "ana", 10); !errors.Is(err, domain.ErrLeaderboardDisabled) {
		t.Errorf("Submit err = %v", err)
	}
	if _, err := lb.Top(ctx, "2026-W01", 10); !errors.Is(err, domain.ErrLeaderboardDisabled) {
		t.Errorf("Top err = %v", err)
	}
}

func TestKey(t *testing.T) {
	r := NewRedisWithClient(nil, "", 0)
	if got := r.Key("2026-W10"); got != "desafio:weekly:2026-W10" {
		t.Errorf("Key = %s", got)
	}
}

// Needs a live server: DESAFIO_TEST_REDIS=localhost:6379.
func TestRedis_KeepsBestScore(t *testing.T) {
	addr := os.Getenv("DESAFIO_TEST_REDIS")
	if addr == "" {
		t.Skip("DESAFIO_TEST_REDIS not set")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, Options{Addr: addr, KeyPrefix: "desafio-test-" + uuid.NewString(), Retention: time.Minute})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer r.Close()

	week := "2026-W10"
	_ = r.Submit(ctx, week, "ana", 300)
	_ = r.Submit(ctx, week, "ana", 100)
	_ = r.Submit(ctx, week, "bob", 200)

	top, err := r.Top(ctx, week, 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "ana" || top[0].Score != 300 {
		t.Errorf("top = %+v", top)
	}
	if rank, _ := r.Rank(ctx, week, "bob"); rank != 2 {
		t.Errorf("bob rank = %d, want 2", rank)
	}
	if rank, _ := r.Rank(ctx, week, "nobody"); rank != 0 {
		t.Errorf("absent rank = %d, want 0", rank)
	}
}
