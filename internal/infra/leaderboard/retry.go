package leaderboard

import (
	"container/heap"
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/metrics"
)

// ─── Submission Retry Queue ─────────────────────────────────────────────────
// A submission that fails (the board is unreachable) is kept and re-sent
// with exponential backoff. Entries for the same week and user merge,
// keeping the higher score, since the board only keeps the best anyway.

// RetryConfig configures the retry queue behavior.
type RetryConfig struct {
	MaxRetries int           // Attempts before a submission is dropped
	BaseDelay  time.Duration // Initial backoff delay (doubles each retry)
	MaxDelay   time.Duration // Cap on backoff delay
	Tick       time.Duration // How often Run looks for due entries
}

// DefaultRetryConfig returns production retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 8,
		BaseDelay:  2 * time.Second,
		MaxDelay:   5 * time.Minute,
		Tick:       time.Second,
	}
}

// RetryEntry is a submission waiting to be re-sent.
type RetryEntry struct {
	Week      string
	UserID    string
	Score     int
	Attempt   int       // Failed sends so far
	NextRetry time.Time // Earliest time this can be retried
	Error     string    // Last failure reason
}

func (e RetryEntry) key() string { return e.Week + "/" + e.UserID }

// Retrying wraps a Leaderboard so failed submissions are retried in the
// background. Reads pass straight through.
type Retrying struct {
	board  domain.Leaderboard
	config RetryConfig
	now    func() time.Time

	mu      sync.Mutex
	pending retryHeap
	byKey   map[string]*RetryEntry

	totalRetries int64
	totalDropped int64
}

var _ domain.Leaderboard = (*Retrying)(nil)

// NewRetrying returns a retrying wrapper around board.
func NewRetrying(board domain.Leaderboard, cfg RetryConfig) *Retrying {
	def := DefaultRetryConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = max(def.MaxDelay, cfg.BaseDelay)
	}
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	return &Retrying{
		board:  board,
		config: cfg,
		now:    time.Now,
		byKey:  make(map[string]*RetryEntry),
	}
}

// Submit sends the score now. On failure the submission is queued for
// retry and the error still returned, so callers can tell the user.
// A disabled board is never retried.
func (r *Retrying) Submit(ctx context.Context, week, userID string, score int) error {
	err := r.board.Submit(ctx, week, userID, score)
	if err == nil || errors.Is(err, domain.ErrLeaderboardDisabled) {
		return err
	}
	r.schedule(RetryEntry{Week: week, UserID: userID, Score: score, Error: err.Error()})
	return err
}

// Top passes through.
func (r *Retrying) Top(ctx context.Context, week string, limit int) ([]domain.LeaderboardEntry, error) {
	return r.board.Top(ctx, week, limit)
}

// Rank passes through.
func (r *Retrying) Rank(ctx context.Context, week, userID string) (int, error) {
	return r.board.Rank(ctx, week, userID)
}

// Run re-sends due submissions until ctx is cancelled.
func (r *Retrying) Run(ctx context.Context) {
	ticker := time.NewTicker(r.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// Flush re-sends every due submission once. Returns how many succeeded.
func (r *Retrying) Flush(ctx context.Context) int {
	sent := 0
	for _, e := range r.drainReady() {
		err := r.board.Submit(ctx, e.Week, e.UserID, e.Score)
		if err == nil {
			sent++
			continue
		}
		e.Error = err.Error()
		r.schedule(e)
	}
	return sent
}

// schedule queues e with the next backoff step, merging with an entry
// already waiting for the same week and user.
func (r *Retrying) schedule(e RetryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.byKey[e.key()]; ok {
		cur.Score = max(cur.Score, e.Score)
		cur.Error = e.Error
		return
	}

	e.Attempt++
	if e.Attempt > r.config.MaxRetries {
		r.totalDropped++
		metrics.LeaderboardRetries.WithLabelValues("dropped").Inc()
		log.Printf("[leaderboard] dropping %s score %d for %s after %d attempts: %s",
			e.Week, e.Score, e.UserID, e.Attempt-1, e.Error)
		return
	}

	// Exponential backoff: baseDelay * 2^(attempt-1)
	delay := r.config.BaseDelay
	for i := 1; i < e.Attempt; i++ {
		delay *= 2
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
			break
		}
	}
	e.NextRetry = r.now().Add(delay)

	entry := &e
	heap.Push(&r.pending, entry)
	r.byKey[e.key()] = entry
	r.totalRetries++
	metrics.LeaderboardRetries.WithLabelValues("scheduled").Inc()
}

// drainReady pops every entry whose NextRetry has passed.
func (r *Retrying) drainReady() []RetryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var ready []RetryEntry
	for r.pending.Len() > 0 && !now.Before(r.pending[0].NextRetry) {
		e := heap.Pop(&r.pending).(*RetryEntry)
		delete(r.byKey, e.key())
		ready = append(ready, *e)
	}
	return ready
}

// RetryStats holds retry queue statistics.
type RetryStats struct {
	Pending int   `json:"pending"`
	Retries int64 `json:"retries"`
	Dropped int64 `json:"dropped"` // Exceeded MaxRetries
}

// Stats returns current retry queue statistics.
func (r *Retrying) Stats() RetryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RetryStats{
		Pending: r.pending.Len(),
		Retries: r.totalRetries,
		Dropped: r.totalDropped,
	}
}

// retryHeap orders entries by NextRetry, earliest first.
type retryHeap []*RetryEntry

func (h retryHeap) Len() int           { return len(h) }
func (h retryHeap) Less(i, j int) bool { return h[i].NextRetry.Before(h[j].NextRetry) }
func (h retryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *retryHeap) Push(x any) { *h = append(*h, x.(*RetryEntry)) }

func (h *retryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
