// Package scoring is the in-session score and streak state machine.
// It computes points per correct answer, keeps the live streak, grants
// milestone coins, and pushes persisted totals into the progress store.
package scoring

import (
	"slices"
	"sync"

	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/metrics"
)

// Progress is the slice of the progress store the engine writes to.
type Progress interface {
	AddToOverallScore(delta int) int
	IncrementCorrectForLevel(level domain.LevelID, delta int) int
	HighestStreak() int
	UpdateHighestStreak(streak int) bool
	AddCoins(delta int) int
	MarkScoredIfFirstTime(level domain.LevelID, questionKey string) bool
}

// AnswerResult is what one answer did to the session.
type AnswerResult struct {
	Scored         bool                  `json:"scored"` // false when the question already paid out
	Points         int                   `json:"points"`
	Breakdown      domain.ScoreBreakdown `json:"breakdown"`
	Score          int                   `json:"score"`
	Streak         int                   `json:"streak"`
	NewRecord      bool                  `json:"new_record"`
	MilestoneCoins int                   `json:"milestone_coins"`
}

// Snapshot is the session state at one point in time.
type Snapshot struct {
	Level         domain.LevelID `json:"level"`
	Score         int            `json:"score"`
	Streak        int            `json:"streak"`
	LastMilestone int            `json:"last_milestone"`
}

// Engine holds one session's score state. Not safe for concurrent use.
type Engine struct {
	policy   Policy
	progress Progress
	rng      domain.Random

	level         domain.LevelID
	score         int
	streak        int
	lastMilestone int

	subMu  sync.Mutex
	subs   map[int]func(domain.ScoreEvent)
	nextID int
}

// NewEngine returns an engine at the zero state on the entry level.
func NewEngine(progress Progress, policy Policy, rng domain.Random) *Engine {
	return &Engine{
		policy:   policy.normalized(),
		progress: progress,
		rng:      rng,
		level:    domain.EntryLevel,
		subs:     make(map[int]func(domain.ScoreEvent)),
	}
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy { return e.policy }

// Reset returns to the zero state for a new run. Subscribers stay.
func (e *Engine) Reset() {
	e.score, e.streak, e.lastMilestone = 0, 0, 0
	e.publish(domain.ScoreEvent{Type: domain.EventScoreChanged})
	e.publish(domain.ScoreEvent{Type: domain.EventStreakChanged})
}

// StartRun resets the session and binds it to level.
func (e *Engine) StartRun(level domain.LevelID) {
	if level.Valid() {
		e.level = level
	}
	e.Reset()
}

// Snapshot returns the current session state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{Level: e.level, Score: e.score, Streak: e.streak, LastMilestone: e.lastMilestone}
}

// ─── Answers ────────────────────────────────────────────────────────────────

// Answer routes one answer through the anti-farm gate: a correct answer to
// a question that never paid out on this level scores normally; a replayed
// question only advances the streak.
func (e *Engine) Answer(question string, correct bool, remainingMs, totalMs int64) AnswerResult {
	if !correct {
		e.OnWrongAnswer()
		return AnswerResult{Score: e.score}
	}
	if e.progress.MarkScoredIfFirstTime(e.level, question) {
		res := e.AddScore(remainingMs, totalMs)
		res.Scored = true
		return res
	}
	streak, record := e.OnCorrectAnswer()
	return AnswerResult{Score: e.score, Streak: streak, NewRecord: record}
}

// AddScore advances the streak and awards the points of a correct answer.
func (e *Engine) AddScore(remainingMs, totalMs int64) AnswerResult {
	e.streak++
	e.publish(domain.ScoreEvent{Type: domain.EventStreakChanged, Score: e.score, Streak: e.streak})
	return e.award(e.streak, remainingMs, totalMs)
}

// AddScoreNoStreak awards points using streakNow for the bonus and record
// check, leaving the live streak alone. For callers that already advanced
// the streak themselves.
func (e *Engine) AddScoreNoStreak(remainingMs, totalMs int64, streakNow int) AnswerResult {
	return e.award(max(0, streakNow), remainingMs, totalMs)
}

// OnWrongAnswer applies the penalty and breaks the streak.
func (e *Engine) OnWrongAnswer() {
	metrics.AnswersTotal.WithLabelValues("wrong").Inc()

	e.score = max(0, e.score-e.policy.WrongPenalty)
	e.progress.AddToOverallScore(-e.policy.WrongPenalty)
	e.streak = 0

	e.publish(domain.ScoreEvent{Type: domain.EventScoreChanged, Score: e.score})
	e.publish(domain.ScoreEvent{Type: domain.EventStreakChanged, Score: e.score})
}

// OnCorrectAnswer is the zero-point path: the streak advances and the
// personal record is checked, score untouched.
func (e *Engine) OnCorrectAnswer() (streak int, newRecord bool) {
	metrics.AnswersTotal.WithLabelValues("review").Inc()

	e.streak++
	e.publish(domain.ScoreEvent{Type: domain.EventStreakChanged, Score: e.score, Streak: e.streak})
	return e.streak, e.checkRecord(e.streak)
}

// Breakdown computes the points for a correct answer at streak without
// applying them. The gold roll consumes randomness.
func (e *Engine) Breakdown(streak int, remainingMs, totalMs int64) domain.ScoreBreakdown {
	p := e.policy
	b := domain.ScoreBreakdown{
		Base:   p.BasePoints,
		Streak: streak * p.StreakBonusPer,
		Time:   p.TimeBonus(remainingMs, totalMs),
	}
	if streak >= p.GoldMinStreak && e.rng.Float64() < p.GoldChance {
		b.Gold = p.GoldMin + e.rng.IntN(p.GoldMax-p.GoldMin+1)
	}
	return b
}

func (e *Engine) award(streak int, remainingMs, totalMs int64) AnswerResult {
	b := e.Breakdown(streak, remainingMs, totalMs)
	total := b.Total()

	e.score = max(0, e.score+total)
	e.progress.AddToOverallScore(total)
	e.progress.IncrementCorrectForLevel(e.level, 1)

	metrics.AnswersTotal.WithLabelValues("correct").Inc()
	metrics.PointsAwarded.Add(float64(total))
	metrics.PointsPerAnswer.Observe(float64(total))

	e.publish(domain.ScoreEvent{Type: domain.EventScoreChanged, Score: e.score, Streak: e.streak})

	return AnswerResult{
		Points:         total,
		Breakdown:      b,
		Score:          e.score,
		Streak:         streak,
		NewRecord:      e.checkRecord(streak),
		MilestoneCoins: e.checkMilestones(),
	}
}

func (e *Engine) checkRecord(streak int) bool {
	if streak <= e.progress.HighestStreak() {
		return false
	}
	if !e.progress.UpdateHighestStreak(streak) {
		return false
	}
	e.publish(domain.ScoreEvent{Type: domain.EventNewRecord, Score: e.score, Streak: streak})
	return true
}

// checkMilestones grants coins for every milestone crossed since the last
// one paid. lastMilestone only moves up, so a score that dips and climbs
// back never pays the same milestone twice.
func (e *Engine) checkMilestones() int {
	step := e.policy.MilestoneStep
	reached := e.score / step * step
	if reached <= e.lastMilestone {
		return 0
	}
	crossed := (reached - e.lastMilestone) / step
	coins := crossed * e.policy.MilestoneCoins
	e.lastMilestone = reached

	e.progress.AddCoins(coins)
	metrics.MilestonesReached.Add(float64(crossed))
	metrics.CoinsGranted.WithLabelValues("milestone").Add(float64(coins))

	e.publish(domain.ScoreEvent{Type: domain.EventMilestone, Score: e.score, Streak: e.streak, Coins: coins})
	return coins
}

// ─── Observation ────────────────────────────────────────────────────────────

// Subscribe registers fn for every event. Events are delivered
// synchronously, in order, on the goroutine that caused them.
func (e *Engine) Subscribe(fn func(domain.ScoreEvent)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) publish(ev domain.ScoreEvent) {
	e.subMu.Lock()
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	fns := make([]func(domain.ScoreEvent), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, e.subs[id])
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
