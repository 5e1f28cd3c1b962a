// Package gate implements the Enigma Portal: a daily attempt-limited,
// resumable challenge whose stability meter keeps draining while the player
// is away.
//
// Decay is applied lazily. Every access measures the whole seconds since
// the run was last touched and charges them, so a run left in the
// background pays on return exactly what it would have paid on screen.
package gate

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/desafio-logico/desafio/internal/app/progress"
	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/infra/metrics"
)

const (
	keyDay        = "portal_day"
	keyTries      = "portal_tries"
	keyActive     = "portal_active"
	keyAutoOpened = "portal_auto_opened"
	keyRelics     = "portal_relics"

	keyRunID      = "portal_run_id"
	keyStage      = "portal_stage"
	keyErrorsLeft = "portal_errors_left"
	keyStability  = "portal_stability"
	keyStartedMs  = "portal_started_ms"
	keyLastMs     = "portal_last_ms"
	keyOutcome    = "portal_outcome"
)

// Title granted on the first win. A win also opens the enigma level.
const winTitle = "title_guardiao"

// KeySpecs lists the keys the gate persists, for migration and reset.
func KeySpecs() []progress.KeySpec {
	return []progress.KeySpec{
		progress.Static(keyDay, progress.KindString),
		progress.Static(keyTries, progress.KindInt),
		progress.Static(keyActive, progress.KindBool),
		progress.Static(keyAutoOpened, progress.KindBool),
		progress.Static(keyRelics, progress.KindInt),
		progress.Static(keyRunID, progress.KindString),
		progress.Static(keyStage, progress.KindInt),
		progress.Static(keyErrorsLeft, progress.KindInt),
		progress.Static(keyStability, progress.KindInt),
		progress.Static(keyStartedMs, progress.KindLong),
		progress.Static(keyLastMs, progress.KindLong),
		progress.Static(keyOutcome, progress.KindString),
	}
}

// Host is what the controller needs from the user's progress store.
type Host interface {
	Scope() progress.UserScope
	KV() domain.KeyValueStore
	Clock() domain.Clock
	RegisterKeys(specs ...progress.KeySpec)
	UnlockCosmetic(cat domain.CosmeticCategory, id string) (bool, error)
	UnlockLevel(level domain.LevelID) bool
}

// Controller drives one user's portal. Not safe for concurrent use.
type Controller struct {
	host   Host
	kv     domain.KeyValueStore
	scope  progress.UserScope
	clock  domain.Clock
	policy Policy
}

// New returns the controller for host's user and registers its keys.
func New(host Host, policy Policy) *Controller {
	host.RegisterKeys(KeySpecs()...)
	return &Controller{
		host:   host,
		kv:     host.KV(),
		scope:  host.Scope(),
		clock:  host.Clock(),
		policy: policy.normalized(),
	}
}

// Policy returns the active policy.
func (c *Controller) Policy() Policy { return c.policy }

// ─── Day-scoped budget ──────────────────────────────────────────────────────

// TouchToday rolls the day-scoped record over on the first access of a new
// calendar day. Reports whether a rollover happened.
func (c *Controller) TouchToday() bool {
	today := c.clock.Today()
	if c.kv.GetString(c.key(keyDay), "") == today {
		return false
	}
	c.putString(keyDay, today)
	c.putInt(keyTries, 0)
	c.putBool(keyActive, false)
	c.putBool(keyAutoOpened, false)
	c.clearRun()
	return true
}

// TriesUsedToday returns the attempts consumed today.
func (c *Controller) TriesUsedToday() int {
	c.TouchToday()
	return min(max(0, c.kv.GetInt(c.key(keyTries), 0)), c.policy.MaxTriesPerDay)
}

// AttemptsLeftToday returns the attempts still available today.
func (c *Controller) AttemptsLeftToday() int {
	return c.policy.MaxTriesPerDay - c.TriesUsedToday()
}

// HasActiveRun reports whether a reserved run is waiting to be finished.
func (c *Controller) HasActiveRun() bool {
	c.TouchToday()
	return c.kv.GetBool(c.key(keyActive), false)
}

// ReserveAttemptIfNeeded lets the player in. An active run is resumed for
// free; otherwise one of today's tries is consumed up front, so quitting
// mid-run never refunds it. Returns false when the budget is spent.
func (c *Controller) ReserveAttemptIfNeeded() bool {
	if c.HasActiveRun() {
		metrics.GateReservations.WithLabelValues("resumed").Inc()
		return true
	}
	tries := c.TriesUsedToday()
	if tries >= c.policy.MaxTriesPerDay {
		metrics.GateReservations.WithLabelValues("exhausted").Inc()
		return false
	}

	c.putInt(keyTries, tries+1)
	c.putBool(keyActive, true)
	c.newRun()
	metrics.GateReservations.WithLabelValues("reserved").Inc()
	return true
}

// ─── Run lifecycle ──────────────────────────────────────────────────────────

// Start enters the portal: reserves an attempt if needed and returns the
// current run with pending decay applied.
func (c *Controller) Start() (domain.RunState, error) {
	if !c.ReserveAttemptIfNeeded() {
		return domain.RunState{}, domain.ErrDailyAttemptsExhausted
	}
	return c.Sync()
}

// Resume returns the active run without ever consuming a try.
func (c *Controller) Resume() (domain.RunState, error) {
	return c.Sync()
}

// Sync charges the decay accrued since the run was last touched and ends
// the run if stability or the time budget ran out.
func (c *Controller) Sync() (domain.RunState, error) {
	if !c.HasActiveRun() {
		return c.lastRun(), domain.ErrNoActiveRun
	}
	run := c.loadRun()
	c.decay(&run)
	if !run.Finished {
		c.saveRun(run)
	}
	return run, nil
}

// Answer applies one answer to the active run.
func (c *Controller) Answer(correct bool) (domain.RunState, error) {
	run, err := c.Sync()
	if err != nil {
		return run, err
	}
	if run.Finished {
		return run, domain.ErrRunFinished
	}

	p := c.policy
	if correct {
		run.Stability = min(MaxStability, run.Stability+p.HealOnCorrect)
		run.Stage++
		if run.Stage >= run.Stages {
			run.Stage = run.Stages - 1
			return c.finish(run, true), nil
		}
	} else {
		run.ErrorsLeft = max(0, run.ErrorsLeft-1)
		run.Stability = max(0, run.Stability-p.WrongPenalty(run.Stage))
		if run.ErrorsLeft == 0 || run.Stability == 0 {
			return c.finish(run, false), nil
		}
	}
	c.saveRun(run)
	return run, nil
}

// OnBackground settles decay up to the moment the player leaves.
func (c *Controller) OnBackground() (domain.RunState, error) {
	return c.Sync()
}

// OnResume charges the seconds spent away and re-arms decay from now.
// A run that bled out while away comes back finished.
func (c *Controller) OnResume() (domain.RunState, error) {
	return c.Sync()
}

// FinishRun ends the active run. A win counts only once the run has
// reached its last stage; an earlier claim is recorded as a fail. A win
// adds a relic. Returns the relic count. Without an active run it does
// nothing.
func (c *Controller) FinishRun(win bool) int {
	run, err := c.Sync()
	if err != nil || run.Finished {
		return c.Relics()
	}
	if win && run.Stage < run.Stages-1 {
		log.Printf("[gate] run %s for %s claimed a win at stage %d of %d; recorded as fail",
			run.ID, c.scope.User(), run.Stage+1, run.Stages)
		win = false
	}
	c.finish(run, win)
	return c.Relics()
}

// Relics returns the lifetime relic count.
func (c *Controller) Relics() int {
	return max(0, c.kv.GetInt(c.key(keyRelics), 0))
}

// ─── Auto-open ──────────────────────────────────────────────────────────────

// ShouldAutoOpen reports whether the portal should pop up by itself: once
// a day, and only if there is something to play.
func (c *Controller) ShouldAutoOpen() bool {
	c.TouchToday()
	if c.kv.GetBool(c.key(keyAutoOpened), false) {
		return false
	}
	return c.HasActiveRun() || c.AttemptsLeftToday() > 0
}

// MarkAutoOpened records today's automatic opening.
func (c *Controller) MarkAutoOpened() {
	c.TouchToday()
	c.putBool(keyAutoOpened, true)
}

// Status returns the full gate record. Pending decay is applied first.
func (c *Controller) Status() domain.GateStatus {
	c.TouchToday()
	st := domain.GateStatus{Day: c.clock.Today()}
	if c.kv.GetBool(c.key(keyActive), false) {
		if run, err := c.Sync(); err == nil {
			st.Run = &run
		}
	} else if run := c.lastRun(); run.ID != "" {
		st.Run = &run
	}
	st.TriesUsedToday = c.TriesUsedToday()
	st.AttemptsLeft = c.AttemptsLeftToday()
	st.HasActiveRun = c.HasActiveRun()
	st.AutoOpenedToday = c.kv.GetBool(c.key(keyAutoOpened), false)
	st.Relics = c.Relics()
	return st
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (c *Controller) decay(run *domain.RunState) {
	now := c.clock.Now()
	elapsed := now.Sub(run.LastTouched)
	switch {
	case elapsed < 0:
		run.LastTouched = now
	case elapsed >= time.Second:
		secs := int(elapsed / time.Second)
		run.Stability = max(0, run.Stability-secs*c.policy.DecayPerSecond)
		run.LastTouched = run.LastTouched.Add(time.Duration(secs) * time.Second)
	}

	outOfTime := c.policy.TimeBudget > 0 && now.Sub(run.StartedAt) >= c.policy.TimeBudget
	if run.Stability == 0 || outOfTime {
		*run = c.finish(*run, false)
	}
}

func (c *Controller) finish(run domain.RunState, win bool) domain.RunState {
	run.Finished = true
	run.Outcome = domain.OutcomeFail
	if win {
		run.Outcome = domain.OutcomeWin
	}
	c.saveRun(run)
	c.putBool(keyActive, false)

	if win {
		c.putInt(keyRelics, c.Relics()+1)
		c.host.UnlockLevel(domain.LevelEnigma)
		if _, err := c.host.UnlockCosmetic(domain.CosmeticTitle, winTitle); err != nil {
			log.Printf("[gate] unlock %s: %v", winTitle, err)
		}
	}
	metrics.GateRuns.WithLabelValues(string(run.Outcome)).Inc()
	log.Printf("[gate] run %s for %s finished: %s (stage %d, stability %d)",
		run.ID, c.scope.User(), run.Outcome, run.Stage, run.Stability)
	return run
}

func (c *Controller) newRun() {
	now := c.clock.Now()
	c.saveRun(domain.RunState{
		ID:          uuid.NewString(),
		Stages:      c.policy.Stages,
		ErrorsLeft:  c.policy.ErrorsAllowed,
		Stability:   c.policy.StabilityStart,
		StartedAt:   now,
		LastTouched: now,
	})
}

func (c *Controller) loadRun() domain.RunState {
	outcome := domain.RunOutcome(c.kv.GetString(c.key(keyOutcome), ""))
	return domain.RunState{
		ID:          c.kv.GetString(c.key(keyRunID), ""),
		Stage:       min(max(0, c.kv.GetInt(c.key(keyStage), 0)), c.policy.Stages-1),
		Stages:      c.policy.Stages,
		ErrorsLeft:  min(max(0, c.kv.GetInt(c.key(keyErrorsLeft), c.policy.ErrorsAllowed)), c.policy.ErrorsAllowed),
		Stability:   min(max(0, c.kv.GetInt(c.key(keyStability), c.policy.StabilityStart)), MaxStability),
		Finished:    outcome != domain.OutcomeNone,
		Outcome:     outcome,
		StartedAt:   c.loadTime(keyStartedMs),
		LastTouched: c.loadTime(keyLastMs),
	}
}

// lastRun returns the most recent run, finished or not, or a zero state.
func (c *Controller) lastRun() domain.RunState {
	if c.kv.GetString(c.key(keyRunID), "") == "" {
		return domain.RunState{}
	}
	return c.loadRun()
}

func (c *Controller) saveRun(run domain.RunState) {
	c.putString(keyRunID, run.ID)
	c.putInt(keyStage, run.Stage)
	c.putInt(keyErrorsLeft, run.ErrorsLeft)
	c.putInt(keyStability, run.Stability)
	c.putLong(keyStartedMs, run.StartedAt.UnixMilli())
	c.putLong(keyLastMs, run.LastTouched.UnixMilli())
	c.putString(keyOutcome, string(run.Outcome))
}

func (c *Controller) clearRun() {
	for _, name := range []string{keyRunID, keyStage, keyErrorsLeft, keyStability, keyStartedMs, keyLastMs, keyOutcome} {
		c.persisted(c.key(name), c.kv.Remove(c.key(name)))
	}
}

// A missing timestamp reads as now, so a damaged record never charges
// decay for time it cannot account for.
func (c *Controller) loadTime(name string) time.Time {
	ms := c.kv.GetLong(c.key(name), 0)
	if ms <= 0 {
		return c.clock.Now()
	}
	return time.UnixMilli(ms).In(c.clock.Now().Location())
}

func (c *Controller) key(name string) string { return c.scope.Key(name) }

func (c *Controller) persisted(key string, err error) {
	if err != nil {
		metrics.StoreWriteErrors.Inc()
		log.Printf("[gate] write %s failed: %v", key, err)
	}
}

func (c *Controller) putString(name, v string) {
	c.persisted(c.key(name), c.kv.PutString(c.key(name), v))
}

func (c *Controller) putInt(name string, v int) {
	c.persisted(c.key(name), c.kv.PutInt(c.key(name), v))
}

func (c *Controller) putLong(name string, v int64) {
	c.persisted(c.key(name), c.kv.PutLong(c.key(name), v))
}

func (c *Controller) putBool(name string, v bool) {
	c.persisted(c.key(name), c.kv.PutBool(c.key(name), v))
}
