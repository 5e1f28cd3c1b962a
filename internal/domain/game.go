// Package domain holds the pure types of the Desafio Lógico progression core.
// Nothing in here touches storage, clocks, or randomness directly; those are
// reached through the collaborator interfaces in interfaces.go.
package domain

import "time"

// ─── Levels ─────────────────────────────────────────────────────────────────

// LevelID names a question-pool difficulty tier.
type LevelID string

const (
	LevelBeginner     LevelID = "beginner"
	LevelIntermediate LevelID = "intermediate"
	LevelAdvanced     LevelID = "advanced"
	LevelExpert       LevelID = "expert"

	// LevelEnigma is the secret level behind the portal gate.
	LevelEnigma LevelID = "enigma"
)

// EntryLevel is always unlocked, regardless of persisted data.
const EntryLevel = LevelBeginner

// OrderedLevels is the main progression ladder, easiest first.
var OrderedLevels = []LevelID{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert}

// Valid reports whether l is a known level.
func (l LevelID) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert, LevelEnigma:
		return true
	}
	return false
}

// ─── Questions ──────────────────────────────────────────────────────────────

// Question is a single multiple-choice item supplied by a QuestionSource.
// Text doubles as the anti-farm identity once normalized.
type Question struct {
	Text         string   `json:"text" toml:"text"`
	Options      []string `json:"options" toml:"options"`
	CorrectIndex int      `json:"correct_index" toml:"correct_index"`
}

// ─── Daily challenge ────────────────────────────────────────────────────────

// DailyQuestionCount is how many questions make up a daily challenge.
const DailyQuestionCount = 3

// DailyResult is the outcome of the last completed daily challenge.
type DailyResult struct {
	Correct int `json:"correct"`
	Score   int `json:"score"`
	XP      int `json:"xp"`
}

// DailyState is the persisted daily-challenge record for one user.
type DailyState struct {
	LastDoneDate     string      `json:"last_done_date"` // YYYYMMDD, "" if never
	Streak           int         `json:"streak"`
	LastResult       DailyResult `json:"last_result"`
	SelectedTexts    []string    `json:"selected_texts"`
	QuestionPickDate string      `json:"question_pick_date"`
}

// ─── Cosmetics ──────────────────────────────────────────────────────────────

// CosmeticCategory identifies a cosmetic slot. Each slot has one selection.
type CosmeticCategory string

const (
	CosmeticTheme CosmeticCategory = "theme"
	CosmeticFrame CosmeticCategory = "frame"
	CosmeticTitle CosmeticCategory = "title"
	CosmeticPet   CosmeticCategory = "pet"
	CosmeticVFX   CosmeticCategory = "vfx"
)

// CosmeticCategories lists every slot in display order.
var CosmeticCategories = []CosmeticCategory{
	CosmeticTheme, CosmeticFrame, CosmeticTitle, CosmeticPet, CosmeticVFX,
}

// Cosmetic is a catalog entry.
type Cosmetic struct {
	ID       string           `json:"id"`
	Category CosmeticCategory `json:"category"`
	Name     string           `json:"name"`
	Price    int              `json:"price"`   // coins; 0 = not for sale
	Premium  bool             `json:"premium"` // granted externally, never bought
	Default  bool             `json:"default"` // owned by everyone
}

// Pet evolution bounds.
const (
	PetMinLevel = 1
	PetMaxLevel = 3
)

// ─── Scoring ────────────────────────────────────────────────────────────────

// ScoreBreakdown itemizes the points of one correct answer.
type ScoreBreakdown struct {
	Base   int `json:"base"`
	Streak int `json:"streak"`
	Time   int `json:"time"`
	Gold   int `json:"gold"`
}

// Total sums every component.
func (b ScoreBreakdown) Total() int {
	return b.Base + b.Streak + b.Time + b.Gold
}

// ScoreEventType categorizes events published by the score engine.
type ScoreEventType string

const (
	EventScoreChanged  ScoreEventType = "score_changed"
	EventStreakChanged ScoreEventType = "streak_changed"
	EventNewRecord     ScoreEventType = "new_record"
	EventMilestone     ScoreEventType = "milestone"
)

// ScoreEvent is delivered synchronously to score engine subscribers.
type ScoreEvent struct {
	Type   ScoreEventType `json:"type"`
	Score  int            `json:"score"`
	Streak int            `json:"streak"`
	Coins  int            `json:"coins,omitempty"`
}

// ─── Gate ───────────────────────────────────────────────────────────────────

// RunOutcome describes how a gate run ended.
type RunOutcome string

const (
	OutcomeNone RunOutcome = ""
	OutcomeWin  RunOutcome = "win"
	OutcomeFail RunOutcome = "fail"
)

// RunState is the transient sub-state of a gate run.
type RunState struct {
	ID          string     `json:"id"`
	Stage       int        `json:"stage"`
	Stages      int        `json:"stages"`
	ErrorsLeft  int        `json:"errors_left"`
	Stability   int        `json:"stability"`
	Finished    bool       `json:"finished"`
	Outcome     RunOutcome `json:"outcome,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	LastTouched time.Time  `json:"last_touched"`
}

// GateStatus is the day-scoped gate record plus lifetime relics.
type GateStatus struct {
	Day             string    `json:"day"`
	TriesUsedToday  int       `json:"tries_used_today"`
	AttemptsLeft    int       `json:"attempts_left"`
	HasActiveRun    bool      `json:"has_active_run"`
	AutoOpenedToday bool      `json:"auto_opened_today"`
	Relics          int       `json:"relics"`
	Run             *RunState `json:"run,omitempty"`
}
