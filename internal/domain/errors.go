package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. Budget and lock
// failures are expected outcomes; callers turn them into user messages.

var (
	// Economy
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrInvalidAmount     = errors.New("amount must be positive")

	// Levels and questions
	ErrLevelLocked        = errors.New("level is locked")
	ErrUnknownLevel       = errors.New("unknown level")
	ErrNotEnoughQuestions = errors.New("not enough questions to build a run")
	ErrInvalidQuestion    = errors.New("invalid question")

	// Cosmetics
	ErrUnknownCosmetic   = errors.New("unknown cosmetic")
	ErrCosmeticLocked    = errors.New("cosmetic not unlocked")
	ErrCosmeticOwned     = errors.New("cosmetic already owned")
	ErrCosmeticNotOnSale = errors.New("cosmetic cannot be bought with coins")
	ErrPetMaxEvolution   = errors.New("pet already at max evolution")

	// Gate
	ErrDailyAttemptsExhausted = errors.New("no portal attempts left today")
	ErrNoActiveRun            = errors.New("no active portal run")
	ErrRunFinished            = errors.New("portal run already finished")

	// Infrastructure
	ErrCipherUnavailable   = errors.New("encrypted storage unavailable")
	ErrLeaderboardDisabled = errors.New("weekly leaderboard is disabled")
)
