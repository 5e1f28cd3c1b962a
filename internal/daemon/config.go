// Package daemon loads configuration and wires the Desafio services.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/desafio-logico/desafio/internal/app/gate"
	"github.com/desafio-logico/desafio/internal/app/scoring"
)

// Config holds all daemon configuration.
type Config struct {
	API         APIConfig         `toml:"api"`
	Storage     StorageConfig     `toml:"storage"`
	Game        GameConfig        `toml:"game"`
	Scoring     scoring.Policy    `toml:"scoring"`
	Gate        GateConfig        `toml:"gate"`
	Questions   QuestionsConfig   `toml:"questions"`
	Leaderboard LeaderboardConfig `toml:"leaderboard"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Logging     LoggingConfig     `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// StorageConfig controls where progress lives and how it is protected.
type StorageConfig struct {
	Dir        string `toml:"dir"`
	Encrypt    bool   `toml:"encrypt"`
	Passphrase string `toml:"passphrase"` // optional; derives the data key
}

// GameConfig holds calendar settings.
type GameConfig struct {
	// Timezone decides where a day starts. Empty = host local time.
	Timezone string `toml:"timezone"`
}

// GateConfig mirrors gate.Policy with a human-readable time budget.
type GateConfig struct {
	MaxTriesPerDay  int    `toml:"max_tries_per_day"`
	Stages          int    `toml:"stages"`
	ErrorsAllowed   int    `toml:"errors_allowed"`
	StabilityStart  int    `toml:"stability_start"`
	HealOnCorrect   int    `toml:"heal_on_correct"`
	PenaltyBase     int    `toml:"penalty_base"`
	PenaltyPerStage int    `toml:"penalty_per_stage"`
	DecayPerSecond  int    `toml:"decay_per_second"`
	TimeBudget      string `toml:"time_budget"`
}

// QuestionsConfig points at the question banks.
type QuestionsConfig struct {
	BankDir string `toml:"bank_dir"` // empty = built-in sample
}

// LeaderboardConfig controls the weekly championship backend.
type LeaderboardConfig struct {
	Enabled   bool   `toml:"enabled"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	KeyPrefix string `toml:"key_prefix"`
	Retention string `toml:"retention"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	homeDir := desafioHome()
	gp := gate.DefaultPolicy()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8787,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Dir:     homeDir,
			Encrypt: true,
		},
		Scoring: scoring.DefaultPolicy(),
		Gate: GateConfig{
			MaxTriesPerDay:  gp.MaxTriesPerDay,
			Stages:          gp.Stages,
			ErrorsAllowed:   gp.ErrorsAllowed,
			StabilityStart:  gp.StabilityStart,
			HealOnCorrect:   gp.HealOnCorrect,
			PenaltyBase:     gp.PenaltyBase,
			PenaltyPerStage: gp.PenaltyPerStage,
			DecayPerSecond:  gp.DecayPerSecond,
			TimeBudget:      gp.TimeBudget.String(),
		},
		Questions: QuestionsConfig{
			BankDir: filepath.Join(homeDir, "questions"),
		},
		Leaderboard: LeaderboardConfig{
			RedisAddr: "127.0.0.1:6379",
			KeyPrefix: "desafio",
			Retention: "1344h", // 8 weeks
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Policy converts the section into a gate.Policy. A malformed time budget
// keeps the default.
func (g GateConfig) Policy() gate.Policy {
	return gate.Policy{
		MaxTriesPerDay:  g.MaxTriesPerDay,
		Stages:          g.Stages,
		ErrorsAllowed:   g.ErrorsAllowed,
		StabilityStart:  g.StabilityStart,
		HealOnCorrect:   g.HealOnCorrect,
		PenaltyBase:     g.PenaltyBase,
		PenaltyPerStage: g.PenaltyPerStage,
		DecayPerSecond:  g.DecayPerSecond,
		TimeBudget:      parseDuration(g.TimeBudget, gate.DefaultPolicy().TimeBudget),
	}
}

// Location resolves the configured timezone, falling back to local time.
func (g GameConfig) Location() *time.Location {
	if g.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LoadConfig reads config from $DESAFIO_HOME/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(desafioHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = desafioHome()
	}
	return cfg, nil
}

// SaveConfig writes the config to $DESAFIO_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(desafioHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// desafioHome returns the Desafio data directory.
func desafioHome() string {
	if env := os.Getenv("DESAFIO_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".desafio")
}

// DesafioHome is exported for use by other packages.
func DesafioHome() string {
	return desafioHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
