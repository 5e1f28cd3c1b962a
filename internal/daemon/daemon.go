package daemon

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desafio-logico/desafio/internal/api"
	"github.com/desafio-logico/desafio/internal/app/session"
	"github.com/desafio-logico/desafio/internal/domain"
	"github.com/desafio-logico/desafio/internal/health"
	"github.com/desafio-logico/desafio/internal/infra/clock"
	"github.com/desafio-logico/desafio/internal/infra/leaderboard"
	_ "github.com/desafio-logico/desafio/internal/infra/metrics" // Register Prometheus metrics
	"github.com/desafio-logico/desafio/internal/infra/questions"
	"github.com/desafio-logico/desafio/internal/infra/sqlite"
	"github.com/desafio-logico/desafio/internal/security"
)

// Daemon is the Desafio runtime. It wires together all services.
type Daemon struct {
	Config    Config
	DB        *sqlite.DB
	Plain     domain.KeyValueStore
	Secure    domain.KeyValueStore
	Encrypted bool // false when the secure tier fell back to plaintext
	Clock     domain.Clock
	Questions *questions.Source
	Board     domain.Leaderboard
	Sessions  *session.Registry
	Health    *health.Checker
	Server    *api.Server

	redis   *leaderboard.Redis
	retry   *leaderboard.Retrying
	logFile *os.File
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	d := &Daemon{Config: cfg}

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		d.logFile = f
	}

	dataDir := cfg.Storage.Dir
	if dataDir == "" {
		dataDir = desafioHome()
	}

	// Open SQLite
	db, err := sqlite.Open(dataDir)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	d.DB = db
	d.Plain = db.Tier(sqlite.TierPlain)

	// Encrypted tier, or the plaintext fallback if no cipher can be built
	secure, fellBack := security.OpenSecureStore(db, security.StoreOptions{
		Home:       dataDir,
		Passphrase: cfg.Storage.Passphrase,
		Disabled:   !cfg.Storage.Encrypt,
	})
	d.Secure = secure
	d.Encrypted = !fellBack

	d.Clock = clock.NewSystem(cfg.Game.Location())

	// Question banks; the built-in sample fills in when none are installed
	d.Questions = questions.Builtin()
	if dir := cfg.Questions.BankDir; dir != "" {
		if _, err := os.Stat(dir); err == nil {
			src, err := questions.Load(dir)
			if err != nil {
				d.Close()
				return nil, fmt.Errorf("load questions: %w", err)
			}
			d.Questions = src
		}
	}

	sessCfg := session.Config{
		Plain:   d.Plain,
		Secure:  d.Secure,
		Clock:   d.Clock,
		Scoring: cfg.Scoring,
		Gate:    cfg.Gate.Policy(),
	}
	if d.Encrypted {
		// Progress saved during an earlier run without a cipher
		sessCfg.Fallback = db.Tier(security.TierFallback)
	}
	d.Sessions = session.NewRegistry(sessCfg)

	// Health checker
	d.Health = health.NewChecker(db, d.Secure, dataDir)

	// Weekly leaderboard
	d.Board = leaderboard.Disabled{}
	if cfg.Leaderboard.Enabled {
		rdb := leaderboard.Dial(leaderboard.Options{
			Addr:      cfg.Leaderboard.RedisAddr,
			DB:        cfg.Leaderboard.RedisDB,
			KeyPrefix: cfg.Leaderboard.KeyPrefix,
			Retention: parseDuration(cfg.Leaderboard.Retention, 8*7*24*time.Hour),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx); err != nil {
			log.Printf("[daemon] WARNING: leaderboard %s unreachable: %v (submissions queue for retry)",
				cfg.Leaderboard.RedisAddr, err)
		}
		cancel()
		d.redis = rdb
		d.retry = leaderboard.NewRetrying(rdb, leaderboard.DefaultRetryConfig())
		d.Board = d.retry
		d.Health.AddCheck(health.Check{Name: "leaderboard", CheckFn: rdb.Ping})
	}

	// Initialize API server
	srv := api.NewServer(d.Sessions, d.Questions, d.Clock)
	srv.SetLeaderboard(d.Board)
	srv.SetHealth(d.Health)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if id, err := db.InstallationID(); err != nil {
		log.Printf("[daemon] WARNING: %v (guests share one weekly entry)", err)
	} else {
		srv.SetInstallationID(id)
	}

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	log.Printf("[daemon] data dir %s (encrypted=%t, questions=%v)", dataDir, d.Encrypted, d.Questions.Count())
	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Health checker (always runs)
	go d.Health.Run(ctx)

	// Weekly submissions that failed while redis was away
	if d.retry != nil {
		go d.retry.Run(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Desafio serving on http://%s\n", addr)
	if !d.Encrypted {
		fmt.Printf("  Storage: UNENCRYPTED (%s)\n", d.DB.Path())
	}
	if d.redis != nil {
		fmt.Printf("  Leaderboard: redis %s\n", d.Config.Leaderboard.RedisAddr)
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.logFile != nil {
		log.SetOutput(os.Stderr)
		_ = d.logFile.Close()
	}
}
