// Command tenderseal runs the sealed-bid integrity service: encrypted bid
// sealing, an append-only audit ledger and governance update recording.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/procurex/tenderseal/pkg/api"
	"github.com/procurex/tenderseal/pkg/config"
	"github.com/procurex/tenderseal/pkg/crypto"
	"github.com/procurex/tenderseal/pkg/governance"
	"github.com/procurex/tenderseal/pkg/ledger"
	"github.com/procurex/tenderseal/pkg/observability"
	"github.com/procurex/tenderseal/pkg/query"
	"github.com/procurex/tenderseal/pkg/seal"

	_ "github.com/lib/pq"  // Postgres driver
	_ "modernc.org/sqlite" // SQLite driver
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file overlaying the environment")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obsCfg := observability.DefaultConfig()
	obsCfg.Environment = envName()
	if cfg.OTLPEndpoint != "" {
		obsCfg.Enabled = true
		obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
	}
	provider, err := observability.New(ctx, obsCfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	db, bids, updates, err := openStores(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	key := crypto.ResolveKey(cfg.EncryptionKey, logger)
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return err
	}

	sealer := seal.NewSealer(cipher, logger)
	recorder := governance.NewRecorder(updates, logger)
	querySvc := query.NewService(bids, cfg.AuditLogLimit, logger)

	server := api.NewServer(sealer, bids, recorder, querySvc, logger)

	var handler http.Handler = server.Routes()
	rateLimiter := api.NewGlobalRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rateLimiter.Close()
	handler = rateLimiter.Middleware(handler)
	if cfg.RedisAddr != "" {
		limiter := api.NewRedisRateLimiter(cfg.RedisAddr, cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer func() { _ = limiter.Close() }()
		handler = limiter.Middleware(handler)
		logger.Info("redis rate limiter enabled", "addr", cfg.RedisAddr)
	}
	handler = api.CORSMiddleware(cfg.CORSOrigins, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tenderseal listening", "port", cfg.Port, "database", cfg.DatabaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores opens the persistence collaborator and migrates both streams.
// postgres:// URLs select lib/pq; anything else is treated as a SQLite path.
func openStores(databaseURL string) (*sql.DB, ledger.Ledger, governance.Store, error) {
	var (
		db  *sql.DB
		err error
	)
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		bids, err := ledger.NewPostgresLedger(db)
		if err != nil {
			return nil, nil, nil, err
		}
		updates, err := governance.NewPostgresStore(db)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, bids, updates, nil
	}

	db, err = sql.Open("sqlite", databaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	bids, err := ledger.NewSQLiteLedger(db)
	if err != nil {
		return nil, nil, nil, err
	}
	updates, err := governance.NewSQLiteStore(db)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, bids, updates, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func envName() string {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		return v
	}
	return "development"
}
