package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/verification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(zerolog.NewConsoleWriter()).Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New("code-sweeper", cfg.Env, cfg.LogLevel)
	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Dur("code_ttl", cfg.CodeTTL).
		Msg("code sweeper starting up")

	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Fatal().Str("store", cfg.StoreDriver).Msg("code sweeper needs the postgres store")
	}
	if cfg.CodeTTL <= 0 {
		logger.Warn().Msg("CODE_TTL disables expiry, nothing to sweep")
		return
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresConns)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	svc := verification.NewService(verification.NewPgRepository(pgPool), nil, verification.Options{
		CodeTTL: cfg.CodeTTL,
	}, logger)

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping code sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *verification.Service, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.SweepStaleCodes(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("sweep run error")
		return
	}
	logger.Info().Int64("cleared", n).Dur("took", time.Since(start)).Msg("sweep run complete")
}
