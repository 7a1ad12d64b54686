package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/clinic"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(zerolog.NewConsoleWriter()).Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New("seed", cfg.Env, cfg.LogLevel)
	logger.Info().Msg("seed starting")

	if cfg.PostgresDSN == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.PostgresConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := clinic.NewPgRepository(pool).EnsureDefaults(ctx, clinic.DefaultConfig()); err != nil {
		logger.Fatal().Err(err).Msg("seed clinic config")
	}
	logger.Info().Msg("clinic config ready")

	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := seedAdmin(ctx, pool, cfg, logger); err != nil {
			logger.Fatal().Err(err).Msg("seed admin")
		}
	} else {
		logger.Warn().Msg("SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set, skipping admin")
	}

	count := 500
	if v := os.Getenv("SEED_PATIENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			count = n
		}
	}
	if err := seedPatients(ctx, pool, count, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	logger.Info().Msg("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger zerolog.Logger) error {
	// Token settings are irrelevant here; the service is only used to hash
	// and store the password.
	tokens, err := auth.NewTokens("seed", time.Minute)
	if err != nil {
		return err
	}
	svc := auth.NewService(auth.NewPgRepository(pool), auth.NewBcryptHasher(bcrypt.DefaultCost), tokens, logger)
	admin, err := svc.EnsureAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminName, cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	logger.Info().Str("email", admin.Email).Msg("admin seeded")
	return nil
}

// seedPatients inserts already verified patients with Egyptian mobile
// numbers so the simulator can book without going through verification.
func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int, logger zerolog.Logger) error {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 250
	faker := gofakeit.New(0)

	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			phone := fmt.Sprintf("+2010%08d", faker.Number(0, 99999999))
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, phone, email, verified, created_at, updated_at)
				VALUES ($1, $2, $3, true, now(), now())
				ON CONFLICT (phone) DO NOTHING
			`, uuid.New(), phone, faker.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		logger.Info().Int("done", end).Int("count", count).Msg("patients seeded")
	}
	return nil
}
