package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/clinic-booking/internal/api"
	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/clinic"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/lock"
	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/metrics"
	"github.com/hackgods/clinic-booking/internal/notify"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
	"github.com/hackgods/clinic-booking/internal/verification"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type repositories struct {
	clinic       clinic.Repository
	patients     verification.Repository
	appointments appointment.Repository
	admins       auth.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(zerolog.NewConsoleWriter()).Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New("api-server", cfg.Env, cfg.LogLevel)
	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("store", cfg.StoreDriver).
		Str("lock", cfg.LockDriver).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var checks []api.HealthCheck

	// Storage
	var repos repositories
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresConns)
		cancelPg()
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pgPool.Close()
		logger.Info().Msg("connected to Postgres")

		repos = repositories{
			clinic:       clinic.NewPgRepository(pgPool),
			patients:     verification.NewPgRepository(pgPool),
			appointments: appointment.NewPgRepository(pgPool),
			admins:       auth.NewPgRepository(pgPool),
		}
		checks = append(checks, api.HealthCheck{Name: "postgres", Critical: true, Check: pgPool.Ping})
	default:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		repos = repositories{
			clinic:       clinic.NewMemoryRepository(),
			patients:     verification.NewMemoryRepository(),
			appointments: appointment.NewMemoryRepository(),
			admins:       auth.NewMemoryRepository(),
		}
	}

	if err := repos.clinic.EnsureDefaults(rootCtx, clinic.DefaultConfig()); err != nil {
		logger.Fatal().Err(err).Msg("ensure clinic defaults")
	}

	// Booking lock
	var locker appointment.Locker
	switch cfg.LockDriver {
	case config.LockDriverRedis:
		rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		logger.Info().Msg("connected to Redis")

		locker = redisclient.NewLocker(rdb, cfg.LockTTL, cfg.LockWait)
		checks = append(checks, api.HealthCheck{
			Name:     "redis",
			Critical: true,
			Check:    func(ctx context.Context) error { return redisclient.Ping(ctx, rdb) },
		})
	default:
		locker = lock.NewLocal(cfg.LockWait)
	}

	// Notifications
	dispatcher := notify.NewDispatcher(
		notify.NewNotifier(emailSender(cfg, logger), smsSender(cfg, logger), notify.NotifierConfig{
			ClinicName: cfg.ClinicName,
			AdminEmail: cfg.AdminEmail,
		}, logger),
		notify.DispatcherOptions{
			Workers:   cfg.NotifyWorkers,
			QueueSize: cfg.NotifyQueueSize,
			Metrics:   m,
		},
		logger,
	)
	dispatcher.Start()

	phones, err := verification.NewPhonePolicy(cfg.PhonePattern)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid PHONE_PATTERN")
	}

	store := clinic.NewStore(repos.clinic, logger)
	verifier := verification.NewService(repos.patients, dispatcher, verification.Options{
		CodeTTL: cfg.CodeTTL,
		Phones:  phones,
		Metrics: m,
	}, logger)
	ledger := appointment.NewLedger(repos.appointments, verifier, store, locker, dispatcher, appointment.Options{Metrics: m}, logger)
	calc := availability.NewCalculator(store, ledger)

	secret := cfg.AdminJWTSecret
	if secret == "" && cfg.IsDev() {
		secret = randomSecret()
		logger.Warn().Msg("ADMIN_JWT_SECRET not set, using a random secret; admin tokens will not survive a restart")
	}
	tokens, err := auth.NewTokens(secret, cfg.AdminTokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("admin tokens")
	}
	admins := auth.NewService(repos.admins, auth.NewBcryptHasher(bcrypt.DefaultCost), tokens, logger)
	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if _, err := admins.EnsureAdmin(rootCtx, cfg.SeedAdminEmail, cfg.SeedAdminName, cfg.SeedAdminPassword); err != nil {
			logger.Fatal().Err(err).Msg("ensure admin")
		}
		logger.Info().Str("email", cfg.SeedAdminEmail).Msg("admin account ready")
	}

	exposeCodes := cfg.ExposeVerificationCodes
	if exposeCodes && !cfg.IsDev() {
		logger.Warn().Msg("EXPOSE_VERIFICATION_CODES ignored outside dev")
		exposeCodes = false
	}

	router := api.NewRouter(api.RouterConfig{
		Verification:            verifier,
		Availability:            calc,
		Booking:                 ledger,
		Config:                  store,
		Admins:                  admins,
		Phones:                  phones,
		ExposeVerificationCodes: exposeCodes,
		RateLimitRPS:            cfg.RateLimitRPS,
		RateLimitBurst:          cfg.RateLimitBurst,
		HealthChecks:            checks,
		Metrics:                 m,
		Gatherer:                reg,
		Logger:                  logger,
		Env:                     cfg.Env,
		Version:                 version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("notification queue not drained")
	}
	logger.Info().Msg("api-server stopped")
}

func emailSender(cfg config.Config, logger zerolog.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case config.EmailProviderSendGrid:
		s, err := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("sendgrid sender")
		}
		return s
	case config.EmailProviderSMTP:
		s, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("smtp sender")
		}
		return s
	default:
		return notify.NewLogSink(logger)
	}
}

func smsSender(cfg config.Config, logger zerolog.Logger) notify.SMSSender {
	if cfg.TelnyxAPIKey == "" {
		return notify.NewLogSink(logger)
	}
	s, err := notify.NewTelnyxSender(notify.TelnyxConfig{
		APIKey:     cfg.TelnyxAPIKey,
		FromNumber: cfg.TelnyxFromNumber,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("telnyx sender")
	}
	return s
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
