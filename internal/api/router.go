package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/clinic"
	"github.com/hackgods/clinic-booking/internal/metrics"
	"github.com/hackgods/clinic-booking/internal/verification"
)

type VerificationService interface {
	IssueCode(ctx context.Context, phone, email string) (string, error)
	RedeemCode(ctx context.Context, phone, code string) (*verification.Patient, error)
}

type AvailabilityService interface {
	ListAvailability(ctx context.Context, date clinic.Date) (availability.Result, error)
	Calendar(ctx context.Context, from, to clinic.Date) ([]availability.Result, error)
}

type BookingService interface {
	Reserve(ctx context.Context, req appointment.ReserveRequest) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	List(ctx context.Context, f appointment.ListFilter) ([]appointment.Appointment, error)
}

type ConfigService interface {
	GetConfig(ctx context.Context) (*clinic.Config, error)
	SetDailyLimit(ctx context.Context, n int) (*clinic.Config, error)
	BlockDate(ctx context.Context, d clinic.Date) (*clinic.Config, error)
	UnblockDate(ctx context.Context, d clinic.Date) (*clinic.Config, error)
	SetTimeSlots(ctx context.Context, slots []clinic.TimeSlot) (*clinic.Config, error)
	SetThresholds(ctx context.Context, t clinic.Thresholds) (*clinic.Config, error)
}

type AdminAuthenticator interface {
	TokenAuthenticator
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

type RouterConfig struct {
	Verification VerificationService
	Availability AvailabilityService
	Booking      BookingService
	Config       ConfigService
	Admins       AdminAuthenticator

	// Phones backs the clinicphone validation tag.
	Phones *verification.PhonePolicy
	// ExposeVerificationCodes echoes issued codes in responses (dev only).
	ExposeVerificationCodes bool

	RateLimitRPS   float64
	RateLimitBurst int

	HealthChecks []HealthCheck
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Phones == nil {
		cfg.Phones, _ = verification.NewPhonePolicy("")
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	v := newValidator(cfg.Phones)
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.HealthChecks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/verification/codes", issueCodeHandler(cfg.Verification, v, cfg.ExposeVerificationCodes))
			r.Post("/verification/redeem", redeemCodeHandler(cfg.Verification, v))
		})

		r.Get("/availability", availabilityHandler(cfg.Availability))
		r.Post("/appointments", createAppointmentHandler(cfg.Booking, v))

		r.Route("/admin", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/login", loginHandler(cfg.Admins, v))

			r.Group(func(r chi.Router) {
				r.Use(AdminAuth(cfg.Admins))

				r.Get("/config", getConfigHandler(cfg.Config))
				r.Put("/config/daily-limit", setDailyLimitHandler(cfg.Config, v))
				r.Put("/config/time-slots", setTimeSlotsHandler(cfg.Config, v))
				r.Put("/config/thresholds", setThresholdsHandler(cfg.Config, v))
				r.Post("/blocked-dates", blockDateHandler(cfg.Config, v))
				r.Delete("/blocked-dates/{date}", unblockDateHandler(cfg.Config))

				r.Get("/calendar", calendarHandler(cfg.Availability))
				r.Get("/appointments", listAppointmentsHandler(cfg.Booking))
				r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
				r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Booking))
			})
		})
	})

	return r
}
