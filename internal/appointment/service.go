package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/clinic"
	"github.com/hackgods/clinic-booking/internal/lock"
	"github.com/hackgods/clinic-booking/internal/metrics"
	"github.com/hackgods/clinic-booking/internal/notify"
	"github.com/hackgods/clinic-booking/internal/verification"
)

const (
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var tracer = otel.Tracer("clinic.internal.appointment")

var (
	ErrDateBlocked = apperr.SlotUnavailable("date is not available for booking")
	ErrDateFull    = apperr.SlotUnavailable("daily booking limit reached")
	ErrSlotBusy    = apperr.SlotUnavailable("slot is currently being booked, please retry")
	ErrNotVerified = apperr.NotVerified("phone number is not verified")
	ErrUnknownSlot = apperr.Validation("unknown time slot")
)

// Locker serializes critical sections that share a name.
type Locker interface {
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type PatientLookup interface {
	Patient(ctx context.Context, phone string) (*verification.Patient, error)
}

type ConfigSource interface {
	GetConfig(ctx context.Context) (*clinic.Config, error)
}

// Notifier receives booking events after they are committed.
type Notifier interface {
	SendConfirmation(ctx context.Context, n notify.AppointmentNotice) error
	SendCancellation(ctx context.Context, n notify.AppointmentNotice) error
}

type Options struct {
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Ledger is the only component that creates appointments or changes their
// status.
type Ledger struct {
	repo     Repository
	patients PatientLookup
	config   ConfigSource
	locker   Locker
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

func NewLedger(repo Repository, patients PatientLookup, config ConfigSource, locker Locker, notifier Notifier, opts Options, logger zerolog.Logger) *Ledger {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ledger{
		repo:     repo,
		patients: patients,
		config:   config,
		locker:   locker,
		notifier: notifier,
		metrics:  opts.Metrics,
		now:      opts.Now,
		logger:   logger.With().Str("component", "booking_ledger").Logger(),
	}
}

func lockName(date clinic.Date) string {
	return "booking:" + string(date)
}

// Reserve books req.SlotKey on req.Date for a verified patient. The
// availability checks and the insert run under a per-date lock, so two
// callers racing for the same slot get one confirmation and one
// slot_unavailable error. The loser is not retried.
func (l *Ledger) Reserve(ctx context.Context, req ReserveRequest) (*Appointment, error) {
	start := l.now()
	ctx, span := tracer.Start(ctx, "appointment.reserve")
	defer span.End()

	appt, err := l.reserve(ctx, req)
	l.metrics.ObserveReservation(reserveOutcome(err), l.now().Sub(start).Seconds())
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			span.RecordError(err)
		}
		return nil, err
	}
	span.SetAttributes(
		attribute.String("clinic.appointment_id", appt.ID.String()),
		attribute.String("clinic.date", string(appt.Date)),
		attribute.String("clinic.slot_key", appt.SlotKey),
	)

	l.notify(ctx, EventAppointmentConfirmed, appt)
	return appt, nil
}

func (l *Ledger) reserve(ctx context.Context, req ReserveRequest) (*Appointment, error) {
	date, err := clinic.ParseDate(string(req.Date))
	if err != nil {
		return nil, err
	}
	req.SlotKey = strings.TrimSpace(req.SlotKey)
	req.Name = strings.TrimSpace(req.Name)
	req.Service = strings.TrimSpace(req.Service)
	switch {
	case req.SlotKey == "":
		return nil, apperr.Validation("slot is required")
	case req.Name == "":
		return nil, apperr.Validation("name is required")
	case req.Service == "":
		return nil, apperr.Validation("service is required")
	}

	patient, err := l.patients.Patient(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrNotVerified
		}
		return nil, err
	}
	if !patient.Verified {
		return nil, ErrNotVerified
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = patient.Email
	}

	var created *Appointment
	err = l.locker.WithLock(ctx, lockName(date), func(lockCtx context.Context) error {
		cfg, err := l.config.GetConfig(lockCtx)
		if err != nil {
			return err
		}
		booked, err := l.repo.ConfirmedSlotKeys(lockCtx, date)
		if err != nil {
			return fmt.Errorf("load confirmed slots: %w", err)
		}

		slot, ok := cfg.Slot(req.SlotKey)
		if !ok {
			return ErrUnknownSlot
		}

		avail := availability.Compute(*cfg, date, booked)
		switch {
		case avail.State == availability.StateBlocked:
			return ErrDateBlocked
		case avail.State == availability.StateFull:
			return ErrDateFull
		case !avail.HasSlot(req.SlotKey):
			return ErrSlotTaken
		}

		appt, err := l.repo.Insert(lockCtx, Appointment{
			PatientID: patient.ID,
			Date:      date,
			SlotKey:   slot.Key,
			SlotLabel: slot.Label,
			Name:      req.Name,
			Email:     email,
			Phone:     patient.Phone,
			Service:   req.Service,
			Notes:     strings.TrimSpace(req.Notes),
		})
		if err != nil {
			return err
		}
		created = appt

		l.logEvent(lockCtx, appt.ID, EventAppointmentConfirmed, map[string]any{
			"patient_id": patient.ID.String(),
			"date":       string(date),
			"slot_key":   appt.SlotKey,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	l.logger.Info().
		Str("appointment_id", created.ID.String()).
		Str("date", string(created.Date)).
		Str("slot", created.SlotKey).
		Msg("appointment confirmed")
	return created, nil
}

// Cancel moves a confirmed appointment to cancelled. Cancelling an
// appointment that is already cancelled succeeds without side effects.
func (l *Ledger) Cancel(ctx context.Context, id uuid.UUID, actor string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id.String()))

	appt, err := l.repo.Cancel(ctx, id, actor, l.now().UTC())
	if err == nil {
		l.metrics.ObserveCancellation("cancelled")
		l.logEvent(ctx, appt.ID, EventAppointmentCancelled, map[string]any{
			"actor":    actor,
			"date":     string(appt.Date),
			"slot_key": appt.SlotKey,
		})
		l.logger.Info().Str("appointment_id", appt.ID.String()).Str("actor", actor).Msg("appointment cancelled")
		l.notify(ctx, EventAppointmentCancelled, appt)
		return appt, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		span.RecordError(err)
		l.metrics.ObserveCancellation("error")
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	// No confirmed row matched: either it does not exist or it is already
	// cancelled.
	existing, err := l.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			l.metrics.ObserveCancellation("not_found")
			return nil, err
		}
		l.metrics.ObserveCancellation("error")
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	l.metrics.ObserveCancellation("already_cancelled")
	return existing, nil
}

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := l.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (l *Ledger) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	if f.Date != "" {
		d, err := clinic.ParseDate(string(f.Date))
		if err != nil {
			return nil, err
		}
		f.Date = d
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("status must be confirmed or cancelled")
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	appointments, err := l.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

// ConfirmedSlotKeys and ConfirmedSlotKeysBetween let the availability
// calculator read bookings through the ledger.
func (l *Ledger) ConfirmedSlotKeys(ctx context.Context, date clinic.Date) ([]string, error) {
	return l.repo.ConfirmedSlotKeys(ctx, date)
}

func (l *Ledger) ConfirmedSlotKeysBetween(ctx context.Context, from, to clinic.Date) (map[clinic.Date][]string, error) {
	return l.repo.ConfirmedSlotKeysBetween(ctx, from, to)
}

func (l *Ledger) notify(ctx context.Context, event string, appt *Appointment) {
	if l.notifier == nil {
		return
	}
	n := Notice(appt)

	var err error
	switch event {
	case EventAppointmentConfirmed:
		err = l.notifier.SendConfirmation(ctx, n)
	case EventAppointmentCancelled:
		err = l.notifier.SendCancellation(ctx, n)
	}
	if err != nil {
		l.logger.Warn().Err(err).Str("appointment_id", appt.ID.String()).Str("event", event).Msg("notification not queued")
	}
}

// Notice converts an appointment into the view notifications are rendered from.
func Notice(a *Appointment) notify.AppointmentNotice {
	return notify.AppointmentNotice{
		AppointmentID: a.ID.String(),
		Name:          a.Name,
		Email:         a.Email,
		Phone:         a.Phone,
		Date:          string(a.Date),
		SlotLabel:     a.SlotLabel,
		Service:       a.Service,
		Notes:         a.Notes,
		CancelledBy:   a.CancelledBy,
	}
}

func (l *Ledger) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		l.logger.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     l.now().UTC(),
	}

	if err := l.repo.InsertEvent(ctx, ev); err != nil {
		l.logger.Error().Err(err).Str("event", eventType).Str("appointment_id", appointmentID.String()).Msg("failed to insert event log")
	}
}

func reserveOutcome(err error) string {
	if err == nil {
		return "confirmed"
	}
	return string(apperr.KindOf(err))
}
