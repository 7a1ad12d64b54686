package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/clinic"
)

var (
	ErrAppointmentNotFound = apperr.NotFound("appointment")
	ErrSlotTaken           = apperr.SlotUnavailable("slot is already booked")
)

// Repository contains all DB interactions needed by the ledger.
type Repository interface {
	// Availability inputs
	ConfirmedSlotKeys(ctx context.Context, date clinic.Date) ([]string, error)
	ConfirmedSlotKeysBetween(ctx context.Context, from, to clinic.Date) (map[clinic.Date][]string, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f ListFilter) ([]Appointment, error)

	// Insert stores a confirmed appointment. A second confirmed row for the
	// same date and slot fails with ErrSlotTaken.
	Insert(ctx context.Context, a Appointment) (*Appointment, error)
	// Cancel moves a confirmed appointment to cancelled. It returns
	// ErrAppointmentNotFound when no confirmed row with that id exists.
	Cancel(ctx context.Context, id uuid.UUID, actor string, at time.Time) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
