package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/clinic"
)

type Status string

// There is no pending state: a reservation is confirmed when it is created.
const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	Date        clinic.Date
	SlotKey     string
	SlotLabel   string
	Status      Status
	Name        string
	Email       string
	Phone       string
	Service     string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CancelledAt *time.Time
	CancelledBy string
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// ReserveRequest carries the caller's choice plus the contact and service
// details stored with the appointment.
type ReserveRequest struct {
	Phone   string
	Date    clinic.Date
	SlotKey string
	Name    string
	Email   string
	Service string
	Notes   string
}

// ListFilter narrows List. Zero values mean "any".
type ListFilter struct {
	Date   clinic.Date
	Status Status
	Limit  int
	Offset int
}
