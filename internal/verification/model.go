package verification

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/apperr"
)

var (
	ErrPatientNotFound = apperr.NotFound("patient")
	ErrCodeMismatch    = apperr.CodeMismatch("invalid verification code")
)

// Patient is identified by phone. The pending code fields hold the single
// outstanding verification challenge, if any.
type Patient struct {
	ID           uuid.UUID
	Phone        string
	Email        string
	Verified     bool
	PendingCode  *string
	CodeIssuedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
