package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all patient persistence needed by the service.
type Repository interface {
	GetByPhone(ctx context.Context, phone string) (*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// UpsertChallenge creates the patient if needed and overwrites email,
	// pending code and issue time. Verified is always reset to false.
	UpsertChallenge(ctx context.Context, phone, email, code string, issuedAt time.Time) (*Patient, error)

	// Redeem atomically marks the patient verified and clears the code when
	// the stored code equals code and was issued at or after notBefore.
	// Returns ErrPatientNotFound or ErrCodeMismatch otherwise.
	Redeem(ctx context.Context, phone, code string, notBefore time.Time) (*Patient, error)

	// ClearCodesIssuedBefore drops pending codes older than cutoff.
	ClearCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
