package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-booking/internal/db"
)

const patientColumns = `id, phone, email, verified, pending_code, code_issued_at, created_at, updated_at`

type PgRepository struct {
	pool db.Pool
}

func NewPgRepository(pool db.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var code *string
	var issuedAt *time.Time

	err := row.Scan(
		&p.ID,
		&p.Phone,
		&p.Email,
		&p.Verified,
		&code,
		&issuedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.PendingCode = code
	p.CodeIssuedAt = issuedAt
	return &p, nil
}

func (r *PgRepository) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE phone = $1
	`, phone)
	return scanPatient(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) UpsertChallenge(ctx context.Context, phone, email, code string, issuedAt time.Time) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, phone, email, verified, pending_code, code_issued_at, created_at, updated_at)
		VALUES ($1, $2, $3, false, $4, $5, now(), now())
		ON CONFLICT (phone) DO UPDATE
		SET email = EXCLUDED.email,
		    verified = false,
		    pending_code = EXCLUDED.pending_code,
		    code_issued_at = EXCLUDED.code_issued_at,
		    updated_at = now()
		RETURNING `+patientColumns+`
	`, uuid.New(), phone, email, code, issuedAt)

	p, err := scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("upsert patient challenge: %w", err)
	}
	return p, nil
}

func (r *PgRepository) Redeem(ctx context.Context, phone, code string, notBefore time.Time) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET verified = true,
		    pending_code = NULL,
		    updated_at = now()
		WHERE phone = $1
		  AND pending_code = $2
		  AND code_issued_at >= $3
		RETURNING `+patientColumns+`
	`, phone, code, notBefore)

	p, err := scanPatient(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("redeem code: %w", err)
	}

	// Nothing matched: tell an unknown phone apart from a wrong code.
	if _, err := r.GetByPhone(ctx, phone); err != nil {
		return nil, err
	}
	return nil, ErrCodeMismatch
}

func (r *PgRepository) ClearCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET pending_code = NULL,
		    updated_at = now()
		WHERE pending_code IS NOT NULL
		  AND code_issued_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clear stale codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
