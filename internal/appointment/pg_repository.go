package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-booking/internal/clinic"
	"github.com/hackgods/clinic-booking/internal/db"
)

// confirmedSlotIndex is the partial unique index on (day, slot_key) for
// confirmed rows.
const confirmedSlotIndex = "appointments_confirmed_slot_uniq"

const appointmentColumns = `id, patient_id, to_char(day, 'YYYY-MM-DD'), slot_key, slot_label, status,
	name, email, phone, service, notes, created_at, updated_at, cancelled_at, cancelled_by`

type PgRepository struct {
	pool db.Pool
}

func NewPgRepository(pool db.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var day string
	var cancelledAt *time.Time
	var cancelledBy *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&day,
		&a.SlotKey,
		&a.SlotLabel,
		&a.Status,
		&a.Name,
		&a.Email,
		&a.Phone,
		&a.Service,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&cancelledAt,
		&cancelledBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = clinic.Date(day)
	a.CancelledAt = cancelledAt
	if cancelledBy != nil {
		a.CancelledBy = *cancelledBy
	}
	return &a, nil
}

func (r *PgRepository) ConfirmedSlotKeys(ctx context.Context, date clinic.Date) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot_key
		FROM appointments
		WHERE day = $1::date
		  AND status = 'confirmed'
	`, string(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *PgRepository) ConfirmedSlotKeysBetween(ctx context.Context, from, to clinic.Date) (map[clinic.Date][]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD'), slot_key
		FROM appointments
		WHERE day BETWEEN $1::date AND $2::date
		  AND status = 'confirmed'
	`, string(from), string(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[clinic.Date][]string)
	for rows.Next() {
		var day, key string
		if err := rows.Scan(&day, &key); err != nil {
			return nil, err
		}
		d := clinic.Date(day)
		out[d] = append(out[d], key)
	}
	return out, rows.Err()
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	var where []string
	var args []any
	if f.Date != "" {
		args = append(args, string(f.Date))
		where = append(where, fmt.Sprintf("day = $%d::date", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY day DESC, slot_key ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Insert(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, day, slot_key, slot_label, status,
			name, email, phone, service, notes, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, 'confirmed', $6, $7, $8, $9, $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, a.ID, a.PatientID, string(a.Date), a.SlotKey, a.SlotLabel,
		a.Name, a.Email, a.Phone, a.Service, a.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if db.IsUniqueViolation(err, confirmedSlotIndex) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return created, nil
}

func (r *PgRepository) Cancel(ctx context.Context, id uuid.UUID, actor string, at time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
		    cancelled_at = $2,
		    cancelled_by = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'confirmed'
		RETURNING `+appointmentColumns+`
	`, id, at, actor)

	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
