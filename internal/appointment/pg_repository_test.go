package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/clinic"
)

var appointmentCols = []string{
	"id", "patient_id", "day", "slot_key", "slot_label", "status",
	"name", "email", "phone", "service", "notes",
	"created_at", "updated_at", "cancelled_at", "cancelled_by",
}

func TestPgInsertMapsUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: confirmedSlotIndex})

	_, err = NewPgRepository(mock).Insert(context.Background(), Appointment{
		PatientID: uuid.New(),
		Date:      testDate,
		SlotKey:   "09:00",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgInsertReturnsConfirmed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, patientID := uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(id, patientID, "2026-10-20", "09:00", "9:00 AM", "Mona", "m@example.com", "+201001234567", "Checkup", "").
		WillReturnRows(pgxmock.NewRows(appointmentCols).AddRow(
			id, patientID, "2026-10-20", "09:00", "9:00 AM", StatusConfirmed,
			"Mona", "m@example.com", "+201001234567", "Checkup", "",
			now, now, nil, nil,
		))

	a, err := NewPgRepository(mock).Insert(context.Background(), Appointment{
		ID:        id,
		PatientID: patientID,
		Date:      testDate,
		SlotKey:   "09:00",
		SlotLabel: "9:00 AM",
		Name:      "Mona",
		Email:     "m@example.com",
		Phone:     "+201001234567",
		Service:   "Checkup",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, a.Status)
	assert.Equal(t, testDate, a.Date)
	assert.Nil(t, a.CancelledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCancelWithoutConfirmedRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id, pgxmock.AnyArg(), "admin").
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	_, err = NewPgRepository(mock).Cancel(context.Background(), id, "admin", time.Now())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgConfirmedSlotKeysBetween(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT to_char").
		WithArgs("2026-10-20", "2026-10-22").
		WillReturnRows(pgxmock.NewRows([]string{"day", "slot_key"}).
			AddRow("2026-10-20", "09:00").
			AddRow("2026-10-20", "10:00").
			AddRow("2026-10-22", "09:00"))

	got, err := NewPgRepository(mock).ConfirmedSlotKeysBetween(context.Background(), "2026-10-20", "2026-10-22")
	require.NoError(t, err)
	assert.Equal(t, map[clinic.Date][]string{
		"2026-10-20": {"09:00", "10:00"},
		"2026-10-22": {"09:00"},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
