package clinic

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgRepositoryGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	updated := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM clinic_settings").
		WillReturnRows(pgxmock.NewRows([]string{"daily_limit", "near_capacity_ratio", "near_capacity_remaining", "updated_at"}).
			AddRow(3, 0.75, 1, updated))
	mock.ExpectQuery("FROM blocked_dates").
		WillReturnRows(pgxmock.NewRows([]string{"day"}).AddRow("2026-12-25"))
	mock.ExpectQuery("FROM time_slots").
		WillReturnRows(pgxmock.NewRows([]string{"slot_key", "label"}).
			AddRow("09:00", "9:00 AM").
			AddRow("10:00", "10:00 AM"))

	repo := NewPgRepository(mock)
	cfg, err := repo.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.DailyLimit)
	assert.Equal(t, Thresholds{NearCapacityRatio: 0.75, NearCapacityRemaining: 1}, cfg.Thresholds)
	assert.Equal(t, []Date{"2026-12-25"}, cfg.BlockedDates)
	assert.Equal(t, []TimeSlot{{"09:00", "9:00 AM"}, {"10:00", "10:00 AM"}}, cfg.TimeSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepositoryGetFallsBackToDefaults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM clinic_settings").
		WillReturnRows(pgxmock.NewRows([]string{"daily_limit", "near_capacity_ratio", "near_capacity_remaining", "updated_at"}))

	cfg, err := NewPgRepository(mock).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepositoryReplaceTimeSlots(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM time_slots").WillReturnResult(pgxmock.NewResult("DELETE", 8))
	mock.ExpectExec("INSERT INTO time_slots").WithArgs("09:00", "9:00 AM", 0).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO time_slots").WithArgs("09:30", "9:30 AM", 1).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = NewPgRepository(mock).ReplaceTimeSlots(context.Background(), []TimeSlot{
		{Key: "09:00", Label: "9:00 AM"},
		{Key: "09:30", Label: "9:30 AM"},
	})
	require.NoError(t, err)
}
