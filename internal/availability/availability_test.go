package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/clinic"
)

func twoSlotConfig(limit int) clinic.Config {
	return clinic.Config{
		DailyLimit: limit,
		TimeSlots: []clinic.TimeSlot{
			{Key: "09:00", Label: "9:00 AM"},
			{Key: "10:00", Label: "10:00 AM"},
		},
		Thresholds: clinic.Thresholds{NearCapacityRatio: 0.8},
	}
}

func TestComputeOpenSlotsPreserveCatalogOrder(t *testing.T) {
	cfg := clinic.DefaultConfig()

	res := Compute(cfg, "2026-10-20", []string{"14:00", "09:00"})

	assert.Equal(t, StateOpen, res.State)
	assert.Equal(t, []string{"10:00", "11:00", "12:00", "15:00", "16:00", "17:00"}, res.SlotKeys())
	assert.Equal(t, 2, res.Booked)
	assert.Equal(t, 8, res.Remaining)
	assert.True(t, res.HasSlot("10:00"))
	assert.False(t, res.HasSlot("09:00"))
}

func TestComputeBlockedDateIsEmptyRegardlessOfCapacity(t *testing.T) {
	cfg := twoSlotConfig(20)
	cfg.BlockedDates = []clinic.Date{"2026-10-20"}

	for _, booked := range [][]string{nil, {"09:00"}} {
		res := Compute(cfg, "2026-10-20", booked)
		assert.Equal(t, StateBlocked, res.State)
		assert.Empty(t, res.Slots)
		assert.Zero(t, res.Remaining)
	}

	other := Compute(cfg, "2026-10-21", nil)
	assert.Equal(t, StateOpen, other.State)
}

func TestComputeFullWhenDailyLimitReached(t *testing.T) {
	cfg := clinic.DefaultConfig()
	cfg.DailyLimit = 2

	res := Compute(cfg, "2026-10-20", []string{"09:00", "10:00"})

	assert.Equal(t, StateFull, res.State)
	assert.Empty(t, res.Slots)
}

func TestComputeNearCapacity(t *testing.T) {
	cfg := clinic.DefaultConfig()
	cfg.DailyLimit = 5

	res := Compute(cfg, "2026-10-20", []string{"09:00", "10:00", "11:00"})
	assert.Equal(t, StateOpen, res.State)

	res = Compute(cfg, "2026-10-20", []string{"09:00", "10:00", "11:00", "12:00"})
	assert.Equal(t, StateNearCapacity, res.State)

	cfg.Thresholds = clinic.Thresholds{NearCapacityRatio: 1, NearCapacityRemaining: 2}
	res = Compute(cfg, "2026-10-20", []string{"09:00", "10:00", "11:00"})
	assert.Equal(t, StateNearCapacity, res.State)
}

// The two-slot walkthrough: limit 2, slots 09:00 and 10:00.
func TestComputeTwoSlotScenario(t *testing.T) {
	cfg := twoSlotConfig(2)

	res := Compute(cfg, "2026-10-20", []string{"09:00"})
	assert.Equal(t, []string{"10:00"}, res.SlotKeys())
	assert.Equal(t, StateOpen, res.State)

	res = Compute(cfg, "2026-10-20", []string{"09:00", "10:00"})
	assert.Empty(t, res.Slots)
	assert.Equal(t, StateFull, res.State)
}

type stubConfig struct {
	cfg clinic.Config
	err error
}

func (s stubConfig) GetConfig(ctx context.Context) (*clinic.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	c := s.cfg.Clone()
	return &c, nil
}

type stubBookings map[clinic.Date][]string

func (s stubBookings) ConfirmedSlotKeys(ctx context.Context, date clinic.Date) ([]string, error) {
	return s[date], nil
}

func (s stubBookings) ConfirmedSlotKeysBetween(ctx context.Context, from, to clinic.Date) (map[clinic.Date][]string, error) {
	out := map[clinic.Date][]string{}
	for d, keys := range s {
		if d >= from && d <= to {
			out[d] = keys
		}
	}
	return out, nil
}

func TestCalculatorListAvailability(t *testing.T) {
	calc := NewCalculator(stubConfig{cfg: twoSlotConfig(2)}, stubBookings{"2026-10-20": {"10:00"}})

	res, err := calc.ListAvailability(context.Background(), "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, res.SlotKeys())

	boom := errors.New("store down")
	calc = NewCalculator(stubConfig{err: boom}, stubBookings{})
	_, err = calc.ListAvailability(context.Background(), "2026-10-20")
	assert.ErrorIs(t, err, boom)
}

func TestCalculatorCalendar(t *testing.T) {
	cfg := twoSlotConfig(2)
	cfg.BlockedDates = []clinic.Date{"2026-10-31"}
	calc := NewCalculator(stubConfig{cfg: cfg}, stubBookings{
		"2026-10-30": {"09:00", "10:00"},
		"2026-11-01": {"09:00"},
	})

	days, err := calc.Calendar(context.Background(), "2026-10-30", "2026-11-02")
	require.NoError(t, err)
	require.Len(t, days, 4)
	assert.Equal(t, StateFull, days[0].State)
	assert.Equal(t, StateBlocked, days[1].State)
	assert.Equal(t, clinic.Date("2026-11-01"), days[2].Date)
	assert.Equal(t, StateOpen, days[2].State)
	assert.Equal(t, 2, days[3].Remaining)

	_, err = calc.Calendar(context.Background(), "2026-11-02", "2026-10-30")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = calc.Calendar(context.Background(), "2026-01-01", "2026-06-01")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
