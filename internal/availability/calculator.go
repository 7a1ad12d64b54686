package availability

import (
	"context"
	"fmt"

	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/clinic"
)

// MaxCalendarDays bounds a Calendar query.
const MaxCalendarDays = 62

type ConfigSource interface {
	GetConfig(ctx context.Context) (*clinic.Config, error)
}

// BookingSource reports the slot keys of confirmed appointments.
type BookingSource interface {
	ConfirmedSlotKeys(ctx context.Context, date clinic.Date) ([]string, error)
	ConfirmedSlotKeysBetween(ctx context.Context, from, to clinic.Date) (map[clinic.Date][]string, error)
}

// Calculator reads the current configuration and bookings on every call and
// takes no locks; results may trail an in-flight reservation.
type Calculator struct {
	config   ConfigSource
	bookings BookingSource
}

func NewCalculator(config ConfigSource, bookings BookingSource) *Calculator {
	return &Calculator{config: config, bookings: bookings}
}

func (c *Calculator) ListAvailability(ctx context.Context, date clinic.Date) (Result, error) {
	cfg, err := c.config.GetConfig(ctx)
	if err != nil {
		return Result{}, err
	}
	keys, err := c.bookings.ConfirmedSlotKeys(ctx, date)
	if err != nil {
		return Result{}, fmt.Errorf("load confirmed slots: %w", err)
	}
	return Compute(*cfg, date, keys), nil
}

// Calendar returns one Result per day in the inclusive range [from, to].
func (c *Calculator) Calendar(ctx context.Context, from, to clinic.Date) ([]Result, error) {
	start, end := from.Time(), to.Time()
	if start.IsZero() || end.IsZero() {
		return nil, apperr.Validation("from and to must be formatted as YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, apperr.Validation("to must not be before from")
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > MaxCalendarDays {
		return nil, apperr.Validation("calendar range must not exceed %d days", MaxCalendarDays)
	}

	cfg, err := c.config.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	byDate, err := c.bookings.ConfirmedSlotKeysBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load confirmed slots: %w", err)
	}

	out := make([]Result, 0, days)
	for i := 0; i < days; i++ {
		d := from.AddDays(i)
		out = append(out, Compute(*cfg, d, byDate[d]))
	}
	return out, nil
}
