package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-booking/internal/db"
)

type PgRepository struct {
	pool db.Pool
}

func NewPgRepository(pool db.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Get(ctx context.Context) (*Config, error) {
	var cfg Config
	err := r.pool.QueryRow(ctx, `
		SELECT daily_limit, near_capacity_ratio, near_capacity_remaining, updated_at
		FROM clinic_settings
		WHERE id = 1
	`).Scan(&cfg.DailyLimit, &cfg.Thresholds.NearCapacityRatio, &cfg.Thresholds.NearCapacityRemaining, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			def := DefaultConfig()
			return &def, nil
		}
		return nil, fmt.Errorf("load clinic settings: %w", err)
	}

	cfg.BlockedDates, err = r.blockedDates(ctx)
	if err != nil {
		return nil, err
	}
	cfg.TimeSlots, err = r.timeSlots(ctx)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *PgRepository) blockedDates(ctx context.Context) ([]Date, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD')
		FROM blocked_dates
		ORDER BY day
	`)
	if err != nil {
		return nil, fmt.Errorf("load blocked dates: %w", err)
	}
	defer rows.Close()

	dates := []Date{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, Date(d))
	}
	return dates, rows.Err()
}

func (r *PgRepository) timeSlots(ctx context.Context) ([]TimeSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot_key, label
		FROM time_slots
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("load time slots: %w", err)
	}
	defer rows.Close()

	var slots []TimeSlot
	for rows.Next() {
		var s TimeSlot
		if err := rows.Scan(&s.Key, &s.Label); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *PgRepository) SetDailyLimit(ctx context.Context, n int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clinic_settings (id, daily_limit, near_capacity_ratio, near_capacity_remaining, updated_at)
		VALUES (1, $1, $2, 0, now())
		ON CONFLICT (id) DO UPDATE
		SET daily_limit = EXCLUDED.daily_limit,
		    updated_at = now()
	`, n, DefaultNearCapacityRatio)
	if err != nil {
		return fmt.Errorf("set daily limit: %w", err)
	}
	return nil
}

func (r *PgRepository) AddBlockedDate(ctx context.Context, d Date) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_dates (day, created_at)
		VALUES ($1::date, now())
		ON CONFLICT (day) DO NOTHING
	`, string(d))
	if err != nil {
		return fmt.Errorf("block date: %w", err)
	}
	return nil
}

func (r *PgRepository) RemoveBlockedDate(ctx context.Context, d Date) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_dates
		WHERE day = $1::date
	`, string(d))
	if err != nil {
		return fmt.Errorf("unblock date: %w", err)
	}
	return nil
}

func (r *PgRepository) ReplaceTimeSlots(ctx context.Context, slots []TimeSlot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertTimeSlots(ctx, tx, slots, true); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgRepository) SetThresholds(ctx context.Context, t Thresholds) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clinic_settings (id, daily_limit, near_capacity_ratio, near_capacity_remaining, updated_at)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET near_capacity_ratio = EXCLUDED.near_capacity_ratio,
		    near_capacity_remaining = EXCLUDED.near_capacity_remaining,
		    updated_at = now()
	`, DefaultDailyLimit, t.NearCapacityRatio, t.NearCapacityRemaining)
	if err != nil {
		return fmt.Errorf("set thresholds: %w", err)
	}
	return nil
}

func (r *PgRepository) EnsureDefaults(ctx context.Context, cfg Config) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO clinic_settings (id, daily_limit, near_capacity_ratio, near_capacity_remaining, updated_at)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id) DO NOTHING
	`, cfg.DailyLimit, cfg.Thresholds.NearCapacityRatio, cfg.Thresholds.NearCapacityRemaining)
	if err != nil {
		return fmt.Errorf("insert default settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	if err := insertTimeSlots(ctx, tx, cfg.TimeSlots, false); err != nil {
		return err
	}
	for _, d := range cfg.BlockedDates {
		if _, err := tx.Exec(ctx, `
			INSERT INTO blocked_dates (day, created_at)
			VALUES ($1::date, now())
			ON CONFLICT (day) DO NOTHING
		`, string(d)); err != nil {
			return fmt.Errorf("insert default blocked date: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func insertTimeSlots(ctx context.Context, tx pgx.Tx, slots []TimeSlot, replace bool) error {
	if replace {
		if _, err := tx.Exec(ctx, `DELETE FROM time_slots`); err != nil {
			return fmt.Errorf("clear time slots: %w", err)
		}
	}
	for i, s := range slots {
		_, err := tx.Exec(ctx, `
			INSERT INTO time_slots (slot_key, label, position)
			VALUES ($1, $2, $3)
		`, s.Key, s.Label, i)
		if err != nil {
			return fmt.Errorf("insert time slot %s: %w", s.Key, err)
		}
	}
	return nil
}
