package clinic

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/apperr"
)

// Store is the administrative surface over the clinic configuration. Every
// read goes to the repository, so writes are visible to the next query.
type Store struct {
	repo   Repository
	logger zerolog.Logger
}

func NewStore(repo Repository, logger zerolog.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: logger.With().Str("component", "clinic_store").Logger(),
	}
}

func (s *Store) GetConfig(ctx context.Context) (*Config, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get clinic config: %w", err)
	}
	return cfg, nil
}

// SetDailyLimit changes the per-day capacity; n must be within [1, 20].
func (s *Store) SetDailyLimit(ctx context.Context, n int) (*Config, error) {
	if n < MinDailyLimit || n > MaxDailyLimit {
		return nil, apperr.Validation("daily limit must be between %d and %d", MinDailyLimit, MaxDailyLimit)
	}
	if err := s.repo.SetDailyLimit(ctx, n); err != nil {
		return nil, err
	}
	s.logger.Info().Int("daily_limit", n).Msg("daily limit updated")
	return s.GetConfig(ctx)
}

func (s *Store) BlockDate(ctx context.Context, d Date) (*Config, error) {
	if _, err := ParseDate(string(d)); err != nil {
		return nil, err
	}
	if err := s.repo.AddBlockedDate(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info().Str("date", d.String()).Msg("date blocked")
	return s.GetConfig(ctx)
}

func (s *Store) UnblockDate(ctx context.Context, d Date) (*Config, error) {
	if _, err := ParseDate(string(d)); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveBlockedDate(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info().Str("date", d.String()).Msg("date unblocked")
	return s.GetConfig(ctx)
}

// SetTimeSlots replaces the slot catalog. Order is preserved; empty labels
// are filled in from the key.
func (s *Store) SetTimeSlots(ctx context.Context, slots []TimeSlot) (*Config, error) {
	if len(slots) == 0 {
		return nil, apperr.Validation("at least one time slot is required")
	}
	seen := make(map[string]struct{}, len(slots))
	clean := make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		key := strings.TrimSpace(slot.Key)
		if !ValidSlotKey(key) {
			return nil, apperr.Validation("time slot key %q must be HH:MM", slot.Key)
		}
		if _, dup := seen[key]; dup {
			return nil, apperr.Validation("duplicate time slot %q", key)
		}
		seen[key] = struct{}{}

		label := strings.TrimSpace(slot.Label)
		if label == "" {
			label = SlotLabel(key)
		}
		clean = append(clean, TimeSlot{Key: key, Label: label})
	}

	if err := s.repo.ReplaceTimeSlots(ctx, clean); err != nil {
		return nil, err
	}
	s.logger.Info().Int("slots", len(clean)).Msg("time slots replaced")
	return s.GetConfig(ctx)
}

func (s *Store) SetThresholds(ctx context.Context, t Thresholds) (*Config, error) {
	if t.NearCapacityRatio <= 0 || t.NearCapacityRatio > 1 {
		return nil, apperr.Validation("near capacity ratio must be in (0, 1]")
	}
	if t.NearCapacityRemaining < 0 {
		return nil, apperr.Validation("near capacity remaining must not be negative")
	}
	if err := s.repo.SetThresholds(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().
		Float64("near_capacity_ratio", t.NearCapacityRatio).
		Int("near_capacity_remaining", t.NearCapacityRemaining).
		Msg("capacity thresholds updated")
	return s.GetConfig(ctx)
}
