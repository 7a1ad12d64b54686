package clinic

import "context"

// Repository persists the clinic configuration singleton.
type Repository interface {
	// Get returns the stored configuration, or DefaultConfig if none was saved.
	Get(ctx context.Context) (*Config, error)

	SetDailyLimit(ctx context.Context, n int) error
	AddBlockedDate(ctx context.Context, d Date) error
	RemoveBlockedDate(ctx context.Context, d Date) error
	ReplaceTimeSlots(ctx context.Context, slots []TimeSlot) error
	SetThresholds(ctx context.Context, t Thresholds) error

	// EnsureDefaults stores cfg only if no configuration exists yet.
	EnsureDefaults(ctx context.Context, cfg Config) error
}
