package clinic

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepository keeps the configuration in process memory. It backs the
// memory store driver and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	cfg   Config
	saved bool
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{cfg: DefaultConfig(), now: time.Now}
}

func (r *MemoryRepository) Get(ctx context.Context) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg := r.cfg.Clone()
	return &cfg, nil
}

func (r *MemoryRepository) SetDailyLimit(ctx context.Context, n int) error {
	r.update(func(c *Config) { c.DailyLimit = n })
	return nil
}

func (r *MemoryRepository) AddBlockedDate(ctx context.Context, d Date) error {
	r.update(func(c *Config) {
		if !slices.Contains(c.BlockedDates, d) {
			c.BlockedDates = append(c.BlockedDates, d)
			slices.Sort(c.BlockedDates)
		}
	})
	return nil
}

func (r *MemoryRepository) RemoveBlockedDate(ctx context.Context, d Date) error {
	r.update(func(c *Config) {
		c.BlockedDates = slices.DeleteFunc(c.BlockedDates, func(x Date) bool { return x == d })
	})
	return nil
}

func (r *MemoryRepository) ReplaceTimeSlots(ctx context.Context, slots []TimeSlot) error {
	r.update(func(c *Config) { c.TimeSlots = slices.Clone(slots) })
	return nil
}

func (r *MemoryRepository) SetThresholds(ctx context.Context, t Thresholds) error {
	r.update(func(c *Config) { c.Thresholds = t })
	return nil
}

func (r *MemoryRepository) EnsureDefaults(ctx context.Context, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved {
		return nil
	}
	r.cfg = cfg.Clone()
	r.cfg.UpdatedAt = r.now()
	r.saved = true
	return nil
}

func (r *MemoryRepository) update(fn func(c *Config)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.cfg)
	r.cfg.UpdatedAt = r.now()
	r.saved = true
}
