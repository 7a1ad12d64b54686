// Package clinic holds the admin-configurable calendar: daily capacity,
// blocked dates, the bookable time-slot catalog and the capacity warning
// thresholds.
package clinic

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"
)

const (
	MinDailyLimit = 1
	MaxDailyLimit = 20

	DefaultDailyLimit        = 10
	DefaultNearCapacityRatio = 0.8
)

var slotKeyPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// TimeSlot is a named time-of-day booking unit, e.g. {"14:00", "2:00 PM"}.
type TimeSlot struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Thresholds decide when an open day is reported as near capacity. A day is
// near capacity when booked/limit >= NearCapacityRatio, or when
// NearCapacityRemaining > 0 and at most that many bookings remain.
type Thresholds struct {
	NearCapacityRatio     float64 `json:"near_capacity_ratio"`
	NearCapacityRemaining int     `json:"near_capacity_remaining"`
}

// Config is the singleton clinic calendar configuration.
type Config struct {
	DailyLimit   int        `json:"daily_limit"`
	BlockedDates []Date     `json:"blocked_dates"`
	TimeSlots    []TimeSlot `json:"time_slots"`
	Thresholds   Thresholds `json:"thresholds"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DefaultConfig returns the configuration a fresh clinic starts with.
func DefaultConfig() Config {
	keys := []string{"09:00", "10:00", "11:00", "12:00", "14:00", "15:00", "16:00", "17:00"}
	slots := make([]TimeSlot, 0, len(keys))
	for _, k := range keys {
		slots = append(slots, TimeSlot{Key: k, Label: SlotLabel(k)})
	}
	return Config{
		DailyLimit:   DefaultDailyLimit,
		BlockedDates: []Date{},
		TimeSlots:    slots,
		Thresholds: Thresholds{
			NearCapacityRatio: DefaultNearCapacityRatio,
		},
	}
}

func (c Config) IsBlocked(d Date) bool {
	return slices.Contains(c.BlockedDates, d)
}

// Slot looks a slot up in the catalog by key.
func (c Config) Slot(key string) (TimeSlot, bool) {
	for _, s := range c.TimeSlots {
		if s.Key == key {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// Clone returns a deep copy so callers may not mutate shared slices.
func (c Config) Clone() Config {
	out := c
	out.BlockedDates = slices.Clone(c.BlockedDates)
	if out.BlockedDates == nil {
		out.BlockedDates = []Date{}
	}
	out.TimeSlots = slices.Clone(c.TimeSlots)
	return out
}

// ValidSlotKey reports whether key is a 24-hour HH:MM time.
func ValidSlotKey(key string) bool {
	return slotKeyPattern.MatchString(key)
}

// SlotLabel renders a HH:MM key in 12-hour form ("14:00" -> "2:00 PM").
// Malformed keys are returned unchanged.
func SlotLabel(key string) string {
	if !ValidSlotKey(key) {
		return key
	}
	hour, _ := strconv.Atoi(key[:2])
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%s %s", display, key[3:], suffix)
}
