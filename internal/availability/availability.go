// Package availability derives open slots and the capacity state of a date
// from the clinic configuration and the confirmed appointments on that date.
package availability

import (
	"github.com/hackgods/clinic-booking/internal/clinic"
)

type CapacityState string

const (
	StateBlocked      CapacityState = "blocked"
	StateFull         CapacityState = "full"
	StateNearCapacity CapacityState = "near-capacity"
	StateOpen         CapacityState = "open"
)

// Result is the availability of a single date.
type Result struct {
	Date      clinic.Date       `json:"date"`
	Slots     []clinic.TimeSlot `json:"slots"`
	State     CapacityState     `json:"capacity_state"`
	Booked    int               `json:"booked"`
	Limit     int               `json:"daily_limit"`
	Remaining int               `json:"remaining"`
}

// Compute is a pure function of its inputs. confirmedSlotKeys holds one entry
// per confirmed appointment on date.
func Compute(cfg clinic.Config, date clinic.Date, confirmedSlotKeys []string) Result {
	res := Result{
		Date:   date,
		Slots:  []clinic.TimeSlot{},
		Booked: len(confirmedSlotKeys),
		Limit:  cfg.DailyLimit,
	}

	if cfg.IsBlocked(date) {
		res.State = StateBlocked
		return res
	}

	if res.Booked >= cfg.DailyLimit {
		res.State = StateFull
		return res
	}
	res.Remaining = cfg.DailyLimit - res.Booked

	booked := make(map[string]struct{}, len(confirmedSlotKeys))
	for _, key := range confirmedSlotKeys {
		booked[key] = struct{}{}
	}
	for _, slot := range cfg.TimeSlots {
		if _, taken := booked[slot.Key]; !taken {
			res.Slots = append(res.Slots, slot)
		}
	}

	res.State = StateOpen
	if nearCapacity(cfg.Thresholds, res.Booked, cfg.DailyLimit) {
		res.State = StateNearCapacity
	}
	return res
}

func nearCapacity(t clinic.Thresholds, booked, limit int) bool {
	if limit <= 0 {
		return true
	}
	if t.NearCapacityRatio > 0 && float64(booked)/float64(limit) >= t.NearCapacityRatio {
		return true
	}
	return t.NearCapacityRemaining > 0 && limit-booked <= t.NearCapacityRemaining
}

// HasSlot reports whether key is among the open slots.
func (r Result) HasSlot(key string) bool {
	for _, s := range r.Slots {
		if s.Key == key {
			return true
		}
	}
	return false
}

// SlotKeys returns the open slot keys in catalog order.
func (r Result) SlotKeys() []string {
	keys := make([]string, 0, len(r.Slots))
	for _, s := range r.Slots {
		keys = append(keys, s.Key)
	}
	return keys
}
