package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/clinic"
)

// MemoryRepository keeps appointments in process. It enforces the same
// one-confirmed-per-slot rule as the Postgres index.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Appointment
	events []EventLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[uuid.UUID]*Appointment)}
}

func (r *MemoryRepository) ConfirmedSlotKeys(ctx context.Context, date clinic.Date) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := []string{}
	for _, a := range r.byID {
		if a.Date == date && a.Status == StatusConfirmed {
			keys = append(keys, a.SlotKey)
		}
	}
	return keys, nil
}

func (r *MemoryRepository) ConfirmedSlotKeysBetween(ctx context.Context, from, to clinic.Date) (map[clinic.Date][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[clinic.Date][]string)
	for _, a := range r.byID {
		if a.Status != StatusConfirmed || a.Date < from || a.Date > to {
			continue
		}
		out[a.Date] = append(out[a.Date], a.SlotKey)
	}
	return out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return cloneAppointment(a), nil
}

func (r *MemoryRepository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []Appointment{}
	for _, a := range r.byID {
		if f.Date != "" && a.Date != f.Date {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		result = append(result, *cloneAppointment(a))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].SlotKey < result[j].SlotKey
	})

	if f.Offset >= len(result) {
		return []Appointment{}, nil
	}
	result = result[f.Offset:]
	if f.Limit > 0 && f.Limit < len(result) {
		result = result[:f.Limit]
	}
	return result, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, a Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Status == StatusConfirmed && existing.Date == a.Date && existing.SlotKey == a.SlotKey {
			return nil, ErrSlotTaken
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.Status = StatusConfirmed
	a.CreatedAt = now
	a.UpdatedAt = now
	r.byID[a.ID] = cloneAppointment(&a)
	return cloneAppointment(&a), nil
}

func (r *MemoryRepository) Cancel(ctx context.Context, id uuid.UUID, actor string, at time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.Status != StatusConfirmed {
		return nil, ErrAppointmentNotFound
	}
	a.Status = StatusCancelled
	cancelledAt := at
	a.CancelledAt = &cancelledAt
	a.CancelledBy = actor
	a.UpdatedAt = at
	return cloneAppointment(a), nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	ev.Payload = append([]byte(nil), ev.Payload...)
	r.events = append(r.events, ev)
	return nil
}

// Events returns the recorded event log in insertion order.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventLog(nil), r.events...)
}

func cloneAppointment(a *Appointment) *Appointment {
	out := *a
	if a.CancelledAt != nil {
		at := *a.CancelledAt
		out.CancelledAt = &at
	}
	return &out
}
