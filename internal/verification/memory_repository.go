package verification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository for the memory store driver
// and tests.
type MemoryRepository struct {
	mu      sync.Mutex
	byPhone map[string]*Patient
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byPhone: make(map[string]*Patient)}
}

func (r *MemoryRepository) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byPhone[phone]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return clonePatient(p), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byPhone {
		if p.ID == id {
			return clonePatient(p), nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *MemoryRepository) UpsertChallenge(ctx context.Context, phone, email, code string, issuedAt time.Time) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byPhone[phone]
	if !ok {
		p = &Patient{ID: uuid.New(), Phone: phone, CreatedAt: issuedAt}
		r.byPhone[phone] = p
	}
	p.Email = email
	p.Verified = false
	p.PendingCode = &code
	at := issuedAt
	p.CodeIssuedAt = &at
	p.UpdatedAt = issuedAt
	return clonePatient(p), nil
}

func (r *MemoryRepository) Redeem(ctx context.Context, phone, code string, notBefore time.Time) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byPhone[phone]
	if !ok {
		return nil, ErrPatientNotFound
	}
	if p.PendingCode == nil || *p.PendingCode != code {
		return nil, ErrCodeMismatch
	}
	if p.CodeIssuedAt == nil || p.CodeIssuedAt.Before(notBefore) {
		return nil, ErrCodeMismatch
	}
	p.Verified = true
	p.PendingCode = nil
	p.UpdatedAt = time.Now()
	return clonePatient(p), nil
}

func (r *MemoryRepository) ClearCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, p := range r.byPhone {
		if p.PendingCode != nil && p.CodeIssuedAt != nil && p.CodeIssuedAt.Before(cutoff) {
			p.PendingCode = nil
			n++
		}
	}
	return n, nil
}

// Put stores p as-is. Used by seeding and tests.
func (r *MemoryRepository) Put(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.byPhone[p.Phone] = clonePatient(&p)
}

func clonePatient(p *Patient) *Patient {
	out := *p
	if p.PendingCode != nil {
		code := *p.PendingCode
		out.PendingCode = &code
	}
	if p.CodeIssuedAt != nil {
		at := *p.CodeIssuedAt
		out.CodeIssuedAt = &at
	}
	return &out
}
