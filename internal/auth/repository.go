package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-booking/internal/db"
)

type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	// Upsert creates the admin or replaces the name and password of an
	// existing one with the same email.
	Upsert(ctx context.Context, a Admin) (*Admin, error)
}

type PgRepository struct {
	pool db.Pool
}

func NewPgRepository(pool db.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAdmin(row pgx.Row) (*Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM admins
		WHERE email = $1
	`, strings.ToLower(email))
	return scanAdmin(row)
}

func (r *PgRepository) Upsert(ctx context.Context, a Admin) (*Admin, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO admins (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
		    password_hash = EXCLUDED.password_hash
		RETURNING id, email, name, password_hash, created_at
	`, a.ID, strings.ToLower(a.Email), a.Name, a.PasswordHash)

	admin, err := scanAdmin(row)
	if err != nil {
		return nil, fmt.Errorf("upsert admin: %w", err)
	}
	return admin, nil
}

type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]Admin
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]Admin)}
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrAdminNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, a Admin) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.Email = strings.ToLower(a.Email)
	if existing, ok := r.byEmail[a.Email]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.byEmail[a.Email] = a
	return &a, nil
}
