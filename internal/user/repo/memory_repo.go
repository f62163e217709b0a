package repo

import (
	"context"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
)

// MemoryRepo is a map-backed store with the same contract as UserRepo.
// It backs STORE_DRIVER=memory and the HTTP-level tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	ids     IDSource
	byID    map[int64]*entity.User
	byEmail map[string]int64
	now     func() time.Time
}

func NewMemoryRepo(ids IDSource) *MemoryRepo {
	return &MemoryRepo{
		ids:     ids,
		byID:    make(map[int64]*entity.User),
		byEmail: make(map[string]int64),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	now := r.now()
	row := *u
	row.ID = r.ids.Next()
	row.CreatedAt = now
	row.UpdatedAt = now
	r.byID[row.ID] = &row
	r.byEmail[row.Email] = row.ID
	*u = row
	return nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return r.copyOf(id)
}

func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(id)
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, id int64, upd entity.ProfileUpdate) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	u.UpdatedAt = r.now()
	return r.copyOf(id)
}

func (r *MemoryRepo) UpdatePassword(ctx context.Context, id int64, hash, algo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.PasswordAlgo = algo
	u.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepo) Ping(ctx context.Context) error { return nil }

// Count returns the number of stored users.
func (r *MemoryRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// copyOf must be called with mu held.
func (r *MemoryRepo) copyOf(id int64) (*entity.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}
