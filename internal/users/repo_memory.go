package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"todo-platform/internal/paging"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
// It is not intended for production use.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]User
	clock  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[int64]User), clock: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}
	r.nextID++
	now := r.clock().UTC()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	u.RefreshTokenEncrypted = ""
	r.byID[u.ID] = u
	return u, nil
}

func (r *MemoryRepo) FindByID(ctx context.Context, id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) SetRefreshToken(ctx context.Context, id int64, encrypted string) error {
	return r.update(id, func(u *User) { u.RefreshTokenEncrypted = encrypted })
}

func (r *MemoryRepo) RotateRefreshToken(ctx context.Context, id int64, fn RotateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	next, err := fn(u)
	if err != nil {
		return err
	}
	u.RefreshTokenEncrypted = next
	u.UpdatedAt = r.clock().UTC()
	r.byID[id] = u
	return nil
}

func (r *MemoryRepo) SetProfileImage(ctx context.Context, id int64, url string) error {
	return r.update(id, func(u *User) { u.ProfileImageURL = url })
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, req paging.Request) (paging.Page[User], error) {
	r.mu.Lock()
	all := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, u)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	start := min(req.Offset(), len(all))
	end := min(start+req.Limit, len(all))
	return paging.NewPage(all[start:end], req, total), nil
}

func (r *MemoryRepo) update(id int64, mutate func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	mutate(&u)
	u.UpdatedAt = r.clock().UTC()
	r.byID[id] = u
	return nil
}
