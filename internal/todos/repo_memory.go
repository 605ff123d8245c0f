package todos

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"todo-platform/internal/paging"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Todo
	clock  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[int64]Todo), clock: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, t Todo) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := r.clock().UTC()
	t.ID = r.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	r.items[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id int64) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok || t.UserID != userID {
		return Todo{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) Update(ctx context.Context, t Todo) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[t.ID]
	if !ok || cur.UserID != t.UserID {
		return Todo{}, ErrNotFound
	}
	cur.Title = t.Title
	cur.Completed = t.Completed
	cur.UpdatedAt = r.clock().UTC()
	r.items[t.ID] = cur
	return cur, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, userID int64, q ListQuery) (paging.Page[Todo], error) {
	r.mu.Lock()
	var out []Todo
	for _, t := range r.items {
		if t.UserID != userID {
			continue
		}
		if q.Completed != nil && t.Completed != *q.Completed {
			continue
		}
		out = append(out, t)
	}
	r.mu.Unlock()

	s := q.Sort
	if s.Column == "" {
		s = DefaultSort
	}
	sort.Slice(out, func(i, j int) bool {
		c := compare(out[i], out[j], s.Column)
		if c == 0 {
			c = cmpInt(out[i].ID, out[j].ID)
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(out))
	start := min(q.Page.Offset(), len(out))
	end := min(start+q.Page.Limit, len(out))
	return paging.NewPage(out[start:end], q.Page, total), nil
}

func compare(a, b Todo, column string) int {
	switch column {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "completed":
		return cmpBool(a.Completed, b.Completed)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return cmpInt(a.ID, b.ID)
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
