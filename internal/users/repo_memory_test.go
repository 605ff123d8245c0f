package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	"todo-platform/internal/paging"
)

func TestMemoryRepo_CreateRejectsDuplicateEmail(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	if _, err := r.Create(ctx, User{Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.Create(ctx, User{Email: "a@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestMemoryRepo_RotateIsSerialized(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	u, _ := r.Create(ctx, User{Email: "a@example.com"})
	_ = r.SetRefreshToken(ctx, u.ID, "v0")

	// Each rotation only succeeds if it observes the value it expects; with
	// serialized rotations exactly one of N racers sees "v0".
	var mu sync.Mutex
	wins := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.RotateRefreshToken(ctx, u.ID, func(cur User) (string, error) {
				if cur.RefreshTokenEncrypted == "v0" {
					mu.Lock()
					wins++
					mu.Unlock()
					return "v1", nil
				}
				return cur.RefreshTokenEncrypted, nil
			})
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestMemoryRepo_List(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	for _, e := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		if _, err := r.Create(ctx, User{Email: e}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	p, err := r.List(ctx, paging.Request{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(p.Content) != 1 || p.Content[0].Email != "c@x.io" || p.TotalElements != 3 {
		t.Fatalf("unexpected page: %+v", p)
	}
}
