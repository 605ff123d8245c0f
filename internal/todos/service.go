package todos

import (
	"context"
	"strings"

	"todo-platform/internal/paging"
)

// Service applies ownership and partial-update rules over a Repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (Todo, error) {
	return s.repo.Create(ctx, Todo{UserID: userID, Title: strings.TrimSpace(in.Title)})
}

func (s *Service) Get(ctx context.Context, userID, id int64) (Todo, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (Todo, error) {
	t, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Todo{}, err
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	return s.repo.Update(ctx, t)
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID int64, q ListQuery) (paging.Page[Todo], error) {
	return s.repo.List(ctx, userID, q)
}
