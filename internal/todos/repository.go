package todos

import (
	"context"

	"todo-platform/internal/paging"
)

type Repository interface {
	Create(ctx context.Context, t Todo) (Todo, error)
	Get(ctx context.Context, userID, id int64) (Todo, error)
	Update(ctx context.Context, t Todo) (Todo, error)
	Delete(ctx context.Context, userID, id int64) error
	List(ctx context.Context, userID int64, q ListQuery) (paging.Page[Todo], error)
}
