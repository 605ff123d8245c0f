package todos

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-platform/internal/paging"
)

var ErrNotFound = errors.New("todos: not found")

// Todo is owned by exactly one user; every query is scoped by UserID.
type Todo struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Sort is a whitelisted ordering. Column is safe to splice into SQL.
type Sort struct {
	Field  string
	Column string
	Desc   bool
}

var sortColumns = map[string]string{
	"id":        "id",
	"title":     "title",
	"completed": "completed",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

var DefaultSort = Sort{Field: "updatedAt", Column: "updated_at", Desc: true}

// ParseSort accepts "field" or "field,asc|desc". Empty input yields DefaultSort.
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort, nil
	}
	field, dir, _ := strings.Cut(s, ",")
	field = strings.TrimSpace(field)
	col, ok := sortColumns[field]
	if !ok {
		return Sort{}, fmt.Errorf("unsupported sort field %q", field)
	}
	out := Sort{Field: field, Column: col}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		out.Desc = true
	default:
		return Sort{}, fmt.Errorf("unsupported sort direction %q", dir)
	}
	return out, nil
}

type ListQuery struct {
	Page      paging.Request
	Completed *bool
	Sort      Sort
}

type CreateInput struct {
	Title string
}

// UpdateInput applies only non-nil fields.
type UpdateInput struct {
	Title     *string
	Completed *bool
}
