package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"todo-platform/internal/paging"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const todoColumns = `id, user_id, title, completed, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (Todo, error) {
	var t Todo
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Todo{}, ErrNotFound
		}
		return Todo{}, err
	}
	return t, nil
}

func (r *PostgresRepo) Create(ctx context.Context, t Todo) (Todo, error) {
	const q = `
INSERT INTO todos (user_id, title, completed)
VALUES ($1, $2, $3)
RETURNING ` + todoColumns
	out, err := scanTodo(r.db.QueryRowContext(ctx, q, t.UserID, t.Title, t.Completed))
	if err != nil {
		return Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Get(ctx context.Context, userID, id int64) (Todo, error) {
	q := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	return scanTodo(r.db.QueryRowContext(ctx, q, id, userID))
}

func (r *PostgresRepo) Update(ctx context.Context, t Todo) (Todo, error) {
	q := `
UPDATE todos SET title = $3, completed = $4, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRowContext(ctx, q, t.ID, t.UserID, t.Title, t.Completed))
}

func (r *PostgresRepo) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, userID int64, q ListQuery) (paging.Page[Todo], error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if q.Completed != nil {
		args = append(args, *q.Completed)
		where = append(where, fmt.Sprintf("completed = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM todos WHERE `+cond, args...).Scan(&total); err != nil {
		return paging.Page[Todo]{}, fmt.Errorf("count todos: %w", err)
	}

	sort := q.Sort
	if sort.Column == "" {
		sort = DefaultSort
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	// Column comes from the sortColumns whitelist; id breaks ties for stable paging.
	listQ := fmt.Sprintf(`SELECT %s FROM todos WHERE %s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		todoColumns, cond, sort.Column, dir, dir, len(args)+1, len(args)+2)
	args = append(args, q.Page.Limit, q.Page.Offset())

	rows, err := r.db.QueryContext(ctx, listQ, args...)
	if err != nil {
		return paging.Page[Todo]{}, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var out []Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return paging.Page[Todo]{}, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return paging.Page[Todo]{}, err
	}
	return paging.NewPage(out, q.Page, total), nil
}
