package users

import (
	"context"
	"errors"

	"todo-platform/internal/paging"
)

var (
	ErrNotFound   = errors.New("users: not found")
	ErrEmailTaken = errors.New("users: email already registered")
)

// RotateFunc receives the locked user row and returns the encrypted refresh
// token to store in its place ("" clears it). Returning an error aborts the
// rotation and leaves the row unchanged.
type RotateFunc func(current User) (next string, err error)

// Repository is the persistence contract for users.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	// SetRefreshToken overwrites the stored refresh token; "" clears it.
	SetRefreshToken(ctx context.Context, id int64, encrypted string) error
	// RotateRefreshToken runs read-compare-write on the stored refresh token
	// atomically with respect to other rotations of the same user.
	RotateRefreshToken(ctx context.Context, id int64, fn RotateFunc) error
	SetProfileImage(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req paging.Request) (paging.Page[User], error)
}
