package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxPrincipal ctxKey = iota
)

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

func PrincipalFrom(ctx context.Context) (Principal, error) {
	if p, ok := ctx.Value(ctxPrincipal).(Principal); ok && p.UserID > 0 {
		return p, nil
	}
	return Principal{}, errors.New("principal not in context")
}

func UserID(ctx context.Context) (int64, error) {
	p, err := PrincipalFrom(ctx)
	if err != nil {
		return 0, err
	}
	return p.UserID, nil
}

func Role(ctx context.Context) (string, error) {
	p, err := PrincipalFrom(ctx)
	if err != nil || p.Role == "" {
		return "", errors.New("role not in context")
	}
	return p.Role, nil
}
