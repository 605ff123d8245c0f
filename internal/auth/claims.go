package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Subject carries the user's email; UserID and Role are copied from the user row at issue time.
type Claims struct {
	jwt.RegisteredClaims

	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}

// Subject is the user identity a token is issued for.
type Subject struct {
	UserID int64
	Email  string
	Role   string
}

// Principal is the identity recovered from a validated token.
// It is immutable for the lifetime of one request.
type Principal struct {
	UserID int64
	Email  string
	Role   string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
