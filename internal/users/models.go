package users

import "time"

// Role names. Keep these stable; they are embedded in issued tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the persisted account record.
// RefreshTokenEncrypted is empty when no session is active (never logged in, or logged out).
type User struct {
	ID                    int64     `json:"id" db:"id"`
	Name                  string    `json:"name" db:"name"`
	Email                 string    `json:"email" db:"email"`
	Role                  string    `json:"role" db:"role"`
	PasswordHash          string    `json:"-" db:"password_hash"`
	RefreshTokenEncrypted string    `json:"-" db:"refresh_token"`
	ProfileImageURL       string    `json:"profile_image_url" db:"profile_image_url"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}
