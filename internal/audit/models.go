package audit

import "time"

// Event is an immutable, append-only security audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - Tokens, passwords and ciphertexts are never stored.
// - Audit writes are best-effort; they do not block authentication flows.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// UserID is zero when the actor is unknown (e.g. failed login for an unknown email).
	UserID int64  `json:"user_id,omitempty" db:"user_id"`
	Email  string `json:"email,omitempty" db:"email"`

	// IPAddress is the resolved client address for the request.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	Message   string    `json:"message,omitempty" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeRegister      EventType = "register"
	EventTypeLogin         EventType = "login"
	EventTypeLoginFailed   EventType = "login_failed"
	EventTypeLogout        EventType = "logout"
	EventTypeRefresh       EventType = "refresh"
	EventTypeRefreshReuse  EventType = "refresh_reuse"
	EventTypeAccountDelete EventType = "account_delete"
)
