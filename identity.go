package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the canonical account record owned by the backend. The
// orchestrator never mutates it directly, only through backend operations.
type Identity struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	EmailConfirmed bool       `json:"email_confirmed"`
	LastSignInAt   *time.Time `json:"last_sign_in_at,omitempty"`
}

// Session is a live, revocable credential binding a client to one Identity.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Identity     *Identity  `json:"identity,omitempty"`
}

// Expired reports whether the session's access token is past its expiry.
// Sessions without a recorded expiry are treated as live; the backend
// remains the authority either way.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// UserID returns the owning identity id, or uuid.Nil for anonymous sessions.
func (s *Session) UserID() uuid.UUID {
	if s == nil || s.Identity == nil {
		return uuid.Nil
	}
	return s.Identity.ID
}
