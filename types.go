package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// OTPType identifies the kind of one-time token being exchanged.
type OTPType string

const (
	OTPTypeSignup      OTPType = "signup"
	OTPTypeEmail       OTPType = "email"
	OTPTypeRecovery    OTPType = "recovery"
	OTPTypeInvite      OTPType = "invite"
	OTPTypeMagicLink   OTPType = "magiclink"
	OTPTypeEmailChange OTPType = "email_change"
)

// IsSignup reports whether the token proves a first-time email confirmation.
func (t OTPType) IsSignup() bool {
	return t == OTPTypeSignup || t == OTPTypeEmail
}

// UserUpdate carries the mutable identity attributes the backend accepts
// on its update-user operation. Nil fields are left untouched.
type UserUpdate struct {
	Email    *string        `json:"email,omitempty"`
	Password *string        `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// IdentityClient is the user-scoped surface of the managed identity backend.
// Every credential it holds is either anonymous or bound to one end-user
// session token; it can never delete identities.
type IdentityClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, accessToken string, update UserUpdate) (*Identity, error)
	VerifyOTP(ctx context.Context, otpType OTPType, tokenHash string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*Identity, error)
	SignOut(ctx context.Context, accessToken string) error
}

// AdminClient is the elevated surface of the backend. It is constructed from
// the service credential and must never be reachable from a request-scoped
// code path other than account deletion.
type AdminClient interface {
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// BlobStorage stores binary objects in backend-managed buckets.
type BlobStorage interface {
	Upload(ctx context.Context, bucket, path string, blob []byte, contentType string, upsert bool) error
	PublicURL(bucket, path string) string
}

// Config holds accounts options
type Config interface {
	GetSessionCookieName() string
	GetSessionCookieDuration() int
	GetSiteURL() string
	GetAvatarBucket() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Println("[ERR] ACCOUNTS " + formatLogLine(format, args...))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Println("[WRN] ACCOUNTS " + formatLogLine(format, args...))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Println("[INF] ACCOUNTS " + formatLogLine(format, args...))
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Println("[DBG] ACCOUNTS " + formatLogLine(format, args...))
}

// formatLogLine accepts both printf-style calls and slog-style trailing
// key-value pairs: a message with no verbs gets its arguments rendered as
// key=value instead of fed to Sprintf.
func formatLogLine(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}

	if strings.Contains(format, "%") {
		return fmt.Sprintf(format, args...)
	}

	var b strings.Builder
	b.WriteString(format)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 == 1 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}
	return b.String()
}
