package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

// SessionAccessor resolves the acting identity for the current request. It
// is the only component that reads the session cookie; every handler takes
// the resolved identity as an explicit parameter.
type SessionAccessor struct {
	client IdentityClient
	cfg    Config
	logger Logger
}

// NewSessionAccessor returns a new SessionAccessor
func NewSessionAccessor(client IdentityClient, cfg Config) *SessionAccessor {
	return &SessionAccessor{
		client: client,
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (s *SessionAccessor) WithLogger(logger Logger) *SessionAccessor {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Token returns the raw session credential carried by the request, or "".
func (s *SessionAccessor) Token(ctx router.Context) string {
	return ctx.Cookies(s.cfg.GetSessionCookieName(), "")
}

// CurrentIdentity resolves the request's session cookie against the backend.
// A missing, expired, or rejected credential yields (nil, nil): anonymity is
// a state, not an error. Only an unreachable backend returns a non-nil error,
// so callers can tell "not signed in" from "cannot know".
func (s *SessionAccessor) CurrentIdentity(ctx router.Context) (*Identity, error) {
	token := s.Token(ctx)
	if token == "" {
		return nil, nil
	}

	// Cheap local fast-fail before the backend round trip. The claim is read
	// without signature verification; the backend stays authoritative.
	if tokenExpired(token, time.Now()) {
		return nil, nil
	}

	identity, err := s.client.GetUser(ctx.Context(), token)
	if err != nil {
		if IsBackendUnreachable(err) {
			return nil, err
		}
		s.logger.Debug("session token rejected by backend: %v", err)
		return nil, nil
	}

	return identity, nil
}

// tokenExpired peeks at the token's exp claim. Malformed tokens count as
// expired; tokens without an exp claim do not.
func tokenExpired(raw string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return now.After(exp.Time)
}
