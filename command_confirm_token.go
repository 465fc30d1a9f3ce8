package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ConfirmRouteTargets are the destinations the token-confirmation flow can
// resolve to.
type ConfirmRouteTargets struct {
	// CompleteProfile receives first-time email confirmations.
	CompleteProfile string
	// Default receives every other successful verification without an
	// explicit continuation.
	Default string
	// Failure receives every failed verification, whatever the cause.
	Failure string
}

func DefaultConfirmRouteTargets() ConfirmRouteTargets {
	return ConfirmRouteTargets{
		CompleteProfile: "/auth/complete-profile",
		Default:         "/dashboard",
		Failure:         "/auth/auth-code-error",
	}
}

type ConfirmTokenMessage struct {
	TokenType  OTPType `json:"type"`
	TokenHash  string  `json:"token_hash"`
	Next       string  `json:"next"`
	OnResponse func(resp *ConfirmTokenResponse)
}

func (m ConfirmTokenMessage) Type() string { return "account.confirm_token" }

type ConfirmTokenResponse struct {
	// Session is non-nil only on success: successful confirmation signs the
	// user in.
	Session    *Session
	RedirectTo string
	Verified   bool
}

// ConfirmTokenHandler exchanges a one-time token for a session. Every
// failure (expired, malformed, already used, missing parameters) resolves
// to the same generic failure destination, so the response never
// discriminates between token failure modes.
type ConfirmTokenHandler struct {
	client IdentityClient
	routes ConfirmRouteTargets
	logger Logger
}

func NewConfirmTokenHandler(client IdentityClient) *ConfirmTokenHandler {
	return &ConfirmTokenHandler{
		client: client,
		routes: DefaultConfirmRouteTargets(),
		logger: defLogger{},
	}
}

func (h *ConfirmTokenHandler) WithRouteTargets(routes ConfirmRouteTargets) *ConfirmTokenHandler {
	if routes.CompleteProfile != "" {
		h.routes.CompleteProfile = routes.CompleteProfile
	}
	if routes.Default != "" {
		h.routes.Default = routes.Default
	}
	if routes.Failure != "" {
		h.routes.Failure = routes.Failure
	}
	return h
}

func (h *ConfirmTokenHandler) WithLogger(logger Logger) *ConfirmTokenHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmTokenHandler) Execute(ctx context.Context, event ConfirmTokenMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during token confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmTokenHandler) execute(ctx context.Context, event ConfirmTokenMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	fail := &ConfirmTokenResponse{RedirectTo: h.routes.Failure}

	if event.TokenHash == "" || event.TokenType == "" {
		h.logger.Debug("token confirmation missing parameters")
		h.respond(event, fail)
		return nil
	}

	session, err := h.client.VerifyOTP(ctx, event.TokenType, event.TokenHash)
	if err != nil {
		h.logger.Info("token confirmation failed", "type", event.TokenType, "error", err)
		h.respond(event, fail)
		return nil
	}

	h.respond(event, &ConfirmTokenResponse{
		Session:    session,
		Verified:   true,
		RedirectTo: h.redirectFor(event),
	})

	return nil
}

func (h *ConfirmTokenHandler) redirectFor(event ConfirmTokenMessage) string {
	if event.TokenType.IsSignup() {
		return h.routes.CompleteProfile
	}

	if next := sanitizeLocalPath(event.Next); next != "" {
		return next
	}

	return h.routes.Default
}

func (h *ConfirmTokenHandler) respond(event ConfirmTokenMessage, resp *ConfirmTokenResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}

// sanitizeLocalPath accepts only site-local continuation targets; anything
// that could leave the origin ("//evil", "https://...") is discarded.
func sanitizeLocalPath(next string) string {
	next = strings.TrimSpace(next)
	if next == "" {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	if strings.ContainsAny(next, "\\\r\n") {
		return ""
	}
	return next
}
