package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SignInMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(resp *SignInResponse)
}

func (m SignInMessage) Type() string { return "account.sign_in" }

type SignInResponse struct {
	Session *Session
}

// SignInHandler delegates the credential check to the backend. It never
// mutates local state: no backend confirmation, no transition.
type SignInHandler struct {
	client IdentityClient
	logger Logger
}

func NewSignInHandler(client IdentityClient) *SignInHandler {
	return &SignInHandler{
		client: client,
		logger: defLogger{},
	}
}

func (h *SignInHandler) WithLogger(logger Logger) *SignInHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignInHandler) Execute(ctx context.Context, event SignInMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign in",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignInHandler) execute(ctx context.Context, event SignInMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Email == "" || event.Password == "" {
		return NewValidationError("email and password are required")
	}

	session, err := h.client.SignInWithPassword(ctx, event.Email, event.Password)
	if err != nil {
		h.logger.Debug("sign in rejected for %s: %v", event.Email, err)
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&SignInResponse{Session: session})
	}

	return nil
}
