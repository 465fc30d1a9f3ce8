package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	// AccessToken is the recovery session established by token confirmation.
	AccessToken string `json:"-"`
	Password    string `json:"password"`
	OnResponse  func(resp *FinalizePasswordResetResponse)
}

func (m FinalizePasswordResetMessage) Type() string { return "account.password_reset_finalize" }

type FinalizePasswordResetResponse struct {
	Identity *Identity
}

// FinalizePasswordResetHandler updates the credential through the backend.
// It requires the caller to already act inside a live recovery session; the
// session itself stays valid afterwards, completing the transition back to
// an active account.
type FinalizePasswordResetHandler struct {
	client IdentityClient
	logger Logger
}

func NewFinalizePasswordResetHandler(client IdentityClient) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		client: client,
		logger: defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.AccessToken == "" {
		return ErrNotAuthenticated
	}

	if event.Password == "" {
		return NewValidationError("password is required")
	}

	password := event.Password
	identity, err := h.client.UpdateUser(ctx, event.AccessToken, UserUpdate{
		Password: &password,
	})
	if err != nil {
		h.logger.Debug("password update rejected: %v", err)
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{Identity: identity})
	}

	return nil
}
