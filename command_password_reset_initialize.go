package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// PasswordResetAcknowledgment is returned whether or not the address is
// registered, so the flow never reveals account existence.
const PasswordResetAcknowledgment = "Check your email for the password reset link"

// DefaultPasswordResetContinuation is the site-local continuation the reset
// email links back to: the confirm endpoint, carrying a recovery token and
// forwarding to the reset form.
const DefaultPasswordResetContinuation = "/auth/confirm?next=/auth/reset-password"

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (m InitializePasswordResetMessage) Type() string { return "account.password_reset" }

type InitializePasswordResetResponse struct {
	Acknowledgment string
	Success        bool
}

// InitializePasswordResetHandler asks the backend to send a recovery email.
// A backend rejection, including "user not found", collapses into the same
// generic acknowledgment as a real send; surfacing it would let callers
// enumerate registered addresses. Only infrastructure failures propagate.
type InitializePasswordResetHandler struct {
	client       IdentityClient
	siteURL      string
	continuation string
	logger       Logger
}

func NewInitializePasswordResetHandler(client IdentityClient, cfg Config) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		client:       client,
		siteURL:      cfg.GetSiteURL(),
		continuation: DefaultPasswordResetContinuation,
		logger:       defLogger{},
	}
}

// WithContinuation overrides the site-local path the recovery email links to.
func (h *InitializePasswordResetHandler) WithContinuation(path string) *InitializePasswordResetHandler {
	if path != "" {
		h.continuation = path
	}
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Email == "" {
		return NewValidationError("email is required")
	}

	redirectTo := h.siteURL + h.continuation

	if err := h.client.ResetPasswordForEmail(ctx, event.Email, redirectTo); err != nil {
		if IsBackendUnreachable(err) {
			return err
		}
		// Unknown address and rejected request look identical from here on.
		h.logger.Info("password reset not sent", "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Acknowledgment: PasswordResetAcknowledgment,
			Success:        true,
		})
	}

	return nil
}
