package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SignUpAcknowledgment is returned on every successful registration. Sign-up
// deliberately does not create a session: confirmation precedes sign-in.
const SignUpAcknowledgment = "Check your email to confirm your account"

type SignUpMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(resp *SignUpResponse)
}

func (m SignUpMessage) Type() string { return "account.sign_up" }

type SignUpResponse struct {
	Identity       *Identity
	Acknowledgment string
}

type SignUpHandler struct {
	client IdentityClient
	logger Logger
}

func NewSignUpHandler(client IdentityClient) *SignUpHandler {
	return &SignUpHandler{
		client: client,
		logger: defLogger{},
	}
}

func (h *SignUpHandler) WithLogger(logger Logger) *SignUpHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignUpHandler) Execute(ctx context.Context, event SignUpMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign up",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignUpHandler) execute(ctx context.Context, event SignUpMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Email == "" || event.Password == "" {
		return NewValidationError("email and password are required")
	}

	identity, err := h.client.SignUp(ctx, event.Email, event.Password)
	if err != nil {
		h.logger.Debug("sign up rejected for %s: %v", event.Email, err)
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&SignUpResponse{
			Identity:       identity,
			Acknowledgment: SignUpAcknowledgment,
		})
	}

	return nil
}
