package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type DeleteAccountMessage struct {
	// Identity is the acting identity derived by the session accessor. A nil
	// identity fails before anything destructive happens.
	Identity   *Identity
	OnResponse func(resp *DeleteAccountResponse)
}

func (m DeleteAccountMessage) Type() string { return "account.delete" }

type DeleteAccountResponse struct {
	Deleted bool
}

// DeleteAccountHandler removes the identity through the elevated admin
// client and cascades to the profile row. Ordering is deliberate: the
// identity goes first, so a backend failure leaves session, identity and
// profile all untouched, and a success never leaves a profile row pointing
// at a dead identity.
type DeleteAccountHandler struct {
	admin  AdminClient
	repo   RepositoryManager
	logger Logger
}

func NewDeleteAccountHandler(admin AdminClient, repo RepositoryManager) *DeleteAccountHandler {
	return &DeleteAccountHandler{
		admin:  admin,
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *DeleteAccountHandler) WithLogger(logger Logger) *DeleteAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *DeleteAccountHandler) Execute(ctx context.Context, event DeleteAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteAccountHandler) execute(ctx context.Context, event DeleteAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Identity == nil {
		return ErrNotAuthenticated
	}

	if err := h.admin.DeleteUser(ctx, event.Identity.ID); err != nil {
		h.logger.Error("identity deletion rejected", "id", event.Identity.ID, "error", err)
		return err
	}

	// The identity is gone; the profile row must not outlive it. A cleanup
	// failure here cannot roll the deletion back, so it is logged rather
	// than surfaced and the caller still invalidates the session.
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Profiles().DeleteByOwnerTx(ctx, tx, event.Identity.ID)
	})
	if err != nil {
		h.logger.Error("profile cleanup after identity deletion failed",
			"id", event.Identity.ID,
			"error", err,
		)
	}

	if event.OnResponse != nil {
		event.OnResponse(&DeleteAccountResponse{Deleted: true})
	}

	return nil
}
