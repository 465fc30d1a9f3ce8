package accounts

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// AvatarUpload is the raw file submitted with a profile update.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Empty reports whether there is anything to store.
func (a *AvatarUpload) Empty() bool {
	return a == nil || len(a.Content) == 0
}

type UpdateProfileMessage struct {
	// Identity is the acting identity; the profile row is keyed by its id,
	// so ownership holds by construction.
	Identity   *Identity
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	Website    string `json:"website"`
	Avatar     *AvatarUpload
	OnResponse func(resp *UpdateProfileResponse)
}

func (m UpdateProfileMessage) Type() string { return "account.update_profile" }

type UpdateProfileResponse struct {
	Profile *Profile
}

// UpdateProfileHandler upserts the acting identity's profile. Empty text
// fields are stored as NULL, never as empty strings. A supplied avatar is
// written to a deterministic per-identity path and its public URL joins the
// upsert; without one the stored avatar_url is left untouched.
type UpdateProfileHandler struct {
	repo    RepositoryManager
	storage BlobStorage
	bucket  string
	logger  Logger
}

func NewUpdateProfileHandler(repo RepositoryManager, storage BlobStorage, cfg Config) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:    repo,
		storage: storage,
		bucket:  cfg.GetAvatarBucket(),
		logger:  defLogger{},
	}
}

func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Identity == nil {
		return ErrNotAuthenticated
	}

	var avatarURL *string
	if !event.Avatar.Empty() {
		blobPath := AvatarPath(event.Identity.ID.String(), event.Avatar.Filename)

		err := h.storage.Upload(
			ctx,
			h.bucket,
			blobPath,
			event.Avatar.Content,
			event.Avatar.ContentType,
			true,
		)
		if err != nil {
			h.logger.Error("avatar upload failed", "path", blobPath, "error", err)
			return err
		}

		url := h.storage.PublicURL(h.bucket, blobPath)
		avatarURL = &url
	}

	now := time.Now()
	record := &Profile{
		ID:        event.Identity.ID,
		Username:  NullableString(event.Username),
		FullName:  NullableString(event.FullName),
		Website:   NullableString(event.Website),
		AvatarURL: avatarURL,
		UpdatedAt: &now,
	}

	var profile *Profile

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if profile, err = h.repo.Profiles().UpsertTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not upsert profile")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile update transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdateProfileResponse{Profile: profile})
	}

	return nil
}

// AvatarPath derives the storage path for an identity's avatar. The path is
// deterministic, so re-uploads with the same extension overwrite in place.
func AvatarPath(identityID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/avatar.%s", identityID, ext)
}
