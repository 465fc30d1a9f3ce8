package gotrue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-accounts"
	"github.com/google/uuid"
)

// Admin implements accounts.AdminClient using the service role key. Keep it
// confined to the delete-account path; nothing request-scoped should ever
// hold one for any other purpose.
type Admin struct {
	config     Config
	httpClient *http.Client
}

var _ accounts.AdminClient = (*Admin)(nil)

// NewAdmin creates the elevated client.
func NewAdmin(cfg Config) (*Admin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.ServiceRoleKey) == "" {
		return nil, fmt.Errorf("gotrue: service role key is required")
	}

	return &Admin{
		config:     cfg,
		httpClient: cfg.httpClient(),
	}, nil
}

// DeleteUser implements accounts.AdminClient. Deletion is permanent and
// invalidates every session the identity holds.
func (a *Admin) DeleteUser(ctx context.Context, id uuid.UUID) error {
	endpoint := a.config.authURL("/admin/users/" + id.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return accounts.WrapInfrastructureError(err, "gotrue: failed to build request")
	}

	req.Header.Set("apikey", a.config.ServiceRoleKey)
	req.Header.Set("Authorization", "Bearer "+a.config.ServiceRoleKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return accounts.WrapInfrastructureError(err, "gotrue: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return accounts.WrapInfrastructureError(err, "gotrue: failed to read response")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return accounts.WrapInfrastructureError(
			fmt.Errorf("gotrue: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			"gotrue: backend unavailable",
		)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return accounts.NewBackendError(parseErrorMessage(body)).
			WithMetadata(map[string]any{
				"status":  resp.StatusCode,
				"user_id": id.String(),
			})
	}

	return nil
}
