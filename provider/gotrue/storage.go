package gotrue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-accounts"
)

// Storage implements accounts.BlobStorage against the storage API that ships
// with GoTrue deployments. Objects uploaded to a public bucket are readable
// at a stable unauthenticated URL.
type Storage struct {
	config     Config
	httpClient *http.Client
}

var _ accounts.BlobStorage = (*Storage)(nil)

// NewStorage creates a storage client using the anon key.
func NewStorage(cfg Config) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Storage{
		config:     cfg,
		httpClient: cfg.httpClient(),
	}, nil
}

// Upload implements accounts.BlobStorage.
func (s *Storage) Upload(ctx context.Context, bucket, path string, blob []byte, contentType string, upsert bool) error {
	endpoint := s.config.storageURL("/object/" + bucket + "/" + path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(blob))
	if err != nil {
		return accounts.WrapInfrastructureError(err, "gotrue: failed to build request")
	}

	req.Header.Set("apikey", s.config.AnonKey)
	req.Header.Set("Authorization", "Bearer "+s.config.AnonKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if upsert {
		req.Header.Set("x-upsert", "true")
	}

	resp, err := s.httpClient.Do(req)
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
			"gotrue: storage unavailable",
		)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return accounts.NewBackendError(parseErrorMessage(body)).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"bucket": bucket,
				"path":   path,
			})
	}

	return nil
}

// PublicURL implements accounts.BlobStorage.
func (s *Storage) PublicURL(bucket, path string) string {
	return s.config.storageURL("/object/public/" + bucket + "/" + path)
}
