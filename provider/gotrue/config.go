package gotrue

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds the connection settings for a GoTrue-compatible project.
type Config struct {
	// ProjectURL is the project base URL, e.g. https://abc.supabase.co.
	ProjectURL string

	// AnonKey is the publishable API key used for user-scoped calls.
	AnonKey string

	// ServiceRoleKey is the elevated key used by the admin client. Leave it
	// empty on anything that does not delete identities.
	ServiceRoleKey string

	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// Validate checks the minimum settings for the user-scoped client.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ProjectURL) == "" {
		return fmt.Errorf("gotrue: project URL is required")
	}
	if strings.TrimSpace(c.AnonKey) == "" {
		return fmt.Errorf("gotrue: anon key is required")
	}
	return nil
}

func (c Config) authURL(path string) string {
	return strings.TrimSuffix(c.ProjectURL, "/") + "/auth/v1" + path
}

func (c Config) storageURL(path string) string {
	return strings.TrimSuffix(c.ProjectURL, "/") + "/storage/v1" + path
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
