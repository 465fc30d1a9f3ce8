package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/google/uuid"
)

// Client implements accounts.IdentityClient against the GoTrue REST API. All
// calls run with the anon key; operations acting on a session carry the user
// token as the bearer credential instead.
type Client struct {
	config     Config
	httpClient *http.Client
}

var _ accounts.IdentityClient = (*Client)(nil)

// New creates a user-scoped GoTrue client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config:     cfg,
		httpClient: cfg.httpClient(),
	}, nil
}

// SignInWithPassword implements accounts.IdentityClient.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*accounts.Session, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	body, err := c.do(ctx, http.MethodPost, c.config.authURL("/token?grant_type=password"), c.config.AnonKey, payload)
	if err != nil {
		return nil, err
	}

	return parseSession(body)
}

// SignUp implements accounts.IdentityClient. With email confirmation enabled
// the response carries the pending user but no session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*accounts.Identity, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	body, err := c.do(ctx, http.MethodPost, c.config.authURL("/signup"), c.config.AnonKey, payload)
	if err != nil {
		return nil, err
	}

	var user gotrueUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, accounts.WrapInfrastructureError(err, "gotrue: failed to decode signup response")
	}

	// some deployments return the session envelope instead
	if user.ID == "" {
		var session gotrueSession
		if err := json.Unmarshal(body, &session); err == nil && session.User != nil {
			user = *session.User
		}
	}

	return mapIdentity(&user)
}

// ResetPasswordForEmail implements accounts.IdentityClient. The backend sends
// the recovery email itself; redirectTo is where its link lands afterwards.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	endpoint := c.config.authURL("/recover")
	if redirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	payload := map[string]string{
		"email": email,
	}

	_, err := c.do(ctx, http.MethodPost, endpoint, c.config.AnonKey, payload)
	return err
}

// UpdateUser implements accounts.IdentityClient.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, update accounts.UserUpdate) (*accounts.Identity, error) {
	body, err := c.do(ctx, http.MethodPut, c.config.authURL("/user"), accessToken, update)
	if err != nil {
		return nil, err
	}

	var user gotrueUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, accounts.WrapInfrastructureError(err, "gotrue: failed to decode user response")
	}

	return mapIdentity(&user)
}

// VerifyOTP implements accounts.IdentityClient. Exchanging a valid hash
// consumes it and opens a session.
func (c *Client) VerifyOTP(ctx context.Context, otpType accounts.OTPType, tokenHash string) (*accounts.Session, error) {
	payload := map[string]string{
		"type":       string(otpType),
		"token_hash": tokenHash,
	}

	body, err := c.do(ctx, http.MethodPost, c.config.authURL("/verify"), c.config.AnonKey, payload)
	if err != nil {
		return nil, err
	}

	return parseSession(body)
}

// GetUser implements accounts.IdentityClient.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*accounts.Identity, error) {
	body, err := c.do(ctx, http.MethodGet, c.config.authURL("/user"), accessToken, nil)
	if err != nil {
		return nil, err
	}

	var user gotrueUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, accounts.WrapInfrastructureError(err, "gotrue: failed to decode user response")
	}

	return mapIdentity(&user)
}

// SignOut implements accounts.IdentityClient. It revokes the refresh token
// family for the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, http.MethodPost, c.config.authURL("/logout"), accessToken, nil)
	return err
}

// do runs one API call. A reachable backend that says no becomes a backend
// rejection carrying the server's own message; everything else is an
// infrastructure error.
func (c *Client) do(ctx context.Context, method, endpoint, bearer string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, accounts.WrapInfrastructureError(err, "gotrue: failed to encode request")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, accounts.WrapInfrastructureError(err, "gotrue: failed to build request")
	}

	req.Header.Set("apikey", c.config.AnonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, accounts.WrapInfrastructureError(err, "gotrue: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, accounts.WrapInfrastructureError(err, "gotrue: failed to read response")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, accounts.WrapInfrastructureError(
			fmt.Errorf("gotrue: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			"gotrue: backend unavailable",
		)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, accounts.NewBackendError(parseErrorMessage(body)).
			WithMetadata(map[string]any{
				"status":   resp.StatusCode,
				"endpoint": req.URL.Path,
			})
	}

	return body, nil
}

type gotrueUser struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	EmailConfirmedAt string `json:"email_confirmed_at"`
	ConfirmedAt      string `json:"confirmed_at"`
	LastSignInAt     string `json:"last_sign_in_at"`
}

type gotrueSession struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         *gotrueUser `json:"user"`
}

func parseSession(body []byte) (*accounts.Session, error) {
	var raw gotrueSession
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, accounts.WrapInfrastructureError(err, "gotrue: failed to decode session response")
	}

	if raw.AccessToken == "" {
		return nil, accounts.WrapInfrastructureError(
			fmt.Errorf("gotrue: session response missing access token"),
			"gotrue: malformed session response",
		)
	}

	session := &accounts.Session{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
	}

	if raw.ExpiresAt > 0 {
		expiresAt := time.Unix(raw.ExpiresAt, 0)
		session.ExpiresAt = &expiresAt
	} else if raw.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(raw.ExpiresIn) * time.Second)
		session.ExpiresAt = &expiresAt
	}

	if raw.User != nil {
		identity, err := mapIdentity(raw.User)
		if err != nil {
			return nil, err
		}
		session.Identity = identity
	}

	return session, nil
}

func mapIdentity(u *gotrueUser) (*accounts.Identity, error) {
	if u == nil || u.ID == "" {
		return nil, accounts.WrapInfrastructureError(
			fmt.Errorf("gotrue: user response missing id"),
			"gotrue: malformed user response",
		)
	}

	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, accounts.WrapInfrastructureError(err, "gotrue: user id is not a uuid")
	}

	identity := &accounts.Identity{
		ID:             id,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != "" || u.ConfirmedAt != "",
	}

	if u.LastSignInAt != "" {
		if ts, err := time.Parse(time.RFC3339, u.LastSignInAt); err == nil {
			identity.LastSignInAt = &ts
		}
	}

	return identity, nil
}

type gotrueErrorResponse struct {
	Msg       string `json:"msg"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	ErrorDesc string `json:"error_description"`
}

func parseErrorMessage(body []byte) string {
	var parsed gotrueErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, msg := range []string{parsed.Msg, parsed.Message, parsed.ErrorDesc, parsed.Error} {
			if msg != "" {
				return msg
			}
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "gotrue request rejected"
	}
	return msg
}
