package gotrue_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/provider/gotrue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "11111111-2222-3333-4444-555555555555"

func newTestClient(t *testing.T, handler http.HandlerFunc) (*gotrue.Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := gotrue.New(gotrue.Config{
		ProjectURL: srv.URL,
		AnonKey:    "anon-key",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	return client, srv
}

func TestNewRequiresSettings(t *testing.T) {
	_, err := gotrue.New(gotrue.Config{AnonKey: "anon-key"})
	require.Error(t, err)

	_, err = gotrue.New(gotrue.Config{ProjectURL: "https://x.example.com"})
	require.Error(t, err)
}

func TestSignInWithPassword(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "access-token",
			"refresh_token": "refresh-token",
			"expires_in": 3600,
			"user": {
				"id": "` + testUserID + `",
				"email": "user@example.com",
				"email_confirmed_at": "2025-01-15T10:00:00Z",
				"last_sign_in_at": "2025-01-15T10:00:00Z"
			}
		}`))
	})

	session, err := client.SignInWithPassword(context.Background(), "user@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, "access-token", session.AccessToken)
	assert.Equal(t, "refresh-token", session.RefreshToken)
	require.NotNil(t, session.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *session.ExpiresAt, time.Minute)

	require.NotNil(t, session.Identity)
	assert.Equal(t, testUserID, session.Identity.ID.String())
	assert.Equal(t, "user@example.com", session.Identity.Email)
	assert.True(t, session.Identity.EmailConfirmed)
	require.NotNil(t, session.Identity.LastSignInAt)
}

func TestSignInRejectionCarriesBackendMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"msg": "Invalid login credentials"}`))
	})

	_, err := client.SignInWithPassword(context.Background(), "user@example.com", "wrong")

	require.Error(t, err)
	assert.True(t, accounts.IsBackendRejected(err))
	assert.Equal(t, "Invalid login credentials", accounts.UserMessage(err))
}

func TestServerErrorIsInfrastructure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SignInWithPassword(context.Background(), "user@example.com", "password123")

	require.Error(t, err)
	assert.True(t, accounts.IsBackendUnreachable(err))
}

func TestUnreachableHostIsInfrastructure(t *testing.T) {
	client, err := gotrue.New(gotrue.Config{
		ProjectURL: "http://127.0.0.1:1",
		AnonKey:    "anon-key",
		HTTPClient: &http.Client{Timeout: 200 * time.Millisecond},
	})
	require.NoError(t, err)

	_, err = client.SignInWithPassword(context.Background(), "user@example.com", "password123")

	require.Error(t, err)
	assert.True(t, accounts.IsBackendUnreachable(err))
}

func TestSignUpReturnsPendingIdentity(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		w.Write([]byte(`{"id": "` + testUserID + `", "email": "new@example.com"}`))
	})

	identity, err := client.SignUp(context.Background(), "new@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", identity.Email)
	assert.False(t, identity.EmailConfirmed, "confirmation is pending until the email link is used")
}

func TestResetPasswordForEmailSendsRedirect(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		assert.Equal(t, "https://example.com/auth/confirm", r.URL.Query().Get("redirect_to"))
		w.Write([]byte(`{}`))
	})

	err := client.ResetPasswordForEmail(context.Background(), "user@example.com", "https://example.com/auth/confirm")
	require.NoError(t, err)
}

func TestVerifyOTP(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/verify", r.URL.Path)
		w.Write([]byte(`{
			"access_token": "fresh-token",
			"expires_at": ` + "1893456000" + `,
			"user": {"id": "` + testUserID + `", "email": "user@example.com"}
		}`))
	})

	session, err := client.VerifyOTP(context.Background(), accounts.OTPTypeSignup, "token-hash")

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", session.AccessToken)
	require.NotNil(t, session.ExpiresAt)
	assert.Equal(t, int64(1893456000), session.ExpiresAt.Unix())
}

func TestGetUserSendsUserToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		// the user token is the bearer, the anon key stays in apikey
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		w.Write([]byte(`{"id": "` + testUserID + `", "email": "user@example.com", "confirmed_at": "2025-01-15T10:00:00Z"}`))
	})

	identity, err := client.GetUser(context.Background(), "user-token")

	require.NoError(t, err)
	assert.True(t, identity.EmailConfirmed)
}

func TestUpdateUserSendsPassword(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer recovery-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id": "` + testUserID + `", "email": "user@example.com"}`))
	})

	password := "new-password"
	identity, err := client.UpdateUser(context.Background(), "recovery-token", accounts.UserUpdate{
		Password: &password,
	})

	require.NoError(t, err)
	assert.Equal(t, testUserID, identity.ID.String())
}

func TestSignOut(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.SignOut(context.Background(), "user-token")
	require.NoError(t, err)
}
