package gotrue_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/provider/gotrue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdmin(t *testing.T, handler http.HandlerFunc) *gotrue.Admin {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	admin, err := gotrue.NewAdmin(gotrue.Config{
		ProjectURL:     srv.URL,
		AnonKey:        "anon-key",
		ServiceRoleKey: "service-key",
		HTTPClient:     srv.Client(),
	})
	require.NoError(t, err)

	return admin
}

func TestNewAdminRequiresServiceKey(t *testing.T) {
	_, err := gotrue.NewAdmin(gotrue.Config{
		ProjectURL: "https://x.example.com",
		AnonKey:    "anon-key",
	})
	require.Error(t, err)
}

func TestAdminDeleteUser(t *testing.T) {
	id := uuid.New()

	admin := newTestAdmin(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/auth/v1/admin/users/"+id.String(), r.URL.Path)
		// admin calls run on the service credential alone
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})

	err := admin.DeleteUser(context.Background(), id)
	require.NoError(t, err)
}

func TestAdminDeleteUserRejection(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"msg": "User not found"}`))
	})

	err := admin.DeleteUser(context.Background(), uuid.New())

	require.Error(t, err)
	assert.True(t, accounts.IsBackendRejected(err))
	assert.Equal(t, "User not found", accounts.UserMessage(err))
}

func TestAdminDeleteUserServerError(t *testing.T) {
	admin := newTestAdmin(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := admin.DeleteUser(context.Background(), uuid.New())

	require.Error(t, err)
	assert.True(t, accounts.IsBackendUnreachable(err))
}
