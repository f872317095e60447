package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/filevault/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayLogin(t *testing.T) {
	var captured struct {
		method string
		path   string
		body   map[string]string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&captured.body)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{
				"id":    "u-1",
				"name":  "Ada Lovelace",
				"email": "ada@example.com",
				"role":  "admin",
			},
			"token": "tok-abc",
		})
	}))
	defer server.Close()

	gw := auth.NewHTTPGateway(server.URL)
	res, err := gw.Login(context.Background(), "ada@example.com", "secret-password")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/auth/login", captured.path)
	assert.Equal(t, "ada@example.com", captured.body["email"])
	assert.Equal(t, "secret-password", captured.body["password"])

	assert.Equal(t, "tok-abc", res.Token)
	assert.Equal(t, "u-1", res.User.ID)
	assert.Equal(t, "Ada Lovelace", res.User.Name)
}

func TestHTTPGatewayBearerHeader(t *testing.T) {
	var authz string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": "u-1", "email": "ada@example.com"},
		})
	}))
	defer server.Close()

	ctx := context.Background()
	store := auth.NewMemoryCredentialStore()
	require.NoError(t, store.SetToken(ctx, "tok-xyz"))

	gw := auth.NewHTTPGateway(server.URL, auth.WithTokenProvider(store))
	rec, err := gw.GetMe(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-xyz", authz)
	assert.Equal(t, "u-1", rec.ID)
}

func TestHTTPGatewayRemoteErrors(t *testing.T) {
	t.Run("error envelope message is preserved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
		}))
		defer server.Close()

		gw := auth.NewHTTPGateway(server.URL)
		_, err := gw.Login(context.Background(), "a@b.com", "wrong")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid credentials")
		assert.True(t, auth.IsUnauthorized(err))

		// the classifier sees the authoritative string
		classified := auth.ClassifyError(err)
		var ce *auth.ClassifiedError
		require.ErrorAs(t, classified, &ce)
		assert.Equal(t, auth.ClassificationBadCredentials, ce.Classification)
	})

	t.Run("message field fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "User already exists"})
		}))
		defer server.Close()

		gw := auth.NewHTTPGateway(server.URL)
		_, err := gw.Register(context.Background(), auth.RegisterInput{Email: "a@b.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "User already exists")
		assert.False(t, auth.IsUnauthorized(err))
	})

	t.Run("non json failure body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream exploded"))
		}))
		defer server.Close()

		gw := auth.NewHTTPGateway(server.URL)
		err := gw.Logout(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("unreachable host", func(t *testing.T) {
		gw := auth.NewHTTPGateway("http://127.0.0.1:1")
		err := gw.Logout(context.Background())
		require.Error(t, err)
	})
}

func TestHTTPGatewayVoidOperations(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	ctx := context.Background()
	gw := auth.NewHTTPGateway(server.URL)

	require.NoError(t, gw.ForgotPassword(ctx, "a@b.com"))
	require.NoError(t, gw.ResetPassword(ctx, "reset-token", "new-password-123"))
	require.NoError(t, gw.VerifyEmail(ctx, "verify-token"))
	require.NoError(t, gw.ResendVerification(ctx, "a@b.com"))
	require.NoError(t, gw.Logout(ctx))

	assert.Equal(t, []string{
		"/auth/password/forgot",
		"/auth/password/reset",
		"/auth/verify-email",
		"/auth/verify-email/resend",
		"/auth/logout",
	}, paths)
}

func TestHTTPGatewayUpdateUser(t *testing.T) {
	var captured struct {
		method string
		path   string
		body   map[string]any
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&captured.body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": "u-1", "name": "Ada King", "email": "ada@example.com"},
		})
	}))
	defer server.Close()

	name := "Ada King"
	gw := auth.NewHTTPGateway(server.URL)
	rec, err := gw.UpdateUser(context.Background(), "u-1", auth.UserPatch{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, captured.method)
	assert.Equal(t, "/users/u-1", captured.path)
	assert.Equal(t, "Ada King", captured.body["name"])
	_, hasPassword := captured.body["newPassword"]
	assert.False(t, hasPassword, "nil patch fields stay off the wire")

	assert.Equal(t, "Ada King", rec.Name)
}
