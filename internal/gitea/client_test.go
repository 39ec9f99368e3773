package gitea

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:  server.URL,
		Token:    "test-token",
		Username: "mirror",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	return client
}

func TestClient_CurrentUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/user", r.URL.Path)
		assert.Equal(t, "token test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(User{ID: 1, Login: "mirror"})
	})

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mirror", user.Login)
}

func TestClient_RepositoryExists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/repos/mirror/present" {
			_ = json.NewEncoder(w).Encode(RepoInfo{Name: "present"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	assert.True(t, client.RepositoryExists(context.Background(), "mirror", "present"))
	assert.False(t, client.RepositoryExists(context.Background(), "mirror", "absent"))
}

func TestClient_CreateRepository(t *testing.T) {
	t.Run("user namespace", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/user/repos", r.URL.Path)

			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "demo", payload["name"])
			assert.Equal(t, false, payload["auto_init"])

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(RepoInfo{Name: "demo", FullName: "mirror/demo"})
		})

		repo, err := client.CreateRepository(context.Background(), CreateRepositoryRequest{
			Name:        "demo",
			Description: "Mirror of https://github.com/acme/demo.git",
		})
		require.NoError(t, err)
		assert.Equal(t, "mirror/demo", repo.FullName)
	})

	t.Run("organization namespace", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/orgs/acme/repos", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(RepoInfo{Name: "demo", FullName: "acme/demo"})
		})

		repo, err := client.CreateRepository(context.Background(), CreateRepositoryRequest{
			Name: "demo",
			Org:  "acme",
		})
		require.NoError(t, err)
		assert.Equal(t, "acme/demo", repo.FullName)
	})

	t.Run("already exists", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		})

		_, err := client.CreateRepository(context.Background(), CreateRepositoryRequest{Name: "demo"})
		require.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("permission denied carries scope guidance", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := client.CreateRepository(context.Background(), CreateRepositoryRequest{Name: "demo", Org: "acme"})
		require.ErrorIs(t, err, ErrPermissionDenied)
		assert.Contains(t, err.Error(), "admin:org")
	})

	t.Run("missing organization", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.CreateRepository(context.Background(), CreateRepositoryRequest{Name: "demo", Org: "ghost"})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestClient_DeleteRepository(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		})

		deleted, err := client.DeleteRepository(context.Background(), "mirror", "demo")
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("already absent is not an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		deleted, err := client.DeleteRepository(context.Background(), "mirror", "demo")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestClient_ServerVersion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/version", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "1.24.0"})
	})

	version, err := client.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.24.0", version)
}
