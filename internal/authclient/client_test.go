package authclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Validate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users/validate/good-token", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":42,"email":"test@example.com","name":"Test User","role":"user"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	identity, err := client.Validate(context.Background(), "good-token")

	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, uint(42), identity.ID)
	assert.Equal(t, "test@example.com", identity.Email)
	assert.Equal(t, "Test User", identity.Name)
	assert.Equal(t, "user", identity.Role)
}

func TestClient_Validate_RejectedToken(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{name: "Unauthorized", statusCode: http.StatusUnauthorized},
		{name: "Not found", statusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := NewClient(server.URL)
			identity, err := client.Validate(context.Background(), "bad-token")

			require.NoError(t, err)
			assert.Nil(t, identity)
		})
	}
}

func TestClient_Validate_EmptyToken(t *testing.T) {
	// No request is made for an empty token
	client := NewClient("http://127.0.0.1:1")
	identity, err := client.Validate(context.Background(), "")

	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestClient_Validate_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	identity, err := client.Validate(context.Background(), "some-token")

	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestClient_Validate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Validate(context.Background(), "some-token")

	assert.Error(t, err)
}

func TestClient_Validate_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL)
	_, err := client.Validate(context.Background(), "some-token")

	assert.Error(t, err)
}
