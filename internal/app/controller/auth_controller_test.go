package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/internal/app/service"
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthControllerTest(t *testing.T) (*gin.Engine, service.AuthService) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	authService := service.NewAuthService(
		repository.NewUserRepository(testDB),
		repository.NewTokenRepository(testDB),
		time.Hour,
	)
	ctrl := NewAuthController(authService)

	router := gin.New()
	router.POST("/signup", ctrl.Signup)
	router.POST("/login", ctrl.Login)
	router.POST("/logout", ctrl.Logout)
	router.POST("/validate/:token", ctrl.ValidateToken)

	return router, authService
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthController_Signup_Success(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := postJSON(t, router, "/signup", signupRequest{
		Email:    "test@example.com",
		Password: "password123",
		Name:     "Test User",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Signup successful", response["message"])
	assert.NotNil(t, response["user"])
	// The password hash never leaves the service
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestAuthController_Signup_InvalidRequest(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	tests := []struct {
		name string
		req  signupRequest
	}{
		{
			name: "Invalid email",
			req:  signupRequest{Email: "not-an-email", Password: "password123", Name: "Test"},
		},
		{
			name: "Short password",
			req:  signupRequest{Email: "test@example.com", Password: "short", Name: "Test"},
		},
		{
			name: "Missing name",
			req:  signupRequest{Email: "test@example.com", Password: "password123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/signup", tt.req, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthController_Signup_DuplicateEmail(t *testing.T) {
	router, authService := setupAuthControllerTest(t)

	_, err := authService.Signup("test@example.com", "password123", "Test User")
	require.NoError(t, err)

	w := postJSON(t, router, "/signup", signupRequest{
		Email:    "test@example.com",
		Password: "password456",
		Name:     "Another User",
	}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestAuthController_Login_Success(t *testing.T) {
	router, authService := setupAuthControllerTest(t)

	_, err := authService.Signup("test@example.com", "password123", "Test User")
	require.NoError(t, err)

	w := postJSON(t, router, "/login", loginRequest{
		Email:    "test@example.com",
		Password: "password123",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Login successful", response["message"])
	assert.NotEmpty(t, response["token"])
	assert.NotEmpty(t, response["expiry_at"])
}

func TestAuthController_Login_WrongPassword(t *testing.T) {
	router, authService := setupAuthControllerTest(t)

	_, err := authService.Signup("test@example.com", "password123", "Test User")
	require.NoError(t, err)

	w := postJSON(t, router, "/login", loginRequest{
		Email:    "test@example.com",
		Password: "wrong-password",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
}

func TestAuthController_Logout(t *testing.T) {
	router, authService := setupAuthControllerTest(t)

	_, err := authService.Signup("test@example.com", "password123", "Test User")
	require.NoError(t, err)
	_, token, err := authService.Login("test@example.com", "password123")
	require.NoError(t, err)

	w := postJSON(t, router, "/logout", nil, map[string]string{
		"Authorization": "Bearer " + token.Value,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// The token no longer validates
	_, err = authService.ValidateToken(token.Value)
	assert.ErrorIs(t, err, service.ErrTokenNotFound)
}

func TestAuthController_Logout_UnknownToken(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := postJSON(t, router, "/logout", nil, map[string]string{
		"Authorization": "Bearer no-such-token",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthController_Logout_MissingHeader(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := postJSON(t, router, "/logout", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_ValidateToken(t *testing.T) {
	router, authService := setupAuthControllerTest(t)

	user, err := authService.Signup("test@example.com", "password123", "Test User")
	require.NoError(t, err)
	_, token, err := authService.Login("test@example.com", "password123")
	require.NoError(t, err)

	w := postJSON(t, router, "/validate/"+token.Value, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(user.ID), response["id"])
	assert.Equal(t, "test@example.com", response["email"])
	assert.Equal(t, "Test User", response["name"])
	assert.Equal(t, "user", response["role"])
}

func TestAuthController_ValidateToken_Invalid(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := postJSON(t, router, "/validate/no-such-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired or invalid")
}
