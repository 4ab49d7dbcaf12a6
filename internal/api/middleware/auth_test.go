package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJwtKey = []byte("test-secret-key-123456789012345")

func createTestToken(userID uuid.UUID, email string, isAdmin bool, duration time.Duration, key []byte, method jwt.SigningMethod) (string, error) {
	claims := &models.Claims{
		UserID:  userID,
		Email:   email,
		Name:    "Rahim",
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(method, claims)

	return token.SignedString(key)
}

func TestAuthMiddleware(t *testing.T) {
	// Arrange
	authMiddleware := middleware.NewAuthMiddleware(testJwtKey)
	userID := uuid.New()
	userEmail := "test@example.com"

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		require.True(t, ok, "identity should be in context")
		assert.Equal(t, userID, identity.UserID)
		assert.Equal(t, userEmail, identity.Email)
		assert.Equal(t, "Rahim", identity.DisplayName)

		require.NotNil(t, middleware.LoggerFromContext(r.Context()))

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"success": true}`))
		require.NoError(t, err)
	})

	validToken := func(key []byte, method jwt.SigningMethod, d time.Duration) string {
		token, err := createTestToken(userID, userEmail, false, d, key, method)
		require.NoError(t, err)

		return "Bearer " + token
	}

	unauthorized := func(message string) string {
		return `{"success": false, "error": {"code": "UNAUTHORIZED", "message": "` + message + `"}}`
	}

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success - Valid Token",
			authHeader:     validToken(testJwtKey, jwt.SigningMethodHS256, time.Hour),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success": true}`,
		},
		{
			name:           "Fail - Missing Authorization Header",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   unauthorized("Authorization header is required"),
		},
		{
			name:           "Fail - Invalid Authorization Header Format (No Bearer)",
			authHeader:     "InvalidTokenFormat",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   unauthorized("Invalid authorization format"),
		},
		{
			name:           "Fail - Invalid Authorization Header Format (Only Bearer)",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   unauthorized("Invalid or expired token"),
		},
		{
			name:           "Fail - Invalid Token (Malformed)",
			authHeader:     "Bearer not.a.valid.token",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   unauthorized("Invalid or expired token"),
		},
		{
			name:           "Fail - Invalid Token (Wrong Signing Key)",
			authHeader:     validToken([]byte("different-secret-key-0987654321"), jwt.SigningMethodHS256, time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   unauthorized("Invalid or expired token"),
		},
		{
			name:           "Fail - Invalid Token (Wrong Signing Method)",
			authHeader:     validToken(testJwtKey, jwt.SigningMethodHS512, time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   unauthorized("Invalid or expired token"),
		},
		{
			name:           "Fail - Expired Token",
			authHeader:     validToken(testJwtKey, jwt.SigningMethodHS256, -time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   unauthorized("Invalid or expired token"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}

			// simulate the Logging middleware
			baseLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
			req = req.WithContext(context.WithValue(req.Context(), middleware.LoggerKey, baseLogger))

			rr := httptest.NewRecorder()

			// Act
			authMiddleware.Authenticate(nextHandler).ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tc.expectedStatus, rr.Code, "Unexpected status code")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "Unexpected response body")
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name           string
		identity       *models.Identity
		expectedStatus int
	}{
		{name: "Admin", identity: &models.Identity{UserID: uuid.New(), IsAdmin: true}, expectedStatus: http.StatusNoContent},
		{name: "Customer", identity: &models.Identity{UserID: uuid.New()}, expectedStatus: http.StatusForbidden},
		{name: "Anonymous", expectedStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
			if tc.identity != nil {
				req = req.WithContext(middleware.WithIdentity(req.Context(), tc.identity))
			}
			rr := httptest.NewRecorder()

			middleware.RequireAdmin(ok).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}
}

func TestAuthenticateThenRequireAdmin(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(testJwtKey)
	token, err := createTestToken(uuid.New(), "admin@example.com", true, time.Hour, testJwtKey, jwt.SigningMethodHS256)
	require.NoError(t, err)

	handler := authMiddleware.Authenticate(middleware.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewAuthMiddleware(t *testing.T) {
	mw := middleware.NewAuthMiddleware([]byte("some-key"))
	assert.NotNil(t, mw, "Middleware should not be nil")
}
