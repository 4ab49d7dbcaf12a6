package testutils

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateTestRequestWithIdentity builds a request as Authenticate would hand it on.
func CreateTestRequestWithIdentity(method, target string, body io.Reader, identity *models.Identity, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	ctx := middleware.WithIdentity(req.Context(), identity)
	ctx = context.WithValue(ctx, middleware.LoggerKey, discardLogger())

	return req.WithContext(ctx)
}

func CreateTestRequestWithContext(method, target string, body io.Reader, userID uuid.UUID, pathParams map[string]string) *http.Request {
	identity := &models.Identity{UserID: userID, Email: "test@example.com", DisplayName: "Test"}

	return CreateTestRequestWithIdentity(method, target, body, identity, pathParams)
}

func CreateAdminRequest(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	identity := &models.Identity{UserID: uuid.New(), Email: "admin@example.com", IsAdmin: true}

	return CreateTestRequestWithIdentity(method, target, body, identity, pathParams)
}

func CreateTestRequestWithoutContext(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	ctx := context.WithValue(req.Context(), middleware.LoggerKey, discardLogger())

	return req.WithContext(ctx)
}
