package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

// requireIdentity returns the authenticated caller and a logger scoped to
// them, or writes 401 and reports false.
func requireIdentity(w http.ResponseWriter, r *http.Request) (*models.Identity, *slog.Logger, bool) {

	logger := middleware.LoggerFromContext(r.Context())

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		logger.Warn("Unauthorized request: missing identity")
		response.Error(w, errors.UnauthorizedError("Authentication required"))
		return nil, logger, false
	}

	return identity, logger.With(slog.String("userID", identity.UserID.String())), true
}
