package handlers

import (
	"errors"
	"net/http"

	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/pocketbase"
	"github.com/billfold/billfold/pkg/logger"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

func sendError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message})
}

// respondWithError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept server-side.
func respondWithError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, invoice.ErrValidation):
		return sendError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, invoice.ErrNotFound):
		return sendError(c, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrEmailTaken):
		return sendError(c, http.StatusBadRequest, "email is already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return sendError(c, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrInvalidSession), errors.Is(err, auth.ErrSessionExpired):
		return sendError(c, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrInvalidVerification):
		return sendError(c, http.StatusBadRequest, "invalid or expired verification")
	case errors.Is(err, auth.ErrProviderDenied):
		return sendError(c, http.StatusBadGateway, "provider rejected the request")
	}

	var authErr *pocketbase.AuthenticationError
	if errors.As(err, &authErr) {
		logger.Error("Store authentication failure surfaced", "status", authErr.Status, "message", authErr.Message)
		return sendError(c, http.StatusBadGateway, "store unavailable")
	}

	logger.Error("Request failed", "path", c.Path(), "error", err)
	return sendError(c, http.StatusInternalServerError, "internal error")
}
