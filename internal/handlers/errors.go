package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// toHTTPError maps a classified error to the response the client sees.
// Store faults are logged with their cause and answered with a generic 500.
func toHTTPError(log logger.Logger, err error, msg string, args ...any) error {
	switch {
	case apperrors.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{
			"message": "Validation failed",
			"field":   apperrors.FieldOf(err),
			"reason":  apperrors.GetMessage(err),
		})
	case apperrors.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	case apperrors.IsUnauthorized(err):
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	case apperrors.IsForbidden(err):
		return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
	default:
		log.Error(msg, append(args, "error", err)...)
		return echo.NewHTTPError(http.StatusInternalServerError, msg)
	}
}
