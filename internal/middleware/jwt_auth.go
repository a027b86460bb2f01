package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/kdiary/backend/internal/auth"
	"github.com/anonto42/kdiary/backend/internal/models"
	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// IdentityKey is the echo context key of the resolved identity
const IdentityKey = "identity"

// RequireAdmin guards JSON endpoints: no valid session is 401, a session
// without admin rights is 403.
func RequireAdmin(sessions *auth.SessionManager, log logger.Logger) echo.MiddlewareFunc {
	log = log.WithComponent("api-auth")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			claims, err := sessions.Resolve(req.Context(), auth.TokenFromRequest(req))
			if err != nil {
				log.Debug("session rejected", "path", req.URL.Path, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			if !claims.IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}

			setIdentity(c, claims.Identity())
			return next(c)
		}
	}
}

// IdentityFromContext returns the identity set by the gate or RequireAdmin
func IdentityFromContext(c echo.Context) (models.Identity, bool) {
	id, ok := c.Get(IdentityKey).(models.Identity)
	return id, ok
}

func setIdentity(c echo.Context, id models.Identity) {
	c.Set(IdentityKey, id)
	req := c.Request()
	c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), id)))
}
