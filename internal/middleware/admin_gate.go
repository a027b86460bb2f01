package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/kdiary/backend/internal/auth"
	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// IsProtectedPath reports whether path needs an admin session:
// /admin and everything below it except the login page.
func IsProtectedPath(path string) bool {
	if path == auth.LoginPath {
		return false
	}
	return path == auth.AdminHome || strings.HasPrefix(path, auth.AdminHome+"/")
}

// AdminGate redirects anonymous visitors of protected paths to the login
// page and signed-in non-admins to the public home. Other paths pass through.
func AdminGate(sessions *auth.SessionManager, log logger.Logger) echo.MiddlewareFunc {
	log = log.WithComponent("admin-gate")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !IsProtectedPath(req.URL.Path) {
				return next(c)
			}

			claims, err := sessions.Resolve(req.Context(), auth.TokenFromRequest(req))
			if err != nil {
				log.Debug("session rejected", "path", req.URL.Path, "error", err)
				return c.Redirect(http.StatusTemporaryRedirect, auth.LoginURL(req.URL.RequestURI()))
			}
			if !claims.IsAdmin {
				return c.Redirect(http.StatusTemporaryRedirect, auth.PublicHome)
			}

			setIdentity(c, claims.Identity())
			return next(c)
		}
	}
}
