package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/kdiary/backend/internal/auth"
	"github.com/anonto42/kdiary/backend/internal/models"
	"github.com/anonto42/kdiary/backend/pkg/logger"
)

// AuthHandler handles sign-in and sign-out
type AuthHandler struct {
	strategy auth.Strategy
	sessions *auth.SessionManager
	log      logger.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(strategy auth.Strategy, sessions *auth.SessionManager, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		strategy: strategy,
		sessions: sessions,
		log:      log.WithComponent("auth"),
	}
}

// RegisterAuthRoutes registers the login page routes and the /api/auth routes
func (h *AuthHandler) RegisterAuthRoutes(e *echo.Echo) {
	e.GET(auth.LoginPath, h.LoginPage)
	e.POST(auth.LoginPath, h.Login)

	g := e.Group("/api/auth")
	g.GET("/callback/google", h.GoogleCallback)
	g.GET("/signout", h.SignOut)
	g.POST("/signout", h.SignOut)
}

// LoginPage describes how to sign in. A visitor who already holds an admin
// session is sent straight to the callback.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	req := c.Request()
	callback := auth.SafeCallback(c.QueryParam("callbackUrl"), auth.AdminHome)

	if claims, err := h.sessions.Resolve(req.Context(), auth.TokenFromRequest(req)); err == nil && claims.IsAdmin {
		return c.Redirect(http.StatusSeeOther, callback)
	}

	resp := map[string]any{
		"strategy":    h.strategy.Name(),
		"callbackUrl": callback,
	}
	if e := c.QueryParam("error"); e != "" {
		resp["error"] = e
	}

	authURL, err := h.beginRedirect(c, callback)
	if err != nil {
		return err
	}
	if authURL != "" {
		resp["authUrl"] = authURL
	}
	return c.JSON(http.StatusOK, resp)
}

// Login signs in with credentials or a Firebase ID token. Redirect based
// strategies are sent on to the provider.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.Redirect(http.StatusSeeOther, auth.LoginErrorURL(auth.AdminHome))
	}
	if req.CallbackURL == "" {
		req.CallbackURL = c.QueryParam("callbackUrl")
	}
	callback := auth.SafeCallback(req.CallbackURL, auth.AdminHome)

	authURL, err := h.beginRedirect(c, callback)
	if err != nil {
		return err
	}
	if authURL != "" {
		return c.Redirect(http.StatusSeeOther, authURL)
	}

	identity, err := h.strategy.Authenticate(c.Request().Context(), auth.LoginInput{
		Username: req.Username,
		Password: req.Password,
		IDToken:  req.IDToken,
	})
	if err != nil {
		h.log.Info("sign-in failed", "strategy", h.strategy.Name(), "error", err)
		return c.Redirect(http.StatusSeeOther, auth.LoginErrorURL(callback))
	}

	return h.startSession(c, identity, callback)
}

// GoogleCallback finishes the OAuth authorization code flow
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	var nonce string
	if cookie, err := c.Cookie(auth.StateCookieName); err == nil {
		nonce = cookie.Value
	}
	c.SetCookie(h.sessions.ExpiredStateCookie())

	callback, err := h.sessions.ResolveState(c.QueryParam("state"), nonce)
	if err != nil {
		h.log.Info("oauth state rejected", "error", err)
		return c.Redirect(http.StatusSeeOther, auth.LoginErrorURL(auth.AdminHome))
	}
	callback = auth.SafeCallback(callback, auth.AdminHome)

	if e := c.QueryParam("error"); e != "" {
		h.log.Info("oauth provider returned an error", "error", e)
		return c.Redirect(http.StatusSeeOther, auth.LoginErrorURL(callback))
	}

	identity, err := h.strategy.Authenticate(c.Request().Context(), auth.LoginInput{Code: c.QueryParam("code")})
	if err != nil {
		h.log.Info("sign-in failed", "strategy", h.strategy.Name(), "error", err)
		return c.Redirect(http.StatusSeeOther, auth.LoginErrorURL(callback))
	}

	return h.startSession(c, identity, callback)
}

// SignOut revokes the current session and clears the cookie
func (h *AuthHandler) SignOut(c echo.Context) error {
	req := c.Request()
	if token := auth.TokenFromRequest(req); token != "" {
		if err := h.sessions.Revoke(req.Context(), token); err != nil {
			h.log.Error("Failed to revoke session", "error", err)
		}
	}

	c.SetCookie(h.sessions.ExpiredCookie())
	callback := c.QueryParam("callbackUrl")
	if callback == "" {
		callback = c.FormValue("callbackUrl")
	}
	return c.Redirect(http.StatusSeeOther, auth.SafeCallback(callback, auth.PublicHome))
}

// beginRedirect returns the provider URL of redirect based strategies and
// sets the state cookie for it. Other strategies get "".
func (h *AuthHandler) beginRedirect(c echo.Context, callback string) (string, error) {
	state, nonce, err := h.sessions.IssueState(callback)
	if err != nil {
		h.log.Error("Failed to issue oauth state", "error", err)
		return "", echo.NewHTTPError(http.StatusInternalServerError, "Failed to prepare sign-in")
	}
	authURL := h.strategy.AuthURL(state)
	if authURL != "" {
		c.SetCookie(h.sessions.StateCookie(nonce))
	}
	return authURL, nil
}

func (h *AuthHandler) startSession(c echo.Context, identity models.Identity, callback string) error {
	token, err := h.sessions.Issue(identity)
	if err != nil {
		h.log.Error("Failed to issue session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to sign in")
	}

	c.SetCookie(h.sessions.Cookie(token))
	h.log.Info("signed in", "email", identity.Email, "admin", identity.IsAdmin)
	return c.Redirect(http.StatusSeeOther, callback)
}
