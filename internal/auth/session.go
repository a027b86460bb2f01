package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

const (
	// CookieName is the cookie carrying the session token
	CookieName = "session"
	// StateCookieName binds an OAuth state to the browser that started the flow
	StateCookieName = "oauth_state"

	tokenIssuer     = "kdiary"
	sessionAudience = "session"
	stateAudience   = "oauth-state"
	stateTTL        = 10 * time.Minute
)

// SessionManager issues and resolves signed session tokens
type SessionManager struct {
	secret       []byte
	maxAge       time.Duration
	secureCookie bool
	revoker      Revoker
	now          func() time.Time
}

type SessionOption func(*SessionManager)

// WithRevoker enables server-side sign-out
func WithRevoker(r Revoker) SessionOption {
	return func(m *SessionManager) {
		if r != nil {
			m.revoker = r
		}
	}
}

// WithSecureCookie marks the session cookie Secure
func WithSecureCookie(secure bool) SessionOption {
	return func(m *SessionManager) {
		m.secureCookie = secure
	}
}

// WithSessionClock overrides the time source
func WithSessionClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

func NewSessionManager(secret string, maxAge time.Duration, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		secret:  []byte(secret),
		maxAge:  maxAge,
		revoker: NoopRevoker{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a session token for id
func (m *SessionManager) Issue(id models.Identity) (string, error) {
	now := m.now()
	claims := &models.SessionClaims{
		IsAdmin: id.IsAdmin,
		Email:   id.Email,
		Name:    id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   id.Email,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Resolve verifies a session token and returns its claims. Every failure is
// an unauthorized error.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*models.SessionClaims, error) {
	if token == "" {
		return nil, apperrors.Unauthorized(nil, "missing session")
	}

	claims := &models.SessionClaims{}
	if err := m.parse(token, claims); err != nil {
		return nil, apperrors.Unauthorized(err, "invalid session")
	}
	if err := m.verify(&claims.RegisteredClaims, sessionAudience); err != nil {
		return nil, apperrors.Unauthorized(err, "invalid session")
	}

	if claims.ID != "" {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.Unauthorized(err, "failed to check session")
		}
		if revoked {
			return nil, apperrors.Unauthorized(nil, "session revoked")
		}
	}
	return claims, nil
}

// Revoke blacklists the token until it would have expired. Tokens that do
// not verify are ignored.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	claims := &models.SessionClaims{}
	if err := m.parse(token, claims); err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return m.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time.Sub(m.now()))
}

// IssueState signs the OAuth state parameter carrying the post-login target.
// nonce is the state's jti; it goes into the state cookie.
func (m *SessionManager) IssueState(callbackURL string) (state, nonce string, err error) {
	now := m.now()
	nonce = uuid.NewString()
	claims := &models.StateClaims{
		CallbackURL: callbackURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}
	state, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", err
	}
	return state, nonce, nil
}

// ResolveState verifies a state parameter against the nonce from the state
// cookie and returns its callback URL
func (m *SessionManager) ResolveState(state, nonce string) (string, error) {
	claims := &models.StateClaims{}
	if err := m.parse(state, claims); err != nil {
		return "", apperrors.Unauthorized(err, "invalid state")
	}
	if err := m.verify(&claims.RegisteredClaims, stateAudience); err != nil {
		return "", apperrors.Unauthorized(err, "invalid state")
	}
	if nonce == "" || subtle.ConstantTimeCompare([]byte(nonce), []byte(claims.ID)) != 1 {
		return "", apperrors.Unauthorized(nil, "state not issued to this browser")
	}
	return claims.CallbackURL, nil
}

// StateCookie carries the state nonce through the provider round trip
func (m *SessionManager) StateCookie(nonce string) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookieName,
		Value:    nonce,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		Expires:  m.now().Add(stateTTL),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredStateCookie clears the state cookie
func (m *SessionManager) ExpiredStateCookie() *http.Cookie {
	return &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// Cookie builds the session cookie for token
func (m *SessionManager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		Expires:  m.now().Add(m.maxAge),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie
func (m *SessionManager) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokenFromRequest reads the session cookie, falling back to a bearer token
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// parse checks the signature only; time based claims are verified against
// the manager clock in verify.
func (m *SessionManager) parse(token string, claims jwt.Claims) error {
	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	return err
}

func (m *SessionManager) verify(claims *jwt.RegisteredClaims, audience string) error {
	now := m.now()
	switch {
	case !claims.VerifyExpiresAt(now, true):
		return errors.New("token expired")
	case !claims.VerifyIssuedAt(now, false):
		return errors.New("token used before issued")
	case !claims.VerifyIssuer(tokenIssuer, true):
		return errors.New("unexpected issuer")
	case !claims.VerifyAudience(audience, true):
		return errors.New("unexpected audience")
	}
	return nil
}
