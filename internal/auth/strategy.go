package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/kdiary/backend/internal/models"
	"github.com/anonto42/kdiary/backend/pkg/config"
)

// LoginInput carries whatever the configured strategy needs
type LoginInput struct {
	Username string
	Password string
	IDToken  string
	Code     string
}

// Strategy turns a login attempt into an identity
type Strategy interface {
	Name() string
	// AuthURL is the provider page to redirect to, or "" when the strategy
	// signs in through POST /admin/login.
	AuthURL(state string) string
	Authenticate(ctx context.Context, in LoginInput) (models.Identity, error)
}

// isAdminEmail compares case-insensitively; an unset admin email matches nobody
func isAdminEmail(email, adminEmail string) bool {
	adminEmail = strings.TrimSpace(adminEmail)
	return adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), adminEmail)
}

// NewStrategy builds the strategy selected by AUTH_STRATEGY. verifier is only
// used by the firebase strategy.
func NewStrategy(cfg *config.Config, verifier TokenVerifier) (Strategy, error) {
	a := cfg.Auth
	switch a.Strategy {
	case config.StrategyCredentials:
		return NewCredentialsStrategy(a.AdminUsername, a.AdminPassword, a.AdminPasswordHash, a.AdminEmail), nil
	case config.StrategyGoogle:
		return NewGoogleStrategy(a.GoogleClientID, a.GoogleClientSecret, a.GoogleRedirectURL, a.AdminEmail), nil
	case config.StrategyFirebase:
		if verifier == nil {
			return nil, fmt.Errorf("firebase strategy needs an initialized auth client")
		}
		return NewFirebaseStrategy(verifier, a.AdminEmail), nil
	default:
		return nil, fmt.Errorf("unknown auth strategy %q", a.Strategy)
	}
}
