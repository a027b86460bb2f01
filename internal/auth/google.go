package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo?alt=json"

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// GoogleStrategy signs in through the OAuth2 authorization code flow
type GoogleStrategy struct {
	config      *oauth2.Config
	userInfoURL string
	adminEmail  string
}

type GoogleOption func(*GoogleStrategy)

// WithGoogleEndpoints points the strategy at other OAuth and userinfo URLs
func WithGoogleEndpoints(endpoint oauth2.Endpoint, userInfoURL string) GoogleOption {
	return func(s *GoogleStrategy) {
		s.config.Endpoint = endpoint
		s.userInfoURL = userInfoURL
	}
}

func NewGoogleStrategy(clientID, clientSecret, redirectURL, adminEmail string, opts ...GoogleOption) *GoogleStrategy {
	s := &GoogleStrategy{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		adminEmail:  adminEmail,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GoogleStrategy) Name() string { return "google" }

func (s *GoogleStrategy) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Authenticate exchanges the authorization code and reads the user's email
func (s *GoogleStrategy) Authenticate(ctx context.Context, in LoginInput) (models.Identity, error) {
	if in.Code == "" {
		return models.Identity{}, apperrors.Unauthorized(nil, "missing authorization code")
	}

	token, err := s.config.Exchange(ctx, in.Code)
	if err != nil {
		return models.Identity{}, apperrors.Unauthorized(err, "failed to exchange code")
	}

	client := s.config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return models.Identity{}, apperrors.Unauthorized(err, "failed to build userinfo request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Identity{}, apperrors.Unauthorized(err, "failed to get user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Identity{}, apperrors.Unauthorized(fmt.Errorf("userinfo status %d", resp.StatusCode), "failed to get user info")
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.Identity{}, apperrors.Unauthorized(err, "failed to decode user info")
	}
	if info.Email == "" || !info.VerifiedEmail {
		return models.Identity{}, apperrors.Unauthorized(nil, "google account has no verified email")
	}

	return models.Identity{Email: info.Email, Name: info.Name, IsAdmin: isAdminEmail(info.Email, s.adminEmail)}, nil
}
